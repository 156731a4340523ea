package httpresponse

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Response — единый конверт ответа: либо error, либо data.
type Response struct {
	Error string `json:"error,omitempty"`
	Data  any    `json:"data,omitempty"`
}

const INTERNALERRORJSON = "{\"error\": \"internal server error\"}"

func WriteDataWithStatus(w http.ResponseWriter, status int, data any) {
	writeWithStatus(w, status, Response{Data: data})
}

func WriteErrorWithStatus(w http.ResponseWriter, status int, errMsg string) {
	writeWithStatus(w, status, Response{Error: errMsg})
}

func writeWithStatus(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	jsonByte, err := json.Marshal(resp)
	if err != nil {
		WriteInternalErrorResponse(w)
		return
	}
	w.WriteHeader(status)
	_, err = w.Write(jsonByte)
	if err != nil {
		WriteInternalErrorResponse(w)
		return
	}
}

func WriteInternalErrorResponse(w http.ResponseWriter) {
	// implementation similar to http.Error, only difference is the Content-type
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(500)
	_, _ = fmt.Fprintln(w, INTERNALERRORJSON)
}
