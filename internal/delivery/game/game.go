package game

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"chess_sync/internal/adapters"
	"chess_sync/internal/bootstrap"
	"chess_sync/internal/domain/game"
	errs "chess_sync/internal/errors"
	"chess_sync/internal/httpresponse"
	repo "chess_sync/internal/repository"
	"chess_sync/internal/rules"
	gameuc "chess_sync/internal/usecase/game"
	"chess_sync/internal/utils"
)

type GameHandler struct {
	cfg    bootstrap.Config
	log    *zap.SugaredLogger
	gameUC *gameuc.GameUseCase
	hub    *Hub
}

func NewGameHandler(cfg bootstrap.Config, log *zap.SugaredLogger, mongoAdapter *adapters.AdapterMongo, redisAdapter *adapters.AdapterRedis) *GameHandler {
	store := repo.NewGameRepository(cfg, log, redisAdapter.GetClient(), mongoAdapter.Database)
	engine := rules.NewChessEngine(log)
	return &GameHandler{
		cfg:    cfg,
		log:    log,
		gameUC: gameuc.NewGameUseCase(store, engine, log),
		hub:    NewHub(log),
	}
}

func (g *GameHandler) HandleNewGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpresponse.WriteErrorWithStatus(w, http.StatusMethodNotAllowed, "Only POST method is allowed")
		return
	}

	var req game.CreateGameRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		g.log.Errorf("JSON decode error: %v", err)
		httpresponse.WriteErrorWithStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	newGame, err := g.gameUC.CreateOpenGame(r.Context(), req)
	if err != nil {
		g.writeUsecaseError(w, err)
		return
	}

	g.log.Infof("New game created with id: %s", newGame.ID)
	httpresponse.WriteDataWithStatus(w, http.StatusOK, game.GameCreateResponse{ID: newGame.ID})
}

func (g *GameHandler) HandleNewPrivateGame(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httpresponse.WriteErrorWithStatus(w, http.StatusMethodNotAllowed, "Only POST method is allowed")
		return
	}

	var req game.CreatePrivateGameRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		g.log.Errorf("JSON decode error: %v", err)
		httpresponse.WriteErrorWithStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	newGame, err := g.gameUC.CreatePrivateGame(r.Context(), req)
	if err != nil {
		g.writeUsecaseError(w, err)
		return
	}

	httpresponse.WriteDataWithStatus(w, http.StatusOK, game.GameCreateResponse{ID: newGame.ID})
}

func (g *GameHandler) GetGameById(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("game_id")
	if gameID == "" {
		httpresponse.WriteErrorWithStatus(w, http.StatusBadRequest, "отсутствует поле game_id")
		return
	}

	foundGame, err := g.gameUC.GetGame(r.Context(), gameID)
	if err != nil {
		g.writeUsecaseError(w, err)
		return
	}

	httpresponse.WriteDataWithStatus(w, http.StatusOK, foundGame)
}

// GetGameFen — лёгкое чтение позиции: сперва кэш, затем полная запись.
func (g *GameHandler) GetGameFen(w http.ResponseWriter, r *http.Request) {
	gameID := r.URL.Query().Get("game_id")
	if gameID == "" {
		httpresponse.WriteErrorWithStatus(w, http.StatusBadRequest, "отсутствует поле game_id")
		return
	}

	fen, err := g.gameUC.GetCurrentFen(r.Context(), gameID)
	if err != nil {
		g.writeUsecaseError(w, err)
		return
	}

	httpresponse.WriteDataWithStatus(w, http.StatusOK, game.FenResponse{GameID: gameID, Fen: fen})
}

func (g *GameHandler) HandleJoinGame(w http.ResponseWriter, r *http.Request) {
	var req game.GameJoinRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		g.log.Errorf("JSON decode error: %v", err)
		httpresponse.WriteErrorWithStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	if req.GameID == "" || req.ClientID == "" {
		httpresponse.WriteErrorWithStatus(w, http.StatusBadRequest, "отсутствуют поля game_id или client_id")
		return
	}

	joined, _, err := g.gameUC.JoinOpenGame(r.Context(), req.GameID, req.ClientID)
	if err != nil {
		g.writeUsecaseError(w, err)
		return
	}

	httpresponse.WriteDataWithStatus(w, http.StatusOK, joined)
}

func (g *GameHandler) HandleMove(w http.ResponseWriter, r *http.Request) {
	var req game.MoveRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		g.log.Errorf("JSON decode error: %v", err)
		httpresponse.WriteErrorWithStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, _, err := g.gameUC.ApplyMove(r.Context(), req.GameID, req.Move, req.MoveNumber)
	if err != nil {
		g.writeUsecaseError(w, err)
		return
	}

	httpresponse.WriteDataWithStatus(w, http.StatusOK, updated)
}

func (g *GameHandler) HandleStartGame(w http.ResponseWriter, r *http.Request) {
	var req game.StartGameRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		g.log.Errorf("JSON decode error: %v", err)
		httpresponse.WriteErrorWithStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	started, err := g.gameUC.StartGame(r.Context(), req.GameID)
	if err != nil {
		g.writeUsecaseError(w, err)
		return
	}

	httpresponse.WriteDataWithStatus(w, http.StatusOK, started)
}

func (g *GameHandler) HandleResign(w http.ResponseWriter, r *http.Request) {
	var req game.ResignRequest
	if err := utils.DecodeJSONRequest(r, &req); err != nil {
		g.log.Errorf("JSON decode error: %v", err)
		httpresponse.WriteErrorWithStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	resigned, err := g.gameUC.Resign(r.Context(), req.GameID, req.ClientID)
	if err != nil {
		g.writeUsecaseError(w, err)
		return
	}

	g.hub.BroadcastAll(req.GameID, newSyncGame(resigned))

	httpresponse.WriteDataWithStatus(w, http.StatusOK, resigned)
}

func (g *GameHandler) writeUsecaseError(w http.ResponseWriter, err error) {
	g.log.Error(err)
	switch {
	case errors.Is(err, errs.ErrGameNotFound):
		httpresponse.WriteErrorWithStatus(w, http.StatusNotFound, err.Error())
	case errors.Is(err, errs.ErrStorage):
		httpresponse.WriteErrorWithStatus(w, http.StatusInternalServerError, err.Error())
	default:
		httpresponse.WriteErrorWithStatus(w, http.StatusBadRequest, err.Error())
	}
}
