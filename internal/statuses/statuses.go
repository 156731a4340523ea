package statuses

// NOT_STARTED существует только на бэкенде, движок правил его не знает.
const (
	StatusNotStarted = "NOT_STARTED"
	StatusInProgress = "IN_PROGRESS"
	StatusCheckmate  = "CHECKMATE"
	StatusStalemate  = "STALEMATE"
	StatusDraw       = "DRAW"
	StatusResigned   = "RESIGNED"
)
