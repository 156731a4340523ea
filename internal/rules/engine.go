package rules

import (
	"context"

	"chess_sync/internal/domain/game"
)

// Result — итог проверки хода движком правил.
type Result struct {
	Valid     bool
	NewFen    string
	NewStatus string // statuses.StatusInProgress или терминальный статус
}

// Engine проверяет ход и возвращает новую позицию и статус партии.
// Реализация обязана быть чистой функцией от (fen, cfg, move): никаких
// побочных эффектов, ограниченное время ответа. Транзиентные сбои
// (таймаут внешнего движка) возвращаются ошибкой и здесь не ретраятся.
type Engine interface {
	ValidateAndApply(ctx context.Context, fen string, cfg game.ExtendConfig, move string) (Result, error)
}
