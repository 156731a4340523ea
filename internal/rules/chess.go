package rules

import (
	"context"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"go.uber.org/zap"

	"chess_sync/internal/domain/game"
	"chess_sync/internal/statuses"
)

// ChessEngine — встроенная реализация движка правил поверх corentings/chess.
// Ходы расширения доски решаются тем движком, что стоит за интерфейсом;
// эта реализация покрывает стандартную геометрию 8x8 и пробрасывает
// маркер '#' варианта через позицию без изменений.
type ChessEngine struct {
	log *zap.SugaredLogger
}

func NewChessEngine(log *zap.SugaredLogger) *ChessEngine {
	return &ChessEngine{log: log}
}

func (e *ChessEngine) ValidateAndApply(ctx context.Context, fen string, cfg game.ExtendConfig, move string) (Result, error) {
	if cfg.HorizontalExtendLimit < 0 || cfg.VerticalExtendLimit < 0 {
		return Result{}, fmt.Errorf("некорректный extend config: лимиты %d/%d",
			cfg.HorizontalExtendLimit, cfg.VerticalExtendLimit)
	}

	marker := ""
	plainFen := fen
	if strings.HasPrefix(fen, "#") {
		marker = "#"
		plainFen = strings.TrimPrefix(fen, "#")
	}

	fenOpt, err := nchess.FEN(plainFen)
	if err != nil {
		return Result{}, fmt.Errorf("failed to parse position %q: %w", fen, err)
	}
	play := nchess.NewGame(fenOpt)

	// сначала SAN, затем UCI как запасная нотация
	if err := play.PushNotationMove(move, nchess.AlgebraicNotation{}, nil); err != nil {
		if err2 := play.PushNotationMove(strings.ToLower(strings.TrimSpace(move)), nchess.UCINotation{}, nil); err2 != nil {
			e.log.Debugf("ход %q отклонён: %v", move, err)
			return Result{Valid: false}, nil
		}
	}

	res := Result{
		Valid:     true,
		NewFen:    marker + play.FEN(),
		NewStatus: statuses.StatusInProgress,
	}

	switch play.Outcome() {
	case nchess.WhiteWon, nchess.BlackWon:
		res.NewStatus = statuses.StatusCheckmate
	case nchess.Draw:
		if play.Method() == nchess.Stalemate {
			res.NewStatus = statuses.StatusStalemate
		} else {
			res.NewStatus = statuses.StatusDraw
		}
	}

	return res, nil
}
