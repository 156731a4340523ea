package game

import (
	"context"
	"time"

	"chess_sync/internal/domain/game"
	errs "chess_sync/internal/errors"
	"chess_sync/internal/statuses"
)

// ApplyMove применяет ход строго по порядку. applied == false без ошибки
// означает ретрай уже применённого хода: канал доставки переотправляет,
// это штатный случай, а не ошибка.
func (g *GameUseCase) ApplyMove(ctx context.Context, gameID string, move string, moveNumber int) (play game.Game, applied bool, err error) {
	play, err = g.store.GetGameByID(ctx, gameID)
	if err != nil {
		return game.Game{}, false, err
	}

	if play.GameStatus != statuses.StatusInProgress {
		return game.Game{}, false, errs.ErrGameNotInProgress
	}

	expected := play.NextMoveNumber()
	if moveNumber < expected {
		// ретрай от клиента пришёл после того, как игра ушла вперёд —
		// спокойно игнорируем и возвращаем текущую запись
		g.log.Debugf("move number %d recieved for game %s but move number is %d", moveNumber, gameID, expected)
		return play, false, nil
	}
	if moveNumber > expected {
		// такое ретраем не объяснить: клиент должен пересинхронизироваться
		return game.Game{}, false, errs.ErrMoveOutOfOrder
	}

	res, err := g.engine.ValidateAndApply(ctx, play.CurrentFen, play.ExtendConfig, move)
	if err != nil {
		return game.Game{}, false, err
	}
	if !res.Valid {
		g.log.Debugf("move %s is not valid for game %s", move, gameID)
		return game.Game{}, false, errs.ErrIllegalMove
	}

	play.MoveDetails = append(play.MoveDetails, game.MoveDetail{
		Move:       move,
		PlayedAtMs: time.Now().UnixMilli(),
	})
	play.CurrentFen = res.NewFen
	play.GameStatus = res.NewStatus

	if err = g.store.SaveGame(ctx, play); err != nil {
		// валидация прошла, но запись не зафиксирована — результат в памяти
		// никому не показываем
		return game.Game{}, false, err
	}

	if cacheErr := g.store.SaveFenToRedis(ctx, gameID, play.CurrentFen); cacheErr != nil {
		g.log.Warnf("не удалось обновить кэш позиции для %s: %v", gameID, cacheErr)
	}

	return play, true, nil
}
