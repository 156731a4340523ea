package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"chess_sync/internal/domain/game"
	errs "chess_sync/internal/errors"
	"chess_sync/internal/rules"
	"chess_sync/internal/statuses"
)

type GameStore interface {
	GenerateGameID(ctx context.Context) string
	GetGameByID(ctx context.Context, gameID string) (game.Game, error)
	SaveGame(ctx context.Context, gameData game.Game) error
	UpdateGameStatus(ctx context.Context, gameID string, status string, startTimeMs int64) error
	SaveFenToRedis(ctx context.Context, gameID string, fen string) error
	LoadFenFromRedis(ctx context.Context, gameID string) (string, error)
}

type GameUseCase struct {
	store  GameStore
	engine rules.Engine
	log    *zap.SugaredLogger
	coin   func() bool // бросок монеты для random-цвета, подменяется в тестах
}

func NewGameUseCase(store GameStore, engine rules.Engine, log *zap.SugaredLogger) *GameUseCase {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	return NewGameUseCaseWithCoin(store, engine, log, func() bool { return rnd.Intn(2) == 0 })
}

func NewGameUseCaseWithCoin(store GameStore, engine rules.Engine, log *zap.SugaredLogger, coin func() bool) *GameUseCase {
	return &GameUseCase{
		store:  store,
		engine: engine,
		log:    log,
		coin:   coin,
	}
}

func (g *GameUseCase) CreateOpenGame(ctx context.Context, req game.CreateGameRequest) (game.Game, error) {
	if req.CreatorID == "" {
		return game.Game{}, fmt.Errorf("%w: пустой creator_id", errs.ErrCreateGameFailed)
	}

	creatorColor := game.ColorRandom
	if !req.RandomColor {
		if req.Color != game.ColorWhite && req.Color != game.ColorBlack {
			return game.Game{}, fmt.Errorf("%w: неизвестный цвет %q", errs.ErrCreateGameFailed, req.Color)
		}
		creatorColor = req.Color
	}

	newGame := game.Game{
		ID:           g.store.GenerateGameID(ctx),
		CreatorID:    req.CreatorID,
		CreatorColor: creatorColor,
		GameType:     game.GameTypeOpen,
		GameStatus:   statuses.StatusNotStarted,
		CurrentFen:   game.StartingFen,
		ExtendConfig: req.ExtendConfig,
		MoveDetails:  []game.MoveDetail{},
	}

	newGame, _ = g.AssignColor(req.CreatorID, newGame)

	if err := g.store.SaveGame(ctx, newGame); err != nil {
		return game.Game{}, err
	}

	g.log.Infof("создана открытая игра %s, создатель %s (%s)", newGame.ID, req.CreatorID, creatorColor)
	return newGame, nil
}

// CreatePrivateGame создаёт игру с двумя заранее известными участниками.
func (g *GameUseCase) CreatePrivateGame(ctx context.Context, req game.CreatePrivateGameRequest) (game.Game, error) {
	if req.WhitePlayerID == "" || req.BlackPlayerID == "" || req.WhitePlayerID == req.BlackPlayerID {
		return game.Game{}, fmt.Errorf("%w: некорректные участники", errs.ErrCreateGameFailed)
	}

	newGame := game.Game{
		ID:            g.store.GenerateGameID(ctx),
		CreatorID:     req.WhitePlayerID,
		CreatorColor:  game.ColorWhite,
		WhitePlayerID: req.WhitePlayerID,
		BlackPlayerID: req.BlackPlayerID,
		GameType:      game.GameTypePrivate,
		GameStatus:    statuses.StatusNotStarted,
		CurrentFen:    game.StartingFen,
		ExtendConfig:  req.ExtendConfig,
		MoveDetails:   []game.MoveDetail{},
	}

	if err := g.store.SaveGame(ctx, newGame); err != nil {
		return game.Game{}, err
	}

	g.log.Infof("создана приватная игра %s: %s vs %s", newGame.ID, req.WhitePlayerID, req.BlackPlayerID)
	return newGame, nil
}

// AssignColor — чистая функция рассадки, без I/O. Занятый слот никогда не
// переназначается, поэтому исход гонки двух джойнов сходится независимо от
// порядка. Вернувшийся flag показывает, была ли мутация: сохранять и
// рассылать есть смысл только при реальном изменении.
func (g *GameUseCase) AssignColor(candidateID string, play game.Game) (game.Game, bool) {
	if play.BothSeatsFilled() {
		return play, false
	}

	// ровно один слот занят: кандидат садится в свободный
	if play.WhitePlayerID != "" {
		if play.WhitePlayerID == candidateID {
			return play, false
		}
		play.BlackPlayerID = candidateID
		return play, true
	}
	if play.BlackPlayerID != "" {
		if play.BlackPlayerID == candidateID {
			return play, false
		}
		play.WhitePlayerID = candidateID
		return play, true
	}

	// оба слота свободны — так садится только создатель, по заявленному цвету
	if candidateID != play.CreatorID {
		return play, false
	}
	switch play.CreatorColor {
	case game.ColorWhite:
		play.WhitePlayerID = candidateID
	case game.ColorBlack:
		play.BlackPlayerID = candidateID
	default: // random
		if g.coin() {
			play.WhitePlayerID = candidateID
		} else {
			play.BlackPlayerID = candidateID
		}
	}
	return play, true
}

// ReadyToStart пересчитывается каждый раз и нигде не кэшируется —
// иначе ловим двойной старт.
func (g *GameUseCase) ReadyToStart(play game.Game) bool {
	if play.GameStatus != statuses.StatusNotStarted {
		return false
	}
	return play.BothSeatsFilled()
}

// StartGame переводит игру NOT_STARTED -> IN_PROGRESS и единственный раз
// выставляет StartTime. Повторный вызов падает на guard-е статуса.
func (g *GameUseCase) StartGame(ctx context.Context, gameID string) (game.Game, error) {
	play, err := g.store.GetGameByID(ctx, gameID)
	if err != nil {
		return game.Game{}, err
	}

	if play.GameStatus != statuses.StatusNotStarted {
		return game.Game{}, errs.ErrGameNotInExpectedState
	}

	startTime := time.Now().UnixMilli()
	if err := g.store.UpdateGameStatus(ctx, gameID, statuses.StatusInProgress, startTime); err != nil {
		return game.Game{}, err
	}

	play.GameStatus = statuses.StatusInProgress
	play.StartTime = startTime

	g.log.Infof("игра %s стартовала", gameID)
	return play, nil
}

// JoinOpenGame: загрузить запись, рассадить, сохранить только при изменении,
// стартовать если оба на месте. started говорит доставщику, что запись надо
// разослать всей комнате, а не только джойнеру.
func (g *GameUseCase) JoinOpenGame(ctx context.Context, gameID string, clientID string) (play game.Game, started bool, err error) {
	play, err = g.store.GetGameByID(ctx, gameID)
	if err != nil {
		return game.Game{}, false, err
	}

	updated, changed := g.AssignColor(clientID, play)
	if changed {
		if err = g.store.SaveGame(ctx, updated); err != nil {
			return game.Game{}, false, err
		}
	}

	if g.ReadyToStart(updated) {
		startedGame, err := g.StartGame(ctx, updated.ID)
		if errors.Is(err, errs.ErrGameNotInExpectedState) {
			// параллельный джойн успел стартовать первым: джойнеру всё равно
			// отдаём свежую запись, а не ошибку
			fresh, err := g.store.GetGameByID(ctx, updated.ID)
			if err != nil {
				return game.Game{}, false, err
			}
			return fresh, false, nil
		}
		if err != nil {
			return game.Game{}, false, err
		}
		return startedGame, true, nil
	}

	return updated, false, nil
}

// Resign завершает партию сдачей одного из посаженных игроков.
func (g *GameUseCase) Resign(ctx context.Context, gameID string, clientID string) (game.Game, error) {
	play, err := g.store.GetGameByID(ctx, gameID)
	if err != nil {
		return game.Game{}, err
	}

	if play.GameStatus != statuses.StatusInProgress {
		return game.Game{}, errs.ErrGameNotInProgress
	}
	if play.WhitePlayerID != clientID && play.BlackPlayerID != clientID {
		return game.Game{}, errs.ErrNotAPlayer
	}

	if err := g.store.UpdateGameStatus(ctx, gameID, statuses.StatusResigned, 0); err != nil {
		return game.Game{}, err
	}

	play.GameStatus = statuses.StatusResigned

	g.log.Infof("игрок %s сдался в игре %s", clientID, gameID)
	return play, nil
}

func (g *GameUseCase) GetGame(ctx context.Context, gameID string) (game.Game, error) {
	return g.store.GetGameByID(ctx, gameID)
}

// GetCurrentFen отдаёт текущую позицию из кэша; при промахе читает полную
// запись и заодно прогревает кэш.
func (g *GameUseCase) GetCurrentFen(ctx context.Context, gameID string) (string, error) {
	fen, err := g.store.LoadFenFromRedis(ctx, gameID)
	if err == nil {
		return fen, nil
	}
	if !errors.Is(err, errs.ErrGameNotFound) {
		g.log.Warnf("кэш позиции недоступен для %s: %v", gameID, err)
	}

	play, err := g.store.GetGameByID(ctx, gameID)
	if err != nil {
		return "", err
	}

	if cacheErr := g.store.SaveFenToRedis(ctx, gameID, play.CurrentFen); cacheErr != nil {
		g.log.Warnf("не удалось прогреть кэш позиции для %s: %v", gameID, cacheErr)
	}

	return play.CurrentFen, nil
}
