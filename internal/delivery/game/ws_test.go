package game

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chess_sync/internal/domain/game"
	errs "chess_sync/internal/errors"
	"chess_sync/internal/rules"
	"chess_sync/internal/statuses"
	gameuc "chess_sync/internal/usecase/game"
)

// memStore — хранилище в памяти для тестов доставки. Движок правил при этом
// настоящий, чтобы сценарии ходов шли через реальную валидацию.
type memStore struct {
	mu    sync.Mutex
	seq   int
	games map[string]game.Game
	fens  map[string]string
}

func newMemStore() *memStore {
	return &memStore{
		games: make(map[string]game.Game),
		fens:  make(map[string]string),
	}
}

func (s *memStore) GenerateGameID(ctx context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return fmt.Sprintf("game-%d", s.seq)
}

func (s *memStore) GetGameByID(ctx context.Context, gameID string) (game.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	play, ok := s.games[gameID]
	if !ok {
		return game.Game{}, errs.ErrGameNotFound
	}
	return play, nil
}

func (s *memStore) SaveGame(ctx context.Context, gameData game.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[gameData.ID] = gameData
	return nil
}

func (s *memStore) UpdateGameStatus(ctx context.Context, gameID string, status string, startTimeMs int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	play, ok := s.games[gameID]
	if !ok {
		return errs.ErrGameNotFound
	}
	play.GameStatus = status
	if startTimeMs != 0 {
		play.StartTime = startTimeMs
	}
	s.games[gameID] = play
	return nil
}

func (s *memStore) SaveFenToRedis(ctx context.Context, gameID string, fen string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fens[gameID] = fen
	return nil
}

func (s *memStore) LoadFenFromRedis(ctx context.Context, gameID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fen, ok := s.fens[gameID]
	if !ok {
		return "", errs.ErrGameNotFound
	}
	return fen, nil
}

func newTestHandler(t *testing.T) (*GameHandler, *memStore) {
	t.Helper()

	log := zap.NewNop().Sugar()
	store := newMemStore()
	uc := gameuc.NewGameUseCase(store, rules.NewChessEngine(log), log)
	return &GameHandler{
		log:    log,
		gameUC: uc,
		hub:    NewHub(log),
	}, store
}

func recvMsg(t *testing.T, c *Client) SyncGameMessage {
	t.Helper()
	select {
	case raw := <-c.send:
		var msg SyncGameMessage
		require.NoError(t, json.Unmarshal(raw, &msg))
		return msg
	default:
		t.Fatal("ожидали сообщение, буфер пуст")
		return SyncGameMessage{}
	}
}

func requireSilent(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.send:
		t.Fatalf("неожиданное сообщение: %s", raw)
	default:
	}
}

func drain(c *Client) {
	for {
		select {
		case <-c.send:
		default:
			return
		}
	}
}

// создаёт открытую игру с белым создателем alice
func createOpenGameForWS(t *testing.T, h *GameHandler) game.Game {
	t.Helper()
	play, err := h.gameUC.CreateOpenGame(context.Background(), game.CreateGameRequest{
		CreatorID: "alice",
		Color:     game.ColorWhite,
	})
	require.NoError(t, err)
	return play
}

func wsClient(id string) *Client {
	return newClient(id, nil, zap.NewNop().Sugar())
}

func TestJoinEventSecondPlayerStartsGame(t *testing.T) {
	h, _ := newTestHandler(t)
	ctx := context.Background()
	play := createOpenGameForWS(t, h)

	alice := wsClient("c-alice")
	h.handleEvent(ctx, alice, wsRequest{Event: EventJoinGame, GameID: play.ID, ClientID: "alice"})

	// создатель уже посажен: джойн ничего не меняет, запись идёт только ему
	msg := recvMsg(t, alice)
	require.Empty(t, msg.Error)
	require.Equal(t, statuses.StatusNotStarted, msg.Game.GameStatus)
	require.Equal(t, 1, h.hub.RoomSize(play.ID))

	bob := wsClient("c-bob")
	h.handleEvent(ctx, bob, wsRequest{Event: EventJoinGame, GameID: play.ID, ClientID: "bob"})

	// второй джойн запускает партию: свежая запись и бобу, и остальной комнате
	bobMsg := recvMsg(t, bob)
	require.Empty(t, bobMsg.Error)
	require.Equal(t, statuses.StatusInProgress, bobMsg.Game.GameStatus)
	require.Equal(t, "alice", bobMsg.Game.WhitePlayerID)
	require.Equal(t, "bob", bobMsg.Game.BlackPlayerID)
	require.NotZero(t, bobMsg.Game.StartTime)

	aliceMsg := recvMsg(t, alice)
	require.Equal(t, statuses.StatusInProgress, aliceMsg.Game.GameStatus)
	require.Equal(t, 2, h.hub.RoomSize(play.ID))
}

func TestJoinEventNoopGoesToSenderOnly(t *testing.T) {
	h, _ := newTestHandler(t)
	ctx := context.Background()
	play := createOpenGameForWS(t, h)

	other := wsClient("c-other")
	h.hub.Join(play.ID, other)

	alice := wsClient("c-alice")
	h.handleEvent(ctx, alice, wsRequest{Event: EventJoinGame, GameID: play.ID, ClientID: "alice"})

	msg := recvMsg(t, alice)
	require.Empty(t, msg.Error)
	requireSilent(t, other)
}

func TestJoinEventUnknownGame(t *testing.T) {
	h, _ := newTestHandler(t)

	c := wsClient("c1")
	h.handleEvent(context.Background(), c, wsRequest{Event: EventJoinGame, GameID: "нет", ClientID: "alice"})

	msg := recvMsg(t, c)
	require.NotEmpty(t, msg.Error)
	require.Nil(t, msg.Game)
}

func TestUnknownEvent(t *testing.T) {
	h, _ := newTestHandler(t)

	c := wsClient("c1")
	h.handleEvent(context.Background(), c, wsRequest{Event: "whatever"})

	msg := recvMsg(t, c)
	require.Contains(t, msg.Error, "unknown event")
}

// startedWSGame: игра запущена, alice и bob сидят в комнате с пустыми буферами.
func startedWSGame(t *testing.T, h *GameHandler) (string, *Client, *Client) {
	t.Helper()
	ctx := context.Background()
	play := createOpenGameForWS(t, h)

	alice := wsClient("c-alice")
	bob := wsClient("c-bob")
	h.handleEvent(ctx, alice, wsRequest{Event: EventJoinGame, GameID: play.ID, ClientID: "alice"})
	h.handleEvent(ctx, bob, wsRequest{Event: EventJoinGame, GameID: play.ID, ClientID: "bob"})
	drain(alice)
	drain(bob)
	return play.ID, alice, bob
}

func TestMoveEventBroadcastsToOthersOnly(t *testing.T) {
	h, _ := newTestHandler(t)
	ctx := context.Background()
	gameID, alice, bob := startedWSGame(t, h)

	h.handleEvent(ctx, alice, wsRequest{Event: EventSyncMove, GameID: gameID, Move: "e4", MoveNumber: 1})

	// партия продолжается: мувер эха не получает
	requireSilent(t, alice)

	msg := recvMsg(t, bob)
	require.Empty(t, msg.Error)
	require.Len(t, msg.Game.MoveDetails, 1)
	require.Equal(t, "e4", msg.Game.MoveDetails[0].Move)
}

func TestMoveEventErrorsGoToSenderOnly(t *testing.T) {
	h, _ := newTestHandler(t)
	ctx := context.Background()
	gameID, alice, bob := startedWSGame(t, h)

	// ход из будущего
	h.handleEvent(ctx, alice, wsRequest{Event: EventSyncMove, GameID: gameID, Move: "e4", MoveNumber: 5})
	msg := recvMsg(t, alice)
	require.NotEmpty(t, msg.Error)
	requireSilent(t, bob)

	// нелегальный ход
	h.handleEvent(ctx, alice, wsRequest{Event: EventSyncMove, GameID: gameID, Move: "e5", MoveNumber: 1})
	msg = recvMsg(t, alice)
	require.NotEmpty(t, msg.Error)
	requireSilent(t, bob)
}

func TestMoveEventStaleRetryAnswersSenderOnly(t *testing.T) {
	h, _ := newTestHandler(t)
	ctx := context.Background()
	gameID, alice, bob := startedWSGame(t, h)

	h.handleEvent(ctx, alice, wsRequest{Event: EventSyncMove, GameID: gameID, Move: "e4", MoveNumber: 1})
	drain(bob)

	// ретрай уже применённого хода: отправителю свежую запись, комнате тишина
	h.handleEvent(ctx, alice, wsRequest{Event: EventSyncMove, GameID: gameID, Move: "e4", MoveNumber: 1})

	msg := recvMsg(t, alice)
	require.Empty(t, msg.Error)
	require.Len(t, msg.Game.MoveDetails, 1)
	requireSilent(t, bob)
}

func TestMoveEventTerminalEchoesToMover(t *testing.T) {
	h, _ := newTestHandler(t)
	ctx := context.Background()
	gameID, alice, bob := startedWSGame(t, h)

	moves := []struct {
		c  *Client
		mv string
	}{
		{alice, "f3"},
		{bob, "e5"},
		{alice, "g4"},
	}
	for i, step := range moves {
		h.handleEvent(ctx, step.c, wsRequest{Event: EventSyncMove, GameID: gameID, Move: step.mv, MoveNumber: i + 1})
	}
	drain(alice)
	drain(bob)

	// детский мат: терминальный исход подтверждается и муверу тоже
	h.handleEvent(ctx, bob, wsRequest{Event: EventSyncMove, GameID: gameID, Move: "Qh4#", MoveNumber: 4})

	aliceMsg := recvMsg(t, alice)
	require.Equal(t, statuses.StatusCheckmate, aliceMsg.Game.GameStatus)

	bobMsg := recvMsg(t, bob)
	require.Equal(t, statuses.StatusCheckmate, bobMsg.Game.GameStatus)
}

func TestResignEventBroadcastsToAll(t *testing.T) {
	h, _ := newTestHandler(t)
	ctx := context.Background()
	gameID, alice, bob := startedWSGame(t, h)

	h.handleEvent(ctx, bob, wsRequest{Event: EventResign, GameID: gameID, ClientID: "bob"})

	require.Equal(t, statuses.StatusResigned, recvMsg(t, alice).Game.GameStatus)
	require.Equal(t, statuses.StatusResigned, recvMsg(t, bob).Game.GameStatus)
}

func TestResignEventRejectsSpectator(t *testing.T) {
	h, _ := newTestHandler(t)
	ctx := context.Background()
	gameID, alice, bob := startedWSGame(t, h)

	spectator := wsClient("c-spec")
	h.hub.Join(gameID, spectator)

	h.handleEvent(ctx, spectator, wsRequest{Event: EventResign, GameID: gameID, ClientID: "eve"})

	msg := recvMsg(t, spectator)
	require.NotEmpty(t, msg.Error)
	requireSilent(t, alice)
	requireSilent(t, bob)
}
