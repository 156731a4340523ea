package game

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"chess_sync/internal/domain/game"
)

func newHubClient(id string) *Client {
	return newClient(id, nil, zap.NewNop().Sugar())
}

func TestHubJoinLeave(t *testing.T) {
	hub := NewHub(zap.NewNop().Sugar())

	a := newHubClient("a")
	b := newHubClient("b")

	hub.Join("g1", a)
	hub.Join("g1", b)
	require.Equal(t, 2, hub.RoomSize("g1"))

	// повторный вход того же клиента ничего не меняет
	hub.Join("g1", a)
	require.Equal(t, 2, hub.RoomSize("g1"))

	hub.Leave(a)
	require.Equal(t, 1, hub.RoomSize("g1"))

	hub.Leave(b)
	require.Equal(t, 0, hub.RoomSize("g1"))
}

func TestHubClientInSeveralRooms(t *testing.T) {
	hub := NewHub(zap.NewNop().Sugar())

	a := newHubClient("a")
	hub.Join("g1", a)
	hub.Join("g2", a)

	// Leave вычищает клиента из всех комнат сразу
	hub.Leave(a)
	require.Equal(t, 0, hub.RoomSize("g1"))
	require.Equal(t, 0, hub.RoomSize("g2"))
}

func TestHubBroadcastOthersSkipsSender(t *testing.T) {
	hub := NewHub(zap.NewNop().Sugar())

	sender := newHubClient("sender")
	other := newHubClient("other")
	hub.Join("g1", sender)
	hub.Join("g1", other)

	hub.BroadcastOthers("g1", sender, newSyncGame(game.Game{ID: "g1"}))

	requireSilent(t, sender)
	msg := recvMsg(t, other)
	require.Equal(t, EventSyncGame, msg.Event)
	require.Equal(t, "g1", msg.Game.ID)
}

func TestHubBroadcastAll(t *testing.T) {
	hub := NewHub(zap.NewNop().Sugar())

	a := newHubClient("a")
	b := newHubClient("b")
	hub.Join("g1", a)
	hub.Join("g1", b)

	hub.BroadcastAll("g1", newSyncGame(game.Game{ID: "g1"}))

	require.Equal(t, "g1", recvMsg(t, a).Game.ID)
	require.Equal(t, "g1", recvMsg(t, b).Game.ID)
}

func TestHubBroadcastIgnoresOtherRooms(t *testing.T) {
	hub := NewHub(zap.NewNop().Sugar())

	a := newHubClient("a")
	stranger := newHubClient("stranger")
	hub.Join("g1", a)
	hub.Join("g2", stranger)

	hub.BroadcastAll("g1", newSyncGame(game.Game{ID: "g1"}))

	requireSilent(t, stranger)
	require.Equal(t, "g1", recvMsg(t, a).Game.ID)
}

// Клиент с забитым буфером отключается, остальная комната продолжает жить.
func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub(zap.NewNop().Sugar())

	slow := newHubClient("slow")
	fast := newHubClient("fast")
	hub.Join("g1", slow)
	hub.Join("g1", fast)

	for i := 0; i < sendBufferSize; i++ {
		require.True(t, slow.TrySend([]byte("x")))
	}

	hub.BroadcastAll("g1", newSyncGame(game.Game{ID: "g1"}))

	require.Equal(t, 1, hub.RoomSize("g1"))
	require.False(t, slow.TrySend([]byte("x")), "клиент должен быть закрыт")
	require.Equal(t, "g1", recvMsg(t, fast).Game.ID)
}
