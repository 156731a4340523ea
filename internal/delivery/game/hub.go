package game

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"
)

// Hub хранит явное соответствие game_id -> множество подключений.
// Комната живёт ровно столько, сколько в ней есть клиенты; сама игровая
// запись о подключениях ничего не знает.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[*Client]bool
	log   *zap.SugaredLogger
}

func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		rooms: make(map[string]map[*Client]bool),
		log:   log,
	}
}

// Join регистрирует клиента в комнате игры. Повторный Join того же клиента —
// no-op, клиент может слушать несколько игр сразу.
func (h *Hub) Join(gameID string, c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[gameID]
	if !ok {
		room = make(map[*Client]bool)
		h.rooms[gameID] = room
	}
	room[c] = true

	h.log.Infof("клиент %s вошёл в комнату %s (всего: %d)", c.id, gameID, len(room))
}

// Leave убирает клиента из всех комнат; пустые комнаты удаляются.
func (h *Hub) Leave(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for gameID, room := range h.rooms {
		if room[c] {
			delete(room, c)
			if len(room) == 0 {
				delete(h.rooms, gameID)
			}
		}
	}
}

// BroadcastOthers шлёт сообщение всем в комнате, кроме отправителя.
func (h *Hub) BroadcastOthers(gameID string, sender *Client, msg SyncGameMessage) {
	h.send(gameID, msg, func(c *Client) bool { return c != sender })
}

// BroadcastAll шлёт сообщение всем участникам комнаты.
func (h *Hub) BroadcastAll(gameID string, msg SyncGameMessage) {
	h.send(gameID, msg, func(c *Client) bool { return true })
}

func (h *Hub) send(gameID string, msg SyncGameMessage, match func(*Client) bool) {
	raw, err := json.Marshal(msg)
	if err != nil {
		h.log.Errorf("broadcast marshal error: %v", err)
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.rooms[gameID]))
	for c := range h.rooms[gameID] {
		if match(c) {
			clients = append(clients, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if !c.TrySend(raw) {
			// медленный клиент: буфер полон, отключаем
			h.log.Warnf("клиент %s не успевает читать, отключаем", c.id)
			h.Leave(c)
			c.Close()
		}
	}
}

// RoomSize — размер комнаты, используется в тестах и логах.
func (h *Hub) RoomSize(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[gameID])
}
