package game

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"chess_sync/internal/domain/game"
)

const (
	EventJoinGame = "joinGame"
	EventSyncMove = "syncMove"
	EventResign   = "resign"
	EventSyncGame = "syncGame"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 16
)

type wsRequest struct {
	Event      string `json:"event"`
	GameID     string `json:"game_id"`
	ClientID   string `json:"client_id,omitempty"`
	Move       string `json:"move,omitempty"`
	MoveNumber int    `json:"move_number,omitempty"`
}

// SyncGameMessage — единственное исходящее событие: либо ошибка, либо
// свежая запись игры.
type SyncGameMessage struct {
	Event string     `json:"event"`
	Error string     `json:"error,omitempty"`
	Game  *game.Game `json:"game,omitempty"`
}

func newSyncGame(play game.Game) SyncGameMessage {
	return SyncGameMessage{Event: EventSyncGame, Game: &play}
}

func newSyncError(err error) SyncGameMessage {
	return SyncGameMessage{Event: EventSyncGame, Error: err.Error()}
}

type Client struct {
	id        string
	conn      *websocket.Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	log       *zap.SugaredLogger
}

func newClient(id string, conn *websocket.Conn, log *zap.SugaredLogger) *Client {
	return &Client{
		id:   id,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
		log:  log,
	}
}

// TrySend кладёт сообщение в буфер клиента без блокировки.
// false — клиент закрыт или не успевает читать.
func (c *Client) TrySend(raw []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- raw:
		return true
	default:
		return false
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case raw := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, raw); err != nil {
				c.log.Infof("write error для клиента %s: %v", c.id, err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (g *GameHandler) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.log.Errorf("upgrade error: %v", err)
		return
	}

	c := newClient(uuid.New().String(), conn, g.log)
	go c.writePump()
	g.readLoop(r.Context(), c)
}

func (g *GameHandler) readLoop(ctx context.Context, c *Client) {
	defer func() {
		g.hub.Leave(c)
		c.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var req wsRequest
		if err := c.conn.ReadJSON(&req); err != nil {
			g.log.Infof("клиент %s отключился: %v", c.id, err)
			return
		}
		g.handleEvent(ctx, c, req)
	}
}

func (g *GameHandler) handleEvent(ctx context.Context, c *Client, req wsRequest) {
	switch req.Event {
	case EventJoinGame:
		g.handleJoinEvent(ctx, c, req)
	case EventSyncMove:
		g.handleMoveEvent(ctx, c, req)
	case EventResign:
		g.handleResignEvent(ctx, c, req)
	default:
		g.sendTo(c, SyncGameMessage{Event: EventSyncGame, Error: "unknown event: " + req.Event})
	}
}

// handleJoinEvent: запись идёт джойнеру всегда; остальной комнате — только
// когда джойн действительно запустил игру. Несостоявшийся джойн для
// остальных — не событие.
func (g *GameHandler) handleJoinEvent(ctx context.Context, c *Client, req wsRequest) {
	g.hub.Join(req.GameID, c)

	play, started, err := g.gameUC.JoinOpenGame(ctx, req.GameID, req.ClientID)
	if err != nil {
		g.sendTo(c, newSyncError(err))
		return
	}

	g.sendTo(c, newSyncGame(play))
	if started {
		g.hub.BroadcastOthers(req.GameID, c, newSyncGame(play))
	}
}

// handleMoveEvent: ошибки — только отправителю; применённый ход — остальной
// комнате; эхо отправителю — только при терминальном исходе, успешный ход
// в продолжающейся партии он и так знает.
func (g *GameHandler) handleMoveEvent(ctx context.Context, c *Client, req wsRequest) {
	play, applied, err := g.gameUC.ApplyMove(ctx, req.GameID, req.Move, req.MoveNumber)
	if err != nil {
		g.sendTo(c, newSyncError(err))
		return
	}

	if !applied {
		// стейл-ретрай: отправителю свежую запись, комнату не трогаем
		g.sendTo(c, newSyncGame(play))
		return
	}

	g.hub.BroadcastOthers(req.GameID, c, newSyncGame(play))
	if play.IsTerminal() {
		g.sendTo(c, newSyncGame(play))
	}
}

func (g *GameHandler) handleResignEvent(ctx context.Context, c *Client, req wsRequest) {
	play, err := g.gameUC.Resign(ctx, req.GameID, req.ClientID)
	if err != nil {
		g.sendTo(c, newSyncError(err))
		return
	}

	// терминальный исход подтверждаем всем, включая сдавшегося
	g.hub.BroadcastAll(req.GameID, newSyncGame(play))
}

func (g *GameHandler) sendTo(c *Client, msg SyncGameMessage) {
	raw, err := json.Marshal(msg)
	if err != nil {
		g.log.Errorf("sendTo marshal error: %v", err)
		return
	}
	if !c.TrySend(raw) {
		g.log.Warnf("клиент %s не принял сообщение", c.id)
	}
}
