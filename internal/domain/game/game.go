package game

import (
	"chess_sync/internal/statuses"
)

// StartingFen — стартовая позиция расширяемой доски. Ведущий '#' отмечает,
// что расширений ещё не было.
const StartingFen = "#rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

const (
	GameTypeOpen    = "OPEN"
	GameTypePrivate = "PRIVATE"
)

const (
	ColorWhite  = "white"
	ColorBlack  = "black"
	ColorRandom = "random"
)

type Game struct {
	ID            string       `json:"id" bson:"_id"`
	CreatorID     string       `json:"creator_id" bson:"creator_id"`
	CreatorColor  string       `json:"creator_color" bson:"creator_color"` // white | black | random
	WhitePlayerID string       `json:"white_player_id,omitempty" bson:"white_player_id,omitempty"`
	BlackPlayerID string       `json:"black_player_id,omitempty" bson:"black_player_id,omitempty"`
	GameType      string       `json:"game_type" bson:"game_type"`
	GameStatus    string       `json:"game_status" bson:"game_status"`
	CurrentFen    string       `json:"current_fen" bson:"current_fen"` // должен содержать всё для восстановления доски
	StartTime     int64        `json:"start_time,omitempty" bson:"start_time,omitempty"`
	ExtendConfig  ExtendConfig `json:"extend_config" bson:"extend_config"`
	MoveDetails   []MoveDetail `json:"move_details" bson:"move_details"`
}

type MoveDetail struct {
	Move       string `json:"move" bson:"move"`
	PlayedAtMs int64  `json:"played_at_ms" bson:"played_at_ms"`
}

type AddUnit struct {
	X int `json:"x" bson:"x"`
	Y int `json:"y" bson:"y"`
}

// ExtendConfig задаётся при создании и больше не меняется.
type ExtendConfig struct {
	HorizontalAddUnit     AddUnit `json:"horizontal_add_unit" bson:"horizontal_add_unit"`
	VerticalAddUnit       AddUnit `json:"vertical_add_unit" bson:"vertical_add_unit"`
	HorizontalExtendLimit int     `json:"horizontal_extend_limit" bson:"horizontal_extend_limit"`
	VerticalExtendLimit   int     `json:"vertical_extend_limit" bson:"vertical_extend_limit"`
}

// IsTerminal — всё, что не NOT_STARTED и не IN_PROGRESS, назад не откатывается.
func (g *Game) IsTerminal() bool {
	return g.GameStatus != statuses.StatusNotStarted && g.GameStatus != statuses.StatusInProgress
}

// BothSeatsFilled reports whether both color slots are assigned.
func (g *Game) BothSeatsFilled() bool {
	return g.WhitePlayerID != "" && g.BlackPlayerID != ""
}

// NextMoveNumber — номер следующего хода: длина истории + 1.
func (g *Game) NextMoveNumber() int {
	return len(g.MoveDetails) + 1
}

type CreateGameRequest struct {
	CreatorID    string       `json:"creator_id"`
	RandomColor  bool         `json:"random_color"`
	Color        string       `json:"color,omitempty"` // black | white, если не random
	ExtendConfig ExtendConfig `json:"extend_config"`
}

type CreatePrivateGameRequest struct {
	WhitePlayerID string       `json:"white_player_id"`
	BlackPlayerID string       `json:"black_player_id"`
	ExtendConfig  ExtendConfig `json:"extend_config"`
}

type GameCreateResponse struct {
	ID string `json:"id"`
}

type FenResponse struct {
	GameID string `json:"game_id"`
	Fen    string `json:"fen"`
}

type GameJoinRequest struct {
	GameID   string `json:"game_id"`
	ClientID string `json:"client_id"`
}

type MoveRequest struct {
	GameID     string `json:"game_id"`
	Move       string `json:"move"`
	MoveNumber int    `json:"move_number"`
}

type StartGameRequest struct {
	GameID string `json:"game_id"`
}

type ResignRequest struct {
	GameID   string `json:"game_id"`
	ClientID string `json:"client_id"`
}
