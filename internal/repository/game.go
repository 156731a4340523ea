package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"chess_sync/internal/bootstrap"
	"chess_sync/internal/domain/game"
	errs "chess_sync/internal/errors"
)

const gamesCollection = "games"

type GameRepository struct {
	cfg   bootstrap.Config
	log   *zap.SugaredLogger
	redis *redis.Client
	mongo *mongo.Database
}

func NewGameRepository(cfg bootstrap.Config, log *zap.SugaredLogger, redis *redis.Client, mongo *mongo.Database) *GameRepository {
	return &GameRepository{
		cfg:   cfg,
		log:   log,
		redis: redis,
		mongo: mongo,
	}
}

func (g *GameRepository) GenerateGameID(ctx context.Context) string {
	return uuid.New().String()
}

func (g *GameRepository) GetGameByID(ctx context.Context, gameID string) (game.Game, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	collection := g.mongo.Collection(gamesCollection)

	filter := bson.M{"_id": gameID}

	var result game.Game
	err := collection.FindOne(ctx, filter).Decode(&result)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return game.Game{}, errs.ErrGameNotFound
	} else if err != nil {
		g.log.Errorf("ошибка при получении игры %s: %v", gameID, err)
		return game.Game{}, fmt.Errorf("%w: %v", errs.ErrStorage, err)
	}

	return result, nil
}

// SaveGame перезаписывает запись целиком (upsert по _id).
func (g *GameRepository) SaveGame(ctx context.Context, gameData game.Game) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	collection := g.mongo.Collection(gamesCollection)

	filter := bson.M{"_id": gameData.ID}
	opts := options.Replace().SetUpsert(true)

	_, err := collection.ReplaceOne(ctx, filter, gameData, opts)
	if err != nil {
		g.log.Errorf("failed to save game %s: %v", gameData.ID, err)
		return fmt.Errorf("%w: %v", errs.ErrStorage, err)
	}

	return nil
}

// UpdateGameStatus — узкий апдейт статуса и времени старта, без полной записи.
func (g *GameRepository) UpdateGameStatus(ctx context.Context, gameID string, status string, startTimeMs int64) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	collection := g.mongo.Collection(gamesCollection)

	filter := bson.M{"_id": gameID}
	set := bson.M{"game_status": status}
	if startTimeMs != 0 {
		set["start_time"] = startTimeMs
	}
	update := bson.M{"$set": set}

	opts := options.Update().SetUpsert(false)

	res, err := collection.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		g.log.Errorf("failed to update game %s: %v", gameID, err)
		return fmt.Errorf("%w: %v", errs.ErrStorage, err)
	}

	if res.MatchedCount == 0 {
		g.log.Infof("игра с ключом %s не найдена", gameID)
		return errs.ErrGameNotFound
	}

	return nil
}

// SaveFenToRedis кэширует текущую позицию для быстрых чтений.
func (g *GameRepository) SaveFenToRedis(ctx context.Context, gameID string, fen string) error {
	return g.redis.Set(ctx, fenKey(gameID), fen, 0).Err()
}

func (g *GameRepository) LoadFenFromRedis(ctx context.Context, gameID string) (string, error) {
	fen, err := g.redis.Get(ctx, fenKey(gameID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", errs.ErrGameNotFound
	}
	return fen, err
}

func fenKey(gameID string) string {
	return "game:fen:" + gameID
}
