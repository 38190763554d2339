package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"tictactoe-rooms/internal/entity"
)

// Finished games per room kept in the archive; older entries roll off.
const resultHistoryDepth = 100

type ResultRepository interface {
	Record(ctx context.Context, result *entity.GameResult) error
	ListByRoom(ctx context.Context, code string) ([]entity.GameResult, error)
}

type dbResult struct {
	client *redis.Client
}

func NewResultRepository(client *redis.Client) ResultRepository {
	return &dbResult{
		client: client,
	}
}

// Record - prepends the result to the room's archive list. The room
// lifecycle never depends on this call; failures only cost history.
func (that *dbResult) Record(ctx context.Context, result *entity.GameResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("could not marshal game result: %w", err)
	}

	resultKey := resultKey(result.RoomCode)

	if err = that.client.LPush(ctx, resultKey, resultJSON).Err(); err != nil {
		return fmt.Errorf("failed to record game result: %w", err)
	}

	if err = that.client.LTrim(ctx, resultKey, 0, resultHistoryDepth-1).Err(); err != nil {
		return fmt.Errorf("failed to trim game results: %w", err)
	}

	return nil
}

// ListByRoom - returns the archived results for a room code, most
// recent first. An unknown code yields an empty list, not an error.
func (that *dbResult) ListByRoom(ctx context.Context, code string) ([]entity.GameResult, error) {
	entries, err := that.client.LRange(ctx, resultKey(code), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list game results: %w", err)
	}

	results := make([]entity.GameResult, 0, len(entries))
	for _, entry := range entries {
		var result entity.GameResult
		if err = json.Unmarshal([]byte(entry), &result); err != nil {
			return nil, fmt.Errorf("failed to unmarshal game result: %w", err)
		}
		results = append(results, result)
	}

	return results, nil
}

func resultKey(code string) string {
	return "results:" + code
}
