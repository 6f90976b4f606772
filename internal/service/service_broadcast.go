package service

import (
	"context"
	"fmt"

	"github.com/radarlink/radarlink/internal/logger"
	"github.com/radarlink/radarlink/internal/store"
	"github.com/radarlink/radarlink/models"
)

type broadcastService struct {
	users  store.UserRepository
	sender TextSender

	logger *logger.Logger
}

func NewBroadcastService(users store.UserRepository, sender TextSender, logger *logger.Logger) BroadcastService {
	return &broadcastService{
		users:  users,
		sender: sender,
		logger: logger,
	}
}

// Broadcast implements [BroadcastService]. Sends run sequentially; a failed
// recipient is tallied and the batch continues. Only the audience query can
// fail the whole call.
func (b *broadcastService) Broadcast(ctx context.Context, text string) (models.BroadcastResult, error) {
	log := logger.FromContext(ctx)

	audience, err := b.users.ListActiveUserIDs(ctx)
	if err != nil {
		log.Err(err).Str("func", "broadcastService.Broadcast").Msg("failed to load broadcast audience")
		return models.BroadcastResult{}, fmt.Errorf("failed to load broadcast audience: %w", err)
	}

	var result models.BroadcastResult
	for _, userID := range audience {
		if sendErr := b.sender.SendText(ctx, userID, text); sendErr != nil {
			log.Warn().Err(sendErr).Str("func", "broadcastService.Broadcast").Int64("user_id", userID).Msg("broadcast delivery failed")
			result.Failed++
			continue
		}
		result.Sent++
	}

	return result, nil
}

// SendTo implements [BroadcastService]. key resolves like every admin
// lookup: id, @handle or hash.
func (b *broadcastService) SendTo(ctx context.Context, key, text string) error {
	user, err := b.users.FindUserByAny(ctx, key)
	if err != nil {
		if isNotFound(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to resolve recipient: %w", err)
	}

	if err = b.sender.SendText(ctx, user.UserID, text); err != nil {
		return fmt.Errorf("failed to deliver message: %w", err)
	}

	return nil
}
