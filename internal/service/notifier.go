package service

import (
	"context"
	"encoding/json"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/superio/interview-server-go/internal/model"
	"github.com/superio/interview-server-go/internal/redis"
)

// NotificationPublisher pushes a stored notification to live listeners.
// Delivery is best effort and never reported to the caller.
type NotificationPublisher interface {
	Publish(ctx context.Context, notification *model.Notification)
}

type RedisNotificationPublisher struct {
	client *goredis.Client
}

func NewRedisNotificationPublisher(client *goredis.Client) *RedisNotificationPublisher {
	return &RedisNotificationPublisher{client: client}
}

func (p *RedisNotificationPublisher) Publish(ctx context.Context, notification *model.Notification) {
	payload, err := json.Marshal(notification)
	if err != nil {
		log.Warn().Err(err).Str("notificationId", notification.ID).Msg("failed to marshal notification")
		return
	}

	channel := redis.NotificationChannel(notification.RecipientID)
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		log.Warn().
			Err(err).
			Str("notificationId", notification.ID).
			Str("channel", channel).
			Msg("failed to publish notification")
		return
	}

	log.Debug().
		Str("notificationId", notification.ID).
		Str("channel", channel).
		Msg("notification published")
}
