package service

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	redisrepo "github.com/freeeve/age-of-conquest/internal/repository/redis"
)

// EventRelay forwards match events published on Redis to the local
// broadcaster, so clients connected to any instance see every command.
type EventRelay struct {
	rdb         *redis.Client
	broadcaster Broadcaster
}

// NewEventRelay creates an EventRelay.
func NewEventRelay(rdb *redis.Client, broadcaster Broadcaster) *EventRelay {
	return &EventRelay{rdb: rdb, broadcaster: broadcaster}
}

// Start relays events until ctx is cancelled.
func (r *EventRelay) Start(ctx context.Context) {
	pubsub := r.rdb.PSubscribe(ctx, redisrepo.EventChannelPattern)
	defer pubsub.Close()

	log.Info().Str("pattern", redisrepo.EventChannelPattern).Msg("Event relay started")
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			r.handle(msg.Channel, msg.Payload)
		}
	}
}

// handle decodes one envelope. The payload is forwarded still encoded.
func (r *EventRelay) handle(channel, payload string) {
	matchID, ok := redisrepo.MatchIDFromChannel(channel)
	if !ok {
		return
	}
	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal([]byte(payload), &env); err != nil || env.Type == "" {
		log.Warn().Err(err).Str("channel", channel).Msg("Dropping malformed match event")
		return
	}
	r.broadcaster.BroadcastMatchEvent(matchID, env.Type, env.Data)
}
