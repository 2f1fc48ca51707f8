package eventos

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Canal is the redis pub/sub channel carrying change events.
const Canal = "pos:eventos"

// Redis publishes through redis pub/sub so every process attached to the
// same redis sees the feed.
type Redis struct {
	rdb *redis.Client
}

func NewRedis(rdb *redis.Client) *Redis { return &Redis{rdb: rdb} }

func (r *Redis) Publicar(ctx context.Context, ev Evento) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	if err := r.rdb.Publish(ctx, Canal, b).Err(); err != nil {
		log.Warn().Err(err).Str("entidad", ev.Entidad).Msg("eventos: publish failed")
	}
}

func (r *Redis) Suscribir(ctx context.Context) (<-chan Evento, func()) {
	ctx, stop := context.WithCancel(ctx)
	sub := r.rdb.Subscribe(ctx, Canal)
	out := make(chan Evento, bufferSuscriptor)

	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var ev Evento
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Warn().Err(err).Msg("eventos: invalid payload")
					continue
				}
				select {
				case out <- ev:
				default:
				}
			}
		}
	}()

	var once sync.Once
	return out, func() { once.Do(stop) }
}
