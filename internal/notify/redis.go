package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/agebe/pingalert/internal/model"
)

// RedisSink publica cada evento como JSON en un canal pub/sub.
type RedisSink struct {
	client  *redis.Client
	channel string
}

// NewRedisSink conecta con Redis y verifica la conexion.
func NewRedisSink(ctx context.Context, url, channel string) (*RedisSink, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("url de Redis invalida: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.WriteTimeout = 5 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("no se pudo conectar a Redis: %w", err)
	}

	return &RedisSink{client: client, channel: channel}, nil
}

// Name identifica el canal en los logs.
func (s *RedisSink) Name() string { return "redis" }

// Send publica todos los tipos de evento.
func (s *RedisSink) Send(ctx context.Context, ev model.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("no se pudo serializar evento: %w", err)
	}
	if err := s.client.Publish(ctx, s.channel, data).Err(); err != nil {
		return fmt.Errorf("no se pudo publicar en %s: %w", s.channel, err)
	}
	return nil
}

// Close cierra la conexion con Redis.
func (s *RedisSink) Close() error {
	return s.client.Close()
}
