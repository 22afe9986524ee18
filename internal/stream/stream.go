// Package stream fans freshly inserted klines out to Kafka or a Redis
// stream. Fan-out is optional and best effort: a publish failure is logged
// by the caller and never affects ingestion.
package stream

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"klinehub/internal/storage/models"
)

// Config selects and parameterizes the stream provider.
type Config struct {
	Enabled  bool
	Provider string // "kafka" or "redis"

	KafkaBroker string
	KafkaTopic  string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisStream   string
}

// Publisher sends one kline event to the configured stream.
type Publisher interface {
	Publish(ctx context.Context, symbol string, k *models.Kline) error
	Close() error
}

// event is the wire payload for both providers.
type event struct {
	Symbol string `json:"symbol"`
	models.Kline
}

// Validate checks the provider settings before any client is built.
func Validate(cfg Config) error {
	if !cfg.Enabled {
		return nil
	}
	switch cfg.Provider {
	case "kafka":
		if cfg.KafkaBroker == "" || cfg.KafkaTopic == "" {
			return errors.New("kafka stream configuration is incomplete")
		}
	case "redis":
		if cfg.RedisAddr == "" || cfg.RedisStream == "" {
			return errors.New("redis stream configuration is incomplete")
		}
	default:
		return errors.Errorf("unknown stream provider: %s", cfg.Provider)
	}
	return nil
}

// New builds the configured publisher. It returns (nil, nil) when streaming
// is disabled so callers can keep a nil publisher.
func New(cfg Config, log *logrus.Logger) (Publisher, error) {
	if !cfg.Enabled {
		log.Info("Stream fan-out is disabled")
		return nil, nil
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case "kafka":
		writer := &kafka.Writer{
			Addr:         kafka.TCP(cfg.KafkaBroker),
			Topic:        cfg.KafkaTopic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
		}
		log.WithField("topic", cfg.KafkaTopic).Info("Kafka publisher initialized")
		return &kafkaPublisher{writer: writer}, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, errors.Wrap(err, "failed to connect to redis")
		}
		log.WithField("stream", cfg.RedisStream).Info("Redis publisher initialized")
		return &redisPublisher{client: client, stream: cfg.RedisStream}, nil
	}

	return nil, errors.Errorf("unknown stream provider: %s", cfg.Provider)
}

type kafkaPublisher struct {
	writer *kafka.Writer
}

func (p *kafkaPublisher) Publish(ctx context.Context, symbol string, k *models.Kline) error {
	payload, err := json.Marshal(event{Symbol: symbol, Kline: *k})
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(symbol),
		Value: payload,
	})
}

func (p *kafkaPublisher) Close() error { return p.writer.Close() }

type redisPublisher struct {
	client *redis.Client
	stream string
}

func (p *redisPublisher) Publish(ctx context.Context, symbol string, k *models.Kline) error {
	payload, err := json.Marshal(event{Symbol: symbol, Kline: *k})
	if err != nil {
		return err
	}
	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"symbol":  symbol,
			"payload": payload,
			"ts":      time.Now().UnixMilli(),
		},
	}).Err()
}

func (p *redisPublisher) Close() error { return p.client.Close() }
