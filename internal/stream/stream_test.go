package stream

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "Disabled needs nothing",
			cfg:     Config{Enabled: false},
			wantErr: false,
		},
		{
			name: "Kafka complete",
			cfg: Config{
				Enabled: true, Provider: "kafka",
				KafkaBroker: "localhost:9092", KafkaTopic: "klines",
			},
			wantErr: false,
		},
		{
			name: "Kafka missing topic",
			cfg: Config{
				Enabled: true, Provider: "kafka",
				KafkaBroker: "localhost:9092",
			},
			wantErr: true,
		},
		{
			name: "Redis complete",
			cfg: Config{
				Enabled: true, Provider: "redis",
				RedisAddr: "localhost:6379", RedisStream: "klines",
			},
			wantErr: false,
		},
		{
			name: "Redis missing stream",
			cfg: Config{
				Enabled: true, Provider: "redis",
				RedisAddr: "localhost:6379",
			},
			wantErr: true,
		},
		{
			name:    "Unknown provider",
			cfg:     Config{Enabled: true, Provider: "nats"},
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(tc.cfg)
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestNewDisabledReturnsNil(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	pub, err := New(Config{Enabled: false}, logger)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if pub != nil {
		t.Error("Expected nil publisher when streaming is disabled")
	}
}

func TestNewRejectsIncompleteConfig(t *testing.T) {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	_, err := New(Config{Enabled: true, Provider: "kafka"}, logger)
	if err == nil {
		t.Error("Expected error for incomplete kafka config")
	}
}
