// FilePath: internal/events/publisher.go
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/TomSft15/TelloDroneHub/internal/config"
	"github.com/TomSft15/TelloDroneHub/internal/models"
	"github.com/redis/go-redis/v9"
	nuts "github.com/vaudience/go-nuts"
)

const publishTimeout = 2 * time.Second

// TelemetryPublisher pushes telemetry snapshots to Redis pub/sub channels so
// external consumers (dashboards, recorders) can follow live flights without
// holding a websocket to this process. One channel per drone:
// telemetry.<droneID>.
type TelemetryPublisher struct {
	client *redis.Client
}

// NewTelemetryPublisher connects to Redis and verifies the connection
func NewTelemetryPublisher(cfg config.RedisConfig) (*TelemetryPublisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("error connecting to Redis: %w", err)
	}

	nuts.L.Infof("[TelemetryPublisher] Connected to Redis at %s:%d", cfg.Host, cfg.Port)
	return &TelemetryPublisher{client: client}, nil
}

// PublishTelemetry sends the snapshot to the drone's channel. Best-effort:
// failures are logged, never returned.
func (p *TelemetryPublisher) PublishTelemetry(droneID string, snap models.TelemetrySnapshot) {
	payload, err := json.Marshal(snap)
	if err != nil {
		nuts.L.Warnf("[TelemetryPublisher] Failed to encode snapshot for drone %s: %v", droneID, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := p.client.Publish(ctx, "telemetry."+droneID, payload).Err(); err != nil {
		nuts.L.Warnf("[TelemetryPublisher] Failed to publish telemetry for drone %s: %v", droneID, err)
	}
}

// Close releases the Redis connection
func (p *TelemetryPublisher) Close() error {
	return p.client.Close()
}
