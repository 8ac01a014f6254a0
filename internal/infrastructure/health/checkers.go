package health

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"

	"github.com/teamnewpipe/np-web-api/internal/core/domain/refresh"
	"github.com/teamnewpipe/np-web-api/internal/core/ports"
)

// redisHealthChecker wraps the redis client for health checks.
type redisHealthChecker struct{ client *redis.Client }

func (r *redisHealthChecker) Name() string                    { return "redis" }
func (r *redisHealthChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }

// NewRedisHealthChecker creates a health checker for Redis.
func NewRedisHealthChecker(client *redis.Client) ports.HealthChecker {
	return &redisHealthChecker{client: client}
}

// ErrNoData is reported while upstream failures have kept the cache empty.
var ErrNoData = errors.New("no upstream data available")

// dataHealthChecker reports on the cached upstream data without triggering a refresh.
type dataHealthChecker struct{ svc ports.DataService }

func (d *dataHealthChecker) Name() string { return "upstream_data" }

func (d *dataHealthChecker) Check(ctx context.Context) error {
	if d.svc.Snapshot().State() == refresh.StateErrorNoData {
		return ErrNoData
	}
	return nil
}

// NewDataHealthChecker creates a health checker for the cached upstream data.
func NewDataHealthChecker(svc ports.DataService) ports.HealthChecker {
	return &dataHealthChecker{svc: svc}
}
