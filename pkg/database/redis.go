// Package database holds shared data-store client initialisation.
package database

import (
	"context"

	"github.com/go-redis/redis/v8"

	"qanoon-go/pkg/log"
)

// RDB is the global Redis client, nil unless InitRedis has run.
var RDB *redis.Client

// InitRedis connects the global Redis client used for conversation history.
func InitRedis(addr, password string, db int) {
	RDB = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if err := RDB.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to redis", err)
	}

	log.Info("Redis client connected successfully")
}
