package jobs

import (
	"context"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/YehonatanRavoach/SmartCampusAR/internal/config"
	"github.com/YehonatanRavoach/SmartCampusAR/internal/lifecycle"
)

const cleanupLockKey = "cleanup_lock"

// StartCleanupJob periodically purges rejected admins and campuses. When a
// redis client is supplied, a lock key keeps concurrent instances from
// sweeping at the same time.
func StartCleanupJob(ctx context.Context, cfg config.Config, cascade *lifecycle.Cascade, redisClient *redis.Client) {
	if !cfg.CleanupJobEnabled {
		return
	}
	interval := cfg.CleanupJobInterval
	if interval <= 0 {
		interval = 168 * time.Hour
	}
	timeout := cfg.CleanupJobTimeout
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tickCtx, cancel := context.WithTimeout(ctx, timeout)
				runCleanup(tickCtx, cfg, cascade, redisClient)
				cancel()
			}
		}
	}()
}

func runCleanup(ctx context.Context, cfg config.Config, cascade *lifecycle.Cascade, redisClient *redis.Client) {
	if redisClient != nil {
		acquired, err := redisClient.SetNX(ctx, cleanupLockKey, "1", cfg.CleanupLockTTL).Result()
		if err != nil {
			log.Printf("cleanup job lock error: %v", err)
			return
		}
		if !acquired {
			log.Printf("cleanup job skipped: another instance holds the lock")
			return
		}
		defer redisClient.Del(context.WithoutCancel(ctx), cleanupLockKey)
	}

	result, err := cascade.CleanupRejected(ctx)
	if err != nil {
		log.Printf("cleanup job error: %v", err)
		return
	}
	if result.DeletedAdmins > 0 || result.DeletedCampuses > 0 {
		log.Printf("cleanup job deleted %d admins and %d campuses", result.DeletedAdmins, result.DeletedCampuses)
	}
}
