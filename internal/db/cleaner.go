package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// StartResolvedItemCleaner removes long-resolved listings with interval
func StartResolvedItemCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
	retention time.Duration,
	log *zap.Logger,
) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cutoff := time.Now().Add(-retention)
				res, err := db.ExecContext(ctx, `
                    DELETE FROM items
                     WHERE status = 'resolved'
                       AND updated_at < $1
                `, cutoff)
				if err != nil {
					log.Error("failed to clean resolved items", zap.Error(err))
					continue
				}
				if rows, _ := res.RowsAffected(); rows > 0 {
					log.Info("cleaned resolved items", zap.Int64("removed", rows))
				}
			}
		}
	}()
}
