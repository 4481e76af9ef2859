package db

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"
)

// StartTokenCleaner purges consumed and expired recovery tokens with interval
func StartTokenCleaner(
	ctx context.Context,
	db *sql.DB,
	interval time.Duration,
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
				res, err := db.ExecContext(ctx, `
                    DELETE FROM recovery_tokens
                     WHERE consumed = TRUE
                        OR expires_at < $1
                `, time.Now())
				if err != nil {
					log.Error("failed to clean recovery tokens", zap.Error(err))
					continue
				}
				if rows, _ := res.RowsAffected(); rows > 0 {
					log.Info("cleaned recovery tokens", zap.Int64("removed", rows))
				}
			}
		}
	}()
}
