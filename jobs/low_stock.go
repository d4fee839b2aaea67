package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/stampdesk/stampdesk/internal/catalog"
)

// TaskLowStockDigest scans the catalog for products at or below their
// minimum stock and logs a digest.
const TaskLowStockDigest = "stock:low_stock_digest"

// LowStockPayload carries scheduling metadata.
type LowStockPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewLowStockDigestTask constructs the Asynq task.
func NewLowStockDigestTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(LowStockPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLowStockDigest, body, asynq.Queue(QueueDefault)), nil
}

// LowStockLister is the catalog surface the digest needs.
type LowStockLister interface {
	LowStock(ctx context.Context) ([]catalog.Product, error)
}

// NewLowStockDigestHandler builds the task handler. The digest is logged;
// email delivery hooks in here once SMTP is wired.
func NewLowStockDigestHandler(logger *slog.Logger, lister LowStockLister) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload LowStockPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		products, err := lister.LowStock(ctx)
		if err != nil {
			return err
		}
		if len(products) == 0 {
			logger.Info("low stock digest: all products above minimum")
			return nil
		}
		for _, p := range products {
			logger.Warn("low stock",
				slog.String("code", p.Code),
				slog.String("name", p.Name),
				slog.Int64("stock", p.StockQuantity),
				slog.Int64("min_stock", p.MinStock))
		}
		logger.Info("low stock digest", slog.Int("products", len(products)))
		return nil
	}
}
