package paymentControllers

import (
	"context"
	"log"
	"time"

	"github.com/Justjoseph0/e-commerce-backend/models"
	"github.com/Justjoseph0/e-commerce-backend/notify"
	"github.com/Justjoseph0/e-commerce-backend/payment"
	"gorm.io/gorm"
)

const sweepBatch = 100

type SweepConfig struct {
	Interval time.Duration // 0 disables the loop
	After    time.Duration // minimum age of a pending order before it is checked
	Expire   time.Duration // pending orders older than this are failed, 0 never
}

type SweepReport struct {
	Checked    int
	Changed    int
	Expired    int
	Mismatched int
	Errors     int
}

// ReconcileStalePending verifies pending orders older than cfg.After with the
// gateway. Orders the gateway still reports as pending past cfg.Expire are
// failed, which releases their stock.
func ReconcileStalePending(ctx context.Context, db *gorm.DB, gw payment.Gateway, notifier notify.Notifier, cfg SweepConfig) (SweepReport, error) {
	var report SweepReport
	now := time.Now()

	var orders []models.Order
	if err := db.Where("status = ? AND created_at < ?", models.PaymentPending, now.Add(-cfg.After)).
		Order("created_at ASC").Limit(sweepBatch).Find(&orders).Error; err != nil {
		return report, err
	}

	for i := range orders {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		order := &orders[i]
		report.Checked++

		res, err := verifyOrder(ctx, db, gw, notifier, order)
		if err != nil {
			report.Errors++
			continue
		}
		if res.Changed {
			report.Changed++
			continue
		}
		if res.AmountMismatch {
			// left for a person to look at, never expired
			report.Mismatched++
			continue
		}
		if res.Status != string(models.PaymentPending) || cfg.Expire <= 0 || !order.CreatedAt.Before(now.Add(-cfg.Expire)) {
			continue
		}

		var applied *ApplyResult
		err = db.Transaction(func(tx *gorm.DB) error {
			var err error
			applied, err = ApplyOutcome(tx, order.Reference, payment.OutcomeFailed, "payment expired")
			return err
		})
		if err != nil {
			report.Errors++
			continue
		}
		if applied.Changed {
			report.Expired++
			dispatchChange(db, notifier, &applied.Order, models.PaymentPending)
		}
	}
	return report, nil
}

// RunReconciler sweeps on every tick until ctx is cancelled.
func RunReconciler(ctx context.Context, db *gorm.DB, gw payment.Gateway, notifier notify.Notifier, cfg SweepConfig) {
	if cfg.Interval <= 0 {
		log.Println("⏸️ Pending payment sweep disabled")
		return
	}
	log.Printf("⏳ Pending payment sweep every %s for orders older than %s", cfg.Interval, cfg.After)

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report, err := ReconcileStalePending(ctx, db, gw, notifier, cfg)
			if err != nil {
				log.Printf("❌ Pending payment sweep failed: %v", err)
				continue
			}
			if report.Checked > 0 {
				log.Printf("✅ Pending payment sweep: checked %d, changed %d, expired %d, mismatched %d, errors %d",
					report.Checked, report.Changed, report.Expired, report.Mismatched, report.Errors)
			}
		}
	}
}
