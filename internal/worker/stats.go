// Package worker runs periodic background jobs next to the API server.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"grapes/internal/middleware"
	"grapes/internal/models"
	"grapes/internal/observability"

	"github.com/go-co-op/gocron/v2"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Stats is a snapshot of the aggregate numbers exported as gauges.
type Stats struct {
	Players               int64
	PendingBattles        int64
	PendingDebt           decimal.Decimal
	PendingFriendRequests int64
}

// StatsJob recomputes the aggregate gauges from the database.
type StatsJob struct {
	db *gorm.DB
}

// NewStatsJob returns a StatsJob reading from db.
func NewStatsJob(db *gorm.DB) *StatsJob {
	return &StatsJob{db: db}
}

// Collect reads the current aggregates.
func (j *StatsJob) Collect(ctx context.Context) (*Stats, error) {
	db := j.db.WithContext(ctx)
	var s Stats

	if err := db.Model(&models.Player{}).Count(&s.Players).Error; err != nil {
		return nil, fmt.Errorf("count players: %w", err)
	}

	pending := db.Model(&models.Battle{}).Where("status = ?", models.BattleStatusPending)
	if err := pending.Session(&gorm.Session{}).Count(&s.PendingBattles).Error; err != nil {
		return nil, fmt.Errorf("count pending battles: %w", err)
	}
	var total decimal.NullDecimal
	if err := pending.Session(&gorm.Session{}).Select("SUM(amount)").Row().Scan(&total); err != nil {
		return nil, fmt.Errorf("sum pending battles: %w", err)
	}
	s.PendingDebt = decimal.Zero
	if total.Valid {
		s.PendingDebt = total.Decimal
	}

	if err := db.Model(&models.Friendship{}).
		Where("status = ?", models.FriendshipStatusPending).
		Count(&s.PendingFriendRequests).Error; err != nil {
		return nil, fmt.Errorf("count pending friend requests: %w", err)
	}
	return &s, nil
}

// Run collects the aggregates and publishes them.
func (j *StatsJob) Run(ctx context.Context) error {
	s, err := j.Collect(ctx)
	if err != nil {
		return err
	}
	observability.PlayersTotal.Set(float64(s.Players))
	observability.PendingBattles.Set(float64(s.PendingBattles))
	observability.PendingDebt.Set(s.PendingDebt.InexactFloat64())
	observability.PendingFriendRequests.Set(float64(s.PendingFriendRequests))
	return nil
}

// Scheduler owns the background jobs.
type Scheduler struct {
	sched gocron.Scheduler
}

// StartScheduler registers the stats job at interval and starts it. The first
// run happens immediately.
func StartScheduler(db *gorm.DB, interval time.Duration) (*Scheduler, error) {
	if interval <= 0 {
		interval = time.Minute
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	job := NewStatsJob(db)
	_, err = sched.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			defer cancel()
			if err := job.Run(ctx); err != nil {
				middleware.Logger.Warn("stats job failed", slog.String("error", err.Error()))
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, fmt.Errorf("register stats job: %w", err)
	}

	sched.Start()
	middleware.Logger.Info("scheduler started", slog.Duration("stats_interval", interval))
	return &Scheduler{sched: sched}, nil
}

// Shutdown stops the scheduler and waits for running jobs.
func (s *Scheduler) Shutdown() error {
	return s.sched.Shutdown()
}
