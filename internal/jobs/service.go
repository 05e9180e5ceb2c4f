package jobs

import (
	"context"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"

	"CasinoMassProgram/internal/logger"
	"CasinoMassProgram/internal/serviceiface"
)

const defaultSweepSchedule = "*/15 * * * *"

// JobService runs the stuck-payment sweep. Pay commits the Inprocess
// transition separately from the final Paid/Failed flip, so a crash between
// the two commits leaves a record visibly stuck Inprocess. The sweep only
// reports such records; resolving them is an operator action.
type JobService struct {
	pool            *pgxpool.Pool
	cron            *cron.Cron
	schedule        string
	stuckAfterMinut int
}

func NewJobService(cfg map[string]interface{}, pool *pgxpool.Pool) serviceiface.Service {
	schedule, _ := cfg["sweep_schedule"].(string)
	if schedule == "" {
		schedule = defaultSweepSchedule
	}
	stuck := 30
	switch v := cfg["stuck_after_minutes"].(type) {
	case int:
		stuck = v
	case float64:
		stuck = int(v)
	}
	return &JobService{
		pool:            pool,
		cron:            cron.New(),
		schedule:        schedule,
		stuckAfterMinut: stuck,
	}
}

func (j *JobService) Name() string { return "jobs" }

func (j *JobService) Start() error {
	if _, err := j.cron.AddFunc(j.schedule, j.sweepStuckPayments); err != nil {
		return err
	}
	j.cron.Start()
	log.Printf("[jobs] stuck-payment sweep scheduled (%s)", j.schedule)
	return nil
}

func (j *JobService) Stop() error {
	ctx := j.cron.Stop()
	<-ctx.Done()
	return nil
}

func (j *JobService) sweepStuckPayments() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cutoff := time.Now().Add(-time.Duration(j.stuckAfterMinut) * time.Minute)
	rows, err := j.pool.Query(ctx, `
		SELECT p.id, tr.external_id, p.month_start, p.updated_at
		FROM payment_team_representatives p
		JOIN team_representatives tr ON tr.id = p.team_representative_id
		WHERE p.status = 'Inprocess' AND p.updated_at < $1`, cutoff)
	if err != nil {
		log.Printf("[jobs] stuck-payment sweep query failed: %v", err)
		return
	}
	defer rows.Close()

	count := 0
	for rows.Next() {
		var id, repID string
		var monthStart, updatedAt time.Time
		if err := rows.Scan(&id, &repID, &monthStart, &updatedAt); err != nil {
			continue
		}
		count++
		logger.Audit("payment %s (rep %s, month %s) stuck Inprocess since %s",
			id, repID, monthStart.Format("2006-01"), updatedAt.Format(time.RFC3339))
	}
	if count > 0 {
		log.Printf("[jobs] stuck-payment sweep flagged %d record(s)", count)
	}
}
