package cron

import (
	"log"
	"time"

	"github.com/acadfolio/portfolio-api/utils/auth"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron   *cron.Cron
	db     *gorm.DB
	ledger *auth.LedgerService
}

// NewCronManager creates a new cron manager
func NewCronManager(db *gorm.DB, ledger *auth.LedgerService) *CronManager {
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron:   c,
		db:     db,
		ledger: ledger,
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	log.Println("Starting cron jobs...")

	if err := m.registerJobs(); err != nil {
		return err
	}

	m.cron.Start()

	log.Println("Cron jobs started successfully")
	return nil
}

// Stop stops all cron jobs
func (m *CronManager) Stop() {
	log.Println("Stopping cron jobs...")
	ctx := m.cron.Stop()
	<-ctx.Done()
	log.Println("Cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// Daily at 3 AM: purge stale refresh token rows
	_, err := m.cron.AddFunc("0 0 3 * * *", func() {
		m.logJobStart("purge_refresh_tokens")
		m.PurgeRefreshTokens()
	})
	if err != nil {
		return err
	}

	// Weekly on Sunday at 4 AM: archive contact messages read long ago
	_, err = m.cron.AddFunc("0 0 4 * * 0", func() {
		m.logJobStart("archive_read_messages")
		m.ArchiveReadMessages()
	})
	if err != nil {
		return err
	}

	log.Println("All cron jobs registered successfully")
	return nil
}

// logJobStart logs the start of a cron job
func (m *CronManager) logJobStart(jobName string) {
	log.Printf("[CRON] Starting job: %s at %s", jobName, time.Now().Format(time.RFC3339))
}

// logJobComplete logs successful completion of a cron job
func (m *CronManager) logJobComplete(jobName string, message string) {
	log.Printf("[CRON] Completed job: %s - %s", jobName, message)
}

// logJobError logs a cron job error
func (m *CronManager) logJobError(jobName string, err error) {
	log.Printf("[CRON] Error in job: %s - %v", jobName, err)
}
