// File: /jobs/notification_cleanup_job.go
package jobs

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"grownet-api/repositories"
	"grownet-api/services"
)

// Purger removes read notifications older than a retention window.
type Purger interface {
	PurgeRead(ctx context.Context, retention time.Duration) (int64, error)
}

// NotificationCleanupJob periodically deletes read notifications past retention.
type NotificationCleanupJob struct {
	purger    Purger
	retention time.Duration
	interval  time.Duration
	done      chan struct{}
	stopped   chan struct{}
}

// NewNotificationCleanupJob creates a job backed by the notification tables in db.
func NewNotificationCleanupJob(db *gorm.DB, retention, interval time.Duration) *NotificationCleanupJob {
	notificationRepo := repositories.NewNotificationRepository(db)
	notificationService := services.NewNotificationService(notificationRepo, nil, nil, nil)
	return newNotificationCleanupJob(notificationService, retention, interval)
}

func newNotificationCleanupJob(purger Purger, retention, interval time.Duration) *NotificationCleanupJob {
	return &NotificationCleanupJob{
		purger:    purger,
		retention: retention,
		interval:  interval,
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
}

// Start begins the cleanup job
func (j *NotificationCleanupJob) Start() {
	log.Printf("Notification cleanup job started (retention %s, every %s)", j.retention, j.interval)

	go func() {
		defer close(j.stopped)
		ticker := time.NewTicker(j.interval)
		defer ticker.Stop()

		// Run immediately on start
		j.cleanup()

		for {
			select {
			case <-ticker.C:
				j.cleanup()
			case <-j.done:
				log.Println("Notification cleanup job stopped")
				return
			}
		}
	}()
}

// Stop stops the job and waits for an in-flight run to finish.
func (j *NotificationCleanupJob) Stop() {
	close(j.done)
	<-j.stopped
}

func (j *NotificationCleanupJob) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	deleted, err := j.purger.PurgeRead(ctx, j.retention)
	if err != nil {
		log.Printf("Error during notification cleanup: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("Notification cleanup removed %d read notifications", deleted)
	}
}
