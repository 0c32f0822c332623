// services/scheduler.go
package services

import (
	"log"
	"time"

	"trayectoria-service/models"

	"github.com/go-co-op/gocron/v2"
)

func (s *ChallengeService) StartChallengeScheduler() {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	// Every minute: activate scheduled challenges and close finished ones
	_, _ = sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			now := time.Now()

			var scheduled []models.Challenge
			err := s.DB.Where("status = ? AND publish_schedule IS NOT NULL AND publish_schedule <= ?", "draft", now).
				Find(&scheduled).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}
			for _, c := range scheduled {
				c.Status = "active"
				c.PublishedAt = &now
				c.PublishSchedule = nil
				if err := s.DB.Save(&c).Error; err != nil {
					log.Printf("[Scheduler] Failed to activate challenge %s: %v", c.ID, err)
				} else {
					log.Printf("✅ Auto-activated challenge: %s", c.Title)
				}
			}

			var expired []models.Challenge
			err = s.DB.Where("status = ? AND end_time != ? AND end_time <= ?", "active", time.Time{}, now).
				Find(&expired).Error
			if err != nil {
				log.Printf("[Scheduler] DB error: %v", err)
				return
			}
			for _, c := range expired {
				c.Status = "closed"
				if err := s.DB.Save(&c).Error; err != nil {
					log.Printf("[Scheduler] Failed to close challenge %s: %v", c.ID, err)
				} else {
					log.Printf("✅ Auto-closed challenge: %s", c.Title)
				}
			}
		}),
	)
}
