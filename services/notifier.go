package services

import (
	"bytes"
	"encoding/json"
	"log"

	"trayectoria-service/utils"
)

// BadgeUnlockedEvent is handed to the notification service whenever a badge
// is awarded. Delivery (push, email, in-app) is the notifier's problem.
type BadgeUnlockedEvent struct {
	EntityID  string `json:"entity_id"`
	BadgeCode string `json:"badge_code"`
	Context   string `json:"context"`
}

// BadgeNotifier receives unlock events from the badge engine.
type BadgeNotifier interface {
	BadgeUnlocked(event BadgeUnlockedEvent)
}

// HTTPNotifier posts unlock events to the notification service. Failures
// are logged and dropped — a lost notification never fails the award.
type HTTPNotifier struct {
	URL string
}

func NewHTTPNotifier(url string) *HTTPNotifier {
	return &HTTPNotifier{URL: url}
}

func (n *HTTPNotifier) BadgeUnlocked(event BadgeUnlockedEvent) {
	body, err := json.Marshal(event)
	if err != nil {
		log.Printf("[Notifier] marshal failed for badge %s: %v", event.BadgeCode, err)
		return
	}
	resp, err := utils.HTTPClient.Post(n.URL+"/events/badge-unlocked", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Printf("[Notifier] delivery failed for badge %s → %s: %v", event.BadgeCode, event.EntityID, err)
		return
	}
	resp.Body.Close()
	if resp.StatusCode >= 300 {
		log.Printf("[Notifier] notification service returned %d for badge %s", resp.StatusCode, event.BadgeCode)
	}
}

// LogNotifier is the fallback when NOTIFICATION_SERVICE_URL isn't set.
type LogNotifier struct{}

func (LogNotifier) BadgeUnlocked(event BadgeUnlockedEvent) {
	log.Printf("🎖️ Badge awarded: %s → %s", event.BadgeCode, event.EntityID)
}
