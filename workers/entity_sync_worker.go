// workers/entity_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"time"

	"trayectoria-service/models"
)

// AccountFromProfile matches the JSON response from the accounts service.
type AccountFromProfile struct {
	ID         string    `json:"id"`
	ExternalID string    `json:"external_id"`
	Name       string    `json:"name"`
	Kind       string    `json:"kind"` // user | business
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// GetAccountChangesResponse is the top-level structure of the accounts service response.
type GetAccountChangesResponse struct {
	Accounts []AccountFromProfile `json:"accounts"`
}

// EntityOnboarder is the slice of the entity service the worker needs.
type EntityOnboarder interface {
	Onboard(externalUserID, name, kind string) (*models.Entity, error)
}

// EntitySyncWorker polls the accounts service and onboards any account
// that doesn't yet have trayectoria records. Account CRUD stays external;
// this worker only guarantees every account becomes a scored entity with
// its score record, stage rows and initial badge pass.
type EntitySyncWorker struct {
	entities     EntityOnboarder
	interval     time.Duration
	baseURL      string // e.g., "http://localhost:8500"
	endpointPath string // e.g., "/api/v1/public/accounts"
	serviceToken string
	httpClient   *http.Client

	lastSync time.Time
}

func NewEntitySyncWorker(entities EntityOnboarder, accountsServiceBaseURL, endpointPath, serviceToken string) *EntitySyncWorker {
	return &EntitySyncWorker{
		entities:     entities,
		interval:     1 * time.Minute,
		baseURL:      accountsServiceBaseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (w *EntitySyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting Entity Sync Worker (accounts-service → entities)…")
	go w.run(ctx)
}

func (w *EntitySyncWorker) run(ctx context.Context) {
	// Initial sync — backfill from the beginning of time
	if err := w.syncBatch(ctx, time.Time{}); err != nil {
		log.Printf("⚠️ Initial sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.syncBatch(ctx, w.lastSync); err != nil {
				log.Printf("❌ Sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Entity Sync Worker stopped")
			return
		}
	}
}

// syncBatch fetches account changes and onboards the ones we don't know yet.
func (w *EntitySyncWorker) syncBatch(ctx context.Context, since time.Time) error {
	sinceStr := since.UTC().Format(time.RFC3339)

	base, err := url.Parse(w.baseURL)
	if err != nil {
		return fmt.Errorf("invalid accounts service URL '%s': %w", w.baseURL, err)
	}
	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", sinceStr)
	endpointURL.RawQuery = q.Encode()
	finalURL := endpointURL.String()

	req, err := http.NewRequestWithContext(ctx, "GET", finalURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request to accounts service failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("accounts service non-200 response: %d — %s", resp.StatusCode, string(body))
	}

	var response GetAccountChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return fmt.Errorf("failed to decode accounts service response: %w", err)
	}

	if len(response.Accounts) == 0 {
		return nil
	}

	log.Printf("[SYNC] 📥 Processing %d account(s) from accounts service…", len(response.Accounts))

	// Oldest first: the high-water mark only advances past a timestamp once
	// every account at or before it has synced, so a failed account is
	// re-fetched on the next tick instead of being skipped forever.
	sort.Slice(response.Accounts, func(i, j int) bool {
		return response.Accounts[i].UpdatedAt.Before(response.Accounts[j].UpdatedAt)
	})

	var onboarded, errorCount int
	advance := true
	for _, account := range response.Accounts {
		if _, err := w.entities.Onboard(account.ExternalID, account.Name, account.Kind); err != nil {
			errorCount++
			advance = false
			log.Printf("[SYNC] ⚠️ Failed to onboard entity (external_id=%q): %v", account.ExternalID, err)
			continue
		}
		onboarded++
		if advance && account.UpdatedAt.After(w.lastSync) {
			w.lastSync = account.UpdatedAt
		}
	}

	log.Printf("[SYNC] ✅ Synced %d accounts (%d onboarded, %d errors)", len(response.Accounts), onboarded, errorCount)
	return nil
}
