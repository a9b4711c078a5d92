package services

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/QAStudio-Dev/studio-sub003/internal/models"
	"github.com/QAStudio-Dev/studio-sub003/pkg/logger"
	"gorm.io/gorm"
)

// NotificationService delivers run-closed events to the team's configured
// webhook integrations.
type NotificationService struct {
	db     *gorm.DB
	client *http.Client
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{
		db: db,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// RunClosedEvent is the JSON body posted to webhook targets.
type RunClosedEvent struct {
	Event        string     `json:"event"`
	RunID        uint       `json:"run_id"`
	RunPublicID  string     `json:"run_public_id"`
	RunName      string     `json:"run_name"`
	ProjectID    uint       `json:"project_id"`
	ProjectKey   string     `json:"project_key"`
	ProjectName  string     `json:"project_name"`
	PassedCount  int        `json:"passed_count"`
	FailedCount  int        `json:"failed_count"`
	BlockedCount int        `json:"blocked_count"`
	SkippedCount int        `json:"skipped_count"`
	ClosedAt     *time.Time `json:"closed_at"`
}

// DispatchRunClosed posts the run summary to every active integration of the
// project's team. A project without a team has nobody to notify, which is
// not an error. Individual delivery failures are logged; the first one is
// returned so queued tasks get retried.
func (s *NotificationService) DispatchRunClosed(ctx context.Context, runID uint) error {
	var run models.TestRun
	if err := s.db.First(&run, runID).Error; err != nil {
		return fmt.Errorf("load run %d: %w", runID, err)
	}

	var project models.Project
	if err := s.db.First(&project, run.ProjectID).Error; err != nil {
		return fmt.Errorf("load project %d: %w", run.ProjectID, err)
	}
	if project.TeamID == nil {
		return nil
	}

	var integrations []models.Integration
	if err := s.db.Where("team_id = ? AND is_active = ?", *project.TeamID, true).
		Find(&integrations).Error; err != nil {
		return err
	}
	if len(integrations) == 0 {
		return nil
	}

	event := RunClosedEvent{
		Event:        "run.closed",
		RunID:        run.ID,
		RunPublicID:  run.PublicID,
		RunName:      run.Name,
		ProjectID:    project.ID,
		ProjectKey:   project.Key,
		ProjectName:  project.Name,
		PassedCount:  run.PassedCount,
		FailedCount:  run.FailedCount,
		BlockedCount: run.BlockedCount,
		SkippedCount: run.SkippedCount,
		ClosedAt:     run.ClosedAt,
	}
	body, err := json.Marshal(&event)
	if err != nil {
		return err
	}

	var firstErr error
	for _, integration := range integrations {
		if err := s.deliver(ctx, &integration, body); err != nil {
			logger.Errorf("[Notify] delivery to %q failed: %v", integration.Name, err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (s *NotificationService) deliver(ctx context.Context, integration *models.Integration, body []byte) error {
	payload := body
	if integration.Type == "slack" {
		slack, err := slackMessage(body)
		if err != nil {
			return err
		}
		payload = slack
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, integration.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if integration.Secret != "" {
		req.Header.Set("X-Webhook-Signature", sign(integration.Secret, payload))
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// slackMessage reshapes the event into a Slack incoming-webhook payload.
func slackMessage(body []byte) ([]byte, error) {
	var event RunClosedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, err
	}
	text := fmt.Sprintf("Test run *%s* in %s closed: %d passed, %d failed, %d blocked, %d skipped",
		event.RunName, event.ProjectName,
		event.PassedCount, event.FailedCount, event.BlockedCount, event.SkippedCount)
	return json.Marshal(map[string]string{"text": text})
}

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
