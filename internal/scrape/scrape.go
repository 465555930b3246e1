// Package scrape validates scrape requests and submits them to the external
// n8n workflow webhook. The payload is wrapped one level deep ({"body": ...})
// because the receiving workflow reads req.body.body; that envelope is a
// boundary contract and must be preserved exactly. The clientQueryId tags
// both leads and lead_contacts downstream so results can be correlated.
package scrape

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/intakt/hunter/backend/internal/cache"
	"github.com/intakt/hunter/backend/internal/errors"
	"github.com/intakt/hunter/backend/internal/logger"
	"go.uber.org/zap"
)

// Website requirement values.
const (
	WebsiteWith    = "with"
	WebsiteWithout = "without"
	WebsiteAny     = "any"
)

const (
	MinLocationLen   = 2
	MinLeadCount     = 10
	MaxLeadCount     = 200
	DefaultLeadCount = 50

	lastFormTTL = 30 * 24 * time.Hour
)

// ErrNoUser is the fail-fast error for unauthenticated submissions.
var ErrNoUser = errors.Unauthorized("please sign in first")

// Form is a scrape request as entered by the user.
type Form struct {
	Location           string   `json:"location"`
	BusinessType       []string `json:"businessType"`
	WebsiteRequirement string   `json:"websiteRequirement"`
	LeadCount          int      `json:"leadCount"`
}

// Normalize applies defaults without validating.
func (f *Form) Normalize() {
	f.Location = strings.TrimSpace(f.Location)
	if f.WebsiteRequirement == "" {
		f.WebsiteRequirement = WebsiteAny
	}
	if f.LeadCount == 0 {
		f.LeadCount = DefaultLeadCount
	}
}

// Validate checks the form field by field; the first violated rule wins.
func (f *Form) Validate() error {
	f.Normalize()

	if utf8.RuneCountInString(f.Location) < MinLocationLen {
		return errors.ValidationError("location", "Location must be at least 2 characters")
	}
	if len(f.BusinessType) == 0 {
		return errors.ValidationError("businessType", "At least one business type is required")
	}
	for _, bt := range f.BusinessType {
		if strings.TrimSpace(bt) == "" {
			return errors.ValidationError("businessType", "Business type cannot be empty")
		}
	}
	switch f.WebsiteRequirement {
	case WebsiteWith, WebsiteWithout, WebsiteAny:
	default:
		return errors.ValidationError("websiteRequirement", "Website requirement must be with, without or any")
	}
	if f.LeadCount < MinLeadCount {
		return errors.ValidationError("leadCount", "Minimum 10 leads")
	}
	if f.LeadCount > MaxLeadCount {
		return errors.ValidationError("leadCount", "Maximum 200 leads")
	}
	return nil
}

// Payload is the exact shape the webhook expects.
type Payload struct {
	ClientQueryID      string   `json:"clientQueryId"`
	Location           string   `json:"location"`
	BusinessType       []string `json:"businessType"`
	WebsiteRequirement string   `json:"websiteRequirement"`
	LeadCount          int      `json:"leadCount"`
	UserID             string   `json:"userId"`
}

// envelope wraps the payload for the workflow's req.body.body access.
type envelope struct {
	Body Payload `json:"body"`
}

// Client submits scrape jobs to the configured webhook.
type Client struct {
	webhookURL string
	httpClient *http.Client
	cache      *cache.RedisClient
}

// NewClient creates a scrape client. cache may be nil; it only backs the
// advisory last-form recall.
func NewClient(webhookURL string, httpClient *http.Client, redis *cache.RedisClient) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		webhookURL: webhookURL,
		httpClient: httpClient,
		cache:      redis,
	}
}

// Start validates the form and enqueues a scrape for the given user.
// Returns the client-generated correlation id; results arrive later as
// ordinary lead rows tagged with it, there is no job-status object.
func (c *Client) Start(ctx context.Context, userID string, form Form) (string, error) {
	if err := form.Validate(); err != nil {
		return "", err
	}
	if userID == "" {
		return "", ErrNoUser
	}
	if c.webhookURL == "" {
		return "", fmt.Errorf("scrape webhook is not configured")
	}

	clientQueryID := uuid.NewString()
	payload := Payload{
		ClientQueryID:      clientQueryID,
		Location:           form.Location,
		BusinessType:       form.BusinessType,
		WebsiteRequirement: form.WebsiteRequirement,
		LeadCount:          form.LeadCount,
		UserID:             userID,
	}

	body, err := json.Marshal(envelope{Body: payload})
	if err != nil {
		return "", fmt.Errorf("failed to encode scrape payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build scrape request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue scrape: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errText := "Unknown error"
		if data, readErr := io.ReadAll(io.LimitReader(resp.Body, 4096)); readErr == nil && len(data) > 0 {
			errText = string(data)
		}
		return "", fmt.Errorf("failed to enqueue scrape: %d %s. %s",
			resp.StatusCode, http.StatusText(resp.StatusCode), errText)
	}

	c.rememberForm(ctx, userID, form)

	logger.Log.Info("scrape enqueued",
		logger.WithUserID(userID),
		zap.String("client_query_id", clientQueryID),
		zap.String("location", form.Location),
		zap.Int("lead_count", form.LeadCount),
	)

	return clientQueryID, nil
}

// LastForm returns the user's last submitted form, if cached. Advisory
// only, never authoritative.
func (c *Client) LastForm(ctx context.Context, userID string) (*Form, bool) {
	raw, err := c.cache.Get(ctx, lastFormKey(userID))
	if err != nil {
		if !cache.IsMiss(err) {
			logger.Log.Warn("last scrape form read failed", zap.Error(err))
		}
		return nil, false
	}

	var form Form
	if err := json.Unmarshal([]byte(raw), &form); err != nil {
		return nil, false
	}
	return &form, true
}

// rememberForm caches the last submitted form; failures are ignored.
func (c *Client) rememberForm(ctx context.Context, userID string, form Form) {
	data, err := json.Marshal(form)
	if err != nil {
		return
	}
	if err := c.cache.SetEx(ctx, lastFormKey(userID), string(data), lastFormTTL); err != nil {
		logger.Log.Warn("last scrape form write failed", zap.Error(err))
	}
}

func lastFormKey(userID string) string {
	return "hunter:scrape:last-form:" + userID
}
