package drafting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/opsdeck/support-portal/internal/config"
	"github.com/opsdeck/support-portal/pkg/util"
)

// TicketContext is the resolved-ticket material a draft is built from.
type TicketContext struct {
	Title      string   `json:"title"`
	Category   *string  `json:"category,omitempty"`
	Resolution string   `json:"resolution"`
	Messages   []string `json:"messages"`
}

// DraftSuggestion is a proposed knowledge-base article.
type DraftSuggestion struct {
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
	Content string `json:"content"`
}

// Drafter produces article drafts from resolved tickets.
type Drafter interface {
	DraftArticle(ctx context.Context, tc TicketContext) (*DraftSuggestion, error)
}

// NewFromConfig returns the HTTP drafter, or nil when no endpoint is
// configured; callers surface a validation error when drafting is off.
func NewFromConfig(cfg config.DraftingConfig, logger *zap.Logger) Drafter {
	if cfg.Endpoint == "" {
		return nil
	}
	return &httpDrafter{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		logger:   logger,
	}
}

type httpDrafter struct {
	endpoint string
	apiKey   string
	client   *http.Client
	logger   *zap.Logger
}

func (d *httpDrafter) DraftArticle(ctx context.Context, tc TicketContext) (*DraftSuggestion, error) {
	payload, err := json.Marshal(tc)
	if err != nil {
		return nil, util.NewInternalError(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if d.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+d.apiKey)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, util.NewInternalError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		d.logger.Warn("draft endpoint returned non-200", zap.Int("status", resp.StatusCode))
		return nil, util.NewInternalError(fmt.Errorf("draft endpoint returned %d", resp.StatusCode))
	}

	var suggestion DraftSuggestion
	if err := json.NewDecoder(resp.Body).Decode(&suggestion); err != nil {
		return nil, util.NewInternalError(err)
	}
	if suggestion.Title == "" || suggestion.Content == "" {
		return nil, util.NewInternalError(fmt.Errorf("draft endpoint returned incomplete suggestion"))
	}
	return &suggestion, nil
}
