// Package notifier posts search summaries to Slack.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// DefaultSlackURL is the chat.postMessage endpoint.
const DefaultSlackURL = "https://slack.com/api/chat.postMessage"

// SlackNotifier sends notifications to a Slack channel.
type SlackNotifier struct {
	apiToken   string
	channel    string
	url        string
	cooldown   time.Duration
	httpClient *http.Client
	enabled    bool

	mu       sync.Mutex
	lastSent time.Time
	now      func() time.Time
}

// SlackConfig holds Slack configuration.
type SlackConfig struct {
	APIToken string        `yaml:"api_token"`
	Channel  string        `yaml:"channel"`
	Enabled  bool          `yaml:"enabled"`
	Cooldown time.Duration `yaml:"cooldown"` // Minimum gap between search notifications
	URL      string        `yaml:"url"`      // Overrides DefaultSlackURL
}

// slackMessage represents a Slack message payload.
type slackMessage struct {
	Channel string       `json:"channel"`
	Text    string       `json:"text,omitempty"`
	Blocks  []slackBlock `json:"blocks,omitempty"`
}

type slackBlock struct {
	Type   string      `json:"type"`
	Text   *slackText  `json:"text,omitempty"`
	Fields []slackText `json:"fields,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NewSlackNotifier creates a new Slack notifier. Without a token and a
// channel it is disabled and every notification is a no-op.
func NewSlackNotifier(config *SlackConfig) *SlackNotifier {
	if config == nil || config.APIToken == "" || config.Channel == "" {
		return &SlackNotifier{enabled: false, now: time.Now}
	}

	url := config.URL
	if url == "" {
		url = DefaultSlackURL
	}

	return &SlackNotifier{
		apiToken: config.APIToken,
		channel:  config.Channel,
		url:      url,
		cooldown: config.Cooldown,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		enabled: config.Enabled,
		now:     time.Now,
	}
}

// IsEnabled returns whether the notifier is enabled.
func (s *SlackNotifier) IsEnabled() bool {
	return s.enabled
}

// SearchSummary is what a search notification shows.
type SearchSummary struct {
	RunID string
	Start string   // Start token symbol
	Walks []string // One line per closed walk, in search order
	Took  time.Duration
}

// NotifySearchResult posts the walks of one search. Empty summaries and
// summaries arriving within the cooldown of the previous post are dropped;
// the returned bool reports whether a message was sent.
func (s *SlackNotifier) NotifySearchResult(ctx context.Context, summary *SearchSummary) (bool, error) {
	if !s.enabled || summary == nil || len(summary.Walks) == 0 {
		return false, nil
	}

	s.mu.Lock()
	now := s.now()
	if !s.lastSent.IsZero() && now.Sub(s.lastSent) < s.cooldown {
		s.mu.Unlock()
		return false, nil
	}
	s.lastSent = now
	s.mu.Unlock()

	lines := make([]string, 0, len(summary.Walks))
	for i, w := range summary.Walks {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, w))
	}

	blocks := []slackBlock{
		{
			Type: "header",
			Text: &slackText{
				Type: "plain_text",
				Text: fmt.Sprintf("🔁 %d closed walks from %s", len(summary.Walks), summary.Start),
			},
		},
		{
			Type: "section",
			Text: &slackText{
				Type: "mrkdwn",
				Text: "```" + strings.Join(lines, "\n") + "```",
			},
		},
		{
			Type: "context",
			Text: &slackText{
				Type: "mrkdwn",
				Text: fmt.Sprintf("Run %s, searched in %s at %s", summary.RunID, summary.Took.Round(time.Millisecond), now.Format(time.RFC3339)),
			},
		},
	}

	err := s.sendMessage(ctx, blocks, fmt.Sprintf("%d closed walks from %s", len(summary.Walks), summary.Start))
	return err == nil, err
}

func (s *SlackNotifier) sendMessage(ctx context.Context, blocks []slackBlock, fallbackText string) error {
	msg := slackMessage{
		Channel: s.channel,
		Text:    fallbackText,
		Blocks:  blocks,
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack API returned status %d", resp.StatusCode)
	}

	// Parse response to check for errors
	var slackResp struct {
		OK    bool   `json:"ok"`
		Error string `json:"error,omitempty"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&slackResp); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if !slackResp.OK {
		return fmt.Errorf("slack API error: %s", slackResp.Error)
	}

	return nil
}

// SendTestMessage sends a test message to verify the connection.
func (s *SlackNotifier) SendTestMessage(ctx context.Context) error {
	if !s.enabled {
		return fmt.Errorf("slack notifier is not enabled")
	}

	blocks := []slackBlock{
		{
			Type: "section",
			Text: &slackText{
				Type: "mrkdwn",
				Text: "🤖 *Solana Cycle Finder* connected and ready to send notifications!",
			},
		},
	}

	return s.sendMessage(ctx, blocks, "Solana Cycle Finder connected")
}
