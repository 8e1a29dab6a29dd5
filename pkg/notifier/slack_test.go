package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type slackServer struct {
	mu       sync.Mutex
	messages []slackMessage
	auth     []string
	reply    string
}

func (s *slackServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var msg slackMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.auth = append(s.auth, r.Header.Get("Authorization"))
	reply := s.reply
	s.mu.Unlock()

	if reply == "" {
		reply = `{"ok":true}`
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(reply))
}

func newTestNotifier(t *testing.T, handler http.Handler, cooldown time.Duration) (*SlackNotifier, *time.Time) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	n := NewSlackNotifier(&SlackConfig{
		APIToken: "xoxb-test",
		Channel:  "#cycles",
		Enabled:  true,
		Cooldown: cooldown,
		URL:      srv.URL,
	})
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return now }
	return n, &now
}

func TestNewSlackNotifier_DisabledWithoutCredentials(t *testing.T) {
	n := NewSlackNotifier(&SlackConfig{Enabled: true})
	assert.False(t, n.IsEnabled())

	sent, err := n.NotifySearchResult(context.Background(), &SearchSummary{Walks: []string{"A -> B -> A"}})
	assert.NoError(t, err)
	assert.False(t, sent)
	assert.Error(t, n.SendTestMessage(context.Background()))
}

func TestNotifySearchResult(t *testing.T) {
	srv := &slackServer{}
	n, _ := newTestNotifier(t, srv, 0)

	sent, err := n.NotifySearchResult(context.Background(), &SearchSummary{
		RunID: "run-1",
		Start: "WSOL",
		Walks: []string{"WSOL -> USDC -> WSOL", "WSOL -> USDT -> WSOL"},
		Took:  42 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.True(t, sent)

	require.Len(t, srv.messages, 1)
	msg := srv.messages[0]
	assert.Equal(t, "#cycles", msg.Channel)
	assert.Equal(t, "2 closed walks from WSOL", msg.Text)
	require.Len(t, msg.Blocks, 3)
	assert.Contains(t, msg.Blocks[1].Text.Text, "1. WSOL -> USDC -> WSOL\n2. WSOL -> USDT -> WSOL")
	assert.Contains(t, msg.Blocks[2].Text.Text, "run-1")
	assert.Equal(t, "Bearer xoxb-test", srv.auth[0])

	sent, err = n.NotifySearchResult(context.Background(), &SearchSummary{Start: "WSOL"})
	assert.NoError(t, err)
	assert.False(t, sent, "nothing to report")
}

func TestNotifySearchResult_Cooldown(t *testing.T) {
	srv := &slackServer{}
	n, now := newTestNotifier(t, srv, time.Minute)
	summary := &SearchSummary{Start: "WSOL", Walks: []string{"WSOL -> USDC -> WSOL"}}

	sent, err := n.NotifySearchResult(context.Background(), summary)
	require.NoError(t, err)
	assert.True(t, sent)

	*now = now.Add(30 * time.Second)
	sent, err = n.NotifySearchResult(context.Background(), summary)
	require.NoError(t, err)
	assert.False(t, sent)

	*now = now.Add(31 * time.Second)
	sent, err = n.NotifySearchResult(context.Background(), summary)
	require.NoError(t, err)
	assert.True(t, sent)

	assert.Len(t, srv.messages, 2)
}

func TestSendMessage_SlackError(t *testing.T) {
	srv := &slackServer{reply: `{"ok":false,"error":"channel_not_found"}`}
	n, _ := newTestNotifier(t, srv, 0)

	err := n.SendTestMessage(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")

	status := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	n, _ = newTestNotifier(t, status, 0)
	err = n.SendTestMessage(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
