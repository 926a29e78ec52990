package bot

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"forex-signal-bot/internal/model"
	"forex-signal-bot/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	chatIDs []int64
	texts   []string
}

func (f *fakeSender) SendMessage(ctx context.Context, chatID int64, text, parseMode string) error {
	f.chatIDs = append(f.chatIDs, chatID)
	f.texts = append(f.texts, text)
	return nil
}

type fakeChecker struct {
	status string
	err    error
}

func (f *fakeChecker) GetChatMember(ctx context.Context, chatID, userID int64) (string, error) {
	return f.status, f.err
}

type fakeSchedule struct {
	enabled    bool
	resetCalls int
	status     model.ScheduleStatus
}

func (f *fakeSchedule) SetEnabled(enabled bool)      { f.enabled = enabled }
func (f *fakeSchedule) ResetCount()                  { f.resetCalls++ }
func (f *fakeSchedule) Status() model.ScheduleStatus { return f.status }

func newTestBot(sender *fakeSender, checker *fakeChecker, sched ScheduleControl) *Bot {
	return &Bot{
		sender:   sender,
		checker:  checker,
		cfg:      &service.TelegramConfig{AdminID: 1, ChannelID: -100},
		schedule: sched,
		logger:   zap.NewNop(),
	}
}

func message(text string) *Message {
	return &Message{
		From: &User{ID: 42},
		Chat: Chat{ID: 42},
		Text: text,
	}
}

func TestBot_OnOffCommands(t *testing.T) {
	sender := &fakeSender{}
	sched := &fakeSchedule{}
	b := newTestBot(sender, &fakeChecker{status: "member"}, sched)

	b.handleMessage(context.Background(), message("/on"))
	assert.True(t, sched.enabled)

	b.handleMessage(context.Background(), message("/off"))
	assert.False(t, sched.enabled)

	require.Len(t, sender.texts, 2)
	assert.Contains(t, sender.texts[0], "enabled")
	assert.Contains(t, sender.texts[1], "disabled")
}

func TestBot_StatusCommand(t *testing.T) {
	sender := &fakeSender{}
	sched := &fakeSchedule{status: model.ScheduleStatus{
		Enabled:    true,
		DailyCount: 3,
		DailyLimit: 15,
	}}
	b := newTestBot(sender, &fakeChecker{status: "member"}, sched)

	b.handleMessage(context.Background(), message("/status"))

	require.Len(t, sender.texts, 1)
	assert.Contains(t, sender.texts[0], "ENABLED")
	assert.Contains(t, sender.texts[0], "3/15")
}

func TestBot_ResetCommand(t *testing.T) {
	sender := &fakeSender{}
	sched := &fakeSchedule{}
	b := newTestBot(sender, &fakeChecker{status: "member"}, sched)

	b.handleMessage(context.Background(), message("/reset"))

	assert.Equal(t, 1, sched.resetCalls)
	require.Len(t, sender.texts, 1)
	assert.Contains(t, sender.texts[0], "reset")
}

func TestBot_StartRequiresSubscription(t *testing.T) {
	testCases := []struct {
		name       string
		status     string
		err        error
		subscribed bool
	}{
		{"member is subscribed", "member", nil, true},
		{"administrator is subscribed", "administrator", nil, true},
		{"creator is subscribed", "creator", nil, true},
		{"left is not subscribed", "left", nil, false},
		{"kicked is not subscribed", "kicked", nil, false},
		{"check failure counts as not subscribed", "", fmt.Errorf("api down"), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sender := &fakeSender{}
			b := newTestBot(sender, &fakeChecker{status: tc.status, err: tc.err}, &fakeSchedule{})

			b.handleMessage(context.Background(), message("/start"))

			require.Len(t, sender.texts, 1)
			if tc.subscribed {
				assert.Contains(t, sender.texts[0], "Commands:")
			} else {
				assert.Contains(t, sender.texts[0], "Subscribe to the channel")
			}
		})
	}
}

func TestBot_IgnoresNonCommands(t *testing.T) {
	sender := &fakeSender{}
	b := newTestBot(sender, &fakeChecker{status: "member"}, &fakeSchedule{})

	b.handleMessage(context.Background(), message("hello there"))

	assert.Empty(t, sender.texts)
}

func TestBot_StripsBotMention(t *testing.T) {
	sender := &fakeSender{}
	sched := &fakeSchedule{status: model.ScheduleStatus{DailyLimit: 15}}
	b := newTestBot(sender, &fakeChecker{status: "member"}, sched)

	b.handleMessage(context.Background(), message("/status@forex_signal_bot"))

	require.Len(t, sender.texts, 1)
	assert.Contains(t, sender.texts[0], "DISABLED")
}

func TestBot_RepliesToOriginChat(t *testing.T) {
	sender := &fakeSender{}
	b := newTestBot(sender, &fakeChecker{status: "member"}, &fakeSchedule{})

	msg := &Message{From: &User{ID: 42}, Chat: Chat{ID: 777}, Text: "/on"}
	b.handleMessage(context.Background(), msg)

	require.Len(t, sender.chatIDs, 1)
	assert.Equal(t, int64(777), sender.chatIDs[0])
}

func TestClient_SendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/sendMessage", r.URL.Path)

		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, float64(42), payload["chat_id"])
		assert.Equal(t, "hi", payload["text"])
		assert.Equal(t, "HTML", payload["parse_mode"])

		_, _ = w.Write([]byte(`{"ok": true, "result": {}}`))
	}))
	defer srv.Close()

	c := NewClient(&service.TelegramConfig{
		BotToken:    "test-token",
		APIURL:      srv.URL,
		PollTimeout: time.Second,
	})

	require.NoError(t, c.SendMessage(context.Background(), 42, "hi", "HTML"))
}

func TestClient_APIErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok": false, "description": "Forbidden: bot was blocked"}`))
	}))
	defer srv.Close()

	c := NewClient(&service.TelegramConfig{
		BotToken:    "test-token",
		APIURL:      srv.URL,
		PollTimeout: time.Second,
	})

	err := c.SendMessage(context.Background(), 42, "hi", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bot was blocked")
}

func TestClient_GetChatMember(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/bottest-token/getChatMember", r.URL.Path)
		_, _ = w.Write([]byte(`{"ok": true, "result": {"status": "administrator"}}`))
	}))
	defer srv.Close()

	c := NewClient(&service.TelegramConfig{
		BotToken:    "test-token",
		APIURL:      srv.URL,
		PollTimeout: time.Second,
	})

	status, err := c.GetChatMember(context.Background(), -100, 42)
	require.NoError(t, err)
	assert.Equal(t, "administrator", status)
}
