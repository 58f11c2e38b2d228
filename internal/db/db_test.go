package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/4xmen/chatview/internal/autoreply"
	"github.com/4xmen/chatview/internal/media"
	"github.com/4xmen/chatview/internal/models"
	"github.com/4xmen/chatview/internal/schedule"
	"github.com/4xmen/chatview/internal/timeline"
)

var base = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New("", func() time.Time { return base })
	require.NoError(t, err)
	return db
}

func TestNewLoadsEmbeddedSeed(t *testing.T) {
	db := newTestDB(t)

	assert.Len(t, db.Accounts(), 2)
	assert.Len(t, db.Scheduled(), 2)
	assert.Len(t, db.Rules(), 2)
	assert.Equal(t, autoreply.PersonalityFriendly, db.Bot().Personality)

	msgs, err := db.Messages("1")
	require.NoError(t, err)
	require.Len(t, msgs, 4)
	assert.Equal(t, "2024-03-10T10:00:00Z", msgs[1].Timestamp)

	scheduled := db.Scheduled()
	assert.Equal(t, "2024-03-11T12:00:00Z", scheduled[0].ScheduledFor)
}

func TestSeedTimelinesAssemble(t *testing.T) {
	db := newTestDB(t)
	for _, p := range db.Chats() {
		msgs, err := db.Messages(p.ID)
		require.NoError(t, err)
		entries, err := timeline.Assemble(msgs, base)
		require.NoError(t, err, "chat %s", p.ID)
		assert.NotEmpty(t, entries)
	}
}

func TestChatsOrderAndUnread(t *testing.T) {
	db := newTestDB(t)
	chats := db.Chats()
	require.Len(t, chats, 3)

	var ids []string
	unread := map[string]int{}
	for _, c := range chats {
		ids = append(ids, c.ID)
		unread[c.ID] = c.UnreadCount
	}
	assert.Equal(t, []string{"1", "2", "3"}, ids)
	assert.Equal(t, map[string]int{"1": 2, "2": 2, "3": 0}, unread)
	require.NotNil(t, chats[0].LastMessage)
	assert.Equal(t, "m4", chats[0].LastMessage.ID)
}

func TestSearchChats(t *testing.T) {
	db := newTestDB(t)
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "empty", query: "", want: []string{"1", "2", "3"}},
		{name: "name", query: "marketing", want: []string{"2"}},
		{name: "name mixed case", query: "sARAH", want: []string{"3"}},
		{name: "phone", query: "+5555", want: []string{"3"}},
		{name: "shared substring", query: "e", want: []string{"1", "2"}},
		{name: "no match", query: "zebra", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := []string{}
			for _, c := range db.SearchChats(tt.query) {
				ids = append(ids, c.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestMessagesReturnsCopy(t *testing.T) {
	db := newTestDB(t)
	msgs, err := db.Messages("1")
	require.NoError(t, err)
	msgs[1].Reactions[0] = "changed"
	msgs[0].Content = "changed"

	again, err := db.Messages("1")
	require.NoError(t, err)
	assert.Equal(t, "👍", again[1].Reactions[0])
	assert.Equal(t, "Hey, how are you?", again[0].Content)

	_, err = db.Messages("missing")
	assert.ErrorIs(t, err, ErrChatNotFound)
}

func TestAppend(t *testing.T) {
	now := base
	db, err := New("", func() time.Time { return now })
	require.NoError(t, err)

	now = base.Add(time.Minute)
	m, err := db.Append("3", models.Message{
		Sender:  models.SenderUser,
		Content: "See you tomorrow",
		ReplyTo: &models.ReplyRef{MessageID: "s1"},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, models.StatusSent, m.Status)
	assert.Equal(t, "2024-03-10T12:01:00Z", m.Timestamp)
	require.NotNil(t, m.ReplyTo.Snapshot)
	assert.Equal(t, "The update is live.", m.ReplyTo.Snapshot.Content)

	msgs, err := db.Messages("3")
	require.NoError(t, err)
	assert.Equal(t, m.ID, msgs[len(msgs)-1].ID)

	chats := db.Chats()
	assert.Equal(t, "3", chats[0].ID)
}

func TestAppendRejects(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Append("missing", models.Message{Sender: models.SenderUser, Content: "x"})
	assert.ErrorIs(t, err, ErrChatNotFound)

	_, err = db.Append("1", models.Message{Sender: "stranger", Content: "x"})
	assert.ErrorIs(t, err, models.ErrInvalidSender)

	_, err = db.Append("1", models.Message{ID: "m1", Sender: models.SenderUser, Content: "x"})
	assert.Error(t, err)
}

func TestSetStatusIsMonotonic(t *testing.T) {
	db := newTestDB(t)

	m, err := db.SetStatus("1", "m3", models.StatusRead)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRead, m.Status)

	m, err = db.SetStatus("1", "m3", models.StatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, models.StatusRead, m.Status)

	_, err = db.SetStatus("1", "m3", "seen")
	assert.ErrorIs(t, err, models.ErrInvalidStatus)

	_, err = db.SetStatus("1", "nope", models.StatusRead)
	assert.ErrorIs(t, err, ErrMessageNotFound)
}

func TestMarkSeenRecordsViewerOnce(t *testing.T) {
	db := newTestDB(t)

	_, err := db.MarkSeen("2", "g3", "Alice")
	require.NoError(t, err)
	m, err := db.MarkSeen("2", "g3", "Alice")
	require.NoError(t, err)

	assert.Equal(t, models.StatusRead, m.Status)
	assert.Equal(t, []string{"Alice"}, m.SeenBy)
	assert.Equal(t, &timeline.Receipt{SeenBy: []string{"Alice"}}, timeline.ReadReceipt(m.Status, m.SeenBy))
}

func TestAddReaction(t *testing.T) {
	db := newTestDB(t)

	m, err := db.AddReaction("2", "g2", "👍")
	require.NoError(t, err)
	assert.Equal(t, []timeline.ReactionCount{{Tag: "🎉", Count: 2}, {Tag: "👍", Count: 2}},
		timeline.AggregateReactions(m.Reactions))

	_, err = db.AddReaction("2", "g2", "")
	assert.ErrorIs(t, err, ErrEmptyReaction)
}

func TestUploadProgress(t *testing.T) {
	db := newTestDB(t)

	md := media.Describe("photo.png", "/media/1/photo.png", "image/png", 4096)
	m, err := db.Append("1", models.Message{Sender: models.SenderUser, Media: &md})
	require.NoError(t, err)

	updates := make(chan int, 3)
	updates <- 40
	updates <- 80
	updates <- 100
	close(updates)
	require.NoError(t, db.TrackUpload(context.Background(), "1", m.ID, updates))

	msgs, err := db.Messages("1")
	require.NoError(t, err)
	got := msgs[len(msgs)-1].Media
	assert.Equal(t, 100, got.UploadProgress)
	assert.False(t, got.IsUploading)

	_, err = db.UpdateUpload("1", m.ID, 100)
	assert.ErrorIs(t, err, media.ErrUploadFinished)

	_, err = db.UpdateUpload("1", "m1", 50)
	assert.Error(t, err)
}

func TestTrackUploadStopsOnCancel(t *testing.T) {
	db := newTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := db.TrackUpload(ctx, "1", "m1", make(chan int))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTrackUploadOfDeletedMessage(t *testing.T) {
	db := newTestDB(t)

	md := media.Describe("photo.png", "", "image/png", 64)
	m, err := db.Append("1", models.Message{Sender: models.SenderUser, Media: &md})
	require.NoError(t, err)
	require.NoError(t, db.DeleteMessage("1", m.ID))

	ctx, cancel := context.WithCancel(context.Background())
	updates := media.Simulate(ctx, 20, time.Millisecond)
	err = db.TrackUpload(ctx, "1", m.ID, updates)
	assert.ErrorIs(t, err, ErrMessageNotFound)

	cancel()
	closed := make(chan struct{})
	go func() {
		for range updates {
		}
		close(closed)
	}()
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("progress stream still open after cancel")
	}
}

func TestDeleteMessage(t *testing.T) {
	db := newTestDB(t)

	require.NoError(t, db.DeleteMessage("1", "m1"))
	assert.ErrorIs(t, db.DeleteMessage("1", "m1"), ErrMessageNotFound)
	assert.ErrorIs(t, db.DeleteMessage("9", "m1"), ErrChatNotFound)

	msgs, err := db.Messages("1")
	require.NoError(t, err)
	entries, err := timeline.Assemble(msgs, base)
	require.NoError(t, err)
	last := timeline.Messages(entries)[len(msgs)-1]
	require.NotNil(t, last.Reply)
	assert.True(t, last.Reply.Missing)
}

func TestScheduled(t *testing.T) {
	db := newTestDB(t)

	sm, err := db.AddScheduled(schedule.Message{ChatID: "3", Content: "Ping", ScheduledFor: "2024-03-12T09:00:00Z"})
	require.NoError(t, err)
	assert.NotEmpty(t, sm.ID)
	assert.Equal(t, schedule.StatePending, sm.Status)
	assert.Equal(t, schedule.RepeatNone, sm.Repeat)

	_, err = db.AddScheduled(schedule.Message{ChatID: "9", Content: "Ping", ScheduledFor: "2024-03-12T09:00:00Z"})
	assert.ErrorIs(t, err, ErrChatNotFound)

	_, err = db.AddScheduled(schedule.Message{ChatID: "3", Content: "Ping", ScheduledFor: "soon"})
	assert.ErrorIs(t, err, schedule.ErrInvalid)

	require.NoError(t, db.DeleteScheduled(sm.ID))
	assert.ErrorIs(t, db.DeleteScheduled(sm.ID), ErrScheduledNotFound)
}

func TestRulesAndBot(t *testing.T) {
	db := newTestDB(t)

	r, err := db.PutRule(autoreply.Rule{ID: "r1", Pattern: "hours", Response: "9-6", Schedule: autoreply.ScheduleAlways})
	require.NoError(t, err)
	assert.Equal(t, "r1", r.ID)
	assert.Len(t, db.Rules(), 2)
	assert.Equal(t, "9-6", db.Rules()[0].Response)

	_, err = db.PutRule(autoreply.Rule{Pattern: "(", Response: "x", Schedule: autoreply.ScheduleAlways})
	assert.ErrorIs(t, err, autoreply.ErrInvalidRule)

	require.NoError(t, db.DeleteRule("r2"))
	assert.ErrorIs(t, db.DeleteRule("r2"), ErrRuleNotFound)

	cfg := db.Bot()
	cfg.ContextLength = 11
	_, err = db.SetBot(cfg)
	assert.ErrorIs(t, err, autoreply.ErrInvalidBotConfig)

	cfg.ContextLength = 3
	got, err := db.SetBot(cfg)
	require.NoError(t, err)
	assert.Equal(t, 3, got.ContextLength)
	assert.Equal(t, 3, db.Bot().ContextLength)
}

func TestNewFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	content := `chats:
  - id: a
    name: Ana
    messages:
      - id: x1
        sender: contact
        content: hello
        timestamp: "2024-03-09T08:00:00Z"
      - id: x2
        sender: user
        content: hi
        offset: -30m
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	db, err := New(path, func() time.Time { return base })
	require.NoError(t, err)

	msgs, err := db.Messages("a")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "2024-03-09T08:00:00Z", msgs[0].Timestamp)
	assert.Equal(t, "2024-03-10T11:30:00Z", msgs[1].Timestamp)
	assert.Equal(t, models.StatusSent, msgs[1].Status)

	c, err := db.Chat("a")
	require.NoError(t, err)
	assert.Equal(t, models.PresenceOffline, c.Presence)
	assert.Equal(t, autoreply.DefaultBotConfig(), db.Bot())
}

func TestNewRejectsBadFixtures(t *testing.T) {
	tests := map[string]string{
		"bad yaml":           "chats: [",
		"bad offset":         "chats:\n  - id: a\n    messages:\n      - id: x\n        sender: user\n        offset: soon\n",
		"bad sender":         "chats:\n  - id: a\n    messages:\n      - id: x\n        sender: robot\n",
		"duplicate chat":     "chats:\n  - id: a\n  - id: a\n",
		"message without id": "chats:\n  - id: a\n    messages:\n      - sender: user\n        content: x\n",
		"bad presence":       "chats:\n  - id: a\n    status: away\n",
		"bad rule":           "rules:\n  - id: r\n    pattern: \"(\"\n    response: x\n    schedule: always\n",
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "fixture.yaml")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
			_, err := New(path, nil)
			assert.Error(t, err)
		})
	}

	_, err := New(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.Error(t, err)
}

func TestNewRejectsDuplicateMessageIDs(t *testing.T) {
	content := `
chats:
  - id: a
    name: Ana
    messages:
      - id: m1
        sender: user
        content: x
        timestamp: "2024-03-09T08:00:00Z"
      - id: m1
        sender: contact
        content: y
        timestamp: "2024-03-09T08:01:00Z"
`
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := New(path, nil)
	assert.ErrorContains(t, err, `duplicate message id "m1"`)
}
