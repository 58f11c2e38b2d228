// Package db is the in-memory conversation store. It is seeded from a YAML
// fixture and guarded by a single RWMutex; every read hands out copies.
package db

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/4xmen/chatview/internal/autoreply"
	"github.com/4xmen/chatview/internal/logging"
	"github.com/4xmen/chatview/internal/media"
	"github.com/4xmen/chatview/internal/models"
	"github.com/4xmen/chatview/internal/schedule"
)

var (
	ErrChatNotFound      = errors.New("chat not found")
	ErrMessageNotFound   = errors.New("message not found")
	ErrScheduledNotFound = errors.New("scheduled message not found")
	ErrRuleNotFound      = errors.New("rule not found")
	ErrEmptyReaction     = errors.New("reaction is required")
)

type conversation struct {
	chat     models.Chat
	messages []models.Message
}

type DB struct {
	mu    sync.RWMutex
	clock func() time.Time

	order     []string
	chats     map[string]*conversation
	accounts  []models.Account
	scheduled []schedule.Message
	rules     []autoreply.Rule
	bot       autoreply.BotConfig
}

// New loads the fixture at path, or the embedded seed when path is empty.
// Relative fixture times are resolved against clock().
func New(path string, clock func() time.Time) (*DB, error) {
	if clock == nil {
		clock = time.Now
	}
	data, err := readFixture(path)
	if err != nil {
		return nil, err
	}
	f, err := parseFixture(data)
	if err != nil {
		return nil, err
	}

	db := &DB{
		clock: clock,
		chats: make(map[string]*conversation),
		bot:   autoreply.DefaultBotConfig(),
	}
	if err := db.load(f, clock()); err != nil {
		return nil, fmt.Errorf("failed to load fixture: %w", err)
	}

	log := logging.Component("db")
	log.Info().
		Int("chats", len(db.order)).
		Int("scheduled", len(db.scheduled)).
		Int("rules", len(db.rules)).
		Str("fixture", fixtureName(path)).
		Msg("store loaded")
	return db, nil
}

func fixtureName(path string) string {
	if path == "" {
		return "embedded"
	}
	return path
}

func (db *DB) load(f *fixture, base time.Time) error {
	db.accounts = append(db.accounts, f.Accounts...)

	for _, fc := range f.Chats {
		if fc.ID == "" {
			return errors.New("chat without id")
		}
		if _, dup := db.chats[fc.ID]; dup {
			return fmt.Errorf("duplicate chat id %q", fc.ID)
		}
		if fc.Presence == "" {
			fc.Presence = models.PresenceOffline
		}
		if _, err := models.ParsePresence(string(fc.Presence)); err != nil {
			return fmt.Errorf("chat %s: %w", fc.ID, err)
		}

		conv := &conversation{chat: fc.Chat}
		seen := make(map[string]struct{}, len(fc.Messages))
		for _, fm := range fc.Messages {
			m := fm.Message
			if m.ID == "" {
				return fmt.Errorf("chat %s: message without id", fc.ID)
			}
			if _, dup := seen[m.ID]; dup {
				return fmt.Errorf("chat %s: duplicate message id %q", fc.ID, m.ID)
			}
			seen[m.ID] = struct{}{}

			ts, err := resolveTime(m.Timestamp, fm.Offset, base)
			if err != nil {
				return fmt.Errorf("chat %s message %s: %w", fc.ID, m.ID, err)
			}
			m.Timestamp = ts
			if m.Status == "" {
				m.Status = models.StatusSent
			}
			if err := m.Validate(); err != nil {
				return fmt.Errorf("chat %s message %s: %w", fc.ID, m.ID, err)
			}
			conv.messages = append(conv.messages, m)
		}
		db.chats[fc.ID] = conv
		db.order = append(db.order, fc.ID)
	}

	for _, fs := range f.Scheduled {
		sm := fs.Message
		at, err := resolveTime(sm.ScheduledFor, fs.Offset, base)
		if err != nil {
			return fmt.Errorf("scheduled %s: %w", sm.ID, err)
		}
		sm.ScheduledFor = at
		if err := sm.Validate(); err != nil {
			return err
		}
		db.scheduled = append(db.scheduled, sm)
	}

	for _, r := range f.Rules {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("rule %s: %w", r.ID, err)
		}
		db.rules = append(db.rules, r)
	}

	if f.Bot != nil {
		if err := f.Bot.Validate(); err != nil {
			return err
		}
		db.bot = *f.Bot
	}
	return nil
}

// Now returns the store clock's current instant.
func (db *DB) Now() time.Time {
	return db.clock()
}

func (db *DB) Accounts() []models.Account {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return append([]models.Account(nil), db.accounts...)
}

// Chats lists chat previews, most recent conversation first. Unread counts
// are incoming messages not yet read.
func (db *DB) Chats() []models.ChatPreview {
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := make([]models.ChatPreview, 0, len(db.order))
	for _, id := range db.order {
		conv := db.chats[id]
		p := models.ChatPreview{Chat: conv.chat}
		if n := len(conv.messages); n > 0 {
			last := conv.messages[n-1].Clone()
			p.LastMessage = &last
		}
		for _, m := range conv.messages {
			if m.Sender != models.SenderUser && m.Status != models.StatusRead {
				p.UnreadCount++
			}
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return lastActivity(out[i]).After(lastActivity(out[j]))
	})
	return out
}

// SearchChats is Chats restricted to chats whose name or phone matches query.
func (db *DB) SearchChats(query string) []models.ChatPreview {
	all := db.Chats()
	out := all[:0]
	for _, p := range all {
		if p.MatchesQuery(query) {
			out = append(out, p)
		}
	}
	return out
}

func lastActivity(p models.ChatPreview) time.Time {
	if p.LastMessage == nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, p.LastMessage.Timestamp)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (db *DB) Chat(chatID string) (models.Chat, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	conv, ok := db.chats[chatID]
	if !ok {
		return models.Chat{}, ErrChatNotFound
	}
	return conv.chat, nil
}

// Messages returns a copy of the chat's history in stored order.
func (db *DB) Messages(chatID string) ([]models.Message, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	conv, ok := db.chats[chatID]
	if !ok {
		return nil, ErrChatNotFound
	}
	out := make([]models.Message, len(conv.messages))
	for i, m := range conv.messages {
		out[i] = m.Clone()
	}
	return out, nil
}

func (db *DB) Message(chatID, msgID string) (models.Message, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	conv, ok := db.chats[chatID]
	if !ok {
		return models.Message{}, ErrChatNotFound
	}
	i := conv.find(msgID)
	if i < 0 {
		return models.Message{}, ErrMessageNotFound
	}
	return conv.messages[i].Clone(), nil
}

// Append stores a new message stamped with the store clock. A missing ID
// gets a uuid and a missing status defaults to sent. A reply to a stored
// message without a snapshot captures one.
func (db *DB) Append(chatID string, msg models.Message) (models.Message, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	conv, ok := db.chats[chatID]
	if !ok {
		return models.Message{}, ErrChatNotFound
	}

	m := msg.Clone()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Status == "" {
		m.Status = models.StatusSent
	}
	m.Timestamp = formatTimestamp(db.clock())
	if err := m.Validate(); err != nil {
		return models.Message{}, err
	}
	if conv.find(m.ID) >= 0 {
		return models.Message{}, fmt.Errorf("duplicate message id %q", m.ID)
	}

	if m.ReplyTo != nil && m.ReplyTo.Snapshot == nil && m.ReplyTo.MessageID != "" {
		if i := conv.find(m.ReplyTo.MessageID); i >= 0 {
			orig := conv.messages[i]
			m.ReplyTo.Snapshot = &models.ReplySnapshot{Sender: orig.Sender, Content: orig.Content}
		}
	}

	conv.messages = append(conv.messages, m)
	return m.Clone(), nil
}

func (c *conversation) find(msgID string) int {
	for i := range c.messages {
		if c.messages[i].ID == msgID {
			return i
		}
	}
	return -1
}

// update runs fn on the stored message under the write lock and returns a
// copy of the result.
func (db *DB) update(chatID, msgID string, fn func(m *models.Message) error) (models.Message, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	conv, ok := db.chats[chatID]
	if !ok {
		return models.Message{}, ErrChatNotFound
	}
	i := conv.find(msgID)
	if i < 0 {
		return models.Message{}, ErrMessageNotFound
	}
	if err := fn(&conv.messages[i]); err != nil {
		return models.Message{}, err
	}
	return conv.messages[i].Clone(), nil
}

func (db *DB) AddReaction(chatID, msgID, tag string) (models.Message, error) {
	if tag == "" {
		return models.Message{}, ErrEmptyReaction
	}
	return db.update(chatID, msgID, func(m *models.Message) error {
		m.Reactions = append(m.Reactions, tag)
		return nil
	})
}

// SetStatus advances the delivery status. Earlier states are ignored.
func (db *DB) SetStatus(chatID, msgID string, status models.Status) (models.Message, error) {
	if _, err := models.ParseStatus(string(status)); err != nil {
		return models.Message{}, err
	}
	return db.update(chatID, msgID, func(m *models.Message) error {
		m.Status = m.Status.Advance(status)
		return nil
	})
}

// MarkSeen marks the message read and records viewer once.
func (db *DB) MarkSeen(chatID, msgID, viewer string) (models.Message, error) {
	return db.update(chatID, msgID, func(m *models.Message) error {
		m.Status = m.Status.Advance(models.StatusRead)
		if viewer == "" {
			return nil
		}
		for _, v := range m.SeenBy {
			if v == viewer {
				return nil
			}
		}
		m.SeenBy = append(m.SeenBy, viewer)
		return nil
	})
}

func (db *DB) UpdateUpload(chatID, msgID string, percent int) (models.Message, error) {
	return db.update(chatID, msgID, func(m *models.Message) error {
		if m.Media == nil {
			return fmt.Errorf("message %s has no media", msgID)
		}
		return media.Apply(m.Media, percent)
	})
}

// TrackUpload applies every progress value from updates until the channel
// closes or ctx is done.
func (db *DB) TrackUpload(ctx context.Context, chatID, msgID string, updates <-chan int) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case p, ok := <-updates:
			if !ok {
				return nil
			}
			if _, err := db.UpdateUpload(chatID, msgID, p); err != nil {
				return err
			}
		}
	}
}

func (db *DB) DeleteMessage(chatID, msgID string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	conv, ok := db.chats[chatID]
	if !ok {
		return ErrChatNotFound
	}
	i := conv.find(msgID)
	if i < 0 {
		return ErrMessageNotFound
	}
	conv.messages = append(conv.messages[:i], conv.messages[i+1:]...)
	return nil
}
