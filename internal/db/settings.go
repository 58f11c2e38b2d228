package db

import (
	"github.com/google/uuid"

	"github.com/4xmen/chatview/internal/autoreply"
	"github.com/4xmen/chatview/internal/schedule"
)

func (db *DB) Scheduled() []schedule.Message {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return append([]schedule.Message(nil), db.scheduled...)
}

// AddScheduled queues sm for a chat that exists. ID and status default to a
// new uuid and pending.
func (db *DB) AddScheduled(sm schedule.Message) (schedule.Message, error) {
	if sm.ID == "" {
		sm.ID = uuid.NewString()
	}
	if sm.Status == "" {
		sm.Status = schedule.StatePending
	}
	if sm.Repeat == "" {
		sm.Repeat = schedule.RepeatNone
	}
	if err := sm.Validate(); err != nil {
		return schedule.Message{}, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.chats[sm.ChatID]; !ok {
		return schedule.Message{}, ErrChatNotFound
	}
	db.scheduled = append(db.scheduled, sm)
	return sm, nil
}

func (db *DB) DeleteScheduled(id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	for i := range db.scheduled {
		if db.scheduled[i].ID == id {
			db.scheduled = append(db.scheduled[:i], db.scheduled[i+1:]...)
			return nil
		}
	}
	return ErrScheduledNotFound
}

func (db *DB) Rules() []autoreply.Rule {
	db.mu.RLock()
	defer db.mu.RUnlock()
	out := make([]autoreply.Rule, len(db.rules))
	for i, r := range db.rules {
		out[i] = cloneRule(r)
	}
	return out
}

// PutRule replaces the rule with the same ID or appends a new one.
func (db *DB) PutRule(r autoreply.Rule) (autoreply.Rule, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if err := r.Validate(); err != nil {
		return autoreply.Rule{}, err
	}
	r = cloneRule(r)

	db.mu.Lock()
	defer db.mu.Unlock()
	for i := range db.rules {
		if db.rules[i].ID == r.ID {
			db.rules[i] = r
			return cloneRule(r), nil
		}
	}
	db.rules = append(db.rules, r)
	return cloneRule(r), nil
}

func (db *DB) DeleteRule(id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	for i := range db.rules {
		if db.rules[i].ID == id {
			db.rules = append(db.rules[:i], db.rules[i+1:]...)
			return nil
		}
	}
	return ErrRuleNotFound
}

func cloneRule(r autoreply.Rule) autoreply.Rule {
	if r.CustomSchedule != nil {
		w := *r.CustomSchedule
		w.Days = append([]int(nil), w.Days...)
		r.CustomSchedule = &w
	}
	return r
}

func (db *DB) Bot() autoreply.BotConfig {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return cloneBot(db.bot)
}

func (db *DB) SetBot(cfg autoreply.BotConfig) (autoreply.BotConfig, error) {
	if err := cfg.Validate(); err != nil {
		return autoreply.BotConfig{}, err
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	db.bot = cloneBot(cfg)
	return cloneBot(db.bot), nil
}

func cloneBot(c autoreply.BotConfig) autoreply.BotConfig {
	c.Triggers = append([]string(nil), c.Triggers...)
	c.DefaultResponses = append([]string(nil), c.DefaultResponses...)
	return c
}
