// Package autoreply holds the configuration shapes of keyword auto-replies
// and the conversational bot, with their validation rules.
package autoreply

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	ErrInvalidRule      = errors.New("invalid auto-reply rule")
	ErrInvalidBotConfig = errors.New("invalid bot configuration")
)

type Schedule string

const (
	ScheduleAlways       Schedule = "always"
	ScheduleOutsideHours Schedule = "outside-hours"
	ScheduleCustom       Schedule = "custom"
)

const clockLayout = "15:04"

// Window is a weekly time range. Days use time.Weekday numbering.
type Window struct {
	Days      []int  `json:"days" yaml:"days"`
	StartTime string `json:"start_time" yaml:"start_time"`
	EndTime   string `json:"end_time" yaml:"end_time"`
}

type Rule struct {
	ID             string   `json:"id" yaml:"id"`
	Pattern        string   `json:"pattern" yaml:"pattern"`
	Response       string   `json:"response" yaml:"response"`
	IsEnabled      bool     `json:"is_enabled" yaml:"is_enabled"`
	Schedule       Schedule `json:"schedule" yaml:"schedule"`
	CustomSchedule *Window  `json:"custom_schedule,omitempty" yaml:"custom_schedule,omitempty"`
}

func (r *Rule) Validate() error {
	if strings.TrimSpace(r.Pattern) == "" {
		return fmt.Errorf("%w: pattern is required", ErrInvalidRule)
	}
	if _, err := regexp.Compile(r.Pattern); err != nil {
		return fmt.Errorf("%w: pattern does not compile: %v", ErrInvalidRule, err)
	}
	if strings.TrimSpace(r.Response) == "" {
		return fmt.Errorf("%w: response is required", ErrInvalidRule)
	}

	switch r.Schedule {
	case ScheduleAlways, ScheduleOutsideHours:
		if r.CustomSchedule != nil {
			return fmt.Errorf("%w: custom schedule given for %q", ErrInvalidRule, r.Schedule)
		}
	case ScheduleCustom:
		if r.CustomSchedule == nil {
			return fmt.Errorf("%w: custom schedule is required", ErrInvalidRule)
		}
		if err := r.CustomSchedule.validate(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: unknown schedule %q", ErrInvalidRule, r.Schedule)
	}
	return nil
}

func (w *Window) validate() error {
	if len(w.Days) == 0 {
		return fmt.Errorf("%w: custom schedule needs at least one day", ErrInvalidRule)
	}
	for _, d := range w.Days {
		if d < 0 || d > 6 {
			return fmt.Errorf("%w: day %d out of range", ErrInvalidRule, d)
		}
	}
	start, err := time.Parse(clockLayout, w.StartTime)
	if err != nil {
		return fmt.Errorf("%w: bad start time %q", ErrInvalidRule, w.StartTime)
	}
	end, err := time.Parse(clockLayout, w.EndTime)
	if err != nil {
		return fmt.Errorf("%w: bad end time %q", ErrInvalidRule, w.EndTime)
	}
	if !start.Before(end) {
		return fmt.Errorf("%w: start %s is not before end %s", ErrInvalidRule, w.StartTime, w.EndTime)
	}
	return nil
}

// Matches reports whether an enabled rule's pattern matches text,
// case-insensitively.
func (r *Rule) Matches(text string) bool {
	if !r.IsEnabled {
		return false
	}
	re, err := regexp.Compile("(?i)" + r.Pattern)
	if err != nil {
		return false
	}
	return re.MatchString(text)
}

type Personality string

const (
	PersonalityProfessional Personality = "professional"
	PersonalityFriendly     Personality = "friendly"
	PersonalityCasual       Personality = "casual"
)

const (
	MinContextLength = 1
	MaxContextLength = 10
)

type BotConfig struct {
	IsEnabled        bool        `json:"is_enabled" yaml:"is_enabled"`
	Personality      Personality `json:"personality" yaml:"personality"`
	ContextLength    int         `json:"context_length" yaml:"context_length"`
	Triggers         []string    `json:"triggers" yaml:"triggers"`
	DefaultResponses []string    `json:"default_responses" yaml:"default_responses"`
}

func (c *BotConfig) Validate() error {
	switch c.Personality {
	case PersonalityProfessional, PersonalityFriendly, PersonalityCasual:
	default:
		return fmt.Errorf("%w: unknown personality %q", ErrInvalidBotConfig, c.Personality)
	}
	if c.ContextLength < MinContextLength || c.ContextLength > MaxContextLength {
		return fmt.Errorf("%w: context length %d not in %d..%d",
			ErrInvalidBotConfig, c.ContextLength, MinContextLength, MaxContextLength)
	}
	for _, t := range c.Triggers {
		if strings.TrimSpace(t) == "" {
			return fmt.Errorf("%w: empty trigger", ErrInvalidBotConfig)
		}
	}
	return nil
}

// DefaultBotConfig is the configuration a fresh install starts with.
func DefaultBotConfig() BotConfig {
	return BotConfig{
		IsEnabled:        false,
		Personality:      PersonalityFriendly,
		ContextLength:    5,
		Triggers:         []string{"help", "support", "question"},
		DefaultResponses: []string{"I'll get back to you shortly!"},
	}
}
