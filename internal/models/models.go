package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidSender    = errors.New("invalid sender")
	ErrInvalidStatus    = errors.New("invalid status")
	ErrInvalidMediaKind = errors.New("invalid media kind")
	ErrInvalidPresence  = errors.New("invalid presence")
)

type Sender string

const (
	SenderUser    Sender = "user"
	SenderContact Sender = "contact"
	SenderBot     Sender = "bot"
)

func ParseSender(s string) (Sender, error) {
	switch Sender(s) {
	case SenderUser, SenderContact, SenderBot:
		return Sender(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSender, s)
}

// Status is the delivery state of a message. It only moves forward:
// sent -> delivered -> read.
type Status string

const (
	StatusSent      Status = "sent"
	StatusDelivered Status = "delivered"
	StatusRead      Status = "read"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusSent, StatusDelivered, StatusRead:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

func (s Status) rank() int {
	switch s {
	case StatusSent:
		return 1
	case StatusDelivered:
		return 2
	case StatusRead:
		return 3
	}
	return 0
}

// Advance returns the later of s and next.
func (s Status) Advance(next Status) Status {
	if next.rank() > s.rank() {
		return next
	}
	return s
}

type MediaKind string

const (
	MediaImage    MediaKind = "image"
	MediaVideo    MediaKind = "video"
	MediaDocument MediaKind = "document"
	MediaAudio    MediaKind = "audio"
)

func ParseMediaKind(s string) (MediaKind, error) {
	switch MediaKind(s) {
	case MediaImage, MediaVideo, MediaDocument, MediaAudio:
		return MediaKind(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidMediaKind, s)
}

type MediaDescriptor struct {
	Kind           MediaKind `json:"type" yaml:"type"`
	URL            string    `json:"url" yaml:"url"`
	Filename       string    `json:"filename" yaml:"filename"`
	Size           int64     `json:"size" yaml:"size"`
	MIMEType       string    `json:"mime_type" yaml:"mime_type"`
	IsUploading    bool      `json:"is_uploading,omitempty" yaml:"is_uploading,omitempty"`
	UploadProgress int       `json:"upload_progress,omitempty" yaml:"upload_progress,omitempty"`
}

// ReplySnapshot is an embedded copy of the message being replied to.
type ReplySnapshot struct {
	Sender  Sender `json:"sender" yaml:"sender"`
	Content string `json:"content" yaml:"content"`
}

type ReplyRef struct {
	MessageID string         `json:"message_id,omitempty" yaml:"message_id,omitempty"`
	Snapshot  *ReplySnapshot `json:"snapshot,omitempty" yaml:"snapshot,omitempty"`
}

type Message struct {
	ID        string           `json:"id" yaml:"id"`
	Sender    Sender           `json:"sender" yaml:"sender"`
	Content   string           `json:"content" yaml:"content"`
	Timestamp string           `json:"timestamp" yaml:"timestamp"`
	Status    Status           `json:"status" yaml:"status"`
	ReplyTo   *ReplyRef        `json:"reply_to,omitempty" yaml:"reply_to,omitempty"`
	Reactions []string         `json:"reactions,omitempty" yaml:"reactions,omitempty"`
	SeenBy    []string         `json:"seen_by,omitempty" yaml:"seen_by,omitempty"`
	Media     *MediaDescriptor `json:"media,omitempty" yaml:"media,omitempty"`
}

// Validate checks the closed enums of a message at the ingestion boundary.
// Timestamps are left to the timeline assembler.
func (m *Message) Validate() error {
	if _, err := ParseSender(string(m.Sender)); err != nil {
		return err
	}
	if _, err := ParseStatus(string(m.Status)); err != nil {
		return err
	}
	if m.ReplyTo != nil && m.ReplyTo.Snapshot != nil {
		if _, err := ParseSender(string(m.ReplyTo.Snapshot.Sender)); err != nil {
			return fmt.Errorf("reply snapshot: %w", err)
		}
	}
	if m.Media != nil {
		if _, err := ParseMediaKind(string(m.Media.Kind)); err != nil {
			return err
		}
		if m.Media.Size < 0 {
			return fmt.Errorf("media size must be non-negative, got %d", m.Media.Size)
		}
		if m.Media.UploadProgress < 0 || m.Media.UploadProgress > 100 {
			return fmt.Errorf("upload progress out of range: %d", m.Media.UploadProgress)
		}
	}
	return nil
}

// Clone returns a deep copy so callers never share slices with the store.
func (m Message) Clone() Message {
	out := m
	if m.ReplyTo != nil {
		r := *m.ReplyTo
		if m.ReplyTo.Snapshot != nil {
			s := *m.ReplyTo.Snapshot
			r.Snapshot = &s
		}
		out.ReplyTo = &r
	}
	if m.Reactions != nil {
		out.Reactions = append([]string(nil), m.Reactions...)
	}
	if m.SeenBy != nil {
		out.SeenBy = append([]string(nil), m.SeenBy...)
	}
	if m.Media != nil {
		md := *m.Media
		out.Media = &md
	}
	return out
}

type Presence string

const (
	PresenceOnline  Presence = "online"
	PresenceOffline Presence = "offline"
	PresenceTyping  Presence = "typing"
)

func ParsePresence(s string) (Presence, error) {
	switch Presence(s) {
	case PresenceOnline, PresenceOffline, PresenceTyping:
		return Presence(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPresence, s)
}

type ChatSettings struct {
	Notifications bool    `json:"notifications" yaml:"notifications"`
	MuteUntil     *string `json:"mute_until,omitempty" yaml:"mute_until,omitempty"`
	Theme         string  `json:"theme,omitempty" yaml:"theme,omitempty"`
	Language      string  `json:"language,omitempty" yaml:"language,omitempty"`
}

type Chat struct {
	ID           string       `json:"id" yaml:"id"`
	Name         string       `json:"name" yaml:"name"`
	Phone        string       `json:"phone" yaml:"phone"`
	Presence     Presence     `json:"status" yaml:"status"`
	IsGroup      bool         `json:"is_group,omitempty" yaml:"is_group,omitempty"`
	GroupAdmin   string       `json:"group_admin,omitempty" yaml:"group_admin,omitempty"`
	Participants []string     `json:"participants,omitempty" yaml:"participants,omitempty"`
	Avatar       *string      `json:"avatar,omitempty" yaml:"avatar,omitempty"`
	Settings     ChatSettings `json:"settings" yaml:"settings"`
}

// MatchesQuery reports whether the chat name contains query, ignoring case,
// or the phone number contains it verbatim. An empty query matches all.
func (c Chat) MatchesQuery(query string) bool {
	query = strings.TrimSpace(query)
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(c.Name), strings.ToLower(query)) ||
		strings.Contains(c.Phone, query)
}

type Account struct {
	ID       string  `json:"id" yaml:"id"`
	Name     string  `json:"name" yaml:"name"`
	Phone    string  `json:"phone" yaml:"phone"`
	IsActive bool    `json:"is_active" yaml:"is_active"`
	Avatar   *string `json:"avatar,omitempty" yaml:"avatar,omitempty"`
}

// ChatPreview is one row of the contacts sidebar.
type ChatPreview struct {
	Chat
	LastMessage *Message `json:"last_message,omitempty"`
	UnreadCount int      `json:"unread_count"`
}
