// Package timeline turns a conversation's ordered messages into renderable
// rows: date separators, sender grouping, reply previews, reaction counts
// and read receipts. Every function here is pure and safe to call
// concurrently on independent inputs.
package timeline

import (
	"encoding/json"
	"time"

	"github.com/4xmen/chatview/internal/models"
)

const (
	KindDateSeparator = "date_separator"
	KindMessage       = "message"
)

// Entry is one row of a timeline: either a DateSeparator or a
// RenderedMessage.
type Entry interface {
	Kind() string
}

type DateSeparator struct {
	Label string
}

func (DateSeparator) Kind() string { return KindDateSeparator }

func (d DateSeparator) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind  string `json:"kind"`
		Label string `json:"label"`
	}{KindDateSeparator, d.Label})
}

// ReplyPreview is the resolved context of a reply. Missing is set when the
// reference points at a message that is not part of the conversation.
type ReplyPreview struct {
	MessageID string        `json:"message_id,omitempty"`
	Sender    models.Sender `json:"sender,omitempty"`
	Content   string        `json:"content,omitempty"`
	Missing   bool          `json:"missing,omitempty"`
}

type RenderedMessage struct {
	Message      models.Message
	IsSequential bool
	Reply        *ReplyPreview
}

func (RenderedMessage) Kind() string { return KindMessage }

func (r RenderedMessage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Kind         string         `json:"kind"`
		Message      models.Message `json:"message"`
		IsSequential bool           `json:"is_sequential"`
		Reply        *ReplyPreview  `json:"reply,omitempty"`
	}{KindMessage, r.Message, r.IsSequential, r.Reply})
}

// Assemble builds the timeline for messages, which must already be in
// ascending timestamp order. now is the reference instant for date buckets
// and should be captured once per render pass.
//
// An unparsable or out-of-order timestamp fails the whole call with a
// *TimestampError; no partial timeline is returned.
func Assemble(messages []models.Message, now time.Time) ([]Entry, error) {
	if len(messages) == 0 {
		return []Entry{}, nil
	}

	stamps := make([]time.Time, len(messages))
	for i := range messages {
		t, err := ParseTimestamp(messages[i].Timestamp)
		if err != nil {
			return nil, &TimestampError{
				Index:     i,
				MessageID: messages[i].ID,
				Value:     messages[i].Timestamp,
				Reason:    "unparsable timestamp",
			}
		}
		if i > 0 && t.Before(stamps[i-1]) {
			return nil, &TimestampError{
				Index:     i,
				MessageID: messages[i].ID,
				Value:     messages[i].Timestamp,
				Reason:    "timestamp earlier than previous message",
			}
		}
		stamps[i] = t
	}

	entries := make([]Entry, 0, len(messages)+1)
	seen := make(map[string]int, len(messages))
	var prevBucket string

	for i := range messages {
		msg := &messages[i]
		bucket := bucketAt(stamps[i], now)
		separator := i == 0 || bucket != prevBucket
		if separator {
			entries = append(entries, DateSeparator{Label: bucket})
		}

		var prev *models.Message
		var prevAt time.Time
		if i > 0 {
			prev = &messages[i-1]
			prevAt = stamps[i-1]
		}

		entries = append(entries, RenderedMessage{
			Message:      msg.Clone(),
			IsSequential: IsSequential(prev, prevAt, msg, stamps[i], separator),
			Reply:        resolveReply(msg.ReplyTo, messages, seen),
		})

		seen[msg.ID] = i
		prevBucket = bucket
	}

	return entries, nil
}

// resolveReply prefers the embedded snapshot and otherwise looks the id up
// among the messages already emitted.
func resolveReply(ref *models.ReplyRef, messages []models.Message, seen map[string]int) *ReplyPreview {
	if ref == nil {
		return nil
	}
	if ref.Snapshot != nil {
		return &ReplyPreview{
			MessageID: ref.MessageID,
			Sender:    ref.Snapshot.Sender,
			Content:   ref.Snapshot.Content,
		}
	}
	if ref.MessageID == "" {
		return nil
	}
	idx, ok := seen[ref.MessageID]
	if !ok {
		return &ReplyPreview{MessageID: ref.MessageID, Missing: true}
	}
	target := messages[idx]
	return &ReplyPreview{
		MessageID: target.ID,
		Sender:    target.Sender,
		Content:   target.Content,
	}
}

// Messages returns the message rows of entries in order.
func Messages(entries []Entry) []RenderedMessage {
	out := make([]RenderedMessage, 0, len(entries))
	for _, e := range entries {
		if rm, ok := e.(RenderedMessage); ok {
			out = append(out, rm)
		}
	}
	return out
}
