package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"sent", "delivered", "read"} {
		got, err := ParseStatus(s)
		require.NoError(t, err)
		assert.Equal(t, Status(s), got)
	}

	_, err := ParseStatus("seen")
	assert.True(t, errors.Is(err, ErrInvalidStatus))
}

func TestStatusAdvanceNeverRegresses(t *testing.T) {
	tests := []struct {
		from, next, want Status
	}{
		{StatusSent, StatusDelivered, StatusDelivered},
		{StatusDelivered, StatusRead, StatusRead},
		{StatusSent, StatusRead, StatusRead},
		{StatusRead, StatusDelivered, StatusRead},
		{StatusDelivered, StatusSent, StatusDelivered},
		{StatusRead, "bogus", StatusRead},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.Advance(tt.next), "%s -> %s", tt.from, tt.next)
	}
}

func TestMessageValidate(t *testing.T) {
	valid := Message{ID: "m1", Sender: SenderContact, Status: StatusSent}
	require.NoError(t, valid.Validate())

	badSender := valid
	badSender.Sender = "admin"
	assert.ErrorIs(t, badSender.Validate(), ErrInvalidSender)

	badStatus := valid
	badStatus.Status = "pending"
	assert.ErrorIs(t, badStatus.Validate(), ErrInvalidStatus)

	badMedia := valid
	badMedia.Media = &MediaDescriptor{Kind: "sticker"}
	assert.ErrorIs(t, badMedia.Validate(), ErrInvalidMediaKind)

	negative := valid
	negative.Media = &MediaDescriptor{Kind: MediaImage, Size: -1}
	assert.Error(t, negative.Validate())

	badReply := valid
	badReply.ReplyTo = &ReplyRef{Snapshot: &ReplySnapshot{Sender: "nobody"}}
	assert.ErrorIs(t, badReply.Validate(), ErrInvalidSender)
}

func TestMessageCloneIsDeep(t *testing.T) {
	orig := Message{
		ID:        "m1",
		Reactions: []string{"👍"},
		SeenBy:    []string{"Alice"},
		Media:     &MediaDescriptor{Kind: MediaImage, UploadProgress: 40},
		ReplyTo:   &ReplyRef{Snapshot: &ReplySnapshot{Sender: SenderUser, Content: "hi"}},
	}
	c := orig.Clone()
	c.Reactions[0] = "❤️"
	c.SeenBy[0] = "Bob"
	c.Media.UploadProgress = 80
	c.ReplyTo.Snapshot.Content = "changed"

	assert.Equal(t, "👍", orig.Reactions[0])
	assert.Equal(t, "Alice", orig.SeenBy[0])
	assert.Equal(t, 40, orig.Media.UploadProgress)
	assert.Equal(t, "hi", orig.ReplyTo.Snapshot.Content)
}

func TestChatMatchesQuery(t *testing.T) {
	chat := Chat{ID: "1", Name: "John Doe", Phone: "+1234567890"}
	tests := []struct {
		query string
		want  bool
	}{
		{query: "", want: true},
		{query: "  ", want: true},
		{query: "john", want: true},
		{query: "DOE", want: true},
		{query: "n d", want: true},
		{query: "+1234", want: true},
		{query: "567", want: true},
		{query: "sarah", want: false},
		{query: "999", want: false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, chat.MatchesQuery(tt.query), "query %q", tt.query)
	}
}
