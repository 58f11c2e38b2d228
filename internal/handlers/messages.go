package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/4xmen/chatview/internal/db"
	"github.com/4xmen/chatview/internal/logging"
	"github.com/4xmen/chatview/internal/media"
	"github.com/4xmen/chatview/internal/models"
	"github.com/4xmen/chatview/internal/timeline"
)

// UploadSettings controls accepted media and the simulated upload pace.
type UploadSettings struct {
	MaxSize  int64
	Step     int
	Interval time.Duration
}

type MessageHandler struct {
	db       *db.DB
	clock    func() time.Time
	location *time.Location
	lang     string
	uploads  UploadSettings
	// ctx bounds background upload tracking to the server lifetime.
	ctx      context.Context
	simulate func(ctx context.Context, step int, interval time.Duration) <-chan int
	log      zerolog.Logger
}

func NewMessageHandler(ctx context.Context, store *db.DB, opts Options) *MessageHandler {
	clock := opts.Clock
	if clock == nil {
		clock = store.Now
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	return &MessageHandler{
		db:       store,
		clock:    clock,
		location: loc,
		lang:     opts.Language,
		uploads:  opts.Uploads,
		ctx:      ctx,
		simulate: media.Simulate,
		log:      logging.Component("handlers"),
	}
}

func (h *MessageHandler) GetAccounts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"accounts": h.db.Accounts()})
}

// GetChats lists chat previews. The optional q parameter filters by name or
// phone number.
func (h *MessageHandler) GetChats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"chats": h.db.SearchChats(c.Query("q"))})
}

// GetTimeline assembles a chat's history into date separators and grouped
// messages, relative to the current instant.
func (h *MessageHandler) GetTimeline(c *gin.Context) {
	chatID := c.Param("id")
	msgs, err := h.db.Messages(chatID)
	if err != nil {
		fail(c, h.lang, err, "failed to fetch chats")
		return
	}

	now := h.clock().In(h.location)
	entries, err := timeline.Assemble(msgs, now)
	if err != nil {
		timelineAssemblies.WithLabelValues("invalid").Inc()
		log := logging.WithChat(chatID)
		log.Warn().Err(err).Msg("timeline assembly failed")
		abort(c, h.lang, http.StatusUnprocessableEntity, "unable to display conversation")
		return
	}
	timelineAssemblies.WithLabelValues("ok").Inc()

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

type createMessageRequest struct {
	Sender  string `json:"sender" binding:"required"`
	Content string `json:"content" binding:"required"`
	ReplyTo string `json:"reply_to"`
}

func (h *MessageHandler) CreateMessage(c *gin.Context) {
	var req createMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, h.lang, http.StatusBadRequest, "invalid request")
		return
	}
	sender, err := models.ParseSender(req.Sender)
	if err != nil {
		fail(c, h.lang, err, "failed to create message")
		return
	}

	msg := models.Message{Sender: sender, Content: req.Content}
	if req.ReplyTo != "" {
		msg.ReplyTo = &models.ReplyRef{MessageID: req.ReplyTo}
	}

	created, err := h.db.Append(c.Param("id"), msg)
	if err != nil {
		fail(c, h.lang, err, "failed to create message")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": created})
}

func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	if err := h.db.DeleteMessage(c.Param("id"), c.Param("msg")); err != nil {
		fail(c, h.lang, err, "failed to delete message")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

type reactionView struct {
	timeline.ReactionCount
	Tooltip string `json:"tooltip"`
}

func (h *MessageHandler) reactionViews(chatID string, m models.Message) []reactionView {
	var participants []string
	if chat, err := h.db.Chat(chatID); err == nil && chat.IsGroup {
		participants = chat.Participants
	}
	counts := timeline.AggregateReactions(m.Reactions)
	out := make([]reactionView, len(counts))
	for i, rc := range counts {
		out[i] = reactionView{ReactionCount: rc, Tooltip: timeline.ReactionTooltip(rc, participants)}
	}
	return out
}

func (h *MessageHandler) AddReaction(c *gin.Context) {
	var req struct {
		Tag string `json:"tag" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, h.lang, http.StatusBadRequest, "reaction is required")
		return
	}

	chatID := c.Param("id")
	m, err := h.db.AddReaction(chatID, c.Param("msg"), req.Tag)
	if err != nil {
		fail(c, h.lang, err, "failed to update message")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reactions": h.reactionViews(chatID, m)})
}

func (h *MessageHandler) GetReactions(c *gin.Context) {
	chatID := c.Param("id")
	m, err := h.db.Message(chatID, c.Param("msg"))
	if err != nil {
		fail(c, h.lang, err, "failed to fetch chats")
		return
	}
	c.JSON(http.StatusOK, gin.H{"reactions": h.reactionViews(chatID, m)})
}

func (h *MessageHandler) MarkAsDelivered(c *gin.Context) {
	m, err := h.db.SetStatus(c.Param("id"), c.Param("msg"), models.StatusDelivered)
	if err != nil {
		fail(c, h.lang, err, "failed to update message")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": m.Status})
}

// MarkAsRead marks a message read. The optional viewer is recorded in the
// seen-by list.
func (h *MessageHandler) MarkAsRead(c *gin.Context) {
	var req struct {
		Viewer string `json:"viewer"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		abort(c, h.lang, http.StatusBadRequest, "invalid request")
		return
	}

	m, err := h.db.MarkSeen(c.Param("id"), c.Param("msg"), strings.TrimSpace(req.Viewer))
	if err != nil {
		fail(c, h.lang, err, "failed to update message")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": m.Status, "seen_by": m.SeenBy})
}

func (h *MessageHandler) GetReceipt(c *gin.Context) {
	m, err := h.db.Message(c.Param("id"), c.Param("msg"))
	if err != nil {
		fail(c, h.lang, err, "failed to fetch chats")
		return
	}
	c.JSON(http.StatusOK, gin.H{"receipt": timeline.ReadReceipt(m.Status, m.SeenBy)})
}

// UploadMedia attaches a file to a new outgoing message and starts tracking
// its upload progress in the background.
func (h *MessageHandler) UploadMedia(c *gin.Context) {
	chatID := c.Param("id")
	if _, err := h.db.Chat(chatID); err != nil {
		fail(c, h.lang, err, "failed to create message")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		abort(c, h.lang, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	if h.uploads.MaxSize > 0 && header.Size > h.uploads.MaxSize {
		abort(c, h.lang, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	mimeType, err := media.Sniff(file)
	if err != nil {
		h.log.Warn().Err(err).Str("filename", header.Filename).Msg("mime sniffing failed")
		mimeType = header.Header.Get("Content-Type")
	}

	md := media.Describe(header.Filename, "", mimeType, header.Size)
	created, err := h.db.Append(chatID, models.Message{
		Sender:  models.SenderUser,
		Content: c.PostForm("caption"),
		Media:   &md,
	})
	if err != nil {
		fail(c, h.lang, err, "failed to create message")
		return
	}

	go h.trackUpload(chatID, created.ID)

	c.JSON(http.StatusAccepted, gin.H{"message": created})
}

func (h *MessageHandler) trackUpload(chatID, msgID string) {
	activeUploads.Inc()
	defer activeUploads.Dec()

	// Simulate stops only on cancellation; cancel it when tracking ends.
	ctx, cancel := context.WithCancel(h.ctx)
	defer cancel()

	log := logging.WithChat(chatID).With().Str("message_id", msgID).Logger()
	updates := h.simulate(ctx, h.uploads.Step, h.uploads.Interval)
	if err := h.db.TrackUpload(ctx, chatID, msgID, updates); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Debug().Msg("upload tracking stopped")
			return
		}
		log.Warn().Err(err).Msg("upload tracking failed")
		return
	}
	log.Debug().Msg("upload finished")
}
