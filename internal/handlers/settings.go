package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/4xmen/chatview/internal/autoreply"
	"github.com/4xmen/chatview/internal/db"
	"github.com/4xmen/chatview/internal/schedule"
)

// SettingsHandler serves scheduled messages, auto-reply rules and the bot
// configuration.
type SettingsHandler struct {
	db    *db.DB
	clock func() time.Time
	lang  string
}

func NewSettingsHandler(store *db.DB, opts Options) *SettingsHandler {
	clock := opts.Clock
	if clock == nil {
		clock = store.Now
	}
	return &SettingsHandler{db: store, clock: clock, lang: opts.Language}
}

// GetScheduled lists every scheduled message plus the pending ones that are
// still due, soonest first.
func (h *SettingsHandler) GetScheduled(c *gin.Context) {
	all := h.db.Scheduled()
	c.JSON(http.StatusOK, gin.H{
		"scheduled": all,
		"upcoming":  schedule.UpcomingAt(all, h.clock()),
	})
}

func (h *SettingsHandler) CreateScheduled(c *gin.Context) {
	var req struct {
		ChatID       string          `json:"chat_id" binding:"required"`
		Content      string          `json:"content" binding:"required"`
		ScheduledFor string          `json:"scheduled_for" binding:"required"`
		Repeat       schedule.Repeat `json:"repeat"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, h.lang, http.StatusBadRequest, "invalid scheduled message")
		return
	}

	sm, err := h.db.AddScheduled(schedule.Message{
		ChatID:       req.ChatID,
		Content:      req.Content,
		ScheduledFor: req.ScheduledFor,
		Repeat:       req.Repeat,
	})
	if err != nil {
		fail(c, h.lang, err, "invalid scheduled message")
		return
	}

	resp := gin.H{"scheduled": sm}
	if next, ok, err := schedule.NextRun(sm, h.clock()); err == nil && ok {
		resp["next_run"] = next
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *SettingsHandler) DeleteScheduled(c *gin.Context) {
	if err := h.db.DeleteScheduled(c.Param("id")); err != nil {
		fail(c, h.lang, err, "failed to delete scheduled message")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *SettingsHandler) GetRules(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"rules": h.db.Rules()})
}

// PutRule creates or replaces the rule named in the path.
func (h *SettingsHandler) PutRule(c *gin.Context) {
	var rule autoreply.Rule
	if err := c.ShouldBindJSON(&rule); err != nil {
		abort(c, h.lang, http.StatusBadRequest, "invalid auto-reply rule")
		return
	}
	rule.ID = c.Param("id")

	saved, err := h.db.PutRule(rule)
	if err != nil {
		fail(c, h.lang, err, "invalid auto-reply rule")
		return
	}
	c.JSON(http.StatusOK, gin.H{"rule": saved})
}

func (h *SettingsHandler) DeleteRule(c *gin.Context) {
	if err := h.db.DeleteRule(c.Param("id")); err != nil {
		fail(c, h.lang, err, "failed to delete rule")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *SettingsHandler) GetBot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"bot": h.db.Bot()})
}

func (h *SettingsHandler) UpdateBot(c *gin.Context) {
	var cfg autoreply.BotConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		abort(c, h.lang, http.StatusBadRequest, "invalid bot configuration")
		return
	}
	saved, err := h.db.SetBot(cfg)
	if err != nil {
		fail(c, h.lang, err, "invalid bot configuration")
		return
	}
	c.JSON(http.StatusOK, gin.H{"bot": saved})
}
