package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/4xmen/chatview/internal/autoreply"
	"github.com/4xmen/chatview/internal/db"
	"github.com/4xmen/chatview/internal/media"
	"github.com/4xmen/chatview/internal/models"
	"github.com/4xmen/chatview/internal/schedule"
	"github.com/4xmen/chatview/pkg/i18n"
)

var errorStatus = []struct {
	err     error
	status  int
	message string
}{
	{db.ErrChatNotFound, http.StatusNotFound, "chat not found"},
	{db.ErrMessageNotFound, http.StatusNotFound, "message not found"},
	{db.ErrScheduledNotFound, http.StatusNotFound, "scheduled message not found"},
	{db.ErrRuleNotFound, http.StatusNotFound, "rule not found"},
	{db.ErrEmptyReaction, http.StatusBadRequest, "reaction is required"},
	{models.ErrInvalidSender, http.StatusBadRequest, "invalid sender"},
	{models.ErrInvalidStatus, http.StatusBadRequest, "invalid status"},
	{models.ErrInvalidMediaKind, http.StatusBadRequest, "invalid request"},
	{schedule.ErrInvalid, http.StatusBadRequest, "invalid scheduled message"},
	{autoreply.ErrInvalidRule, http.StatusBadRequest, "invalid auto-reply rule"},
	{autoreply.ErrInvalidBotConfig, http.StatusBadRequest, "invalid bot configuration"},
	{media.ErrUploadFinished, http.StatusConflict, "upload already finished"},
	{media.ErrProgressRegression, http.StatusConflict, "upload progress cannot go backward"},
}

// fail writes the error response for err. Unknown errors become a 500 with
// fallback as the message.
func fail(c *gin.Context, lang string, err error, fallback string) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			c.JSON(e.status, gin.H{"error": i18n.Translate(language(c, lang), e.message)})
			return
		}
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": i18n.Translate(language(c, lang), fallback)})
}

func abort(c *gin.Context, lang string, status int, message string) {
	c.JSON(status, gin.H{"error": i18n.Translate(language(c, lang), message)})
}
