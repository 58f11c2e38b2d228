package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/4xmen/chatview/internal/db"
	"github.com/4xmen/chatview/internal/logging"
)

type Options struct {
	// Clock defaults to the store clock.
	Clock func() time.Time
	// Location is where calendar days are counted for date separators.
	Location *time.Location
	Language string
	// RateLimit is a limiter formatted rate such as "60-M". Empty disables
	// limiting.
	RateLimit string
	Uploads   UploadSettings
}

// NewRouter wires every endpoint. ctx bounds background work started by
// requests, such as upload tracking.
func NewRouter(ctx context.Context, store *db.DB, opts Options) (*gin.Engine, error) {
	log := logging.Component("http")

	router := gin.New()
	router.Use(requestLogger(log))
	router.Use(panicRecovery(log, opts.Language))
	router.Use(metricsMiddleware())
	if opts.Uploads.MaxSize > 0 {
		router.MaxMultipartMemory = opts.Uploads.MaxSize
	}

	var limit gin.HandlerFunc = func(c *gin.Context) { c.Next() }
	if opts.RateLimit != "" {
		rate, err := limiter.NewRateFromFormatted(opts.RateLimit)
		if err != nil {
			return nil, fmt.Errorf("invalid rate limit %q: %w", opts.RateLimit, err)
		}
		limit = rateLimitMiddleware(limiter.New(memory.NewStore(), rate), opts.Language)
	}

	msgHandler := NewMessageHandler(ctx, store, opts)
	settingsHandler := NewSettingsHandler(store, opts)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.GET("/accounts", msgHandler.GetAccounts)
		api.GET("/chats", msgHandler.GetChats)
		api.GET("/chats/:id/timeline", msgHandler.GetTimeline)
		api.GET("/chats/:id/messages/:msg/reactions", msgHandler.GetReactions)
		api.GET("/chats/:id/messages/:msg/receipt", msgHandler.GetReceipt)

		api.GET("/scheduled", settingsHandler.GetScheduled)
		api.GET("/autoreply", settingsHandler.GetRules)
		api.GET("/bot", settingsHandler.GetBot)
	}

	write := api.Group("")
	write.Use(limit)
	{
		write.POST("/chats/:id/messages", msgHandler.CreateMessage)
		write.DELETE("/chats/:id/messages/:msg", msgHandler.DeleteMessage)
		write.POST("/chats/:id/messages/:msg/reactions", msgHandler.AddReaction)
		write.PUT("/chats/:id/messages/:msg/delivered", msgHandler.MarkAsDelivered)
		write.PUT("/chats/:id/messages/:msg/read", msgHandler.MarkAsRead)
		write.POST("/chats/:id/media", msgHandler.UploadMedia)

		write.POST("/scheduled", settingsHandler.CreateScheduled)
		write.DELETE("/scheduled/:id", settingsHandler.DeleteScheduled)
		write.PUT("/autoreply/:id", settingsHandler.PutRule)
		write.DELETE("/autoreply/:id", settingsHandler.DeleteRule)
		write.PUT("/bot", settingsHandler.UpdateBot)
	}

	router.NoRoute(func(c *gin.Context) {
		abort(c, opts.Language, http.StatusNotFound, "not found")
	})

	return router, nil
}
