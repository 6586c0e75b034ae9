package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/muhammadolammi/thumbworker/internal/thumbnail"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const maxNotificationBytes = 1 << 20

type AppHandler struct {
	generator EventHandler
	profiles  ProfileReader
}

func NewAppHandler(workerConfig *WorkerConfig) *AppHandler {
	return &AppHandler{
		generator: workerConfig.Generator,
		profiles:  workerConfig.DB,
	}
}

// newRouter serves the webhook trigger next to health and metrics.
func newRouter(workerConfig *WorkerConfig, gatherer prometheus.Gatherer) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	handler := NewAppHandler(workerConfig)

	router.GET("/health", handler.GetHealth)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	router.POST("/events", handler.PostEvents)
	router.GET("/users/:userID/profile/photo", handler.GetProfilePhoto)

	router.NoRoute(func(c *gin.Context) { c.JSON(http.StatusNotFound, gin.H{}) })
	return router
}

func (a *AppHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// PostEvents accepts a bucket notification pushed by the object store.
// Failures return 500 so the store redelivers according to its own policy.
func (a *AppHandler) PostEvents(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxNotificationBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "error", "error": "can not read body"})
		return
	}
	// MinIO checks webhook targets with an empty request.
	if len(body) == 0 {
		c.JSON(http.StatusOK, gin.H{"status": "success"})
		return
	}
	if err := handleNotification(c.Request.Context(), a.generator, body); err != nil {
		log.Error().Err(err).Msg("webhook notification failed")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "error", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// GetProfilePhoto returns the record as stored. Its signed URLs expire
// thumbnail.SignedURLExpiry after the upload that wrote it.
func (a *AppHandler) GetProfilePhoto(c *gin.Context) {
	rec, err := a.profiles.GetProfileRecord(c.Request.Context(), thumbnail.ProfileKey(c.Param("userID")))
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"message": "error", "error": "no profile photo"})
		return
	}
	if err != nil {
		log.Error().Err(err).Str("user_id", c.Param("userID")).Msg("failed to read profile photo")
		c.JSON(http.StatusInternalServerError, gin.H{"message": "error", "error": "can not read profile photo"})
		return
	}
	var photo thumbnail.ProfilePhoto
	if err := json.Unmarshal(rec.Value, &photo); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": "error", "error": "corrupt profile photo"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "payload": photo})
}
