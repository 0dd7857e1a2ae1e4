package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"
	"github.com/timmy/devmeme/internal/compositor"
	"github.com/timmy/devmeme/internal/domain"
	"github.com/timmy/devmeme/internal/logger"
	"github.com/timmy/devmeme/internal/service"
)

// SessionHandler exposes the generation session: mode, templates and the
// generate action.
type SessionHandler struct {
	orchestrator      *service.Orchestrator
	urls              URLMapper
	generationTimeout time.Duration
	maxUploadBytes    int64
}

// SessionHandlerConfig holds configuration for the session handler.
type SessionHandlerConfig struct {
	GenerationTimeout time.Duration
	MaxUploadBytes    int64
	URLs              URLMapper
}

// NewSessionHandler creates a new session handler.
// Parameters:
//   - orchestrator: generation orchestrator.
//   - cfg: timeouts, upload limit and URL mapping.
//
// Returns:
//   - *SessionHandler: initialized handler.
func NewSessionHandler(orchestrator *service.Orchestrator, cfg *SessionHandlerConfig) *SessionHandler {
	timeout := cfg.GenerationTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &SessionHandler{
		orchestrator:      orchestrator,
		urls:              cfg.URLs.orIdentity(),
		generationTimeout: timeout,
		maxUploadBytes:    cfg.MaxUploadBytes,
	}
}

// SetModeRequest represents PUT /api/v1/session/mode.
type SetModeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

// SelectTemplateRequest represents PUT /api/v1/session/template.
type SelectTemplateRequest struct {
	TemplateID string `json:"template_id" binding:"required"`
}

// DescriptionRequest represents PUT /api/v1/session/description.
type DescriptionRequest struct {
	Description string `json:"description"`
}

// GenerateRequest represents POST /api/v1/generate. A blank topic is
// rejected by the orchestrator, not by binding.
type GenerateRequest struct {
	Topic string `json:"topic"`
}

// Topics handles GET /api/v1/topics.
func (h *SessionHandler) Topics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"topics": h.orchestrator.SuggestedTopics()})
}

// Templates handles GET /api/v1/templates.
func (h *SessionHandler) Templates(c *gin.Context) {
	templates := h.orchestrator.Templates()
	out := make([]domain.MemeTemplate, len(templates))
	for i := range templates {
		out[i] = *h.urls.template(&templates[i])
	}
	c.JSON(http.StatusOK, gin.H{"templates": out})
}

// UploadTemplate handles POST /api/v1/templates/upload with a multipart
// "file" field. The image becomes the selected custom template.
func (h *SessionHandler) UploadTemplate(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		badRequest(c, fmt.Errorf("file is required: %w", err))
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		respondError(c, fmt.Errorf("failed to open upload: %w", err))
		return
	}
	defer f.Close()

	var r io.Reader = f
	if h.maxUploadBytes > 0 {
		r = io.LimitReader(f, h.maxUploadBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		respondError(c, fmt.Errorf("failed to read upload: %w", err))
		return
	}
	if h.maxUploadBytes > 0 && int64(len(data)) > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("upload exceeds %d bytes", h.maxUploadBytes),
		})
		return
	}

	mtype := mimetype.Detect(data)
	tmpl := h.orchestrator.UploadTemplate(compositor.DataURL(mtype.String(), data))

	logger.With(logger.Fields{
		logger.FieldSize: len(data),
		"mime":           mtype.String(),
	}).Info(c.Request.Context(), "Custom template uploaded: filename=%s", fileHeader.Filename)

	c.JSON(http.StatusOK, tmpl)
}

// GetSession handles GET /api/v1/session.
func (h *SessionHandler) GetSession(c *gin.Context) {
	h.writeSession(c)
}

// SetMode handles PUT /api/v1/session/mode.
func (h *SessionHandler) SetMode(c *gin.Context) {
	var req SetModeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.orchestrator.SetMode(domain.ModeName(req.Mode)); err != nil {
		respondError(c, err)
		return
	}
	h.writeSession(c)
}

// SelectTemplate handles PUT /api/v1/session/template.
func (h *SessionHandler) SelectTemplate(c *gin.Context) {
	var req SelectTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if _, err := h.orchestrator.SelectTemplate(req.TemplateID); err != nil {
		respondError(c, err)
		return
	}
	h.writeSession(c)
}

// SetDescription handles PUT /api/v1/session/description.
func (h *SessionHandler) SetDescription(c *gin.Context) {
	var req DescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.orchestrator.SetCustomDescription(req.Description)
	h.writeSession(c)
}

// Reset handles POST /api/v1/session/reset.
func (h *SessionHandler) Reset(c *gin.Context) {
	h.orchestrator.Reset(c.Request.Context())
	h.writeSession(c)
}

// Generate handles POST /api/v1/generate.
func (h *SessionHandler) Generate(c *gin.Context) {
	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.runGeneration(c, func(ctx context.Context) (*domain.GeneratedMeme, error) {
		return h.orchestrator.Submit(ctx, req.Topic)
	})
}

// Regenerate handles POST /api/v1/regenerate.
func (h *SessionHandler) Regenerate(c *gin.Context) {
	h.runGeneration(c, h.orchestrator.Regenerate)
}

// runGeneration detaches the generation from the client connection so a
// disconnect does not abort it, bounded by the generation timeout.
func (h *SessionHandler) runGeneration(c *gin.Context, generate func(ctx context.Context) (*domain.GeneratedMeme, error)) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), h.generationTimeout)
	defer cancel()

	meme, err := generate(ctx)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, h.urls.meme(meme))
}

func (h *SessionHandler) writeSession(c *gin.Context) {
	s, err := h.orchestrator.Snapshot(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.urls.session(s))
}
