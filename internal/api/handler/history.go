package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/timmy/devmeme/internal/compositor"
	"github.com/timmy/devmeme/internal/domain"
	"github.com/timmy/devmeme/internal/service"
)

// HistoryHandler serves the session gallery and meme downloads.
type HistoryHandler struct {
	orchestrator *service.Orchestrator
	exporter     *compositor.Exporter
	urls         URLMapper
}

// NewHistoryHandler creates a new history handler.
// Parameters:
//   - orchestrator: owner of the history.
//   - exporter: PNG encoder for downloads.
//   - urls: display mapping for image references, may be nil.
//
// Returns:
//   - *HistoryHandler: initialized handler.
func NewHistoryHandler(orchestrator *service.Orchestrator, exporter *compositor.Exporter, urls URLMapper) *HistoryHandler {
	return &HistoryHandler{
		orchestrator: orchestrator,
		exporter:     exporter,
		urls:         urls.orIdentity(),
	}
}

// RenderRequest represents POST /api/v1/render.
type RenderRequest struct {
	ImageURL   string `json:"image_url" binding:"required"`
	TopText    string `json:"top_text"`
	BottomText string `json:"bottom_text"`
	Filename   string `json:"filename"`
}

// RenderResponse is returned by POST /api/v1/render?format=data_url.
type RenderResponse struct {
	Filename string `json:"filename"`
	DataURL  string `json:"data_url"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// List handles GET /api/v1/history.
func (h *HistoryHandler) List(c *gin.Context) {
	memes, err := h.orchestrator.History(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"memes": h.urls.memes(memes),
		"total": len(memes),
	})
}

// Select handles POST /api/v1/history/:id/select.
func (h *HistoryHandler) Select(c *gin.Context) {
	meme, err := h.orchestrator.SelectMeme(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.urls.meme(meme))
}

// Delete handles DELETE /api/v1/history/:id.
func (h *HistoryHandler) Delete(c *gin.Context) {
	if err := h.orchestrator.DeleteMeme(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Download handles GET /api/v1/history/:id/download.
func (h *HistoryHandler) Download(c *gin.Context) {
	ctx := c.Request.Context()
	meme, err := h.orchestrator.Meme(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	dl, err := h.exporter.Export(ctx, meme.ImageURL, meme.TopText, meme.BottomText, meme.FileName())
	if err != nil {
		respondError(c, err)
		return
	}
	writeAttachment(c, dl)
}

// Render handles POST /api/v1/render. The PNG is sent as an attachment, or
// as JSON with a data URL when format=data_url.
func (h *HistoryHandler) Render(c *gin.Context) {
	var req RenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	ctx := c.Request.Context()
	src, err := h.resolveSource(ctx, req.ImageURL)
	if err != nil {
		respondError(c, err)
		return
	}

	dl, err := h.exporter.Export(ctx, src, req.TopText, req.BottomText, req.Filename)
	if err != nil {
		respondError(c, err)
		return
	}

	if c.Query("format") == "data_url" {
		c.JSON(http.StatusOK, RenderResponse{
			Filename: dl.Filename,
			DataURL:  dl.DataURL(),
			Width:    dl.Width,
			Height:   dl.Height,
		})
		return
	}
	writeAttachment(c, dl)
}

// resolveSource accepts data: URLs and the template or history images the
// session already offers, in stored or display form. It returns the stored
// reference to load.
func (h *HistoryHandler) resolveSource(ctx context.Context, ref string) (string, error) {
	if strings.HasPrefix(ref, "data:") {
		return ref, nil
	}
	sources, err := h.orchestrator.ImageSources(ctx)
	if err != nil {
		return "", err
	}
	for _, src := range sources {
		if ref == src || ref == h.urls(src) {
			return src, nil
		}
	}
	return "", &domain.ValidationError{Err: domain.ErrUnknownImageSource}
}

func writeAttachment(c *gin.Context, dl *compositor.Download) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dl.Filename))
	c.Data(http.StatusOK, dl.ContentType, dl.Data)
}
