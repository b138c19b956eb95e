package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/timmy/mediafetch/internal/api/middleware"
	"github.com/timmy/mediafetch/internal/domain"
	"github.com/timmy/mediafetch/internal/logger"
	"github.com/timmy/mediafetch/internal/service"
)

// DownloadHandler handles download job endpoints.
type DownloadHandler struct {
	downloadService *service.DownloadService
}

// NewDownloadHandler creates a new download handler.
// Parameters:
//   - downloadService: download service instance.
// Returns:
//   - *DownloadHandler: initialized handler.
func NewDownloadHandler(downloadService *service.DownloadService) *DownloadHandler {
	return &DownloadHandler{
		downloadService: downloadService,
	}
}

// CreateDownload handles POST /api/download.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *DownloadHandler) CreateDownload(c *gin.Context) {
	ctx := c.Request.Context()

	var req service.DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.GetLogger(c).WithError(err).Warnf("Invalid download request: client_ip=%s", c.ClientIP())
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	id, err := h.downloadService.Submit(ctx, &req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			logger.CtxWarn(ctx, "Rejected download request: client_ip=%s, error=%v", c.ClientIP(), err)
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.CtxError(ctx, "Failed to submit download: error=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"download_id": id})
}

// Progress handles GET /api/progress/:id as a server-sent event stream.
// Each event carries the JSON progress state; the stream ends after a
// terminal or not_found event.
func (h *DownloadHandler) Progress(c *gin.Context) {
	id := c.Param("id")
	ctx := logger.SetDownloadID(c.Request.Context(), id)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	sent := 0
	for state := range h.downloadService.Progress(ctx, id) {
		c.SSEvent("message", state)
		c.Writer.Flush()
		sent++
	}

	logger.With(logger.Fields{logger.FieldCount: sent}).Debug(ctx, "Progress stream closed")
}

// GetLogs handles GET /api/logs/:id.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *DownloadHandler) GetLogs(c *gin.Context) {
	lines, err := h.downloadService.Logs(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Download not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": lines})
}

// ListFiles handles GET /api/downloads.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *DownloadHandler) ListFiles(c *gin.Context) {
	files, err := h.downloadService.Files()
	if err != nil {
		logger.CtxError(c.Request.Context(), "Failed to list downloads: error=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list downloads: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"files": files})
}

// ListHistory handles GET /api/history.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *DownloadHandler) ListHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(service.DefaultHistoryLimit)))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	status := domain.DownloadStatus(c.Query("status"))

	records, total, err := h.downloadService.History(c.Request.Context(), status, limit, offset)
	if err != nil {
		logger.CtxError(c.Request.Context(), "Failed to list history: error=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list history: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"history": records,
		"total":   total,
	})
}

// GetHistory handles GET /api/history/:id.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *DownloadHandler) GetHistory(c *gin.Context) {
	record, err := h.downloadService.HistoryRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrDownloadNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Download not found"})
			return
		}
		logger.CtxError(c.Request.Context(), "Failed to get history record: error=%v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get history record: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, record)
}
