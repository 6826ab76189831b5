package handlers

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/denisAlshanov/vidgrab/internal/models"
	"github.com/denisAlshanov/vidgrab/internal/services/downloader"
	"github.com/denisAlshanov/vidgrab/internal/services/storage"
	"github.com/denisAlshanov/vidgrab/internal/utils"
)

const objectCleanupTimeout = 30 * time.Second

// MediaService is the part of the downloader the HTTP layer depends on
type MediaService interface {
	GetFormats(ctx context.Context, link string) (*models.FormatsResponse, error)
	Download(ctx context.Context, req *models.DownloadRequest, deliver downloader.DeliverFunc) error
}

type MediaHandler struct {
	service    MediaService
	storage    storage.StorageInterface
	linkExpiry time.Duration
}

func NewMediaHandler(service MediaService, storage storage.StorageInterface, linkExpiry time.Duration) *MediaHandler {
	if linkExpiry <= 0 {
		linkExpiry = time.Hour
	}
	return &MediaHandler{
		service:    service,
		storage:    storage,
		linkExpiry: linkExpiry,
	}
}

// GetFormats godoc
// @Summary List available formats
// @Description Probe a media URL and list its downloadable formats, best first, plus the MP3 conversion option
// @Tags media
// @Accept json
// @Produce json
// @Param request body models.FormatsRequest true "Media URL"
// @Success 200 {object} models.FormatsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /formats [post]
func (h *MediaHandler) GetFormats(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.FormatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, utils.NewValidationError("Invalid request body", map[string]interface{}{
			"error": err.Error(),
		}))
		return
	}

	resp, err := h.service.GetFormats(ctx, req.URL)
	if err != nil {
		errorResponse(c, utils.AsAppError(err))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Download godoc
// @Summary Download media
// @Description Download one format as a file. Without format_id the best format is used; audio_only (or format_id mp3_320) returns an MP3. Video-only formats are merged with the best audio stream.
// @Tags media
// @Accept json
// @Produce application/octet-stream
// @Param request body models.DownloadRequest true "Download request"
// @Success 200 {file} binary "Media file"
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /download [post]
func (h *MediaHandler) Download(c *gin.Context) {
	ctx := c.Request.Context()

	var req models.DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, utils.NewValidationError("Invalid request body", map[string]interface{}{
			"error": err.Error(),
		}))
		return
	}

	err := h.service.Download(ctx, &req, func(ctx context.Context, result *downloader.Result) error {
		return streamFile(c, result)
	})
	if err != nil {
		if c.Writer.Written() {
			utils.LogError(ctx, "Download failed after response started", err)
			return
		}
		errorResponse(c, utils.AsAppError(err))
	}
}

// DownloadLink godoc
// @Summary Download media to object storage
// @Description Same as /download, but the file is uploaded to S3 and a presigned URL is returned instead of the file body
// @Tags media
// @Accept json
// @Produce json
// @Param request body models.DownloadLinkRequest true "Download request"
// @Success 200 {object} models.DownloadLinkResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /download/link [post]
func (h *MediaHandler) DownloadLink(c *gin.Context) {
	ctx := c.Request.Context()

	if h.storage == nil {
		errorResponse(c, utils.NewStorageError(fmt.Errorf("object storage is not configured")))
		return
	}

	var req models.DownloadLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, utils.NewValidationError("Invalid request body", map[string]interface{}{
			"error": err.Error(),
		}))
		return
	}

	expiry := h.linkExpiry
	if req.ExpiryMinutes > 0 {
		expiry = time.Duration(req.ExpiryMinutes) * time.Minute
	}

	requestID := c.GetString("request_id")
	if requestID == "" {
		requestID = uuid.NewString()
	}

	var response models.DownloadLinkResponse
	err := h.service.Download(ctx, &req.DownloadRequest, func(ctx context.Context, result *downloader.Result) error {
		key := fmt.Sprintf("downloads/%s/%s", requestID, result.FileName)
		metadata := map[string]string{
			"format_id":  result.FormatID,
			"source_url": req.URL,
		}

		if err := h.storage.UploadFile(ctx, key, result.Path, result.ContentType, metadata); err != nil {
			utils.LogError(ctx, "Failed to upload to S3", err, utils.Fields{"key": key})
			return utils.NewStorageError(err)
		}

		url, err := h.storage.GeneratePresignedURL(ctx, key, expiry)
		if err != nil {
			utils.LogError(ctx, "Failed to generate presigned URL", err, utils.Fields{"key": key})
			h.deleteObject(ctx, key)
			return utils.NewStorageError(err)
		}

		response = models.DownloadLinkResponse{
			URL:         url,
			FileName:    result.FileName,
			ContentType: result.ContentType,
			Size:        result.Size,
			ExpiresAt:   time.Now().Add(expiry).UTC(),
		}
		return nil
	})
	if err != nil {
		errorResponse(c, utils.AsAppError(err))
		return
	}

	c.JSON(http.StatusOK, response)
}

// deleteObject removes an uploaded object nobody can reach. It runs even when
// the request was cancelled.
func (h *MediaHandler) deleteObject(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), objectCleanupTimeout)
	defer cancel()

	if err := h.storage.Delete(ctx, key); err != nil {
		utils.LogWarn(ctx, "Failed to delete orphaned object", utils.Fields{
			"key":   key,
			"error": err.Error(),
		})
	}
}

func streamFile(c *gin.Context, result *downloader.Result) error {
	ctx := c.Request.Context()

	file, err := os.Open(result.Path)
	if err != nil {
		return fmt.Errorf("failed to open download: %w", err)
	}
	defer file.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": result.FileName})
	if disposition == "" {
		disposition = `attachment; filename="download"`
	}

	c.DataFromReader(http.StatusOK, result.Size, result.ContentType, file, map[string]string{
		"Content-Disposition": disposition,
	})

	utils.LogInfo(ctx, "Successfully streamed file", utils.Fields{
		"file_name": result.FileName,
		"format_id": result.FormatID,
		"size":      result.Size,
	})
	return nil
}
