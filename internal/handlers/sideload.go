// SPDX-License-Identifier: MIT
package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/thatcatcamp/sideload/internal/auth"
	"github.com/thatcatcamp/sideload/internal/db"
	"github.com/thatcatcamp/sideload/internal/middleware"
	"github.com/thatcatcamp/sideload/internal/models"
	"github.com/thatcatcamp/sideload/internal/sideload"
	"gorm.io/gorm"
)

// SideloadHandler exposes the sideload pipeline over HTTP
type SideloadHandler struct {
	Pipeline *sideload.Pipeline
	Logger   *slog.Logger
}

// NewSideloadHandler creates a handler running p
func NewSideloadHandler(p *sideload.Pipeline, logger *slog.Logger) *SideloadHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SideloadHandler{Pipeline: p, Logger: logger}
}

type sideloadRequest struct {
	FileURL string `json:"file_url" form:"file_url"`
}

// Create downloads file_url into the media store and returns the new
// attachment
func (h *SideloadHandler) Create(c *gin.Context) {
	var req sideloadRequest
	if err := c.ShouldBind(&req); err != nil {
		h.Logger.Debug("Could not bind sideload request", "error", err)
	}
	if req.FileURL == "" {
		req.FileURL = c.Query("file_url")
	}
	req.FileURL = strings.TrimSpace(req.FileURL)

	if req.FileURL == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    sideload.KindInvalidURL.Code(),
			"message": "Missing parameter(s): file_url",
		})
		return
	}

	var uploader uint
	if user := auth.CurrentUser(c); user != nil {
		uploader = user.ID
	}

	// The download keeps going if the caller hangs up; a half-finished
	// sideload would otherwise leave a stored file without its record.
	ctx := context.WithoutCancel(c.Request.Context())

	res, err := h.Pipeline.Run(ctx, sideload.Request{FileURL: req.FileURL, UploadedBy: uploader})
	if err != nil {
		var serr *sideload.Error
		if errors.As(err, &serr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"code":    serr.Code(),
				"message": serr.Message,
			})
			return
		}
		h.Logger.Error("Sideload failed", "request_id", middleware.RequestID(c), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    "internal_error",
			"message": "Internal server error.",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       "File uploaded successfully",
		"attachment_id": res.Attachment.ID,
		"url":           res.URL,
	})
}

type attachmentResponse struct {
	ID        uint                       `json:"id"`
	GUID      string                     `json:"guid"`
	Title     string                     `json:"title"`
	MimeType  string                     `json:"mime_type"`
	Status    string                     `json:"status"`
	SourceURL string                     `json:"source_url,omitempty"`
	FileSize  int64                      `json:"file_size"`
	Metadata  *models.AttachmentMetadata `json:"media_details,omitempty"`
	CreatedAt time.Time                  `json:"date"`
}

// Get returns a previously sideloaded attachment
func (h *SideloadHandler) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusNotFound, gin.H{"code": "rest_post_invalid_id", "message": "Invalid attachment ID."})
		return
	}

	var att models.Attachment
	if err := db.GetDB().First(&att, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"code": "rest_post_invalid_id", "message": "Invalid attachment ID."})
			return
		}
		h.Logger.Error("Failed to load attachment", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"code": "internal_error", "message": "Internal server error."})
		return
	}

	c.JSON(http.StatusOK, attachmentResponse{
		ID:        att.ID,
		GUID:      att.GUID,
		Title:     att.Title,
		MimeType:  att.MimeType,
		Status:    att.Status,
		SourceURL: att.SourceURL,
		FileSize:  att.FileSize,
		Metadata:  att.Metadata,
		CreatedAt: att.CreatedAt,
	})
}
