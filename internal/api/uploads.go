package api

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"sos-dispatch/internal/models"
)

// CompleteAlert closes an Accepted/Reached alert. Multipart form:
// files[] evidence uploads plus comment/commentBy metadata fields.
func (h *Handler) CompleteAlert(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}

	files := form.File["files[]"]
	if len(files) == 0 {
		files = form.File["files"]
	}
	refs, err := h.saveFiles(c, files)
	if err != nil {
		h.logger.Errorf("Failed to save completion media: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store uploaded files"})
		return
	}

	req := models.CompleteRequest{
		Comment:          c.PostForm("comment"),
		CommentBy:        c.PostForm("commentBy"),
		CommentByNIC:     c.PostForm("commentByNIC"),
		CommentByContact: c.PostForm("commentByContactNumber"),
	}
	alert, err := h.svc.Complete(c.Request.Context(), c.Param("id"), refs, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

// AttachMedia appends evidence to the live record before completion.
// Multipart form: photos[] and videos[] file fields.
func (h *Handler) AttachMedia(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}

	photos, err := h.saveFiles(c, append(form.File["photos[]"], form.File["photos"]...))
	if err != nil {
		h.logger.Errorf("Failed to save photos: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store uploaded files"})
		return
	}
	videos, err := h.saveFiles(c, append(form.File["videos[]"], form.File["videos"]...))
	if err != nil {
		h.logger.Errorf("Failed to save videos: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store uploaded files"})
		return
	}
	if len(photos) == 0 && len(videos) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files uploaded"})
		return
	}

	alert, err := h.svc.AttachMedia(c.Request.Context(), c.Param("id"), photos, videos)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, alert)
}

// saveFiles persists uploads under the upload dir with collision-proof
// names and returns their public references.
func (h *Handler) saveFiles(c *gin.Context, files []*multipart.FileHeader) ([]string, error) {
	refs := make([]string, 0, len(files))
	for _, f := range files {
		ext := strings.ToLower(filepath.Ext(f.Filename))
		name := fmt.Sprintf("%d_%s%s", time.Now().UnixNano(), uuid.NewString()[:8], ext)
		dst := filepath.Join(h.uploadDir, name)
		if err := c.SaveUploadedFile(f, dst); err != nil {
			return nil, fmt.Errorf("failed to save %s: %w", f.Filename, err)
		}
		refs = append(refs, "/uploads/"+name)
	}
	return refs, nil
}
