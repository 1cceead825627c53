package handlers

import (
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/medassist/prescription-analyzer/internal/common"
	"github.com/medassist/prescription-analyzer/internal/workflow"
)

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
}

// Extract accepts a multipart image upload and runs OCR over it.
func (h *Handler) Extract(c *gin.Context) {
	st, ok := stateFromContext(c)
	if !ok {
		common.Fail(c, http.StatusInternalServerError, 50001, "no session")
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10003, "image file required")
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedImageExts[ext] {
		common.Fail(c, http.StatusBadRequest, 10004, "unsupported image type (jpg, jpeg, png)")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		common.Fail(c, http.StatusBadRequest, 10005, "failed to read upload")
		return
	}
	defer file.Close()

	res, err := h.Flow.Extract(c.Request.Context(), st, file)
	if err != nil {
		h.log.Error().Err(err).Str("file", fileHeader.Filename).Msg("extraction failed")
		common.Fail(c, http.StatusBadGateway, 50201, "error extracting text")
		return
	}

	common.OK(c, gin.H{
		"result": res,
		"view":   h.Flow.View(c.Request.Context(), st),
	})
}

// Persist saves the last extraction to the prescription store.
func (h *Handler) Persist(c *gin.Context) {
	st, ok := stateFromContext(c)
	if !ok {
		common.Fail(c, http.StatusInternalServerError, 50001, "no session")
		return
	}

	key, err := h.Flow.Persist(c.Request.Context(), st)
	if err != nil {
		if errors.Is(err, workflow.ErrNoExtraction) {
			common.Fail(c, http.StatusBadRequest, 10006, "extract text first")
			return
		}
		h.log.Error().Err(err).Msg("failed to save prescription")
		common.Fail(c, http.StatusBadGateway, 50202, "failed to save to database")
		return
	}

	common.OK(c, gin.H{"key": key})
}

// ListPrescriptions returns every stored prescription, newest first.
func (h *Handler) ListPrescriptions(c *gin.Context) {
	recs, err := h.Flow.ListStored(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to fetch prescriptions")
		common.Fail(c, http.StatusBadGateway, 50203, "failed to fetch prescriptions")
		return
	}
	common.OK(c, gin.H{"prescriptions": recs})
}
