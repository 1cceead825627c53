package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medassist/prescription-analyzer/internal/common"
	"github.com/medassist/prescription-analyzer/internal/session"
)

// GetView returns the view model for the session's current page.
func (h *Handler) GetView(c *gin.Context) {
	st, ok := stateFromContext(c)
	if !ok {
		common.Fail(c, http.StatusInternalServerError, 50001, "no session")
		return
	}
	common.OK(c, h.Flow.View(c.Request.Context(), st))
}

type navigateReq struct {
	Page string `json:"page" binding:"required"`
}

// Navigate switches the current page and returns the re-rendered view.
func (h *Handler) Navigate(c *gin.Context) {
	st, ok := stateFromContext(c)
	if !ok {
		common.Fail(c, http.StatusInternalServerError, 50001, "no session")
		return
	}

	var req navigateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	page, valid := session.ParsePage(req.Page)
	if !valid {
		common.Fail(c, http.StatusBadRequest, 10002, "unknown page")
		return
	}

	h.Flow.Navigate(st, page)
	common.OK(c, h.Flow.View(c.Request.Context(), st))
}
