package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medassist/prescription-analyzer/internal/common"
	"github.com/medassist/prescription-analyzer/internal/workflow"
)

// UseCurrent takes the last extraction into the chat-with-data page.
func (h *Handler) UseCurrent(c *gin.Context) {
	st, ok := stateFromContext(c)
	if !ok {
		common.Fail(c, http.StatusInternalServerError, 50001, "no session")
		return
	}

	if err := h.Flow.UseCurrent(st); err != nil {
		common.Fail(c, http.StatusBadRequest, 10006, "extract text first")
		return
	}
	common.OK(c, h.Flow.View(c.Request.Context(), st))
}

type selectDataReq struct {
	Kind string `json:"kind" binding:"required"`
	Key  string `json:"key"`
}

// SelectData picks a prescription data source for the chat panel.
func (h *Handler) SelectData(c *gin.Context) {
	st, ok := stateFromContext(c)
	if !ok {
		common.Fail(c, http.StatusInternalServerError, 50001, "no session")
		return
	}

	var req selectDataReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	view, err := h.Flow.SelectOption(c.Request.Context(), st, workflow.OptionKind(req.Kind), req.Key)
	if err != nil {
		h.log.Warn().Err(err).Msg("data selection failed")
		common.Fail(c, http.StatusBadRequest, 10007, "unknown prescription option")
		return
	}
	common.OK(c, view)
}

type sendMessageReq struct {
	Message string `json:"message" binding:"required"`
}

// SendMessage runs one chat turn on the current chat page.
func (h *Handler) SendMessage(c *gin.Context) {
	st, ok := stateFromContext(c)
	if !ok {
		common.Fail(c, http.StatusInternalServerError, 50001, "no session")
		return
	}

	var req sendMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		common.Fail(c, http.StatusBadRequest, 10001, "invalid json")
		return
	}

	reply := h.Flow.ChatTurn(c.Request.Context(), st, req.Message)
	common.OK(c, gin.H{
		"reply":   reply,
		"history": st.History(),
	})
}

// ClearChat empties the session transcript.
func (h *Handler) ClearChat(c *gin.Context) {
	st, ok := stateFromContext(c)
	if !ok {
		common.Fail(c, http.StatusInternalServerError, 50001, "no session")
		return
	}

	h.Flow.ClearChat(st)
	common.OK(c, gin.H{"history": st.History()})
}
