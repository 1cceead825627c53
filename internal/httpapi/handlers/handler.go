package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/medassist/prescription-analyzer/internal/common"
	"github.com/medassist/prescription-analyzer/internal/config"
	"github.com/medassist/prescription-analyzer/internal/httpapi/middleware"
	"github.com/medassist/prescription-analyzer/internal/logger"
	"github.com/medassist/prescription-analyzer/internal/session"
	"github.com/medassist/prescription-analyzer/internal/workflow"
)

type Handler struct {
	Cfg  config.Config
	Flow *workflow.Controller

	log zerolog.Logger
}

func NewHandler(cfg config.Config, flow *workflow.Controller) *Handler {
	return &Handler{
		Cfg:  cfg,
		Flow: flow,
		log:  logger.WithComponent("handlers"),
	}
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"message": "pong"})
}

func stateFromContext(c *gin.Context) (*session.State, bool) {
	v, ok := c.Get(middleware.SessionStateKey)
	if !ok {
		return nil, false
	}
	st, ok := v.(*session.State)
	return st, ok
}
