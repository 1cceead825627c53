package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medassist/prescription-analyzer/internal/common"
	"github.com/medassist/prescription-analyzer/internal/config"
	"github.com/medassist/prescription-analyzer/internal/httpapi/handlers"
	"github.com/medassist/prescription-analyzer/internal/httpapi/middleware"
	"github.com/medassist/prescription-analyzer/internal/session"
	"github.com/medassist/prescription-analyzer/internal/workflow"
	"github.com/medassist/prescription-analyzer/web"
)

func NewRouter(cfg config.Config, sessions *session.Manager, flow *workflow.Controller) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	h := handlers.NewHandler(cfg, flow)

	r.GET("/ping", h.Ping)

	r.GET("/", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", web.Index)
	})

	api := r.Group("/api")
	api.Use(middleware.Session(sessions))

	api.GET("/view", h.GetView)
	api.POST("/navigate", h.Navigate)

	api.POST("/extract", h.Extract)
	api.POST("/prescriptions", h.Persist)
	api.GET("/prescriptions", h.ListPrescriptions)

	api.POST("/chat/use-current", h.UseCurrent)
	api.POST("/chat/select", h.SelectData)
	api.POST("/chat/message", h.SendMessage)
	api.POST("/chat/clear", h.ClearChat)

	return r
}
