package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"walletconsole/internal/stream"
)

type StreamHandler struct {
	Hub    *stream.Hub
	Logger *zap.Logger
}

func (h *StreamHandler) Register(r *gin.Engine) {
	r.GET("/api/v1/stream", h.serve)
}

func (h *StreamHandler) serve(c *gin.Context) {
	if err := h.Hub.Serve(c.Writer, c.Request); err != nil && h.Logger != nil {
		h.Logger.Debug("stream client gone", zap.Error(err))
	}
}
