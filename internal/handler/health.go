package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"walletconsole/internal/walletapi"
)

type HealthHandler struct {
	Wallet *walletapi.Client
}

func (h *HealthHandler) Register(r *gin.Engine) {
	r.GET("/healthz", h.health)
	r.GET("/readyz", h.ready)
}

func (h *HealthHandler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ready checks that the wallet backend answers; the console is useless
// without it.
func (h *HealthHandler) ready(c *gin.Context) {
	if h.Wallet == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "backend_missing"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	hs, err := h.Wallet.Health(ctx)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "backend_unreachable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready", "backend": hs.Status, "backend_version": hs.Version})
}
