package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"walletconsole/internal/walletapi"
)

// WalletHandler proxies the read-side lists the dashboard renders. No
// caching; every request goes to the backend.
type WalletHandler struct {
	Wallet *walletapi.Client
}

func (h *WalletHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1")
	group.GET("/suggestions", h.listSuggestions)
	group.GET("/decisions", h.listDecisions)
	group.GET("/balances", h.listBalances)
}

func (h *WalletHandler) listSuggestions(c *gin.Context) {
	limit := limitQuery(c, 50)
	items, err := h.Wallet.ListSuggestions(c.Request.Context(), limit)
	if err != nil {
		Error(c, proxyStatus(err), err.Error(), nil)
		return
	}
	Ok(c, items, map[string]any{"limit": limit})
}

func (h *WalletHandler) listDecisions(c *gin.Context) {
	limit := limitQuery(c, 50)
	items, err := h.Wallet.ListDecisions(c.Request.Context(), limit)
	if err != nil {
		Error(c, proxyStatus(err), err.Error(), nil)
		return
	}
	Ok(c, items, map[string]any{"limit": limit})
}

func (h *WalletHandler) listBalances(c *gin.Context) {
	items, err := h.Wallet.ListBalances(c.Request.Context())
	if err != nil {
		Error(c, proxyStatus(err), err.Error(), nil)
		return
	}
	Ok(c, items, nil)
}

// proxyStatus maps backend failures onto the console's own responses:
// backend answered with an error → its status; backend unreachable → 502.
func proxyStatus(err error) int {
	var se *walletapi.StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return http.StatusBadGateway
}
