package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"walletconsole/internal/approval"
	"walletconsole/internal/models"
)

// ApprovalHandler exposes the per-suggestion approval workflow. The run id
// in the URL is the suggestion id; run identity across retries is carried
// inside the snapshot.
type ApprovalHandler struct {
	Approvals *approval.Controller
}

func (h *ApprovalHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/approvals")
	group.POST("", h.open)
	group.GET("/:id", h.get)
	group.POST("/:id/evaluate", h.evaluate)
	group.DELETE("/:id", h.close)
}

func (h *ApprovalHandler) open(c *gin.Context) {
	var sug models.Suggestion
	if err := c.ShouldBindJSON(&sug); err != nil {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if sug.ID <= 0 {
		Error(c, http.StatusBadRequest, "suggestion id is required", nil)
		return
	}
	Ok(c, h.Approvals.Open(sug), nil)
}

func (h *ApprovalHandler) get(c *gin.Context) {
	id := int64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid suggestion id", nil)
		return
	}
	snap, ok := h.Approvals.Get(id)
	if !ok {
		Error(c, http.StatusNotFound, "no open approval run", nil)
		return
	}
	Ok(c, snap, nil)
}

type evaluateRequest struct {
	SlippageBps    *int             `json:"slippage_bps"`
	GasEstimateUSD *decimal.Decimal `json:"gas_estimate_usd"`
}

func (h *ApprovalHandler) evaluate(c *gin.Context) {
	id := int64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid suggestion id", nil)
		return
	}
	// An empty body means "use the configured defaults".
	var req evaluateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			Error(c, http.StatusBadRequest, err.Error(), nil)
			return
		}
	}
	snap, err := h.Approvals.Evaluate(c.Request.Context(), id, approval.Params{
		SlippageBps:    req.SlippageBps,
		GasEstimateUSD: req.GasEstimateUSD,
	})
	switch {
	case errors.Is(err, approval.ErrNoRun):
		Error(c, http.StatusNotFound, "no open approval run", nil)
	case errors.Is(err, approval.ErrRunClosed):
		Error(c, http.StatusGone, "approval run was closed", nil)
	case errors.Is(err, approval.ErrEvaluationInFlight):
		Error(c, http.StatusConflict, "evaluation already in flight", nil)
	case err != nil:
		Error(c, http.StatusInternalServerError, err.Error(), nil)
	default:
		Ok(c, snap, nil)
	}
}

func (h *ApprovalHandler) close(c *gin.Context) {
	id := int64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid suggestion id", nil)
		return
	}
	h.Approvals.Close(id)
	Ok(c, nil, nil)
}
