package handlers

import (
	"net/http"
	"time"

	"github.com/fatflowers/vipclub/internal/app/service/gateway"
	"github.com/fatflowers/vipclub/internal/app/service/memberstore"
	"github.com/fatflowers/vipclub/internal/app/service/reconcile"
	"github.com/fatflowers/vipclub/internal/app/service/statistics"
	"github.com/fatflowers/vipclub/pkg/logctx"
	"github.com/fatflowers/vipclub/pkg/response"
	"github.com/fatflowers/vipclub/pkg/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @Summary      List Members (Admin)
// @Description  Retrieves a paginated and filterable list of member subscription records.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body memberstore.ScanRequest true "List request with filters, pagination, and sorting"
// @Success      200  {object}  handlers.RespListMembers
// @Router       /api/v1/admin/list_members [post]
func ApiListMembers(store memberstore.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req memberstore.ScanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		res, err := store.Scan(c.Request.Context(), &req)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

type GrantPaymentRequest struct {
	MemberID   string `json:"member_id"`
	OperatorID string `json:"operator_id"`
}

// @Summary      Grant Payment (Admin)
// @Description  Credits one payment to a member without a gateway transaction. Runs through the same idempotent path as real payments.
// @Tags         Admin
// @Accept       json
// @Produce      json
// @Param        request body GrantPaymentRequest true "Grant payment request"
// @Success      200  {object}  handlers.RespLevelInfo
// @Router       /api/v1/admin/grant_payment [post]
func ApiGrantPayment(engine *reconcile.Engine, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GrantPaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, err.Error()))
			return
		}
		if req.MemberID == "" || req.OperatorID == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing member_id or operator_id"))
			return
		}

		ref := gateway.BuildOrderReference(types.OrderPurposeAdmin, req.MemberID, time.Now())
		res, err := engine.ApplyPayment(c.Request.Context(), &reconcile.ApplyPaymentRequest{
			MemberID:   req.MemberID,
			PaymentRef: ref,
			Status:     types.TransactionStatusApproved,
			Reason:     types.MemberChangeReasonAdminGrant,
		})
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		logctx.FromCtx(c, log).Infow("admin_payment_granted",
			"member_id", req.MemberID, "operator_id", req.OperatorID, "payment_ref", ref, "level", res.Record.Level)

		info, err := engine.LevelInfo(c.Request.Context(), req.MemberID)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(info))
	}
}

// @Summary      Get Member Statistics (Admin)
// @Description  Retrieves the per-level member distribution and payment totals.
// @Tags         Admin
// @Produce      json
// @Success      200  {object}  handlers.RespStatisticsOverview
// @Router       /api/v1/admin/get_statistics [post]
func ApiGetStatistics(svc *statistics.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := svc.Overview(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(res))
	}
}

func RegisterAdminRoutes(r gin.IRouter, store memberstore.Store, engine *reconcile.Engine, stats *statistics.Service, log *zap.SugaredLogger) {
	r.POST("/list_members", ApiListMembers(store))
	r.POST("/grant_payment", ApiGrantPayment(engine, log))
	r.POST("/get_statistics", ApiGetStatistics(stats))
}
