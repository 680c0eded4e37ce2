package handlers

import (
	"net/http"

	"github.com/fatflowers/vipclub/internal/app/service/gateway"
	"github.com/fatflowers/vipclub/internal/app/service/reconcile"
	"github.com/fatflowers/vipclub/internal/app/service/tier"
	"github.com/fatflowers/vipclub/pkg/logctx"
	"github.com/fatflowers/vipclub/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @Summary      Get member level
// @Description  Returns the member's current loyalty level, discount and bonus. Registers the member with the default record on first contact.
// @Tags         Member
// @Produce      json
// @Param        member_id path string true "Member ID"
// @Success      200  {object}  handlers.RespLevelInfo
// @Router       /api/v1/member/{member_id}/level [get]
func ApiGetMemberLevel(engine *reconcile.Engine) gin.HandlerFunc {
	return func(c *gin.Context) {
		memberID := c.Param("member_id")
		if memberID == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing member_id"))
			return
		}
		info, err := engine.LevelInfo(c.Request.Context(), memberID)
		if err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(info))
	}
}

// @Summary      Create subscription invoice
// @Description  Requests a hosted payment page URL from the gateway for one subscription period.
// @Tags         Member
// @Produce      json
// @Param        member_id path string true "Member ID"
// @Success      200  {object}  handlers.RespInvoice
// @Router       /api/v1/member/{member_id}/invoice [post]
func ApiCreateInvoice(engine *reconcile.Engine, gw *gateway.Client, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		memberID := c.Param("member_id")
		if memberID == "" {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeBadRequest, "missing member_id"))
			return
		}
		// register before billing so the webhook always finds a record
		if _, err := engine.Ensure(c.Request.Context(), memberID); err != nil {
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		inv, err := gw.CreateInvoice(c.Request.Context(), memberID)
		if err != nil {
			logctx.FromCtx(c, log).Errorw("invoice_request_failed", "member_id", memberID, "error", err)
			c.JSON(http.StatusOK, response.ErrorT[any](response.APIResponseCodeError, err.Error()))
			return
		}
		c.JSON(http.StatusOK, response.OKT(inv))
	}
}

// @Summary      List loyalty levels
// @Description  Returns the full tier ladder with discounts and bonuses.
// @Tags         Member
// @Produce      json
// @Success      200  {object}  handlers.RespTierTable
// @Router       /api/v1/member/levels [get]
func ApiListLevels() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, response.OKT(tier.Table()))
	}
}

func RegisterMemberRoutes(r gin.IRouter, engine *reconcile.Engine, gw *gateway.Client, log *zap.SugaredLogger) {
	r.GET("/levels", ApiListLevels())
	r.GET("/:member_id/level", ApiGetMemberLevel(engine))
	r.POST("/:member_id/invoice", ApiCreateInvoice(engine, gw, log))
}
