package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/fatflowers/vipclub/internal/app/service/gateway"
	notificationlog "github.com/fatflowers/vipclub/internal/app/service/notification_log"
	"github.com/fatflowers/vipclub/internal/app/service/reconcile"
	"github.com/fatflowers/vipclub/internal/app/service/signing"
	"github.com/fatflowers/vipclub/internal/models"
	"github.com/fatflowers/vipclub/pkg/logctx"
	"github.com/fatflowers/vipclub/pkg/types"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// @Summary      Payment gateway webhook
// @Description  Receives WayForPay-style payment notifications. Unauthenticated or malformed notifications are rejected with 400; authenticated ones are acknowledged with a signed accept response even when they do not change member state.
// @Tags         Webhook
// @Accept       json
// @Produce      json
// @Param        payload body gateway.Notification true "Signed payment notification"
// @Success      200  {object}  gateway.Ack
// @Router       /api/v1/payment/webhook/wayforpay [post]
func ApiPaymentWebhook(engine *reconcile.Engine, signer *signing.Signer, nlog *notificationlog.Service, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		l := logctx.FromCtx(c, log)

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			l.Errorw("webhook_body_read_failed", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{"reason": "unreadable body"})
			return
		}

		entry := &models.PaymentNotificationLog{
			TraceID:          c.GetString("traceID"),
			NotificationTime: time.Now(),
			Data:             datatypes.JSON(body),
			Status:           models.PaymentNotificationLogStatusReceived,
		}

		var n gateway.Notification
		if err := json.Unmarshal(body, &n); err != nil {
			reject(c, nlog, entry, "malformed notification body")
			return
		}
		entry.OrderReference = n.OrderReference

		if n.MissingRequired() {
			reject(c, nlog, entry, "missing required notification fields")
			return
		}
		if err := signer.Verify(n.MerchantSignature, n.CanonicalFields()...); err != nil {
			// raw reference stays in the audit log for manual reconciliation
			l.Warnw("webhook_signature_rejected", "order_reference", n.OrderReference)
			reject(c, nlog, entry, "signature verification failed")
			return
		}

		_, memberID, err := gateway.ParseOrderReference(n.OrderReference)
		if err != nil {
			reject(c, nlog, entry, err.Error())
			return
		}
		entry.MemberID = lo.ToPtr(memberID)

		res, err := engine.ApplyPayment(c.Request.Context(), &reconcile.ApplyPaymentRequest{
			MemberID:       memberID,
			PaymentRef:     n.OrderReference,
			Amount:         n.Amount.String(),
			Status:         n.TransactionStatus,
			RecurringToken: n.RecToken,
			Reason:         types.MemberChangeReasonPayment,
		})
		if err != nil {
			l.Errorw("webhook_apply_failed", "order_reference", n.OrderReference, "error", err)
			entry.Status = models.PaymentNotificationLogStatusHandleFailed
			nlog.Save(c, entry)
			// no ack: the provider redelivers and the idempotent apply absorbs it
			c.JSON(http.StatusInternalServerError, gin.H{"reason": "failed to apply payment"})
			return
		}

		switch res.Outcome {
		case reconcile.OutcomeApplied:
			entry.Status = models.PaymentNotificationLogStatusApplied
		default:
			entry.Status = models.PaymentNotificationLogStatusIgnored
		}
		if data, err := json.Marshal(res); err == nil {
			entry.Result = lo.ToPtr(datatypes.JSON(data))
		}
		nlog.Save(c, entry)

		l.Infow("webhook_handled", "order_reference", n.OrderReference, "outcome", res.Outcome)
		c.JSON(http.StatusOK, gateway.NewAck(signer, n.OrderReference, time.Now()))
	}
}

func reject(c *gin.Context, nlog *notificationlog.Service, entry *models.PaymentNotificationLog, reason string) {
	entry.Status = models.PaymentNotificationLogStatusRejected
	if data, err := json.Marshal(gin.H{"reason": reason}); err == nil {
		entry.Result = lo.ToPtr(datatypes.JSON(data))
	}
	nlog.Save(c, entry)
	c.JSON(http.StatusBadRequest, gin.H{"reason": reason})
}

func RegisterPaymentWebhookRoutes(r gin.IRouter, engine *reconcile.Engine, signer *signing.Signer, nlog *notificationlog.Service, log *zap.SugaredLogger) {
	r.POST("/wayforpay", ApiPaymentWebhook(engine, signer, nlog, log))
}
