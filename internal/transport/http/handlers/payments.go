package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/core/port"
	"github.com/junkei-okinawa/wagtail-fastapi-blog/internal/usecase"
)

// Webhook bodies are small; anything larger is hostile.
const maxWebhookBodyBytes = 1 << 20

// PaymentHandler exposes checkout session creation and the gateway webhook.
type PaymentHandler struct {
	service *usecase.PaymentService
	logger  *zap.Logger
}

// NewPaymentHandler builds a payment handler instance.
func NewPaymentHandler(service *usecase.PaymentService, logger *zap.Logger) *PaymentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentHandler{service: service, logger: logger}
}

var checkoutErrorCases = []ErrorCase{
	{Err: usecase.ErrInvalidAmount, Status: http.StatusBadRequest, Message: "Invalid amount"},
	{Err: usecase.ErrTitleRequired, Status: http.StatusBadRequest, Message: "Article title is required"},
	{Err: usecase.ErrInvalidRedirectURL, Status: http.StatusBadRequest, Message: "Invalid redirect URL"},
	{Err: usecase.ErrPaymentProcessing, Status: http.StatusBadRequest, Message: "Payment processing error"},
}

// CreateCheckoutSession opens a hosted checkout session for an article.
func (h *PaymentHandler) CreateCheckoutSession(c *gin.Context) {
	var req CheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Invalid request payload"))
		return
	}

	session, err := h.service.CreateCheckoutSession(c.Request.Context(), usecase.CheckoutRequest{
		ArticleID:    req.ArticleID,
		Amount:       req.Amount,
		ArticleTitle: req.ArticleTitle,
		SuccessURL:   req.SuccessURL,
		CancelURL:    req.CancelURL,
		ClientIP:     c.ClientIP(),
	})
	if err != nil {
		RespondWithMappedError(c, err, checkoutErrorCases, http.StatusInternalServerError, "Internal error")
		return
	}

	c.JSON(http.StatusOK, CheckoutSessionResponse{
		SessionID:   session.ID,
		CheckoutURL: session.URL,
	})
}

// Webhook receives and verifies gateway event notifications.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "Invalid payload"))
		return
	}

	signature := c.GetHeader("Stripe-Signature")

	if err := h.service.HandleWebhook(c.Request.Context(), payload, signature); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: port.ErrInvalidWebhookSignature, Status: http.StatusBadRequest, Message: "Invalid signature"},
			{Err: port.ErrInvalidWebhookPayload, Status: http.StatusBadRequest, Message: "Invalid payload"},
		}, http.StatusInternalServerError, "Webhook processing error")
		return
	}

	c.JSON(http.StatusOK, WebhookAckResponse{Status: "success"})
}
