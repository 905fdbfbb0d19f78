package controllers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/velora-shop/velora/internal/pkg/database"
	"github.com/velora-shop/velora/internal/pkg/env"
	"github.com/velora-shop/velora/internal/pkg/payment"
	"github.com/velora-shop/velora/internal/pkg/usercontext"
)

// The gateway treats a slow handler as a failure and retries, so the
// synchronous pipeline work is bounded well under its retry threshold.
const pipelineTimeout = 15 * time.Second

// newPipelineService builds the per-request pipeline service. Tests swap
// this to run the handlers over injected collaborators.
var newPipelineService = func() *payment.Service {
	return payment.NewServiceFromDB(database.GetDB())
}

// HandlePaymentWebhook receives the gateway's asynchronous charge
// notification. The signature check runs over the raw body exactly as
// received; duplicates and ignored events still get a 200 ack so the
// gateway stops retrying.
func HandlePaymentWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get("X-Webhook-Signature"))
	secret := env.GetEnv("GATEWAY_WEBHOOK_SECRET", "")

	if !payment.VerifyWebhookSignature(rawBody, signature, secret) {
		log.Warnf("[Webhook] rejected unsigned or forged payload from %s (event header %q)", c.IP(), c.Get("X-Webhook-Event"))
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
	}

	ev, err := payment.ParseWebhookEvent(rawBody)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
	}
	if ev.Event != payment.EventChargeSuccess {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
	}

	svc := newPipelineService()
	ctx, cancel := context.WithTimeout(c.UserContext(), pipelineTimeout)
	defer cancel()

	order, created, err := svc.ProcessChargeEvent(ctx, ev)
	if err != nil {
		if errors.Is(err, payment.ErrMalformedPayload) {
			log.Warnf("[Webhook] unusable metadata for reference %s", ev.Reference)
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
		}
		log.Errorf("[Webhook] processing failed for reference %s: %v", ev.Reference, err)
		// 5xx tells the gateway to retry; safe because materialization is
		// idempotent by reference.
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "processing_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(payment.AckBody(order, created))
}

// HandlePaymentVerify is the synchronous fallback after a redirect-based
// checkout: the browser lands here with only the reference, the gateway is
// asked for the verdict, and the same pipeline runs if the webhook has not
// already done the work.
func HandlePaymentVerify(c *fiber.Ctx) error {
	reference := strings.TrimSpace(c.Params("reference"))
	if reference == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "missing_reference"})
	}

	svc := newPipelineService()
	ctx, cancel := context.WithTimeout(c.UserContext(), pipelineTimeout)
	defer cancel()

	order, created, err := svc.VerifyAndMaterialize(ctx, payment.NewGatewayClientFromEnv(), reference)
	if err != nil {
		switch {
		case errors.Is(err, payment.ErrGatewayVerify):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "transaction_not_successful"})
		case errors.Is(err, payment.ErrMalformedPayload):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
		default:
			log.Errorf("[Verify] processing failed for reference %s: %v", reference, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "processing_failed"})
		}
	}

	if strings.Contains(c.Get(fiber.HeaderAccept), fiber.MIMEApplicationJSON) {
		return c.Status(fiber.StatusOK).JSON(payment.AckBody(order, created))
	}
	return c.Redirect("/orders", fiber.StatusSeeOther)
}

// checkoutCallbackRequest is the authenticated manual-checkout payload.
type checkoutCallbackRequest struct {
	Reference    string `json:"reference" validate:"required,min=6,max=100"`
	FullName     string `json:"full_name" validate:"max=150"`
	Email        string `json:"email" validate:"omitempty,email"`
	Phone        string `json:"phone" validate:"max=50"`
	Address      string `json:"address" validate:"max=255"`
	City         string `json:"city" validate:"max=100"`
	Country      string `json:"country" validate:"max=100"`
	DeliveryDate string `json:"delivery_date"`
	DeliveryTime string `json:"delivery_time" validate:"max=50"`
	Vendor       string `json:"vendor" validate:"max=100"`
}

// HandleCheckoutCallback materializes an order from the caller's current
// server-side cart plus a supplied payment reference, bypassing the gateway
// metadata path. Requires API-key authentication.
func HandleCheckoutCallback(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	var req checkoutCallbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	svc := newPipelineService()
	ctx, cancel := context.WithTimeout(c.UserContext(), pipelineTimeout)
	defer cancel()

	delivery := &payment.OrderInput{
		DeliveryDate: payment.ParseDeliveryDate(req.DeliveryDate),
		DeliveryTime: req.DeliveryTime,
		Vendor:       req.Vendor,
	}
	order, created, err := svc.MaterializeFromCart(ctx, userCtx.UserID, req.Reference, customerFromRequest(&req), delivery)
	if err != nil {
		if errors.Is(err, payment.ErrEmptyCart) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "empty_cart"})
		}
		log.Errorf("[Checkout] materialization failed for user %d reference %s: %v", userCtx.UserID, req.Reference, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "processing_failed"})
	}

	status := fiber.StatusCreated
	if !created {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(payment.AckBody(order, created))
}
