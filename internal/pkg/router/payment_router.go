package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/velora-shop/velora/app/controllers"
)

// PaymentRouter carries the gateway-facing endpoints. No rate limiter here:
// the gateway retries on failure and must always reach the handler.
type PaymentRouter struct {
}

func (h PaymentRouter) InstallRouter(app *fiber.App) {
	payments := app.Group("/api/payments")
	payments.Post("/webhook", controllers.HandlePaymentWebhook)
	payments.Get("/verify/:reference", controllers.HandlePaymentVerify)
}

func NewPaymentRouter() *PaymentRouter {
	return &PaymentRouter{}
}
