package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/velora-shop/velora/app/controllers"
	"github.com/velora-shop/velora/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	authed := api.Group("", middleware.APIKeyAuthMiddleware())
	authed.Post("/checkout/callback", controllers.HandleCheckoutCallback)
	authed.Get("/orders", controllers.HandleListOrders)
	authed.Get("/orders/:uuid", controllers.HandleGetOrder)

	admin := authed.Group("/admin", middleware.RequireAdminMiddleware())
	admin.Patch("/orders/:uuid/status", controllers.HandleAdminUpdateOrderStatus)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
