package controllers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/velora-shop/velora/app/repository"
	"github.com/velora-shop/velora/internal/pkg/usercontext"
)

const defaultOrderPageSize = 20

// HandleListOrders returns the authenticated user's orders, newest first.
func HandleListOrders(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	page, _ := strconv.Atoi(c.Query("page", "1"))
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * defaultOrderPageSize

	repo := repository.GetGlobalFactory().GetOrderRepository()
	orders, err := repo.GetByUserID(c.UserContext(), userCtx.UserID, offset, defaultOrderPageSize)
	if err != nil {
		log.Errorf("[Orders] listing failed for user %d: %v", userCtx.UserID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "listing_failed"})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"orders": orders, "page": page})
}

// HandleGetOrder returns one order by public UUID. Owners and admins only.
func HandleGetOrder(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized"})
	}

	repo := repository.GetGlobalFactory().GetOrderRepository()
	order, err := repo.GetByUUID(c.UserContext(), strings.TrimSpace(c.Params("uuid")))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "lookup_failed"})
	}

	owner := order.UserID != nil && *order.UserID == userCtx.UserID
	if !owner && !userCtx.IsAdmin {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden"})
	}

	return c.Status(fiber.StatusOK).JSON(order)
}

type orderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=confirmed processing completed cancelled"`
}

// HandleAdminUpdateOrderStatus transitions an order's status. Orders are
// never deleted, only status-transitioned, and only along allowed edges.
func HandleAdminUpdateOrderStatus(c *fiber.Ctx) error {
	var req orderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	repo := repository.GetGlobalFactory().GetOrderRepository()
	order, err := repo.GetByUUID(c.UserContext(), strings.TrimSpace(c.Params("uuid")))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "lookup_failed"})
	}

	if !order.CanTransitionTo(req.Status) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "invalid_transition",
			"message": "cannot move order from " + order.Status + " to " + req.Status,
		})
	}

	if err := repo.UpdateStatus(c.UserContext(), order.ID, req.Status); err != nil {
		log.Errorf("[Orders] status update failed for order %s: %v", order.OrderNumber, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "update_failed"})
	}

	order.Status = req.Status
	return c.Status(fiber.StatusOK).JSON(order)
}
