package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2/log"
	"github.com/velora-shop/velora/app/models"
	"github.com/velora-shop/velora/app/repository"
	"github.com/velora-shop/velora/internal/pkg/notifier"
	"gorm.io/gorm"
)

// Service runs the payment-confirmation pipeline: normalize the inbound
// event, recompute prices from the catalog, materialize exactly one order
// per payment reference, then clear the cart and fire notifications.
type Service struct {
	orders     repository.OrderRepository
	carts      repository.CartRepository
	users      repository.UserRepository
	pricer     *Pricer
	dispatcher *notifier.Dispatcher
}

// NewService creates a payment service from injected collaborators.
func NewService(repos *repository.Repositories, dispatcher *notifier.Dispatcher) *Service {
	return &Service{
		orders:     repos.Order,
		carts:      repos.Cart,
		users:      repos.User,
		pricer:     NewPricer(repos.Catalog),
		dispatcher: dispatcher,
	}
}

// NewServiceFromDB creates a payment service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(repository.NewRepositories(db), notifier.GetDispatcher())
}

// ProcessChargeEvent converts one successful-charge event into an order.
// Safe under duplicate delivery: a reference that already materialized
// returns the existing order with created=false and triggers no side
// effects. The context bounds the synchronous pipeline work down to the
// database queries; notifications detach.
func (s *Service) ProcessChargeEvent(ctx context.Context, ev *ChargeEvent) (*models.Order, bool, error) {
	in, err := NormalizeChargeMetadata(ev.Metadata, ev.Customer)
	if err != nil {
		return nil, false, err
	}
	if in.UserID == nil && ev.Customer.Email != "" {
		// Metadata carried no account id; a registered account with the
		// paying customer's email still owns the order.
		if u, err := s.users.GetByEmail(ctx, ev.Customer.Email); err == nil {
			in.UserID = &u.ID
		}
	}

	items, total, count, err := s.pricer.PriceItems(ctx, in.Items)
	if err != nil {
		return nil, false, err
	}

	mismatch := ReconcileCharge(total, ev.Amount)
	if mismatch {
		log.Warnf("[Payment] amount mismatch on %s: charged=%d computed=%d", ev.Reference, ev.Amount, total)
	}

	order := &models.Order{
		UserID:           in.UserID,
		Customer:         in.Customer,
		Items:            items,
		TotalAmount:      total,
		TotalItems:       count,
		DeliveryDate:     in.DeliveryDate,
		DeliveryTime:     in.DeliveryTime,
		PaymentReference: ev.Reference,
		PaymentStatus:    models.PaymentStatusPaid,
		Status:           models.OrderStatusConfirmed,
		Vendor:           in.Vendor,
		AmountMismatch:   mismatch,
		ChargedAmount:    ev.Amount,
	}
	if err := order.Validate(); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	created, stored, err := s.orders.CreateIfAbsent(ctx, order)
	if err != nil {
		return nil, false, err
	}
	if !created {
		log.Infof("[Payment] duplicate delivery for %s, order %s already exists", ev.Reference, stored.OrderNumber)
		return stored, false, nil
	}

	s.finishCreation(ctx, stored, mismatch)
	return stored, true, nil
}

// MaterializeFromCart implements the manual checkout callback: the caller
// already confirmed payment, so items come from their server-side cart and
// the payment status stays pending until the gateway event lands.
func (s *Service) MaterializeFromCart(ctx context.Context, userID uint, reference string, customer models.Customer, delivery *OrderInput) (*models.Order, bool, error) {
	cartItems, err := s.carts.ListByUser(ctx, userID)
	if err != nil {
		return nil, false, err
	}
	if len(cartItems) == 0 {
		return nil, false, ErrEmptyCart
	}

	inputs := make([]ItemInput, 0, len(cartItems))
	for _, ci := range cartItems {
		inputs = append(inputs, ItemInput{
			ProductID: strconv.FormatUint(uint64(ci.ProductID), 10),
			Pack:      ci.Pack,
			Quantity:  ci.Quantity,
		})
	}

	items, total, count, err := s.pricer.PriceItems(ctx, inputs)
	if err != nil {
		return nil, false, err
	}

	if customer.FullName == "" || customer.Email == "" {
		if u, err := s.users.GetByID(ctx, userID); err == nil {
			customer = mergeCustomer(customer, u.CustomerSnapshot())
		}
	}

	order := &models.Order{
		UserID:           &userID,
		Customer:         customer,
		Items:            items,
		TotalAmount:      total,
		TotalItems:       count,
		PaymentReference: reference,
		PaymentStatus:    models.PaymentStatusPending,
		Status:           models.OrderStatusConfirmed,
	}
	if delivery != nil {
		order.DeliveryDate = delivery.DeliveryDate
		order.DeliveryTime = delivery.DeliveryTime
		order.Vendor = delivery.Vendor
	}
	if err := order.Validate(); err != nil {
		return nil, false, err
	}

	created, stored, err := s.orders.CreateIfAbsent(ctx, order)
	if err != nil {
		return nil, false, err
	}
	if created {
		s.finishCreation(ctx, stored, false)
	}
	return stored, created, nil
}

// VerifyAndMaterialize is the pull-based fallback entry point. An existing
// order for the reference short-circuits as a confirmed no-op; otherwise
// the gateway is queried and the regular pipeline runs on its answer.
func (s *Service) VerifyAndMaterialize(ctx context.Context, gateway *GatewayClient, reference string) (*models.Order, bool, error) {
	existing, err := s.orders.GetByPaymentReference(ctx, reference)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, err
	}

	ev, err := gateway.VerifyTransaction(ctx, reference)
	if err != nil {
		return nil, false, err
	}
	return s.ProcessChargeEvent(ctx, ev)
}

// finishCreation runs the post-commit side effects for a freshly created
// order. Cart cleanup is best effort and notifications are detached; an
// order is never rolled back because either of them failed.
func (s *Service) finishCreation(ctx context.Context, order *models.Order, mismatch bool) {
	if order.UserID != nil {
		if err := s.carts.ClearByUser(ctx, *order.UserID); err != nil {
			log.Errorf("[Payment] cart cleanup failed for user %d after order %s: %v", *order.UserID, order.OrderNumber, err)
		}
	}
	s.dispatcher.DispatchOrderNotifications(order, mismatch)
}

func mergeCustomer(primary, fallback models.Customer) models.Customer {
	pick := func(a, b string) string {
		if a != "" {
			return a
		}
		return b
	}
	return models.Customer{
		FullName: pick(primary.FullName, fallback.FullName),
		Email:    pick(primary.Email, fallback.Email),
		Phone:    pick(primary.Phone, fallback.Phone),
		Address:  pick(primary.Address, fallback.Address),
		City:     pick(primary.City, fallback.City),
		Country:  pick(primary.Country, fallback.Country),
	}
}

// ack payload helpers shared by the webhook and verify handlers.
func AckBody(order *models.Order, created bool) map[string]any {
	body := map[string]any{"ok": true}
	if order != nil {
		body["order_number"] = order.OrderNumber
		body["reference"] = order.PaymentReference
	}
	if !created {
		body["duplicate"] = true
	}
	return body
}
