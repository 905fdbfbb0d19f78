package notifier

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/velora-shop/velora/app/models"
	"github.com/velora-shop/velora/internal/pkg/env"
)

// Dispatcher sends customer and admin notifications with bounded retry on
// the primary transport and a single fallback attempt. It is constructed
// once at process start and is stateless per send; nothing here may ever
// fail or block an order that is already materialized.
type Dispatcher struct {
	primary    Transport
	fallback   Transport // may be nil
	adminEmail string
	retries    int
	retryDelay time.Duration
}

// NewDispatcher wires a dispatcher from explicit transports, used directly
// by tests and by NewDispatcherFromEnv.
func NewDispatcher(primary, fallback Transport, adminEmail string, retries int, retryDelay time.Duration) *Dispatcher {
	if retries < 1 {
		retries = 3
	}
	if retryDelay <= 0 {
		retryDelay = 500 * time.Millisecond
	}
	return &Dispatcher{
		primary:    primary,
		fallback:   fallback,
		adminEmail: adminEmail,
		retries:    retries,
		retryDelay: retryDelay,
	}
}

// NewDispatcherFromEnv builds the dispatcher from SMTP settings. A fallback
// transport is configured only when SMTP_FALLBACK_HOST is set.
func NewDispatcherFromEnv() *Dispatcher {
	sender := env.GetEnv("SMTP_SENDER", "no-reply@localhost")
	timeout := time.Duration(env.GetEnvInt("SMTP_TIMEOUT_SECONDS", 10)) * time.Second

	primary := &SMTPTransport{
		Label:    "smtp-primary",
		Host:     env.GetEnv("SMTP_HOST", "localhost"),
		Port:     env.GetEnv("SMTP_PORT", "587"),
		Username: env.GetEnv("SMTP_USERNAME", ""),
		Password: env.GetEnv("SMTP_PASSWORD", ""),
		Sender:   sender,
		Timeout:  timeout,
	}

	var fallback Transport
	if host := env.GetEnv("SMTP_FALLBACK_HOST", ""); host != "" {
		fallback = &SMTPTransport{
			Label:    "smtp-fallback",
			Host:     host,
			Port:     env.GetEnv("SMTP_FALLBACK_PORT", "587"),
			Username: env.GetEnv("SMTP_FALLBACK_USERNAME", ""),
			Password: env.GetEnv("SMTP_FALLBACK_PASSWORD", ""),
			Sender:   sender,
			Timeout:  timeout,
		}
	}

	return NewDispatcher(
		primary,
		fallback,
		env.GetEnv("ADMIN_EMAIL", ""),
		env.GetEnvInt("SMTP_MAX_RETRIES", 3),
		time.Duration(env.GetEnvInt("SMTP_RETRY_DELAY_MS", 500))*time.Millisecond,
	)
}

var (
	globalDispatcher *Dispatcher
	dispatcherOnce   sync.Once
)

// GetDispatcher returns the process-wide dispatcher (singleton)
func GetDispatcher() *Dispatcher {
	dispatcherOnce.Do(func() {
		globalDispatcher = NewDispatcherFromEnv()
	})
	return globalDispatcher
}

// Send delivers one message: up to d.retries attempts on the primary with
// an increasing delay between transient failures, then one fallback
// attempt. Non-transient failures stop the primary retry loop immediately.
func (d *Dispatcher) Send(msg Message) error {
	var lastErr error
	for attempt := 1; attempt <= d.retries; attempt++ {
		lastErr = d.primary.Send(msg)
		if lastErr == nil {
			log.Infof("[Notifier] sent %q to %s via %s (attempt %d)", msg.Subject, msg.To, d.primary.Name(), attempt)
			return nil
		}
		if !isTransient(lastErr) {
			log.Errorf("[Notifier] permanent failure on %s for %q to %s: %v", d.primary.Name(), msg.Subject, msg.To, lastErr)
			break
		}
		log.Warnf("[Notifier] transient failure on %s for %q to %s (attempt %d/%d): %v",
			d.primary.Name(), msg.Subject, msg.To, attempt, d.retries, lastErr)
		if attempt < d.retries {
			time.Sleep(time.Duration(attempt) * d.retryDelay)
		}
	}

	if d.fallback != nil {
		if err := d.fallback.Send(msg); err == nil {
			log.Infof("[Notifier] sent %q to %s via fallback %s", msg.Subject, msg.To, d.fallback.Name())
			return nil
		} else {
			lastErr = err
			log.Errorf("[Notifier] fallback %s failed for %q to %s: %v", d.fallback.Name(), msg.Subject, msg.To, err)
		}
	}

	return fmt.Errorf("all transports exhausted: %w", lastErr)
}

// DispatchOrderNotifications fires the customer confirmation and the admin
// alert for a freshly created order as detached tasks. Failures are logged
// with the order number and go nowhere else; the webhook response has long
// been written by the time these run.
func (d *Dispatcher) DispatchOrderNotifications(order *models.Order, amountMismatch bool) {
	if order.Customer.Email != "" {
		go d.deliver(order.OrderNumber, Message{
			To:      order.Customer.Email,
			Subject: fmt.Sprintf("Your order %s is confirmed", order.OrderNumber),
			Body:    renderOrderSummary(order, false),
		})
	} else {
		log.Warnf("[Notifier] order %s has no customer email, skipping confirmation", order.OrderNumber)
	}

	if d.adminEmail != "" {
		subject := fmt.Sprintf("New order %s (%s)", order.OrderNumber, order.PaymentReference)
		if amountMismatch {
			subject = fmt.Sprintf("AMOUNT MISMATCH on order %s (%s)", order.OrderNumber, order.PaymentReference)
		}
		go d.deliver(order.OrderNumber, Message{
			To:      d.adminEmail,
			Subject: subject,
			Body:    renderOrderSummary(order, true),
		})
	}
}

func (d *Dispatcher) deliver(orderNumber string, msg Message) {
	if err := d.Send(msg); err != nil {
		log.Errorf("[Notifier] giving up on %q for order %s: %v", msg.Subject, orderNumber, err)
	}
}

func renderOrderSummary(order *models.Order, admin bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<h2>Order %s</h2>", order.OrderNumber)
	fmt.Fprintf(&b, "<p>Payment reference: %s</p>", order.PaymentReference)
	b.WriteString("<ul>")
	for _, item := range order.Items {
		fmt.Fprintf(&b, "<li>%d &times; %s (%s) &mdash; %s</li>",
			item.Quantity, item.Name, item.Pack, formatMinorUnits(item.Subtotal))
	}
	b.WriteString("</ul>")
	fmt.Fprintf(&b, "<p><strong>Total: %s</strong> (%d items)</p>", formatMinorUnits(order.TotalAmount), order.TotalItems)
	if order.DeliveryDate != nil {
		fmt.Fprintf(&b, "<p>Delivery: %s %s</p>", order.DeliveryDate.Format("2006-01-02"), order.DeliveryTime)
	}
	if admin {
		fmt.Fprintf(&b, "<p>Customer: %s, %s, %s</p>", order.Customer.FullName, order.Customer.Phone, order.Customer.Address)
		if order.AmountMismatch {
			fmt.Fprintf(&b, "<p><strong>Charged %s but computed %s &mdash; needs manual reconciliation.</strong></p>",
				formatMinorUnits(order.ChargedAmount), formatMinorUnits(order.TotalAmount))
		}
	}
	return b.String()
}

func formatMinorUnits(amount int64) string {
	return fmt.Sprintf("%d.%02d", amount/100, amount%100)
}

// isTransient classifies delivery errors. Timeouts, connection resets and
// DNS hiccups are worth retrying; anything else (auth rejects, bad
// recipient) is not.
func isTransient(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsNotFound || dnsErr.IsTimeout || dnsErr.IsTemporary
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}
