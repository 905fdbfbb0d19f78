package notifier

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"
)

// Message is one outbound notification.
type Message struct {
	To      string
	Subject string
	Body    string
}

// Transport delivers a single message. Implementations must be safe for
// concurrent use; the dispatcher calls them from detached goroutines.
type Transport interface {
	Name() string
	Send(msg Message) error
}

// SMTPTransport sends mail over SMTP with its own connect/IO deadline,
// independent of any HTTP-level timeout upstream.
type SMTPTransport struct {
	Label    string
	Host     string
	Port     string
	Username string
	Password string
	Sender   string
	Timeout  time.Duration
}

func (t *SMTPTransport) Name() string {
	if t.Label != "" {
		return t.Label
	}
	return "smtp:" + t.Host
}

func (t *SMTPTransport) Send(msg Message) error {
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	addr := net.JoinHostPort(t.Host, t.Port)
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return err
	}
	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		conn.Close()
		return err
	}

	client, err := smtp.NewClient(conn, t.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: t.Host}); err != nil {
			return err
		}
	}
	if t.Username != "" && t.Password != "" {
		auth := smtp.PlainAuth("", t.Username, t.Password, t.Host)
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(t.Sender); err != nil {
		return err
	}
	if err := client.Rcpt(msg.To); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}

	headers := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", t.Sender, msg.To, msg.Subject) +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=UTF-8\r\n\r\n"
	if _, err := w.Write([]byte(headers + msg.Body)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}
