package notifier

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	apperrors "sjsage522/cardmonitor/pkg/errors"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailNotifier sends alerts over SMTP. smtp.SendMail upgrades the
// connection with STARTTLS when the server offers it.
type EmailNotifier struct {
	host      string
	port      int
	username  string
	password  string
	from      string
	recipient string
	send      sendMailFunc
}

// NewEmailNotifier creates a new email notifier
func NewEmailNotifier(host string, port int, username, password, from, recipient string) *EmailNotifier {
	return &EmailNotifier{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		from:      from,
		recipient: recipient,
		send:      smtp.SendMail,
	}
}

// Name returns the notifier name
func (n *EmailNotifier) Name() string {
	return "email"
}

// Notify sends the alert as a plain text email
func (n *EmailNotifier) Notify(ctx context.Context, alert Alert) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var auth smtp.Auth
	if n.username != "" {
		auth = smtp.PlainAuth("", n.username, n.password, n.host)
	}

	addr := net.JoinHostPort(n.host, strconv.Itoa(n.port))
	if err := n.send(addr, auth, n.from, []string{n.recipient}, n.buildMessage(alert)); err != nil {
		return apperrors.NewNotify(alert.Entry.Key, "failed to send email", err)
	}
	return nil
}

func (n *EmailNotifier) buildMessage(alert Alert) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", n.from)
	fmt.Fprintf(&b, "To: %s\r\n", n.recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", alert.Subject())
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(FormatText(alert), "\n", "\r\n"))
	return []byte(b.String())
}
