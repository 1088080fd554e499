package notify

import (
	"fmt"

	"github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/xlangai/waitlist/config"
)

const (
	subject = "XLangAI Waitlist"
	body    = "Congratulations, you have joined the Waitlist."
)

// Notifier sends the "you joined" message to an address. Implementations
// must not block the caller or surface delivery failures.
type Notifier interface {
	Send(email string)
}

// SMTPNotifier delivers the waitlist confirmation over SMTP.
type SMTPNotifier struct {
	cfg config.SMTPConfig
	log *zap.Logger
}

// NewSMTPNotifier creates a notifier from the notify.smtp config section.
func NewSMTPNotifier(cfg config.SMTPConfig, log *zap.Logger) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, log: log}
}

// Send dispatches the confirmation on its own goroutine. The join response
// has already been committed by the time this runs, so failures are logged
// and never reach the user.
func (n *SMTPNotifier) Send(email string) {
	go func() {
		if err := n.deliver(email); err != nil {
			n.log.Error("failed to send waitlist notification",
				zap.String("to", email),
				zap.Error(err),
			)
			return
		}
		n.log.Debug("waitlist notification sent", zap.String("to", email))
	}()
}

func (n *SMTPNotifier) deliver(email string) error {
	msg, err := n.message(email)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(n.cfg.Host,
		mail.WithPort(n.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.cfg.User),
		mail.WithPassword(n.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("failed to create smtp client: %w", err)
	}

	if err := client.DialAndSend(msg); err != nil {
		return fmt.Errorf("failed to deliver message: %w", err)
	}
	return nil
}

func (n *SMTPNotifier) message(email string) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(n.cfg.FromName, n.cfg.FromAddress()); err != nil {
		return nil, fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(email); err != nil {
		return nil, fmt.Errorf("invalid recipient address: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}
