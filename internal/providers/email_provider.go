package providers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"gatehouse/internal/constants"

	"github.com/wneessen/go-mail"
)

const smtpTimeout = 10 * time.Second

// SMTPMailer sends mail through a relay, upgrading to TLS when offered and
// using PLAIN auth when a user is set.
type SMTPMailer struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	Timeout  time.Duration
}

var _ Mailer = (*SMTPMailer)(nil)

func NewSMTPMailer(host string, port int, user, password, from string) *SMTPMailer {
	return &SMTPMailer{Host: host, Port: port, User: user, Password: password, From: from, Timeout: smtpTimeout}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if m.Host == "" || m.From == "" {
		return constants.ErrEmailDisabled
	}
	if strings.ContainsAny(to, "\r\n") || strings.ContainsAny(subject, "\r\n") {
		return fmt.Errorf("%w: header injection in recipient or subject", constants.ErrValidation)
	}

	msg := mail.NewMsg()
	if err := msg.From(m.From); err != nil {
		return fmt.Errorf("%w: invalid sender address: %v", constants.ErrValidation, err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("%w: invalid recipient address: %v", constants.ErrValidation, err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, body)

	client, err := mail.NewClient(m.Host, m.clientOptions()...)
	if err != nil {
		return &ProviderError{Code: ErrCodeNotConfigured, Message: "Invalid SMTP settings", Err: err}
	}

	timeout := m.Timeout
	if timeout <= 0 {
		timeout = smtpTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		if ctx.Err() != nil {
			return &ProviderError{Code: ErrCodeNetwork, Message: "SMTP delivery timed out", Err: err}
		}
		return &ProviderError{Code: ErrCodeUpstream, Message: "SMTP delivery failed", Err: err}
	}
	return nil
}

func (m *SMTPMailer) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.Port > 0 {
		opts = append(opts, mail.WithPort(m.Port))
	}
	if m.Timeout > 0 {
		opts = append(opts, mail.WithTimeout(m.Timeout))
	}
	if m.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.User),
			mail.WithPassword(m.Password),
		)
	}
	return opts
}

// DecisionEmail renders the subject and body for a decision email.
func DecisionEmail(msg DecisionMessage) (subject, body string) {
	verb := "denied"
	if msg.Status == constants.StatusApproved {
		verb = "approved"
	}
	subject = fmt.Sprintf("[%s] Your %s application was %s", msg.ServerName, msg.TypeName, verb)

	var b strings.Builder
	fmt.Fprintf(&b, "Hello,\n\nYour %s application (%s) has been %s.\n", msg.TypeName, msg.ApplicationID, verb)
	if msg.Reason != "" {
		fmt.Fprintf(&b, "\nReason: %s\n", msg.Reason)
	}
	fmt.Fprintf(&b, "\n%s staff\n", msg.ServerName)
	return subject, b.String()
}
