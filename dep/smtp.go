package dep

import (
	"bytes"
	"codemailer/config"
	"context"
	"fmt"
	"github.com/wneessen/go-mail"
	"time"
)

type smtpTransport struct {
	host string
	port int
}

// NewSMTPTransport sends through an SMTP submission server, authenticating
// as the user with their app password. Gmail is the default host.
func NewSMTPTransport(_ context.Context, cfg config.Mail) MailTransport {
	return &smtpTransport{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
	}
}

func (t *smtpTransport) Name() string {
	return config.MailProviderSMTP
}

func (t *smtpTransport) Send(ctx context.Context, cred *Credential, msg *Message) error {
	m, err := buildMsg(msg)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(t.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(cred.Username),
		mail.WithPassword(cred.Secret),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
	}
	if deadline, ok := ctx.Deadline(); ok {
		opts = append(opts, mail.WithTimeout(time.Until(deadline)))
	}

	client, err := mail.NewClient(t.host, opts...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (t *smtpTransport) Close(_ context.Context) error {
	return nil
}

func buildMsg(msg *Message) (*mail.Msg, error) {
	if msg.To == "" {
		return nil, ErrMissingRecipient
	}

	m := mail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, fmt.Errorf("invalid to address: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.Html)

	for _, a := range msg.Attachments {
		if err := m.AttachReader(a.Filename, bytes.NewReader(a.Content),
			mail.WithFileContentType(mail.ContentType(a.ContentType))); err != nil {
			return nil, fmt.Errorf("attach %s: %w", a.Filename, err)
		}
	}

	return m, nil
}
