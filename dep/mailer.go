package dep

import (
	"codemailer/config"
	"context"
	"errors"
	"fmt"
)

var (
	ErrUnknownMailProvider = errors.New("unknown mail provider")
	ErrMissingRecipient    = errors.New("missing recipient address")
)

// Credential is a decrypted mailbox credential. Username is also the sender
// address.
type Credential struct {
	Username string
	Secret   string
}

type MailAttachment struct {
	Filename    string
	Content     []byte
	ContentType string
}

type Message struct {
	From        string
	To          string
	Subject     string
	Html        string
	Attachments []*MailAttachment
	Tags        []string
}

// MailTransport sends one rendered message. Every attachment is delivered
// with an "attachment" content disposition.
type MailTransport interface {
	Name() string
	Send(ctx context.Context, cred *Credential, msg *Message) error
	Close(ctx context.Context) error
}

func NewMailTransport(ctx context.Context, cfg config.Mail) (MailTransport, error) {
	switch cfg.Provider {
	case config.MailProviderSMTP, "":
		return NewSMTPTransport(ctx, cfg), nil
	case config.MailProviderBrevo:
		return NewBrevoTransport(ctx, cfg), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMailProvider, cfg.Provider)
	}
}
