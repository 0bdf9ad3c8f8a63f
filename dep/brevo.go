package dep

import (
	"bytes"
	"codemailer/config"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	brevo "github.com/getbrevo/brevo-go/lib"
	"io"
	"net/http"
)

type brevoResp struct {
	MessageID string `json:"messageId"`
	Message   string `json:"message"`
	Code      string `json:"code"`
}

type brevoTransport struct {
	url    string
	client *http.Client
}

// NewBrevoTransport sends through the Brevo transactional API. The user's
// decrypted secret is used as the API key.
func NewBrevoTransport(_ context.Context, cfg config.Mail) MailTransport {
	return &brevoTransport{
		url:    cfg.BrevoURL,
		client: http.DefaultClient,
	}
}

func (t *brevoTransport) Name() string {
	return config.MailProviderBrevo
}

func (t *brevoTransport) Send(ctx context.Context, cred *Credential, msg *Message) error {
	if msg.To == "" {
		return ErrMissingRecipient
	}

	body := brevo.SendSmtpEmail{
		Sender: &brevo.SendSmtpEmailSender{
			Email: msg.From,
		},
		ReplyTo: &brevo.SendSmtpEmailReplyTo{
			Email: msg.From,
		},
		To:          []brevo.SendSmtpEmailTo{{Email: msg.To}},
		Subject:     msg.Subject,
		HtmlContent: msg.Html,
		Tags:        msg.Tags,
	}

	// the API has no content type field; Brevo infers it from the name's
	// extension, the same one ContentType was chosen from
	for _, a := range msg.Attachments {
		body.Attachment = append(body.Attachment, brevo.SendSmtpEmailAttachment{
			Name:    a.Filename,
			Content: base64.StdEncoding.EncodeToString(a.Content),
		})
	}

	return t.postHttpRequest(ctx, cred.Secret, body)
}

func (t *brevoTransport) Close(_ context.Context) error {
	return nil
}

func (t *brevoTransport) postHttpRequest(ctx context.Context, apiKey string, body interface{}) error {
	js, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(js))
	if err != nil {
		return err
	}

	req.Header.Add("accept", "application/json")
	req.Header.Add("content-type", "application/json")
	req.Header.Add("api-key", apiKey)

	res, err := t.client.Do(req)
	if err != nil {
		return err
	}

	defer func() {
		_ = res.Body.Close()
	}()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}

	resp := new(brevoResp)
	if len(b) > 0 {
		if err := json.Unmarshal(b, resp); err != nil && res.StatusCode < 300 {
			return err
		}
	}

	if res.StatusCode >= 300 || resp.Message != "" {
		return fmt.Errorf("encounter brevo error: %s, code: %s, status: %d", resp.Message, resp.Code, res.StatusCode)
	}

	return nil
}
