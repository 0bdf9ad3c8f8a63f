package dispatch

import (
	"codemailer/dep"
	"codemailer/entity"
	"codemailer/pkg/goutil"
	"codemailer/repo"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"
)

type fakeTemplates struct {
	templates map[uint64]*entity.Template
}

func (f *fakeTemplates) Get(_ context.Context, _, templateID uint64) (*entity.Template, error) {
	tmpl, ok := f.templates[templateID]
	if !ok {
		return nil, repo.ErrTemplateNotFound
	}
	return tmpl, nil
}

type fakeCredentials struct {
	users map[uint64]*entity.User
}

func (f *fakeCredentials) GetByID(_ context.Context, userID uint64) (*entity.User, error) {
	user, ok := f.users[userID]
	if !ok {
		return nil, repo.ErrUserNotFound
	}
	return user, nil
}

type fakeDecrypter struct {
	err error
}

func (f *fakeDecrypter) Decrypt(cipherText string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "plain:" + cipherText, nil
}

type sentMessage struct {
	cred *dep.Credential
	msg  *dep.Message
}

type fakeTransport struct {
	mu   sync.Mutex
	sent []sentMessage

	// fail holds recipients the transport rejects
	fail map[string]error
	// block, when set, holds every send until it is closed or the context ends
	block chan struct{}
	delay time.Duration

	inFlight    int32
	maxInFlight int32
}

func (f *fakeTransport) Name() string {
	return "fake"
}

func (f *fakeTransport) Send(ctx context.Context, cred *dep.Credential, msg *dep.Message) error {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		max := atomic.LoadInt32(&f.maxInFlight)
		if n <= max || atomic.CompareAndSwapInt32(&f.maxInFlight, max, n) {
			break
		}
	}

	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	f.mu.Lock()
	f.sent = append(f.sent, sentMessage{cred: cred, msg: msg})
	f.mu.Unlock()

	if err, ok := f.fail[msg.To]; ok {
		return err
	}
	return nil
}

func (f *fakeTransport) Close(_ context.Context) error {
	return nil
}

func (f *fakeTransport) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()

	res := make([]sentMessage, len(f.sent))
	copy(res, f.sent)
	return res
}

func (f *fakeTransport) recipients() []string {
	msgs := f.messages()
	res := make([]string, len(msgs))
	for i, m := range msgs {
		res[i] = m.msg.To
	}
	return res
}

type fakeResolver struct {
	calls int32
	fail  map[string]error
}

func (f *fakeResolver) Resolve(_ context.Context, att *entity.Attachment) (*dep.MailAttachment, error) {
	atomic.AddInt32(&f.calls, 1)
	if err, ok := f.fail[att.GetURL()]; ok {
		return nil, err
	}
	return &dep.MailAttachment{
		Filename:    att.FileName(),
		Content:     []byte(att.GetURL()),
		ContentType: dep.ContentTypeOf(att.FileName()),
	}, nil
}

type fakeLedger struct {
	mu      sync.Mutex
	calls   int
	failFor int
	batches map[string]*entity.CampaignBatch
	// sent is the cumulative stats counter
	sent uint64
}

func (f *fakeLedger) RecordBatch(_ context.Context, batch *entity.CampaignBatch) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.calls <= f.failFor {
		return false, errors.New("database unavailable")
	}

	if f.batches == nil {
		f.batches = make(map[string]*entity.CampaignBatch)
	}
	if _, ok := f.batches[batch.GetRunID()]; ok {
		return false, nil
	}
	f.batches[batch.GetRunID()] = batch
	f.sent += batch.GetSentCount()

	return true, nil
}

func (f *fakeLedger) snapshot() (calls int, batches []*entity.CampaignBatch, sent uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, b := range f.batches {
		batches = append(batches, b)
	}
	return f.calls, batches, f.sent
}

type fakeSentLog struct {
	mu     sync.Mutex
	emails []*entity.SentEmail
}

func (f *fakeSentLog) Create(_ context.Context, email *entity.SentEmail) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.emails = append(f.emails, email)
	return nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	runs []*entity.DispatchRun
}

func (f *fakeNotifier) RunFinalized(_ context.Context, run *entity.DispatchRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.runs = append(f.runs, run)
	return nil
}

func newUser(id uint64, email, sealed string) *entity.User {
	user := entity.NewUser(email, "", sealed)
	user.ID = goutil.Uint64(id)
	return user
}

func newRecipients(emails ...string) []entity.Recipient {
	recipients := make([]entity.Recipient, len(emails))
	for i, email := range emails {
		r := entity.Recipient{"name": entity.StringValue(email)}
		if email != "" {
			r["hr_email"] = entity.StringValue(email)
		}
		recipients[i] = r
	}
	return recipients
}

func (f *fakeTransport) inFlightCount() int32 {
	return atomic.LoadInt32(&f.inFlight)
}
