package handler

import (
	"codemailer/dispatch"
	"codemailer/entity"
	"codemailer/pkg/goutil"
	"codemailer/repo"
	"context"
	"errors"
	"sync"
)

const testUserID = uint64(7)

type fakeTemplateRepo struct {
	mu        sync.Mutex
	templates map[uint64]*entity.Template
	nextID    uint64
}

func newFakeTemplateRepo(tmpls ...*entity.Template) *fakeTemplateRepo {
	r := &fakeTemplateRepo{templates: make(map[uint64]*entity.Template), nextID: 100}
	for _, tmpl := range tmpls {
		r.templates[tmpl.GetID()] = tmpl
	}
	return r
}

func (r *fakeTemplateRepo) Get(_ context.Context, userID, templateID uint64) (*entity.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tmpl, ok := r.templates[templateID]
	if !ok || tmpl.GetUserID() != userID {
		return nil, repo.ErrTemplateNotFound
	}
	return tmpl, nil
}

func (r *fakeTemplateRepo) GetMany(_ context.Context, f *repo.TemplateFilter) ([]*entity.Template, *entity.Pagination, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var tmpls []*entity.Template
	for _, tmpl := range r.templates {
		if tmpl.GetUserID() == *f.UserID {
			tmpls = append(tmpls, tmpl)
		}
	}
	return tmpls, &entity.Pagination{
		Limit: f.Pagination.Limit,
		Total: goutil.Int64(int64(len(tmpls))),
	}, nil
}

func (r *fakeTemplateRepo) Update(_ context.Context, tmpl *entity.Template) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.templates[tmpl.GetID()]
	if !ok || cur.GetUserID() != tmpl.GetUserID() {
		return repo.ErrTemplateNotFound
	}
	tmpl.CreateTime = cur.CreateTime
	r.templates[tmpl.GetID()] = tmpl
	return nil
}

func (r *fakeTemplateRepo) Delete(_ context.Context, userID, templateID uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.templates[templateID]
	if !ok || cur.GetUserID() != userID {
		return repo.ErrTemplateNotFound
	}
	delete(r.templates, templateID)
	return nil
}

func (r *fakeTemplateRepo) Create(_ context.Context, tmpl *entity.Template) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.templates[r.nextID] = tmpl
	return r.nextID, nil
}

type fakeUserRepo struct {
	users []*entity.User
}

func (r *fakeUserRepo) GetByID(_ context.Context, userID uint64) (*entity.User, error) {
	for _, u := range r.users {
		if u.GetID() == userID {
			return u, nil
		}
	}
	return nil, repo.ErrUserNotFound
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	for _, u := range r.users {
		if u.GetEmail() == email {
			return u, nil
		}
	}
	return nil, repo.ErrUserNotFound
}

func (r *fakeUserRepo) SetAppPassword(_ context.Context, user *entity.User) (uint64, error) {
	for _, u := range r.users {
		if u.GetEmail() == user.GetEmail() {
			u.AppPassword = user.AppPassword
			return u.GetID(), nil
		}
	}
	user.ID = goutil.Uint64(uint64(len(r.users) + 1))
	r.users = append(r.users, user)
	return user.GetID(), nil
}

type fakeSealer struct {
	err error
}

func (s *fakeSealer) Seal(plainText string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "sealed:" + plainText, nil
}

type fakeDispatcher struct {
	runs     map[string]*entity.DispatchRun
	started  []*dispatch.StartRequest
	startErr error
}

func newFakeDispatcher(runs ...*entity.DispatchRun) *fakeDispatcher {
	d := &fakeDispatcher{runs: make(map[string]*entity.DispatchRun)}
	for _, run := range runs {
		d.runs[run.ID] = run
	}
	return d
}

func (d *fakeDispatcher) Start(_ context.Context, req *dispatch.StartRequest) (*entity.DispatchRun, error) {
	if d.startErr != nil {
		return nil, d.startErr
	}
	d.started = append(d.started, req)
	return &entity.DispatchRun{
		ID:              "6f1c2f9e-4b0e-4f4b-9a43-1f2d3c4b5a69",
		UserID:          req.UserID,
		TemplateID:      req.TemplateID,
		State:           entity.RunStatePending,
		TotalRecipients: len(req.Recipients),
	}, nil
}

func (d *fakeDispatcher) Get(runID string) (*entity.DispatchRun, error) {
	run, ok := d.runs[runID]
	if !ok {
		return nil, dispatch.ErrRunNotFound
	}
	cp := *run
	cp.RecentLog = append([]string(nil), run.RecentLog...)
	return &cp, nil
}

func (d *fakeDispatcher) Cancel(runID string) (*entity.DispatchRun, error) {
	run, ok := d.runs[runID]
	if !ok {
		return nil, dispatch.ErrRunNotFound
	}
	if run.IsCompleted() {
		return nil, dispatch.ErrRunCompleted
	}
	run.Cancelled = true
	return run, nil
}

type fakeFileStore struct {
	files     map[string][]byte
	deleted   []string
	deleteErr error
}

func (f *fakeFileStore) Upload(_ context.Context, fileName string, data []byte) (string, error) {
	if f.files == nil {
		f.files = make(map[string][]byte)
	}
	f.files[fileName] = data
	return "file-" + fileName, nil
}

func (f *fakeFileStore) Delete(_ context.Context, fileID string) error {
	f.deleted = append(f.deleted, fileID)
	return f.deleteErr
}

type fakeAttachmentRepo struct {
	atts      map[uint64]*entity.UploadedAttachment
	nextID    uint64
	createErr error
}

func newFakeAttachmentRepo(atts ...*entity.UploadedAttachment) *fakeAttachmentRepo {
	r := &fakeAttachmentRepo{atts: make(map[uint64]*entity.UploadedAttachment), nextID: 10}
	for _, att := range atts {
		r.atts[att.GetID()] = att
	}
	return r
}

func (r *fakeAttachmentRepo) Create(_ context.Context, att *entity.UploadedAttachment) (uint64, error) {
	if r.createErr != nil {
		return 0, r.createErr
	}
	r.nextID++
	r.atts[r.nextID] = att
	return r.nextID, nil
}

func (r *fakeAttachmentRepo) Get(_ context.Context, userID, attachmentID uint64) (*entity.UploadedAttachment, error) {
	att, ok := r.atts[attachmentID]
	if !ok || att.GetUserID() != userID {
		return nil, repo.ErrAttachmentNotFound
	}
	return att, nil
}

func (r *fakeAttachmentRepo) GetMany(_ context.Context, userID uint64) ([]*entity.UploadedAttachment, error) {
	var atts []*entity.UploadedAttachment
	for _, att := range r.atts {
		if att.GetUserID() == userID {
			atts = append(atts, att)
		}
	}
	return atts, nil
}

func (r *fakeAttachmentRepo) Count(ctx context.Context, userID uint64) (uint64, error) {
	atts, _ := r.GetMany(ctx, userID)
	return uint64(len(atts)), nil
}

func (r *fakeAttachmentRepo) Delete(_ context.Context, userID, attachmentID uint64) error {
	if att, ok := r.atts[attachmentID]; ok && att.GetUserID() == userID {
		delete(r.atts, attachmentID)
	}
	return nil
}

type fakeReplyRepo struct {
	replies []*entity.Reply
	// replyCount mirrors the stats counter
	replyCount uint64
	err        error
}

func (r *fakeReplyRepo) CreateMany(_ context.Context, userID uint64, replies []*entity.Reply) error {
	if r.err != nil {
		return r.err
	}
	for _, reply := range replies {
		reply.ID = goutil.Uint64(uint64(len(r.replies) + 1))
		reply.UserID = goutil.Uint64(userID)
		r.replies = append(r.replies, reply)
	}
	r.replyCount += uint64(len(replies))
	return nil
}

func (r *fakeReplyRepo) GetMany(_ context.Context, f *repo.ReplyFilter) ([]*entity.Reply, *entity.Pagination, error) {
	if r.err != nil {
		return nil, nil, r.err
	}
	var replies []*entity.Reply
	for _, reply := range r.replies {
		if reply.GetUserID() != *f.UserID {
			continue
		}
		if f.Status != nil && string(reply.GetStatus()) != *f.Status {
			continue
		}
		replies = append(replies, reply)
	}
	return replies, &entity.Pagination{
		Limit: f.Pagination.Limit,
		Total: goutil.Int64(int64(len(replies))),
	}, nil
}

func (r *fakeReplyRepo) Delete(_ context.Context, userID, replyID uint64) error {
	for i, reply := range r.replies {
		if reply.GetID() == replyID && reply.GetUserID() == userID {
			r.replies = append(r.replies[:i], r.replies[i+1:]...)
			return nil
		}
	}
	return repo.ErrReplyNotFound
}

type fakeCampaignBatchRepo struct {
	batches []*entity.CampaignBatch
	err     error
}

func (r *fakeCampaignBatchRepo) RecordBatch(_ context.Context, batch *entity.CampaignBatch) (bool, error) {
	r.batches = append(r.batches, batch)
	return true, nil
}

func (r *fakeCampaignBatchRepo) GetMany(_ context.Context, userID uint64) ([]*entity.CampaignBatch, error) {
	if r.err != nil {
		return nil, r.err
	}
	var batches []*entity.CampaignBatch
	for _, b := range r.batches {
		if b.GetUserID() == userID {
			batches = append(batches, b)
		}
	}
	return batches, nil
}

type fakeStatsRepo struct {
	stats map[uint64]*entity.Stats
}

func (r *fakeStatsRepo) Get(_ context.Context, userID uint64) (*entity.Stats, error) {
	if s, ok := r.stats[userID]; ok {
		return s, nil
	}
	return &entity.Stats{UserID: goutil.Uint64(userID), Sent: goutil.Uint64(0), Replies: goutil.Uint64(0)}, nil
}

var errDB = errors.New("db down")

func newTemplate(id uint64, name, subject, body string) *entity.Template {
	return &entity.Template{
		ID:      goutil.Uint64(id),
		UserID:  goutil.Uint64(testUserID),
		Name:    goutil.String(name),
		Subject: goutil.String(subject),
		Body:    goutil.String(body),
	}
}

func ctxInfo(userID uint64) ContextInfo {
	return ContextInfo{UserID: goutil.Uint64(userID)}
}
