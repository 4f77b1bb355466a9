package handlers

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/Rocknpaper/Blog-site-backend/internal/apperr"
	"github.com/Rocknpaper/Blog-site-backend/internal/models"
	"github.com/Rocknpaper/Blog-site-backend/internal/notify"
	"github.com/Rocknpaper/Blog-site-backend/internal/reaction"
)

type memUsers struct {
	mu    sync.Mutex
	byID  map[string]*models.User
	calls int
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[string]*models.User{}}
}

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == u.Email || existing.Username == u.Username {
			return apperr.AlreadyExists("Username or email already exists")
		}
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.InvalidIdentifier(id, err)
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, apperr.NotFound("No User Found")
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("No User Found")
}

func (m *memUsers) UpdatePassword(_ context.Context, id, digest string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return apperr.NotFound("No User Found")
	}
	u.Password = digest
	u.RecoveryCode = ""
	u.RecoveryIssuedAt = nil
	u.RecoveryAttempts = 0
	return nil
}

func (m *memUsers) SetRecoveryCode(_ context.Context, id, code string, issuedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return apperr.NotFound("No User Found")
	}
	u.RecoveryCode = code
	u.RecoveryIssuedAt = &issuedAt
	u.RecoveryAttempts = 0
	return nil
}

func (m *memUsers) RecordRecoveryMiss(_ context.Context, id string, maxAttempts int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return apperr.NotFound("No User Found")
	}
	u.RecoveryAttempts++
	if u.RecoveryAttempts >= maxAttempts {
		u.RecoveryCode = ""
		u.RecoveryIssuedAt = nil
	}
	return nil
}

type memPosts struct {
	mu    sync.Mutex
	posts []models.Post
}

func (m *memPosts) Create(_ context.Context, p *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = bson.NewObjectID()
	m.posts = append(m.posts, *p)
	return nil
}

func (m *memPosts) FindAll(context.Context) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Post{}, m.posts...), nil
}

func (m *memPosts) FindByUser(_ context.Context, userID string) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Post{}
	for _, p := range m.posts {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPosts) FindByID(_ context.Context, id string) (*models.Post, error) {
	oid, err := models.ParseID(id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.posts {
		if p.ID == oid {
			cp := p
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("No Blog Found")
}

func (m *memPosts) Update(_ context.Context, id, userID string, req models.PostBlogRequest) error {
	return m.owned(id, userID, func(i int) {
		m.posts[i].Title = req.Title
		m.posts[i].Content = req.Content
	})
}

func (m *memPosts) Delete(_ context.Context, id, userID string) error {
	return m.owned(id, userID, func(i int) {
		m.posts = append(m.posts[:i], m.posts[i+1:]...)
	})
}

func (m *memPosts) owned(id, userID string, fn func(i int)) error {
	oid, err := models.ParseID(id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, p := range m.posts {
		if p.ID != oid {
			continue
		}
		if p.UserID != userID {
			return apperr.Forbidden("Only the author can change this Blog")
		}
		fn(i)
		return nil
	}
	return apperr.NotFound("No Blog Found")
}

type memComments struct {
	mu       sync.Mutex
	comments []models.Comment
}

func (m *memComments) Create(_ context.Context, cm *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cm.ID = bson.NewObjectID()
	m.comments = append(m.comments, *cm)
	return nil
}

func (m *memComments) FindByBlog(_ context.Context, blogID string) ([]models.Comment, error) {
	oid, err := models.ParseID(blogID)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Comment{}
	for _, cm := range m.comments {
		if cm.BlogID == oid {
			out = append(out, cm)
		}
	}
	return out, nil
}

func (m *memComments) find(id string) (int, error) {
	oid, err := models.ParseID(id)
	if err != nil {
		return -1, err
	}
	for i, cm := range m.comments {
		if cm.ID == oid {
			return i, nil
		}
	}
	return -1, apperr.NotFound("No Comment Found")
}

func (m *memComments) Update(_ context.Context, id, userID, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, err := m.find(id)
	if err != nil {
		return err
	}
	if m.comments[i].UserID != userID {
		return apperr.Forbidden("Only the author can change this Comment")
	}
	m.comments[i].Content = content
	return nil
}

func (m *memComments) Delete(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, err := m.find(id)
	if err != nil {
		return err
	}
	if m.comments[i].UserID != userID {
		return apperr.Forbidden("Only the author can change this Comment")
	}
	m.comments = append(m.comments[:i], m.comments[i+1:]...)
	return nil
}

func (m *memComments) AppendReply(_ context.Context, commentID string, r models.Reply) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, err := m.find(commentID)
	if err != nil {
		return err
	}
	m.comments[i].Replies = append(m.comments[i].Replies, r)
	return nil
}

func (m *memComments) UpdateReply(_ context.Context, commentID, replyID, userID, content string) error {
	return m.reply(commentID, replyID, userID, func(cm *models.Comment, j int) {
		cm.Replies[j].Content = content
	})
}

func (m *memComments) DeleteReply(_ context.Context, commentID, replyID, userID string) error {
	return m.reply(commentID, replyID, userID, func(cm *models.Comment, j int) {
		cm.Replies = append(cm.Replies[:j], cm.Replies[j+1:]...)
	})
}

func (m *memComments) reply(commentID, replyID, userID string, fn func(*models.Comment, int)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, err := m.find(commentID)
	if err != nil {
		return err
	}
	rid, err := models.ParseID(replyID)
	if err != nil {
		return err
	}
	cm := &m.comments[i]
	for j, r := range cm.Replies {
		if r.ID != rid {
			continue
		}
		if r.UserID != userID {
			return apperr.Forbidden("Only the author can change this Reply")
		}
		fn(cm, j)
		return nil
	}
	return apperr.NotFound("No Reply Found")
}

type appliedReaction struct {
	target reaction.Target
	userID string
	kind   reaction.Kind
	dir    reaction.Direction
}

type recordingLedger struct {
	calls []appliedReaction
	err   error
}

func (r *recordingLedger) Apply(_ context.Context, t reaction.Target, userID string, kind reaction.Kind, dir reaction.Direction) (reaction.Outcome, error) {
	r.calls = append(r.calls, appliedReaction{target: t, userID: userID, kind: kind, dir: dir})
	if r.err != nil {
		return reaction.Unchanged, r.err
	}
	return reaction.Applied, nil
}

type recordingDispatcher struct {
	notices []notify.RecoveryNotice
	err     error
}

func (d *recordingDispatcher) Dispatch(_ context.Context, n notify.RecoveryNotice) error {
	d.notices = append(d.notices, n)
	return d.err
}

type memAvatars struct {
	names   []string
	body    []byte
	deleted []string
}

func (m *memAvatars) UploadAvatar(_ context.Context, name string, _ int64, r io.Reader, _ string) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.names = append(m.names, name)
	m.body = b
	return "http://files.local/avatars/" + name, nil
}

func (m *memAvatars) DeleteAvatar(_ context.Context, url string) error {
	m.deleted = append(m.deleted, url)
	return nil
}
