package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"glowgirl-be/internal/entity"
	"glowgirl-be/internal/repository/contract"
	"glowgirl-be/internal/repository/specification"
	"glowgirl-be/internal/repository/unitofwork"
	"glowgirl-be/pkg/countdown"
	"glowgirl-be/pkg/embedding"
	"glowgirl-be/pkg/events"

	"github.com/google/uuid"
)

// store is an in-memory stand-in for the database behind the unit of work.
type store struct {
	mu         sync.Mutex
	users      []*entity.User
	sessions   []*entity.GlowSession
	embeddings []*entity.ConversationEmbedding
	failWrites error
}

func newStore() *store { return &store{} }

func (s *store) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUoW{store: s}
}

func (s *store) sessionsFor(userID uuid.UUID) []*entity.GlowSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*entity.GlowSession
	for _, gs := range s.sessions {
		if gs.UserId == userID {
			out = append(out, gs)
		}
	}
	return out
}

func (s *store) embeddingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.embeddings)
}

type fakeUoW struct {
	store *store
}

func (u *fakeUoW) Begin(ctx context.Context) error { return nil }
func (u *fakeUoW) Commit() error                   { return nil }
func (u *fakeUoW) Rollback() error                 { return nil }

func (u *fakeUoW) UserRepository() contract.UserRepository {
	return &fakeUserRepo{store: u.store}
}

func (u *fakeUoW) GlowSessionRepository() contract.GlowSessionRepository {
	return &fakeGlowRepo{store: u.store}
}

func (u *fakeUoW) ConversationEmbeddingRepository() contract.ConversationEmbeddingRepository {
	return &fakeEmbeddingRepo{store: u.store}
}

type fakeUserRepo struct {
	store *store
}

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.failWrites != nil {
		return r.store.failWrites
	}
	copied := *user
	r.store.users = append(r.store.users, &copied)
	return nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *entity.User) error {
	return errors.New("not implemented")
}

func (r *fakeUserRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return errors.New("not implemented")
}

func (r *fakeUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r *fakeUserRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var out []*entity.User
	for _, u := range r.store.users {
		if userMatches(u, specs) {
			copied := *u
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	all, err := r.FindAll(ctx, specs...)
	return int64(len(all)), err
}

func userMatches(u *entity.User, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByEmail:
			if u.Email != strings.ToLower(strings.TrimSpace(s.Email)) {
				return false
			}
		case specification.ByUsername:
			if u.Username != s.Username {
				return false
			}
		case specification.ByID:
			if u.Id != s.ID {
				return false
			}
		}
	}
	return true
}

type fakeGlowRepo struct {
	store *store
}

func (r *fakeGlowRepo) Create(ctx context.Context, gs *entity.GlowSession) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.failWrites != nil {
		return r.store.failWrites
	}
	copied := *gs
	r.store.sessions = append(r.store.sessions, &copied)
	return nil
}

func (r *fakeGlowRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.GlowSession, error) {
	all, err := r.FindAll(ctx, specs...)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (r *fakeGlowRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.GlowSession, error) {
	r.store.mu.Lock()
	var out []*entity.GlowSession
	for _, gs := range r.store.sessions {
		if glowMatches(gs, specs) {
			out = append(out, gs)
		}
	}
	r.store.mu.Unlock()

	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.OrderBy:
			if s.Field == "finished_at" {
				sort.SliceStable(out, func(i, j int) bool {
					if s.Desc {
						return out[i].FinishedAt.After(out[j].FinishedAt)
					}
					return out[i].FinishedAt.Before(out[j].FinishedAt)
				})
			}
		case specification.Pagination:
			if s.Offset >= len(out) {
				out = nil
				continue
			}
			out = out[s.Offset:]
			if s.Limit > 0 && s.Limit < len(out) {
				out = out[:s.Limit]
			}
		}
	}
	return out, nil
}

func (r *fakeGlowRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var n int64
	for _, gs := range r.store.sessions {
		if glowMatches(gs, specs) {
			n++
		}
	}
	return n, nil
}

func glowMatches(gs *entity.GlowSession, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.UserOwnedBy:
			if gs.UserId != s.UserID {
				return false
			}
		case specification.ByGlowStatus:
			if string(gs.Status) != s.Status {
				return false
			}
		}
	}
	return true
}

type fakeEmbeddingRepo struct {
	store *store
}

func (r *fakeEmbeddingRepo) Create(ctx context.Context, e *entity.ConversationEmbedding) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if r.store.failWrites != nil {
		return r.store.failWrites
	}
	copied := *e
	r.store.embeddings = append(r.store.embeddings, &copied)
	return nil
}

func (r *fakeEmbeddingRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ConversationEmbedding, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, e := range r.store.embeddings {
		match := true
		for _, spec := range specs {
			if s, ok := spec.(specification.BySessionID); ok && e.SessionId != s.SessionID {
				match = false
			}
		}
		if match {
			return e, nil
		}
	}
	return nil, nil
}

func (r *fakeEmbeddingRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(r.store.embeddingCount()), nil
}

type fakeEmbedder struct {
	dims int
	err  error
	text string
}

func (f *fakeEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.text = text
	dims := f.dims
	if dims == 0 {
		dims = embedding.Dimensions
	}
	values := make([]float32, dims)
	values[0] = 1
	return &embedding.EmbeddingResponse{Embedding: embedding.EmbeddingResponseEmbedding{Values: values}}, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

func (p *recordingPublisher) last() events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.events) == 0 {
		return nil
	}
	return p.events[len(p.events)-1]
}

type fakeRevoker struct {
	mu      sync.Mutex
	revoked map[string]time.Time
}

func newFakeRevoker() *fakeRevoker {
	return &fakeRevoker{revoked: make(map[string]time.Time)}
}

func (f *fakeRevoker) Revoke(ctx context.Context, token string, expiresAt time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked[token] = expiresAt
}

func (f *fakeRevoker) IsRevoked(ctx context.Context, token string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.revoked[token]
	return ok
}

type recordingDelivery struct {
	mu     sync.Mutex
	frames map[uuid.UUID][][]byte
}

func newRecordingDelivery() *recordingDelivery {
	return &recordingDelivery{frames: make(map[uuid.UUID][][]byte)}
}

func (d *recordingDelivery) SendToUser(userID uuid.UUID, payload []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.frames[userID] = append(d.frames[userID], payload)
}

func (d *recordingDelivery) framesFor(userID uuid.UUID) [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([][]byte(nil), d.frames[userID]...)
}

// manualCountdown lets a test decide when a session's countdown expires.
type manualCountdown struct {
	mu      sync.Mutex
	handler countdown.Handler
	running bool
}

func (m *manualCountdown) Start(duration int, handler countdown.Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = handler
	m.running = true
}

func (m *manualCountdown) Cancel() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
}

func (m *manualCountdown) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *manualCountdown) expire() {
	m.mu.Lock()
	handler, running := m.handler, m.running
	m.running = false
	m.mu.Unlock()
	if running && handler != nil {
		handler(countdown.Event{Kind: countdown.KindTick, Remaining: 0})
		handler(countdown.Event{Kind: countdown.KindExpired})
	}
}
