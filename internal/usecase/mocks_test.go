//go:build !integration

package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"gym-membership/internal/domain"
	"gym-membership/internal/domain/model"
	"gym-membership/internal/domain/ports/adapter"
	"gym-membership/internal/domain/ports/repository"
	"gym-membership/internal/infra/i18n"
)

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func date(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

// ---- TransactionManager ----

type fakeTM struct{ calls int }

func (f *fakeTM) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	f.calls++
	return fn(ctx, "tx")
}

// ---- Profiles ----

type memProfileRepo struct {
	mu    sync.Mutex
	items map[string]model.Profile
	saves int
}

func newMemProfileRepo() *memProfileRepo { return &memProfileRepo{items: map[string]model.Profile{}} }

func (r *memProfileRepo) put(p *model.Profile) { r.items[p.ID] = *p }

func (r *memProfileRepo) Save(ctx context.Context, tx repository.Tx, p *model.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves++
	r.items[p.ID] = *p
	return nil
}

func (r *memProfileRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *memProfileRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.items {
		if strings.EqualFold(p.Email, email) {
			cp := p
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memProfileRepo) match(p model.Profile, f repository.ProfileFilter) bool {
	if f.Active != nil && p.IsActive != *f.Active {
		return false
	}
	if f.Role != "" && p.Role != f.Role {
		return false
	}
	if s := strings.ToLower(f.Search); s != "" && !strings.Contains(strings.ToLower(p.Name), s) && !strings.Contains(p.Email, s) {
		return false
	}
	if !f.CreatedBefore.IsZero() && !p.CreatedAt.Before(f.CreatedBefore) {
		return false
	}
	return true
}

func (r *memProfileRepo) filtered(f repository.ProfileFilter) []*model.Profile {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Profile
	for _, p := range r.items {
		if r.match(p, f) {
			cp := p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *memProfileRepo) List(ctx context.Context, tx repository.Tx, f repository.ProfileFilter) ([]*model.Profile, error) {
	all := r.filtered(f)
	if f.Offset >= len(all) {
		return nil, nil
	}
	all = all[f.Offset:]
	if f.Limit > 0 && len(all) > f.Limit {
		all = all[:f.Limit]
	}
	return all, nil
}

func (r *memProfileRepo) Count(ctx context.Context, tx repository.Tx, f repository.ProfileFilter) (int, error) {
	return len(r.filtered(f)), nil
}

func (r *memProfileRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *memProfileRepo) ListLapsed(ctx context.Context, tx repository.Tx, now time.Time) ([]*model.Profile, error) {
	var out []*model.Profile
	for _, p := range r.filtered(repository.ProfileFilter{}) {
		if p.IsActive && p.HasExpiry() && p.ExpiredAt.Before(now) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memProfileRepo) DeactivateByIDs(ctx context.Context, tx repository.Tx, ids []string, at time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, id := range ids {
		p, ok := r.items[id]
		if !ok || !p.IsActive || !p.ExpiredAt.Before(at) {
			continue
		}
		p.IsActive = false
		p.UpdatedAt = at
		r.items[id] = p
		n++
	}
	return n, nil
}

func (r *memProfileRepo) ListExpiring(ctx context.Context, tx repository.Tx, from, to time.Time) ([]*model.Profile, error) {
	var out []*model.Profile
	for _, p := range r.filtered(repository.ProfileFilter{}) {
		if p.IsActive && p.HasExpiry() && !p.ExpiredAt.Before(from) && !p.ExpiredAt.After(to) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiredAt.Before(out[j].ExpiredAt) })
	return out, nil
}

func (r *memProfileRepo) CountCreatedBetween(ctx context.Context, tx repository.Tx, from, to time.Time) (int, error) {
	n := 0
	for _, p := range r.filtered(repository.ProfileFilter{Role: model.RoleUser}) {
		if !p.CreatedAt.Before(from) && p.CreatedAt.Before(to) {
			n++
		}
	}
	return n, nil
}

// ---- Plans ----

type memPlanRepo struct {
	mu    sync.Mutex
	order []string
	items map[string]model.Plan
}

func newMemPlanRepo(plans ...*model.Plan) *memPlanRepo {
	r := &memPlanRepo{items: map[string]model.Plan{}}
	for _, p := range plans {
		_ = r.Save(context.Background(), repository.NoTX, p)
	}
	return r
}

func (r *memPlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[p.ID]; !ok {
		r.order = append(r.order, p.ID)
	}
	r.items[p.ID] = *p
	return nil
}

func (r *memPlanRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *memPlanRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*model.Plan, 0, len(r.order))
	for _, id := range r.order {
		p := r.items[id]
		out = append(out, &p)
	}
	return out, nil
}

func (r *memPlanRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.items, id)
	for i, o := range r.order {
		if o == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// ---- Transactions ----

type memTrxRepo struct {
	mu       sync.Mutex
	items    map[string]model.Transaction
	profiles *memProfileRepo
	plans    *memPlanRepo
	saveErr  error
}

func newMemTrxRepo(profiles *memProfileRepo, plans *memPlanRepo) *memTrxRepo {
	return &memTrxRepo{items: map[string]model.Transaction{}, profiles: profiles, plans: plans}
}

func (r *memTrxRepo) all() []model.Transaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Transaction, 0, len(r.items))
	for _, t := range r.items {
		out = append(out, t)
	}
	return out
}

func (r *memTrxRepo) Save(ctx context.Context, tx repository.Tx, t *model.Transaction) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[t.ID] = *t
	return nil
}

func (r *memTrxRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &t, nil
}

func (r *memTrxRepo) UpdateStatus(ctx context.Context, tx repository.Tx, id string, from, to model.TransactionStatus, at time.Time) error {
	if !from.CanTransition(to) {
		return domain.ErrInvalidTransition
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.items[id]
	if !ok {
		return domain.ErrNotFound
	}
	if t.Status != from {
		return domain.ErrInvalidTransition
	}
	t.Status = to
	t.UpdatedAt = at
	r.items[id] = t
	return nil
}

func (r *memTrxRepo) view(t model.Transaction) *model.TransactionView {
	v := &model.TransactionView{Transaction: t}
	if p, err := r.profiles.FindByID(context.Background(), nil, t.UserID); err == nil {
		v.MemberName, v.MemberEmail, v.MemberExpiredAt = p.Name, p.Email, p.ExpiredAt
	}
	if t.PlanID != nil {
		if pl, err := r.plans.FindByID(context.Background(), nil, *t.PlanID); err == nil {
			v.PlanName, v.PlanDuration = pl.Name, pl.DurationDays
		}
	}
	return v
}

func (r *memTrxRepo) List(ctx context.Context, tx repository.Tx, f repository.TransactionFilter) ([]*model.TransactionView, error) {
	var out []*model.TransactionView
	for _, t := range r.all() {
		if f.UserID != "" && t.UserID != f.UserID {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if !f.From.IsZero() && t.CreatedAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !t.CreatedAt.Before(f.To) {
			continue
		}
		out = append(out, r.view(t))
	}
	sort.Slice(out, func(i, j int) bool {
		if f.Ascending {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *memTrxRepo) CountByStatus(ctx context.Context, tx repository.Tx, status model.TransactionStatus, from, to time.Time) (int, error) {
	list, _ := r.List(ctx, tx, repository.TransactionFilter{Status: status, From: from, To: to})
	return len(list), nil
}

func (r *memTrxRepo) SumApproved(ctx context.Context, tx repository.Tx, from, to time.Time) (int64, error) {
	list, _ := r.List(ctx, tx, repository.TransactionFilter{Status: model.TransactionStatusApproved, From: from, To: to})
	var sum int64
	for _, v := range list {
		sum += v.Amount
	}
	return sum, nil
}

func (r *memTrxRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.TransactionView, error) {
	list, _ := r.List(ctx, tx, repository.TransactionFilter{Status: model.TransactionStatusPending, To: olderThan, Ascending: true, Limit: limit})
	return list, nil
}

// ---- Identity ----

type memIdentity struct {
	mu    sync.Mutex
	users map[string]adapter.Credentials // by email
	err   error
}

func newMemIdentity() *memIdentity { return &memIdentity{users: map[string]adapter.Credentials{}} }

func (m *memIdentity) CreateUser(ctx context.Context, tx any, c adapter.Credentials) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	email := strings.ToLower(c.Email)
	if _, ok := m.users[email]; ok {
		return "", domain.ErrEmailTaken
	}
	if len(c.Password) < 6 {
		return "", domain.ErrInvalidArgument
	}
	m.users[email] = c
	return c.UserID, nil
}

func (m *memIdentity) Authenticate(ctx context.Context, email, password string) (string, model.Role, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.users[strings.ToLower(email)]
	if !ok || c.Password != password {
		return "", "", domain.ErrInvalidCredentials
	}
	return c.UserID, c.Role, nil
}

func (m *memIdentity) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for email, c := range m.users {
		if c.UserID != userID {
			continue
		}
		if c.Password != oldPassword {
			return domain.ErrInvalidCredentials
		}
		c.Password = newPassword
		m.users[email] = c
		return nil
	}
	return domain.ErrNotFound
}

func (m *memIdentity) SetPassword(ctx context.Context, userID, newPassword string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(newPassword) < adapter.MinPasswordLen {
		return domain.ErrInvalidArgument
	}
	for email, c := range m.users {
		if c.UserID == userID {
			c.Password = newPassword
			m.users[email] = c
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *memIdentity) DeleteUser(ctx context.Context, tx any, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for email, c := range m.users {
		if c.UserID == userID {
			delete(m.users, email)
			return nil
		}
	}
	return domain.ErrNotFound
}

// ---- Locker / notifier / proofs ----

type fakeLocker struct {
	mu     sync.Mutex
	locked []string
	held   map[string]bool
	err    error
}

func (l *fakeLocker) Lock(ctx context.Context, id string) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held == nil {
		l.held = map[string]bool{}
	}
	l.locked = append(l.locked, id)
	l.held[id] = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, id)
	}, nil
}

type fakeNotifier struct {
	msgs []string
	err  error
}

func (n *fakeNotifier) NotifyAdmins(ctx context.Context, text string) error {
	if n.err != nil {
		return n.err
	}
	n.msgs = append(n.msgs, text)
	return nil
}

type memProofStore struct {
	files map[string][]byte
}

func (s *memProofStore) Save(ctx context.Context, userID, filename string, r io.Reader) (string, error) {
	if s.files == nil {
		s.files = map[string][]byte{}
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if len(b) == 0 {
		return "", domain.ErrProofRequired
	}
	url := "/proofs/" + userID + "-" + filename
	s.files[url] = b
	return url, nil
}

func (s *memProofStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	b, ok := s.files[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (s *memProofStore) Delete(ctx context.Context, name string) error {
	delete(s.files, name)
	return nil
}

// ---- Auth ----

type fakeTokens struct{}

func (fakeTokens) Issue(userID string, role model.Role) (string, time.Time, error) {
	return "token-" + userID + "-" + string(role), time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), nil
}

type fakeLimiter struct {
	counts map[string]int
	err    error
}

func (l *fakeLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	if l.counts == nil {
		l.counts = map[string]int{}
	}
	l.counts[key]++
	return l.counts[key] <= limit, nil
}

func (l *fakeLimiter) Reset(ctx context.Context, key string) error {
	delete(l.counts, key)
	return nil
}

type memResetTokens struct {
	tokens map[string]string
	ttl    time.Duration
}

func (s *memResetTokens) Put(ctx context.Context, token, userID string, ttl time.Duration) error {
	if s.tokens == nil {
		s.tokens = map[string]string{}
	}
	s.tokens[token] = userID
	s.ttl = ttl
	return nil
}

func (s *memResetTokens) Take(ctx context.Context, token string) (string, error) {
	id, ok := s.tokens[token]
	if !ok {
		return "", domain.ErrInvalidResetToken
	}
	delete(s.tokens, token)
	return id, nil
}

var errBoom = errors.New("boom")

// ---- fixture ----

type fixture struct {
	now      time.Time
	profiles *memProfileRepo
	plans    *memPlanRepo
	trx      *memTrxRepo
	identity *memIdentity
	locker   *fakeLocker
	notifier *fakeNotifier
	proofs   *memProofStore
	resets   *memResetTokens
	tm       *fakeTM
}

func newFixture(now time.Time, plans ...*model.Plan) *fixture {
	profiles := newMemProfileRepo()
	planRepo := newMemPlanRepo(plans...)
	return &fixture{
		now:      now,
		profiles: profiles,
		plans:    planRepo,
		trx:      newMemTrxRepo(profiles, planRepo),
		identity: newMemIdentity(),
		locker:   &fakeLocker{},
		notifier: &fakeNotifier{},
		proofs:   &memProofStore{},
		resets:   &memResetTokens{},
		tm:       &fakeTM{},
	}
}

func (f *fixture) members() *memberUC {
	return NewMemberUseCase(f.profiles, f.plans, f.trx, f.identity, f.locker, f.tm, fixedClock(f.now), newTestLogger())
}

func (f *fixture) payments() *paymentUC {
	return NewPaymentUseCase(f.trx, f.plans, f.profiles, f.proofs, f.notifier, i18n.Default(), f.locker, f.tm, fixedClock(f.now), newTestLogger())
}

// member stores a USER profile with the given expiry.
func (f *fixture) member(id string, exp time.Time, active bool) *model.Profile {
	p := &model.Profile{
		ID: id, Name: "Member " + id, Email: id + "@gym.id", IsActive: active, ExpiredAt: exp,
		MemberType: model.DefaultMemberType, Role: model.RoleUser, CreatedAt: f.now.AddDate(0, -1, 0),
	}
	f.profiles.put(p)
	return p
}

func newTestPlan(id, name string, price int64, days int, created time.Time, active bool) *model.Plan {
	return &model.Plan{ID: id, Name: name, Price: price, DurationDays: days, IsActive: active, CreatedAt: created}
}
