//go:build !integration

package apiv1_test

import (
	"bytes"
	"context"
	"io"
	"time"

	"gym-membership/internal/domain"
	"gym-membership/internal/domain/model"
	"gym-membership/internal/domain/ports/repository"
	"gym-membership/internal/usecase"
)

// ---- members ----

type stubMembers struct {
	created    *usecase.CreateMemberInput
	updated    *usecase.UpdateMemberInput
	lastFilter repository.ProfileFilter
	profiles   map[string]*model.Profile
	err        error
}

func newStubMembers(ps ...*model.Profile) *stubMembers {
	m := &stubMembers{profiles: map[string]*model.Profile{}}
	for _, p := range ps {
		m.profiles[p.ID] = p
	}
	return m
}

func (m *stubMembers) Create(ctx context.Context, in usecase.CreateMemberInput) (*model.Profile, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.created = &in
	return &model.Profile{ID: "new", Name: in.Name, Email: in.Email, Role: model.RoleUser}, nil
}

func (m *stubMembers) Update(ctx context.Context, in usecase.UpdateMemberInput) (*model.Profile, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.updated = &in
	p, ok := m.profiles[in.UserID]
	if !ok {
		return nil, domain.ErrMemberNotFound
	}
	return p, nil
}

func (m *stubMembers) Extend(ctx context.Context, userID string, days int, amount int64) (*model.Profile, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil, domain.ErrMemberNotFound
	}
	cp := *p
	cp.ExpiredAt = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, days)
	cp.IsActive = true
	return &cp, nil
}

func (m *stubMembers) Delete(ctx context.Context, userID string) error {
	if _, ok := m.profiles[userID]; !ok {
		return domain.ErrMemberNotFound
	}
	delete(m.profiles, userID)
	return nil
}

func (m *stubMembers) Get(ctx context.Context, userID string) (*model.Profile, error) {
	p, ok := m.profiles[userID]
	if !ok {
		return nil, domain.ErrMemberNotFound
	}
	return p, nil
}

func (m *stubMembers) List(ctx context.Context, f repository.ProfileFilter) ([]*model.Profile, int, error) {
	m.lastFilter = f
	var out []*model.Profile
	for _, p := range m.profiles {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *stubMembers) ExpireLapsed(ctx context.Context) ([]*model.Profile, error) {
	return []*model.Profile{{ID: "gone", Name: "Gone"}}, nil
}

func (m *stubMembers) Expiring(ctx context.Context, withinDays int) ([]usecase.ExpiringMember, error) {
	return []usecase.ExpiringMember{{Profile: &model.Profile{ID: "soon", Name: "Soon"}, DaysLeft: withinDays, Urgency: "SOON"}}, nil
}

// ---- plans ----

type stubPlans struct {
	plans      []*model.Plan
	activeOnly *bool
	err        error
}

func (s *stubPlans) Create(ctx context.Context, name string, price int64, durationDays int) (*model.Plan, error) {
	if s.err != nil {
		return nil, s.err
	}
	return model.NewPlan("", name, price, durationDays)
}

func (s *stubPlans) Get(ctx context.Context, id string) (*model.Plan, error) {
	for _, p := range s.plans {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, domain.ErrPlanNotFound
}

func (s *stubPlans) List(ctx context.Context, activeOnly bool) ([]*model.Plan, error) {
	s.activeOnly = &activeOnly
	return s.plans, nil
}

func (s *stubPlans) Update(ctx context.Context, id string, upd usecase.PlanUpdate) (*model.Plan, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	cp := *p
	if upd.Price != nil {
		cp.Price = *upd.Price
	}
	return &cp, nil
}

func (s *stubPlans) Deactivate(ctx context.Context, id string) error {
	_, err := s.Get(ctx, id)
	return err
}

func (s *stubPlans) Fallback(ctx context.Context) (*model.Plan, error) {
	if len(s.plans) == 0 {
		return nil, domain.ErrPlanUnresolvable
	}
	return s.plans[0], nil
}

// ---- payments ----

type stubPayments struct {
	purchasedPlan  string
	purchasedProof []byte
	pendingCalls   int
	periodMonth    string
	periodStatus   model.TransactionStatus
	approveErr     error
}

func (s *stubPayments) Purchase(ctx context.Context, userID, planID string, proof usecase.ProofUpload) (*model.Transaction, error) {
	b, _ := io.ReadAll(proof.Body)
	s.purchasedPlan, s.purchasedProof = planID, b
	return &model.Transaction{ID: "t-new", UserID: userID, PlanID: &planID, Amount: 150000, Status: model.TransactionStatusPending, ProofURL: "/proofs/" + userID + "-x.jpg"}, nil
}

func (s *stubPayments) Approve(ctx context.Context, trxID string) (*model.Transaction, *model.Profile, error) {
	if s.approveErr != nil {
		return nil, nil, s.approveErr
	}
	return &model.Transaction{ID: trxID, Status: model.TransactionStatusApproved},
		&model.Profile{ID: "m1", IsActive: true, ExpiredAt: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)}, nil
}

func (s *stubPayments) Reject(ctx context.Context, trxID string) (*model.Transaction, error) {
	return &model.Transaction{ID: trxID, Status: model.TransactionStatusRejected}, nil
}

func (s *stubPayments) ListPending(ctx context.Context) ([]*model.TransactionView, error) {
	s.pendingCalls++
	return []*model.TransactionView{{Transaction: model.Transaction{ID: "p1", Status: model.TransactionStatusPending}, MemberName: "Budi"}}, nil
}

func (s *stubPayments) ListByUser(ctx context.Context, userID string) ([]*model.TransactionView, error) {
	return []*model.TransactionView{{Transaction: model.Transaction{ID: "mine", UserID: userID}}}, nil
}

func (s *stubPayments) ListByPeriod(ctx context.Context, month string, status model.TransactionStatus) ([]*model.TransactionView, error) {
	s.periodMonth, s.periodStatus = month, status
	return nil, nil
}

// ---- stats / reports ----

type stubStats struct{ months int }

func (s *stubStats) Dashboard(ctx context.Context, month string) (*model.Dashboard, error) {
	if month == "bad" {
		return nil, domain.ErrInvalidArgument
	}
	return &model.Dashboard{Month: "2025-06", Pending: 2, ActiveMembers: 10, Revenue: 500000}, nil
}

func (s *stubStats) Analytics(ctx context.Context, months int) (*model.Analytics, error) {
	s.months = months
	return &model.Analytics{
		MonthlyRevenue: []model.MonthlyPoint{{Month: "2025-06", Revenue: 0}},
		MemberGrowth:   []model.MonthlyPoint{{Month: "2025-06", New: 1, Total: 3}},
		TotalMembers:   3,
	}, nil
}

type stubReports struct{}

func (stubReports) Monthly(ctx context.Context, month string) (*usecase.MonthlyReport, error) {
	return &usecase.MonthlyReport{
		Month: "2025-05",
		Rows:  []usecase.ReportRow{{Date: time.Date(2025, 5, 3, 0, 0, 0, 0, time.UTC), MemberName: "Budi", MemberEmail: "b@gym.id", PlanName: "Bulanan", Amount: 150000, Status: "LUNAS"}},
		Total: 150000,
	}, nil
}

// ---- auth ----

type stubAuth struct {
	err        error
	resetEmail string
}

func (a *stubAuth) SignUp(ctx context.Context, in usecase.SignUpInput) (*model.Profile, error) {
	if a.err != nil {
		return nil, a.err
	}
	return &model.Profile{ID: "u-new", Name: in.Name, Email: in.Email, Role: model.RoleUser}, nil
}

func (a *stubAuth) Login(ctx context.Context, email, password string) (*usecase.Session, error) {
	if a.err != nil {
		return nil, a.err
	}
	return &usecase.Session{Token: "signed-token", ExpiresAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), Profile: &model.Profile{ID: "u1", Email: email, Role: model.RoleUser}}, nil
}

func (a *stubAuth) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword != "rahasia" {
		return domain.ErrInvalidCredentials
	}
	return nil
}

func (a *stubAuth) RequestPasswordReset(ctx context.Context, email string) error {
	if a.err != nil {
		return a.err
	}
	a.resetEmail = email
	return nil
}

func (a *stubAuth) ResetPassword(ctx context.Context, token, newPassword string) error {
	if a.err != nil {
		return a.err
	}
	if token != "tok-1" {
		return domain.ErrInvalidResetToken
	}
	return nil
}

// ---- proofs ----

type memProofs map[string][]byte

func (m memProofs) Save(ctx context.Context, userID, filename string, r io.Reader) (string, error) {
	return "", nil
}

func (m memProofs) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	b, ok := m[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (m memProofs) Delete(ctx context.Context, name string) error {
	delete(m, name)
	return nil
}
