package apiv1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/oapi-codegen/runtime"

	"gym-membership/internal/domain/model"
	"gym-membership/internal/usecase"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json names in validation errors
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return validate.Struct(dst)
}

// pathID binds the {id} path segment.
func pathID(r *http.Request) (string, error) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return "", fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return id, nil
}

// queryParam binds an optional query parameter into dest; dest keeps its value when absent.
func queryParam(r *http.Request, name string, dest any) error {
	if err := runtime.BindQueryParameter("form", true, false, name, r.URL.Query(), dest); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q", errBadRequest, s)
	}
	return t, nil
}

// ---- requests ----

type signUpRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,max=30"`
	Password    string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=6"`
}

type createMemberRequest struct {
	Name            string `json:"name" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	PhoneNumber     string `json:"phone_number" validate:"omitempty,max=30"`
	DurationDays    int    `json:"duration_days" validate:"gte=0"`
	PlanID          string `json:"plan_id"`
	Amount          int64  `json:"amount" validate:"gte=0"`
	TransactionDate string `json:"transaction_date" validate:"omitempty,datetime=2006-01-02"`
}

func (req createMemberRequest) toInput() (usecase.CreateMemberInput, error) {
	in := usecase.CreateMemberInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		PhoneNumber:  req.PhoneNumber,
		DurationDays: req.DurationDays,
		PlanID:       req.PlanID,
		Amount:       req.Amount,
	}
	if req.TransactionDate != "" {
		d, err := parseDate(req.TransactionDate)
		if err != nil {
			return in, err
		}
		in.TransactionDate = d
	}
	return in, nil
}

type updateMemberRequest struct {
	Name            string  `json:"name" validate:"max=100"`
	PhoneNumber     string  `json:"phone_number" validate:"max=30"`
	MemberType      string  `json:"member_type" validate:"max=30"`
	IsActive        *bool   `json:"is_active"`
	ExpiredAt       *string `json:"expired_at" validate:"omitempty,datetime=2006-01-02"`
	PlanID          string  `json:"plan_id"`
	ManualDays      int     `json:"manual_days"`
	Amount          int64   `json:"amount" validate:"gte=0"`
	TransactionDate string  `json:"transaction_date" validate:"omitempty,datetime=2006-01-02"`
}

func (req updateMemberRequest) toInput(id string) (usecase.UpdateMemberInput, error) {
	in := usecase.UpdateMemberInput{
		UserID:      id,
		Name:        req.Name,
		PhoneNumber: req.PhoneNumber,
		MemberType:  req.MemberType,
		IsActive:    req.IsActive,
		PlanID:      req.PlanID,
		ManualDays:  req.ManualDays,
		Amount:      req.Amount,
	}
	if req.ExpiredAt != nil && *req.ExpiredAt != "" {
		d, err := parseDate(*req.ExpiredAt)
		if err != nil {
			return in, err
		}
		in.ExpiredAt = &d
	}
	if req.TransactionDate != "" {
		d, err := parseDate(req.TransactionDate)
		if err != nil {
			return in, err
		}
		in.TransactionDate = d
	}
	return in, nil
}

type extendRequest struct {
	Days   int   `json:"days" validate:"required"`
	Amount int64 `json:"amount" validate:"gte=0"`
}

type planCreateRequest struct {
	Name         string `json:"name" validate:"required,max=100"`
	Price        int64  `json:"price" validate:"gte=0"`
	DurationDays int    `json:"duration_days" validate:"gte=0"`
}

type planUpdateRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=100"`
	Price        *int64  `json:"price" validate:"omitempty,gte=0"`
	DurationDays *int    `json:"duration_days" validate:"omitempty,gte=0"`
	IsActive     *bool   `json:"is_active"`
}

// ---- responses ----

type Member struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	PhoneNumber string     `json:"phone_number"`
	IsActive    bool       `json:"is_active"`
	ExpiredAt   *time.Time `json:"expired_at"`
	MemberType  string     `json:"member_type"`
	Role        string     `json:"role"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toMember(p *model.Profile) Member {
	m := Member{
		ID:          p.ID,
		Name:        p.Name,
		Email:       p.Email,
		PhoneNumber: p.PhoneNumber,
		IsActive:    p.IsActive,
		MemberType:  p.MemberType,
		Role:        string(p.Role),
		CreatedAt:   p.CreatedAt,
	}
	if p.HasExpiry() {
		exp := p.ExpiredAt
		m.ExpiredAt = &exp
	}
	return m
}

func toMembers(ps []*model.Profile) []Member {
	out := make([]Member, 0, len(ps))
	for _, p := range ps {
		out = append(out, toMember(p))
	}
	return out
}

type ExpiringMember struct {
	Member
	DaysLeft int    `json:"days_left"`
	Urgency  string `json:"urgency"`
}

type Plan struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Price        int64     `json:"price"`
	PriceLabel   string    `json:"price_label"`
	DurationDays int       `json:"duration_days"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

func toPlan(p *model.Plan) Plan {
	return Plan{
		ID:           p.ID,
		Name:         p.Name,
		Price:        p.Price,
		PriceLabel:   model.FormatRupiah(p.Price),
		DurationDays: p.DurationDays,
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt,
	}
}

func toPlans(ps []*model.Plan) []Plan {
	out := make([]Plan, 0, len(ps))
	for _, p := range ps {
		out = append(out, toPlan(p))
	}
	return out
}

type Transaction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	PlanID      *string   `json:"plan_id"`
	Amount      int64     `json:"amount"`
	Status      string    `json:"status"`
	ProofURL    string    `json:"proof_url"`
	Manual      bool      `json:"manual"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	MemberName  string    `json:"member_name,omitempty"`
	MemberEmail string    `json:"member_email,omitempty"`
	PlanName    string    `json:"plan_name,omitempty"`
}

func toTransaction(t *model.Transaction) Transaction {
	return Transaction{
		ID:        t.ID,
		UserID:    t.UserID,
		PlanID:    t.PlanID,
		Amount:    t.Amount,
		Status:    string(t.Status),
		ProofURL:  t.ProofURL,
		Manual:    t.IsManual(),
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func toTransactionViews(vs []*model.TransactionView) []Transaction {
	out := make([]Transaction, 0, len(vs))
	for _, v := range vs {
		t := toTransaction(&v.Transaction)
		t.MemberName, t.MemberEmail, t.PlanName = v.MemberName, v.MemberEmail, v.PlanName
		out = append(out, t)
	}
	return out
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

type sessionResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Member    Member    `json:"member"`
}

type dashboardResponse struct {
	Month         string `json:"month"`
	Pending       int    `json:"pending"`
	ActiveMembers int    `json:"active_members"`
	Revenue       int64  `json:"revenue"`
}

type revenuePoint struct {
	Month   string `json:"month"`
	Revenue int64  `json:"revenue"`
}

type growthPoint struct {
	Month string `json:"month"`
	New   int    `json:"new"`
	Total int    `json:"total"`
}

type analyticsResponse struct {
	MonthlyRevenue []revenuePoint `json:"monthly_revenue"`
	MemberGrowth   []growthPoint  `json:"member_growth"`
	Stats          struct {
		TotalRevenue  int64   `json:"total_revenue"`
		RevenueGrowth float64 `json:"revenue_growth"`
		TotalMembers  int     `json:"total_members"`
		MemberGrowth  float64 `json:"member_growth"`
		AvgRevenue    int64   `json:"avg_revenue"`
	} `json:"stats"`
}

func toAnalytics(a *model.Analytics) analyticsResponse {
	var out analyticsResponse
	for _, p := range a.MonthlyRevenue {
		out.MonthlyRevenue = append(out.MonthlyRevenue, revenuePoint{Month: p.Month, Revenue: p.Revenue})
	}
	for _, p := range a.MemberGrowth {
		out.MemberGrowth = append(out.MemberGrowth, growthPoint{Month: p.Month, New: p.New, Total: p.Total})
	}
	out.Stats.TotalRevenue = a.TotalRevenue
	out.Stats.RevenueGrowth = a.RevenueGrowth
	out.Stats.TotalMembers = a.TotalMembers
	out.Stats.MemberGrowth = a.MemberGrowthPc
	out.Stats.AvgRevenue = a.AvgRevenue
	return out
}
