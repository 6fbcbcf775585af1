package apiv1

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"gym-membership/internal/domain"
	"gym-membership/internal/domain/model"
	"gym-membership/internal/domain/ports/adapter"
	"gym-membership/internal/infra/auth"
	"gym-membership/internal/infra/logging"
	"gym-membership/internal/usecase"
)

// Sessions reads and writes session tokens on HTTP requests.
type Sessions interface {
	ParseFromRequest(r *http.Request) (*auth.Claims, error)
	SetCookie(w http.ResponseWriter, token string)
	Clear(w http.ResponseWriter)
}

// Deps are the collaborators of the v1 API.
type Deps struct {
	Members  usecase.MemberUseCase
	Plans    usecase.PlanUseCase
	Payments usecase.PaymentUseCase
	Stats    usecase.StatsUseCase
	Reports  usecase.ReportUseCase
	Auth     usecase.AuthUseCase
	Proofs   adapter.ProofStore
	Sessions Sessions
	// MaxUploadBytes bounds a purchase request body.
	MaxUploadBytes int64
}

type Server struct {
	Deps
	log *zerolog.Logger
}

func NewServer(d Deps, logger *zerolog.Logger) *Server {
	if d.MaxUploadBytes <= 0 {
		d.MaxUploadBytes = 5 << 20
	}
	return &Server{Deps: d, log: logger}
}

// RegisterAPIV1 mounts the API at absolute paths (/api/v1/..., /proofs/...).
func RegisterAPIV1(r chi.Router, s *Server) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/signup", s.signUp)
		r.Post("/auth/login", s.login)
		r.Post("/auth/logout", s.logout)
		r.Post("/auth/password/forgot", s.forgotPassword)
		r.Post("/auth/password/reset", s.resetPassword)

		r.Group(func(r chi.Router) {
			r.Use(s.requireRole(model.RoleUser, model.RoleAdmin))
			r.Get("/me", s.getMe)
			r.Get("/me/transactions", s.listMyTransactions)
			r.Post("/me/purchases", s.purchase)
			r.Post("/me/password", s.changePassword)
			r.Get("/plans", s.listActivePlans)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireRole(model.RoleAdmin))

			r.Get("/members", s.listMembers)
			r.Post("/members", s.createMember)
			r.Get("/members/expiring", s.listExpiring)
			r.Post("/members/expire", s.expireLapsed)
			r.Get("/members/{id}", s.getMember)
			r.Put("/members/{id}", s.updateMember)
			r.Delete("/members/{id}", s.deleteMember)
			r.Post("/members/{id}/extend", s.extendMember)

			r.Get("/plans", s.listPlans)
			r.Post("/plans", s.createPlan)
			r.Put("/plans/{id}", s.updatePlan)
			r.Delete("/plans/{id}", s.deletePlan)

			r.Get("/transactions", s.listTransactions)
			r.Post("/transactions/{id}/approve", s.approveTransaction)
			r.Post("/transactions/{id}/reject", s.rejectTransaction)

			r.Get("/dashboard", s.dashboard)
			r.Get("/analytics", s.analytics)
			r.Get("/reports/monthly", s.monthlyReport)
		})
	})

	r.With(s.requireRole(model.RoleUser, model.RoleAdmin)).Get("/proofs/{name}", s.serveProof)
}

type claimsKey struct{}

func (s *Server) requireRole(roles ...model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := s.Sessions.ParseFromRequest(r)
			if err != nil {
				s.writeError(w, r, domain.ErrUnauthorized)
				return
			}
			allowed := false
			for _, role := range roles {
				if claims.Role == role {
					allowed = true
					break
				}
			}
			if !allowed {
				s.writeError(w, r, domain.ErrForbidden)
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey{}, claims)
			ctx = logging.WithUserID(ctx, claims.UserID())
			ctx = logging.WithRole(ctx, string(claims.Role))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func claimsFrom(ctx context.Context) *auth.Claims {
	c, _ := ctx.Value(claimsKey{}).(*auth.Claims)
	return c
}
