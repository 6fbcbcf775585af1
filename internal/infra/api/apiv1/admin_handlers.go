package apiv1

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"gym-membership/internal/domain"
	"gym-membership/internal/domain/model"
	"gym-membership/internal/domain/ports/repository"
	"gym-membership/internal/infra/report"
	"gym-membership/internal/usecase"
)

// ---- members ----

func (s *Server) listMembers(w http.ResponseWriter, r *http.Request) {
	var (
		status = "all"
		search string
		offset int
		limit  = 50
	)
	for name, dest := range map[string]any{"status": &status, "q": &search, "offset": &offset, "limit": &limit} {
		if err := queryParam(r, name, dest); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	f := repository.ProfileFilter{Role: model.RoleUser, Search: strings.TrimSpace(search), Offset: offset, Limit: limit}
	switch strings.ToLower(status) {
	case "active":
		v := true
		f.Active = &v
	case "inactive":
		v := false
		f.Active = &v
	case "all", "":
	default:
		s.writeError(w, r, fmt.Errorf("status %q: %w", status, domain.ErrInvalidArgument))
		return
	}
	items, total, err := s.Members.List(r.Context(), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[Member]{Items: toMembers(items), Total: total})
}

func (s *Server) createMember(w http.ResponseWriter, r *http.Request) {
	var req createMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.Members.Create(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMember(p))
}

func (s *Server) getMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.Members.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMember(p))
}

func (s *Server) updateMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req updateMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	in, err := req.toInput(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.Members.Update(r.Context(), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMember(p))
}

func (s *Server) deleteMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.Members.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) extendMember(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req extendRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.Members.Extend(r.Context(), id, req.Days, req.Amount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMember(p))
}

func (s *Server) listExpiring(w http.ResponseWriter, r *http.Request) {
	var days int
	if err := queryParam(r, "days", &days); err != nil {
		s.writeError(w, r, err)
		return
	}
	items, err := s.Members.Expiring(r.Context(), days)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]ExpiringMember, 0, len(items))
	for _, it := range items {
		out = append(out, ExpiringMember{Member: toMember(it.Profile), DaysLeft: it.DaysLeft, Urgency: string(it.Urgency)})
	}
	writeJSON(w, http.StatusOK, listResponse[ExpiringMember]{Items: out, Total: len(out)})
}

func (s *Server) expireLapsed(w http.ResponseWriter, r *http.Request) {
	items, err := s.Members.ExpireLapsed(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[Member]{Items: toMembers(items), Total: len(items)})
}

// ---- plans ----

func (s *Server) listPlans(w http.ResponseWriter, r *http.Request) {
	activeOnly := false
	if err := queryParam(r, "active_only", &activeOnly); err != nil {
		s.writeError(w, r, err)
		return
	}
	plans, err := s.Plans.List(r.Context(), activeOnly)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[Plan]{Items: toPlans(plans), Total: len(plans)})
}

func (s *Server) createPlan(w http.ResponseWriter, r *http.Request) {
	var req planCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.Plans.Create(r.Context(), req.Name, req.Price, req.DurationDays)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPlan(p))
}

func (s *Server) updatePlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req planUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.Plans.Update(r.Context(), id, usecase.PlanUpdate{
		Name:         req.Name,
		Price:        req.Price,
		DurationDays: req.DurationDays,
		IsActive:     req.IsActive,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toPlan(p))
}

// deletePlan only deactivates; transactions keep their plan reference.
func (s *Server) deletePlan(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.Plans.Deactivate(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- transactions ----

func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	var rawStatus, month string
	if err := queryParam(r, "status", &rawStatus); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := queryParam(r, "month", &month); err != nil {
		s.writeError(w, r, err)
		return
	}
	var status model.TransactionStatus
	if rawStatus != "" {
		st, ok := model.ParseTransactionStatus(rawStatus)
		if !ok {
			s.writeError(w, r, fmt.Errorf("status %q: %w", rawStatus, domain.ErrInvalidArgument))
			return
		}
		status = st
	}

	var (
		items []*model.TransactionView
		err   error
	)
	// the approval queue is not bounded to a month
	if status == model.TransactionStatusPending && month == "" {
		items, err = s.Payments.ListPending(r.Context())
	} else {
		items, err = s.Payments.ListByPeriod(r.Context(), month, status)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[Transaction]{Items: toTransactionViews(items), Total: len(items)})
}

func (s *Server) approveTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t, p, err := s.Payments.Approve(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		Transaction Transaction `json:"transaction"`
		Member      Member      `json:"member"`
	}{toTransaction(t), toMember(p)})
}

func (s *Server) rejectTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t, err := s.Payments.Reject(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransaction(t))
}

// ---- dashboard & reports ----

func (s *Server) dashboard(w http.ResponseWriter, r *http.Request) {
	var month string
	if err := queryParam(r, "month", &month); err != nil {
		s.writeError(w, r, err)
		return
	}
	d, err := s.Stats.Dashboard(r.Context(), month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboardResponse{Month: d.Month, Pending: d.Pending, ActiveMembers: d.ActiveMembers, Revenue: d.Revenue})
}

func (s *Server) analytics(w http.ResponseWriter, r *http.Request) {
	months := usecase.DefaultAnalyticsMonths
	if err := queryParam(r, "months", &months); err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.Stats.Analytics(r.Context(), months)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAnalytics(a))
}

func (s *Server) monthlyReport(w http.ResponseWriter, r *http.Request) {
	var month, rawFormat string
	if err := queryParam(r, "month", &month); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := queryParam(r, "format", &rawFormat); err != nil {
		s.writeError(w, r, err)
		return
	}
	format, err := report.ParseFormat(rawFormat)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rep, err := s.Reports.Monthly(r.Context(), month)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := report.Write(&buf, rep, format); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.Filename(rep.Month, format)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
