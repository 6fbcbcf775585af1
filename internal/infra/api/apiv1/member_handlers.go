package apiv1

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"gym-membership/internal/domain"
	"gym-membership/internal/domain/model"
	"gym-membership/internal/usecase"
)

func (s *Server) getMe(w http.ResponseWriter, r *http.Request) {
	p, err := s.Members.Get(r.Context(), claimsFrom(r.Context()).UserID())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMember(p))
}

func (s *Server) listMyTransactions(w http.ResponseWriter, r *http.Request) {
	items, err := s.Payments.ListByUser(r.Context(), claimsFrom(r.Context()).UserID())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[Transaction]{Items: toTransactionViews(items), Total: len(items)})
}

func (s *Server) listActivePlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.Plans.List(r.Context(), true)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse[Plan]{Items: toPlans(plans), Total: len(plans)})
}

// purchase accepts multipart/form-data with plan_id and a proof file.
func (s *Server) purchase(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.MaxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(s.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, fmt.Errorf("proof too large: %w", domain.ErrInvalidArgument))
			return
		}
		s.writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, hdr, err := r.FormFile("proof")
	if err != nil {
		s.writeError(w, r, domain.ErrProofRequired)
		return
	}
	defer file.Close()

	t, err := s.Payments.Purchase(r.Context(), claimsFrom(r.Context()).UserID(), r.FormValue("plan_id"),
		usecase.ProofUpload{Filename: hdr.Filename, Body: file})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransaction(t))
}

// serveProof streams an uploaded proof. Members only see their own files.
func (s *Server) serveProof(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	claims := claimsFrom(r.Context())
	if claims.Role != model.RoleAdmin && !strings.HasPrefix(name, claims.UserID()+"-") {
		s.writeError(w, r, domain.ErrForbidden)
		return
	}
	f, err := s.Proofs.Open(r.Context(), name)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer f.Close()

	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(name)))
	if ct == "" {
		ct = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ct)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	_, _ = io.Copy(w, f)
}
