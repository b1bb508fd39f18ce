package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	lookupregistry "franchise-onboarding/internal/workers/enrichment/lookup-registry"
	notifyfranchiseecreated "franchise-onboarding/internal/workers/communication/notify-franchisee-created"
	searchlegacyunits "franchise-onboarding/internal/workers/data-access/search-legacy-units"
	checkonboardingstatus "franchise-onboarding/internal/workers/onboarding/check-onboarding-status"
	reviewonboardingrequest "franchise-onboarding/internal/workers/onboarding/review-onboarding-request"
	submitonboarding "franchise-onboarding/internal/workers/onboarding/submit-onboarding"
)

const readinessTimeout = 2 * time.Second

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(s.checks))
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	writeJSON(w, status, map[string]interface{}{
		"status": state,
		"checks": results,
	})
}

func (s *Server) handleSubmitHealth(w http.ResponseWriter, r *http.Request) {
	env := s.config.Environment
	if env == nil {
		env = map[string]bool{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"function":    "onboarding-submit",
		"timestamp":   s.now().UTC().Format(time.RFC3339),
		"environment": env,
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var input submitonboarding.Input
	if err := decodeBody(w, r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}
	input.IPAddress = ClientIP(r)
	input.UserAgent = r.UserAgent()

	out, err := s.services.Submit.Execute(r.Context(), &input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	var input reviewonboardingrequest.Input
	if err := decodeBody(w, r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}

	out, err := s.services.Review.Execute(r.Context(), &input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	input := checkonboardingstatus.Input{TrackingNumber: chi.URLParam(r, "trackingNumber")}

	out, err := s.services.Status.Execute(r.Context(), &input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleLookup answers 200 for upstream failures; the body carries
// success:false and the message shown under the field.
func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	var input lookupregistry.Input
	if err := decodeBody(w, r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}

	out, err := s.services.Lookup.Execute(r.Context(), &input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleNotify(w http.ResponseWriter, r *http.Request) {
	var input notifyfranchiseecreated.Input
	if err := decodeBody(w, r, &input); err != nil {
		s.writeError(w, r, err)
		return
	}

	out, err := s.services.Notify.Execute(r.Context(), &input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleLegacyUnits(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	out, err := s.services.LegacyUnits.Execute(r.Context(), &searchlegacyunits.Input{
		Query: q.Get("q"),
		Limit: limit,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
