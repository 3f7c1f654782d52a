package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"learning-entitlement/internal/domain"
	"learning-entitlement/internal/domain/model"
	"learning-entitlement/internal/infra/logging"
	"learning-entitlement/internal/infra/metrics"
)

type authorizeRequest struct {
	PathID    string `json:"path_id"`
	ChapterID string `json:"chapter_id"`
	Action    string `json:"action"` // daily_chat | monthly_mcq
}

// handleAuthorize is the gate every content-consumption endpoint calls
// before serving generated content. A storage fault maps to 503, never to
// a deny: "unable to decide" and "denied" are different answers.
func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := UserIDFrom(ctx)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req authorizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	ctx = logging.WithPathID(ctx, req.PathID)
	ctx = logging.WithChapterID(ctx, req.ChapterID)

	start := time.Now()
	decision, err := s.gate.Authorize(ctx, userID, req.PathID, req.ChapterID, model.ActionKind(req.Action))
	metrics.ObserveDecisionLatency(req.Action, float64(time.Since(start).Milliseconds()))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			metrics.IncDecision(req.Action, "error")
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		metrics.IncDecision(req.Action, "error")
		logging.With(ctx, s.log).Error().Err(err).Msg("authorize failed")
		http.Error(w, "Unable to decide", http.StatusServiceUnavailable)
		return
	}

	if decision.Allowed {
		metrics.IncDecision(req.Action, "allowed")
	} else {
		metrics.IncDecision(req.Action, "denied")
	}
	writeJSON(w, http.StatusOK, decision)
}

func (s *Server) handleModuleAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := UserIDFrom(ctx)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	pathID := chi.URLParam(r, "pathID")
	moduleIndex, err := strconv.Atoi(chi.URLParam(r, "moduleIndex"))
	if err != nil {
		http.Error(w, "Invalid module index", http.StatusBadRequest)
		return
	}

	access, err := s.unlock.ModuleAccess(ctx, userID, pathID, moduleIndex)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		logging.With(ctx, s.log).Error().Err(err).Msg("module access failed")
		http.Error(w, "Unable to decide", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, access)
}

func (s *Server) handleChapterAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := UserIDFrom(ctx)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	pathID := chi.URLParam(r, "pathID")
	moduleIndex, err := strconv.Atoi(chi.URLParam(r, "moduleIndex"))
	if err != nil {
		http.Error(w, "Invalid module index", http.StatusBadRequest)
		return
	}
	chapterIndex, err := strconv.Atoi(chi.URLParam(r, "chapterIndex"))
	if err != nil {
		http.Error(w, "Invalid chapter index", http.StatusBadRequest)
		return
	}

	access, err := s.unlock.ChapterAccess(ctx, userID, pathID, moduleIndex, chapterIndex)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		logging.With(ctx, s.log).Error().Err(err).Msg("chapter access failed")
		http.Error(w, "Unable to decide", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, access)
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := UserIDFrom(ctx)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	chapterID := chi.URLParam(r, "chapterID")

	snap, err := s.ledger.PeekUsage(ctx, userID, chapterID, time.Now())
	if err != nil {
		if errors.Is(err, domain.ErrInvalidArgument) {
			http.Error(w, "Invalid request", http.StatusBadRequest)
			return
		}
		logging.With(ctx, s.log).Error().Err(err).Msg("usage peek failed")
		http.Error(w, "Unable to decide", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		DailyChatUsed  int `json:"daily_chat_used"`
		MonthlyMCQUsed int `json:"monthly_mcq_used"`
	}{snap.DailyChatUsed, snap.MonthlyMCQUsed})
}

type paymentWebhookRequest struct {
	ExternalPaymentID string  `json:"external_payment_id"`
	UserID            string  `json:"user_id"`
	AmountPaid        int64   `json:"amount_paid"`
	Currency          string  `json:"currency"`
	Purpose           string  `json:"purpose"` // career_access | learning_path_save
	PathID            *string `json:"path_id,omitempty"`
}

// handlePaymentWebhook receives a completed-payment notification. The
// payment collaborator delivers at least once; replays answer 200 with the
// already-created subscription.
func (s *Server) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req paymentWebhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ev, err := model.NewPaymentEvent(
		ulid.Make().String(),
		req.ExternalPaymentID,
		req.UserID,
		req.AmountPaid,
		req.Currency,
		model.PaymentPurpose(req.Purpose),
		req.PathID,
		time.Now(),
	)
	if err != nil {
		metrics.IncPaymentRejected("invalid_event")
		http.Error(w, "Invalid payment event", http.StatusBadRequest)
		return
	}

	sub, err := s.reconciler.ApplyCompletedPayment(ctx, ev)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUnknownAmount):
			metrics.IncPaymentRejected("unknown_amount")
			http.Error(w, "Amount does not map to a plan", http.StatusUnprocessableEntity)
		case errors.Is(err, domain.ErrInvalidArgument):
			metrics.IncPaymentRejected("invalid_event")
			http.Error(w, "Invalid payment event", http.StatusBadRequest)
		default:
			logging.With(ctx, s.log).Error().Err(err).
				Str("external_payment_id", req.ExternalPaymentID).Msg("reconciliation failed")
			http.Error(w, "Reconciliation failed", http.StatusServiceUnavailable)
		}
		return
	}

	metrics.IncPaymentApplied(req.Purpose)
	writeJSON(w, http.StatusOK, struct {
		SubscriptionID string `json:"subscription_id"`
		PlanType       string `json:"plan_type"`
		Scope          string `json:"scope"`
		ExpiryDate     string `json:"expiry_date"`
	}{sub.ID, string(sub.PlanType), string(sub.Scope), sub.ExpiryDate.Format(time.RFC3339)})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
