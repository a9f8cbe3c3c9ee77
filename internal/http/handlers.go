package http

import (
	"fmt"
	"net/http"

	"rewards/internal/core"
	"rewards/internal/log"
	"rewards/internal/metrics"
	"rewards/internal/services"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Ready(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(map[string]string{"status": "ready", "source": s.svc.SourceName()}).Write(w)
}

func (s *Server) handleMonthly(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	dr, err := ParseRangeParams(query, s.svc.Engine().Location())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := ParsePageParams(query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	monthly, err := s.svc.Monthly(r.Context(), dr)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(Paginate(monthly, page)).Write(w)
}

func (s *Server) handleTotals(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	dr, err := ParseRangeParams(query, s.svc.Engine().Location())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	key, err := core.ParseTotalsSortKey(sanitizeInput(query.Get("sort")))
	if err != nil {
		s.writeError(w, r, fmt.Errorf("%w: %v", services.ErrInvalidSort, err))
		return
	}

	totals, err := s.svc.Totals(r.Context(), dr, key)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(totals).Write(w)
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	dr, err := ParseRangeParams(query, s.svc.Engine().Location())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	order, err := services.ParseRowOrder(sanitizeInput(query.Get("sort")))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	page, err := ParsePageParams(query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rows, err := s.svc.Transactions(r.Context(), dr, order)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(Paginate(rows, page)).Write(w)
}

func (s *Server) handleCompute(w http.ResponseWriter, r *http.Request) {
	dr, err := ParseRangeParams(r.URL.Query(), s.svc.Engine().Location())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	txs, err := DecodeTransactionsBody(w, r, s.maxBody)
	if err != nil {
		code, msg := statusForError(err)
		if code == http.StatusInternalServerError {
			// Anything else the decoder rejects is the caller's document.
			code, msg = http.StatusBadRequest, "request body must be a JSON array of transactions"
		}
		s.security.recordBody(code)
		log.FromContext(r.Context()).WarnContext(r.Context(), "Rejected compute body", log.FieldError, err.Error())
		s.errorResponse(r, code, msg).Write(w)
		return
	}

	summary, err := s.svc.Compute(r.Context(), txs, dr)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	NewJSONResponse().Data(summary).Write(w)
}

func (s *Server) handleInvalidate(w http.ResponseWriter, r *http.Request) {
	n := s.svc.Invalidate(r.Context())
	NewJSONResponse().Data(map[string]int{"removed": n}).Write(w)
}

type statsResponse struct {
	Source  string           `json:"source"`
	Metrics metrics.Snapshot `json:"metrics"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.metrics == nil {
		NotFoundError("metrics disabled").RequestID(RequestID(r.Context())).Write(w)
		return
	}
	NewJSONResponse().Data(statsResponse{
		Source:  s.svc.SourceName(),
		Metrics: s.metrics.Snapshot(services.SnapshotCache),
	}).Write(w)
}

// writeError logs err and sends the mapped status with a JSON error body.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := statusForError(err)
	logger := log.FromContext(r.Context())
	if code >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "Request failed", log.FieldError, err.Error(), log.FieldStatusCode, code)
	} else {
		logger.DebugContext(r.Context(), "Request rejected", log.FieldError, err.Error(), log.FieldStatusCode, code)
	}
	s.errorResponse(r, code, msg).Write(w)
}

func (s *Server) errorResponse(r *http.Request, code int, msg string) *JSONResponseBuilder {
	var b *JSONResponseBuilder
	switch code {
	case http.StatusBadRequest:
		b = BadRequestError(msg)
	case http.StatusRequestEntityTooLarge:
		b = PayloadTooLargeError(msg)
	case http.StatusServiceUnavailable:
		b = ServiceUnavailableError(msg)
	case http.StatusInternalServerError:
		b = InternalServerError(msg)
	default:
		b = ErrorResponse(code, msg)
	}
	return b.RequestID(RequestID(r.Context()))
}
