package web

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/intake/internal/core"
	"github.com/JonMunkholm/intake/internal/crmsync"
	"github.com/JonMunkholm/intake/internal/flow"
	"github.com/JonMunkholm/intake/internal/logging"
	"github.com/JonMunkholm/intake/internal/pricing"
	mw "github.com/JonMunkholm/intake/internal/web/middleware"
)

// multipartOverhead is allowed on top of the file size for form framing.
const multipartOverhead = 1 << 20

// maxJSONBody bounds review, quote, checkout and flow requests.
const maxJSONBody = 8 << 20

// RelationalTemplate is the variant name of the workbook template.
const RelationalTemplate = "relational"

// handleHealth reports liveness and import slot usage.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, map[string]any{
		"status":  "ok",
		"imports": s.service.LimiterStatus(),
	})
}

// handleImport parses an uploaded client file into entities.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	maxSize := s.service.MaxFileSize()
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(w, r, fmt.Errorf("%w: request exceeds %d bytes", core.ErrFileTooLarge, tooLarge.Limit))
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %v", errMalformedRequest, err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, errNoFile)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	firmID := mw.FirmID(r.Context())
	if firmID == "" {
		firmID = strings.TrimSpace(r.FormValue("firmId"))
	}

	result, err := s.service.Import(r.Context(), core.ImportRequest{
		FirmID:   firmID,
		FileName: header.Filename,
		Data:     data,
	}, nil)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		s.render(w, r, ImportSummary(result))
		return
	}
	writeJSON(w, r, result)
}

// entitiesRequest carries the client-held entity list. The server keeps no
// session state between steps.
type entitiesRequest struct {
	Entities []*core.Entity `json:"entities"`
}

// refreshed re-derives every entity so client edits cannot leave derived
// fields inconsistent.
func (req entitiesRequest) refreshed() []*core.Entity {
	out := make([]*core.Entity, 0, len(req.Entities))
	for _, e := range req.Entities {
		if e == nil {
			continue
		}
		e.Refresh()
		out = append(out, e)
	}
	return out
}

type reviewResponse struct {
	Passed   bool                   `json:"passed"`
	Errors   []core.ValidationError `json:"errors"`
	Entities []*core.Entity         `json:"entities"`
}

// handleReview runs the review gate over the submitted entities.
func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	var req entitiesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	entities := req.refreshed()
	errs := core.ValidateForReview(entities)
	if errs == nil {
		errs = []core.ValidationError{}
	}
	writeJSON(w, r, reviewResponse{
		Passed:   len(errs) == 0 && len(entities) > 0,
		Errors:   errs,
		Entities: entities,
	})
}

type quoteRequest struct {
	entitiesRequest
	// SelectedIDs limits the quote to these entities. Absent means all,
	// an empty list means none.
	SelectedIDs []string `json:"selectedIds"`
}

// handleQuote prices the selected entities.
func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	q, err := s.engine.QuoteEntities(pricing.Select(req.refreshed(), req.SelectedIDs))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.metrics.ObserveQuote("quote", q.Total)

	if isHTMX(r) {
		s.render(w, r, QuoteSummary(q))
		return
	}
	writeJSON(w, r, q)
}

type checkoutRequest struct {
	quoteRequest
	Firm crmsync.Firm `json:"firm"`
}

type checkoutResponse struct {
	OrderID string        `json:"orderId"`
	Quote   pricing.Quote `json:"quote"`
}

// handleCheckout re-prices the selection, confirms the order and starts
// the background contact and confirmation sync.
func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	selected := pricing.Select(req.refreshed(), req.SelectedIDs)
	if len(selected) == 0 {
		s.respondError(w, r, pricing.ErrEmptySelection)
		return
	}
	q, err := s.engine.QuoteEntities(selected)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if req.Firm.ID == "" {
		req.Firm.ID = mw.FirmID(r.Context())
	}
	order := crmsync.Order{
		ID:       uuid.NewString(),
		Firm:     req.Firm,
		Entities: selected,
		Quote:    q,
		PlacedAt: time.Now().UTC(),
	}
	s.metrics.ObserveQuote("checkout", q.Total)
	logging.FromContext(r.Context()).Info("order confirmed",
		"order_id", order.ID,
		"firm_id", order.Firm.ID,
		"entities", len(selected),
		"total", q.Total.StringFixed(2),
	)

	writeJSON(w, r, checkoutResponse{OrderID: order.ID, Quote: q})
	if s.dispatcher != nil {
		s.dispatcher.DispatchAsync(r.Context(), order)
	}
}

// Flow actions.
const (
	flowStay = ""
	flowNext = "next"
	flowPrev = "prev"
	flowGoto = "goto"
)

type flowRequest struct {
	entitiesRequest
	ReviewPassed bool      `json:"reviewPassed"`
	HasSelection bool      `json:"hasSelection"`
	Current      flow.Step `json:"current"`
	HighWater    flow.Step `json:"highWater"`
	Action       string    `json:"action"`
	Target       flow.Step `json:"target"`
}

type stepStatus struct {
	Step       flow.Step `json:"step"`
	Ready      bool      `json:"ready"`
	Accessible bool      `json:"accessible"`
	Skipped    bool      `json:"skipped"`
}

type flowResponse struct {
	State     flow.State   `json:"state"`
	Current   flow.Step    `json:"current"`
	HighWater flow.Step    `json:"highWater"`
	Next      flow.Step    `json:"next"`
	Prev      flow.Step    `json:"prev"`
	Steps     []stepStatus `json:"steps"`
}

// handleFlow applies a navigation action to the wizard position.
func (s *Server) handleFlow(w http.ResponseWriter, r *http.Request) {
	var req flowRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	st := flow.StateFor(req.refreshed(), req.ReviewPassed, req.HasSelection)
	tracker := flow.Tracker{HighWater: req.HighWater}
	current := tracker.Resume(req.Current, st)

	switch req.Action {
	case flowStay:
	case flowNext:
		current = tracker.Advance(current, st)
	case flowPrev:
		current = flow.Prev(current, st.AllExemption)
	case flowGoto:
		if tracker.CanAccess(req.Target, st) {
			tracker.Visit(req.Target)
			current = req.Target
		}
	default:
		s.respondError(w, r, fmt.Errorf("%w: unknown flow action %q", errMalformedRequest, req.Action))
		return
	}

	resp := flowResponse{
		State:     st,
		Current:   current,
		HighWater: tracker.HighWater,
		Next:      flow.Next(current, st.AllExemption),
		Prev:      flow.Prev(current, st.AllExemption),
	}
	for step := flow.StepUpload; step <= flow.StepConfirm; step++ {
		resp.Steps = append(resp.Steps, stepStatus{
			Step:       step,
			Ready:      flow.Ready(step, st),
			Accessible: tracker.CanAccess(step, st),
			Skipped:    flow.Skipped(step, st.AllExemption),
		})
	}
	writeJSON(w, r, resp)
}

// handleTemplate downloads a blank template: the flat header as CSV for
// v1 and v2, or the four-sheet workbook for "relational".
func (s *Server) handleTemplate(w http.ResponseWriter, r *http.Request) {
	variant := strings.ToLower(chi.URLParam(r, "variant"))

	switch variant {
	case core.LayoutV1, core.LayoutV2:
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="client-intake-%s.csv"`, variant))
		cw := csv.NewWriter(w)
		if err := cw.Write(core.FlatHeader(variant)); err != nil {
			logging.FromContext(r.Context()).Error("write template", "error", err)
			return
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			logging.FromContext(r.Context()).Error("write template", "error", err)
		}

	case RelationalTemplate:
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", `attachment; filename="client-intake.xlsx"`)
		if err := core.WriteRelationalTemplate(w); err != nil {
			logging.FromContext(r.Context()).Error("write relational template", "error", err)
		}

	default:
		s.respondError(w, r, fmt.Errorf("%w: %q", errUnknownVariant, variant))
	}
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errMalformedRequest, err)
	}
	return nil
}

// render writes an HTML fragment.
func (s *Server) render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := c.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render fragment", "error", err)
	}
}
