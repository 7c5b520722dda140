package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/opencaisse/pos-api/internal/domain/caisse"
)

type openSessionRequest struct {
	Name          string
	OpeningAmount decimal.Decimal
	Description   string
}

type closeSessionRequest struct {
	ClosingAmount decimal.Decimal
	Notes         string
}

// openSession starts a new cash-drawer session.
func (h *Handler) openSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	err := jx.Decode(r.Body, 4096).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "session_name":
			req.Name, err = d.Str()
		case "opening_amount":
			req.OpeningAmount, err = decDecimal(d)
		case "description":
			req.Description, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "malformed request body")
		return
	}

	session, err := h.caisse.Open(r.Context(), req.Name, req.OpeningAmount, req.Description)
	if err != nil {
		h.respondCaisseError(w, r, err)
		return
	}

	var e jx.Encoder
	encSession(&e, session)
	respondJSON(w, r, http.StatusCreated, &e)
}

// activeSession returns the currently open session.
func (h *Handler) activeSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.caisse.Active(r.Context())
	if err != nil {
		h.respondCaisseError(w, r, err)
		return
	}

	var e jx.Encoder
	encSession(&e, session)
	respondJSON(w, r, http.StatusOK, &e)
}

// closeSession reconciles and permanently closes a session.
func (h *Handler) closeSession(w http.ResponseWriter, r *http.Request) {
	var req closeSessionRequest
	err := jx.Decode(r.Body, 4096).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "closing_amount":
			req.ClosingAmount, err = decDecimal(d)
		case "notes":
			req.Notes, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "malformed request body")
		return
	}

	session, err := h.caisse.Close(r.Context(), r.PathValue("id"), req.ClosingAmount, req.Notes)
	if err != nil {
		h.respondCaisseError(w, r, err)
		return
	}

	var e jx.Encoder
	encSession(&e, session)
	respondJSON(w, r, http.StatusOK, &e)
}

// sessionStatistics returns the sales aggregates for a session.
func (h *Handler) sessionStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.caisse.Statistics(r.Context(), r.PathValue("id"))
	if err != nil {
		h.respondCaisseError(w, r, err)
		return
	}

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("transactions_count")
	e.Int(stats.TransactionsCount)
	e.FieldStart("total_revenue")
	encMoney(&e, stats.TotalRevenue)
	e.FieldStart("cash_revenue")
	encMoney(&e, stats.CashRevenue)
	e.ObjEnd()
	respondJSON(w, r, http.StatusOK, &e)
}

// respondCaisseError maps caisse service errors to HTTP responses.
func (h *Handler) respondCaisseError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *caisse.ValidationError
		active     *caisse.SessionAlreadyActiveError
	)
	switch {
	case errors.As(err, &validation):
		respondError(w, r, http.StatusBadRequest, err.Error())
	case errors.As(err, &active):
		respondError(w, r, http.StatusConflict, err.Error())
	case errors.Is(err, caisse.ErrNotFound), errors.Is(err, caisse.ErrNoActiveSession):
		respondError(w, r, http.StatusNotFound, err.Error())
	default:
		respondInternal(w, r, err)
	}
}

func encSession(e *jx.Encoder, s *caisse.Session) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(s.ID)
	e.FieldStart("name")
	e.Str(s.Name)
	if s.Description != "" {
		e.FieldStart("description")
		e.Str(s.Description)
	}
	e.FieldStart("opening_amount")
	encMoney(e, s.OpeningAmount)
	e.FieldStart("status")
	e.Str(string(s.Status))
	e.FieldStart("opened_at")
	e.Str(s.OpenedAt.Format(time.RFC3339))
	if s.ClosedAt != nil {
		e.FieldStart("closed_at")
		e.Str(s.ClosedAt.Format(time.RFC3339))
	}
	if s.ClosingAmount != nil {
		e.FieldStart("closing_amount")
		encMoney(e, *s.ClosingAmount)
	}
	if s.ExpectedAmount != nil {
		e.FieldStart("expected_amount")
		encMoney(e, *s.ExpectedAmount)
	}
	if s.Difference != nil {
		e.FieldStart("difference")
		encMoney(e, *s.Difference)
	}
	if s.Notes != "" {
		e.FieldStart("notes")
		e.Str(s.Notes)
	}
	e.ObjEnd()
}
