package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// listCustomers returns all customer records.
func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.customers.List(r.Context())
	if err != nil {
		respondInternal(w, r, errors.Wrap(err, "list customers"))
		return
	}

	var e jx.Encoder
	e.ArrStart()
	for _, c := range customers {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(c.ID)
		e.FieldStart("name")
		e.Str(c.Name)
		e.FieldStart("email")
		e.Str(c.Email)
		e.FieldStart("phone")
		e.Str(c.Phone)
		e.ObjEnd()
	}
	e.ArrEnd()
	respondJSON(w, r, http.StatusOK, &e)
}
