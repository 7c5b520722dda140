package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/opencaisse/pos-api/internal/domain/promotion"
)

// listPromotions returns every active promotion rule.
func (h *Handler) listPromotions(w http.ResponseWriter, r *http.Request) {
	promos, err := h.promotions.ListActive(r.Context())
	if err != nil {
		respondInternal(w, r, errors.Wrap(err, "list promotions"))
		return
	}

	var e jx.Encoder
	e.ArrStart()
	for i := range promos {
		encPromotion(&e, promos[i])
	}
	e.ArrEnd()
	respondJSON(w, r, http.StatusOK, &e)
}

func encPromotion(e *jx.Encoder, p promotion.Promotion) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(p.ID)
	e.FieldStart("code")
	e.Str(p.Code)
	e.FieldStart("type")
	e.Str(string(p.Type))
	e.FieldStart("value")
	encMoney(e, p.Value)
	e.FieldStart("min_quantity")
	e.Int(p.MinQuantity)
	e.FieldStart("description")
	e.Str(p.Description)
	e.ObjEnd()
}
