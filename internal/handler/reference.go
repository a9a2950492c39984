package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/blessingcarter623/amatymasocialapp/internal/domain/directory"
)

// ListProvinces returns the provinces in display order.
func (h *Handler) ListProvinces(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeStrings(e, directory.Provinces()) })
}

// ListCities returns the cities of a province. Unknown provinces have none.
func (h *Handler) ListCities(w http.ResponseWriter, r *http.Request) {
	cities := directory.CitiesForProvince(r.PathValue("province"))
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeStrings(e, cities) })
}

// ListDepartments returns the departments with their subcategories.
func (h *Handler) ListDepartments(w http.ResponseWriter, _ *http.Request) {
	depts := directory.Departments()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, d := range depts {
				e.Obj(func(e *jx.Encoder) {
					e.Field("name", func(e *jx.Encoder) { e.Str(d.Name) })
					e.Field("subcategories", func(e *jx.Encoder) { encodeStrings(e, d.Subcategories) })
				})
			}
		})
	})
}
