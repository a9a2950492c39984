package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/blessingcarter623/amatymasocialapp/internal/domain/auth"
	"github.com/blessingcarter623/amatymasocialapp/internal/domain/directory"
)

const staleDirectoryMessage = "Could not refresh the business directory; showing the last loaded listings"

func criteriaFromQuery(r *http.Request) directory.Criteria {
	q := r.URL.Query()
	return directory.Criteria{
		Text:       q.Get("q"),
		Department: q.Get("department"),
		Province:   q.Get("province"),
		City:       q.Get("city"),
	}.Normalize()
}

// SearchBusinesses filters the directory by the q, department, province and
// city query parameters. With refresh set the listing is refetched first. A
// stale listing is served with an error notification when the directory
// cannot be refreshed.
func (h *Handler) SearchBusinesses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	c := criteriaFromQuery(r)

	var refreshErr error
	if r.URL.Query().Has("refresh") {
		refreshErr = h.directory.Refresh(ctx)
	}
	list, err := h.directory.Search(ctx, c)
	if err == nil && errors.Is(refreshErr, directory.ErrRemoteFailure) {
		err = refreshErr
	}
	stale := false
	if err != nil {
		if list == nil {
			writeError(ctx, w, err)
			return
		}
		zctx.From(ctx).Warn("Serving stale business directory", zap.Error(err))
		stale = true
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("businesses", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, b := range list {
						encodeBusiness(e, b)
					}
				})
			})
			e.Field("criteria", func(e *jx.Encoder) {
				e.Obj(func(e *jx.Encoder) {
					e.Field("q", func(e *jx.Encoder) { e.Str(c.Text) })
					e.Field("department", func(e *jx.Encoder) {
						if c.Department == "" {
							e.Str(directory.AllDepartments)
							return
						}
						e.Str(c.Department)
					})
					e.Field("province", func(e *jx.Encoder) { e.Str(c.Province) })
					e.Field("city", func(e *jx.Encoder) { e.Str(c.City) })
				})
			})
			e.Field("cities", func(e *jx.Encoder) { encodeStrings(e, directory.CitiesForProvince(c.Province)) })
			e.Field("notifications", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					if stale {
						encodeNotification(e, "error", staleDirectoryMessage)
					}
				})
			})
		})
	})
}

// GetBusiness returns one listing.
func (h *Handler) GetBusiness(w http.ResponseWriter, r *http.Request) {
	b, err := h.directory.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(r.Context(), w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeBusiness(e, *b) })
}

// CreateBusiness lists a business owned by the caller.
func (h *Handler) CreateBusiness(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, _ := auth.FromContext(ctx)

	in, err := decodeBusinessInput(w, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	b, err := h.directory.Create(ctx, id.UserID, in)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encodeBusiness(e, *b) })
}

// UpdateBusiness edits a listing owned by the caller.
func (h *Handler) UpdateBusiness(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, _ := auth.FromContext(ctx)

	in, err := decodeBusinessInput(w, r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	in.ID = r.PathValue("id")
	b, err := h.directory.Update(ctx, id.UserID, in)
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeBusiness(e, *b) })
}

// RefreshBusinesses refetches the directory listing.
func (h *Handler) RefreshBusinesses(w http.ResponseWriter, r *http.Request) {
	if err := h.directory.Refresh(r.Context()); err != nil {
		if !errors.Is(err, directory.ErrRemoteFailure) {
			// Caller went away.
			return
		}
		writeError(r.Context(), w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
