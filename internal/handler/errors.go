package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/blessingcarter623/amatymasocialapp/internal/domain/auth"
	"github.com/blessingcarter623/amatymasocialapp/internal/domain/cart"
	"github.com/blessingcarter623/amatymasocialapp/internal/domain/directory"
	"github.com/blessingcarter623/amatymasocialapp/internal/domain/order"
	"github.com/blessingcarter623/amatymasocialapp/internal/domain/product"
	"github.com/blessingcarter623/amatymasocialapp/internal/media"
	"github.com/blessingcarter623/amatymasocialapp/pkg/httpmiddleware"
)

// errUpstream marks failures of a backing store other than the directory.
var errUpstream = errors.New("upstream unavailable")

// requestError is a malformed request.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

func upstream(err error) error {
	return fmt.Errorf("%w: %w", errUpstream, err)
}

// writeError maps err to a status code and writes the {code,message} body.
// Unexpected errors are logged and their text is not exposed.
func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	code, msg := classify(err)
	if code >= http.StatusInternalServerError {
		zctx.From(ctx).Error("Request failed", zap.Int("code", code), zap.Error(err))
	}
	httpmiddleware.WriteError(w, code, msg)
}

func classify(err error) (int, string) {
	var (
		reqErr     *requestError
		cartErr    *cart.ValidationError
		dirErr     *directory.ValidationError
		productErr *product.ValidationError
	)
	switch {
	case errors.As(err, &reqErr):
		return http.StatusBadRequest, reqErr.Error()
	case errors.As(err, &cartErr):
		return http.StatusBadRequest, cartErr.Error()
	case errors.As(err, &dirErr):
		return http.StatusBadRequest, dirErr.Error()
	case errors.As(err, &productErr):
		return http.StatusBadRequest, productErr.Error()
	case errors.Is(err, order.ErrEmptyCart):
		return http.StatusBadRequest, "cart is empty"
	case errors.Is(err, media.ErrUnsupportedType):
		return http.StatusBadRequest, "only JPEG, PNG, WebP and GIF images can be uploaded"
	case errors.Is(err, auth.ErrUnauthenticated), errors.Is(err, auth.ErrNoCredentials):
		return http.StatusUnauthorized, "authentication required"
	case errors.Is(err, auth.ErrMissingScope):
		return http.StatusForbidden, "insufficient scope"
	case errors.Is(err, directory.ErrForbidden):
		return http.StatusForbidden, "business belongs to another owner"
	case errors.Is(err, product.ErrNotFound):
		return http.StatusNotFound, "product not found"
	case errors.Is(err, directory.ErrNotFound):
		return http.StatusNotFound, "business not found"
	case errors.Is(err, directory.ErrRemoteFailure), errors.Is(err, errUpstream):
		return http.StatusBadGateway, "backing store unavailable, try again later"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
