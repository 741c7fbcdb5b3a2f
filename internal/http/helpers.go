package http

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	"microbiz/internal/core"
	applog "microbiz/internal/log"
	"microbiz/internal/services"
	"microbiz/internal/sheets"
)

var validationErrors = []error{
	core.ErrInvalidDate,
	core.ErrInvalidType,
	core.ErrMissingAmount,
	core.ErrInvalidAmount,
	core.ErrInvalidCategory,
	core.ErrInvalidPaymentStatus,
	core.ErrInvalidPaymentTerms,
	core.ErrNoteTooLong,
	services.ErrNotIncome,
}

// errorResponse maps service errors onto HTTP responses. Store failures are
// logged and reported without detail.
func errorResponse(r *http.Request, err error) *JSONResponseBuilder {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return UnprocessableEntityError(target.Error())
		}
	}
	if errors.Is(err, sheets.ErrNotFound) {
		return NotFoundError("transaction not found")
	}

	attrs := applog.Attrs{}.Add(applog.FieldPath, r.URL.Path).AddError(err)
	applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed", attrs...)
	return InternalServerError("internal server error")
}

// attachmentHeaders sets download headers; non-ASCII names are RFC 2231 encoded.
func attachmentHeaders(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
}

// sanitizeInput removes control characters except tab, newline and carriage return, then trims.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}
