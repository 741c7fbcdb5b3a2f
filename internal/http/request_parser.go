// This file implements utilities for parsing and validating request data.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"microbiz/internal/core"
)

const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("request body is empty")

// ParsePeriodParam reads the "period" query parameter (YYYY-MM). When absent
// the month containing now is returned and explicit is false.
func ParsePeriodParam(query url.Values, now time.Time) (period core.Period, explicit bool, err error) {
	v := strings.TrimSpace(query.Get("period"))
	if v == "" {
		return core.PeriodOf(now), false, nil
	}
	p, err := core.ParsePeriod(v)
	if err != nil {
		return core.Period{}, true, err
	}
	if err := p.Validate(); err != nil {
		return core.Period{}, true, err
	}
	return p, true, nil
}

// DecodeJSONBody decodes a single JSON object from the request body into dst.
// Unknown fields and trailing data are rejected.
func DecodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// SanitizeDraft strips control characters from every free-text field.
func SanitizeDraft(d core.Draft) core.Draft {
	d.Date = sanitizeInput(d.Date)
	d.Note = sanitizeInput(d.Note)
	d.CustomerName = sanitizeInput(d.CustomerName)
	d.ApplicantName = sanitizeInput(d.ApplicantName)
	d.TravelStart = sanitizeInput(d.TravelStart)
	d.TravelEnd = sanitizeInput(d.TravelEnd)
	d.TravelMethod = sanitizeInput(d.TravelMethod)
	d.TravelReason = sanitizeInput(d.TravelReason)
	d.PayeeName = sanitizeInput(d.PayeeName)
	d.PayeeID = sanitizeInput(d.PayeeID)
	d.PayeeAddress = sanitizeInput(d.PayeeAddress)
	return d
}

// RequireMethod returns a 405 response builder unless r uses one of methods.
func RequireMethod(r *http.Request, methods ...string) *JSONResponseBuilder {
	for _, m := range methods {
		if r.Method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}
