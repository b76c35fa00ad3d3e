// errors.go - Mapping of domain errors to HTTP responses

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/bosocmputer/fleet_capture_ocr/internal/ai"
	"github.com/bosocmputer/fleet_capture_ocr/internal/common"
	"github.com/bosocmputer/fleet_capture_ocr/internal/form"
	"github.com/bosocmputer/fleet_capture_ocr/internal/submission"
	"github.com/gin-gonic/gin"
)

// statusFor maps an error to the HTTP status and short error code returned to the client
func statusFor(err error) (int, string) {
	switch ai.KindOf(err) {
	case ai.KindMissingCredential:
		return http.StatusUnauthorized, string(ai.KindMissingCredential)
	case ai.KindUnknownFieldKind:
		return http.StatusBadRequest, string(ai.KindUnknownFieldKind)
	case ai.KindMalformedExtraction:
		return http.StatusUnprocessableEntity, string(ai.KindMalformedExtraction)
	case ai.KindExtractionFailed:
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout, "timeout"
		}
		return http.StatusBadGateway, string(ai.KindExtractionFailed)
	}

	var statusErr *submission.StatusError
	switch {
	case errors.Is(err, form.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, form.ErrUnknownType):
		return http.StatusBadRequest, "unknown_record_type"
	case errors.Is(err, submission.ErrMissingField):
		return http.StatusBadRequest, "missing_field"
	case errors.As(err, &statusErr):
		return http.StatusBadGateway, "submission_rejected"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	}

	return http.StatusInternalServerError, "internal_error"
}

// writeError logs err against the request and writes the mapped JSON error
func writeError(c *gin.Context, reqCtx *common.RequestContext, err error) {
	status, code := statusFor(err)
	reqCtx.LogError("%s (%d): %v", code, status, err)

	body := gin.H{
		"error":      code,
		"message":    messageFor(err),
		"request_id": reqCtx.RequestID,
	}
	if raw := ai.RawReply(err); raw != "" {
		body["raw"] = raw
	}
	c.JSON(status, body)
}

func messageFor(err error) string {
	var aiErr *ai.Error
	if errors.As(err, &aiErr) {
		return aiErr.Message
	}
	if errors.Is(err, form.ErrNotFound) {
		return "Record not found"
	}
	return err.Error()
}
