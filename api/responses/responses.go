package responses

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	pkgerrors "github.com/rentease/rentease-backend/pkg/errors"
	"github.com/rentease/rentease-backend/pkg/logger"
	"github.com/rentease/rentease-backend/pkg/types"
)

// RequestIDHeader is set on every response by the request id middleware.
const RequestIDHeader = "X-Request-Id"

// clientCodes keep their own message in the response body; everything else falls
// back to the public message for the code.
var clientCodes = map[pkgerrors.Code]bool{
	pkgerrors.CodeValidation:    true,
	pkgerrors.CodeForbidden:     true,
	pkgerrors.CodeUnauthorized:  true,
	pkgerrors.CodeNotFound:      true,
	pkgerrors.CodeConflict:      true,
	pkgerrors.CodeStateConflict: true,
	pkgerrors.CodeUnavailable:   true,
	pkgerrors.CodeIdempotency:   true,
	pkgerrors.CodeRateLimit:     true,
}

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Data: data})
}

// WriteNoContent answers 204 for deletes.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteAttachment streams a binary document with a download filename.
func WriteAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

// WriteError maps err onto its HTTP status and logs it. Client errors log at warn,
// server errors at error with the postgres diagnostics attached.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	msg := meta.PublicMessage
	if clientCodes[typed.Code()] && typed.Message() != "" {
		msg = typed.Message()
	}

	payload := types.ErrorEnvelope{
		Error: types.APIError{
			Code:    string(typed.Code()),
			Message: msg,
		},
		RequestID: w.Header().Get(RequestIDHeader),
	}
	if meta.DetailsAllowed {
		payload.Error.Details = typed.Details()
	}

	if logg != nil {
		logError(ctx, logg, err, typed, meta.HTTPStatus)
	}

	writeJSON(w, meta.HTTPStatus, payload)
}

func logError(ctx context.Context, logg *logger.Logger, err error, typed *pkgerrors.Error, status int) {
	dump := pkgerrors.Dump(err)
	fields := map[string]any{
		"error":       dump.TopMessage,
		"error_code":  dump.Code,
		"http_status": status,
	}

	if status < http.StatusInternalServerError {
		logg.Warn(logg.WithFields(ctx, fields), "request.rejected")
		return
	}

	fields["error_chain"] = dump.Chain
	if dump.PGCode != "" {
		fields["pg_code"] = dump.PGCode
		fields["pg_detail"] = dump.PGDetail
		fields["pg_message"] = dump.PGMessage
		fields["pg_table"] = dump.PGTable
		fields["pg_column"] = dump.PGColumn
		fields["pg_constraint"] = dump.PGConstraint
	}
	if dm, ok := typed.Details().(map[string]any); ok {
		if step, ok := dm["step"]; ok {
			fields["step"] = step
		}
	}
	logg.Error(logg.WithFields(ctx, fields), "request.error", err)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
