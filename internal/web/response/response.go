package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/freekieb7/go-newsgate/internal/errors"
)

const (
	MsgSuccess          = "Request Success"
	MsgFailure          = "Request Failed"
	MsgValidation       = "Validation Error!"
	MsgException        = "Exception Raised"
	MsgPageNotFound     = "Page Not Found!"
	MsgMethodNotAllowed = "Method Not Allowed"
)

// Body is the uniform response envelope: success, message and data, plus any
// top-level keys merged in from a payload that carried its own data key.
type Body map[string]any

func (b Body) Success() bool {
	ok, _ := b["success"].(bool)
	return ok
}

func (b Body) Message() string {
	msg, _ := b["message"].(string)
	return msg
}

// FieldError is a single failed constraint on a request parameter.
type FieldError struct {
	Field   string `json:"loc"`
	Message string `json:"msg"`
}

// ValidationErrors collects every failed constraint of one request.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	return ValidationMessage(v)
}

// Wrap builds the envelope for payload. An empty message selects the default
// for status. When payload is an object that already has a data key, its keys
// are lifted to the top level; otherwise payload becomes data verbatim. A
// non-empty message inside an object data overrides the top-level message.
func Wrap(payload any, message string, status int) (Body, error) {
	success := status >= 200 && status < 300
	if message == "" {
		message = MsgFailure
		if success {
			message = MsgSuccess
		}
	}

	body := Body{"success": success, "message": message}

	object, isObject, err := asObject(payload)
	if err != nil {
		return nil, err
	}
	if _, hasData := object["data"]; isObject && hasData {
		for k, v := range object {
			body[k] = v
		}
		// payload keys never override the computed success flag
		body["success"] = success
		if msg := messageOf(object["message"]); msg != "" {
			body["message"] = msg
		}
	} else {
		body["data"] = payload
	}

	if inner, isObject, err := asObject(body["data"]); err == nil && isObject {
		if msg := messageOf(inner["message"]); msg != "" {
			body["message"] = msg
		}
	}

	return body, nil
}

// JSONResponse writes payload as-is, without the envelope.
func JSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// Write wraps payload in the envelope and writes it with status.
func Write(w http.ResponseWriter, status int, payload any, message string) {
	body, err := Wrap(payload, message, status)
	if err != nil {
		body = Body{"success": false, "message": MsgException, "details": err.Error(), "data": nil}
		status = http.StatusInternalServerError
	}
	JSONResponse(w, status, body)
}

// SuccessResponse writes a 200 envelope around data.
func SuccessResponse(w http.ResponseWriter, data any) {
	Write(w, http.StatusOK, data, "")
}

// ErrorResponse maps err onto an envelope. Application errors keep their
// status and message, validation errors become a 400 listing each failed
// field, and anything else is reported as a 500.
func ErrorResponse(w http.ResponseWriter, err error, logger *slog.Logger) {
	var validationErrs ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationErrorResponse(w, validationErrs, logger)
		return
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || apperrors.IsType(err, apperrors.CodeInternalError) {
		if logger != nil {
			logger.Error("Internal server error", slog.String("error", err.Error()))
		}
		Write(w, http.StatusInternalServerError, map[string]any{
			"message": MsgException,
			"details": err.Error(),
		}, "")
		return
	}

	if logger != nil {
		logger.Warn("Application error occurred",
			slog.String("code", appErr.Code),
			slog.String("message", appErr.Message),
			slog.String("cause", appErr.Error()))
	}

	body := Body{"success": false, "message": appErr.Message, "data": nil}
	if appErr.Details != "" {
		body["details"] = appErr.Details
	}
	JSONResponse(w, apperrors.GetHTTPCode(err), body)
}

// ValidationErrorResponse writes a 400 describing every failed field.
func ValidationErrorResponse(w http.ResponseWriter, fieldErrs ValidationErrors, logger *slog.Logger) {
	message := ValidationMessage(fieldErrs)
	if logger != nil {
		logger.Warn("Validation error", slog.String("message", message))
	}

	detail := fieldErrs
	if detail == nil {
		detail = ValidationErrors{}
	}
	JSONResponse(w, http.StatusBadRequest, Body{
		"success": false,
		"message": message,
		"detail":  detail,
		"data":    nil,
	})
}

// ValidationMessage renders "Validation Error!" followed by one
// " '<field>' <msg> !" fragment per distinct field, in encounter order.
func ValidationMessage(fieldErrs []FieldError) string {
	var b strings.Builder
	b.WriteString(MsgValidation)

	seen := make(map[string]bool, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Field == "" || seen[fe.Field] {
			continue
		}
		seen[fe.Field] = true
		fmt.Fprintf(&b, " '%s' %s !", fe.Field, fe.Message)
	}
	return b.String()
}

// NotFound is the fallback for unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	ErrorResponse(w, apperrors.NotFoundError(MsgPageNotFound, nil), nil)
}

func asObject(payload any) (map[string]any, bool, error) {
	switch v := payload.(type) {
	case nil:
		return nil, false, nil
	case Body:
		return v, true, nil
	case map[string]any:
		return v, true, nil
	case map[string]string:
		object := make(map[string]any, len(v))
		for k, s := range v {
			object[k] = s
		}
		return object, true, nil
	case string, []byte, bool, int, int64, float64:
		return nil, false, nil
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, false, fmt.Errorf("encode response payload: %w", err)
	}
	trimmed := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false, nil
	}

	var object map[string]any
	if err := json.Unmarshal(raw, &object); err != nil {
		return nil, false, fmt.Errorf("decode response payload: %w", err)
	}
	return object, true, nil
}

func messageOf(v any) string {
	s, _ := v.(string)
	return s
}
