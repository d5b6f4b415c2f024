package web

// errors.go maps errors to user-facing JSON responses with support codes.
//
// Codes by category:
//
//	KEY001  - Key not found            (404)
//	KEY002  - No value column          (404)
//	REQ001  - Request cancelled
//	REQ002  - Request timed out
//	REQ003  - Unknown route            (404)
//	VAL001  - Invalid parameter        (400)
//	VAL005  - Column not found
//	FILE001 - Field too large
//	FILE002 - Malformed CSV
//	FILE003 - Unknown encoding
//	FILE004 - Index file missing
//	ERR000  - Anything else; check the logs for the technical error

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	jsoniter "github.com/json-iterator/go"

	"github.com/JonMunkholm/csvutil/internal/csvutil"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	errRouteNotFound = errors.New("route not found")
	errInvalidParam  = errors.New("invalid parameter")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// ErrorResponse represents the JSON structure for API error responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

type errorRule struct {
	match func(error) bool
	msg   UserMessage
}

func is(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

// errorRules are checked in order; the first match wins.
var errorRules = []errorRule{
	{is(ErrKeyNotFound), UserMessage{"No row with this key", "Check the key, lookups are case-sensitive", "KEY001"}},
	{is(ErrNoValueColumn), UserMessage{"This index has no value column", "Use /api/rows/{key} or restart with -value", "KEY002"}},
	{is(context.Canceled), UserMessage{"Request was cancelled", "Please try again", "REQ001"}},
	{is(context.DeadlineExceeded), UserMessage{"Request timed out", "Please try again", "REQ002"}},
	{is(errRouteNotFound), UserMessage{"Route not found", "See /api/keys, /api/rows/{key} and /api/values/{key}", "REQ003"}},
	{is(errInvalidParam), UserMessage{"Invalid query parameter", "limit and offset must be non-negative integers", "VAL001"}},
	{
		func(err error) bool {
			var mc *csvutil.MissingColumnError
			return errors.As(err, &mc)
		},
		UserMessage{"Expected column not found in CSV", "Verify the key and value column names match the header", "VAL005"},
	},
	{is(csvutil.ErrFieldTooLarge), UserMessage{"A field exceeds the size limit", "Raise CSV_MAX_FIELD_SIZE or set CSV_USE_MAXSIZE", "FILE001"}},
	{is(csvutil.ErrTooManyFields), UserMessage{"A row has more fields than the header", "Check the delimiter setting", "FILE002"}},
	{
		func(err error) bool {
			var pe *csvutil.ParseError
			return errors.As(err, &pe)
		},
		UserMessage{"File is not a valid CSV", "Check quoting and the delimiter setting", "FILE002"},
	},
	{is(csvutil.ErrUnknownEncoding), UserMessage{"Unknown text encoding", "Use an encoding name such as utf-8 or windows-1252", "FILE003"}},
	{is(fs.ErrNotExist), UserMessage{"Index file not found", "Check the file path", "FILE004"}},
}

// defaultMessage is returned when no rule matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	for _, rule := range errorRules {
		if rule.match(err) {
			return rule.msg
		}
	}
	return defaultMessage
}

// respondError logs the technical error and writes the mapped message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := MapError(err)

	level := slog.LevelError
	if statusCode < http.StatusInternalServerError {
		level = slog.LevelInfo
	}
	slog.Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	respondJSON(w, statusCode, ErrorResponse{
		Error:   userMsg.Message,
		Message: userMsg.Message,
		Action:  userMsg.Action,
		Code:    userMsg.Code,
	})
}
