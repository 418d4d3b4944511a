package handler

import (
	"encoding/json"
	"errors"
	"net/http"
)

// JSONResponse is the body of every JSON response.
type JSONResponse struct {
	Data  any          `json:"data,omitempty"`
	Error *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail describes a failed request.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type jsonResponse struct {
	status int
	body   JSONResponse
}

func (j jsonResponse) Render(w http.ResponseWriter, _ *http.Request) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

// JSONOption configures a JSON response.
type JSONOption func(*jsonResponse)

// WithJSONStatus sets the HTTP status code.
func WithJSONStatus(status int) JSONOption {
	return func(r *jsonResponse) { r.status = status }
}

// JSON wraps v in the data envelope with status 200.
func JSON(v any, opts ...JSONOption) Response {
	r := &jsonResponse{status: http.StatusOK, body: JSONResponse{Data: v}}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// JSONError renders err in the error envelope. An HTTPError in err's chain
// sets status and code; anything else is a 500 with a generic message.
func JSONError(err error, opts ...JSONOption) Response {
	httpErr := ErrInternalServerError.WithMessage(http.StatusText(http.StatusInternalServerError))
	var he HTTPError
	if errors.As(err, &he) {
		httpErr = he
	}

	msg := httpErr.Message
	if msg == "" {
		msg = http.StatusText(httpErr.Code)
	}
	r := &jsonResponse{
		status: httpErr.Code,
		body:   JSONResponse{Error: &ErrorDetail{Code: httpErr.Key, Message: msg}},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}
