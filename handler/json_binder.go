package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
)

// DefaultMaxJSONSize bounds JSON request bodies.
const DefaultMaxJSONSize = 1 << 20

// BindJSON decodes a JSON body into v, rejecting unknown fields. An empty
// body leaves v untouched.
func BindJSON() Bind {
	return func(r *http.Request, v any) error {
		if r.Body == nil || r.ContentLength == 0 {
			return nil
		}

		if ct := r.Header.Get("Content-Type"); ct != "" {
			mediaType, _, err := mime.ParseMediaType(ct)
			if err != nil || mediaType != "application/json" {
				return ErrUnsupportedMedia.WithMessage(fmt.Sprintf("expected application/json, got %q", ct))
			}
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, DefaultMaxJSONSize+1))
		if err != nil {
			return ErrBadRequest.WithMessage("failed to read request body")
		}
		if len(body) > DefaultMaxJSONSize {
			return ErrRequestTooLarge.WithMessage(fmt.Sprintf("request body exceeds %d bytes", DefaultMaxJSONSize))
		}
		if len(body) == 0 {
			return nil
		}

		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()
		if err := dec.Decode(v); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			switch {
			case errors.As(err, &syntaxErr), errors.As(err, &typeErr), errors.Is(err, io.ErrUnexpectedEOF):
				return ErrBadRequest.WithMessage("invalid JSON body: " + err.Error())
			default:
				return ErrBadRequest.WithMessage(err.Error())
			}
		}
		return nil
	}
}
