package handler

import (
	"encoding/json"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"
)

// StreamContext is a Context with an open datastar event stream.
type StreamContext interface {
	Context
	// SendSignals patches frontend signals with the JSON encoding of v.
	SendSignals(v any) error
}

// SSEHandler runs for the lifetime of the stream. The stream closes when it
// returns or the client disconnects.
type SSEHandler func(ctx StreamContext) error

type sseResponse struct {
	handler SSEHandler
}

// SSE opens a datastar event stream and runs h on it.
func SSE(h SSEHandler) Response {
	return sseResponse{handler: h}
}

func (s sseResponse) Render(w http.ResponseWriter, r *http.Request) error {
	if !IsDataStar(r) {
		return ErrBadRequest.WithMessage("endpoint requires an event stream connection")
	}
	if _, ok := w.(http.Flusher); !ok {
		return ErrSSENotSupported
	}
	return s.handler(&streamContext{
		Context: NewContext(w, r),
		sse:     datastar.NewSSE(w, r),
	})
}

type streamContext struct {
	Context
	sse *datastar.ServerSentEventGenerator
}

func (c *streamContext) SendSignals(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.sse.PatchSignals(data)
}
