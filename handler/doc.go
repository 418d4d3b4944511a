// Package handler adapts typed request handlers to net/http.
//
// A HandlerFunc receives a Context and a bound request value and returns a
// Response that renders itself:
//
//	h := handler.Wrap(func(ctx handler.Context, req checkoutRequest) handler.Response {
//		link, err := engine.Checkout(ctx, userID, opts)
//		if err != nil {
//			return handler.JSONError(err)
//		}
//		return handler.JSON(link)
//	}, handler.WithBinder(handler.BindJSON()))
//
// JSON bodies use the envelope {"data": ...} on success and
// {"error": {"code", "message"}} on failure. SSE streams use datastar signals.
package handler
