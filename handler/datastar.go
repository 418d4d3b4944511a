package handler

import (
	"net/http"
	"strings"
)

const (
	// DataStarAcceptHeader marks a request that accepts an event stream.
	DataStarAcceptHeader = "text/event-stream"
	// DataStarQueryParam carries datastar signals on GET requests.
	DataStarQueryParam = "datastar"
)

// IsDataStar reports whether r expects a datastar event stream.
func IsDataStar(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), DataStarAcceptHeader) {
		return true
	}
	return r.URL.Query().Has(DataStarQueryParam)
}
