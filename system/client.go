package system

import "net/http"

// Client performs HTTP requests for documents referenced by URL.
type Client interface {
	Do(req *http.Request) (*http.Response, error)
}

var _ Client = (*http.Client)(nil)
