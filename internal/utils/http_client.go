package utils

import (
	"github.com/go-resty/resty/v2"
)

// HTTPClient embeds *resty.Client so the full resty API is available
// directly, while leaving room for engine-specific behavior on top.
type HTTPClient struct {
	*resty.Client
}

// NewHTTPClient returns an independent client with its own configuration
// and connection pool. The backend adapter configures base URL, timeout,
// and auth on top of it.
func NewHTTPClient() *HTTPClient {
	return &HTTPClient{Client: resty.New()}
}
