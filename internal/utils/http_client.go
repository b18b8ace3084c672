package utils

import (
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPClient is a resty client preconfigured for JSON APIs.
type HTTPClient struct {
	*resty.Client
}

// NewHTTPClient returns an [HTTPClient] for baseURL. requestTimeout bounds
// the whole request; connectTimeout bounds the TCP dial. Zero disables the
// respective limit.
func NewHTTPClient(baseURL string, requestTimeout, connectTimeout time.Duration) *HTTPClient {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if connectTimeout > 0 {
		dialer := &net.Dialer{Timeout: connectTimeout, KeepAlive: 30 * time.Second}
		transport.DialContext = dialer.DialContext
	}

	client := resty.New().
		SetTransport(transport).
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if requestTimeout > 0 {
		client.SetTimeout(requestTimeout)
	}

	return &HTTPClient{Client: client}
}
