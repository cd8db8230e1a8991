package upstream

import "net/http"

// Services bundles the four upstream collaborators. Constructed once at
// startup from the immutable configuration and shared read-only by every
// tool invocation.
type Services struct {
	LOS  *Client
	VHS  *Client
	Node *Rippled
	Meta *Client
}

// NewServices builds clients for the configured base addresses. A nil
// httpClient selects http.DefaultClient.
func NewServices(losURL, vhsURL, rippledURL, metaURL string, httpClient Doer) *Services {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Services{
		LOS:  New(losURL, httpClient),
		VHS:  New(vhsURL, httpClient),
		Node: NewRippled(New(rippledURL, httpClient)),
		Meta: New(metaURL, httpClient),
	}
}
