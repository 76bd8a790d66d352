package cache

import (
	"net/url"
	"sort"
	"strings"
)

// TokenParam is the query parameter carrying the API token. It is left out of
// every key.
const TokenParam = "token"

// Key identifies one cached page response.
type Key struct {
	// Endpoint is the API path (e.g., "/searchContact.json")
	Endpoint string

	// Query holds the request parameters, including offset and pageSize.
	Query url.Values
}

// String generates a deterministic key string.
// Format: datacom:endpoint:param1=val1:param2=val2a,val2b
//
// Example:
//
//	datacom:searchContact.json:firstname=Ada:offset=0:pageSize=50
func (k Key) String() string {
	parts := []string{"datacom"}

	endpoint := strings.Trim(k.Endpoint, "/")
	if endpoint != "" {
		parts = append(parts, endpoint)
	}

	if len(k.Query) > 0 {
		names := make([]string, 0, len(k.Query))
		for name := range k.Query {
			if name == TokenParam {
				continue
			}
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			values := append([]string(nil), k.Query[name]...)
			sort.Strings(values)
			parts = append(parts, name+"="+strings.Join(values, ","))
		}
	}

	return strings.Join(parts, ":")
}
