// Package urls provides utility functions for working with URLs.
package urls

import (
	"fmt"
	"net/url"
)

const (
	schemeHTTP  = "http"
	schemeHTTPS = "https"
)

// IsURLValid checks if the given URL is valid.
func IsURLValid(raw string) bool {
	u, err := url.Parse(raw)

	return err == nil && u.Scheme != "" && u.Host != "" && (u.Scheme == schemeHTTP || u.Scheme == schemeHTTPS)
}

// WithQuery merges params into the query string of base.
// Params already present in base are overwritten.
func WithQuery(base string, params url.Values) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse %q: %w", base, err)
	}

	q := u.Query()
	for key, values := range params {
		q[key] = append([]string(nil), values...)
	}

	u.RawQuery = q.Encode()

	return u.String(), nil
}
