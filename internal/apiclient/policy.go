package apiclient

import (
	"net/http"
	"strings"
)

// Classification is the verdict of AuthFailurePolicy on a failed response.
type Classification string

const (
	// ClassNone means the status is not an authorization failure.
	ClassNone Classification = "none"
	// ClassAuth means the session itself was rejected.
	ClassAuth Classification = "auth"
	// ClassIrrelevant means a 401/403 unrelated to the session, such as a per-resource permission check.
	ClassIrrelevant Classification = "irrelevant"
)

// AuthFailurePolicy decides whether a 401/403 invalidates the stored session.
//
// A failure is auth-related when the request path contains one of PathMarkers or the
// error message contains one of MessageMarkers. Both comparisons are case-insensitive
// substring matches.
type AuthFailurePolicy struct {
	PathMarkers    []string
	MessageMarkers []string
}

// DefaultAuthFailurePolicy matches the markers the HReady backend emits.
func DefaultAuthFailurePolicy() AuthFailurePolicy {
	return AuthFailurePolicy{
		PathMarkers:    []string{"/auth", "login", "logout"},
		MessageMarkers: []string{"token", "unauthorized", "forbidden"},
	}
}

// IsAuthEndpoint reports whether path belongs to the authentication endpoints.
func (p AuthFailurePolicy) IsAuthEndpoint(path string) bool {
	return containsAny(path, p.PathMarkers)
}

// MentionsAuth reports whether message refers to the session credentials.
func (p AuthFailurePolicy) MentionsAuth(message string) bool {
	return containsAny(message, p.MessageMarkers)
}

// Classify labels a response by status, request path and error message.
func (p AuthFailurePolicy) Classify(status int, path, message string) Classification {
	if status != http.StatusUnauthorized && status != http.StatusForbidden {
		return ClassNone
	}
	if p.IsAuthEndpoint(path) || p.MentionsAuth(message) {
		return ClassAuth
	}
	return ClassIrrelevant
}

func containsAny(s string, markers []string) bool {
	lower := strings.ToLower(s)
	for _, m := range markers {
		if m != "" && strings.Contains(lower, strings.ToLower(m)) {
			return true
		}
	}
	return false
}
