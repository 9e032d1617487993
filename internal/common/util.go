package common

import "strings"

// WipeByteArray overwrites the contents of b with zeros. It is used to drop
// passwords from memory once they were sent to the backend.
//
// If the slice is nil, the function does nothing.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}

// BearerValue formats a token as an Authorization header value. An empty or
// blank token yields an empty string so callers can skip the header.
func BearerValue(token string) string {
	token = strings.TrimSpace(token)
	if token == "" {
		return ""
	}
	return "Bearer " + token
}
