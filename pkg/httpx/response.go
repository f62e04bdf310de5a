package httpx

import (
	"encoding/json"
	"net/http"
	"strings"
)

// WriteJSON writes v as a non-cacheable JSON response. Every body this
// service returns is either per-user or describes a secret, so nothing is
// cacheable.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// NoCache forbids shared and browser caches from storing the response.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}

// ParseSpaceDelimitedFields splits an OAuth style scope list. It returns nil
// for blank input.
func ParseSpaceDelimitedFields(s string) []string {
	if fields := strings.Fields(s); len(fields) > 0 {
		return fields
	}
	return nil
}
