package middleware

import (
	"net/http"
)

// MaxBytes caps the request body; oversized bodies surface as read errors in
// the handler instead of exhausting memory.
func MaxBytes(f http.Handler, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		f.ServeHTTP(w, r)
	}
}
