package middleware

import "net/http"

// MaxRequestSize caps request bodies. Multipart uploads get the larger
// upload limit.
func MaxRequestSize(jsonLimit, uploadLimit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				limit := jsonLimit
				if extractContentType(r.Header.Get("Content-Type")) == contentTypeMultipart {
					limit = uploadLimit
				}
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}
