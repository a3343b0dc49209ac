package httpx

import "net/http"

// RequireRole allows the request through only when the authenticated
// role matches one of the allowed roles exactly. Roles do not nest;
// an endpoint that admits managers must list them.
func RequireRole(allowed ...string) Middleware {
	want := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		want[role] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if role == "" {
				// No authenticated subject on the context. Misordered
				// middleware chains fail closed here.
				writeBearerError(w, "missing bearer token")
				return
			}

			if _, ok := want[role]; !ok {
				WriteJSON(w, http.StatusForbidden, map[string]string{
					"error":   "forbidden",
					"message": "insufficient role",
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
