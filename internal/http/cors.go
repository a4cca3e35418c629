package httpx

import "net/http"

// applyCORS sets cross-origin headers for configured front-end origins and
// answers preflight requests. Returns true when the request was fully
// handled (preflight).
func (r *Router) applyCORS(w http.ResponseWriter, req *http.Request) bool {
	origin := req.Header.Get("Origin")
	if origin == "" || !r.originAllowed(origin) {
		return false
	}
	headers := w.Header()
	headers.Set("Access-Control-Allow-Origin", origin)
	headers.Set("Access-Control-Allow-Credentials", "true")
	headers.Add("Vary", "Origin")
	if req.Method == http.MethodOptions {
		headers.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		headers.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.WriteHeader(http.StatusNoContent)
		return true
	}
	return false
}

func (r *Router) originAllowed(origin string) bool {
	for _, allowed := range r.allowedOrigins {
		if allowed == origin || allowed == "*" {
			return true
		}
	}
	return false
}
