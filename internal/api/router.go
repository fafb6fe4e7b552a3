package api

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"firmware-manager/internal/api/handlers"
)

// NewRouter wires HTTP routes to handlers.
func NewRouter(dh *handlers.DeviceHandler, jh *handlers.JournalHandler, wh *handlers.WebhookHandler) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", handlers.Health)
	mux.Handle("/api/devices", dh)
	mux.Handle("/api/devices/", dh)
	mux.HandleFunc("/api/scan", dh.Scan)
	mux.Handle("/api/history", jh)
	mux.Handle("/api/webhooks", wh)
	mux.Handle("/api/webhooks/", wh)

	// Swagger UI at /swagger/index.html
	mux.HandleFunc("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return mux
}

// CORSMiddleware allows browser front ends on other origins to call the API.
func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Api-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
