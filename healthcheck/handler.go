package healthcheck

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	goSession "github.com/MrEthical07/goSession"
)

// ReportFunc produces the current health document.
type ReportFunc func(ctx context.Context) goSession.HealthReport

// Handler serves report as JSON: 200 when healthy, 503 otherwise.
func Handler(report ReportFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep := goSession.HealthReport{Message: "no health source"}
		if report != nil {
			rep = report(r.Context())
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		if rep.Healthy {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(toWire(rep))
	}
}

// Mount registers the health route on r.
func Mount(r *mux.Router, report ReportFunc) {
	r.HandleFunc(DefaultPath, Handler(report)).Methods(http.MethodGet, http.MethodHead)
}

// NewRouter returns a router serving only the health route.
func NewRouter(report ReportFunc) *mux.Router {
	r := mux.NewRouter()
	Mount(r, report)
	return r
}
