package health

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

const (
	statusUp   = "UP"
	statusDown = "DOWN"
)

type listenerStatus struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

type healthResponse struct {
	Status    string           `json:"status"`
	Readiness ReadinessStatus  `json:"readiness"`
	Listeners []listenerStatus `json:"listeners"`
}

// NewHandler serves GET /health. It answers 200 once every component is
// ready and 503 before that.
func NewHandler(checker ReadinessChecker, reporters []StateReporter, log *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		resp := healthResponse{
			Status:    statusDown,
			Readiness: checker.GetStatus(),
			Listeners: make([]listenerStatus, 0, len(reporters)),
		}
		for _, r := range reporters {
			resp.Listeners = append(resp.Listeners, listenerStatus{Name: r.Name(), State: r.State()})
		}

		code := http.StatusServiceUnavailable
		if resp.Readiness.Ready {
			resp.Status = statusUp
			code = http.StatusOK
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			log.Debug("failed to write health response", zap.Error(err))
		}
	})
	return mux
}
