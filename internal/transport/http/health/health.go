package health

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/swaggyasy/tff-socket-server/platform/logger"
)

type response struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"`
	Environment string `json:"environment"`
}

func HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	err := json.NewEncoder(w).Encode(response{
		Status:      "OK",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Environment: os.Getenv("APP_ENV"),
	})
	if err != nil {
		logger.Error(r.Context(), "health check", logger.ErrorF(err))
	}
}
