package server

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type healthResponse struct {
	OK string `json:"ok"`
}

// healthHandler отвечает статичным payload и не обращается ни к спискам, ни к брокеру.
func healthHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(healthResponse{OK: "yes"}); err != nil {
			// Клиент ушел, статус уже отправлен.
			logger.Debug("failed to write health response",
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
		}
	}
}
