package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"go.uber.org/zap"

	"github.com/familybudget/family-budget-api/models"
)

// Config holds the project config values
type Config struct {
	URL          string
	DatabaseName string
	BaseURL      string
	Port         string
}

// New sets up all config related services
func New() *Config {

	//setup zap logger and replace default logger
	logger, err := setLogger(os.Getenv("APP_ENV"))
	if err != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		URL:          os.Getenv("DB_URI"),
		DatabaseName: os.Getenv("DB_NAME"),
		BaseURL:      os.Getenv("BASE_URL"),
		Port:         os.Getenv("PORT"),
	}

}

func setLogger(env string) (*zap.Logger, error) {
	switch env {
	case "production":
		return zap.NewProduction()
	case "development":
		return zap.NewDevelopment()
	default:
		return zap.NewExample(), nil
	}
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.WriteHeader(httpStatusCode)
	w.Write([]byte(fmt.Sprintf(`{"response": "%s, %v"}`, message, err)))
}

// ClassifiedErrorStatus writes a classified invitation workflow error with
// the full {kind, message, canRetry, suggestedAction} contract the UI
// renders from.
func ClassifiedErrorStatus(resp models.ClassifiedErrorResponse, httpStatusCode int, w http.ResponseWriter) {
	zap.S().Errorw("classified error",
		"kind", resp.Kind,
		"message", resp.Message,
	)
	w.WriteHeader(httpStatusCode)
	b, err := json.Marshal(resp)
	if err != nil {
		w.Write([]byte(`{"kind": "SYSTEM_ERROR", "message": "failed to encode error response"}`))
		return
	}
	w.Write(b)
}
