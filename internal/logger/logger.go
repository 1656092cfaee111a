// internal/logger/logger.go
package logger

import (
	"strings"

	"go.uber.org/zap"
)

// New builds the application logger. Mode "prod"/"production" selects the
// JSON production encoder; anything else gets the console development one.
func New(mode string) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}
	zapLogger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return zapLogger.Sugar(), nil
}
