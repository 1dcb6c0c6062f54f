package logger_test

import (
	"errors"

	"github.com/wonny/trendscore/pkg/config"
	"github.com/wonny/trendscore/pkg/logger"
)

// Example_withFields demonstrates structured logging with fields
func Example_withFields() {
	log := logger.New(&config.Config{
		Env:       "production",
		LogLevel:  "info",
		LogFormat: "json",
	})

	log.WithFields(map[string]interface{}{
		"code":       "600519",
		"buy_signal": "BUY",
		"score":      68,
	}).Info("Analysis completed")

	err := errors.New("tagger timeout")
	log.WithError(err).WithField("code", "600519").Warn("Sector tags unavailable")
}
