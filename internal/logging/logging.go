package logging

import "go.uber.org/zap"

// New builds the application logger. Production gets JSON output at info
// level; every other environment gets the human-readable development preset.
func New(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
