package config

import (
	"log/slog"

	"cvmatch/internal/errors"
)

func newMockLogger() *errors.Logger { return errors.NewLogger(slog.LevelError) }
