// Package corelog centralizes the zap logger construction used by the
// kawpowcore CLI.
package corelog

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var atom = zap.NewAtomicLevel()

// SelectLevel maps a loglevel flag value onto a zapcore.Level, falling
// back to info for anything unrecognized.
func SelectLevel(loglevel string) zapcore.Level {
	switch loglevel {
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// New builds a JSON-encoded, stdout-locked logger at the given level.
// The logger uses the package's shared atomic level, which SetLevel can
// raise or lower later without rebuilding the logger.
func New(loglevel string) *zap.Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	logger := zap.New(zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.Lock(os.Stdout),
		atom,
	))
	atom.SetLevel(SelectLevel(loglevel))
	return logger
}

// SetLevel adjusts the shared atomic level in place, letting a
// fsnotify-driven config reload change verbosity without restarting.
func SetLevel(loglevel string) {
	atom.SetLevel(SelectLevel(loglevel))
}
