package cmd

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// debugEnv switches the startup logger to debug level when set to anything
const debugEnv = "POST_REVISIONS_DEBUG"

// bootstrapLogger writes to stderr until the configured logger exists.
// config discovery, chdir and config reloads log here.
//
// bootstrapLogger 主日志器就绪前使用，只输出到 stderr
var bootstrapLogger = newBootstrapLogger(os.Getenv(debugEnv) != "")

func newBootstrapLogger(debug bool) *zap.Logger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if debug {
		level.SetLevel(zapcore.DebugLevel)
	}

	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeLevel = zapcore.CapitalColorLevelEncoder
	enc.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.Lock(os.Stderr), level)
	return zap.New(core, zap.AddCaller()).Named("bootstrap")
}
