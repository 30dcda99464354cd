package logx

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New 构造写 stderr 的 JSON logger。
//
// stdout 留给报告（非 TTY 时 stdout 只有一个 JSON 文档），所以日志一律走 stderr。
func New(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.MessageKey = "message"
	cfg.EncoderConfig.LevelKey = "level"
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return cfg.Build()
}

// OrNop 让可选的 logger 参数在 nil 时退化为 no-op。
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
