package diag

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger: 结构化日志器（zap 包装）。
// 事件字段约定：comp / stage(start|finish|error) / code / dur_ms / corr_id。
// 输出到 stderr；凭证在进入本层前已脱敏（httpx 负责）。
type Logger struct {
	z      *zap.Logger
	corrID string
}

// NewLogger 按级别初始化；corrID 随单次调用生成，贯穿全部事件。
func NewLogger(corrID, level string) *Logger {
	lvl := zapcore.InfoLevel
	if err := lvl.Set(level); err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
	z, err := cfg.Build(zap.WithCaller(false))
	if err != nil {
		z = zap.NewNop()
	}
	return &Logger{z: z.With(zap.String("corr_id", corrID)), corrID: corrID}
}

// Nop 返回静默日志器（测试用）。
func Nop() *Logger { return &Logger{z: zap.NewNop()} }

// Start 记录 start 事件；返回计时器用于 Finish。
func (l *Logger) Start(comp, msg string) *Timer {
	l.z.Info(msg, zap.String("comp", comp), zap.String("stage", "start"))
	return &Timer{l: l, comp: comp, t0: time.Now()}
}

// Debug 输出调试级事件（级别不足时丢弃）。
func (l *Logger) Debug(comp, msg string, kv ...zap.Field) {
	fields := append([]zap.Field{zap.String("comp", comp)}, kv...)
	l.z.Debug(msg, fields...)
}

// Error 记录 error 事件（不采样）。
func (l *Logger) Error(comp string, code Code, msg string, kv ...zap.Field) {
	fields := append([]zap.Field{
		zap.String("comp", comp),
		zap.String("stage", "error"),
		zap.String("code", string(code)),
	}, kv...)
	l.z.Error(msg, fields...)
}

// Sync 冲刷底层缓冲。
func (l *Logger) Sync() { _ = l.z.Sync() }

// Timer 用于 start→finish 计时。
type Timer struct {
	l    *Logger
	comp string
	t0   time.Time
}

// Finish 记录 finish；可选 count。
func (t *Timer) Finish(msg string, count int64) {
	if t == nil || t.l == nil {
		return
	}
	t.l.z.Info(msg,
		zap.String("comp", t.comp),
		zap.String("stage", "finish"),
		zap.Int64("dur_ms", time.Since(t.t0).Milliseconds()),
		zap.Int64("count", count),
	)
}
