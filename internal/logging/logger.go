package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	mu      sync.Mutex
	zl      *zap.Logger
	human   io.Writer
	verbose bool
	runID   string
}

type Event struct {
	Level      string
	Event      string
	Lang       string
	Tier       string
	Provider   string
	Model      string
	Attempt    int
	Requested  int
	Accepted   int
	Count      int
	Target     int
	BatchSize  int
	WaitMS     int64
	LatencyMS  int64
	OutputFile string
	Error      string
}

// New writes JSON lines to logFile and, when verbose, to stdout as well.
// Without verbose, stdout only receives short human progress lines.
func New(stdout io.Writer, logFile string, verbose bool) (*Logger, io.Closer, error) {
	sinks := make([]zapcore.WriteSyncer, 0, 2)
	var closer io.Closer
	if verbose && stdout != nil {
		sinks = append(sinks, zapcore.AddSync(stdout))
	}
	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		sinks = append(sinks, f)
		closer = f
	}

	core := zapcore.NewNopCore()
	if len(sinks) > 0 {
		core = zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.NewMultiWriteSyncer(sinks...), zapcore.DebugLevel)
	}
	runID := uuid.NewString()
	l := &Logger{
		zl:      zap.New(core).With(zap.String("run_id", runID)),
		verbose: verbose,
		runID:   runID,
	}
	if !verbose {
		l.human = stdout
	}
	return l, closer, nil
}

// Nop discards everything.
func Nop() *Logger {
	return &Logger{zl: zap.NewNop()}
}

func encoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		MessageKey:     "event",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout(time.RFC3339Nano),
		EncodeDuration: zapcore.MillisDurationEncoder,
	}
}

func (l *Logger) Verbose() bool {
	return l != nil && l.verbose
}

func (l *Logger) RunID() string {
	if l == nil {
		return ""
	}
	return l.runID
}

func (l *Logger) Emit(ev Event) {
	if l == nil || l.zl == nil {
		return
	}
	fields := eventFields(ev)
	switch ev.Level {
	case "debug":
		l.zl.Debug(ev.Event, fields...)
	case "warn":
		l.zl.Warn(ev.Event, fields...)
	case "error":
		l.zl.Error(ev.Event, fields...)
	default:
		l.zl.Info(ev.Event, fields...)
	}

	if l.human == nil {
		return
	}
	line, ok := humanLine(ev)
	if !ok {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = fmt.Fprintln(l.human, line)
}

func (l *Logger) Sync() {
	if l == nil || l.zl == nil {
		return
	}
	_ = l.zl.Sync()
}

var countedEvents = map[string]bool{
	"api_response":   true,
	"tier_done":      true,
	"tier_skip":      true,
	"tier_exhausted": true,
}

func eventFields(ev Event) []zap.Field {
	fields := make([]zap.Field, 0, 8)
	addString := func(key, v string) {
		if v != "" {
			fields = append(fields, zap.String(key, v))
		}
	}
	addInt := func(key string, v int) {
		if v != 0 {
			fields = append(fields, zap.Int(key, v))
		}
	}
	// progress events keep their counters even when they are zero
	addCounter := func(key string, v int) {
		if countedEvents[ev.Event] {
			fields = append(fields, zap.Int(key, v))
			return
		}
		addInt(key, v)
	}
	addInt64 := func(key string, v int64) {
		if v != 0 {
			fields = append(fields, zap.Int64(key, v))
		}
	}
	addString("lang", ev.Lang)
	addString("tier", ev.Tier)
	addString("provider", ev.Provider)
	addString("model", ev.Model)
	addInt("attempt", ev.Attempt)
	addCounter("requested", ev.Requested)
	addCounter("accepted", ev.Accepted)
	addCounter("count", ev.Count)
	addInt("target", ev.Target)
	addInt("batch_size", ev.BatchSize)
	addInt64("wait_ms", ev.WaitMS)
	addInt64("latency_ms", ev.LatencyMS)
	addString("output_file", ev.OutputFile)
	addString("error", ev.Error)
	return fields
}
