package core

import (
	"context"
	"sort"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
)

// Observer bundles the logger and metrics recorder shared by the pipeline
// components. The zero value drops everything.
type Observer struct {
	Logger  Logger
	Metrics MetricsRecorder
}

func NewObserver(logger Logger, metrics MetricsRecorder) Observer {
	if logger == nil {
		logger = glog.Nop()
	}
	if metrics == nil {
		metrics = NopMetricsRecorder{}
	}
	return Observer{Logger: logger, Metrics: metrics}
}

type logFunc func(Logger) func(string, ...any)

func (o Observer) Debug(ctx context.Context, message string, fields map[string]any) {
	o.emit(ctx, func(l Logger) func(string, ...any) { return l.Debug }, message, fields)
}

func (o Observer) Info(ctx context.Context, message string, fields map[string]any) {
	o.emit(ctx, func(l Logger) func(string, ...any) { return l.Info }, message, fields)
}

func (o Observer) Warn(ctx context.Context, message string, fields map[string]any) {
	o.emit(ctx, func(l Logger) func(string, ...any) { return l.Warn }, message, fields)
}

func (o Observer) Error(ctx context.Context, message string, fields map[string]any) {
	o.emit(ctx, func(l Logger) func(string, ...any) { return l.Error }, message, fields)
}

func (o Observer) Counter(ctx context.Context, name string, value int64, tags map[string]string) {
	if o.Metrics == nil {
		return
	}
	o.Metrics.IncCounter(ctx, strings.TrimSpace(name), value, CloneTags(tags))
}

func (o Observer) Histogram(ctx context.Context, name string, value float64, tags map[string]string) {
	if o.Metrics == nil {
		return
	}
	o.Metrics.ObserveHistogram(ctx, strings.TrimSpace(name), value, CloneTags(tags))
}

// emit passes fields both as WithFields (when supported) and as sorted
// key/value args.
func (o Observer) emit(ctx context.Context, level logFunc, message string, fields map[string]any) {
	if o.Logger == nil {
		return
	}
	logger := o.Logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if withFields, ok := logger.(FieldsLogger); ok {
		logger = withFields.WithFields(CloneFields(fields))
	}
	level(logger)(message, FlattenFields(fields)...)
}

// ErrorFields returns the standard log fields for a failed operation.
func ErrorFields(err error, fields map[string]any) map[string]any {
	out := CloneFields(fields)
	if err == nil {
		return out
	}
	out["error"] = err.Error()
	if mapped := MapError(err); mapped != nil && mapped.TextCode != "" {
		out["text_code"] = mapped.TextCode
	}
	return out
}

func CloneFields(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return map[string]any{}
	}
	copied := make(map[string]any, len(fields))
	for key, value := range fields {
		copied[key] = value
	}
	return copied
}

// FlattenFields renders fields as sorted key/value pairs.
func FlattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}
