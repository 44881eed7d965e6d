package ctxutil

import "context"

type traceDataKey struct{}

// TraceData identifies one request across log lines and response headers.
type TraceData struct {
	TraceID   string
	RequestID string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

// LogFields returns the trace identifiers as logger key-value pairs, nil
// when the context carries none.
func LogFields(ctx context.Context) []interface{} {
	td := GetTraceData(ctx)
	if td == nil {
		return nil
	}
	var kvs []interface{}
	if td.TraceID != "" {
		kvs = append(kvs, "trace_id", td.TraceID)
	}
	if td.RequestID != "" {
		kvs = append(kvs, "request_id", td.RequestID)
	}
	return kvs
}
