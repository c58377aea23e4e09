package xmetrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

// ============================================================================
// 测试辅助函数
// ============================================================================

func newTestTracerProvider() (*sdktrace.TracerProvider, *tracetest.InMemoryExporter) {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
	)
	return tp, exporter
}

func newTestMeterProvider() (*sdkmetric.MeterProvider, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
	)
	return mp, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) (metricdata.Metrics, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

func attrValue(set attribute.Set, key string) string {
	v, ok := set.Value(attribute.Key(key))
	if !ok {
		return ""
	}
	return v.Emit()
}

// ============================================================================
// NewOTelObserver
// ============================================================================

func TestNewOTelObserver_Default(t *testing.T) {
	obs, err := NewOTelObserver()
	require.NoError(t, err)
	require.NotNil(t, obs)
}

func TestNewOTelObserver_NilOptionsIgnored(t *testing.T) {
	obs, err := NewOTelObserver(nil, WithTracerProvider(nil), WithMeterProvider(nil), WithInstrumentationName(""))
	require.NoError(t, err)
	require.NotNil(t, obs)
}

// ============================================================================
// Start / End
// ============================================================================

func TestOTelObserver_SpanRecorded(t *testing.T) {
	tp, exporter := newTestTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	obs, err := NewOTelObserver(WithTracerProvider(tp))
	require.NoError(t, err)

	ctx, span := obs.Start(context.Background(), SpanOptions{
		Component: "resize",
		Operation: "execute",
		Attrs:     []Attr{Int("worker", 3)},
	})
	require.NotNil(t, ctx)
	span.End(Result{})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "resize.execute", spans[0].Name)
	assert.Equal(t, trace.SpanKindConsumer, spans[0].SpanKind)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)

	var worker int64 = -1
	for _, kv := range spans[0].Attributes {
		if kv.Key == "worker" {
			worker = kv.Value.AsInt64()
		}
	}
	assert.Equal(t, int64(3), worker)
}

func TestOTelObserver_SpanError(t *testing.T) {
	tp, exporter := newTestTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	obs, err := NewOTelObserver(WithTracerProvider(tp))
	require.NoError(t, err)

	_, span := obs.Start(context.Background(), SpanOptions{Component: "c", Operation: "op"})
	span.End(Result{Err: errors.New("boom")})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "boom", spans[0].Status.Description)
	assert.NotEmpty(t, spans[0].Events)
}

func TestOTelObserver_StatusErrorWithoutErr(t *testing.T) {
	tp, exporter := newTestTracerProvider()
	defer func() { _ = tp.Shutdown(context.Background()) }()

	obs, err := NewOTelObserver(WithTracerProvider(tp))
	require.NoError(t, err)

	_, span := obs.Start(context.Background(), SpanOptions{})
	span.End(Result{Status: StatusError})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "unknown.unknown", spans[0].Name)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "task failed", spans[0].Status.Description)
}

func TestOTelObserver_MetricsRecordedOnce(t *testing.T) {
	mp, reader := newTestMeterProvider()
	defer func() { _ = mp.Shutdown(context.Background()) }()

	obs, err := NewOTelObserver(WithMeterProvider(mp))
	require.NoError(t, err)

	_, span := obs.Start(context.Background(), SpanOptions{Component: "c", Operation: "execute"})
	span.End(Result{})
	span.End(Result{Err: errors.New("ignored")}) // 幂等

	_, span = obs.Start(context.Background(), SpanOptions{Component: "c", Operation: "execute"})
	span.End(Result{Err: errors.New("failed")})

	rm := collect(t, reader)
	m, ok := findMetric(rm, metricTaskTotal)
	require.True(t, ok)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	byStatus := map[string]int64{}
	for _, dp := range sum.DataPoints {
		assert.Equal(t, "c", attrValue(dp.Attributes, "component"))
		byStatus[attrValue(dp.Attributes, "status")] += dp.Value
	}
	assert.Equal(t, int64(1), byStatus["ok"])
	assert.Equal(t, int64(1), byStatus["error"])

	_, ok = findMetric(rm, metricTaskDuration)
	assert.True(t, ok)
}

func TestOTelObserver_CanceledContextStillRecords(t *testing.T) {
	mp, reader := newTestMeterProvider()
	defer func() { _ = mp.Shutdown(context.Background()) }()

	obs, err := NewOTelObserver(WithMeterProvider(mp))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	_, span := obs.Start(ctx, SpanOptions{Component: "c", Operation: "execute"})
	cancel()
	span.End(Result{})

	m, ok := findMetric(collect(t, reader), metricTaskTotal)
	require.True(t, ok)
	sum := m.Data.(metricdata.Sum[int64])
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(1), sum.DataPoints[0].Value)
}

// ============================================================================
// RegisterGauges
// ============================================================================

func TestOTelObserver_RegisterGauges(t *testing.T) {
	mp, reader := newTestMeterProvider()
	defer func() { _ = mp.Shutdown(context.Background()) }()

	obs, err := NewOTelObserver(WithMeterProvider(mp))
	require.NoError(t, err)

	depth := int64(7)
	unregister, err := obs.RegisterGauges("pool-a", Gauge{
		Name:        "xpool.queue.depth",
		Description: "queued",
		Value:       func() int64 { return depth },
	})
	require.NoError(t, err)

	m, ok := findMetric(collect(t, reader), "xpool.queue.depth")
	require.True(t, ok)
	gauge, ok := m.Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(7), gauge.DataPoints[0].Value)
	assert.Equal(t, "pool-a", attrValue(gauge.DataPoints[0].Attributes, "component"))

	require.NoError(t, unregister())
	require.NoError(t, unregister()) // 幂等

	// 注销后不再产生数据点
	if m, ok = findMetric(collect(t, reader), "xpool.queue.depth"); ok {
		gauge, _ = m.Data.(metricdata.Gauge[int64])
		assert.Empty(t, gauge.DataPoints)
	}
}

func TestOTelObserver_RegisterGauges_Invalid(t *testing.T) {
	obs, err := NewOTelObserver()
	require.NoError(t, err)

	_, err = obs.RegisterGauges("c", Gauge{Name: "", Value: func() int64 { return 0 }})
	assert.ErrorIs(t, err, ErrInvalidGauge)

	_, err = obs.RegisterGauges("c", Gauge{Name: "g"})
	assert.ErrorIs(t, err, ErrInvalidGauge)
}

func TestOTelObserver_RegisterGauges_Empty(t *testing.T) {
	obs, err := NewOTelObserver()
	require.NoError(t, err)

	unregister, err := obs.RegisterGauges("c")
	require.NoError(t, err)
	assert.NoError(t, unregister())
}

// ============================================================================
// 属性转换
// ============================================================================

func TestToKeyValue(t *testing.T) {
	tests := []struct {
		name string
		attr Attr
		want attribute.KeyValue
	}{
		{"string", String("k", "v"), attribute.String("k", "v")},
		{"bool", Attr{Key: "k", Value: true}, attribute.Bool("k", true)},
		{"int", Int("k", 1), attribute.Int("k", 1)},
		{"int64", Attr{Key: "k", Value: int64(2)}, attribute.Int64("k", 2)},
		{"float64", Attr{Key: "k", Value: 1.5}, attribute.Float64("k", 1.5)},
		{"duration", Attr{Key: "k", Value: time.Second}, attribute.Int64("k", int64(time.Second))},
		{"uint64_overflow", Attr{Key: "k", Value: uint64(1 << 63)}, attribute.String("k", "9223372036854775808")},
		{"error", Attr{Key: "k", Value: errors.New("e")}, attribute.String("k", "e")},
		{"other", Attr{Key: "k", Value: []int{1}}, attribute.String("k", "[1]")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, toKeyValue(tt.attr))
		})
	}
}

func TestAttrsToOTel_SkipsInvalid(t *testing.T) {
	assert.Nil(t, attrsToOTel(nil))
	got := attrsToOTel([]Attr{{Key: "", Value: 1}, {Key: "k", Value: nil}, Int("ok", 1)})
	require.Len(t, got, 1)
	assert.Equal(t, attribute.Key("ok"), got[0].Key)
}
