package pkcs8

import (
	"context"
	"errors"
	"sync"
	"testing"

	"go.opentelemetry.io/otel"
	otelattr "go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// opCounts accumulates pkcs8.operations increments keyed by the
// operation attribute.
type opCounts struct {
	mu   sync.Mutex
	byOp map[string]int64
}

func (c *opCounts) add(op string, incr int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.byOp[op] += incr
}

func (c *opCounts) get(op string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.byOp[op]
}

// countingProvider intercepts the pkcs8.operations counter; every
// other instrument stays a no-op.
type countingProvider struct {
	noop.MeterProvider
	counts *opCounts
}

func (p countingProvider) Meter(string, ...metric.MeterOption) metric.Meter {
	return countingMeter{counts: p.counts}
}

type countingMeter struct {
	noop.Meter
	counts *opCounts
}

func (m countingMeter) Int64Counter(name string, opts ...metric.Int64CounterOption) (metric.Int64Counter, error) {
	if name != "pkcs8.operations" {
		return m.Meter.Int64Counter(name, opts...)
	}
	return countingCounter{counts: m.counts}, nil
}

type countingCounter struct {
	noop.Int64Counter
	counts *opCounts
}

func (c countingCounter) Add(_ context.Context, incr int64, opts ...metric.AddOption) {
	set := metric.NewAddConfig(opts).Attributes()
	op, _ := set.Value(otelattr.Key("operation"))
	c.counts.add(op.AsString(), incr)
}

func withOpCounts(t *testing.T) *opCounts {
	t.Helper()
	counts := &opCounts{byOp: make(map[string]int64)}
	otel.SetMeterProvider(countingProvider{counts: counts})
	t.Cleanup(func() { otel.SetMeterProvider(noop.NewMeterProvider()) })
	return counts
}

func TestDecryptAndDecodeCountsOnce(t *testing.T) {
	k := testKey(t)
	enc, err := k.Encrypt("opensesame", fastParams())
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	counts := withOpCounts(t)
	if _, _, err := DecryptAndDecode("opensesame", enc); err != nil {
		t.Fatalf("DecryptAndDecode: %v", err)
	}

	if got := counts.get("decrypt"); got != 1 {
		t.Errorf("decrypt operations: got %d, want 1", got)
	}
	if got := counts.get("decode"); got != 0 {
		t.Errorf("decode operations: got %d, want 0", got)
	}

	if _, _, err := Decode(enc[:0]); err == nil {
		t.Fatal("Decode: expected error for empty input")
	}
	if got := counts.get("decode"); got != 1 {
		t.Errorf("decode operations after Decode: got %d, want 1", got)
	}
}

func TestOutcome(t *testing.T) {
	if got := outcome(nil); got != "ok" {
		t.Errorf("outcome(nil): got %q", got)
	}
	if got := outcome(errors.New("boom")); got != "error" {
		t.Errorf("outcome(err): got %q", got)
	}
}
