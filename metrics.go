package listen

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// ObserveMetrics registers observable gauges for the pair's live token
// count and current limit on meter. The returned Registration unregisters
// them.
//
// The reported count reads the counter at collection time and may briefly
// exceed the limit; see Minter.ActiveTokens.
func ObserveMetrics(m *Minter, meter metric.Meter) (metric.Registration, error) {
	active, err := meter.Int64ObservableGauge(
		"listen.active_tokens",
		metric.WithDescription("Number of currently live backpressure tokens."),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return nil, fmt.Errorf("listen: registering active_tokens gauge: %w", err)
	}
	limit, err := meter.Int64ObservableGauge(
		"listen.limit",
		metric.WithDescription("Current limit on live backpressure tokens."),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return nil, fmt.Errorf("listen: registering limit gauge: %w", err)
	}
	reg, err := meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		o.ObserveInt64(active, int64(m.ActiveTokens()))
		o.ObserveInt64(limit, int64(m.Limit()))
		return nil
	}, active, limit)
	if err != nil {
		return nil, fmt.Errorf("listen: registering metrics callback: %w", err)
	}
	return reg, nil
}
