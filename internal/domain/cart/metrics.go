package cart

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const meterName = "github.com/blessingcarter623/amatymasocialapp/internal/domain/cart"

type metrics struct {
	mutations     metric.Int64Counter
	persistErrors metric.Int64Counter
	corrupt       metric.Int64Counter
}

func newMetrics(mp metric.MeterProvider) (*metrics, error) {
	if mp == nil {
		mp = noop.NewMeterProvider()
	}
	meter := mp.Meter(meterName)

	var (
		m   metrics
		err error
	)
	if m.mutations, err = meter.Int64Counter("cart.mutations",
		metric.WithDescription("Cart mutations applied, by operation"),
	); err != nil {
		return nil, errors.Wrap(err, "mutations counter")
	}
	if m.persistErrors, err = meter.Int64Counter("cart.persist.errors",
		metric.WithDescription("Cart documents that could not be written to the slot store"),
	); err != nil {
		return nil, errors.Wrap(err, "persist errors counter")
	}
	if m.corrupt, err = meter.Int64Counter("cart.hydrate.corrupt",
		metric.WithDescription("Persisted cart documents discarded as unreadable"),
	); err != nil {
		return nil, errors.Wrap(err, "corrupt counter")
	}
	return &m, nil
}

func (m *metrics) mutation(ctx context.Context, op string) {
	m.mutations.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}
