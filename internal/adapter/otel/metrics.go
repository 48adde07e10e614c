package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "rentmatch"

// Metrics holds the RentMatch metric instruments. A nil *Metrics records nothing.
type Metrics struct {
	QueriesServed        metric.Int64Counter
	QueriesForbidden     metric.Int64Counter
	RentersReturned      metric.Int64Histogram
	ContactsCreated      metric.Int64Counter
	ContactsRejected     metric.Int64Counter
	DeliveriesDegraded   metric.Int64Counter
	NotificationsCreated metric.Int64Counter
	DispatchDuration     metric.Float64Histogram
}

// NewMetrics creates all instruments on the global meter provider.
func NewMetrics() (*Metrics, error) {
	return NewMetricsFrom(otel.Meter(meterName))
}

// NewMetricsFrom creates all instruments on meter.
func NewMetricsFrom(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	m.QueriesServed, err = meter.Int64Counter("rentmatch.marketplace.queries",
		metric.WithDescription("Marketplace queries answered"))
	if err != nil {
		return nil, err
	}

	m.QueriesForbidden, err = meter.Int64Counter("rentmatch.marketplace.queries_forbidden",
		metric.WithDescription("Marketplace queries rejected by owner eligibility"))
	if err != nil {
		return nil, err
	}

	m.RentersReturned, err = meter.Int64Histogram("rentmatch.marketplace.renters_returned",
		metric.WithDescription("Anonymized renters per query result"))
	if err != nil {
		return nil, err
	}

	m.ContactsCreated, err = meter.Int64Counter("rentmatch.contacts.created",
		metric.WithDescription("Contact requests created"))
	if err != nil {
		return nil, err
	}

	m.ContactsRejected, err = meter.Int64Counter("rentmatch.contacts.rejected",
		metric.WithDescription("Contact attempts rejected, by error code"))
	if err != nil {
		return nil, err
	}

	m.DeliveriesDegraded, err = meter.Int64Counter("rentmatch.contacts.delivery_degraded",
		metric.WithDescription("Contacts whose notification dispatch failed inline"))
	if err != nil {
		return nil, err
	}

	m.NotificationsCreated, err = meter.Int64Counter("rentmatch.notifications.created",
		metric.WithDescription("Notifications created"))
	if err != nil {
		return nil, err
	}

	m.DispatchDuration, err = meter.Float64Histogram("rentmatch.dispatch.duration_seconds",
		metric.WithDescription("Notification dispatch duration in seconds"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// QueryServed records one answered marketplace query.
func (m *Metrics) QueryServed(ctx context.Context, results int) {
	if m == nil {
		return
	}
	m.QueriesServed.Add(ctx, 1)
	m.RentersReturned.Record(ctx, int64(results))
}

// QueryForbidden records one rejected marketplace query.
func (m *Metrics) QueryForbidden(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.QueriesForbidden.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

// ContactCreated records one created contact request.
func (m *Metrics) ContactCreated(ctx context.Context, degraded bool) {
	if m == nil {
		return
	}
	m.ContactsCreated.Add(ctx, 1)
	if degraded {
		m.DeliveriesDegraded.Add(ctx, 1)
	}
}

// ContactRejected records one rejected contact attempt.
func (m *Metrics) ContactRejected(ctx context.Context, code string) {
	if m == nil {
		return
	}
	m.ContactsRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("code", code)))
}

// Dispatched records one dispatch attempt.
func (m *Metrics) Dispatched(ctx context.Context, mode string, created bool, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.DispatchDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("mode", mode),
		attribute.String("outcome", outcome),
	))
	if created {
		m.NotificationsCreated.Add(ctx, 1)
	}
}
