package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "rentmatch"

// StartQuerySpan starts a span for a marketplace query.
func StartQuerySpan(ctx context.Context, ownerID, sortBy string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "marketplace.query",
		trace.WithAttributes(
			attribute.String("owner.id", ownerID),
			attribute.String("query.sort_by", sortBy),
		),
	)
}

// StartContactSpan starts a span for a contact attempt. The renter is
// identified only by its anonymous id.
func StartContactSpan(ctx context.Context, ownerID, anonymousID, propertyID string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "marketplace.contact",
		trace.WithAttributes(
			attribute.String("owner.id", ownerID),
			attribute.String("renter.anonymous_id", anonymousID),
			attribute.String("property.id", propertyID),
		),
	)
}

// StartDispatchSpan starts a span for notification dispatch.
func StartDispatchSpan(ctx context.Context, contactID, mode string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "notification.dispatch",
		trace.WithAttributes(
			attribute.String("contact.id", contactID),
			attribute.String("dispatch.mode", mode),
		),
	)
}

// EndSpan records err (if any) on span and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
