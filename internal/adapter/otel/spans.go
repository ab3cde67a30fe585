package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "marketplace"

// StartRequestSpan starts a span for an access request submission.
func StartRequestSpan(ctx context.Context, requestID, requester, targetProduct string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "request",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
			attribute.String("request.requester", requester),
			attribute.String("request.target_product", targetProduct),
		),
	)
}

// StartDecisionSpan starts a span for a request decision.
func StartDecisionSpan(ctx context.Context, requestID, decision string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "decision",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
			attribute.String("decision.value", decision),
		),
	)
}

// StartReadSpan starts a span for a gated data read.
func StartReadSpan(ctx context.Context, username, product string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "read",
		trace.WithAttributes(
			attribute.String("read.username", username),
			attribute.String("read.product", product),
		),
	)
}
