package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TraceElasticsearchCall starts a client span for a search cluster call.
// Examples: index, search, bulk, delete_index
func TraceElasticsearchCall(ctx context.Context, operation, index string) (context.Context, trace.Span) {
	return otel.Tracer("elasticsearch").Start(ctx, "es."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("es.operation", operation),
			attribute.String("es.index", index),
		),
	)
}

// TraceS3Call starts a client span for an object storage call.
func TraceS3Call(ctx context.Context, operation, bucket, key string) (context.Context, trace.Span) {
	return otel.Tracer("s3").Start(ctx, "s3."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("s3.operation", operation),
			attribute.String("s3.bucket", bucket),
			attribute.String("s3.key", key),
		),
	)
}

// TraceEmailCall starts a client span for an outgoing email.
func TraceEmailCall(ctx context.Context, template string) (context.Context, trace.Span) {
	return otel.Tracer("ses").Start(ctx, "ses.send_email",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("email.template", template)),
	)
}

// TraceLLMCall starts a client span for a completion request.
func TraceLLMCall(ctx context.Context, operation, model string) (context.Context, trace.Span) {
	return otel.Tracer("llm").Start(ctx, "llm."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.operation", operation),
			attribute.String("llm.model", model),
		),
	)
}

// TraceFeed starts a span around feed composition.
func TraceFeed(ctx context.Context, username, category string) (context.Context, trace.Span) {
	return otel.Tracer("feed").Start(ctx, "feed.compose",
		trace.WithAttributes(
			attribute.String("user.name", username),
			attribute.String("feed.category", category),
		),
	)
}

// RecordServiceError marks span failed. A nil err is ignored.
func RecordServiceError(span trace.Span, err error) {
	if err == nil {
		return
	}
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
}
