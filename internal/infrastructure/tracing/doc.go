/*
Package tracing provides lightweight request tracing.

# Overview

Each HTTP request gets a span. Spans carry a trace ID that is propagated
through X-Trace-ID and X-Span-ID headers and through context.Context, and
are written to the structured log once finished. Outbound calls such as the
remote challenge index fetch forward the trace with Inject.

# Usage

	tracer := tracing.New("playground", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "catalog.refresh")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()
	span.SetTag("session", sessionID)

# Performance

Spans are buffered (1000) and processed on a single collector goroutine.
A full buffer drops spans rather than blocking the request, and spans
submitted after Close are dropped too; Dropped reports both.
*/
package tracing
