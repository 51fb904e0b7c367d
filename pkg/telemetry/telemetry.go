package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stateforward/go-command/embedded"
	"github.com/stateforward/go-command/kinds"
)

const instrumentation = "github.com/stateforward/go-command"

// NewTrace returns a scheduler trace hook that records every step as a span.
// A nil tracer uses the no-op provider.
//
//	scheduler := command.New(ctx, command.Config{
//		Trace: telemetry.NewTrace(otel.Tracer("robot")),
//	})
func NewTrace(tracer trace.Tracer) func(ctx context.Context, step string, elements ...embedded.Element) func(...any) {
	if tracer == nil {
		tracer = NewProvider().Tracer(instrumentation)
	}
	return func(ctx context.Context, step string, elements ...embedded.Element) func(...any) {
		attributes := make([]attribute.KeyValue, 0, len(elements)*3)
		for _, element := range elements {
			if element == nil {
				continue
			}
			kind := kinds.String(element.Kind())
			attributes = append(attributes,
				attribute.String(kind+".id", element.Id()),
				attribute.String(kind+".name", element.Name()),
			)
			if command, ok := element.(embedded.Command); ok {
				attributes = append(attributes,
					attribute.String(kind+".interrupt_behavior", command.InterruptBehavior().String()),
					attribute.Int(kind+".requirements", len(command.Requirements())),
				)
			}
		}
		_, span := tracer.Start(ctx, step, trace.WithAttributes(attributes...))
		return func(results ...any) {
			for _, result := range results {
				switch result := result.(type) {
				case bool:
					span.SetAttributes(attribute.Bool("command.interrupted", result))
				case error:
					span.RecordError(result)
					span.SetStatus(codes.Error, result.Error())
				}
			}
			span.End()
		}
	}
}

type Provider struct {
	trace.TracerProvider
}

var (
	provider    = &Provider{}
	tracer      = &Tracer{}
	span        = &Span{}
	spanContext = trace.SpanContext{}
)

func NewProvider() *Provider {
	return provider
}

func (provider *Provider) Tracer(name string, options ...trace.TracerOption) trace.Tracer {
	return tracer
}

type Tracer struct {
	trace.Tracer
}

func (tracer *Tracer) Start(ctx context.Context, name string, options ...trace.SpanStartOption) (context.Context, trace.Span) {
	return ctx, span
}

type Span struct {
	trace.Span
}

func (span *Span) End(options ...trace.SpanEndOption)                  {}
func (span *Span) AddEvent(name string, options ...trace.EventOption)  {}
func (span *Span) AddLink(link trace.Link)                             {}
func (span *Span) IsRecording() bool                                   { return false }
func (span *Span) RecordError(err error, options ...trace.EventOption) {}
func (span *Span) SetAttributes(kv ...attribute.KeyValue)              {}
func (span *Span) SetName(name string)                                 {}
func (span *Span) SetStatus(code codes.Code, description string)       {}
func (span *Span) SpanContext() trace.SpanContext                      { return spanContext }
func (span *Span) TracerProvider() trace.TracerProvider                { return provider }
