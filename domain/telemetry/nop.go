package telemetry

import "context"

// Nop returns a tracer and meter that record nothing.
func Nop() (Tracer, Meter) {
	return nopTracer{}, nopMeter{}
}

type nopTracer struct{}

func (nopTracer) StartSpan(ctx context.Context, _ string, _ ...Attribute) (context.Context, Span) {
	return ctx, nopSpan{}
}

type nopSpan struct{}

func (nopSpan) End()                       {}
func (nopSpan) SetAttributes(...Attribute) {}
func (nopSpan) RecordError(error)          {}

type nopMeter struct{}

func (nopMeter) Counter(string, ...MetricOption) Counter     { return nopInstrument{} }
func (nopMeter) Histogram(string, ...MetricOption) Histogram { return nopInstrument{} }

type nopInstrument struct{}

func (nopInstrument) Add(context.Context, int64, ...Attribute)      {}
func (nopInstrument) Record(context.Context, float64, ...Attribute) {}
