package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "whatthefridge"

// Metrics records pipeline and conversation activity. Measurements go to the
// global meter provider unless another one is supplied, so they are no-ops
// until an SDK is installed. A nil *Metrics records nothing.
type Metrics struct {
	pipelineRuns     metric.Int64Counter
	pipelineDuration metric.Float64Histogram
	stageFailures    metric.Int64Counter
	recipesFound     metric.Int64Counter
	enrichments      metric.Int64Counter
	chatTurns        metric.Int64Counter
	customizations   metric.Int64Counter
}

// New creates the instruments. A nil provider means the global one.
func New(provider metric.MeterProvider) (*Metrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(meterName)

	pipelineRuns, err := meter.Int64Counter(
		"whatthefridge.pipeline.runs",
		metric.WithDescription("Ingredient pipeline runs by outcome"),
		metric.WithUnit("{run}"),
	)
	if err != nil {
		return nil, err
	}

	pipelineDuration, err := meter.Float64Histogram(
		"whatthefridge.pipeline.duration",
		metric.WithDescription("Duration of ingredient pipeline runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	stageFailures, err := meter.Int64Counter(
		"whatthefridge.pipeline.stage_failures",
		metric.WithDescription("Pipeline stages that ended the run with an error"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, err
	}

	recipesFound, err := meter.Int64Counter(
		"whatthefridge.recipes.found",
		metric.WithDescription("Recipes returned by each source"),
		metric.WithUnit("{recipe}"),
	)
	if err != nil {
		return nil, err
	}

	enrichments, err := meter.Int64Counter(
		"whatthefridge.recipes.enrichments",
		metric.WithDescription("Recipe enrichment attempts by source and outcome"),
		metric.WithUnit("{recipe}"),
	)
	if err != nil {
		return nil, err
	}

	chatTurns, err := meter.Int64Counter(
		"whatthefridge.chat.turns",
		metric.WithDescription("Chat turns by outcome"),
		metric.WithUnit("{turn}"),
	)
	if err != nil {
		return nil, err
	}

	customizations, err := meter.Int64Counter(
		"whatthefridge.chat.customizations",
		metric.WithDescription("Recipe customization attempts by outcome"),
		metric.WithUnit("{customization}"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		pipelineRuns:     pipelineRuns,
		pipelineDuration: pipelineDuration,
		stageFailures:    stageFailures,
		recipesFound:     recipesFound,
		enrichments:      enrichments,
		chatTurns:        chatTurns,
		customizations:   customizations,
	}, nil
}

// RecordPipelineRun records a finished pipeline run. failedStage is the name of the
// failing stage, or "" when the run succeeded.
func (m *Metrics) RecordPipelineRun(ctx context.Context, failedStage string, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if failedStage != "" {
		outcome = "error"
		m.stageFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("stage", failedStage)))
	}
	attrs := metric.WithAttributes(attribute.String("outcome", outcome))
	m.pipelineRuns.Add(ctx, 1, attrs)
	m.pipelineDuration.Record(ctx, duration.Seconds(), attrs)
}

func (m *Metrics) RecordRecipesFound(ctx context.Context, source string, n int) {
	if m == nil {
		return
	}
	m.recipesFound.Add(ctx, int64(n), metric.WithAttributes(attribute.String("source", source)))
}

func (m *Metrics) RecordEnrichment(ctx context.Context, source string, err error) {
	if m == nil {
		return
	}
	m.enrichments.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("outcome", outcome(err)),
	))
}

func (m *Metrics) RecordChatTurn(ctx context.Context, err error) {
	if m == nil {
		return
	}
	m.chatTurns.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome(err))))
}

// RecordCustomization records a customization attempt. skipped is true when
// the target recipe was already customized and no call was made.
func (m *Metrics) RecordCustomization(ctx context.Context, skipped bool, err error) {
	if m == nil {
		return
	}
	o := outcome(err)
	if skipped {
		o = "skipped"
	}
	m.customizations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", o)))
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
