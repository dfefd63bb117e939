// Package pipeline runs the ingredient processing workflow: resolve the
// ingredients, search every recipe source, then enrich the results.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/vbonduro/whatthefridge/internal/domain"
	"github.com/vbonduro/whatthefridge/internal/metrics"
	"github.com/vbonduro/whatthefridge/internal/source"
	"github.com/vbonduro/whatthefridge/internal/vision"
)

// Provider pairs a recipe source with the enricher for the recipes it returns.
type Provider struct {
	Source   domain.Source
	Searcher source.Searcher
	Enricher source.Enricher
	Limit    int
}

type Options struct {
	SourceTimeout     time.Duration
	EnrichTimeout     time.Duration
	EnrichConcurrency int
	// TracerProvider defaults to the global provider.
	TracerProvider trace.TracerProvider
}

const tracerName = "github.com/vbonduro/whatthefridge/internal/pipeline"

// Input is one ingredient submission. Image is optional.
type Input struct {
	Ingredients []string
	Craving     string
	Image       []byte
	ImageMIME   string
}

// Orchestrator sequences the pipeline stages. Providers are searched in
// parallel but their results are concatenated in the order they were given.
type Orchestrator struct {
	recognizer vision.Recognizer
	providers  []Provider
	opts       Options
	tracer     trace.Tracer
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewOrchestrator creates an Orchestrator. recognizer may be nil when image
// input is not supported.
func NewOrchestrator(
	recognizer vision.Recognizer,
	providers []Provider,
	opts Options,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Orchestrator {
	if opts.EnrichConcurrency <= 0 {
		opts.EnrichConcurrency = 1
	}
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Orchestrator{
		recognizer: recognizer,
		providers:  providers,
		opts:       opts,
		tracer:     tp.Tracer(tracerName),
		metrics:    m,
		logger:     logger,
	}
}

type stage struct {
	name string
	run  func(ctx context.Context, s *domain.Session) error
}

// Run executes the pipeline and returns the resulting session. It never
// fails: a stage error is recorded in Session.Error and the remaining stages
// are skipped, leaving whatever the earlier stages produced in place.
func (o *Orchestrator) Run(ctx context.Context, in Input) *domain.Session {
	start := time.Now()
	ctx, span := o.tracer.Start(ctx, "pipeline.Run")
	defer span.End()

	s := domain.NewSession(in.Ingredients, in.Craving)

	stages := []stage{
		{name: "ingredients", run: func(ctx context.Context, s *domain.Session) error {
			return o.resolveIngredients(ctx, s, in)
		}},
		{name: "search", run: o.searchRecipes},
		{name: "extract", run: o.extractDetails},
	}

	var failed string
	for _, st := range stages {
		if err := o.runStage(ctx, st, s); err != nil {
			s.Error = err.Error()
			failed = st.name
			o.logger.Error("pipeline stage failed", "stage", st.name, "step", s.CurrentStep.String(), "error", err)
			break
		}
		o.logger.Info("pipeline stage complete", "stage", st.name, "step", s.CurrentStep.String())
	}

	s.UpdatedAt = time.Now()
	o.metrics.RecordPipelineRun(ctx, failed, time.Since(start))
	return s
}

// runStage runs one stage, turning a panic in a collaborator into an error.
func (o *Orchestrator) runStage(ctx context.Context, st stage, s *domain.Session) (err error) {
	ctx, span := o.tracer.Start(ctx, "pipeline."+st.name)
	defer func() {
		if r := recover(); r != nil {
			o.logger.Debug("pipeline stage panic", "stage", st.name, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic in %s stage: %v", st.name, r)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	return st.run(ctx, s)
}

func (o *Orchestrator) resolveIngredients(ctx context.Context, s *domain.Session, in Input) error {
	if len(in.Image) > 0 && o.recognizer != nil {
		recognized, err := o.recognizer.Recognize(ctx, in.Image, vision.NormalizeMIME(in.ImageMIME))
		if err != nil {
			o.logger.Warn("ingredient recognition failed", "error", err)
		}
		if len(recognized) > 0 {
			s.Ingredients = recognized
		}
		o.logger.Info("ingredients recognized", "count", len(recognized))
	}

	s.SearchQuery = Formulate(s.Ingredients, s.Craving)
	s.CurrentStep = domain.StepIngredientsProcessed
	return nil
}

func (o *Orchestrator) searchRecipes(ctx context.Context, s *domain.Session) error {
	results := make([][]*domain.Recipe, len(o.providers))

	var grp errgroup.Group
	for i, p := range o.providers {
		grp.Go(func() error {
			results[i] = o.search(ctx, p, s.SearchQuery)
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return fmt.Errorf("failed to search recipes: %w", err)
	}

	var recipes []*domain.Recipe
	for _, rs := range results {
		recipes = append(recipes, rs...)
	}
	s.Recipes = recipes
	s.CurrentStep = domain.StepRecipesFound
	return nil
}

// search queries one provider. Errors and panics degrade to no results so one
// failing source never hides the others.
func (o *Orchestrator) search(ctx context.Context, p Provider, query string) (found []*domain.Recipe) {
	ctx, span := o.tracer.Start(ctx, "source.Search",
		trace.WithAttributes(attribute.String("source", string(p.Source))))
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("recipe source panicked", "source", p.Source, "panic", r)
			span.SetStatus(codes.Error, fmt.Sprint(r))
			found = nil
		}
		span.SetAttributes(attribute.Int("results", len(found)))
		span.End()
		o.metrics.RecordRecipesFound(ctx, string(p.Source), len(found))
	}()

	if p.Searcher == nil || p.Limit <= 0 {
		return nil
	}

	ctx, cancel := withTimeout(ctx, o.opts.SourceTimeout)
	defer cancel()

	recipes, err := p.Searcher.Search(ctx, query, p.Limit)
	if err != nil {
		span.RecordError(err)
		o.logger.Warn("recipe search failed", "source", p.Source, "error", err)
		return nil
	}
	recipes = source.Limit(recipes, p.Limit)
	o.logger.Info("recipes found", "source", p.Source, "count", len(recipes))
	return recipes
}

func (o *Orchestrator) extractDetails(ctx context.Context, s *domain.Session) error {
	patches := make([]domain.Patch, len(s.Recipes))

	var grp errgroup.Group
	grp.SetLimit(o.opts.EnrichConcurrency)
	for i, r := range s.Recipes {
		enricher := o.enricherFor(r.Source)
		if enricher == nil {
			continue
		}
		// Enrichers get a copy so a slow call cannot race with the merge below.
		stub := r.Clone()
		grp.Go(func() error {
			patches[i] = o.enrich(ctx, enricher, stub)
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return fmt.Errorf("failed to extract recipe details: %w", err)
	}

	for i, r := range s.Recipes {
		r.Apply(patches[i])
	}
	s.CurrentStep = domain.StepDetailsExtracted
	return nil
}

// enrich fetches one recipe's details. A failure leaves the recipe as a stub.
func (o *Orchestrator) enrich(ctx context.Context, e source.Enricher, r *domain.Recipe) (patch domain.Patch) {
	var err error
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
			patch = domain.Patch{}
		}
		if err != nil {
			o.logger.Warn("recipe enrichment failed", "source", r.Source, "url", r.URL, "error", err)
		}
		o.metrics.RecordEnrichment(ctx, string(r.Source), err)
	}()

	ctx, cancel := withTimeout(ctx, o.opts.EnrichTimeout)
	defer cancel()

	patch, err = e.Enrich(ctx, r)
	if err != nil {
		return domain.Patch{}
	}
	return patch
}

func (o *Orchestrator) enricherFor(src domain.Source) source.Enricher {
	for _, p := range o.providers {
		if p.Source == src {
			return p.Enricher
		}
	}
	return nil
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
