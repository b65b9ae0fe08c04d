package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"travelagent/internal/logging"
	"travelagent/internal/model"
	"travelagent/internal/utils"

	"github.com/panjf2000/ants/v2"
	"github.com/rs/zerolog"
)

var (
	// ErrModeNotConfigured means no specialist factory exists for a mode
	ErrModeNotConfigured = errors.New("generation mode not configured")
	// ErrUnknownMode means an explicit mode is not a generation mode
	ErrUnknownMode = errors.New("unknown generation mode")
	// ErrDeploymentNotAllowed means a request selected a deployment outside
	// the configured list
	ErrDeploymentNotAllowed = errors.New("deployment not allowed")

	errEmptyQuery = errors.New("query is empty")
)

// SubIntentError reports the failure of one part of a compound request
type SubIntentError struct {
	Index int
	Mode  model.GenerationMode
	Query string
	Err   error
}

func (e *SubIntentError) Error() string {
	return fmt.Sprintf("sub-intent %d (%s %q) failed: %v", e.Index+1, e.Mode, e.Query, e.Err)
}

func (e *SubIntentError) Unwrap() error {
	return e.Err
}

// PartialFailureError is returned with the segments of a request in which
// some specialists failed. Successful segments are still usable.
type PartialFailureError struct {
	Failed    []*SubIntentError
	Completed int
}

func (e *PartialFailureError) Error() string {
	msgs := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		msgs = append(msgs, f.Error())
	}
	return fmt.Sprintf("%d of %d sub-intents failed: %s", len(e.Failed), len(e.Failed)+e.Completed, strings.Join(msgs, "; "))
}

func (e *PartialFailureError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failed))
	for _, f := range e.Failed {
		errs = append(errs, f)
	}
	return errs
}

// RouteResult is the answer to one routed query
type RouteResult struct {
	Response string
	ModeUsed string
	Days     *int
	Intent   model.Intent
	Segments []model.Segment
}

// RouterOptions configures a Router
type RouterOptions struct {
	PoolSize          int
	DefaultDeployment string
	// Deployments limits which deployments a request may select; empty
	// allows any
	Deployments []string
}

// RouteObserver receives progress events while a query is routed
type RouteObserver func(event string, data any)

type routeObserverKey struct{}

// WithRouteObserver attaches an observer to ctx
func WithRouteObserver(ctx context.Context, observer RouteObserver) context.Context {
	return context.WithValue(ctx, routeObserverKey{}, observer)
}

func notify(ctx context.Context, event string, data any) {
	if observer, _ := ctx.Value(routeObserverKey{}).(RouteObserver); observer != nil {
		observer(event, data)
	}
}

type handleKey struct {
	mode       model.GenerationMode
	deployment string
}

// Router maps queries to specialists. Specialists are built lazily and
// cached per (mode, deployment) until Clear.
type Router struct {
	mu      sync.Mutex
	handles map[handleKey]Specialist

	factories  map[model.GenerationMode]SpecialistFactory
	extractor  *IntentExtractor
	classifier *ModeClassifier
	decomposer *MultiIntentDecomposer
	pool       *ants.Pool
	opts       RouterOptions
	logger     zerolog.Logger
}

// NewRouter creates a router. Every generation mode must have a factory.
func NewRouter(
	factories map[model.GenerationMode]SpecialistFactory,
	extractor *IntentExtractor,
	classifier *ModeClassifier,
	decomposer *MultiIntentDecomposer,
	opts RouterOptions,
) (*Router, error) {
	for _, mode := range model.AllModes {
		if factories[mode] == nil {
			return nil, fmt.Errorf("%w: %s", ErrModeNotConfigured, mode)
		}
	}
	if opts.PoolSize <= 0 {
		opts.PoolSize = 4
	}
	if opts.DefaultDeployment == "" {
		opts.DefaultDeployment = "default"
	}

	pool, err := ants.NewPool(opts.PoolSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	return &Router{
		handles:    make(map[handleKey]Specialist),
		factories:  factories,
		extractor:  extractor,
		classifier: classifier,
		decomposer: decomposer,
		pool:       pool,
		opts:       opts,
		logger:     logging.Component("router"),
	}, nil
}

// ListModes describes every mode
func (r *Router) ListModes() []model.ModeInfo {
	return ListModes()
}

// Resolve returns the specialist for mode and deployment, building it on
// first use. Concurrent callers for the same key share one instance.
func (r *Router) Resolve(mode model.GenerationMode, deployment string) (Specialist, error) {
	deployment, err := r.deployment(deployment)
	if err != nil {
		return nil, err
	}

	key := handleKey{mode: mode, deployment: deployment}

	r.mu.Lock()
	defer r.mu.Unlock()

	if h, ok := r.handles[key]; ok {
		return h, nil
	}

	factory := r.factories[mode]
	if factory == nil {
		return nil, fmt.Errorf("%w: %q", ErrModeNotConfigured, mode)
	}

	chatModel := deployment
	if deployment == r.opts.DefaultDeployment {
		chatModel = ""
	}
	h, err := factory(chatModel)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s specialist: %w", mode, err)
	}

	r.handles[key] = h
	r.logger.Debug().Str("mode", string(mode)).Str("deployment", deployment).Msg("specialist created")
	return h, nil
}

func (r *Router) deployment(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == r.opts.DefaultDeployment {
		return r.opts.DefaultDeployment, nil
	}
	if len(r.opts.Deployments) > 0 && !slices.Contains(r.opts.Deployments, name) {
		return "", fmt.Errorf("%w: %q", ErrDeploymentNotAllowed, name)
	}
	return name, nil
}

// CachedHandles returns how many specialists are cached
func (r *Router) CachedHandles() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// Clear drops every cached specialist
func (r *Router) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handles = make(map[handleKey]Specialist)
	r.logger.Info().Msg("specialist cache cleared")
}

// Close releases the worker pool and clears the cache
func (r *Router) Close() {
	r.Clear()
	r.pool.Release()
}

// Route answers query. An explicit mode skips classification and
// decomposition. A compound request runs each part and joins the answers
// in order; if some parts fail the joined answer is returned together with
// a *PartialFailureError.
func (r *Router) Route(ctx context.Context, req model.QueryRequest) (*RouteResult, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, errEmptyQuery
	}

	var explicit model.GenerationMode
	if strings.TrimSpace(req.Mode) != "" {
		mode, ok := model.ParseMode(req.Mode)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownMode, req.Mode)
		}
		explicit = mode
	}
	if _, err := r.deployment(req.Deployment); err != nil {
		return nil, err
	}

	intent := r.extractor.Extract(ctx, query)
	result := &RouteResult{Intent: intent, Days: intent.Days}
	notify(ctx, "intent", intent)

	if explicit != "" {
		return r.routeSingle(ctx, result, query, explicit, req.Deployment)
	}

	decomposition := r.decomposer.Decompose(ctx, query)
	if decomposition.IsMultiIntent {
		return r.routeCompound(ctx, result, decomposition.Intents, req.Deployment)
	}

	mode := decomposition.PrimaryIntent
	if decomposition.Fallback {
		cls := r.classifier.Classify(ctx, query)
		mode = cls.Mode
		if cls.Days != nil {
			result.Days = cls.Days
		}
	}
	return r.routeSingle(ctx, result, query, model.ModeOrDefault(mode), req.Deployment)
}

func (r *Router) routeSingle(ctx context.Context, result *RouteResult, query string, mode model.GenerationMode, deployment string) (*RouteResult, error) {
	result.ModeUsed = string(mode)
	notify(ctx, "mode", map[string]any{"mode": result.ModeUsed, "days": result.Days})

	sp, err := r.Resolve(mode, deployment)
	if err != nil {
		return nil, err
	}

	r.logger.Info().Str("mode", string(mode)).Str("specialist", sp.Name()).Msg("routing query")

	out, err := sp.Handle(ctx, SpecialistRequest{Query: query, Intent: &result.Intent})
	seg := model.Segment{Index: 0, Mode: mode, Specialist: sp.Name(), Query: query, Output: out}
	if err != nil {
		seg.Error = err.Error()
	}
	result.Segments = []model.Segment{seg}
	notify(ctx, "segment", seg)

	if err != nil {
		return result, &SubIntentError{Index: 0, Mode: mode, Query: query, Err: err}
	}
	result.Response = out
	return result, nil
}

func (r *Router) routeCompound(ctx context.Context, result *RouteResult, intents []model.SubIntent, deployment string) (*RouteResult, error) {
	result.ModeUsed = model.ModeMultiAgent
	notify(ctx, "mode", map[string]any{"mode": result.ModeUsed, "days": result.Days, "intents": intents})
	r.logger.Info().Int("intents", len(intents)).Msg("routing compound request")

	// parts run concurrently, so their tokens are not streamed
	ctx = WithTokenSink(ctx, nil)

	segments := make([]model.Segment, len(intents))
	errs := make([]error, len(intents))
	var wg sync.WaitGroup

	for i, sub := range intents {
		segments[i] = model.Segment{Index: i, Mode: sub.Mode, Query: sub.Query()}
		run := func() {
			defer wg.Done()
			sp, err := r.Resolve(sub.Mode, deployment)
			if err != nil {
				errs[i] = err
				return
			}
			segments[i].Specialist = sp.Name()
			segments[i].Output, errs[i] = sp.Handle(ctx, SpecialistRequest{
				Query:  sub.Query(),
				Entity: sub.Entity,
			})
		}

		wg.Add(1)
		if err := r.pool.Submit(run); err != nil {
			wg.Done()
			errs[i] = fmt.Errorf("failed to schedule: %w", err)
		}
	}
	wg.Wait()

	var failed []*SubIntentError
	parts := make([]string, 0, len(segments))
	for i := range segments {
		seg := &segments[i]
		header := fmt.Sprintf("### %d. %s", i+1, utils.TitleCase(strings.ReplaceAll(string(seg.Mode), "_", " ")))
		if seg.Specialist != "" {
			header += fmt.Sprintf(" (%s)", seg.Specialist)
		}

		if errs[i] != nil {
			seg.Error = errs[i].Error()
			failed = append(failed, &SubIntentError{Index: i, Mode: seg.Mode, Query: seg.Query, Err: errs[i]})
			r.logger.Error().Err(errs[i]).Int("index", i).Str("mode", string(seg.Mode)).Msg("sub-intent failed")
			parts = append(parts, header+"\n\n_This part could not be completed._")
			notify(ctx, "segment", *seg)
			continue
		}
		parts = append(parts, header+"\n\n"+seg.Output)
		notify(ctx, "segment", *seg)
	}

	result.Segments = segments
	result.Response = strings.Join(parts, "\n\n---\n\n")

	if len(failed) > 0 {
		return result, &PartialFailureError{Failed: failed, Completed: len(segments) - len(failed)}
	}
	return result, nil
}
