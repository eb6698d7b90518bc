package main

import (
	"context"
	"fmt"
	"io"
	"os"

	params "github.com/goliatone/go-params"
	"github.com/goliatone/go-params/pkg/activity"
	"github.com/goliatone/go-params/pkg/logger"
	"github.com/goliatone/go-params/pkg/metrics"
	"github.com/goliatone/go-params/pkg/state"
	"github.com/goliatone/go-params/schema"
)

// app holds what every command needs once configuration is loaded.
type app struct {
	cfg     *Config
	log     params.Logger
	metrics *metrics.Collector
	stdout  io.Writer
}

func newApp(cfg *Config, stdout, stderr io.Writer) (*app, error) {
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logCfg := logger.Config{Level: level, Output: stderr}
	var log params.Logger
	switch cfg.Log.Format {
	case "json":
		logCfg.JSON = true
		log = logger.New(logCfg)
	case "tint":
		log = logger.NewTint(logCfg)
	default:
		log = logger.New(logCfg)
	}
	collector, err := metrics.New(nil)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log, metrics: collector, stdout: stdout}, nil
}

func (a *app) descriptors() (*params.DescriptorSet, error) {
	if a.cfg.Schema == "" {
		return nil, fmt.Errorf("no descriptor file configured, set --schema or schema in the config file")
	}
	return schema.LoadFile(a.cfg.Schema)
}

func (a *app) store(ctx context.Context) (state.ListingStore, io.Closer, error) {
	return openBackend(ctx, a.cfg.Backend)
}

func (a *app) engine() (*params.Engine, error) {
	cache := params.NewLRUProgramCache(a.cfg.CacheSize)
	var evaluator params.Evaluator
	switch a.cfg.Evaluator {
	case "cel":
		evaluator = params.NewCELEvaluator(params.CELWithProgramCache(cache))
	case "js":
		if !params.JSEvaluatorAvailable() {
			return nil, fmt.Errorf("js evaluator requested but paramctl was built without the js_eval tag")
		}
		evaluator = params.NewJSEvaluator(params.JSWithProgramCache(cache))
	default:
		evaluator = params.NewExprEvaluator(params.ExprWithProgramCache(cache))
	}
	actor := a.cfg.Actor
	if actor == "" {
		if host, err := os.Hostname(); err == nil {
			actor = host
		}
	}
	return params.New(
		params.WithNamespace(a.cfg.Namespace),
		params.WithLogger(a.log),
		params.WithEvaluator(evaluator),
		params.WithRuleObserver(a.metrics),
		params.WithActivityHooks(activity.Hooks{a.metrics}),
		params.WithActivityActor(actor),
	), nil
}
