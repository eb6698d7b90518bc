package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	params "github.com/goliatone/go-params"
	"github.com/goliatone/go-params/internal/watch"
	"github.com/goliatone/go-params/layering"
	"github.com/goliatone/go-params/pkg/state"
	"github.com/goliatone/go-params/schema/openapi"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// flagKeys maps persistent flags to the config keys they override.
var flagKeys = map[string]string{
	"namespace":  "namespace",
	"schema":     "schema",
	"backend":    "backend.kind",
	"evaluator":  "evaluator",
	"log-level":  "log.level",
	"log-format": "log.format",
}

func newRootCmd(environ []string, stdout, stderr io.Writer) *cobra.Command {
	var a *app
	cmd := &cobra.Command{
		Use:           "paramctl",
		Short:         "Resolve and manage typed parameters in a parameter store",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			configPath, err := cmd.Flags().GetString("config")
			if err != nil {
				return err
			}
			overrides := map[string]any{}
			for flag, key := range flagKeys {
				if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
					overrides[key] = f.Value.String()
				}
			}
			cfg, err := LoadConfig(configPath, environ, overrides)
			if err != nil {
				return err
			}
			a, err = newApp(cfg, stdout, stderr)
			return err
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	flags := cmd.PersistentFlags()
	flags.String("config", "", "Path to a paramctl config file")
	flags.String("namespace", "", "Namespace inserted into parameter keys")
	flags.String("schema", "", "Descriptor file (YAML or JSON)")
	flags.String("backend", "", "Store backend: memory, redis or sqlite")
	flags.String("evaluator", "", "Rule evaluator: expr, cel or js")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("log-format", "", "Log format: text, json or tint")

	current := func() *app { return a }
	cmd.AddCommand(
		resolveCmd(current),
		publishCmd(current),
		applyCmd(current),
		watchCmd(current),
		schemaCmd(current),
		dumpCmd(current),
	)
	return cmd
}

type appFunc func() *app

// session bundles the collaborators a store-backed command works with.
type session struct {
	set    *params.DescriptorSet
	store  state.ListingStore
	engine *params.Engine
	host   *params.MapRecord
	close  func() error
}

func (a *app) open(ctx context.Context) (*session, error) {
	set, err := a.descriptors()
	if err != nil {
		return nil, err
	}
	engine, err := a.engine()
	if err != nil {
		return nil, err
	}
	store, closer, err := a.store(ctx)
	if err != nil {
		return nil, err
	}
	return &session{
		set:    set,
		store:  store,
		engine: engine,
		host:   params.NewMapRecord(set),
		close:  closer.Close,
	}, nil
}

func resolveCmd(current appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve",
		Short: "Resolve every declared parameter from the store and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := current()
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			report, resolveErr := s.engine.Resolve(cmd.Context(), s.set, s.store, s.host)
			if report != nil {
				if err := writeJSON(a.stdout, map[string]any{
					"values": s.host.Snapshot(),
					"report": report,
				}); err != nil {
					return err
				}
			}
			return resolveErr
		},
	}
}

func publishCmd(current appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "publish [snapshot files...]",
		Short: "Write defaults, overlaid with the given snapshot files, to the store",
		Long: "Publish writes every non-constant parameter to the store. Values start " +
			"from the declared defaults; snapshot files are layered on top, strongest first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			if len(args) > 0 {
				if _, err := applyFiles(cmd.Context(), s, args); err != nil {
					return err
				}
			}
			return s.engine.Publish(cmd.Context(), s.set, s.host, s.store)
		},
	}
}

func applyCmd(current appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "apply snapshot-file [more files...]",
		Short: "Resolve from the store, apply snapshot files and publish the result",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			if _, err := s.engine.Resolve(cmd.Context(), s.set, s.store, s.host); err != nil {
				return err
			}
			provenance, err := applyFiles(cmd.Context(), s, args)
			if err != nil {
				return err
			}
			if err := s.engine.Publish(cmd.Context(), s.set, s.host, s.store); err != nil {
				return err
			}
			return writeJSON(a.stdout, map[string]any{"applied": provenance})
		},
	}
}

// applyFiles merges the snapshot files and applies them to the session host.
func applyFiles(ctx context.Context, s *session, paths []string) (layering.Provenance, error) {
	layers, err := layering.ReadFiles(paths...)
	if err != nil {
		return nil, err
	}
	merged, provenance := layering.Merge(layers...)
	typed, err := coerceSnapshot(s.set, merged)
	if err != nil {
		return nil, err
	}
	if err := s.engine.ApplySnapshot(ctx, typed, s.host); err != nil {
		return nil, err
	}
	return provenance, nil
}

// coerceSnapshot converts decoded file values to each parameter's declared
// type. Unknown names pass through so ApplySnapshot can reject them.
func coerceSnapshot(set *params.DescriptorSet, snapshot map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(snapshot))
	for name, value := range snapshot {
		d, ok := set.Lookup(name)
		if !ok || name == params.GroupsKey {
			out[name] = value
			continue
		}
		if d.Constant {
			return nil, fmt.Errorf("%w: %s", params.ErrConstantOverride, name)
		}
		resolved, err := params.Coerce(value, d)
		if err != nil {
			return nil, err
		}
		clamped, _ := params.Clamp(resolved.Value, d)
		out[name] = clamped
	}
	return out, nil
}

func watchCmd(current appFunc) *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "watch snapshot-file",
		Short: "Apply and publish a snapshot file every time it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			s, err := a.open(ctx)
			if err != nil {
				return err
			}
			defer s.close()

			if _, err := s.engine.Resolve(ctx, s.set, s.store, s.host); err != nil {
				return err
			}

			if metricsAddr == "" {
				metricsAddr = a.cfg.Metrics.Addr
			}
			if metricsAddr != "" {
				srv := &http.Server{Addr: metricsAddr, Handler: a.metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						a.log.Error("metrics server failed", "addr", metricsAddr, "error", err)
					}
				}()
				defer srv.Close()
			}

			w, err := watch.New(args[0], func(ctx context.Context, snapshot map[string]any) error {
				typed, err := coerceSnapshot(s.set, snapshot)
				if err != nil {
					return err
				}
				if err := s.engine.ApplySnapshot(ctx, typed, s.host); err != nil {
					return err
				}
				return s.engine.Publish(ctx, s.set, s.host, s.store)
			}, watch.WithInitialLoad(), watch.WithLogger(a.log))
			if err != nil {
				return err
			}
			return w.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	return cmd
}

func schemaCmd(current appFunc) *cobra.Command {
	var format, title string
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the descriptor set as an OpenAPI document",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			a := current()
			set, err := a.descriptors()
			if err != nil {
				return err
			}
			doc, err := openapi.Generate(set,
				openapi.WithNamespace(a.cfg.Namespace),
				openapi.WithTitle(title),
				openapi.WithPath(snapshotPath(a.cfg.Namespace)),
			)
			if err != nil {
				return err
			}
			switch format {
			case "yaml":
				enc := yaml.NewEncoder(a.stdout)
				defer enc.Close()
				return enc.Encode(doc)
			case "json":
				return writeJSON(a.stdout, doc)
			default:
				return fmt.Errorf("unknown format %q", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or yaml")
	cmd.Flags().StringVar(&title, "title", "", "Document title (default Parameters)")
	return cmd
}

// snapshotPath nests the snapshot operation under the namespace.
func snapshotPath(namespace string) string {
	if ns := strings.Trim(namespace, "/~"); ns != "" {
		return "/" + ns + "/params"
	}
	return "/params"
}

func dumpCmd(current appFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "dump [prefix]",
		Short: "Print every stored key and value under prefix",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := current()
			store, closer, err := a.store(cmd.Context())
			if err != nil {
				return err
			}
			defer closer.Close()

			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			values, err := state.Dump(cmd.Context(), store, prefix)
			if err != nil {
				return err
			}
			return writeJSON(a.stdout, values)
		},
	}
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
