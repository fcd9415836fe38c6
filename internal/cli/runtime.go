package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"patternlab/internal/breeding"
	"patternlab/internal/config"
	"patternlab/internal/eval"
	"patternlab/internal/evolution"
	"patternlab/internal/ga"
	"patternlab/internal/logging"
	"patternlab/internal/metrics"
	"patternlab/internal/storage"
)

// Runtime is the set of collaborators a command needs
type Runtime struct {
	Config  *config.Config
	Log     zerolog.Logger
	Store   storage.Store
	Metrics *metrics.Metrics

	server *http.Server
}

// NewRuntime builds the logger, opens and initializes the configured store
// and, when an address is configured, serves prometheus metrics on it.
// Close releases all of it.
func NewRuntime(ctx context.Context, cfg *config.Config) (*Runtime, error) {
	rt := &Runtime{
		Config: cfg,
		Log: logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Pretty: cfg.Logging.Pretty,
			Writer: os.Stderr,
		}),
	}

	store, err := storage.NewStore(cfg.Storage.Kind, cfg.Storage.Path, Retention(cfg))
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		return nil, err
	}
	rt.Store = store

	if cfg.Metrics.Addr != "" {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		rt.Metrics = metrics.New(reg)
		rt.serveMetrics(cfg.Metrics.Addr, reg)
	}
	return rt, nil
}

func (rt *Runtime) serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	rt.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := rt.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			rt.Log.Error().Err(err).Str("addr", addr).Msg("metrics server stopped")
		}
	}()
	rt.Log.Info().Str("addr", addr).Msg("serving metrics")
}

// Close stops the metrics server and closes the store
func (rt *Runtime) Close() error {
	var errs []error
	if rt.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		errs = append(errs, rt.server.Shutdown(ctx))
	}
	if rt.Store != nil {
		errs = append(errs, rt.Store.Close())
	}
	return errors.Join(errs...)
}

// Retention converts the storage section into a retention policy
func Retention(cfg *config.Config) storage.Retention {
	return storage.Retention{
		Sessions:       cfg.Storage.Sessions,
		Specimens:      cfg.Storage.Specimens,
		BreedingEvents: cfg.Storage.BreedingEvents,
	}
}

// EvolutionConfig converts the evolution section into an engine config
func EvolutionConfig(cfg *config.Config) evolution.Config {
	e := cfg.Evolution
	out := evolution.DefaultConfig()
	out.Strategy = evolution.Strategy(e.Strategy)
	out.Generations = e.Generations
	out.TargetFitness = e.TargetFitness
	out.MutationIntensity = e.MutationIntensity
	out.DiversityPressure = e.DiversityPressure
	out.CreativityBoost = e.CreativityBoost
	out.PopulationSize = e.PopulationSize
	out.CrossoverStrategy = ga.CrossoverStrategy(e.CrossoverStrategy)
	out.Constraints.PreserveComponents = append([]string(nil), e.PreserveComponents...)
	out.UserPreferences = eval.Preferences{
		FavoriteGenres:      append([]string(nil), e.Preferences.FavoriteGenres...),
		PreferredComplexity: e.Preferences.PreferredComplexity,
	}
	if e.PreserveOriginalDNA != nil {
		out.PreserveOriginalDNA = *e.PreserveOriginalDNA
	}
	if e.EnableHybridization != nil {
		out.EnableHybridization = *e.EnableHybridization
	}
	return out
}

// BreedingConfig converts the breeding section into a breeding config
func BreedingConfig(cfg *config.Config) breeding.Config {
	b := cfg.Breeding
	out := breeding.DefaultConfig()
	out.Strategy = breeding.Strategy(b.Strategy)
	out.Offspring = b.Offspring
	out.MutationRate = b.MutationRate
	out.CrossoverRate = b.CrossoverRate
	out.Dominance = breeding.Dominance(b.Dominance)
	out.PreserveGenre = b.PreserveGenre
	if b.AllowHybridization != nil {
		out.AllowHybridization = *b.AllowHybridization
	}
	if b.FitnessWeighting != nil {
		out.FitnessWeighting = *b.FitnessWeighting
	}
	return out
}
