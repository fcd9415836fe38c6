package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"patternlab/internal/cli"
	"patternlab/internal/config"
	"patternlab/internal/evolution"
	"patternlab/internal/logging"
	"patternlab/internal/model"
)

var configPath string

// flag name -> config key
var flagKeys = map[string]string{
	"strategy":     "evolution.strategy",
	"generations":  "evolution.generations",
	"population":   "evolution.population_size",
	"target":       "evolution.target_fitness",
	"intensity":    "evolution.mutation_intensity",
	"workers":      "evolution.workers",
	"seed":         "seed",
	"store":        "storage.kind",
	"db":           "storage.path",
	"log-level":    "logging.level",
	"pretty":       "logging.pretty",
	"every-gen":    "logging.every_gen_summary",
	"champion":     "logging.champion_path",
	"metrics-addr": "metrics.addr",
}

var rootCmd = &cobra.Command{
	Use:   "evolve <pattern>",
	Short: "Evolve a live-coding pattern",
	Long: `Evolve runs one evolution session on a pattern and saves the fittest
descendant as a champion.

The pattern argument is a .yaml/.json pattern file, a plain file of code,
or the code itself. Settings come from defaults, the --config file,
PATTERNLAB_* environment variables and flags, in increasing precedence.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	RunE:          runEvolve,
	Version:       evolution.Version,
	SilenceErrors: true,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List sessions recorded in the store",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().String("store", "", "store backend: memory or sqlite")
	rootCmd.PersistentFlags().String("db", "", "sqlite database path")
	rootCmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("pretty", false, "human readable logs")

	f := rootCmd.Flags()
	f.String("strategy", "", "evolution strategy")
	f.Int("generations", 0, "maximum number of generations")
	f.Int("population", 0, "population size")
	f.Float64("target", 0, "target fitness in [0,1]")
	f.Float64("intensity", 0, "mutation intensity in (0,1]")
	f.Int("workers", 0, "parallel fitness evaluations (0 = one per CPU)")
	f.Int64("seed", 0, "random seed")
	f.Bool("every-gen", false, "print a summary line per generation")
	f.String("champion", "", "where to save the champion JSON")
	f.String("metrics-addr", "", "serve prometheus metrics on host:port")

	rootCmd.AddCommand(historyCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	return config.LoadLayered(configPath, func(v *viper.Viper) error {
		for name, key := range flagKeys {
			if fl := cmd.Flags().Lookup(name); fl != nil {
				if err := v.BindPFlag(key, fl); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func runEvolve(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	// 1. Load config and the seed pattern
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	seed, err := cli.ReadPattern(args[0])
	if err != nil {
		return err
	}

	rt, err := cli.NewRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	evoCfg := cli.EvolutionConfig(cfg)
	fmt.Printf("Pattern Evolution - Strategy: %s\n", evoCfg.Strategy)
	fmt.Printf("Population: %d, Generations: %d, Target: %.2f\n", evoCfg.PopulationSize, evoCfg.Generations, evoCfg.TargetFitness)
	fmt.Printf("Store: %s, Seed: %d\n", cfg.Storage.Kind, cfg.Seed)
	fmt.Println("---")

	// 2. Per-generation CSV/JSONL records
	var console io.Writer
	if cfg.Logging.EveryGen {
		console = os.Stdout
	}
	recorder, err := logging.NewRecorder(cfg.Logging.CSVPath, cfg.Logging.JSONPath, console)
	if err != nil {
		return err
	}
	if err := recorder.Init(); err != nil {
		return err
	}
	defer recorder.Close()

	// 3. Engine
	engine, err := evolution.New(evolution.Options{
		Rand:    rand.New(rand.NewSource(cfg.Seed)),
		Store:   rt.Store,
		Logger:  rt.Log,
		Metrics: rt.Metrics,
		Workers: cfg.Evolution.Workers,
		OnGeneration: func(sessionID string, rec model.GenerationRecord) {
			if err := recorder.LogGeneration(sessionID, rec); err != nil {
				rt.Log.Warn().Err(err).Msg("failed to record generation")
			}
		},
	})
	if err != nil {
		return err
	}

	// 4. Evolve
	start := time.Now()
	res, err := engine.EvolvePattern(ctx, seed, evoCfg)
	if err != nil {
		return err
	}
	fmt.Println("---")
	fmt.Printf("Evolution complete! %d generations in %v\n", res.Metadata.Generations, time.Since(start).Round(time.Millisecond))

	// 5. Save champion
	champion := logging.Champion{
		SessionID: res.Metadata.SessionID,
		Strategy:  string(res.Metadata.Strategy),
		Fitness:   res.Metadata.FinalFitness,
		Pattern:   res.EvolvedPattern,
		Genome:    res.BestGenome,
	}
	if err := logging.SaveChampion(cfg.Logging.ChampionPath, champion); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to save champion: %v\n", err)
	}

	fmt.Println(cli.RenderEvolution(res))
	return nil
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	rt, err := cli.NewRuntime(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	sessions, err := rt.Store.ListSessions(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Println(cli.RenderSessions(sessions))
	return nil
}
