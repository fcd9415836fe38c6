package main

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"patternlab/internal/breeding"
	"patternlab/internal/cli"
	"patternlab/internal/config"
)

var (
	configPath string
	outPath    string
)

// flag name -> config key
var flagKeys = map[string]string{
	"strategy":       "breeding.strategy",
	"offspring":      "breeding.offspring",
	"mutation-rate":  "breeding.mutation_rate",
	"crossover-rate": "breeding.crossover_rate",
	"dominance":      "breeding.dominance",
	"preserve-genre": "breeding.preserve_genre",
	"seed":           "seed",
	"store":          "storage.kind",
	"db":             "storage.path",
	"log-level":      "logging.level",
	"pretty":         "logging.pretty",
	"metrics-addr":   "metrics.addr",
}

var rootCmd = &cobra.Command{
	Use:   "breed <pattern>...",
	Short: "Breed offspring from one or more parent patterns",
	Long: `Breed combines the musical chromosomes of the parent patterns into new
offspring and writes them as a YAML stream.

Each argument is a .yaml/.json pattern file, a plain file of code, or the
code itself. Strategies: sexual, asexual, polygamous, hybrid, chimeric.`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBreed,
	Version:       breeding.Version,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the breeding history kept in the store",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().String("store", "", "store backend: memory or sqlite")
	rootCmd.PersistentFlags().String("db", "", "sqlite database path")
	rootCmd.PersistentFlags().String("log-level", "", "log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().Bool("pretty", false, "human readable logs")

	f := rootCmd.Flags()
	f.String("strategy", "", "breeding strategy")
	f.Int("offspring", 0, "offspring per breeding (1-16)")
	f.Float64("mutation-rate", 0, "mutation rate in [0,1]")
	f.Float64("crossover-rate", 0, "crossover rate in [0,1]")
	f.String("dominance", "", "dominance: balanced, maternal, paternal, random")
	f.Bool("preserve-genre", false, "keep the first parent's genre")
	f.Int64("seed", 0, "random seed")
	f.String("metrics-addr", "", "serve prometheus metrics on host:port")
	f.StringVarP(&outPath, "out", "o", "", "write offspring YAML here instead of stdout")

	rootCmd.AddCommand(statsCmd)
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

func newSystem(rt *cli.Runtime) (*breeding.System, error) {
	return breeding.New(breeding.Options{
		Rand:    rand.New(rand.NewSource(rt.Config.Seed)),
		Store:   rt.Store,
		Logger:  rt.Log,
		Metrics: rt.Metrics,
	})
}

func runBreed(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	// 1. Load config and parents
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	parents, err := cli.ReadPatterns(args)
	if err != nil {
		return err
	}

	rt, err := cli.NewRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	bcfg := cli.BreedingConfig(cfg)
	fmt.Fprintf(os.Stderr, "Breeding %d parent(s) - Strategy: %s, Offspring: %d\n", len(parents), bcfg.Strategy, bcfg.Offspring)
	fmt.Fprintf(os.Stderr, "Mutation: %.2f, Crossover: %.2f, Dominance: %s, Seed: %d\n",
		bcfg.MutationRate, bcfg.CrossoverRate, bcfg.Dominance, cfg.Seed)

	// 2. Breed
	sys, err := newSystem(rt)
	if err != nil {
		return err
	}
	kids, err := sys.BreedPatterns(ctx, parents, bcfg)
	if err != nil {
		return err
	}

	// 3. Write offspring
	var out io.Writer = os.Stdout
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if err := cli.WritePatterns(out, kids); err != nil {
		return fmt.Errorf("write offspring: %w", err)
	}

	// Stdout carries the YAML unless --out redirected it
	if outPath != "" {
		fmt.Println(cli.RenderOffspring(kids))
	} else {
		fmt.Fprintln(os.Stderr, cli.RenderOffspring(kids))
	}
	return nil
}

func runStats(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	rt, err := cli.NewRuntime(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	sys, err := newSystem(rt)
	if err != nil {
		return err
	}
	st, err := sys.Stats(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Println(cli.RenderBreedingStats(st))
	return nil
}
