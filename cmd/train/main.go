package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/mitchelldurbincs/BattleDiceRL/internal/config"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/dice"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/logging"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/monitoring"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/trainer"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	env := flag.String("env", os.Getenv("APP_ENV"), "Environment overlay (loads config.<env>.yaml)")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error) (empty to use config default)")
	only := flag.String("collections", "", "Comma-separated collection keys to train (empty for all)")
	episodes := flag.Int("episodes", -1, "Episodes per collection (-1 to use config default)")
	seed := flag.Int64("seed", -1, "Base random seed (-1 to use config default)")
	parallel := flag.Int("parallel", -1, "Collections trained at once (-1 to use config default)")
	outDir := flag.String("out", "", "Artifact directory (empty to use config default)")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize config")
	}
	if err := config.LoadEnvironmentConfig(*env); err != nil {
		log.Fatal().Err(err).Msg("Failed to load environment config")
	}
	cfg := config.Get()

	if *logLevel == "" {
		*logLevel = cfg.Logging.Level
	}
	logging.Setup(os.Stderr, *logLevel, cfg.Logging.Format)

	tc := cfg.TrainerConfig()
	if *episodes != -1 {
		tc.Episodes = *episodes
	}
	if *seed != -1 {
		tc.Seed = *seed
	}
	if *parallel == -1 {
		*parallel = cfg.Training.Parallel
	}
	if *outDir != "" {
		config.Set("artifacts.dir", *outDir)
		cfg = config.Get()
	}
	if err := tc.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid training configuration")
	}

	collections, err := selectCollections(cfg.DiceCollections(), *only)
	if err != nil {
		log.Fatal().Err(err).Msg("Unknown collection")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	monitor := monitoring.NewTrainingMonitor(os.Stderr, tc.Episodes*len(collections), log.Logger)
	monitor.Start()
	defer monitor.Stop()

	log.Info().
		Strs("collections", collectionKeys(collections)).
		Int("episodes", tc.Episodes).
		Int("parallel", *parallel).
		Str("artifacts", cfg.Artifacts.Dir).
		Msg("Starting training")

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(*parallel)
	for i, c := range collections {
		runCfg := tc
		// one independent random stream per collection
		runCfg.Seed = tc.Seed + int64(i)
		g.Go(func() error {
			return train(ctx, runCfg, c, cfg, monitor)
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("Training failed")
	}

	for _, run := range monitor.GetMetrics().Runs {
		log.Info().
			Str("collection", run.Collection).
			Str("run_id", run.RunID).
			Int("episodes", run.Episodes).
			Float64("win_rate", run.WinRate()).
			Float64("epsilon", run.Epsilon).
			Msg("Training summary")
	}
}

func train(ctx context.Context, tc trainer.Config, c dice.Collection, cfg *config.Config, monitor *monitoring.TrainingMonitor) error {
	t, err := trainer.New(tc, c, cfg.GameRules(), cfg.RewardConfig(), log.Logger)
	if err != nil {
		return err
	}
	monitor.Register(c.Key, t.RunID(), tc.Episodes)
	t.OnEpisode(monitor.Record)

	if _, err := t.Train(ctx); err != nil {
		return err
	}
	monitor.Finish(c.Key)
	return t.Save(cfg.ArtifactPath(c.Key))
}

func selectCollections(all map[string]dice.Collection, only string) ([]dice.Collection, error) {
	var keys []string
	if only == "" {
		keys = dice.SortedKeys(all)
	} else {
		keys = strings.Split(only, ",")
	}

	out := make([]dice.Collection, 0, len(keys))
	for _, k := range keys {
		c, err := dice.Lookup(all, strings.TrimSpace(k))
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func collectionKeys(cs []dice.Collection) []string {
	keys := make([]string, len(cs))
	for i, c := range cs {
		keys[i] = c.Key
	}
	return keys
}
