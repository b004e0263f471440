package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mitchelldurbincs/BattleDiceRL/internal/config"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/dice"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/game"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/game/events"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/game/events/subscribers"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/inference"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/logging"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/ui/renderer"
)

type options struct {
	only    string
	matches int
	seed    int64
	logPath string
	verbose bool
}

func main() {
	configPath := flag.String("config", "", "Path to config file")
	logLevel := flag.String("log-level", "", "Log level (debug, info, warn, error) (empty to use config default)")
	var opts options
	flag.StringVar(&opts.only, "collections", "", "Comma-separated collection keys to evaluate (empty for all)")
	flag.IntVar(&opts.matches, "matches", -1, "Matches per collection (-1 to use config default)")
	flag.Int64Var(&opts.seed, "seed", -1, "Dice seed (-1 to use config default)")
	flag.StringVar(&opts.logPath, "log", "", "Write every match log as JSON to this file")
	flag.BoolVar(&opts.verbose, "v", false, "Print every match")
	watch := flag.Bool("watch", false, "Re-run the evaluation whenever the config file changes")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize config")
	}
	cfg := config.Get()
	if *logLevel == "" {
		*logLevel = cfg.Logging.Level
	}
	logging.Setup(os.Stderr, *logLevel, cfg.Logging.Format)

	if err := evaluate(cfg, opts); err != nil {
		log.Fatal().Err(err).Msg("Evaluation failed")
	}
	if !*watch {
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reload := make(chan *config.Config, 1)
	config.WatchConfig(func(c *config.Config) {
		select {
		case reload <- c:
		default:
		}
	}, func(err error) {
		log.Warn().Err(err).Msg("Ignoring invalid config change")
	})
	log.Info().Str("config", config.ConfigFilePath()).Msg("Watching config for changes")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Stopped watching")
			return
		case c := <-reload:
			log.Info().Msg("Config changed, re-running evaluation")
			if err := evaluate(c, opts); err != nil {
				log.Error().Err(err).Msg("Evaluation failed")
			}
		}
	}
}

func evaluate(cfg *config.Config, opts options) error {
	matches := opts.matches
	if matches == -1 {
		matches = cfg.Evaluation.Matches
	}
	seed := opts.seed
	if seed == -1 {
		seed = cfg.Evaluation.Seed
	}

	collections, err := selectCollections(cfg.DiceCollections(), opts.only)
	if err != nil {
		return err
	}

	bus := events.NewEventBus(log.Logger)
	tally := subscribers.NewTallySubscriber("evaluation")
	bus.Subscribe(tally)
	eventLog := subscribers.NewLoggerSubscriber("event_log", log.Logger, zerolog.DebugLevel)
	eventLog.SetEventFilter([]string{events.TypeRoundFinished, events.TypeMatchFinished})
	bus.Subscribe(eventLog)

	var rows []renderer.SummaryRow
	var results []game.MatchResult
	for i, c := range collections {
		tally.Reset()
		roller := dice.NewRoller(rand.New(rand.NewSource(seed + int64(i))))

		ai, err := inference.Load(cfg.ArtifactPath(c.Key), c, cfg.Rules.FirstMoverRerolls, roller, log.Logger)
		if err != nil {
			return err
		}
		opponent := game.NewHeuristicPlayer(cfg.Rules.OpponentMargin, c.Target, roller)

		for n := 0; n < matches; n++ {
			m, err := game.NewMatch(c, cfg.GameRules(), cfg.Rules.RoundsPerMatch, ai, opponent, log.Logger)
			if err != nil {
				return err
			}
			m.SetPublisher(bus)
			result, err := m.Play()
			if err != nil {
				return err
			}
			if opts.verbose {
				fmt.Println(renderer.Match(c, result))
				fmt.Println(renderer.Winner(result))
			}
			if opts.logPath != "" {
				results = append(results, result)
			}
		}

		t := tally.Tally()
		rows = append(rows, renderer.SummaryRow{
			Collection:  c.Key,
			Matches:     t.Matches,
			Wins:        t.MatchWins[0],
			Losses:      t.MatchWins[1],
			Draws:       t.MatchDraws,
			BustRate:    t.BustRate(0),
			MeanSum:     t.MeanSum(0),
			MeanRerolls: t.MeanRerolls(0),
		})
	}

	fmt.Println(renderer.Summary("Policy vs heuristic", rows))

	if opts.logPath != "" {
		if err := writeMatchLog(opts.logPath, results); err != nil {
			return err
		}
		log.Info().Str("path", opts.logPath).Int("matches", len(results)).Msg("Match log written")
	}
	return nil
}

func writeMatchLog(path string, results []game.MatchResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating match log: %w", err)
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		f.Close()
		return fmt.Errorf("writing match log: %w", err)
	}
	return f.Close()
}

func selectCollections(all map[string]dice.Collection, only string) ([]dice.Collection, error) {
	if only == "" {
		out := make([]dice.Collection, 0, len(all))
		for _, k := range dice.SortedKeys(all) {
			out = append(out, all[k])
		}
		return out, nil
	}

	var out []dice.Collection
	for _, k := range strings.Split(only, ",") {
		c, err := dice.Lookup(all, strings.TrimSpace(k))
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
