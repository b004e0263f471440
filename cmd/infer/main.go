package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mitchelldurbincs/BattleDiceRL/internal/config"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/dice"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/inference"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/logging"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/ui/renderer"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		log.Fatal().Err(err).Msg("Inference failed")
	}
}

// run plays one turn and writes it to stdout. Logs go to stderr so that
// -json output can be piped.
func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("infer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Path to config file")
	logLevel := fs.String("log-level", "", "Log level (debug, info, warn, error) (empty to use config default)")
	key := fs.String("collection", "A", "Collection key")
	modelPath := fs.String("model", "", "Artifact path (empty for <artifacts.dir>/battle_dice_dqn_<KEY>.model)")
	rerolls := fs.Int("rerolls", -1, "Reroll budget (-1 for the first mover budget)")
	seed := fs.Int64("seed", 0, "Dice seed (0 for time-based)")
	asJSON := fs.Bool("json", false, "Print the turn as JSON instead of narrating it")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := config.Init(*configPath); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}
	cfg := config.Get()
	if *logLevel == "" {
		*logLevel = cfg.Logging.Level
	}
	logging.Setup(stderr, *logLevel, cfg.Logging.Format)

	c, err := dice.Lookup(cfg.DiceCollections(), *key)
	if err != nil {
		return err
	}
	if *modelPath == "" {
		*modelPath = cfg.ArtifactPath(c.Key)
	}
	if *rerolls == -1 {
		*rerolls = cfg.Rules.FirstMoverRerolls
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	roller := dice.NewRoller(rand.New(rand.NewSource(*seed)))
	player, err := inference.Load(*modelPath, c, cfg.Rules.FirstMoverRerolls, roller, log.Logger)
	if err != nil {
		return fmt.Errorf("failed to load policy %s: %w", *modelPath, err)
	}

	turn, err := player.PlayTurn(c.Dice, *rerolls)
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(turn)
	}
	_, err = fmt.Fprintln(stdout, renderer.Turn(c, player.Name(), turn))
	return err
}
