package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mitchelldurbincs/BattleDiceRL/internal/game"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/nn"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/policy"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/testutil"
)

// writeStopPolicy saves a collection A policy that always stops
func writeStopPolicy(t *testing.T, dir string) string {
	t.Helper()
	c := testutil.CollectionA()
	in, out := game.ObservationSize(len(c.Dice)), len(c.Dice)+1
	biases := make([]float64, out)
	biases[out-1] = 1
	network, err := nn.FromLayers([]nn.LayerParams{{
		In: in, Out: out, Weights: make([]float64, in*out), Biases: biases,
	}})
	require.NoError(t, err)

	path := filepath.Join(dir, policy.FileName(c.Key))
	require.NoError(t, policy.Save(path, policy.NewArtifact(policy.Metadata{
		Collection: c.Key,
		Dice:       c.Dice,
		Target:     c.Target,
		RerollNorm: game.DefaultRules().FirstMoverRerolls,
		RunID:      "test",
		Episodes:   1,
		TrainedAt:  time.Now(),
	}, network)))
	return path
}

func TestRun_JSONOutputIsClean(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})
	t.Setenv("APP_ENV", "")

	dir := t.TempDir()
	model := writeStopPolicy(t, dir)
	configFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("logging:\n  level: info\n  format: console\n"), 0644))

	var stdout, stderr bytes.Buffer
	err := run([]string{"-config", configFile, "-model", model, "-seed", "5", "-json"}, &stdout, &stderr)
	require.NoError(t, err)

	var turn game.TurnResult
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &turn), "stdout must hold only the turn: %q", stdout.String())
	assert.Len(t, turn.Rolls, 3)
	assert.Len(t, turn.Log, 1)
	assert.Contains(t, stderr.String(), "Policy loaded")
}

func TestRun_MissingModel(t *testing.T) {
	prevLogger, prevLevel := log.Logger, zerolog.GlobalLevel()
	t.Cleanup(func() {
		log.Logger = prevLogger
		zerolog.SetGlobalLevel(prevLevel)
	})

	dir := t.TempDir()
	var stdout, stderr bytes.Buffer
	err := run([]string{"-model", filepath.Join(dir, "nope.model"), "-json"}, &stdout, &stderr)
	require.Error(t, err)
	assert.ErrorIs(t, err, policy.ErrMissingArtifactFile)
	assert.Empty(t, stdout.String())
}
