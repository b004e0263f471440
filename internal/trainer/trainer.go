package trainer

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/mitchelldurbincs/BattleDiceRL/internal/dice"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/experience"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/game"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/nn"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/policy"
)

// EpisodeStats describes one finished training episode
type EpisodeStats struct {
	RunID      string
	Collection string
	Episode    int
	Steps      int
	Reward     float64
	Outcome    game.Outcome
	Epsilon    float64
	// MeanLoss is the average loss of the updates made during the episode,
	// 0 when none were made
	MeanLoss     float64
	Updates      int
	MemorySize   int
	TargetSynced bool
}

// Summary describes a finished training run
type Summary struct {
	RunID        string
	Collection   string
	Episodes     int
	Steps        int
	Updates      int
	Wins         int
	Losses       int
	Draws        int
	TotalReward  float64
	FinalEpsilon float64
	Duration     time.Duration
}

// MeanReward is the average episode reward
func (s Summary) MeanReward() float64 {
	if s.Episodes == 0 {
		return 0
	}
	return s.TotalReward / float64(s.Episodes)
}

// WinRate is the fraction of episodes the agent won
func (s Summary) WinRate() float64 {
	if s.Episodes == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Episodes)
}

// Trainer runs deep Q-learning for one dice collection against the scripted
// opponent. A single seeded random source drives the dice, exploration,
// network initialization and replay sampling, so runs with the same seed and
// configuration are reproducible. Not safe for concurrent use; train
// collections in parallel with one Trainer each.
type Trainer struct {
	cfg        Config
	collection dice.Collection
	env        *game.Env
	online     *nn.Network
	target     *nn.Network
	opt        *nn.Adam
	memory     *experience.ReplayMemory
	rng        *rand.Rand

	runID     string
	steps     int
	updates   int
	episodes  int
	trainedAt time.Time
	onEpisode func(EpisodeStats)

	logger zerolog.Logger
}

// New creates a trainer for collection c
func New(cfg Config, c dice.Collection, rules game.Rules, rewards game.RewardConfig, logger zerolog.Logger) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid training config: %w", err)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	runID := uuid.New().String()
	logger = logger.With().
		Str("component", "trainer").
		Str("collection", c.Key).
		Str("run_id", runID).
		Logger()

	env, err := game.NewEnv(c, rules, rewards, dice.NewRoller(rng), logger)
	if err != nil {
		return nil, err
	}

	online, err := nn.New(nn.Config{
		InputDim:  env.ObservationSize(),
		OutputDim: env.NumActions(),
		Hidden:    cfg.Hidden,
	}, rng)
	if err != nil {
		return nil, err
	}

	return &Trainer{
		cfg:        cfg,
		collection: c.Clone(),
		env:        env,
		online:     online,
		target:     online.Clone(),
		opt:        nn.NewAdam(cfg.LearningRate),
		memory:     experience.NewReplayMemory(cfg.MemoryCapacity, rng, logger),
		rng:        rng,
		runID:      runID,
		logger:     logger,
	}, nil
}

// OnEpisode registers a callback invoked after every episode
func (t *Trainer) OnEpisode(fn func(EpisodeStats)) {
	t.onEpisode = fn
}

// Epsilon returns the current exploration rate
func (t *Trainer) Epsilon() float64 {
	return t.cfg.Epsilon(t.steps)
}

// SelectAction picks an epsilon-greedy action for obs and advances the
// step counter that drives the epsilon schedule
func (t *Trainer) SelectAction(obs game.Observation) (int, error) {
	eps := t.Epsilon()
	t.steps++
	if t.rng.Float64() < eps {
		return t.rng.Intn(t.env.NumActions()), nil
	}
	q, err := t.online.Forward(obs)
	if err != nil {
		return 0, err
	}
	return nn.Greedy(q), nil
}

// Train runs the configured number of episodes. ctx is checked between
// episodes; a cancelled run returns the summary so far with ctx's error.
func (t *Trainer) Train(ctx context.Context) (Summary, error) {
	start := time.Now()
	summary := Summary{RunID: t.runID, Collection: t.collection.Key}

	t.logger.Info().
		Int("episodes", t.cfg.Episodes).
		Int("batch_size", t.cfg.BatchSize).
		Ints("hidden", t.cfg.Hidden).
		Int64("seed", t.cfg.Seed).
		Msg("Training started")

	for ep := 0; ep < t.cfg.Episodes; ep++ {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}

		stats, err := t.runEpisode(ep)
		if err != nil {
			summary.Duration = time.Since(start)
			return summary, fmt.Errorf("episode %d: %w", ep, err)
		}

		if ep%t.cfg.TargetUpdate == 0 {
			if err := t.target.CopyFrom(t.online); err != nil {
				return summary, err
			}
			stats.TargetSynced = true
		}
		t.episodes++

		summary.Episodes++
		summary.Steps += stats.Steps
		summary.Updates += stats.Updates
		summary.TotalReward += stats.Reward
		switch stats.Outcome {
		case game.OutcomeWin:
			summary.Wins++
		case game.OutcomeLoss:
			summary.Losses++
		default:
			summary.Draws++
		}

		if t.cfg.LogEvery > 0 && ep%t.cfg.LogEvery == 0 {
			t.logger.Info().
				Int("episode", ep).
				Float64("reward", stats.Reward).
				Float64("epsilon", stats.Epsilon).
				Float64("loss", stats.MeanLoss).
				Int("memory", stats.MemorySize).
				Msg("Training progress")
		}
		if t.onEpisode != nil {
			t.onEpisode(stats)
		}
	}

	t.trainedAt = time.Now()
	summary.FinalEpsilon = t.Epsilon()
	summary.Duration = time.Since(start)

	t.logger.Info().
		Int("episodes", summary.Episodes).
		Int("steps", summary.Steps).
		Int("updates", summary.Updates).
		Float64("win_rate", summary.WinRate()).
		Float64("mean_reward", summary.MeanReward()).
		Dur("duration", summary.Duration).
		Msg("Training finished")

	return summary, nil
}

func (t *Trainer) runEpisode(ep int) (EpisodeStats, error) {
	stats := EpisodeStats{RunID: t.runID, Collection: t.collection.Key, Episode: ep}
	var lossSum float64

	obs := t.env.Reset()
	for {
		action, err := t.SelectAction(obs)
		if err != nil {
			return stats, err
		}
		res, err := t.env.Step(action)
		if err != nil {
			return stats, err
		}

		t.memory.Push(experience.Transition{
			State:     obs,
			Action:    action,
			Reward:    res.Reward,
			NextState: res.Observation,
			Done:      res.Done,
		})
		stats.Steps++
		stats.Reward += res.Reward

		if t.memory.Len() >= t.cfg.BatchSize {
			loss, err := t.optimize()
			if err != nil {
				return stats, err
			}
			lossSum += loss
			stats.Updates++
		}

		obs = res.Observation
		if res.Done {
			stats.Outcome = res.Info.Outcome
			break
		}
	}

	if stats.Updates > 0 {
		stats.MeanLoss = lossSum / float64(stats.Updates)
	}
	stats.Epsilon = t.Epsilon()
	stats.MemorySize = t.memory.Len()
	return stats, nil
}

// optimize takes one Adam step on a sampled batch. Targets bootstrap from
// the target network: r for terminal transitions, r + gamma*max Q'(s')
// otherwise.
func (t *Trainer) optimize() (float64, error) {
	batch, err := t.memory.Sample(t.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	states := make([][]float64, len(batch))
	actions := make([]int, len(batch))
	targets := make([]float64, len(batch))
	next := mat.NewDense(len(batch), t.online.InputDim(), nil)
	for i, tr := range batch {
		states[i] = tr.State
		actions[i] = tr.Action
		next.SetRow(i, tr.NextState)
	}

	nextQ, err := t.target.ForwardBatch(next)
	if err != nil {
		return 0, err
	}
	for i, tr := range batch {
		targets[i] = tr.Reward
		if !tr.Done {
			targets[i] += t.cfg.Gamma * floats.Max(nextQ.RawRowView(i))
		}
	}

	loss, err := t.online.TrainStep(states, actions, targets, t.opt)
	if err != nil {
		return 0, err
	}
	t.updates++
	return loss, nil
}

// Artifact captures the online network and what it was trained on
func (t *Trainer) Artifact() *policy.Artifact {
	trainedAt := t.trainedAt
	if trainedAt.IsZero() {
		trainedAt = time.Now()
	}
	return policy.NewArtifact(policy.Metadata{
		Collection: t.collection.Key,
		Dice:       t.collection.Dice,
		Target:     t.collection.Target,
		RerollNorm: t.env.Encoder().RerollNorm(),
		RunID:      t.runID,
		Episodes:   t.episodes,
		Seed:       t.cfg.Seed,
		TrainedAt:  trainedAt,
	}, t.online)
}

// Save writes the artifact of the online network to path
func (t *Trainer) Save(path string) error {
	a := t.Artifact()
	if err := policy.Save(path, a); err != nil {
		return err
	}
	t.logger.Info().Str("path", path).Str("artifact", a.String()).Msg("Policy saved")
	return nil
}

// RunID identifies this training run in logs and artifacts
func (t *Trainer) RunID() string { return t.runID }

// Steps returns the number of environment steps taken so far
func (t *Trainer) Steps() int { return t.steps }

// Updates returns the number of optimizer steps taken so far
func (t *Trainer) Updates() int { return t.updates }

// Online returns the network being trained
func (t *Trainer) Online() *nn.Network { return t.online }

// Target returns the bootstrap network
func (t *Trainer) Target() *nn.Network { return t.target }

// MemoryStats returns replay memory statistics
func (t *Trainer) MemoryStats() experience.Stats { return t.memory.Stats() }

// Collection returns the collection being trained
func (t *Trainer) Collection() dice.Collection { return t.collection.Clone() }

// Encoder returns the observation encoder the network is trained on
func (t *Trainer) Encoder() game.Encoder { return t.env.Encoder() }
