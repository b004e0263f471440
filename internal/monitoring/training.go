package monitoring

import (
	"fmt"
	"io"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"

	"github.com/mitchelldurbincs/BattleDiceRL/internal/game"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/trainer"
)

// TrainingMonitor aggregates episode statistics from trainers running in
// parallel and drives a single progress bar over all of them
type TrainingMonitor struct {
	mu            sync.RWMutex
	bar           *progressbar.ProgressBar
	runs          map[string]*RunProgress
	planned       int
	done          int
	started       time.Time
	peak          int
	checkInterval time.Duration
	stopChan      chan struct{}
	stopOnce      sync.Once
	logger        zerolog.Logger
}

// RunProgress is the running tally of one collection's training run
type RunProgress struct {
	Collection  string  `json:"collection"`
	RunID       string  `json:"run_id"`
	Planned     int     `json:"planned"`
	Episodes    int     `json:"episodes"`
	Steps       int     `json:"steps"`
	Updates     int     `json:"updates"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	Draws       int     `json:"draws"`
	TotalReward float64 `json:"total_reward"`
	Epsilon     float64 `json:"epsilon"`
	LastLoss    float64 `json:"last_loss"`
	TargetSyncs int     `json:"target_syncs"`
	Finished    bool    `json:"finished"`
}

// WinRate is the fraction of episodes won so far
func (r RunProgress) WinRate() float64 {
	if r.Episodes == 0 {
		return 0
	}
	return float64(r.Wins) / float64(r.Episodes)
}

// TrainingMetrics is a snapshot of every registered run
type TrainingMetrics struct {
	Planned        int           `json:"planned"`
	Episodes       int           `json:"episodes"`
	Elapsed        time.Duration `json:"elapsed"`
	PeakGoroutines int           `json:"peak_goroutines"`
	Runs           []RunProgress `json:"runs"`
}

// NewTrainingMonitor creates a monitor expecting planned episodes in total
// across all runs. The progress bar writes to w.
func NewTrainingMonitor(w io.Writer, planned int, logger zerolog.Logger) *TrainingMonitor {
	bar := progressbar.NewOptions(planned,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("training"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetPredictTime(true),
	)
	return &TrainingMonitor{
		bar:           bar,
		runs:          make(map[string]*RunProgress),
		planned:       planned,
		started:       time.Now(),
		peak:          runtime.NumGoroutine(),
		checkInterval: 30 * time.Second,
		stopChan:      make(chan struct{}),
		logger:        logger.With().Str("component", "training_monitor").Logger(),
	}
}

// Register adds a run for collection before its first episode
func (m *TrainingMonitor) Register(collection, runID string, episodes int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[collection] = &RunProgress{Collection: collection, RunID: runID, Planned: episodes}
}

// Record folds one episode into its run. It is meant to be passed to
// Trainer.OnEpisode and may be called from several goroutines.
func (m *TrainingMonitor) Record(s trainer.EpisodeStats) {
	m.mu.Lock()
	run, ok := m.runs[s.Collection]
	if !ok {
		run = &RunProgress{Collection: s.Collection, RunID: s.RunID}
		m.runs[s.Collection] = run
	}
	run.Episodes++
	run.Steps += s.Steps
	run.Updates += s.Updates
	run.TotalReward += s.Reward
	run.Epsilon = s.Epsilon
	if s.Updates > 0 {
		run.LastLoss = s.MeanLoss
	}
	if s.TargetSynced {
		run.TargetSyncs++
	}
	switch s.Outcome {
	case game.OutcomeWin:
		run.Wins++
	case game.OutcomeLoss:
		run.Losses++
	default:
		run.Draws++
	}
	m.done++
	desc := m.describeLocked()
	m.mu.Unlock()

	m.bar.Describe(desc)
	_ = m.bar.Add(1)
}

// Finish marks collection's run complete
func (m *TrainingMonitor) Finish(collection string) {
	m.mu.Lock()
	run, ok := m.runs[collection]
	var snap RunProgress
	if ok {
		run.Finished = true
		snap = *run
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	m.logger.Info().
		Str("collection", collection).
		Int("episodes", snap.Episodes).
		Float64("win_rate", snap.WinRate()).
		Int("target_syncs", snap.TargetSyncs).
		Msg("Run finished")
}

// describeLocked renders per-collection win rates, caller holds mu
func (m *TrainingMonitor) describeLocked() string {
	keys := make([]string, 0, len(m.runs))
	for k := range m.runs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	desc := "training"
	for _, k := range keys {
		r := m.runs[k]
		desc += fmt.Sprintf(" %s:%.0f%%", k, r.WinRate()*100)
	}
	return desc
}

// Start begins periodic logging of aggregate progress
func (m *TrainingMonitor) Start() {
	go m.monitor()
	m.logger.Info().
		Int("planned", m.planned).
		Msg("Started training monitor")
}

// Stop stops periodic logging and completes the progress bar
func (m *TrainingMonitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
		_ = m.bar.Finish()
	})
}

func (m *TrainingMonitor) monitor() {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error().
				Interface("panic", r).
				Msg("Training monitor panicked - restarting")
			time.Sleep(5 * time.Second)
			go m.monitor()
		}
	}()

	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.check()
		case <-m.stopChan:
			return
		}
	}
}

// check logs aggregate progress and tracks the goroutine peak
func (m *TrainingMonitor) check() {
	routines := runtime.NumGoroutine()

	m.mu.Lock()
	if routines > m.peak {
		m.peak = routines
	}
	done := m.done
	m.mu.Unlock()

	elapsed := time.Since(m.started)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(done) / elapsed.Seconds()
	}

	m.logger.Debug().
		Int("episodes", done).
		Int("planned", m.planned).
		Float64("episodes_per_sec", rate).
		Int("goroutines", routines).
		Msg("Training metrics")
}

// GetMetrics returns a snapshot of every run, sorted by collection
func (m *TrainingMonitor) GetMetrics() TrainingMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := make([]RunProgress, 0, len(m.runs))
	for _, r := range m.runs {
		runs = append(runs, *r)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Collection < runs[j].Collection })

	return TrainingMetrics{
		Planned:        m.planned,
		Episodes:       m.done,
		Elapsed:        time.Since(m.started),
		PeakGoroutines: m.peak,
		Runs:           runs,
	}
}
