package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/viper"

	"github.com/mitchelldurbincs/BattleDiceRL/internal/dice"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/game"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/policy"
	"github.com/mitchelldurbincs/BattleDiceRL/internal/trainer"
)

// Config holds all configuration for the application
type Config struct {
	Logging     LoggingConfig               `mapstructure:"logging"`
	Rules       RulesConfig                 `mapstructure:"rules"`
	Rewards     RewardsConfig               `mapstructure:"rewards"`
	Collections map[string]CollectionConfig `mapstructure:"collections"`
	Training    TrainingConfig              `mapstructure:"training"`
	Evaluation  EvaluationConfig            `mapstructure:"evaluation"`
	Artifacts   ArtifactsConfig             `mapstructure:"artifacts"`
}

// LoggingConfig holds log output settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// RulesConfig holds the turn rules
type RulesConfig struct {
	FirstMoverRerolls  int `mapstructure:"first_mover_rerolls"`
	SecondMoverRerolls int `mapstructure:"second_mover_rerolls"`
	OpponentMargin     int `mapstructure:"opponent_margin"`
	RoundsPerMatch     int `mapstructure:"rounds_per_match"`
}

// RewardsConfig holds terminal rewards seen by the learning agent
type RewardsConfig struct {
	Win  float64 `mapstructure:"win"`
	Loss float64 `mapstructure:"loss"`
	Draw float64 `mapstructure:"draw"`
}

// CollectionConfig describes one dice collection
type CollectionConfig struct {
	Dice   []int `mapstructure:"dice"`
	Target int   `mapstructure:"target"`
}

// TrainingConfig holds DQN hyperparameters shared by every collection
type TrainingConfig struct {
	Episodes       int     `mapstructure:"episodes"`
	BatchSize      int     `mapstructure:"batch_size"`
	Gamma          float64 `mapstructure:"gamma"`
	LearningRate   float64 `mapstructure:"learning_rate"`
	EpsilonStart   float64 `mapstructure:"epsilon_start"`
	EpsilonEnd     float64 `mapstructure:"epsilon_end"`
	EpsilonDecay   float64 `mapstructure:"epsilon_decay"`
	TargetUpdate   int     `mapstructure:"target_update"`
	MemoryCapacity int     `mapstructure:"memory_capacity"`
	Hidden         []int   `mapstructure:"hidden"`
	LogEvery       int     `mapstructure:"log_every"`
	Seed           int64   `mapstructure:"seed"`
	// Parallel is the number of collections trained at the same time
	Parallel int `mapstructure:"parallel"`
}

// EvaluationConfig holds settings for policy-vs-heuristic matches
type EvaluationConfig struct {
	Matches int   `mapstructure:"matches"`
	Seed    int64 `mapstructure:"seed"`
}

// ArtifactsConfig holds where trained policies live
type ArtifactsConfig struct {
	Dir string `mapstructure:"dir"`
}

var (
	// Global config instance
	mu  sync.RWMutex
	cfg *Config
	v   *viper.Viper
)

// setViperDefaults sets all default values using Viper's SetDefault
func setViperDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	rules := game.DefaultRules()
	v.SetDefault("rules.first_mover_rerolls", rules.FirstMoverRerolls)
	v.SetDefault("rules.second_mover_rerolls", rules.SecondMoverRerolls)
	v.SetDefault("rules.opponent_margin", rules.OpponentMargin)
	v.SetDefault("rules.rounds_per_match", game.DefaultRoundsPerMatch)

	rewards := game.DefaultRewardConfig()
	v.SetDefault("rewards.win", rewards.Win)
	v.SetDefault("rewards.loss", rewards.Loss)
	v.SetDefault("rewards.draw", rewards.Draw)

	for key, c := range dice.DefaultCollections() {
		prefix := "collections." + strings.ToLower(key)
		v.SetDefault(prefix+".dice", c.Dice)
		v.SetDefault(prefix+".target", c.Target)
	}

	t := trainer.DefaultConfig()
	v.SetDefault("training.episodes", t.Episodes)
	v.SetDefault("training.batch_size", t.BatchSize)
	v.SetDefault("training.gamma", t.Gamma)
	v.SetDefault("training.learning_rate", t.LearningRate)
	v.SetDefault("training.epsilon_start", t.EpsilonStart)
	v.SetDefault("training.epsilon_end", t.EpsilonEnd)
	v.SetDefault("training.epsilon_decay", t.EpsilonDecay)
	v.SetDefault("training.target_update", t.TargetUpdate)
	v.SetDefault("training.memory_capacity", t.MemoryCapacity)
	v.SetDefault("training.hidden", t.Hidden)
	v.SetDefault("training.log_every", t.LogEvery)
	v.SetDefault("training.seed", t.Seed)
	v.SetDefault("training.parallel", 2)

	v.SetDefault("evaluation.matches", 100)
	v.SetDefault("evaluation.seed", 1)

	v.SetDefault("artifacts.dir", "models")
}

// Init initializes the configuration
func Init(configPath string) error {
	nv := viper.New()
	setViperDefaults(nv)

	if configPath != "" {
		nv.SetConfigFile(configPath)
	} else {
		nv.SetConfigName("config")
		nv.SetConfigType("yaml")
		nv.AddConfigPath(".")
		nv.AddConfigPath("./config")
		nv.AddConfigPath("/etc/battle-dice-rl")
	}

	nv.SetEnvPrefix("BDRL")
	nv.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	nv.AutomaticEnv()

	if err := nv.ReadInConfig(); err != nil && !missingConfig(err) {
		return fmt.Errorf("error reading config file: %w", err)
	}

	c, err := decode(nv)
	if err != nil {
		return err
	}

	mu.Lock()
	v, cfg = nv, c
	mu.Unlock()
	return nil
}

// missingConfig reports whether err only says there is no config file, in
// which case defaults apply. Parse errors are never tolerated.
func missingConfig(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist)
}

func decode(v *viper.Viper) (*Config, error) {
	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := Validate(c); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return c, nil
}

// Get returns the global config instance
func Get() *Config {
	mu.RLock()
	c := cfg
	mu.RUnlock()
	if c != nil {
		return c
	}
	if err := Init(""); err != nil {
		panic("failed to initialize config with defaults: " + err.Error())
	}
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// GetViper returns the viper instance for advanced usage
func GetViper() *viper.Viper {
	mu.RLock()
	defer mu.RUnlock()
	if v == nil {
		panic("config not initialized - call Init() first")
	}
	return v
}

// LoadEnvironmentConfig merges config.<env>.yaml from the directory of the
// loaded config file (or the working directory) over the current settings
func LoadEnvironmentConfig(env string) error {
	if env == "" {
		return nil
	}

	nv := GetViper()
	base := nv.ConfigFileUsed()
	dir := "."
	if base != "" {
		dir = filepath.Dir(base)
	}
	envFile := filepath.Join(dir, fmt.Sprintf("config.%s.yaml", env))
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		return nil
	}

	nv.SetConfigFile(envFile)
	err := nv.MergeInConfig()
	if base != "" {
		// keep watching the base file
		nv.SetConfigFile(base)
	}
	if err != nil {
		return fmt.Errorf("error merging environment config %s: %w", envFile, err)
	}

	c, err := decode(nv)
	if err != nil {
		return err
	}
	mu.Lock()
	cfg = c
	mu.Unlock()
	return nil
}

// Set allows runtime config updates. Values that fail validation are kept in
// viper but not applied to the config struct.
func Set(key string, value interface{}) {
	nv := GetViper()
	nv.Set(key, value)
	if c, err := decode(nv); err == nil {
		mu.Lock()
		cfg = c
		mu.Unlock()
	}
}

// GetString gets a string value from config
func GetString(key string) string {
	return GetViper().GetString(key)
}

// GetInt gets an int value from config
func GetInt(key string) int {
	return GetViper().GetInt(key)
}

// GetBool gets a bool value from config
func GetBool(key string) bool {
	return GetViper().GetBool(key)
}

// GetFloat64 gets a float64 value from config
func GetFloat64(key string) float64 {
	return GetViper().GetFloat64(key)
}

// ConfigFilePath returns the path of the loaded config file
func ConfigFilePath() string {
	return GetViper().ConfigFileUsed()
}

// WatchConfig enables hot-reloading of config file. An edit that does not
// validate is reported through onError and the previous config stays active.
func WatchConfig(onChange func(*Config), onError func(error)) {
	nv := GetViper()
	nv.OnConfigChange(func(e fsnotify.Event) {
		c, err := decode(nv)
		if err != nil {
			if onError != nil {
				onError(fmt.Errorf("reloading %s: %w", e.Name, err))
			}
			return
		}
		mu.Lock()
		cfg = c
		mu.Unlock()
		if onChange != nil {
			onChange(c)
		}
	})
	nv.WatchConfig()
}

// Validate validates the configuration values, reporting every problem
func Validate(c *Config) error {
	var result error

	switch c.Logging.Format {
	case "console", "json":
	default:
		result = multierror.Append(result, fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format))
	}

	if err := c.GameRules().Validate(); err != nil {
		result = multierror.Append(result, fmt.Errorf("rules: %w", err))
	}
	if c.Rules.RoundsPerMatch <= 0 {
		result = multierror.Append(result, fmt.Errorf("rules.rounds_per_match must be positive"))
	}

	if len(c.Collections) == 0 {
		result = multierror.Append(result, fmt.Errorf("at least one collection must be configured"))
	}
	collections := c.DiceCollections()
	for _, key := range dice.SortedKeys(collections) {
		if err := collections[key].Validate(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := c.TrainerConfig().Validate(); err != nil {
		result = multierror.Append(result, fmt.Errorf("training: %w", err))
	}
	if c.Training.Parallel < 1 {
		result = multierror.Append(result, fmt.Errorf("training.parallel must be at least 1"))
	}

	if c.Evaluation.Matches <= 0 {
		result = multierror.Append(result, fmt.Errorf("evaluation.matches must be positive"))
	}
	if c.Artifacts.Dir == "" {
		result = multierror.Append(result, fmt.Errorf("artifacts.dir must not be empty"))
	}

	return result
}

// DiceCollections returns the configured collections keyed by upper-case key
func (c *Config) DiceCollections() map[string]dice.Collection {
	out := make(map[string]dice.Collection, len(c.Collections))
	for k, cc := range c.Collections {
		key := strings.ToUpper(k)
		out[key] = dice.Collection{Key: key, Dice: append([]int(nil), cc.Dice...), Target: cc.Target}
	}
	return out
}

// GameRules converts the rules section
func (c *Config) GameRules() game.Rules {
	return game.Rules{
		FirstMoverRerolls:  c.Rules.FirstMoverRerolls,
		SecondMoverRerolls: c.Rules.SecondMoverRerolls,
		OpponentMargin:     c.Rules.OpponentMargin,
	}
}

// RewardConfig converts the rewards section
func (c *Config) RewardConfig() game.RewardConfig {
	return game.RewardConfig{Win: c.Rewards.Win, Loss: c.Rewards.Loss, Draw: c.Rewards.Draw}
}

// TrainerConfig converts the training section
func (c *Config) TrainerConfig() trainer.Config {
	t := c.Training
	return trainer.Config{
		Episodes:       t.Episodes,
		BatchSize:      t.BatchSize,
		Gamma:          t.Gamma,
		LearningRate:   t.LearningRate,
		EpsilonStart:   t.EpsilonStart,
		EpsilonEnd:     t.EpsilonEnd,
		EpsilonDecay:   t.EpsilonDecay,
		TargetUpdate:   t.TargetUpdate,
		MemoryCapacity: t.MemoryCapacity,
		Hidden:         append([]int(nil), t.Hidden...),
		LogEvery:       t.LogEvery,
		Seed:           t.Seed,
	}
}

// ArtifactPath returns where the policy for collection key is stored
func (c *Config) ArtifactPath(key string) string {
	return filepath.Join(c.Artifacts.Dir, policy.FileName(key))
}
