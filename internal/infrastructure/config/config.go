package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Storage  StorageConfig  `mapstructure:"storage"`
	Learning LearningConfig `mapstructure:"learning"`
	Game     GameConfig     `mapstructure:"game"`
	Log      LogConfig      `mapstructure:"log"`
	Watch    WatchConfig    `mapstructure:"watch"`
}

// StorageConfig selects where the persisted state lives. The sqlite driver
// only needs Path; the postgres driver uses the connection fields.
type StorageConfig struct {
	Driver   string `mapstructure:"driver"`
	Path     string `mapstructure:"path"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"sslmode"`
}

// LearningConfig exposes the scoring and selection tunables.
type LearningConfig struct {
	KnownThreshold    float64          `mapstructure:"known_threshold"`
	MasteredThreshold float64          `mapstructure:"mastered_threshold"`
	WeakThreshold     float64          `mapstructure:"weak_threshold"`
	ScoreSmoothing    float64          `mapstructure:"score_smoothing"`
	FrequencyBias     float64          `mapstructure:"frequency_bias"`
	MinRepeatDistance int              `mapstructure:"min_repeat_distance"`
	HistoryRounds     int              `mapstructure:"history_rounds"`
	ReviewLadderDays  []int            `mapstructure:"review_ladder_days"`
	PartitionWeights  PartitionWeights `mapstructure:"partition_weights"`
}

// PartitionWeights sets the base draw weight per knowledge bucket.
type PartitionWeights struct {
	Unseen float64 `mapstructure:"unseen"`
	Weak   float64 `mapstructure:"weak"`
	Due    float64 `mapstructure:"due"`
	Strong float64 `mapstructure:"strong"`
}

// GameConfig carries the defaults a round starts with when no flag
// overrides them.
type GameConfig struct {
	Direction           string `mapstructure:"direction"`
	Mode                string `mapstructure:"mode"`
	WordsPerRound       int    `mapstructure:"words_per_round"`
	PrioritizeFrequency bool   `mapstructure:"prioritize_frequency"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// WatchConfig tunes the review reminder loop.
type WatchConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// Load reads configuration from file and environment variables. An explicit
// file set through the config.file key must exist; the discovered .env is
// optional.
func Load() (*Config, error) {
	if file := viper.GetString("config.file"); file != "" {
		viper.SetConfigFile(file)
		viper.SetConfigType("env")
	} else {
		viper.SetConfigName(".env")
		viper.SetConfigType("env")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
	}

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("storage.driver", "sqlite")
	viper.SetDefault("storage.path", "sanatreeni.db")
	viper.SetDefault("storage.host", "localhost")
	viper.SetDefault("storage.port", 5432)
	viper.SetDefault("storage.name", "sanatreeni")
	viper.SetDefault("storage.user", "postgres")
	viper.SetDefault("storage.password", "postgres")
	viper.SetDefault("storage.sslmode", "disable")

	viper.SetDefault("learning.known_threshold", 60.0)
	viper.SetDefault("learning.mastered_threshold", 80.0)
	viper.SetDefault("learning.weak_threshold", 40.0)
	viper.SetDefault("learning.score_smoothing", 0.35)
	viper.SetDefault("learning.frequency_bias", 0.6)
	viper.SetDefault("learning.min_repeat_distance", 5)
	viper.SetDefault("learning.history_rounds", 3)
	viper.SetDefault("learning.review_ladder_days", []int{1, 3, 7, 14, 30})
	viper.SetDefault("learning.partition_weights.unseen", 8.0)
	viper.SetDefault("learning.partition_weights.weak", 6.0)
	viper.SetDefault("learning.partition_weights.due", 5.0)
	viper.SetDefault("learning.partition_weights.strong", 1.0)

	viper.SetDefault("game.direction", "es-fi")
	viper.SetDefault("game.mode", "basic")
	viper.SetDefault("game.words_per_round", 10)
	viper.SetDefault("game.prioritize_frequency", true)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")

	viper.SetDefault("watch.interval", time.Hour)
}

// DatabaseURL returns the PostgreSQL connection string.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Storage.User,
		c.Storage.Password,
		c.Storage.Host,
		c.Storage.Port,
		c.Storage.Name,
		c.Storage.SSLMode,
	)
}
