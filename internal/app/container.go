// Package app assembles the application: configuration, logging, storage,
// vocabulary, and the usecases on top of them.
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	adapterrepo "github.com/hvirta/sanatreeni/internal/adapter/repository"
	"github.com/hvirta/sanatreeni/internal/entity"
	"github.com/hvirta/sanatreeni/internal/infrastructure/config"
	"github.com/hvirta/sanatreeni/internal/infrastructure/logging"
	"github.com/hvirta/sanatreeni/internal/repository"
	"github.com/hvirta/sanatreeni/internal/usecase"
	"github.com/hvirta/sanatreeni/internal/usecase/transfer"
	"github.com/hvirta/sanatreeni/internal/vocabulary"
)

// Container aggregates the application dependencies.
type Container struct {
	Config     *config.Config
	Logger     *logrus.Logger
	Vocabulary *vocabulary.Provider
	Knowledge  usecase.KnowledgeUsecase
	Selection  usecase.SelectionUsecase
	Progress   usecase.ProgressUsecase
	Transfer   *transfer.Service

	// Migration holds the outcome of the startup schema migration, for
	// commands that want to surface what happened.
	Migration entity.MigrationReport
}

// Initialize builds the application container. The returned cleanup
// function releases the storage handle and must be called on shutdown.
func Initialize(ctx context.Context) (*Container, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.NewLogger(cfg)
	if err != nil {
		return nil, nil, err
	}

	provider, err := vocabulary.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load vocabulary: %w", err)
	}

	repo, err := newStateRepository(cfg)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if closer, ok := repo.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				logger.WithError(err).Warn("close state store")
			}
		}
	}

	learning := learningFromConfig(cfg)
	knowledge := usecase.NewKnowledgeUsecase(repo, provider, learning, logger)
	report, err := knowledge.Load(ctx)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("load knowledge store: %w", err)
	}
	if report.FromVersion != report.ToVersion {
		logger.WithFields(logrus.Fields{
			"from":     report.FromVersion,
			"to":       report.ToVersion,
			"migrated": report.Migrated,
			"skipped":  report.Skipped(),
		}).Info("knowledge store migrated")
	}

	selection := usecase.NewSelectionUsecase(knowledge, repo, learning, logger)
	if err := selection.Load(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("load round history: %w", err)
	}
	progress := usecase.NewProgressUsecase(repo, learning, logger)
	if err := progress.Load(ctx); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("load lesson progress: %w", err)
	}

	transferService, err := transfer.NewService(knowledge)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return &Container{
		Config:     cfg,
		Logger:     logger,
		Vocabulary: provider,
		Knowledge:  knowledge,
		Selection:  selection,
		Progress:   progress,
		Transfer:   transferService,
		Migration:  report,
	}, cleanup, nil
}

func newStateRepository(cfg *config.Config) (repository.StateRepository, error) {
	switch cfg.Storage.Driver {
	case "sqlite", "sqlite3", "":
		return adapterrepo.NewSQLiteStateRepository(cfg.Storage.Path)
	case "postgres", "postgresql":
		return adapterrepo.NewPostgresStateRepository(cfg.DatabaseURL())
	case "memory":
		return adapterrepo.NewMemoryStateRepository(), nil
	default:
		return nil, fmt.Errorf("%w: %s", entity.ErrUnknownStorage, cfg.Storage.Driver)
	}
}

func learningFromConfig(cfg *config.Config) usecase.LearningConfig {
	learning := usecase.DefaultLearningConfig()
	learning.KnownThreshold = cfg.Learning.KnownThreshold
	learning.MasteredThreshold = cfg.Learning.MasteredThreshold
	learning.WeakThreshold = cfg.Learning.WeakThreshold
	learning.ScoreSmoothing = cfg.Learning.ScoreSmoothing
	learning.FrequencyBias = cfg.Learning.FrequencyBias
	learning.MinRepeatDistance = cfg.Learning.MinRepeatDistance
	learning.HistoryRounds = cfg.Learning.HistoryRounds
	if len(cfg.Learning.ReviewLadderDays) > 0 {
		learning.ReviewLadderDays = cfg.Learning.ReviewLadderDays
	}
	learning.Partitions = usecase.PartitionWeights{
		Unseen: cfg.Learning.PartitionWeights.Unseen,
		Weak:   cfg.Learning.PartitionWeights.Weak,
		Due:    cfg.Learning.PartitionWeights.Due,
		Strong: cfg.Learning.PartitionWeights.Strong,
	}
	return learning.Sanitize()
}
