// Package transfer moves knowledge data across the process boundary:
// exporting the store to a stream for file backups and importing such
// streams back, merging rather than replacing.
package transfer

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hvirta/sanatreeni/internal/entity"
)

// ProgressReporter receives callbacks while an export is written, so a
// caller can render a progress bar without the service knowing about
// terminals.
type ProgressReporter interface {
	Start(totalWords int)
	Increment(delta int)
	Finish()
}

type noopProgress struct{}

func (noopProgress) Start(int)     {}
func (noopProgress) Increment(int) {}
func (noopProgress) Finish()       {}

// KnowledgePort is the slice of the knowledge usecase the service needs.
type KnowledgePort interface {
	ExportData() ([]byte, error)
	ImportData(ctx context.Context, payload []byte) (entity.ImportReport, error)
	Statistics() entity.Statistics
}

// Service streams knowledge exports and imports.
type Service struct {
	knowledge KnowledgePort
}

// NewService constructs a transfer service over the given knowledge store.
func NewService(knowledge KnowledgePort) (*Service, error) {
	if knowledge == nil {
		return nil, errors.New("transfer: knowledge store is required")
	}
	return &Service{knowledge: knowledge}, nil
}

type ExportOption func(*exportConfig)

type exportConfig struct {
	reporter ProgressReporter
}

// WithProgressReporter registers a reporter that receives progress
// callbacks during export.
func WithProgressReporter(reporter ProgressReporter) ExportOption {
	return func(cfg *exportConfig) {
		cfg.reporter = reporter
	}
}

// Export writes the current knowledge store as a single self-describing
// JSON document, newline terminated so the output behaves in pipelines.
func (s *Service) Export(ctx context.Context, w io.Writer, opts ...ExportOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := exportConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	reporter := cfg.reporter
	if reporter == nil {
		reporter = noopProgress{}
	}

	payload, err := s.knowledge.ExportData()
	if err != nil {
		return fmt.Errorf("render export payload: %w", err)
	}
	total := s.knowledge.Statistics().WordsPracticed
	reporter.Start(total)

	writer := bufio.NewWriter(w)
	if _, err := writer.Write(payload); err != nil {
		return fmt.Errorf("write export payload: %w", err)
	}
	if err := writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write export payload: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush export payload: %w", err)
	}
	reporter.Increment(total)
	reporter.Finish()
	return nil
}

// Import reads a previously exported document from the stream and merges
// it into the store. Validation failures leave the store untouched.
func (s *Service) Import(ctx context.Context, r io.Reader) (entity.ImportReport, error) {
	if err := ctx.Err(); err != nil {
		return entity.ImportReport{}, err
	}
	payload, err := io.ReadAll(bufio.NewReader(r))
	if err != nil {
		return entity.ImportReport{}, fmt.Errorf("read import payload: %w", err)
	}
	return s.knowledge.ImportData(ctx, payload)
}
