package transfer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hvirta/sanatreeni/internal/entity"
)

type fakePort struct {
	exportPayload []byte
	exportErr     error
	stats         entity.Statistics
	imported      [][]byte
	importReport  entity.ImportReport
	importErr     error
}

func (f *fakePort) ExportData() ([]byte, error) {
	return f.exportPayload, f.exportErr
}

func (f *fakePort) ImportData(ctx context.Context, payload []byte) (entity.ImportReport, error) {
	f.imported = append(f.imported, append([]byte(nil), payload...))
	return f.importReport, f.importErr
}

func (f *fakePort) Statistics() entity.Statistics {
	return f.stats
}

type captureReporter struct {
	started  []int
	added    int
	finished int
}

func (c *captureReporter) Start(total int)     { c.started = append(c.started, total) }
func (c *captureReporter) Increment(delta int) { c.added += delta }
func (c *captureReporter) Finish()             { c.finished++ }

func TestNewServiceRequiresKnowledge(t *testing.T) {
	_, err := NewService(nil)
	require.Error(t, err)
}

func TestExportWritesPayloadWithProgress(t *testing.T) {
	payload := []byte(`{"version":2,"exportedAt":"2024-03-01T12:00:00Z","knowledge":{"version":2,"words":{}}}`)
	port := &fakePort{exportPayload: payload, stats: entity.Statistics{WordsPracticed: 7}}
	svc, err := NewService(port)
	require.NoError(t, err)

	var buf bytes.Buffer
	reporter := &captureReporter{}
	require.NoError(t, svc.Export(context.Background(), &buf, WithProgressReporter(reporter)))

	require.True(t, strings.HasSuffix(buf.String(), "\n"), "export should end with a newline")
	var envelope struct {
		Version   int             `json:"version"`
		Knowledge json.RawMessage `json:"knowledge"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &envelope))
	require.Equal(t, entity.CurrentSchemaVersion, envelope.Version)
	require.NotEmpty(t, envelope.Knowledge)

	require.Equal(t, []int{7}, reporter.started)
	require.Equal(t, 7, reporter.added)
	require.Equal(t, 1, reporter.finished)
}

func TestExportPropagatesRenderFailure(t *testing.T) {
	port := &fakePort{exportErr: entity.ErrStoreNotLoaded}
	svc, err := NewService(port)
	require.NoError(t, err)

	var buf bytes.Buffer
	err = svc.Export(context.Background(), &buf)
	require.ErrorIs(t, err, entity.ErrStoreNotLoaded)
	require.Zero(t, buf.Len())
}

func TestImportForwardsStreamToStore(t *testing.T) {
	port := &fakePort{importReport: entity.ImportReport{Added: 3}}
	svc, err := NewService(port)
	require.NoError(t, err)

	payload := `{"version":2,"knowledge":{"version":2,"words":{}}}`
	report, err := svc.Import(context.Background(), strings.NewReader(payload))
	require.NoError(t, err)
	require.Equal(t, 3, report.Added)
	require.Len(t, port.imported, 1)
	require.JSONEq(t, payload, string(port.imported[0]))
}

func TestImportPropagatesValidationFailure(t *testing.T) {
	port := &fakePort{importErr: entity.ErrInvalidPayload}
	svc, err := NewService(port)
	require.NoError(t, err)

	_, err = svc.Import(context.Background(), strings.NewReader(`{}`))
	require.ErrorIs(t, err, entity.ErrInvalidPayload)
}

func TestImportSurfacesReadFailure(t *testing.T) {
	svc, err := NewService(&fakePort{})
	require.NoError(t, err)

	_, err = svc.Import(context.Background(), failingReader{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "read import payload")
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk detached")
}
