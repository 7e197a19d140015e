package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/hvirta/sanatreeni/internal/entity"
	"github.com/hvirta/sanatreeni/internal/repository"
)

type fakeStateRepo struct {
	mu       sync.RWMutex
	blobs    map[string][]byte
	failLoad error
	failSave error
	saves    int
}

func newFakeStateRepo() *fakeStateRepo {
	return &fakeStateRepo{blobs: make(map[string][]byte)}
}

func (r *fakeStateRepo) Load(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.failLoad != nil {
		return nil, r.failLoad
	}
	content, ok := r.blobs[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", entity.ErrBlobNotFound, name)
	}
	return append([]byte(nil), content...), nil
}

func (r *fakeStateRepo) Save(ctx context.Context, name string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSave != nil {
		return r.failSave
	}
	r.blobs[name] = append([]byte(nil), content...)
	r.saves++
	return nil
}

func (r *fakeStateRepo) blob(name string) []byte {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]byte(nil), r.blobs[name]...)
}

func (r *fakeStateRepo) saveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.saves
}

type fakeResolver struct {
	words []entity.Word
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{words: []entity.Word{
		{Spanish: "hola", Finnish: []string{"hei"}, Category: "greetings"},
		{Spanish: "gato", Finnish: []string{"kissa"}, Category: "animals"},
		{ID: "tiempo#time", Spanish: "tiempo", Finnish: []string{"aika"}, SenseLabel: "time", Category: "time"},
		{ID: "tiempo#weather", Spanish: "tiempo", Finnish: []string{"sää"}, SenseLabel: "weather", Category: "weather"},
	}}
}

func (f *fakeResolver) BySurface(form string) []entity.Word {
	needle := entity.NormalizeWordToken(form)
	var matches []entity.Word
	for _, word := range f.words {
		if entity.NormalizeWordToken(word.Spanish) == needle {
			matches = append(matches, word)
		}
	}
	return matches
}

func (f *fakeResolver) ByIdentity(identity string) (entity.Word, bool) {
	for _, word := range f.words {
		if word.Identity() == identity {
			return word, true
		}
	}
	return entity.Word{}, false
}

func newKnowledgeForTest(t *testing.T, repo *fakeStateRepo) (KnowledgeUsecase, *knowledgeUsecase) {
	t.Helper()
	uc := NewKnowledgeUsecase(repo, newFakeResolver(), DefaultLearningConfig(), testLogger())
	impl := uc.(*knowledgeUsecase)
	impl.clock = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }
	return uc, impl
}

func mustLoad(t *testing.T, uc KnowledgeUsecase) entity.MigrationReport {
	t.Helper()
	report, err := uc.Load(context.Background())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	return report
}

func TestRecordAnswerFirstTryCreatesRecord(t *testing.T) {
	repo := newFakeStateRepo()
	uc, impl := newKnowledgeForTest(t, repo)
	fixed := time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC)
	impl.clock = func() time.Time { return fixed }
	mustLoad(t, uc)

	err := uc.RecordAnswer(context.Background(), "hola", "hei", entity.DirectionEsToFi, entity.OutcomeFirstTry, entity.ModeBasic)
	if err != nil {
		t.Fatalf("RecordAnswer returned error: %v", err)
	}

	record, ok := uc.WordRecord("hola", entity.DirectionEsToFi, entity.ModeBasic)
	if !ok {
		t.Fatal("expected a record for hola, got none")
	}
	if record.Attempts != 1 || record.FirstTry != 1 || record.Failed != 0 {
		t.Errorf("expected attempts=1 firstTry=1 failed=0, got attempts=%d firstTry=%d failed=%d", record.Attempts, record.FirstTry, record.Failed)
	}
	if record.Score <= 0 {
		t.Errorf("expected positive score after first-try success, got %v", record.Score)
	}
	if record.Target != "hei" {
		t.Errorf("expected target 'hei', got %q", record.Target)
	}
	if !record.FirstPracticedAt.Equal(fixed) || !record.LastPracticedAt.Equal(fixed) {
		t.Errorf("expected practice timestamps %v, got first=%v last=%v", fixed, record.FirstPracticedAt, record.LastPracticedAt)
	}
	if len(repo.blob(repository.BlobKnowledge)) == 0 {
		t.Error("expected knowledge blob to be persisted")
	}
}

func TestRecordAnswerScoreStaysWithinBounds(t *testing.T) {
	repo := newFakeStateRepo()
	uc, _ := newKnowledgeForTest(t, repo)
	mustLoad(t, uc)

	outcomes := []entity.AnswerOutcome{}
	for i := 0; i < 20; i++ {
		outcomes = append(outcomes, entity.OutcomeFirstTry)
	}
	for i := 0; i < 20; i++ {
		outcomes = append(outcomes, entity.OutcomeFailed)
	}
	outcomes = append(outcomes, entity.OutcomeSecondTry, entity.OutcomeThirdTry)

	for i, outcome := range outcomes {
		if err := uc.RecordAnswer(context.Background(), "gato", "kissa", entity.DirectionFiToEs, outcome, entity.ModeBasic); err != nil {
			t.Fatalf("RecordAnswer %d returned error: %v", i, err)
		}
		record, ok := uc.WordRecord("gato", entity.DirectionFiToEs, entity.ModeBasic)
		if !ok {
			t.Fatalf("expected record after answer %d", i)
		}
		if record.Score < 0 || record.Score > 100 {
			t.Fatalf("score out of bounds after answer %d: %v", i, record.Score)
		}
		if sum := record.FirstTry + record.SecondTry + record.ThirdTry + record.Failed; record.Attempts != sum {
			t.Fatalf("attempt invariant broken after answer %d: attempts=%d buckets=%d", i, record.Attempts, sum)
		}
	}
}

func TestRecordAnswerFailureNeverRaisesScore(t *testing.T) {
	repo := newFakeStateRepo()
	uc, _ := newKnowledgeForTest(t, repo)
	mustLoad(t, uc)

	for i := 0; i < 3; i++ {
		if err := uc.RecordAnswer(context.Background(), "hola", "hei", entity.DirectionEsToFi, entity.OutcomeFirstTry, entity.ModeBasic); err != nil {
			t.Fatalf("RecordAnswer returned error: %v", err)
		}
	}
	before, _ := uc.WordRecord("hola", entity.DirectionEsToFi, entity.ModeBasic)

	if err := uc.RecordAnswer(context.Background(), "hola", "hei", entity.DirectionEsToFi, entity.OutcomeFailed, entity.ModeBasic); err != nil {
		t.Fatalf("RecordAnswer returned error: %v", err)
	}
	after, _ := uc.WordRecord("hola", entity.DirectionEsToFi, entity.ModeBasic)

	if after.Score >= before.Score {
		t.Errorf("expected failure to lower score, got %v -> %v", before.Score, after.Score)
	}
}

func TestRecordAnswerTracksDirectionsAndModesSeparately(t *testing.T) {
	repo := newFakeStateRepo()
	uc, _ := newKnowledgeForTest(t, repo)
	mustLoad(t, uc)

	ctx := context.Background()
	if err := uc.RecordAnswer(ctx, "hola", "hei", entity.DirectionEsToFi, entity.OutcomeFirstTry, entity.ModeBasic); err != nil {
		t.Fatalf("RecordAnswer returned error: %v", err)
	}
	if err := uc.RecordAnswer(ctx, "hola", "hola", entity.DirectionFiToEs, entity.OutcomeFailed, entity.ModeBasic); err != nil {
		t.Fatalf("RecordAnswer returned error: %v", err)
	}
	if err := uc.RecordAnswer(ctx, "hola", "hei", entity.DirectionEsToFi, entity.OutcomeSecondTry, entity.ModeKids); err != nil {
		t.Fatalf("RecordAnswer returned error: %v", err)
	}

	esBasic, _ := uc.WordRecord("hola", entity.DirectionEsToFi, entity.ModeBasic)
	fiBasic, _ := uc.WordRecord("hola", entity.DirectionFiToEs, entity.ModeBasic)
	esKids, _ := uc.WordRecord("hola", entity.DirectionEsToFi, entity.ModeKids)

	if esBasic.FirstTry != 1 || esBasic.Attempts != 1 {
		t.Errorf("unexpected es-fi basic record: %+v", esBasic)
	}
	if fiBasic.Failed != 1 || fiBasic.Attempts != 1 {
		t.Errorf("unexpected fi-es basic record: %+v", fiBasic)
	}
	if esKids.SecondTry != 1 || esKids.Attempts != 1 {
		t.Errorf("unexpected es-fi kids record: %+v", esKids)
	}
}

func TestRecordAnswerValidation(t *testing.T) {
	repo := newFakeStateRepo()
	uc, _ := newKnowledgeForTest(t, repo)

	if err := uc.RecordAnswer(context.Background(), "hola", "hei", entity.DirectionEsToFi, entity.OutcomeFirstTry, entity.ModeBasic); !errors.Is(err, entity.ErrStoreNotLoaded) {
		t.Errorf("expected ErrStoreNotLoaded before Load, got %v", err)
	}

	mustLoad(t, uc)
	if err := uc.RecordAnswer(context.Background(), "   ", "hei", entity.DirectionEsToFi, entity.OutcomeFirstTry, entity.ModeBasic); !errors.Is(err, entity.ErrInvalidIdentity) {
		t.Errorf("expected ErrInvalidIdentity for blank identity, got %v", err)
	}
	if err := uc.RecordAnswer(context.Background(), "hola", "hei", entity.DirectionEsToFi, entity.AnswerOutcome("fourth"), entity.ModeBasic); !errors.Is(err, entity.ErrInvalidOutcome) {
		t.Errorf("expected ErrInvalidOutcome, got %v", err)
	}
}

func TestRecordAnswerSurvivesPersistFailure(t *testing.T) {
	repo := newFakeStateRepo()
	uc, _ := newKnowledgeForTest(t, repo)
	mustLoad(t, uc)
	repo.failSave = errors.New("quota exceeded")

	if err := uc.RecordAnswer(context.Background(), "hola", "hei", entity.DirectionEsToFi, entity.OutcomeFirstTry, entity.ModeBasic); err != nil {
		t.Fatalf("expected best-effort persistence, got error: %v", err)
	}
	record, ok := uc.WordRecord("hola", entity.DirectionEsToFi, entity.ModeBasic)
	if !ok || record.Attempts != 1 {
		t.Errorf("expected in-memory record despite save failure, got %+v ok=%v", record, ok)
	}
}

func TestLoadStartsEmptyOnReadFailure(t *testing.T) {
	repo := newFakeStateRepo()
	repo.failLoad = errors.New("storage disabled")
	uc, _ := newKnowledgeForTest(t, repo)

	report := mustLoad(t, uc)
	if report.FromVersion != entity.CurrentSchemaVersion {
		t.Errorf("expected current-version report, got %+v", report)
	}
	if stats := uc.Statistics(); stats.WordsPracticed != 0 {
		t.Errorf("expected empty store, got %+v", stats)
	}
}

func TestMigrationSplitsPolysemousSurface(t *testing.T) {
	legacy := []byte(`{
  "version": 1,
  "words": {
    "hola": {
      "es-fi": {"target":"hei","score":72.5,"attempts":10,"firstTry":6,"secondTry":2,"thirdTry":1,"failed":1,"firstPracticedAt":"2023-11-01T10:00:00Z","lastPracticedAt":"2024-02-10T18:30:00Z"}
    },
    "tiempo": {
      "es-fi": {"target":"aika","score":55,"attempts":4,"firstTry":2,"secondTry":1,"thirdTry":0,"failed":1,"firstPracticedAt":"2023-12-01T09:00:00Z","lastPracticedAt":"2024-01-15T12:00:00Z"}
    }
  }
}`)
	repo := newFakeStateRepo()
	repo.blobs[repository.BlobKnowledge] = legacy
	uc, _ := newKnowledgeForTest(t, repo)

	report := mustLoad(t, uc)
	if report.FromVersion != 1 || report.ToVersion != entity.CurrentSchemaVersion {
		t.Fatalf("unexpected migration versions: %+v", report)
	}
	if report.Migrated != 1 {
		t.Errorf("expected 1 migrated word, got %d", report.Migrated)
	}
	if len(report.SkippedAmbiguous) != 1 || report.SkippedAmbiguous[0] != "tiempo" {
		t.Errorf("expected tiempo to be skipped as ambiguous, got %v", report.SkippedAmbiguous)
	}

	record, ok := uc.WordRecord("hola", entity.DirectionEsToFi, entity.ModeBasic)
	if !ok {
		t.Fatal("expected hola record to survive migration")
	}
	if record.Score != 72.5 || record.Attempts != 10 || record.FirstTry != 6 || record.SecondTry != 2 || record.ThirdTry != 1 || record.Failed != 1 {
		t.Errorf("expected counts preserved exactly, got %+v", record)
	}
	if _, ok := uc.WordRecord("tiempo#time", entity.DirectionEsToFi, entity.ModeBasic); ok {
		t.Error("expected no record under tiempo#time after skip")
	}
	if _, ok := uc.WordRecord("tiempo#weather", entity.DirectionEsToFi, entity.ModeBasic); ok {
		t.Error("expected no record under tiempo#weather after skip")
	}
}

func TestMigrationSkipsRemovedWords(t *testing.T) {
	legacy := []byte(`{"version":1,"words":{"zanahoria":{"es-fi":{"score":40,"firstTry":1}}}}`)
	repo := newFakeStateRepo()
	repo.blobs[repository.BlobKnowledge] = legacy
	uc, _ := newKnowledgeForTest(t, repo)

	report := mustLoad(t, uc)
	if len(report.SkippedRemoved) != 1 || report.SkippedRemoved[0] != "zanahoria" {
		t.Errorf("expected zanahoria to be skipped as removed, got %v", report.SkippedRemoved)
	}
	if report.Migrated != 0 {
		t.Errorf("expected no migrated words, got %d", report.Migrated)
	}
}

func TestMigrationHandlesEmptyLegacyPayload(t *testing.T) {
	repo := newFakeStateRepo()
	repo.blobs[repository.BlobKnowledge] = []byte(`{"version":1}`)
	uc, _ := newKnowledgeForTest(t, repo)

	report := mustLoad(t, uc)
	if report.FromVersion != 1 || report.Migrated != 0 || report.Skipped() != 0 {
		t.Errorf("unexpected report for empty payload: %+v", report)
	}
	if stats := uc.Statistics(); stats.WordsPracticed != 0 {
		t.Errorf("expected empty store, got %+v", stats)
	}
}

func TestMigrationIsIdempotent(t *testing.T) {
	legacy := []byte(`{
  "version": 1,
  "words": {
    "hola": {
      "es-fi": {"target":"hei","score":64,"firstTry":4,"secondTry":1,"thirdTry":0,"failed":2,"firstPracticedAt":"2023-10-05T08:00:00Z","lastPracticedAt":"2024-01-20T19:00:00Z"},
      "fi-es": {"target":"hola","score":31,"firstTry":1,"failed":3,"firstPracticedAt":"2023-10-06T08:00:00Z","lastPracticedAt":"2024-01-21T19:00:00Z"}
    }
  }
}`)
	clock := func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	first, report, err := migrateKnowledge(legacy, newFakeResolver(), testLogger(), clock)
	if err != nil {
		t.Fatalf("first migration failed: %v", err)
	}
	if report.FromVersion != 1 {
		t.Fatalf("expected legacy version 1, got %+v", report)
	}
	once, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	second, report, err := migrateKnowledge(once, newFakeResolver(), testLogger(), clock)
	if err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
	if report.FromVersion != entity.CurrentSchemaVersion {
		t.Fatalf("expected version check to short-circuit, got %+v", report)
	}
	twice, err := json.Marshal(second)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if !bytes.Equal(once, twice) {
		t.Errorf("expected byte-for-byte equal payloads:\nonce:  %s\ntwice: %s", once, twice)
	}
}

func TestLoadRejectsFutureSchema(t *testing.T) {
	payload := []byte(`{"version":99,"words":{}}`)
	repo := newFakeStateRepo()
	repo.blobs[repository.BlobKnowledge] = payload
	uc, _ := newKnowledgeForTest(t, repo)

	if _, err := uc.Load(context.Background()); !errors.Is(err, entity.ErrPayloadTooNew) {
		t.Fatalf("expected ErrPayloadTooNew, got %v", err)
	}
	if err := uc.RecordAnswer(context.Background(), "hola", "hei", entity.DirectionEsToFi, entity.OutcomeFirstTry, entity.ModeBasic); !errors.Is(err, entity.ErrStoreNotLoaded) {
		t.Errorf("expected store to stay unavailable, got %v", err)
	}
	if !bytes.Equal(repo.blob(repository.BlobKnowledge), payload) {
		t.Error("expected persisted payload to stay untouched")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	repo := newFakeStateRepo()
	uc, _ := newKnowledgeForTest(t, repo)
	mustLoad(t, uc)

	ctx := context.Background()
	if err := uc.RecordAnswer(ctx, "hola", "hei", entity.DirectionEsToFi, entity.OutcomeFirstTry, entity.ModeBasic); err != nil {
		t.Fatalf("RecordAnswer returned error: %v", err)
	}
	if err := uc.RecordAnswer(ctx, "gato", "kissa", entity.DirectionFiToEs, entity.OutcomeSecondTry, entity.ModeKids); err != nil {
		t.Fatalf("RecordAnswer returned error: %v", err)
	}
	if _, err := uc.RecordRoundCompletion(ctx, "greetings", entity.DirectionEsToFi, entity.ModeBasic, []entity.WordOutcome{{Identity: "hola", Outcome: entity.OutcomeFirstTry}}); err != nil {
		t.Fatalf("RecordRoundCompletion returned error: %v", err)
	}

	exported, err := uc.ExportData()
	if err != nil {
		t.Fatalf("ExportData returned error: %v", err)
	}

	otherRepo := newFakeStateRepo()
	other, _ := newKnowledgeForTest(t, otherRepo)
	mustLoad(t, other)

	importReport, err := other.ImportData(ctx, exported)
	if err != nil {
		t.Fatalf("ImportData returned error: %v", err)
	}
	if importReport.Added != 2 {
		t.Errorf("expected 2 added records, got %+v", importReport)
	}

	for _, probe := range []struct {
		identity  string
		direction entity.Direction
		mode      entity.GameMode
	}{
		{"hola", entity.DirectionEsToFi, entity.ModeBasic},
		{"gato", entity.DirectionFiToEs, entity.ModeKids},
	} {
		want, ok := uc.WordRecord(probe.identity, probe.direction, probe.mode)
		if !ok {
			t.Fatalf("missing source record for %s", probe.identity)
		}
		got, ok := other.WordRecord(probe.identity, probe.direction, probe.mode)
		if !ok {
			t.Fatalf("missing imported record for %s", probe.identity)
		}
		if got != want {
			t.Errorf("record mismatch for %s:\nwant %+v\ngot  %+v", probe.identity, want, got)
		}
	}
	if stats := other.Statistics(); stats.TotalRounds != 1 {
		t.Errorf("expected round log to travel with the export, got %+v", stats)
	}
}

func TestImportKeepsNewerLocalRecords(t *testing.T) {
	repo := newFakeStateRepo()
	uc, impl := newKnowledgeForTest(t, repo)
	older := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)

	impl.clock = func() time.Time { return older }
	mustLoad(t, uc)
	if err := uc.RecordAnswer(context.Background(), "hola", "hei", entity.DirectionEsToFi, entity.OutcomeFailed, entity.ModeBasic); err != nil {
		t.Fatalf("RecordAnswer returned error: %v", err)
	}
	exported, err := uc.ExportData()
	if err != nil {
		t.Fatalf("ExportData returned error: %v", err)
	}

	impl.clock = func() time.Time { return newer }
	if err := uc.RecordAnswer(context.Background(), "hola", "hei", entity.DirectionEsToFi, entity.OutcomeFirstTry, entity.ModeBasic); err != nil {
		t.Fatalf("RecordAnswer returned error: %v", err)
	}
	local, _ := uc.WordRecord("hola", entity.DirectionEsToFi, entity.ModeBasic)

	report, err := uc.ImportData(context.Background(), exported)
	if err != nil {
		t.Fatalf("ImportData returned error: %v", err)
	}
	if report.Kept != 1 || report.Merged != 0 || report.Added != 0 {
		t.Errorf("expected the older backup to lose, got %+v", report)
	}
	after, _ := uc.WordRecord("hola", entity.DirectionEsToFi, entity.ModeBasic)
	if after != local {
		t.Errorf("expected local record to survive import:\nwant %+v\ngot  %+v", local, after)
	}
}

func TestImportOverwritesWithNewerBackup(t *testing.T) {
	repo := newFakeStateRepo()
	uc, impl := newKnowledgeForTest(t, repo)
	older := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)

	backupRepo := newFakeStateRepo()
	backup, backupImpl := newKnowledgeForTest(t, backupRepo)
	backupImpl.clock = func() time.Time { return newer }
	mustLoad(t, backup)
	if err := backup.RecordAnswer(context.Background(), "hola", "hei", entity.DirectionEsToFi, entity.OutcomeFirstTry, entity.ModeBasic); err != nil {
		t.Fatalf("RecordAnswer returned error: %v", err)
	}
	if err := backup.RecordAnswer(context.Background(), "gato", "kissa", entity.DirectionEsToFi, entity.OutcomeFirstTry, entity.ModeBasic); err != nil {
		t.Fatalf("RecordAnswer returned error: %v", err)
	}
	exported, err := backup.ExportData()
	if err != nil {
		t.Fatalf("ExportData returned error: %v", err)
	}

	impl.clock = func() time.Time { return older }
	mustLoad(t, uc)
	if err := uc.RecordAnswer(context.Background(), "hola", "hei", entity.DirectionEsToFi, entity.OutcomeFailed, entity.ModeBasic); err != nil {
		t.Fatalf("RecordAnswer returned error: %v", err)
	}

	report, err := uc.ImportData(context.Background(), exported)
	if err != nil {
		t.Fatalf("ImportData returned error: %v", err)
	}
	if report.Merged != 1 || report.Added != 1 {
		t.Errorf("expected merged=1 added=1, got %+v", report)
	}
	record, _ := uc.WordRecord("hola", entity.DirectionEsToFi, entity.ModeBasic)
	if record.FirstTry != 1 || record.Failed != 0 {
		t.Errorf("expected newer backup record to win, got %+v", record)
	}
}

func TestImportRejectsMissingVersion(t *testing.T) {
	repo := newFakeStateRepo()
	uc, _ := newKnowledgeForTest(t, repo)
	mustLoad(t, uc)
	if err := uc.RecordAnswer(context.Background(), "hola", "hei", entity.DirectionEsToFi, entity.OutcomeFirstTry, entity.ModeBasic); err != nil {
		t.Fatalf("RecordAnswer returned error: %v", err)
	}
	before, _ := uc.WordRecord("hola", entity.DirectionEsToFi, entity.ModeBasic)
	savesBefore := repo.saveCount()

	_, err := uc.ImportData(context.Background(), []byte(`{"knowledge":{"version":2,"words":{}}}`))
	if !errors.Is(err, entity.ErrInvalidPayload) {
		t.Fatalf("expected ErrInvalidPayload, got %v", err)
	}
	if err.Error() == "" {
		t.Error("expected a descriptive reason")
	}

	after, _ := uc.WordRecord("hola", entity.DirectionEsToFi, entity.ModeBasic)
	if after != before {
		t.Errorf("expected store to stay unchanged, got %+v -> %+v", before, after)
	}
	if repo.saveCount() != savesBefore {
		t.Error("expected no persistence on rejected import")
	}
}

func TestImportRejectsMissingKnowledge(t *testing.T) {
	repo := newFakeStateRepo()
	uc, _ := newKnowledgeForTest(t, repo)
	mustLoad(t, uc)

	for _, payload := range []string{
		`{"version":2}`,
		`{"version":2,"knowledge":null}`,
		`not json at all`,
	} {
		if _, err := uc.ImportData(context.Background(), []byte(payload)); !errors.Is(err, entity.ErrInvalidPayload) {
			t.Errorf("payload %q: expected ErrInvalidPayload, got %v", payload, err)
		}
	}
}

func TestImportRejectsFutureVersion(t *testing.T) {
	repo := newFakeStateRepo()
	uc, _ := newKnowledgeForTest(t, repo)
	mustLoad(t, uc)

	payload := []byte(`{"version":3,"exportedAt":"2024-03-01T00:00:00Z","knowledge":{"version":3,"words":{}}}`)
	if _, err := uc.ImportData(context.Background(), payload); !errors.Is(err, entity.ErrPayloadTooNew) {
		t.Errorf("expected ErrPayloadTooNew, got %v", err)
	}
}

func TestImportMigratesLegacyBackup(t *testing.T) {
	repo := newFakeStateRepo()
	uc, _ := newKnowledgeForTest(t, repo)
	mustLoad(t, uc)

	payload := []byte(`{
  "version": 1,
  "exportedAt": "2024-02-01T00:00:00Z",
  "knowledge": {
    "version": 1,
    "words": {
      "hola": {"es-fi": {"score": 58, "firstTry": 3, "failed": 1, "lastPracticedAt": "2024-01-30T10:00:00Z"}},
      "tiempo": {"es-fi": {"score": 80, "firstTry": 4, "lastPracticedAt": "2024-01-30T10:00:00Z"}}
    }
  }
}`)
	report, err := uc.ImportData(context.Background(), payload)
	if err != nil {
		t.Fatalf("ImportData returned error: %v", err)
	}
	if report.Added != 1 {
		t.Errorf("expected only hola to import, got %+v", report)
	}
	record, ok := uc.WordRecord("hola", entity.DirectionEsToFi, entity.ModeBasic)
	if !ok || record.Score != 58 {
		t.Errorf("expected migrated hola record with score 58, got %+v ok=%v", record, ok)
	}
	if _, ok := uc.WordRecord("tiempo#time", entity.DirectionEsToFi, entity.ModeBasic); ok {
		t.Error("expected ambiguous tiempo to be skipped during import")
	}
}

func TestRecordRoundCompletionUpdatesAggregates(t *testing.T) {
	repo := newFakeStateRepo()
	uc, _ := newKnowledgeForTest(t, repo)
	mustLoad(t, uc)

	round, err := uc.RecordRoundCompletion(context.Background(), "greetings", entity.DirectionEsToFi, entity.ModeBasic, []entity.WordOutcome{
		{Identity: "hola", Outcome: entity.OutcomeFirstTry},
		{Identity: "gato", Outcome: entity.OutcomeFailed},
	})
	if err != nil {
		t.Fatalf("RecordRoundCompletion returned error: %v", err)
	}
	if round.ID == "" {
		t.Error("expected a round id")
	}
	if round.Category != "greetings" || len(round.Outcomes) != 2 {
		t.Errorf("unexpected round summary: %+v", round)
	}

	if _, err := uc.RecordRoundCompletion(context.Background(), "greetings", entity.DirectionEsToFi, entity.ModeKids, nil); err != nil {
		t.Fatalf("RecordRoundCompletion returned error: %v", err)
	}

	stats := uc.Statistics()
	if stats.TotalRounds != 2 {
		t.Errorf("expected 2 total rounds, got %d", stats.TotalRounds)
	}
	if stats.RoundsByMode[entity.ModeBasic] != 1 || stats.RoundsByMode[entity.ModeKids] != 1 {
		t.Errorf("unexpected per-mode counts: %+v", stats.RoundsByMode)
	}
}

func TestStatisticsThresholds(t *testing.T) {
	repo := newFakeStateRepo()
	uc, _ := newKnowledgeForTest(t, repo)
	mustLoad(t, uc)

	ctx := context.Background()
	for i := 0; i < 6; i++ {
		if err := uc.RecordAnswer(ctx, "hola", "hei", entity.DirectionEsToFi, entity.OutcomeFirstTry, entity.ModeBasic); err != nil {
			t.Fatalf("RecordAnswer returned error: %v", err)
		}
	}
	for i := 0; i < 4; i++ {
		if err := uc.RecordAnswer(ctx, "gato", "kissa", entity.DirectionEsToFi, entity.OutcomeFailed, entity.ModeBasic); err != nil {
			t.Fatalf("RecordAnswer returned error: %v", err)
		}
	}

	stats := uc.Statistics()
	if stats.WordsPracticed != 2 {
		t.Errorf("expected 2 practiced words, got %d", stats.WordsPracticed)
	}
	if stats.WordsMastered != 1 {
		t.Errorf("expected hola to count as mastered, got %d", stats.WordsMastered)
	}
	if stats.WordsWeak != 1 {
		t.Errorf("expected gato to count as weak, got %d", stats.WordsWeak)
	}
}

func TestCategoryKnowledgePerDirection(t *testing.T) {
	repo := newFakeStateRepo()
	uc, _ := newKnowledgeForTest(t, repo)
	mustLoad(t, uc)

	words := []entity.Word{
		{Spanish: "hola", Finnish: []string{"hei"}},
		{Spanish: "gato", Finnish: []string{"kissa"}},
	}
	ctx := context.Background()
	for i := 0; i < 6; i++ {
		if err := uc.RecordAnswer(ctx, "hola", "hei", entity.DirectionEsToFi, entity.OutcomeFirstTry, entity.ModeBasic); err != nil {
			t.Fatalf("RecordAnswer returned error: %v", err)
		}
	}
	if err := uc.RecordAnswer(ctx, "gato", "kissa", entity.DirectionEsToFi, entity.OutcomeFailed, entity.ModeBasic); err != nil {
		t.Fatalf("RecordAnswer returned error: %v", err)
	}

	knowledge := uc.CategoryKnowledge("animals", words)
	if knowledge.TotalWords != 2 {
		t.Errorf("expected 2 total words, got %d", knowledge.TotalWords)
	}
	esFi := knowledge.PerDirection[entity.DirectionEsToFi]
	if esFi.Practiced != 2 || esFi.Known != 1 {
		t.Errorf("unexpected es-fi aggregate: %+v", esFi)
	}
	fiEs := knowledge.PerDirection[entity.DirectionFiToEs]
	if fiEs.Practiced != 0 || fiEs.Known != 0 {
		t.Errorf("expected untouched fi-es aggregate, got %+v", fiEs)
	}
	if esFi.AverageScore <= 0 {
		t.Errorf("expected positive average score, got %v", esFi.AverageScore)
	}
}

func TestResetClearsEverything(t *testing.T) {
	repo := newFakeStateRepo()
	uc, _ := newKnowledgeForTest(t, repo)
	mustLoad(t, uc)

	ctx := context.Background()
	if err := uc.RecordAnswer(ctx, "hola", "hei", entity.DirectionEsToFi, entity.OutcomeFirstTry, entity.ModeBasic); err != nil {
		t.Fatalf("RecordAnswer returned error: %v", err)
	}
	if _, err := uc.RecordRoundCompletion(ctx, "greetings", entity.DirectionEsToFi, entity.ModeBasic, nil); err != nil {
		t.Fatalf("RecordRoundCompletion returned error: %v", err)
	}

	if err := uc.Reset(ctx); err != nil {
		t.Fatalf("Reset returned error: %v", err)
	}
	if _, ok := uc.WordRecord("hola", entity.DirectionEsToFi, entity.ModeBasic); ok {
		t.Error("expected no records after reset")
	}
	stats := uc.Statistics()
	if stats.WordsPracticed != 0 || stats.TotalRounds != 0 {
		t.Errorf("expected empty statistics after reset, got %+v", stats)
	}

	var persisted entity.KnowledgeStore
	if err := json.Unmarshal(repo.blob(repository.BlobKnowledge), &persisted); err != nil {
		t.Fatalf("unmarshal persisted store: %v", err)
	}
	if persisted.Version != entity.CurrentSchemaVersion || len(persisted.Words) != 0 {
		t.Errorf("expected empty current-version store on disk, got %+v", persisted)
	}
}

func TestSubscribeReceivesSnapshots(t *testing.T) {
	repo := newFakeStateRepo()
	uc, _ := newKnowledgeForTest(t, repo)
	mustLoad(t, uc)

	var snapshots []*entity.KnowledgeStore
	current, unsubscribe := uc.Subscribe(func(store *entity.KnowledgeStore) {
		snapshots = append(snapshots, store)
	})
	if current == nil || len(current.Words) != 0 {
		t.Fatalf("expected empty initial snapshot, got %+v", current)
	}

	if err := uc.RecordAnswer(context.Background(), "hola", "hei", entity.DirectionEsToFi, entity.OutcomeFirstTry, entity.ModeBasic); err != nil {
		t.Fatalf("RecordAnswer returned error: %v", err)
	}
	if len(snapshots) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(snapshots))
	}
	if snapshots[0].Words["hola"] == nil {
		t.Error("expected snapshot to carry the new record")
	}

	// Snapshots are isolated copies.
	delete(snapshots[0].Words, "hola")
	if _, ok := uc.WordRecord("hola", entity.DirectionEsToFi, entity.ModeBasic); !ok {
		t.Error("expected store to be unaffected by snapshot mutation")
	}

	unsubscribe()
	if err := uc.RecordAnswer(context.Background(), "gato", "kissa", entity.DirectionEsToFi, entity.OutcomeFirstTry, entity.ModeBasic); err != nil {
		t.Fatalf("RecordAnswer returned error: %v", err)
	}
	if len(snapshots) != 1 {
		t.Errorf("expected no notifications after unsubscribe, got %d", len(snapshots))
	}
}

func TestScoreFollowsRecentResults(t *testing.T) {
	repo := newFakeStateRepo()
	uc, _ := newKnowledgeForTest(t, repo)
	mustLoad(t, uc)

	ctx := context.Background()
	if err := uc.RecordAnswer(ctx, "hola", "hei", entity.DirectionEsToFi, entity.OutcomeFirstTry, entity.ModeBasic); err != nil {
		t.Fatalf("RecordAnswer returned error: %v", err)
	}
	record, _ := uc.WordRecord("hola", entity.DirectionEsToFi, entity.ModeBasic)
	if math.Abs(record.Score-35) > 1e-9 {
		t.Errorf("expected score 35 after one first-try from zero, got %v", record.Score)
	}

	if err := uc.RecordAnswer(ctx, "hola", "hei", entity.DirectionEsToFi, entity.OutcomeFailed, entity.ModeBasic); err != nil {
		t.Fatalf("RecordAnswer returned error: %v", err)
	}
	record, _ = uc.WordRecord("hola", entity.DirectionEsToFi, entity.ModeBasic)
	if math.Abs(record.Score-22.75) > 1e-9 {
		t.Errorf("expected score 22.75 after a failure, got %v", record.Score)
	}
}
