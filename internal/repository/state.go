package repository

import "context"

// Names of the persisted state blobs. Each blob is an independently
// readable and writable JSON document.
const (
	BlobKnowledge      = "knowledge"
	BlobRecentRounds   = "recent_rounds"
	BlobLessonProgress = "lesson_progress"
)

// StateRepository stores named JSON blobs. Load returns
// entity.ErrBlobNotFound (wrapped) when the name has never been saved.
// Writes follow last-write-wins semantics; there is no cross-process
// coordination.
type StateRepository interface {
	Load(ctx context.Context, name string) ([]byte, error)
	Save(ctx context.Context, name string, content []byte) error
}
