package usecase

import (
	"io"

	"github.com/sirupsen/logrus"
)

// testLogger returns a quiet logger so warning-heavy paths (migration
// skips, persistence failures) do not pollute test output.
func testLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
