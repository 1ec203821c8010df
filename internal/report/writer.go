package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// Write stores r at path, creating the parent directory when needed. This is
// the producer side of the report contract; failures are logged and returned
// so the writer aborts.
func Write(log logrus.FieldLogger, path string, r *Report) error {
	if log == nil {
		log = logrus.StandardLogger()
	}

	data, err := r.ToJSON()
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.WithError(err).WithField("dir", dir).Error("Unable to access or create the configured directory")
		return fmt.Errorf("creating run report directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.WithError(err).WithField("path", path).Error("Unable to write run report")
		return fmt.Errorf("writing run report %s: %w", path, err)
	}
	return nil
}
