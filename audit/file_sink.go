package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-cashier-fastspring/core"
)

const (
	filePrefix = "payload."
	fileSuffix = ".json"
)

// FileSink writes every raw webhook body to its own file under Dir, named
// payload.<unix>.<id>.json. Files are never rotated or removed.
type FileSink struct {
	Dir  string
	Now  func() time.Time
	Perm os.FileMode
}

func NewFileSink(dir string) *FileSink {
	return &FileSink{Dir: dir}
}

func (s *FileSink) Record(_ context.Context, record core.AuditRecord) error {
	if s == nil || strings.TrimSpace(s.Dir) == "" {
		return core.InternalError("audit: directory is required", nil)
	}
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return core.WrapInternal(err, "audit: create directory", map[string]any{"dir": s.Dir})
	}
	path := s.Path(record)
	if err := os.WriteFile(path, record.Body, s.perm()); err != nil {
		return core.WrapInternal(err, "audit: write payload", map[string]any{"path": path})
	}
	return nil
}

// Path returns the file the record is written to.
func (s *FileSink) Path(record core.AuditRecord) string {
	receivedAt := record.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = s.now()
	}
	id := strings.TrimSpace(record.ID)
	if id == "" {
		id = uuid.NewString()
	}
	name := fmt.Sprintf("%s%d.%s%s", filePrefix, receivedAt.Unix(), id, fileSuffix)
	return filepath.Join(s.Dir, name)
}

func (s *FileSink) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *FileSink) perm() os.FileMode {
	if s.Perm != 0 {
		return s.Perm
	}
	return 0o640
}

// NopSink drops every record.
type NopSink struct{}

func (NopSink) Record(context.Context, core.AuditRecord) error { return nil }

// Multi records to every sink and returns the first error after trying all.
type Multi []core.AuditSink

func (m Multi) Record(ctx context.Context, record core.AuditRecord) error {
	var first error
	for _, sink := range m {
		if sink == nil {
			continue
		}
		if err := sink.Record(ctx, record); err != nil && first == nil {
			first = err
		}
	}
	return first
}

var (
	_ core.AuditSink = (*FileSink)(nil)
	_ core.AuditSink = NopSink{}
	_ core.AuditSink = Multi(nil)
)
