package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alanyoungcy/veledger/internal/domain"
)

// Archiver serializes audit entries older than a cutoff to JSONL and uploads
// the result to object storage. Deleting archived rows from the primary store
// is intentionally left as a separate, explicit step run after the archive
// has been verified.
type Archiver struct {
	writer domain.BlobWriter
	audit  domain.AuditStore
	now    func() time.Time
}

// NewArchiver creates an Archiver over the given writer and audit store.
func NewArchiver(writer domain.BlobWriter, audit domain.AuditStore) *Archiver {
	return &Archiver{writer: writer, audit: audit, now: time.Now}
}

// ArchiveAudit uploads every audit entry created before the cutoff to
// archive/audit/<cutoff date>/<upload time>.jsonl and returns the number of
// archived entries. The upload timestamp in the key keeps repeated runs with
// the same cutoff from overwriting each other. An empty result uploads
// nothing.
func (a *Archiver) ArchiveAudit(ctx context.Context, before time.Time) (int64, error) {
	entries, err := a.audit.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive audit query: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return 0, fmt.Errorf("s3blob: encode audit entry %d: %w", e.ID, err)
		}
	}

	key := fmt.Sprintf("archive/audit/%s/%s.jsonl",
		before.UTC().Format("2006-01-02"),
		a.now().UTC().Format("20060102T150405Z"),
	)
	if err := a.writer.Put(ctx, key, buf.Bytes(), "application/x-ndjson"); err != nil {
		return 0, err
	}
	return int64(len(entries)), nil
}
