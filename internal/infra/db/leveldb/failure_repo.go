package leveldb

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	domain "github.com/bryanwahyu/medscan/internal/domain/analysis"
)

// FailureLog implements domain.FailureLog in the same database as the
// analyses.
type FailureLog struct {
	db  *leveldb.DB
	seq atomic.Uint64
}

// Failures returns the failure log sharing this repository's database.
func (r *AnalysisRepository) Failures() *FailureLog {
	return &FailureLog{db: r.db}
}

func (l *FailureLog) Record(_ context.Context, f *domain.Failure) error {
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(f)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("%s%020d_%020d", failurePrefix, f.CreatedAt.UnixNano(), l.seq.Add(1))
	return l.db.Put([]byte(key), data, nil)
}

// Recent returns up to limit failures, newest first.
func (l *FailureLog) Recent(_ context.Context, limit int) ([]*domain.Failure, error) {
	if limit <= 0 {
		limit = 20
	}
	iter := l.db.NewIterator(util.BytesPrefix([]byte(failurePrefix)), nil)
	defer iter.Release()

	var out []*domain.Failure
	for ok := iter.Last(); ok && len(out) < limit; ok = iter.Prev() {
		var f domain.Failure
		if err := json.Unmarshal(iter.Value(), &f); err != nil {
			return nil, fmt.Errorf("decoding failure %s: %w", iter.Key(), err)
		}
		out = append(out, &f)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return out, nil
}
