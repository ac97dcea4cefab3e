package leveldb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	domain "github.com/bryanwahyu/medscan/internal/domain/analysis"
)

// Key layout:
//
//	analysis_<id>             => Result JSON
//	date_<unixnano>_<id>      => id, ordered by analysis date
//	failure_<unixnano>_<seq>  => Failure JSON
const (
	analysisPrefix = "analysis_"
	datePrefix     = "date_"
	failurePrefix  = "failure_"
)

// AnalysisRepository is the embedded default history store.
type AnalysisRepository struct {
	db *leveldb.DB
}

// Open opens (or creates) the database directory at path.
func Open(path string) (*AnalysisRepository, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}
	return &AnalysisRepository{db: db}, nil
}

func (r *AnalysisRepository) Close() error { return r.db.Close() }

// Check fails once the database is closed or corrupted.
func (r *AnalysisRepository) Check(context.Context) error {
	_, err := r.db.GetProperty("leveldb.num-files-at-level0")
	return err
}

func analysisKey(id string) []byte { return []byte(analysisPrefix + id) }

func dateKey(res *domain.Result) []byte {
	return []byte(fmt.Sprintf("%s%020d_%s", datePrefix, res.AnalysisDate.UnixNano(), res.ID))
}

// Save writes the result and its date index in one batch; saving an existing
// id replaces it.
func (r *AnalysisRepository) Save(_ context.Context, res *domain.Result) error {
	data, err := json.Marshal(res)
	if err != nil {
		return err
	}

	batch := new(leveldb.Batch)
	if old, err := r.get(res.ID); err != nil {
		return err
	} else if old != nil {
		batch.Delete(dateKey(old))
	}
	batch.Put(analysisKey(res.ID), data)
	batch.Put(dateKey(res), []byte(res.ID))
	return r.db.Write(batch, nil)
}

func (r *AnalysisRepository) Get(_ context.Context, id string) (*domain.Result, error) {
	return r.get(id)
}

func (r *AnalysisRepository) get(id string) (*domain.Result, error) {
	data, err := r.db.Get(analysisKey(id), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var res domain.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decoding analysis %s: %w", id, err)
	}
	res.Findings = res.Findings.Normalize()
	return &res, nil
}

// Paginate walks the date index backwards so the newest analyses come first.
func (r *AnalysisRepository) Paginate(_ context.Context, page, pageSize int, f domain.ListFilter) ([]*domain.Result, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	skip := (page - 1) * pageSize

	iter := r.db.NewIterator(util.BytesPrefix([]byte(datePrefix)), nil)
	defer iter.Release()

	var out []*domain.Result
	for ok := iter.Last(); ok && len(out) < pageSize; ok = iter.Prev() {
		res, err := r.get(string(iter.Value()))
		if err != nil {
			return nil, err
		}
		if res == nil || !f.Matches(res) {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		out = append(out, res)
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return out, nil
}
