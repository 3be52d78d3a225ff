package dao

import (
	"context"
	"sort"
	"strconv"

	"github.com/haierkeys/post-revisions-service/internal/domain"

	"go.uber.org/zap"
)

// headField holds the live marker override; it is not a timestamp so entry listing skips it
const headField = "head"

// revisionRepository 实现 domain.RevisionRepository 接口
type revisionRepository struct {
	dao *Dao
}

// NewRevisionRepository 创建 RevisionRepository 实例
func NewRevisionRepository(dao *Dao) domain.RevisionRepository {
	return &revisionRepository{dao: dao}
}

// parseField accepts only positive integer field names
func parseField(field string) (int64, bool) {
	ts, err := strconv.ParseInt(field, 10, 64)
	if err != nil || ts <= 0 {
		return 0, false
	}
	return ts, true
}

func sortNewestFirst(revs []*domain.EditRevision) {
	sort.SliceStable(revs, func(i, j int) bool { return revs[i].Ts > revs[j].Ts })
}

func (r *revisionRepository) Load(ctx context.Context, pid int64) (*domain.StoredHistory, error) {
	fields, err := r.dao.Store.GetFieldMap(ctx, HistoryKey(pid))
	if err != nil {
		return nil, err
	}
	h := &domain.StoredHistory{
		Entries: make([]*domain.EditRevision, 0, len(fields)),
		Exists:  len(fields) > 0,
	}
	for field, value := range fields {
		if field == headField {
			head, err := DecodeHead(value)
			if err != nil {
				h.Corrupt = append(h.Corrupt, domain.CorruptEntry{Field: field, Err: err})
				continue
			}
			h.Head = head
			continue
		}
		ts, ok := parseField(field)
		if !ok {
			continue
		}
		rev, err := DecodeRevision(ts, value)
		if err != nil {
			h.Corrupt = append(h.Corrupt, domain.CorruptEntry{Field: field, Err: err})
			continue
		}
		h.Entries = append(h.Entries, rev)
	}
	sortNewestFirst(h.Entries)
	return h, nil
}

func (r *revisionRepository) LoadLegacy(ctx context.Context, pid int64) (*domain.StoredHistory, error) {
	members, err := r.dao.Store.GetTimeOrderedRange(ctx, LegacyKey(pid), 0, -1)
	if err != nil {
		return nil, err
	}
	h := &domain.StoredHistory{
		Entries: make([]*domain.EditRevision, 0, len(members)),
		Exists:  len(members) > 0,
	}
	for _, m := range members {
		rev, err := DecodeLegacyRevision(m.Score, m.Member)
		if err != nil {
			h.Corrupt = append(h.Corrupt, domain.CorruptEntry{Field: formatInt(m.Score), Err: err})
			continue
		}
		h.Entries = append(h.Entries, rev)
	}
	sortNewestFirst(h.Entries)
	return h, nil
}

func encodeEntries(entries []*domain.EditRevision) (map[string]string, error) {
	fields := make(map[string]string, len(entries))
	for _, rev := range entries {
		v, err := EncodeRevision(rev)
		if err != nil {
			return nil, err
		}
		fields[formatInt(rev.Ts)] = v
	}
	return fields, nil
}

func (r *revisionRepository) ReplaceLegacy(ctx context.Context, pid int64, entries []*domain.EditRevision) error {
	fields, err := encodeEntries(entries)
	if err != nil {
		return err
	}
	return r.dao.Store.SetFieldMapAndDeleteKeys(ctx, HistoryKey(pid), fields, LegacyKey(pid))
}

func (r *revisionRepository) Apply(ctx context.Context, pid int64, change *domain.HistoryChange) error {
	set, err := encodeEntries(change.Put)
	if err != nil {
		return err
	}
	var del []string
	for _, ts := range change.Delete {
		del = append(del, formatInt(ts))
	}
	switch {
	case change.Head != nil:
		v, err := EncodeHead(change.Head)
		if err != nil {
			return err
		}
		set[headField] = v
	case change.ClearHead:
		del = append(del, headField)
	}
	if len(set) == 0 && len(del) == 0 {
		return nil
	}
	return r.dao.Store.UpdateFields(ctx, HistoryKey(pid), set, del...)
}

func (r *revisionRepository) DeleteAll(ctx context.Context, pid int64) error {
	return r.dao.Store.DeleteKeys(ctx, LegacyKey(pid), HistoryKey(pid))
}

func (r *revisionRepository) CountFields(ctx context.Context, pid int64) (int64, error) {
	return r.dao.Store.CountFields(ctx, HistoryKey(pid))
}

func (r *revisionRepository) EachLegacy(ctx context.Context, fn func(pid int64) error) error {
	return r.dao.Store.ScanKeys(ctx, LegacyPattern, func(key string) error {
		pid, ok := parseLegacyKey(key)
		if !ok {
			r.dao.logger.Debug("skip unexpected legacy key", zap.String("key", key))
			return nil
		}
		return fn(pid)
	})
}
