package repo

import (
	"context"
	"sort"
	"sync"

	"github.com/xxxsen/eventkb/internal/model"
	appErr "github.com/xxxsen/eventkb/internal/pkg/errors"
)

// MemorySourceRepo keeps sources in process memory. It has the same
// contract as SourceRepo, including the compare-and-set claim.
type MemorySourceRepo struct {
	mu      sync.Mutex
	seq     int64
	sources map[string]*memorySource
}

type memorySource struct {
	seq int64
	src model.Source
}

func NewMemorySourceRepo() *MemorySourceRepo {
	return &MemorySourceRepo{sources: make(map[string]*memorySource)}
}

func (r *MemorySourceRepo) Create(ctx context.Context, src *model.Source) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sources[src.ID]; ok {
		return appErr.ErrInvalid
	}
	r.seq++
	r.sources[src.ID] = &memorySource{seq: r.seq, src: copySource(*src)}
	return nil
}

func (r *MemorySourceRepo) GetByID(ctx context.Context, id string) (*model.Source, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.sources[id]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	src := copySource(item.src)
	return &src, nil
}

func (r *MemorySourceRepo) ListByEvent(ctx context.Context, eventID string) ([]model.Source, error) {
	return r.filter(func(s *model.Source) bool { return s.EventID == eventID }, 0), nil
}

func (r *MemorySourceRepo) ListByStatus(ctx context.Context, status model.SourceStatus, limit int) ([]model.Source, error) {
	return r.filter(func(s *model.Source) bool { return s.Status == status }, limit), nil
}

func (r *MemorySourceRepo) UpdateStatusIf(ctx context.Context, id string, from, to model.SourceStatus, errMsg *string, mtime int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	item, ok := r.sources[id]
	if !ok || item.src.Status != from {
		return false, nil
	}
	item.src.Status = to
	item.src.ErrorMessage = copyString(errMsg)
	item.src.Mtime = mtime
	return true, nil
}

func (r *MemorySourceRepo) filter(match func(*model.Source) bool, limit int) []model.Source {
	r.mu.Lock()
	items := make([]memorySource, 0, len(r.sources))
	for _, item := range r.sources {
		if match(&item.src) {
			items = append(items, memorySource{seq: item.seq, src: copySource(item.src)})
		}
	}
	r.mu.Unlock()
	sort.Slice(items, func(i, j int) bool {
		if items[i].src.Ctime != items[j].src.Ctime {
			return items[i].src.Ctime < items[j].src.Ctime
		}
		return items[i].seq < items[j].seq
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	out := make([]model.Source, 0, len(items))
	for _, item := range items {
		out = append(out, item.src)
	}
	return out
}

func copySource(src model.Source) model.Source {
	src.ErrorMessage = copyString(src.ErrorMessage)
	return src
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
