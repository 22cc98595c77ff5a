package memory

import (
	"context"
	"sort"
	"time"

	"github.com/xavierca1/ligue-growth/internal/entity"
)

type LeadRepository struct{ s *Store }

func (r *LeadRepository) Create(_ context.Context, lead *entity.Lead) error {
	r.s.mu.Lock()
	if _, ok := r.s.leads[lead.ID]; ok {
		r.s.mu.Unlock()
		return entity.ErrDuplicate
	}
	r.s.leads[lead.ID] = *lead
	r.s.mu.Unlock()

	r.s.publish(Change{Kind: "lead", ID: lead.ID, Status: string(lead.Status)})
	return nil
}

func (r *LeadRepository) FindByID(_ context.Context, id string) (*entity.Lead, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	lead, ok := r.s.leads[id]
	if !ok {
		return nil, entity.ErrNotFound
	}
	return &lead, nil
}

// List returns the most recently active leads first.
func (r *LeadRepository) List(_ context.Context, filter entity.LeadFilter) ([]*entity.Lead, error) {
	r.s.mu.RLock()
	out := make([]*entity.Lead, 0)
	for _, l := range r.s.leads {
		if filter.Source != "" && l.Source != filter.Source {
			continue
		}
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		lead := l
		out = append(out, &lead)
	}
	r.s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActivityAt.After(out[j].LastActivityAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *LeadRepository) UpdateStatus(_ context.Context, id string, from, to entity.LeadStatus, conversionValue *float64) error {
	r.s.mu.Lock()
	lead, ok := r.s.leads[id]
	if !ok {
		r.s.mu.Unlock()
		return entity.ErrNotFound
	}
	if lead.Status != from {
		r.s.mu.Unlock()
		return entity.ErrStaleStatus
	}
	lead.Status = to
	lead.LastActivityAt = time.Now()
	if conversionValue != nil {
		v := *conversionValue
		lead.ConversionValue = &v
	}
	r.s.leads[id] = lead
	r.s.mu.Unlock()

	r.s.publish(Change{Kind: "lead", ID: id, Status: string(to)})
	return nil
}

func (r *LeadRepository) Stats(_ context.Context) (*entity.LeadStats, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	stats := &entity.LeadStats{
		ByStatus: make(map[entity.LeadStatus]int),
		BySource: make(map[entity.LeadSource]int),
	}
	for _, l := range r.s.leads {
		stats.Total++
		stats.ByStatus[l.Status]++
		stats.BySource[l.Source]++
	}
	stats.ConversionRate = entity.ConversionRate(stats)
	return stats, nil
}
