// Package progress tracks bulk import jobs in memory so clients can poll them
// while workers run.
package progress

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"inventory/m/domain"
)

// Registry is safe for concurrent use. Readers always get copies.
type Registry struct {
	mu   sync.Mutex
	jobs map[string]*domain.ImportJob
}

func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]*domain.ImportJob)}
}

// Create registers job, replacing any entry with the same id.
func (r *Registry) Create(job domain.ImportJob) {
	c := job.Clone()
	r.mu.Lock()
	r.jobs[job.ID] = &c
	r.mu.Unlock()
}

// Update applies fn to the stored job under the lock. It reports false when
// the job does not exist.
func (r *Registry) Update(id string, fn func(job *domain.ImportJob)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return false
	}
	fn(job)
	return true
}

func (r *Registry) Get(id string) (domain.ImportJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return domain.ImportJob{}, domain.NotFoundf("ID de carga no encontrado")
	}
	return job.Clone(), nil
}

// List returns every job, oldest first.
func (r *Registry) List() []domain.ImportJob {
	r.mu.Lock()
	jobs := make([]domain.ImportJob, 0, len(r.jobs))
	for _, job := range r.jobs {
		jobs = append(jobs, job.Clone())
	}
	r.mu.Unlock()

	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].StartedAt.Equal(jobs[j].StartedAt) {
			return jobs[i].ID < jobs[j].ID
		}
		return jobs[i].StartedAt.Before(jobs[j].StartedAt)
	})
	return jobs
}

// Prune removes finished jobs whose finish time is before cutoff and returns
// how many were removed. Running jobs are never removed.
func (r *Registry) Prune(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for id, job := range r.jobs {
		if job.Terminal() && job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			delete(r.jobs, id)
			n++
		}
	}
	return n
}

// RunJanitor prunes jobs finished more than ttl ago every interval until ctx
// is done.
func (r *Registry) RunJanitor(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := r.Prune(now.Add(-ttl)); n > 0 {
				log.Printf("progress: evicted %d finished import jobs", n)
			}
		}
	}
}
