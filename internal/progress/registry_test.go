package progress

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"inventory/m/domain"
)

func TestGetReturnsCopy(t *testing.T) {
	r := NewRegistry()
	r.Create(domain.ImportJob{ID: "a", Status: domain.ImportInitializing})

	r.Update("a", func(j *domain.ImportJob) { j.AddError("Fila 1: nombre vacío") })
	got, err := r.Get("a")
	if err != nil {
		t.Fatal(err)
	}
	got.Errors[0] = "mutated"
	got.Processed = 99

	again, _ := r.Get("a")
	if again.Errors[0] != "Fila 1: nombre vacío" || again.Processed != 0 {
		t.Fatalf("registry state leaked to reader: %+v", again)
	}
}

func TestMissingJob(t *testing.T) {
	r := NewRegistry()
	if _, err := r.Get("nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if r.Update("nope", func(*domain.ImportJob) { t.Fatal("fn called for missing job") }) {
		t.Fatal("Update reported success for missing job")
	}
}

func TestListOrdersByStart(t *testing.T) {
	r := NewRegistry()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.Create(domain.ImportJob{ID: "late", StartedAt: base.Add(time.Minute)})
	r.Create(domain.ImportJob{ID: "early", StartedAt: base})

	jobs := r.List()
	if len(jobs) != 2 || jobs[0].ID != "early" || jobs[1].ID != "late" {
		t.Fatalf("unexpected order: %+v", jobs)
	}
}

func TestPruneKeepsRunningJobs(t *testing.T) {
	r := NewRegistry()
	now := time.Now()
	old := now.Add(-2 * time.Hour)
	r.Create(domain.ImportJob{ID: "running", Status: domain.ImportProcessing, StartedAt: old})
	r.Create(domain.ImportJob{ID: "old", Status: domain.ImportCompleted, StartedAt: old, FinishedAt: &old})
	r.Create(domain.ImportJob{ID: "fresh", Status: domain.ImportError, StartedAt: now, FinishedAt: &now})

	if n := r.Prune(now.Add(-time.Hour)); n != 1 {
		t.Fatalf("pruned %d jobs, want 1", n)
	}
	if _, err := r.Get("old"); err == nil {
		t.Fatal("old job survived")
	}
	for _, id := range []string{"running", "fresh"} {
		if _, err := r.Get(id); err != nil {
			t.Fatalf("%s evicted: %v", id, err)
		}
	}
}

func TestJanitorStopsWithContext(t *testing.T) {
	r := NewRegistry()
	past := time.Now().Add(-time.Hour)
	r.Create(domain.ImportJob{ID: "done", Status: domain.ImportCompleted, FinishedAt: &past})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.RunJanitor(ctx, 5*time.Millisecond, time.Minute)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for len(r.List()) != 0 {
		select {
		case <-deadline:
			t.Fatal("janitor never pruned")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("janitor did not stop")
	}
}

func TestConcurrentPollersSeeMonotonicProgress(t *testing.T) {
	r := NewRegistry()
	const total = 200
	r.Create(domain.ImportJob{ID: "job", Status: domain.ImportProcessing, Total: total})

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			last := -1.0
			for {
				job, err := r.Get("job")
				if err != nil {
					t.Error(err)
					return
				}
				if job.Succeeded+job.Failed+job.Duplicate != job.Processed {
					t.Errorf("torn snapshot: %+v", job)
					return
				}
				p := job.Progress()
				if p < last {
					t.Errorf("progress went back from %v to %v", last, p)
					return
				}
				last = p
				select {
				case <-stop:
					return
				default:
				}
			}
		}()
	}

	for i := 0; i < total; i++ {
		r.Update("job", func(j *domain.ImportJob) {
			j.Processed++
			if i%3 == 0 {
				j.Failed++
			} else {
				j.Succeeded++
			}
		})
	}
	r.Update("job", func(j *domain.ImportJob) { j.Finish(domain.ImportCompleted, "ok", time.Now()) })
	close(stop)
	wg.Wait()

	job, _ := r.Get("job")
	if job.Progress() != 100 || job.Status != domain.ImportCompleted {
		t.Fatalf("final job = %+v", job)
	}
}
