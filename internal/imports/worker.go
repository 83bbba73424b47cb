// Package imports loads products in bulk from uploaded spreadsheets. Each
// upload becomes a job that runs on a bounded pool and reports its progress
// through the registry.
package imports

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"inventory/m/domain"
	"inventory/m/internal/progress"
	"inventory/m/internal/store"
)

// Task identifies one accepted upload.
type Task struct {
	JobID string
	Path  string
}

type Worker struct {
	store    *store.Store
	registry *progress.Registry
}

func NewWorker(s *store.Store, registry *progress.Registry) *Worker {
	return &Worker{store: s, registry: registry}
}

// Run processes every row of the task's file. The job always ends completed
// or error, and the file is removed afterwards.
func (w *Worker) Run(ctx context.Context, t Task) {
	defer func() {
		if err := os.Remove(t.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
			log.Printf("import %s: unable to remove %s: %v", t.JobID, t.Path, err)
		}
	}()
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("import %s: panic: %v", t.JobID, rec)
			w.fail(t.JobID, fmt.Sprintf("Error inesperado durante la carga: %v", rec))
		}
	}()

	w.registry.Update(t.JobID, func(j *domain.ImportJob) {
		j.Status = domain.ImportProcessing
		j.Message = "Procesando archivo"
	})
	log.Printf("import %s: started", t.JobID)

	sheet, err := ReadSheet(t.Path)
	if err == nil {
		err = sheet.ValidateColumns()
	}
	if err != nil {
		log.Printf("import %s: unable to read file: %v", t.JobID, err)
		w.fail(t.JobID, fmt.Sprintf("Error al leer el archivo: %v", err))
		return
	}
	w.registry.Update(t.JobID, func(j *domain.ImportJob) { j.Total = len(sheet.Rows) })

	for i, rec := range sheet.Rows {
		outcome, detail := w.importRow(ctx, sheet, rec, i+1)
		w.registry.Update(t.JobID, func(j *domain.ImportJob) {
			j.Processed++
			switch outcome {
			case rowCreated:
				j.Succeeded++
			case rowDuplicate:
				j.Duplicate++
			case rowFailed:
				j.Failed++
				j.AddError(detail)
			}
		})
	}

	var final domain.ImportJob
	w.registry.Update(t.JobID, func(j *domain.ImportJob) {
		j.Finish(domain.ImportCompleted,
			fmt.Sprintf("Carga completada: %d exitosos, %d errores, %d duplicados", j.Succeeded, j.Failed, j.Duplicate),
			time.Now().UTC())
		final = j.Clone()
	})
	log.Printf("import %s: %s", t.JobID, final.Message)
}

type rowOutcome int

const (
	rowCreated rowOutcome = iota
	rowDuplicate
	rowFailed
)

func (w *Worker) importRow(ctx context.Context, sheet *Sheet, rec []string, n int) (rowOutcome, string) {
	p, err := sheet.ParseRow(rec, n)
	if err != nil {
		return rowFailed, err.Error()
	}
	q := w.store.Q()
	if p.SKU != nil {
		exists, err := q.SKUExists(ctx, *p.SKU, 0)
		if err != nil {
			log.Printf("import row %d: %v", n, err)
			return rowFailed, fmt.Sprintf("Fila %d: error al verificar el SKU", n)
		}
		if exists {
			return rowDuplicate, ""
		}
	}
	return w.insertRow(ctx, p, n)
}

// insertRow stores a parsed row. The unique index on sku is the final
// duplicate guard, so a violation here also counts as a duplicate.
func (w *Worker) insertRow(ctx context.Context, p domain.NewProduct, n int) (rowOutcome, string) {
	_, err := w.store.Q().CreateProduct(ctx, p)
	switch {
	case err == nil:
		return rowCreated, ""
	case errors.Is(err, domain.ErrDuplicateKey):
		return rowDuplicate, ""
	case domain.IsClientError(err):
		return rowFailed, fmt.Sprintf("Fila %d: %s", n, err.Error())
	default:
		log.Printf("import row %d: %v", n, err)
		return rowFailed, fmt.Sprintf("Fila %d: error al guardar el producto", n)
	}
}

func (w *Worker) fail(jobID, msg string) {
	w.registry.Update(jobID, func(j *domain.ImportJob) {
		j.Finish(domain.ImportError, msg, time.Now().UTC())
	})
}
