package imports

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"inventory/m/domain"
	"inventory/m/internal/progress"
)

// Service accepts uploads, registers their jobs and queues them on the pool.
type Service struct {
	dir      string
	registry *progress.Registry
	pool     *Pool
	worker   *Worker
}

func NewService(dir string, registry *progress.Registry, pool *Pool, worker *Worker) *Service {
	return &Service{dir: dir, registry: registry, pool: pool, worker: worker}
}

// Accept stores the upload in the import directory, checks that it can be
// read and has the required columns, and schedules it. The returned job is
// still initializing.
func (s *Service) Accept(fileName, username string, src io.Reader) (domain.ImportJob, error) {
	if !Supported(fileName) {
		return domain.ImportJob{}, domain.Invalidf("Solo se permiten archivos Excel (.xlsx) o CSV (.csv)")
	}
	id := uuid.NewString()
	path := filepath.Join(s.dir, id+strings.ToLower(filepath.Ext(fileName)))
	if err := save(path, src); err != nil {
		return domain.ImportJob{}, fmt.Errorf("save upload: %w", err)
	}

	sheet, err := ReadSheet(path)
	if err != nil {
		os.Remove(path)
		return domain.ImportJob{}, domain.Invalidf("Error al leer el archivo: %v", err)
	}
	if err := sheet.ValidateColumns(); err != nil {
		os.Remove(path)
		return domain.ImportJob{}, err
	}

	job := domain.ImportJob{
		ID:        id,
		FileName:  filepath.Base(fileName),
		Username:  username,
		Status:    domain.ImportInitializing,
		Total:     len(sheet.Rows),
		Message:   "Archivo recibido, en cola para procesar",
		StartedAt: time.Now().UTC(),
	}
	s.registry.Create(job)
	s.pool.Submit(func(ctx context.Context) {
		s.worker.Run(ctx, Task{JobID: id, Path: path})
	})
	log.Printf("import %s: accepted %s from %s (%d rows)", id, job.FileName, username, job.Total)
	return job, nil
}

func save(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return err
	}
	return dst.Close()
}
