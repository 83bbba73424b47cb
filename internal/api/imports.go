package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"inventory/m/domain"
)

type uploadResponse struct {
	UploadID         string `json:"upload_id"`
	Message          string `json:"message"`
	Status           string `json:"status"`
	CheckProgressURL string `json:"check_progress_url"`
}

type progressResponse struct {
	UploadID   string              `json:"upload_id"`
	FileName   string              `json:"file_name"`
	Status     domain.ImportStatus `json:"status"`
	Progress   float64             `json:"progress"`
	Total      int                 `json:"total"`
	Processed  int                 `json:"procesados"`
	Succeeded  int                 `json:"exitosos"`
	Failed     int                 `json:"errores"`
	Duplicate  int                 `json:"duplicados"`
	Errors     []string            `json:"detalles_errores"`
	Message    string              `json:"message"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt *time.Time          `json:"finished_at,omitempty"`
}

func newProgressResponse(job domain.ImportJob) progressResponse {
	errs := job.Errors
	if errs == nil {
		errs = []string{}
	}
	return progressResponse{
		UploadID:   job.ID,
		FileName:   job.FileName,
		Status:     job.Status,
		Progress:   job.Progress(),
		Total:      job.Total,
		Processed:  job.Processed,
		Succeeded:  job.Succeeded,
		Failed:     job.Failed,
		Duplicate:  job.Duplicate,
		Errors:     errs,
		Message:    job.Message,
		StartedAt:  job.StartedAt,
		FinishedAt: job.FinishedAt,
	}
}

func (h *Handler) uploadProducts(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.opts.MaxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "Archivo inválido o demasiado grande")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Se requiere el archivo en el campo 'file'")
		return
	}
	defer file.Close()

	p, _ := principal(r.Context())
	job, err := h.imports.Accept(header.Filename, p.Username, file)
	if err != nil {
		respondDomainError(w, r, err, "Error al procesar el archivo")
		return
	}
	respondJSON(w, http.StatusAccepted, uploadResponse{
		UploadID:         job.ID,
		Message:          "Archivo recibido. El procesamiento continúa en segundo plano.",
		Status:           "processing",
		CheckProgressURL: "/api/products/upload/progress/" + job.ID,
	})
}

func (h *Handler) importProgress(w http.ResponseWriter, r *http.Request) {
	job, err := h.registry.Get(chi.URLParam(r, "uploadID"))
	if err != nil {
		respondDomainError(w, r, err, "Error al obtener progreso")
		return
	}
	respondJSON(w, http.StatusOK, newProgressResponse(job))
}

func (h *Handler) listImportJobs(w http.ResponseWriter, r *http.Request) {
	jobs := h.registry.List()
	out := make([]progressResponse, len(jobs))
	for i, job := range jobs {
		out[i] = newProgressResponse(job)
	}
	respondJSON(w, http.StatusOK, out)
}
