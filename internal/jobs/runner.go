package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/brlegal/captura-partes/internal/capture"
	"github.com/brlegal/captura-partes/internal/database"
	"github.com/brlegal/captura-partes/internal/rawlog"
	"github.com/brlegal/captura-partes/pkg/logger"
)

// Request describes one capture job: one or more cases captured on behalf
// of one attorney with a set of court credentials
type Request struct {
	Kind          string                   `json:"tipo_captura" binding:"required"`
	Attorney      capture.AttorneyIdentity `json:"advogado"`
	CredentialIDs []int64                  `json:"credenciais_ids"`
	CourtCode     string                   `json:"tribunal"`
	Instance      string                   `json:"instancia"`
	Cases         []capture.CaseDescriptor `json:"casos"`
}

// CaseOutcome is one case's result inside the job summary
type CaseOutcome struct {
	CaseID     int64                  `json:"caso_id"`
	CaseNumber string                 `json:"numero_processo"`
	OK         bool                   `json:"ok"`
	Error      string                 `json:"erro,omitempty"`
	Result     *capture.CaptureResult `json:"resultado,omitempty"`
}

// Summary is the structured result persisted on the job record at the end
// of a run. MongoIDs lists the raw-log document ids written for this job;
// it is compared against the document store's own count as an advisory
// consistency check.
type Summary struct {
	TotalCases      int           `json:"total_casos"`
	Succeeded       int           `json:"casos_ok"`
	Failed          int           `json:"casos_erro"`
	TotalParties    int           `json:"total_partes"`
	Clients         int           `json:"clientes"`
	OpposingParties int           `json:"partes_contrarias"`
	ThirdParties    int           `json:"terceiros"`
	Representatives int           `json:"representantes"`
	Links           int           `json:"vinculos"`
	MongoIDs        []string      `json:"mongodb_ids"`
	Cases           []CaseOutcome `json:"resultados"`
}

// Runner owns the capture job lifecycle: it creates the job record, fans
// out over the job's cases with bounded concurrency, wraps each case
// capture in a raw log write, and finalizes the record exactly once
type Runner struct {
	db            *gorm.DB
	orchestrator  *capture.Orchestrator
	rawLogs       *rawlog.Writer
	logger        *logger.Logger
	maxConcurrent int
}

// NewRunner creates a runner. maxConcurrent bounds how many cases of one
// job run at the same time; each case's capture stays sequential inside.
func NewRunner(db *gorm.DB, orchestrator *capture.Orchestrator, rawLogs *rawlog.Writer, log *logger.Logger, maxConcurrent int) *Runner {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	return &Runner{
		db:            db,
		orchestrator:  orchestrator,
		rawLogs:       rawLogs,
		logger:        log,
		maxConcurrent: maxConcurrent,
	}
}

// Start creates the job record and executes the job in the background,
// returning the record immediately
func (r *Runner) Start(req Request) (*database.CapturaJob, error) {
	job, err := r.createJob(req)
	if err != nil {
		return nil, err
	}

	go r.execute(context.Background(), job, req)

	return job, nil
}

// Run executes a job synchronously and returns the finalized record and
// its summary
func (r *Runner) Run(ctx context.Context, req Request) (*database.CapturaJob, *Summary, error) {
	job, err := r.createJob(req)
	if err != nil {
		return nil, nil, err
	}

	summary := r.execute(ctx, job, req)
	return job, summary, nil
}

func (r *Runner) createJob(req Request) (*database.CapturaJob, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	credentials, err := json.Marshal(req.CredentialIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode credential ids: %w", err)
	}

	job := &database.CapturaJob{
		TipoCaptura:    req.Kind,
		AdvogadoID:     req.Attorney.ID,
		CredenciaisIDs: string(credentials),
		Status:         database.JobStatusPending,
		IniciadoEm:     time.Now(),
	}

	if err := r.db.Create(job).Error; err != nil {
		// No job record exists yet, so the failure is logged under the
		// pre-job sentinel id
		r.rawLogs.Record(context.Background(), &rawlog.Entry{
			JobID:        rawlog.JobIDPreJob,
			Kind:         req.Kind,
			AttorneyID:   req.Attorney.ID,
			CredentialID: firstCredential(req),
			CourtCode:    req.CourtCode,
			Instance:     req.Instance,
			Status:       rawlog.StatusError,
			Error:        err.Error(),
		})
		return nil, fmt.Errorf("failed to create capture job: %w", err)
	}

	return job, nil
}

func (r *Runner) execute(ctx context.Context, job *database.CapturaJob, req Request) *Summary {
	r.db.Model(job).Update("status", database.JobStatusInProgress)

	r.logger.Info("Capture job started",
		"job_id", job.ID,
		"kind", req.Kind,
		"cases", len(req.Cases),
	)

	summary := &Summary{
		TotalCases: len(req.Cases),
		Cases:      make([]CaseOutcome, len(req.Cases)),
	}
	credential := firstCredential(req)

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	semaphore := make(chan struct{}, r.maxConcurrent)

	for i, caseDesc := range req.Cases {
		wg.Add(1)
		go func(index int, cs capture.CaseDescriptor) {
			defer wg.Done()

			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			result, err := r.orchestrator.CaptureParties(ctx, nil, cs, req.Attorney)

			entry := &rawlog.Entry{
				JobID:        int64(job.ID),
				Kind:         req.Kind,
				AttorneyID:   req.Attorney.ID,
				CredentialID: credential,
				CourtCode:    req.CourtCode,
				Instance:     req.Instance,
				Request: rawlog.RequestInfo{
					CaseID:         cs.CaseID,
					ExternalCaseID: cs.ExternalCaseID,
					CaseNumber:     cs.CaseNumber,
				},
			}

			outcome := CaseOutcome{CaseID: cs.CaseID, CaseNumber: cs.CaseNumber}
			if err != nil {
				entry.Status = rawlog.StatusError
				entry.Error = err.Error()
				outcome.Error = err.Error()
			} else {
				entry.Status = rawlog.StatusSuccess
				if len(result.RawParties) > 0 {
					entry.Payload = result.RawParties
				}
				entry.Result = result
				outcome.OK = true
				outcome.Result = result
			}

			logResult := r.rawLogs.Record(ctx, entry)

			mu.Lock()
			defer mu.Unlock()

			summary.Cases[index] = outcome

			if logResult.OK {
				summary.MongoIDs = append(summary.MongoIDs, logResult.DocumentID)
			} else {
				// Reported but not retried here; retrying the whole job is
				// the caller's call
				r.logger.Warn("Raw log write failed",
					"job_id", job.ID,
					"case", cs.CaseNumber,
					"error", logResult.Err,
				)
			}

			if outcome.OK {
				summary.Succeeded++
				summary.TotalParties += result.TotalParties
				summary.Clients += result.Clients
				summary.OpposingParties += result.OpposingParties
				summary.ThirdParties += result.ThirdParties
				summary.Representatives += result.Representatives
				summary.Links += result.Links
			} else {
				summary.Failed++
			}
		}(i, caseDesc)
	}

	wg.Wait()
	r.finalize(ctx, job, summary)

	return summary
}

// finalize mutates the job record exactly once to a terminal status and
// runs the advisory cross-store consistency check
func (r *Runner) finalize(ctx context.Context, job *database.CapturaJob, summary *Summary) {
	status := database.JobStatusCompleted
	var errText string
	if summary.TotalCases > 0 && summary.Failed == summary.TotalCases {
		status = database.JobStatusFailed
		errText = "all cases failed"
	}

	payload, err := json.Marshal(summary)
	if err != nil {
		r.logger.Error("Failed to encode job summary", "job_id", job.ID, "error", err)
		payload = []byte("{}")
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":        status,
		"resultado":     string(payload),
		"erro":          errText,
		"finalizado_em": now,
	}
	if err := r.db.Model(job).Updates(updates).Error; err != nil {
		r.logger.Error("Failed to finalize capture job", "job_id", job.ID, "error", err)
	}
	job.Status = status
	job.Resultado = string(payload)
	job.Erro = errText
	job.FinalizadoEm = &now

	r.logger.Info("Capture job finished",
		"job_id", job.ID,
		"status", status,
		"cases_ok", summary.Succeeded,
		"cases_failed", summary.Failed,
	)

	// Advisory only: the two log stores share no transaction, so drift is
	// detected and reported, never auto-repaired
	counts, err := r.rawLogs.CountByStatus(ctx, int64(job.ID))
	if err != nil {
		r.logger.Warn("Failed to count raw log entries", "job_id", job.ID, "error", err)
		return
	}

	var total int64
	for _, count := range counts {
		total += count
	}
	if total != int64(len(summary.MongoIDs)) {
		r.logger.Warn("Raw log count drifts from job summary",
			"job_id", job.ID,
			"raw_log_entries", total,
			"mongodb_ids", len(summary.MongoIDs),
		)
	}
}

func validateRequest(req Request) error {
	if strings.TrimSpace(req.Kind) == "" {
		return fmt.Errorf("capture kind is required")
	}
	if req.Attorney.ID <= 0 {
		return fmt.Errorf("attorney id is required")
	}
	if strings.TrimSpace(req.Attorney.Document) == "" {
		return fmt.Errorf("attorney document is required")
	}
	if len(req.CredentialIDs) == 0 {
		return fmt.Errorf("at least one credential id is required")
	}
	if strings.TrimSpace(req.CourtCode) == "" {
		return fmt.Errorf("court code is required")
	}
	if strings.TrimSpace(req.Instance) == "" {
		return fmt.Errorf("instance is required")
	}
	if len(req.Cases) == 0 {
		return fmt.Errorf("at least one case is required")
	}
	return nil
}

func firstCredential(req Request) int64 {
	if len(req.CredentialIDs) > 0 {
		return req.CredentialIDs[0]
	}
	return 0
}
