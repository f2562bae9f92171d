package rawlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/brlegal/captura-partes/pkg/logger"
)

// JobIDPreJob is the sentinel job id used exclusively for failures that
// occur before a job log record exists
const JobIDPreJob int64 = -1

// Status of one capture attempt
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// RequestInfo describes the case a capture attempt targeted
type RequestInfo struct {
	CaseID         int64  `bson:"caso_id" json:"caso_id"`
	ExternalCaseID int64  `bson:"id_processo_externo" json:"id_processo_externo"`
	CaseNumber     string `bson:"numero_processo" json:"numero_processo"`
}

// LogLine is one timestamped line attached to an entry
type LogLine struct {
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
	Level     string    `bson:"level" json:"level"`
	Message   string    `bson:"message" json:"message"`
}

// Entry is the immutable record of one capture attempt: its unprocessed
// payload and its outcome. Entries are never mutated after creation.
type Entry struct {
	AttemptID    string      `bson:"attempt_id" json:"attempt_id"`
	JobID        int64       `bson:"job_id" json:"job_id"`
	Kind         string      `bson:"tipo_captura" json:"tipo_captura"`
	AttorneyID   int64       `bson:"advogado_id" json:"advogado_id"`
	CredentialID int64       `bson:"credencial_id" json:"credencial_id"`
	CourtCode    string      `bson:"tribunal" json:"tribunal"`
	Instance     string      `bson:"instancia" json:"instancia"`
	Status       Status      `bson:"status" json:"status"`
	Request      RequestInfo `bson:"requisicao" json:"requisicao"`
	Payload      interface{} `bson:"payload" json:"payload"`
	Result       interface{} `bson:"resultado" json:"resultado"`
	Logs         []LogLine   `bson:"logs" json:"logs"`
	Error        string      `bson:"erro" json:"erro"`
	CreatedAt    time.Time   `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `bson:"updated_at" json:"updated_at"`
}

// Result reports the outcome of a Record call. Store failures come back
// here as Err, never as a panic or a returned error.
type Result struct {
	OK         bool   `json:"ok"`
	DocumentID string `json:"document_id,omitempty"`
	Err        string `json:"error,omitempty"`
}

// Store is the document-store surface the writer needs
type Store interface {
	Insert(ctx context.Context, entry *Entry) (string, error)
	FindByJobID(ctx context.Context, jobID int64) ([]Entry, error)
	CountByStatus(ctx context.Context, jobID int64) (map[Status]int64, error)
}

var (
	errBadJobID     = errors.New("job id must be a positive integer or the -1 sentinel")
	errMissingField = errors.New("required field is missing")
)

// Writer durably records capture attempts in the document store
type Writer struct {
	store  Store
	logger *logger.Logger
}

// NewWriter creates a writer over the given store
func NewWriter(store Store, log *logger.Logger) *Writer {
	return &Writer{store: store, logger: log}
}

// Record validates and writes one entry. Invalid entries are rejected
// before any store write. A success entry without a payload is a logged
// inconsistency but is still written so it can be audited later.
func (w *Writer) Record(ctx context.Context, entry *Entry) Result {
	if err := validateEntry(entry); err != nil {
		w.logger.Warn("Rejecting raw log entry", "job_id", entry.JobID, "error", err)
		return Result{OK: false, Err: err.Error()}
	}

	if entry.Status == StatusSuccess && entry.Payload == nil {
		w.logger.Warn("Raw log entry marked success without payload",
			"job_id", entry.JobID,
			"case", entry.Request.CaseNumber,
		)
	}

	if entry.AttemptID == "" {
		entry.AttemptID = uuid.NewString()
	}
	now := time.Now()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	documentID, err := w.store.Insert(ctx, entry)
	if err != nil {
		w.logger.Error("Failed to write raw log entry",
			"job_id", entry.JobID,
			"error", err,
		)
		return Result{OK: false, Err: err.Error()}
	}

	return Result{OK: true, DocumentID: documentID}
}

// FindByJobID returns every entry of a job, newest first
func (w *Writer) FindByJobID(ctx context.Context, jobID int64) ([]Entry, error) {
	return w.store.FindByJobID(ctx, jobID)
}

// CountByStatus returns the number of entries per status for a job. Used
// to detect drift against the relational job summary's document id list.
func (w *Writer) CountByStatus(ctx context.Context, jobID int64) (map[Status]int64, error) {
	return w.store.CountByStatus(ctx, jobID)
}

func validateEntry(entry *Entry) error {
	if entry.JobID <= 0 && entry.JobID != JobIDPreJob {
		return errBadJobID
	}
	if entry.Kind == "" {
		return fmt.Errorf("%w: tipo_captura", errMissingField)
	}
	if entry.AttorneyID == 0 {
		return fmt.Errorf("%w: advogado_id", errMissingField)
	}
	if entry.CredentialID == 0 {
		return fmt.Errorf("%w: credencial_id", errMissingField)
	}
	if entry.CourtCode == "" {
		return fmt.Errorf("%w: tribunal", errMissingField)
	}
	if entry.Instance == "" {
		return fmt.Errorf("%w: instancia", errMissingField)
	}
	return nil
}
