package rawlog

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/brlegal/captura-partes/pkg/logger"
)

type fakeStore struct {
	entries   []Entry
	insertErr error
	counts    map[Status]int64
}

func (s *fakeStore) Insert(ctx context.Context, entry *Entry) (string, error) {
	if s.insertErr != nil {
		return "", s.insertErr
	}
	s.entries = append(s.entries, *entry)
	return fmt.Sprintf("doc-%d", len(s.entries)), nil
}

func (s *fakeStore) FindByJobID(ctx context.Context, jobID int64) ([]Entry, error) {
	// Newest first: entries are appended in insert order
	var matched []Entry
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].JobID == jobID {
			matched = append(matched, s.entries[i])
		}
	}
	return matched, nil
}

func (s *fakeStore) CountByStatus(ctx context.Context, jobID int64) (map[Status]int64, error) {
	if s.counts != nil {
		return s.counts, nil
	}
	counts := make(map[Status]int64)
	for _, entry := range s.entries {
		if entry.JobID == jobID {
			counts[entry.Status]++
		}
	}
	return counts, nil
}

func validEntry() *Entry {
	return &Entry{
		JobID:        7,
		Kind:         "partes",
		AttorneyID:   10,
		CredentialID: 3,
		CourtCode:    "TJRJ",
		Instance:     "primeiro",
		Status:       StatusSuccess,
		Payload:      map[string]interface{}{"partes": []string{"a", "b"}},
		Request: RequestInfo{
			CaseID:         42,
			ExternalCaseID: 900042,
			CaseNumber:     "0001234-55.2024.8.19.0001",
		},
	}
}

func newTestWriter(store Store) *Writer {
	return NewWriter(store, logger.FromZap(zap.NewNop()))
}

func TestRecordWritesValidEntry(t *testing.T) {
	store := &fakeStore{}
	w := newTestWriter(store)

	result := w.Record(context.Background(), validEntry())
	require.True(t, result.OK)
	assert.Equal(t, "doc-1", result.DocumentID)
	require.Len(t, store.entries, 1)
	assert.NotEmpty(t, store.entries[0].AttemptID)
	assert.False(t, store.entries[0].CreatedAt.IsZero())
}

func TestRecordValidatesJobID(t *testing.T) {
	tests := []struct {
		name  string
		jobID int64
		ok    bool
	}{
		{name: "Positive id", jobID: 7, ok: true},
		{name: "Pre-job sentinel", jobID: JobIDPreJob, ok: true},
		{name: "Zero", jobID: 0, ok: false},
		{name: "Below sentinel", jobID: -2, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			w := newTestWriter(store)

			entry := validEntry()
			entry.JobID = tt.jobID

			result := w.Record(context.Background(), entry)
			assert.Equal(t, tt.ok, result.OK)
			if tt.ok {
				assert.Len(t, store.entries, 1)
			} else {
				// Rejected before any store write
				assert.Empty(t, store.entries)
				assert.NotEmpty(t, result.Err)
			}
		})
	}
}

func TestRecordValidatesRequiredFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Entry)
	}{
		{name: "Missing kind", mutate: func(e *Entry) { e.Kind = "" }},
		{name: "Missing attorney id", mutate: func(e *Entry) { e.AttorneyID = 0 }},
		{name: "Missing credential id", mutate: func(e *Entry) { e.CredentialID = 0 }},
		{name: "Missing court code", mutate: func(e *Entry) { e.CourtCode = "" }},
		{name: "Missing instance", mutate: func(e *Entry) { e.Instance = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeStore{}
			w := newTestWriter(store)

			entry := validEntry()
			tt.mutate(entry)

			result := w.Record(context.Background(), entry)
			assert.False(t, result.OK)
			assert.Empty(t, store.entries)
		})
	}
}

func TestRecordSuccessWithoutPayloadWarnsButWrites(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	store := &fakeStore{}
	w := NewWriter(store, logger.FromZap(zap.New(core)))

	entry := validEntry()
	entry.Payload = nil

	result := w.Record(context.Background(), entry)
	require.True(t, result.OK)
	assert.Len(t, store.entries, 1)
	assert.Equal(t, 1, logs.FilterMessage("Raw log entry marked success without payload").Len())
}

func TestRecordStoreFailureIsStructured(t *testing.T) {
	store := &fakeStore{insertErr: errors.New("connection reset")}
	w := newTestWriter(store)

	result := w.Record(context.Background(), validEntry())
	assert.False(t, result.OK)
	assert.Contains(t, result.Err, "connection reset")
	assert.Empty(t, result.DocumentID)
}

func TestFindByJobIDNewestFirst(t *testing.T) {
	store := &fakeStore{}
	w := newTestWriter(store)

	first := validEntry()
	first.Request.CaseNumber = "caso-1"
	second := validEntry()
	second.Request.CaseNumber = "caso-2"
	other := validEntry()
	other.JobID = 99

	require.True(t, w.Record(context.Background(), first).OK)
	require.True(t, w.Record(context.Background(), second).OK)
	require.True(t, w.Record(context.Background(), other).OK)

	entries, err := w.FindByJobID(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "caso-2", entries[0].Request.CaseNumber)
	assert.Equal(t, "caso-1", entries[1].Request.CaseNumber)
}

func TestCountByStatus(t *testing.T) {
	store := &fakeStore{}
	w := newTestWriter(store)

	success := validEntry()
	failed := validEntry()
	failed.Status = StatusError
	failed.Payload = nil
	failed.Error = "timeout"

	require.True(t, w.Record(context.Background(), success).OK)
	require.True(t, w.Record(context.Background(), failed).OK)

	counts, err := w.CountByStatus(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[StatusSuccess])
	assert.Equal(t, int64(1), counts[StatusError])
}
