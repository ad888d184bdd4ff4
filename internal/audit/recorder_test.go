package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soportek/helpdesk-api/internal/domain"
)

type fakeAuditRepo struct {
	records []*domain.AuditRecord
	err     error
}

func (f *fakeAuditRepo) Insert(_ context.Context, record *domain.AuditRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, record)
	return nil
}

type sample struct {
	Title  string `json:"title"`
	Status string `json:"status"`
}

func TestRecordCreateHasNilOldValues(t *testing.T) {
	repo := &fakeAuditRepo{}
	recorder := NewRecorder(repo)

	err := recorder.Record(context.Background(), domain.AuditActionCreate, "tickets", "t1",
		nil, sample{Title: "printer broken", Status: "OPEN"}, "actor-1")
	require.NoError(t, err)
	require.Len(t, repo.records, 1)

	record := repo.records[0]
	assert.Equal(t, domain.AuditActionCreate, record.Action)
	assert.Nil(t, record.OldValues)
	assert.Equal(t, "printer broken", record.NewValues["title"])
	assert.Equal(t, "actor-1", record.ActorID)
}

func TestRecordUpdateCarriesBothSnapshots(t *testing.T) {
	repo := &fakeAuditRepo{}
	recorder := NewRecorder(repo)

	err := recorder.Record(context.Background(), domain.AuditActionUpdate, "tickets", "t1",
		sample{Title: "printer broken", Status: "OPEN"},
		sample{Title: "printer broken", Status: "CLOSED"},
		"actor-1")
	require.NoError(t, err)
	require.Len(t, repo.records, 1)

	record := repo.records[0]
	assert.Equal(t, "OPEN", record.OldValues["status"])
	assert.Equal(t, "CLOSED", record.NewValues["status"])
}

func TestRecordDeleteHasNilNewValues(t *testing.T) {
	repo := &fakeAuditRepo{}
	recorder := NewRecorder(repo)

	err := recorder.Record(context.Background(), domain.AuditActionDelete, "tickets", "t1",
		sample{Title: "printer broken", Status: "CLOSED"}, nil, "actor-1")
	require.NoError(t, err)

	record := repo.records[0]
	assert.Equal(t, "printer broken", record.OldValues["title"])
	assert.Nil(t, record.NewValues)
}

func TestRecordPropagatesRepositoryFailure(t *testing.T) {
	repo := &fakeAuditRepo{err: errors.New("connection reset")}
	recorder := NewRecorder(repo)

	err := recorder.Record(context.Background(), domain.AuditActionCreate, "tickets", "t1",
		nil, sample{Title: "x"}, "actor-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record audit entry")
}

func TestSnapshotRoundTrip(t *testing.T) {
	snap, err := Snapshot(sample{Title: "a", Status: "OPEN"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"title": "a", "status": "OPEN"}, snap)
}
