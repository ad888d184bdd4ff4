package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/soportek/helpdesk-api/internal/audit"
	"github.com/soportek/helpdesk-api/internal/domain"
	"github.com/soportek/helpdesk-api/internal/events"
	"github.com/soportek/helpdesk-api/internal/repository"
	apperrors "github.com/soportek/helpdesk-api/pkg/util"
)

type fakeTicketRepo struct {
	tickets map[string]*domain.Ticket
	nextID  int
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: map[string]*domain.Ticket{}}
}

func (f *fakeTicketRepo) Create(_ context.Context, ticket *domain.Ticket) error {
	f.nextID++
	ticket.ID = "t" + strconv.Itoa(f.nextID)
	ticket.CreatedAt = time.Now()
	ticket.UpdatedAt = ticket.CreatedAt
	cp := *ticket
	f.tickets[ticket.ID] = &cp
	return nil
}

func (f *fakeTicketRepo) Update(_ context.Context, ticket *domain.Ticket) error {
	if _, ok := f.tickets[ticket.ID]; !ok {
		return pgx.ErrNoRows
	}
	cp := *ticket
	cp.UpdatedAt = time.Now()
	f.tickets[ticket.ID] = &cp
	return nil
}

func (f *fakeTicketRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.tickets, id)
	return nil
}

func (f *fakeTicketRepo) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	ticket, ok := f.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *ticket
	return &cp, nil
}

func (f *fakeTicketRepo) List(_ context.Context) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, ticket := range f.tickets {
		out = append(out, *ticket)
	}
	return out, nil
}

func (f *fakeTicketRepo) Search(_ context.Context, term string, _ int) ([]domain.Ticket, error) {
	var out []domain.Ticket
	for _, ticket := range f.tickets {
		if ticket.Title == term {
			out = append(out, *ticket)
		}
	}
	return out, nil
}

func (f *fakeTicketRepo) CountByStatus(_ context.Context) ([]repository.StatusCount, error) {
	counts := map[domain.TicketStatus]int64{}
	for _, ticket := range f.tickets {
		counts[ticket.Status]++
	}
	var out []repository.StatusCount
	for status, count := range counts {
		out = append(out, repository.StatusCount{Status: status, Count: count})
	}
	return out, nil
}

func (f *fakeTicketRepo) ListForReport(_ context.Context) ([]repository.ReportRow, error) {
	var out []repository.ReportRow
	for _, ticket := range f.tickets {
		out = append(out, repository.ReportRow{Ticket: *ticket, CreatorName: "creator"})
	}
	return out, nil
}

type fakeCommentRepo struct {
	comments map[string][]domain.Comment
	nextID   int
}

func newFakeCommentRepo() *fakeCommentRepo {
	return &fakeCommentRepo{comments: map[string][]domain.Comment{}}
}

func (f *fakeCommentRepo) Create(_ context.Context, comment *domain.Comment) error {
	f.nextID++
	comment.ID = "c" + strconv.Itoa(f.nextID)
	comment.CreatedAt = time.Now()
	f.comments[comment.TicketID] = append(f.comments[comment.TicketID], *comment)
	return nil
}

func (f *fakeCommentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Comment, error) {
	return f.comments[ticketID], nil
}

func (f *fakeCommentRepo) DeleteByTicket(_ context.Context, ticketID string) error {
	delete(f.comments, ticketID)
	return nil
}

type fakeAttachmentRepo struct {
	attachments map[string][]domain.Attachment
	nextID      int
}

func newFakeAttachmentRepo() *fakeAttachmentRepo {
	return &fakeAttachmentRepo{attachments: map[string][]domain.Attachment{}}
}

func (f *fakeAttachmentRepo) Create(_ context.Context, attachment *domain.Attachment) error {
	f.nextID++
	attachment.ID = "a" + strconv.Itoa(f.nextID)
	attachment.CreatedAt = time.Now()
	f.attachments[attachment.TicketID] = append(f.attachments[attachment.TicketID], *attachment)
	return nil
}

func (f *fakeAttachmentRepo) ListByTicket(_ context.Context, ticketID string) ([]domain.Attachment, error) {
	return f.attachments[ticketID], nil
}

func (f *fakeAttachmentRepo) DeleteByTicket(_ context.Context, ticketID string) error {
	delete(f.attachments, ticketID)
	return nil
}

type recordingAuditRepo struct {
	records []*domain.AuditRecord
	err     error
}

func (f *recordingAuditRepo) Insert(_ context.Context, record *domain.AuditRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, record)
	return nil
}

type memoryFileStore struct {
	saved   map[string][]byte
	deleted []string
	nextID  int
}

func newMemoryFileStore() *memoryFileStore {
	return &memoryFileStore{saved: map[string][]byte{}}
}

func (f *memoryFileStore) Save(_ context.Context, r io.Reader, fileName string) (string, error) {
	f.nextID++
	path := "uploads/" + strconv.Itoa(f.nextID) + "_" + fileName
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.saved[path] = data
	return path, nil
}

func (f *memoryFileStore) Delete(_ context.Context, path string) error {
	if _, ok := f.saved[path]; !ok {
		return errors.New("not found")
	}
	delete(f.saved, path)
	f.deleted = append(f.deleted, path)
	return nil
}

type ticketFixture struct {
	svc         *TicketService
	tickets     *fakeTicketRepo
	comments    *fakeCommentRepo
	attachments *fakeAttachmentRepo
	auditRepo   *recordingAuditRepo
	store       *memoryFileStore
	dispatcher  events.Dispatcher
	published   *[]events.Event
}

func newTicketFixture(t *testing.T) *ticketFixture {
	t.Helper()
	tickets := newFakeTicketRepo()
	comments := newFakeCommentRepo()
	attachments := newFakeAttachmentRepo()
	auditRepo := &recordingAuditRepo{}
	store := newMemoryFileStore()
	dispatcher := events.NewInMemoryDispatcher()

	published := &[]events.Event{}
	capture := func(_ context.Context, event events.Event) error {
		*published = append(*published, event)
		return nil
	}
	for _, eventType := range []events.EventType{
		events.EventTicketCreated, events.EventTicketUpdated, events.EventTicketDeleted,
		events.EventCommentAdded, events.EventAttachmentAdded,
	} {
		dispatcher.Subscribe(eventType, capture)
	}

	svc := NewTicketService(TicketDependencies{
		TicketRepo:     tickets,
		CommentRepo:    comments,
		AttachmentRepo: attachments,
		Recorder:       audit.NewRecorder(auditRepo),
		Dispatcher:     dispatcher,
		FileStore:      store,
		Logger:         zap.NewNop(),
	})
	return &ticketFixture{
		svc: svc, tickets: tickets, comments: comments, attachments: attachments,
		auditRepo: auditRepo, store: store, dispatcher: dispatcher, published: published,
	}
}

func actor(id string, role domain.Role) *domain.User {
	return &domain.User{ID: id, Role: role, Active: true}
}

func TestCreateTicketDefaultsAndAudit(t *testing.T) {
	fx := newTicketFixture(t)
	employee := actor("emp1", domain.RoleEmployee)

	ticket, err := fx.svc.Create(context.Background(), employee, CreateTicketInput{
		Title: "no network on floor 3",
	})
	require.NoError(t, err)
	assert.Equal(t, "General", ticket.Category)
	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.Equal(t, domain.TicketPriorityMedium, ticket.Priority)
	assert.Equal(t, "emp1", ticket.CreatedBy)

	require.Len(t, fx.auditRepo.records, 1)
	record := fx.auditRepo.records[0]
	assert.Equal(t, domain.AuditActionCreate, record.Action)
	assert.Equal(t, "tickets", record.TableName)
	assert.Nil(t, record.OldValues)
	assert.NotNil(t, record.NewValues)

	require.Len(t, *fx.published, 1)
	assert.Equal(t, events.EventTicketCreated, (*fx.published)[0].Type)
}

func TestCreateTicketRequiresTitle(t *testing.T) {
	fx := newTicketFixture(t)
	_, err := fx.svc.Create(context.Background(), actor("emp1", domain.RoleEmployee), CreateTicketInput{Title: "   "})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
	assert.Empty(t, fx.auditRepo.records)
}

func TestUpdateTechnicianWhitelistNarrowsChanges(t *testing.T) {
	fx := newTicketFixture(t)
	owner := actor("emp1", domain.RoleEmployee)
	tech := actor("tech1", domain.RoleTechnician)

	ticket, err := fx.svc.Create(context.Background(), owner, CreateTicketInput{Title: "vpn drops"})
	require.NoError(t, err)

	updated, err := fx.svc.Update(context.Background(), tech, ticket.ID, map[string]any{
		"title":  "hacked title",
		"status": "IN_PROGRESS",
	})
	require.NoError(t, err)
	assert.Equal(t, "vpn drops", updated.Title, "technician may not touch title")
	assert.Equal(t, domain.TicketStatusInProgress, updated.Status)

	require.Len(t, fx.auditRepo.records, 2)
	record := fx.auditRepo.records[1]
	assert.Equal(t, domain.AuditActionUpdate, record.Action)
	assert.Equal(t, "OPEN", record.OldValues["Status"])
	assert.Equal(t, "IN_PROGRESS", record.NewValues["Status"])

	last := (*fx.published)[len(*fx.published)-1]
	assert.Equal(t, events.EventTicketUpdated, last.Type)
	payload, ok := last.Payload.(events.TicketUpdatedPayload)
	require.True(t, ok)
	assert.Equal(t, []string{"status"}, payload.ChangedFields)
}

func TestUpdateTechnicianOnlyDisallowedFieldsForbidden(t *testing.T) {
	fx := newTicketFixture(t)
	owner := actor("emp1", domain.RoleEmployee)
	tech := actor("tech1", domain.RoleTechnician)

	ticket, err := fx.svc.Create(context.Background(), owner, CreateTicketInput{Title: "vpn drops"})
	require.NoError(t, err)
	auditCount := len(fx.auditRepo.records)
	eventCount := len(*fx.published)

	_, err = fx.svc.Update(context.Background(), tech, ticket.ID, map[string]any{
		"title":       "new title",
		"description": "new desc",
	})
	require.Error(t, err)
	assert.Equal(t, "FORBIDDEN", apperrors.ToDomainError(err).Code)

	stored, _ := fx.tickets.GetByID(context.Background(), ticket.ID)
	assert.Equal(t, "vpn drops", stored.Title)
	assert.Len(t, fx.auditRepo.records, auditCount, "denied update must not be audited")
	assert.Len(t, *fx.published, eventCount, "denied update must not publish")
}

func TestUpdateEmployeeOtherOwnersTicketForbidden(t *testing.T) {
	fx := newTicketFixture(t)
	owner := actor("emp1", domain.RoleEmployee)
	other := actor("emp2", domain.RoleEmployee)

	ticket, err := fx.svc.Create(context.Background(), owner, CreateTicketInput{Title: "vpn drops"})
	require.NoError(t, err)

	_, err = fx.svc.Update(context.Background(), other, ticket.ID, map[string]any{"title": "mine now"})
	require.Error(t, err)
	assert.Equal(t, "you can only edit your own tickets", apperrors.ToDomainError(err).Message)
}

func TestUpdateClearsAssigneeOnEmptyString(t *testing.T) {
	fx := newTicketFixture(t)
	admin := actor("adm1", domain.RoleAdministrator)

	ticket, err := fx.svc.Create(context.Background(), admin, CreateTicketInput{Title: "assign me"})
	require.NoError(t, err)

	updated, err := fx.svc.Update(context.Background(), admin, ticket.ID, map[string]any{"assigned_to": "tech1"})
	require.NoError(t, err)
	require.NotNil(t, updated.AssignedTo)
	assert.Equal(t, "tech1", *updated.AssignedTo)

	updated, err = fx.svc.Update(context.Background(), admin, ticket.ID, map[string]any{"assigned_to": ""})
	require.NoError(t, err)
	assert.Nil(t, updated.AssignedTo)
}

func TestUpdateRejectsUnknownStatus(t *testing.T) {
	fx := newTicketFixture(t)
	admin := actor("adm1", domain.RoleAdministrator)

	ticket, err := fx.svc.Create(context.Background(), admin, CreateTicketInput{Title: "x"})
	require.NoError(t, err)

	_, err = fx.svc.Update(context.Background(), admin, ticket.ID, map[string]any{"status": "ARCHIVED"})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_FAILED", apperrors.ToDomainError(err).Code)
}

func TestUpdateAuditFailureAbortsOperation(t *testing.T) {
	fx := newTicketFixture(t)
	admin := actor("adm1", domain.RoleAdministrator)

	ticket, err := fx.svc.Create(context.Background(), admin, CreateTicketInput{Title: "x"})
	require.NoError(t, err)
	eventCount := len(*fx.published)

	fx.auditRepo.err = errors.New("disk full")
	_, err = fx.svc.Update(context.Background(), admin, ticket.ID, map[string]any{"status": "CLOSED"})
	require.Error(t, err)
	assert.Len(t, *fx.published, eventCount, "failed audit must suppress the event")
}

func TestDeleteEmployeeLifecycleGuard(t *testing.T) {
	fx := newTicketFixture(t)
	owner := actor("emp1", domain.RoleEmployee)

	ticket, err := fx.svc.Create(context.Background(), owner, CreateTicketInput{Title: "old laptop"})
	require.NoError(t, err)

	err = fx.svc.Delete(context.Background(), owner, ticket.ID)
	require.Error(t, err, "open ticket cannot be deleted by employee")
	assert.Equal(t, "you can only delete tickets that are closed", apperrors.ToDomainError(err).Message)

	admin := actor("adm1", domain.RoleAdministrator)
	_, err = fx.svc.Update(context.Background(), admin, ticket.ID, map[string]any{"status": "CLOSED"})
	require.NoError(t, err)

	require.NoError(t, fx.svc.Delete(context.Background(), owner, ticket.ID))
	_, err = fx.tickets.GetByID(context.Background(), ticket.ID)
	assert.Equal(t, pgx.ErrNoRows, err)
}

func TestDeleteCascadesAndSnapshots(t *testing.T) {
	fx := newTicketFixture(t)
	admin := actor("adm1", domain.RoleAdministrator)

	ticket, err := fx.svc.Create(context.Background(), admin, CreateTicketInput{Title: "broken screen"})
	require.NoError(t, err)

	_, err = fx.svc.AddComment(context.Background(), admin, ticket.ID, "ordered replacement")
	require.NoError(t, err)
	_, err = fx.svc.AddAttachment(context.Background(), admin, ticket.ID, AttachmentUpload{
		Reader:       bytes.NewReader([]byte("photo-bytes")),
		OriginalName: "screen.jpg",
		MimeType:     "image/jpeg",
		SizeBytes:    11,
	})
	require.NoError(t, err)
	require.Len(t, fx.store.saved, 1)

	require.NoError(t, fx.svc.Delete(context.Background(), admin, ticket.ID))

	assert.Empty(t, fx.comments.comments[ticket.ID])
	assert.Empty(t, fx.attachments.attachments[ticket.ID])
	assert.Empty(t, fx.store.saved, "stored blob removed with the ticket")

	last := fx.auditRepo.records[len(fx.auditRepo.records)-1]
	assert.Equal(t, domain.AuditActionDelete, last.Action)
	assert.Equal(t, "broken screen", last.OldValues["Title"])
	assert.Nil(t, last.NewValues)
}

func TestAddCommentPermission(t *testing.T) {
	fx := newTicketFixture(t)
	owner := actor("emp1", domain.RoleEmployee)
	stranger := actor("emp2", domain.RoleEmployee)

	ticket, err := fx.svc.Create(context.Background(), owner, CreateTicketInput{Title: "printer"})
	require.NoError(t, err)

	_, err = fx.svc.AddComment(context.Background(), stranger, ticket.ID, "me too")
	require.Error(t, err)
	assert.Equal(t, "you can only comment on your own tickets", apperrors.ToDomainError(err).Message)

	comment, err := fx.svc.AddComment(context.Background(), owner, ticket.ID, "still broken")
	require.NoError(t, err)
	assert.Equal(t, "emp1", comment.AuthorID)

	last := (*fx.published)[len(*fx.published)-1]
	assert.Equal(t, events.EventCommentAdded, last.Type)
	assert.Equal(t, "tickets:"+ticket.ID+":updates", last.Topic())
}

func TestSearchRequiresMinimumTermLength(t *testing.T) {
	fx := newTicketFixture(t)
	results, err := fx.svc.Search(context.Background(), " a ")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStatsIncludesZeroes(t *testing.T) {
	fx := newTicketFixture(t)
	admin := actor("adm1", domain.RoleAdministrator)
	_, err := fx.svc.Create(context.Background(), admin, CreateTicketInput{Title: "one"})
	require.NoError(t, err)

	stats, err := fx.svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats[domain.TicketStatusOpen])
	assert.Equal(t, int64(0), stats[domain.TicketStatusInProgress])
	assert.Equal(t, int64(0), stats[domain.TicketStatusClosed])
}

func TestGetNotFound(t *testing.T) {
	fx := newTicketFixture(t)
	_, err := fx.svc.Get(context.Background(), actor("emp1", domain.RoleEmployee), "missing")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", apperrors.ToDomainError(err).Code)
}
