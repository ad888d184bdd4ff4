package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/soportek/helpdesk-api/internal/audit"
	"github.com/soportek/helpdesk-api/internal/authz"
	"github.com/soportek/helpdesk-api/internal/domain"
	"github.com/soportek/helpdesk-api/internal/events"
	"github.com/soportek/helpdesk-api/internal/repository"
	"github.com/soportek/helpdesk-api/internal/storage"
	apperrors "github.com/soportek/helpdesk-api/pkg/util"
)

const ticketsTable = "tickets"

// TicketService implements the ticket lifecycle. Every mutation follows the
// same pipeline: load current state, evaluate permission, apply only the
// whitelisted changes, write the audit record, then publish the event. The
// audit write happens before the event so a failed trail entry aborts the
// operation without notifying anyone.
type TicketService struct {
	tickets     repository.TicketRepository
	comments    repository.CommentRepository
	attachments repository.AttachmentRepository
	recorder    *audit.Recorder
	dispatcher  events.Dispatcher
	store       storage.FileStore
	logger      *zap.Logger
}

// TicketDependencies encapsulates collaborator requirements for ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	CommentRepo    repository.CommentRepository
	AttachmentRepo repository.AttachmentRepository
	Recorder       *audit.Recorder
	Dispatcher     events.Dispatcher
	FileStore      storage.FileStore
	Logger         *zap.Logger
}

// NewTicketService builds the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:     deps.TicketRepo,
		comments:    deps.CommentRepo,
		attachments: deps.AttachmentRepo,
		recorder:    deps.Recorder,
		dispatcher:  deps.Dispatcher,
		store:       deps.FileStore,
		logger:      deps.Logger,
	}
}

// TicketDetail is a ticket with its conversation and files.
type TicketDetail struct {
	Ticket      *domain.Ticket
	Comments    []domain.Comment
	Attachments []domain.Attachment
}

// CreateTicketInput carries the caller-provided fields for a new ticket.
type CreateTicketInput struct {
	Title       string
	Description string
	Category    string
	Priority    domain.TicketPriority
}

// List returns all tickets, newest first.
func (s *TicketService) List(ctx context.Context) ([]domain.Ticket, error) {
	return s.tickets.List(ctx)
}

// Get loads a ticket with its comments and attachments.
func (s *TicketService) Get(ctx context.Context, actor *domain.User, id string) (*TicketDetail, error) {
	ticket, err := s.loadTicket(ctx, id)
	if err != nil {
		return nil, err
	}

	decision := authz.Evaluate(authz.Request{
		Action:       authz.ActionView,
		Role:         actor.Role,
		IsOwner:      ticket.IsOwner(actor.ID),
		IsAssigned:   ticket.IsAssignee(actor.ID),
		TicketStatus: ticket.Status,
	})
	if !decision.Allowed {
		return nil, apperrors.NewForbidden(decision.Message)
	}

	comments, err := s.comments.ListByTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	attachments, err := s.attachments.ListByTicket(ctx, id)
	if err != nil {
		return nil, err
	}
	return &TicketDetail{Ticket: ticket, Comments: comments, Attachments: attachments}, nil
}

// Create opens a new ticket owned by the actor. Missing category defaults to
// General; missing priority defaults to MEDIUM. Status always starts at OPEN.
func (s *TicketService) Create(ctx context.Context, actor *domain.User, input CreateTicketInput) (*domain.Ticket, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}
	if input.Category == "" {
		input.Category = "General"
	}
	if input.Priority == "" {
		input.Priority = domain.TicketPriorityMedium
	}
	if !domain.ValidTicketPriority(input.Priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": input.Priority})
	}

	ticket := &domain.Ticket{
		CreatedBy:   actor.ID,
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Status:      domain.TicketStatusOpen,
		Priority:    input.Priority,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	if err := s.recorder.Record(ctx, domain.AuditActionCreate, ticketsTable, ticket.ID, nil, ticket, actor.ID); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventTicketCreated, ticket.ID, actor.ID, events.TicketCreatedPayload{
		Title:    ticket.Title,
		Category: ticket.Category,
		Priority: ticket.Priority,
	})
	return ticket, nil
}

// Update applies a partial change set to a ticket. The permission decision
// narrows the change set to the fields the actor's role may touch; a change
// set left empty by that narrowing is rejected, not silently accepted.
func (s *TicketService) Update(ctx context.Context, actor *domain.User, id string, changes map[string]any) (*domain.Ticket, error) {
	ticket, err := s.loadTicket(ctx, id)
	if err != nil {
		return nil, err
	}

	requested := make([]string, 0, len(changes))
	for field := range changes {
		requested = append(requested, field)
	}

	decision := authz.Evaluate(authz.Request{
		Action:       authz.ActionUpdate,
		Role:         actor.Role,
		IsOwner:      ticket.IsOwner(actor.ID),
		IsAssigned:   ticket.IsAssignee(actor.ID),
		TicketStatus: ticket.Status,
		Fields:       requested,
	})
	if !decision.Allowed {
		return nil, apperrors.NewForbidden(decision.Message)
	}

	before := *ticket
	applied, err := applyTicketChanges(ticket, decision.AllowedFields, changes)
	if err != nil {
		return nil, err
	}

	if err := s.tickets.Update(ctx, ticket); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, err
	}

	if err := s.recorder.Record(ctx, domain.AuditActionUpdate, ticketsTable, ticket.ID, &before, ticket, actor.ID); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventTicketUpdated, ticket.ID, actor.ID, events.TicketUpdatedPayload{
		ChangedFields: applied,
		Status:        ticket.Status,
	})
	return ticket, nil
}

// Delete removes a ticket and everything hanging off it. Comments, attachment
// rows and the audit DELETE record go first; stored blobs are removed
// best-effort after the row is gone.
func (s *TicketService) Delete(ctx context.Context, actor *domain.User, id string) error {
	ticket, err := s.loadTicket(ctx, id)
	if err != nil {
		return err
	}

	decision := authz.Evaluate(authz.Request{
		Action:       authz.ActionDelete,
		Role:         actor.Role,
		IsOwner:      ticket.IsOwner(actor.ID),
		IsAssigned:   ticket.IsAssignee(actor.ID),
		TicketStatus: ticket.Status,
	})
	if !decision.Allowed {
		return apperrors.NewForbidden(decision.Message)
	}

	attachments, err := s.attachments.ListByTicket(ctx, id)
	if err != nil {
		return err
	}

	if err := s.comments.DeleteByTicket(ctx, id); err != nil {
		return err
	}
	if err := s.attachments.DeleteByTicket(ctx, id); err != nil {
		return err
	}

	if err := s.recorder.Record(ctx, domain.AuditActionDelete, ticketsTable, ticket.ID, ticket, nil, actor.ID); err != nil {
		return err
	}

	if err := s.tickets.Delete(ctx, id); err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFound("ticket", nil)
		}
		return err
	}

	for _, attachment := range attachments {
		if err := s.store.Delete(ctx, attachment.StoragePath); err != nil {
			s.logger.Warn("remove attachment blob",
				zap.String("ticket_id", id),
				zap.String("path", attachment.StoragePath),
				zap.Error(err))
		}
	}

	s.publish(ctx, events.EventTicketDeleted, ticket.ID, actor.ID, events.TicketDeletedPayload{
		Title: ticket.Title,
	})
	return nil
}

// AddComment appends a comment to the ticket's conversation.
func (s *TicketService) AddComment(ctx context.Context, actor *domain.User, ticketID, content string) (*domain.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.NewValidationError("comment content is required", nil)
	}

	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	decision := authz.Evaluate(authz.Request{
		Action:       authz.ActionComment,
		Role:         actor.Role,
		IsOwner:      ticket.IsOwner(actor.ID),
		IsAssigned:   ticket.IsAssignee(actor.ID),
		TicketStatus: ticket.Status,
	})
	if !decision.Allowed {
		return nil, apperrors.NewForbidden(decision.Message)
	}

	comment := &domain.Comment{
		TicketID: ticketID,
		AuthorID: actor.ID,
		Content:  content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	if err := s.recorder.Record(ctx, domain.AuditActionCreate, "comments", comment.ID, nil, comment, actor.ID); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventCommentAdded, ticketID, actor.ID, events.CommentAddedPayload{
		CommentID: comment.ID,
		Preview:   previewOf(content),
	})
	return comment, nil
}

// AttachmentUpload describes an incoming file.
type AttachmentUpload struct {
	Reader       io.Reader
	OriginalName string
	MimeType     string
	SizeBytes    int64
}

// AddAttachment stores the blob and records its metadata against the ticket.
func (s *TicketService) AddAttachment(ctx context.Context, actor *domain.User, ticketID string, upload AttachmentUpload) (*domain.Attachment, error) {
	ticket, err := s.loadTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	decision := authz.Evaluate(authz.Request{
		Action:       authz.ActionAttach,
		Role:         actor.Role,
		IsOwner:      ticket.IsOwner(actor.ID),
		IsAssigned:   ticket.IsAssignee(actor.ID),
		TicketStatus: ticket.Status,
	})
	if !decision.Allowed {
		return nil, apperrors.NewForbidden(decision.Message)
	}

	path, err := s.store.Save(ctx, upload.Reader, upload.OriginalName)
	if err != nil {
		return nil, fmt.Errorf("store attachment: %w", err)
	}

	attachment := &domain.Attachment{
		TicketID:     ticketID,
		UploadedBy:   actor.ID,
		FileName:     pathBase(path),
		OriginalName: upload.OriginalName,
		MimeType:     upload.MimeType,
		SizeBytes:    upload.SizeBytes,
		StoragePath:  path,
	}
	if err := s.attachments.Create(ctx, attachment); err != nil {
		if removeErr := s.store.Delete(ctx, path); removeErr != nil {
			s.logger.Warn("remove orphaned attachment blob", zap.String("path", path), zap.Error(removeErr))
		}
		return nil, err
	}
	if err := s.recorder.Record(ctx, domain.AuditActionCreate, "attachments", attachment.ID, nil, attachment, actor.ID); err != nil {
		return nil, err
	}

	s.publish(ctx, events.EventAttachmentAdded, ticketID, actor.ID, events.AttachmentAddedPayload{
		AttachmentID: attachment.ID,
		FileName:     attachment.OriginalName,
	})
	return attachment, nil
}

// Search finds tickets whose title, description or category matches the term.
// Terms shorter than two characters return nothing rather than everything.
func (s *TicketService) Search(ctx context.Context, term string) ([]domain.Ticket, error) {
	term = strings.TrimSpace(term)
	if len(term) < 2 {
		return []domain.Ticket{}, nil
	}
	return s.tickets.Search(ctx, term, 50)
}

// Stats summarizes ticket counts per status, including zeroes.
func (s *TicketService) Stats(ctx context.Context) (map[domain.TicketStatus]int64, error) {
	counts, err := s.tickets.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	stats := map[domain.TicketStatus]int64{
		domain.TicketStatusOpen:       0,
		domain.TicketStatusInProgress: 0,
		domain.TicketStatusClosed:     0,
	}
	for _, sc := range counts {
		stats[sc.Status] = sc.Count
	}
	return stats, nil
}

func (s *TicketService) loadTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound("ticket", nil)
		}
		return nil, err
	}
	return ticket, nil
}

func (s *TicketService) publish(ctx context.Context, eventType events.EventType, ticketID, actorID string, payload any) {
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		TicketID:  ticketID,
		ActorID:   actorID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
}

// applyTicketChanges mutates the ticket in place for each allowed field and
// returns the list of fields actually applied. Unknown values fail validation
// before anything is persisted.
func applyTicketChanges(ticket *domain.Ticket, allowed []string, changes map[string]any) ([]string, error) {
	applied := make([]string, 0, len(allowed))
	for _, field := range allowed {
		value, ok := changes[field]
		if !ok {
			continue
		}
		switch field {
		case authz.FieldTitle:
			title, err := stringValue(field, value)
			if err != nil {
				return nil, err
			}
			if strings.TrimSpace(title) == "" {
				return nil, apperrors.NewValidationError("title cannot be empty", nil)
			}
			ticket.Title = title
		case authz.FieldDescription:
			desc, err := stringValue(field, value)
			if err != nil {
				return nil, err
			}
			ticket.Description = desc
		case authz.FieldCategory:
			category, err := stringValue(field, value)
			if err != nil {
				return nil, err
			}
			ticket.Category = category
		case authz.FieldStatus:
			raw, err := stringValue(field, value)
			if err != nil {
				return nil, err
			}
			status := domain.TicketStatus(raw)
			if !domain.ValidTicketStatus(status) {
				return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": raw})
			}
			ticket.Status = status
		case authz.FieldPriority:
			raw, err := stringValue(field, value)
			if err != nil {
				return nil, err
			}
			priority := domain.TicketPriority(raw)
			if !domain.ValidTicketPriority(priority) {
				return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": raw})
			}
			ticket.Priority = priority
		case authz.FieldAssignedTo:
			// Empty string and null both clear the assignment.
			if value == nil {
				ticket.AssignedTo = nil
				break
			}
			raw, err := stringValue(field, value)
			if err != nil {
				return nil, err
			}
			if raw == "" {
				ticket.AssignedTo = nil
			} else {
				ticket.AssignedTo = &raw
			}
		default:
			continue
		}
		applied = append(applied, field)
	}
	return applied, nil
}

func stringValue(field string, value any) (string, error) {
	s, ok := value.(string)
	if !ok {
		return "", apperrors.NewValidationError("invalid value for "+field, nil)
	}
	return s, nil
}

func previewOf(content string) string {
	const max = 80
	if len(content) <= max {
		return content
	}
	return content[:max]
}

func pathBase(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
