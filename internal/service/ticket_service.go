package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/events"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// TicketService enforces ticket business rules on top of the store. The
// HTTP layer calls only this type, never the repository directly.
type TicketService struct {
	tickets    repository.TicketRepository
	dispatcher events.Dispatcher
}

// TicketDependencies bundles requirements for the ticket service.
type TicketDependencies struct {
	TicketRepo repository.TicketRepository
	Dispatcher events.Dispatcher
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		tickets:    deps.TicketRepo,
		dispatcher: deps.Dispatcher,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title       string
	Description string
	Category    domain.TicketCategory
	Priority    domain.TicketPriority
}

// TicketListFilter describes listing filters as received from the query
// string. "all" or an empty value leaves the field unconstrained.
type TicketListFilter struct {
	Status   string
	Priority string
	Category string
	Search   string
}

// TicketUpdateInput carries a partial update. Nil means the field was
// absent from the request and must stay untouched.
type TicketUpdateInput struct {
	Title       *string
	Description *string
	Category    *string
	Priority    *string
	Status      *string
	AssignedTo  *string
}

// CreateTicket validates input and persists a new ticket. The creator is
// always the authenticated actor; the status always starts open and the
// code comes from the store's atomic sequence.
func (s *TicketService) CreateTicket(ctx context.Context, actor domain.UserRef, input TicketCreateInput) (*domain.Ticket, error) {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)

	if title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}
	if description == "" {
		return nil, apperrors.NewValidationError("description is required", nil)
	}
	if input.Category == "" {
		return nil, apperrors.NewValidationError("category is required", nil)
	}
	if !input.Category.Valid() {
		return nil, apperrors.NewValidationError("invalid category", map[string]any{"category": input.Category})
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": priority})
	}

	number, err := s.tickets.NextTicketNumber(ctx)
	if err != nil {
		return nil, err
	}

	ticket := &domain.Ticket{
		Code:        domain.FormatTicketCode(number),
		Title:       title,
		Description: description,
		Category:    input.Category,
		Priority:    priority,
		Status:      domain.TicketStatusOpen,
		CreatedBy:   actor,
	}

	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketCreatedPayload{
			Code:     ticket.Code,
			Category: ticket.Category,
			Priority: ticket.Priority,
			Title:    ticket.Title,
		},
	})
	return ticket, nil
}

// ListTickets returns tickets matching the filter, newest first.
func (s *TicketService) ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	repoFilter := repository.TicketFilter{
		Status:   domain.TicketStatus(normalizeFilterValue(filter.Status)),
		Priority: domain.TicketPriority(normalizeFilterValue(filter.Priority)),
		Category: domain.TicketCategory(normalizeFilterValue(filter.Category)),
		Search:   filter.Search,
	}
	return s.tickets.ListWithFilter(ctx, repoFilter)
}

// GetTicket fetches one ticket with its comment thread populated.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, mapTicketErr(err)
	}
	comments, err := s.tickets.ListComments(ctx, ticket.ID)
	if err != nil {
		return nil, err
	}
	ticket.Comments = comments
	return ticket, nil
}

// UpdateTicket applies a partial update. Only title, description,
// category, priority, status and assignedTo are mutable; the code,
// creator and timestamps cannot be expressed in the input and any
// attempt to send them is ignored upstream rather than rejected.
func (s *TicketService) UpdateTicket(ctx context.Context, actorID, id string, input TicketUpdateInput) (*domain.Ticket, error) {
	patch, err := buildPatch(input)
	if err != nil {
		return nil, err
	}

	before, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return nil, mapTicketErr(err)
	}

	if err := s.tickets.Update(ctx, id, patch); err != nil {
		return nil, mapTicketErr(err)
	}

	ticket, err := s.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Status != nil && before.Status != ticket.Status {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketStatusChanged,
			TicketID: ticket.ID,
			ActorID:  actorID,
			Payload: events.TicketStatusChangedPayload{
				OldStatus: before.Status,
				NewStatus: ticket.Status,
			},
		})
	}
	if patch.AssignedToID != nil {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketAssigned,
			TicketID: ticket.ID,
			ActorID:  actorID,
			Payload:  events.TicketAssignedPayload{AssigneeID: *patch.AssignedToID},
		})
	}
	return ticket, nil
}

// DeleteTicket removes a ticket and its comments.
func (s *TicketService) DeleteTicket(ctx context.Context, actorID, id string) error {
	ticket, err := s.tickets.GetByID(ctx, id)
	if err != nil {
		return mapTicketErr(err)
	}
	if err := s.tickets.Delete(ctx, id); err != nil {
		return mapTicketErr(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticket.ID,
		ActorID:  actorID,
		Payload:  events.TicketDeletedPayload{Code: ticket.Code},
	})
	return nil
}

// AddComment appends a message to the ticket's thread and returns the
// ticket with the full thread.
func (s *TicketService) AddComment(ctx context.Context, actor domain.UserRef, id, message string) (*domain.Ticket, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.NewValidationError("message is required", nil)
	}

	comment := &domain.Comment{
		User:    actor,
		Message: message,
	}
	if err := s.tickets.AddComment(ctx, id, comment); err != nil {
		return nil, mapTicketErr(err)
	}

	ticket, err := s.GetTicket(ctx, id)
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCommentAdded,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketCommentAddedPayload{
			CommentID:      comment.ID,
			AuthorID:       actor.ID,
			MessagePreview: stringPreview(message, 120),
		},
	})
	return ticket, nil
}

func buildPatch(input TicketUpdateInput) (repository.TicketPatch, error) {
	var patch repository.TicketPatch

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return patch, apperrors.NewValidationError("title cannot be blank", nil)
		}
		patch.Title = &title
	}
	if input.Description != nil {
		description := strings.TrimSpace(*input.Description)
		if description == "" {
			return patch, apperrors.NewValidationError("description cannot be blank", nil)
		}
		patch.Description = &description
	}
	if input.Category != nil {
		category := domain.TicketCategory(*input.Category)
		if !category.Valid() {
			return patch, apperrors.NewValidationError("invalid category", map[string]any{"category": category})
		}
		patch.Category = &category
	}
	if input.Priority != nil {
		priority := domain.TicketPriority(*input.Priority)
		if !priority.Valid() {
			return patch, apperrors.NewValidationError("invalid priority", map[string]any{"priority": priority})
		}
		patch.Priority = &priority
	}
	if input.Status != nil {
		status := domain.TicketStatus(*input.Status)
		if !status.Valid() {
			return patch, apperrors.NewValidationError("invalid status", map[string]any{"status": status})
		}
		patch.Status = &status
	}
	if input.AssignedTo != nil {
		assignee := strings.TrimSpace(*input.AssignedTo)
		if assignee == "" {
			return patch, apperrors.NewValidationError("assignedTo cannot be blank", nil)
		}
		patch.AssignedToID = &assignee
	}

	return patch, nil
}

// normalizeFilterValue maps the UI's "all" sentinel to "no constraint".
func normalizeFilterValue(val string) string {
	val = strings.TrimSpace(val)
	if strings.EqualFold(val, "all") {
		return ""
	}
	return val
}

func mapTicketErr(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.NewNotFound("ticket", nil)
	}
	return err
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
