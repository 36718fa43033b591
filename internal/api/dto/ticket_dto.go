package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
}

// UpdateTicketRequest payload. Pointer fields distinguish "absent" from
// "present": an omitted field is never touched, so callers cannot clear
// a field by accident. Creator, ticket code and timestamps are not
// accepted here at all.
type UpdateTicketRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
	AssignedTo  *string `json:"assignedTo"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Message string `json:"message"`
}

// UserRefResponse is the user slice embedded in ticket responses.
type UserRefResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// CommentResponse represents one thread entry.
type CommentResponse struct {
	ID        string          `json:"id"`
	User      UserRefResponse `json:"user"`
	Message   string          `json:"message"`
	CreatedAt time.Time       `json:"createdAt"`
}

// TicketSummary is the list-view projection without the comment thread.
type TicketSummary struct {
	ID         string                `json:"id"`
	TicketID   string                `json:"ticketId"`
	Title      string                `json:"title"`
	Category   domain.TicketCategory `json:"category"`
	Priority   domain.TicketPriority `json:"priority"`
	Status     domain.TicketStatus   `json:"status"`
	CreatedBy  UserRefResponse       `json:"createdBy"`
	AssignedTo *UserRefResponse      `json:"assignedTo,omitempty"`
	CreatedAt  time.Time             `json:"createdAt"`
	UpdatedAt  time.Time             `json:"updatedAt"`
}

// TicketDetailResponse provides full ticket info including comments.
type TicketDetailResponse struct {
	ID          string                `json:"id"`
	TicketID    string                `json:"ticketId"`
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Category    domain.TicketCategory `json:"category"`
	Priority    domain.TicketPriority `json:"priority"`
	Status      domain.TicketStatus   `json:"status"`
	CreatedBy   UserRefResponse       `json:"createdBy"`
	AssignedTo  *UserRefResponse      `json:"assignedTo,omitempty"`
	Comments    []CommentResponse     `json:"comments"`
	CreatedAt   time.Time             `json:"createdAt"`
	UpdatedAt   time.Time             `json:"updatedAt"`
}
