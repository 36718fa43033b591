package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// memoryTicketRepository keeps tickets in process memory. It backs the
// service when no POSTGRES_DSN is configured and the unit tests; it
// mirrors the SQL implementation's semantics, including atomic ticket
// number assignment.
type memoryTicketRepository struct {
	mu       sync.RWMutex
	tickets  map[string]domain.Ticket
	comments map[string][]domain.Comment
	seq      atomic.Int64
}

// NewMemoryTicketRepository returns an empty in-memory ticket store.
func NewMemoryTicketRepository() TicketRepository {
	return &memoryTicketRepository{
		tickets:  make(map[string]domain.Ticket),
		comments: make(map[string][]domain.Comment),
	}
}

func (r *memoryTicketRepository) NextTicketNumber(_ context.Context) (int64, error) {
	return r.seq.Add(1), nil
}

func (r *memoryTicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.tickets {
		if existing.Code == ticket.Code {
			return fmt.Errorf("duplicate ticket code %s", ticket.Code)
		}
	}

	now := time.Now()
	ticket.ID = uuid.NewString()
	ticket.CreatedAt = now
	ticket.UpdatedAt = now
	r.tickets[ticket.ID] = *ticket
	return nil
}

func (r *memoryTicketRepository) GetByID(_ context.Context, id string) (*domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ticket, ok := r.tickets[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &ticket, nil
}

func (r *memoryTicketRepository) ListWithFilter(_ context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []domain.Ticket
	for _, ticket := range r.tickets {
		if filter.Status != "" && ticket.Status != filter.Status {
			continue
		}
		if filter.Priority != "" && ticket.Priority != filter.Priority {
			continue
		}
		if filter.Category != "" && ticket.Category != filter.Category {
			continue
		}
		if !matchesSearch(ticket, filter.Search) {
			continue
		}
		result = append(result, ticket)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func matchesSearch(ticket domain.Ticket, search string) bool {
	search = strings.TrimSpace(search)
	if search == "" {
		return true
	}
	needle := strings.ToLower(search)
	return strings.Contains(strings.ToLower(ticket.Title), needle) ||
		strings.Contains(strings.ToLower(ticket.Description), needle) ||
		strings.Contains(strings.ToLower(ticket.Code), needle)
}

func (r *memoryTicketRepository) Update(_ context.Context, id string, patch TicketPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, ok := r.tickets[id]
	if !ok {
		return pgx.ErrNoRows
	}

	if patch.Title != nil {
		ticket.Title = *patch.Title
	}
	if patch.Description != nil {
		ticket.Description = *patch.Description
	}
	if patch.Category != nil {
		ticket.Category = *patch.Category
	}
	if patch.Priority != nil {
		ticket.Priority = *patch.Priority
	}
	if patch.Status != nil {
		ticket.Status = *patch.Status
	}
	if patch.AssignedToID != nil {
		ticket.AssignedTo = &domain.UserRef{ID: *patch.AssignedToID}
	}
	ticket.UpdatedAt = time.Now()

	r.tickets[id] = ticket
	return nil
}

func (r *memoryTicketRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tickets[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.tickets, id)
	delete(r.comments, id)
	return nil
}

func (r *memoryTicketRepository) AddComment(_ context.Context, ticketID string, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ticket, ok := r.tickets[ticketID]
	if !ok {
		return pgx.ErrNoRows
	}

	comment.ID = uuid.NewString()
	comment.TicketID = ticketID
	comment.CreatedAt = time.Now()
	r.comments[ticketID] = append(r.comments[ticketID], *comment)

	ticket.UpdatedAt = comment.CreatedAt
	r.tickets[ticketID] = ticket
	return nil
}

func (r *memoryTicketRepository) ListComments(_ context.Context, ticketID string) ([]domain.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	comments := r.comments[ticketID]
	result := make([]domain.Comment, len(comments))
	copy(result, comments)
	return result, nil
}

// memoryUserRepository keeps user accounts in process memory.
type memoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewMemoryUserRepository returns an empty in-memory user store.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{users: make(map[string]domain.User)}
}

func (r *memoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Username == user.Username {
			return fmt.Errorf("duplicate username %s", user.Username)
		}
		if existing.Email == user.Email {
			return fmt.Errorf("duplicate email %s", user.Email)
		}
	}

	now := time.Now()
	user.ID = uuid.NewString()
	user.CreatedAt = now
	user.UpdatedAt = now
	r.users[user.ID] = *user
	return nil
}

func (r *memoryUserRepository) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	user.UpdatedAt = time.Now()
	r.users[user.ID] = *user
	return nil
}

func (r *memoryUserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *memoryUserRepository) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Username == username })
}

func (r *memoryUserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Email == email })
}

func (r *memoryUserRepository) find(match func(domain.User) bool) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if match(user) {
			found := user
			return &found, nil
		}
	}
	return nil, pgx.ErrNoRows
}
