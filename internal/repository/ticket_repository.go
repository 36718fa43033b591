package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TicketFilter captures ticket listing parameters. Zero values mean the
// field is unconstrained.
type TicketFilter struct {
	Status   domain.TicketStatus
	Priority domain.TicketPriority
	Category domain.TicketCategory
	Search   string
}

// TicketPatch carries a partial update. Nil fields are left untouched,
// never reset; the code, creator and timestamps are not representable
// here and therefore immutable.
type TicketPatch struct {
	Title        *string
	Description  *string
	Category     *domain.TicketCategory
	Priority     *domain.TicketPriority
	Status       *domain.TicketStatus
	AssignedToID *string
}

// Empty reports whether the patch would change nothing.
func (p TicketPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Category == nil &&
		p.Priority == nil && p.Status == nil && p.AssignedToID == nil
}

// TicketRepository encapsulates ticket and comment persistence.
type TicketRepository interface {
	// NextTicketNumber returns a sequence value guaranteed never reused,
	// atomic with respect to concurrent creations.
	NextTicketNumber(ctx context.Context) (int64, error)
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	Update(ctx context.Context, id string, patch TicketPatch) error
	Delete(ctx context.Context, id string) error
	AddComment(ctx context.Context, ticketID string, comment *domain.Comment) error
	ListComments(ctx context.Context, ticketID string) ([]domain.Comment, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository returns a Postgres-backed implementation.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `t.id, t.ticket_code, t.title, t.description, t.category, t.priority, t.status,
       t.created_by, cu.username, cu.name,
       t.assigned_to, au.username, au.name,
       t.created_at, t.updated_at`

const ticketJoins = `FROM tickets t
        JOIN users cu ON cu.id = t.created_by
        LEFT JOIN users au ON au.id = t.assigned_to`

func (r *ticketRepository) NextTicketNumber(ctx context.Context) (int64, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT nextval('ticket_number_seq')`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_code, title, description, category, priority, status, created_by, assigned_to)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	var assignedTo *string
	if ticket.AssignedTo != nil {
		assignedTo = &ticket.AssignedTo.ID
	}
	return r.pool.QueryRow(ctx, query,
		ticket.Code,
		ticket.Title,
		ticket.Description,
		ticket.Category,
		ticket.Priority,
		ticket.Status,
		ticket.CreatedBy.ID,
		assignedTo,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt)
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE t.id=$1`, ticketColumns, ticketJoins)
	row := r.pool.QueryRow(ctx, query, id)
	return scanTicket(row)
}

func (r *ticketRepository) ListWithFilter(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	where, args := filter.whereClause()
	query := fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY t.created_at DESC`,
		ticketColumns, ticketJoins, where)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

// whereClause builds the WHERE predicate for the filter: exact matches on
// the enumerated fields and an unweighted OR substring match across title,
// description and ticket code.
func (f TicketFilter) whereClause() (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}

	if f.Status != "" {
		args = append(args, f.Status)
		clauses = append(clauses, fmt.Sprintf("t.status=$%d", len(args)))
	}
	if f.Priority != "" {
		args = append(args, f.Priority)
		clauses = append(clauses, fmt.Sprintf("t.priority=$%d", len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		clauses = append(clauses, fmt.Sprintf("t.category=$%d", len(args)))
	}
	if strings.TrimSpace(f.Search) != "" {
		args = append(args, "%"+strings.TrimSpace(f.Search)+"%")
		placeholder := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(t.title ILIKE %s OR t.description ILIKE %s OR t.ticket_code ILIKE %s)",
			placeholder, placeholder, placeholder))
	}

	return strings.Join(clauses, " AND "), args
}

func (r *ticketRepository) Update(ctx context.Context, id string, patch TicketPatch) error {
	sets := []string{"updated_at=NOW()"}
	args := []any{}

	appendSet := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s=$%d", column, len(args)))
	}

	if patch.Title != nil {
		appendSet("title", *patch.Title)
	}
	if patch.Description != nil {
		appendSet("description", *patch.Description)
	}
	if patch.Category != nil {
		appendSet("category", *patch.Category)
	}
	if patch.Priority != nil {
		appendSet("priority", *patch.Priority)
	}
	if patch.Status != nil {
		appendSet("status", *patch.Status)
	}
	if patch.AssignedToID != nil {
		appendSet("assigned_to", *patch.AssignedToID)
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE tickets SET %s WHERE id=$%d", strings.Join(sets, ", "), len(args))

	cmd, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	// comments go with the ticket via ON DELETE CASCADE
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) AddComment(ctx context.Context, ticketID string, comment *domain.Comment) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insert = `
        INSERT INTO ticket_comments (ticket_id, user_id, message)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	if err := tx.QueryRow(ctx, insert, ticketID, comment.User.ID, comment.Message).
		Scan(&comment.ID, &comment.CreatedAt); err != nil {
		return err
	}
	comment.TicketID = ticketID

	cmd, err := tx.Exec(ctx, `UPDATE tickets SET updated_at=NOW() WHERE id=$1`, ticketID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return tx.Commit(ctx)
}

func (r *ticketRepository) ListComments(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	const query = `
        SELECT c.id, c.ticket_id, c.user_id, u.username, u.name, c.message, c.created_at
        FROM ticket_comments c
        JOIN users u ON u.id = c.user_id
        WHERE c.ticket_id=$1 ORDER BY c.created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Comment
	for rows.Next() {
		var comment domain.Comment
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.User.ID,
			&comment.User.Username,
			&comment.User.Name,
			&comment.Message,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket           domain.Ticket
		assigneeID       *string
		assigneeUsername *string
		assigneeName     *string
	)
	if err := row.Scan(
		&ticket.ID,
		&ticket.Code,
		&ticket.Title,
		&ticket.Description,
		&ticket.Category,
		&ticket.Priority,
		&ticket.Status,
		&ticket.CreatedBy.ID,
		&ticket.CreatedBy.Username,
		&ticket.CreatedBy.Name,
		&assigneeID,
		&assigneeUsername,
		&assigneeName,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if assigneeID != nil {
		ticket.AssignedTo = &domain.UserRef{ID: *assigneeID}
		if assigneeUsername != nil {
			ticket.AssignedTo.Username = *assigneeUsername
		}
		if assigneeName != nil {
			ticket.AssignedTo.Name = *assigneeName
		}
	}
	return &ticket, nil
}
