package store

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/marketdesk/feedsync/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it
// for unit tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS customers (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'ACTIVE',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tickets (
	id          TEXT PRIMARY KEY,
	subject     TEXT NOT NULL,
	description TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'OPEN',
	priority    TEXT NOT NULL DEFAULT 'MEDIUM',
	customer_id TEXT NOT NULL REFERENCES customers(id),
	source_key  TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	resolved_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS ticket_comments (
	id             TEXT PRIMARY KEY,
	ticket_id      TEXT NOT NULL REFERENCES tickets(id) ON DELETE CASCADE,
	content        TEXT NOT NULL,
	internal       BOOLEAN NOT NULL DEFAULT false,
	auto_generated BOOLEAN NOT NULL DEFAULT false,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS reviews (
	id          TEXT PRIMARY KEY,
	ticket_id   TEXT REFERENCES tickets(id) ON DELETE SET NULL,
	product_ref TEXT NOT NULL,
	rating      INTEGER NOT NULL,
	content     TEXT NOT NULL,
	author_name TEXT NOT NULL,
	source      TEXT NOT NULL,
	date        TIMESTAMPTZ NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_tickets_source_key
	ON tickets(source_key) WHERE source_key IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets(status);
CREATE INDEX IF NOT EXISTS idx_tickets_subject ON tickets(subject);
CREATE INDEX IF NOT EXISTS idx_customers_name ON customers(name);
CREATE INDEX IF NOT EXISTS idx_ticket_comments_ticket_id ON ticket_comments(ticket_id);
CREATE INDEX IF NOT EXISTS idx_reviews_ticket_id ON reviews(ticket_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) CreateTicket(ctx context.Context, t *model.Ticket) error {
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO tickets (id, subject, description, status, priority, customer_id, source_key, created_at, updated_at, resolved_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.Subject, t.Description, string(t.Status), string(t.Priority),
		t.CustomerID, nullIfEmpty(t.SourceKey), now, now, t.ResolvedAt,
	)
	if err != nil {
		if isPGUniqueViolation(err) {
			return ErrDuplicateSourceKey
		}
		return eris.Wrap(err, "postgres: insert ticket")
	}
	return nil
}

func (s *PostgresStore) GetTicket(ctx context.Context, id string) (*model.Ticket, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, subject, description, status, priority, customer_id, source_key, created_at, updated_at, resolved_at
		 FROM tickets WHERE id = $1`, id)
	t, err := scanPGTicket(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get ticket %s", id)
	}
	return t, nil
}

func (s *PostgresStore) ListTickets(ctx context.Context, filter TicketFilter) ([]model.Ticket, error) {
	query := `SELECT id, subject, description, status, priority, customer_id, source_key, created_at, updated_at, resolved_at
		FROM tickets WHERE 1=1`
	var args []any

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if filter.SourcePrefix != "" {
		args = append(args, filter.SourcePrefix)
		query += ` AND left(description, length($` + strconv.Itoa(len(args)) + `)) = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit)
	query += ` LIMIT $` + strconv.Itoa(len(args))

	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += ` OFFSET $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list tickets")
	}
	defer rows.Close()

	var tickets []model.Ticket
	for rows.Next() {
		t, err := scanPGTicket(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan ticket")
		}
		tickets = append(tickets, *t)
	}
	return tickets, eris.Wrap(rows.Err(), "postgres: list tickets iterate")
}

func (s *PostgresStore) TicketStats(ctx context.Context) (*model.TicketStats, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'OPEN'),
			COUNT(*) FILTER (WHERE status = 'RESOLVED')
		FROM tickets`)

	var stats model.TicketStats
	if err := row.Scan(&stats.Total, &stats.Open, &stats.Resolved); err != nil {
		return nil, eris.Wrap(err, "postgres: ticket stats")
	}
	return &stats, nil
}

func (s *PostgresStore) UpdateTicketStatus(ctx context.Context, id string, status model.TicketStatus) error {
	var resolvedAt any
	if status == model.TicketStatusResolved {
		resolvedAt = time.Now().UTC()
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE tickets SET status = $1, resolved_at = $2, updated_at = $3 WHERE id = $4`,
		string(status), resolvedAt, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update ticket status %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: ticket %s not found", id)
	}
	return nil
}

func (s *PostgresStore) DeleteTicketsByDescriptionPrefix(ctx context.Context, prefix string) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM tickets WHERE left(description, length($1)) = $1`, prefix)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete tickets by prefix")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) TicketExistsBySourceKey(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, nil
	}
	var one int
	err := s.pool.QueryRow(ctx,
		`SELECT 1 FROM tickets WHERE source_key = $1 LIMIT 1`, key,
	).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrap(err, "postgres: source key lookup")
	}
	return true, nil
}

func (s *PostgresStore) QnADuplicateExists(ctx context.Context, subject, authorName, dateSubstring string) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx, `
		SELECT 1 FROM tickets t
		JOIN customers c ON c.id = t.customer_id
		WHERE t.subject = $1 AND c.name = $2 AND strpos(t.description, $3) > 0
		LIMIT 1`,
		subject, authorName, dateSubstring,
	).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrap(err, "postgres: qna duplicate lookup")
	}
	return true, nil
}

func (s *PostgresStore) TicketDescriptionContains(ctx context.Context, substring string) (bool, error) {
	var one int
	err := s.pool.QueryRow(ctx,
		`SELECT 1 FROM tickets WHERE strpos(description, $1) > 0 LIMIT 1`, substring,
	).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrap(err, "postgres: description lookup")
	}
	return true, nil
}

func (s *PostgresStore) AddTicketComment(ctx context.Context, c *model.TicketComment) error {
	c.CreatedAt = time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO ticket_comments (id, ticket_id, content, internal, auto_generated, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.TicketID, c.Content, c.Internal, c.AutoGenerated, c.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert ticket comment")
}

func (s *PostgresStore) ListTicketComments(ctx context.Context, ticketID string) ([]model.TicketComment, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, ticket_id, content, internal, auto_generated, created_at
		 FROM ticket_comments WHERE ticket_id = $1 ORDER BY created_at`, ticketID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list ticket comments")
	}
	defer rows.Close()

	var out []model.TicketComment
	for rows.Next() {
		var c model.TicketComment
		if err := rows.Scan(&c.ID, &c.TicketID, &c.Content, &c.Internal, &c.AutoGenerated, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan ticket comment")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list ticket comments")
}

func (s *PostgresStore) GetCustomer(ctx context.Context, id string) (*model.Customer, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, email, status, created_at FROM customers WHERE id = $1`, id)

	var c model.Customer
	var status string
	err := row.Scan(&c.ID, &c.Name, &c.Email, &status, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get customer %s", id)
	}
	c.Status = model.CustomerStatus(status)
	return &c, nil
}

func (s *PostgresStore) FindCustomerByName(ctx context.Context, name string) (*model.Customer, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, email, status, created_at FROM customers WHERE name = $1 LIMIT 1`, name)

	var c model.Customer
	var status string
	err := row.Scan(&c.ID, &c.Name, &c.Email, &status, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: find customer %s", name)
	}
	c.Status = model.CustomerStatus(status)
	return &c, nil
}

func (s *PostgresStore) CreateCustomer(ctx context.Context, c *model.Customer) error {
	c.CreatedAt = time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO customers (id, name, email, status, created_at) VALUES ($1, $2, $3, $4, $5)`,
		c.ID, c.Name, c.Email, string(c.Status), c.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert customer")
}

func (s *PostgresStore) CreateReview(ctx context.Context, r *model.ReviewRecord) error {
	r.CreatedAt = time.Now().UTC()
	_, err := s.pool.Exec(ctx,
		`INSERT INTO reviews (id, ticket_id, product_ref, rating, content, author_name, source, date, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.ID, nullIfEmpty(r.TicketID), r.ProductRef, r.Rating, r.Content, r.AuthorName, r.Source, r.Date, r.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert review")
}

func (s *PostgresStore) ListReviews(ctx context.Context, limit int) ([]model.ReviewRecord, error) {
	query := `SELECT id, ticket_id, product_ref, rating, content, author_name, source, date, created_at
		 FROM reviews ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		args = append(args, limit)
		query += ` LIMIT $` + strconv.Itoa(len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list reviews")
	}
	defer rows.Close()

	var out []model.ReviewRecord
	for rows.Next() {
		var r model.ReviewRecord
		var ticketID *string
		if err := rows.Scan(&r.ID, &ticketID, &r.ProductRef, &r.Rating, &r.Content, &r.AuthorName, &r.Source, &r.Date, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan review")
		}
		if ticketID != nil {
			r.TicketID = *ticketID
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list reviews")
}

// --- helpers ---

func scanPGTicket(row pgx.Row) (*model.Ticket, error) {
	var t model.Ticket
	var status, priority string
	var sourceKey *string
	var resolvedAt *time.Time

	err := row.Scan(&t.ID, &t.Subject, &t.Description, &status, &priority,
		&t.CustomerID, &sourceKey, &t.CreatedAt, &t.UpdatedAt, &resolvedAt)
	if err != nil {
		return nil, err
	}

	t.Status = model.TicketStatus(status)
	t.Priority = model.Priority(priority)
	if sourceKey != nil {
		t.SourceKey = *sourceKey
	}
	t.ResolvedAt = resolvedAt
	return &t, nil
}

func isPGUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
