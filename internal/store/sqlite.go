package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/marketdesk/feedsync/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS customers (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	email      TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'ACTIVE',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS tickets (
	id          TEXT PRIMARY KEY,
	subject     TEXT NOT NULL,
	description TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'OPEN',
	priority    TEXT NOT NULL DEFAULT 'MEDIUM',
	customer_id TEXT NOT NULL REFERENCES customers(id),
	source_key  TEXT,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	resolved_at DATETIME
);

CREATE TABLE IF NOT EXISTS ticket_comments (
	id             TEXT PRIMARY KEY,
	ticket_id      TEXT NOT NULL REFERENCES tickets(id) ON DELETE CASCADE,
	content        TEXT NOT NULL,
	internal       INTEGER NOT NULL DEFAULT 0,
	auto_generated INTEGER NOT NULL DEFAULT 0,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS reviews (
	id          TEXT PRIMARY KEY,
	ticket_id   TEXT REFERENCES tickets(id) ON DELETE SET NULL,
	product_ref TEXT NOT NULL,
	rating      INTEGER NOT NULL,
	content     TEXT NOT NULL,
	author_name TEXT NOT NULL,
	source      TEXT NOT NULL,
	date        DATETIME NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_tickets_source_key
	ON tickets(source_key) WHERE source_key IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_tickets_status ON tickets(status);
CREATE INDEX IF NOT EXISTS idx_tickets_subject ON tickets(subject);
CREATE INDEX IF NOT EXISTS idx_customers_name ON customers(name);
CREATE INDEX IF NOT EXISTS idx_ticket_comments_ticket_id ON ticket_comments(ticket_id);
CREATE INDEX IF NOT EXISTS idx_reviews_ticket_id ON reviews(ticket_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateTicket(ctx context.Context, t *model.Ticket) error {
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tickets (id, subject, description, status, priority, customer_id, source_key, created_at, updated_at, resolved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Subject, t.Description, string(t.Status), string(t.Priority),
		t.CustomerID, nullIfEmpty(t.SourceKey), now, now, t.ResolvedAt,
	)
	if err != nil {
		if isSQLiteUniqueViolation(err) {
			return ErrDuplicateSourceKey
		}
		return eris.Wrap(err, "sqlite: insert ticket")
	}
	return nil
}

func (s *SQLiteStore) GetTicket(ctx context.Context, id string) (*model.Ticket, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, subject, description, status, priority, customer_id, source_key, created_at, updated_at, resolved_at
		 FROM tickets WHERE id = ?`, id)
	return scanTicket(row)
}

func (s *SQLiteStore) ListTickets(ctx context.Context, filter TicketFilter) ([]model.Ticket, error) {
	query := `SELECT id, subject, description, status, priority, customer_id, source_key, created_at, updated_at, resolved_at
		FROM tickets WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.SourcePrefix != "" {
		query += ` AND substr(description, 1, ?) = ?`
		args = append(args, len(filter.SourcePrefix), filter.SourcePrefix)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list tickets")
	}
	defer rows.Close()

	var tickets []model.Ticket
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, *t)
	}
	return tickets, eris.Wrap(rows.Err(), "sqlite: list tickets iterate")
}

func (s *SQLiteStore) TicketStats(ctx context.Context) (*model.TicketStats, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'OPEN' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'RESOLVED' THEN 1 ELSE 0 END), 0)
		FROM tickets`)

	var stats model.TicketStats
	if err := row.Scan(&stats.Total, &stats.Open, &stats.Resolved); err != nil {
		return nil, eris.Wrap(err, "sqlite: ticket stats")
	}
	return &stats, nil
}

func (s *SQLiteStore) UpdateTicketStatus(ctx context.Context, id string, status model.TicketStatus) error {
	var resolvedAt any
	if status == model.TicketStatusResolved {
		resolvedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE tickets SET status = ?, resolved_at = ?, updated_at = ? WHERE id = ?`,
		string(status), resolvedAt, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update ticket status %s", id)
	}
	return checkRowsAffected(res, "ticket", id)
}

func (s *SQLiteStore) DeleteTicketsByDescriptionPrefix(ctx context.Context, prefix string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin delete tx")
	}
	defer tx.Rollback() //nolint:errcheck

	match := `substr(description, 1, ?) = ?`
	for _, q := range []string{
		`DELETE FROM ticket_comments WHERE ticket_id IN (SELECT id FROM tickets WHERE ` + match + `)`,
		`DELETE FROM reviews WHERE ticket_id IN (SELECT id FROM tickets WHERE ` + match + `)`,
	} {
		if _, err := tx.ExecContext(ctx, q, len(prefix), prefix); err != nil {
			return 0, eris.Wrap(err, "sqlite: delete ticket children")
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM tickets WHERE `+match, len(prefix), prefix)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete tickets by prefix")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete rows affected")
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit delete tx")
	}
	return int(n), nil
}

func (s *SQLiteStore) TicketExistsBySourceKey(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, nil
	}
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM tickets WHERE source_key = ? LIMIT 1`, key,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrap(err, "sqlite: source key lookup")
	}
	return true, nil
}

func (s *SQLiteStore) QnADuplicateExists(ctx context.Context, subject, authorName, dateSubstring string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `
		SELECT 1 FROM tickets t
		JOIN customers c ON c.id = t.customer_id
		WHERE t.subject = ? AND c.name = ? AND instr(t.description, ?) > 0
		LIMIT 1`,
		subject, authorName, dateSubstring,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrap(err, "sqlite: qna duplicate lookup")
	}
	return true, nil
}

func (s *SQLiteStore) TicketDescriptionContains(ctx context.Context, substring string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM tickets WHERE instr(description, ?) > 0 LIMIT 1`, substring,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, eris.Wrap(err, "sqlite: description lookup")
	}
	return true, nil
}

func (s *SQLiteStore) AddTicketComment(ctx context.Context, c *model.TicketComment) error {
	c.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO ticket_comments (id, ticket_id, content, internal, auto_generated, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.TicketID, c.Content, boolToInt(c.Internal), boolToInt(c.AutoGenerated), c.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert ticket comment")
}

func (s *SQLiteStore) ListTicketComments(ctx context.Context, ticketID string) ([]model.TicketComment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, ticket_id, content, internal, auto_generated, created_at
		 FROM ticket_comments WHERE ticket_id = ? ORDER BY created_at`, ticketID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list ticket comments")
	}
	defer rows.Close()

	var out []model.TicketComment
	for rows.Next() {
		var c model.TicketComment
		var internal, auto int
		if err := rows.Scan(&c.ID, &c.TicketID, &c.Content, &internal, &auto, &c.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan ticket comment")
		}
		c.Internal = internal != 0
		c.AutoGenerated = auto != 0
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list ticket comments")
}

func (s *SQLiteStore) GetCustomer(ctx context.Context, id string) (*model.Customer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, status, created_at FROM customers WHERE id = ?`, id)

	var c model.Customer
	var status string
	err := row.Scan(&c.ID, &c.Name, &c.Email, &status, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get customer %s", id)
	}
	c.Status = model.CustomerStatus(status)
	return &c, nil
}

func (s *SQLiteStore) FindCustomerByName(ctx context.Context, name string) (*model.Customer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, status, created_at FROM customers WHERE name = ? LIMIT 1`, name)

	var c model.Customer
	var status string
	err := row.Scan(&c.ID, &c.Name, &c.Email, &status, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: find customer %s", name)
	}
	c.Status = model.CustomerStatus(status)
	return &c, nil
}

func (s *SQLiteStore) CreateCustomer(ctx context.Context, c *model.Customer) error {
	c.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO customers (id, name, email, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Email, string(c.Status), c.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert customer")
}

func (s *SQLiteStore) CreateReview(ctx context.Context, r *model.ReviewRecord) error {
	r.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reviews (id, ticket_id, product_ref, rating, content, author_name, source, date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, nullIfEmpty(r.TicketID), r.ProductRef, r.Rating, r.Content, r.AuthorName, r.Source, r.Date, r.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert review")
}

func (s *SQLiteStore) ListReviews(ctx context.Context, limit int) ([]model.ReviewRecord, error) {
	query := `SELECT id, ticket_id, product_ref, rating, content, author_name, source, date, created_at
		 FROM reviews ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list reviews")
	}
	defer rows.Close()

	var out []model.ReviewRecord
	for rows.Next() {
		var r model.ReviewRecord
		var ticketID *string
		if err := rows.Scan(&r.ID, &ticketID, &r.ProductRef, &r.Rating, &r.Content, &r.AuthorName, &r.Source, &r.Date, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan review")
		}
		if ticketID != nil {
			r.TicketID = *ticketID
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list reviews")
}

// --- helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*model.Ticket, error) {
	var t model.Ticket
	var status, priority string
	var sourceKey sql.NullString
	var resolvedAt sql.NullTime

	err := row.Scan(&t.ID, &t.Subject, &t.Description, &status, &priority,
		&t.CustomerID, &sourceKey, &t.CreatedAt, &t.UpdatedAt, &resolvedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan ticket")
	}

	t.Status = model.TicketStatus(status)
	t.Priority = model.Priority(priority)
	t.SourceKey = sourceKey.String
	if resolvedAt.Valid {
		t.ResolvedAt = &resolvedAt.Time
	}
	return &t, nil
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: %s %s not found", entity, id)
	}
	return nil
}

func isSQLiteUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
