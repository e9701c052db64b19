package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/mail2joplin/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// submissionRow mirrors the submissions table; tags are stored as JSON.
type submissionRow struct {
	ID          string    `db:"id"`
	Source      string    `db:"source"`
	MessageID   string    `db:"message_id"`
	Title       string    `db:"title"`
	NoteID      string    `db:"note_id"`
	Tags        string    `db:"tags"`
	Attachments int       `db:"attachments"`
	Status      string    `db:"status"`
	Error       string    `db:"error"`
	CreatedAt   time.Time `db:"created_at"`
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Each in-memory connection is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// RecordSubmission inserts a history row. A missing ID or timestamp is
// filled in.
func (s *SQLiteStore) RecordSubmission(ctx context.Context, sub model.Submission) error {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	if sub.Tags == nil {
		sub.Tags = []string{}
	}

	tags, err := json.Marshal(sub.Tags)
	if err != nil {
		return fmt.Errorf("marshaling tags for submission %s: %w", sub.ID, err)
	}

	_, err = s.db.NamedExecContext(ctx, `
		INSERT INTO submissions (
			id, source, message_id, title, note_id,
			tags, attachments, status, error, created_at
		) VALUES (
			:id, :source, :message_id, :title, :note_id,
			:tags, :attachments, :status, :error, :created_at
		)`,
		submissionRow{
			ID:          sub.ID,
			Source:      sub.Source,
			MessageID:   sub.MessageID,
			Title:       sub.Title,
			NoteID:      sub.NoteID,
			Tags:        string(tags),
			Attachments: sub.Attachments,
			Status:      sub.Status,
			Error:       sub.Error,
			CreatedAt:   sub.CreatedAt.UTC(),
		},
	)
	if err != nil {
		return fmt.Errorf("recording submission %s: %w", sub.ID, err)
	}
	return nil
}

// GetSubmissions returns history rows, newest first.
func (s *SQLiteStore) GetSubmissions(
	ctx context.Context,
	filter SubmissionFilter,
) ([]model.Submission, error) {
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, "status = ?")
		args = append(args, *filter.Status)
	}
	if filter.Query != nil && *filter.Query != "" {
		conditions = append(conditions, "(title LIKE ? OR message_id LIKE ?)")
		q := "%" + *filter.Query + "%"
		args = append(args, q, q)
	}

	query := "SELECT * FROM submissions"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		if filter.Limit <= 0 {
			query += " LIMIT -1"
		}
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	var rows []submissionRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("querying submissions: %w", err)
	}
	return toSubmissions(rows)
}

// GetSubmissionByID retrieves a single history row.
func (s *SQLiteStore) GetSubmissionByID(
	ctx context.Context,
	id string,
) (*model.Submission, error) {
	var row submissionRow
	err := s.db.GetContext(ctx, &row, "SELECT * FROM submissions WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("getting submission %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting submission %s: %w", id, err)
	}

	sub, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// FindByMessage returns earlier submissions of the same message, newest
// first.
func (s *SQLiteStore) FindByMessage(
	ctx context.Context,
	source, messageID string,
) ([]model.Submission, error) {
	var rows []submissionRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT * FROM submissions
		WHERE source = ? AND message_id = ?
		ORDER BY created_at DESC, rowid DESC`, source, messageID)
	if err != nil {
		return nil, fmt.Errorf("querying submissions for %s: %w", messageID, err)
	}
	return toSubmissions(rows)
}

func toSubmissions(rows []submissionRow) ([]model.Submission, error) {
	subs := make([]model.Submission, 0, len(rows))
	for _, r := range rows {
		sub, err := r.toModel()
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func (r submissionRow) toModel() (model.Submission, error) {
	var tags []string
	if err := json.Unmarshal([]byte(r.Tags), &tags); err != nil {
		return model.Submission{}, fmt.Errorf("unmarshaling tags for submission %s: %w", r.ID, err)
	}
	return model.Submission{
		ID:          r.ID,
		Source:      r.Source,
		MessageID:   r.MessageID,
		Title:       r.Title,
		NoteID:      r.NoteID,
		Tags:        tags,
		Attachments: r.Attachments,
		Status:      r.Status,
		Error:       r.Error,
		CreatedAt:   r.CreatedAt,
	}, nil
}
