package implementation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ai-notecopilot/internal/entity"
	"ai-notecopilot/internal/repository/contract"
	"ai-notecopilot/pkg/database"
)

const customPromptSchema = `
PRAGMA busy_timeout = 5000;
CREATE TABLE IF NOT EXISTS custom_prompts (
	title TEXT PRIMARY KEY,
	prompt TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
`

type CustomPromptRepositoryImpl struct {
	db *sql.DB
}

// NewCustomPromptRepository opens the prompt database at path.
func NewCustomPromptRepository(path string) (*CustomPromptRepositoryImpl, error) {
	db, err := database.NewSQLite(path, customPromptSchema)
	if err != nil {
		return nil, err
	}
	return &CustomPromptRepositoryImpl{db: db}, nil
}

func (r *CustomPromptRepositoryImpl) Close() error {
	return r.db.Close()
}

func (r *CustomPromptRepositoryImpl) Create(ctx context.Context, prompt *entity.CustomPrompt) error {
	now := time.Now()
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO custom_prompts (title, prompt, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(title) DO NOTHING`,
		prompt.Title, prompt.Prompt, now.UnixNano(), now.UnixNano())
	if err != nil {
		return fmt.Errorf("insert custom prompt: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return contract.ErrPromptExists
	}
	prompt.CreatedAt = now
	prompt.UpdatedAt = now
	return nil
}

func (r *CustomPromptRepositoryImpl) FindByTitle(ctx context.Context, title string) (*entity.CustomPrompt, error) {
	var p entity.CustomPrompt
	var created, updated int64
	err := r.db.QueryRowContext(ctx,
		`SELECT title, prompt, created_at, updated_at FROM custom_prompts WHERE title = ?`, title).
		Scan(&p.Title, &p.Prompt, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, contract.ErrPromptNotFound
		}
		return nil, fmt.Errorf("get custom prompt: %w", err)
	}
	p.CreatedAt = time.Unix(0, created)
	p.UpdatedAt = time.Unix(0, updated)
	return &p, nil
}

func (r *CustomPromptRepositoryImpl) ListTitles(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT title FROM custom_prompts ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list custom prompts: %w", err)
	}
	defer rows.Close()

	var titles []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, err
		}
		titles = append(titles, t)
	}
	return titles, rows.Err()
}

func (r *CustomPromptRepositoryImpl) Update(ctx context.Context, prompt *entity.CustomPrompt) error {
	now := time.Now()
	res, err := r.db.ExecContext(ctx,
		`UPDATE custom_prompts SET prompt = ?, updated_at = ? WHERE title = ?`,
		prompt.Prompt, now.UnixNano(), prompt.Title)
	if err != nil {
		return fmt.Errorf("update custom prompt: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return contract.ErrPromptNotFound
	}
	prompt.UpdatedAt = now
	return nil
}

func (r *CustomPromptRepositoryImpl) Delete(ctx context.Context, title string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM custom_prompts WHERE title = ?`, title)
	if err != nil {
		return fmt.Errorf("delete custom prompt: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return contract.ErrPromptNotFound
	}
	return nil
}
