package messages

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/clubhouse/internal/dbx"
	"github.com/dmitrijs2005/clubhouse/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, message *models.Message) (*models.Message, error) {

	query :=
		`INSERT INTO messages (title, content, account_id)
         VALUES ($1, $2, $3)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		message.Title, message.Content, message.AccountID).Scan(&message.ID, &message.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return message, nil
}

// List returns every message, newest first, with its author's name.
func (r *PostgresRepository) List(ctx context.Context) ([]models.MessageView, error) {

	query :=
		`SELECT m.id, m.title, m.content, m.account_id, m.created_at, a.first_name, a.last_name
		 FROM messages m
		 JOIN accounts a ON m.account_id = a.id
		 ORDER BY m.created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.MessageView, 0)
	for rows.Next() {
		var v models.MessageView
		if err := rows.Scan(&v.ID, &v.Title, &v.Content, &v.AccountID, &v.CreatedAt, &v.AuthorFirstName, &v.AuthorLastName); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// Delete removes the message if it exists. A missing id is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {

	query := `DELETE FROM messages WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}
