package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/clubhouse/internal/common"
	"github.com/dmitrijs2005/clubhouse/internal/server/auth"
	"github.com/dmitrijs2005/clubhouse/internal/server/models"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// MessageService is the board itself: post, list, delete.
type MessageService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewMessageService(db *sql.DB, m repomanager.RepositoryManager) *MessageService {
	return &MessageService{db: db, repomanager: m}
}

// Create posts a message on behalf of the author. Title and content are
// trimmed and must not be empty.
func (s *MessageService) Create(ctx context.Context, author *models.Account, title, content string) (*models.Message, error) {
	if !auth.Allows(author, auth.TierAuthenticated) {
		return nil, common.ErrorUnauthorized
	}

	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return nil, common.NewValidationError("Both title and content are required.")
	}

	msg, err := s.repomanager.Messages(s.db).Create(ctx, &models.Message{
		Title:     title,
		Content:   content,
		AccountID: author.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating message: %w", err)
	}

	return msg, nil
}

// List returns all messages newest first.
func (s *MessageService) List(ctx context.Context) ([]models.MessageView, error) {
	list, err := s.repomanager.Messages(s.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing messages: %w", err)
	}
	return list, nil
}

// Delete removes a message by id. Only admins may delete; the id is not
// checked for existence, so deleting a missing message succeeds silently.
func (s *MessageService) Delete(ctx context.Context, principal *models.Account, id string) error {
	if !auth.Allows(principal, auth.TierAdmin) {
		return common.ErrorForbidden
	}

	if _, err := uuid.Parse(id); err != nil {
		return common.NewValidationError("Invalid message id.")
	}

	if err := s.repomanager.Messages(s.db).Delete(ctx, id); err != nil {
		return fmt.Errorf("error deleting message: %w", err)
	}

	return nil
}
