package messages

import (
	"context"

	"github.com/dmitrijs2005/clubhouse/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, message *models.Message) (*models.Message, error)
	List(ctx context.Context) ([]models.MessageView, error)
	Delete(ctx context.Context, id string) error
}
