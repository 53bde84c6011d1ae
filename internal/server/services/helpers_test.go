package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/clubhouse/internal/dbx"
	"github.com/dmitrijs2005/clubhouse/internal/server/config"
	"github.com/dmitrijs2005/clubhouse/internal/server/models"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/memory"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/messages"
	"golang.org/x/crypto/bcrypt"
)

const (
	clubPasscode  = "open-sesame"
	adminPasscode = "root-me"
)

var errBoom = errors.New("boom")

func testConfig() *config.Config {
	return &config.Config{
		SessionSecret:           "k",
		SessionValidityDuration: time.Hour,
		ClubPasscode:            clubPasscode,
		AdminPasscode:           adminPasscode,
		BcryptCost:              bcrypt.MinCost,
	}
}

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func newAccountService(t *testing.T) (*AccountService, *memory.RepositoryManager, sqlmock.Sqlmock) {
	t.Helper()
	db, mock := newSQLMockDB(t)
	rm := memory.NewRepositoryManager()
	return NewAccountService(db, rm, testConfig()), rm, mock
}

func register(t *testing.T, s *AccountService, first, username, password string) *models.Account {
	t.Helper()
	a, err := s.Register(context.Background(), RegisterInput{
		FirstName:       first,
		LastName:        "Tester",
		UserName:        username,
		Password:        password,
		ConfirmPassword: password,
	})
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	return a
}

// failingRepoManager wraps the in-memory manager and replaces selected repos.
type failingRepoManager struct {
	*memory.RepositoryManager
	accounts accounts.Repository
	messages messages.Repository
}

func (m *failingRepoManager) Accounts(db dbx.DBTX) accounts.Repository {
	if m.accounts != nil {
		return m.accounts
	}
	return m.RepositoryManager.Accounts(db)
}

func (m *failingRepoManager) Messages(db dbx.DBTX) messages.Repository {
	if m.messages != nil {
		return m.messages
	}
	return m.RepositoryManager.Messages(db)
}

type brokenAccounts struct{}

func (brokenAccounts) Create(context.Context, *models.Account) (*models.Account, error) {
	return nil, errBoom
}
func (brokenAccounts) GetByUserName(context.Context, string) (*models.Account, error) {
	return nil, errBoom
}
func (brokenAccounts) GetByID(context.Context, string) (*models.Account, error) {
	return nil, errBoom
}
func (brokenAccounts) SetMember(context.Context, string) error {
	return errBoom
}
func (brokenAccounts) SetAdmin(context.Context, string) error {
	return errBoom
}

type brokenMessages struct{}

func (brokenMessages) Create(context.Context, *models.Message) (*models.Message, error) {
	return nil, errBoom
}
func (brokenMessages) List(context.Context) ([]models.MessageView, error) {
	return nil, errBoom
}
func (brokenMessages) Delete(context.Context, string) error {
	return errBoom
}

func memoryManager() *memory.RepositoryManager {
	return memory.NewRepositoryManager()
}
