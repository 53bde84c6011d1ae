// Package memory is an in-process RepositoryManager with the same observable
// semantics as the PostgreSQL one (unique usernames, newest-first listing,
// silent deletes). Service and handler tests run on it.
package memory

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/clubhouse/internal/common"
	"github.com/dmitrijs2005/clubhouse/internal/dbx"
	"github.com/dmitrijs2005/clubhouse/internal/server/models"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/messages"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/sessions"
	"github.com/google/uuid"
)

type storedMessage struct {
	models.Message
	seq int
}

type store struct {
	mu       sync.Mutex
	accounts map[string]models.Account
	sessions map[string]models.Session
	messages map[string]storedMessage
	seq      int
}

// RepositoryManager hands out repositories over one shared store. The DBTX
// arguments are ignored; there are no transactions in memory.
type RepositoryManager struct {
	s *store
}

func NewRepositoryManager() *RepositoryManager {
	return &RepositoryManager{s: &store{
		accounts: make(map[string]models.Account),
		sessions: make(map[string]models.Session),
		messages: make(map[string]storedMessage),
	}}
}

func (m *RepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *RepositoryManager) Accounts(dbx.DBTX) accounts.Repository { return (*accountRepo)(m.s) }
func (m *RepositoryManager) Sessions(dbx.DBTX) sessions.Repository { return (*sessionRepo)(m.s) }
func (m *RepositoryManager) Messages(dbx.DBTX) messages.Repository { return (*messageRepo)(m.s) }

// SessionCount reports how many sessions are stored, expired or not.
func (m *RepositoryManager) SessionCount() int {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return len(m.s.sessions)
}

// MessageCount reports how many messages are stored.
func (m *RepositoryManager) MessageCount() int {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	return len(m.s.messages)
}

type accountRepo store

func (r *accountRepo) Create(_ context.Context, a *models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.accounts {
		if existing.UserName == a.UserName {
			return nil, common.ErrorAlreadyExists
		}
	}

	a.ID = uuid.NewString()
	a.CreatedAt = time.Now()
	r.accounts[a.ID] = *a
	return a, nil
}

func (r *accountRepo) GetByUserName(_ context.Context, userName string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.accounts {
		if a.UserName == userName {
			return &a, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *accountRepo) GetByID(_ context.Context, id string) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &a, nil
}

func (r *accountRepo) SetMember(_ context.Context, id string) error {
	return r.update(id, func(a *models.Account) { a.IsMember = true })
}

func (r *accountRepo) SetAdmin(_ context.Context, id string) error {
	return r.update(id, func(a *models.Account) { a.IsAdmin = true })
}

func (r *accountRepo) update(id string, fn func(*models.Account)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// UPDATE on a missing row is not an error in SQL either
	if a, ok := r.accounts[id]; ok {
		fn(&a)
		r.accounts[id] = a
	}
	return nil
}

type sessionRepo store

func (r *sessionRepo) Create(_ context.Context, s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s.Token]; ok {
		return common.ErrorAlreadyExists
	}
	s.CreatedAt = time.Now()
	r.sessions[s.Token] = *s
	return nil
}

func (r *sessionRepo) Find(_ context.Context, token string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &s, nil
}

func (r *sessionRepo) Delete(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, token)
	return nil
}

func (r *sessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int64
	for token, s := range r.sessions {
		if s.Expired(now) {
			delete(r.sessions, token)
			n++
		}
	}
	return n, nil
}

type messageRepo store

func (r *messageRepo) Create(_ context.Context, m *models.Message) (*models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[m.AccountID]; !ok {
		return nil, common.ErrorNotFound
	}

	r.seq++
	m.ID = uuid.NewString()
	m.CreatedAt = time.Now()
	r.messages[m.ID] = storedMessage{Message: *m, seq: r.seq}
	return m, nil
}

func (r *messageRepo) List(_ context.Context) ([]models.MessageView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := make([]storedMessage, 0, len(r.messages))
	for _, m := range r.messages {
		stored = append(stored, m)
	}
	sort.Slice(stored, func(i, j int) bool { return stored[i].seq > stored[j].seq })

	result := make([]models.MessageView, 0, len(stored))
	for _, m := range stored {
		author := r.accounts[m.AccountID]
		result = append(result, models.MessageView{
			Message:         m.Message,
			AuthorFirstName: author.FirstName,
			AuthorLastName:  author.LastName,
		})
	}
	return result, nil
}

func (r *messageRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.messages, id)
	return nil
}
