package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/clubhouse/internal/common"
	"github.com/dmitrijs2005/clubhouse/internal/logging"
	"github.com/dmitrijs2005/clubhouse/internal/server/config"
	"github.com/dmitrijs2005/clubhouse/internal/server/models"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/memory"
	"github.com/dmitrijs2005/clubhouse/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	clubPasscode  = "open-sesame"
	adminPasscode = "root-me"
)

var errBoom = errors.New("boom")

type testEnv struct {
	router http.Handler
	rm     *memory.RepositoryManager
	mock   sqlmock.Sqlmock
	cfg    *config.Config
}

func testConfig() *config.Config {
	return &config.Config{
		SessionSecret:           "test-secret",
		SessionValidityDuration: time.Hour,
		ClubPasscode:            clubPasscode,
		AdminPasscode:           adminPasscode,
		BcryptCost:              bcrypt.MinCost,
	}
}

func newTestEnv(t *testing.T, tweak ...func(*config.Config)) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cfg := testConfig()
	for _, f := range tweak {
		f(cfg)
	}

	rm := memory.NewRepositoryManager()
	router := NewRouter(Dependencies{
		Config:   cfg,
		Accounts: services.NewAccountService(db, rm, cfg),
		Messages: services.NewMessageService(db, rm),
		DB:       db,
		Logger:   logging.Nop{},
	})

	return &testEnv{router: router, rm: rm, mock: mock, cfg: cfg}
}

func (e *testEnv) do(t *testing.T, method, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	return serve(e.router, method, path, form, cookies...)
}

func serve(h http.Handler, method, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, path, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range cookies {
		if c != nil {
			req.AddCookie(c)
		}
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) signUp(t *testing.T, first, last, username, password string) {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/sign-up", url.Values{
		"first_name":      {first},
		"last_name":       {last},
		"username":        {username},
		"password":        {password},
		"confirmPassword": {password},
	})
	require.Equal(t, http.StatusFound, rec.Code, rec.Body.String())
}

// logIn performs a successful log-in and returns the session cookie.
func (e *testEnv) logIn(t *testing.T, username, password string, current ...*http.Cookie) *http.Cookie {
	t.Helper()
	e.mock.ExpectBegin()
	e.mock.ExpectCommit()

	rec := e.do(t, http.MethodPost, "/log-in", url.Values{"username": {username}, "password": {password}}, current...)
	require.Equal(t, http.StatusFound, rec.Code)
	require.NoError(t, e.mock.ExpectationsWereMet())

	c := sessionCookie(rec)
	require.NotNil(t, c, "log-in must set the session cookie")
	require.NotEmpty(t, c.Value)
	return c
}

func (e *testEnv) account(t *testing.T, username string) *models.Account {
	t.Helper()
	a, err := e.rm.Accounts(nil).GetByUserName(context.Background(), username)
	require.NoError(t, err)
	return a
}

func (e *testEnv) listing(t *testing.T) []models.MessageView {
	t.Helper()
	list, err := e.rm.Messages(nil).List(context.Background())
	require.NoError(t, err)
	return list
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == common.SessionCookieName {
			return c
		}
	}
	return nil
}

// fakeAccounts fails ResolveSession; every other method panics if reached.
type fakeAccounts struct {
	AccountService
	resolveErr error
}

func (f *fakeAccounts) ResolveSession(context.Context, string) (*models.Session, *models.Account, error) {
	return nil, nil, f.resolveErr
}

type fakeMessages struct {
	MessageService
	listErr error
}

func (f *fakeMessages) List(context.Context) ([]models.MessageView, error) {
	return nil, f.listErr
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(context.Context) error { return p.err }

func serveWithHeader(h http.Handler, key, value string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(key, value)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
