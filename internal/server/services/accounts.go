// Package services contains server-side business logic. AccountService
// covers registration, log-in/log-out, session resolution and the two
// passcode upgrades.
package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/clubhouse/internal/common"
	"github.com/dmitrijs2005/clubhouse/internal/dbx"
	"github.com/dmitrijs2005/clubhouse/internal/server/auth"
	"github.com/dmitrijs2005/clubhouse/internal/server/config"
	"github.com/dmitrijs2005/clubhouse/internal/server/models"
	"github.com/dmitrijs2005/clubhouse/internal/server/repositories/repomanager"
	"github.com/go-playground/validator/v10"
)

// RegisterInput is the sign-up form as submitted.
type RegisterInput struct {
	FirstName       string `validate:"required"`
	LastName        string `validate:"required"`
	UserName        string `validate:"required,email"`
	Password        string `validate:"required"`
	ConfirmPassword string `validate:"required,eqfield=Password"`
}

// SessionTicket is what a successful log-in hands back to the transport.
type SessionTicket struct {
	Account *models.Account
	Token   string
	Cookie  string
	Expires time.Time
}

type AccountService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	validate        *validator.Validate
	sessionSecret   []byte
	sessionValidity time.Duration
	clubPasscode    string
	adminPasscode   string
	bcryptCost      int
	now             func() time.Time
}

// NewAccountService constructs an AccountService using repositories and server config.
func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *AccountService {
	return &AccountService{
		db:              db,
		repomanager:     m,
		validate:        validator.New(),
		sessionSecret:   []byte(cfg.SessionSecret),
		sessionValidity: cfg.SessionValidityDuration,
		clubPasscode:    cfg.ClubPasscode,
		adminPasscode:   cfg.AdminPasscode,
		bcryptCost:      cfg.BcryptCost,
		now:             time.Now,
	}
}

// NormalizeUserName is applied to usernames both at sign-up and log-in.
func NormalizeUserName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Register validates the form and creates a plain (non-member, non-admin)
// account. Failed validation never reaches the database.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.Account, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.UserName = NormalizeUserName(in.UserName)

	if err := s.validateRegistration(in); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	account := &models.Account{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		UserName:     in.UserName,
		PasswordHash: hash,
	}

	repo := s.repomanager.Accounts(s.db)
	account, err = repo.Create(ctx, account)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.NewValidationError("Username is already taken.")
		}
		return nil, fmt.Errorf("error creating account: %w", err)
	}

	return account, nil
}

func (s *AccountService) validateRegistration(in RegisterInput) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	tags := make(map[string]bool, len(verrs))
	for _, fe := range verrs {
		tags[fe.Tag()] = true
	}

	switch {
	case tags["required"]:
		return common.NewValidationError("All fields are required.")
	case tags["email"]:
		return common.NewValidationError("Username must be a valid email.")
	default:
		return common.NewValidationError("Passwords do not match.")
	}
}

// Login checks the credentials and opens a new session. Unknown usernames and
// wrong passwords both yield common.ErrorUnauthorized. If the client already
// carried a session token it is replaced in the same transaction.
func (s *AccountService) Login(ctx context.Context, userName, password, previousToken string) (*SessionTicket, error) {
	repo := s.repomanager.Accounts(s.db)
	account, err := repo.GetByUserName(ctx, NormalizeUserName(userName))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	ok, err := auth.CheckPassword(account.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}

	token, err := common.MakeRandHexString(common.SessionTokenSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	session := &models.Session{
		Token:     token,
		AccountID: account.ID,
		Expires:   s.now().Add(s.sessionValidity),
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		sessions := s.repomanager.Sessions(tx)
		if previousToken != "" {
			if err := sessions.Delete(ctx, previousToken); err != nil {
				return err
			}
		}
		return sessions.Create(ctx, session)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	cookie, err := auth.SignSessionToken(token, s.sessionSecret, session.Expires)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	return &SessionTicket{Account: account, Token: token, Cookie: cookie, Expires: session.Expires}, nil
}

// ResolveSession turns a cookie value into the session and its account.
// Any cookie that does not lead to a live session yields common.ErrorUnauthorized;
// expired sessions are deleted on sight.
func (s *AccountService) ResolveSession(ctx context.Context, cookie string) (*models.Session, *models.Account, error) {
	token, err := auth.ParseSessionToken(cookie, s.sessionSecret)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", common.ErrorUnauthorized, err)
	}

	sessions := s.repomanager.Sessions(s.db)
	session, err := sessions.Find(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorUnauthorized
		}
		return nil, nil, err
	}

	if session.Expired(s.now()) {
		if err := sessions.Delete(ctx, token); err != nil {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %v", common.ErrorUnauthorized, common.ErrSessionExpired)
	}

	account, err := s.repomanager.Accounts(s.db).GetByID(ctx, session.AccountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorUnauthorized
		}
		return nil, nil, err
	}

	return session, account, nil
}

// Logout destroys the session. Unknown tokens are ignored.
func (s *AccountService) Logout(ctx context.Context, token string) error {
	if err := s.repomanager.Sessions(s.db).Delete(ctx, token); err != nil {
		return fmt.Errorf("error deleting session: %w", err)
	}
	return nil
}

// SweepExpiredSessions removes every session past its expiry.
func (s *AccountService) SweepExpiredSessions(ctx context.Context) (int64, error) {
	return s.repomanager.Sessions(s.db).DeleteExpired(ctx, s.now())
}

// RedeemMembership sets the membership flag when passcode matches the club
// passcode exactly, otherwise returns common.ErrorPasscodeMismatch.
func (s *AccountService) RedeemMembership(ctx context.Context, accountID, passcode string) error {
	return s.redeem(ctx, s.clubPasscode, passcode, func(ctx context.Context) error {
		return s.repomanager.Accounts(s.db).SetMember(ctx, accountID)
	})
}

// RedeemAdmin is RedeemMembership for the admin flag.
func (s *AccountService) RedeemAdmin(ctx context.Context, accountID, passcode string) error {
	return s.redeem(ctx, s.adminPasscode, passcode, func(ctx context.Context) error {
		return s.repomanager.Accounts(s.db).SetAdmin(ctx, accountID)
	})
}

func (s *AccountService) redeem(ctx context.Context, secret, passcode string, grant func(context.Context) error) error {
	if secret == "" || !s.checkPasscode(secret, passcode) {
		return common.ErrorPasscodeMismatch
	}
	if err := grant(ctx); err != nil {
		return fmt.Errorf("error granting privilege: %w", err)
	}
	return nil
}

func (s *AccountService) checkPasscode(secret, candidate string) bool {
	return subtle.ConstantTimeCompare([]byte(secret), []byte(candidate)) == 1
}
