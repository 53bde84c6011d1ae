package web

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/clubhouse/internal/common"
	"github.com/dmitrijs2005/clubhouse/internal/logging"
	"github.com/dmitrijs2005/clubhouse/internal/server/config"
	"github.com/dmitrijs2005/clubhouse/internal/server/services"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	accounts AccountService
	messages MessageService
	db       Pinger
	cfg      *config.Config
	logger   logging.Logger
}

func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		accounts: deps.Accounts,
		messages: deps.Messages,
		db:       deps.DB,
		cfg:      deps.Config,
		logger:   deps.Logger.With("module", "web"),
	}
}

func (h *Handler) Index(c *gin.Context) {
	list, err := h.messages.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	principal := principalFrom(c)
	c.HTML(http.StatusOK, "index.html", gin.H{
		"title":       "Clubhouse",
		"currentUser": principal,
		"isAdmin":     principal != nil && principal.IsAdmin,
		"messages":    list,
	})
}

func (h *Handler) SignUpPage(c *gin.Context) {
	c.HTML(http.StatusOK, "sign-up-form.html", gin.H{
		"title":       "Sign Up",
		"currentUser": principalFrom(c),
	})
}

func (h *Handler) SignUp(c *gin.Context) {
	_, err := h.accounts.Register(c.Request.Context(), services.RegisterInput{
		FirstName:       c.PostForm("first_name"),
		LastName:        c.PostForm("last_name"),
		UserName:        c.PostForm("username"),
		Password:        c.PostForm("password"),
		ConfirmPassword: c.PostForm("confirmPassword"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Redirect(http.StatusFound, "/")
}

// LogIn redirects home whether or not the credentials were accepted; only
// the Set-Cookie header differs.
func (h *Handler) LogIn(c *gin.Context) {
	var previous string
	if s := sessionFrom(c); s != nil {
		previous = s.Token
	}

	ticket, err := h.accounts.Login(c.Request.Context(), c.PostForm("username"), c.PostForm("password"), previous)
	if err != nil {
		if errors.Is(err, common.ErrorUnauthorized) {
			c.Redirect(http.StatusFound, "/")
			return
		}
		h.respondError(c, err)
		return
	}

	h.logger.Info(c.Request.Context(), "logged in", "account_id", ticket.Account.ID)
	setSessionCookie(c, ticket.Cookie, int(h.cfg.SessionValidityDuration.Seconds()), h.cfg.CookieSecure)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) LogOut(c *gin.Context) {
	if s := sessionFrom(c); s != nil {
		if err := h.accounts.Logout(c.Request.Context(), s.Token); err != nil {
			h.respondError(c, err)
			return
		}
	}

	clearSessionCookie(c, h.cfg.CookieSecure)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) JoinClubPage(c *gin.Context) {
	c.HTML(http.StatusOK, "join-club.html", gin.H{
		"title":       "Join the Club",
		"currentUser": principalFrom(c),
	})
}

func (h *Handler) JoinClub(c *gin.Context) {
	err := h.accounts.RedeemMembership(c.Request.Context(), principalFrom(c).ID, c.PostForm("passcode"))
	h.respondRedeem(c, err, "/join-club")
}

func (h *Handler) BecomeAdminPage(c *gin.Context) {
	c.HTML(http.StatusOK, "become-admin.html", gin.H{
		"title":       "Become an Admin",
		"currentUser": principalFrom(c),
	})
}

func (h *Handler) BecomeAdmin(c *gin.Context) {
	err := h.accounts.RedeemAdmin(c.Request.Context(), principalFrom(c).ID, c.PostForm("passcode"))
	h.respondRedeem(c, err, "/become-admin")
}

func (h *Handler) respondRedeem(c *gin.Context, err error, retryPath string) {
	if err == nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	if errors.Is(err, common.ErrorPasscodeMismatch) {
		c.Data(http.StatusOK, "text/html; charset=utf-8",
			[]byte("Incorrect passcode. <a href='"+retryPath+"'>Try again</a>"))
		return
	}
	h.respondError(c, err)
}

func (h *Handler) NewMessagePage(c *gin.Context) {
	c.HTML(http.StatusOK, "new-message.html", gin.H{
		"title":       "New Message",
		"currentUser": principalFrom(c),
	})
}

func (h *Handler) CreateMessage(c *gin.Context) {
	_, err := h.messages.Create(c.Request.Context(), principalFrom(c), c.PostForm("title"), c.PostForm("content"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) DeleteMessage(c *gin.Context) {
	if err := h.messages.Delete(c.Request.Context(), principalFrom(c), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) Health(c *gin.Context) {
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		h.logger.Error(c.Request.Context(), "health check failed", "error", err)
		c.String(http.StatusServiceUnavailable, "unavailable")
		return
	}
	c.String(http.StatusOK, "ok")
}

// respondError maps service errors onto HTTP responses. Anything it does not
// recognise is logged and answered with a bare 500.
func (h *Handler) respondError(c *gin.Context, err error) {
	var ve *common.ValidationError

	switch {
	case errors.As(err, &ve):
		c.String(http.StatusBadRequest, ve.Message)
	case errors.Is(err, common.ErrorUnauthorized):
		c.Redirect(http.StatusFound, "/")
	case errors.Is(err, common.ErrorForbidden):
		c.String(http.StatusForbidden, "Unauthorized")
	default:
		h.logger.Error(c.Request.Context(), err.Error(),
			"path", c.Request.URL.Path,
			"request_id", c.GetString(RequestIDHeader),
		)
		c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	}
}
