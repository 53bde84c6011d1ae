package web

import (
	"context"
	"embed"
	"html/template"
	"io/fs"
	"net/http"

	"github.com/dmitrijs2005/clubhouse/internal/logging"
	"github.com/dmitrijs2005/clubhouse/internal/server/auth"
	"github.com/dmitrijs2005/clubhouse/internal/server/config"
	"github.com/dmitrijs2005/clubhouse/internal/server/models"
	"github.com/dmitrijs2005/clubhouse/internal/server/services"
	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// AccountService is what the handlers need from services.AccountService.
type AccountService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.Account, error)
	Login(ctx context.Context, userName, password, previousToken string) (*services.SessionTicket, error)
	ResolveSession(ctx context.Context, cookie string) (*models.Session, *models.Account, error)
	Logout(ctx context.Context, token string) error
	RedeemMembership(ctx context.Context, accountID, passcode string) error
	RedeemAdmin(ctx context.Context, accountID, passcode string) error
}

// MessageService is what the handlers need from services.MessageService.
type MessageService interface {
	Create(ctx context.Context, author *models.Account, title, content string) (*models.Message, error)
	List(ctx context.Context) ([]models.MessageView, error)
	Delete(ctx context.Context, principal *models.Account, id string) error
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Dependencies struct {
	Config   *config.Config
	Accounts AccountService
	Messages MessageService
	DB       Pinger
	Logger   logging.Logger
}

// NewRouter wires middleware, templates, static assets and routes.
func NewRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	if err := router.SetTrustedProxies(deps.Config.TrustedProxies); err != nil {
		panic(err)
	}
	router.Use(RequestID())
	router.Use(Logger(deps.Logger))
	router.Use(gin.Recovery())

	tmpl := template.Must(template.New("").ParseFS(templatesFS, "templates/*.html"))
	router.SetHTMLTemplate(tmpl)

	staticSubFS, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	router.StaticFS("/static", http.FS(staticSubFS))

	h := NewHandler(deps)

	router.GET("/healthz", h.Health)

	board := router.Group("/")
	board.Use(LoadSession(deps.Accounts, deps.Config.CookieSecure, deps.Logger))
	{
		board.GET("/", h.Index)
		board.GET("/sign-up", h.SignUpPage)
		board.POST("/sign-up", h.SignUp)

		login := board.Group("/log-in")
		if deps.Config.LoginRateLimit > 0 {
			login.Use(NewRateLimiter(deps.Config.LoginRateLimit).Middleware())
		}
		login.POST("", h.LogIn)

		members := board.Group("/")
		members.Use(RequireTier(auth.TierAuthenticated))
		{
			members.GET("/log-out", h.LogOut)
			members.GET("/join-club", h.JoinClubPage)
			members.POST("/join-club", h.JoinClub)
			members.GET("/become-admin", h.BecomeAdminPage)
			members.POST("/become-admin", h.BecomeAdmin)
			members.GET("/messages/new", h.NewMessagePage)
			members.POST("/messages/new", h.CreateMessage)
		}

		admins := board.Group("/")
		admins.Use(RequireTier(auth.TierAdmin))
		{
			admins.POST("/messages/:id/delete", h.DeleteMessage)
		}
	}

	return router
}
