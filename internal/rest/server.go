package rest

import (
	"net/http"
	"time"

	"github.com/Dpatt168/RoGrouper-sub001/internal/automation"
	"github.com/Dpatt168/RoGrouper-sub001/internal/redis"
	"github.com/Dpatt168/RoGrouper-sub001/internal/rest/handler"
	adminGate "github.com/Dpatt168/RoGrouper-sub001/internal/rest/middleware/admin"
	"github.com/Dpatt168/RoGrouper-sub001/internal/rest/middleware/ratelimit"
	"github.com/Dpatt168/RoGrouper-sub001/internal/roblox/fetcher"
	"github.com/Dpatt168/RoGrouper-sub001/internal/roblox/oauth"
	"github.com/Dpatt168/RoGrouper-sub001/internal/session"
	"github.com/Dpatt168/RoGrouper-sub001/internal/setup"
	"github.com/klauspost/compress/gzhttp"
	"github.com/uptrace/bunrouter"
)

// Server implements the dashboard REST API service.
type Server struct {
	authHandler       *handler.AuthHandler
	adminHandler      *handler.AdminHandler
	pendingHandler    *handler.PendingJoinHandler
	botHandler        *handler.BotHandler
	groupHandler      *handler.GroupHandler
	userHandler       *handler.UserHandler
	automationHandler *handler.AutomationHandler
}

// NewServer creates the REST API server with all routes wired up.
func NewServer(app *setup.App) (http.Handler, error) {
	cfg := &app.Config.API
	logger := app.Logger.Named("rest")

	// Roblox API access layers
	groupFetcher := fetcher.NewGroupFetcher(app.RoAPI, logger)
	userFetcher := fetcher.NewUserFetcher(app.RoAPI, logger)
	thumbnailFetcher := fetcher.NewThumbnailFetcher(app.RoAPI, logger)
	botFetcher := fetcher.NewBotFetcher(
		app.RoAPI, groupFetcher, time.Duration(cfg.BotCache.TTL)*time.Minute, logger,
	)

	requestTimeout := time.Duration(cfg.RequestTimeout) * time.Millisecond
	roleManager := fetcher.NewRoleManager(app.BotCookie, requestTimeout, logger)

	// OAuth sign-in flow
	stateClient, err := app.RedisManager.GetClient(redis.OAuthStateDBIndex)
	if err != nil {
		return nil, err
	}

	provider := oauth.New(oauth.Config{
		ClientID:     app.Config.Common.Roblox.ClientID,
		ClientSecret: app.Config.Common.Roblox.ClientSecret,
		RedirectURI:  app.Config.Common.Roblox.RedirectURI,
	}, requestTimeout, logger)
	states := oauth.NewStateStore(stateClient, time.Duration(cfg.Session.StateTTL)*time.Second, logger)
	sessions := session.NewManager(&cfg.Session, logger)

	sweeper := automation.NewSweeper(
		app.DB.Model().Automation(), app.DB.Model().Audit(), roleManager, logger,
	)

	server := &Server{
		authHandler:       handler.NewAuthHandler(provider, states, sessions, thumbnailFetcher, logger),
		adminHandler:      handler.NewAdminHandler(app.DB, logger),
		pendingHandler:    handler.NewPendingJoinHandler(app.DB, groupFetcher, logger),
		botHandler:        handler.NewBotHandler(botFetcher, logger),
		groupHandler:      handler.NewGroupHandler(groupFetcher, logger),
		userHandler:       handler.NewUserHandler(userFetcher, thumbnailFetcher, logger),
		automationHandler: handler.NewAutomationHandler(
			app.DB.Model().Automation(), app.DB.Model().Audit(), roleManager, sweeper, logger,
		),
	}

	rateLimiter := ratelimit.New(&cfg.RateLimit, logger)
	adminMiddleware := adminGate.New(app.DB, logger)

	router := bunrouter.New()

	router.Use(rateLimiter.AsRESTMiddleware).WithGroup("/api", func(g *bunrouter.Group) {
		// Sign-in flow stays outside the session gate
		g.WithGroup("/auth", func(g *bunrouter.Group) {
			g.GET("/login", server.authHandler.Login)
			g.GET("/callback", server.authHandler.Callback)
			g.POST("/logout", server.authHandler.Logout)
			g.GET("/me", server.authHandler.Me)
		})

		g.Use(sessions.AsRESTMiddleware).WithGroup("", func(g *bunrouter.Group) {
			g.GET("/admin/check", server.adminHandler.Check)

			g.GET("/bot/info", server.botHandler.Info)
			g.GET("/groups/:groupId/bot-role", server.botHandler.Rank)
			g.GET("/groups/:groupId/members", server.groupHandler.Members)
			g.GET("/groups/:groupId/roles", server.groupHandler.Roles)
			g.POST("/groups/:groupId/join-request", server.pendingHandler.Create)

			g.GET("/roblox/user/:userId", server.userHandler.Profile)
			g.GET("/roblox/users", server.userHandler.Search)
			g.GET("/users/avatars", server.userHandler.Avatars)

			g.GET("/automation/:groupId", server.automationHandler.Get)
			g.PUT("/automation/:groupId", server.automationHandler.Update)
			g.POST("/automation/:groupId/suspensions", server.automationHandler.Suspend)
			g.DELETE("/automation/:groupId/suspensions/:userId", server.automationHandler.Unsuspend)

			// Admin-only surface
			g.Use(adminMiddleware.AsRESTMiddleware).WithGroup("", func(g *bunrouter.Group) {
				g.GET("/admin/pending-joins", server.pendingHandler.List)
				g.POST("/admin/pending-joins", server.pendingHandler.Action)
				g.GET("/admin/site-admins", server.adminHandler.GetSiteAdmins)
				g.POST("/admin/site-admins", server.adminHandler.UpdateSiteAdmins)
				g.GET("/admin/audit-log", server.adminHandler.GetAuditLog)
				g.POST("/automation/sweep", server.automationHandler.Sweep)
			})
		})
	})

	return gzhttp.GzipHandler(router), nil
}
