package main

import (
	"time"

	"github.com/QAStudio-Dev/studio-sub003/internal/config"
	"github.com/QAStudio-Dev/studio-sub003/internal/handlers"
	"github.com/QAStudio-Dev/studio-sub003/internal/middleware"
	"github.com/QAStudio-Dev/studio-sub003/internal/services"
	"github.com/QAStudio-Dev/studio-sub003/pkg/logger"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type routerDeps struct {
	db                 *gorm.DB
	cfg                *config.Config
	rateLimiter        *services.RateLimiter
	accessService      *services.AccessService
	seatService        *services.SeatService
	teamService        *services.TeamService
	billingService     *services.BillingService
	projectService     *services.ProjectService
	suiteService       *services.SuiteService
	runService         *services.RunService
	milestoneService   *services.MilestoneService
	environmentService *services.EnvironmentService
	attachmentService  *services.AttachmentService
	integrationService *services.IntegrationService
	authService        *services.AuthService
	auditService       *services.AuditService
}

func setupRouter(deps *routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.Use(middleware.CORS())

	healthHandler := handlers.NewHealthHandler(deps.db)
	r.GET("/health", healthHandler.Check)

	authHandler := handlers.NewAuthHandler(deps.authService)
	projectHandler := handlers.NewProjectHandler(deps.projectService)
	teamHandler := handlers.NewTeamHandler(deps.db, deps.teamService, deps.seatService, deps.accessService)
	billingHandler := handlers.NewBillingHandler(deps.db, deps.billingService, deps.accessService)
	suiteHandler := handlers.NewSuiteHandler(deps.suiteService)
	runHandler := handlers.NewRunHandler(deps.runService)
	milestoneHandler := handlers.NewMilestoneHandler(deps.milestoneService)
	environmentHandler := handlers.NewEnvironmentHandler(deps.environmentService)
	attachmentHandler := handlers.NewAttachmentHandler(deps.attachmentService)
	integrationHandler := handlers.NewIntegrationHandler(deps.integrationService)
	auditHandler := handlers.NewAuditHandler(deps.auditService, deps.accessService)

	mutationWindow := time.Duration(deps.cfg.RateLimit.MutationWindow) * time.Second
	mutationLimit := deps.cfg.RateLimit.MutationLimit
	mutations := middleware.SlidingWindow(deps.rateLimiter, "mutations", mutationLimit, mutationWindow)

	// Auth and invitation-token endpoints get an additional per-IP throttle
	// to slow brute force on credentials and tokens.
	ipThrottle := middleware.NewIPRateLimiter(5, 10).Middleware()

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		auth.Use(ipThrottle)
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/info", authHandler.AuthInfo)
		}

		protected := api.Group("")
		protected.Use(middleware.AuthRequired(), middleware.AuditLog())
		{
			protected.GET("/auth/me", authHandler.Me)
			protected.POST("/auth/logout", authHandler.Logout)
			protected.POST("/auth/change-password", authHandler.ChangePassword)

			// Projects
			protected.GET("/projects", projectHandler.List)
			protected.POST("/projects", mutations, projectHandler.Create)
			protected.GET("/projects/p/:publicId", projectHandler.GetByPublicID)
			protected.GET("/projects/:id", projectHandler.GetByID)
			protected.PUT("/projects/:id", mutations, projectHandler.Update)
			protected.DELETE("/projects/:id", mutations, projectHandler.Delete)
			protected.POST("/projects/:id/share", mutations, projectHandler.Share)
			protected.POST("/projects/:id/unshare", mutations, projectHandler.Unshare)

			// Suites and cases
			protected.GET("/projects/:id/suites", suiteHandler.List)
			protected.POST("/projects/:id/suites", mutations, suiteHandler.Create)
			protected.DELETE("/suites/:id", mutations, suiteHandler.Delete)
			protected.GET("/suites/:id/cases", suiteHandler.ListCases)
			protected.POST("/suites/:id/cases", mutations, suiteHandler.CreateCase)
			protected.PUT("/cases/:id", mutations, suiteHandler.UpdateCase)
			protected.DELETE("/cases/:id", mutations, suiteHandler.DeleteCase)

			// Runs and results
			protected.GET("/projects/:id/runs", runHandler.List)
			protected.POST("/projects/:id/runs", mutations, runHandler.Create)
			protected.GET("/runs/:id", runHandler.Get)
			protected.GET("/runs/:id/results", runHandler.ListResults)
			protected.POST("/runs/:id/results", mutations, runHandler.RecordResult)
			protected.POST("/runs/:id/close", mutations, runHandler.Close)

			// Milestones and environments
			protected.GET("/projects/:id/milestones", milestoneHandler.List)
			protected.POST("/projects/:id/milestones", mutations, milestoneHandler.Create)
			protected.PUT("/milestones/:id", mutations, milestoneHandler.Update)
			protected.DELETE("/milestones/:id", mutations, milestoneHandler.Delete)
			protected.GET("/projects/:id/environments", environmentHandler.List)
			protected.POST("/projects/:id/environments", mutations, environmentHandler.Create)
			protected.DELETE("/environments/:id", mutations, environmentHandler.Delete)

			// Attachments
			protected.GET("/projects/:id/attachments", attachmentHandler.List)
			protected.POST("/projects/:id/attachments", mutations, attachmentHandler.Upload)
			protected.GET("/attachments/:id", attachmentHandler.Download)
			protected.DELETE("/attachments/:id", mutations, attachmentHandler.Delete)

			// Teams, membership and invitations
			protected.POST("/teams", mutations, teamHandler.Create)
			protected.GET("/teams/mine", teamHandler.Get)
			protected.GET("/teams/mine/seats", teamHandler.SeatStatus)
			protected.POST("/teams/mine/leave", mutations, teamHandler.Leave)
			protected.POST("/teams/mine/members/remove", mutations, teamHandler.RemoveMembers)
			protected.GET("/teams/mine/invitations", teamHandler.ListInvitations)
			protected.POST("/teams/mine/invitations", mutations, teamHandler.Invite)
			protected.DELETE("/teams/mine/invitations/:id", mutations, teamHandler.CancelInvitation)
			protected.POST("/invitations/:token/accept", ipThrottle, mutations, teamHandler.Accept)
			protected.POST("/invitations/:token/decline", ipThrottle, mutations, teamHandler.Decline)

			// Billing
			protected.GET("/billing/subscription", billingHandler.GetSubscription)
			protected.POST("/billing/checkout", mutations, billingHandler.CheckoutCompleted)
			protected.PUT("/billing/seats", mutations, billingHandler.UpdateSeats)
			protected.PUT("/billing/status", mutations, billingHandler.UpdateStatus)

			// Integrations
			protected.GET("/integrations", integrationHandler.List)
			protected.POST("/integrations", mutations, integrationHandler.Create)
			protected.PUT("/integrations/:id", mutations, integrationHandler.Update)
			protected.DELETE("/integrations/:id", mutations, integrationHandler.Delete)

			// Audit
			protected.GET("/audit-logs", auditHandler.List)
		}
	}

	return r
}
