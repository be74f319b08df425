package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"flowproject-backend-go/internal/core"
	"flowproject-backend-go/internal/middleware"
)

// Services bundles the core services the routes depend on.
type Services struct {
	Provisioning core.ProvisioningService
	Companies    core.CompanyService
	Users        core.UserService
	Teams        core.TeamService
	Projects     core.ProjectService
}

// SetupRoutes configures all the application routes with their handlers and middleware.
// Global middleware (Logging, Recovery, CORS) is applied to router by the caller.
func SetupRoutes(
	router *gin.Engine,
	logger *zap.Logger,
	authMW *middleware.AuthMiddleware,
	tenantMW *middleware.TenantMiddleware,
	services Services,
	hub BoardServer,
	allowedOrigins []string,
) {
	callableHandler := NewCallableHandler(authMW, services.Provisioning, logger)
	sessionHandler := NewSessionHandler()
	companyHandler := NewCompanyHandler(services.Companies, services.Provisioning, logger)
	userHandler := NewUserHandler(services.Users, services.Provisioning, logger)
	teamHandler := NewTeamHandler(services.Teams, logger)
	projectHandler := NewProjectHandler(services.Projects, logger)
	boardHandler := NewBoardHandler(services.Projects, hub, allowedOrigins, logger)

	// Callable procedures authenticate themselves and answer in the callable envelope.
	callable := router.Group("/callable")
	{
		callable.POST("/createUserInTenant", callableHandler.CreateUserInTenant)
		callable.POST("/createCompanyWithAdmin", callableHandler.CreateCompanyWithAdmin)
	}

	apiV1 := router.Group("/api/v1", authMW.VerifyToken(), tenantMW.ResolveSession())
	{
		apiV1.GET("/session", sessionHandler.GetSession)

		companies := apiV1.Group("/companies")
		{
			companies.POST("", tenantMW.RequireSuperAdmin(), companyHandler.CreateCompany)
			companies.GET("", tenantMW.RequireSuperAdmin(), companyHandler.ListCompanies)
			companies.GET("/:companyId", tenantMW.RequireSuperAdmin(), companyHandler.GetCompany)
			companies.PUT("/:companyId/active", tenantMW.RequireSuperAdmin(), companyHandler.SetCompanyActive)
		}

		tenant := apiV1.Group("/companies/:companyId", tenantMW.RequireCompany("companyId"))
		{
			users := tenant.Group("/users")
			{
				users.POST("", userHandler.CreateUser)
				users.GET("", userHandler.ListUsers)
				users.GET("/:uid", userHandler.GetUser)
				users.PATCH("/:uid", userHandler.UpdateUser)
				users.PUT("/:uid/managed-teams", userHandler.SetManagedTeams)
			}

			teams := tenant.Group("/teams")
			{
				teams.POST("", teamHandler.CreateTeam)
				teams.GET("", teamHandler.ListTeams)
				teams.PATCH("/:teamId", teamHandler.UpdateTeam)
				teams.DELETE("/:teamId", teamHandler.DeleteTeam)
			}

			projects := tenant.Group("/projects")
			{
				projects.POST("", projectHandler.CreateProject)
				projects.GET("", projectHandler.ListProjects)
				projects.GET("/:projectId", projectHandler.GetProject)
				projects.PATCH("/:projectId", projectHandler.UpdateProject)
				projects.DELETE("/:projectId", projectHandler.DeleteProject)
				projects.PATCH("/:projectId/status", projectHandler.MoveProject)
			}

			tenant.GET("/board", boardHandler.GetBoard)
			tenant.GET("/board/ws", boardHandler.StreamBoard)
		}
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "FlowProject backend is healthy."})
	})

	logger.Info("API routes configured successfully under /callable, /api/v1 and /health.")
}
