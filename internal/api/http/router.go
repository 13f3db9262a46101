package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/case-service/internal/api/http/handlers"
	"github.com/spec-kit/case-service/internal/auth"
	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/repository"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Cases          *handlers.CasesHandler
	Evidences      *handlers.EvidencesHandler
	Suspects       *handlers.SuspectsHandler
	Rewards        *handlers.RewardsHandler
	Stats          *handlers.StatsHandler
	AuthMiddleware *auth.AuthMiddleware
	Directory      repository.DirectoryRepository
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	// public board and dashboard
	app.Get("/stats", cfg.Stats.Stats)
	app.Get("/suspects/most-wanted", cfg.Suspects.MostWanted)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)
	authGroup.Post("/password/reset/request", cfg.Users.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Users.ConfirmPasswordReset)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, cfg.Users.ChangePassword)

	protected := app.Group("", cfg.AuthMiddleware.Handle)

	protected.Get("/users/me", cfg.Users.Profile)
	admin := protected.Group("", auth.RequireRole(domain.RoleAdmin))
	admin.Get("/users", cfg.Users.ListUsers)
	admin.Get("/roles", cfg.Users.ListRoles)
	admin.Put("/users/:id/roles", cfg.Users.ReplaceRoles)
	admin.Put("/users/:id/reports-to", cfg.Users.SetReportsTo)

	cases := protected.Group("/cases")
	cases.Post("", auth.RequireCapability(cfg.Directory, domain.CapCaseCreate), cfg.Cases.CreateCase)
	cases.Get("", cfg.Cases.ListCases)
	cases.Get("/:id", cfg.Cases.GetCase)
	cases.Patch("/:id", auth.RequireCapability(cfg.Directory, domain.CapCaseEdit), cfg.Cases.UpdateCase)
	cases.Delete("/:id", auth.RequireCapability(cfg.Directory, domain.CapCaseDelete), cfg.Cases.DeleteCase)
	cases.Post("/:id/workflow", cfg.Cases.Advance)
	cases.Get("/:id/history", cfg.Cases.ListHistory)
	cases.Post("/:id/close", auth.RequireCapability(cfg.Directory, domain.CapCaseEdit), cfg.Cases.CloseCase)

	cases.Post("/:id/evidences", auth.RequireCapability(cfg.Directory, domain.CapEvidenceCreate), cfg.Evidences.Record)
	cases.Get("/:id/evidences", auth.RequireCapability(cfg.Directory, domain.CapEvidenceRead), cfg.Evidences.ListByCase)
	protected.Get("/evidences/:id", auth.RequireCapability(cfg.Directory, domain.CapEvidenceRead), cfg.Evidences.Get)

	cases.Post("/:id/suspects", auth.RequireCapability(cfg.Directory, domain.CapCaseEdit), cfg.Suspects.Register)
	cases.Get("/:id/suspects", auth.RequireCapability(cfg.Directory, domain.CapCaseRead), cfg.Suspects.ListByCase)
	suspects := protected.Group("/suspects")
	suspects.Get("/:id", auth.RequireCapability(cfg.Directory, domain.CapCaseRead), cfg.Suspects.Get)
	suspects.Post("/:id/investigations", cfg.Suspects.SubmitInvestigation)
	suspects.Get("/:id/investigations", auth.RequireCapability(cfg.Directory, domain.CapCaseRead), cfg.Suspects.ListInvestigations)
	suspects.Post("/:id/verdict", cfg.Suspects.SetVerdict)

	rewards := protected.Group("/rewards")
	rewards.Post("", auth.RequireRole(domain.RoleAdmin, domain.RoleChiefPolice), cfg.Rewards.Issue)
	rewards.Post("/claim", cfg.Rewards.Claim)
	rewards.Get("/history", cfg.Rewards.History)
}
