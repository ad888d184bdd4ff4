package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/soportek/helpdesk-api/internal/api/http/handlers"
	"github.com/soportek/helpdesk-api/internal/auth"
	"github.com/soportek/helpdesk-api/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	Inventory      *handlers.InventoryHandler
	Audit          *handlers.AuditHandler
	Metrics        *handlers.MetricsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/password/reset/request", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", cfg.Auth.ConfirmPasswordReset)

	authProtected := authGroup.Group("", cfg.AuthMiddleware.Handle)
	authProtected.Post("/password/change", cfg.Auth.ChangePassword)
	authProtected.Get("/2fa/status", cfg.Auth.TwoFactorStatus)
	authProtected.Post("/2fa/enroll", cfg.Auth.EnrollTwoFactor)
	authProtected.Post("/2fa/verify", cfg.Auth.VerifyTwoFactor)
	authProtected.Post("/2fa/disable", cfg.Auth.DisableTwoFactor)

	users := app.Group("/users", cfg.AuthMiddleware.Handle)
	users.Get("/me", cfg.Users.GetProfile)
	users.Put("/me", cfg.Users.UpdateProfile)
	users.Get("/me/settings", cfg.Users.GetSettings)
	users.Put("/me/settings", cfg.Users.SaveSettings)

	tickets := app.Group("/tickets", cfg.AuthMiddleware.Handle)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/search", cfg.Tickets.SearchTickets)
	tickets.Get("/stats", cfg.Tickets.TicketStats)
	tickets.Get("/report", cfg.Tickets.ExportTicketsCSV)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Delete("/:id", cfg.Tickets.DeleteTicket)
	tickets.Post("/:id/comments", cfg.Tickets.AddComment)
	tickets.Post("/:id/attachments", cfg.Tickets.AddAttachment)

	inventory := app.Group("/inventory", cfg.AuthMiddleware.Handle,
		auth.RequireRole(domain.RoleAdministrator, domain.RoleTechnician))
	inventory.Get("/", cfg.Inventory.ListItems)
	inventory.Post("/", cfg.Inventory.CreateItem)
	inventory.Get("/:id", cfg.Inventory.GetItem)
	inventory.Put("/:id", cfg.Inventory.UpdateItem)
	inventory.Delete("/:id", cfg.Inventory.DeleteItem)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdministrator))
	admin.Get("/users", cfg.Users.ListUsers)
	admin.Get("/users/:id", cfg.Users.GetUser)
	admin.Patch("/users/:id/role", cfg.Users.ChangeRole)
	admin.Patch("/users/:id/active", cfg.Users.SetActive)
	admin.Delete("/users/:id", cfg.Users.DeleteUser)
	admin.Get("/audit", cfg.Audit.ListRecent)
	admin.Get("/audit/:table/:id", cfg.Audit.ListForRecord)
	admin.Get("/metrics", cfg.Metrics.Snapshot)
}
