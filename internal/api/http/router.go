package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/opsdeck/support-portal/internal/api/http/handlers"
	"github.com/opsdeck/support-portal/internal/auth"
	"github.com/opsdeck/support-portal/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Tickets        *handlers.TicketsHandler
	Orgs           *handlers.OrgsHandler
	Allocations    *handlers.AllocationsHandler
	Notifications  *handlers.NotificationsHandler
	KB             *handlers.KBHandler
	Ops            *handlers.OpsHandler
	AuthMiddleware *auth.Middleware
}

// RegisterRoutes wires HTTP routes. Capability middleware guards each
// family; per-record tenancy checks live in the services.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/staff/login", cfg.Auth.StaffLogin)
	authGroup.Post("/magic-link", cfg.Auth.RequestMagicLink)
	authGroup.Post("/magic-link/verify", cfg.Auth.VerifyMagicLink)

	v1 := app.Group("/v1", cfg.AuthMiddleware.Authenticate())
	v1.Get("/me", cfg.Auth.Me)

	// Inbox endpoints stay reachable for zero-role accounts so the
	// pending screen can render.
	v1.Get("/notifications", cfg.Notifications.List)
	v1.Get("/notifications/unread-count", cfg.Notifications.UnreadCount)
	v1.Post("/notifications/read-all", cfg.Notifications.MarkAllRead)
	v1.Post("/notifications/:id/read", cfg.Notifications.MarkRead)
	v1.Delete("/notifications/:id", cfg.Notifications.Delete)
	v1.Get("/notifications/preferences", cfg.Notifications.GetPreferences)
	v1.Put("/notifications/preferences", cfg.Notifications.UpdatePreferences)

	// Reads admit anyone with a view capability (clients scoped to their
	// org, ops globally); writes carry the narrower capability each one
	// needs.
	ticketView := auth.RequireAnyCapability(auth.ActionTicketViewOwnOrg, auth.ActionTicketViewAll)
	tickets := v1.Group("/tickets")
	tickets.Post("", auth.RequireCapability(auth.ActionTicketCreate), cfg.Tickets.Create)
	tickets.Get("", ticketView, cfg.Tickets.List)
	tickets.Post("/bulk/status", auth.RequireCapability(auth.ActionTicketBulkUpdate), cfg.Tickets.BulkStatus)
	tickets.Post("/bulk/assignee", auth.RequireCapability(auth.ActionTicketBulkUpdate), cfg.Tickets.BulkAssign)
	tickets.Post("/attachments/:attachmentId/confirm", auth.RequireCapability(auth.ActionTicketCreate), cfg.Tickets.ConfirmAttachment)
	tickets.Get("/:id", ticketView, cfg.Tickets.Get)
	tickets.Patch("/:id/status", ticketView, cfg.Tickets.UpdateStatus)
	tickets.Patch("/:id/priority", auth.RequireCapability(auth.ActionTicketTriage), cfg.Tickets.UpdatePriority)
	tickets.Patch("/:id/assignee", auth.RequireCapability(auth.ActionTicketAssign), cfg.Tickets.Assign)
	tickets.Post("/:id/messages", auth.RequireCapability(auth.ActionTicketCreate), cfg.Tickets.AddMessage)
	tickets.Post("/:id/attachments", auth.RequireCapability(auth.ActionTicketCreate), cfg.Tickets.RegisterAttachment)
	tickets.Get("/:id/timelogs", auth.RequireCapability(auth.ActionTimeLogManage), cfg.Tickets.ListTimeLogs)
	tickets.Post("/:id/timelogs", auth.RequireCapability(auth.ActionTimeLogManage), cfg.Tickets.LogTime)

	timelogs := v1.Group("/timelogs", auth.RequireCapability(auth.ActionTimeLogManage))
	timelogs.Patch("/:logId", cfg.Tickets.UpdateTimeLog)
	timelogs.Delete("/:logId", cfg.Tickets.DeleteTimeLog)

	v1.Get("/my/allocation", auth.RequireRoles(domain.RoleClient), cfg.Allocations.CurrentForClient)

	orgs := v1.Group("/orgs", auth.RequireCapability(auth.ActionOrgManage))
	orgs.Post("", cfg.Orgs.Create)
	orgs.Get("", cfg.Orgs.List)
	orgs.Get("/:id", cfg.Orgs.Get)
	orgs.Patch("/:id", cfg.Orgs.Update)
	orgs.Get("/:id/members", cfg.Orgs.ListMembers)

	// Allocation reads use the view capability; the handlers pin clients
	// to their own org. Writes stay on the manage capability.
	orgAllocations := v1.Group("/orgs/:id/allocations")
	orgAllocations.Get("", auth.RequireCapability(auth.ActionAllocationView), cfg.Allocations.ListForOrg)
	orgAllocations.Get("/current", auth.RequireCapability(auth.ActionAllocationView), cfg.Allocations.CurrentForOrg)
	orgAllocations.Post("/adjust", auth.RequireCapability(auth.ActionAllocationManage), cfg.Allocations.AdjustHours)

	v1.Post("/allocations", auth.RequireCapability(auth.ActionAllocationManage), cfg.Allocations.Create)

	users := v1.Group("/users", auth.RequireCapability(auth.ActionRoleManage))
	users.Post("/:id/roles", cfg.Orgs.AssignRole)
	users.Delete("/:id/roles/:role", cfg.Orgs.RevokeRole)
	users.Put("/:id/password", cfg.Orgs.SetPassword)
	users.Post("/:id/deactivate", cfg.Orgs.DeactivateUser)

	v1.Get("/staff", auth.RequireCapability(auth.ActionTicketAssign), cfg.Orgs.ListStaff)

	kb := v1.Group("/kb", auth.RequireCapability(auth.ActionKBView))
	kb.Get("/categories", cfg.KB.ListCategories)
	kb.Post("/categories", auth.RequireCapability(auth.ActionKBManage), cfg.KB.CreateCategory)
	kb.Get("/articles", cfg.KB.ListArticles)
	kb.Get("/articles/similar", cfg.KB.FindSimilar)
	kb.Get("/articles/:id", cfg.KB.GetArticle)
	kb.Post("/articles", auth.RequireCapability(auth.ActionKBManage), cfg.KB.CreateArticle)
	kb.Put("/articles/:id", auth.RequireCapability(auth.ActionKBManage), cfg.KB.UpdateArticle)
	kb.Post("/articles/:id/publish", auth.RequireCapability(auth.ActionKBManage), cfg.KB.SetPublished)
	kb.Delete("/articles/:id", auth.RequireCapability(auth.ActionKBManage), cfg.KB.DeleteArticle)
	kb.Post("/drafts/from-ticket/:ticketId", auth.RequireCapability(auth.ActionKBManage), cfg.KB.DraftFromTicket)

	ops := v1.Group("/ops", auth.RequireCapability(auth.ActionOpsDashboards))
	ops.Get("/org-health", cfg.Ops.OrgHealth)
	ops.Get("/revenue-projection", cfg.Ops.RevenueProjection)
	ops.Get("/orgs/:id/hours-used", cfg.Ops.HoursUsed)
	ops.Get("/orgs/:id/subscription", cfg.Ops.GetSubscription)
	ops.Get("/orgs/:id/invoices", cfg.Ops.ListInvoices)
}
