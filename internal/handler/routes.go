package handler

import (
	"github.com/Rashmi7205/admin-fam-tree/internal/middleware"
	"github.com/Rashmi7205/admin-fam-tree/internal/model"
	"github.com/labstack/echo/v4"
)

// Register mounts every route on e
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/health", h.HealthCheck)

	e.POST("/api/contact", h.SubmitContact)

	auth := middleware.Auth(h.svc.Auth, h.cookie.Name)
	superAdmin := middleware.RequireRole(model.RoleSuperAdmin)

	e.POST("/api/admin/auth/login", h.Login)
	e.POST("/api/admin/auth/logout", h.Logout, auth)
	e.GET("/api/admin/auth/me", h.Me, auth)

	api := e.Group("/api/admin", auth)

	api.GET("/admins", h.ListAdmins)
	api.POST("/admins", h.CreateAdmin, superAdmin)
	api.PUT("/admins", h.UpdateAdmin, superAdmin)
	api.DELETE("/admins", h.DeleteAdmin, superAdmin)

	api.GET("/users", h.ListUsers)
	api.GET("/users/:id", h.GetUser)
	api.POST("/users", h.CreateUser)
	api.PUT("/users", h.UpdateUser)
	api.DELETE("/users", h.DeleteUser)

	api.GET("/trees", h.ListTrees)
	api.GET("/trees/:id", h.GetTree)
	api.POST("/trees", h.CreateTree)
	api.PUT("/trees", h.UpdateTree)
	api.DELETE("/trees", h.DeleteTree)
	api.GET("/family-trees", h.TreeOptions)

	api.GET("/members", h.ListMembers)
	api.GET("/members/candidates", h.MemberCandidates)
	api.GET("/members/:id", h.GetMember)
	api.GET("/members/:id/candidates", h.MemberCandidates)
	api.POST("/members", h.CreateMember)
	api.PUT("/members", h.UpdateMember)
	api.PUT("/members/:id", h.UpdateMember)
	api.DELETE("/members", h.DeleteMember)
	api.DELETE("/members/:id", h.DeleteMember)

	api.GET("/relationships", h.ListRelationships)
	api.GET("/relationships/options", h.RelationshipOptions)
	api.GET("/relationships/:id", h.GetRelationship)
	api.POST("/relationships", h.CreateRelationship)
	api.PUT("/relationships", h.UpdateRelationship)
	api.DELETE("/relationships", h.DeleteRelationship)

	api.GET("/contacts", h.ListContacts)
	api.GET("/contacts/:id", h.GetContact)
	api.POST("/contacts", h.SubmitContact)
	api.PUT("/contacts", h.UpdateContact)
	api.DELETE("/contacts", h.DeleteContact)
	api.POST("/contacts/reply", h.ReplyContact)

	api.GET("/moderation", h.ListModeration)
	api.GET("/moderation/:id", h.GetModerationItem)
	api.POST("/moderation", h.ReportContent)
	api.PUT("/moderation", h.ModerateContent)
	api.DELETE("/moderation", h.DeleteModerationItem)

	api.GET("/dashboard", h.Dashboard)
	api.GET("/analytics", h.Analytics)
	api.GET("/audit", h.ListAudit)
	api.POST("/upload", h.Upload)
}
