package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gymstack/rbac/models"
)

// NewGinEngine builds the Gin router and registers the admin API routes.
func NewGinEngine(s *Server) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Admin route group with TokenMiddleware.
	adminGroup := r.Group("/rbac/v1")
	adminGroup.Use(s.TokenMiddleware())

	// Category catalog (module-scoped, ordered)
	adminGroup.GET("/modules/:module/categories", s.HandleListCategoriesGin)
	adminGroup.POST("/modules/:module/categories", s.HandleCreateCategoryGin)
	adminGroup.POST("/modules/:module/categories/:id/move", s.HandleMoveCategoryGin)
	adminGroup.PUT("/modules/:module/categories/:id", s.HandleRenameCategoryGin)
	adminGroup.DELETE("/modules/:module/categories/:id", s.HandleDeleteCategoryGin)

	// Task catalog
	adminGroup.GET("/modules/:module/tasks", s.HandleListTasksGin)
	adminGroup.POST("/modules/:module/tasks", s.HandleCreateTaskGin)
	adminGroup.POST("/modules/:module/tasks/:id/move", s.HandleMoveTaskGin)
	adminGroup.PUT("/modules/:module/tasks/:id", s.HandleUpdateTaskGin)
	adminGroup.PUT("/modules/:module/tasks/:id/bindings", s.HandleBindTaskGin)
	adminGroup.DELETE("/modules/:module/tasks/:id", s.HandleDeleteTaskGin)

	// Roles and bindings (org-scoped)
	adminGroup.GET("/orgs/:orgId/modules/:module/roles", s.HandleListRolesGin)
	adminGroup.POST("/orgs/:orgId/modules/:module/roles", s.HandleCreateRoleGin)
	adminGroup.PUT("/roles/:id", s.HandleRenameRoleGin)
	adminGroup.DELETE("/roles/:id", s.HandleDeleteRoleGin)
	adminGroup.GET("/roles/:id/tasks", s.HandleListRoleBindingsGin)
	adminGroup.PUT("/roles/:id/tasks/:taskId", s.HandleSetRoleTaskGin)

	// Role-user assignments
	adminGroup.GET("/roles/:id/users", s.HandleListRoleUsersGin)
	adminGroup.POST("/roles/:id/users", s.HandleAssignRoleUserGin)
	adminGroup.DELETE("/roles/:id/users/:userId", s.HandleRemoveRoleUserGin)

	// Effective permissions
	adminGroup.GET("/orgs/:orgId/modules/:module/permissions", s.HandleOrgPermissionsGin)
	adminGroup.GET("/orgs/:orgId/users/:userId/modules/:module/permissions", s.HandleUserPermissionsGin)

	// Bulk workflows
	adminGroup.POST("/modules/:module/provision", s.HandleProvisionGin)
	adminGroup.POST("/modules/:module/cleanup", s.HandleCleanupGin)

	return r
}

// moduleParam parses and validates the :module path parameter. On failure it
// writes the error response and returns false.
func moduleParam(c *gin.Context) (models.Module, bool) {
	m := models.Module(c.Param("module"))
	if !m.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "unknown module"})
		return "", false
	}
	return m.Normalize(), true
}

// invalidatePermissions forgets the cached permission set for an org after a
// mutation that changes roles, bindings or assignments. Failures degrade to a
// stale-until-TTL cache, never a failed request.
func (s *Server) invalidatePermissions(c *gin.Context, orgID string, module models.Module) {
	if s.cache == nil || orgID == "" {
		return
	}
	if err := s.cache.Invalidate(c.Request.Context(), orgID, module); err != nil && s.Logger != nil {
		s.Logger.Printf("cache invalidation failed for org %s: %v", orgID, err)
	}
}

// writeStoreError maps domain errors onto HTTP statuses.
func writeStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "error_description": err.Error()})
	case errors.Is(err, models.ErrNameRequired),
		errors.Is(err, models.ErrDuplicateName),
		errors.Is(err, models.ErrDuplicateSlug),
		errors.Is(err, models.ErrPositionOutOfRange),
		errors.Is(err, models.ErrInvalidModule):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": err.Error()})
	case errors.Is(err, models.ErrRequiredRole), errors.Is(err, models.ErrFixedRole):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict", "error_description": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
	}
}
