package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gymstack/rbac/provision"
)

func (s *Server) HandleProvisionGin(c *gin.Context) {
	module, ok := moduleParam(c)
	if !ok {
		return
	}
	var body struct {
		OrgID          string `json:"orgId"`
		Force          bool   `json:"force"`
		SkipCategories bool   `json:"skipCategories"`
		SkipTasks      bool   `json:"skipTasks"`
		SkipRoles      bool   `json:"skipRoles"`
		NoAssignments  bool   `json:"noAssignments"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	cat, err := provision.CatalogFor(module)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	report, err := s.Engine().Provision(c.Request.Context(), cat, provision.Options{
		OrgID:          body.OrgID,
		Force:          body.Force,
		SkipCategories: body.SkipCategories,
		SkipTasks:      body.SkipTasks,
		SkipRoles:      body.SkipRoles,
		NoAssignments:  body.NoAssignments,
	})
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}

func (s *Server) HandleCleanupGin(c *gin.Context) {
	module, ok := moduleParam(c)
	if !ok {
		return
	}
	var body struct {
		OrgID          string `json:"orgId"`
		DryRun         bool   `json:"dryRun"`
		RolesOnly      bool   `json:"rolesOnly"`
		TasksOnly      bool   `json:"tasksOnly"`
		CategoriesOnly bool   `json:"categoriesOnly"`
		KeepCategories bool   `json:"keepCategories"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	report, err := s.Engine().Cleanup(c.Request.Context(), module, provision.CleanupOptions{
		OrgID:          body.OrgID,
		DryRun:         body.DryRun,
		RolesOnly:      body.RolesOnly,
		TasksOnly:      body.TasksOnly,
		CategoriesOnly: body.CategoriesOnly,
		KeepCategories: body.KeepCategories,
	})
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"report": report})
}
