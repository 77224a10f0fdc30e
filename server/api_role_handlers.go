package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gymstack/rbac/models"
	"github.com/gymstack/rbac/store"
)

func (s *Server) HandleListRolesGin(c *gin.Context) {
	module, ok := moduleParam(c)
	if !ok {
		return
	}
	orgID := strings.TrimSpace(c.Param("orgId"))
	db, err := s.GetDB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	roles, err := store.NewRoleStore(db).ListByOrg(c.Request.Context(), orgID, module)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"roles": roles})
}

func (s *Server) HandleCreateRoleGin(c *gin.Context) {
	module, ok := moduleParam(c)
	if !ok {
		return
	}
	orgID := strings.TrimSpace(c.Param("orgId"))
	db, err := s.GetDB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	var body struct {
		Name    string   `json:"name"`
		TaskIDs []string `json:"taskIds"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	role := models.Role{
		OrgID:    orgID,
		Name:     body.Name,
		Module:   module,
		IsActive: true,
	}
	created, err := store.NewRoleStore(db).Create(c.Request.Context(), role, body.TaskIDs)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	s.invalidatePermissions(c, orgID, module)
	c.JSON(http.StatusOK, gin.H{"role": created})
}

func (s *Server) HandleRenameRoleGin(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	db, err := s.GetDB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	var body struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if err := store.NewRoleStore(db).Rename(c.Request.Context(), id, body.Name); err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (s *Server) HandleDeleteRoleGin(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	force := strings.EqualFold(c.Query("force"), "true")
	db, err := s.GetDB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	roleStore := store.NewRoleStore(db)
	role, err := roleStore.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	if role == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
		return
	}
	if err := roleStore.Delete(c.Request.Context(), id, force); err != nil {
		writeStoreError(c, err)
		return
	}
	s.invalidatePermissions(c, role.OrgID, role.Module)
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (s *Server) HandleListRoleBindingsGin(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	db, err := s.GetDB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	bindings, err := store.NewRoleStore(db).ListTaskBindings(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"bindings": bindings})
}

func (s *Server) HandleSetRoleTaskGin(c *gin.Context) {
	roleID := strings.TrimSpace(c.Param("id"))
	taskID := strings.TrimSpace(c.Param("taskId"))
	db, err := s.GetDB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	var body struct {
		Active bool `json:"active"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	roleStore := store.NewRoleStore(db)
	if err := roleStore.SetTaskActive(c.Request.Context(), roleID, taskID, body.Active); err != nil {
		writeStoreError(c, err)
		return
	}
	if role, err := roleStore.Get(c.Request.Context(), roleID); err == nil && role != nil {
		s.invalidatePermissions(c, role.OrgID, role.Module)
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (s *Server) HandleListRoleUsersGin(c *gin.Context) {
	roleID := strings.TrimSpace(c.Param("id"))
	db, err := s.GetDB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	assignments, err := store.NewRoleUserStore(db).ListActiveByRole(c.Request.Context(), roleID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"assignments": assignments})
}

func (s *Server) HandleAssignRoleUserGin(c *gin.Context) {
	roleID := strings.TrimSpace(c.Param("id"))
	db, err := s.GetDB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	var body struct {
		OrgID     string `json:"orgId"`
		OrgUserID string `json:"orgUserId"`
		Module    string `json:"module"`
		Force     bool   `json:"force"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	module := models.Module(body.Module)
	if !module.IsValid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "unknown module"})
		return
	}
	assignment, created, err := store.NewRoleUserStore(db).Assign(c.Request.Context(), body.OrgID, roleID, body.OrgUserID, module, body.Force)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	s.invalidatePermissions(c, body.OrgID, module)
	c.JSON(http.StatusOK, gin.H{"assignment": assignment, "created": created})
}

func (s *Server) HandleRemoveRoleUserGin(c *gin.Context) {
	roleID := strings.TrimSpace(c.Param("id"))
	orgUserID := strings.TrimSpace(c.Param("userId"))
	db, err := s.GetDB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	if err := store.NewRoleUserStore(db).Remove(c.Request.Context(), roleID, orgUserID); err != nil {
		writeStoreError(c, err)
		return
	}
	if role, err := store.NewRoleStore(db).Get(c.Request.Context(), roleID); err == nil && role != nil {
		s.invalidatePermissions(c, role.OrgID, role.Module)
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}
