package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gymstack/rbac/permission"
)

func (s *Server) resolver() (*permission.Resolver, error) {
	db, err := s.GetDB()
	if err != nil {
		return nil, err
	}
	return permission.NewResolver(db, s.cache), nil
}

func (s *Server) HandleOrgPermissionsGin(c *gin.Context) {
	module, ok := moduleParam(c)
	if !ok {
		return
	}
	orgID := strings.TrimSpace(c.Param("orgId"))
	r, err := s.resolver()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	slugs, err := r.OrgSlugs(c.Request.Context(), orgID, module)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"permissions": slugs})
}

func (s *Server) HandleUserPermissionsGin(c *gin.Context) {
	module, ok := moduleParam(c)
	if !ok {
		return
	}
	orgID := strings.TrimSpace(c.Param("orgId"))
	userID := strings.TrimSpace(c.Param("userId"))
	r, err := s.resolver()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	slugs, err := r.UserSlugs(c.Request.Context(), orgID, userID, module)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	// ?check=<slug> answers a single membership question instead.
	if required := strings.TrimSpace(c.Query("check")); required != "" {
		c.JSON(http.StatusOK, gin.H{"allowed": permission.HasSlug(slugs, required)})
		return
	}
	c.JSON(http.StatusOK, gin.H{"permissions": slugs})
}
