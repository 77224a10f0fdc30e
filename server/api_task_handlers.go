package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gymstack/rbac/catalog"
	"github.com/gymstack/rbac/store"
)

func (s *Server) HandleListTasksGin(c *gin.Context) {
	module, ok := moduleParam(c)
	if !ok {
		return
	}
	db, err := s.GetDB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	taskStore := store.NewTaskStore(db)
	ctx := c.Request.Context()

	// ?category=<id> filters to one category; ?category=uncategorized lists
	// the detached tasks.
	if cat := strings.TrimSpace(c.Query("category")); cat != "" {
		var categoryID *string
		if !strings.EqualFold(cat, catalog.Uncategorized) {
			categoryID = &cat
		}
		tasks, err := taskStore.ListByCategory(ctx, module, categoryID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"tasks": tasks})
		return
	}

	tasks, err := taskStore.ListByModule(ctx, module)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

func (s *Server) HandleCreateTaskGin(c *gin.Context) {
	module, ok := moduleParam(c)
	if !ok {
		return
	}
	db, err := s.GetDB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	var body struct {
		Name        string  `json:"name"`
		Slug        string  `json:"slug"`
		Description string  `json:"description"`
		CategoryID  *string `json:"categoryId"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	created, err := store.NewTaskStore(db).Create(c.Request.Context(), module, body.CategoryID, body.Name, body.Slug, body.Description)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": created})
}

func (s *Server) HandleMoveTaskGin(c *gin.Context) {
	module, ok := moduleParam(c)
	if !ok {
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	db, err := s.GetDB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	var body struct {
		Position int `json:"position"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if err := store.NewTaskStore(db).Move(c.Request.Context(), module, id, body.Position); err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// HandleUpdateTaskGin renames and/or recategorizes a task. Omitted fields are
// left untouched; the category token "uncategorized" detaches the task.
func (s *Server) HandleUpdateTaskGin(c *gin.Context) {
	module, ok := moduleParam(c)
	if !ok {
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	db, err := s.GetDB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	var body struct {
		Name     string `json:"name"`
		Category string `json:"category"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	taskStore := store.NewTaskStore(db)
	ctx := c.Request.Context()

	if strings.TrimSpace(body.Name) != "" {
		siblings, err := taskStore.Siblings(ctx, module)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
			return
		}
		ch, err := catalog.ComputeRename(siblings, id, body.Name, true)
		if err != nil {
			writeStoreError(c, err)
			return
		}
		if err := taskStore.ApplyRename(ctx, module, ch); err != nil {
			writeStoreError(c, err)
			return
		}
	}

	if strings.TrimSpace(body.Category) != "" {
		cats, err := store.NewCategoryStore(db).Selections(ctx, module)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
			return
		}
		ch, err := catalog.ComputeRecategorize(cats, id, body.Category)
		if err != nil {
			writeStoreError(c, err)
			return
		}
		if err := taskStore.ApplyRecategorize(ctx, ch); err != nil {
			writeStoreError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// HandleBindTaskGin activates and deactivates role bindings for one task by
// role name. Unresolved names come back in "missing" rather than failing the
// edit; a fixed role anywhere in the lists rejects the whole batch.
func (s *Server) HandleBindTaskGin(c *gin.Context) {
	module, ok := moduleParam(c)
	if !ok {
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	db, err := s.GetDB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	var body struct {
		OrgID  string   `json:"orgId"`
		Add    []string `json:"add"`
		Remove []string `json:"remove"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || strings.TrimSpace(body.OrgID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "orgId is required"})
		return
	}
	roleStore := store.NewRoleStore(db)
	refs, err := roleStore.RoleRefs(c.Request.Context(), body.OrgID, module)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	changes, missing, err := catalog.ComputeBindingChanges(refs, id, body.Add, body.Remove)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	if err := roleStore.ApplyBindingChanges(c.Request.Context(), changes); err != nil {
		writeStoreError(c, err)
		return
	}
	s.invalidatePermissions(c, body.OrgID, module)
	c.JSON(http.StatusOK, gin.H{"applied": len(changes), "missing": missing})
}

func (s *Server) HandleDeleteTaskGin(c *gin.Context) {
	module, ok := moduleParam(c)
	if !ok {
		return
	}
	id := strings.TrimSpace(c.Param("id"))
	db, err := s.GetDB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	if err := store.NewTaskStore(db).Delete(c.Request.Context(), module, id); err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}
