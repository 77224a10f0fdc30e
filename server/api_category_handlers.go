package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gymstack/rbac/catalog"
	"github.com/gymstack/rbac/store"
)

func (s *Server) HandleListCategoriesGin(c *gin.Context) {
	module, ok := moduleParam(c)
	if !ok {
		return
	}
	db, err := s.GetDB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	cats, err := store.NewCategoryStore(db).ListOrdered(c.Request.Context(), module)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": cats})
}

func (s *Server) HandleCreateCategoryGin(c *gin.Context) {
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
		Name        string `json:"name"`
		Description string `json:"description"`
		Position    int    `json:"position"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	catStore := store.NewCategoryStore(db)
	if body.Position == 0 {
		// Default to appending at the end.
		cats, err := catStore.ListOrdered(c.Request.Context(), module)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
			return
		}
		body.Position = len(cats) + 1
	}
	created, err := catStore.CreateAt(c.Request.Context(), module, body.Name, body.Description, body.Position)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": created})
}

func (s *Server) HandleMoveCategoryGin(c *gin.Context) {
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
	if err := store.NewCategoryStore(db).Move(c.Request.Context(), module, id, body.Position); err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (s *Server) HandleRenameCategoryGin(c *gin.Context) {
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
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	catStore := store.NewCategoryStore(db)
	cats, err := catStore.ListOrdered(c.Request.Context(), module)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	siblings := make([]catalog.Sibling, len(cats))
	for i, cat := range cats {
		siblings[i] = catalog.Sibling{ID: cat.ID, Name: cat.Name}
	}
	ch, err := catalog.ComputeRename(siblings, id, body.Name, false)
	if err != nil {
		writeStoreError(c, err)
		return
	}
	if err := catStore.ApplyRename(c.Request.Context(), ch); err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (s *Server) HandleDeleteCategoryGin(c *gin.Context) {
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
	if err := store.NewCategoryStore(db).Delete(c.Request.Context(), module, id); err != nil {
		writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}
