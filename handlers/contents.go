package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/content"
	"github.com/humanizapp/humanizapp/backend/go-services/pkg/logger"
	"github.com/humanizapp/humanizapp/backend/go-services/pkg/middleware"
)

// ContentHandler serves informational contents. Reads are open to everyone
// (members-only items need a valid token); writes need an ADMIN token.
type ContentHandler struct {
	repo     content.Repository
	verifier middleware.Verifier
	revoked  middleware.Revocations
}

func NewContentHandler(repo content.Repository, ver middleware.Verifier, rev middleware.Revocations) *ContentHandler {
	return &ContentHandler{repo: repo, verifier: ver, revoked: rev}
}

// Register routes under /contents
func (h *ContentHandler) Register(rg gin.IRouter) {
	g := rg.Group("/contents")
	read := middleware.OptionalAuth(h.verifier, h.revoked)
	g.GET("", read, h.List)
	g.GET("/:id", read, h.Get)

	write := []gin.HandlerFunc{middleware.AuthMiddleware(h.verifier, h.revoked), requireAdmin}
	g.POST("", append(write, h.Create)...)
	g.PUT("/:id", append(write, h.Update)...)
	g.DELETE("/:id", append(write, h.Delete)...)
}

func requireAdmin(c *gin.Context) {
	if !isAdmin(c) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
		return
	}
	c.Next()
}

func (h *ContentHandler) List(c *gin.Context) {
	f := content.Filter{
		Role:           c.Query("role"),
		Category:       c.Query("category"),
		MembersVisible: middleware.Subject(c) != "",
	}
	var err error
	if f.Trimester, err = intQuery(c, "trimester"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "trimester must be a number"})
		return
	}
	if f.Week, err = intQuery(c, "week"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "week must be a number"})
		return
	}
	list, err := h.repo.List(c.Request.Context(), f)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *ContentHandler) Get(c *gin.Context) {
	item, err := h.repo.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	// hide existence of members-only items from anonymous callers
	if item.Role == content.RoleMembers && middleware.Subject(c) == "" {
		h.fail(c, content.ErrNotFound)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *ContentHandler) Create(c *gin.Context) {
	in, ok := bindInput(c)
	if !ok {
		return
	}
	item, err := h.repo.Create(c.Request.Context(), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *ContentHandler) Update(c *gin.Context) {
	in, ok := bindInput(c)
	if !ok {
		return
	}
	item, err := h.repo.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *ContentHandler) Delete(c *gin.Context) {
	if err := h.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func bindInput(c *gin.Context) (content.Input, bool) {
	var in content.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return in, false
	}
	if err := in.Validate(); err != nil {
		var inv *content.InvalidError
		if errors.As(err, &inv) {
			c.JSON(http.StatusBadRequest, gin.H{"error": inv.Error(), "fields": inv.Fields})
			return in, false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return in, false
	}
	return in, true
}

func (h *ContentHandler) fail(c *gin.Context, err error) {
	if errors.Is(err, content.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Conteúdo não encontrado"})
		return
	}
	logger.Errorf("content request %s %s failed: %v", c.Request.Method, c.FullPath(), err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}

func intQuery(c *gin.Context, key string) (int, error) {
	v := c.Query(key)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
