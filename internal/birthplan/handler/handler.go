package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/birthplan"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/birthplan/service"
	"github.com/humanizapp/humanizapp/backend/go-services/pkg/logger"
)

type createRequest struct {
	UserID string `json:"userId"`
	birthplan.Fields
}

// RegisterBirthPlanRoutes mounts the birth plan endpoints on r. When an auth
// middleware placed "claims" in the context, the token subject must own the
// plan being accessed.
func RegisterBirthPlanRoutes(r gin.IRouter, svc service.Service) {
	r.POST("/birth-plans", func(c *gin.Context) {
		var req createRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if !allowed(c, req.UserID) {
			return
		}
		d, err := svc.Create(c.Request.Context(), &birthplan.Document{OwnerID: req.UserID, Fields: req.Fields})
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, d)
	})

	r.GET("/birth-plans/user/:userId", func(c *gin.Context) {
		owner := c.Param("userId")
		if !allowed(c, owner) {
			return
		}
		d, err := svc.GetByOwner(c.Request.Context(), owner)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	})

	r.GET("/birth-plans/:id", func(c *gin.Context) {
		d, ok := load(c, svc)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, d)
	})

	r.PUT("/birth-plans/:id", func(c *gin.Context) {
		var fields birthplan.Fields
		if err := c.ShouldBindJSON(&fields); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if _, ok := load(c, svc); !ok {
			return
		}
		d, err := svc.Update(c.Request.Context(), c.Param("id"), fields)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	})

	r.DELETE("/birth-plans/:id", func(c *gin.Context) {
		if _, ok := load(c, svc); !ok {
			return
		}
		if err := svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
}

// load fetches the plan named by :id and applies the owner check.
func load(c *gin.Context, svc service.Service) (*birthplan.Document, bool) {
	d, err := svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	if !allowed(c, d.OwnerID) {
		return nil, false
	}
	return d, true
}

func allowed(c *gin.Context, owner string) bool {
	raw, ok := c.Get("claims")
	if !ok {
		return true
	}
	claims, _ := raw.(map[string]interface{})
	if sub, _ := claims["sub"].(string); sub != "" && sub == owner {
		return true
	}
	c.JSON(http.StatusForbidden, gin.H{"error": "birth plan belongs to another user"})
	return false
}

func writeError(c *gin.Context, err error) {
	var verr *birthplan.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "fields": verr.Fields})
	case errors.Is(err, service.ErrOwnerRequired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound), errors.Is(err, service.ErrOwnerNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		logger.Errorf("birth plan request %s %s failed: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
