package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/config"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/models"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/tokens"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/users"
	"github.com/humanizapp/humanizapp/backend/go-services/pkg/logger"
	"github.com/humanizapp/humanizapp/backend/go-services/pkg/metrics"
	"github.com/humanizapp/humanizapp/backend/go-services/pkg/middleware"
)

// LoginRequest is the body of POST /users/login.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse mirrors what the client stores in its session.
type LoginResponse struct {
	Authenticated bool         `json:"authenticated"`
	Token         string       `json:"token"`
	User          *models.User `json:"user"`
}

// UserHandler holds dependencies
type UserHandler struct {
	cfg       *config.Config
	usersSvc  *users.Service
	verifier  middleware.Verifier
	blacklist *tokens.Blacklist
}

func NewUserHandler(cfg *config.Config, u *users.Service, ver middleware.Verifier, bl *tokens.Blacklist) *UserHandler {
	return &UserHandler{cfg: cfg, usersSvc: u, verifier: ver, blacklist: bl}
}

// Register routes under /users
func (h *UserHandler) Register(rg gin.IRouter) {
	g := rg.Group("/users")
	g.POST("/register", h.SignUp)
	g.POST("/login", h.Login)
	g.POST("/logout", middleware.AuthMiddleware(h.verifier, h.blacklist), h.Logout)
	g.GET("/me", middleware.AuthMiddleware(h.verifier, h.blacklist), h.Me)
	g.GET("/:username", middleware.AuthMiddleware(h.verifier, h.blacklist), h.Get)
}

func (h *UserHandler) SignUp(c *gin.Context) {
	var req users.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.usersSvc.Register(c.Request.Context(), req)
	if err != nil {
		var inv *users.InvalidRequestError
		switch {
		case errors.As(err, &inv):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid registration", "fields": inv.Fields})
		case errors.Is(err, users.ErrUserExists):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Errorf("register user: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		}
		return
	}
	logger.Infof("user %s registered", u.ID)
	c.JSON(http.StatusCreated, u)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}
	if h.cfg.JWT.Secret == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "login is not configured"})
		return
	}
	u, err := h.usersSvc.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, users.ErrInvalidCredentials) {
			metrics.UserLogins.WithLabelValues("rejected").Inc()
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Usuário ou senha inválidos"})
			return
		}
		metrics.UserLogins.WithLabelValues("error").Inc()
		logger.Errorf("authenticate %s: %v", req.Username, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	access, err := tokens.GenerateAccessToken(h.cfg, u, h.cfg.JWT.AccessTokenTTL)
	if err != nil {
		metrics.UserLogins.WithLabelValues("error").Inc()
		logger.Errorf("issue token for %s: %v", u.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}
	metrics.UserLogins.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, LoginResponse{Authenticated: true, Token: access, User: u})
}

// Logout revokes the presented access token for the rest of its lifetime.
func (h *UserHandler) Logout(c *gin.Context) {
	raw, _ := middleware.BearerToken(c)
	ttl := h.cfg.JWT.AccessTokenTTL
	if lt, ok := h.verifier.(interface{ ExpiresIn(string) time.Duration }); ok {
		if left := lt.ExpiresIn(raw); left > 0 {
			ttl = left
		}
	}
	if err := h.blacklist.Revoke(c.Request.Context(), raw, ttl); err != nil {
		logger.Errorf("revoke token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Get returns a profile. Users may read their own profile; admins any.
func (h *UserHandler) Get(c *gin.Context) {
	u, err := h.usersSvc.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		logger.Errorf("get user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if u.ID != middleware.Subject(c) && !isAdmin(c) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}
	c.JSON(http.StatusOK, u)
}

// Me returns the caller's own profile. Identity provider accounts use it to
// learn their local id.
func (h *UserHandler) Me(c *gin.Context) {
	u, err := h.usersSvc.GetByID(c.Request.Context(), middleware.Subject(c))
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		logger.Errorf("get current user: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, u)
}

func isAdmin(c *gin.Context) bool {
	role, _ := middleware.Claims(c)["role"].(string)
	return role == models.RoleAdmin
}
