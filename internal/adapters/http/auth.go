package http

import (
	"errors"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/sgrey/chatline/internal/domain"
	"github.com/sgrey/chatline/internal/store"
	"golang.org/x/crypto/bcrypt"
)

const sessionUserKey = "user_id"

// RequireAuth loads the logged-in user id from the session cookie.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		s := sessions.Default(c)
		v := s.Get(sessionUserKey)
		uid, ok := v.(int64)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "login required"})
			return
		}
		c.Set("user_id", uid)
		c.Next()
	}
}

type credentials struct {
	Username        string `json:"username" binding:"required"`
	Password        string `json:"password" binding:"required"`
	ConfirmPassword string `json:"confirm_password"`
}

func (a *API) Register(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}
	if req.ConfirmPassword != "" && req.ConfirmPassword != req.Password {
		c.JSON(http.StatusBadRequest, gin.H{"error": "passwords do not match"})
		return
	}
	if err := domain.ValidateUsername(req.Username); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}

	user, err := a.Store.Users.Create(req.Username, string(hash))
	if err != nil {
		if errors.Is(err, store.ErrUsernameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "username already exists"})
			return
		}
		log.Error().Err(err).Str("module", "adapters.http").Msg("register")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}

	a.startSession(c, user.ID)
	log.Info().Str("module", "adapters.http").Int64("user", user.ID).Msg("registered")
	c.JSON(http.StatusCreated, user)
}

func (a *API) Login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password required"})
		return
	}

	user, err := a.Store.Users.ByUsername(req.Username)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	a.startSession(c, user.ID)
	log.Info().Str("module", "adapters.http").Int64("user", user.ID).Msg("logged in")
	c.JSON(http.StatusOK, user)
}

func (a *API) Logout(c *gin.Context) {
	s := sessions.Default(c)
	s.Clear()
	if err := s.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("logout save session")
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (a *API) Me(c *gin.Context) {
	user, err := a.Store.Users.ByID(c.GetInt64("user_id"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "login required"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (a *API) startSession(c *gin.Context, userID int64) {
	s := sessions.Default(c)
	s.Set(sessionUserKey, userID)
	if err := s.Save(); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("save session")
	}
}
