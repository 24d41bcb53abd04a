package rest

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/vidarp/server/cache"
	"github.com/vidarp/server/config"
	mw "github.com/vidarp/server/middleware"
	"github.com/vidarp/server/model"
)

// AuthHandler handles authentication REST endpoints.
type AuthHandler struct {
	db    *gorm.DB
	cache cache.Cache
	sec   config.SecurityConfig
	game  config.GameConfig
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *gorm.DB, c cache.Cache, sec config.SecurityConfig, game config.GameConfig) *AuthHandler {
	return &AuthHandler{db: db, cache: c, sec: sec, game: game}
}

type loginRequest struct {
	Username string `json:"username" binding:"required,min=2,max=32"`
	Password string `json:"password" binding:"required,min=4,max=64"`
}

// Login handles POST /api/auth/login.
// A plain display name that does not exist yet auto-registers: the server
// appends a random #NNNN discriminator and creates the account plus its
// player row with the starting balance.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	acc, err := h.resolveAccount(c, req.Username, req.Password)
	if err != nil {
		return // resolveAccount already responded
	}

	token, err := mw.GenerateToken(acc.ID, acc.Role, h.sec.JWTSecret, h.sec.JWTTTLH)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token error"})
		return
	}

	// Store session in cache as a simple KV entry so Exists() works uniformly.
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	_ = h.cache.Set(ctx, "session:"+token, strconv.FormatInt(acc.ID, 10), h.sec.JWTTTLH)

	// Update last login (best-effort).
	now := time.Now()
	_ = h.db.Model(acc).Updates(map[string]interface{}{
		"last_login_at": now,
		"last_login_ip": c.ClientIP(),
	})

	var player model.Player
	_ = h.db.Where("account_id = ?", acc.ID).First(&player).Error

	c.JSON(http.StatusOK, gin.H{
		"token":        token,
		"account_id":   acc.ID,
		"username":     acc.Username,
		"display_name": acc.DisplayName(),
		"player_id":    player.ID,
	})
}

// resolveAccount finds or auto-registers the account. On failure it writes
// the error response and returns a nil account.
func (h *AuthHandler) resolveAccount(c *gin.Context, username, password string) (*model.Account, error) {
	var acc model.Account
	err := h.db.Where("username = ?", username).First(&acc).Error
	if err == nil {
		if bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(password)) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return nil, errHandled
		}
		if acc.Status == 0 {
			c.JSON(http.StatusForbidden, gin.H{"error": "account banned"})
			return nil, errHandled
		}
		return &acc, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return nil, errHandled
	}
	if strings.ContainsRune(username, '#') {
		// A discriminated name that does not exist is a typo, not a signup.
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return nil, errHandled
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return nil, errHandled
	}

	// Retry a few discriminators on collision.
	for i := 0; i < 5; i++ {
		acc = model.Account{
			Username:     fmt.Sprintf("%s#%04d", username, rand.Intn(10000)),
			PasswordHash: string(hash),
			Role:         model.RolePlayer,
			Status:       1,
		}
		txErr := h.db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&acc).Error; err != nil {
				return err
			}
			player := model.Player{
				AccountID:     acc.ID,
				WalletBalance: h.game.StartingBalance,
			}
			return tx.Create(&player).Error
		})
		if txErr == nil {
			return &acc, nil
		}
		if !isUniqueViolation(txErr) {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
			return nil, errHandled
		}
	}
	c.JSON(http.StatusConflict, gin.H{"error": "could not allocate a username, retry"})
	return nil, errHandled
}

// errHandled signals the response was already written.
var errHandled = errors.New("handled")

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	header := c.GetHeader("Authorization")
	tokenStr := strings.TrimPrefix(header, "Bearer ")
	if tokenStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing token"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	_ = h.cache.Del(ctx, "session:"+tokenStr)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Refresh handles POST /api/auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	accountID := mw.GetAccountID(c)
	if accountID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	// Invalidate old token.
	header := c.GetHeader("Authorization")
	oldToken := strings.TrimPrefix(header, "Bearer ")
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	_ = h.cache.Del(ctx, "session:"+oldToken)

	newToken, err := mw.GenerateToken(accountID, mw.GetRole(c), h.sec.JWTSecret, h.sec.JWTTTLH)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token error"})
		return
	}
	_ = h.cache.Set(ctx, "session:"+newToken, strconv.FormatInt(accountID, 10), h.sec.JWTTTLH)

	c.JSON(http.StatusOK, gin.H{"token": newToken})
}

// isUniqueViolation detects duplicate-key errors from common database drivers.
func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") ||
		strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "already exists")
}
