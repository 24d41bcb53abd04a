package rest

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vidarp/server/catalog"
	"github.com/vidarp/server/game/medicine"
	"github.com/vidarp/server/model"
	"github.com/vidarp/server/scheduler"
)

// AdminHandler handles admin-only REST endpoints.
// Routes should be protected by AdminAuth middleware.
type AdminHandler struct {
	db       *gorm.DB
	catalog  *catalog.Catalog
	medicine *medicine.Service
	sched    *scheduler.Scheduler
	logger   *zap.Logger
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(db *gorm.DB, cat *catalog.Catalog, med *medicine.Service,
	sched *scheduler.Scheduler, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{db: db, catalog: cat, medicine: med, sched: sched, logger: logger}
}

// Metrics returns server health metrics.
// GET /api/admin/metrics
func (h *AdminHandler) Metrics(c *gin.Context) {
	var accounts, players, pendingOrders, pendingDeliveries int64
	h.db.Model(&model.Account{}).Count(&accounts)
	h.db.Model(&model.Player{}).Count(&players)
	h.db.Model(&model.Order{}).Where("status = ?", model.OrderPending).Count(&pendingOrders)
	h.db.Model(&model.DeliveryOrder{}).Where("manager_status = ?", model.OrderPending).Count(&pendingDeliveries)

	c.JSON(http.StatusOK, gin.H{
		"accounts":           accounts,
		"players":            players,
		"catalog_items":      h.catalog.Len(),
		"pending_orders":     pendingOrders,
		"pending_deliveries": pendingDeliveries,
		"scheduler_tasks":    h.sched.ListTickers(),
	})
}

// ReconcileDiseases forces the disease-stat repair across all players.
// POST /api/admin/reconcile-diseases
func (h *AdminHandler) ReconcileDiseases(c *gin.Context) {
	repaired, err := h.medicine.ReconcileAll(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	h.logger.Info("admin triggered disease reconcile", zap.Int64("repaired", repaired))
	c.JSON(http.StatusOK, gin.H{"repaired": repaired})
}

// BanAccount bans or unbans a player account.
// POST /api/admin/accounts/:id/ban
func (h *AdminHandler) BanAccount(c *gin.Context) {
	accountID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req struct {
		Ban bool `json:"ban"`
	}
	_ = c.ShouldBindJSON(&req)

	status := 1
	if req.Ban {
		status = 0
	}
	result := h.db.Model(&model.Account{}).Where("id = ?", accountID).Update("status", status)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "status": status})
}

// SetRole changes an account's role (manager, courier, medic, ...).
// POST /api/admin/accounts/:id/role
func (h *AdminHandler) SetRole(c *gin.Context) {
	accountID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req struct {
		Role string `json:"role" binding:"required,oneof=player manager courier medic admin"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	result := h.db.Model(&model.Account{}).Where("id = ?", accountID).Update("role", req.Role)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "account not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "role": req.Role})
}

// ListSchedulerTasks returns names of all registered ticker tasks.
// GET /api/admin/scheduler
func (h *AdminHandler) ListSchedulerTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tasks": h.sched.ListTickers()})
}

// AdminAuth returns a middleware that checks the X-Admin-Key header.
// WARNING: if adminKey is empty all admin endpoints are disabled (503) so the
// server cannot be accidentally deployed without protection. Set a non-empty
// server.admin_key in config to enable admin routes.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "admin endpoints disabled: set server.admin_key in config"})
			return
		}
		key := c.GetHeader("X-Admin-Key")
		if key != adminKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
