package rest

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vidarp/server/audit"
	"github.com/vidarp/server/catalog"
	"github.com/vidarp/server/game/wallet"
	mw "github.com/vidarp/server/middleware"
	"github.com/vidarp/server/model"
)

// StoreHandler serves the store catalog and the order approval flow.
type StoreHandler struct {
	db      *gorm.DB
	catalog *catalog.Catalog
	wallet  *wallet.Service
	audit   *audit.Service
}

func NewStoreHandler(db *gorm.DB, cat *catalog.Catalog, w *wallet.Service, aud *audit.Service) *StoreHandler {
	return &StoreHandler{db: db, catalog: cat, wallet: w, audit: aud}
}

// List handles GET /api/stores: the full catalog.
func (h *StoreHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stores": h.catalog.Stores})
}

// Show handles GET /api/stores/:id: one store's listing plus its mutable
// row (balance stays manager-only).
func (h *StoreHandler) Show(c *gin.Context) {
	storeID := c.Param("id")
	def, ok := h.catalog.Store(storeID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "store not found"})
		return
	}
	var store model.Store
	if err := h.db.First(&store, "id = ?", storeID).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		fail(c, err)
		return
	}
	resp := gin.H{"store": def, "delivery": def.Delivery}
	if store.ManagerAccountID != nil && *store.ManagerAccountID == mw.GetAccountID(c) {
		resp["balance"] = store.Balance
	}
	c.JSON(http.StatusOK, resp)
}

type orderRequest struct {
	StoreID  string            `json:"store_id" binding:"required"`
	Items    []wallet.CartItem `json:"items" binding:"required"`
	Delivery bool              `json:"delivery"`
	Address  string            `json:"address"`
}

// Submit handles POST /api/orders.
func (h *StoreHandler) Submit(c *gin.Context) {
	p := currentPlayer(c, h.db)
	if p == nil {
		return
	}
	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if req.Delivery {
		order, err := h.wallet.SubmitDeliveryOrder(c.Request.Context(), p.ID, req.StoreID, req.Address, req.Items)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"delivery_order": order})
		return
	}

	order, err := h.wallet.SubmitOrder(c.Request.Context(), p.ID, req.StoreID, req.Items)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"order": order})
}

// Mine handles GET /api/orders: the player's own orders, newest first.
func (h *StoreHandler) Mine(c *gin.Context) {
	p := currentPlayer(c, h.db)
	if p == nil {
		return
	}
	var orders []model.Order
	if err := h.db.Where("buyer_id = ?", p.ID).Order("id DESC").Limit(50).Find(&orders).Error; err != nil {
		fail(c, err)
		return
	}
	var deliveries []model.DeliveryOrder
	if err := h.db.Where("buyer_id = ?", p.ID).Order("id DESC").Limit(50).Find(&deliveries).Error; err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "delivery_orders": deliveries})
}

// managesStore checks that the caller manages the given store. Admins pass.
func (h *StoreHandler) managesStore(c *gin.Context, storeID string) bool {
	if mw.GetRole(c) == model.RoleAdmin {
		return true
	}
	var store model.Store
	if err := h.db.First(&store, "id = ?", storeID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "store not found"})
		return false
	}
	accountID := mw.GetAccountID(c)
	if store.ManagerAccountID == nil || *store.ManagerAccountID != accountID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not the manager of this store"})
		return false
	}
	return true
}

// Pending handles GET /api/stores/:id/orders (manager).
func (h *StoreHandler) Pending(c *gin.Context) {
	storeID := c.Param("id")
	if !h.managesStore(c, storeID) {
		return
	}
	orders, err := h.wallet.PendingOrders(c.Request.Context(), storeID)
	if err != nil {
		fail(c, err)
		return
	}
	var deliveries []model.DeliveryOrder
	if err := h.db.Where("store_id = ? AND manager_status = ?", storeID, model.OrderPending).
		Order("id").Find(&deliveries).Error; err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "delivery_orders": deliveries})
}

func orderIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad order id"})
		return 0, false
	}
	return id, true
}

// Approve handles POST /api/orders/:id/approve (manager).
func (h *StoreHandler) Approve(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}
	var order model.Order
	if err := h.db.First(&order, id).Error; err != nil {
		fail(c, err)
		return
	}
	if !h.managesStore(c, order.StoreID) {
		return
	}

	approved, err := h.wallet.ApproveOrder(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	accountID := mw.GetAccountID(c)
	h.audit.Log(audit.Entry{
		TraceID:   mw.GetTraceID(c),
		AccountID: &accountID,
		Action:    "order.approve",
		Request:   gin.H{"order_id": id},
		Response:  gin.H{"total": approved.Total},
		IP:        c.ClientIP(),
	})
	c.JSON(http.StatusOK, gin.H{"order": approved})
}

// Reject handles POST /api/orders/:id/reject (manager).
func (h *StoreHandler) Reject(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}
	var order model.Order
	if err := h.db.First(&order, id).Error; err != nil {
		fail(c, err)
		return
	}
	if !h.managesStore(c, order.StoreID) {
		return
	}

	rejected, err := h.wallet.RejectOrder(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": rejected})
}

// ApproveDelivery handles POST /api/deliveries/:id/approve (manager).
func (h *StoreHandler) ApproveDelivery(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}
	var order model.DeliveryOrder
	if err := h.db.First(&order, id).Error; err != nil {
		fail(c, err)
		return
	}
	if !h.managesStore(c, order.StoreID) {
		return
	}
	approved, err := h.wallet.ApproveDeliveryOrder(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"delivery_order": approved})
}

// RejectDelivery handles POST /api/deliveries/:id/reject (manager).
func (h *StoreHandler) RejectDelivery(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}
	var order model.DeliveryOrder
	if err := h.db.First(&order, id).Error; err != nil {
		fail(c, err)
		return
	}
	if !h.managesStore(c, order.StoreID) {
		return
	}
	rejected, err := h.wallet.RejectDeliveryOrder(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"delivery_order": rejected})
}
