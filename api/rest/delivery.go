package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vidarp/server/game/wallet"
	mw "github.com/vidarp/server/middleware"
)

// DeliveryHandler serves the courier side of delivery orders.
type DeliveryHandler struct {
	db     *gorm.DB
	wallet *wallet.Service
}

func NewDeliveryHandler(db *gorm.DB, w *wallet.Service) *DeliveryHandler {
	return &DeliveryHandler{db: db, wallet: w}
}

// Waiting handles GET /api/deliveries/waiting (courier).
func (h *DeliveryHandler) Waiting(c *gin.Context) {
	orders, err := h.wallet.WaitingDeliveries(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"delivery_orders": orders})
}

// Accept handles POST /api/deliveries/:id/accept (courier).
func (h *DeliveryHandler) Accept(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}
	order, err := h.wallet.CourierAccept(c.Request.Context(), id, mw.GetAccountID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"delivery_order": order})
}

// Release handles POST /api/deliveries/:id/release (courier backs out).
func (h *DeliveryHandler) Release(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}
	order, err := h.wallet.CourierReject(c.Request.Context(), id, mw.GetAccountID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"delivery_order": order})
}

// Delivered handles POST /api/deliveries/:id/delivered (courier).
func (h *DeliveryHandler) Delivered(c *gin.Context) {
	id, ok := orderIDParam(c)
	if !ok {
		return
	}
	order, err := h.wallet.CourierDelivered(c.Request.Context(), id, mw.GetAccountID(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"delivery_order": order})
}
