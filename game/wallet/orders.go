package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/vidarp/server/feed"
	"github.com/vidarp/server/model"
)

var (
	ErrUnknownStore    = errors.New("wallet: unknown store")
	ErrUnknownItem     = errors.New("wallet: item not sold by this store")
	ErrEmptyOrder      = errors.New("wallet: order has no items")
	ErrNoDelivery      = errors.New("wallet: store does not deliver")
	ErrCourierStage    = errors.New("wallet: courier status does not allow this transition")
	ErrOrderTaken      = errors.New("wallet: another courier already took this order")
	ErrNotYourDelivery = errors.New("wallet: delivery belongs to another courier")
)

// CartItem is one requested line before pricing. Prices come from the
// catalog at submission time, never from the client.
type CartItem struct {
	ItemID string `json:"item_id"`
	Qty    int    `json:"qty"`
}

// priceCart resolves a cart against the store's catalog listing and returns
// the snapshot lines plus the total.
func (svc *Service) priceCart(storeID string, cart []CartItem) ([]model.OrderLine, int64, error) {
	if len(cart) == 0 {
		return nil, 0, ErrEmptyOrder
	}
	if _, ok := svc.catalog.Store(storeID); !ok {
		return nil, 0, ErrUnknownStore
	}

	lines := make([]model.OrderLine, 0, len(cart))
	var total int64
	for _, ci := range cart {
		if ci.Qty <= 0 {
			return nil, 0, ErrInvalidAmount
		}
		entry, ok := svc.catalog.Lookup(ci.ItemID)
		if !ok || entry.StoreID != storeID {
			return nil, 0, ErrUnknownItem
		}
		lines = append(lines, model.OrderLine{
			ItemID:    ci.ItemID,
			Name:      entry.Item.Name,
			Qty:       ci.Qty,
			UnitPrice: entry.Item.Price,
		})
		total += entry.Item.Price * int64(ci.Qty)
	}
	return lines, total, nil
}

// SubmitOrder snapshots a cart into a pending order. Funds do not move and
// nothing is granted until a manager approves.
func (svc *Service) SubmitOrder(ctx context.Context, buyerID int64, storeID string, cart []CartItem) (*model.Order, error) {
	lines, total, err := svc.priceCart(storeID, cart)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return nil, err
	}
	order := &model.Order{
		StoreID: storeID,
		BuyerID: buyerID,
		Lines:   datatypes.JSON(raw),
		Total:   total,
		Status:  model.OrderPending,
	}
	if err := svc.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	svc.feed.Announce(ctx, feed.Notice{Table: "orders", Event: feed.EventInsert, RowID: order.ID})
	return order, nil
}

// PendingOrders lists a store's orders awaiting manager approval.
func (svc *Service) PendingOrders(ctx context.Context, storeID string) ([]model.Order, error) {
	var orders []model.Order
	err := svc.db.WithContext(ctx).
		Where("store_id = ? AND status = ?", storeID, model.OrderPending).
		Order("id").Find(&orders).Error
	return orders, err
}

// SubmitDeliveryOrder snapshots a cart into a delivery order. The store
// must be flagged for delivery; the courier stage starts at waiting.
func (svc *Service) SubmitDeliveryOrder(ctx context.Context, buyerID int64, storeID, address string, cart []CartItem) (*model.DeliveryOrder, error) {
	def, ok := svc.catalog.Store(storeID)
	if !ok {
		return nil, ErrUnknownStore
	}
	if !def.Delivery {
		return nil, ErrNoDelivery
	}
	lines, total, err := svc.priceCart(storeID, cart)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return nil, err
	}
	order := &model.DeliveryOrder{
		StoreID:       storeID,
		BuyerID:       buyerID,
		Lines:         datatypes.JSON(raw),
		Total:         total,
		ManagerStatus: model.OrderPending,
		CourierStatus: model.CourierWaiting,
		Address:       address,
	}
	if err := svc.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	svc.feed.Announce(ctx, feed.Notice{Table: "delivery_orders", Event: feed.EventInsert, RowID: order.ID})
	return order, nil
}

// ApproveDeliveryOrder settles the funds side of a delivery order. The
// courier stage is untouched: it advances independently.
func (svc *Service) ApproveDeliveryOrder(ctx context.Context, orderID int64) (*model.DeliveryOrder, error) {
	var order model.DeliveryOrder
	err := svc.withLock(ctx, fmt.Sprintf("lock:delivery:%d", orderID), func() error {
		return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&order, orderID).Error; err != nil {
				return err
			}
			if order.ManagerStatus != model.OrderPending {
				return ErrNotPending
			}
			if err := svc.settle(tx, order.BuyerID, order.StoreID, order.Lines, order.Total, model.TxKindDelivery); err != nil {
				return err
			}
			order.ManagerStatus = model.OrderApproved
			return tx.Model(&model.DeliveryOrder{}).Where("id = ?", order.ID).
				Update("manager_status", model.OrderApproved).Error
		})
	})
	if err != nil {
		return nil, err
	}
	svc.feed.Notify(ctx, feed.Notice{Table: "delivery_orders", Event: feed.EventUpdate, RowID: order.ID}, order.BuyerID)
	return &order, nil
}

// RejectDeliveryOrder flips the manager stage to rejected. Nothing moves.
func (svc *Service) RejectDeliveryOrder(ctx context.Context, orderID int64) (*model.DeliveryOrder, error) {
	var order model.DeliveryOrder
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, orderID).Error; err != nil {
			return err
		}
		if order.ManagerStatus != model.OrderPending {
			return ErrNotPending
		}
		order.ManagerStatus = model.OrderRejected
		return tx.Model(&model.DeliveryOrder{}).Where("id = ?", order.ID).
			Update("manager_status", model.OrderRejected).Error
	})
	if err != nil {
		return nil, err
	}
	svc.feed.Notify(ctx, feed.Notice{Table: "delivery_orders", Event: feed.EventUpdate, RowID: order.ID}, order.BuyerID)
	return &order, nil
}

// WaitingDeliveries lists delivery orders no courier has taken yet.
func (svc *Service) WaitingDeliveries(ctx context.Context) ([]model.DeliveryOrder, error) {
	var orders []model.DeliveryOrder
	err := svc.db.WithContext(ctx).
		Where("courier_status = ?", model.CourierWaiting).
		Order("id").Find(&orders).Error
	return orders, err
}

// CourierAccept assigns the courier to a waiting delivery. The conditional
// update doubles as the claim: a second courier's accept affects zero rows.
func (svc *Service) CourierAccept(ctx context.Context, orderID, courierAccountID int64) (*model.DeliveryOrder, error) {
	res := svc.db.WithContext(ctx).Model(&model.DeliveryOrder{}).
		Where("id = ? AND courier_status = ?", orderID, model.CourierWaiting).
		Updates(map[string]interface{}{
			"courier_status":     model.CourierAccepted,
			"courier_account_id": courierAccountID,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrOrderTaken
	}
	var order model.DeliveryOrder
	if err := svc.db.WithContext(ctx).First(&order, orderID).Error; err != nil {
		return nil, err
	}
	svc.feed.Notify(ctx, feed.Notice{Table: "delivery_orders", Event: feed.EventUpdate, RowID: order.ID}, order.BuyerID)
	return &order, nil
}

// CourierReject returns an accepted delivery to the pool.
func (svc *Service) CourierReject(ctx context.Context, orderID, courierAccountID int64) (*model.DeliveryOrder, error) {
	return svc.courierTransition(ctx, orderID, courierAccountID, model.CourierWaiting, true)
}

// CourierDelivered marks the courier's accepted delivery as handed over.
func (svc *Service) CourierDelivered(ctx context.Context, orderID, courierAccountID int64) (*model.DeliveryOrder, error) {
	return svc.courierTransition(ctx, orderID, courierAccountID, model.CourierDelivered, false)
}

func (svc *Service) courierTransition(ctx context.Context, orderID, courierAccountID int64, to string, release bool) (*model.DeliveryOrder, error) {
	var order model.DeliveryOrder
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, orderID).Error; err != nil {
			return err
		}
		if order.CourierStatus != model.CourierAccepted {
			return ErrCourierStage
		}
		if order.CourierAccountID == nil || *order.CourierAccountID != courierAccountID {
			return ErrNotYourDelivery
		}
		updates := map[string]interface{}{"courier_status": to}
		if release {
			updates["courier_account_id"] = nil
			order.CourierAccountID = nil
		}
		order.CourierStatus = to
		return tx.Model(&model.DeliveryOrder{}).Where("id = ?", order.ID).
			Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	svc.feed.Notify(ctx, feed.Notice{Table: "delivery_orders", Event: feed.EventUpdate, RowID: order.ID}, order.BuyerID)
	svc.logger.Info("delivery stage changed",
		zap.Int64("order_id", order.ID),
		zap.String("courier_status", to))
	return &order, nil
}
