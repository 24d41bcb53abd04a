// Package wallet coordinates every balance or item movement between two
// parties: direct transfers, order approval, delivery payouts and the
// divorce fee. Each operation is one DB transaction guarded by a cache
// lock so concurrent movements on the same pair serialize.
package wallet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vidarp/server/cache"
	"github.com/vidarp/server/catalog"
	"github.com/vidarp/server/feed"
	"github.com/vidarp/server/game/inventory"
	"github.com/vidarp/server/model"
)

var (
	ErrInvalidAmount     = errors.New("wallet: amount must be positive")
	ErrInsufficientFunds = errors.New("wallet: insufficient funds")
	ErrSelfTransfer      = errors.New("wallet: cannot transfer to yourself")
	ErrBusy              = errors.New("wallet: transfer in progress, retry")
	ErrNotPending        = errors.New("wallet: order is not pending")
)

const lockTTL = 10 * time.Second

// Service is the transfer coordinator.
type Service struct {
	db      *gorm.DB
	cache   cache.Cache
	catalog *catalog.Catalog
	feed    *feed.Publisher
	logger  *zap.Logger

	divorceFee int64
}

func NewService(db *gorm.DB, c cache.Cache, cat *catalog.Catalog, f *feed.Publisher, divorceFee int64, logger *zap.Logger) *Service {
	return &Service{db: db, cache: c, catalog: cat, feed: f, divorceFee: divorceFee, logger: logger}
}

// pairLock builds the lock key for a two-player movement. The smaller ID
// always comes first so concurrent A→B and B→A contend on the same key.
func pairLock(a, b int64) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("lock:wallet:%d_%d", a, b)
}

func (svc *Service) withLock(ctx context.Context, key string, fn func() error) error {
	ok, err := svc.cache.SetNX(ctx, key, "1", lockTTL)
	if err != nil || !ok {
		return ErrBusy
	}
	defer svc.cache.Del(ctx, key)
	return fn()
}

// TransferMoney moves amount from one player's wallet to another's. The
// sender's balance is re-checked inside the transaction; a violation aborts
// with zero writes and no transaction record.
func (svc *Service) TransferMoney(ctx context.Context, senderID, receiverID, amount int64) (*model.Transaction, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	if senderID == receiverID {
		return nil, ErrSelfTransfer
	}

	var record *model.Transaction
	err := svc.withLock(ctx, pairLock(senderID, receiverID), func() error {
		return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var sender, receiver model.Player
			if err := tx.First(&sender, senderID).Error; err != nil {
				return err
			}
			if err := tx.First(&receiver, receiverID).Error; err != nil {
				return err
			}
			if sender.WalletBalance < amount {
				return ErrInsufficientFunds
			}
			if err := tx.Model(&model.Player{}).Where("id = ?", senderID).
				Update("wallet_balance", gorm.Expr("wallet_balance - ?", amount)).Error; err != nil {
				return err
			}
			if err := tx.Model(&model.Player{}).Where("id = ?", receiverID).
				Update("wallet_balance", gorm.Expr("wallet_balance + ?", amount)).Error; err != nil {
				return err
			}
			record = &model.Transaction{
				SenderID:   senderID,
				ReceiverID: receiverID,
				Amount:     amount,
				Kind:       model.TxKindTransfer,
			}
			return tx.Create(record).Error
		})
	})
	if err != nil {
		return nil, err
	}

	svc.feed.Notify(ctx, feed.Notice{Table: "players", Event: feed.EventUpdate, RowID: senderID}, senderID)
	svc.feed.Notify(ctx, feed.Notice{Table: "players", Event: feed.EventUpdate, RowID: receiverID}, receiverID)
	svc.logger.Info("money transferred",
		zap.Int64("sender_id", senderID),
		zap.Int64("receiver_id", receiverID),
		zap.Int64("amount", amount))
	return record, nil
}

// TransferItem moves qty of itemID from one player to another. The
// destination stack is capped: only the receiver's headroom actually moves,
// the truncated remainder stays with the sender and is reported back.
func (svc *Service) TransferItem(ctx context.Context, senderID, receiverID int64, itemID string, qty int, senderName string) (inventory.GrantResult, error) {
	if qty <= 0 {
		return inventory.GrantResult{}, ErrInvalidAmount
	}
	if senderID == receiverID {
		return inventory.GrantResult{}, ErrSelfTransfer
	}

	var res inventory.GrantResult
	err := svc.withLock(ctx, pairLock(senderID, receiverID), func() error {
		return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var src model.Inventory
			if err := tx.Where("player_id = ? AND item_id = ?", senderID, itemID).
				First(&src).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return inventory.ErrNotEnough
				}
				return err
			}
			if src.Qty < qty {
				return inventory.ErrNotEnough
			}
			var err error
			res, err = inventory.Grant(tx, receiverID, itemID, qty, senderName)
			if err != nil {
				return err
			}
			if res.Granted == 0 {
				return nil
			}
			return inventory.Consume(tx, senderID, itemID, res.Granted)
		})
	})
	if err != nil {
		return inventory.GrantResult{}, err
	}

	svc.feed.Notify(ctx, feed.Notice{Table: "inventories", Event: feed.EventUpdate, RowID: senderID}, senderID)
	svc.feed.Notify(ctx, feed.Notice{Table: "inventories", Event: feed.EventInsert, RowID: receiverID}, receiverID)
	return res, nil
}

// ApproveOrder settles a pending order: debit the buyer, credit the store,
// grant one inventory stack per line, one Sale per line, one purchase
// Transaction for the whole order. The buyer's balance is re-validated at
// approval time, not submission time.
func (svc *Service) ApproveOrder(ctx context.Context, orderID int64) (*model.Order, error) {
	var order model.Order
	err := svc.withLock(ctx, fmt.Sprintf("lock:order:%d", orderID), func() error {
		return svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&order, orderID).Error; err != nil {
				return err
			}
			if order.Status != model.OrderPending {
				return ErrNotPending
			}
			if err := svc.settle(tx, order.BuyerID, order.StoreID, order.Lines, order.Total, model.TxKindPurchase); err != nil {
				return err
			}
			order.Status = model.OrderApproved
			return tx.Model(&model.Order{}).Where("id = ?", order.ID).
				Update("status", model.OrderApproved).Error
		})
	})
	if err != nil {
		return nil, err
	}

	svc.feed.Notify(ctx, feed.Notice{Table: "orders", Event: feed.EventUpdate, RowID: order.ID}, order.BuyerID)
	svc.logger.Info("order approved",
		zap.Int64("order_id", order.ID),
		zap.Int64("buyer_id", order.BuyerID),
		zap.String("store_id", order.StoreID),
		zap.Int64("total", order.Total))
	return &order, nil
}

// settle moves order funds and grants line items inside tx. Shared by the
// plain and delivery approval paths; txKind distinguishes the two on the
// transaction record.
func (svc *Service) settle(tx *gorm.DB, buyerID int64, storeID string, rawLines []byte, total int64, txKind string) error {
	var buyer model.Player
	if err := tx.First(&buyer, buyerID).Error; err != nil {
		return err
	}
	if buyer.WalletBalance < total {
		return ErrInsufficientFunds
	}

	var lines []model.OrderLine
	if err := json.Unmarshal(rawLines, &lines); err != nil {
		return fmt.Errorf("wallet: order lines: %w", err)
	}

	if err := tx.Model(&model.Player{}).Where("id = ?", buyerID).
		Update("wallet_balance", gorm.Expr("wallet_balance - ?", total)).Error; err != nil {
		return err
	}
	if err := tx.Model(&model.Store{}).Where("id = ?", storeID).
		Update("balance", gorm.Expr("balance + ?", total)).Error; err != nil {
		return err
	}

	for _, line := range lines {
		if _, err := inventory.Grant(tx, buyerID, line.ItemID, line.Qty, ""); err != nil {
			return err
		}
		sale := model.Sale{
			StoreID:   storeID,
			BuyerID:   buyerID,
			ItemID:    line.ItemID,
			Qty:       line.Qty,
			UnitPrice: line.UnitPrice,
			Total:     line.UnitPrice * int64(line.Qty),
		}
		if err := tx.Create(&sale).Error; err != nil {
			return err
		}
	}

	return tx.Create(&model.Transaction{
		SenderID:     buyerID,
		Counterparty: storeID,
		Amount:       total,
		Kind:         txKind,
	}).Error
}

// RejectOrder flips a pending order to rejected. Nothing moves.
func (svc *Service) RejectOrder(ctx context.Context, orderID int64) (*model.Order, error) {
	var order model.Order
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&order, orderID).Error; err != nil {
			return err
		}
		if order.Status != model.OrderPending {
			return ErrNotPending
		}
		order.Status = model.OrderRejected
		return tx.Model(&model.Order{}).Where("id = ?", order.ID).
			Update("status", model.OrderRejected).Error
	})
	if err != nil {
		return nil, err
	}
	svc.feed.Notify(ctx, feed.Notice{Table: "orders", Event: feed.EventUpdate, RowID: order.ID}, order.BuyerID)
	return &order, nil
}

// Divorce charges the fixed fee from the player. The relationship service
// calls this first; an insufficient balance blocks the whole transition.
// The fee leaves the economy rather than landing in another wallet.
func (svc *Service) Divorce(ctx context.Context, playerID int64) (*model.Transaction, error) {
	var record *model.Transaction
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.Player
		if err := tx.First(&p, playerID).Error; err != nil {
			return err
		}
		if p.WalletBalance < svc.divorceFee {
			return ErrInsufficientFunds
		}
		if err := tx.Model(&model.Player{}).Where("id = ?", playerID).
			Update("wallet_balance", gorm.Expr("wallet_balance - ?", svc.divorceFee)).Error; err != nil {
			return err
		}
		record = &model.Transaction{
			SenderID: playerID,
			Amount:   svc.divorceFee,
			Kind:     model.TxKindDivorce,
		}
		return tx.Create(record).Error
	})
	if err != nil {
		return nil, err
	}
	svc.feed.Notify(ctx, feed.Notice{Table: "players", Event: feed.EventUpdate, RowID: playerID}, playerID)
	return record, nil
}

// Balance returns the player's current wallet balance.
func (svc *Service) Balance(ctx context.Context, playerID int64) (int64, error) {
	var p model.Player
	if err := svc.db.WithContext(ctx).First(&p, playerID).Error; err != nil {
		return 0, err
	}
	return p.WalletBalance, nil
}

// RecentTransactions lists the player's latest movements, newest first.
func (svc *Service) RecentTransactions(ctx context.Context, playerID int64, limit int) ([]model.Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var txs []model.Transaction
	err := svc.db.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", playerID, playerID).
		Order("id DESC").Limit(limit).Find(&txs).Error
	return txs, err
}
