// Package relationship runs the proposal/relationship state machine:
// none → proposed → accepted → ended.
package relationship

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/vidarp/server/catalog"
	"github.com/vidarp/server/feed"
	"github.com/vidarp/server/game/inventory"
	"github.com/vidarp/server/game/wallet"
	"github.com/vidarp/server/model"
)

var (
	ErrSelfProposal    = errors.New("relationship: cannot propose to yourself")
	ErrUnknownKind     = errors.New("relationship: unknown relationship kind")
	ErrRingRequired    = errors.New("relationship: this kind requires a ring item")
	ErrRingNotOwned    = errors.New("relationship: proposer does not own the ring")
	ErrWrongRing       = errors.New("relationship: ring does not match the proposed kind")
	ErrAlreadyProposed = errors.New("relationship: a pending proposal between these players exists")
	ErrNotPending      = errors.New("relationship: proposal is not pending")
	ErrNotRecipient    = errors.New("relationship: only the recipient may decide")
	ErrNotInvolved     = errors.New("relationship: player is not part of this relationship")
	ErrRecipientFull   = errors.New("relationship: recipient cannot hold another ring")
	ErrNotFound        = errors.New("relationship: not found")
)

// ringKinds require a ring item on the proposal; friendship does not.
var ringKinds = map[string]bool{
	model.RelDating:     true,
	model.RelEngagement: true,
	model.RelMarriage:   true,
}

func validKind(kind string) bool {
	return kind == model.RelFriendship || ringKinds[kind]
}

type Service struct {
	db      *gorm.DB
	catalog *catalog.Catalog
	wallet  *wallet.Service
	feed    *feed.Publisher
	logger  *zap.Logger
}

func NewService(db *gorm.DB, cat *catalog.Catalog, w *wallet.Service, f *feed.Publisher, logger *zap.Logger) *Service {
	return &Service{db: db, catalog: cat, wallet: w, feed: f, logger: logger}
}

// canonical orders a player pair so a relationship has one row per pair.
func canonical(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// Propose creates a pending proposal. Ring kinds require the proposer to
// own a ring item whose relationship type matches the proposed kind; the
// ring is not consumed until acceptance.
func (svc *Service) Propose(ctx context.Context, fromPlayer, toPlayer int64, kind, ringItemID string) (*model.Proposal, error) {
	if fromPlayer == toPlayer {
		return nil, ErrSelfProposal
	}
	if !validKind(kind) {
		return nil, ErrUnknownKind
	}

	var prop *model.Proposal
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if ringKinds[kind] {
			if ringItemID == "" {
				return ErrRingRequired
			}
			entry, ok := svc.catalog.Lookup(ringItemID)
			if !ok || entry.Item.RelationshipType != kind {
				return ErrWrongRing
			}
			var ring model.Inventory
			if err := tx.Where("player_id = ? AND item_id = ? AND qty > 0", fromPlayer, ringItemID).
				First(&ring).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrRingNotOwned
				}
				return err
			}
		}

		a, b := canonical(fromPlayer, toPlayer)
		var pending int64
		if err := tx.Model(&model.Proposal{}).
			Where("status = ?", model.ProposalPending).
			Where("(from_player = ? AND to_player = ?) OR (from_player = ? AND to_player = ?)", a, b, b, a).
			Count(&pending).Error; err != nil {
			return err
		}
		if pending > 0 {
			return ErrAlreadyProposed
		}

		prop = &model.Proposal{
			FromPlayer: fromPlayer,
			ToPlayer:   toPlayer,
			Kind:       kind,
			RingItemID: ringItemID,
			Status:     model.ProposalPending,
		}
		return tx.Create(prop).Error
	})
	if err != nil {
		return nil, err
	}

	svc.feed.Notify(ctx, feed.Notice{Table: "proposals", Event: feed.EventInsert, RowID: prop.ID}, toPlayer)
	return prop, nil
}

// Accept turns a pending proposal into a relationship. The pair's existing
// relationship is replaced (dating → engagement → marriage advances this
// way), the ring moves to the recipient, and every other pending proposal
// involving either player is canceled: an accepted proposal decides the
// pair, stale offers must not linger as accept-later options.
func (svc *Service) Accept(ctx context.Context, proposalID, playerID int64) (*model.Relationship, error) {
	var rel *model.Relationship
	var prop model.Proposal
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&prop, proposalID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if prop.Status != model.ProposalPending {
			return ErrNotPending
		}
		if prop.ToPlayer != playerID {
			return ErrNotRecipient
		}

		if err := tx.Model(&model.Proposal{}).Where("id = ?", prop.ID).
			Update("status", model.ProposalAccepted).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Proposal{}).
			Where("status = ?", model.ProposalPending).
			Where("from_player IN ? OR to_player IN ?",
				[]int64{prop.FromPlayer, prop.ToPlayer},
				[]int64{prop.FromPlayer, prop.ToPlayer}).
			Update("status", model.ProposalCanceled).Error; err != nil {
			return err
		}

		if prop.RingItemID != "" {
			if err := moveRing(tx, prop.FromPlayer, prop.ToPlayer, prop.RingItemID); err != nil {
				return err
			}
		}

		a, b := canonical(prop.FromPlayer, prop.ToPlayer)
		if err := tx.Where("player_a = ? AND player_b = ?", a, b).
			Delete(&model.Relationship{}).Error; err != nil {
			return err
		}
		rel = &model.Relationship{PlayerA: a, PlayerB: b, Kind: prop.Kind}
		return tx.Create(rel).Error
	})
	if err != nil {
		return nil, err
	}

	svc.feed.Notify(ctx, feed.Notice{Table: "relationships", Event: feed.EventInsert, RowID: rel.ID},
		prop.FromPlayer, prop.ToPlayer)
	svc.logger.Info("proposal accepted",
		zap.Int64("proposal_id", prop.ID),
		zap.String("kind", prop.Kind))
	return rel, nil
}

// moveRing hands the proposal's ring from proposer to recipient. The ring
// leaving the proposer is what "spends" it. The hand-over goes through
// inventory.Grant so the recipient's stack merges and stays capped; a full
// stack fails the whole acceptance, the tx rolls everything back and the
// proposal stays pending.
func moveRing(tx *gorm.DB, fromPlayer, toPlayer int64, ringItemID string) error {
	if err := inventory.Consume(tx, fromPlayer, ringItemID, 1); err != nil {
		if errors.Is(err, inventory.ErrNotEnough) {
			return ErrRingNotOwned
		}
		return err
	}
	res, err := inventory.Grant(tx, toPlayer, ringItemID, 1, "")
	if err != nil {
		return err
	}
	if res.Granted == 0 {
		return ErrRecipientFull
	}
	return nil
}

// Reject declines a pending proposal. Only the recipient may reject.
func (svc *Service) Reject(ctx context.Context, proposalID, playerID int64) error {
	err := svc.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prop model.Proposal
		if err := tx.First(&prop, proposalID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if prop.Status != model.ProposalPending {
			return ErrNotPending
		}
		if prop.ToPlayer != playerID {
			return ErrNotRecipient
		}
		return tx.Model(&model.Proposal{}).Where("id = ?", prop.ID).
			Update("status", model.ProposalRejected).Error
	})
	return err
}

// End removes the relationship. Ending a marriage charges the divorce fee
// from whichever player initiated; an unpaid fee blocks the whole thing.
func (svc *Service) End(ctx context.Context, relationshipID, playerID int64) error {
	var rel model.Relationship
	if err := svc.db.WithContext(ctx).First(&rel, relationshipID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if rel.PlayerA != playerID && rel.PlayerB != playerID {
		return ErrNotInvolved
	}

	if rel.Kind == model.RelMarriage {
		if _, err := svc.wallet.Divorce(ctx, playerID); err != nil {
			return err
		}
	}
	if err := svc.db.WithContext(ctx).Delete(&model.Relationship{}, rel.ID).Error; err != nil {
		return err
	}

	svc.feed.Notify(ctx, feed.Notice{Table: "relationships", Event: feed.EventDelete, RowID: rel.ID},
		rel.PlayerA, rel.PlayerB)
	return nil
}

// Of lists the player's active relationships.
func (svc *Service) Of(ctx context.Context, playerID int64) ([]model.Relationship, error) {
	var rels []model.Relationship
	err := svc.db.WithContext(ctx).
		Where("player_a = ? OR player_b = ?", playerID, playerID).
		Find(&rels).Error
	return rels, err
}

// PendingFor lists pending proposals addressed to the player.
func (svc *Service) PendingFor(ctx context.Context, playerID int64) ([]model.Proposal, error) {
	var props []model.Proposal
	err := svc.db.WithContext(ctx).
		Where("to_player = ? AND status = ?", playerID, model.ProposalPending).
		Order("id").Find(&props).Error
	return props, err
}
