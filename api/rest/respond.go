package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vidarp/server/game/inventory"
	"github.com/vidarp/server/game/relationship"
	"github.com/vidarp/server/game/wallet"
)

// fail maps service errors to HTTP statuses. Unmapped errors are internal.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, wallet.ErrInsufficientFunds):
		status = http.StatusPaymentRequired
	case errors.Is(err, wallet.ErrInvalidAmount),
		errors.Is(err, wallet.ErrSelfTransfer),
		errors.Is(err, wallet.ErrEmptyOrder),
		errors.Is(err, wallet.ErrNoDelivery),
		errors.Is(err, relationship.ErrSelfProposal),
		errors.Is(err, relationship.ErrUnknownKind),
		errors.Is(err, relationship.ErrRingRequired),
		errors.Is(err, relationship.ErrWrongRing),
		errors.Is(err, inventory.ErrNothingToGrant):
		status = http.StatusBadRequest
	case errors.Is(err, wallet.ErrNotPending),
		errors.Is(err, wallet.ErrOrderTaken),
		errors.Is(err, wallet.ErrCourierStage),
		errors.Is(err, wallet.ErrBusy),
		errors.Is(err, relationship.ErrAlreadyProposed),
		errors.Is(err, relationship.ErrNotPending),
		errors.Is(err, inventory.ErrNotEnough),
		errors.Is(err, relationship.ErrRecipientFull),
		errors.Is(err, relationship.ErrRingNotOwned):
		status = http.StatusConflict
	case errors.Is(err, relationship.ErrNotRecipient),
		errors.Is(err, relationship.ErrNotInvolved),
		errors.Is(err, wallet.ErrNotYourDelivery):
		status = http.StatusForbidden
	case errors.Is(err, wallet.ErrUnknownStore),
		errors.Is(err, wallet.ErrUnknownItem),
		errors.Is(err, relationship.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		status = http.StatusNotFound
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
