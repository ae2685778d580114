package services

import "coinflip-backend/internal/models"

// Store is the write-through persistence behind the ledger. The ledger's
// in-memory state stays authoritative; a store failure never rolls back
// a committed settlement.
type Store interface {
	SaveGame(game *models.Game) error
	SaveTransaction(tx *models.Transaction) error
	SaveTreasury(profit, escrow int64) error
}
