package escrow

import (
	"time"

	"github.com/etherbay/goapi/base/ctx"
	"github.com/etherbay/goapi/domain"
)

// TxStatus only moves forward, awaiting_delivery -> complete, exactly once.
// A refund path would be an additional terminal status reachable only from
// awaiting_delivery; none exists today.
type TxStatus string

const (
	TxStatusAwaitingDelivery TxStatus = "awaiting_delivery"
	TxStatusComplete         TxStatus = "complete"
)

// Transaction is the escrow record resolving exactly one listing.
// Its id equals the listing id.
type Transaction struct {
	Id          int64          `json:"id"`
	Buyer       domain.Address `json:"buyer"`
	Seller      domain.Address `json:"seller"`
	Amount      string         `json:"amount"`
	Status      TxStatus       `json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
}

type OpenParams struct {
	Id     int64
	Buyer  domain.Address
	Seller domain.Address
	Amount string
}

// Ledger holds custody of paid value between Open and Release. Release is
// the only path by which escrowed value leaves the ledger, and it moves the
// full amount to the seller's recorded balance exactly once.
type Ledger interface {
	// Open records a transaction awaiting delivery and takes custody of
	// the amount. Fails ErrAlreadyExists when a transaction for the id
	// already exists.
	Open(ctx ctx.Ctx, p OpenParams) error
	// Release transfers custody to the seller and completes the
	// transaction. Fails ErrNotFound on unknown id, ErrUnauthorized when
	// the caller is not the buyer, ErrAlreadyComplete on repeats.
	Release(ctx ctx.Ctx, id int64, caller domain.Address) (*Transaction, error)
	FindOne(ctx ctx.Ctx, id int64) (*Transaction, error)
	// FindIdsByParty returns every transaction id where the party is
	// buyer or seller, in insertion order
	FindIdsByParty(ctx ctx.Ctx, party domain.Address) ([]int64, error)
	// CustodyOf returns the value currently held for the transaction,
	// zero once released
	CustodyOf(ctx ctx.Ctx, id int64) (string, error)
	// BalanceOf returns the total value released to the party so far
	BalanceOf(ctx ctx.Ctx, party domain.Address) (string, error)
}
