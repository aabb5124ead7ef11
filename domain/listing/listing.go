package listing

import (
	"time"

	"github.com/etherbay/goapi/base/ctx"
	"github.com/etherbay/goapi/domain"
)

// Status is the lifecycle state of a listing. Sold and disabled are
// terminal, a listing never transitions out of either.
type Status string

const (
	StatusAvailable Status = "available"
	StatusSold      Status = "sold"
	StatusDisabled  Status = "disabled"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusAvailable, StatusSold, StatusDisabled:
		return true
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusSold || s == StatusDisabled
}

// CanTransitionTo reports whether s -> next is a legal move. The only
// legal moves are available -> sold and available -> disabled.
func (s Status) CanTransitionTo(next Status) bool {
	return s == StatusAvailable && next.IsTerminal()
}

type Listing struct {
	Id          int64          `json:"id"`
	Seller      domain.Address `json:"seller"`
	PriceWei    string         `json:"priceWei"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	ImageRef    string         `json:"imageRef"`
	Status      Status         `json:"status"`
	CreatedAt   time.Time      `json:"createdAt"`
}

type CreateParams struct {
	Seller      domain.Address
	PriceWei    string
	Title       string
	Description string
	ImageRef    string
}

// Repo is the append-only listing catalog. Ids are assigned sequentially
// from 1 and never reused. Mutations are only reachable through the
// market usecase, which serializes them.
type Repo interface {
	// Create assigns the next id, stores the record as available and
	// returns the new id. Fails ErrInvalidPrice when the price is zero.
	Create(ctx ctx.Ctx, p CreateParams) (int64, error)
	FindOne(ctx ctx.Ctx, id int64) (*Listing, error)
	// SetStatus enforces the write-once terminal invariant and fails
	// ErrInvalidTransition on any illegal move
	SetStatus(ctx ctx.Ctx, id int64, next Status) error
	// FindIdsBySeller returns every id the seller ever created, in
	// insertion order, terminal ones included
	FindIdsBySeller(ctx ctx.Ctx, seller domain.Address) ([]int64, error)
	// FindAll returns every listing in insertion order, optionally
	// filtered by status
	FindAll(ctx ctx.Ctx, status *Status) ([]*Listing, error)
	Count(ctx ctx.Ctx) (int64, error)
}
