package market

import (
	"time"

	"github.com/etherbay/goapi/base/ctx"
	"github.com/etherbay/goapi/domain"
	"github.com/etherbay/goapi/domain/escrow"
	"github.com/etherbay/goapi/domain/listing"
)

type EventType string

const (
	EventListingCreated    EventType = "listing.created"
	EventListingSold       EventType = "listing.sold"
	EventListingDisabled   EventType = "listing.disabled"
	EventDeliveryConfirmed EventType = "delivery.confirmed"
)

// Event is emitted after every committed state change and carries the
// affected id plus the new status, for front ends driving navigation and
// notifications
type Event struct {
	ListingId int64          `json:"listingId"`
	Type      EventType      `json:"type"`
	Status    string         `json:"status"`
	Actor     domain.Address `json:"actor"`
	Amount    string         `json:"amount,omitempty"`
	At        time.Time      `json:"at"`
}

// Publisher pushes committed events to live subscribers
type Publisher interface {
	Publish(ctx ctx.Ctx, ev *Event)
}

type CreateListingParams struct {
	Seller      domain.Address
	PriceWei    string
	Title       string
	Description string
	ImageRef    string
}

// ListingInfo decorates the stored listing with presentation fields
type ListingInfo struct {
	listing.Listing
	DisplayPrice string `json:"displayPrice"`
}

// Usecase is the market controller, the only entry point external callers
// use. Every operation executes under one lock, runs to completion, and
// either fully commits or leaves no effect.
type Usecase interface {
	CreateListing(ctx ctx.Ctx, p CreateListingParams) (int64, error)
	GetListing(ctx ctx.Ctx, id int64) (*ListingInfo, error)
	// GetListings returns the catalog in insertion order, optionally
	// filtered by status
	GetListings(ctx ctx.Ctx, status *listing.Status) ([]*ListingInfo, error)
	GetTotalListings(ctx ctx.Ctx) (int64, error)
	GetSellerListings(ctx ctx.Ctx, seller domain.Address) ([]int64, error)

	// BuyListing atomically flips the listing to sold and opens the
	// escrow transaction. paidAmount must equal the listing price.
	BuyListing(ctx ctx.Ctx, id int64, buyer domain.Address, paidAmount string) error
	// ConfirmDelivery releases escrow to the seller, buyer only
	ConfirmDelivery(ctx ctx.Ctx, id int64, caller domain.Address) error
	// DisableListing retires an available listing, seller only
	DisableListing(ctx ctx.Ctx, id int64, caller domain.Address) error

	GetTransaction(ctx ctx.Ctx, id int64) (*escrow.Transaction, error)
	GetPartyTransactions(ctx ctx.Ctx, party domain.Address) ([]int64, error)
	GetCustody(ctx ctx.Ctx, id int64) (string, error)
	GetBalance(ctx ctx.Ctx, party domain.Address) (string, error)
}
