package usecase

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/etherbay/goapi/base/ctx"
	"github.com/etherbay/goapi/domain"
	"github.com/etherbay/goapi/domain/escrow"
	"github.com/etherbay/goapi/domain/listing"
	"github.com/etherbay/goapi/domain/market"
	escrowRepo "github.com/etherbay/goapi/stores/escrow/repository"
	listingRepo "github.com/etherbay/goapi/stores/listing/repository"
)

const (
	sellerAddr = domain.Address("0xbc4ca0eda7647a8ab7c2061c2e118a18a936f13d")
	buyerAddr  = domain.Address("0x939ae6a4c8dfdbb1f7085189574f0a938013952a")
	otherAddr  = domain.Address("0xce4468e7ce84aceb74363f4ea64e5a038176f369")
)

// capturePublisher records published events in order
type capturePublisher struct {
	events []*market.Event
}

func (p *capturePublisher) Publish(c ctx.Ctx, ev *market.Event) {
	p.events = append(p.events, ev)
}

type marketSuite struct {
	suite.Suite

	ctx      ctx.Ctx
	listings listing.Repo
	ledger   escrow.Ledger
	feed     *capturePublisher
	im       market.Usecase
}

func TestMarketSuite(t *testing.T) {
	suite.Run(t, new(marketSuite))
}

func (s *marketSuite) SetupTest() {
	s.ctx = ctx.Background()
	s.listings = listingRepo.NewListingRepo()
	s.ledger = escrowRepo.NewEscrowLedger()
	s.feed = &capturePublisher{}
	s.im = New(&MarketUseCaseCfg{
		ListingRepo:  s.listings,
		EscrowLedger: s.ledger,
		Feed:         s.feed,
	})
}

func (s *marketSuite) createListing(price string) int64 {
	id, err := s.im.CreateListing(s.ctx, market.CreateListingParams{
		Seller:      sellerAddr,
		PriceWei:    price,
		Title:       "wedding dress",
		Description: "brand new",
		ImageRef:    "QmYwAPJzv5CZsnA625s3Xf2nemtYgPpHdWEz79ojWnPbdG",
	})
	s.Require().NoError(err)
	return id
}

func (s *marketSuite) TestCreateListing() {
	id := s.createListing("100")
	s.Equal(int64(1), id)

	info, err := s.im.GetListing(s.ctx, id)
	s.NoError(err)
	s.Equal(listing.StatusAvailable, info.Status)
	s.Equal("100", info.PriceWei)
	s.Equal(sellerAddr, info.Seller)

	count, err := s.im.GetTotalListings(s.ctx)
	s.NoError(err)
	s.Equal(int64(1), count)

	s.Require().Len(s.feed.events, 1)
	s.Equal(market.EventListingCreated, s.feed.events[0].Type)
	s.Equal(id, s.feed.events[0].ListingId)
}

func (s *marketSuite) TestCreateListingRejectsZeroPrice() {
	_, err := s.im.CreateListing(s.ctx, market.CreateListingParams{Seller: sellerAddr, PriceWei: "0"})
	s.ErrorIs(err, domain.ErrInvalidPrice)
	s.Empty(s.feed.events)
}

func (s *marketSuite) TestBuyThenConfirmDelivery() {
	id := s.createListing("100")

	s.NoError(s.im.BuyListing(s.ctx, id, buyerAddr, "100"))

	info, err := s.im.GetListing(s.ctx, id)
	s.NoError(err)
	s.Equal(listing.StatusSold, info.Status)

	tx, err := s.im.GetTransaction(s.ctx, id)
	s.NoError(err)
	s.Equal(escrow.TxStatusAwaitingDelivery, tx.Status)
	s.Equal("100", tx.Amount)
	s.Equal(buyerAddr, tx.Buyer)
	s.Equal(sellerAddr, tx.Seller)

	held, err := s.im.GetCustody(s.ctx, id)
	s.NoError(err)
	s.Equal("100", held)

	s.NoError(s.im.ConfirmDelivery(s.ctx, id, buyerAddr))

	tx, err = s.im.GetTransaction(s.ctx, id)
	s.NoError(err)
	s.Equal(escrow.TxStatusComplete, tx.Status)

	held, err = s.im.GetCustody(s.ctx, id)
	s.NoError(err)
	s.Equal("0", held)

	balance, err := s.im.GetBalance(s.ctx, sellerAddr)
	s.NoError(err)
	s.Equal("100", balance)

	// listing stays sold after delivery
	info, err = s.im.GetListing(s.ctx, id)
	s.NoError(err)
	s.Equal(listing.StatusSold, info.Status)

	s.Require().Len(s.feed.events, 3)
	s.Equal(market.EventListingSold, s.feed.events[1].Type)
	s.Equal(market.EventDeliveryConfirmed, s.feed.events[2].Type)
}

func (s *marketSuite) TestBuyListingFailures() {
	id := s.createListing("100")

	s.ErrorIs(s.im.BuyListing(s.ctx, 99, buyerAddr, "100"), domain.ErrNotFound)
	s.ErrorIs(s.im.BuyListing(s.ctx, id, buyerAddr, "99"), domain.ErrAmountMismatch)
	s.ErrorIs(s.im.BuyListing(s.ctx, id, sellerAddr, "100"), domain.ErrSelfPurchase)

	// failed purchases leave the listing available and open no transaction
	info, err := s.im.GetListing(s.ctx, id)
	s.NoError(err)
	s.Equal(listing.StatusAvailable, info.Status)
	_, err = s.im.GetTransaction(s.ctx, id)
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *marketSuite) TestSecondBuyAlwaysLosesDeterministically() {
	id := s.createListing("100")

	s.NoError(s.im.BuyListing(s.ctx, id, buyerAddr, "100"))
	s.ErrorIs(s.im.BuyListing(s.ctx, id, otherAddr, "100"), domain.ErrNotAvailable)

	// first buyer keeps the transaction
	tx, err := s.im.GetTransaction(s.ctx, id)
	s.NoError(err)
	s.Equal(buyerAddr, tx.Buyer)
}

func (s *marketSuite) TestConfirmDeliveryFailures() {
	id := s.createListing("100")
	s.NoError(s.im.BuyListing(s.ctx, id, buyerAddr, "100"))

	s.ErrorIs(s.im.ConfirmDelivery(s.ctx, 99, buyerAddr), domain.ErrNotFound)
	s.ErrorIs(s.im.ConfirmDelivery(s.ctx, id, sellerAddr), domain.ErrUnauthorized)

	tx, err := s.im.GetTransaction(s.ctx, id)
	s.NoError(err)
	s.Equal(escrow.TxStatusAwaitingDelivery, tx.Status)

	s.NoError(s.im.ConfirmDelivery(s.ctx, id, buyerAddr))
	s.ErrorIs(s.im.ConfirmDelivery(s.ctx, id, buyerAddr), domain.ErrAlreadyComplete)

	// the seller is paid exactly once
	balance, err := s.im.GetBalance(s.ctx, sellerAddr)
	s.NoError(err)
	s.Equal("100", balance)
}

func (s *marketSuite) TestDisableListing() {
	id := s.createListing("100")

	s.ErrorIs(s.im.DisableListing(s.ctx, 99, sellerAddr), domain.ErrNotFound)
	s.ErrorIs(s.im.DisableListing(s.ctx, id, otherAddr), domain.ErrUnauthorized)

	info, err := s.im.GetListing(s.ctx, id)
	s.NoError(err)
	s.Equal(listing.StatusAvailable, info.Status)

	s.NoError(s.im.DisableListing(s.ctx, id, sellerAddr))

	info, err = s.im.GetListing(s.ctx, id)
	s.NoError(err)
	s.Equal(listing.StatusDisabled, info.Status)

	// disabled listings cannot be bought or disabled again
	s.ErrorIs(s.im.BuyListing(s.ctx, id, buyerAddr, "100"), domain.ErrNotAvailable)
	s.ErrorIs(s.im.DisableListing(s.ctx, id, sellerAddr), domain.ErrNotAvailable)
}

func (s *marketSuite) TestDisableSoldListingFails() {
	id := s.createListing("100")
	s.NoError(s.im.BuyListing(s.ctx, id, buyerAddr, "100"))
	s.ErrorIs(s.im.DisableListing(s.ctx, id, sellerAddr), domain.ErrNotAvailable)
}

func (s *marketSuite) TestQuerySurface() {
	id1 := s.createListing("100")
	id2 := s.createListing("200")
	s.NoError(s.im.BuyListing(s.ctx, id1, buyerAddr, "100"))

	ids, err := s.im.GetSellerListings(s.ctx, sellerAddr)
	s.NoError(err)
	s.Equal([]int64{id1, id2}, ids)

	txIds, err := s.im.GetPartyTransactions(s.ctx, buyerAddr)
	s.NoError(err)
	s.Equal([]int64{id1}, txIds)

	txIds, err = s.im.GetPartyTransactions(s.ctx, sellerAddr)
	s.NoError(err)
	s.Equal([]int64{id1}, txIds)

	info, err := s.im.GetListing(s.ctx, id2)
	s.NoError(err)
	s.Equal("0.0000000000000002", info.DisplayPrice)

	all, err := s.im.GetListings(s.ctx, nil)
	s.NoError(err)
	s.Require().Len(all, 2)

	available := listing.StatusAvailable
	open, err := s.im.GetListings(s.ctx, &available)
	s.NoError(err)
	s.Require().Len(open, 1)
	s.Equal(id2, open[0].Id)
}

// failingLedger rejects every Open to exercise the buy rollback path
type failingLedger struct {
	escrow.Ledger
}

func (f *failingLedger) Open(c ctx.Ctx, p escrow.OpenParams) error {
	return domain.ErrAlreadyExists
}

func (s *marketSuite) TestBuyRevertsStatusWhenEscrowOpenFails() {
	im := New(&MarketUseCaseCfg{
		ListingRepo:  s.listings,
		EscrowLedger: &failingLedger{s.ledger},
		Feed:         s.feed,
	})

	id, err := im.CreateListing(s.ctx, market.CreateListingParams{
		Seller:   sellerAddr,
		PriceWei: "100",
		Title:    "wedding dress",
	})
	s.Require().NoError(err)

	s.ErrorIs(im.BuyListing(s.ctx, id, buyerAddr, "100"), domain.ErrAlreadyExists)

	// the staged status write is unwound, nothing partial remains
	info, err := im.GetListing(s.ctx, id)
	s.NoError(err)
	s.Equal(listing.StatusAvailable, info.Status)
	s.ErrorIs(im.BuyListing(s.ctx, id, sellerAddr, "100"), domain.ErrSelfPurchase)
}
