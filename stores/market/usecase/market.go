package usecase

import (
	"sync"
	"time"

	"github.com/viney-shih/goroutines"

	"github.com/etherbay/goapi/base/ctx"
	"github.com/etherbay/goapi/base/log"
	"github.com/etherbay/goapi/base/metrics"
	"github.com/etherbay/goapi/base/pricing"
	"github.com/etherbay/goapi/domain"
	"github.com/etherbay/goapi/domain/activity"
	"github.com/etherbay/goapi/domain/escrow"
	"github.com/etherbay/goapi/domain/listing"
	"github.com/etherbay/goapi/domain/market"
)

// listingStatusReverter is the compensation hook the in-memory listing
// store provides for the buy path. SetStatus itself is write-once, the
// revert exists only to unwind a staged write inside a failed operation.
type listingStatusReverter interface {
	RevertStatus(c ctx.Ctx, id int64, prev listing.Status)
}

type MarketUseCaseCfg struct {
	ListingRepo  listing.Repo
	EscrowLedger escrow.Ledger
	Feed         market.Publisher
	ActivityUC   activity.Usecase
	ArchivePool  *goroutines.Pool
}

type impl struct {
	// mu serializes every public operation, giving the run-to-completion,
	// totally ordered execution the ledger's invariants assume
	mu sync.Mutex

	listing  listing.Repo
	escrow   escrow.Ledger
	feed     market.Publisher
	activity activity.Usecase
	pool     *goroutines.Pool
	met      metrics.Service
}

func New(cfg *MarketUseCaseCfg) market.Usecase {
	return &impl{
		listing:  cfg.ListingRepo,
		escrow:   cfg.EscrowLedger,
		feed:     cfg.Feed,
		activity: cfg.ActivityUC,
		pool:     cfg.ArchivePool,
		met:      metrics.New("market"),
	}
}

func (im *impl) CreateListing(c ctx.Ctx, p market.CreateListingParams) (int64, error) {
	defer im.met.BumpTime("createListing.time").End()
	im.mu.Lock()
	defer im.mu.Unlock()

	id, err := im.listing.Create(c, listing.CreateParams{
		Seller:      p.Seller,
		PriceWei:    p.PriceWei,
		Title:       p.Title,
		Description: p.Description,
		ImageRef:    p.ImageRef,
	})
	if err != nil {
		im.met.BumpSum("createListing.err", 1)
		return 0, err
	}

	im.emit(c, &market.Event{
		ListingId: id,
		Type:      market.EventListingCreated,
		Status:    string(listing.StatusAvailable),
		Actor:     p.Seller.ToLower(),
		Amount:    p.PriceWei,
		At:        time.Now().UTC(),
	})

	return id, nil
}

func (im *impl) GetListing(c ctx.Ctx, id int64) (*market.ListingInfo, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	l, err := im.listing.FindOne(c, id)
	if err != nil {
		return nil, err
	}

	displayPrice, err := pricing.FormatWei(l.PriceWei)
	if err != nil {
		c.WithFields(log.Fields{"err": err, "id": id}).Error("pricing.FormatWei failed")
		return nil, err
	}

	return &market.ListingInfo{Listing: *l, DisplayPrice: displayPrice}, nil
}

func (im *impl) GetListings(c ctx.Ctx, status *listing.Status) ([]*market.ListingInfo, error) {
	im.mu.Lock()
	defer im.mu.Unlock()

	ls, err := im.listing.FindAll(c, status)
	if err != nil {
		return nil, err
	}

	res := make([]*market.ListingInfo, 0, len(ls))
	for _, l := range ls {
		displayPrice, err := pricing.FormatWei(l.PriceWei)
		if err != nil {
			c.WithFields(log.Fields{"err": err, "id": l.Id}).Error("pricing.FormatWei failed")
			return nil, err
		}
		res = append(res, &market.ListingInfo{Listing: *l, DisplayPrice: displayPrice})
	}
	return res, nil
}

func (im *impl) GetTotalListings(c ctx.Ctx) (int64, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.listing.Count(c)
}

func (im *impl) GetSellerListings(c ctx.Ctx, seller domain.Address) ([]int64, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.listing.FindIdsBySeller(c, seller)
}

func (im *impl) BuyListing(c ctx.Ctx, id int64, buyer domain.Address, paidAmount string) error {
	defer im.met.BumpTime("buyListing.time").End()
	im.mu.Lock()
	defer im.mu.Unlock()

	l, err := im.listing.FindOne(c, id)
	if err != nil {
		return err
	}
	if l.Status != listing.StatusAvailable {
		return domain.ErrNotAvailable
	}

	paid, err := domain.ParseWei(paidAmount)
	if err != nil {
		return err
	}
	price, err := domain.ParseWei(l.PriceWei)
	if err != nil {
		c.WithFields(log.Fields{"err": err, "id": id}).Error("stored price unparsable")
		return domain.ErrInternalServerError
	}
	if paid.Cmp(price) != 0 {
		im.met.BumpSum("buyListing.amountMismatch", 1)
		return domain.ErrAmountMismatch
	}
	if buyer.Equals(l.Seller) {
		return domain.ErrSelfPurchase
	}

	if err := im.listing.SetStatus(c, id, listing.StatusSold); err != nil {
		return err
	}
	if err := im.escrow.Open(c, escrow.OpenParams{
		Id:     id,
		Buyer:  buyer,
		Seller: l.Seller,
		Amount: paid.String(),
	}); err != nil {
		// unwind the staged status write, the whole call must leave no effect
		if r, ok := im.listing.(listingStatusReverter); ok {
			r.RevertStatus(c, id, l.Status)
		}
		c.WithFields(log.Fields{"err": err, "id": id}).Error("escrow.Open failed, purchase reverted")
		return err
	}

	im.emit(c, &market.Event{
		ListingId: id,
		Type:      market.EventListingSold,
		Status:    string(listing.StatusSold),
		Actor:     buyer.ToLower(),
		Amount:    paid.String(),
		At:        time.Now().UTC(),
	})

	return nil
}

func (im *impl) ConfirmDelivery(c ctx.Ctx, id int64, caller domain.Address) error {
	defer im.met.BumpTime("confirmDelivery.time").End()
	im.mu.Lock()
	defer im.mu.Unlock()

	tx, err := im.escrow.Release(c, id, caller)
	if err != nil {
		return err
	}

	im.emit(c, &market.Event{
		ListingId: id,
		Type:      market.EventDeliveryConfirmed,
		Status:    string(escrow.TxStatusComplete),
		Actor:     caller.ToLower(),
		Amount:    tx.Amount,
		At:        time.Now().UTC(),
	})

	return nil
}

func (im *impl) DisableListing(c ctx.Ctx, id int64, caller domain.Address) error {
	defer im.met.BumpTime("disableListing.time").End()
	im.mu.Lock()
	defer im.mu.Unlock()

	l, err := im.listing.FindOne(c, id)
	if err != nil {
		return err
	}
	if !caller.Equals(l.Seller) {
		return domain.ErrUnauthorized
	}
	if l.Status != listing.StatusAvailable {
		return domain.ErrNotAvailable
	}

	if err := im.listing.SetStatus(c, id, listing.StatusDisabled); err != nil {
		return err
	}

	im.emit(c, &market.Event{
		ListingId: id,
		Type:      market.EventListingDisabled,
		Status:    string(listing.StatusDisabled),
		Actor:     caller.ToLower(),
		At:        time.Now().UTC(),
	})

	return nil
}

func (im *impl) GetTransaction(c ctx.Ctx, id int64) (*escrow.Transaction, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.escrow.FindOne(c, id)
}

func (im *impl) GetPartyTransactions(c ctx.Ctx, party domain.Address) ([]int64, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.escrow.FindIdsByParty(c, party)
}

func (im *impl) GetCustody(c ctx.Ctx, id int64) (string, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.escrow.CustodyOf(c, id)
}

func (im *impl) GetBalance(c ctx.Ctx, party domain.Address) (string, error) {
	im.mu.Lock()
	defer im.mu.Unlock()
	return im.escrow.BalanceOf(c, party)
}

// emit pushes the committed event to live subscribers and schedules the
// archive write. Both are outside the atomicity boundary, a failed archive
// never unwinds ledger state.
func (im *impl) emit(c ctx.Ctx, ev *market.Event) {
	if im.feed != nil {
		im.feed.Publish(c, ev)
	}
	if im.activity == nil || im.pool == nil {
		return
	}
	record := &activity.Activity{
		ListingId: ev.ListingId,
		Type:      string(ev.Type),
		Status:    ev.Status,
		Actor:     ev.Actor,
		Amount:    ev.Amount,
		Time:      ev.At,
	}
	if err := im.pool.Schedule(func() {
		bg := ctx.Background()
		if err := im.activity.Insert(bg, record); err != nil {
			bg.WithFields(log.Fields{"err": err, "listingId": record.ListingId}).Warn("activity archive write failed")
		}
	}); err != nil {
		c.WithFields(log.Fields{"err": err}).Warn("archive pool saturated, event dropped from archive")
	}
}
