package repository

import (
	"time"

	"github.com/etherbay/goapi/base/ctx"
	"github.com/etherbay/goapi/base/log"
	"github.com/etherbay/goapi/domain"
	"github.com/etherbay/goapi/domain/listing"
)

// listingRepoImpl is the authoritative listing catalog. State lives in
// process memory; the market usecase serializes every mutation, so no
// locking happens here. Ids grow monotonically from 1 and are never
// reused, disabled and never-sold listings included.
type listingRepoImpl struct {
	byId     map[int64]*listing.Listing
	bySeller map[domain.Address][]int64
	nextId   int64
}

func NewListingRepo() listing.Repo {
	return &listingRepoImpl{
		byId:     map[int64]*listing.Listing{},
		bySeller: map[domain.Address][]int64{},
		nextId:   1,
	}
}

func (im *listingRepoImpl) Create(c ctx.Ctx, p listing.CreateParams) (int64, error) {
	price, err := domain.ParseWei(p.PriceWei)
	if err != nil {
		c.WithFields(log.Fields{"err": err, "price": p.PriceWei}).Error("invalid price")
		return 0, domain.ErrInvalidPrice
	}
	if price.Sign() == 0 {
		return 0, domain.ErrInvalidPrice
	}

	seller := p.Seller.ToLower()
	id := im.nextId
	im.nextId++

	im.byId[id] = &listing.Listing{
		Id:          id,
		Seller:      seller,
		PriceWei:    price.String(),
		Title:       p.Title,
		Description: p.Description,
		ImageRef:    p.ImageRef,
		Status:      listing.StatusAvailable,
		CreatedAt:   time.Now().UTC(),
	}
	im.bySeller[seller] = append(im.bySeller[seller], id)

	return id, nil
}

func (im *listingRepoImpl) FindOne(c ctx.Ctx, id int64) (*listing.Listing, error) {
	l, ok := im.byId[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (im *listingRepoImpl) SetStatus(c ctx.Ctx, id int64, next listing.Status) error {
	l, ok := im.byId[id]
	if !ok {
		return domain.ErrNotFound
	}
	if !next.IsValid() || !l.Status.CanTransitionTo(next) {
		c.WithFields(log.Fields{
			"id":   id,
			"from": l.Status,
			"to":   next,
		}).Warn("rejected status transition")
		return domain.ErrInvalidTransition
	}
	l.Status = next
	return nil
}

// RevertStatus restores a staged status write while the failed operation
// that staged it is still in flight. It bypasses the transition check and
// is only reachable from the market usecase's rollback path.
func (im *listingRepoImpl) RevertStatus(c ctx.Ctx, id int64, prev listing.Status) {
	if l, ok := im.byId[id]; ok {
		l.Status = prev
	}
}

func (im *listingRepoImpl) FindAll(c ctx.Ctx, status *listing.Status) ([]*listing.Listing, error) {
	res := []*listing.Listing{}
	for id := int64(1); id < im.nextId; id++ {
		l := im.byId[id]
		if status != nil && l.Status != *status {
			continue
		}
		cp := *l
		res = append(res, &cp)
	}
	return res, nil
}

func (im *listingRepoImpl) FindIdsBySeller(c ctx.Ctx, seller domain.Address) ([]int64, error) {
	ids := im.bySeller[seller.ToLower()]
	res := make([]int64, len(ids))
	copy(res, ids)
	return res, nil
}

func (im *listingRepoImpl) Count(c ctx.Ctx) (int64, error) {
	return im.nextId - 1, nil
}
