package activity

import (
	"time"

	"github.com/etherbay/goapi/base/ctx"
	"github.com/etherbay/goapi/domain"
)

// Activity is the archived form of a market event. The archive is not part
// of the ledger's atomicity boundary, it is written after commit.
type Activity struct {
	ListingId int64          `json:"listingId" bson:"listingId"`
	Type      string         `json:"type" bson:"type"`
	Status    string         `json:"status" bson:"status"`
	Actor     domain.Address `json:"actor" bson:"actor"`
	Amount    string         `json:"amount,omitempty" bson:"amount,omitempty"`
	Time      time.Time      `json:"time" bson:"time"`
}

type FindAllOptions struct {
	Actor     *domain.Address
	ListingId *int64
	Type      *string
	Offset    *int32
	Limit     *int32
}

type FindAllOptionsFunc func(*FindAllOptions) error

func GetFindAllOptions(opts ...FindAllOptionsFunc) (FindAllOptions, error) {
	res := FindAllOptions{}
	for _, opt := range opts {
		if err := opt(&res); err != nil {
			return res, err
		}
	}
	return res, nil
}

func WithActor(actor domain.Address) FindAllOptionsFunc {
	return func(o *FindAllOptions) error {
		o.Actor = &actor
		return nil
	}
}

func WithListingId(id int64) FindAllOptionsFunc {
	return func(o *FindAllOptions) error {
		o.ListingId = &id
		return nil
	}
}

func WithType(t string) FindAllOptionsFunc {
	return func(o *FindAllOptions) error {
		o.Type = &t
		return nil
	}
}

func WithPagination(offset, limit int32) FindAllOptionsFunc {
	return func(o *FindAllOptions) error {
		o.Offset = &offset
		o.Limit = &limit
		return nil
	}
}

type Repo interface {
	Insert(ctx ctx.Ctx, a *Activity) error
	FindAll(ctx ctx.Ctx, opts ...FindAllOptionsFunc) ([]*Activity, error)
	Count(ctx ctx.Ctx, opts ...FindAllOptionsFunc) (int, error)
}

type Usecase interface {
	Insert(ctx ctx.Ctx, a *Activity) error
	FindAll(ctx ctx.Ctx, opts ...FindAllOptionsFunc) ([]*Activity, error)
	Count(ctx ctx.Ctx, opts ...FindAllOptionsFunc) (int, error)
}
