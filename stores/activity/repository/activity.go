package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/etherbay/goapi/base/ctx"
	"github.com/etherbay/goapi/base/log"
	"github.com/etherbay/goapi/domain"
	"github.com/etherbay/goapi/domain/activity"
	"github.com/etherbay/goapi/service/query"
)

type activityRepoImpl struct {
	q query.Mongo
}

func NewActivityRepo(q query.Mongo) activity.Repo {
	return &activityRepoImpl{q}
}

func (im *activityRepoImpl) makeQuery(opts ...activity.FindAllOptionsFunc) (bson.M, error) {
	options, err := activity.GetFindAllOptions(opts...)
	if err != nil {
		return nil, err
	}
	qry := bson.M{}

	if options.Actor != nil {
		qry["actor"] = options.Actor.ToLower()
	}

	if options.ListingId != nil {
		qry["listingId"] = *options.ListingId
	}

	if options.Type != nil {
		qry["type"] = *options.Type
	}

	return qry, nil
}

func (im *activityRepoImpl) Insert(c ctx.Ctx, a *activity.Activity) error {
	if err := im.q.Insert(c, domain.TableActivities, a); err != nil {
		c.WithFields(log.Fields{"err": err, "listingId": a.ListingId}).Error("q.Insert failed")
		return err
	}
	return nil
}

func (im *activityRepoImpl) FindAll(c ctx.Ctx, opts ...activity.FindAllOptionsFunc) ([]*activity.Activity, error) {
	qry, err := im.makeQuery(opts...)
	if err != nil {
		c.WithFields(log.Fields{"err": err}).Error("im.makeQuery")
		return nil, err
	}

	options, err := activity.GetFindAllOptions(opts...)
	if err != nil {
		return nil, err
	}

	offset, limit := 0, 0
	if options.Offset != nil {
		offset = int(*options.Offset)
	}
	if options.Limit != nil {
		limit = int(*options.Limit)
	}

	res := []*activity.Activity{}
	if err := im.q.Search(c, domain.TableActivities, offset, limit, "-time", qry, &res); err != nil {
		c.WithFields(log.Fields{"err": err, "query": qry}).Error("q.Search failed")
		return nil, err
	}

	return res, nil
}

func (im *activityRepoImpl) Count(c ctx.Ctx, opts ...activity.FindAllOptionsFunc) (int, error) {
	qry, err := im.makeQuery(opts...)
	if err != nil {
		c.WithFields(log.Fields{"err": err}).Error("im.makeQuery")
		return 0, err
	}

	cnt, err := im.q.Count(c, domain.TableActivities, qry)
	if err != nil {
		c.WithFields(log.Fields{"err": err, "query": qry}).Error("q.Count failed")
		return 0, err
	}

	return cnt, nil
}
