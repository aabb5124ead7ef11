package query

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/etherbay/goapi/base/ctx"
	"github.com/etherbay/goapi/base/database/mongoclient"
	"github.com/etherbay/goapi/base/log"
	"github.com/etherbay/goapi/base/metrics"
	"github.com/etherbay/goapi/domain"
)

type impl struct {
	client *mongoclient.Client
	met    metrics.Service
}

// New creates a query service backed by the given client
func New(client *mongoclient.Client) Mongo {
	return &impl{
		client: client,
		met:    metrics.New("query"),
	}
}

func (q *impl) collection(table domain.Table) *mongo.Collection {
	return q.client.Database().Collection(string(table))
}

func (q *impl) Insert(context ctx.Ctx, table domain.Table, insert interface{}) error {
	defer q.met.BumpTime("insert.time", "table", string(table)).End()

	if _, err := q.collection(table).InsertOne(context, insert); err != nil {
		context.WithFields(log.Fields{"err": err, "table": table}).Error("InsertOne failed")
		return err
	}
	return nil
}

func (q *impl) FindOne(context ctx.Ctx, table domain.Table, query, result interface{}) error {
	defer q.met.BumpTime("findOne.time", "table", string(table)).End()

	err := q.collection(table).FindOne(context, query).Decode(result)
	if err == mongo.ErrNoDocuments {
		return ErrNotFound
	}
	if err != nil {
		context.WithFields(log.Fields{"err": err, "table": table}).Error("FindOne failed")
		return err
	}
	return nil
}

func (q *impl) Count(context ctx.Ctx, table domain.Table, selector interface{}) (int, error) {
	defer q.met.BumpTime("count.time", "table", string(table)).End()

	n, err := q.collection(table).CountDocuments(context, selector)
	if err != nil {
		context.WithFields(log.Fields{"err": err, "table": table}).Error("CountDocuments failed")
		return 0, err
	}
	return int(n), nil
}

func (q *impl) Search(context ctx.Ctx, table domain.Table, offset, limit int, sort string, query, results interface{}) error {
	defer q.met.BumpTime("search.time", "table", string(table)).End()

	opts := options.Find().SetSkip(int64(offset))
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	if sort != "" {
		dir := 1
		field := sort
		if strings.HasPrefix(sort, "-") {
			dir = -1
			field = sort[1:]
		}
		opts = opts.SetSort(bson.D{{Key: field, Value: dir}})
	}

	cursor, err := q.collection(table).Find(context, query, opts)
	if err != nil {
		context.WithFields(log.Fields{"err": err, "table": table}).Error("Find failed")
		return err
	}
	defer cursor.Close(context)

	if err := cursor.All(context, results); err != nil {
		context.WithFields(log.Fields{"err": err, "table": table}).Error("cursor.All failed")
		return err
	}
	return nil
}

func (q *impl) RemoveAll(context ctx.Ctx, table domain.Table, selector interface{}) (int64, error) {
	defer q.met.BumpTime("removeAll.time", "table", string(table)).End()

	res, err := q.collection(table).DeleteMany(context, selector)
	if err != nil {
		context.WithFields(log.Fields{"err": err, "table": table}).Error("DeleteMany failed")
		return 0, err
	}
	return res.DeletedCount, nil
}
