package mongoclient

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/etherbay/goapi/base/log"
)

const mgSocketTimeout = 60 * time.Second

// Client wraps mongo.Client with the database it operates on
type Client struct {
	DbName string
	*mongo.Client
}

// MustConnectMongoClient returns a connected client or panics
func MustConnectMongoClient(uri, dbName string, poolSize uint64) *Client {
	cli, err := ConnectMongoClient(uri, dbName, poolSize)
	if err != nil {
		log.Log().WithFields(log.Fields{"mongoURI": uri, "err": err}).Panic("fail to dial mongo")
	}
	return cli
}

// ConnectMongoClient dials mongo and verifies the connection with a ping
func ConnectMongoClient(uri, dbName string, poolSize uint64) (*Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOpts := options.Client().
		ApplyURI(uri).
		SetSocketTimeout(mgSocketTimeout).
		SetMaxPoolSize(poolSize)

	cli, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, err
	}

	if err := cli.Ping(ctx, readpref.Primary()); err != nil {
		return nil, err
	}

	return &Client{DbName: dbName, Client: cli}, nil
}

// Database returns the configured database handle
func (c *Client) Database() *mongo.Database {
	return c.Client.Database(c.DbName)
}

// Healthy reports whether the primary still answers a ping
func (c *Client) Healthy(ctx context.Context) bool {
	return c.Ping(ctx, readpref.Primary()) == nil
}
