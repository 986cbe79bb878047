package mongodb

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/studyhall/pkg/domain/interfaces"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	attendanceRecordsCollection = "attendance_records"
	dailyRankingsCollection     = "daily_rankings"

	connectTimeout = 10 * time.Second
)

// MongoDB stores both collections in a single MongoDB database. Documents use the
// calendar date ("YYYY-MM-DD") as _id.
type MongoDB struct {
	client  *mongo.Client
	record  *attendanceRecordRepository
	ranking *dailyRankingRepository
}

var _ interfaces.Repository = &MongoDB{}

type config struct {
	collectionPrefix string
}

type Option func(*config)

// WithCollectionPrefix isolates collections, e.g. per test run
func WithCollectionPrefix(prefix string) Option {
	return func(c *config) {
		c.collectionPrefix = prefix
	}
}

func collectionName(prefix, name string) string {
	if prefix != "" {
		return prefix + "_" + name
	}
	return name
}

// New connects to uri and verifies the connection with a ping
func New(ctx context.Context, uri, database string, opts ...Option) (*MongoDB, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect to mongodb", goerr.V("database", database))
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, goerr.Wrap(err, "failed to ping mongodb", goerr.V("database", database))
	}

	db := client.Database(database)
	records := db.Collection(collectionName(cfg.collectionPrefix, attendanceRecordsCollection))
	rankings := db.Collection(collectionName(cfg.collectionPrefix, dailyRankingsCollection))

	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{records, mongo.IndexModel{Keys: bson.D{{Key: "status", Value: 1}, {Key: "date", Value: -1}}}},
		{records, mongo.IndexModel{Keys: bson.D{{Key: "date", Value: -1}}}},
		{rankings, mongo.IndexModel{Keys: bson.D{{Key: "date", Value: 1}}}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, goerr.Wrap(err, "failed to create index", goerr.V("collection", idx.coll.Name()))
		}
	}

	return &MongoDB{
		client:  client,
		record:  &attendanceRecordRepository{coll: records},
		ranking: &dailyRankingRepository{coll: rankings},
	}, nil
}

func (m *MongoDB) AttendanceRecord() interfaces.AttendanceRecordRepository {
	return m.record
}

func (m *MongoDB) DailyRanking() interfaces.DailyRankingRepository {
	return m.ranking
}

func (m *MongoDB) Close() error {
	if m.client == nil {
		return nil
	}
	if err := m.client.Disconnect(context.Background()); err != nil {
		return goerr.Wrap(err, "failed to disconnect mongodb")
	}
	return nil
}

// findOptions sorts by date and applies offset and limit, where a non-positive limit means no bound
func findOptions(direction, offset, limit int) *options.FindOptions {
	opts := options.Find().SetSort(bson.D{{Key: "date", Value: direction}})
	if offset > 0 {
		opts.SetSkip(int64(offset))
	}
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return opts
}
