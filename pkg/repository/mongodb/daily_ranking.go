package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/studyhall/pkg/domain/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type rankingEntryDocument struct {
	Rank                   int    `bson:"rank"`
	FullName               string `bson:"fullName"`
	FirstName              string `bson:"firstName"`
	LastName               string `bson:"lastName"`
	Email                  string `bson:"email,omitempty"`
	TotalDuration          int    `bson:"totalDuration"`
	TotalDurationFormatted string `bson:"totalDurationFormatted"`
	SessionCount           int    `bson:"sessionCount"`
}

type dailyRankingDocument struct {
	Key                string                 `bson:"_id"`
	Date               time.Time              `bson:"date"`
	Rankings           []rankingEntryDocument `bson:"rankings"`
	TotalParticipants  int                    `bson:"totalParticipants"`
	ComputedAt         time.Time              `bson:"computedAt"`
	AttendanceRecordID string                 `bson:"attendanceRecordId,omitempty"`
}

func toDailyRankingDocument(r *model.DailyRanking) *dailyRankingDocument {
	rankings := make([]rankingEntryDocument, len(r.Rankings))
	for i, e := range r.Rankings {
		rankings[i] = rankingEntryDocument(e)
	}
	computedAt := r.ComputedAt
	if computedAt.IsZero() {
		computedAt = time.Now().UTC()
	}
	return &dailyRankingDocument{
		Key:                model.DateKey(r.Date),
		Date:               model.TruncateDay(r.Date),
		Rankings:           rankings,
		TotalParticipants:  r.TotalParticipants,
		ComputedAt:         computedAt.Truncate(time.Millisecond),
		AttendanceRecordID: string(r.AttendanceRecordID),
	}
}

func (d *dailyRankingDocument) toModel() *model.DailyRanking {
	rankings := make([]model.RankingEntry, len(d.Rankings))
	for i, e := range d.Rankings {
		rankings[i] = model.RankingEntry(e)
	}
	return &model.DailyRanking{
		Date:               d.Date.UTC(),
		Rankings:           rankings,
		TotalParticipants:  d.TotalParticipants,
		ComputedAt:         d.ComputedAt.UTC(),
		AttendanceRecordID: model.AttendanceRecordID(d.AttendanceRecordID),
	}
}

type dailyRankingRepository struct {
	coll *mongo.Collection
}

func (r *dailyRankingRepository) Put(ctx context.Context, ranking *model.DailyRanking) (*model.DailyRanking, error) {
	doc := toDailyRankingDocument(ranking)

	opts := options.Replace().SetUpsert(true)
	if _, err := r.coll.ReplaceOne(ctx, bson.M{"_id": doc.Key}, doc, opts); err != nil {
		return nil, goerr.Wrap(err, "failed to put daily ranking", goerr.V("date", doc.Key))
	}
	return doc.toModel(), nil
}

func (r *dailyRankingRepository) GetByDate(ctx context.Context, date time.Time) (*model.DailyRanking, error) {
	key := model.DateKey(date)

	var doc dailyRankingDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, goerr.Wrap(ErrNotFound, "daily ranking not found", goerr.V("date", key))
		}
		return nil, goerr.Wrap(err, "failed to get daily ranking", goerr.V("date", key))
	}
	return doc.toModel(), nil
}

func (r *dailyRankingRepository) ListInRange(ctx context.Context, from, to time.Time) ([]*model.DailyRanking, error) {
	filter := bson.M{"date": bson.M{
		"$gte": model.TruncateDay(from),
		"$lte": model.TruncateDay(to),
	}}
	return r.find(ctx, filter, findOptions(1, 0, 0))
}

func (r *dailyRankingRepository) List(ctx context.Context, offset, limit int) ([]*model.DailyRanking, int, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, 0, goerr.Wrap(err, "failed to count daily rankings")
	}

	rankings, err := r.find(ctx, bson.M{}, findOptions(-1, offset, limit))
	if err != nil {
		return nil, 0, err
	}
	return rankings, int(total), nil
}

func (r *dailyRankingRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*model.DailyRanking, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to find daily rankings")
	}

	var docs []dailyRankingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, goerr.Wrap(err, "failed to decode daily rankings")
	}

	rankings := make([]*model.DailyRanking, 0, len(docs))
	for i := range docs {
		rankings = append(rankings, docs[i].toModel())
	}
	return rankings, nil
}

func (r *dailyRankingRepository) DeleteByDate(ctx context.Context, date time.Time) error {
	key := model.DateKey(date)

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": key})
	if err != nil {
		return goerr.Wrap(err, "failed to delete daily ranking", goerr.V("date", key))
	}
	if res.DeletedCount == 0 {
		return goerr.Wrap(ErrNotFound, "daily ranking not found", goerr.V("date", key))
	}
	return nil
}
