package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/studyhall/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type rankingEntryDocument struct {
	Rank                   int    `firestore:"rank"`
	FullName               string `firestore:"full_name"`
	FirstName              string `firestore:"first_name"`
	LastName               string `firestore:"last_name"`
	Email                  string `firestore:"email"`
	TotalDuration          int    `firestore:"total_duration"`
	TotalDurationFormatted string `firestore:"total_duration_formatted"`
	SessionCount           int    `firestore:"session_count"`
}

type dailyRankingDocument struct {
	Date               time.Time              `firestore:"date"`
	Rankings           []rankingEntryDocument `firestore:"rankings"`
	TotalParticipants  int                    `firestore:"total_participants"`
	ComputedAt         time.Time              `firestore:"computed_at"`
	AttendanceRecordID string                 `firestore:"attendance_record_id"`
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
		Date:               model.TruncateDay(r.Date),
		Rankings:           rankings,
		TotalParticipants:  r.TotalParticipants,
		ComputedAt:         computedAt,
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
		ComputedAt:         d.ComputedAt,
		AttendanceRecordID: model.AttendanceRecordID(d.AttendanceRecordID),
	}
}

type dailyRankingRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newDailyRankingRepository(client *firestore.Client) *dailyRankingRepository {
	return &dailyRankingRepository{client: client}
}

func (r *dailyRankingRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(CollectionName(r.collectionPrefix, DailyRankingsCollection))
}

func (r *dailyRankingRepository) Put(ctx context.Context, ranking *model.DailyRanking) (*model.DailyRanking, error) {
	doc := toDailyRankingDocument(ranking)
	key := model.DateKey(doc.Date)

	if _, err := r.collection().Doc(key).Set(ctx, doc); err != nil {
		return nil, goerr.Wrap(err, "failed to put daily ranking", goerr.V("date", key))
	}
	return doc.toModel(), nil
}

func (r *dailyRankingRepository) GetByDate(ctx context.Context, date time.Time) (*model.DailyRanking, error) {
	key := model.DateKey(date)
	snap, err := r.collection().Doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "daily ranking not found", goerr.V("date", key))
		}
		return nil, goerr.Wrap(err, "failed to get daily ranking", goerr.V("date", key))
	}

	var doc dailyRankingDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode daily ranking", goerr.V("date", key))
	}
	return doc.toModel(), nil
}

func (r *dailyRankingRepository) ListInRange(ctx context.Context, from, to time.Time) ([]*model.DailyRanking, error) {
	q := r.collection().
		Where("date", ">=", model.TruncateDay(from)).
		Where("date", "<=", model.TruncateDay(to)).
		OrderBy("date", firestore.Asc)

	return r.collect(q.Documents(ctx))
}

func (r *dailyRankingRepository) List(ctx context.Context, offset, limit int) ([]*model.DailyRanking, int, error) {
	total, err := countQuery(ctx, r.collection().Query)
	if err != nil {
		return nil, 0, err
	}

	q := window(r.collection().OrderBy("date", firestore.Desc), offset, limit)
	rankings, err := r.collect(q.Documents(ctx))
	if err != nil {
		return nil, 0, err
	}
	return rankings, total, nil
}

func (r *dailyRankingRepository) collect(iter *firestore.DocumentIterator) ([]*model.DailyRanking, error) {
	defer iter.Stop()

	var rankings []*model.DailyRanking
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate daily rankings")
		}

		var doc dailyRankingDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode daily ranking", goerr.V("doc_id", snap.Ref.ID))
		}
		rankings = append(rankings, doc.toModel())
	}
	return rankings, nil
}

func (r *dailyRankingRepository) DeleteByDate(ctx context.Context, date time.Time) error {
	key := model.DateKey(date)
	docRef := r.collection().Doc(key)

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "daily ranking not found", goerr.V("date", key))
		}
		return goerr.Wrap(err, "failed to get daily ranking", goerr.V("date", key))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete daily ranking", goerr.V("date", key))
	}
	return nil
}
