package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/studyhall/pkg/domain/interfaces"
	"github.com/secmon-lab/studyhall/pkg/domain/model"
	"github.com/secmon-lab/studyhall/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type attendanceEntryDocument struct {
	FirstName  string    `firestore:"first_name"`
	LastName   string    `firestore:"last_name"`
	Email      string    `firestore:"email"`
	Duration   int       `firestore:"duration"`
	TimeJoined time.Time `firestore:"time_joined"`
	TimeExited time.Time `firestore:"time_exited"`
}

type attendanceRecordDocument struct {
	ID           string                    `firestore:"id"`
	Date         time.Time                 `firestore:"date"`
	Entries      []attendanceEntryDocument `firestore:"entries"`
	FileName     string                    `firestore:"file_name"`
	FileType     string                    `firestore:"file_type"`
	SourceURI    string                    `firestore:"source_uri"`
	Status       string                    `firestore:"status"`
	ErrorMessage string                    `firestore:"error_message"`
	CreatedAt    time.Time                 `firestore:"created_at"`
	UpdatedAt    time.Time                 `firestore:"updated_at"`
}

func toAttendanceRecordDocument(r *model.AttendanceRecord) *attendanceRecordDocument {
	entries := make([]attendanceEntryDocument, len(r.Entries))
	for i, e := range r.Entries {
		entries[i] = attendanceEntryDocument(e)
	}
	return &attendanceRecordDocument{
		ID:           string(r.ID),
		Date:         model.TruncateDay(r.Date),
		Entries:      entries,
		FileName:     r.FileName,
		FileType:     string(r.FileType),
		SourceURI:    r.SourceURI,
		Status:       string(r.Status),
		ErrorMessage: r.ErrorMessage,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (d *attendanceRecordDocument) toModel() *model.AttendanceRecord {
	entries := make([]model.AttendanceEntry, len(d.Entries))
	for i, e := range d.Entries {
		entries[i] = model.AttendanceEntry(e)
	}
	return &model.AttendanceRecord{
		ID:           model.AttendanceRecordID(d.ID),
		Date:         d.Date.UTC(),
		Entries:      entries,
		FileName:     d.FileName,
		FileType:     types.FileType(d.FileType),
		SourceURI:    d.SourceURI,
		Status:       types.RecordStatus(d.Status),
		ErrorMessage: d.ErrorMessage,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type attendanceRecordRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newAttendanceRecordRepository(client *firestore.Client) *attendanceRecordRepository {
	return &attendanceRecordRepository{client: client}
}

func (r *attendanceRecordRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(CollectionName(r.collectionPrefix, AttendanceRecordsCollection))
}

func (r *attendanceRecordRepository) Put(ctx context.Context, record *model.AttendanceRecord) (*model.AttendanceRecord, error) {
	key := model.DateKey(record.Date)
	docRef := r.collection().Doc(key)
	doc := toAttendanceRecordDocument(record)

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		now := time.Now().UTC()
		doc.UpdatedAt = now

		snap, err := tx.Get(docRef)
		switch {
		case err == nil:
			var existing attendanceRecordDocument
			if err := snap.DataTo(&existing); err != nil {
				return goerr.Wrap(err, "failed to decode attendance record", goerr.V("date", key))
			}
			doc.ID = existing.ID
			doc.CreatedAt = existing.CreatedAt
		case status.Code(err) == codes.NotFound:
			if doc.ID == "" {
				doc.ID = string(model.NewAttendanceRecordID())
			}
			doc.CreatedAt = now
		default:
			return goerr.Wrap(err, "failed to get attendance record", goerr.V("date", key))
		}

		return tx.Set(docRef, doc)
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to put attendance record", goerr.V("date", key))
	}

	return doc.toModel(), nil
}

func (r *attendanceRecordRepository) GetByDate(ctx context.Context, date time.Time) (*model.AttendanceRecord, error) {
	key := model.DateKey(date)
	snap, err := r.collection().Doc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "attendance record not found", goerr.V("date", key))
		}
		return nil, goerr.Wrap(err, "failed to get attendance record", goerr.V("date", key))
	}

	var doc attendanceRecordDocument
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode attendance record", goerr.V("date", key))
	}
	return doc.toModel(), nil
}

func (r *attendanceRecordRepository) List(ctx context.Context, offset, limit int, opts ...interfaces.ListRecordOption) ([]*model.AttendanceRecord, int, error) {
	cfg := interfaces.BuildListRecordConfig(opts...)

	q := r.collection().Query
	if s := cfg.Status(); s != nil {
		q = q.Where("status", "==", string(*s))
	}

	total, err := countQuery(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	iter := window(q.OrderBy("date", firestore.Desc), offset, limit).Documents(ctx)
	defer iter.Stop()

	var records []*model.AttendanceRecord
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, goerr.Wrap(err, "failed to iterate attendance records")
		}

		var doc attendanceRecordDocument
		if err := snap.DataTo(&doc); err != nil {
			return nil, 0, goerr.Wrap(err, "failed to decode attendance record", goerr.V("doc_id", snap.Ref.ID))
		}
		records = append(records, doc.toModel())
	}

	return records, total, nil
}

func (r *attendanceRecordRepository) DeleteByDate(ctx context.Context, date time.Time) error {
	key := model.DateKey(date)
	docRef := r.collection().Doc(key)

	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "attendance record not found", goerr.V("date", key))
		}
		return goerr.Wrap(err, "failed to get attendance record", goerr.V("date", key))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete attendance record", goerr.V("date", key))
	}
	return nil
}
