package mongodb

import (
	"context"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/studyhall/pkg/domain/interfaces"
	"github.com/secmon-lab/studyhall/pkg/domain/model"
	"github.com/secmon-lab/studyhall/pkg/domain/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type attendanceEntryDocument struct {
	FirstName  string    `bson:"firstName"`
	LastName   string    `bson:"lastName"`
	Email      string    `bson:"email,omitempty"`
	Duration   int       `bson:"duration"`
	TimeJoined time.Time `bson:"timeJoined"`
	TimeExited time.Time `bson:"timeExited"`
}

type attendanceRecordDocument struct {
	Key          string                    `bson:"_id"`
	ID           string                    `bson:"recordId"`
	Date         time.Time                 `bson:"date"`
	Entries      []attendanceEntryDocument `bson:"entries"`
	FileName     string                    `bson:"fileName"`
	FileType     string                    `bson:"fileType"`
	SourceURI    string                    `bson:"sourceUri,omitempty"`
	Status       string                    `bson:"status"`
	ErrorMessage string                    `bson:"errorMessage,omitempty"`
	CreatedAt    time.Time                 `bson:"createdAt"`
	UpdatedAt    time.Time                 `bson:"updatedAt"`
}

func toAttendanceRecordDocument(r *model.AttendanceRecord) *attendanceRecordDocument {
	entries := make([]attendanceEntryDocument, len(r.Entries))
	for i, e := range r.Entries {
		entries[i] = attendanceEntryDocument(e)
	}
	return &attendanceRecordDocument{
		Key:          model.DateKey(r.Date),
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
		entries[i].TimeJoined = e.TimeJoined.UTC()
		entries[i].TimeExited = e.TimeExited.UTC()
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
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

type attendanceRecordRepository struct {
	coll *mongo.Collection
}

func (r *attendanceRecordRepository) Put(ctx context.Context, record *model.AttendanceRecord) (*model.AttendanceRecord, error) {
	doc := toAttendanceRecordDocument(record)
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc.UpdatedAt = now

	var existing attendanceRecordDocument
	err := r.coll.FindOne(ctx, bson.M{"_id": doc.Key}).Decode(&existing)
	switch {
	case err == nil:
		doc.ID = existing.ID
		doc.CreatedAt = existing.CreatedAt
	case errors.Is(err, mongo.ErrNoDocuments):
		if doc.ID == "" {
			doc.ID = string(model.NewAttendanceRecordID())
		}
		doc.CreatedAt = now
	default:
		return nil, goerr.Wrap(err, "failed to get attendance record", goerr.V("date", doc.Key))
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := r.coll.ReplaceOne(ctx, bson.M{"_id": doc.Key}, doc, opts); err != nil {
		return nil, goerr.Wrap(err, "failed to put attendance record", goerr.V("date", doc.Key))
	}
	return doc.toModel(), nil
}

func (r *attendanceRecordRepository) GetByDate(ctx context.Context, date time.Time) (*model.AttendanceRecord, error) {
	key := model.DateKey(date)

	var doc attendanceRecordDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, goerr.Wrap(ErrNotFound, "attendance record not found", goerr.V("date", key))
		}
		return nil, goerr.Wrap(err, "failed to get attendance record", goerr.V("date", key))
	}
	return doc.toModel(), nil
}

func (r *attendanceRecordRepository) List(ctx context.Context, offset, limit int, opts ...interfaces.ListRecordOption) ([]*model.AttendanceRecord, int, error) {
	cfg := interfaces.BuildListRecordConfig(opts...)

	filter := bson.M{}
	if s := cfg.Status(); s != nil {
		filter["status"] = string(*s)
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, goerr.Wrap(err, "failed to count attendance records")
	}

	cur, err := r.coll.Find(ctx, filter, findOptions(-1, offset, limit))
	if err != nil {
		return nil, 0, goerr.Wrap(err, "failed to find attendance records")
	}

	var docs []attendanceRecordDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, goerr.Wrap(err, "failed to decode attendance records")
	}

	records := make([]*model.AttendanceRecord, 0, len(docs))
	for i := range docs {
		records = append(records, docs[i].toModel())
	}
	return records, int(total), nil
}

func (r *attendanceRecordRepository) DeleteByDate(ctx context.Context, date time.Time) error {
	key := model.DateKey(date)

	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": key})
	if err != nil {
		return goerr.Wrap(err, "failed to delete attendance record", goerr.V("date", key))
	}
	if res.DeletedCount == 0 {
		return goerr.Wrap(ErrNotFound, "attendance record not found", goerr.V("date", key))
	}
	return nil
}
