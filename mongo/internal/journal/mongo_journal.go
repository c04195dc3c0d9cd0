package journal

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/petrijr/rivus/pkg/api"
)

type MongoJournal struct {
	coll *mongo.Collection
}

// Ensure it implements Journal.
var _ api.Journal = (*MongoJournal)(nil)

// NewMongoJournal creates a Mongo-backed journal.
// dbName defaults to "rivus" if empty, collName defaults to "node_records".
func NewMongoJournal(client *mongo.Client, dbName, collName string) *MongoJournal {
	if dbName == "" {
		dbName = "rivus"
	}
	if collName == "" {
		collName = "node_records"
	}

	return &MongoJournal{
		coll: client.Database(dbName).Collection(collName),
	}
}

type mongoRecordDoc struct {
	NodeID   string `bson:"node_id"`
	At       int64  `bson:"at"`
	Type     string `bson:"type"`
	InputID  string `bson:"input_id,omitempty"`
	OutputID string `bson:"output_id,omitempty"`
	Size     int    `bson:"size,omitempty"`
	Detail   string `bson:"detail,omitempty"`
}

func (j *MongoJournal) Append(ctx context.Context, rec api.Record) error {
	at := rec.At
	if at.IsZero() {
		at = time.Now()
	}

	doc := mongoRecordDoc{
		NodeID:   rec.NodeID,
		At:       at.UnixNano(),
		Type:     string(rec.Type),
		InputID:  rec.InputID,
		OutputID: rec.OutputID,
		Size:     rec.Size,
		Detail:   rec.Detail,
	}

	_, err := j.coll.InsertOne(ctx, doc)
	return err
}

func (j *MongoJournal) List(ctx context.Context, nodeID string) ([]api.Record, error) {
	// ObjectIDs generated by a single process are monotonic, so sorting by
	// _id preserves insertion order even when timestamps collide.
	cur, err := j.coll.Find(ctx,
		bson.M{"node_id": nodeID},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var results []api.Record
	for cur.Next(ctx) {
		var doc mongoRecordDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		results = append(results, api.Record{
			NodeID:   doc.NodeID,
			At:       time.Unix(0, doc.At),
			Type:     api.RecordType(doc.Type),
			InputID:  doc.InputID,
			OutputID: doc.OutputID,
			Size:     doc.Size,
			Detail:   doc.Detail,
		})
	}
	return results, cur.Err()
}
