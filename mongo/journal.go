// Package mongo provides a MongoDB-backed journal for rivus nodes.
package mongo

import (
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/petrijr/rivus/pkg/api"

	mjournal "github.com/petrijr/rivus/mongo/internal/journal"
)

// NewMongoJournal returns a Journal that stores node audit records in
// MongoDB, using the default database/collection names from the store
// (e.g. "rivus"/"node_records").
func NewMongoJournal(client *mongo.Client) api.Journal {
	return mjournal.NewMongoJournal(client, "", "")
}

// NewMongoJournalIn is the Mongo-backed journal constructor that accepts
// explicit database and collection names.
func NewMongoJournalIn(client *mongo.Client, dbName, collName string) api.Journal {
	return mjournal.NewMongoJournal(client, dbName, collName)
}
