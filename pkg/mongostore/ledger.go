package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/subsync/pkg/ledger"
)

// DefaultCollection holds processed events unless overridden.
const DefaultCollection = "processed_events"

type document struct {
	EventID     string            `bson:"_id"`
	EventType   string            `bson:"event_type"`
	Provider    string            `bson:"provider"`
	SessionID   string            `bson:"session_id,omitempty"`
	UserID      string            `bson:"user_id,omitempty"`
	Outcome     string            `bson:"outcome"`
	Summary     map[string]string `bson:"summary,omitempty"`
	ProcessedAt time.Time         `bson:"processed_at"`
}

// LedgerStore is a ledger.Store on one collection.
type LedgerStore struct {
	coll      *mongo.Collection
	retention time.Duration
	now       func() time.Time
}

var _ ledger.Store = (*LedgerStore)(nil)

// Option configures a LedgerStore.
type Option func(*LedgerStore)

// WithRetention expires entries after d through a TTL index. Events older
// than d may then be applied again if the provider redelivers them.
func WithRetention(d time.Duration) Option {
	return func(s *LedgerStore) { s.retention = d }
}

// NewLedgerStore returns a ledger on collection of db, DefaultCollection
// when empty. Call EnsureIndexes before use.
func NewLedgerStore(db *mongo.Database, collection string, opts ...Option) *LedgerStore {
	if collection == "" {
		collection = DefaultCollection
	}
	s := &LedgerStore{coll: db.Collection(collection), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureIndexes creates the user and, with a retention, the TTL index.
func (s *LedgerStore) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "processed_at", Value: -1}}},
	}
	if s.retention > 0 {
		models = append(models, mongo.IndexModel{
			Keys:    bson.D{{Key: "processed_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(s.retention.Seconds())),
		})
	}
	if _, err := s.coll.Indexes().CreateMany(ctx, models); err != nil {
		return errors.Join(ledger.ErrStore, err)
	}
	return nil
}

// IsProcessed reports whether a document exists for eventID.
func (s *LedgerStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	n, err := s.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: eventID}}, options.Count().SetLimit(1))
	if err != nil {
		return false, errors.Join(ledger.ErrStore, err)
	}
	return n > 0, nil
}

// MarkProcessed inserts e. A duplicate key means the event is already
// marked and is not an error.
func (s *LedgerStore) MarkProcessed(ctx context.Context, e ledger.Entry) error {
	e, err := ledger.Prepare(e, s.now())
	if err != nil {
		return err
	}

	_, err = s.coll.InsertOne(ctx, document{
		EventID:     e.EventID,
		EventType:   e.EventType,
		Provider:    e.Provider,
		SessionID:   e.SessionID,
		UserID:      e.UserID,
		Outcome:     string(e.Outcome),
		Summary:     e.Summary,
		ProcessedAt: e.ProcessedAt.UTC(),
	})
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return errors.Join(ledger.ErrStore, err)
	}
	return nil
}

// Lookup returns the stored entry for eventID.
func (s *LedgerStore) Lookup(ctx context.Context, eventID string) (ledger.Entry, bool, error) {
	var doc document
	err := s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: eventID}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ledger.Entry{}, false, nil
	}
	if err != nil {
		return ledger.Entry{}, false, errors.Join(ledger.ErrStore, err)
	}
	return ledger.Entry{
		EventID:     doc.EventID,
		EventType:   doc.EventType,
		Provider:    doc.Provider,
		SessionID:   doc.SessionID,
		UserID:      doc.UserID,
		Summary:     doc.Summary,
		Outcome:     ledger.Outcome(doc.Outcome),
		ProcessedAt: doc.ProcessedAt,
	}, true, nil
}
