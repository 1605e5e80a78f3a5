// Package docstore keeps leads in a MongoDB collection and exposes its
// change stream as the live feed.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
	"go.uber.org/zap"

	"github.com/xavierca1/beauty-leads/internal/entity"
)

const Collection = "leads"

// Connect opens a client and pings the primary.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

type Store struct {
	Coll *mongo.Collection
	Log  *zap.Logger
}

func NewStore(db *mongo.Database, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{Coll: db.Collection(Collection), Log: log}
}

// EnsureIndexes creates the createdAt index used by List.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.Coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	})
	return err
}

func (s *Store) Create(ctx context.Context, lead *entity.Lead) error {
	doc := toDoc(lead)
	doc.ID = bson.NewObjectID()
	if _, err := s.Coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert lead: %w", err)
	}
	lead.ID = doc.ID.Hex()
	return nil
}

// Update replaces every editable field; createdAt is left as stored.
func (s *Store) Update(ctx context.Context, lead *entity.Lead) error {
	oid, err := bson.ObjectIDFromHex(lead.ID)
	if err != nil {
		return entity.ErrLeadNotFound
	}
	doc := toDoc(lead)
	set := bson.D{
		{Key: "fullName", Value: doc.FullName},
		{Key: "source", Value: doc.Source},
		{Key: "status", Value: doc.Status},
		{Key: "inquiryType", Value: doc.InquiryType},
		{Key: "closed", Value: doc.Closed},
		{Key: "advancePayment", Value: doc.AdvancePayment},
		{Key: "additionalDetails", Value: doc.AdditionalDetails},
		{Key: "importantNotes", Value: doc.ImportantNotes},
		{Key: "descriptions", Value: doc.Descriptions},
		{Key: "updatedAt", Value: doc.UpdatedAt},
	}
	res, err := s.Coll.UpdateByID(ctx, oid, bson.D{{Key: "$set", Value: set}})
	if err != nil {
		return fmt.Errorf("update lead %s: %w", lead.ID, err)
	}
	if res.MatchedCount == 0 {
		return entity.ErrLeadNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil
	}
	if _, err := s.Coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}}); err != nil {
		return fmt.Errorf("delete lead %s: %w", id, err)
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*entity.Lead, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, entity.ErrLeadNotFound
	}
	var doc leadDoc
	if err := s.Coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, entity.ErrLeadNotFound
		}
		return nil, fmt.Errorf("find lead %s: %w", id, err)
	}
	lead := doc.toEntity()
	return &lead, nil
}

// List returns every lead, newest first.
func (s *Store) List(ctx context.Context) ([]entity.Lead, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.Coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	var docs []leadDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}

	leads := make([]entity.Lead, 0, len(docs))
	for _, d := range docs {
		leads = append(leads, d.toEntity())
	}
	return leads, nil
}

// Watch opens a change stream on the collection. It needs a replica set.
func (s *Store) Watch(ctx context.Context) (entity.LeadChangeStream, error) {
	cs, err := s.Coll.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		return nil, fmt.Errorf("open change stream: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	st := &changeStream{
		ch:     make(chan entity.LeadChange, 64),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go st.run(ctx, cs)
	return st, nil
}

type changeEvent struct {
	OperationType string `bson:"operationType"`
	DocumentKey   struct {
		ID bson.ObjectID `bson:"_id"`
	} `bson:"documentKey"`
}

func (e changeEvent) toChange() entity.LeadChange {
	id := e.DocumentKey.ID.Hex()
	switch e.OperationType {
	case "insert":
		return entity.LeadChange{Op: entity.ChangeCreated, LeadID: id}
	case "update", "replace":
		return entity.LeadChange{Op: entity.ChangeUpdated, LeadID: id}
	case "delete":
		return entity.LeadChange{Op: entity.ChangeDeleted, LeadID: id}
	}
	return entity.LeadChange{Op: entity.ChangeResync}
}

type changeStream struct {
	ch     chan entity.LeadChange
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

func (c *changeStream) Changes() <-chan entity.LeadChange { return c.ch }

func (c *changeStream) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *changeStream) Close() {
	c.cancel()
	<-c.done
}

func (c *changeStream) run(ctx context.Context, cs *mongo.ChangeStream) {
	defer close(c.done)
	defer close(c.ch)
	defer cs.Close(context.Background())

	for cs.Next(ctx) {
		var ev changeEvent
		change := entity.LeadChange{Op: entity.ChangeResync}
		if err := cs.Decode(&ev); err == nil {
			change = ev.toChange()
		}
		select {
		case c.ch <- change:
		case <-ctx.Done():
			return
		}
	}
	if ctx.Err() != nil {
		return
	}
	c.mu.Lock()
	c.err = cs.Err()
	c.mu.Unlock()
}
