package storage

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/bosocmputer/fleet_capture_ocr/configs"
	"github.com/bosocmputer/fleet_capture_ocr/internal/form"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var mongoClient *mongo.Client
var mongoDB *mongo.Database

// ErrConflict is returned when a record kept changing underneath Update
var ErrConflict = errors.New("record was modified concurrently")

const (
	recordsCollection = "form_records"
	maxUpdateAttempts = 5
)

// InitMongoDB initializes MongoDB connection
func InitMongoDB() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(configs.MONGO_URI)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	mongoClient = client
	mongoDB = client.Database(configs.MONGO_DB_NAME)

	log.Println("✅ Connected to MongoDB successfully!")
	return nil
}

// GetMongoDB returns the MongoDB database instance
func GetMongoDB() *mongo.Database {
	return mongoDB
}

// CloseMongoDB closes MongoDB connection
func CloseMongoDB() {
	if mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := mongoClient.Disconnect(ctx); err != nil {
			log.Printf("⚠️  MongoDB disconnect: %v", err)
			return
		}
		log.Println("MongoDB connection closed")
	}
}

// MongoRepository stores records in the form_records collection
type MongoRepository struct {
	collection *mongo.Collection
}

// NewMongoRepository creates a repository on db
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{collection: db.Collection(recordsCollection)}
}

// EnsureIndexes creates the indexes used for listing records by type
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "type", Value: 1}, {Key: "updatedAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create record indexes: %w", err)
	}
	return nil
}

// Create inserts a new record
func (r *MongoRepository) Create(ctx context.Context, record *form.Record) error {
	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// Get retrieves a record by id
func (r *MongoRepository) Get(ctx context.Context, id string) (*form.Record, error) {
	var record form.Record
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, form.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query record: %w", err)
	}
	if record.Fields == nil {
		record.Fields = map[string]string{}
	}
	return &record, nil
}

// Update reads the record, applies fn and writes it back only if nobody else bumped the
// version meanwhile. It retries a few times before giving up with ErrConflict.
func (r *MongoRepository) Update(ctx context.Context, id string, fn func(*form.Record) error) (*form.Record, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		record, err := r.Get(ctx, id)
		if err != nil {
			return nil, err
		}

		prevVersion := record.Version
		if err := fn(record); err != nil {
			return nil, err
		}
		record.Version = prevVersion + 1
		record.UpdatedAt = time.Now()

		res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": id, "version": prevVersion}, record)
		if err != nil {
			return nil, fmt.Errorf("failed to update record: %w", err)
		}
		if res.MatchedCount == 1 {
			return record, nil
		}
	}
	return nil, ErrConflict
}
