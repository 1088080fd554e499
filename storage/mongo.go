package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xlangai/waitlist/models"
)

const usersCollection = "users"

// mongoEntry is the document written per joined user. The underscored
// fields are server-side metadata set at insert time only.
type mongoEntry struct {
	UserID        string    `bson:"id"`
	Email         string    `bson:"email"`
	VerifiedEmail bool      `bson:"verified_email"`
	Name          string    `bson:"name"`
	GivenName     string    `bson:"given_name"`
	Picture       string    `bson:"picture"`
	Locale        string    `bson:"locale"`
	Date          time.Time `bson:"_date"`
	Accessed      bool      `bson:"_accessed"`
}

// MongoStore keeps the waitlist in a remote MongoDB collection, one
// document per email.
type MongoStore struct {
	client *mongo.Client
	users  *mongo.Collection
}

// NewMongoStore connects to the configured deployment and ensures the
// unique index on email that makes Insert race-free.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	users := client.Database(database).Collection(usersCollection)

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := users.Indexes().CreateOne(ctx, indexModel); err != nil {
		return nil, fmt.Errorf("failed to ensure unique email index: %w", err)
	}

	return &MongoStore{client: client, users: users}, nil
}

// Find issues a point query by email.
func (s *MongoStore) Find(ctx context.Context, email string) (bool, error) {
	err := s.users.FindOne(ctx, bson.M{"email": email}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query waitlist: %w", err)
	}
	return true, nil
}

// Insert writes the full profile document with server-generated metadata.
// A duplicate-key rejection from the unique index means another request
// created the entry first.
func (s *MongoStore) Insert(ctx context.Context, profile *models.UserProfile) (bool, error) {
	entry := mongoEntry{
		UserID:        profile.ID,
		Email:         profile.Email,
		VerifiedEmail: profile.VerifiedEmail,
		Name:          profile.Name,
		GivenName:     profile.GivenName,
		Picture:       profile.Picture,
		Locale:        profile.Locale,
		Date:          time.Now().UTC(),
		Accessed:      false,
	}

	_, err := s.users.InsertOne(ctx, entry)
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert waitlist entry: %w", err)
	}
	return true, nil
}

// Close disconnects from the deployment.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
