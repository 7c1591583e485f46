package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/controld-portal/profile-manager/internal/core/domain"
)

const authEventsCollection = "auth_events"

// AuthEventRepository implements ports.AuthEventRepository using MongoDB.
type AuthEventRepository struct {
	coll *mongo.Collection
}

func NewAuthEventRepository(db *mongo.Database) *AuthEventRepository {
	return &AuthEventRepository{coll: db.Collection(authEventsCollection)}
}

// Insert appends an event to the auth_events audit collection.
func (r *AuthEventRepository) Insert(ctx context.Context, event *domain.AuthEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := bson.M{
		"type":        string(event.Type),
		"username":    event.Username,
		"success":     event.Success,
		"timestamp":   event.Timestamp.UTC(),
		"recorded_at": time.Now().UTC(),
	}
	if event.Reason != "" {
		doc["reason"] = event.Reason
	}
	if event.ActorID != "" {
		doc["actor_id"] = event.ActorID
	}

	_, err := r.coll.InsertOne(ctx, doc)
	return err
}
