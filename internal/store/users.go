package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"internsync/discovery-service/internal/model"
)

// Users provides read access to the user-profile and interest collections,
// both owned by the identity/profile subsystem.
type Users struct {
	users     *mongo.Collection
	interests *mongo.Collection
}

// NewUsers returns a Users store bound to the users and interests
// collections.
func NewUsers(db *mongo.Database) *Users {
	return &Users{
		users:     db.Collection("users"),
		interests: db.Collection("interests"),
	}
}

// ByFirebaseUID resolves the identity-provider UID forwarded by the gateway
// to the internal user document. Returns (nil, nil) when no user matches.
func (s *Users) ByFirebaseUID(ctx context.Context, uid string) (*model.User, error) {
	var u model.User
	err := s.users.FindOne(ctx, bson.M{"firebaseUid": uid}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("users.ByFirebaseUID: %w", err)
	}
	return &u, nil
}

// InterestNames normalises a user's interests to de-duplicated name
// strings. Literal-string entries pass through; ObjectID references are
// resolved against the interests collection in one query. Unresolvable
// references are skipped.
func (s *Users) InterestNames(ctx context.Context, refs []model.InterestRef) ([]string, error) {
	var names []string
	var ids []primitive.ObjectID
	seen := make(map[string]bool)

	add := func(name string) {
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}

	for _, r := range refs {
		if r.IsReference() {
			ids = append(ids, r.ID)
			continue
		}
		add(r.Name)
	}

	if len(ids) > 0 {
		cur, err := s.interests.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
		if err != nil {
			return nil, fmt.Errorf("users.InterestNames: %w", err)
		}
		defer cur.Close(ctx)

		for cur.Next(ctx) {
			var in model.Interest
			if err := cur.Decode(&in); err != nil {
				return nil, fmt.Errorf("users.InterestNames decode: %w", err)
			}
			add(in.Name)
		}
		if err := cur.Err(); err != nil {
			return nil, err
		}
	}
	return names, nil
}
