package model

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InterestRef is the tagged-union form of one entry in a user's interests
// array. Older user documents store raw interest-name strings; newer ones
// store ObjectID references into the interests collection. Both forms must
// be accepted, so the union is resolved at the preference-loading boundary
// and the ranker only ever sees name strings.
type InterestRef struct {
	ID   primitive.ObjectID
	Name string
}

// IsReference reports whether the entry is an ObjectID reference that still
// needs resolving against the interests collection.
func (r InterestRef) IsReference() bool { return !r.ID.IsZero() }

// UnmarshalBSONValue decodes either storage form. Any other BSON type is
// left as a zero ref, which resolution skips.
func (r *InterestRef) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.ObjectID:
		if id, ok := rv.ObjectIDOK(); ok {
			r.ID = id
		}
	case bsontype.String:
		if s, ok := rv.StringValueOK(); ok {
			r.Name = s
		}
	}
	return nil
}
