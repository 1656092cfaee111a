// internal/domain/library.go
package domain

import (
	"errors"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Library entities are the canonical, creator-scoped content meant to be
// referenced by many programs. They live in their own collections, parallel
// to the program-side hierarchy.

// LibraryModule is a reusable module owned by a creator. SessionRefs is the
// ordered list of library sessions that make up the module.
type LibraryModule struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatorID   primitive.ObjectID `bson:"creatorId" json:"creatorId"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	SessionRefs []SessionRef       `bson:"sessionRefs,omitempty" json:"sessionRefs,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// LibrarySession is a reusable training day owned by a creator.
type LibrarySession struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatorID   primitive.ObjectID `bson:"creatorId" json:"creatorId"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	ImageKey    string             `bson:"imageKey,omitempty" json:"-"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// LibraryExercise is an ordered movement under a LibrarySession.
// Title/Name duplication matches the program-side Exercise.
type LibraryExercise struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	LibrarySessionID primitive.ObjectID `bson:"librarySessionId" json:"librarySessionId"`
	Title            string             `bson:"title" json:"title"`
	Name             string             `bson:"name" json:"name"`
	Order            int                `bson:"order" json:"order"`
	Notes            string             `bson:"notes,omitempty" json:"notes,omitempty"`
	VideoURL         string             `bson:"videoUrl,omitempty" json:"videoUrl,omitempty"`
	CreatedAt        time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// SessionRef is one entry of LibraryModule.SessionRefs.
//
// Two wire encodings exist and both must be accepted: a bare library session
// id (ObjectID or hex string, written by early dashboard builds) and a
// {librarySessionRef, order} document. The custom BSON codec below is the
// single normalization point; everything past the repository sees one shape.
// New writes always use the document encoding.
type SessionRef struct {
	LibrarySessionID primitive.ObjectID `json:"librarySessionRef"`
	Order            int                `json:"order"`
	// HasOrder is false for bare entries, whose order is their list index.
	HasOrder bool `json:"-"`
}

var errBadSessionRef = errors.New("sessionRefs entry has an unsupported shape")

// sessionRefDoc is the normalized document encoding.
type sessionRefDoc struct {
	LibrarySessionRef primitive.ObjectID `bson:"librarySessionRef"`
	Order             int                `bson:"order"`
}

// UnmarshalBSONValue accepts both sessionRefs encodings.
func (r *SessionRef) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bson.TypeObjectID:
		rv := bson.RawValue{Type: t, Value: data}
		oid, ok := rv.ObjectIDOK()
		if !ok {
			return errBadSessionRef
		}
		r.LibrarySessionID = oid
		r.HasOrder = false
		return nil

	case bson.TypeString:
		rv := bson.RawValue{Type: t, Value: data}
		s, ok := rv.StringValueOK()
		if !ok {
			return errBadSessionRef
		}
		oid, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return errBadSessionRef
		}
		r.LibrarySessionID = oid
		r.HasOrder = false
		return nil

	case bson.TypeEmbeddedDocument:
		raw := bson.Raw(data)
		refVal, err := raw.LookupErr("librarySessionRef")
		if err != nil {
			// Some documents were written with the short key.
			refVal, err = raw.LookupErr("ref")
			if err != nil {
				return errBadSessionRef
			}
		}
		oid, err := refIDFromRawValue(refVal)
		if err != nil {
			return err
		}
		r.LibrarySessionID = oid
		if ordVal, err := raw.LookupErr("order"); err == nil {
			if n, ok := ordVal.AsInt64OK(); ok {
				r.Order = int(n)
				r.HasOrder = true
			}
		}
		return nil

	default:
		return errBadSessionRef
	}
}

// MarshalBSONValue always writes the normalized document encoding.
func (r SessionRef) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(sessionRefDoc{
		LibrarySessionRef: r.LibrarySessionID,
		Order:             r.Order,
	})
}

// refIDFromRawValue reads a library session id stored as ObjectID or hex.
func refIDFromRawValue(rv bson.RawValue) (primitive.ObjectID, error) {
	if oid, ok := rv.ObjectIDOK(); ok {
		return oid, nil
	}
	if s, ok := rv.StringValueOK(); ok {
		if oid, err := primitive.ObjectIDFromHex(s); err == nil {
			return oid, nil
		}
	}
	return primitive.NilObjectID, errBadSessionRef
}

// NormalizeSessionRefs assigns list-index orders to bare entries and returns
// the refs sorted by order. The input slice is not modified.
func NormalizeSessionRefs(refs []SessionRef) []SessionRef {
	out := make([]SessionRef, len(refs))
	for i, ref := range refs {
		if !ref.HasOrder {
			ref.Order = i
			ref.HasOrder = true
		}
		out[i] = ref
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out
}
