// Package reaction maintains the vote, like and dislike sets on posts,
// comments and replies together with their counters.
//
// Every change is a single atomic update carrying both the membership change
// and the counter delta, so the store never exposes a counter that disagrees
// with its set. Membership is checked inside the update filter: adding a user
// who is already a member, or removing one who is not, matches nothing and
// leaves the document untouched.
package reaction

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/Rocknpaper/Blog-site-backend/internal/apperr"
	"github.com/Rocknpaper/Blog-site-backend/internal/models"
)

type Entity int

const (
	Post Entity = iota
	Comment
	Reply
)

func (e Entity) String() string {
	switch e {
	case Post:
		return "post"
	case Comment:
		return "comment"
	case Reply:
		return "reply"
	}
	return fmt.Sprintf("entity(%d)", int(e))
}

// Kind names the reaction set on the entity; the value is the document field.
type Kind string

const (
	Upvote   Kind = "upvotes"
	Downvote Kind = "downvotes"
	Like     Kind = "likes"
	Dislike  Kind = "dislikes"
)

type Direction int

const (
	Increase Direction = iota
	Decrease
)

func (d Direction) String() string {
	if d == Decrease {
		return "dec"
	}
	return "inc"
}

// ParseDirection accepts the path segments used by the reaction routes.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "inc":
		return Increase, nil
	case "dec":
		return Decrease, nil
	}
	return 0, apperr.BadRequest(fmt.Sprintf("unknown direction %q", s), nil)
}

// Outcome tells whether an Apply changed the store.
type Outcome int

const (
	Applied Outcome = iota
	Unchanged
)

// Target identifies the reactable entity. ReplyID is only used for replies,
// where ID is the enclosing comment.
type Target struct {
	Entity  Entity
	ID      string
	ReplyID string
}

func PostTarget(id string) Target    { return Target{Entity: Post, ID: id} }
func CommentTarget(id string) Target { return Target{Entity: Comment, ID: id} }
func ReplyTarget(commentID, replyID string) Target {
	return Target{Entity: Reply, ID: commentID, ReplyID: replyID}
}

// Location is a resolved reaction set: a document, optionally an element of
// one of its arrays, and the set field inside it.
type Location struct {
	Collection string
	DocID      bson.ObjectID
	Array      string
	ElemID     bson.ObjectID
	Set        Kind
}

// Resolve validates the target ids and maps the target and kind to a location.
func Resolve(t Target, kind Kind) (Location, error) {
	if !allowed(t.Entity, kind) {
		return Location{}, apperr.BadRequest(fmt.Sprintf("%s does not support %s", t.Entity, kind), nil)
	}
	docID, err := models.ParseID(t.ID)
	if err != nil {
		return Location{}, err
	}

	switch t.Entity {
	case Post:
		return Location{Collection: models.PostsCollection, DocID: docID, Set: kind}, nil
	case Comment:
		return Location{Collection: models.CommentsCollection, DocID: docID, Set: kind}, nil
	default:
		replyID, err := models.ParseID(t.ReplyID)
		if err != nil {
			return Location{}, err
		}
		return Location{
			Collection: models.CommentsCollection,
			DocID:      docID,
			Array:      "replies",
			ElemID:     replyID,
			Set:        kind,
		}, nil
	}
}

func allowed(e Entity, k Kind) bool {
	switch e {
	case Post:
		return k == Upvote || k == Downvote
	case Comment, Reply:
		return k == Like || k == Dislike
	}
	return false
}

// Filter matches the location. A non-nil membership condition is applied to
// the set's users field; for array elements it sits inside the same
// $elemMatch as the element id so the positional operator lands on that
// exact element.
func (l Location) Filter(membership any) bson.D {
	if l.Array == "" {
		f := bson.D{{Key: "_id", Value: l.DocID}}
		if membership != nil {
			f = append(f, bson.E{Key: string(l.Set) + ".users", Value: membership})
		}
		return f
	}

	elem := bson.D{{Key: "_id", Value: l.ElemID}}
	if membership != nil {
		elem = append(elem, bson.E{Key: string(l.Set) + ".users", Value: membership})
	}
	return bson.D{
		{Key: "_id", Value: l.DocID},
		{Key: l.Array, Value: bson.D{{Key: "$elemMatch", Value: elem}}},
	}
}

// Path returns the update path of a field of the set.
func (l Location) Path(field string) string {
	if l.Array == "" {
		return string(l.Set) + "." + field
	}
	return l.Array + ".$." + string(l.Set) + "." + field
}

// Mutation returns the conditional filter and update applying dir for userID.
func (l Location) Mutation(userID string, dir Direction) (filter, update bson.D) {
	if dir == Increase {
		filter = l.Filter(bson.D{{Key: "$ne", Value: userID}})
		update = bson.D{
			{Key: "$addToSet", Value: bson.D{{Key: l.Path("users"), Value: userID}}},
			{Key: "$inc", Value: bson.D{{Key: l.Path("count"), Value: 1}}},
		}
		return filter, update
	}
	filter = l.Filter(userID)
	update = bson.D{
		{Key: "$pull", Value: bson.D{{Key: l.Path("users"), Value: userID}}},
		{Key: "$inc", Value: bson.D{{Key: l.Path("count"), Value: -1}}},
	}
	return filter, update
}

// Store is the slice of the document store the ledger needs.
type Store interface {
	UpdateOne(ctx context.Context, collection string, filter, update any) (matched int64, err error)
	Exists(ctx context.Context, collection string, filter any) (bool, error)
}

type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger {
	return &Ledger{store: store}
}

// Apply adds userID to (Increase) or removes it from (Decrease) the kind set
// of target and moves the counter by one in the same update.
//
// A malformed id fails before the store is touched. When the conditional
// update matches nothing the location is looked up once more: a missing
// target is NotFound, an existing one means the membership already had the
// requested state and the call is Unchanged.
func (l *Ledger) Apply(ctx context.Context, target Target, userID string, kind Kind, dir Direction) (Outcome, error) {
	if userID == "" {
		return Unchanged, apperr.MissingCredential()
	}
	loc, err := Resolve(target, kind)
	if err != nil {
		return Unchanged, err
	}

	filter, update := loc.Mutation(userID, dir)
	matched, err := l.store.UpdateOne(ctx, loc.Collection, filter, update)
	if err != nil {
		return Unchanged, apperr.Database(err)
	}
	if matched > 0 {
		return Applied, nil
	}

	exists, err := l.store.Exists(ctx, loc.Collection, loc.Filter(nil))
	if err != nil {
		return Unchanged, apperr.Database(err)
	}
	if !exists {
		return Unchanged, apperr.NotFound(fmt.Sprintf("No %s Found", target.Entity))
	}
	return Unchanged, nil
}
