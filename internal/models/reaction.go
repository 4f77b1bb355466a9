package models

// ReactionSet pairs the members who applied a reaction with a counter.
// Count is what clients read; Users guards against double counting.
type ReactionSet struct {
	Users []string `bson:"users" json:"users"`
	Count int      `bson:"count" json:"count"`
}

func NewReactionSet() ReactionSet {
	return ReactionSet{Users: []string{}}
}

// Has reports whether userID is a member.
func (r ReactionSet) Has(userID string) bool {
	for _, u := range r.Users {
		if u == userID {
			return true
		}
	}
	return false
}
