package recommendation

import (
	"github.com/gatherly/gatherly/pkg/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/exp/slices"
)

const (
	sharedEventWeight = 1
	sharedGroupWeight = 2
	maxResults        = 10
)

// Candidate is a user ranked for recommendation.
type Candidate struct {
	UserID       primitive.ObjectID `json:"-"`
	Score        int                `json:"score"`
	SharedEvents int                `json:"sharedEvents"`
	SharedGroups int                `json:"sharedGroups"`
}

// Score ranks the users related to the user through shared events and shared groups. Every shared
// attended or saved event counts once and every shared group counts twice. Candidates keep the order
// they were first seen in, events before groups, and are stable sorted by score, highest first.
func Score(userID primitive.ObjectID, eventIDs []primitive.ObjectID, eventPeers []model.User, groups []model.Group) []Candidate {
	mine := make(map[primitive.ObjectID]struct{}, len(eventIDs))
	for _, id := range eventIDs {
		mine[id] = struct{}{}
	}

	var candidates []*Candidate
	index := map[primitive.ObjectID]*Candidate{}
	candidate := func(id primitive.ObjectID) *Candidate {
		c, ok := index[id]
		if !ok {
			c = &Candidate{UserID: id}
			index[id] = c
			candidates = append(candidates, c)
		}
		return c
	}

	for _, peer := range eventPeers {
		if peer.ID == userID {
			continue
		}
		shared := sharedEvents(mine, peer)
		if shared == 0 {
			continue
		}
		c := candidate(peer.ID)
		c.SharedEvents += shared
		c.Score += shared * sharedEventWeight
	}

	for _, group := range groups {
		if !group.IsMember(userID) {
			continue
		}
		for _, member := range group.Members {
			if member == userID {
				continue
			}
			c := candidate(member)
			c.SharedGroups++
			c.Score += sharedGroupWeight
		}
	}

	ranked := make([]Candidate, len(candidates))
	for i, c := range candidates {
		ranked[i] = *c
	}
	slices.SortStableFunc(ranked, func(a, b Candidate) int {
		return b.Score - a.Score
	})
	return ranked
}

// sharedEvents counts the distinct events of the peer that are in mine. An event both attended and
// saved by the peer counts once.
func sharedEvents(mine map[primitive.ObjectID]struct{}, peer model.User) int {
	seen := map[primitive.ObjectID]struct{}{}
	for _, ids := range [][]primitive.ObjectID{peer.AttendingEvents, peer.SavedEvents} {
		for _, id := range ids {
			if _, ok := mine[id]; !ok {
				continue
			}
			seen[id] = struct{}{}
		}
	}
	return len(seen)
}

// eventIDsOf returns the distinct attended and saved events of the user.
func eventIDsOf(user *model.User) []primitive.ObjectID {
	seen := map[primitive.ObjectID]struct{}{}
	var ids []primitive.ObjectID
	for _, list := range [][]primitive.ObjectID{user.AttendingEvents, user.SavedEvents} {
		for _, id := range list {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	return ids
}
