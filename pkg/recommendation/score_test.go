package recommendation

import (
	"testing"

	"github.com/gatherly/gatherly/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestScore(t *testing.T) {
	me := primitive.NewObjectID()
	alice := primitive.NewObjectID()
	bob := primitive.NewObjectID()
	carol := primitive.NewObjectID()
	e1, e2, e3 := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()

	tests := map[string]struct {
		eventIDs   []primitive.ObjectID
		eventPeers []model.User
		groups     []model.Group
		want       []Candidate
	}{
		"NoRelations": {
			want: []Candidate{},
		},
		"SharedEventsCountOnce": {
			eventIDs: []primitive.ObjectID{e1, e2},
			eventPeers: []model.User{
				{ID: alice, AttendingEvents: []primitive.ObjectID{e1}, SavedEvents: []primitive.ObjectID{e1, e2}},
				{ID: bob, SavedEvents: []primitive.ObjectID{e2, e3}},
			},
			want: []Candidate{
				{UserID: alice, Score: 2, SharedEvents: 2},
				{UserID: bob, Score: 1, SharedEvents: 1},
			},
		},
		"GroupsWeighTwice": {
			eventIDs: []primitive.ObjectID{e1},
			eventPeers: []model.User{
				{ID: alice, AttendingEvents: []primitive.ObjectID{e1}},
			},
			groups: []model.Group{
				{Members: []primitive.ObjectID{me, bob}},
			},
			want: []Candidate{
				{UserID: bob, Score: 2, SharedGroups: 1},
				{UserID: alice, Score: 1, SharedEvents: 1},
			},
		},
		"TiesKeepFirstSeenOrder": {
			eventIDs: []primitive.ObjectID{e1},
			eventPeers: []model.User{
				{ID: carol, AttendingEvents: []primitive.ObjectID{e1}},
				{ID: alice, AttendingEvents: []primitive.ObjectID{e1}},
			},
			groups: []model.Group{
				{Members: []primitive.ObjectID{bob, me}},
				{Members: []primitive.ObjectID{me, carol}},
			},
			want: []Candidate{
				{UserID: carol, Score: 3, SharedEvents: 1, SharedGroups: 1},
				{UserID: bob, Score: 2, SharedGroups: 1},
				{UserID: alice, Score: 1, SharedEvents: 1},
			},
		},
		"IgnoresSelfAndForeignGroups": {
			eventIDs: []primitive.ObjectID{e1},
			eventPeers: []model.User{
				{ID: me, AttendingEvents: []primitive.ObjectID{e1}},
			},
			groups: []model.Group{
				{Members: []primitive.ObjectID{alice, bob}},
			},
			want: []Candidate{},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := Score(me, test.eventIDs, test.eventPeers, test.groups)

			assert.Equal(t, test.want, got)
		})
	}
}

func TestEventIDsOf(t *testing.T) {
	e1, e2, e3 := primitive.NewObjectID(), primitive.NewObjectID(), primitive.NewObjectID()
	user := &model.User{
		AttendingEvents: []primitive.ObjectID{e1, e2},
		SavedEvents:     []primitive.ObjectID{e2, e3},
	}

	ids := eventIDsOf(user)

	require.Len(t, ids, 3)
	assert.Equal(t, []primitive.ObjectID{e1, e2, e3}, ids)
}
