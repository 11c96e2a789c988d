package recommendation

import (
	"context"

	"github.com/gatherly/gatherly/pkg/model"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"
)

//goland:noinspection GoExportedFuncWithUnexportedType
func NewService(repository recommendationRepository) *Service {
	return &Service{repository: repository}
}

type recommendationRepository interface {
	findUser(ctx context.Context, id primitive.ObjectID) (*model.User, error)
	findEventPeers(ctx context.Context, userID primitive.ObjectID, eventIDs []primitive.ObjectID) ([]model.User, error)
	findGroups(ctx context.Context, userID primitive.ObjectID) ([]model.Group, error)
	findActiveProfiles(ctx context.Context, ids []primitive.ObjectID) ([]model.PublicUser, error)
	sample(ctx context.Context, userID primitive.ObjectID, size int) ([]model.PublicUser, error)
}

type Service struct {
	repository recommendationRepository
}

// Recommendation is a suggested user and why it was suggested.
type Recommendation struct {
	User model.PublicUser `json:"user"`
	Candidate
}

// Recommend returns up to ten users the user shares events or groups with. Users without any
// relation get a random sample of active users with a score of zero.
func (s Service) Recommend(ctx context.Context, userID primitive.ObjectID) ([]Recommendation, error) {
	user, err := s.repository.findUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	eventIDs := eventIDsOf(user)

	var peers []model.User
	var groups []model.Group
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		peers, err = s.repository.findEventPeers(gctx, userID, eventIDs)
		return err
	})
	g.Go(func() error {
		var err error
		groups, err = s.repository.findGroups(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ranked := Score(userID, eventIDs, peers, groups)

	recommendations, err := s.withProfiles(ctx, ranked)
	if err != nil {
		return nil, err
	}

	if len(recommendations) > 0 {
		return recommendations, nil
	}

	return s.fallback(ctx, userID)
}

// withProfiles attaches the profiles to the ranked candidates. Inactive candidates are dropped
// before the result is cut to its maximum size.
func (s Service) withProfiles(ctx context.Context, ranked []Candidate) ([]Recommendation, error) {
	recommendations := []Recommendation{}
	if len(ranked) == 0 {
		return recommendations, nil
	}

	ids := make([]primitive.ObjectID, len(ranked))
	for i, candidate := range ranked {
		ids[i] = candidate.UserID
	}

	profiles, err := s.repository.findActiveProfiles(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[primitive.ObjectID]model.PublicUser, len(profiles))
	for _, profile := range profiles {
		byID[profile.ID] = profile
	}

	for _, candidate := range ranked {
		profile, ok := byID[candidate.UserID]
		if !ok {
			continue
		}
		recommendations = append(recommendations, Recommendation{User: profile, Candidate: candidate})
		if len(recommendations) == maxResults {
			break
		}
	}
	return recommendations, nil
}

func (s Service) fallback(ctx context.Context, userID primitive.ObjectID) ([]Recommendation, error) {
	users, err := s.repository.sample(ctx, userID, maxResults)
	if err != nil {
		return nil, err
	}

	recommendations := make([]Recommendation, len(users))
	for i, user := range users {
		recommendations[i] = Recommendation{User: user, Candidate: Candidate{UserID: user.ID}}
	}
	return recommendations, nil
}
