package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"aurora-agent/internal/domain"
)

const maxQuestionnaireListLen = 32

// AssessmentService keeps the onboarding questionnaire, one per user. Users
// may only save and read their own.
type AssessmentService struct {
	store AssessmentStore
	now   func() time.Time
}

type SaveAssessmentInput struct {
	UserID      string
	Data        domain.Questionnaire
	CompletedAt string
}

func NewAssessmentService(store AssessmentStore) (*AssessmentService, error) {
	if store == nil {
		return nil, errors.New("usecase: assessment store must not be nil")
	}
	return &AssessmentService{store: store, now: time.Now}, nil
}

// Save replaces the requester's questionnaire. Saving for another user id is
// forbidden.
func (s *AssessmentService) Save(ctx context.Context, requester string, in SaveAssessmentInput) (domain.Assessment, error) {
	requester = strings.TrimSpace(requester)
	if requester == "" {
		return domain.Assessment{}, newError(ErrorUnauthenticated, "missing_identity", nil)
	}
	if strings.TrimSpace(in.UserID) != requester {
		return domain.Assessment{}, forbidden()
	}
	for _, list := range [][]string{in.Data.Populations, in.Data.MainFactors, in.Data.PhysicalConditions} {
		if len(list) > maxQuestionnaireListLen {
			return domain.Assessment{}, invalid("too_many_answers")
		}
	}

	a := domain.Assessment{
		UserID:      requester,
		Data:        in.Data,
		CompletedAt: strings.TrimSpace(in.CompletedAt),
		UpdatedAt:   s.now().UTC(),
	}
	if err := s.store.Put(ctx, a); err != nil {
		return domain.Assessment{}, storeError("store_write_error", err)
	}
	return a, nil
}

// Get returns the requester's questionnaire. found is false when none was saved.
func (s *AssessmentService) Get(ctx context.Context, requester string) (a domain.Assessment, found bool, err error) {
	requester = strings.TrimSpace(requester)
	if requester == "" {
		return domain.Assessment{}, false, newError(ErrorUnauthenticated, "missing_identity", nil)
	}
	a, found, err = s.store.Get(ctx, requester)
	if err != nil {
		return domain.Assessment{}, false, storeError("store_read_error", err)
	}
	return a, found, nil
}
