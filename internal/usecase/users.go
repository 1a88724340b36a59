package usecase

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"aurora-agent/internal/domain"
)

const (
	guestUserID     = "guest"
	guestFirstName  = "Guest"
	maxNameLen      = 100
	maxAssessScore  = 1000
	defaultTheme    = "light"
	defaultLanguage = "en"
)

// UserService manages profiles. Only the profile's own user may read or change it.
type UserService struct {
	users UserStore
	now   func() time.Time
}

type CreateUserInput struct {
	Email        string
	FirstName    string
	LastName     string
	Age          *int
	ConsentGiven bool
}

type CreateUserOutput struct {
	UserID   string
	Existing bool
}

type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Age       *int
	Email     *string
}

type PreferencesInput struct {
	Theme         *string
	Notifications *bool
	ReminderTime  *string
	Language      *string
}

type AssessmentInput struct {
	DepressionScore int
	AnxietyScore    int
	StressScore     int
	OverallScore    int
	Severity        string
}

func NewUserService(users UserStore) (*UserService, error) {
	if users == nil {
		return nil, errors.New("usecase: user store must not be nil")
	}
	return &UserService{users: users, now: time.Now}, nil
}

// Create derives the user id from the email, or a random id without one. An
// existing profile is left untouched and reported with Existing set.
func (s *UserService) Create(ctx context.Context, in CreateUserInput) (CreateUserOutput, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return CreateUserOutput{}, err
	}
	if in.Age != nil && (*in.Age < 0 || *in.Age > 150) {
		return CreateUserOutput{}, invalid("invalid_age")
	}
	if len(in.FirstName) > maxNameLen || len(in.LastName) > maxNameLen {
		return CreateUserOutput{}, invalid("name_too_long")
	}

	userID := anonymousUserID()
	if email != "" {
		userID = userIDForEmail(email)
		_, ok, err := s.users.Get(ctx, userID)
		if err != nil {
			return CreateUserOutput{}, storeError("store_read_error", err)
		}
		if ok {
			return CreateUserOutput{UserID: userID, Existing: true}, nil
		}
	}

	now := s.now().UTC()
	notifications := true
	p := domain.UserProfile{
		Profile: domain.ProfileInfo{
			UserID:       userID,
			Email:        email,
			FirstName:    strings.TrimSpace(in.FirstName),
			LastName:     strings.TrimSpace(in.LastName),
			Age:          in.Age,
			CreatedAt:    now,
			LastActive:   now,
			ConsentGiven: in.ConsentGiven,
		},
		AssessmentHistory: []domain.AssessmentScore{},
		ConversationIDs:   []string{},
		Preferences: domain.Preferences{
			Theme:         defaultTheme,
			Notifications: &notifications,
			Language:      defaultLanguage,
		},
		EmergencyContacts: []domain.Contact{},
	}
	if err := s.users.Put(ctx, p); err != nil {
		return CreateUserOutput{}, storeError("store_write_error", err)
	}
	return CreateUserOutput{UserID: userID}, nil
}

// Get returns the profile and records the access as activity. The guest and
// anonymous ids get a synthetic, unsaved profile.
func (s *UserService) Get(ctx context.Context, requester, userID string) (domain.UserProfile, error) {
	if userID == guestUserID || userID == AnonymousUserID {
		now := s.now().UTC()
		return domain.UserProfile{
			Profile: domain.ProfileInfo{
				UserID:     userID,
				FirstName:  guestFirstName,
				CreatedAt:  now,
				LastActive: now,
			},
			AssessmentHistory: []domain.AssessmentScore{},
			ConversationIDs:   []string{},
			EmergencyContacts: []domain.Contact{},
		}, nil
	}
	return s.mutate(ctx, requester, userID, func(*domain.UserProfile) error { return nil })
}

func (s *UserService) UpdateProfile(ctx context.Context, requester, userID string, in UpdateProfileInput) (domain.ProfileInfo, error) {
	p, err := s.mutate(ctx, requester, userID, func(p *domain.UserProfile) error {
		if in.FirstName != nil {
			if len(*in.FirstName) > maxNameLen {
				return invalid("name_too_long")
			}
			p.Profile.FirstName = strings.TrimSpace(*in.FirstName)
		}
		if in.LastName != nil {
			if len(*in.LastName) > maxNameLen {
				return invalid("name_too_long")
			}
			p.Profile.LastName = strings.TrimSpace(*in.LastName)
		}
		if in.Age != nil {
			if *in.Age < 0 || *in.Age > 150 {
				return invalid("invalid_age")
			}
			age := *in.Age
			p.Profile.Age = &age
		}
		if in.Email != nil {
			email, err := normalizeEmail(*in.Email)
			if err != nil {
				return err
			}
			p.Profile.Email = email
		}
		return nil
	})
	return p.Profile, err
}

func (s *UserService) UpdatePreferences(ctx context.Context, requester, userID string, in PreferencesInput) (domain.Preferences, error) {
	p, err := s.mutate(ctx, requester, userID, func(p *domain.UserProfile) error {
		if in.Theme != nil {
			p.Preferences.Theme = *in.Theme
		}
		if in.Notifications != nil {
			n := *in.Notifications
			p.Preferences.Notifications = &n
		}
		if in.ReminderTime != nil {
			p.Preferences.ReminderTime = *in.ReminderTime
		}
		if in.Language != nil {
			p.Preferences.Language = *in.Language
		}
		return nil
	})
	return p.Preferences, err
}

// AddAssessment appends to the assessment history; entries are never edited.
func (s *UserService) AddAssessment(ctx context.Context, requester, userID string, in AssessmentInput) (domain.AssessmentScore, error) {
	for _, v := range []int{in.DepressionScore, in.AnxietyScore, in.StressScore, in.OverallScore} {
		if v < 0 || v > maxAssessScore {
			return domain.AssessmentScore{}, invalid("invalid_score")
		}
	}
	severity := strings.TrimSpace(in.Severity)
	if severity == "" {
		return domain.AssessmentScore{}, invalid("missing_severity")
	}

	entry := domain.AssessmentScore{
		Date:            s.now().UTC(),
		DepressionScore: in.DepressionScore,
		AnxietyScore:    in.AnxietyScore,
		StressScore:     in.StressScore,
		OverallScore:    in.OverallScore,
		Severity:        severity,
	}
	_, err := s.mutate(ctx, requester, userID, func(p *domain.UserProfile) error {
		p.AssessmentHistory = append(p.AssessmentHistory, entry)
		return nil
	})
	if err != nil {
		return domain.AssessmentScore{}, err
	}
	return entry, nil
}

func (s *UserService) AssessmentHistory(ctx context.Context, requester, userID string) ([]domain.AssessmentScore, error) {
	p, err := s.load(ctx, requester, userID)
	if err != nil {
		return nil, err
	}
	if p.AssessmentHistory == nil {
		return []domain.AssessmentScore{}, nil
	}
	return p.AssessmentHistory, nil
}

// LinkConversation records sessionID on the profile. Linking twice is a no-op.
func (s *UserService) LinkConversation(ctx context.Context, requester, userID, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return invalid("missing_session_id")
	}
	_, err := s.mutate(ctx, requester, userID, func(p *domain.UserProfile) error {
		if !p.HasConversation(sessionID) {
			p.ConversationIDs = append(p.ConversationIDs, sessionID)
		}
		return nil
	})
	return err
}

// Delete removes the profile. Conversations referenced by it are kept.
func (s *UserService) Delete(ctx context.Context, requester, userID string) error {
	if _, err := s.load(ctx, requester, userID); err != nil {
		return err
	}
	existed, err := s.users.Delete(ctx, userID)
	if err != nil {
		return storeError("store_delete_error", err)
	}
	if !existed {
		return notFound("user_not_found")
	}
	return nil
}

func (s *UserService) load(ctx context.Context, requester, userID string) (domain.UserProfile, error) {
	if strings.TrimSpace(requester) == "" {
		return domain.UserProfile{}, newError(ErrorUnauthenticated, "missing_identity", nil)
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return domain.UserProfile{}, invalid("missing_user_id")
	}
	if requester != userID {
		return domain.UserProfile{}, forbidden()
	}
	p, ok, err := s.users.Get(ctx, userID)
	if err != nil {
		return domain.UserProfile{}, storeError("store_read_error", err)
	}
	if !ok {
		return domain.UserProfile{}, notFound("user_not_found")
	}
	return p, nil
}

// mutate loads the profile, applies fn, stamps LastActive and saves it back.
func (s *UserService) mutate(ctx context.Context, requester, userID string, fn func(*domain.UserProfile) error) (domain.UserProfile, error) {
	p, err := s.load(ctx, requester, userID)
	if err != nil {
		return domain.UserProfile{}, err
	}
	if err := fn(&p); err != nil {
		return domain.UserProfile{}, err
	}
	p.Profile.LastActive = s.now().UTC()
	if err := s.users.Put(ctx, p); err != nil {
		return domain.UserProfile{}, storeError("store_write_error", err)
	}
	return p, nil
}

func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", invalid("invalid_email")
	}
	return strings.ToLower(addr.Address), nil
}
