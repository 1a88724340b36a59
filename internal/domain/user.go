package domain

import "time"

// UserProfile is the persisted profile document.
type UserProfile struct {
	Profile           ProfileInfo       `json:"profile"`
	AssessmentHistory []AssessmentScore `json:"assessmentHistory"`
	ConversationIDs   []string          `json:"conversationIds"`
	Preferences       Preferences       `json:"preferences"`
	EmergencyContacts []Contact         `json:"emergencyContacts"`
}

// ProfileInfo holds the identifying part of a profile.
type ProfileInfo struct {
	UserID       string    `json:"userId"`
	Email        string    `json:"email,omitempty"`
	FirstName    string    `json:"firstName,omitempty"`
	LastName     string    `json:"lastName,omitempty"`
	Age          *int      `json:"age,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActive   time.Time `json:"lastActive"`
	ConsentGiven bool      `json:"consentGiven"`
}

// AssessmentScore is one entry of the append-only assessment history.
type AssessmentScore struct {
	Date            time.Time `json:"date"`
	DepressionScore int       `json:"depressionScore"`
	AnxietyScore    int       `json:"anxietyScore"`
	StressScore     int       `json:"stressScore"`
	OverallScore    int       `json:"overallScore"`
	Severity        string    `json:"severity"`
}

type Preferences struct {
	Theme         string `json:"theme,omitempty"`
	Notifications *bool  `json:"notifications,omitempty"`
	ReminderTime  string `json:"reminderTime,omitempty"`
	Language      string `json:"language,omitempty"`
}

type Contact struct {
	Name         string `json:"name"`
	Phone        string `json:"phone,omitempty"`
	Relationship string `json:"relationship,omitempty"`
}

// HasConversation reports whether sessionID is already linked.
func (u UserProfile) HasConversation(sessionID string) bool {
	for _, id := range u.ConversationIDs {
		if id == sessionID {
			return true
		}
	}
	return false
}
