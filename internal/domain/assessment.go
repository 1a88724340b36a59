package domain

import "time"

// Questionnaire is the onboarding mental health questionnaire as answered by
// the user.
type Questionnaire struct {
	NeedImprovement    string   `json:"needImprovement"`
	TestFor            string   `json:"testFor"`
	AgeRange           string   `json:"ageRange"`
	Gender             string   `json:"gender"`
	Transgender        bool     `json:"transgender"`
	HouseholdIncome    string   `json:"householdIncome"`
	Populations        []string `json:"populations"`
	PreviousTreatment  string   `json:"previousTreatment"`
	MainFactors        []string `json:"mainFactors"`
	HasInsurance       string   `json:"hasInsurance"`
	PhysicalConditions []string `json:"physicalConditions"`
	HasPet             string   `json:"hasPet"`
}

// Assessment is the stored questionnaire. A user has at most one; saving again
// replaces it.
type Assessment struct {
	UserID      string        `json:"userId"`
	Data        Questionnaire `json:"assessmentData"`
	CompletedAt string        `json:"completedAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}
