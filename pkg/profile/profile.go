package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/unowned-ai/nutriscan/pkg/store"
)

var (
	ErrIncompleteBiometrics = errors.New("age, weight and height are required to derive goals")
	ErrInvalidProfile       = errors.New("invalid profile")
)

type Sex string

const (
	SexUnspecified Sex = ""
	SexMale        Sex = "male"
	SexFemale      Sex = "female"
)

type ActivityLevel string

const (
	ActivitySedentary  ActivityLevel = "sedentary"
	ActivityLight      ActivityLevel = "light"
	ActivityModerate   ActivityLevel = "moderate"
	ActivityActive     ActivityLevel = "active"
	ActivityVeryActive ActivityLevel = "very_active"
)

var activityMultipliers = map[ActivityLevel]float64{
	ActivitySedentary:  1.2,
	ActivityLight:      1.375,
	ActivityModerate:   1.55,
	ActivityActive:     1.725,
	ActivityVeryActive: 1.9,
}

// ActivityLevels lists the accepted activity levels, least active first.
var ActivityLevels = []ActivityLevel{ActivitySedentary, ActivityLight, ActivityModerate, ActivityActive, ActivityVeryActive}

// Goals are daily targets.
type Goals struct {
	Calories int `json:"calories"`
	Protein  int `json:"protein"`
	Carbs    int `json:"carbs"`
	Fat      int `json:"fat"`
}

// DietaryProfile is the user's allergies, preferences, goals and optional
// biometrics.
type DietaryProfile struct {
	Allergies   []string      `json:"allergies"`
	Preferences []string      `json:"preferences"`
	Goals       Goals         `json:"goals"`
	Age         int           `json:"age,omitempty"`
	Sex         Sex           `json:"sex,omitempty"`
	WeightKg    float64       `json:"weight_kg,omitempty"`
	HeightCm    float64       `json:"height_cm,omitempty"`
	Activity    ActivityLevel `json:"activity_level,omitempty"`
}

func DefaultGoals() Goals {
	return Goals{Calories: 2000, Protein: 100, Carbs: 250, Fat: 70}
}

func Default() DietaryProfile {
	return DietaryProfile{
		Allergies:   []string{},
		Preferences: []string{},
		Goals:       DefaultGoals(),
		Activity:    ActivityModerate,
	}
}

// Validate checks ranges. Zero biometrics mean "not provided".
func (p DietaryProfile) Validate() error {
	switch {
	case p.Goals.Calories < 0 || p.Goals.Protein < 0 || p.Goals.Carbs < 0 || p.Goals.Fat < 0:
		return fmt.Errorf("%w: goals must not be negative", ErrInvalidProfile)
	case p.Age < 0 || p.Age > 130:
		return fmt.Errorf("%w: age %d out of range", ErrInvalidProfile, p.Age)
	case p.WeightKg < 0 || p.HeightCm < 0:
		return fmt.Errorf("%w: weight and height must not be negative", ErrInvalidProfile)
	case p.Sex != SexUnspecified && p.Sex != SexMale && p.Sex != SexFemale:
		return fmt.Errorf("%w: sex %q", ErrInvalidProfile, p.Sex)
	}
	if p.Activity != "" {
		if _, ok := activityMultipliers[p.Activity]; !ok {
			return fmt.Errorf("%w: activity level %q", ErrInvalidProfile, p.Activity)
		}
	}
	return nil
}

// Normalize trims, lower-cases and de-duplicates the tag sets.
func (p DietaryProfile) Normalize() DietaryProfile {
	p.Allergies = normalizeTags(p.Allergies)
	p.Preferences = normalizeTags(p.Preferences)
	return p
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" || slices.Contains(out, t) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// BMR is the Mifflin-St Jeor basal metabolic rate in kcal. An unspecified
// sex uses the female constant, the lower of the two.
func (p DietaryProfile) BMR() (float64, error) {
	if p.Age <= 0 || p.WeightKg <= 0 || p.HeightCm <= 0 {
		return 0, ErrIncompleteBiometrics
	}
	bmr := 10*p.WeightKg + 6.25*p.HeightCm - 5*float64(p.Age)
	if p.Sex == SexMale {
		bmr += 5
	} else {
		bmr -= 161
	}
	return bmr, nil
}

// DeriveGoals computes calorie and macro goals from biometrics. Calories are
// BMR times the activity multiplier; macros split 30% protein, 35% carbs and
// 35% fat by energy.
func (p DietaryProfile) DeriveGoals() (Goals, error) {
	bmr, err := p.BMR()
	if err != nil {
		return Goals{}, err
	}
	mult, ok := activityMultipliers[p.Activity]
	if !ok {
		mult = activityMultipliers[ActivityModerate]
	}
	tdee := math.Round(bmr * mult)
	return Goals{
		Calories: int(tdee),
		Protein:  int(math.Round(tdee * 0.30 / 4)),
		Carbs:    int(math.Round(tdee * 0.35 / 4)),
		Fat:      int(math.Round(tdee * 0.35 / 9)),
	}, nil
}

// Store owns the persisted profile.
type Store struct {
	doc *store.Document[DietaryProfile]
}

func NewStore(db *sql.DB) *Store {
	return &Store{doc: store.NewDocument(db, store.KeyProfile, Default)}
}

func (s *Store) Load(ctx context.Context) (DietaryProfile, error) {
	return s.doc.Load(ctx)
}

// Save validates, normalises and replaces the stored profile.
func (s *Store) Save(ctx context.Context, p DietaryProfile) (DietaryProfile, error) {
	if err := p.Validate(); err != nil {
		return DietaryProfile{}, err
	}
	p = p.Normalize()
	if err := s.doc.Save(ctx, p); err != nil {
		return DietaryProfile{}, err
	}
	return p, nil
}
