package journal

import (
	"time"

	"github.com/google/uuid"
)

// Nutrients are the macro totals of a meal.
type Nutrients struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
}

func (n Nutrients) Add(o Nutrients) Nutrients {
	return Nutrients{
		Calories: n.Calories + o.Calories,
		Protein:  n.Protein + o.Protein,
		Carbs:    n.Carbs + o.Carbs,
		Fat:      n.Fat + o.Fat,
	}
}

// Meal is what the caller supplies; the journal assigns id and timestamp.
type Meal struct {
	AnalysisText string    `json:"analysis_text"`
	PhotoBase64  string    `json:"photo_base64,omitempty"`
	Nutrients    Nutrients `json:"nutrients"`
}

// LoggedMeal is immutable once created.
type LoggedMeal struct {
	ID           uuid.UUID `json:"id"`
	Date         string    `json:"date"`
	AnalysisText string    `json:"analysis_text"`
	PhotoBase64  string    `json:"photo_base64,omitempty"`
	Nutrients    Nutrients `json:"nutrients"`
	Timestamp    time.Time `json:"timestamp"`
}

// Day is everything logged on one calendar date.
type Day struct {
	Date    string       `json:"date"`
	Meals   []LoggedMeal `json:"meals"`
	Totals  Nutrients    `json:"totals"`
	WaterMl float64      `json:"water_ml"`
}
