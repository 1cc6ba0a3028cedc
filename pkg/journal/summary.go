package journal

import (
	"math"

	"github.com/unowned-ai/nutriscan/pkg/profile"
)

const (
	WaterGoalMl = 2000
	GlassMl     = 250
)

// Progress is a value measured against a goal. Percent is capped at 100.
type Progress struct {
	Value   float64 `json:"value"`
	Goal    float64 `json:"goal"`
	Percent int     `json:"percent"`
}

func progress(value, goal float64) Progress {
	p := Progress{Value: value, Goal: goal}
	if goal > 0 {
		p.Percent = int(math.Min(math.Round(value/goal*100), 100))
	}
	return p
}

type Summary struct {
	Date          string   `json:"date"`
	MealCount     int      `json:"meal_count"`
	Calories      Progress `json:"calories"`
	Protein       Progress `json:"protein"`
	Carbs         Progress `json:"carbs"`
	Fat           Progress `json:"fat"`
	Water         Progress `json:"water"`
	GlassesFilled int      `json:"glasses_filled"`
	GlassesTotal  int      `json:"glasses_total"`
	WaterReached  bool     `json:"water_goal_reached"`
}

// Summarize measures a day against goals. Unset goals fall back to the
// defaults.
func Summarize(day Day, goals profile.Goals) Summary {
	def := profile.DefaultGoals()
	orDefault := func(v, d int) float64 {
		if v > 0 {
			return float64(v)
		}
		return float64(d)
	}

	total := int(math.Ceil(float64(WaterGoalMl) / GlassMl))
	return Summary{
		Date:          day.Date,
		MealCount:     len(day.Meals),
		Calories:      progress(day.Totals.Calories, orDefault(goals.Calories, def.Calories)),
		Protein:       progress(day.Totals.Protein, orDefault(goals.Protein, def.Protein)),
		Carbs:         progress(day.Totals.Carbs, orDefault(goals.Carbs, def.Carbs)),
		Fat:           progress(day.Totals.Fat, orDefault(goals.Fat, def.Fat)),
		Water:         progress(day.WaterMl, WaterGoalMl),
		GlassesFilled: min(int(day.WaterMl/GlassMl), total),
		GlassesTotal:  total,
		WaterReached:  day.WaterMl >= WaterGoalMl,
	}
}
