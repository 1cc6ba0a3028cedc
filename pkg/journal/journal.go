package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/unowned-ai/nutriscan/pkg/utils"
)

var (
	ErrMealNotFound  = errors.New("meal not found")
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrInvalidMeal   = errors.New("invalid meal")
)

// now is replaced in tests.
var now = time.Now

const (
	insertMealStatement = `
	INSERT INTO meals (id, day, analysis_text, photo_base64, calories, protein, carbs, fat, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	getMealStatement = `
	SELECT id, day, analysis_text, COALESCE(photo_base64, ''), calories, protein, carbs, fat, created_at
	FROM meals
	WHERE id = ?
	`

	listMealsByDayStatement = `
	SELECT id, day, analysis_text, COALESCE(photo_base64, ''), calories, protein, carbs, fat, created_at
	FROM meals
	WHERE day = ?
	ORDER BY created_at ASC, rowid ASC
	`

	addWaterStatement = `
	INSERT INTO water (day, total_ml) VALUES (?, ?)
	ON CONFLICT(day) DO UPDATE SET total_ml = total_ml + excluded.total_ml, updated_at = unixepoch()
	`

	getWaterStatement = `
	SELECT total_ml FROM water WHERE day = ?
	`

	listDatesStatement = `
	SELECT day FROM meals
	UNION
	SELECT day FROM water WHERE total_ml > 0
	ORDER BY day DESC
	`
)

// LogMeal appends a meal to date. An empty date means today.
func LogMeal(ctx context.Context, db *sql.DB, date string, meal Meal) (LoggedMeal, error) {
	date, err := resolveDate(date)
	if err != nil {
		return LoggedMeal{}, err
	}
	n := meal.Nutrients
	for _, v := range []float64{n.Calories, n.Protein, n.Carbs, n.Fat} {
		if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return LoggedMeal{}, fmt.Errorf("%w: nutrients must be finite and not negative", ErrInvalidMeal)
		}
	}

	logged := LoggedMeal{
		ID:           uuid.New(),
		Date:         date,
		AnalysisText: meal.AnalysisText,
		PhotoBase64:  meal.PhotoBase64,
		Nutrients:    n,
		Timestamp:    now(),
	}

	var photo sql.NullString
	if meal.PhotoBase64 != "" {
		photo = sql.NullString{String: meal.PhotoBase64, Valid: true}
	}

	_, err = db.ExecContext(
		ctx,
		insertMealStatement,
		logged.ID,
		logged.Date,
		logged.AnalysisText,
		photo,
		n.Calories,
		n.Protein,
		n.Carbs,
		n.Fat,
		toEpoch(logged.Timestamp),
	)
	if err != nil {
		return LoggedMeal{}, err
	}

	return GetMeal(ctx, db, logged.ID)
}

func GetMeal(ctx context.Context, db *sql.DB, id uuid.UUID) (LoggedMeal, error) {
	meal, err := scanMeal(db.QueryRowContext(ctx, getMealStatement, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return LoggedMeal{}, ErrMealNotFound
		}
		return LoggedMeal{}, err
	}
	return meal, nil
}

// AddWater adds ml to date's total and returns the new total.
func AddWater(ctx context.Context, db *sql.DB, date string, ml float64) (float64, error) {
	if ml <= 0 || math.IsNaN(ml) || math.IsInf(ml, 0) {
		return 0, ErrInvalidAmount
	}
	date, err := resolveDate(date)
	if err != nil {
		return 0, err
	}

	if _, err := db.ExecContext(ctx, addWaterStatement, date, ml); err != nil {
		return 0, err
	}
	return waterTotal(ctx, db, date)
}

func waterTotal(ctx context.Context, db *sql.DB, date string) (float64, error) {
	var total float64
	err := db.QueryRowContext(ctx, getWaterStatement, date).Scan(&total)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return total, nil
}

// GetDay returns date's meals in logging order together with totals.
func GetDay(ctx context.Context, db *sql.DB, date string) (Day, error) {
	date, err := resolveDate(date)
	if err != nil {
		return Day{}, err
	}

	rows, err := db.QueryContext(ctx, listMealsByDayStatement, date)
	if err != nil {
		return Day{}, err
	}
	defer rows.Close()

	day := Day{Date: date, Meals: []LoggedMeal{}}
	for rows.Next() {
		meal, err := scanMeal(rows)
		if err != nil {
			return Day{}, err
		}
		day.Meals = append(day.Meals, meal)
		day.Totals = day.Totals.Add(meal.Nutrients)
	}
	if err = rows.Err(); err != nil {
		return Day{}, err
	}

	day.WaterMl, err = waterTotal(ctx, db, date)
	if err != nil {
		return Day{}, err
	}
	return day, nil
}

// ListDates returns the dates with meals or water, newest first.
func ListDates(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx, listDatesStatement)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeal(row rowScanner) (LoggedMeal, error) {
	var meal LoggedMeal
	var created float64
	err := row.Scan(
		&meal.ID,
		&meal.Date,
		&meal.AnalysisText,
		&meal.PhotoBase64,
		&meal.Nutrients.Calories,
		&meal.Nutrients.Protein,
		&meal.Nutrients.Carbs,
		&meal.Nutrients.Fat,
		&created,
	)
	if err != nil {
		return LoggedMeal{}, err
	}
	meal.Timestamp = fromEpoch(created)
	return meal, nil
}

func resolveDate(date string) (string, error) {
	if date == "" {
		return utils.LocalDate(now()), nil
	}
	if err := utils.ValidateDate(date); err != nil {
		return "", err
	}
	return date, nil
}

func toEpoch(t time.Time) float64 {
	return float64(t.UnixMilli()) / 1000
}

func fromEpoch(v float64) time.Time {
	return time.UnixMilli(int64(math.Round(v * 1000)))
}
