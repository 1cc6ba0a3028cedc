package main

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/nutriscan/pkg/ai"
	"github.com/unowned-ai/nutriscan/pkg/journal"
	"github.com/unowned-ai/nutriscan/pkg/utils"
)

var (
	journalDateFlag string
	logPhotoFlag    bool
)

var journalCmd = &cobra.Command{
	Use:     "journal",
	Aliases: []string{"j"},
	Short:   "Log meals and water and review your days",
	Long:    `Dates are YYYY-MM-DD in local time. Omit --date to use today.`,
}

var logMealCmd = &cobra.Command{
	Use:   "log [description]",
	Short: "Log a meal with its macros",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		var n journal.Nutrients
		n.Calories, _ = flags.GetFloat64("calories")
		n.Protein, _ = flags.GetFloat64("protein")
		n.Carbs, _ = flags.GetFloat64("carbs")
		n.Fat, _ = flags.GetFloat64("fat")

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		meal, err := journal.LogMeal(cmd.Context(), a.DB, journalDateFlag, journal.Meal{
			AnalysisText: strings.Join(args, " "),
			Nutrients:    n,
		})
		if err != nil {
			return journalError(err)
		}
		fmt.Printf("Logged meal %s on %s.\n", meal.ID, meal.Date)
		return nil
	},
}

var waterCmd = &cobra.Command{
	Use:   "water",
	Short: "Add water intake (one glass by default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		ml, _ := cmd.Flags().GetFloat64("ml")

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		total, err := journal.AddWater(cmd.Context(), a.DB, journalDateFlag, ml)
		if err != nil {
			return journalError(err)
		}
		fmt.Printf("Water today: %.0f / %d ml\n", total, journal.WaterGoalMl)
		return nil
	},
}

var dayCmd = &cobra.Command{
	Use:   "day",
	Short: "Show meals, totals and progress for a day",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		day, err := journal.GetDay(cmd.Context(), a.DB, journalDateFlag)
		if err != nil {
			return journalError(err)
		}
		p, err := a.Profile.Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load profile: %w", err)
		}
		sum := journal.Summarize(day, p.Goals)

		fmt.Printf("Date: %s\n\n", day.Date)
		if len(day.Meals) == 0 {
			fmt.Println("No meals logged.")
		}
		for _, m := range day.Meals {
			fmt.Printf("%s  %-40s %6.0f kcal\n", m.Timestamp.Local().Format("15:04"), truncateText(firstLine(m.AnalysisText), 40), m.Nutrients.Calories)
		}
		fmt.Println()
		printProgress("Calories", sum.Calories, "kcal")
		printProgress("Protein", sum.Protein, "g")
		printProgress("Carbs", sum.Carbs, "g")
		printProgress("Fat", sum.Fat, "g")
		fmt.Printf("%-9s %s %d/%d glasses\n", "Water", strings.Repeat("●", sum.GlassesFilled)+strings.Repeat("○", sum.GlassesTotal-sum.GlassesFilled), sum.GlassesFilled, sum.GlassesTotal)
		return nil
	},
}

var datesCmd = &cobra.Command{
	Use:   "dates",
	Short: "List the dates that have journal data",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		dates, err := journal.ListDates(cmd.Context(), a.DB)
		if err != nil {
			return journalError(err)
		}
		if len(dates) == 0 {
			fmt.Println("The journal is empty.")
			return nil
		}
		for _, d := range dates {
			fmt.Println(d)
		}
		return nil
	},
}

var photoCmd = &cobra.Command{
	Use:   "photo [image]",
	Short: "Estimate a meal's macros from a photo with the AI",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := ai.LoadImage(args[0])
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		svc, err := a.AI(cmd.Context())
		if err != nil {
			return aiError(err)
		}
		res, err := svc.AnalyzeMealPhoto(cmd.Context(), img)
		if err != nil {
			return aiError(err)
		}
		fmt.Println(res.AnalysisText)
		n := res.Nutrients
		fmt.Printf("\n%.0f kcal, %.0fg protein, %.0fg carbs, %.0fg fat\n", n.Calories, n.Protein, n.Carbs, n.Fat)

		if !logPhotoFlag {
			return nil
		}
		meal, err := journal.LogMeal(cmd.Context(), a.DB, journalDateFlag, journal.Meal{
			AnalysisText: res.AnalysisText,
			PhotoBase64:  base64.StdEncoding.EncodeToString(img.Data),
			Nutrients:    n,
		})
		if err != nil {
			return journalError(err)
		}
		fmt.Printf("Logged meal %s on %s.\n", meal.ID, meal.Date)
		return nil
	},
}

func journalError(err error) error {
	switch {
	case errors.Is(err, utils.ErrInvalidDate):
		return fmt.Errorf("invalid --date %q, expected YYYY-MM-DD", journalDateFlag)
	case errors.Is(err, journal.ErrInvalidAmount), errors.Is(err, journal.ErrInvalidMeal):
		return err
	default:
		return fmt.Errorf("journal error: %w", err)
	}
}

func printProgress(label string, p journal.Progress, unit string) {
	const width = 20
	filled := p.Percent * width / 100
	fmt.Printf("%-9s [%s%s] %.0f/%.0f %s (%d%%)\n", label, strings.Repeat("#", filled), strings.Repeat(".", width-filled), p.Value, p.Goal, unit, p.Percent)
}

func initJournalCmd() {
	journalCmd.PersistentFlags().StringVar(&journalDateFlag, "date", "", "Day to use (YYYY-MM-DD, defaults to today)")

	logMealCmd.Flags().Float64("calories", 0, "Energy in kcal")
	logMealCmd.Flags().Float64("protein", 0, "Protein in grams")
	logMealCmd.Flags().Float64("carbs", 0, "Carbohydrates in grams")
	logMealCmd.Flags().Float64("fat", 0, "Fat in grams")
	waterCmd.Flags().Float64("ml", journal.GlassMl, "Amount of water in millilitres")
	photoCmd.Flags().BoolVar(&logPhotoFlag, "log", false, "Log the analysed meal in the journal")

	journalCmd.AddCommand(logMealCmd, waterCmd, dayCmd, datesCmd, photoCmd)
	rootCmd.AddCommand(journalCmd)
}
