package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/nutriscan/pkg/profile"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show and edit your dietary profile",
	Long:  `Allergies, dietary preferences, daily goals and the optional biometrics used to derive them.`,
}

var showProfileCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the dietary profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.Profile.Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load profile: %w", err)
		}
		printProfile(p)
		return nil
	},
}

var setProfileCmd = &cobra.Command{
	Use:   "set",
	Short: "Update fields of the dietary profile",
	Long: `Only the flags that are given are changed. Lists are comma separated and replace
the stored list; pass an empty value (--allergies "") to clear one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.Profile.Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load profile: %w", err)
		}

		flags := cmd.Flags()
		if flags.Changed("allergies") {
			v, _ := flags.GetString("allergies")
			p.Allergies = splitCSV(v)
		}
		if flags.Changed("preferences") {
			v, _ := flags.GetString("preferences")
			p.Preferences = splitCSV(v)
		}
		ints := map[string]*int{"calories": &p.Goals.Calories, "protein": &p.Goals.Protein, "carbs": &p.Goals.Carbs, "fat": &p.Goals.Fat, "age": &p.Age}
		for name, dst := range ints {
			if flags.Changed(name) {
				*dst, _ = flags.GetInt(name)
			}
		}
		if flags.Changed("weight") {
			p.WeightKg, _ = flags.GetFloat64("weight")
		}
		if flags.Changed("height") {
			p.HeightCm, _ = flags.GetFloat64("height")
		}
		if flags.Changed("sex") {
			v, _ := flags.GetString("sex")
			p.Sex = profile.Sex(strings.ToLower(v))
		}
		if flags.Changed("activity") {
			v, _ := flags.GetString("activity")
			p.Activity = profile.ActivityLevel(strings.ToLower(v))
		}

		saved, err := a.Profile.Save(cmd.Context(), p)
		if errors.Is(err, profile.ErrInvalidProfile) {
			return err
		}
		if err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}
		fmt.Println("Profile updated.")
		printProfile(saved)
		return nil
	},
}

var deriveProfileCmd = &cobra.Command{
	Use:   "derive",
	Short: "Recompute daily goals from age, sex, weight, height and activity",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.Profile.Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load profile: %w", err)
		}
		goals, err := p.DeriveGoals()
		if errors.Is(err, profile.ErrIncompleteBiometrics) {
			return errors.New("set --age, --weight and --height with 'nutriscan profile set' first")
		}
		if err != nil {
			return err
		}
		p.Goals = goals
		saved, err := a.Profile.Save(cmd.Context(), p)
		if err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}
		printProfile(saved)
		return nil
	},
}

func printProfile(p profile.DietaryProfile) {
	fmt.Printf("Allergies:   %s\n", joinOrNone(p.Allergies))
	fmt.Printf("Preferences: %s\n", joinOrNone(p.Preferences))
	fmt.Printf("Goals:       %d kcal, %dg protein, %dg carbs, %dg fat\n", p.Goals.Calories, p.Goals.Protein, p.Goals.Carbs, p.Goals.Fat)
	if p.Age > 0 {
		fmt.Printf("Age:         %d\n", p.Age)
	}
	if p.Sex != profile.SexUnspecified {
		fmt.Printf("Sex:         %s\n", p.Sex)
	}
	if p.WeightKg > 0 {
		fmt.Printf("Weight:      %.1f kg\n", p.WeightKg)
	}
	if p.HeightCm > 0 {
		fmt.Printf("Height:      %.1f cm\n", p.HeightCm)
	}
	if p.Activity != "" {
		fmt.Printf("Activity:    %s\n", p.Activity)
	}
}

func initProfileCmd() {
	f := setProfileCmd.Flags()
	f.String("allergies", "", "Comma separated allergies (e.g. gluten,peanuts)")
	f.String("preferences", "", "Comma separated preferences (e.g. vegan,low-sugar)")
	f.Int("calories", 0, "Daily calorie goal (kcal)")
	f.Int("protein", 0, "Daily protein goal (g)")
	f.Int("carbs", 0, "Daily carbohydrate goal (g)")
	f.Int("fat", 0, "Daily fat goal (g)")
	f.Int("age", 0, "Age in years")
	f.String("sex", "", "male or female")
	f.Float64("weight", 0, "Weight in kg")
	f.Float64("height", 0, "Height in cm")
	levels := make([]string, len(profile.ActivityLevels))
	for i, l := range profile.ActivityLevels {
		levels[i] = string(l)
	}
	f.String("activity", "", "Activity level ("+strings.Join(levels, ", ")+")")

	profileCmd.AddCommand(showProfileCmd, setProfileCmd, deriveProfileCmd)
	rootCmd.AddCommand(profileCmd)
}
