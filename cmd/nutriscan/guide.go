package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/nutriscan/pkg/guide"
)

var (
	guideSearchFlag string
	guideFilters    guide.Filters
	guideAvoidFlag  bool
	guideOptsFlag   bool
)

var guideCmd = &cobra.Command{
	Use:     "guide",
	Aliases: []string{"g"},
	Short:   "Browse the tiered food guide",
	Long: `Prints the food guide grouped by category, subcategory and tier (TOP, A to E).
Search and tag filters combine: a food is shown when its name contains the search
text and it carries every selected tag.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		g, err := a.Guide.Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load guide: %w", err)
		}

		switch {
		case guideOptsFlag:
			opts := g.FilterOptions()
			printList("Regions", opts.Regions)
			printList("Organ benefits", opts.OrganBenefits)
			printList("Dietary compatibility", opts.DietaryCompatibility)
			printList("Nutritional profile", opts.NutritionalProfile)
			return nil
		case guideAvoidFlag:
			for _, f := range g.AvoidList() {
				fmt.Printf("[%-3s] %s\n", f.Tier, f.Name)
				if f.Cons != "" {
					fmt.Printf("      %s\n", f.Cons)
				}
			}
			return nil
		}

		filtered := g.Filter(guideSearchFlag, guideFilters)
		if len(filtered.Categories) == 0 {
			fmt.Println("No foods match.")
			return nil
		}
		for _, c := range filtered.Categories {
			fmt.Printf("%s %s\n", c.Icon, c.Name)
			for _, s := range c.Subcategories {
				fmt.Printf("  %s\n", s.Name)
				for _, t := range s.Tiers {
					for _, f := range t.Foods {
						marker := ""
						if f.Custom {
							marker = " *"
						}
						fmt.Printf("    [%-3s] %s%s\n", t.Name, f.Name, marker)
					}
				}
			}
		}
		return nil
	},
}

var addFoodCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add your own food to an existing category and subcategory",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		category, _ := flags.GetString("category")
		subcategory, _ := flags.GetString("subcategory")
		tierStr, _ := flags.GetString("tier")
		info, _ := flags.GetString("info")
		cons, _ := flags.GetString("cons")

		tier, err := guide.ParseTier(tierStr)
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		food, err := a.Guide.Add(cmd.Context(), category, subcategory, guide.Food{
			Name: strings.Join(args, " "),
			Tier: tier,
			Info: info,
			Cons: cons,
		})
		switch {
		case errors.Is(err, guide.ErrCategoryNotFound), errors.Is(err, guide.ErrSubcategoryNotFound), errors.Is(err, guide.ErrInvalidFood):
			return err
		case err != nil:
			return fmt.Errorf("failed to add food: %w", err)
		}
		fmt.Printf("Added %s to %s / %s as tier %s.\n", food.Name, category, subcategory, food.Tier)
		return nil
	},
}

var showFoodCmd = &cobra.Command{
	Use:   "show [name]",
	Short: "Show the details of one food by its exact name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		g, err := a.Guide.Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load guide: %w", err)
		}
		name := strings.Join(args, " ")
		f, ok := g.FindFood(name)
		if !ok {
			return fmt.Errorf("no food named %q; try 'nutriscan guide --search'", name)
		}
		printFood(f)
		return nil
	},
}

func printFood(f guide.Food) {
	fmt.Printf("%s [%s]\n", f.Name, f.Tier)
	fmt.Printf("  Why: %s\n", f.Info)
	if f.Cons != "" {
		fmt.Printf("  Watch out: %s\n", f.Cons)
	}
	if f.Tags == nil {
		return
	}
	fmt.Printf("  Regions: %s\n", joinOrNone(f.Tags.Regions))
	fmt.Printf("  Organ benefits: %s\n", joinOrNone(f.Tags.OrganBenefits))
	fmt.Printf("  Dietary: %s\n", joinOrNone(f.Tags.DietaryCompatibility))
	fmt.Printf("  Nutritional profile: %s\n", joinOrNone(f.Tags.NutritionalProfile))
}

func initGuideCmd() {
	f := guideCmd.Flags()
	f.StringVarP(&guideSearchFlag, "search", "s", "", "Case-insensitive text search")
	f.StringSliceVar(&guideFilters.Regions, "region", nil, "Require a region tag (repeatable)")
	f.StringSliceVar(&guideFilters.OrganBenefits, "organ", nil, "Require an organ benefit tag (repeatable)")
	f.StringSliceVar(&guideFilters.DietaryCompatibility, "dietary", nil, "Require a dietary compatibility tag (repeatable)")
	f.StringSliceVar(&guideFilters.NutritionalProfile, "nutritional", nil, "Require a nutritional profile tag (repeatable)")
	f.BoolVar(&guideAvoidFlag, "avoid", false, "List the D and E tier foods to avoid")
	f.BoolVar(&guideOptsFlag, "options", false, "List the available filter values")

	af := addFoodCmd.Flags()
	af.String("category", "", "Existing category name (required)")
	af.String("subcategory", "", "Existing subcategory name (required)")
	af.String("tier", "", "Tier: TOP, A, B, C, D or E (required)")
	af.String("info", "", "Why the food is good (required)")
	af.String("cons", "", "Drawbacks, if any")
	addFoodCmd.MarkFlagRequired("category")
	addFoodCmd.MarkFlagRequired("subcategory")
	addFoodCmd.MarkFlagRequired("tier")
	addFoodCmd.MarkFlagRequired("info")

	guideCmd.AddCommand(addFoodCmd)
	guideCmd.AddCommand(showFoodCmd)
	rootCmd.AddCommand(guideCmd)
}
