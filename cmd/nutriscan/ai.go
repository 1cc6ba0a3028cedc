package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/nutriscan/pkg/ai"
)

var (
	streamParams   ai.StreamParams
	streamImage    string
	ingredientsImg string
	nutritionImg   string
)

var aiCmd = &cobra.Command{
	Use:   "ai",
	Short: "Ask the AI about products, additives, recipes and seasonal food",
	Long: `All AI commands need GEMINI_API_KEY in the environment or in a .env file.
Answers use the language from 'nutriscan settings'.`,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [barcode]",
	Short: "Personalised verdict on a product for your dietary profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		rec, err := a.Resolver.Resolve(cmd.Context(), args[0])
		if err != nil {
			return lookupError(args[0], err)
		}
		fmt.Println(rec.Name())
		return printAnalysis(cmd, a, rec)
	},
}

var additiveCmd = &cobra.Command{
	Use:   "additive [code or name]",
	Short: "Explain a food additive",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		svc, err := a.AI(cmd.Context())
		if err != nil {
			return aiError(err)
		}
		text, err := svc.ExplainAdditive(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return aiError(err)
		}
		fmt.Println(text)
		return nil
	},
}

var seasonalCmd = &cobra.Command{
	Use:   "seasonal",
	Short: "List what is in season now, with web sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		svc, err := a.AI(cmd.Context())
		if err != nil {
			return aiError(err)
		}
		resp, err := svc.SeasonalFoods(cmd.Context())
		if err != nil {
			return aiError(err)
		}
		fmt.Println(resp.Text)
		if len(resp.Sources) > 0 {
			fmt.Println("\nSources:")
			for _, src := range resp.Sources {
				if src.Title != "" {
					fmt.Printf("  %s - %s\n", src.Title, src.URI)
				} else {
					fmt.Printf("  %s\n", src.URI)
				}
			}
		}
		return nil
	},
}

var productImagesCmd = &cobra.Command{
	Use:   "product-images",
	Short: "Analyse a product from photos of its ingredients and nutrition labels",
	RunE: func(cmd *cobra.Command, args []string) error {
		ingredients, err := ai.LoadImage(ingredientsImg)
		if err != nil {
			return err
		}
		nutrition, err := ai.LoadImage(nutritionImg)
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
		text, err := svc.AnalyzeProductImages(cmd.Context(), ingredients, nutrition)
		if err != nil {
			return aiError(err)
		}
		fmt.Println(text)
		return nil
	},
}

var streamCmd = &cobra.Command{
	Use:       fmt.Sprintf("stream %s", strings.Join(ai.StreamOps(), "|")),
	Short:     "Run a streaming AI operation and print the answer as it arrives",
	ValidArgs: ai.StreamOps(),
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		if streamImage != "" {
			img, err := ai.LoadImage(streamImage)
			if err != nil {
				return err
			}
			streamParams.Image = &img
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
		seq, err := svc.RunStream(cmd.Context(), args[0], streamParams)
		if errors.Is(err, ai.ErrMissingParam) {
			return fmt.Errorf("%w (see 'nutriscan ai stream --help')", err)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for chunk, err := range seq {
			if err != nil {
				fmt.Fprintln(out)
				return aiError(err)
			}
			fmt.Fprint(out, chunk)
		}
		fmt.Fprintln(out)
		return nil
	},
}

func initAICmd() {
	productImagesCmd.Flags().StringVar(&ingredientsImg, "ingredients", "", "Photo of the ingredients list (required)")
	productImagesCmd.Flags().StringVar(&nutritionImg, "nutrition", "", "Photo of the nutrition table (required)")
	productImagesCmd.MarkFlagRequired("ingredients")
	productImagesCmd.MarkFlagRequired("nutrition")

	f := streamCmd.Flags()
	f.StringVar(&streamParams.Product, "product", "", "Product name (alternatives, meal-idea, homemade)")
	f.StringVar(&streamParams.Food, "food", "", "Food name (food-alternative)")
	f.StringVar(&streamParams.Ingredients, "ingredients", "", "Ingredients text (ingredients, recipes)")
	f.BoolVar(&streamParams.Cosmetic, "cosmetic", false, "Treat the ingredients as a cosmetic product")
	f.StringVar(&streamParams.MealType, "meal-type", "", "Meal type for recipes, or 'any'")
	f.StringVar(&streamParams.DietaryStyle, "dietary-style", "", "Dietary style for recipes, or 'any'")
	f.StringVar(&streamParams.URL, "url", "", "Recipe page URL (recipe-url)")
	f.StringVar(&streamImage, "image", "", "Menu photo (menu)")

	aiCmd.AddCommand(analyzeCmd, additiveCmd, seasonalCmd, productImagesCmd, streamCmd)
	rootCmd.AddCommand(aiCmd)
}
