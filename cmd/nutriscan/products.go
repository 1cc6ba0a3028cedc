package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/nutriscan/pkg/ai"
	"github.com/unowned-ai/nutriscan/pkg/app"
	"github.com/unowned-ai/nutriscan/pkg/products"
	"github.com/unowned-ai/nutriscan/pkg/scanner"
)

var (
	scanSourceFlag string
	analyzeFlag    bool
)

var productsCmd = &cobra.Command{
	Use:     "products",
	Aliases: []string{"p"},
	Short:   "Look up, scan and compare food products",
	Long:    `Resolve barcodes against the Open Food/Beauty Facts databases, score products and browse the recent history.`,
}

var lookupCmd = &cobra.Command{
	Use:   "lookup [barcode]",
	Short: "Resolve a barcode to a product",
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
		printProduct(rec)
		if analyzeFlag {
			return printAnalysis(cmd, a, rec)
		}
		return nil
	},
}

var scoreCmd = &cobra.Command{
	Use:   "score [barcode]",
	Short: "Show the expert score of a product",
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
		score := products.ExpertScore(rec)
		fmt.Printf("%s: %.1f / 10 (%s)\n", rec.Name(), score, products.ScoreBand(score))
		return nil
	},
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recently scanned products, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		entries, err := a.History.List(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load history: %w", err)
		}
		if len(entries) == 0 {
			fmt.Println("No products scanned yet.")
			return nil
		}
		fmt.Printf("%-16s %s\n", "BARCODE", "NAME")
		fmt.Println(strings.Repeat("-", 60))
		for _, e := range entries {
			fmt.Printf("%-16s %s\n", e.Code, e.DisplayName)
		}
		return nil
	},
}

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Decode a barcode from an image or a directory of frames and resolve it",
	Long: `Runs a scan session over still images. --source is either one image file or a
directory of .png/.jpg frames that are tried in name order until a barcode is
decoded. The decoded product is then resolved and recorded in the history.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if scanSourceFlag == "" {
			return errors.New("--source is required")
		}
		provider, err := scanner.NewFileProvider(scanSourceFlag)
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		code, err := scanner.ScanOnce(cmd.Context(), provider, scanner.NewZXingDecoder(), scanner.Config{Logger: a.Logger}, func(symbol string) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Decoded %s\n", symbol)
		})
		if errors.Is(err, scanner.ErrStreamEnded) {
			return fmt.Errorf("no barcode found in %s", scanSourceFlag)
		}
		if err != nil {
			return fmt.Errorf("scan failed: %w", err)
		}

		rec, err := a.Resolver.Resolve(cmd.Context(), code)
		if err != nil {
			return lookupError(code, err)
		}
		printProduct(rec)
		if analyzeFlag {
			return printAnalysis(cmd, a, rec)
		}
		return nil
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare [barcode] [barcode]",
	Short: "Ask the AI which of two products is healthier",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var recs [2]products.ProductRecord
		for i, code := range args {
			recs[i], err = a.Resolver.Resolve(cmd.Context(), code)
			if err != nil {
				return lookupError(code, err)
			}
		}

		svc, err := a.AI(cmd.Context())
		if err != nil {
			return aiError(err)
		}
		cmp, err := svc.CompareProducts(cmd.Context(), recs[0], recs[1])
		if err != nil {
			return aiError(err)
		}

		fmt.Println(cmp.Summary)
		switch cmp.HealthierOption {
		case ai.HealthierProduct1:
			fmt.Printf("\nHealthier: %s\n", recs[0].Name())
		case ai.HealthierProduct2:
			fmt.Printf("\nHealthier: %s\n", recs[1].Name())
		default:
			fmt.Println("\nHealthier: neither")
		}
		fmt.Println(cmp.RecommendationReason)
		printList(recs[0].Name()+" pros", cmp.Product1Pros)
		printList(recs[0].Name()+" cons", cmp.Product1Cons)
		printList(recs[1].Name()+" pros", cmp.Product2Pros)
		printList(recs[1].Name()+" cons", cmp.Product2Cons)
		return nil
	},
}

func printAnalysis(cmd *cobra.Command, a *app.App, rec products.ProductRecord) error {
	prof, err := a.Profile.Load(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	svc, err := a.AI(cmd.Context())
	if err != nil {
		return aiError(err)
	}
	analysis, err := svc.PersonalizedAnalysis(cmd.Context(), rec, prof)
	if err != nil {
		return aiError(err)
	}
	fmt.Printf("\nVerdict: %s\n%s\n", analysis.Verdict, analysis.Summary)
	printList("Pros", analysis.Pros)
	printList("Cons", analysis.Cons)
	return nil
}

func lookupError(code string, err error) error {
	switch {
	case errors.Is(err, products.ErrInvalidBarcode):
		return fmt.Errorf("invalid barcode: %q", code)
	case errors.Is(err, products.ErrProductNotFound):
		return fmt.Errorf("no product found for barcode %s; %s", code, products.CreateHint)
	default:
		return fmt.Errorf("failed to look up %s: %w", code, err)
	}
}

func aiError(err error) error {
	switch {
	case errors.Is(err, ai.ErrMissingAPIKey):
		return errors.New("AI features need GEMINI_API_KEY (set it in the environment or a .env file)")
	case errors.Is(err, ai.ErrAISchemaValidation):
		return fmt.Errorf("the AI returned an unusable answer: %w", err)
	default:
		return fmt.Errorf("AI request failed: %w", err)
	}
}

func initProductsCmd() {
	lookupCmd.Flags().BoolVar(&analyzeFlag, "analyze", false, "Also run a personalised AI analysis against your profile")
	scanCmd.Flags().BoolVar(&analyzeFlag, "analyze", false, "Also run a personalised AI analysis against your profile")
	scanCmd.Flags().StringVar(&scanSourceFlag, "source", "", "Image file or directory of frames to scan (required)")

	productsCmd.AddCommand(lookupCmd, scoreCmd, historyCmd, scanCmd, compareCmd)
	rootCmd.AddCommand(productsCmd)
}
