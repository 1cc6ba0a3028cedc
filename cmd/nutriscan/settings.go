package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/nutriscan/pkg/store"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the theme and the AI answer language",
}

var showSettingsCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.Settings.Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		printSettings(s)
		return nil
	},
}

var setSettingsCmd = &cobra.Command{
	Use:   "set",
	Short: "Change settings",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.Settings.Load(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load settings: %w", err)
		}
		if cmd.Flags().Changed("theme") {
			s.Theme, _ = cmd.Flags().GetString("theme")
		}
		if cmd.Flags().Changed("language") {
			s.Language, _ = cmd.Flags().GetString("language")
		}
		err = a.Settings.Save(cmd.Context(), s)
		if errors.Is(err, store.ErrInvalidSetting) {
			return err
		}
		if err != nil {
			return fmt.Errorf("failed to save settings: %w", err)
		}
		printSettings(s)
		return nil
	},
}

var toggleThemeCmd = &cobra.Command{
	Use:   "toggle-theme",
	Short: "Switch between the light and dark theme",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		s, err := a.Settings.ToggleTheme(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to toggle theme: %w", err)
		}
		printSettings(s)
		return nil
	},
}

func printSettings(s store.Settings) {
	fmt.Printf("Theme:    %s\n", s.Theme)
	fmt.Printf("Language: %s\n", s.Language)
}

func initSettingsCmd() {
	setSettingsCmd.Flags().String("theme", "", "light or dark")
	setSettingsCmd.Flags().String("language", "", "AI answer language: ro or en")

	settingsCmd.AddCommand(showSettingsCmd, setSettingsCmd, toggleThemeCmd)
	rootCmd.AddCommand(settingsCmd)
}
