package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/unowned-ai/nutriscan/pkg/shopping"
)

var shoppingCmd = &cobra.Command{
	Use:     "shopping",
	Aliases: []string{"s"},
	Short:   "Manage the shopping list",
	Long:    `Items can be referred to by id, id prefix or (case-insensitive) name.`,
}

var addItemCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add an item to the shopping list",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		item, err := a.Shopping.Add(cmd.Context(), strings.Join(args, " "))
		if errors.Is(err, shopping.ErrEmptyName) {
			return err
		}
		if err != nil {
			return fmt.Errorf("failed to add item: %w", err)
		}
		fmt.Printf("Added %s (%s).\n", item.Name, shortID(item.ID))
		return nil
	},
}

var listItemsCmd = &cobra.Command{
	Use:   "list",
	Short: "List the shopping list",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		items, err := a.Shopping.Items(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to load shopping list: %w", err)
		}
		if len(items) == 0 {
			fmt.Println("The shopping list is empty.")
			return nil
		}
		for _, it := range items {
			box := "[ ]"
			if it.Checked {
				box = "[x]"
			}
			fmt.Printf("%s %s  %s\n", box, shortID(it.ID), it.Name)
		}
		return nil
	},
}

var toggleItemCmd = &cobra.Command{
	Use:   "toggle [item]",
	Short: "Check or uncheck an item",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		item, err := resolveItem(cmd, a.Shopping, args[0])
		if err != nil {
			return err
		}
		item, err = a.Shopping.Toggle(cmd.Context(), item.ID)
		if err != nil {
			return fmt.Errorf("failed to toggle item: %w", err)
		}
		state := "unchecked"
		if item.Checked {
			state = "checked"
		}
		fmt.Printf("%s %s.\n", item.Name, state)
		return nil
	},
}

var removeItemCmd = &cobra.Command{
	Use:     "remove [item]",
	Aliases: []string{"rm"},
	Short:   "Remove an item from the shopping list",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		item, err := resolveItem(cmd, a.Shopping, args[0])
		if err != nil {
			return err
		}
		if err := a.Shopping.Remove(cmd.Context(), item.ID); err != nil {
			return fmt.Errorf("failed to remove item: %w", err)
		}
		fmt.Printf("Removed %s.\n", item.Name)
		return nil
	},
}

func resolveItem(cmd *cobra.Command, list *shopping.List, ref string) (shopping.Item, error) {
	items, err := list.Items(cmd.Context())
	if err != nil {
		return shopping.Item{}, fmt.Errorf("failed to load shopping list: %w", err)
	}
	item, err := shopping.Resolve(items, ref)
	if errors.Is(err, shopping.ErrItemNotFound) {
		return shopping.Item{}, fmt.Errorf("no single item matches %q", ref)
	}
	return item, err
}

func initShoppingCmd() {
	shoppingCmd.AddCommand(addItemCmd, listItemsCmd, toggleItemCmd, removeItemCmd)
	rootCmd.AddCommand(shoppingCmd)
}
