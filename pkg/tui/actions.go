package tui

import (
	"context"
	"database/sql"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unowned-ai/nutriscan/pkg/app"
	"github.com/unowned-ai/nutriscan/pkg/guide"
	"github.com/unowned-ai/nutriscan/pkg/journal"
	"github.com/unowned-ai/nutriscan/pkg/products"
)

type guideMsg guide.Guide

type historyMsg []products.HistoryEntry

type todayMsg journal.Summary

// lookupMsg reports that the lookup session published a new state.
type lookupMsg struct{}

func loadGuide(a *app.App) tea.Cmd {
	return func() tea.Msg {
		g, err := a.Guide.Load(context.Background())
		if err != nil {
			return err
		}
		return guideMsg(g)
	}
}

func loadHistory(a *app.App) tea.Cmd {
	return func() tea.Msg {
		entries, err := a.History.List(context.Background())
		if err != nil {
			return err
		}
		return historyMsg(entries)
	}
}

func loadToday(a *app.App) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		day, err := journal.GetDay(ctx, a.DB, "")
		if err != nil {
			return err
		}
		p, err := a.Profile.Load(ctx)
		if err != nil {
			return err
		}
		return todayMsg(journal.Summarize(day, p.Goals))
	}
}

func addGlass(a *app.App) tea.Cmd {
	return func() tea.Msg {
		if _, err := journal.AddWater(context.Background(), a.DB, "", journal.GlassMl); err != nil {
			return err
		}
		return loadToday(a)()
	}
}

// waitLookup blocks until the lookup session publishes. Update re-arms it
// after every lookupMsg.
func waitLookup(events <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-events
		return lookupMsg{}
	}
}

// Get database file path
func dbFile(db *sql.DB) string {
	var name, file string
	if err := db.QueryRow(`PRAGMA database_list`).Scan(new(int), &name, &file); err != nil {
		return ""
	}
	return file
}
