package tui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	textinput "github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/unowned-ai/nutriscan/pkg/app"
	"github.com/unowned-ai/nutriscan/pkg/guide"
	"github.com/unowned-ai/nutriscan/pkg/journal"
	"github.com/unowned-ai/nutriscan/pkg/products"
)

const (
	focusGuide = iota
	focusHistory
)

const bordersAndPadding = 4

type model struct {
	app *app.App

	guide       guide.Guide
	tree        *guide.Node
	treeDirty   *bool // set by the tree's change listener
	rows        []guide.Row
	guideCursor int
	search      string

	history       []products.HistoryEntry
	historyCursor int

	// Product lookup. The session only ever publishes the latest lookup.
	lookups      *products.Lookups
	lookupEvents chan struct{}
	lookupCode   string
	loading      bool
	product      *products.ProductRecord
	lookupErr    error

	today journal.Summary

	columnFocus int // 0 = guide, 1 = history and product details
	width       int
	height      int
	err         error

	dbFilename string
	quitting   bool

	searching    bool
	searchInput  textinput.Model
	entering     bool
	barcodeInput textinput.Model

	// Animation state
	marqueeOffset int
	marqueeTimer  int
}

func initModel(a *app.App) model {
	return newModel(a, a.Resolver)
}

func newModel(a *app.App, r products.Resolving) model {
	search := textinput.New()
	search.Placeholder = "Food name"
	search.CharLimit = 64

	barcode := textinput.New()
	barcode.Placeholder = "EAN / UPC"
	barcode.CharLimit = 32

	name := ""
	if file := dbFile(a.DB); file != "" {
		name = filepath.Base(file)
	}

	events := make(chan struct{}, 1)
	lookups := products.NewLookups(r, func(products.LookupState) {
		select {
		case events <- struct{}{}:
		default:
		}
	})

	return model{
		app:          a,
		tree:         guide.BuildTree(guide.Guide{}),
		lookups:      lookups,
		lookupEvents: events,
		dbFilename:   name,
		searchInput:  search,
		barcodeInput: barcode,
	}
}

// Execute commands concurrently with no ordering guarantees during initialization
func (m model) Init() tea.Cmd {
	return tea.Batch(
		loadGuide(m.app),
		loadHistory(m.app),
		loadToday(m.app),
		waitLookup(m.lookupEvents),
		tea.Tick(marqueeTickDuration, func(t time.Time) tea.Msg {
			return t
		}),
	)
}

func (m *model) rebuildTree() {
	filtered := m.guide.Filter(m.search, guide.Filters{})
	m.tree = guide.BuildTree(filtered)
	dirty := new(bool)
	m.tree.OnChange(func(guide.Event) { *dirty = true })
	m.treeDirty = dirty
	if m.search != "" {
		m.tree.ExpandAll()
	}
	m.rows = m.tree.Rows()
	*dirty = false
	m.guideCursor = 0
}

// refreshRows re-flattens the tree once it has reported an expand or
// collapse.
func (m *model) refreshRows() {
	if m.treeDirty == nil || !*m.treeDirty {
		return
	}
	*m.treeDirty = false
	m.rows = m.tree.Rows()
	m.guideCursor = min(m.guideCursor, max(0, len(m.rows)-1))
}

func (m *model) startLookup(code string) {
	code = strings.TrimSpace(code)
	if code == "" {
		return
	}
	m.lookups.Start(context.Background(), code)
	m.columnFocus = focusHistory
	m.syncLookup()
}

// syncLookup copies the last published lookup state into the model.
func (m *model) syncLookup() {
	st := m.lookups.State()
	m.lookupCode = st.Barcode
	m.loading = st.Loading
	m.lookupErr = st.Err
	m.product = nil
	if st.Barcode != "" && !st.Loading && st.Err == nil {
		rec := st.Product
		m.product = &rec
	}
}

func (m *model) shutdown() {
	m.lookups.Close()
}

// Processes events like window resize, errors, loaded data, and key presses
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case error:
		m.err = msg
		return m, nil

	case guideMsg:
		m.guide = guide.Guide(msg)
		m.rebuildTree()
		return m, nil

	case historyMsg:
		m.history = msg
		if m.historyCursor >= len(m.history) {
			m.historyCursor = max(0, len(m.history)-1)
		}
		return m, nil

	case todayMsg:
		m.today = journal.Summary(msg)
		return m, nil

	case lookupMsg:
		if m.quitting {
			return m, nil
		}
		m.syncLookup()
		next := waitLookup(m.lookupEvents)
		if m.product != nil {
			return m, tea.Batch(next, loadHistory(m.app))
		}
		return m, next

	case tea.KeyMsg:
		if m.searching {
			switch msg.Type {
			case tea.KeyEnter:
				m.search = strings.TrimSpace(m.searchInput.Value())
				m.searching = false
				m.rebuildTree()
				return m, nil
			case tea.KeyEsc:
				m.searching = false
				m.searchInput.Reset()
				if m.search != "" {
					m.search = ""
					m.rebuildTree()
				}
				return m, nil
			}
			var cmd tea.Cmd
			m.searchInput, cmd = m.searchInput.Update(msg)
			return m, cmd
		}

		if m.entering {
			switch msg.Type {
			case tea.KeyEnter:
				m.entering = false
				code := m.barcodeInput.Value()
				m.barcodeInput.Reset()
				m.startLookup(code)
				return m, nil
			case tea.KeyEsc:
				m.entering = false
				m.barcodeInput.Reset()
				return m, nil
			}
			var cmd tea.Cmd
			m.barcodeInput, cmd = m.barcodeInput.Update(msg)
			return m, cmd
		}

		// Root Navigation Mode
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			m.shutdown()
			// Exit alt screen before quitting so the goodbye message displays
			return m, tea.Sequence(tea.ExitAltScreen, tea.Quit)

		case "up", "k":
			if m.columnFocus == focusGuide && m.guideCursor > 0 {
				m.guideCursor--
			}
			if m.columnFocus == focusHistory && m.historyCursor > 0 {
				m.historyCursor--
			}

		case "down", "j":
			if m.columnFocus == focusGuide && m.guideCursor < len(m.rows)-1 {
				m.guideCursor++
			}
			if m.columnFocus == focusHistory && m.historyCursor < len(m.history)-1 {
				m.historyCursor++
			}

		case "right", "l":
			m.columnFocus = focusHistory

		case "left", "h":
			m.columnFocus = focusGuide

		case "enter", " ":
			if m.columnFocus == focusGuide && m.guideCursor < len(m.rows) {
				m.rows[m.guideCursor].Node.Toggle()
				m.refreshRows()
				return m, nil
			}
			if m.columnFocus == focusHistory && m.historyCursor < len(m.history) {
				m.startLookup(m.history[m.historyCursor].Code)
				return m, nil
			}

		case "e":
			m.tree.ExpandAll()
			m.refreshRows()

		case "/":
			m.searchInput.SetValue(m.search)
			m.searchInput.Focus()
			m.searching = true
			m.columnFocus = focusGuide

		case "b":
			m.barcodeInput.Focus()
			m.entering = true

		case "w":
			return m, addGlass(m.app)
		}
		return m, nil

	case time.Time:
		// Update marquee animation every x ticks (adjust for speed)
		m.marqueeTimer++
		if m.marqueeTimer >= 10 {
			m.marqueeTimer = 0
			m.marqueeOffset++
		}
		return m, tea.Tick(marqueeTickDuration, func(t time.Time) tea.Msg {
			return t
		})
	}

	return m, nil
}

// Assembles the UI string for each frame
func (m model) View() string {
	if m.quitting {
		return "Closing the pantry... Eat well.\n"
	}
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n", m.err)
	}

	titleBar := titleStyle.Width(m.width).Render("NutriScan - food guide and product lookup")

	leftWidth, middleWidth, rightWidth := m.columnWidths()
	quarterHeight := (m.height - bordersAndPadding) / 4
	m.searchInput.Width = leftWidth - bordersAndPadding - 8
	m.barcodeInput.Width = middleWidth - bordersAndPadding - 10

	guidePanel := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, true, true, false).
		BorderForeground(lipgloss.Color(colorGray)).
		Padding(0, 2).
		Width(leftWidth).Height(quarterHeight * 3).
		Render(m.renderGuide(leftWidth - bordersAndPadding))

	infoPanel := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, true, false, false).
		BorderForeground(lipgloss.Color(colorGray)).
		Padding(1, 2).
		Width(leftWidth).Height(quarterHeight).
		Render(m.renderToday())

	leftPanel := lipgloss.JoinVertical(lipgloss.Left, guidePanel, infoPanel)

	panelHeightPadding := 3
	middlePanel := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), false, true, false, false).
		BorderForeground(lipgloss.Color(colorGray)).
		Padding(0, 2).
		Width(middleWidth).Height(m.height - panelHeightPadding).
		Render(m.renderHistory(middleWidth - bordersAndPadding))

	rightPanel := lipgloss.NewStyle().Padding(0, 2).
		Width(rightWidth).Height(m.height - panelHeightPadding).
		Render(m.renderDetails(rightWidth - bordersAndPadding))

	columns := lipgloss.JoinHorizontal(lipgloss.Top, leftPanel, middlePanel, rightPanel)

	footerText := "\n↑/↓ navigate • enter expand/look up • / search • e expand all • b barcode • w add glass • q quit"
	footerBar := footerStyle.Width(m.width).Render(footerText)

	return titleBar + "\n\n" + columns + footerBar
}

func (m model) renderGuide(width int) string {
	var b strings.Builder
	b.WriteString(subtitleStyle.Width(width).Render("  Food guide"))
	b.WriteString("\n")
	if m.searching {
		b.WriteString("Search: " + m.searchInput.View() + "\n")
	} else if m.search != "" {
		b.WriteString(labelStyle.Render("Search: ") + m.search + "\n")
	}
	b.WriteString("\n")

	if len(m.rows) == 0 {
		b.WriteString("  No foods match.\n")
		return b.String()
	}

	// Keep the cursor on screen.
	visible := max(1, (m.height-bordersAndPadding)*3/4-4)
	start := 0
	if m.guideCursor >= visible {
		start = m.guideCursor - visible + 1
	}
	end := min(len(m.rows), start+visible)

	for i := start; i < end; i++ {
		row := m.rows[i]
		focused := m.columnFocus == focusGuide && i == m.guideCursor
		pointer := generateLinePointer(focused, 2)
		indent := strings.Repeat("  ", row.Depth)

		marker := "  "
		if row.Node.Kind != guide.KindFood {
			marker = "▸ "
			if row.Node.Expanded() {
				marker = "▾ "
			}
		}

		available := width - len(pointer) - len(indent) - len(marker) - 1
		label := row.Node.Label
		if focused {
			label = m.marqueeText(label, available)
		} else {
			label = truncate(label, available)
		}

		style := inactiveStyle
		switch {
		case focused:
			style = selectedStyle
		case row.Node.Kind == guide.KindTier || row.Node.Kind == guide.KindFood:
			style = tierStyle(row.Node.Tier)
		}
		b.WriteString(pointer + indent + marker + style.Render(label) + "\n")
	}
	return b.String()
}

func (m model) renderToday() string {
	s := m.today
	water := fmt.Sprintf("%d/%d glasses", s.GlassesFilled, s.GlassesTotal)
	waterStatus := 0
	if s.WaterReached {
		waterStatus = 1
	}
	dbStatus := 0
	if m.dbFilename != "" {
		dbStatus = 1
	}
	return fmt.Sprintf("%s %.0f/%.0f kcal (%d%%)\n%s %s\n%s %s\n",
		labelStyle.Render("Today:"), s.Calories.Value, s.Calories.Goal, s.Calories.Percent,
		labelStyle.Render("Water:"), TextStatusColorize(water, waterStatus),
		labelStyle.Render("Database:"), TextStatusColorize(m.dbFilename, dbStatus))
}

func (m model) renderHistory(width int) string {
	var b strings.Builder
	b.WriteString(subtitleStyle.Width(width).Render("  Scanned products"))
	b.WriteString("\n")
	if m.entering {
		b.WriteString("Barcode: " + m.barcodeInput.View() + "\n")
	}
	b.WriteString("\n")

	if len(m.history) == 0 {
		b.WriteString("  Nothing scanned yet. Press 'b' to enter a barcode.\n")
		return b.String()
	}
	for i, e := range m.history {
		focused := m.columnFocus == focusHistory && i == m.historyCursor
		pointer := generateLinePointer(focused, 2)
		style := inactiveStyle
		if focused {
			style = selectedStyle
		}
		name := e.DisplayName
		if name == "" {
			name = e.Code
		}
		b.WriteString(pointer + style.Render(truncate(name, width-len(pointer)-1)) + "\n")
	}
	return b.String()
}

func (m model) renderDetails(width int) string {
	var b strings.Builder
	if m.columnFocus == focusGuide {
		b.WriteString(subtitleStyle.Width(width).Render("Food"))
		b.WriteString("\n\n")
		if m.guideCursor >= len(m.rows) || m.rows[m.guideCursor].Node.Food == nil {
			b.WriteString("Select a food to view details.")
			return b.String()
		}
		f := m.rows[m.guideCursor].Node.Food
		b.WriteString(lipgloss.NewStyle().Bold(true).Render(f.Name) + "  " +
			tierStyle(f.Tier).Render("Tier "+string(f.Tier)) + "\n\n")
		b.WriteString(labelStyle.Render("Why: ") + inactiveStyle.Width(width).Render(f.Info) + "\n")
		if f.Cons != "" {
			b.WriteString("\n" + labelStyle.Render("Watch out: ") + inactiveStyle.Width(width).Render(f.Cons) + "\n")
		}
		if f.Custom {
			b.WriteString("\n" + TextStatusColorize("added by you", 1) + "\n")
		}
		return b.String()
	}

	b.WriteString(subtitleStyle.Width(width).Render("Product"))
	b.WriteString("\n\n")
	switch {
	case m.loading:
		b.WriteString("Looking up " + m.lookupCode + "...")
	case m.lookupErr != nil:
		if errors.Is(m.lookupErr, products.ErrProductNotFound) {
			b.WriteString(errorStyle.Render("Product " + m.lookupCode + " not found.") + "\n\n")
			b.WriteString(inactiveStyle.Width(width).Render("To add it, " + products.CreateHint + "."))
		} else {
			b.WriteString(errorStyle.Render(m.lookupErr.Error()))
		}
	case m.product != nil:
		b.WriteString(renderProduct(*m.product, width))
	default:
		b.WriteString("Select a product and press enter, or press 'b' to enter a barcode.")
	}
	return b.String()
}

func renderProduct(p products.ProductRecord, width int) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(p.Name()) + "\n")
	if p.Brand != "" {
		b.WriteString(labelStyle.Render("Brand: ") + p.Brand + "\n")
	}
	if p.Quantity != "" {
		b.WriteString(labelStyle.Render("Quantity: ") + p.Quantity + "\n")
	}
	b.WriteString("\n")

	score := products.ExpertScore(p)
	band := products.ScoreBand(score)
	b.WriteString(labelStyle.Render("Expert score: ") + bandStyle(band).Render(fmt.Sprintf("%.1f/10 (%s)", score, band)) + "\n")
	nova := "?"
	if p.Nova.Known() {
		nova = fmt.Sprint(int(p.Nova))
	}
	b.WriteString(labelStyle.Render("Nutri-Score: ") + p.NutriScore.String() +
		labelStyle.Render("  NOVA: ") + nova +
		labelStyle.Render("  Eco-Score: ") + p.EcoScore.String() + "\n\n")

	if len(p.Allergens) > 0 {
		labels := make([]string, len(p.Allergens))
		for i, a := range p.Allergens {
			labels[i] = products.TagLabel(a)
		}
		b.WriteString(labelStyle.Render("Allergens: ") + errorStyle.Render(strings.Join(labels, ", ")) + "\n\n")
	}
	if p.Ingredients != "" {
		b.WriteString(labelStyle.Render("Ingredients: ") + inactiveStyle.Width(width).Render(p.Ingredients) + "\n")
	}
	return b.String()
}

// ShowTUI starts the interactive browser.
func ShowTUI(a *app.App) error {
	p := tea.NewProgram(initModel(a), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
