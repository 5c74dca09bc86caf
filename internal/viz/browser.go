package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/san-kum/decayprep/internal/limits"
)

// Feature is one column of a preprocessing run.
type Feature struct {
	Name      string
	Variant   string
	Bound     limits.Bound
	Raw       []float64
	Processed []float64
}

type pane int

const (
	paneBoth pane = iota
	paneRaw
	paneProcessed
)

// Browser is a Bubble Tea model over a set of features.
type Browser struct {
	features      []Feature
	cursor        int
	pane          pane
	bins          int
	width, height int
}

// NewBrowser returns a browser positioned on the first feature.
func NewBrowser(features []Feature, bins int) Browser {
	if bins <= 0 {
		bins = 30
	}
	return Browser{features: features, bins: bins, width: 100, height: 30}
}

// Cursor is the index of the selected feature.
func (b Browser) Cursor() int { return b.cursor }

func (b Browser) Init() tea.Cmd { return nil }

func (b Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return b, tea.Quit
		case "up", "k":
			if b.cursor > 0 {
				b.cursor--
			}
		case "down", "j":
			if b.cursor < len(b.features)-1 {
				b.cursor++
			}
		case "tab":
			b.pane = (b.pane + 1) % 3
		}
	case tea.WindowSizeMsg:
		b.width, b.height = msg.Width, msg.Height
	}
	return b, nil
}

func (b Browser) View() string {
	if len(b.features) == 0 {
		return Subtle.Render("no features") + "\n"
	}
	list := b.viewList()
	detail := b.viewDetail(b.features[b.cursor])
	hints := KeyHint.Render("j/k select  tab toggle charts  q quit")
	return lipgloss.JoinHorizontal(lipgloss.Top, list, detail) + "\n" + hints + "\n"
}

func (b Browser) viewList() string {
	var s strings.Builder
	s.WriteString(Title.Render("FEATURES") + "\n")
	// Keep the cursor visible when the list is taller than the window.
	rows := b.height - 6
	if rows < 5 {
		rows = 5
	}
	start := 0
	if b.cursor >= rows {
		start = b.cursor - rows + 1
	}
	for i := start; i < len(b.features) && i < start+rows; i++ {
		f := b.features[i]
		name := fmt.Sprintf("%-14s", f.Name)
		if i == b.cursor {
			s.WriteString(Selected.Render("▸ "+name) + Subtle.Render(f.Variant) + "\n")
		} else {
			s.WriteString(Label.Render("  "+name) + Subtle.Render(f.Variant) + "\n")
		}
	}
	return Panel.Render(s.String())
}

func (b Browser) viewDetail(f Feature) string {
	var s strings.Builder
	s.WriteString(Title.Render(f.Name) + "\n")
	s.WriteString(KV("variant", f.Variant) + "\n")
	s.WriteString(KV("min", fmt.Sprintf("%.6g", f.Bound.Min)) + "\n")
	s.WriteString(KV("max", fmt.Sprintf("%.6g", f.Bound.Max)) + "\n")
	s.WriteString(KV("events", len(f.Raw)) + "\n")
	s.WriteString(Separator(40) + "\n")

	if b.pane != paneProcessed {
		s.WriteString(b.chart(f.Raw, "raw") + "\n")
	}
	if b.pane != paneRaw {
		s.WriteString(b.chart(f.Processed, "preprocessed") + "\n")
	}
	return Panel.Render(s.String())
}

func (b Browser) chart(values []float64, caption string) string {
	out, err := PlotColumn(values, b.bins, caption)
	if err != nil {
		return Subtle.Render(caption + ": " + err.Error())
	}
	return out
}

// Browse runs the browser full screen until the user quits.
func Browse(features []Feature, bins int) error {
	_, err := tea.NewProgram(NewBrowser(features, bins), tea.WithAltScreen()).Run()
	return err
}
