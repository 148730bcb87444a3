package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/pyboot/pkg/observability"
	"github.com/matzehuels/pyboot/pkg/resolver"
)

var (
	tuiCurrentStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	tuiNameStyle    = lipgloss.NewStyle().Foreground(colorGreen)
	tuiDimStyle     = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// Messages
// =============================================================================

type packageStartMsg struct{ name string }

type packageResolvedMsg struct {
	name    string
	version string
	took    time.Duration
}

type resolveDoneMsg struct {
	count int
	took  time.Duration
	err   error
}

type tickMsg struct{}

// =============================================================================
// ResolveModel - Live resolution progress
// =============================================================================

type resolvedRow struct {
	name    string
	version string
	took    time.Duration
}

// ResolveModel is the bubbletea model for the --tui resolution view.
type ResolveModel struct {
	Roots    []string
	Current  string
	Resolved []resolvedRow
	Height   int
	Done     bool
	Aborted  bool
	Err      error
	Took     time.Duration
	frame    int
}

// NewResolveModel creates a model for a run over roots.
func NewResolveModel(roots []string) ResolveModel {
	return ResolveModel{Roots: roots, Height: 12}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(time.Time) tea.Msg { return tickMsg{} })
}

func (m ResolveModel) Init() tea.Cmd {
	return tick()
}

func (m ResolveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Aborted = true
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 3 {
			m.Height = 3
		}
	case tickMsg:
		if m.Done {
			return m, nil
		}
		m.frame++
		return m, tick()
	case packageStartMsg:
		m.Current = msg.name
	case packageResolvedMsg:
		m.Resolved = append(m.Resolved, resolvedRow{name: msg.name, version: msg.version, took: msg.took})
		if m.Current == msg.name {
			m.Current = ""
		}
	case resolveDoneMsg:
		if m.Done {
			return m, nil
		}
		m.Done = true
		m.Current = ""
		m.Err = msg.err
		m.Took = msg.took
		return m, tea.Quit
	}
	return m, nil
}

func (m ResolveModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Resolving " + strings.Join(m.Roots, ", ")))
	b.WriteString("\n")
	b.WriteString(tuiDimStyle.Render("q quit"))
	b.WriteString("\n\n")

	start := 0
	if len(m.Resolved) > m.Height {
		start = len(m.Resolved) - m.Height
		b.WriteString(tuiDimStyle.Render(fmt.Sprintf("  … %d more", start)))
		b.WriteString("\n")
	}
	for _, r := range m.Resolved[start:] {
		fmt.Fprintf(&b, "  %s %s %s %s\n",
			styleIconSuccess.Render(iconSuccess),
			tuiNameStyle.Render(r.name),
			StyleValue.Render(r.version),
			tuiDimStyle.Render(r.took.Round(time.Millisecond).String()))
	}

	switch {
	case m.Err != nil:
		b.WriteString("\n" + styleIconError.Render(iconError) + " " + m.Err.Error() + "\n")
	case m.Done:
		fmt.Fprintf(&b, "\n%s %d packages (%s)\n", styleIconSuccess.Render(iconSuccess), len(m.Resolved), m.Took.Round(time.Millisecond))
	case m.Current != "":
		frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
		fmt.Fprintf(&b, "  %s %s\n", styleIconSpinner.Render(frames[m.frame%len(frames)]), tuiCurrentStyle.Render(m.Current))
	}
	return b.String()
}

// =============================================================================
// Hooks
// =============================================================================

// hookSink turns resolver events into messages for send.
type hookSink struct {
	observability.NoopResolveHooks
	send func(tea.Msg)
}

func (h *hookSink) OnPackageStart(_ context.Context, name string) {
	h.send(packageStartMsg{name: name})
}

func (h *hookSink) OnPackageResolved(_ context.Context, name, version, _ string, d time.Duration) {
	h.send(packageResolvedMsg{name: name, version: version, took: d})
}

func (h *hookSink) OnResolveComplete(_ context.Context, count int, d time.Duration, err error) {
	h.send(resolveDoneMsg{count: count, took: d, err: err})
}

// spinnerHooks shows the package being resolved on a Spinner.
type spinnerHooks struct {
	observability.NoopResolveHooks
	spinner *Spinner
}

func (h *spinnerHooks) OnPackageStart(_ context.Context, name string) {
	h.spinner.SetMessage("Resolving " + name)
}

// withResolveHooks installs hooks for the duration of fn.
func withResolveHooks(hooks observability.ResolveHooks, fn func()) {
	prev := observability.Resolve()
	observability.SetResolveHooks(hooks)
	defer observability.SetResolveHooks(prev)
	fn()
}

// runResolveTUI runs build under the live view. Quitting the view cancels
// the run.
func runResolveTUI(ctx context.Context, w io.Writer, roots []string, build func(context.Context) (*resolver.Plan, error)) (*resolver.Plan, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewResolveModel(roots), tea.WithContext(ctx), tea.WithOutput(w))

	var (
		plan     *resolver.Plan
		buildErr error
		finished = make(chan struct{})
	)
	withResolveHooks(&hookSink{send: p.Send}, func() {
		go func() {
			defer close(finished)
			plan, buildErr = build(ctx)
			p.Send(resolveDoneMsg{err: buildErr})
		}()

		final, err := p.Run()
		if m, ok := final.(ResolveModel); ok && m.Aborted {
			cancel()
		}
		<-finished
		if err != nil && buildErr == nil && ctx.Err() == nil {
			buildErr = err
		}
	})
	if buildErr == nil && ctx.Err() != nil {
		return nil, context.Canceled
	}
	return plan, buildErr
}
