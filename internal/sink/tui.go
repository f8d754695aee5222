package sink

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/wordwrap"

	"telemachus-dash/internal/status"
	"telemachus-dash/internal/view"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// Muter toggles the audio mute preference.
type Muter interface {
	ToggleMute() bool
	Muted() bool
}

type stateMsg struct{ view.State }

type overlayMsg struct{ status.Overlay }

type hideOverlayMsg struct{}

type audioMsg struct {
	ch     status.Channel
	action Action
}

type tickMsg time.Time

const (
	maxEvents  = 500
	labelWidth = 16
	maxBar     = 48
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	labelStyle   = lipgloss.NewStyle().Width(labelWidth).Foreground(lipgloss.Color("7"))
	valueStyle   = lipgloss.NewStyle().Bold(true)
	staleStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	alertStyle   = lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).BorderForeground(lipgloss.Color("9")).Padding(0, 2)
	alertTitle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	dividerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// TUI renders the dashboard in the terminal using bubbletea.
type TUI struct {
	program teaProgram
	done    chan struct{}
}

// NewTUI starts a bubbletea program showing initial until the first frame
// arrives. muter may be nil, in which case the mute key does nothing.
func NewTUI(title string, initial view.State, muter Muter, opts ...tea.ProgramOption) *TUI {
	m := newTUIModel(title, initial, muter)
	p := tea.NewProgram(m, append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)...)
	w := &TUI{program: p, done: make(chan struct{})}
	go func() {
		_, _ = p.Run()
		close(w.done)
	}()
	return w
}

// Done is closed when the user quits the TUI.
func (w *TUI) Done() <-chan struct{} { return w.done }

// Close shuts down the TUI program and waits for cleanup.
func (w *TUI) Close() error {
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

func (w *TUI) OnViewStateChanged(st view.State) { w.program.Send(stateMsg{st}) }
func (w *TUI) OnOverlay(o status.Overlay)      { w.program.Send(overlayMsg{o}) }
func (w *TUI) OnOverlayHidden()                { w.program.Send(hideOverlayMsg{}) }

func (w *TUI) OnAudioChannel(ch status.Channel, action Action) {
	w.program.Send(audioMsg{ch: ch, action: action})
}

type tuiModel struct {
	title    string
	state    view.State
	overlay  *status.Overlay
	blinkOn  bool
	channels map[status.Channel]struct{}
	muter    Muter
	muted    bool
	now      time.Time
	bar      progress.Model
	vp       viewport.Model
	events   []string
	width    int
	height   int
}

func newTUIModel(title string, initial view.State, muter Muter) tuiModel {
	m := tuiModel{
		title:    title,
		state:    initial,
		blinkOn:  true,
		channels: make(map[status.Channel]struct{}),
		muter:    muter,
		now:      time.Now(),
		bar:      progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage(), progress.WithWidth(maxBar)),
		vp:       viewport.New(0, 0),
	}
	if muter != nil {
		m.muted = muter.Muted()
	}
	return m
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m tuiModel) Init() tea.Cmd { return tick() }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.bar.Width = min(maxBar, max(msg.Width-labelWidth-8, 10))
		m.vp.Width = msg.Width
		m.resize()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "m":
			if m.muter != nil {
				m.muted = m.muter.ToggleMute()
				m.logEvent(fmt.Sprintf("muted=%t", m.muted))
			}
			return m, nil
		}
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd
	case tickMsg:
		m.now = time.Time(msg)
		m.blinkOn = !m.blinkOn
		return m, tick()
	case stateMsg:
		m.state = msg.State
	case overlayMsg:
		o := msg.Overlay
		m.overlay = &o
		m.blinkOn = true
		m.logEvent("alert " + o.Title)
		m.resize()
	case hideOverlayMsg:
		if m.overlay != nil {
			m.logEvent("alert cleared")
		}
		m.overlay = nil
		m.resize()
	case audioMsg:
		if msg.action == Play {
			m.channels[msg.ch] = struct{}{}
		} else {
			delete(m.channels, msg.ch)
		}
		m.logEvent(fmt.Sprintf("audio %s %s", msg.action, msg.ch))
	}
	return m, nil
}

func (m *tuiModel) logEvent(line string) {
	m.events = append(m.events, m.now.Format(time.TimeOnly)+" "+line)
	if len(m.events) > maxEvents {
		m.events = m.events[len(m.events)-maxEvents:]
	}
	m.vp.SetContent(strings.Join(m.events, "\n"))
	m.vp.GotoBottom()
}

func (m *tuiModel) resize() {
	h := m.height - lipgloss.Height(m.renderTop()) - lipgloss.Height(m.renderFooter()) - 2
	m.vp.Height = max(h, 0)
	m.vp.GotoBottom()
}

func (m tuiModel) View() string {
	divider := dividerStyle.Render(strings.Repeat("─", max(m.width, 1)))
	return strings.Join([]string{m.renderTop(), divider, m.vp.View(), divider, m.renderFooter()}, "\n")
}

func (m tuiModel) renderTop() string {
	clock := m.now.Format(time.TimeOnly)
	header := titleStyle.Render(m.title) + "  " + clock
	if m.muted {
		header += "  " + staleStyle.Render("[muted]")
	}

	value := valueStyle
	if m.state.Stale() {
		value = staleStyle
	}
	body := m.state.BodyName
	if !m.state.BodyKnown {
		body = "?"
	}
	lines := []string{
		header,
		"",
		labelStyle.Render("MISSION TIME") + value.Render("T+"+m.state.MissionClock),
		labelStyle.Render("BODY") + value.Render(body),
	}
	for _, id := range m.state.ResourceOrder {
		g := m.state.Resources[id]
		label := g.Label
		if label == "" {
			label = g.Name
		}
		lines = append(lines, labelStyle.Render(strings.ToUpper(label))+m.bar.ViewAs(float64(g.Percent)/100)+" "+value.Render(FormatPercent(g)))
	}
	statusLine := labelStyle.Render("STATUS") + value.Render(m.state.GameStatus.String())
	if m.state.Stale() {
		statusLine += " " + staleStyle.Render("(stale)")
	}
	lines = append(lines, statusLine)
	if m.overlay != nil {
		lines = append(lines, "", m.renderOverlay())
	}
	return strings.Join(lines, "\n")
}

func (m tuiModel) renderOverlay() string {
	o := m.overlay
	title := alertTitle.Render(o.Title)
	if o.Blinking && !m.blinkOn {
		title = strings.Repeat(" ", lipgloss.Width(o.Title))
	}
	sub := o.Subtitle
	if m.width > 8 {
		sub = wordwrap.String(sub, m.width-8)
	}
	parts := []string{title, sub}
	if o.HelpURL != "" {
		parts = append(parts, staleStyle.Render(o.HelpURL))
	}
	return alertStyle.Render(strings.Join(parts, "\n"))
}

func (m tuiModel) renderFooter() string {
	last := "never"
	if !m.state.LastFrameAt.IsZero() {
		last = humanize.Time(m.state.LastFrameAt)
	}
	footer := fmt.Sprintf("frames %s · last frame %s · decode errors %s",
		humanize.Comma(int64(m.state.Frames)), last, humanize.Comma(int64(m.state.DecodeErrors)))
	if len(m.channels) > 0 {
		footer += fmt.Sprintf(" · alerts %d", len(m.channels))
	}
	return staleStyle.Render(footer + " · [m] mute  [q] quit")
}
