package app

import (
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"go.uber.org/zap"

	"github.com/abhisek/studyplan/internal/router"
	"github.com/abhisek/studyplan/internal/screen"
	"github.com/abhisek/studyplan/internal/screens/actions"
	"github.com/abhisek/studyplan/internal/screens/help"
	"github.com/abhisek/studyplan/internal/screens/home"
	"github.com/abhisek/studyplan/internal/screens/syncscreen"
	"github.com/abhisek/studyplan/internal/screens/users"
	"github.com/abhisek/studyplan/internal/screens/welcome"
	"github.com/abhisek/studyplan/internal/tracker"
	"github.com/abhisek/studyplan/internal/ui/layout"
	"github.com/abhisek/studyplan/internal/ui/theme"
)

const (
	// statusInterval is how often the header re-reads the sync status,
	// which changes from the debounce timer's goroutine.
	statusInterval = time.Second

	noticeTTL = 4 * time.Second
)

// Options configures the TUI.
type Options struct {
	Tracker   *tracker.Tracker
	ExportDir string
	Logger    *zap.Logger

	// SkipSplash starts directly on the dashboard or picker.
	SkipSplash bool
}

type statusTickMsg time.Time

type clearNoticeMsg struct{ id int }

// AppModel is the root Bubble Tea model.
type AppModel struct {
	opts   Options
	log    *zap.Logger
	router *router.Router
	width  int
	height int

	notice   actions.NoticeMsg
	noticeID int
}

// newAppModel starts on the splash, then the dashboard when a learner is
// already active or the picker otherwise.
func newAppModel(opts Options) AppModel {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	m := AppModel{opts: opts, log: log}

	first := m.startScreen
	if opts.SkipSplash {
		m.router = router.New(first())
		return m
	}
	tagline := ""
	if ws, err := opts.Tracker.Active(); err == nil {
		tagline = "Welcome back, " + ws.User.DisplayName
	}
	m.router = router.New(welcome.New(tagline, first))
	return m
}

func (m AppModel) homeDeps() home.Deps {
	return home.Deps{Tracker: m.opts.Tracker, ExportDir: m.opts.ExportDir}
}

func (m AppModel) startScreen() screen.Screen {
	deps := m.homeDeps()
	dashboard := func() screen.Screen { return home.New(deps) }
	if _, err := m.opts.Tracker.Active(); err == nil {
		return dashboard()
	}
	return users.New(m.opts.Tracker, dashboard)
}

func statusTick() tea.Cmd {
	return tea.Tick(statusInterval, func(t time.Time) tea.Msg { return statusTickMsg(t) })
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.router.Active().Init(), statusTick())
}

func (m AppModel) capturing() bool {
	c, ok := m.router.Active().(screen.InputCapturer)
	return ok && c.CapturingInput()
}

func (m AppModel) hasUser() bool {
	_, err := m.opts.Tracker.Active()
	return err == nil
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case statusTickMsg:
		return m, statusTick()

	case actions.NoticeMsg:
		return m.showNotice(msg)

	case clearNoticeMsg:
		if msg.id == m.noticeID {
			m.notice = actions.NoticeMsg{}
		}
		return m, nil

	case actions.SyncDoneMsg:
		if msg.Err != nil {
			m.log.Warn("sync operation failed", zap.String("op", msg.Op), zap.Error(msg.Err))
		}
		if rf, ok := m.router.Active().(screen.Refresher); ok {
			rf.Refresh()
		}
		cmd := m.router.Update(msg)
		var noticeCmd tea.Cmd
		m, noticeCmd = m.showNotice(msg.Describe())
		return m, tea.Batch(cmd, noticeCmd)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.capturing() {
			break
		}
		switch msg.String() {
		case "q":
			return m, tea.Quit
		case "esc":
			if m.router.Depth() > 1 {
				return m, router.Pop()
			}
			return m, nil
		case "?":
			if _, ok := m.router.Active().(*help.HelpScreen); !ok && m.hasUser() {
				return m, router.Push(help.New(m.opts.Tracker.AllowManualToggle()))
			}
		case "s":
			if !m.hasUser() {
				break
			}
			// Sync now when a remote is connected; otherwise open the settings.
			if ws, err := m.opts.Tracker.Active(); err == nil && ws.Sync.Configured() {
				return m, actions.Sync(m.opts.Tracker, "push", "")
			}
			if _, ok := m.router.Active().(*syncscreen.SyncScreen); !ok {
				return m, router.Push(syncscreen.New(m.opts.Tracker))
			}
		case "e":
			if m.hasUser() {
				return m, actions.Export(m.opts.Tracker, m.opts.ExportDir)
			}
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) showNotice(n actions.NoticeMsg) (AppModel, tea.Cmd) {
	if n.Err {
		m.log.Info("notice", zap.String("text", n.Text))
	}
	m.noticeID++
	m.notice = n
	id := m.noticeID
	return m, tea.Tick(noticeTTL, func(time.Time) tea.Msg { return clearNoticeMsg{id: id} })
}

func (m AppModel) headerInfo() layout.HeaderInfo {
	ws, err := m.opts.Tracker.Active()
	if err != nil {
		return layout.HeaderInfo{}
	}
	info := layout.HeaderInfo{User: ws.User.DisplayName, Sync: string(ws.Sync.Status())}
	if s, err := m.opts.Tracker.Summary(); err == nil {
		info.Streak = s.Streak
	}
	return info
}

func (m AppModel) footerHints() []layout.KeyHint {
	if p, ok := m.router.Active().(screen.KeyHintProvider); ok {
		return p.KeyHints()
	}
	if m.router.Depth() > 1 {
		return []layout.KeyHint{
			{Key: "Esc", Description: "Back"},
			{Key: "q", Description: "Quit"},
		}
	}
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Select"},
		{Key: "q", Description: "Quit"},
	}
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true
	if m.width == 0 || m.height == 0 {
		return v
	}
	v.SetContent(m.frame())
	return v
}

// frame renders the full screen: header, active screen, notice and footer.
func (m AppModel) frame() string {
	if layout.IsTooSmall(m.width, m.height) {
		return layout.RenderMinSizeMessage(m.width, m.height)
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, m.headerInfo(), m.width)
	footer := layout.RenderFooter(m.footerHints(), m.width)
	if m.notice.Text != "" {
		style := lipgloss.NewStyle().Foreground(theme.Success)
		if m.notice.Err {
			style = lipgloss.NewStyle().Foreground(theme.Error)
		}
		footer = lipgloss.NewStyle().Width(m.width).Render("  "+style.Render(m.notice.Text)) + "\n" + footer
	}

	contentHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	content := m.router.View(m.width, contentHeight)
	return layout.RenderFrame(header, content, footer, m.width, m.height)
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	p := tea.NewProgram(newAppModel(opts))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
