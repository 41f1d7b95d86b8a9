package chat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/adamavenir/tangent/internal/anchor"
	"github.com/adamavenir/tangent/internal/notify"
	"github.com/adamavenir/tangent/internal/session"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"
)

// Options configure chat.
type Options struct {
	Session *session.Session
	// ThreadID is opened on start; empty starts on the home screen.
	ThreadID string
	Notify   bool
	Logger   *slog.Logger
}

// Run starts the chat UI.
func Run(opts Options) error {
	model := NewModel(opts)
	fmt.Print("\033]0;tangent\007")

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := program.Run()
	model.Close()
	return err
}

// Model implements the chat UI.
type Model struct {
	session *session.Session
	logger  *slog.Logger
	notify  bool

	ctx    context.Context
	cancel context.CancelFunc
	sub    *notify.Subscription

	viewport    viewport.Model
	input       textarea.Model
	spinner     spinner.Model
	zoneManager *zone.Manager

	width  int
	height int
	status string

	sidebarFocus bool
	rootIndex    int

	// segments maps rendered zone ids to the message run they cover.
	segments map[string]anchor.Segment
	// indicators lists the branch ids of the thread on screen, numbered
	// for /rmbranch.
	indicators []branchIndicator
	forkPoints map[string]int

	menu    []anchor.Anchor
	confirm *confirmPrompt

	startThread   string
	draftKey      string
	pendingScroll bool
}

type branchIndicator struct {
	ThreadID string
	ParentID string
	Title    string
	Fork     bool
}

// confirmPrompt is an open y/N question. run is called with the answer
// already given.
type confirmPrompt struct {
	prompt string
	run    func() tea.Cmd
}

// NewModel creates a chat model over an open session.
func NewModel(opts Options) *Model {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ctx, cancel := context.WithCancel(context.Background())

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	m := &Model{
		session:     opts.Session,
		logger:      logger.With("component", "chat"),
		notify:      opts.Notify,
		ctx:         ctx,
		cancel:      cancel,
		viewport:    viewport.New(0, 0),
		input:       newInputModel(),
		spinner:     sp,
		zoneManager: zone.New(),
		segments:    make(map[string]anchor.Segment),
		forkPoints:  make(map[string]int),
		startThread: opts.ThreadID,
	}
	m.sub = opts.Session.Bus().Subscribe()
	opts.Session.LoadCachedRoots()
	return m
}

func (m *Model) Init() tea.Cmd {
	go m.session.Watch(m.ctx)
	cmds := []tea.Cmd{
		textarea.Blink,
		m.spinner.Tick,
		m.waitForEvent(),
		m.loadRootsCmd(),
	}
	if m.startThread != "" {
		cmds = append(cmds, m.openThreadCmd(m.startThread))
	}
	return tea.Batch(cmds...)
}

// Close stops background work started by the model.
func (m *Model) Close() {
	m.saveDraft()
	m.cancel()
	m.sub.Unsubscribe()
}

func (m *Model) waitForEvent() tea.Cmd {
	events := m.sub.Events()
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return eventMsg{event: ev}
	}
}

func (m *Model) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(m.ctx, 30*time.Second)
}
