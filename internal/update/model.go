package update

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/sandeepkv93/tracker/internal/scheduler"
	"github.com/sandeepkv93/tracker/internal/store"
	"github.com/sandeepkv93/tracker/internal/tracker"
)

type View string

const (
	ViewIssues View = "Issues"
	ViewAwards View = "Awards"
)

type Pane string

const (
	PaneSidebar Pane = "sidebar"
	PaneIssues  Pane = "issues"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type GlobalKeyMap struct {
	Issues   string
	Awards   string
	Palette  string
	Search   string
	NewIssue string
	NewTag   string
	Toggle   string
	Delete   string
	Sort     string
	Help     string
	Quit     string
}

func DefaultKeyMap() GlobalKeyMap {
	return GlobalKeyMap{
		Issues:   "1",
		Awards:   "2",
		Palette:  ":",
		Search:   "/",
		NewIssue: "n",
		NewTag:   "N",
		Toggle:   "x",
		Delete:   "d",
		Sort:     "s",
		Help:     "?",
		Quit:     "q",
	}
}

type CommandPaletteState struct {
	Active bool
	Input  string
}

type SearchState struct {
	Active bool
}

type Model struct {
	ctrl *tracker.Controller

	CurrentView   View
	Focus         Pane
	SidebarCursor int
	IssueCursor   int
	Scheduler     *scheduler.Engine
	ReminderLog   []scheduler.ReminderEvent
	Palette       CommandPaletteState
	Search        SearchState
	HelpVisible   bool
	Notifications []Notification
	// DesktopEnabled forwards reminder notifications to the OS.
	DesktopEnabled bool
	notifier       DesktopNotifier
	Status         StatusBar
	Keys           GlobalKeyMap
	Quitting       bool
	LastError      error

	changes     <-chan store.Change
	unsubscribe func()

	commandInput textinput.Model
	searchInput  textinput.Model
	helpModel    help.Model
	detail       viewport.Model
}

type Notification struct {
	Title string
	Body  string
	Level string
	At    time.Time
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

type ReminderDueMsg struct {
	Event scheduler.ReminderEvent
}

// StoreChangedMsg is delivered whenever the store publishes a change.
type StoreChangedMsg struct {
	Change store.Change
}

const changeBuffer = 16

func NewModel(ctrl *tracker.Controller) Model {
	return NewModelWithRuntime(ctrl, nil, false, NoopDesktopNotifier{})
}

func NewModelWithRuntime(ctrl *tracker.Controller, engine *scheduler.Engine, desktopEnabled bool, notifier DesktopNotifier) Model {
	if notifier == nil {
		notifier = NoopDesktopNotifier{}
	}
	m := Model{
		ctrl:           ctrl,
		CurrentView:    ViewIssues,
		Focus:          PaneIssues,
		Scheduler:      engine,
		DesktopEnabled: desktopEnabled,
		notifier:       notifier,
		Status:         StatusBar{Text: "ready"},
		Keys:           DefaultKeyMap(),
	}

	ch := make(chan store.Change, changeBuffer)
	m.changes = ch
	m.unsubscribe = ctrl.Store().Subscribe(func(c store.Change) {
		select {
		case ch <- c:
		default:
		}
	})

	m.initBubbleComponents()
	m.syncBubbleData()
	return m
}

func (m *Model) initBubbleComponents() {
	m.commandInput = textinput.New()
	m.commandInput.Prompt = ":"
	m.commandInput.Placeholder = "add Fix login"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 56

	m.searchInput = textinput.New()
	m.searchInput.Prompt = "/"
	m.searchInput.Placeholder = "text or #tag"
	m.searchInput.CharLimit = 128
	m.searchInput.Width = 56

	m.helpModel = help.New()
	m.helpModel.ShowAll = true

	m.detail = viewport.New(56, 16)
}

// Controller exposes the tracker driven by this model.
func (m Model) Controller() *tracker.Controller { return m.ctrl }
