package tui

import (
	"log"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rgoulter/smart-keymap-go/hidreport"
	"github.com/rgoulter/smart-keymap-go/input"
	"github.com/rgoulter/smart-keymap-go/internal/chime"
	"github.com/rgoulter/smart-keymap-go/keymap"
)

const maxLogLines = 200

// tickInterval drives the simulator's own wall-clock tick independent of
// the keymap's ms_per_tick; each wall-clock tick advances the keymap by
// one logical tick.
const tickInterval = time.Millisecond

// DebugEntry is a single structured log line shown in the debug panel.
type DebugEntry struct {
	Time     string
	Category string
	Message  string
}

// Messages sent through the Bubble Tea update loop.

// TickMsg requests the model advance the keymap by one tick.
type TickMsg struct{}

// InputMsg delivers an external input event (from a trace file or the
// evdev bridge) to be registered with the keymap before the next tick.
type InputMsg struct {
	Event input.Event
}

// DebugLogMsg carries a parsed log line into the debug panel.
type DebugLogMsg struct {
	Entry DebugEntry
}

// Model is the Bubble Tea model for the keymap host simulator.
type Model struct {
	km     *keymap.Keymap
	chime  *chime.Player
	logger *log.Logger
	debug  bool

	layerNames []string

	width, height int

	lastTick      uint32
	report        hidreport.Report
	pressedKeys   []string
	activeLayers  []int
	pendingCount  int
	rollover      bool
	wasCapsWordOn bool

	logEntries []DebugEntry
	themeName  string
}

// NewModel creates a Model driving km, with layerNames labeling each
// configured layer index for display (layerNames[i] labels layer i).
// chimePlayer may be nil, in which case no audio feedback is played.
func NewModel(km *keymap.Keymap, layerNames []string, chimePlayer *chime.Player, logger *log.Logger, debug bool) Model {
	return Model{
		km:         km,
		chime:      chimePlayer,
		layerNames: layerNames,
		logger:     logger,
		debug:      debug,
		themeName:  "synthwave",
	}
}

func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(time.Time) tea.Msg {
		return TickMsg{}
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "t":
			applyTheme(NextTheme(m.themeName))
			m.themeName = nextThemeName(m.themeName)
			return m, nil
		case "d":
			m.debug = !m.debug
			return m, nil
		}
		return m, nil

	case InputMsg:
		m.km.RegisterInput(msg.Event)
		return m, nil

	case TickMsg:
		report := m.km.Tick()
		m.applyReport(report)
		m.playCapsWordChime()
		return m, tickCmd()

	case DebugLogMsg:
		m.logEntries = append(m.logEntries, msg.Entry)
		if len(m.logEntries) > maxLogLines {
			m.logEntries = m.logEntries[len(m.logEntries)-maxLogLines:]
		}
		return m, nil
	}

	return m, nil
}

// applyReport updates the model's display fields from a freshly ticked
// report and the keymap's debug string (pressed-key count etc).
func (m *Model) applyReport(report hidreport.Report) {
	m.report = report
	m.pressedKeys = keyboardReportNames(report)
	m.rollover = report.Keyboard[2] == 0x01

	summary := m.km.String()
	m.lastTick = parseTickFromSummary(summary)
	m.pendingCount = parsePendingFromSummary(summary)

	m.activeLayers = m.activeLayers[:0]
	for i, active := range m.km.Context.Layered.ActiveLayers {
		if active {
			m.activeLayers = append(m.activeLayers, i)
		}
	}
}

// playCapsWordChime plays the caps-word tone on the false-to-true edge of
// Context.CapsWord.Active. Tap and hold resolutions have no equivalent
// engine-level signal to observe from outside the keymap package, so this
// is the only chime actually triggered from the simulator; see DESIGN.md.
func (m *Model) playCapsWordChime() {
	active := m.km.Context.CapsWord.Active
	if active && !m.wasCapsWordOn && m.chime != nil {
		m.chime.PlayCapsWord()
	}
	m.wasCapsWordOn = active
}

// keyboardReportNames renders the non-zero boot-report key-code slots as
// hex strings for display.
func keyboardReportNames(r hidreport.Report) []string {
	var names []string
	for _, code := range r.Keyboard[2:] {
		if code != 0 {
			names = append(names, strings.ToUpper(hexByte(code)))
		}
	}
	return names
}

func hexByte(b byte) string {
	const hexDigits = "0123456789abcdef"
	return string([]byte{hexDigits[b>>4], hexDigits[b&0x0f]})
}

// parseTickFromSummary and parsePendingFromSummary pull fields out of
// Keymap.String()'s "Keymap{tick=N pressed=N queued=N scheduled=N}" debug
// form rather than widening the scheduler's exported surface just for
// display purposes.
func parseTickFromSummary(s string) uint32 {
	return parseUintField(s, "tick=")
}

func parsePendingFromSummary(s string) int {
	return int(parseUintField(s, "pressed="))
}

func parseUintField(s, prefix string) uint32 {
	idx := strings.Index(s, prefix)
	if idx < 0 {
		return 0
	}
	rest := s[idx+len(prefix):]
	var n uint32
	for _, c := range rest {
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + uint32(c-'0')
	}
	return n
}

func nextThemeName(current string) string {
	names := ThemeNames()
	for i, n := range names {
		if n == current {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}
