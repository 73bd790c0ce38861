// Package repl implements the interactive imagemath session.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/imagemath/lang"
	"github.com/ardnew/imagemath/log"
)

// Config configures a session.
type Config struct {
	// Dispatcher performs builtin calls. Required.
	Dispatcher lang.Dispatcher
	// Functions are user functions available from the start.
	Functions  *lang.FunctionSet
	// Script, if set, is run before the first prompt.
	Script     *lang.Script
	// HistoryDir holds the history file; empty disables persistence.
	HistoryDir string
	Logger     log.Logger

	// Input and Output default to the terminal.
	Input  io.Reader
	Output io.Writer
}

// editDoneMsg is sent when an edit completes; reloaded is false when the
// user emptied the file.
type editDoneMsg struct{ reloaded bool }

// editDeclinedMsg is sent when the user declined to re-edit after an
// error.
type editDeclinedMsg struct{}

type editErrorMsg struct{ err error }

const (
	evalPrompt = "➜ "
	ctrlPrompt = " :"

	// cmdPrefix runs a command from eval mode, as in ":vars".
	cmdPrefix = ":"
)

const helpMessage = `
: Commands (press Esc to toggle mode, or prefix with ':' in eval mode):

  help     Print this help
  vars     List variables and their values
  funcs    List user functions
  shifts   List the pixel shifts requested so far
  edit     Edit the session as a script in $EDITOR
  clear    Clear screen
  quit     Exit

Usage:
  Type a line to evaluate it; "name = expr" binds a variable
  Completions appear as you type; Tab / Shift-Tab cycle through them
  A signature hint appears inside a call's parentheses
  Up/Down browse history; Shift+Up/Shift+Down stay in the current mode
  Press Ctrl+C on an empty line or Ctrl+D to exit
`

// inputMode represents the current input mode.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

var (
	promptStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	ctrlPromptStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("5")).Bold(true)
	inputStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	matchStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("4")).Bold(true)
	selectedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("4"))
	selectedMatchStyle = selectedStyle.Bold(true)
)

func echo(mode inputMode, input string) string {
	if mode == modeCtrl {
		return ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input)
	}

	return promptStyle.Render(evalPrompt) + inputStyle.Render(input)
}

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc    func() context.Context
	input      textinput.Model
	session    *session
	logger     log.Logger
	history    *History
	historyIdx int

	matches      fuzzy.Matches
	wordStart    int
	wordEnd      int
	suggIdx      int
	tabActive    bool // cycling through matches with Tab
	preTabText   string
	preTabCursor int

	width    int
	quitting bool

	mode     inputMode
	saved    [2]string // input of the inactive mode
	savedPos [2]int
}

// Run starts an interactive session and blocks until the user quits.
func Run(ctx context.Context, cfg Config) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	if cfg.Dispatcher == nil {
		return ErrNoDispatcher
	}

	s, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}

	historyPath := ""
	if cfg.HistoryDir != "" {
		historyPath = filepath.Join(cfg.HistoryDir, baseHistory)
	}

	history := NewHistory(historyPath)
	if err := history.Load(); err != nil {
		cfg.Logger.WarnContext(ctx, "could not load history",
			slog.String("file", historyPath),
			slog.Any("error", err),
		)
	}

	cfg.Logger.TraceContext(ctx, "repl ready",
		slog.Int("history", history.Len()),
		slog.Int("variables", len(s.variables())),
		slog.Int("functions", len(s.functions())),
	)

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.Input != nil {
		opts = append(opts, tea.WithInput(cfg.Input))
	}

	if cfg.Output != nil {
		opts = append(opts, tea.WithOutput(cfg.Output))
	}

	_, err = tea.NewProgram(newModel(ctx, s, history, cfg.Logger), opts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}

	return err
}

const defaultWidth = 80

func newModel(ctx context.Context, s *session, history *History, logger log.Logger) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		session:    s,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		suggIdx:    -1,
		width:      defaultWidth,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(evalPrompt) - 2

		return m, nil

	case editDoneMsg:
		if !msg.reloaded {
			return m, tea.Println(hintStyle.Render("edit cancelled"))
		}

		return m, tea.Println(resultStyle.Render("session reloaded"))

	case editDeclinedMsg:
		m.quitting = true

		return m, tea.Quit

	case editErrorMsg:
		return m, tea.Println(errorStyle.Render("error: " + msg.err.Error()))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	return m.input.View() + "\n" + m.hintLine() + "\n"
}

// hintLine is the line under the prompt: history position, usage hint,
// signature of the enclosing call, or completion candidates.
func (m model) hintLine() string {
	input := m.input.Value()

	if m.historyIdx < m.history.Len() {
		pos := lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx + 1))

		return hintStyle.Render(fmt.Sprintf("%s/%d", pos, m.history.Len()))
	}

	if strings.TrimSpace(input) == "" {
		if m.mode == modeEval {
			return hintStyle.Render("Type an expression or press Esc for commands")
		}

		return hintStyle.Render("Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)")
	}

	if m.mode == modeEval && !m.tabActive {
		if call := detectFunctionCall(input, m.input.Position()); call.inCall {
			if name, params, ok := m.session.signature(call.name); ok {
				return renderSignatureHint(name, params, call)
			}
		}
	}

	return m.renderCandidateBar()
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.historyIdx = m.history.Len()
		m.refreshMatches(false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if m.tabActive && len(m.matches) > 0 {
			// lock in the current candidate without executing
			m.tabActive = false
			m.refreshMatches(true)

			return m, nil
		}

		return m.executeInput()

	case tea.KeyTab:
		return m.cycle(1), nil

	case tea.KeyShiftTab:
		return m.cycle(-1), nil

	case tea.KeyUp:
		return m.historyMove(-1, false), nil

	case tea.KeyDown:
		return m.historyMove(1, false), nil

	case tea.KeyShiftUp:
		return m.historyMove(-1, true), nil

	case tea.KeyShiftDown:
		return m.historyMove(1, true), nil

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			m.refreshMatches(false)

			return m, nil
		}

		if m.mode == modeEval {
			return m.switchToMode(modeCtrl), nil
		}

		return m.switchToMode(modeEval), nil
	}

	// space accepts the candidate being cycled
	if msg.Type == tea.KeySpace || (msg.Type == tea.KeyRunes && msg.String() == " ") {
		m.tabActive = false
	}

	typing := msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace
	if !typing {
		m.tabActive = false
	}

	var cmd tea.Cmd

	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	m.refreshMatches(typing)

	return m, cmd
}

// cycle moves the tab selection by step, starting the cycle if needed. A
// single candidate is completed immediately.
func (m model) cycle(step int) model {
	n := len(m.matches)
	if n == 0 {
		return m
	}

	if n == 1 {
		m.replaceCurrentWord(m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m
	}

	if !m.tabActive {
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()
		m.suggIdx = -1
		if step < 0 {
			m.suggIdx = 0
		}
	}

	m.suggIdx = ((m.suggIdx+step)%n + n) % n
	m.replaceCurrentWord(m.matches[m.suggIdx].Str)

	return m
}

// replaceCurrentWord replaces the word under the cursor with s.
func (m *model) replaceCurrentWord(s string) {
	input := m.input.Value()

	m.input.SetValue(input[:m.wordStart] + s + input[m.wordEnd:])
	m.input.SetCursor(m.wordStart + len(s))
	m.wordEnd = m.wordStart + len(s)
}

// refreshMatches recomputes the matches for the current input. With
// autoConfirm, a word that already equals its only candidate is accepted
// so the bar disappears.
func (m *model) refreshMatches(autoConfirm bool) {
	if m.tabActive {
		return
	}

	m.matches, m.wordStart, m.wordEnd = m.computeMatches()
	m.suggIdx = -1

	if autoConfirm && len(m.matches) == 1 &&
		m.input.Value()[m.wordStart:m.wordEnd] == m.matches[0].Str {
		m.matches = nil
	}
}

func (m model) executeInput() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	mode := m.mode

	m.saved = [2]string{}
	m.savedPos = [2]int{}
	m.input.SetValue("")
	m.matches = nil

	if err := m.history.Add(input, mode); err != nil {
		m.logger.WarnContext(m.ctxFunc(), "could not save history", slog.Any("error", err))
	}

	m.historyIdx = m.history.Len()

	if mode == modeEval {
		if line, ok := strings.CutPrefix(input, cmdPrefix); ok {
			return m.executeCommand(input, line)
		}
	}

	if mode == modeCtrl {
		return m.executeCommand(input, input)
	}

	echoCmd := tea.Println(echo(mode, input))

	result, err := m.session.eval(m.ctxFunc(), input)

	m.logger.TraceContext(m.ctxFunc(), "repl eval",
		slog.String("input", input),
		slog.Bool("ok", err == nil),
	)

	if err != nil {
		return m, tea.Sequence(echoCmd, tea.Println(errorStyle.Render("error: "+err.Error())))
	}

	return m, tea.Sequence(echoCmd, tea.Println(resultStyle.Render(result)))
}

// command returns the output of a control command, whether it ends the
// session, and an error for unknown commands. edit and clear are handled
// by executeCommand.
func (m model) command(name string) (out string, quit bool, err error) {
	switch name {
	case "q", "quit", "exit":
		return "", true, nil
	case "h", "help":
		return helpMessage, false, nil
	case "v", "vars":
		return m.session.listVariables(), false, nil
	case "f", "funcs":
		return m.session.listFunctions(), false, nil
	case "s", "shifts":
		return m.session.listShifts(), false, nil
	default:
		return "", false, fmt.Errorf("%w: %s (try 'help')", ErrUnknownCommand, name)
	}
}

func (m model) executeCommand(input, line string) (model, tea.Cmd) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return m, nil
	}

	echoCmd := tea.Println(echo(m.mode, input))

	m.logger.TraceContext(m.ctxFunc(), "repl command", slog.String("command", fields[0]))

	switch fields[0] {
	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		return m, tea.Sequence(echoCmd, m.edit())
	}

	out, quit, err := m.command(fields[0])

	switch {
	case err != nil:
		return m, tea.Sequence(echoCmd, tea.Println(errorStyle.Render(err.Error())))
	case quit:
		m.quitting = true

		return m, tea.Sequence(echoCmd, tea.Quit)
	default:
		return m, tea.Sequence(echoCmd, tea.Println(strings.TrimRight(out, "\n")))
	}
}

func (m model) edit() tea.Cmd {
	cmd := &editCommand{session: m.session, ctxFunc: m.ctxFunc, logger: m.logger}

	return tea.Exec(cmd, func(err error) tea.Msg {
		switch {
		case errors.Is(err, ErrEditDeclined):
			return editDeclinedMsg{}
		case err != nil:
			return editErrorMsg{err: err}
		default:
			return editDoneMsg{reloaded: cmd.reloaded}
		}
	})
}

// historyMove steps through history by dir. With sameMode only entries of
// the current mode are visited; otherwise the mode follows the entry.
// Moving past the newest entry clears the input.
func (m model) historyMove(dir int, sameMode bool) model {
	for i := m.historyIdx + dir; i >= 0 && i < m.history.Len(); i += dir {
		entry, err := m.history.Entry(i)
		if err != nil || (sameMode && entry.Mode != m.mode) {
			continue
		}

		if entry.Mode != m.mode {
			m = m.switchToMode(entry.Mode)
		}

		m.historyIdx = i
		m.input.SetValue(entry.Line)
		m.input.SetCursor(len(entry.Line))
		m.refreshMatches(false)

		return m
	}

	if dir > 0 && m.historyIdx < m.history.Len() {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		m.refreshMatches(false)
	}

	return m
}

// switchToMode switches modes, keeping each mode's unfinished input.
func (m model) switchToMode(mode inputMode) model {
	m.saved[m.mode] = m.input.Value()
	m.savedPos[m.mode] = m.input.Position()

	m.mode = mode
	m.tabActive = false

	if mode == modeEval {
		m.input.Prompt = promptStyle.Render(evalPrompt)
	} else {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
	}

	m.input.SetValue(m.saved[mode])
	m.input.SetCursor(m.savedPos[mode])
	m.refreshMatches(false)

	return m
}
