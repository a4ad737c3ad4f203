// Package ui provides the interactive terminal interface.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nibzard/todolist-go/internal/session"
	"github.com/nibzard/todolist-go/internal/todo"
)

// TUIOption configures the TUI behavior.
type TUIOption func(*tuiConfig)

// tuiConfig holds TUI configuration.
type tuiConfig struct {
	source string
}

const defaultInputWidth = 48

// WithSource sets the label shown for where tasks are stored.
func WithSource(label string) TUIOption {
	return func(c *tuiConfig) {
		c.source = label
	}
}

// RunTUI runs the interactive task list over sess until the user quits.
func RunTUI(ctx context.Context, sess *session.Session, opts ...TUIOption) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}
	model := newTUIModel(ctx, sess, opts...)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

type tuiModel struct {
	ctx      context.Context
	sess     *session.Session
	cfg      tuiConfig
	input    textinput.Model
	editing  bool
	cursor   int
	showHelp bool
	status   string
	statusOK bool
}

func newTUIModel(ctx context.Context, sess *session.Session, opts ...TUIOption) *tuiModel {
	var c tuiConfig
	for _, opt := range opts {
		opt(&c)
	}

	ti := textinput.New()
	ti.Placeholder = "What needs to be done?"
	ti.CharLimit = 0 // no limit
	ti.Width = defaultInputWidth
	ti.Prompt = "> "

	return &tuiModel{
		ctx:   ctx,
		sess:  sess,
		cfg:   c,
		input: ti,
	}
}

func (m *tuiModel) Init() tea.Cmd {
	return nil
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		if w := msg.Width - 8; w > 10 {
			m.input.Width = w
		}
		return m, nil
	case tea.KeyMsg:
		if m.editing {
			return m.updateInput(msg)
		}
		return m.updateList(msg)
	}
	return m, nil
}

func (m *tuiModel) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.editing = false
		m.input.SetValue("")
		m.input.Blur()
		m.setStatus("", true)
		return m, nil
	case "enter":
		m.submit()
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *tuiModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "?", "h":
		m.showHelp = !m.showHelp
	case "a", "i", "n":
		m.editing = true
		m.showHelp = false
		return m, m.input.Focus()
	case "j", "down":
		m.moveCursor(1)
	case "k", "up":
		m.moveCursor(-1)
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		m.cursor = len(m.sess.Visible()) - 1
		m.clampCursor()
	case " ", "space", "x", "enter":
		m.toggleSelected()
	case "d", "delete", "backspace":
		m.deleteSelected()
	case "tab":
		m.setFilter(m.sess.Filter().Next())
	case "shift+tab":
		m.setFilter(m.sess.Filter().Next().Next())
	case "1":
		m.setFilter(todo.FilterAll)
	case "2":
		m.setFilter(todo.FilterActive)
	case "3":
		m.setFilter(todo.FilterCompleted)
	}
	return m, nil
}

// submit adds the input text as a task. The input keeps focus for the next one.
func (m *tuiModel) submit() {
	res, err := m.sess.Submit(m.ctx, m.input.Value())
	m.input.SetValue("")
	switch {
	case err != nil:
		m.setStatus(fmt.Sprintf("save failed: %v", err), false)
	case !res.Changed:
		m.setStatus("Nothing to add", true)
	default:
		m.setStatus(fmt.Sprintf("Added %q", res.Task.Text), true)
	}
	if res.Changed {
		m.selectTask(res.Task.ID)
	}
}

func (m *tuiModel) toggleSelected() {
	task, ok := m.selected()
	if !ok {
		return
	}
	res, err := m.sess.Toggle(m.ctx, task.ID)
	switch {
	case err != nil:
		m.setStatus(fmt.Sprintf("save failed: %v", err), false)
	case res.Task.Completed:
		m.setStatus(fmt.Sprintf("Completed %q", res.Task.Text), true)
	default:
		m.setStatus(fmt.Sprintf("Reopened %q", res.Task.Text), true)
	}
	m.clampCursor()
}

func (m *tuiModel) deleteSelected() {
	task, ok := m.selected()
	if !ok {
		return
	}
	if _, err := m.sess.Delete(m.ctx, task.ID); err != nil {
		m.setStatus(fmt.Sprintf("save failed: %v", err), false)
	} else {
		m.setStatus(fmt.Sprintf("Deleted %q", task.Text), true)
	}
	m.clampCursor()
}

func (m *tuiModel) setFilter(mode todo.FilterMode) {
	m.sess.SetFilter(mode)
	m.cursor = 0
	m.setStatus("", true)
}

func (m *tuiModel) setStatus(s string, ok bool) {
	m.status = s
	m.statusOK = ok
}

// selected returns the task under the cursor in the current view.
func (m *tuiModel) selected() (todo.Task, bool) {
	visible := m.sess.Visible()
	if m.cursor < 0 || m.cursor >= len(visible) {
		return todo.Task{}, false
	}
	return visible[m.cursor], true
}

// selectTask moves the cursor to id when it is visible.
func (m *tuiModel) selectTask(id int64) {
	for i, t := range m.sess.Visible() {
		if t.ID == id {
			m.cursor = i
			return
		}
	}
	m.clampCursor()
}

func (m *tuiModel) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
}

func (m *tuiModel) clampCursor() {
	n := len(m.sess.Visible())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *tuiModel) View() string {
	var b strings.Builder
	writeTitle(&b)

	if m.showHelp {
		writeHelp(&b)
		writeFooter(&b, m.sess.Stats(), m.cfg.source)
		return b.String()
	}

	writeTabs(&b, m.sess.List(), m.sess.Filter())
	writeTasks(&b, m.sess.Visible(), m.sess.Filter(), m.cursor, !m.editing)
	m.writeInput(&b)
	if m.status != "" {
		b.WriteString(StatusStyle(m.statusOK).Render(m.status) + "\n\n")
	}
	writeFooter(&b, m.sess.Stats(), m.cfg.source)
	return b.String()
}

func writeTitle(b *strings.Builder) {
	b.WriteString(styleTitle.Render("Todo List") + "\n\n")
}

func writeTabs(b *strings.Builder, list todo.List, current todo.FilterMode) {
	tabs := make([]string, 0, len(todo.FilterModes))
	for i, mode := range todo.FilterModes {
		label := fmt.Sprintf("%d %s (%d)", i+1, tabLabel(mode), len(todo.Filter(list, mode)))
		if mode == current {
			tabs = append(tabs, styleTabOn.Render(label))
		} else {
			tabs = append(tabs, styleTab.Render(label))
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n\n")
}

func tabLabel(mode todo.FilterMode) string {
	switch mode {
	case todo.FilterActive:
		return "Active"
	case todo.FilterCompleted:
		return "Completed"
	default:
		return "All"
	}
}

func writeTasks(b *strings.Builder, visible todo.List, mode todo.FilterMode, cursor int, showCursor bool) {
	if len(visible) == 0 {
		b.WriteString("  " + styleSubtle.Render(mode.EmptyMessage()) + "\n\n")
		return
	}
	for i, t := range visible {
		b.WriteString(formatTask(t, showCursor && i == cursor))
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func formatTask(t todo.Task, selected bool) string {
	pointer := "  "
	if selected {
		pointer = styleCursor.Render("> ")
	}
	text := styleText.Render(t.Text)
	if t.Completed {
		text = styleDone.Render(t.Text)
	}
	return pointer + Checkbox(t.Completed) + " " + text
}

func (m *tuiModel) writeInput(b *strings.Builder) {
	if !m.editing {
		b.WriteString(styleSubtle.Render("Press a to add a task") + "\n\n")
		return
	}
	b.WriteString(styleInputBoxOn.Render(m.input.View()) + "\n")
	b.WriteString(styleSubtle.Render("enter to add, esc to finish") + "\n\n")
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  a, i, n        Add tasks (enter submits, esc finishes)\n")
	b.WriteString("  j, k, ↑, ↓     Move selection\n")
	b.WriteString("  g, G           First / last task\n")
	b.WriteString("  space, x       Toggle completed\n")
	b.WriteString("  d, delete      Delete task\n")
	b.WriteString("  tab            Next filter\n")
	b.WriteString("  1, 2, 3        Show all / active / completed\n")
	b.WriteString("  ?, h           Toggle this help screen\n")
	b.WriteString("  q, ctrl+c      Quit\n\n")
}

// writeFooter shows progress only once there are tasks.
func writeFooter(b *strings.Builder, stats todo.Stats, source string) {
	var parts []string
	if summary := stats.Summary(); summary != "" {
		parts = append(parts, summary)
	}
	if source != "" {
		parts = append(parts, source)
	}
	parts = append(parts, "? for help", "q to quit")
	b.WriteString(styleSubtle.Render(strings.Join(parts, " | ")) + "\n")
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
