// Package ui provides the optional terminal interface.
package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/nibzard/taskmgr-go/internal/store"
	"github.com/nibzard/taskmgr-go/internal/task"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	cursorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	doneStyle     = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	footerStyle   = lipgloss.NewStyle().Faint(true)
	priorityStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// RunTUI starts the terminal interface over st.
func RunTUI(ctx context.Context, st *store.Store) error {
	if !IsTTY(os.Stdout) {
		return fmt.Errorf("tui requires a TTY")
	}

	program := tea.NewProgram(newModel(st), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

type model struct {
	store    *store.Store
	tasks    []task.Task
	cursor   int
	showHelp bool
	message  string
	err      error // last operation error, shown inline
}

func newModel(st *store.Store) *model {
	m := &model{store: st}
	m.refresh()
	return m
}

func (m *model) Init() tea.Cmd {
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	m.message = ""
	switch key.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.tasks)-1 {
			m.cursor++
		}
	case " ", "space", "enter", "x":
		m.complete()
	case "d", "delete":
		m.delete()
	case "r", "f5":
		m.reload()
	case "h", "?":
		m.showHelp = !m.showHelp
	}
	return m, nil
}

func (m *model) complete() {
	if len(m.tasks) == 0 {
		return
	}
	ok, err := m.store.Complete(m.cursor)
	m.err = err
	if ok && err == nil {
		m.message = fmt.Sprintf("Task %d marked as completed.", m.cursor+1)
	}
	m.refresh()
}

func (m *model) delete() {
	if len(m.tasks) == 0 {
		return
	}
	ok, err := m.store.Delete(m.cursor)
	m.err = err
	if ok && err == nil {
		m.message = fmt.Sprintf("Task %d deleted.", m.cursor+1)
	}
	m.refresh()
}

// reload rereads the task file. On failure the previous list stays on
// screen with the error.
func (m *model) reload() {
	if err := m.store.Load(); err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.message = "Reloaded."
	m.refresh()
}

// refresh copies the store's tasks and keeps the cursor in range.
func (m *model) refresh() {
	m.tasks = m.store.List()
	if m.cursor >= len(m.tasks) {
		m.cursor = len(m.tasks) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *model) View() string {
	var b strings.Builder
	writeTitle(&b)

	if m.showHelp {
		writeHelp(&b)
		writeFooter(&b, m.store.Stats())
		return b.String()
	}

	writeTasks(&b, m.tasks, m.cursor)

	if m.err != nil {
		b.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n\n")
	} else if m.message != "" {
		b.WriteString(m.message + "\n\n")
	}

	writeFooter(&b, m.store.Stats())
	return b.String()
}

func writeTitle(b *strings.Builder) {
	title := "Task Manager"
	b.WriteString(titleStyle.Render(title) + "\n")
	b.WriteString(strings.Repeat("=", len(title)) + "\n\n")
}

func writeTasks(b *strings.Builder, tasks []task.Task, cursor int) {
	if len(tasks) == 0 {
		b.WriteString("  No tasks available.\n\n")
		return
	}
	for i, t := range tasks {
		b.WriteString(formatTask(i, t, i == cursor))
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  up/k, down/j    Move\n")
	b.WriteString("  space, enter, x Mark completed\n")
	b.WriteString("  d               Delete\n")
	b.WriteString("  r, F5           Reload from disk\n")
	b.WriteString("  h, ?            Toggle this help screen\n")
	b.WriteString("  q, ctrl+c       Quit\n\n")
}

func writeFooter(b *strings.Builder, st store.Stats) {
	line := fmt.Sprintf("Total: %d  Completed: %d  Pending: %d | h for help | q to quit",
		st.Total, st.Completed, st.Pending)
	b.WriteString(footerStyle.Render(line) + "\n")
}

// maxDetailWidth is the cell width of the description line, ellipsis included.
const maxDetailWidth = 60

func formatTask(i int, t task.Task, selected bool) string {
	pointer := "  "
	if selected {
		pointer = cursorStyle.Render("> ")
	}
	title := t.Title
	if t.Completed {
		title = doneStyle.Render(title)
	}
	line := fmt.Sprintf("%s%d. [%s] %s %s", pointer, i+1, t.StatusIcon(), priorityStyle.Render(fmt.Sprintf("(P%d)", t.Priority)), title)
	if !selected || t.Description == "" {
		return line
	}
	return line + "\n      " + ansi.Truncate(t.Description, maxDetailWidth, "...")
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
