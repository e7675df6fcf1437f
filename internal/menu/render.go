package menu

import (
	"fmt"
	"io"
	"strings"

	"github.com/nibzard/taskmgr-go/internal/store"
	"github.com/nibzard/taskmgr-go/internal/task"
)

var (
	taskRule  = strings.Repeat("-", 50)
	statsRule = strings.Repeat("-", 30)
)

// WriteTasks prints tasks numbered from 1 in list order.
func WriteTasks(w io.Writer, tasks []task.Task) {
	if len(tasks) == 0 {
		fmt.Fprint(w, "\nNo tasks available.\n\n")
		return
	}

	fmt.Fprintln(w, "\nYour Tasks:")
	fmt.Fprintln(w, taskRule)
	for i, t := range tasks {
		fmt.Fprintf(w, "%d. [%s] %s\n", i+1, t.StatusIcon(), t.Title)
		fmt.Fprintf(w, "   Priority: %d\n", t.Priority)
		fmt.Fprintf(w, "   Created: %s\n", t.CreatedAt)
		fmt.Fprintf(w, "   Description: %s\n", t.Description)
		fmt.Fprintln(w, taskRule)
	}
}

// WriteStats prints the statistics block.
func WriteStats(w io.Writer, st store.Stats) {
	fmt.Fprintln(w, "\nTask Statistics")
	fmt.Fprintln(w, statsRule)
	fmt.Fprintf(w, "Total Tasks    : %d\n", st.Total)
	fmt.Fprintf(w, "Completed      : %d\n", st.Completed)
	fmt.Fprintf(w, "Pending        : %d\n", st.Pending)
	fmt.Fprintln(w, statsRule)
}

func writeMenu(w io.Writer) {
	fmt.Fprintln(w, "\n=== TASK MANAGER ===")
	fmt.Fprintln(w, "1. Add Task")
	fmt.Fprintln(w, "2. List Tasks")
	fmt.Fprintln(w, "3. Mark Task as Completed")
	fmt.Fprintln(w, "4. Delete Task")
	fmt.Fprintln(w, "5. Task Statistics")
	fmt.Fprintln(w, "6. Exit")
}
