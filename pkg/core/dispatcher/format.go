package dispatcher

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/cloudcarver/taskbot/pkg/core/task"
)

const usageText = "Commands:\n" +
	"`add <description>` - create a task\n" +
	"`list [all|pending|done]` - list tasks (default pending)\n" +
	"`show <id>` - task details\n" +
	"`done <id>` - mark a task complete\n" +
	"`edit <id> <new description>` - rewrite a task\n" +
	"`delete <id>` - remove a task\n" +
	"`config show` / `config channel <here|off>` - server settings\n" +
	"`ping` - check the bot is awake"

func parseID(text string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

func parseFilter(text string) (task.Filter, string, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "", "pending":
		return task.FilterPending, "pending", nil
	case "all":
		return task.FilterAll, "", nil
	case "done":
		return task.FilterDone, "completed", nil
	default:
		return 0, "", errors.New("Usage: `list [all|pending|done]`")
	}
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func formatTaskLine(t task.Task) string {
	return fmt.Sprintf("task #%d: %s", t.ID, t.Description)
}

func formatTaskList(tasks []task.Task, label string) string {
	if len(tasks) == 0 {
		if label == "" {
			return "No tasks yet."
		}
		return "No " + label + " tasks."
	}
	var b strings.Builder
	for i, t := range tasks {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "#%d %s %s", t.ID, checkbox(t.Done), t.Description)
	}
	return b.String()
}

func formatTaskDetail(t task.Task) string {
	status := "pending"
	if t.Done {
		status = "done"
	}
	return fmt.Sprintf("Task #%d\n%s %s\nStatus: %s\nCreated: %s",
		t.ID, checkbox(t.Done), t.Description, status,
		t.CreatedAt.Format("2006-01-02 15:04 MST"))
}

func formatDeleted(id int64) string {
	return fmt.Sprintf("Deleted task #%d.", id)
}

func formatNotFound(id int64) string {
	if id == 0 {
		return "That task does not exist."
	}
	return fmt.Sprintf("Task #%d does not exist.", id)
}
