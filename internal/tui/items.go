package tui

import (
	"fmt"
	"strings"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

func formatCategorySummary(category model.Category) string {
	description := strings.TrimSpace(category.Description)
	if description == "" {
		return category.Name
	}
	return fmt.Sprintf("%s | %s", category.Name, description)
}

func formatTaskSummary(task model.Task) string {
	check := " "
	if task.IsCompleted {
		check = "x"
	}
	return fmt.Sprintf("[%s] %s | %s", check, task.Title, priorityLabel(task.Priority))
}

func priorityLabel(priority model.Priority) string {
	switch priority.OrDefault() {
	case model.PriorityHigh:
		return "!!! high"
	case model.PriorityMedium:
		return "!!  medium"
	default:
		return "!   low"
	}
}

func formatTaskDetail(task model.Task) string {
	status := "open"
	if task.IsCompleted {
		status = "completed"
	}
	lines := []string{
		task.Title,
		fmt.Sprintf("Priority: %s", task.Priority.OrDefault()),
		fmt.Sprintf("Status: %s", status),
		fmt.Sprintf("Updated: %s", formatTime(task)),
		"",
		strings.TrimSpace(task.Description),
	}
	return strings.Join(lines, "\n")
}

func formatTime(task model.Task) string {
	if task.UpdatedAt.IsZero() {
		return "n/a"
	}
	return task.UpdatedAt.Local().Format("2006-01-02 15:04")
}

func clampSelection(selected, length int) int {
	if length == 0 {
		return 0
	}
	if selected >= length {
		return length - 1
	}
	if selected < 0 {
		return 0
	}
	return selected
}
