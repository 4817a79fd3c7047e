package agent

import (
	"context"
	"strings"

	"noxy/internal/models"
)

// TaskFetcher is the slice of the onboarding backend the resolver needs
type TaskFetcher interface {
	FetchTasks(ctx context.Context, userID string) []models.TaskRecord
}

// TaskStatusResolver turns the backend task records into a deterministic,
// human-readable status summary.
type TaskStatusResolver struct {
	backend TaskFetcher
}

// NewTaskStatusResolver creates a task status resolver
func NewTaskStatusResolver(backend TaskFetcher) *TaskStatusResolver {
	return &TaskStatusResolver{backend: backend}
}

// Resolve fetches and formats the user's onboarding task status. Backend
// failures have already degraded to an empty task list, which formats as
// three "None" sections plus the completion sentence.
func (r *TaskStatusResolver) Resolve(ctx context.Context, userID string) string {
	tasks := r.backend.FetchTasks(ctx, userID)

	var pending, inProgress, completed []models.TaskRecord
	for _, task := range tasks {
		// Unknown status values are dropped from every group
		switch strings.ToLower(task.Status) {
		case "pending":
			pending = append(pending, task)
		case "in_progress":
			inProgress = append(inProgress, task)
		case "completed":
			completed = append(completed, task)
		}
	}

	var b strings.Builder
	b.WriteString("Here is your onboarding task status:\n\n")
	writeTaskSection(&b, "Pending", pending)
	writeTaskSection(&b, "In Progress", inProgress)
	writeTaskSection(&b, "Completed", completed)

	if len(pending) == 0 && len(inProgress) == 0 {
		b.WriteString("\nGreat news! You have completed all your onboarding requirements.")
	} else {
		b.WriteString("\nPlease continue working on the remaining requirements.")
	}

	return strings.TrimSpace(b.String())
}

func writeTaskSection(b *strings.Builder, title string, tasks []models.TaskRecord) {
	b.WriteString(title)
	b.WriteString(":\n")
	if len(tasks) == 0 {
		b.WriteString("- None\n")
		return
	}
	for _, task := range tasks {
		titleText := task.TaskTitle
		if titleText == "" {
			titleText = "Untitled task"
		}
		b.WriteString("- ")
		b.WriteString(titleText)
		b.WriteString("\n")
	}
}
