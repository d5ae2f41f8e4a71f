package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/adanyl0v/go-todo-client/internal/models"
	"github.com/adanyl0v/go-todo-client/internal/tasks"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

const dateFormat = "02 Jan 2006"

type taskList struct {
	Stats tasks.Stats   `json:"stats" yaml:"stats"`
	Tasks []models.Task `json:"tasks" yaml:"tasks"`
}

func (a *appContext) encode(v any) (bool, error) {
	switch a.output {
	case outputJSON:
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(a.out)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return true, err
		}
		return true, enc.Close()
	default:
		return false, nil
	}
}

func (a *appContext) renderTasks(list []models.Task, filter tasks.Filter, showOwner bool) error {
	stats := tasks.Summarize(list)
	if done, err := a.encode(taskList{Stats: stats, Tasks: list}); done {
		return err
	}

	if len(list) == 0 {
		fmt.Fprintln(a.out, "No tasks found.")
		if filter == tasks.FilterAll {
			fmt.Fprintln(a.out, "No user has created tasks yet.")
		} else {
			fmt.Fprintln(a.out, "Start by creating your first task: todo tasks create <title>")
		}
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	header := "ID\tSTATUS\tTITLE\tCOMPLETED"
	if showOwner {
		header += "\tOWNER"
	}
	fmt.Fprintln(tw, header)
	for i := range list {
		task := &list[i]
		row := fmt.Sprintf("%s\t%s\t%s\t%s", task.ID, task.Status(), task.Title, completedOn(task))
		if showOwner {
			row += "\t" + ownerName(task)
		}
		fmt.Fprintln(tw, row)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(a.out, "\nTotal: %d  Completed: %d  Pending: %d\n", stats.Total, stats.Completed, stats.Pending)
	return nil
}

func (a *appContext) renderTask(task *models.Task) error {
	if done, err := a.encode(task); done {
		return err
	}

	tw := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", task.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", task.Title)
	if description := task.DescriptionText(); description != "" {
		fmt.Fprintf(tw, "Description:\t%s\n", description)
	}
	fmt.Fprintf(tw, "Status:\t%s\n", task.Status())
	if at, ok := task.CompletionTime(); ok {
		fmt.Fprintf(tw, "Completed:\t%s\n", at.Local().Format("02 January 2006 15:04"))
	}
	fmt.Fprintf(tw, "Created:\t%s\n", task.CreatedAt.Local().Format("02 January 2006 15:04"))
	fmt.Fprintf(tw, "Updated:\t%s\n", task.UpdatedAt.Local().Format("02 January 2006 15:04"))
	return tw.Flush()
}

func (a *appContext) renderUser(user *models.User) error {
	if done, err := a.encode(user); done {
		return err
	}

	role := "User"
	if user.IsAdmin() {
		role = "Admin"
	}
	fmt.Fprintf(a.out, "%s <%s> (%s)\n", user.Name, user.Email, role)
	return nil
}

func completedOn(task *models.Task) string {
	at, ok := task.CompletionTime()
	if !ok {
		return "-"
	}
	return at.Local().Format(dateFormat)
}

func ownerName(task *models.Task) string {
	if task.User == nil {
		return task.UserID
	}
	return task.User.Name
}
