package tasks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/riponahmed2201/taskmgr/cmd/cli/config"
	"github.com/riponahmed2201/taskmgr/cmd/cli/output"
	"github.com/riponahmed2201/taskmgr/internal/models"
	"github.com/spf13/cobra"
)

// Init registers the tasks command group on the root command.
func Init(rootCmd *cobra.Command) {
	tasksCmd := &cobra.Command{
		Use:   "tasks",
		Short: "Manage your tasks",
	}

	tasksCmd.AddCommand(
		listTasksCmd(),
		createTaskCmd(),
		showTaskCmd(),
		statusTaskCmd(),
		updateTaskCmd(),
		deleteTaskCmd(),
	)

	rootCmd.AddCommand(tasksCmd)
}

// ==========================
// LIST
// ==========================
func listTasksCmd() *cobra.Command {
	var status string
	var search string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List your tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if status != "" {
				q.Set("status", status)
			}
			if search != "" {
				q.Set("search", search)
			}
			path := "/tasks"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			var tasks []models.Task
			if err := doRequest("GET", path, nil, &tasks); err != nil {
				return err
			}

			rows := make([][]interface{}, 0, len(tasks))
			for _, t := range tasks {
				rows = append(rows, []interface{}{t.ID, t.Title, t.Status, t.Description})
			}
			output.RenderTable([]string{"ID", "Title", "Status", "Description"}, rows)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status (OPEN, IN_PROGRESS, DONE)")
	cmd.Flags().StringVar(&search, "search", "", "Search in title and description")

	return cmd
}

// ==========================
// CREATE
// ==========================
func createTaskCmd() *cobra.Command {
	var title string
	var description string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" {
				return fmt.Errorf("title is required")
			}

			payload := map[string]string{
				"title":       title,
				"description": description,
			}

			var task models.Task
			if err := doRequest("POST", "/tasks", payload, &task); err != nil {
				return err
			}

			fmt.Printf("Created task %d (%s)\n", task.ID, task.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "task title")
	cmd.Flags().StringVar(&description, "description", "", "task description")

	return cmd
}

// ==========================
// SHOW
// ==========================
func showTaskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var task models.Task
			if err := doRequest("GET", "/tasks/"+args[0], nil, &task); err != nil {
				return err
			}

			b, _ := json.MarshalIndent(task, "", "  ")
			fmt.Println(string(b))
			return nil
		},
	}
}

// ==========================
// STATUS
// ==========================
func statusTaskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status [id] [OPEN|IN_PROGRESS|DONE]",
		Short: "Update a task's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := map[string]string{"status": args[1]}

			var task models.Task
			if err := doRequest("PATCH", "/tasks/"+args[0]+"/status", payload, &task); err != nil {
				return err
			}

			fmt.Printf("Task %d is now %s\n", task.ID, task.Status)
			return nil
		},
	}
}

// ==========================
// UPDATE
// ==========================
func updateTaskCmd() *cobra.Command {
	var title string
	var description string

	cmd := &cobra.Command{
		Use:   "update [id]",
		Short: "Update a task's title and description",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if title == "" {
				return fmt.Errorf("title is required")
			}

			payload := map[string]string{
				"title":       title,
				"description": description,
			}

			var task models.Task
			if err := doRequest("PUT", "/tasks/"+args[0], payload, &task); err != nil {
				return err
			}

			fmt.Printf("Updated task %d\n", task.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "task title")
	cmd.Flags().StringVar(&description, "description", "", "task description")

	return cmd
}

// ==========================
// DELETE
// ==========================
func deleteTaskCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := doRequest("DELETE", "/tasks/"+args[0], nil, nil); err != nil {
				return err
			}
			fmt.Println("Task deleted")
			return nil
		},
	}
}

// doRequest sends an authenticated JSON request to the API and decodes the
// response into out (when out is non-nil and the response has a body).
func doRequest(method, path string, payload interface{}, out interface{}) error {
	token, err := config.ReadToken()
	if err != nil {
		return fmt.Errorf("please login first")
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, config.APIURL()+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return err
		}
	}

	return nil
}
