// cmd/tools/registry-updater/main.go
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"candidate-evaluator/pkg/registry"
)

const defaultPath = "configs/activity-registry.json"

func main() {
	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}
	if err := run(os.Args[1], os.Args[2:], os.Stdout, time.Now); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(command string, args []string, out io.Writer, now func() time.Time) error {
	switch command {
	case "add":
		fs := flag.NewFlagSet("add", flag.ContinueOnError)
		path := fs.String("path", defaultPath, "Path to registry file")
		id := fs.String("id", "", "Activity ID (e.g., evaluate-interview)")
		displayName := fs.String("displayName", "", "Display Name (e.g., Evaluate Interview)")
		description := fs.String("description", "", "Description")
		category := fs.String("category", "evaluation", "Category")
		taskType := fs.String("taskType", "", "Camunda Task Type; defaults to id")
		version := fs.String("version", "1.0.0", "Version")
		status := fs.String("status", registry.StatusPlanned, "Implementation Status (planned, in-progress, completed, verified)")
		timeout := fs.String("timeout", "30s", "Job timeout")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *id == "" || *displayName == "" {
			return fmt.Errorf("id and displayName are required for add")
		}
		if *taskType == "" {
			*taskType = *id
		}
		if err := addActivity(*path, registry.Activity{
			ID:                   *id,
			DisplayName:          *displayName,
			Description:          *description,
			Category:             *category,
			Version:              *version,
			TaskType:             *taskType,
			ImplementationStatus: *status,
			ErrorCodes:           []string{},
			Timeout:              *timeout,
			Workflows:            []string{},
			Tags:                 []string{},
		}, now()); err != nil {
			return err
		}
		fmt.Fprintf(out, "Added activity: %s\n", *id)

	case "update":
		fs := flag.NewFlagSet("update", flag.ContinueOnError)
		path := fs.String("path", defaultPath, "Path to registry file")
		id := fs.String("id", "", "Activity ID to update")
		field := fs.String("field", "", "Field to update (status, version, timeout, retries, errorCodes, ...)")
		value := fs.String("value", "", "New value for the field")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *id == "" || *field == "" || *value == "" {
			return fmt.Errorf("id, field, and value are required for update")
		}
		if err := updateActivity(*path, *id, *field, *value, now()); err != nil {
			return err
		}
		fmt.Fprintf(out, "Updated activity %s, field %s to %s\n", *id, *field, *value)

	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		path := fs.String("path", defaultPath, "Path to registry file")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return validateRegistry(*path, out)

	case "check":
		fs := flag.NewFlagSet("check", flag.ContinueOnError)
		path := fs.String("path", defaultPath, "Path to registry file")
		taskType := fs.String("taskType", "", "Task type whose input schema to check against")
		vars := fs.String("vars", "", "JSON file with sample job variables")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *taskType == "" || *vars == "" {
			return fmt.Errorf("taskType and vars are required for check")
		}
		return checkVariables(*path, *taskType, *vars, out)

	case "list":
		fs := flag.NewFlagSet("list", flag.ContinueOnError)
		path := fs.String("path", defaultPath, "Path to registry file")
		if err := fs.Parse(args); err != nil {
			return err
		}
		return listActivities(*path, out)

	case "help":
		help()
	default:
		help()
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

func addActivity(path string, activity registry.Activity, now time.Time) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		reg = &registry.ActivityRegistry{Version: "1.0.0"}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	for _, existing := range reg.Activities {
		if existing.ID == activity.ID {
			return fmt.Errorf("activity with ID %s already exists", activity.ID)
		}
	}
	reg.Activities = append(reg.Activities, activity)
	return reg.Save(path, now)
}

func updateActivity(path, id, field, value string, now time.Time) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	var a *registry.Activity
	for i := range reg.Activities {
		if reg.Activities[i].ID == id {
			a = &reg.Activities[i]
			break
		}
	}
	if a == nil {
		return fmt.Errorf("activity with ID %s not found", id)
	}

	switch field {
	case "status":
		a.ImplementationStatus = value
	case "version":
		a.Version = value
	case "displayName":
		a.DisplayName = value
	case "description":
		a.Description = value
	case "category":
		a.Category = value
	case "taskType":
		a.TaskType = value
	case "timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid timeout value: %w", err)
		}
		a.Timeout = value
	case "retries":
		retries, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid retries value: %w", err)
		}
		a.Retries = retries
	case "errorCodes":
		a.ErrorCodes = splitList(value)
	case "workflows":
		a.Workflows = splitList(value)
	case "tags":
		a.Tags = splitList(value)
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	return reg.Save(path, now)
}

func validateRegistry(path string, out io.Writer) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if len(reg.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}
	if problems := reg.Validate(); len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintf(out, "  - %s\n", p)
		}
		return fmt.Errorf("registry validation failed with %d problem(s)", len(problems))
	}

	fmt.Fprintf(out, "Registry validation passed. Found %d activities.\n", len(reg.Activities))
	return nil
}

func checkVariables(path, taskType, varsPath string, out io.Writer) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if _, ok := reg.Find(taskType); !ok {
		return fmt.Errorf("task type %s is not registered", taskType)
	}
	vars, err := os.ReadFile(varsPath)
	if err != nil {
		return err
	}
	if err := registry.ValidateVariables(reg.InputSchema(taskType), string(vars)); err != nil {
		return err
	}
	fmt.Fprintf(out, "Variables in %s are valid for %s.\n", varsPath, taskType)
	return nil
}

func listActivities(path string, out io.Writer) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK TYPE\tSTATUS\tTIMEOUT\tRETRIES")
	for _, a := range reg.Activities {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", a.TaskType, a.ImplementationStatus, a.Timeout, a.Retries)
	}
	return tw.Flush()
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func help() {
	fmt.Print(`
Usage: registry-updater <command> [flags]

Commands:
  add      Add a new activity to the registry
  update   Update an existing activity's field
  validate Validate the registry file
  check    Check sample job variables against a task's input schema
  list     List registered activities
  help     Show this help message

Examples:
  registry-updater add -id evaluate-interview -displayName "Evaluate Interview" -timeout 15m
  registry-updater update -id evaluate-interview -field status -value completed
  registry-updater update -id evaluate-interview -field errorCodes -value INTERVIEW_NOT_FOUND,DATABASE_QUERY_FAILED
  registry-updater check -taskType record-hr-decision -vars testdata/decision.json
  registry-updater validate -path configs/activity-registry.json

Use 'registry-updater <command> -h' for more information about a command.

`)
}
