// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"candidate-evaluator/internal/common/errors"
	"candidate-evaluator/internal/common/validation"
)

// ActivityRegistry is the catalogue in configs/activity-registry.json of
// every service task the candidate-evaluation process calls.
type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

const (
	StatusPlanned    = "planned"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusVerified   = "verified"
)

// Activity is one task type: its job variables in and out, the BPMN error
// codes it may throw, and the timeout the modeler should set.
type Activity struct {
	ID                   string                 `json:"id"`
	DisplayName          string                 `json:"displayName"`
	Description          string                 `json:"description"`
	Category             string                 `json:"category"`
	Version              string                 `json:"version"`
	TaskType             string                 `json:"taskType"`
	ImplementationStatus string                 `json:"implementationStatus"`
	InputSchema          *validation.JSONSchema `json:"inputSchema,omitempty"`
	OutputSchema         *validation.JSONSchema `json:"outputSchema,omitempty"`
	ErrorCodes           []string               `json:"errorCodes"`
	Timeout              string                 `json:"timeout"`
	Retries              int                    `json:"retries"`
	Workflows            []string               `json:"workflows"`
	Tags                 []string               `json:"tags"`
}

// TimeoutDuration parses Timeout. An empty timeout is zero.
func (a *Activity) TimeoutDuration() (time.Duration, error) {
	if a.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(a.Timeout)
}

func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry %s: %w", path, err)
	}
	return &reg, nil
}

// Save writes the registry as indented JSON and stamps LastUpdated.
func (r *ActivityRegistry) Save(path string, now time.Time) error {
	r.LastUpdated = now.UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

// Find returns the activity registered for taskType.
func (r *ActivityRegistry) Find(taskType string) (*Activity, bool) {
	if r == nil {
		return nil, false
	}
	for i := range r.Activities {
		if r.Activities[i].TaskType == taskType {
			return &r.Activities[i], true
		}
	}
	return nil, false
}

// InputSchema returns the input schema of taskType, or nil when none is registered.
func (r *ActivityRegistry) InputSchema(taskType string) *validation.JSONSchema {
	a, ok := r.Find(taskType)
	if !ok {
		return nil
	}
	return a.InputSchema
}

// Validate checks ids, task types, timeouts and error codes of every activity.
func (r *ActivityRegistry) Validate() []string {
	known := map[string]bool{"BUSINESS_RULE_VIOLATION": true, "INTERNAL_ERROR": true}
	for _, code := range errors.BPMNErrorMapping {
		known[code] = true
	}

	var problems []string
	seen := map[string]bool{}
	for _, a := range r.Activities {
		if a.ID == "" {
			problems = append(problems, "activity without id")
			continue
		}
		if seen[a.ID] {
			problems = append(problems, fmt.Sprintf("%s: duplicate id", a.ID))
		}
		seen[a.ID] = true

		if err := validation.ValidateTaskType(a.TaskType); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", a.ID, err))
		}
		if _, err := a.TimeoutDuration(); err != nil {
			problems = append(problems, fmt.Sprintf("%s: invalid timeout %q", a.ID, a.Timeout))
		}
		switch a.ImplementationStatus {
		case StatusPlanned, StatusInProgress, StatusCompleted, StatusVerified:
		default:
			problems = append(problems, fmt.Sprintf("%s: unknown status %q", a.ID, a.ImplementationStatus))
		}
		for _, code := range a.ErrorCodes {
			if !known[code] {
				problems = append(problems, fmt.Sprintf("%s: unknown error code %s", a.ID, code))
			}
		}
	}
	return problems
}

// ValidateVariables checks raw job variables against schema. A nil schema
// accepts anything.
func ValidateVariables(schema *validation.JSONSchema, variables string) error {
	if schema == nil {
		return nil
	}
	var vars map[string]interface{}
	if err := json.Unmarshal([]byte(variables), &vars); err != nil {
		return errors.NewInvalidInputError(fmt.Sprintf("parse variables: %v", err))
	}
	result := validation.ValidateInput(vars, *schema)
	if !result.Valid {
		return errors.NewInvalidInputError(strings.Join(result.Messages(), "; "))
	}
	return nil
}
