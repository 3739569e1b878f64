// cmd/tools/worker-generator/main.go
package main

import (
	"bytes"
	"flag"
	"fmt"
	"go/format"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"
	"unicode"

	"candidate-evaluator/internal/common/validation"
	"candidate-evaluator/pkg/registry"
)

// WorkerData holds data for templates
type WorkerData struct {
	Name          string
	PackageName   string
	Dir           string
	TaskType      string
	Description   string
	Timeout       string
	InputFields   []Field
	OutputFields  []Field
	RequiredField string
}

// Field is one struct field generated from a schema property.
type Field struct {
	GoName string
	GoType string
	JSON   string
	Doc    string
}

// acronyms keeps generated names in line with hand-written ones (ApplicationID, not ApplicationId).
var acronyms = map[string]string{"Id": "ID", "Url": "URL", "Hr": "HR", "Sms": "SMS", "Ai": "AI"}

func goName(prop string) string {
	var words []string
	start := 0
	for i := 1; i < len(prop); i++ {
		if unicode.IsUpper(rune(prop[i])) {
			words = append(words, prop[start:i])
			start = i
		}
	}
	words = append(words, prop[start:])

	for i, w := range words {
		if w == "" {
			continue
		}
		w = strings.ToUpper(w[:1]) + w[1:]
		if a, ok := acronyms[w]; ok {
			w = a
		}
		words[i] = w
	}
	return strings.Join(words, "")
}

// goType maps a schema property to a Go type. Id-like integers become int64.
func goType(prop string, p validation.Property) string {
	switch p.Type {
	case "string":
		return "string"
	case "integer":
		if strings.HasSuffix(prop, "Id") {
			return "int64"
		}
		return "int"
	case "number":
		return "float64"
	case "boolean":
		return "bool"
	case "object":
		return "map[string]interface{}"
	case "array":
		if p.Items != nil && p.Items.Type == "string" {
			return "[]string"
		}
		return "[]interface{}"
	}
	return "interface{}"
}

func fields(schema *validation.JSONSchema) []Field {
	if schema == nil {
		return nil
	}
	required := map[string]bool{}
	for _, r := range schema.Required {
		required[r] = true
	}
	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Field, 0, len(names))
	for _, name := range names {
		p := schema.Properties[name]
		tag := name
		if !required[name] {
			tag += ",omitempty"
		}
		out = append(out, Field{GoName: goName(name), GoType: goType(name, p), JSON: tag, Doc: p.Description})
	}
	return out
}

// packageName turns a task type into the package name used under internal/workers.
func packageName(taskType string) string {
	return strings.ReplaceAll(taskType, "-", "")
}

// goDuration renders a registry timeout as a Go duration expression.
func goDuration(timeout string) string {
	d, err := time.ParseDuration(timeout)
	if err != nil || d <= 0 {
		return "30 * time.Second"
	}
	switch {
	case d%time.Minute == 0:
		return fmt.Sprintf("%d * time.Minute", d/time.Minute)
	case d%time.Second == 0:
		return fmt.Sprintf("%d * time.Second", d/time.Second)
	}
	return fmt.Sprintf("%d * time.Millisecond", d/time.Millisecond)
}

func newWorkerData(a *registry.Activity, outputDir string) WorkerData {
	data := WorkerData{
		Name:         a.DisplayName,
		PackageName:  packageName(a.TaskType),
		Dir:          filepath.ToSlash(filepath.Join(outputDir, a.TaskType)),
		TaskType:     a.TaskType,
		Description:  a.Description,
		Timeout:      goDuration(a.Timeout),
		InputFields:  fields(a.InputSchema),
		OutputFields: fields(a.OutputSchema),
	}
	if a.InputSchema != nil && len(a.InputSchema.Required) > 0 {
		data.RequiredField = a.InputSchema.Required[0]
	}
	return data
}

const configTemplate = `// {{ .Dir }}/config.go
package {{ .PackageName }}

import (
	"time"

	"candidate-evaluator/internal/common/validation"
)

type Config struct {
	Timeout     time.Duration
	InputSchema *validation.JSONSchema
}

func LoadConfig() *Config {
	return &Config{
		Timeout: {{ .Timeout }},
	}
}
`

const modelsTemplate = `// {{ .Dir }}/models.go
package {{ .PackageName }}

type Input struct {
{{- range .InputFields }}
{{- if .Doc }}
	// {{ .Doc }}
{{- end }}
	{{ .GoName }} {{ .GoType }} ` + "`json:\"{{ .JSON }}\"`" + `
{{- end }}
}

type Output struct {
{{- range .OutputFields }}
{{- if .Doc }}
	// {{ .Doc }}
{{- end }}
	{{ .GoName }} {{ .GoType }} ` + "`json:\"{{ .JSON }}\"`" + `
{{- end }}
}
`

const handlerTemplate = `// {{ .Dir }}/handler.go
package {{ .PackageName }}

import (
	"context"
	"encoding/json"
	"fmt"

	"candidate-evaluator/internal/common/errors"
	"candidate-evaluator/internal/common/logger"
	"candidate-evaluator/internal/common/metrics"
	"candidate-evaluator/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "{{ .TaskType }}"
)

{{ if .Description -}}
// Handler runs {{ .TaskType }} jobs: {{ .Description }}.
{{ end -}}
type Handler struct {
	config       *Config
	logger       logger.Logger
	errorHandler *errors.ErrorHandler
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		logger:       log,
		errorHandler: errors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	if err := registry.ValidateVariables(h.config.InputSchema, job.Variables); err != nil {
		h.fail(client, job, err)
		return
	}
	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(client, job, errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.fail(client, job, err)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	return nil, errors.NewBusinessRuleError(TaskType+" is not implemented", "")
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) fail(client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.Normalize(err).Code)).Inc()
	h.errorHandler.HandleJobError(context.Background(), client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
`

const testTemplate = `package {{ .PackageName }}

import (
	"testing"

	"candidate-evaluator/internal/common/camunda/camundatest"
	"candidate-evaluator/internal/common/logger"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Handle
// ==========================

func TestHandle_NotImplemented(t *testing.T) {
	client := camundatest.NewJobClient()
	NewHandler(LoadConfig(), logger.NewTestLogger(t)).Handle(client,
		camundatest.NewJob(1, TaskType, map[string]interface{}{ {{- if .RequiredField }}"{{ .RequiredField }}": 1{{ end -}} }, 3))

	assert.Equal(t, "BUSINESS_RULE_VIOLATION", client.ThrownCode(t))
}
`

// render executes the templates for data and returns gofmt'ed sources by file name.
func render(data WorkerData) (map[string][]byte, error) {
	templates := map[string]string{
		"config.go":       configTemplate,
		"models.go":       modelsTemplate,
		"handler.go":      handlerTemplate,
		"handler_test.go": testTemplate,
	}

	files := make(map[string][]byte, len(templates))
	for name, text := range templates {
		tmpl, err := template.New(name).Parse(text)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("execute template %s: %w", name, err)
		}
		src, err := format.Source(buf.Bytes())
		if err != nil {
			return nil, fmt.Errorf("format %s: %w", name, err)
		}
		files[name] = src
	}
	return files, nil
}

func generate(reg *registry.ActivityRegistry, taskType, outputDir string, force bool) (string, error) {
	activity, ok := reg.Find(taskType)
	if !ok {
		return "", fmt.Errorf("task type %s not found in registry", taskType)
	}
	data := newWorkerData(activity, outputDir)

	files, err := render(data)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(outputDir, activity.TaskType)
	if _, err := os.Stat(dir); err == nil && !force {
		return "", fmt.Errorf("%s already exists (use -force to overwrite)", dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	for name, src := range files {
		if err := os.WriteFile(filepath.Join(dir, name), src, 0o644); err != nil {
			return "", err
		}
	}
	return dir, nil
}

func main() {
	taskType := flag.String("taskType", "", "Task type from the registry (e.g., export-ranking-report)")
	outputDir := flag.String("output", "internal/workers/evaluation", "Directory the worker package is created in")
	registryPath := flag.String("registry", "configs/activity-registry.json", "Path to the activity registry JSON file")
	force := flag.Bool("force", false, "Overwrite an existing worker package")
	flag.Parse()

	if *taskType == "" {
		fmt.Println("Usage: worker-generator -taskType <task-type> [-output <dir>] [-registry <path>] [-force]")
		os.Exit(1)
	}

	reg, err := registry.LoadRegistry(*registryPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading registry from %s: %v\n", *registryPath, err)
		os.Exit(1)
	}

	dir, err := generate(reg, *taskType, *outputDir, *force)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Worker scaffold generated at %s\n", dir)
	fmt.Println("Next steps:")
	fmt.Println("  1. Implement execute in handler.go")
	fmt.Println("  2. Register the worker in cmd/worker-manager/main.go")
	fmt.Println("  3. Add its timeout under workers in configs/config.yaml")
}
