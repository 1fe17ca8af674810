// cmd/tools/worker-generator/main.go
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/vmaktproject-ai/renewableZmart-sub001/pkg/registry"
)

const modulePath = "github.com/vmaktproject-ai/renewableZmart-sub001"

// WorkerData holds data for templates
type WorkerData struct {
	Module       string
	Name         string
	PackageName  string
	TaskType     string
	Description  string
	InputFields  []Field
	OutputFields []Field
	Timeout      time.Duration
}

// Field is one struct field derived from a schema property.
type Field struct {
	Name    string
	GoType  string
	JSONKey string
}

// fieldsFromSchema turns schema properties into struct fields sorted by key.
func fieldsFromSchema(schema map[string]interface{}) []Field {
	props, _ := schema["properties"].(map[string]interface{})
	fields := make([]Field, 0, len(props))
	for key, raw := range props {
		details, _ := raw.(map[string]interface{})
		fields = append(fields, Field{
			Name:    exportedName(key),
			GoType:  goTypeFromJSONType(details["type"]),
			JSONKey: key,
		})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].JSONKey < fields[j].JSONKey })
	return fields
}

// goTypeFromJSONType maps JSON schema types to Go types. Untyped amounts
// become decimals.
func goTypeFromJSONType(jsonType interface{}) string {
	jt, _ := jsonType.(string)
	switch jt {
	case "string":
		return "string"
	case "integer":
		return "int"
	case "number":
		return "float64"
	case "boolean":
		return "bool"
	case "object":
		return "map[string]interface{}"
	case "array":
		return "[]interface{}"
	case "":
		return "decimal.Decimal"
	default:
		return "interface{}"
	}
}

// exportedName converts a camelCase key to an exported Go name, keeping
// the trailing Id and Url initialisms upper case.
func exportedName(key string) string {
	if key == "" {
		return key
	}
	name := strings.ToUpper(key[:1]) + key[1:]
	for _, suffix := range []string{"Id", "Url"} {
		if strings.HasSuffix(name, suffix) {
			name = strings.TrimSuffix(name, suffix) + strings.ToUpper(suffix)
		}
	}
	return name
}

func usesDecimal(data WorkerData) bool {
	for _, f := range append(append([]Field{}, data.InputFields...), data.OutputFields...) {
		if f.GoType == "decimal.Decimal" {
			return true
		}
	}
	return false
}

const configTemplate = `// internal/workers/installment/{{ .TaskType }}/config.go
package {{ .PackageName }}

import (
	"time"

	"{{ .Module }}/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

func ConfigFrom(wcfg config.WorkerConfig) *Config {
	timeout := config.GetDuration(wcfg.Timeout)
	if timeout <= 0 {
		timeout = {{ .Timeout.Milliseconds }} * time.Millisecond
	}
	return &Config{Timeout: timeout}
}
`

const modelsTemplate = `// internal/workers/installment/{{ .TaskType }}/models.go
package {{ .PackageName }}
{{ if usesDecimal . }}
import "github.com/shopspring/decimal"
{{ end }}
type Input struct {
{{- range .InputFields }}
	{{ .Name }} {{ .GoType }} ` + "`json:\"{{ .JSONKey }}\"`" + `
{{- end }}
}

type Output struct {
{{- range .OutputFields }}
	{{ .Name }} {{ .GoType }} ` + "`json:\"{{ .JSONKey }}\"`" + `
{{- end }}
}
`

const handlerTemplate = `// internal/workers/installment/{{ .TaskType }}/handler.go
package {{ .PackageName }}

import (
	"context"
	"encoding/json"
	"time"

	"{{ .Module }}/internal/common/errors"
	"{{ .Module }}/internal/common/logger"
	"{{ .Module }}/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "{{ .TaskType }}"

// Handler serves {{ .Name }} jobs. {{ .Description }}
type Handler struct {
	config       *Config
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		errorHandler: errors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(ctx context.Context, client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(ctx, h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(ctx, client, job, errors.NewInputParsingFailedError(err))
		return
	}

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(ctx, client, job, err)
		return
	}

	cmd, err := client.NewCompleteJobCommand().JobKey(job.Key).VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"error": err.Error()})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"error": err.Error()})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
}

func (h *Handler) execute(_ context.Context, _ *Input) (*Output, error) {
	return &Output{}, nil
}

func (h *Handler) failJob(ctx context.Context, client worker.JobClient, job entities.Job, err error) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errors.CodeOf(err)).Inc()
	h.errorHandler.HandleJobError(ctx, client, job, err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
`

const testTemplate = `// internal/workers/installment/{{ .TaskType }}/handler_test.go
package {{ .PackageName }}

import (
	"context"
	"testing"

	"{{ .Module }}/internal/common/config"
	"{{ .Module }}/internal/common/logger"

	"github.com/stretchr/testify/require"
)

func TestHandler_Execute(t *testing.T) {
	h := NewHandler(ConfigFrom(config.WorkerConfig{}), logger.NewTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{})
	require.NoError(t, err)
	require.NotNil(t, output)
}
`

var templates = map[string]string{
	"config.go":       configTemplate,
	"models.go":       modelsTemplate,
	"handler.go":      handlerTemplate,
	"handler_test.go": testTemplate,
}

func newWorkerData(a *registry.Activity) WorkerData {
	timeout, err := time.ParseDuration(a.Timeout)
	if err != nil || timeout <= 0 {
		timeout = 30 * time.Second
	}
	return WorkerData{
		Module:       modulePath,
		Name:         a.DisplayName,
		PackageName:  strings.ReplaceAll(a.TaskType, "-", ""),
		TaskType:     a.TaskType,
		Description:  a.Description,
		InputFields:  fieldsFromSchema(a.InputSchema),
		OutputFields: fieldsFromSchema(a.OutputSchema),
		Timeout:      timeout,
	}
}

// generate renders every template into dir. Existing files are kept unless
// force is set.
func generate(data WorkerData, dir string, force bool) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create directory: %w", err)
	}

	funcs := template.FuncMap{"usesDecimal": usesDecimal}
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	sort.Strings(names)

	var written []string
	for _, name := range names {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil && !force {
			continue
		}

		tmpl, err := template.New(name).Funcs(funcs).Parse(templates[name])
		if err != nil {
			return written, fmt.Errorf("parse template %s: %w", name, err)
		}
		file, err := os.Create(path)
		if err != nil {
			return written, fmt.Errorf("create %s: %w", path, err)
		}
		err = tmpl.Execute(file, data)
		file.Close()
		if err != nil {
			return written, fmt.Errorf("render %s: %w", name, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func main() {
	activity := flag.String("activity", "", "Activity ID from registry (e.g., confirm-installment-payment)")
	outputDir := flag.String("output", "./internal/workers/installment/", "Directory that receives the worker package")
	registryPath := flag.String("registry", "configs/activity-registry.json", "Path to the activity registry JSON file")
	force := flag.Bool("force", false, "Overwrite existing files")
	flag.Parse()

	if *activity == "" {
		fmt.Println("Usage: worker-generator -activity <id> [-output <dir>] [-registry <path>] [-force]")
		os.Exit(1)
	}

	reg, err := registry.LoadRegistry(*registryPath)
	if err != nil {
		fmt.Printf("Error loading registry from %s: %v\n", *registryPath, err)
		os.Exit(1)
	}

	var found *registry.Activity
	for i := range reg.Activities {
		if reg.Activities[i].ID == *activity {
			found = &reg.Activities[i]
			break
		}
	}
	if found == nil {
		fmt.Printf("Activity '%s' not found in registry %s\n", *activity, *registryPath)
		os.Exit(1)
	}

	data := newWorkerData(found)
	written, err := generate(data, filepath.Join(*outputDir, found.TaskType), *force)
	for _, path := range written {
		fmt.Printf("Generated %s\n", path)
	}
	if err != nil {
		fmt.Printf("Error generating worker: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Register %s.TaskType in cmd/worker-manager/workers.go and add it to configs/config.yaml.\n", data.PackageName)
}
