package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"workbench/internal/config"
	"workbench/internal/containerizer"
	"workbench/internal/orchestrator"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format for CLI commands
type OutputFormat string

const (
	OutputFormatTable OutputFormat = "table"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatYAML  OutputFormat = "yaml"
)

// ParseOutputFormat validates a user-supplied format name.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s (use table, json or yaml)", s)
	}
}

// Printer renders command results in one output format.
type Printer struct {
	out    io.Writer
	format OutputFormat
}

// NewPrinter creates a printer writing to out.
func NewPrinter(out io.Writer, format string) (*Printer, error) {
	f, err := ParseOutputFormat(format)
	if err != nil {
		return nil, err
	}
	return &Printer{out: out, format: f}, nil
}

// structured prints v as JSON or YAML and reports whether it did.
func (p *Printer) structured(v any) (bool, error) {
	switch p.format {
	case OutputFormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return true, fmt.Errorf("failed to encode JSON: %w", err)
		}
		_, err = fmt.Fprintln(p.out, string(data))
		return true, err
	case OutputFormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return true, fmt.Errorf("failed to convert to YAML: %w", err)
		}
		_, err = p.out.Write(data)
		return true, err
	}
	return false, nil
}

func (p *Printer) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(table.StyleRounded)
	return t
}

// Status prints the orchestrator state followed by the stack's containers.
func (p *Printer) Status(st orchestrator.Status) error {
	if done, err := p.structured(st); done {
		return err
	}

	t := p.newTable()
	state := formatState(st.State)
	if st.StateSource == orchestrator.StateSourceEngine {
		state += text.Faint.Sprint(" (from containers)")
	}
	t.AppendRow(table.Row{text.FgHiCyan.Sprint("STATE"), state})
	if st.Operation != "" {
		t.AppendRow(table.Row{text.FgHiCyan.Sprint("OPERATION"), st.Operation})
	}
	t.AppendRow(table.Row{text.FgHiCyan.Sprint("WEB UI"), st.WebUIURL})
	if st.Prerequisites != nil {
		t.AppendRow(table.Row{text.FgHiCyan.Sprint("DOCKER"), formatPrerequisites(*st.Prerequisites)})
	}
	if st.LastError != "" {
		t.AppendRow(table.Row{text.FgHiCyan.Sprint("LAST ERROR"), text.FgRed.Sprint(st.LastError)})
	}
	if st.EngineError != "" {
		t.AppendRow(table.Row{text.FgHiCyan.Sprint("ENGINE"), text.FgYellow.Sprint(st.EngineError)})
	}
	t.Render()

	return p.containerTable(st.Containers)
}

// Containers prints the stack's containers.
func (p *Printer) Containers(containers []containerizer.ContainerInfo) error {
	if containers == nil {
		containers = []containerizer.ContainerInfo{}
	}
	if done, err := p.structured(containers); done {
		return err
	}
	return p.containerTable(containers)
}

func (p *Printer) containerTable(containers []containerizer.ContainerInfo) error {
	if len(containers) == 0 {
		_, err := fmt.Fprintln(p.out, text.FgYellow.Sprint("No containers found"))
		return err
	}

	t := p.newTable()
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("SERVICE"),
		text.FgHiCyan.Sprint("CONTAINER"),
		text.FgHiCyan.Sprint("STATE"),
		text.FgHiCyan.Sprint("STATUS"),
		text.FgHiCyan.Sprint("IMAGE"),
		text.FgHiCyan.Sprint("PORTS"),
	})
	for _, c := range containers {
		t.AppendRow(table.Row{
			c.Service,
			c.Name,
			formatContainerState(c.State),
			c.Status,
			truncate(c.Image, 40),
			strings.Join(c.Ports, ", "),
		})
	}
	t.Render()
	return nil
}

// Config prints cfg with secrets masked unless reveal is set.
func (p *Printer) Config(cfg config.StackConfig, reveal bool) error {
	if !reveal {
		cfg = cfg.Redacted()
	}
	if done, err := p.structured(cfg); done {
		return err
	}

	t := p.newTable()
	t.AppendHeader(table.Row{text.FgHiCyan.Sprint("KEY"), text.FgHiCyan.Sprint("VALUE")})
	t.AppendRows([]table.Row{
		{"webuiPort", cfg.WebUIPort},
		{"inferencePort", cfg.InferencePort},
		{"fileApiPort", cfg.FileAPIPort},
		{"adminEmail", cfg.AdminEmail},
		{"adminPassword", cfg.AdminPassword},
		{"fileApiKey", cfg.FileAPIKey},
		{"allowedFolders", strings.Join(cfg.AllowedFolders, "\n")},
	})
	t.Render()
	return nil
}

// Prerequisites prints the runtime probe result.
func (p *Printer) Prerequisites(pr containerizer.Prerequisites) error {
	if done, err := p.structured(pr); done {
		return err
	}
	_, err := fmt.Fprintln(p.out, formatPrerequisites(pr))
	return err
}

func formatPrerequisites(pr containerizer.Prerequisites) string {
	switch {
	case !pr.Installed:
		return text.FgRed.Sprint("❌ Docker Desktop not installed") + " (" + containerizer.RuntimeDownloadURL + ")"
	case !pr.Running:
		return text.FgYellow.Sprint("⚠️  installed at "+pr.Location+", not running")
	default:
		return text.FgGreen.Sprint("✅ running") + " (" + pr.Location + ")"
	}
}

// formatState formats the orchestrator state with icons
func formatState(s orchestrator.State) string {
	switch {
	case s == orchestrator.StateError:
		return text.FgRed.Sprint("❌ " + string(s))
	case s == orchestrator.StateServicesStarting:
		return text.FgYellow.Sprint("⏳ " + string(s))
	case s.Running():
		return text.FgGreen.Sprint("▶️  " + string(s))
	default:
		return string(s)
	}
}

func formatContainerState(state string) string {
	switch strings.ToLower(state) {
	case "running":
		return text.FgGreen.Sprint("🟢 " + state)
	case "exited", "dead":
		return text.FgRed.Sprint("🔴 " + state)
	case "restarting", "created", "paused":
		return text.FgYellow.Sprint("🟡 " + state)
	default:
		return state
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
