package setup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mlhealth/riskview/internal/config"
	"github.com/mlhealth/riskview/internal/domain"
	"github.com/mlhealth/riskview/internal/render"
	"github.com/mlhealth/riskview/internal/service"
)

// CLI provides the command-line interface over an App.
type CLI struct {
	app    *App
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

// NewCLI creates a new CLI instance.
func NewCLI(app *App) *CLI {
	return &CLI{
		app:    app,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// WithIO replaces the standard streams.
func (c *CLI) WithIO(stdin io.Reader, stdout, stderr io.Writer) *CLI {
	c.stdin = stdin
	c.stdout = stdout
	c.stderr = stderr
	return c
}

// Run executes the command based on the provided arguments.
func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return c.showHelp()
	}

	switch args[0] {
	case "body":
		return c.runBody(ctx, args[1:])
	case "mind":
		return c.runMind(ctx, args[1:])
	case "config":
		return c.showConfig()
	case "status":
		return c.showStatus()
	case "help", "--help", "-h":
		return c.showHelp()
	default:
		fmt.Fprintf(c.stdout, "Unknown command: %s\n\n", args[0])
		_ = c.showHelp()
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

// showHelp displays usage information.
func (c *CLI) showHelp() error {
	help := `
riskview - health risk presentation

Usage:
  riskview <command> [options]

Commands:
  body     Assess cardiac risk from a metrics file
  mind     Assess mood from a free-text description
  config   Print the effective configuration
  status   Show prediction service, cache and report settings

Body options:
  --input, -i FILE      Metrics file (YAML or JSON, "-" for stdin)
  --format FORMAT       Input format: yaml or json (default from extension)
  --set KEY=VALUE       Override one metric, may be repeated
  --patient-id ID       Reference patient ID shown on the report
  --html FILE           Write the HTML report to FILE
  --save                Write the HTML report to report.output_dir
  --json                Print the report as JSON instead of text

Mind options:
  --text, -t TEXT       Description of how you feel
  --text-file FILE      Read the description from FILE ("-" for stdin)
  --html FILE           Write the HTML report to FILE
  --save                Write the HTML report to report.output_dir
  --json                Print the report as JSON instead of text

Examples:
  riskview body --input metrics.yaml --patient-id P-102 --html report.html
  riskview body --set age=62 --set restingBP=145 --set maxheartrate=130
  riskview mind --text "I can't sleep and everything feels heavy"
`
	fmt.Fprintln(c.stdout, help)
	return nil
}

// outputOptions are shared by body and mind.
type outputOptions struct {
	htmlPath string
	save     bool
	json     bool
}

// parseOutputFlag consumes an output flag at args[i]. It returns the new index
// and whether the flag was recognized.
func parseOutputFlag(args []string, i int, out *outputOptions) (int, bool, error) {
	switch args[i] {
	case "--html":
		v, err := flagValue(args, i)
		if err != nil {
			return i, true, err
		}
		out.htmlPath = v
		return i + 1, true, nil
	case "--save":
		out.save = true
		return i, true, nil
	case "--json":
		out.json = true
		return i, true, nil
	}
	return i, false, nil
}

func flagValue(args []string, i int) (string, error) {
	if i+1 >= len(args) {
		return "", fmt.Errorf("missing value for %s", args[i])
	}
	return args[i+1], nil
}

// runBody handles the body sub-command.
func (c *CLI) runBody(ctx context.Context, args []string) error {
	var (
		input     string
		format    string
		patientID string
		overrides []string
		out       outputOptions
	)

	for i := 0; i < len(args); i++ {
		next, ok, err := parseOutputFlag(args, i, &out)
		if err != nil {
			return err
		}
		if ok {
			i = next
			continue
		}

		switch args[i] {
		case "--input", "-i", "--format", "--patient-id", "--set":
			v, err := flagValue(args, i)
			if err != nil {
				return err
			}
			switch args[i] {
			case "--input", "-i":
				input = v
			case "--format":
				format = v
			case "--patient-id":
				patientID = v
			case "--set":
				overrides = append(overrides, v)
			}
			i++
		default:
			return fmt.Errorf("unknown option for body: %s", args[i])
		}
	}

	metrics, err := c.loadMetrics(input, format)
	if err != nil {
		return err
	}
	for _, kv := range overrides {
		key, value, found := strings.Cut(kv, "=")
		if !found {
			return fmt.Errorf("invalid --set value %q, expected KEY=VALUE", kv)
		}
		if err := metrics.Set(strings.TrimSpace(key), value); err != nil {
			return err
		}
	}
	if patientID != "" {
		metrics.PatientID = patientID
	}

	report, err := c.app.Body.Submit(ctx, func(ctx context.Context) (*service.BodyReport, error) {
		return c.app.Assessments.AssessBody(ctx, metrics)
	})
	if err != nil {
		return c.fail(c.app.Body.Snapshot().ErrorMessage, err)
	}

	if out.json {
		if err := writeJSON(c.stdout, report); err != nil {
			return err
		}
	} else if err := render.WriteBodySummary(c.stdout, report); err != nil {
		return err
	}

	return c.writeHTML(out, "body", report.GeneratedAt, func(w io.Writer) error {
		return render.RenderBodyReport(w, report)
	})
}

// runMind handles the mind sub-command.
func (c *CLI) runMind(ctx context.Context, args []string) error {
	var (
		text     string
		textFile string
		out      outputOptions
	)

	for i := 0; i < len(args); i++ {
		next, ok, err := parseOutputFlag(args, i, &out)
		if err != nil {
			return err
		}
		if ok {
			i = next
			continue
		}

		switch args[i] {
		case "--text", "-t":
			v, err := flagValue(args, i)
			if err != nil {
				return err
			}
			text = v
			i++
		case "--text-file":
			v, err := flagValue(args, i)
			if err != nil {
				return err
			}
			textFile = v
			i++
		default:
			return fmt.Errorf("unknown option for mind: %s", args[i])
		}
	}

	if text != "" && textFile != "" {
		return fmt.Errorf("use either --text or --text-file, not both")
	}
	if textFile != "" {
		data, err := c.readInput(textFile)
		if err != nil {
			return err
		}
		text = string(data)
	}

	report, err := c.app.Mind.Submit(ctx, func(ctx context.Context) (*service.MindReport, error) {
		return c.app.Assessments.AssessMind(ctx, text)
	})
	if err != nil {
		return c.fail(c.app.Mind.Snapshot().ErrorMessage, err)
	}

	if out.json {
		if err := writeJSON(c.stdout, report); err != nil {
			return err
		}
	} else if err := render.WriteMindSummary(c.stdout, report); err != nil {
		return err
	}

	return c.writeHTML(out, "mind", report.GeneratedAt, func(w io.Writer) error {
		return render.RenderMindReport(w, report)
	})
}

// showConfig prints the effective configuration as YAML.
func (c *CLI) showConfig() error {
	if used := c.app.Config.ConfigFileUsed(); used != "" {
		fmt.Fprintf(c.stdout, "# config file: %s\n", used)
	} else {
		fmt.Fprintln(c.stdout, "# config file: none (defaults and environment)")
	}

	enc := yaml.NewEncoder(c.stdout)
	enc.SetIndent(2)
	if err := enc.Encode(c.app.Config.AllSettings()); err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	return enc.Close()
}

// showStatus displays the current setup status.
func (c *CLI) showStatus() error {
	status := c.app.Status()

	fmt.Fprintln(c.stdout, "riskview Status")
	fmt.Fprintln(c.stdout, "===============")
	fmt.Fprintln(c.stdout)

	fmt.Fprintln(c.stdout, "Prediction service:")
	fmt.Fprintf(c.stdout, "  Base URL: %s\n", status.BaseURL)
	fmt.Fprintf(c.stdout, "  Body circuit: %s\n", status.BodyBreaker)
	fmt.Fprintf(c.stdout, "  Mind circuit: %s\n", status.MindBreaker)
	fmt.Fprintln(c.stdout)

	fmt.Fprintln(c.stdout, "Forms:")
	printForm(c.stdout, "Body", status.BodyForm)
	printForm(c.stdout, "Mind", status.MindForm)
	fmt.Fprintln(c.stdout)

	fmt.Fprintln(c.stdout, "Response cache:")
	fmt.Fprintf(c.stdout, "  Backend: %s\n", status.CacheBackend)
	if status.CacheStats != nil {
		fmt.Fprintf(c.stdout, "  Hits: %d  Misses: %d  Errors: %d\n",
			status.CacheStats.Hits, status.CacheStats.Misses, status.CacheStats.Errors)
	}
	fmt.Fprintln(c.stdout)

	fmt.Fprintln(c.stdout, "Reports:")
	fmt.Fprintf(c.stdout, "  Directory: %s\n", status.ReportDir)
	if status.ReportDirExists {
		fmt.Fprintln(c.stdout, "  Status: ✓ Exists")
	} else {
		fmt.Fprintln(c.stdout, "  Status: - Will be created on first save")
	}
	fmt.Fprintln(c.stdout)

	if len(status.Issues) > 0 {
		fmt.Fprintln(c.stdout, "Notes:")
		for _, issue := range status.Issues {
			fmt.Fprintf(c.stdout, "  ⚠ %s\n", issue)
		}
		fmt.Fprintln(c.stdout)
	}
	return nil
}

func printForm(w io.Writer, label string, fs FormStatus) {
	if fs.Transitions == 0 {
		fmt.Fprintf(w, "  %s: %s\n", label, fs.State)
		return
	}
	fmt.Fprintf(w, "  %s: %s (%d transitions, last %s)\n",
		label, fs.State, fs.Transitions, fs.LastChange.UTC().Format(time.RFC3339))
}

func (c *CLI) loadMetrics(path, format string) (domain.PatientMetrics, error) {
	if path == "" {
		return domain.PatientMetrics{}, nil
	}
	if format == "" {
		format = formatFromPath(path)
	}

	data, err := c.readInput(path)
	if err != nil {
		return domain.PatientMetrics{}, err
	}
	return c.app.Parser.LoadMetrics(bytes.NewReader(data), format)
}

func (c *CLI) readInput(path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(c.stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

func formatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return service.FormatJSON
	default:
		return service.FormatYAML
	}
}

// writeHTML writes the HTML report to --html and/or the report directory.
func (c *CLI) writeHTML(out outputOptions, kind string, at time.Time, renderFn func(io.Writer) error) error {
	var paths []string
	if out.htmlPath != "" {
		paths = append(paths, out.htmlPath)
	}
	if out.save {
		dir := c.app.Config.GetConfig().Report.OutputDir
		if err := config.EnsureDir(dir); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
		paths = append(paths, config.ReportPath(dir, kind, "html", at))
	}

	for _, path := range paths {
		if err := writeFile(path, renderFn); err != nil {
			return err
		}
		fmt.Fprintf(c.stderr, "Report written to %s\n", path)
		c.app.Logger.WithField("path", path).Info("HTML report written")
	}
	return nil
}

func writeFile(path string, renderFn func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()
	if err := renderFn(f); err != nil {
		return fmt.Errorf("failed to render %s: %w", path, err)
	}
	return nil
}

// fail prints the user-facing message and returns err for the exit status.
func (c *CLI) fail(message string, err error) error {
	if message == "" {
		message = domain.UserMessage(err)
	}
	fmt.Fprintf(c.stderr, "Error: %s\n", message)
	return err
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
