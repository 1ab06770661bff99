package export

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/de-tools/alca/pkg/models/domain"
)

// Handler renders a report.
type Handler interface {
	Handle(report *domain.Report) error
}

const (
	FormatTable = "table"
	FormatText  = "text"
)

// NewHandler returns the renderer for format.
func NewHandler(format string, writer io.Writer) (Handler, error) {
	switch format {
	case FormatTable, "":
		return NewReporter(writer), nil
	case FormatText:
		return NewTextReporter(writer), nil
	default:
		return nil, &domain.ConfigError{Field: "format", Message: fmt.Sprintf("unsupported output format %q", format)}
	}
}

// reportLayout holds the header and section summary shared by both renderers.
const reportLayout = `{{define "header"}}{{.Title}}
  window: {{.Period.Start.Format "2006-01-02"}} .. {{.Period.End.Format "2006-01-02"}} ({{.Period.Duration}} days)
{{- if .TotalAmount}}
  total:  {{.Currency}} {{printf "%.2f" .TotalAmount}}
{{- end}}
{{end}}{{define "summary"}}{{range $key, $value := .Summary}}  {{$key}}: {{$value}}
{{end}}{{end}}`

type TableConfig struct {
	NameWidth        int
	ValueWidth       int
	UnitWidth        int
	DescriptionWidth int
}

func DefaultTableConfig() TableConfig {
	return TableConfig{
		NameWidth:        40,
		ValueWidth:       48,
		UnitWidth:        6,
		DescriptionWidth: 32,
	}
}

type Reporter struct {
	writer io.Writer
	config TableConfig
}

func NewReporter(writer io.Writer) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &Reporter{
		writer: writer,
		config: DefaultTableConfig(),
	}
}

func (c *Reporter) Handle(report *domain.Report) error {
	funcMap := template.FuncMap{
		"formatRow": func(name string, value interface{}, unit string, desc string) string {
			unitStr := unit
			if unit == "" {
				unitStr = strings.Repeat(" ", c.config.UnitWidth)
			}
			return fmt.Sprintf("| %-*s | %-*v | %-*s | %-*s |",
				c.config.NameWidth, truncate(name, c.config.NameWidth),
				c.config.ValueWidth, value,
				c.config.UnitWidth, unitStr,
				c.config.DescriptionWidth, desc)
		},
		"separator": func() string {
			return fmt.Sprintf("+%s+%s+%s+%s+",
				strings.Repeat("-", c.config.NameWidth+2),
				strings.Repeat("-", c.config.ValueWidth+2),
				strings.Repeat("-", c.config.UnitWidth+2),
				strings.Repeat("-", c.config.DescriptionWidth+2))
		},
	}

	tmpl := reportLayout + `{{template "header" .}}{{range .Sections}}
[{{.Title}}]
{{template "summary" .}}{{separator}}
{{formatRow "Name" "Value" "Unit" "Description"}}
{{separator}}
{{range .Details}}{{formatRow .Name .Value .Unit .Description}}
{{end}}{{separator}}
{{end}}`

	t, err := template.New("report").Funcs(funcMap).Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, report)
}

// truncate keeps long blob paths inside their column.
func truncate(s string, width int) string {
	if len(s) <= width || width < 4 {
		return s
	}
	return "..." + s[len(s)-width+3:]
}
