package export

import (
	"fmt"
	"io"
	"os"
	"text/template"

	"github.com/de-tools/alca/pkg/models/domain"
)

// TextReporter prints one line per detail, without table borders.
type TextReporter struct {
	writer io.Writer
}

func NewTextReporter(writer io.Writer) *TextReporter {
	if writer == nil {
		writer = os.Stdout
	}
	return &TextReporter{writer: writer}
}

func (c *TextReporter) Handle(report *domain.Report) error {
	tmpl := reportLayout + `{{template "header" .}}{{range .Sections}}
[{{.Title}}]
{{template "summary" .}}{{range .Details}}  * {{.Name}} = {{.Value}}{{if .Unit}} {{.Unit}}{{end}}{{if .Description}} ({{.Description}}){{end}}
{{end}}{{end}}`

	t, err := template.New("report").Parse(tmpl)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	return t.Execute(c.writer, report)
}
