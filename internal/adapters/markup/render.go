// Package markup renders schedule layouts to HTML and reads assignments back out of it.
package markup

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"

	"github.com/hylla/rota/internal/domain"
)

// Class and attribute names shared by the renderer and the parser.
const (
	CellClass  = "duty-cell"
	InputClass = "assignment-input"
	KeyAttr    = "data-duty"
)

// editorScript wires the interactive page to /save, /commit and /pdf.
//
//go:embed static/schedule.js
var editorScript string

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Layout.Title}}</title>
<style>
@page { size: legal landscape; margin: 0.4in; }
body { font-family: sans-serif; font-size: 11pt; }
h1 { text-align: center; margin: 0 0 0.5em; }
section { break-inside: avoid; margin-bottom: 1em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #999; padding: 2px 6px; text-align: left; }
th.duty { width: 14em; }
td.duty-cell { cursor: move; }
td.empty { background: #eee; }
input.assignment-input { width: 100%; border: 0; font: inherit; background: transparent; }
input.highlight { background: #ffeb99; }
td.over { outline: 2px dashed #36c; }
td.dragging { opacity: 0.4; }
.controls { text-align: center; margin-bottom: 1em; }
.toast { position: fixed; bottom: 1em; right: 1em; padding: 0.5em 1em; border-radius: 4px; background: #333; color: #fff; opacity: 0; transition: opacity 1s; }
.toast.visible { opacity: 0.95; }
@media print { .controls, .toast { display: none; } }
</style>
</head>
<body{{if .Interactive}} data-year="{{.Year}}" data-month="{{.Month}}"{{end}}>
<h1>{{.Layout.Title}}</h1>
{{- if .Interactive}}
<div class="controls"><button type="button" id="commit-schedule">Commit</button> <button type="button" id="download-pdf">Download PDF</button></div>
{{- end}}
{{- range .Layout.Sections}}
<section>
<h2>{{.Title}}</h2>
<table>
<thead><tr><th class="duty"></th>{{range .Columns}}<th>{{.}}</th>{{end}}</tr></thead>
<tbody>
{{- range .Rows}}
{{- $duty := .Duty}}
<tr><th class="duty">{{.Label}}</th>
{{- range .Slots}}
{{- if .Key}}
{{- if $.Interactive}}<td class="{{$.CellClass}}" draggable="true" data-duty="{{.Key}}"><input class="{{$.InputClass}}" type="text" list="{{$duty}}" value="{{.Value}}"></td>
{{- else}}<td class="{{$.CellClass}}" data-duty="{{.Key}}">{{.Value}}</td>
{{- end}}
{{- else}}<td class="empty"></td>
{{- end}}
{{- end}}
</tr>
{{- end}}
</tbody>
</table>
</section>
{{- end}}
{{- if .Interactive}}
{{- range $duty, $names := .Layout.Suggestions}}
<datalist id="{{$duty}}">{{range $names}}<option value="{{.}}">{{end}}</datalist>
{{- end}}
<div class="toast" id="toast"></div>
<script>{{.Script}}</script>
{{- end}}
</body>
</html>
`

// Renderer renders layouts with a parsed page template.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the page template.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("page").Parse(pageTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse page template: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render writes one table per section. Interactive output carries editable
// inputs with a datalist per duty plus the editor controls and script;
// otherwise values are plain text.
func (r *Renderer) Render(layout domain.Layout, interactive bool) ([]byte, error) {
	var buf bytes.Buffer
	err := r.tmpl.Execute(&buf, struct {
		Layout      domain.Layout
		Interactive bool
		CellClass   string
		InputClass  string
		Year        int
		Month       int
		Script      template.JS
	}{
		Layout:      layout,
		Interactive: interactive,
		CellClass:   CellClass,
		InputClass:  InputClass,
		Year:        layout.Year,
		Month:       int(layout.Month),
		Script:      template.JS(editorScript),
	})
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", layout.Title, err)
	}
	return buf.Bytes(), nil
}
