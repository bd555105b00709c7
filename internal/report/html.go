package report

import (
	"html/template"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/dimi-labs/kensho-cli/internal/model"
)

// Layout mirrors the Korean analyst report page: one card per section,
// items with the translated name, importance, and grouped data values.
const htmlLayout = `<!DOCTYPE html>
<html lang="ko">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Ticker}} {{.Form}} 분석 리포트</title>
    <style>
        body { font-family: Arial, sans-serif; background-color: #f5f5f5; }
        .container { margin: 0 auto; width: 90%; max-width: 1200px; }
        .header { text-align: center; margin: 20px 0; padding: 20px; background: white; border-radius: 8px; }
        .section { margin-bottom: 30px; background: white; padding: 20px; border-radius: 8px; box-shadow: 0 2px 4px rgba(0,0,0,0.1); }
        .item { padding: 15px; margin: 10px 0; background: #f8f9fa; border-radius: 4px; }
        .importance { font-weight: bold; color: #d32f2f; }
        .value-display { margin: 10px 0; padding: 10px; background: #e3f2fd; border-radius: 4px; }
        .value { font-size: 1.1em; color: #1976d2; font-weight: bold; }
        .meta-info { color: #666; font-size: 0.9em; }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>{{.Ticker}} {{.Form}} 분석 리포트</h1>
            {{if .FiledAt}}<div class="meta-info">제출일: {{.FiledAt}}{{if .Accession}} / 접수번호: {{.Accession}}{{end}}</div>{{end}}
        </div>
        {{range .Sections}}
        <div class="section">
            <h2>{{.KoreanName}}</h2>
            <div class="meta-info">{{.Name}}</div>
            {{range .Items}}
            <div class="item">
                <div class="meta-info">태그: {{.Concept}}</div>
                <div><strong>{{.Translation.KoreanName}}</strong></div>
                {{if .Translation.Description}}<div class="meta-info">설명: {{.Translation.Description}}</div>{{end}}
                {{if .Translation.Category}}<div class="meta-info">카테고리: {{.Translation.Category}}</div>{{end}}
                <div class="importance">중요도: {{.Translation.Importance}}</div>
                {{range .Data}}
                <div class="value-display">
                    <div class="value">{{.DisplayValue}}{{if .Unit}} {{.Unit}}{{end}}</div>
                    {{if .MembersKo}}<div class="meta-info">멤버: {{join .MembersKo ", "}}</div>{{end}}
                    {{if .Date}}<div class="meta-info">날짜: {{.Date}}</div>{{end}}
                    {{if .StartDate}}<div class="meta-info">기간: {{.StartDate}} ~ {{.EndDate}}</div>{{end}}
                </div>
                {{end}}
            </div>
            {{end}}
        </div>
        {{end}}
    </div>
</body>
</html>
`

var htmlTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"join": strings.Join,
}).Parse(htmlLayout))

// RenderHTML writes the HTML rendition of the report to w.
func RenderHTML(w io.Writer, rpt *model.Report) error {
	return eris.Wrap(htmlTemplate.Execute(w, rpt), "report: render html")
}

// WriteHTML writes the HTML report to path, creating parent directories.
func WriteHTML(rpt *model.Report, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrap(err, "report: create output dir")
	}
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "report: create %s", path)
	}
	defer f.Close()
	return RenderHTML(f, rpt)
}
