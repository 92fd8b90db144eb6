package dashboard

import (
	"fmt"
	"html/template"

	"github.com/danmuck/shtops/internal/status"
)

type pageData struct {
	Overall   status.Severity
	Systems   []systemTile
	Attention []status.AttentionItem
}

type systemTile struct {
	Name       string
	CacheState string
	Critical   int
	Warn       int
}

func viewModel(report status.Report) pageData {
	data := pageData{
		Overall:   report.Overall,
		Attention: report.Attention,
	}
	for _, name := range status.Systems {
		cf := report.Cache[name]
		tile := systemTile{Name: name}
		switch {
		case cf.Err != "":
			tile.CacheState = "error"
		case !cf.Exists:
			tile.CacheState = "missing"
		case cf.Fresh:
			tile.CacheState = fmt.Sprintf("fresh (age %s)", ageLabel(cf.HasAge, cf.AgeSeconds))
		default:
			tile.CacheState = fmt.Sprintf("stale (age %s)", ageLabel(cf.HasAge, cf.AgeSeconds))
		}
		for _, item := range report.Attention {
			if item.System != name {
				continue
			}
			switch item.Severity {
			case status.SeverityCritical:
				tile.Critical++
			case status.SeverityWarn:
				tile.Warn++
			}
		}
		data.Systems = append(data.Systems, tile)
	}
	return data
}

func ageLabel(has bool, seconds int) string {
	if !has {
		return "unknown"
	}
	return status.FormatAge(seconds)
}

var indexTemplate = template.Must(template.New("index").Parse(indexHTML))

const indexHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8"/>
    <title>SHTops Dashboard</title>
    <style>
      body { font-family: system-ui, -apple-system, Segoe UI, Roboto, sans-serif; margin: 0; }
      .header { padding: 24px; border-bottom: 1px solid #ddd; }
      .status-panel { padding: 24px; }
      .grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(240px, 1fr)); gap: 12px; margin-bottom: 24px; }
      .tile { border: 1px solid #ddd; border-radius: 8px; padding: 12px; background: white; }
      .sev-ok { color: #0a7a20; }
      .sev-warn { color: #b36b00; }
      .sev-critical { color: #b00020; }
      .muted { color: #666; font-size: 0.9em; }
    </style>
  </head>
  <body>
    <div class="header">
      <h1 style="margin: 0;">SHTops Dashboard</h1>
      <p class="muted" style="margin: 8px 0 0 0;">Overall: <strong class="sev-{{ .Overall }}">{{ .Overall }}</strong></p>
    </div>
    <div class="status-panel">
      <div class="grid">
        {{ range .Systems }}
          <div class="tile">
            <h2 style="margin: 0 0 8px 0; font-size: 1.2em;">{{ .Name }}</h2>
            <p class="muted" style="margin: 4px 0;">Cache: {{ .CacheState }}</p>
            <p style="margin: 4px 0;">Attention: <span class="sev-critical">{{ .Critical }}</span> critical, <span class="sev-warn">{{ .Warn }}</span> warn</p>
          </div>
        {{ end }}
      </div>
      <h2>Attention</h2>
      {{ if .Attention }}
        <ul>
          {{ range .Attention }}
            <li><strong class="sev-{{ .Severity }}">{{ .Severity }}</strong> {{ .System }}: {{ .Message }}</li>
          {{ end }}
        </ul>
      {{ else }}
        <p class="muted">Nothing needs attention.</p>
      {{ end }}
    </div>
  </body>
</html>
`
