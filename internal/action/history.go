package action

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/gyaneshwarpardhi/actionserver/internal/tracker"
)

var historyHTML = template.Must(template.New("history").Parse(`<html><body>
<table border="1" cellpadding="4">
<tr><th>sender</th><th>message</th></tr>
{{- range . }}
<tr><td>{{ .Sender }}</td><td>{{ .Text }}{{ range .Buttons }}<br/>[{{ .Text }}]{{ end }}</td></tr>
{{- end }}
</table>
</body></html>`))

// HistoryHTML renders the conversation turns as an HTML table.
func HistoryHTML(t *tracker.Tracker) (string, error) {
	var buf bytes.Buffer
	if err := historyHTML.Execute(&buf, t.Turns()); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// HistoryText renders the conversation turns one per line, prefixed by the
// sender.
func HistoryText(t *tracker.Tracker) string {
	var b strings.Builder
	for _, turn := range t.Turns() {
		b.WriteString(turn.Sender)
		b.WriteString(": ")
		b.WriteString(turn.Text)
		for _, btn := range turn.Buttons {
			b.WriteString(" [")
			b.WriteString(btn.Text)
			b.WriteString("]")
		}
		b.WriteByte('\n')
	}
	return b.String()
}
