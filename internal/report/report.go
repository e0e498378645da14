// Package report renders batch processing results into an HTML email body
// styled for desktop mail clients.
package report

import (
	"html/template"
	"sort"
	"strings"

	"cargodocs/internal"
)

const css = `
    body, table, td, p { margin: 0; padding: 0; }
    table { border-collapse: separate; }
    body {
        width: 100% !important;
        background-color: #fafafa;
        font-family: Arial, Helvetica, sans-serif;
        color: #333333;
    }
    .table_wrapper { width: 100%; background-color: #fafafa; padding: 20px 0; }
    .table_container { width: 700px; background-color: #ffffff; border: 1px solid #dddddd; }
    .header_block { background-color: #667eea; color: #ffffff; text-align: center; padding: 30px 25px; }
    .header_title { font-size: 28px; font-weight: bold; padding-bottom: 5px; color: #ffffff; }
    .header_text { color: #f0f0f0; font-size: 15px; padding: 5px 0; }
    .summary { background-color: #f8f9fa; padding: 25px; border-bottom: 1px solid #e0e0e0; text-align: center; }
    .stat-cell { width: 25%; vertical-align: top; padding: 10px; }
    .stat-icon { font-size: 22px; padding-bottom: 5px; }
    .stat-number { font-size: 18px; padding-bottom: 5px; }
    .stat-label { font-size: 12px; text-transform: uppercase; }
    .section { padding: 16px; border-bottom: 1px solid #e0e0e0; }
    .section_title { font-size: 22px; color: #444444; font-weight: bold; }
    .folder_path { background-color: #f8f9fa; border-left: 3px solid #dee2e6; padding: 8px 12px; font-size: 12px; }
    .file_card { border: 1px solid #e9ecef; width: 100%; background-color: #ffffff; }
    .file_header { background-color: #f8f9fa; font-weight: bold; font-size: 14px; color: #555555; padding: 8px 12px; border-bottom: 1px solid #e9ecef; }
    .file_content { padding: 14px 10px; }
    pre { padding: 6px; margin: 0; font-family: 'Courier New', Courier, monospace; font-size: 13px; white-space: pre-wrap; word-wrap: break-word; }
    code { background-color: #e9ecef; }
    .footer_block { background-color: #f8f9fa; text-align: center; padding: 16px 25px; font-size: 12px; color: #777777; }
    .footer_text { padding: 8px 0; }
`

const reportTemplate = `<!DOCTYPE html>
<html lang="ru">
<head>
    <meta http-equiv="Content-Type" content="text/html; charset=UTF-8">
    <title>Отчёт об обработке документов</title>
    <style type="text/css">{{.CSS}}</style>
</head>
<body>
    <table role="presentation" class="table_wrapper" align="center" cellspacing="0" cellpadding="0">
    <tr><td align="center">
        <table role="presentation" class="table_container" cellspacing="0" cellpadding="0" width="700">
            <tr><td class="header_block" align="center">
                <p class="header_title">📊 Отчёт об обработке документов</p>
                <p class="header_text">Автоматическое уведомление о статусе обработки файлов</p>
                <p class="header_text">
                    <b>Отправитель:</b> <a href="mailto:{{.Sender}}">{{.Sender}}</a> |
                    <b>Дата:</b> {{.Date}}
                </p>
            </td></tr>
            <tr><td class="summary" align="center">
                <table role="presentation" width="100%" cellpadding="0" cellspacing="0">
                    <tr>
                    {{- range .Stats}}
                        <td class="stat-cell" align="center" valign="top"{{if .Background}} style="background-color:{{.Background}};"{{end}}>
                            <p class="stat-icon" style="color:{{.Color}};">{{.Icon}}</p>
                            <p class="stat-number" style="color:{{.NumberColor}};font-weight:{{.NumberWeight}};">{{.Count}}</p>
                            <p class="stat-label" style="color:{{.LabelColor}};">{{.Label}}</p>
                        </td>
                    {{- end}}
                    </tr>
                </table>
            </td></tr>
            {{- range .Sections}}
            <tr><td class="section" style="background-color: {{.Background}}; border-left: 5px solid {{.Color}};">
                <table role="presentation" width="100%">
                    <tr><td class="section_title">
                        <span style="color: {{.Color}};">{{.Icon}}</span>&nbsp;&nbsp;{{.Title}}
                    </td></tr>
                    <tr><td height="20"></td></tr>
                    {{- if .Folder}}
                    <tr><td class="folder_path">
                        📁 Копии файлов: <code>{{.Folder}}</code>
                        <br><small style="color: #666666;">🔗 Откройте папку в проводнике вручную</small>
                    </td></tr>
                    <tr><td height="12"></td></tr>
                    {{- end}}
                    {{- range .Files}}
                    <tr><td>
                        <table role="presentation" class="file_card">
                            <tr><td class="file_header">📄&nbsp;&nbsp;{{.Filename}}</td></tr>
                            {{- range .Messages}}
                            <tr><td class="file_content"><pre>{{.}}</pre></td></tr>
                            {{- end}}
                        </table>
                    </td></tr>
                    <tr><td height="8"></td></tr>
                    {{- end}}
                </table>
            </td></tr>
            {{- end}}
            <tr><td class="footer_block">
                <p class="footer_text">
                    С уважением,<br>
                    <b>Система автоматической обработки документов</b>
                </p>
                <p class="footer_text" style="color: #999999; font-size: 11px;">
                    Это автоматическое сообщение. Пожалуйста, не отвечайте на него.
                </p>
            </td></tr>
        </table>
    </td></tr>
    </table>
</body>
</html>`

var tmpl = template.Must(template.New("report").Parse(reportTemplate))

type statCell struct {
	Label      string
	Color      string
	Background string
	Icon       string
	Count      int
}

func (s statCell) NumberColor() string {
	if s.Count > 0 {
		return s.Color
	}
	return "#999999"
}

func (s statCell) NumberWeight() string {
	if s.Count > 0 {
		return "bold"
	}
	return "normal"
}

func (s statCell) LabelColor() string {
	if s.Count > 0 {
		return "#666666"
	}
	return "#999999"
}

type fileCard struct {
	Filename string
	Messages []template.HTML
}

type section struct {
	Title      string
	Color      string
	Background string
	Icon       string
	Folder     string
	Files      []fileCard
}

type reportData struct {
	CSS      template.CSS
	Sender   string
	Date     string
	Stats    []statCell
	Sections []section
}

// Render produces the HTML report body for a processed batch. An empty
// string means there is nothing to report and no email should go out.
// The successes section is included only when showSuccesses is set; its
// files still count toward the summary either way.
func Render(meta *internal.BatchMetadata, showSuccesses bool) (string, error) {
	kinds := []struct {
		data       internal.MessageMap
		label      string
		title      string
		icon       string
		color      string
		background string
		folder     string
		show       bool
	}{
		{meta.Errors, "Ошибки", "Ошибки обработки", "❌", "#ff4d4d", "#fff5f5", meta.ErrorDir, true},
		{meta.PartialSuccesses, "Частично", "Частично обработанные файлы", "⚠️", "#ffaa00", "#fffaf0", meta.ErrorDir, true},
		{meta.Successes, "Успешно", "Успешно обработанные файлы", "✅", "#28a745", "#f6fff8", "", showSuccesses},
	}

	var sections []section
	var stats []statCell
	total := 0
	for _, k := range kinds {
		count := len(k.data)
		total += count
		stats = append(stats, statCell{Label: k.label, Color: k.color, Icon: k.icon, Count: count})
		if count == 0 || !k.show {
			continue
		}
		sections = append(sections, section{
			Title:      k.title,
			Color:      k.color,
			Background: k.background,
			Icon:       k.icon,
			Folder:     k.folder,
			Files:      fileCards(k.data, meta.Files),
		})
	}
	if len(sections) == 0 {
		return "", nil
	}

	// Summary cells run from good to bad, total last.
	for i, j := 0, len(stats)-1; i < j; i, j = i+1, j-1 {
		stats[i], stats[j] = stats[j], stats[i]
	}
	stats = append(stats, statCell{
		Label: "Всего", Color: "#007bff", Background: "#e6f0ff", Icon: "🔵", Count: total,
	})

	var buf strings.Builder
	err := tmpl.Execute(&buf, reportData{
		CSS:      template.CSS(css),
		Sender:   meta.Sender,
		Date:     meta.Date,
		Stats:    stats,
		Sections: sections,
	})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// fileCards orders report entries by the declared attachment list, with
// stragglers sorted at the end.
func fileCards(data internal.MessageMap, declared []string) []fileCard {
	order := make([]string, 0, len(data))
	seen := make(map[string]bool, len(data))
	for _, name := range declared {
		if _, ok := data[name]; ok && !seen[name] {
			order = append(order, name)
			seen[name] = true
		}
	}
	var rest []string
	for name := range data {
		if !seen[name] {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	order = append(order, rest...)

	cards := make([]fileCard, 0, len(order))
	for _, name := range order {
		messages := make([]template.HTML, 0, len(data[name]))
		for _, msg := range data[name] {
			// Messages carry their own markup from the document formatter.
			messages = append(messages, template.HTML(msg))
		}
		cards = append(cards, fileCard{Filename: name, Messages: messages})
	}
	return cards
}

// BuildSubject derives the reply subject for a batch report. Container
// restriction notes collected during the pass are appended once each, in
// the order first seen.
func BuildSubject(subject string, notes []string) string {
	out := "Re: " + subject
	seen := make(map[string]bool, len(notes))
	for _, note := range notes {
		note = strings.TrimSpace(note)
		if note == "" || seen[note] {
			continue
		}
		seen[note] = true
		out += " + " + note
	}
	return out
}
