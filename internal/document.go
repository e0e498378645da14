package internal

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const (
	RedHex   = "#FF6666"
	GreenHex = "#39A739"
)

// LoadDocument reads one OCR-result JSON file and normalizes it: containers
// without a code are dropped, notes are collapsed to the restricted marker,
// blank optional strings become empty.
func LoadDocument(path string) (*Document, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := json.Unmarshal(blob, &doc); err != nil {
		return nil, fmt.Errorf("parse document %s: %w", path, err)
	}

	kept := make([]*Container, 0, len(doc.Containers))
	for _, cont := range doc.Containers {
		if cont == nil || strings.TrimSpace(cont.Code) == "" {
			continue
		}
		cont.Code = strings.TrimSpace(cont.Code)
		cont.Note = NormalizeNote(cont.Note)
		kept = append(kept, cont)
	}
	doc.Containers = kept
	doc.BillOfLading = strings.TrimSpace(doc.BillOfLading)

	return &doc, nil
}

func (d *Document) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	blob, err := json.MarshalIndent(d, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, blob, 0o644)
}

// EncodeFile populates SourceFileName and SourceFileBase64 from FilePath.
// The ERP expects names like "КС_VX75EA25000897_AUTO.pdf".
func (d *Document) EncodeFile() error {
	if d.FilePath == "" {
		return fmt.Errorf("document has no file path")
	}
	blob, err := os.ReadFile(d.FilePath)
	if err != nil {
		return err
	}

	bill := d.BillOfLading
	if bill == "" {
		bill = "unknown"
	}
	d.SourceFileName = fmt.Sprintf("%s_%s_AUTO%s", d.DocumentType.Prefix(), bill, filepath.Ext(d.FilePath))
	d.SourceFileBase64 = base64.StdEncoding.EncodeToString(blob)
	return nil
}

func (c *Container) FormatReport() string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>", c.Code)
	if len(c.Seals) > 0 {
		fmt.Fprintf(&b, " - [%s]", strings.Join(c.Seals, ", "))
	}
	if c.UploadDatetime != "" {
		fmt.Fprintf(&b, " - %s", c.UploadDatetime)
	}
	if c.Note != "" {
		fmt.Fprintf(&b, " - <b>%s</b>", c.Note)
	}
	return b.String()
}

type reportField struct {
	title         string
	value         string
	alwaysDisplay bool
	block         bool
}

// FormatReport renders the human-readable summary included in batch reports.
// Titles are aligned into a single column; containers become indented bullets.
func (d *Document) FormatReport() string {
	sentStatus := fmt.Sprintf("<span style='color: %s;'>Не отправлено!</span>", RedHex)
	if d.IsSentToErp {
		sentStatus = fmt.Sprintf("<span style='color: %s;'>Успешно!</span>", GreenHex)
	}

	containerLines := make([]string, 0, len(d.Containers))
	for _, cont := range d.Containers {
		containerLines = append(containerLines, "  • "+cont.FormatReport())
	}

	fields := []reportField{
		{title: "Отправка в ЦУП", value: sentStatus, alwaysDisplay: true},
		{title: "Тип документа", value: wrapBold(d.DocumentType.Prefix())},
		{title: "Номер коносамента", value: wrapBold(d.BillOfLading)},
		{title: "Дата ДО", value: wrapBold(d.CreatedDatetime)},
		{title: "Номер рейса", value: wrapBold(d.VoyageNumber)},
		{title: "Номера сделок", value: wrapBold(strings.Join(d.TransactionNumbers, ", "))},
		{title: "Контейнеры", value: strings.Join(containerLines, "\n"), block: true},
	}

	maxTitle := 0
	for _, f := range fields {
		if n := utf8.RuneCountInString(f.title) + 1; n > maxTitle {
			maxTitle = n
		}
	}

	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.value == "" && !f.alwaysDisplay {
			continue
		}
		title := f.title + ":"
		padding := strings.Repeat(" ", maxTitle-utf8.RuneCountInString(title))
		value := f.value
		if f.block {
			value = "\n" + value
		}
		lines = append(lines, fmt.Sprintf("%s%s %s", title, padding, value))
	}
	return strings.Join(lines, "\n")
}

// FormatReportWithErrors prepends the accumulated error lines to the report
// snapshot, so operators see what was recognized but not submitted.
func (d *Document) FormatReportWithErrors() []string {
	out := make([]string, 0, len(d.Errors)+1)
	for _, err := range d.Errors {
		out = append(out, fmt.Sprintf("<span style='color: %s;'><b>%s</b></span>", RedHex, err))
	}
	return append(out, d.FormatReport())
}

func wrapBold(value string) string {
	if value == "" {
		return ""
	}
	return "<b>" + value + "</b>"
}
