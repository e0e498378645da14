package internal

import (
	"encoding/json"
	"regexp"
	"strings"
)

// RestrictedNote is the only container note the pipeline keeps. Any other
// free-text note coming out of OCR is dropped during normalization.
const RestrictedNote = "Запрет ОПК"

var restrictedNotePattern = regexp.MustCompile(`(?i)запрет\s+опк`)

// NormalizeNote collapses a raw OCR note to RestrictedNote or empty.
func NormalizeNote(note string) string {
	if restrictedNotePattern.MatchString(note) {
		return RestrictedNote
	}
	return ""
}

type DocType string

const (
	DocTypeBillOfLading DocType = "КС"
	DocTypeDU           DocType = "ДУ_base"
	DocTypeDUNle        DocType = "ДУ_Новорослесэкспорт"
	DocTypeDUNutep      DocType = "ДУ_НУТЭП"
	DocTypeDUNmtp       DocType = "ДУ_НМТП"
)

func (t *DocType) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch DocType(raw) {
	case DocTypeBillOfLading, DocTypeDU, DocTypeDUNle, DocTypeDUNutep, DocTypeDUNmtp:
		*t = DocType(raw)
	default:
		*t = DocTypeBillOfLading
	}
	return nil
}

// Prefix is the document type up to the first underscore ("КС", "ДУ").
func (t DocType) Prefix() string {
	value := string(t)
	if value == "" {
		value = string(DocTypeBillOfLading)
	}
	if i := strings.Index(value, "_"); i >= 0 {
		return value[:i]
	}
	return value
}

// IsBillOfLading reports whether the document is a bill of lading ("КС").
func (t DocType) IsBillOfLading() bool {
	return t.Prefix() == string(DocTypeBillOfLading)
}

// StringSet is an insertion-ordered set of strings. It marshals to a plain
// JSON array and suppresses duplicates on Add and on unmarshal.
type StringSet []string

func (s *StringSet) Add(values ...string) {
	for _, v := range values {
		if v == "" || s.Has(v) {
			continue
		}
		*s = append(*s, v)
	}
}

func (s StringSet) Has(value string) bool {
	for _, v := range s {
		if v == value {
			return true
		}
	}
	return false
}

func (s *StringSet) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = nil
	s.Add(raw...)
	return nil
}

// MessageMap accumulates per-filename ordered message sets.
type MessageMap map[string]StringSet

func (m MessageMap) Add(filename string, messages ...string) {
	set := m[filename]
	set.Add(messages...)
	m[filename] = set
}

func (m MessageMap) Merge(other MessageMap) {
	for filename, messages := range other {
		m.Add(filename, messages...)
	}
}

type Container struct {
	Code           string    `json:"container"`
	Seals          StringSet `json:"seals"`
	UploadDatetime string    `json:"upload_datetime,omitempty"`
	Note           string    `json:"note,omitempty"`
}

type Document struct {
	BillOfLading       string       `json:"bill_of_lading,omitempty"`
	Containers         []*Container `json:"containers"`
	CreatedDatetime    string       `json:"document_created_datetime,omitempty"`
	VoyageNumber       string       `json:"voyage_number,omitempty"`
	DocumentType       DocType      `json:"document_type"`
	TransactionNumbers []string     `json:"transaction_numbers,omitempty"`
	FilePath           string       `json:"file_path,omitempty"`
	Errors             StringSet    `json:"errors"`
	Notes              StringSet    `json:"notes"`
	IsSentToErp        bool         `json:"is_data_sent_to_tsup"`
	SourceFileName     string       `json:"source_file_name,omitempty"`
	SourceFileBase64   string       `json:"source_file_base64,omitempty"`
}

type BatchMetadata struct {
	Subject          string     `json:"subject,omitempty"`
	Sender           string     `json:"sender,omitempty"`
	Date             string     `json:"date,omitempty"`
	TextContent      string     `json:"text_content,omitempty"`
	Files            []string   `json:"files"`
	Errors           MessageMap `json:"errors"`
	PartialSuccesses MessageMap `json:"partial_successes"`
	Successes        MessageMap `json:"successes"`
	GlobalErrors     StringSet  `json:"global_errors"`
	ErrorDir         string     `json:"error_dir,omitempty"`
	SuccessDir       string     `json:"success_dir,omitempty"`
}

// ContainerMatch pairs one OCR-recognized container code with the ERP code
// assigned to it. DbCode is empty when nothing matched above the threshold.
type ContainerMatch struct {
	OcrCode    string
	DbCode     string
	Similarity float64
}

// FileResult is one journaled per-file outcome.
type FileResult struct {
	Filename string
	Status   string
	Messages []string
	PDFPages int
}

const (
	FileStatusSuccess        = "success"
	FileStatusPartialSuccess = "partial_success"
	FileStatusError          = "error"
)

// RunRecord is one journaled batch run.
type RunRecord struct {
	ID         int64
	TraceID    string
	Folder     string
	Subject    string
	Sender     string
	Counts     map[string]int
	DurationMs int64
	CreatedAt  string
	Files      []FileResult
}
