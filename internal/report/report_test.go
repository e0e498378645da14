package report

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"cargodocs/internal"
)

func parseHTML(t *testing.T, body string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func testMetadata() *internal.BatchMetadata {
	meta := &internal.BatchMetadata{
		Subject:          "Fwd: КС VX75EA25000897",
		Sender:           "ops@example.com",
		Date:             "28.05.2025 17:35",
		Files:            []string{"a.pdf", "b.pdf", "c.pdf"},
		Errors:           internal.MessageMap{},
		PartialSuccesses: internal.MessageMap{},
		Successes:        internal.MessageMap{},
		ErrorDir:         `\\share\error\250528_173535`,
	}
	meta.Errors.Add("a.pdf", "Файл не распознан")
	meta.Successes.Add("b.pdf", "Отправка в ЦУП: <span style='color: #39A739;'>Успешно!</span>")
	return meta
}

func TestRenderSections(t *testing.T) {
	body, err := Render(testMetadata(), true)
	if err != nil {
		t.Fatal(err)
	}
	doc := parseHTML(t, body)

	titles := doc.Find(".section_title").Map(func(_ int, s *goquery.Selection) string {
		return strings.TrimSpace(s.Text())
	})
	if len(titles) != 2 {
		t.Fatalf("section titles = %v", titles)
	}
	if !strings.Contains(titles[0], "Ошибки обработки") || !strings.Contains(titles[1], "Успешно обработанные файлы") {
		t.Fatalf("section titles = %v", titles)
	}

	headers := doc.Find(".file_header").Map(func(_ int, s *goquery.Selection) string {
		return strings.TrimSpace(s.Text())
	})
	if len(headers) != 2 || !strings.Contains(headers[0], "a.pdf") || !strings.Contains(headers[1], "b.pdf") {
		t.Fatalf("file headers = %v", headers)
	}

	// Error and partial sections point the reader at file copies.
	if folder := doc.Find(".folder_path code").First().Text(); folder != `\\share\error\250528_173535` {
		t.Fatalf("folder path = %q", folder)
	}

	// Message markup must survive rendering, not be escaped.
	if doc.Find(".file_content span").Length() == 0 {
		t.Fatal("expected inline markup in success message to remain HTML")
	}
}

func TestRenderSummaryCounts(t *testing.T) {
	body, err := Render(testMetadata(), true)
	if err != nil {
		t.Fatal(err)
	}
	doc := parseHTML(t, body)

	numbers := doc.Find(".stat-number").Map(func(_ int, s *goquery.Selection) string {
		return strings.TrimSpace(s.Text())
	})
	// Good to bad, total last.
	want := []string{"1", "0", "1", "2"}
	if len(numbers) != 4 {
		t.Fatalf("stat numbers = %v", numbers)
	}
	for i, n := range numbers {
		if n != want[i] {
			t.Fatalf("stat numbers = %v, want %v", numbers, want)
		}
	}
}

func TestRenderSuccessSectionGated(t *testing.T) {
	meta := testMetadata()
	body, err := Render(meta, false)
	if err != nil {
		t.Fatal(err)
	}
	doc := parseHTML(t, body)

	for _, title := range doc.Find(".section_title").Map(func(_ int, s *goquery.Selection) string {
		return s.Text()
	}) {
		if strings.Contains(title, "Успешно обработанные") {
			t.Fatal("success section must be hidden when disabled")
		}
	}

	// The summary still counts successes.
	numbers := doc.Find(".stat-number").Map(func(_ int, s *goquery.Selection) string {
		return strings.TrimSpace(s.Text())
	})
	if numbers[len(numbers)-1] != "2" {
		t.Fatalf("total = %v", numbers)
	}
}

func TestRenderEmptyWhenNothingToShow(t *testing.T) {
	meta := &internal.BatchMetadata{
		Errors:           internal.MessageMap{},
		PartialSuccesses: internal.MessageMap{},
		Successes:        internal.MessageMap{},
	}
	body, err := Render(meta, true)
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		t.Fatal("expected empty report for empty metadata")
	}

	// Successes alone with the section disabled also yield nothing.
	meta.Successes.Add("a.pdf", "ok")
	body, err = Render(meta, false)
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		t.Fatal("expected empty report when only hidden sections have content")
	}
}

func TestBuildSubject(t *testing.T) {
	got := BuildSubject("Fwd: КС VX75EA25000897", []string{
		"Запрет ОПК", "", "Запрет ОПК",
	})
	want := "Re: Fwd: КС VX75EA25000897 + Запрет ОПК"
	if got != want {
		t.Fatalf("subject = %q, want %q", got, want)
	}

	if got := BuildSubject("hello", nil); got != "Re: hello" {
		t.Fatalf("subject = %q", got)
	}
}
