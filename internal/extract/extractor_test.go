package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestExtractBytes_plainVariants(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
		ext     string
		want    string
	}{
		{"txt", []byte("Revenue grew 12% year over year.\nGuidance unchanged."), ".txt",
			"Revenue grew 12% year over year.\nGuidance unchanged."},
		{"markdown with utf8", []byte("Caf\xc3\xa9 Holdings FY2024"), ".md", "Café Holdings FY2024"},
		{"invalid utf8 replaced", []byte("margin\x80trend"), ".rst", "margin�trend"},
		{"unknown extension treated as plain", []byte("raw filing text"), ".xyz", "raw filing text"},
	}
	e := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.ExtractBytes(tt.content, tt.ext)
			if err != nil {
				t.Fatalf("ExtractBytes: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func statementWorkbook(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	cells := map[string]any{
		"A1": "Income Statement", "B1": "Q3 2024", "C1": "Q3 2023",
		"A2": "Revenue", "B2": "734.2", "C2": "680.1",
		"A3": "Gross profit", "B3": "310.5", "C3": "280.4",
	}
	for ref, v := range cells {
		if err := f.SetCellValue("Sheet1", ref, v); err != nil {
			t.Fatalf("SetCellValue %s: %v", ref, err)
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}
	return buf.Bytes()
}

func TestExtractBytes_excelStatementRows(t *testing.T) {
	e := NewExtractor()
	got, err := e.ExtractBytes(statementWorkbook(t), ".xlsx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	want := "Income Statement | Q3 2024 | Q3 2023\nRevenue | 734.2 | 680.1\nGross profit | 310.5 | 280.4"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExtractBytes_excelSkipsEmptyCells(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Net income")
	f.SetCellValue("Sheet1", "C1", "-194.3")
	f.SetCellValue("Sheet1", "A3", "EPS")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	e := NewExtractor()
	got, err := e.ExtractBytes(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Net income | -194.3\nEPS" {
		t.Errorf("got %q", got)
	}
}

func TestExtract_plainFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "q3-summary.txt")
	if err := os.WriteFile(path, []byte("Operating cash flow was $52.1 million."), 0600); err != nil {
		t.Fatal(err)
	}

	e := NewExtractor()
	got, err := e.Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if got != "Operating cash flow was $52.1 million." {
		t.Errorf("got %q", got)
	}
}

func TestExtract_excelFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fy2024.xlsx")
	if err := os.WriteFile(path, statementWorkbook(t), 0600); err != nil {
		t.Fatal(err)
	}

	e := NewExtractor()
	got, err := e.Extract(path)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if !strings.HasPrefix(got, "Income Statement | Q3 2024") {
		t.Errorf("got %q", got)
	}
}

func TestExtract_nonexistent(t *testing.T) {
	e := NewExtractor()
	if _, err := e.Extract("/nonexistent/reports/q3.txt"); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

// docxArchiveAt builds a minimal OOXML package with the document body at
// partPath; when withTypes is set, [Content_Types].xml declares that path.
func docxArchiveAt(text, partPath string, withTypes bool) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	if withTypes {
		ct, _ := w.Create(contentTypesPart)
		_, _ = ct.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Override PartName="/` + partPath + `" ContentType="` + mainDocContentType + `"/>
</Types>`))
	}
	body, _ := w.Create(partPath)
	_, _ = body.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p w:rsidR="00A1"><w:r><w:t>` + text + `</w:t></w:r></w:p></w:body></w:document>`))
	_ = w.Close()
	return buf.Bytes()
}

func TestExtractBytes_docx(t *testing.T) {
	e := NewExtractor()
	content := docxArchiveAt("Management expects gross margin to improve in Q4.", defaultDocumentPart, false)
	got, err := e.ExtractBytes(content, ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Management expects gross margin to improve in Q4." {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_docxNonDefaultPart(t *testing.T) {
	e := NewExtractor()
	content := docxArchiveAt("Board approved the dividend.", "word/document2.xml", true)
	got, err := e.ExtractBytes(content, ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Board approved the dividend." {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_docxOverrideAttributeOrder(t *testing.T) {
	// ContentType before PartName in the Override element.
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	ct, _ := w.Create(contentTypesPart)
	_, _ = ct.Write([]byte(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Override ContentType="` + mainDocContentType + `" PartName="/word/document3.xml"/>
</Types>`))
	body, _ := w.Create("word/document3.xml")
	_, _ = body.Write([]byte(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>Full-year guidance raised.</w:t></w:r></w:p></w:body></w:document>`))
	_ = w.Close()

	e := NewExtractor()
	got, err := e.ExtractBytes(buf.Bytes(), ".docx")
	if err != nil {
		t.Fatalf("ExtractBytes: %v", err)
	}
	if got != "Full-year guidance raised." {
		t.Errorf("got %q", got)
	}
}

func TestExtractBytes_docxNotZip(t *testing.T) {
	e := NewExtractor()
	if _, err := e.ExtractBytes([]byte("not a zip"), ".docx"); err == nil {
		t.Error("expected error for invalid docx")
	}
}
