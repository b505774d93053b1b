package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"regexp"
	"strings"
)

// defaultDocumentPart is where the document body lives in almost every .docx.
const defaultDocumentPart = "word/document.xml"

// contentTypesPart declares, among other things, which zip entry holds the
// main document body when it is not at the default path.
const contentTypesPart = "[Content_Types].xml"

const mainDocContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"

// textNodeRe matches <w:t> text nodes regardless of attributes such as
// xml:space="preserve".
var textNodeRe = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

// The Override element carries PartName and ContentType in either order.
var (
	overridePartRe    = regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(mainDocContentType) + `"`)
	overridePartRevRe = regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(mainDocContentType) + `"[^>]+PartName="([^"]+)"`)
)

// mainDocumentPart resolves the document body's zip entry from
// [Content_Types].xml. Returns "" when the package carries no override, in
// which case the default path applies.
func mainDocumentPart(zr *zip.Reader) string {
	content, err := readZipEntry(zr, contentTypesPart)
	if err != nil || content == nil {
		return ""
	}
	for _, re := range []*regexp.Regexp{overridePartRe, overridePartRevRe} {
		if m := re.FindSubmatch(content); len(m) > 1 {
			return strings.TrimPrefix(string(m[1]), "/")
		}
	}
	return ""
}

// readZipEntry returns the named entry's bytes, or nil when the entry does
// not exist.
func readZipEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	return nil, nil
}

// extractDOCX pulls the text nodes out of an OOXML word-processing package.
// Reading <w:t> nodes directly keeps filings with attribute-heavy paragraph
// markup (<w:p w:rsidR="...">) extractable; lu4p/cat's paragraph regex
// returns nothing for those.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("extract DOCX: not a zip: %w", err)
	}

	part := mainDocumentPart(zr)
	if part == "" {
		part = defaultDocumentPart
	}
	body, err := readZipEntry(zr, part)
	if err != nil {
		return "", fmt.Errorf("extract DOCX: read %s: %w", part, err)
	}
	if body == nil {
		return "", fmt.Errorf("extract DOCX: %s not found", part)
	}

	nodes := textNodeRe.FindAllSubmatch(body, -1)
	if len(nodes) == 0 {
		return "", nil
	}
	var b strings.Builder
	for i, n := range nodes {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.Write(bytes.TrimSpace(n[1]))
	}
	return strings.TrimSpace(b.String()), nil
}
