package document

import (
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/spigell/cv-evaluator/internal/document/documenttest"
)

func buildPDF(t *testing.T, pages ...string) []byte {
	t.Helper()
	return documenttest.PDF(pages...)
}

func buildDOCX(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	return documenttest.DOCX(paragraphs...)
}

func zipParts(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	return documenttest.Zip(parts)
}

func TestExtractPDFJoinsPagesInOrder(t *testing.T) {
	extractor := NewExtractor(0, zap.NewNop())

	result := extractor.Extract(UploadedDocument{
		Data:      buildPDF(t, "Alpha page", "Beta page"),
		MediaType: MediaTypePDF,
		FileName:  "cv.pdf",
	})

	if result.Failed() {
		t.Fatalf("unexpected error: %s", result.Error)
	}

	first := strings.Index(result.Content, "Alpha")
	second := strings.Index(result.Content, "Beta")
	if first == -1 || second == -1 {
		t.Fatalf("expected both pages in text, got %q", result.Content)
	}
	if first > second {
		t.Fatalf("expected page order to be kept, got %q", result.Content)
	}
	if !strings.Contains(result.Content[first:second], "\n") {
		t.Fatalf("expected pages to be newline separated, got %q", result.Content)
	}
	if result.Content != strings.TrimSpace(result.Content) {
		t.Fatalf("expected trimmed text, got %q", result.Content)
	}
	if result.FileName != "cv.pdf" || result.MediaType != MediaTypePDF {
		t.Fatalf("unexpected metadata: %+v", result)
	}
}

func TestExtractEmptyDocuments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		doc  UploadedDocument
	}{
		{
			name: "pdf without pages",
			doc:  UploadedDocument{Data: buildPDF(t), MediaType: MediaTypePDF, FileName: "empty.pdf"},
		},
		{
			name: "docx without paragraphs",
			doc:  UploadedDocument{Data: buildDOCX(t), MediaType: MediaTypeDOCX, FileName: "empty.docx"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := NewExtractor(0, nil).Extract(tt.doc)
			if result.Error != "" {
				t.Fatalf("unexpected error: %s", result.Error)
			}
			if result.Content != "" {
				t.Fatalf("expected empty text, got %q", result.Content)
			}
		})
	}
}

func TestExtractDOCXParagraphs(t *testing.T) {
	result := NewExtractor(0, nil).Extract(UploadedDocument{
		Data:     buildDOCX(t, "Jane Doe", "Backend Engineer & SRE"),
		FileName: "cv.docx",
	})

	if result.Failed() {
		t.Fatalf("unexpected error: %s", result.Error)
	}

	expected := "Jane Doe\n\nBackend Engineer & SRE\n\n"
	if result.Content != expected {
		t.Fatalf("expected %q, got %q", expected, result.Content)
	}
}

func TestDOCXTextHandlesTabsAndBreaks(t *testing.T) {
	xmlBody := `<w:document xmlns:w="w"><w:body><w:p><w:r><w:t>Go</w:t><w:tab/><w:t>5 years</w:t><w:br/><w:t>Kubernetes</w:t></w:r></w:p></w:body></w:document>`

	text, err := docxText(strings.NewReader(xmlBody))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if text != "Go\t5 years\nKubernetes\n\n" {
		t.Fatalf("unexpected text: %q", text)
	}
}

func TestExtractFailuresAreReturnedAsValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		doc    UploadedDocument
		prefix string
	}{
		{
			name:   "unsupported media type",
			doc:    UploadedDocument{Data: []byte("plain text"), MediaType: "text/plain", FileName: "cv.txt"},
			prefix: errUnsupported,
		},
		{
			name:   "unsupported without hints",
			doc:    UploadedDocument{Data: []byte{0x89, 'P', 'N', 'G'}, FileName: "photo"},
			prefix: errUnsupported,
		},
		{
			name:   "corrupt pdf",
			doc:    UploadedDocument{Data: []byte("%PDF-1.4 garbage"), FileName: "cv.pdf"},
			prefix: errPDF,
		},
		{
			name:   "corrupt docx",
			doc:    UploadedDocument{Data: []byte("PK\x03\x04broken"), FileName: "cv.docx"},
			prefix: errWord,
		},
		{
			name:   "docx without body part",
			doc:    UploadedDocument{Data: zipParts(t, map[string]string{"[Content_Types].xml": "<Types/>"}), MediaType: MediaTypeDOCX},
			prefix: errWord,
		},
		{
			name:   "unknown word container",
			doc:    UploadedDocument{Data: []byte("{\\rtf1 hello}"), FileName: "cv.doc"},
			prefix: errWord,
		},
		{
			name:   "corrupt ole container",
			doc:    UploadedDocument{Data: append(append([]byte{}, oleMagic...), 0x00, 0x01), FileName: "cv.doc"},
			prefix: errWord,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := NewExtractor(0, nil).Extract(tt.doc)
			if !strings.HasPrefix(result.Error, tt.prefix) {
				t.Fatalf("expected error starting with %q, got %q", tt.prefix, result.Error)
			}
			if result.Content != "" {
				t.Fatalf("expected empty text on failure, got %q", result.Content)
			}
		})
	}
}

func TestExtractSizeLimitBoundary(t *testing.T) {
	data := buildPDF(t)
	extractor := NewExtractor(int64(len(data)), nil)

	atLimit := extractor.Extract(UploadedDocument{Data: data, FileName: "cv.pdf"})
	if atLimit.Failed() {
		t.Fatalf("expected file at the limit to be accepted, got %q", atLimit.Error)
	}

	over := append(append([]byte{}, data...), '\n')
	rejected := extractor.Extract(UploadedDocument{Data: over, FileName: "cv.pdf"})
	if !strings.HasPrefix(rejected.Error, "file exceeds maximum size") {
		t.Fatalf("expected size error, got %q", rejected.Error)
	}
	if rejected.Content != "" {
		t.Fatalf("expected empty text, got %q", rejected.Content)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		mediaType string
		fileName  string
		expect    kind
	}{
		{MediaTypePDF, "", kindPDF},
		{"", "CV.PDF", kindPDF},
		{MediaTypeDOC, "", kindWord},
		{MediaTypeDOCX, "resume", kindWord},
		{"", "resume.Docx", kindWord},
		{"application/octet-stream", "resume.doc", kindWord},
		{"image/png", "resume.png", kindUnknown},
		{"", "", kindUnknown},
	}

	for _, tt := range tests {
		if got := classify(tt.mediaType, tt.fileName); got != tt.expect {
			t.Fatalf("classify(%q, %q) = %v, expected %v", tt.mediaType, tt.fileName, got, tt.expect)
		}
	}
}

func TestMediaTypeForName(t *testing.T) {
	if got := MediaTypeForName("/tmp/Jane.DOCX"); got != MediaTypeDOCX {
		t.Fatalf("unexpected media type: %q", got)
	}
	if got := MediaTypeForName("notes.txt"); got != "" {
		t.Fatalf("expected empty media type, got %q", got)
	}
}
