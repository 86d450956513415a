package document

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/spigell/cv-evaluator/internal/logger"
)

const (
	MediaTypePDF  = "application/pdf"
	MediaTypeDOC  = "application/msword"
	MediaTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	// DefaultMaxSize is the largest accepted upload, 5 MiB.
	DefaultMaxSize int64 = 5 << 20
)

const (
	errUnsupported = "Unsupported file type"
	errPDF         = "Failed to process PDF file"
	errWord        = "Failed to process DOC/DOCX file"
)

var mediaTypesBySuffix = map[string]string{
	".pdf":  MediaTypePDF,
	".doc":  MediaTypeDOC,
	".docx": MediaTypeDOCX,
}

// UploadedDocument is a file handed to the extractor. It only lives for one Extract call.
type UploadedDocument struct {
	Data      []byte
	MediaType string
	FileName  string
}

// ExtractedText is the outcome of one extraction. Error and Content are mutually exclusive.
type ExtractedText struct {
	Content   string `json:"text"`
	FileName  string `json:"fileName"`
	MediaType string `json:"fileType"`
	Error     string `json:"error,omitempty"`
}

// Failed reports whether the extraction produced an error instead of text.
func (t ExtractedText) Failed() bool {
	return t.Error != ""
}

type kind int

const (
	kindUnknown kind = iota
	kindPDF
	kindWord
)

// Extractor turns uploaded résumés into plain text.
type Extractor struct {
	maxSize int64
	logger  *zap.Logger
}

// NewExtractor creates an extractor. A non-positive maxSize falls back to DefaultMaxSize.
func NewExtractor(maxSize int64, logger *zap.Logger) *Extractor {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Extractor{maxSize: maxSize, logger: logger}
}

// MaxSize returns the upload limit in bytes.
func (e *Extractor) MaxSize() int64 {
	return e.maxSize
}

// Extract converts doc into text. It never fails: decoding problems are
// reported through ExtractedText.Error with empty content.
func (e *Extractor) Extract(doc UploadedDocument) (result ExtractedText) {
	result = ExtractedText{FileName: doc.FileName, MediaType: doc.MediaType}

	fail := func(msg string) ExtractedText {
		e.logger.Debug("extraction failed",
			append(logger.DocumentFields(doc.FileName, doc.MediaType), zap.String("error", msg))...,
		)
		result.Content = ""
		result.Error = msg
		return result
	}

	if int64(len(doc.Data)) > e.maxSize {
		return fail(fmt.Sprintf("file exceeds maximum size of %s", humanize.IBytes(uint64(e.maxSize))))
	}

	k := classify(doc.MediaType, doc.FileName)
	if k == kindUnknown {
		return fail(errUnsupported)
	}

	// Third-party decoders may panic on hostile input.
	defer func() {
		if r := recover(); r != nil {
			result = fail(fmt.Sprintf("%s: %v", decodeFailure(k), r))
		}
	}()

	var (
		text string
		err  error
	)
	switch k {
	case kindPDF:
		text, err = extractPDF(doc.Data)
	case kindWord:
		text, err = extractWord(doc.Data)
	}
	if err != nil {
		return fail(fmt.Sprintf("%s: %s", decodeFailure(k), err))
	}

	e.logger.Debug("extracted document text",
		zap.String(logger.FieldFileName, doc.FileName),
		zap.Int("size", len(doc.Data)),
		zap.Int("text_length", len(text)),
	)

	result.Content = text
	return result
}

// MediaTypeForName guesses the media type from the file suffix. Unknown suffixes yield "".
func MediaTypeForName(name string) string {
	return mediaTypesBySuffix[strings.ToLower(filepath.Ext(name))]
}

func classify(mediaType, fileName string) kind {
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	suffix := strings.ToLower(filepath.Ext(strings.TrimSpace(fileName)))

	switch {
	case mediaType == MediaTypePDF || suffix == ".pdf":
		return kindPDF
	case mediaType == MediaTypeDOC || mediaType == MediaTypeDOCX || suffix == ".doc" || suffix == ".docx":
		return kindWord
	default:
		return kindUnknown
	}
}

func decodeFailure(k kind) string {
	if k == kindPDF {
		return errPDF
	}
	return errWord
}
