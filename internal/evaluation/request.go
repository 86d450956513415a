package evaluation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/spigell/cv-evaluator/internal/document"
)

const (
	// MaxJobTitleLength bounds the job title in characters.
	MaxJobTitleLength = 100
	DefaultLanguage   = "English"
)

var (
	ErrMissingToken   = errors.New("missing verification token")
	ErrInvalidRequest = errors.New("invalid evaluation request")
)

// Request is the payload sent to the evaluation service.
type Request struct {
	Text     string `json:"text"`
	FileName string `json:"fileName"`
	FileType string `json:"fileType"`
	Token    string `json:"turnstileToken"`
	Language string `json:"language"`
	JobTitle string `json:"jobTitle"`
}

// NewRequest builds a request from a successful extraction.
func NewRequest(text document.ExtractedText, jobTitle, language, token string) (*Request, error) {
	if text.Failed() {
		return nil, fmt.Errorf("%w: extraction failed: %s", ErrInvalidRequest, text.Error)
	}

	language = strings.TrimSpace(language)
	if language == "" {
		language = DefaultLanguage
	}

	req := &Request{
		Text:     text.Content,
		FileName: text.FileName,
		FileType: text.MediaType,
		Token:    strings.TrimSpace(token),
		Language: language,
		JobTitle: strings.TrimSpace(jobTitle),
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}

	return req, nil
}

// Validate checks the fields every backend needs. The verification token is
// checked by the backends that require it.
func (r *Request) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: request is required", ErrInvalidRequest)
	}

	return ValidateJobTitle(r.JobTitle)
}

// HasToken reports whether a verification token is present.
func (r *Request) HasToken() bool {
	return r != nil && strings.TrimSpace(r.Token) != ""
}

// ValidateJobTitle enforces a non-empty title of bounded length.
func ValidateJobTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("%w: job title is required", ErrInvalidRequest)
	}
	if utf8.RuneCountInString(title) > MaxJobTitleLength {
		return fmt.Errorf("%w: job title exceeds %d characters", ErrInvalidRequest, MaxJobTitleLength)
	}
	return nil
}
