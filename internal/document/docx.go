package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
)

const docxBodyPart = "word/document.xml"

// extractWord converts a Word document to plain text. The container is
// sniffed so a .doc file that is really OOXML still decodes.
func extractWord(data []byte) (string, error) {
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return extractDOCX(data)
	case bytes.HasPrefix(data, oleMagic):
		return extractDOC(data)
	default:
		return "", errors.New("unrecognized document structure")
	}
}

func extractDOCX(data []byte) (string, error) {
	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open docx archive: %w", err)
	}

	var body *zip.File
	for _, file := range archive.File {
		if file.Name == docxBodyPart {
			body = file
			break
		}
	}
	if body == nil {
		return "", fmt.Errorf("docx archive has no %s", docxBodyPart)
	}

	rc, err := body.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", docxBodyPart, err)
	}
	defer rc.Close()

	return docxText(rc)
}

// docxText walks WordprocessingML and emits each paragraph followed by a blank line.
func docxText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var (
		out       strings.Builder
		paragraph strings.Builder
		inText    bool
	)

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode %s: %w", docxBodyPart, err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				paragraph.WriteString("\t")
			case "br", "cr":
				paragraph.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				out.WriteString(paragraph.String())
				out.WriteString("\n\n")
				paragraph.Reset()
			}
		case xml.CharData:
			if inText {
				paragraph.Write(t)
			}
		}
	}

	// Text outside any paragraph, e.g. a truncated body.
	out.WriteString(paragraph.String())

	return out.String(), nil
}
