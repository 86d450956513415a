package document

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/richardlehane/mscfb"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Offsets into the File Information Block of a Word 97+ WordDocument stream.
const (
	fibIdentOffset   = 0x0000
	fibFlagsOffset   = 0x000A
	fibCcpTextOffset = 0x004C
	fibFcClxOffset   = 0x01A2
	fibLcbClxOffset  = 0x01A6
	fibMinSize       = 0x01AA

	wordIdent      = 0xA5EC
	flagEncrypted  = 0x0100
	flagWhichTable = 0x0200

	clxPrc  = 0x01
	clxPcdt = 0x02

	pcdSize        = 8
	fcCompressed   = 0x40000000
	fcOffsetMask   = 0x3FFFFFFF
	wordDocStream  = "WordDocument"
	tableStream0   = "0Table"
	tableStream1   = "1Table"
	fieldBegin     = 0x13
	fieldSeparator = 0x14
	fieldEnd       = 0x15
)

type fib struct {
	flags   uint16
	ccpText int32
	fcClx   uint32
	lcbClx  uint32
}

func (f fib) tableStream() string {
	if f.flags&flagWhichTable != 0 {
		return tableStream1
	}
	return tableStream0
}

// extractDOC reads the text of the main story of a binary Word document.
func extractDOC(data []byte) (string, error) {
	reader, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("open compound file: %w", err)
	}

	streams := make(map[string][]byte)
	for {
		entry, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read compound file: %w", err)
		}

		switch entry.Name {
		case wordDocStream, tableStream0, tableStream1:
			buf, err := io.ReadAll(entry)
			if err != nil {
				return "", fmt.Errorf("read %s stream: %w", entry.Name, err)
			}
			streams[entry.Name] = buf
		}
	}

	wordDoc, ok := streams[wordDocStream]
	if !ok {
		return "", errors.New("compound file has no WordDocument stream")
	}

	info, err := parseFIB(wordDoc)
	if err != nil {
		return "", err
	}

	table, ok := streams[info.tableStream()]
	if !ok && info.ccpText > 0 {
		return "", fmt.Errorf("compound file has no %s stream", info.tableStream())
	}

	return pieceText(wordDoc, table, info)
}

func parseFIB(wordDoc []byte) (fib, error) {
	if len(wordDoc) < fibMinSize {
		return fib{}, errors.New("word document stream is too short")
	}

	if binary.LittleEndian.Uint16(wordDoc[fibIdentOffset:]) != wordIdent {
		return fib{}, errors.New("not a Word 97 or later document")
	}

	info := fib{
		flags:   binary.LittleEndian.Uint16(wordDoc[fibFlagsOffset:]),
		ccpText: int32(binary.LittleEndian.Uint32(wordDoc[fibCcpTextOffset:])),
		fcClx:   binary.LittleEndian.Uint32(wordDoc[fibFcClxOffset:]),
		lcbClx:  binary.LittleEndian.Uint32(wordDoc[fibLcbClxOffset:]),
	}

	if info.flags&flagEncrypted != 0 {
		return fib{}, errors.New("encrypted documents are not supported")
	}

	return info, nil
}

// pieceText walks the piece table in the Clx and decodes the first ccpText characters.
func pieceText(wordDoc, table []byte, info fib) (string, error) {
	if info.ccpText <= 0 {
		return "", nil
	}

	end := uint64(info.fcClx) + uint64(info.lcbClx)
	if info.lcbClx == 0 || end > uint64(len(table)) {
		return "", errors.New("piece table is out of range")
	}
	clx := table[info.fcClx:end]

	pos := 0
	for pos < len(clx) && clx[pos] == clxPrc {
		if pos+3 > len(clx) {
			return "", errors.New("truncated property modifier in piece table")
		}
		pos += 3 + int(binary.LittleEndian.Uint16(clx[pos+1:]))
	}
	if pos+5 > len(clx) || clx[pos] != clxPcdt {
		return "", errors.New("piece table descriptor not found")
	}

	lcb := int(binary.LittleEndian.Uint32(clx[pos+1:]))
	plc := clx[pos+5:]
	if lcb < 4 || lcb > len(plc) || (lcb-4)%12 != 0 {
		return "", errors.New("malformed piece table")
	}
	plc = plc[:lcb]

	pieces := (lcb - 4) / 12
	cp := func(i int) int32 {
		return int32(binary.LittleEndian.Uint32(plc[i*4:]))
	}
	descriptors := plc[(pieces+1)*4:]

	latin := charmap.Windows1252.NewDecoder()
	wide := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()

	var raw strings.Builder
	for i := 0; i < pieces; i++ {
		start, stop := cp(i), cp(i+1)
		if start >= info.ccpText {
			break
		}
		if stop > info.ccpText {
			stop = info.ccpText
		}
		count := int(stop - start)
		if count <= 0 {
			continue
		}

		fc := binary.LittleEndian.Uint32(descriptors[i*pcdSize+2:])
		offset := int(fc & fcOffsetMask)

		var (
			chunk []byte
			err   error
		)
		if fc&fcCompressed != 0 {
			offset /= 2
			if offset+count > len(wordDoc) {
				return "", fmt.Errorf("piece %d is out of range", i)
			}
			chunk, err = latin.Bytes(wordDoc[offset : offset+count])
		} else {
			if offset+2*count > len(wordDoc) {
				return "", fmt.Errorf("piece %d is out of range", i)
			}
			chunk, err = wide.Bytes(wordDoc[offset : offset+2*count])
		}
		if err != nil {
			return "", fmt.Errorf("decode piece %d: %w", i, err)
		}

		raw.Write(chunk)
	}

	return cleanWordText(raw.String()), nil
}

// cleanWordText maps Word control characters to plain text and drops field codes.
func cleanWordText(s string) string {
	var (
		out bytes.Buffer
		// one entry per open field; true while still inside its code part
		fields []bool
	)

	hidden := func() bool {
		for _, code := range fields {
			if code {
				return true
			}
		}
		return false
	}

	for _, r := range s {
		switch r {
		case fieldBegin:
			fields = append(fields, true)
			continue
		case fieldSeparator:
			if len(fields) > 0 {
				fields[len(fields)-1] = false
			}
			continue
		case fieldEnd:
			if len(fields) > 0 {
				fields = fields[:len(fields)-1]
			}
			continue
		}

		if hidden() {
			continue
		}

		switch {
		case r == '\r' || r == 0x0B || r == 0x0C:
			out.WriteByte('\n')
		case r == 0x07:
			out.WriteByte('\t')
		case r == 0x1E:
			out.WriteByte('-')
		case r == '\t' || r == '\n':
			out.WriteRune(r)
		case r < 0x20:
		default:
			out.WriteRune(r)
		}
	}

	return out.String()
}
