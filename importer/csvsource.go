package importer

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// NewCSVReader decodes r with the named encoding (utf-8 by default, BOM dropped)
// and splits on delimiter (";" by default, "tab" for tabs).
func NewCSVReader(r io.Reader, delimiter, encoding string) (*csv.Reader, error) {
	var dec transform.Transformer
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		dec = unicode.BOMOverride(unicode.UTF8.NewDecoder())
	case "latin1", "latin-1", "iso-8859-1":
		dec = charmap.ISO8859_1.NewDecoder()
	case "windows-1252", "cp1252":
		dec = charmap.Windows1252.NewDecoder()
	default:
		return nil, fmt.Errorf("unsupported encoding %q", encoding)
	}

	comma, err := parseDelimiter(delimiter)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(bufio.NewReader(transform.NewReader(r, dec)))
	cr.Comma = comma
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false
	return cr, nil
}

func parseDelimiter(d string) (rune, error) {
	switch d {
	case "":
		return ';', nil
	case "tab", `\t`:
		return '\t', nil
	}
	r, size := utf8.DecodeRuneInString(d)
	if size != len(d) || r == utf8.RuneError {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", d)
	}
	return r, nil
}

// readHeader reads the first record and trims every column name.
func readHeader(r *csv.Reader) ([]string, error) {
	h, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("missing header")
		}
		return nil, err
	}
	for i := range h {
		h[i] = strings.TrimSpace(h[i])
	}
	return h, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
