// Package csvutil contains resilient CSV parsing helpers for "dirty"
// uploads. The standard library csv.Reader is intentionally strict;
// extracted ERP data can include unbalanced quotes, embedded CRLF inside
// quoted fields, stray bytes that are not valid UTF-8, and short rows.
// These helpers parse such inputs predictably: invalid UTF-8 is dropped
// rather than failing the read, and short rows are padded to header width
// so every row loads with a uniform field count.
package csvutil

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ReadAll parses a whole CSV payload into its header and data rows. The
// first logical line is the header; each data row is padded with empty
// strings up to the header width (missing trailing fields load as empty,
// mirroring the historical extract behavior). Rows longer than the header
// are kept at their own length so a shape problem stays visible to the
// loader's parameter-count check.
func ReadAll(content []byte) (header []string, rows [][]string, err error) {
	r := bufio.NewReader(strings.NewReader(strings.ToValidUTF8(string(content), "")))

	line, err := ReadLogicalLine(r)
	if err == io.EOF {
		return nil, nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, nil, err
	}
	header = SplitLoose(line)
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	for {
		line, err := ReadLogicalLine(r)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		row := SplitLoose(line)
		for len(row) < len(header) {
			row = append(row, "")
		}
		rows = append(rows, row)
	}
	return header, rows, nil
}

// Header parses only the first logical line of a CSV payload.
func Header(content []byte) ([]string, error) {
	r := bufio.NewReader(strings.NewReader(strings.ToValidUTF8(string(content), "")))
	line, err := ReadLogicalLine(r)
	if err != nil {
		return nil, err
	}
	return SplitLoose(line), nil
}

// ReadLogicalLine reads one logical CSV line from r. If a quoted field
// spans multiple physical lines (contains CRLF), reading continues until a
// structurally plausible closing quote and delimiter boundary is observed.
// On EOF without a trailing newline the accumulated content is returned as
// the final logical line; at EOF with nothing accumulated, io.EOF.
func ReadLogicalLine(r *bufio.Reader) (string, error) {
	var sb strings.Builder
	inQuotes := false
	firstChunk := true

	for {
		part, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return "", err
		}
		atEOF := err == io.EOF
		part = strings.TrimRight(part, "\r\n")

		// Re-insert the CRLF boundary when continuing a quoted field.
		if !firstChunk && inQuotes {
			sb.WriteString("\r\n")
		}
		sb.WriteString(part)
		firstChunk = false

		inQuotes = stillInQuotes(part, inQuotes)

		if !inQuotes || atEOF {
			if sb.Len() == 0 && atEOF {
				return "", io.EOF
			}
			return sb.String(), nil
		}
	}
}

// stillInQuotes scans one physical line chunk and reports whether the
// position after it is inside an open quoted field.
func stillInQuotes(part string, inQuotes bool) bool {
	atStartOfField := !inQuotes
	i := 0
	for i < len(part) {
		switch part[i] {
		case ',':
			if !inQuotes {
				atStartOfField = true
			}
			i++
		case '"':
			if inQuotes {
				// Doubled quote is an escaped literal quote.
				if i+1 < len(part) && part[i+1] == '"' {
					i += 2
					continue
				}
				// A quote followed by delimiter or end closes the field.
				j := i + 1
				for j < len(part) && (part[j] == ' ' || part[j] == '\t') {
					j++
				}
				if j >= len(part) || part[j] == ',' {
					inQuotes = false
					atStartOfField = false
				}
				i++
			} else {
				if atStartOfField {
					inQuotes = true
				}
				atStartOfField = false
				i++
			}
		default:
			if !inQuotes {
				atStartOfField = false
			}
			i++
		}
	}
	return inQuotes
}

// SplitLoose splits a single CSV line into fields with a tolerant strategy:
// surrounding quotes are removed, doubled quotes inside quoted fields
// become a literal quote, inner quotes in unquoted fields are kept as
// literals, and commas inside quoted fields are preserved. It never fails;
// malformed constructs degrade gracefully.
func SplitLoose(line string) []string {
	var fields []string
	var sb strings.Builder
	inQuotes := false
	atStartOfField := true
	i := 0

	for i < len(line) {
		ch := line[i]
		switch ch {
		case ',':
			if inQuotes {
				sb.WriteByte(',')
			} else {
				fields = append(fields, sb.String())
				sb.Reset()
				atStartOfField = true
			}
			i++
		case '"':
			if inQuotes {
				if i+1 < len(line) && line[i+1] == '"' {
					sb.WriteByte('"')
					i += 2
					continue
				}
				j := i + 1
				for j < len(line) && (line[j] == ' ' || line[j] == '\t') {
					j++
				}
				if j >= len(line) || line[j] == ',' {
					inQuotes = false
					i++
					continue
				}
				sb.WriteByte('"')
				i++
			} else {
				if atStartOfField {
					inQuotes = true
					atStartOfField = false
				} else {
					sb.WriteByte('"')
				}
				i++
			}
		default:
			sb.WriteByte(ch)
			if !inQuotes {
				atStartOfField = false
			}
			i++
		}
	}
	fields = append(fields, sb.String())
	return fields
}

// WriteAll renders a header and rows back into CSV text. Fields containing
// the delimiter, quotes, or newlines are quoted with doubled inner quotes.
func WriteAll(header []string, rows [][]string) []byte {
	var sb strings.Builder
	writeRow(&sb, header)
	for _, row := range rows {
		writeRow(&sb, row)
	}
	return []byte(sb.String())
}

func writeRow(sb *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		if strings.ContainsAny(f, ",\"\r\n") {
			sb.WriteByte('"')
			sb.WriteString(strings.ReplaceAll(f, `"`, `""`))
			sb.WriteByte('"')
		} else {
			sb.WriteString(f)
		}
	}
	sb.WriteString("\r\n")
}
