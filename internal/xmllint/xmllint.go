// Package xmllint canonicalizes rendered XML: insignificant whitespace is
// discarded and the document is re-serialized with two-space indentation and
// an XML declaration. The pass is purely structural, never changing
// semantic content, and it fails on input that is not well-formed rather
// than emitting malformed output.
package xmllint

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Format re-serializes an XML document in canonical form. It returns an
// error when text is not a well-formed document.
func Format(text string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(text))

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")

	// The decoder is a token scanner, not a document validator: it happily
	// yields several sibling roots or text outside the root. Track element
	// depth so a forest is rejected instead of re-emitted.
	depth := 0
	roots := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("malformed XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.CharData:
			if len(bytes.TrimSpace(t)) == 0 {
				// Whitespace-only text between elements carries no
				// meaning once we re-indent.
				continue
			}
			if depth == 0 {
				return "", fmt.Errorf("malformed XML: text outside the document element")
			}
		case xml.ProcInst:
			if t.Target == "xml" {
				// The declaration is re-emitted from xml.Header.
				continue
			}
		case xml.StartElement:
			if depth == 0 {
				if roots > 0 {
					return "", fmt.Errorf("malformed XML: more than one document element")
				}
				roots++
			}
			depth++
		case xml.EndElement:
			depth--
		}

		if err := enc.EncodeToken(tok); err != nil {
			return "", fmt.Errorf("re-encoding XML: %w", err)
		}
	}

	if roots == 0 {
		return "", fmt.Errorf("malformed XML: no document element")
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("re-encoding XML: %w", err)
	}

	buf.WriteString("\n")
	return buf.String(), nil
}
