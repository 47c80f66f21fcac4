// =============================================================================
// Vessel Flow Parser - XML Writer Module
// =============================================================================
//
// This module is the file-based record sink. Records pushed by the converter
// are kept in memory and written as one XML document when the writer is
// closed. The document is written to a temporary file first and renamed into
// place, so a failed run never leaves a half-written output behind.
//
// XML STRUCTURE:
//
//   <flows run="6f1c...">                      <!-- Root element, run id -->
//     <record n="1">                           <!-- One element per push -->
//       <id>FL-1</id>                          <!-- Fields in staging order -->
//       <creation-date>01/05/2024/00:00+0100</creation-date>
//       <load-port-name>Mongstad</load-port-name>
//       <discharge-port-name/>                 <!-- Empty values self-close -->
//       ...
//     </record>
//     <record n="2"/>                          <!-- Rolled back, then pushed -->
//   </flows>
//
// CUSTOMIZATION:
//   - Change element names and indentation via GenerateOptions
//   - Add attributes to the root element (e.g. a namespace)
//   - Drop empty fields with OmitEmpty
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"github.com/vitaliisumka/workbook-parser/internal/flow"
	"github.com/vitaliisumka/workbook-parser/internal/sink"
	"github.com/vitaliisumka/workbook-parser/internal/validation"
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for XML generation.
type GenerateOptions struct {
	// Indent is the string used for indentation.
	// Default: "  " (two spaces)
	Indent string

	// IncludeXMLDeclaration determines whether to include the XML declaration.
	// Default: true
	IncludeXMLDeclaration bool

	// XMLVersion is the XML version for the declaration.
	// Default: "1.0"
	XMLVersion string

	// Encoding is the encoding for the XML declaration.
	// Default: "UTF-8"
	Encoding string

	// RootElement is the name of the document element.
	// Default: "flows"
	RootElement string

	// RecordElement is the name of the per-record element.
	// Default: "record"
	RecordElement string

	// RecordIndexAttribute is the attribute carrying the record sequence.
	// Default: "n"
	RecordIndexAttribute string

	// RootAttributes are additional attributes for the root element.
	// They are written in name order.
	RootAttributes map[string]string

	// OmitEmpty skips fields with an empty value.
	// Default: false
	OmitEmpty bool
}

// DefaultGenerateOptions returns the default generation options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:                "  ",
		IncludeXMLDeclaration: true,
		XMLVersion:            "1.0",
		Encoding:              "UTF-8",
		RootElement:           "flows",
		RecordElement:         "record",
		RecordIndexAttribute:  "n",
		RootAttributes:        make(map[string]string),
	}
}

// =============================================================================
// XML SINK
// =============================================================================

// Writer is a sink.Emitter that writes an XML document on Close.
type Writer struct {
	*sink.Staging

	path    string
	runID   string
	options GenerateOptions

	mu      sync.Mutex
	records []sink.Record
	closed  bool
}

// NewWriter creates a Writer for the output file at path.
//
// PARAMETERS:
//   - path: Destination of the XML document. The directory must exist.
//   - runID: Written as the root's "run" attribute.
//   - v: Field validator applied on commit (nil for the defaults).
//   - options: Document layout.
func NewWriter(path, runID string, v *validation.Validator, options GenerateOptions) *Writer {
	return &Writer{
		Staging: sink.NewStaging(v),
		path:    path,
		runID:   runID,
		options: options,
	}
}

// Push appends the staged record to the document.
func (w *Writer) Push(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return sink.ErrClosed
	}
	w.records = append(w.records, w.Take())
	return nil
}

// Close writes the document. Calling Close twice is a no-op.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true

	data, err := GenerateWithOptions(w.records, w.runID, w.options)
	if err != nil {
		return err
	}
	return writeFileAtomic(w.path, data)
}

// writeFileAtomic writes data next to path and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary output: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close output: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

// =============================================================================
// XML GENERATION FUNCTIONS
// =============================================================================

// Generate creates an XML document from pushed records with default options.
func Generate(records []sink.Record, runID string) ([]byte, error) {
	return GenerateWithOptions(records, runID, DefaultGenerateOptions())
}

// GenerateWithOptions creates an XML document with custom options.
//
// GENERATION PROCESS:
//   1. Write the XML declaration (optional)
//   2. Open the root element with the run id and extra attributes
//   3. Write one record element per pushed record, fields in staging order
//   4. Close the root element
func GenerateWithOptions(records []sink.Record, runID string, options GenerateOptions) ([]byte, error) {
	if !validName(options.RootElement) || !validName(options.RecordElement) || !validName(options.RecordIndexAttribute) {
		return nil, fmt.Errorf("invalid element names in generate options")
	}

	var buffer bytes.Buffer

	if options.IncludeXMLDeclaration {
		buffer.WriteString(fmt.Sprintf("<?xml version=\"%s\" encoding=\"%s\"?>\n",
			options.XMLVersion, options.Encoding))
	}

	root := element{name: options.RootElement}
	if runID != "" {
		root.attrs = append(root.attrs, attr{"run", runID})
	}
	names := make([]string, 0, len(options.RootAttributes))
	for name := range options.RootAttributes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		root.attrs = append(root.attrs, attr{name, options.RootAttributes[name]})
	}

	for _, rec := range records {
		re := element{
			name:  options.RecordElement,
			attrs: []attr{{options.RecordIndexAttribute, strconv.Itoa(rec.Seq)}},
		}
		for _, v := range rec.Values {
			if options.OmitEmpty && v.Value == "" {
				continue
			}
			if !validName(string(v.Field)) {
				return nil, fmt.Errorf("field '%s' is not a valid XML name", v.Field)
			}
			re.children = append(re.children, element{name: string(v.Field), value: v.Value})
		}
		root.children = append(root.children, re)
	}

	if len(root.children) == 0 {
		writeElement(&buffer, root, options.Indent, 0)
		return buffer.Bytes(), nil
	}

	buffer.WriteString("<")
	buffer.WriteString(root.name)
	writeAttrs(&buffer, root.attrs)
	buffer.WriteString(">\n")
	for _, child := range root.children {
		writeElement(&buffer, child, options.Indent, 1)
	}
	buffer.WriteString("</")
	buffer.WriteString(root.name)
	buffer.WriteString(">\n")

	return buffer.Bytes(), nil
}

// =============================================================================
// XML DOCUMENT BUILDING
// =============================================================================

type attr struct {
	name, value string
}

type element struct {
	name     string
	attrs    []attr
	value    string
	children []element
}

// writeElement writes an XML element to the buffer with indentation.
func writeElement(buffer *bytes.Buffer, el element, indent string, level int) {
	for i := 0; i < level; i++ {
		buffer.WriteString(indent)
	}

	buffer.WriteString("<")
	buffer.WriteString(el.name)
	writeAttrs(buffer, el.attrs)

	if len(el.children) == 0 && el.value == "" {
		buffer.WriteString("/>\n")
		return
	}

	buffer.WriteString(">")

	if el.value != "" {
		buffer.WriteString(escapeXML(el.value))
	} else {
		buffer.WriteString("\n")
		for _, child := range el.children {
			writeElement(buffer, child, indent, level+1)
		}
		for i := 0; i < level; i++ {
			buffer.WriteString(indent)
		}
	}

	buffer.WriteString("</")
	buffer.WriteString(el.name)
	buffer.WriteString(">\n")
}

func writeAttrs(buffer *bytes.Buffer, attrs []attr) {
	for _, a := range attrs {
		buffer.WriteString(fmt.Sprintf(" %s=\"%s\"", a.name, escapeXML(a.value)))
	}
}

// escapeXML escapes special characters for XML.
func escapeXML(s string) string {
	var buffer bytes.Buffer

	for _, r := range s {
		switch r {
		case '&':
			buffer.WriteString("&amp;")
		case '<':
			buffer.WriteString("&lt;")
		case '>':
			buffer.WriteString("&gt;")
		case '"':
			buffer.WriteString("&quot;")
		case '\'':
			buffer.WriteString("&apos;")
		case '\t':
			buffer.WriteString("&#x9;")
		case '\n':
			buffer.WriteString("&#xA;")
		case '\r':
			buffer.WriteString("&#xD;")
		default:
			buffer.WriteRune(r)
		}
	}

	return buffer.String()
}

// validName reports whether s is a usable unprefixed XML name.
func validName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		letter := r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if i == 0 && !letter {
			return false
		}
		if !letter && r != '-' && r != '.' && !(r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

// =============================================================================
// XSD GENERATION
// =============================================================================

// GenerateXSD creates an XSD schema describing documents written with options.
// Every field is optional when OmitEmpty is set, and required otherwise.
func GenerateXSD(options GenerateOptions) ([]byte, error) {
	var buffer bytes.Buffer

	buffer.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
`)

	buffer.WriteString(fmt.Sprintf(`  <xs:element name="%s">
    <xs:complexType>
      <xs:sequence>
        <xs:element ref="%s" minOccurs="0" maxOccurs="unbounded"/>
      </xs:sequence>
      <xs:attribute name="run" type="xs:string"/>
    </xs:complexType>
  </xs:element>

`, options.RootElement, options.RecordElement))

	buffer.WriteString(fmt.Sprintf(`  <xs:element name="%s">
    <xs:complexType>
      <xs:sequence minOccurs="0">
`, options.RecordElement))

	minOccurs := "1"
	if options.OmitEmpty {
		minOccurs = "0"
	}
	defaults := validation.DefaultValidationOptions()
	for _, f := range flow.Fields() {
		limit, ok := defaults.MaxLengths[f]
		if !ok {
			limit = validation.DefaultMaxLength
		}
		buffer.WriteString(fmt.Sprintf(`        <xs:element name="%s" minOccurs="%s">
          <xs:simpleType>
            <xs:restriction base="xs:string">
              <xs:maxLength value="%d"/>
            </xs:restriction>
          </xs:simpleType>
        </xs:element>
`, f, minOccurs, limit))
	}

	buffer.WriteString(fmt.Sprintf(`      </xs:sequence>
      <xs:attribute name="%s" type="xs:positiveInteger" use="required"/>
    </xs:complexType>
  </xs:element>

</xs:schema>
`, options.RecordIndexAttribute))

	return buffer.Bytes(), nil
}
