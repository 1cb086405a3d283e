// =============================================================================
// Excel to Tally XML Converter - XML Writer Module
// =============================================================================
//
// This module builds the Tally "All Masters" import document. Ledger records
// are appended to an in-memory element tree which is serialized once at the
// end, so a document is either produced whole or not at all.
//
// XML STRUCTURE:
//
//   <ENVELOPE>
//       <HEADER>
//           <TALLYREQUEST>Import Data</TALLYREQUEST>
//       </HEADER>
//       <BODY>
//           <IMPORTDATA>
//               <REQUESTDESC>
//                   <REPORTNAME>All Masters</REPORTNAME>
//               </REQUESTDESC>
//               <REQUESTDATA>
//                   <TALLYMESSAGE xmlns:UDF="TallyUDF">   <!-- one per ledger -->
//                       <LEDGER NAME="..." RESERVEDNAME="">
//                           ...
//                       </LEDGER>
//                   </TALLYMESSAGE>
//               </REQUESTDATA>
//           </IMPORTDATA>
//       </BODY>
//   </ENVELOPE>
//
// Element order is fixed by the builder and never depends on row content.
//
// =============================================================================

package xmlwriter

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ginjaninja78/excel-to-tally-xml/internal/types"
)

// =============================================================================
// TALLY CONSTANTS
// =============================================================================

const (
	// TallyRequest marks the envelope as an import.
	TallyRequest = "Import Data"

	// ReportName selects the masters import report.
	ReportName = "All Masters"

	// LanguageID is the Tally language identifier for English.
	LanguageID = "1033"

	// UDFNamespace is the value of the xmlns:UDF attribute on TALLYMESSAGE.
	UDFNamespace = "TallyUDF"
)

// =============================================================================
// XML GENERATION OPTIONS
// =============================================================================

// GenerateOptions contains options for XML serialization.
type GenerateOptions struct {
	// Indent is the string used for one level of indentation.
	// Default: "    " (four spaces)
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
}

// DefaultGenerateOptions returns the default serialization options.
func DefaultGenerateOptions() GenerateOptions {
	return GenerateOptions{
		Indent:                "    ",
		IncludeXMLDeclaration: true,
		XMLVersion:            "1.0",
		Encoding:              "UTF-8",
	}
}

// =============================================================================
// ELEMENT TREE
// =============================================================================

// Attr is an XML attribute. Name is written verbatim, so prefixed names such
// as "xmlns:UDF" are allowed.
type Attr struct {
	Name  string
	Value string
}

// Element is a node of the document tree. An element has either text or
// children; an element with neither is written self-closed.
type Element struct {
	Name     string
	Attrs    []Attr
	Text     string
	Children []*Element
}

// NewElement creates an element with optional attributes.
func NewElement(name string, attrs ...Attr) *Element {
	return &Element{Name: name, Attrs: attrs}
}

// Add appends a child element and returns it.
func (e *Element) Add(name string, attrs ...Attr) *Element {
	child := NewElement(name, attrs...)
	e.Children = append(e.Children, child)
	return child
}

// AddText appends a child element holding text and returns it.
func (e *Element) AddText(name, text string) *Element {
	child := e.Add(name)
	child.Text = text
	return child
}

// =============================================================================
// LEDGER DOCUMENT BUILDER
// =============================================================================

// Builder accumulates ledger fragments into one envelope.
// A Builder is owned by a single conversion and is not safe for concurrent use.
type Builder struct {
	options     GenerateOptions
	envelope    *Element
	requestData *Element
	count       int
}

// NewBuilder creates an empty document with the fixed envelope skeleton.
func NewBuilder(options GenerateOptions) *Builder {
	envelope := NewElement("ENVELOPE")

	header := envelope.Add("HEADER")
	header.AddText("TALLYREQUEST", TallyRequest)

	body := envelope.Add("BODY")
	importData := body.Add("IMPORTDATA")
	requestDesc := importData.Add("REQUESTDESC")
	requestDesc.AddText("REPORTNAME", ReportName)
	requestData := importData.Add("REQUESTDATA")

	return &Builder{
		options:     options,
		envelope:    envelope,
		requestData: requestData,
	}
}

// AddLedger appends one TALLYMESSAGE fragment for record.
//
// FRAGMENT STRUCTURE:
//   <TALLYMESSAGE xmlns:UDF="TallyUDF">
//     <LEDGER NAME="Acme Traders" RESERVEDNAME="">
//       <ADDRESS.LIST TYPE="String">          <!-- always present -->
//         <ADDRESS>...</ADDRESS>               <!-- one per non-empty line -->
//       </ADDRESS.LIST>
//       <MAILINGNAME.LIST TYPE="String">
//         <MAILINGNAME>Acme Traders</MAILINGNAME>
//       </MAILINGNAME.LIST>
//       <STATENAME>...</STATENAME>
//       <COUNTRYNAME>...</COUNTRYNAME>
//       <PARENT>...</PARENT>
//       <OPENINGBALANCE>...</OPENINGBALANCE>
//       <EMAIL>...</EMAIL>                     <!-- only if non-empty -->
//       <MOBILENUMBER>...</MOBILENUMBER>       <!-- only if non-empty -->
//       <LANGUAGENAME.LIST>
//         <NAME.LIST TYPE="String">
//           <NAME>Acme Traders</NAME>
//         </NAME.LIST>
//         <LANGUAGEID>1033</LANGUAGEID>
//       </LANGUAGENAME.LIST>
//     </LEDGER>
//   </TALLYMESSAGE>
func (b *Builder) AddLedger(record types.LedgerRecord) error {
	if strings.TrimSpace(record.Name) == "" {
		return fmt.Errorf("ledger record from row %d has no name", record.SourceRow)
	}

	message := b.requestData.Add("TALLYMESSAGE", Attr{Name: "xmlns:UDF", Value: UDFNamespace})
	ledger := message.Add("LEDGER",
		Attr{Name: "NAME", Value: record.Name},
		Attr{Name: "RESERVEDNAME", Value: ""},
	)

	addressList := ledger.Add("ADDRESS.LIST", Attr{Name: "TYPE", Value: "String"})
	for _, line := range record.AddressLines() {
		addressList.AddText("ADDRESS", line)
	}

	mailingList := ledger.Add("MAILINGNAME.LIST", Attr{Name: "TYPE", Value: "String"})
	mailingList.AddText("MAILINGNAME", record.Name)

	ledger.AddText("STATENAME", record.State)
	ledger.AddText("COUNTRYNAME", record.Country)
	ledger.AddText("PARENT", record.Group)
	ledger.AddText("OPENINGBALANCE", record.OpeningBalance)

	if record.Email != "" {
		ledger.AddText("EMAIL", record.Email)
	}
	if record.Mobile != "" {
		ledger.AddText("MOBILENUMBER", record.Mobile)
	}

	languageList := ledger.Add("LANGUAGENAME.LIST")
	nameList := languageList.Add("NAME.LIST", Attr{Name: "TYPE", Value: "String"})
	nameList.AddText("NAME", record.Name)
	languageList.AddText("LANGUAGEID", LanguageID)

	b.count++
	return nil
}

// Count returns the number of ledger fragments added so far.
func (b *Builder) Count() int {
	return b.count
}

// Root returns the envelope element.
func (b *Builder) Root() *Element {
	return b.envelope
}

// Bytes serializes the document.
func (b *Builder) Bytes() ([]byte, error) {
	var buffer bytes.Buffer

	if b.options.IncludeXMLDeclaration {
		buffer.WriteString(fmt.Sprintf("<?xml version=\"%s\" encoding=\"%s\"?>\n",
			b.options.XMLVersion, b.options.Encoding))
	}

	if err := writeElement(&buffer, b.envelope, b.options.Indent, 0); err != nil {
		return nil, fmt.Errorf("failed to marshal XML: %w", err)
	}

	return buffer.Bytes(), nil
}

// =============================================================================
// SERIALIZATION
// =============================================================================

// writeElement writes an element and its subtree with indentation.
func writeElement(buffer *bytes.Buffer, element *Element, indent string, level int) error {
	if element.Name == "" {
		return fmt.Errorf("element at depth %d has no name", level)
	}
	if element.Text != "" && len(element.Children) > 0 {
		return fmt.Errorf("element %s has both text and children", element.Name)
	}
	if err := checkChars(element.Name, element.Text); err != nil {
		return err
	}
	for _, attr := range element.Attrs {
		if err := checkChars(element.Name+"@"+attr.Name, attr.Value); err != nil {
			return err
		}
	}

	buffer.WriteString(strings.Repeat(indent, level))

	// Opening tag.
	buffer.WriteString("<")
	buffer.WriteString(element.Name)
	for _, attr := range element.Attrs {
		buffer.WriteString(fmt.Sprintf(" %s=\"%s\"", attr.Name, escapeXML(attr.Value)))
	}

	if len(element.Children) == 0 && element.Text == "" {
		buffer.WriteString("/>\n")
		return nil
	}

	buffer.WriteString(">")

	if element.Text != "" {
		buffer.WriteString(escapeXML(element.Text))
	} else {
		buffer.WriteString("\n")

		for _, child := range element.Children {
			if err := writeElement(buffer, child, indent, level+1); err != nil {
				return err
			}
		}

		buffer.WriteString(strings.Repeat(indent, level))
	}

	// Closing tag.
	buffer.WriteString("</")
	buffer.WriteString(element.Name)
	buffer.WriteString(">\n")

	return nil
}

// escapeXML escapes special characters for XML text and attribute values.
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
		default:
			buffer.WriteRune(r)
		}
	}

	return buffer.String()
}

// checkChars rejects text that XML 1.0 cannot carry even when escaped, such
// as the control characters U+0000 to U+001F other than tab, LF and CR.
func checkChars(where, s string) error {
	for _, r := range s {
		if !isXMLChar(r) {
			return fmt.Errorf("element %s contains character %U which is not allowed in XML", where, r)
		}
	}
	return nil
}

// isXMLChar reports whether r matches the Char production of XML 1.0.
func isXMLChar(r rune) bool {
	switch {
	case r == 0x09 || r == 0x0A || r == 0x0D:
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}
