package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/leapstack-labs/leapform/pkg/core"
)

// markdown.go - the markdown-table parser. A document holds one or more
// form sections introduced by a "Form: <name>" heading. Each section has a
// field table, optional ID/Table definition lines, explicit Primary Key /
// Foreign Key annotation lines, and an optional "Select Box Options"
// sub-section keyed by field id. Nothing is ever inferred from prose.

var (
	markdownOnce     sync.Once
	markdownInstance goldmark.Markdown
)

// markdownParser returns the shared goldmark instance. The configuration
// never changes, so one instance serves all parses.
func markdownParser() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdownInstance = goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		)
	})
	return markdownInstance
}

var (
	formHeadingPattern    = regexp.MustCompile(`(?i)^form\s*:\s*(.+)$`)
	optionsHeadingPattern = regexp.MustCompile(`(?i)^select\s+box\s+options$`)

	appIDPattern   = regexp.MustCompile(`(?i)^app\s+id\s*:\s*(\S.*)$`)
	appNamePattern = regexp.MustCompile(`(?i)^app\s+name\s*:\s*(\S.*)$`)
	versionPattern = regexp.MustCompile(`(?i)^version\s*:\s*(\S.*)$`)

	formIDPattern    = regexp.MustCompile(`(?i)^id\s*:\s*(\S+)\s*$`)
	formTablePattern = regexp.MustCompile(`(?i)^table\s*:\s*(\S+)\s*$`)

	primaryKeyStart   = regexp.MustCompile(`(?i)^primary\s+key\s*:`)
	primaryKeyPattern = regexp.MustCompile("(?i)^primary\\s+key\\s*:\\s*`([^`]+)`\\s*$")

	foreignKeyStart   = regexp.MustCompile(`(?i)^foreign\s+key\s*:`)
	foreignKeyPattern = regexp.MustCompile("(?i)^foreign\\s+key\\s*:\\s*`([^`]+)`\\s*(?:→|->)\\s*`([^`]+)\\.([^`]+)`" +
		"(?:\\s*\\(label\\s*:\\s*`([^`]+)`\\))?\\s*$")

	optionLinePattern = regexp.MustCompile(`^([A-Za-z0-9_][A-Za-z0-9_/ ]*?)\s*:\s*(.+)$`)
	linkPhrasePattern = regexp.MustCompile(`(?i)\blinks?\s+to\s+(?:the\s+)?(?:parent\s+)?([A-Za-z0-9_ ]+)`)
)

// mdColumn indexes the known header synonyms.
type mdColumn int

const (
	colID mdColumn = iota
	colLabel
	colType
	colSize
	colRequired
	colDefault
	colPurpose
)

var headerColumns = map[string]mdColumn{
	"field name": colID,
	"label":      colLabel,
	"type":       colType,
	"size":       colSize,
	"required":   colRequired,
	"default":    colDefault,
	"purpose":    colPurpose,
}

const headerSynonyms = "Field Name, Label, Type, Size, Required, Default, Purpose"

// ParseMarkdown parses a markdown form specification document.
func ParseMarkdown(src []byte, opts Options) (*Result, error) {
	doc := markdownParser().Parser().Parse(text.NewReader(src))

	p := &mdParser{src: src, opts: opts, app: &core.App{}}
	for child := doc.FirstChild(); child != nil; child = child.NextSibling() {
		if err := p.block(child); err != nil {
			return nil, err
		}
	}
	if err := p.closeSection(); err != nil {
		return nil, err
	}
	if len(p.app.Forms) == 0 {
		return nil, &ParseError{Reason: "no form sections found (expected a \"Form: <name>\" heading)"}
	}

	p.finishApp()
	return &Result{App: p.app, Suggestions: p.suggestions}, nil
}

// mdParser carries the walk state across top-level blocks.
type mdParser struct {
	src  []byte
	opts Options

	app     *core.App
	appName string
	appID   string
	version string

	section     *mdSection
	suggestions []Suggestion
}

// mdSection accumulates one form section. Annotations are recorded where
// they appear and resolved against the field table when the section
// closes, so their position relative to the table does not matter.
type mdSection struct {
	form     core.Form
	line     int
	hasTable bool
	options  bool // inside the Select Box Options sub-section

	pks      []pkAnnotation
	fks      []fkAnnotation
	optDecls []optionDecl
	purposes map[string]string
}

type pkAnnotation struct {
	field string
	line  int
}

type fkAnnotation struct {
	field      string
	targetForm string
	targetID   string
	label      string
	line       int
}

type optionDecl struct {
	keys   []string
	values []string
	line   int
}

func (p *mdParser) block(n ast.Node) error {
	switch n.Kind() {
	case ast.KindHeading:
		return p.heading(n.(*ast.Heading))
	case ast.KindParagraph:
		return p.paragraph(n)
	case ast.KindList:
		return p.list(n)
	case extast.KindTable:
		return p.table(n)
	}
	return nil
}

func (p *mdParser) heading(h *ast.Heading) error {
	title := inlineText(p.src, h)

	if m := formHeadingPattern.FindStringSubmatch(title); m != nil {
		if err := p.closeSection(); err != nil {
			return err
		}
		name := strings.TrimSpace(m[1])
		p.section = &mdSection{
			form:     core.Form{ID: core.NormalizeName(name), Name: name},
			line:     nodeLine(p.src, h),
			purposes: make(map[string]string),
		}
		return nil
	}

	if optionsHeadingPattern.MatchString(title) {
		if p.section == nil {
			return &ParseError{Line: nodeLine(p.src, h), Reason: "select box options outside a form section"}
		}
		p.section.options = true
		return nil
	}

	if h.Level == 1 && p.section == nil && p.appName == "" {
		p.appName = title
	}
	// Any other heading ends an options sub-section but keeps the form
	// section open (notes between sections are common).
	if p.section != nil {
		p.section.options = false
	}
	return nil
}

func (p *mdParser) paragraph(n ast.Node) error {
	for _, ln := range blockLines(p.src, n) {
		if ln.text == "" {
			continue
		}
		var err error
		switch {
		case p.section == nil:
			p.appMetaLine(ln.text)
		case p.section.options:
			err = p.optionLine(ln)
		default:
			err = p.sectionLine(ln)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// appMetaLine records preamble metadata. Unrecognized prose is ignored.
func (p *mdParser) appMetaLine(line string) {
	if m := appIDPattern.FindStringSubmatch(line); m != nil {
		p.appID = strings.TrimSpace(m[1])
		return
	}
	if m := appNamePattern.FindStringSubmatch(line); m != nil {
		p.appName = strings.TrimSpace(m[1])
		return
	}
	if m := versionPattern.FindStringSubmatch(line); m != nil {
		p.version = strings.TrimSpace(m[1])
	}
}

// sectionLine handles definition and annotation lines inside a form
// section. A line that starts like an annotation but does not match its
// grammar is a structural error; silently treating it as prose would drop
// a declared key or reference.
func (p *mdParser) sectionLine(ln rawLine) error {
	s := p.section

	if m := formIDPattern.FindStringSubmatch(ln.text); m != nil {
		s.form.ID = m[1]
		return nil
	}
	if m := formTablePattern.FindStringSubmatch(ln.text); m != nil {
		s.form.TableName = m[1]
		return nil
	}

	if primaryKeyStart.MatchString(ln.text) {
		m := primaryKeyPattern.FindStringSubmatch(ln.text)
		if m == nil {
			return &ParseError{Line: ln.line, Reason: "malformed primary key annotation (expected Primary Key: `field`)"}
		}
		s.pks = append(s.pks, pkAnnotation{field: m[1], line: ln.line})
		return nil
	}

	if foreignKeyStart.MatchString(ln.text) {
		m := foreignKeyPattern.FindStringSubmatch(ln.text)
		if m == nil {
			return &ParseError{Line: ln.line, Reason: "malformed foreign key annotation (expected Foreign Key: `field` -> `form.field`)"}
		}
		s.fks = append(s.fks, fkAnnotation{
			field:      m[1],
			targetForm: m[2],
			targetID:   m[3],
			label:      m[4],
			line:       ln.line,
		})
		return nil
	}

	return nil
}

func (p *mdParser) optionLine(ln rawLine) error {
	// Authors often backtick field ids and values; backticks carry no
	// meaning on option lines.
	clean := strings.ReplaceAll(ln.text, "`", "")
	m := optionLinePattern.FindStringSubmatch(clean)
	if m == nil {
		return &ParseError{Line: ln.line, Reason: fmt.Sprintf("malformed option line %q (expected field: a, b, c)", ln.text)}
	}

	var keys []string
	for _, key := range strings.Split(m[1], "/") {
		if key = strings.TrimSpace(key); key != "" {
			keys = append(keys, key)
		}
	}
	var values []string
	for _, v := range strings.Split(m[2], ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	if len(keys) == 0 {
		return &ParseError{Line: ln.line, Reason: "option line names no field"}
	}

	p.section.optDecls = append(p.section.optDecls, optionDecl{keys: keys, values: values, line: ln.line})
	return nil
}

// list feeds option list items; outside an options sub-section lists are
// prose and skipped.
func (p *mdParser) list(n ast.Node) error {
	if p.section == nil || !p.section.options {
		return nil
	}
	for item := n.FirstChild(); item != nil; item = item.NextSibling() {
		for block := item.FirstChild(); block != nil; block = block.NextSibling() {
			for _, ln := range blockLines(p.src, block) {
				if ln.text == "" {
					continue
				}
				if err := p.optionLine(ln); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (p *mdParser) table(n ast.Node) error {
	line := nodeLine(p.src, n)
	if p.section == nil {
		return &ParseError{Line: line, Reason: "field table outside a form section"}
	}
	if p.section.options {
		return &ParseError{Line: line, Reason: "unexpected table inside select box options"}
	}
	if p.section.hasTable {
		return &ParseError{Line: line, Reason: fmt.Sprintf("multiple field tables in form section %q", p.section.form.ID)}
	}

	var headers []string
	type tableRow struct {
		cells []string
		line  int
	}
	var rows []tableRow
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch child.Kind() {
		case extast.KindTableHeader:
			headers, _ = rowCells(p.src, child)
		case extast.KindTableRow:
			cells, rowLine := rowCells(p.src, child)
			rows = append(rows, tableRow{cells: cells, line: rowLine})
		}
	}

	colmap, err := mapHeaders(headers, line)
	if err != nil {
		return err
	}

	for _, row := range rows {
		field, err := buildField(row.cells, colmap, row.line)
		if err != nil {
			return err
		}
		if purpose := cellAt(row.cells, colmap, colPurpose); purpose != "" {
			p.section.purposes[field.ID] = purpose
		}
		p.section.form.Fields = append(p.section.form.Fields, field)
	}

	p.section.hasTable = true
	return nil
}

// mapHeaders matches header cells case-insensitively against the known
// synonym set. Unknown or duplicate headers and a missing Field Name
// column are structural errors.
func mapHeaders(headers []string, line int) (map[mdColumn]int, error) {
	colmap := make(map[mdColumn]int, len(headers))
	for i, h := range headers {
		key := strings.ToLower(strings.Join(strings.Fields(h), " "))
		col, ok := headerColumns[key]
		if !ok {
			return nil, &ParseError{Line: line, Reason: fmt.Sprintf("unknown column header %q (expected one of: %s)", h, headerSynonyms)}
		}
		if _, dup := colmap[col]; dup {
			return nil, &ParseError{Line: line, Reason: fmt.Sprintf("duplicate column header %q", h)}
		}
		colmap[col] = i
	}
	if _, ok := colmap[colID]; !ok {
		return nil, &ParseError{Line: line, Reason: "field table has no Field Name column"}
	}
	return colmap, nil
}

func cellAt(cells []string, colmap map[mdColumn]int, col mdColumn) string {
	idx, ok := colmap[col]
	if !ok || idx >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[idx])
}

func buildField(cells []string, colmap map[mdColumn]int, line int) (core.Field, error) {
	field := core.Field{
		ID:      cellAt(cells, colmap, colID),
		Label:   cellAt(cells, colmap, colLabel),
		Default: cellAt(cells, colmap, colDefault),
	}

	// The type cell keeps its (lowercased) spelling when unrecognized so
	// the validator can report it against the closed set.
	if typeCell := cellAt(cells, colmap, colType); typeCell != "" {
		if t, ok := core.ParseFieldType(typeCell); ok {
			field.Type = t
		} else {
			field.Type = core.FieldType(strings.ToLower(typeCell))
		}
	}

	if sizeCell := cellAt(cells, colmap, colSize); sizeCell != "" {
		size, err := strconv.Atoi(sizeCell)
		if err != nil {
			return core.Field{}, &ParseError{Line: line, Reason: fmt.Sprintf("invalid size %q for field %q", sizeCell, field.ID)}
		}
		field.Size = size
	}

	field.Required = parseRequired(cellAt(cells, colmap, colRequired))
	return field, nil
}

// parseRequired recognizes the usual affirmative spellings; anything else
// is optional.
func parseRequired(s string) bool {
	switch strings.ToLower(s) {
	case "yes", "y", "true", "1", "required", "x", "✓":
		return true
	}
	return false
}

// closeSection resolves recorded annotations against the parsed fields
// and appends the finished form.
func (p *mdParser) closeSection() error {
	s := p.section
	if s == nil {
		return nil
	}
	p.section = nil

	form := &s.form

	for _, decl := range s.optDecls {
		for _, key := range decl.keys {
			field := form.Field(key)
			if field == nil {
				return &ParseError{Line: decl.line, Reason: fmt.Sprintf("select options reference unknown field %q in form %q", key, form.ID)}
			}
			if field.Type != core.FieldSelect {
				return &ParseError{Line: decl.line, Reason: fmt.Sprintf("select options declared for non-select field %q", key)}
			}
			// Shared keys get their own copy of the sequence.
			values := make([]string, len(decl.values))
			copy(values, decl.values)
			field.Options = values
		}
	}

	for _, pk := range s.pks {
		field := form.Field(pk.field)
		if field == nil {
			return &ParseError{Line: pk.line, Reason: fmt.Sprintf("primary key annotation names unknown field %q", pk.field)}
		}
		field.PrimaryKey = true
	}

	for _, fk := range s.fks {
		field := form.Field(fk.field)
		if field == nil {
			return &ParseError{Line: fk.line, Reason: fmt.Sprintf("foreign key annotation names unknown field %q", fk.field)}
		}
		label := fk.label
		if label == "" {
			label = fk.targetID
		}
		field.Reference = &core.Reference{Form: fk.targetForm, Field: fk.targetID, LabelField: label}
		// An annotated select stays a select bound to the reference;
		// any other declared type becomes an explicit foreign key.
		if field.Type != core.FieldSelect {
			field.Type = core.FieldForeignKey
		}
	}

	if p.opts.SuggestReferences {
		for i := range form.Fields {
			field := &form.Fields[i]
			if field.Reference != nil {
				continue
			}
			purpose := s.purposes[field.ID]
			if m := linkPhrasePattern.FindStringSubmatch(purpose); m != nil {
				p.suggestions = append(p.suggestions, Suggestion{
					FormID:     form.ID,
					FieldID:    field.ID,
					TargetForm: core.NormalizeName(m[1]),
					Phrase:     strings.TrimSpace(m[0]),
				})
			}
		}
	}

	if form.TableName == "" {
		form.TableName = core.TableNameForID(form.ID)
	}

	p.app.Forms = append(p.app.Forms, *form)
	return nil
}

func (p *mdParser) finishApp() {
	p.app.AppName = p.appName
	p.app.AppID = p.appID
	if p.app.AppID == "" && p.appName != "" {
		p.app.AppID = core.NormalizeName(p.appName)
	}
	if p.app.AppID == "" {
		p.app.AppID = "app"
	}
	if p.app.AppName == "" {
		p.app.AppName = p.app.AppID
	}
	p.app.Version = p.version
	if p.app.Version == "" {
		p.app.Version = "0.1.0"
	}
}

// AST text helpers.

type rawLine struct {
	text string
	line int
}

type liner interface {
	Lines() *text.Segments
}

// blockLines returns a block node's raw source lines with their line
// numbers. Raw text keeps backticks and arrows, which the annotation
// grammar depends on.
func blockLines(src []byte, n ast.Node) []rawLine {
	ln, ok := n.(liner)
	if !ok {
		return nil
	}
	var out []rawLine
	for i := 0; i < ln.Lines().Len(); i++ {
		seg := ln.Lines().At(i)
		out = append(out, rawLine{
			text: strings.TrimSpace(string(seg.Value(src))),
			line: offsetLine(src, seg.Start),
		})
	}
	return out
}

// inlineText renders a node's plain text content: text segments plus code
// span contents, markup stripped.
func inlineText(src []byte, n ast.Node) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

// rowCells extracts cell text from a table header or row node, with the
// source line of the first cell.
func rowCells(src []byte, row ast.Node) ([]string, int) {
	var cells []string
	line := 0
	for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
		if cell.Kind() != extast.KindTableCell {
			continue
		}
		if line == 0 {
			line = nodeLine(src, cell)
		}
		cells = append(cells, inlineText(src, cell))
	}
	return cells, line
}

// nodeLine resolves a node to a 1-based source line, falling back to the
// first text descendant for nodes without recorded lines (table internals).
func nodeLine(src []byte, n ast.Node) int {
	if ln, ok := n.(liner); ok && ln.Lines().Len() > 0 {
		return offsetLine(src, ln.Lines().At(0).Start)
	}
	line := 0
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering || line != 0 {
			return ast.WalkContinue, nil
		}
		if t, ok := c.(*ast.Text); ok {
			line = offsetLine(src, t.Segment.Start)
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return line
}

func offsetLine(src []byte, offset int) int {
	if offset > len(src) {
		offset = len(src)
	}
	return 1 + bytes.Count(src[:offset], []byte{'\n'})
}
