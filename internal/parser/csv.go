package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/leapform/pkg/core"
)

// csv.go - the CSV parser. The first row is the header (field ids), data
// rows are a sample used for type inference only: a column whose every
// non-empty cell parses as a number becomes `number`, everything else is
// `text`. One file produces exactly one form; the first declared column is
// the primary key unless the caller overrides it.

// placeholderFormID marks a CSV form that has not been named yet; file
// based parsing replaces it with the file stem.
const placeholderFormID = "form"

var titleCaser = cases.Title(language.English)

// ParseCSV parses a CSV form specification.
func ParseCSV(src []byte, opts Options) (*Result, error) {
	reader := csv.NewReader(bytes.NewReader(src))
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &ParseError{Line: 1, Reason: "empty input (expected a header row of field ids)"}
	}
	if err != nil {
		return nil, csvError(err)
	}
	// Hand-authored files regularly start with a BOM.
	header[0] = strings.TrimPrefix(header[0], "\uFEFF")

	ids := make([]string, len(header))
	for i, cell := range header {
		id := strings.TrimSpace(cell)
		if id == "" {
			return nil, &ParseError{Line: 1, Reason: fmt.Sprintf("header column %d has no field id", i+1)}
		}
		ids[i] = id
	}

	numeric := make([]bool, len(ids))
	sampled := make([]bool, len(ids))
	for i := range numeric {
		numeric[i] = true
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvError(err)
		}
		for i, cell := range record {
			if i >= len(ids) {
				break
			}
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			sampled[i] = true
			if _, err := strconv.ParseFloat(cell, 64); err != nil {
				numeric[i] = false
			}
		}
	}

	formID := opts.FormID
	if formID == "" {
		formID = placeholderFormID
	}
	formName := opts.FormName
	if formName == "" {
		formName = labelForID(formID)
	}

	form := core.Form{
		ID:        formID,
		Name:      formName,
		TableName: core.TableNameForID(formID),
		Fields:    make([]core.Field, 0, len(ids)),
	}

	for i, id := range ids {
		fieldType := core.FieldText
		if sampled[i] && numeric[i] {
			fieldType = core.FieldNumber
		}
		form.Fields = append(form.Fields, core.Field{
			ID:    id,
			Label: labelForID(id),
			Type:  fieldType,
		})
	}

	pk := opts.PrimaryKey
	if pk == "" {
		pk = ids[0]
	}
	marked := false
	for i := range form.Fields {
		if form.Fields[i].ID == pk {
			form.Fields[i].PrimaryKey = true
			form.Fields[i].Required = true
			marked = true
			break
		}
	}
	if !marked {
		return nil, &ParseError{Line: 1, Reason: fmt.Sprintf("primary key override %q names no header column", pk)}
	}

	app := &core.App{
		AppID:   form.ID,
		AppName: form.Name,
		Version: "0.1.0",
		Forms:   []core.Form{form},
	}
	return &Result{App: app}, nil
}

// renameDefaultCSVForm names a placeholder CSV form after its file stem.
// Explicit caller options always win.
func renameDefaultCSVForm(app *core.App, stem string) {
	if len(app.Forms) != 1 || app.Forms[0].ID != placeholderFormID {
		return
	}
	form := &app.Forms[0]
	form.ID = core.NormalizeName(stem)
	form.Name = labelForID(form.ID)
	form.TableName = core.TableNameForID(form.ID)
	app.AppID = form.ID
	app.AppName = form.Name
}

// labelForID derives a display label from a snake_case id.
func labelForID(id string) string {
	return titleCaser.String(strings.ReplaceAll(core.NormalizeName(id), "_", " "))
}

// csvError converts encoding/csv failures into parse errors with their
// source line.
func csvError(err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return &ParseError{Line: perr.Line, Reason: perr.Err.Error()}
	}
	return &ParseError{Reason: err.Error()}
}
