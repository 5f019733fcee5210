package builder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/leapform/pkg/core"
)

// postgres.go - the DDL target. Each form renders to its CREATE TABLE
// plus index statements; foreign keys go into the document epilogue so a
// combined script creates every table before the first constraint.
// Dynamic "@..." defaults never reach the DDL, the platform runtime
// resolves them at insert time.

func init() {
	Register("postgres", func() Builder { return &postgresBuilder{} })
}

var reservedIdents = map[string]struct{}{
	"user": {}, "select": {}, "table": {}, "insert": {}, "update": {}, "delete": {},
	"where": {}, "join": {}, "group": {}, "order": {}, "limit": {}, "offset": {},
	"primary": {}, "foreign": {}, "key": {}, "constraint": {}, "default": {},
	"from": {}, "into": {}, "values": {}, "unique": {}, "index": {}, "create": {},
	"drop": {}, "alter": {}, "schema": {}, "grant": {}, "revoke": {}, "check": {},
	"references": {}, "and": {}, "or": {}, "not": {}, "null": {}, "column": {},
}

type postgresBuilder struct{}

func (b *postgresBuilder) Name() string          { return "postgres" }
func (b *postgresBuilder) FileExtension() string { return ".sql" }

func (b *postgresBuilder) BuildForm(app *core.App, form *core.Form, _ core.Profile) (*Document, error) {
	table := quoteIdent(form.TableName)

	var cols []string
	for _, field := range form.Fields {
		col, err := columnDef(app, form, field)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}

	var body strings.Builder
	fmt.Fprintf(&body, "create table if not exists %s (\n  %s\n);\n",
		table, strings.Join(cols, ",\n  "))

	for _, idx := range form.Indexes {
		switch idx.Kind {
		case core.IndexUnique:
			fmt.Fprintf(&body, "create unique index if not exists %s on %s (%s);\n",
				quoteIdent(indexName(form.TableName, idx.Fields, "uq")), table, identList(idx.Fields))
		case core.IndexComposite:
			fmt.Fprintf(&body, "create index if not exists %s on %s (%s);\n",
				quoteIdent(indexName(form.TableName, idx.Fields, "idx")), table, identList(idx.Fields))
		}
		// The primary kind is already expressed on the key column.
	}

	var epilogue strings.Builder
	for _, field := range form.References() {
		ref := field.Reference
		target := app.Form(ref.Form)
		if target == nil {
			return nil, &BuildError{
				FormID:  form.ID,
				FieldID: field.ID,
				Target:  "postgres",
				Reason:  fmt.Sprintf("references unknown form %q", ref.Form),
			}
		}
		fmt.Fprintf(&epilogue, "alter table %s add constraint %s foreign key (%s) references %s (%s);\n",
			table,
			quoteIdent(constraintName(form.TableName, field.ID, "fk")),
			quoteIdent(field.ID),
			quoteIdent(target.TableName),
			quoteIdent(ref.Field))
	}

	return &Document{
		FormID:   form.ID,
		Target:   "postgres",
		Filename: form.ID + b.FileExtension(),
		Content:  []byte(body.String()),
		Epilogue: []byte(epilogue.String()),
	}, nil
}

// columnDef renders one column clause.
func columnDef(app *core.App, form *core.Form, field core.Field) (string, error) {
	typ, err := columnType(app, form, field)
	if err != nil {
		return "", err
	}

	parts := []string{quoteIdent(field.ID), typ}
	switch {
	case field.PrimaryKey:
		parts = append(parts, "primary key")
	case field.Required:
		parts = append(parts, "not null")
	}
	if def := defaultClause(field); def != "" {
		parts = append(parts, def)
	}
	if field.Type == core.FieldSelect && field.Reference == nil {
		parts = append(parts, fmt.Sprintf("check (%s in (%s))",
			quoteIdent(field.ID), literalList(field.Options)))
	}
	return strings.Join(parts, " "), nil
}

// columnType maps a canonical type to its postgres column type.
func columnType(app *core.App, form *core.Form, field core.Field) (string, error) {
	fail := func(reason string) (string, error) {
		return "", &BuildError{FormID: form.ID, FieldID: field.ID, Target: "postgres", Reason: reason}
	}

	switch field.Type {
	case core.FieldText, core.FieldHidden:
		return varcharType(field.Size), nil
	case core.FieldNumber:
		return "numeric", nil
	case core.FieldDate:
		return "date", nil
	case core.FieldTextarea:
		return "text", nil
	case core.FieldFile:
		return fail("file fields have no column mapping")
	case core.FieldSelect:
		if field.Reference == nil {
			return varcharType(field.Size), nil
		}
		return referencedType(app, form, field)
	case core.FieldForeignKey:
		if field.Reference == nil {
			return fail("foreign key field has no reference")
		}
		return referencedType(app, form, field)
	default:
		return fail(fmt.Sprintf("no column mapping for field type %q", field.Type))
	}
}

// referencedType resolves the column type a reference field stores: the
// type of the column it points at, followed through chains of references.
// Errors are attributed to the origin field; the visited set guards
// against looping chains (rejected upstream, never trusted here).
func referencedType(app *core.App, form *core.Form, field core.Field) (string, error) {
	fail := func(reason string) (string, error) {
		return "", &BuildError{FormID: form.ID, FieldID: field.ID, Target: "postgres", Reason: reason}
	}

	visited := make(map[string]bool)
	ref := field.Reference
	for {
		key := ref.Form + "." + ref.Field
		if visited[key] {
			return fail(fmt.Sprintf("reference chain through %q loops", key))
		}
		visited[key] = true

		target := app.Form(ref.Form)
		if target == nil {
			return fail(fmt.Sprintf("references unknown form %q", ref.Form))
		}
		targetField := target.Field(ref.Field)
		if targetField == nil {
			return fail(fmt.Sprintf("references unknown field %q in form %q", ref.Field, ref.Form))
		}

		switch targetField.Type {
		case core.FieldText, core.FieldHidden:
			return varcharType(targetField.Size), nil
		case core.FieldNumber:
			return "numeric", nil
		case core.FieldDate:
			return "date", nil
		case core.FieldTextarea:
			return "text", nil
		case core.FieldSelect:
			if targetField.Reference == nil {
				return varcharType(targetField.Size), nil
			}
			ref = targetField.Reference
		case core.FieldForeignKey:
			if targetField.Reference == nil {
				return fail(fmt.Sprintf("target field %q declares no reference", key))
			}
			ref = targetField.Reference
		case core.FieldFile:
			return fail(fmt.Sprintf("reference target %q is a file field", key))
		default:
			return fail(fmt.Sprintf("reference target %q has unmapped type %q", key, targetField.Type))
		}
	}
}

func varcharType(size int) string {
	if size <= 0 {
		size = 255
	}
	return fmt.Sprintf("varchar(%d)", size)
}

// defaultClause renders a literal default. Placeholder tokens are runtime
// values, not schema constants, and are skipped.
func defaultClause(field core.Field) string {
	def := field.Default
	if def == "" || strings.HasPrefix(def, "@") {
		return ""
	}
	if field.Type == core.FieldNumber {
		if _, err := strconv.ParseFloat(def, 64); err == nil {
			return "default " + def
		}
	}
	return "default " + literal(def)
}

// quoteIdent quotes identifiers that would not survive bare: reserved
// words, uppercase, or anything beyond [a-z0-9_].
func quoteIdent(s string) string {
	if _, reserved := reservedIdents[strings.ToLower(s)]; !reserved && plainIdent(s) {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func plainIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func identList(fields []string) string {
	quoted := make([]string, len(fields))
	for i, f := range fields {
		quoted[i] = quoteIdent(f)
	}
	return strings.Join(quoted, ", ")
}

func literal(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func literalList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = literal(v)
	}
	return strings.Join(quoted, ", ")
}

func indexName(table string, fields []string, suffix string) string {
	return table + "_" + strings.Join(fields, "_") + "_" + suffix
}

func constraintName(table, field, suffix string) string {
	return table + "_" + field + "_" + suffix
}
