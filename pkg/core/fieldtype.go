package core

import "strings"

// FieldType is the closed set of canonical field types. Anything outside
// the set is a validation error, never silently coerced.
type FieldType string

// Canonical field types.
const (
	FieldText       FieldType = "text"
	FieldNumber     FieldType = "number"
	FieldDate       FieldType = "date"
	FieldFile       FieldType = "file"
	FieldTextarea   FieldType = "textarea"
	FieldHidden     FieldType = "hidden"
	FieldSelect     FieldType = "select"
	FieldForeignKey FieldType = "foreign_key"
)

// FieldTypes returns all canonical types in a stable order.
func FieldTypes() []FieldType {
	return []FieldType{
		FieldText, FieldNumber, FieldDate, FieldFile,
		FieldTextarea, FieldHidden, FieldSelect, FieldForeignKey,
	}
}

// Valid reports whether t is one of the canonical types.
func (t FieldType) Valid() bool {
	switch t {
	case FieldText, FieldNumber, FieldDate, FieldFile,
		FieldTextarea, FieldHidden, FieldSelect, FieldForeignKey:
		return true
	}
	return false
}

// String returns the canonical spelling.
func (t FieldType) String() string { return string(t) }

// ParseFieldType maps a human-written type cell to a canonical type.
// Matching is case-insensitive and tolerates the common long forms found
// in hand-authored documents ("Text Field", "Select Box", "Drop-down").
// Returns the type and true, or FieldText and false when unrecognized.
func ParseFieldType(s string) (FieldType, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", " ", "_", " ").Replace(key)
	key = strings.Join(strings.Fields(key), " ")

	switch key {
	case "text", "text field", "string", "single line text":
		return FieldText, true
	case "number", "numeric", "number field", "integer", "decimal":
		return FieldNumber, true
	case "date", "date field", "date picker", "datetime":
		return FieldDate, true
	case "file", "file field", "file upload", "attachment":
		return FieldFile, true
	case "textarea", "text area", "multi line text", "multiline text":
		return FieldTextarea, true
	case "hidden", "hidden field":
		return FieldHidden, true
	case "select", "select box", "selectbox", "dropdown", "drop down", "choice":
		return FieldSelect, true
	case "foreign key", "foreignkey", "fk", "reference", "lookup":
		return FieldForeignKey, true
	}
	return FieldText, false
}
