package core

import "sync"

// App is the canonical representation of an application's forms.
// It is produced once by a parser and never mutated afterward; downstream
// stages read it or derive new structures from it.
type App struct {
	// AppID is the stable application identifier.
	AppID string
	// AppName is the human-readable application name.
	AppName string
	// Version is the spec version string (semver by convention).
	Version string
	// Forms in declaration order. Order is significant: it feeds field
	// ordering in rendered documents and tie-breaking in deployment order.
	Forms []Form

	indexOnce sync.Once
	byID      map[string]*Form
}

// Form describes one table-like entity and its fields.
type Form struct {
	// ID is the form identifier, unique within the App.
	ID string
	// Name is the human-readable form name.
	Name string
	// TableName is the backing table identifier on the target platform.
	TableName string
	// Fields in declaration order.
	Fields []Field
	// Indexes declared for the form (beyond the primary key field mark).
	Indexes []Index
}

// Field describes one column-like attribute of a form.
type Field struct {
	ID       string
	Label    string
	Type     FieldType
	Size     int
	Required bool
	Default  string
	// PrimaryKey marks the form's primary key. Exactly one field per form
	// must carry it; the validator enforces this, not the constructor.
	PrimaryKey bool
	// Options holds the inline enumeration for static select fields.
	Options []string
	// Reference points at another form's field for foreign_key fields and
	// reference-backed selects. Always by identifier, never a pointer.
	Reference *Reference
}

// Reference names a target form/field pair plus the field whose value
// labels choices in rendered pickers. Resolution happens by lookup against
// the owning App at validation time.
type Reference struct {
	Form       string
	Field      string
	LabelField string
}

// IndexKind classifies a declared index.
type IndexKind string

const (
	IndexPrimary   IndexKind = "primary"
	IndexUnique    IndexKind = "unique"
	IndexComposite IndexKind = "composite"
)

// Valid reports whether k is a known index kind.
func (k IndexKind) Valid() bool {
	switch k {
	case IndexPrimary, IndexUnique, IndexComposite:
		return true
	}
	return false
}

// Index is a declared index over one or more fields.
type Index struct {
	Kind   IndexKind
	Fields []string
}

// Form returns the form with the given id, or nil. Lookup goes through a
// lazily built id index; safe for concurrent readers because the App is
// immutable once parsed.
func (a *App) Form(id string) *Form {
	a.indexOnce.Do(func() {
		a.byID = make(map[string]*Form, len(a.Forms))
		for i := range a.Forms {
			a.byID[a.Forms[i].ID] = &a.Forms[i]
		}
	})
	return a.byID[id]
}

// FormIDs returns all form ids in declaration order.
func (a *App) FormIDs() []string {
	ids := make([]string, len(a.Forms))
	for i := range a.Forms {
		ids[i] = a.Forms[i].ID
	}
	return ids
}

// Field returns the field with the given id, or nil.
func (f *Form) Field(id string) *Field {
	for i := range f.Fields {
		if f.Fields[i].ID == id {
			return &f.Fields[i]
		}
	}
	return nil
}

// PrimaryField returns the field marked as primary key, or nil when the
// form has none. With multiple marks (invalid, caught by the validator)
// the first in declaration order wins.
func (f *Form) PrimaryField() *Field {
	for i := range f.Fields {
		if f.Fields[i].PrimaryKey {
			return &f.Fields[i]
		}
	}
	return nil
}

// References returns the fields carrying a foreign-key reference, in
// declaration order.
func (f *Form) References() []*Field {
	var refs []*Field
	for i := range f.Fields {
		if f.Fields[i].Reference != nil {
			refs = append(refs, &f.Fields[i])
		}
	}
	return refs
}

// HasUniqueField reports whether the given field is covered by a
// single-field unique (or primary) index declaration.
func (f *Form) HasUniqueField(fieldID string) bool {
	for _, idx := range f.Indexes {
		if len(idx.Fields) != 1 || idx.Fields[0] != fieldID {
			continue
		}
		if idx.Kind == IndexUnique || idx.Kind == IndexPrimary {
			return true
		}
	}
	return false
}
