package core

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"

	"gopkg.in/yaml.v3"
)

// yaml.go - canonical YAML codec. The shape below is the boundary contract
// other tools consume; encode and decode must round-trip exactly.

// YAMLError reports a structural failure while decoding canonical YAML.
type YAMLError struct {
	Line    int
	Message string
}

func (e *YAMLError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// Wire DTOs. Field order here fixes the emitted key order.

type appYAML struct {
	Version  string     `yaml:"version"`
	Metadata metaYAML   `yaml:"metadata"`
	Forms    []formYAML `yaml:"forms"`
}

type metaYAML struct {
	AppID   string `yaml:"app_id"`
	AppName string `yaml:"app_name"`
}

type formYAML struct {
	ID      string      `yaml:"id"`
	Name    string      `yaml:"name"`
	Table   string      `yaml:"table"`
	Fields  []fieldYAML `yaml:"fields"`
	Indexes []indexYAML `yaml:"indexes,omitempty"`
}

type fieldYAML struct {
	ID         string   `yaml:"id"`
	Type       string   `yaml:"type"`
	Label      string   `yaml:"label"`
	Size       int      `yaml:"size,omitempty"`
	Required   bool     `yaml:"required"`
	PrimaryKey bool     `yaml:"primary_key,omitempty"`
	Default    string   `yaml:"default,omitempty"`
	Options    []string `yaml:"options,omitempty"`
	Reference  *refYAML `yaml:"references,omitempty"`
}

type refYAML struct {
	Form       string `yaml:"form"`
	Field      string `yaml:"field"`
	LabelField string `yaml:"label_field,omitempty"`
}

type indexYAML struct {
	Kind   string   `yaml:"kind"`
	Fields []string `yaml:"fields"`
}

// EncodeYAML renders the App in the canonical wire shape. Output is
// deterministic: struct field order fixes key order and slices keep
// declaration order.
func EncodeYAML(app *App) ([]byte, error) {
	doc := appYAML{
		Version:  app.Version,
		Metadata: metaYAML{AppID: app.AppID, AppName: app.AppName},
		Forms:    make([]formYAML, 0, len(app.Forms)),
	}
	for _, form := range app.Forms {
		fy := formYAML{
			ID:     form.ID,
			Name:   form.Name,
			Table:  form.TableName,
			Fields: make([]fieldYAML, 0, len(form.Fields)),
		}
		for _, field := range form.Fields {
			fieldDoc := fieldYAML{
				ID:         field.ID,
				Type:       string(field.Type),
				Label:      field.Label,
				Size:       field.Size,
				Required:   field.Required,
				PrimaryKey: field.PrimaryKey,
				Default:    field.Default,
				Options:    field.Options,
			}
			if field.Reference != nil {
				fieldDoc.Reference = &refYAML{
					Form:       field.Reference.Form,
					Field:      field.Reference.Field,
					LabelField: field.Reference.LabelField,
				}
			}
			fy.Fields = append(fy.Fields, fieldDoc)
		}
		for _, idx := range form.Indexes {
			fy.Indexes = append(fy.Indexes, indexYAML{Kind: string(idx.Kind), Fields: idx.Fields})
		}
		doc.Forms = append(doc.Forms, fy)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return nil, fmt.Errorf("failed to encode canonical yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode canonical yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// yamlLinePattern pulls the first line number out of a yaml.v3 error text.
var yamlLinePattern = regexp.MustCompile(`line (\d+):`)

// DecodeYAML parses canonical YAML into an App. Decoding is strict:
// unknown keys fail with a *YAMLError carrying the offending line. Only
// structural and scalar-type coercion happens here; semantic checks (closed
// type set, references, key marks) belong to the validator.
func DecodeYAML(data []byte) (*App, error) {
	var doc appYAML
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		yerr := &YAMLError{Message: err.Error()}
		if m := yamlLinePattern.FindStringSubmatch(err.Error()); m != nil {
			yerr.Line, _ = strconv.Atoi(m[1])
		}
		return nil, yerr
	}

	app := &App{
		AppID:   doc.Metadata.AppID,
		AppName: doc.Metadata.AppName,
		Version: doc.Version,
		Forms:   make([]Form, 0, len(doc.Forms)),
	}
	for _, fy := range doc.Forms {
		form := Form{
			ID:        fy.ID,
			Name:      fy.Name,
			TableName: fy.Table,
			Fields:    make([]Field, 0, len(fy.Fields)),
		}
		if form.TableName == "" {
			form.TableName = TableNameForID(form.ID)
		}
		for _, fieldDoc := range fy.Fields {
			field := Field{
				ID:         fieldDoc.ID,
				Label:      fieldDoc.Label,
				Type:       FieldType(fieldDoc.Type),
				Size:       fieldDoc.Size,
				Required:   fieldDoc.Required,
				PrimaryKey: fieldDoc.PrimaryKey,
				Default:    fieldDoc.Default,
				Options:    fieldDoc.Options,
			}
			if fieldDoc.Reference != nil {
				field.Reference = &Reference{
					Form:       fieldDoc.Reference.Form,
					Field:      fieldDoc.Reference.Field,
					LabelField: fieldDoc.Reference.LabelField,
				}
			}
			form.Fields = append(form.Fields, field)
		}
		for _, idx := range fy.Indexes {
			form.Indexes = append(form.Indexes, Index{Kind: IndexKind(idx.Kind), Fields: idx.Fields})
		}
		app.Forms = append(app.Forms, form)
	}
	return app, nil
}
