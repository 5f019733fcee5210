// Package core defines the shared language of the LeapForm system.
//
// This package contains:
//   - The canonical model (App, Form, Field, Index, Reference)
//   - The closed field-type set and its parsing rules
//   - Platform profiles (naming limits, strictness flags)
//   - The canonical YAML codec (the wire shape other tools consume)
//   - Name normalization and content fingerprints
//
// The Golden Rule: pkg/core imports ONLY the standard library and
// gopkg.in/yaml.v3 (the canonical wire shape is part of the shared
// language). All other packages depend on core, not the reverse.
package core
