package core

// Profile describes target-platform constraints consulted by the validator
// and builders. Profiles are passed explicitly into calls, never held as
// ambient state, so pipelines for different targets can run side by side.
type Profile struct {
	// Name identifies the platform (matches a builder target name when the
	// profile is platform-specific).
	Name string
	// MaxNameLength bounds table names and primary-key field ids.
	// Zero means unlimited.
	MaxNameLength int
	// Strict escalates naming warnings to errors, gating the build.
	Strict bool
}

// Builtin profiles. The webform platform keeps the legacy 20-character
// identifier limit; postgres identifiers truncate at 63 bytes.
var builtinProfiles = map[string]Profile{
	"webform":  {Name: "webform", MaxNameLength: 20},
	"postgres": {Name: "postgres", MaxNameLength: 63},
}

// LookupProfile returns a builtin profile by name.
func LookupProfile(name string) (Profile, bool) {
	p, ok := builtinProfiles[name]
	return p, ok
}

// DefaultProfile is the profile used when the caller names none.
func DefaultProfile() Profile {
	return builtinProfiles["webform"]
}

// BuiltinProfileNames returns the names of all builtin profiles in a
// stable order.
func BuiltinProfileNames() []string {
	return []string{"postgres", "webform"}
}
