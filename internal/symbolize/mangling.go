package symbolize

// Demangler turns a possibly compiler-mangled symbol into a readable one.
// Demangling itself is an out-of-scope external collaborator (spec §1);
// hindsight only defines the hook a backend plugs into. The zero value
// passes names through unchanged, which is correct for Go binaries
// (already unmangled) and for any DWARF producer that already emits a
// readable DW_AT_name.
type Demangler func(mangled string) (demangled string, ok bool)

// Encoder re-encodes a raw debug-info string into the caller's requested
// charset. Like Demangler, charset conversion is an out-of-scope external
// collaborator (spec §1); the zero value is the identity function, which
// is correct whenever the debug info and the caller both use UTF-8.
type Encoder func(raw string) string

var (
	demangle Demangler = func(s string) (string, bool) { return s, false }
	encode   Encoder   = func(s string) string { return s }
)

// SetDemangler installs the process-wide demangling collaborator.
func SetDemangler(d Demangler) {
	if d == nil {
		d = func(s string) (string, bool) { return s, false }
	}
	demangle = d
}

// SetEncoder installs the process-wide charset-encoding collaborator.
func SetEncoder(e Encoder) {
	if e == nil {
		e = func(s string) string { return s }
	}
	encode = e
}

func maybeDemangle(name string, mightBeMangled bool) string {
	if name == "" {
		return ""
	}
	if mightBeMangled {
		if d, ok := demangle(name); ok {
			return encode(d)
		}
	}
	return encode(name)
}
