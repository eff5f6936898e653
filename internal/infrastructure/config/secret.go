package config

// Secret holds credential material that must never appear in logs,
// serialized responses or audit blobs. Any stringification renders "***";
// the value is reachable only through Reveal.
type Secret string

const redacted = "***"

func (s Secret) String() string { return redacted }

func (s Secret) GoString() string { return "config.Secret(\"" + redacted + "\")" }

// MarshalText keeps secrets out of JSON/YAML encodings.
func (s Secret) MarshalText() ([]byte, error) { return []byte(redacted), nil }

func (s *Secret) UnmarshalText(b []byte) error {
	*s = Secret(b)
	return nil
}

// Reveal returns the underlying value.
func (s Secret) Reveal() string { return string(s) }

// IsSet reports whether the secret is non-empty.
func (s Secret) IsSet() bool { return s != "" }
