package xbrl

// Default placeholder values.
const (
	NotAvailable = "N/A"
	Unknown      = "Unknown"
)

// Placeholders is the default-resolution policy applied whenever a value
// is absent from the source documents. It is the only place placeholder
// text is chosen.
type Placeholders struct {
	// Label replaces label text never supplied for a language.
	Label string `yaml:"label"`
	// Identity replaces a missing name or data type.
	Identity string `yaml:"identity"`
	// Attribute replaces a missing substitution group or balance.
	Attribute string `yaml:"attribute"`
}

// DefaultPlaceholders returns the standard policy: "N/A" for labels and
// optional attributes, "Unknown" for identifying attributes.
func DefaultPlaceholders() Placeholders {
	return Placeholders{
		Label:     NotAvailable,
		Identity:  Unknown,
		Attribute: NotAvailable,
	}
}

// LabelOr returns v when ok, the label placeholder otherwise.
func (p Placeholders) LabelOr(v string, ok bool) string {
	return or(v, ok, p.Label)
}

// IdentityOr returns v when ok, the identity placeholder otherwise.
func (p Placeholders) IdentityOr(v string, ok bool) string {
	return or(v, ok, p.Identity)
}

// AttributeOr returns v when ok, the attribute placeholder otherwise.
func (p Placeholders) AttributeOr(v string, ok bool) string {
	return or(v, ok, p.Attribute)
}

// WithDefaults fills empty policy fields from DefaultPlaceholders.
func (p Placeholders) WithDefaults() Placeholders {
	d := DefaultPlaceholders()
	if p.Label == "" {
		p.Label = d.Label
	}
	if p.Identity == "" {
		p.Identity = d.Identity
	}
	if p.Attribute == "" {
		p.Attribute = d.Attribute
	}
	return p
}

func or(v string, ok bool, placeholder string) string {
	if ok {
		return v
	}
	return placeholder
}
