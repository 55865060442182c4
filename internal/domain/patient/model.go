package patient

// UnknownName is the display name given to a record whose name could not be
// recovered from its source.
const UnknownName = "Unknown"

// Record is a single recovered patient identity.
type Record struct {
	Name       string `json:"name"`
	Identifier string `json:"nhs_number"`
}

// NewRecord builds a Record from a raw name and identifier token. The
// identifier is always normalized to its digits.
func NewRecord(name, rawIdentifier string) Record {
	return Record{
		Name:       name,
		Identifier: NormalizeIdentifier(rawIdentifier),
	}
}

// NewUnnamedRecord builds a Record carrying the UnknownName sentinel.
func NewUnnamedRecord(rawIdentifier string) Record {
	return NewRecord(UnknownName, rawIdentifier)
}

// IsUnknown reports whether the record carries the sentinel name.
func (r Record) IsUnknown() bool {
	return r.Name == UnknownName
}
