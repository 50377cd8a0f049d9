package framework

// ArtifactKind tags the current data artifact held by a SharedContext.
// Dispatch sites branch on the tag, never on the payload's runtime type, so
// the tag and the populated field must always agree. SetTable/SetText on
// SharedContext are the only writers and maintain that invariant.
type ArtifactKind int

const (
	ArtifactNone ArtifactKind = iota
	ArtifactTable
	ArtifactText
)

// String returns a human-readable tag name for logs.
func (k ArtifactKind) String() string {
	switch k {
	case ArtifactTable:
		return "table"
	case ArtifactText:
		return "text"
	default:
		return "none"
	}
}

// Artifact is the tagged union carried between tasks. Exactly one payload
// field is meaningful, selected by Kind.
type Artifact struct {
	Kind  ArtifactKind
	Table *Table
	Text  string
}
