package domain

import "fmt"

// DocumentKind is the closed set of document types that carry
// revision-tracked editable fields. Adding a kind requires a row in
// kindPolicies, so every carve-out is an explicit decision.
type DocumentKind string

const (
	KindPosts    DocumentKind = "Posts"
	KindTags     DocumentKind = "Tags"
	KindComments DocumentKind = "Comments"
	KindLenses   DocumentKind = "Lenses"
)

// KindPolicy declares the per-kind behavior of the revision engine.
type KindPolicy struct {
	// HasDrafts is false for wiki-style kinds: their revisions are never
	// drafts regardless of version major.
	HasDrafts bool
	// Pingbacks enables pingback extraction on mutation.
	Pingbacks bool
	// CollaborativeEditing enables the shared-draft access-level check.
	CollaborativeEditing bool
}

var kindPolicies = map[DocumentKind]KindPolicy{
	KindPosts:    {HasDrafts: true, Pingbacks: true, CollaborativeEditing: true},
	KindTags:     {HasDrafts: false, Pingbacks: true, CollaborativeEditing: false},
	KindComments: {HasDrafts: true, Pingbacks: true, CollaborativeEditing: false},
	KindLenses:   {HasDrafts: true, Pingbacks: true, CollaborativeEditing: false},
}

// PolicyFor returns the policy for a kind. Unknown kinds return ok=false;
// callers must treat that as a deny, not a default.
func PolicyFor(kind DocumentKind) (KindPolicy, bool) {
	p, ok := kindPolicies[kind]
	return p, ok
}

// ValidKind reports whether kind is a known document kind.
func ValidKind(kind DocumentKind) bool {
	_, ok := kindPolicies[kind]
	return ok
}

// VersionIsDraft derives draft status from a version string and the owning
// kind: major == 0 means draft, except for kinds without a draft concept.
func VersionIsDraft(version string, kind DocumentKind) bool {
	if p, ok := kindPolicies[kind]; ok && !p.HasDrafts {
		return false
	}
	v, err := ParseVersion(version)
	if err != nil {
		return false
	}
	return v.Major == 0
}

// DocumentRef identifies a document across kinds.
type DocumentRef struct {
	Kind DocumentKind `json:"kind"`
	ID   string       `json:"id"`
}

func (r DocumentRef) String() string {
	return fmt.Sprintf("%s/%s", r.Kind, r.ID)
}

// AccessLevel is the graded permission granted to a user on a shared draft
// document, independent of their site role.
type AccessLevel int

const (
	AccessNone AccessLevel = iota
	AccessRead
	AccessComment
	AccessEdit
)

// Can reports whether the level meets the given threshold.
func (l AccessLevel) Can(threshold AccessLevel) bool {
	return l >= threshold
}

// ParseAccessLevel maps the stored string form to an AccessLevel.
func ParseAccessLevel(s string) AccessLevel {
	switch s {
	case "read":
		return AccessRead
	case "comment":
		return AccessComment
	case "edit":
		return AccessEdit
	}
	return AccessNone
}

// EditableDocument is implemented by every document type with one or more
// revision-tracked fields. The mutation pipeline and access policy operate
// on this interface instead of dispatching on collection-name strings.
type EditableDocument interface {
	Kind() DocumentKind
	GetID() string
	SetID(id string)
	AuthorID() string
	// IsDraft reports the document-level draft state. Kinds without a
	// draft concept always return false.
	IsDraft() bool
	// LatestRevisionID returns the `${field}_latest` pointer, empty if the
	// field has never been revised.
	LatestRevisionID(field string) string
	// SetLatestRevision updates the `${field}_latest` pointer.
	SetLatestRevision(field, revisionID string)
	// SetContentSnapshot refreshes the denormalized latest-content cache
	// for a field. Fully normalized fields may ignore it.
	SetContentSnapshot(field string, snap ContentSnapshot)
	// CanRead is the document's own visibility rule, applied to non-draft
	// revisions after the draft/sharing checks have run.
	CanRead(user *User) bool
}

// Sharable is implemented by document kinds that support collaborative
// editing of shared drafts (Posts).
type Sharable interface {
	CollabAccessFor(user *User) AccessLevel
}

// PingbackCarrier is implemented by documents that store extracted pingbacks.
type PingbackCarrier interface {
	SetPingbacks(p PingbackSet)
	GetPingbacks() PingbackSet
}

// PingbackSet maps a target document kind to the ids referenced from the
// rendered content.
type PingbackSet map[DocumentKind][]string
