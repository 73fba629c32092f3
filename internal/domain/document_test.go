package domain

import "testing"

func TestVersionIsDraft(t *testing.T) {
	tests := []struct {
		name    string
		version string
		kind    DocumentKind
		want    bool
	}{
		{"post major zero is draft", "0.1.0", KindPosts, true},
		{"post major one is published", "1.0.0", KindPosts, false},
		{"comment major zero is draft", "0.3.0", KindComments, true},
		{"lens major zero is draft", "0.1.0", KindLenses, true},
		{"tag major zero is never draft", "0.1.0", KindTags, false},
		{"tag published", "3.2.0", KindTags, false},
		{"unparseable version is not draft", "garbage", KindPosts, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VersionIsDraft(tt.version, tt.kind); got != tt.want {
				t.Errorf("VersionIsDraft(%q, %s) = %v, want %v", tt.version, tt.kind, got, tt.want)
			}
		})
	}
}

func TestPolicyFor_UnknownKindDenies(t *testing.T) {
	if _, ok := PolicyFor(DocumentKind("Sequences")); ok {
		t.Error("unknown kind must return ok=false")
	}
	if ValidKind(DocumentKind("Sequences")) {
		t.Error("unknown kind must not validate")
	}
}

func TestAccessLevel(t *testing.T) {
	if !AccessEdit.Can(AccessRead) {
		t.Error("edit must imply read")
	}
	if AccessRead.Can(AccessEdit) {
		t.Error("read must not imply edit")
	}
	if AccessNone.Can(AccessRead) {
		t.Error("none must not imply read")
	}
	if got := ParseAccessLevel("comment"); got != AccessComment {
		t.Errorf("ParseAccessLevel(comment) = %v", got)
	}
	if got := ParseAccessLevel("owner"); got != AccessNone {
		t.Errorf("unknown level string must map to none, got %v", got)
	}
}

func TestPostCollabAccess(t *testing.T) {
	author := &User{ID: "author"}
	admin := &User{ID: "admin", Level: 10}
	shared := &User{ID: "friend"}
	stranger := &User{ID: "stranger"}

	draft := &Post{ID: "p1", UserID: "author", Draft: true,
		ShareWith: []ShareEntry{{UserID: "friend", Level: "read"}}}

	if got := draft.CollabAccessFor(author); got != AccessEdit {
		t.Errorf("author access = %v, want edit", got)
	}
	if got := draft.CollabAccessFor(admin); got != AccessEdit {
		t.Errorf("admin access = %v, want edit", got)
	}
	if got := draft.CollabAccessFor(shared); got != AccessRead {
		t.Errorf("shared user access = %v, want read", got)
	}
	if got := draft.CollabAccessFor(stranger); got != AccessNone {
		t.Errorf("stranger access to draft = %v, want none", got)
	}
	if got := draft.CollabAccessFor(nil); got != AccessNone {
		t.Errorf("anonymous access to draft = %v, want none", got)
	}

	published := &Post{ID: "p2", UserID: "author"}
	if got := published.CollabAccessFor(stranger); got != AccessRead {
		t.Errorf("stranger access to published = %v, want read", got)
	}
	if got := published.CollabAccessFor(nil); got != AccessRead {
		t.Errorf("anonymous access to published = %v, want read", got)
	}
}

func TestPostCanRead(t *testing.T) {
	draft := &Post{ID: "p1", UserID: "author", Draft: true,
		ShareWith: []ShareEntry{{UserID: "friend", Level: "read"}}}

	if draft.CanRead(nil) {
		t.Error("anonymous must not read a draft")
	}
	if !draft.CanRead(&User{ID: "author"}) {
		t.Error("author must read their own draft")
	}
	if !draft.CanRead(&User{ID: "friend"}) {
		t.Error("shared user must read the draft")
	}
	if draft.CanRead(&User{ID: "stranger"}) {
		t.Error("stranger must not read the draft")
	}

	deleted := &Post{ID: "p2", UserID: "author", Deleted: true}
	if deleted.CanRead(&User{ID: "author"}) {
		t.Error("deleted posts are hidden even from the author path")
	}
}

func TestCommentValidate(t *testing.T) {
	if err := (&Comment{UserID: "u1"}).Validate(); err != nil {
		t.Errorf("comment with author must validate, got %v", err)
	}
	if err := (&Comment{}).Validate(); err == nil {
		t.Error("comment without author must fail validation")
	}
}
