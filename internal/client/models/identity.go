package models

import "github.com/dmitrijs2005/promptkeeper/internal/common"

// IdentityKind tags the Identity variant.
type IdentityKind int

const (
	KindAnonymous IdentityKind = iota
	KindAuthenticated
)

// Identity is the owner of local and remote records: either the anonymous
// guest or an authenticated principal. The zero value is Anonymous.
type Identity struct {
	kind IdentityKind
	id   string
}

// Anonymous returns the guest identity.
func Anonymous() Identity {
	return Identity{}
}

// Authenticated returns the identity of principal id. An empty id yields
// Anonymous.
func Authenticated(id string) Identity {
	if id == "" {
		return Anonymous()
	}
	return Identity{kind: KindAuthenticated, id: id}
}

// IdentityFromOwnerKey is the inverse of OwnerKey.
func IdentityFromOwnerKey(key string) Identity {
	if key == common.AnonymousOwnerKey {
		return Anonymous()
	}
	return Authenticated(key)
}

func (i Identity) Kind() IdentityKind { return i.kind }

func (i Identity) IsAnonymous() bool { return i.kind == KindAnonymous }

func (i Identity) IsAuthenticated() bool { return i.kind == KindAuthenticated }

// PrincipalID is the authenticated principal, empty for the guest.
func (i Identity) PrincipalID() string { return i.id }

// OwnerKey is the value stored in owner_id columns.
func (i Identity) OwnerKey() string {
	if i.IsAnonymous() {
		return common.AnonymousOwnerKey
	}
	return i.id
}

func (i Identity) String() string {
	if i.IsAnonymous() {
		return "anonymous"
	}
	return "user:" + i.id
}
