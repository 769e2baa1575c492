package domain

import (
	"fmt"
)

// Principal is an already authenticated caller.
// Authentication itself happens outside of the gate.
type Principal struct {
	Id    string
	Staff bool
}

type IdentityKind string

const (
	IdentityKindUser IdentityKind = "user"
	IdentityKindIp   IdentityKind = "ip"
)

// Identity is the subject a counter belongs to.
// Key is unique across kinds and becomes part of the storage key.
type Identity struct {
	Kind  IdentityKind
	Key   string
	Staff bool
}

func UserIdentity(id string, staff bool) Identity {
	return Identity{
		Kind:  IdentityKindUser,
		Key:   fmt.Sprintf("user:%s", id),
		Staff: staff,
	}
}

func IpIdentity(address string) Identity {
	return Identity{
		Kind: IdentityKindIp,
		Key:  fmt.Sprintf("ip:%s", address),
	}
}

func (i Identity) Authenticated() bool {
	return i.Kind == IdentityKindUser
}
