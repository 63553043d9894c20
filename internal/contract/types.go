package contract

import "github.com/ethereum/go-ethereum/common"

// DefaultNamespace is assigned to groups that do not name one.
const DefaultNamespace = "default"

// MethodSpec names a method to call, with optional call arguments.
// Two specs with the same name and the same encoded arguments are one call.
type MethodSpec struct {
	Name string        `json:"name"`
	Args []interface{} `json:"args,omitempty"`
}

// Handle is a live contract handle: an address bound to its own descriptor.
// Handles resolve their interface without consulting the cache.
type Handle struct {
	Address    common.Address
	Descriptor *Descriptor
}

// GroupSpec describes one contract group submitted to the engine.
//
// Call targets are either Contracts (handles carrying their own descriptor)
// or Addresses (descriptor resolved through the interface cache). A group
// with a Descriptor, an address list and no call targets is a pure
// cache-registration request and produces no output entries.
type GroupSpec struct {
	Namespace   string
	Descriptor  *Descriptor
	Addresses   []common.Address
	Contracts   []Handle
	Methods     []MethodSpec
	AllReadable bool
}

// IsRegistration reports whether the group only registers a descriptor for
// its addresses instead of requesting calls.
func (g *GroupSpec) IsRegistration() bool {
	return g.Descriptor != nil && len(g.Contracts) == 0 &&
		len(g.Methods) == 0 && !g.AllReadable
}

// EffectiveNamespace returns the group namespace, defaulting when unset.
func (g *GroupSpec) EffectiveNamespace() string {
	if g.Namespace == "" {
		return DefaultNamespace
	}
	return g.Namespace
}
