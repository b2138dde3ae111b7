package fragmentation

import "strings"

// Fragment is one component of a FragmentSet.
type Fragment[M any] struct {
	Mol        M
	Encoding   string
	HeavyAtoms int
	// Attachments lists the attachment indices carried by the fragment in
	// ascending order.
	Attachments []int
}

// FragmentSet is the outcome of one fragmentation: a core ("value") and its
// leaves ("keys"), all with consistently numbered attachment points.
type FragmentSet[M any] struct {
	// Bonds are the cut bonds with FragIndex assigned, ordered by FragIndex.
	Bonds []BondIdentifier
	Value Fragment[M]
	// Keys are ordered by attachment index.
	Keys []Fragment[M]
	// BondInsertion marks a single bond cut whose value is the bare
	// placeholder bond.
	BondInsertion bool
}

// Cuts returns the number of attachment points on the value.
func (fs *FragmentSet[M]) Cuts() int { return len(fs.Keys) }

// KeyString joins the key encodings with "." in attachment-index order.
func (fs *FragmentSet[M]) KeyString() string {
	parts := make([]string, len(fs.Keys))
	for i, k := range fs.Keys {
		parts[i] = k.Encoding
	}
	return strings.Join(parts, ".")
}

// ValueString returns the value encoding.
func (fs *FragmentSet[M]) ValueString() string { return fs.Value.Encoding }

//Personal.AI order the ending
