package lsf

// ErrorPolicy controls how a reader reacts to a malformed individual
// attribute. It is injected as a config value on ReaderConfig, not a
// global switch, so tests can assert strict or tolerant behavior
// independently (spec.md section 9).
type ErrorPolicy int

const (
	// PolicyTolerant degrades a malformed attribute to a nil Value (keeping
	// its original wire type id, even an unknown one) and continues
	// reading the rest of the node. Malformed headers, chunks, or trees
	// still abort the read regardless of policy — only individual
	// attributes are tolerated (spec.md section 7: "tolerant-on-leaves,
	// strict-on-structure").
	PolicyTolerant ErrorPolicy = iota

	// PolicyStrict fails the entire read on the first malformed attribute.
	PolicyStrict
)

func (p ErrorPolicy) String() string {
	switch p {
	case PolicyTolerant:
		return "tolerant"
	case PolicyStrict:
		return "strict"
	default:
		return "unknown"
	}
}

// ReaderConfig configures an LSF or LSX read.
type ReaderConfig struct {
	// Policy governs individual-attribute failures. The zero value is
	// PolicyTolerant.
	Policy ErrorPolicy

	// OnDegradedAttribute, if non-nil, is called whenever PolicyTolerant
	// degrades an attribute to a nil Value, so a caller can log it (spec.md
	// section 9: log tolerated offset overruns rather than guessing at an
	// alternate decoding).
	OnDegradedAttribute func(nodeName, attrKey string, reason error)
}

func (c ReaderConfig) degraded(nodeName, attrKey string, reason error) {
	if c.OnDegradedAttribute != nil {
		c.OnDegradedAttribute(nodeName, attrKey, reason)
	}
}
