package lsf

// EngineVersion is the four-component version quad carried in
// Resource.Metadata. On the wire it is packed into the LSF header's single
// 32-bit engine_version field (see SPEC_FULL.md section 3): the codec
// preserves the raw 32 bits across a round trip regardless of whether a
// given producer agrees with this particular field layout.
type EngineVersion struct {
	Major    uint32
	Minor    uint32
	Revision uint32
	Build    uint32
}

const (
	buildBits    = 11
	revisionBits = 7
	minorBits    = 7
	majorBits    = 7

	buildMask    = 1<<buildBits - 1
	revisionMask = 1<<revisionBits - 1
	minorMask    = 1<<minorBits - 1
	majorMask    = 1<<majorBits - 1
)

// PackEngineVersion encodes v into the 32-bit representation stored in an LSF
// header. Components wider than their field are truncated, matching the
// codec's general policy of preserving bytes rather than validating meaning.
func PackEngineVersion(v EngineVersion) uint32 {
	packed := v.Build & buildMask
	packed |= (v.Revision & revisionMask) << buildBits
	packed |= (v.Minor & minorMask) << (buildBits + revisionBits)
	packed |= (v.Major & majorMask) << (buildBits + revisionBits + minorBits)
	return packed
}

// UnpackEngineVersion reverses PackEngineVersion. It is a pure bit-field
// split and never fails.
func UnpackEngineVersion(packed uint32) EngineVersion {
	return EngineVersion{
		Build:    packed & buildMask,
		Revision: (packed >> buildBits) & revisionMask,
		Minor:    (packed >> (buildBits + revisionBits)) & minorMask,
		Major:    (packed >> (buildBits + revisionBits + minorBits)) & majorMask,
	}
}
