package key

// ResultKind tags the variant of a PressedKeyResult.
type ResultKind uint8

const (
	// ResultPending means the key has entered an unresolved, deferred
	// state (e.g. a tap-hold awaiting timeout).
	ResultPending ResultKind = iota
	// ResultResolved means the key has committed to a behaviour.
	ResultResolved
	// ResultRetarget means the key should be replaced by another Ref
	// (e.g. a layered key resolving to its active override).
	ResultRetarget
)

// PressedKeyResult is the outcome of pressing a key, or of a pending key's
// state update resolving. PKS and KS are the leaf's own pending/resolved
// state types.
type PressedKeyResult[PKS any, KS any] struct {
	Kind     ResultKind
	Path     KeyPath
	Pending  PKS
	Resolved KS
	Retarget Ref
}

// PendingResult constructs a ResultPending PressedKeyResult.
func PendingResult[PKS any, KS any](path KeyPath, pks PKS) PressedKeyResult[PKS, KS] {
	return PressedKeyResult[PKS, KS]{Kind: ResultPending, Path: path, Pending: pks}
}

// ResolvedResult constructs a ResultResolved PressedKeyResult.
func ResolvedResult[PKS any, KS any](ks KS) PressedKeyResult[PKS, KS] {
	return PressedKeyResult[PKS, KS]{Kind: ResultResolved, Resolved: ks}
}

// RetargetResult constructs a ResultRetarget PressedKeyResult: the
// scheduler should look up ref and loop.
func RetargetResult[PKS any, KS any](ref Ref) PressedKeyResult[PKS, KS] {
	return PressedKeyResult[PKS, KS]{Kind: ResultRetarget, Retarget: ref}
}
