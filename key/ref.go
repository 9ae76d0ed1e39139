package key

import "fmt"

// RefKind tags which leaf system a Ref indexes into.
type RefKind uint8

const (
	RefKeyboard RefKind = iota
	RefConsumer
	RefMouse
	RefLayeredModifier
	RefLayered
	RefTapHold
	RefChorded
	RefSticky
	RefTapDance
	RefCapsWord
	RefAutomation
	RefCallback
	// RefNoOp is a sentinel target that contributes no output and ignores
	// every event.
	RefNoOp
)

func (k RefKind) String() string {
	switch k {
	case RefKeyboard:
		return "Keyboard"
	case RefConsumer:
		return "Consumer"
	case RefMouse:
		return "Mouse"
	case RefLayeredModifier:
		return "LayeredModifier"
	case RefLayered:
		return "Layered"
	case RefTapHold:
		return "TapHold"
	case RefChorded:
		return "Chorded"
	case RefSticky:
		return "Sticky"
	case RefTapDance:
		return "TapDance"
	case RefCapsWord:
		return "CapsWord"
	case RefAutomation:
		return "Automation"
	case RefCallback:
		return "Callback"
	case RefNoOp:
		return "NoOp"
	default:
		return fmt.Sprintf("RefKind(%d)", uint8(k))
	}
}

// Ref is a tagged reference to one key record in one leaf system: the
// leaf's tag plus an index into that leaf's immutable key array. Two Refs
// are equal iff they denote the same logical key.
type Ref struct {
	Kind  RefKind
	Index uint16
}

// NoOpRef is the sentinel Ref that produces no output and ignores events.
var NoOpRef = Ref{Kind: RefNoOp}

// MaxKeyPathLen bounds the number of indirections (layered/tap-hold/chorded
// retargets) the scheduler will follow when resolving a fresh press.
const MaxKeyPathLen = 4

// KeyPath is the bounded sequence of keymap indices used to locate a
// pending key back through the layered/tap-hold/chorded wrappers that
// produced it.
type KeyPath []uint16

// NewKeyPath constructs a KeyPath seeded with the originating keymap index.
func NewKeyPath(keymapIndex uint16) KeyPath {
	return KeyPath{keymapIndex}
}

// Push appends an index to the path. It panics if the path would exceed
// MaxKeyPathLen, mirroring the engine's fixed-capacity containers: an
// overflowing key path is a misconfigured keymap (a retarget cycle), not a
// runtime condition to recover from.
func (p KeyPath) Push(index uint16) KeyPath {
	if len(p) >= MaxKeyPathLen {
		panic("key: key path exceeds MaxKeyPathLen (retarget cycle in keymap?)")
	}
	return append(p, index)
}
