package merkle

import (
	"fmt"
	"hash"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Orientation identifies which side of the running hash a sibling sits on
// when a path is folded.
type Orientation int

// Set of orientations for a path node.
const (
	Left Orientation = iota + 1
	Right
)

// String implements the Stringer interface.
func (o Orientation) String() string {
	switch o {
	case Left:
		return "LEFT"
	case Right:
		return "RIGHT"
	}

	return "UNKNOWN"
}

// MarshalText implements the TextMarshaler interface.
func (o Orientation) MarshalText() ([]byte, error) {
	switch o {
	case Left, Right:
		return []byte(o.String()), nil
	}

	return nil, fmt.Errorf("invalid orientation %d", int(o))
}

// UnmarshalText implements the TextUnmarshaler interface.
func (o *Orientation) UnmarshalText(text []byte) error {
	switch strings.ToUpper(string(text)) {
	case "LEFT":
		*o = Left
	case "RIGHT":
		*o = Right
	default:
		return fmt.Errorf("invalid orientation %q", string(text))
	}

	return nil
}

// =============================================================================

// PathNode is one step of an authentication path. The hash is the sibling
// at that level in hex form.
type PathNode struct {
	Hash        string      `json:"hash"`
	Orientation Orientation `json:"orientation"`
}

// Fold combines the leaf hash with every sibling in the path and returns the
// resulting root. A RIGHT sibling is appended to the running hash and a LEFT
// sibling is prepended. An empty path returns the leaf hash.
func Fold(leaf []byte, path []PathNode, hashStrategy func() hash.Hash) ([]byte, error) {
	cur := leaf

	for i, node := range path {
		sibling, err := hexutil.Decode(node.Hash)
		if err != nil {
			return nil, fmt.Errorf("path node[%d]: %w", i, err)
		}

		h := hashStrategy()

		switch node.Orientation {
		case Right:
			h.Write(cur)
			h.Write(sibling)
		case Left:
			h.Write(sibling)
			h.Write(cur)
		default:
			return nil, fmt.Errorf("path node[%d]: invalid orientation %d", i, int(node.Orientation))
		}

		cur = h.Sum(nil)
	}

	return cur, nil
}
