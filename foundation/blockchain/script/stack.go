package script

import (
	"bytes"
	"fmt"

	"github.com/ardanlabs/minichain/foundation/blockchain/signature"
	"github.com/btcsuite/btcd/txscript"
)

// stack is the data stack of the script machine. The top of the stack is the
// last element.
type stack [][]byte

func (s *stack) push(data []byte) {
	*s = append(*s, data)
}

func (s *stack) pop() ([]byte, error) {
	if len(*s) == 0 {
		return nil, ErrStackUnderflow
	}

	top := (*s)[len(*s)-1]
	*s = (*s)[:len(*s)-1]

	return top, nil
}

func (s *stack) peek() ([]byte, error) {
	if len(*s) == 0 {
		return nil, ErrStackUnderflow
	}

	return (*s)[len(*s)-1], nil
}

// step executes a single opcode against the stack.
func (s *stack) step(op byte, data []byte) error {
	if op == txscript.OP_0 || (op >= txscript.OP_DATA_1 && op <= txscript.OP_PUSHDATA4) {
		s.push(data)
		return nil
	}

	switch op {
	case txscript.OP_DUP:
		top, err := s.peek()
		if err != nil {
			return err
		}
		s.push(top)

	case txscript.OP_HASH160:
		top, err := s.pop()
		if err != nil {
			return err
		}
		s.push(signature.Hash160(top))

	case txscript.OP_EQUALVERIFY:
		a, err := s.pop()
		if err != nil {
			return err
		}
		b, err := s.pop()
		if err != nil {
			return err
		}
		if !bytes.Equal(a, b) {
			return ErrEqualVerify
		}

	case txscript.OP_CHECKSIG:
		pubKey, err := s.pop()
		if err != nil {
			return err
		}
		sig, err := s.pop()
		if err != nil {
			return err
		}
		s.push(boolBytes(signature.Verify(pubKey, sig, pubKey)))

	default:
		return fmt.Errorf("%w: 0x%02x", ErrUnsupportedOp, op)
	}

	return nil
}

// =============================================================================

func boolBytes(v bool) []byte {
	if v {
		return []byte{1}
	}

	return nil
}

// isTrue follows the bitcoin rule that any non zero value is true.
func isTrue(v []byte) bool {
	for _, b := range v {
		if b != 0 {
			return true
		}
	}

	return false
}
