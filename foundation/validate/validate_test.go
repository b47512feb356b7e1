package validate_test

import (
	"testing"

	"github.com/ardanlabs/minichain/foundation/validate"
	"github.com/stretchr/testify/require"
)

type payment struct {
	Address string `json:"address" validate:"required"`
	Amount  uint64 `json:"amount" validate:"gt=0"`
}

func Test_Check(t *testing.T) {
	require.NoError(t, validate.Check(payment{Address: "bill", Amount: 10}))

	err := validate.Check(payment{})
	require.Error(t, err)
	require.True(t, validate.IsFieldErrors(err))

	fields := validate.GetFieldErrors(err).Fields()
	require.Len(t, fields, 2)
	require.Contains(t, fields, "address")
	require.Contains(t, fields, "amount")
}
