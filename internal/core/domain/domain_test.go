package domain

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMoney_Normalization(t *testing.T) {
	a := MustMoney("100.00")
	b := MustMoney("100.004")
	assert.True(t, a.Equal(b), "amounts must compare on the normalized representation")
	assert.Equal(t, "100.00", b.String())

	// Round-half-up at the third fractional digit.
	assert.Equal(t, "100.01", MustMoney("100.005").String())
}

func TestMoney_Arithmetic(t *testing.T) {
	a := MustMoney("70.00")
	b := MustMoney("30.00")

	assert.Equal(t, "100.00", a.Add(b).String())
	assert.Equal(t, "40.00", a.Sub(b).String())
	assert.True(t, b.LessThan(a))
	assert.Equal(t, -1, b.Cmp(a))
	assert.True(t, b.Sub(a).IsNegative())
}

func TestMoney_RoundTripNoDrift(t *testing.T) {
	// Deposit x then withdraw x restores the original balance exactly.
	start := MustMoney("10.10")
	x := MustMoney("3.33")
	assert.True(t, start.Add(x).Sub(x).Equal(start))
}

func TestMoney_Zero(t *testing.T) {
	assert.Equal(t, "0.00", ZeroMoney().String())
	assert.False(t, ZeroMoney().IsNegative())
	assert.Equal(t, "0.01", MinUnit().String())
}

func TestMoney_JSON(t *testing.T) {
	m := MustMoney("1234.50")
	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `"1234.50"`, string(data))

	var back Money
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, m.Equal(back))

	// Bare JSON numbers are accepted too.
	var fromNumber Money
	require.NoError(t, json.Unmarshal([]byte(`99.9`), &fromNumber))
	assert.Equal(t, "99.90", fromNumber.String())
}

func TestMoney_SQLCodec(t *testing.T) {
	m := MustMoney("42.05")
	v, err := m.Value()
	require.NoError(t, err)
	assert.Equal(t, "42.05", v)

	var scanned Money
	require.NoError(t, scanned.Scan("42.05"))
	assert.True(t, m.Equal(scanned))

	require.Error(t, scanned.Scan("not-a-number"))
}

func TestNewWallet(t *testing.T) {
	w := NewWallet("user-1")
	assert.Equal(t, "user-1", w.OwnerID)
	assert.True(t, w.Balance.Equal(ZeroMoney()))
	assert.Equal(t, int64(0), w.Version)
	assert.Equal(t, w.CreatedAt, w.UpdatedAt)
	assert.NotEqual(t, uuid.Nil, w.ID)
}

func TestWalletIDLess_TotalOrder(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	b := uuid.MustParse("00000000-0000-0000-0000-000000000002")

	assert.True(t, WalletIDLess(a, b))
	assert.False(t, WalletIDLess(b, a))
	assert.False(t, WalletIDLess(a, a))
}

func TestTransaction_IsTransfer(t *testing.T) {
	tx := &Transaction{Type: TransactionTypeTransferOut}
	assert.True(t, tx.IsTransfer())
	tx.Type = TransactionTypeDeposit
	assert.False(t, tx.IsTransfer())
}
