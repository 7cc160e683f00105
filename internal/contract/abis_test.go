package contract_test

import (
	"testing"

	"github.com/Mohsinsiddi/w3bond/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinKindsRegistered(t *testing.T) {
	var ids []string
	for _, b := range contract.AllBuiltins() {
		ids = append(ids, b.ID)
		assert.NotEmpty(t, b.Name, b.ID)
		assert.NotEmpty(t, b.Description, b.ID)
		assert.NotEmpty(t, b.ABI, b.ID)
	}
	assert.Equal(t, []string{contract.KindBondedToken, contract.KindERC20, contract.KindMintableToken}, ids, "sorted by ID")
}

func TestGetBuiltin(t *testing.T) {
	b, ok := contract.GetBuiltin(contract.KindBondedToken)
	require.True(t, ok)
	_, ok = b.ABI.Function("buy")
	assert.True(t, ok)
	_, ok = b.ABI.Event("Sold")
	assert.True(t, ok)

	_, ok = contract.GetBuiltin("uniswapv2pair")
	assert.False(t, ok)
	assert.Nil(t, contract.GetBuiltinABI("uniswapv2pair"))
}

func TestLocalKindsImplementERC20(t *testing.T) {
	for _, id := range []string{contract.KindBondedToken, contract.KindMintableToken, contract.KindERC20} {
		assert.True(t, contract.Implements(id, contract.KindERC20), id)
	}
	assert.False(t, contract.Implements(contract.KindERC20, contract.KindBondedToken), "erc20 has no buy")
	assert.False(t, contract.Implements("nope", contract.KindERC20))
	assert.False(t, contract.Implements(contract.KindERC20, "nope"))
}

func TestRegisterBuiltinRejectsDuplicates(t *testing.T) {
	assert.Panics(t, func() {
		contract.RegisterBuiltin(contract.BuiltinKind{ID: contract.KindERC20, Name: "again"})
	})
	assert.Panics(t, func() { contract.RegisterBuiltin(contract.BuiltinKind{}) })

	b, ok := contract.GetBuiltin(contract.KindERC20)
	require.True(t, ok)
	assert.NotEqual(t, "again", b.Name)
}
