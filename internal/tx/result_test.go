package tx

import (
	"testing"

	"github.com/stellar/go/xdr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotandev/vaultrelay/internal/contract"
	"github.com/dotandev/vaultrelay/internal/scval"
)

func metaWithReturnValue(t *testing.T, v xdr.ScVal) string {
	t.Helper()
	meta := xdr.TransactionMeta{
		V: 3,
		V3: &xdr.TransactionMetaV3{
			SorobanMeta: &xdr.SorobanTransactionMeta{ReturnValue: v},
		},
	}
	b64, err := xdr.MarshalBase64(meta)
	require.NoError(t, err)
	return b64
}

func TestExtractCreatedContractFromAddress(t *testing.T) {
	addr, err := scval.Address(testVaultID)
	require.NoError(t, err)

	id, ok := ExtractCreatedContract(metaWithReturnValue(t, addr))
	require.True(t, ok)
	assert.Equal(t, testVaultID, id)
}

func TestExtractCreatedContractFromVecWrappedAddress(t *testing.T) {
	addr, err := scval.Address(testVaultID)
	require.NoError(t, err)

	id, ok := ExtractCreatedContract(metaWithReturnValue(t, scval.Vec(addr, scval.U32(1))))
	require.True(t, ok)
	assert.Equal(t, testVaultID, id)
}

func TestExtractCreatedContractNonAddressIsNonFatal(t *testing.T) {
	_, ok := ExtractCreatedContract(metaWithReturnValue(t, scval.U32(7)))
	assert.False(t, ok)

	_, ok = ExtractCreatedContract("definitely not xdr")
	assert.False(t, ok)

	_, ok = ExtractCreatedContract("")
	assert.False(t, ok)
}

func TestInvokedFunction(t *testing.T) {
	acc, user := testAccount(t)
	inv, err := contract.Deposit(testVaultID, user, "10.5")
	require.NoError(t, err)
	draft, err := Assemble(acc, []contract.Invocation{inv}, DefaultBaseFee)
	require.NoError(t, err)
	envelope, err := draft.Base64()
	require.NoError(t, err)

	contractID, function, ok, err := InvokedFunction(envelope)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, testVaultID, contractID)
	assert.Equal(t, contract.FnDeposit, function)
}

func TestInvokedFunctionRejectsGarbage(t *testing.T) {
	_, _, _, err := InvokedFunction("garbage")
	assert.Error(t, err)
}
