package tx

import (
	"github.com/stellar/go/support/errors"
	"github.com/stellar/go/xdr"

	"github.com/dotandev/vaultrelay/internal/scval"
)

// InvokedFunction decodes a transaction envelope and reports the contract ID
// and function name invoked by its first operation. The boolean is false when
// the first operation is not a contract invocation.
func InvokedFunction(envelopeB64 string) (contractID, function string, ok bool, err error) {
	var envelope xdr.TransactionEnvelope
	if err := xdr.SafeUnmarshalBase64(envelopeB64, &envelope); err != nil {
		return "", "", false, errors.Wrap(err, "decoding transaction envelope")
	}
	ops := envelope.Operations()
	if len(ops) == 0 {
		return "", "", false, errors.New("transaction has no operations")
	}
	invoke, hasInvoke := ops[0].Body.GetInvokeHostFunctionOp()
	if !hasInvoke {
		return "", "", false, nil
	}
	if invoke.HostFunction.Type != xdr.HostFunctionTypeHostFunctionTypeInvokeContract {
		return "", "", false, nil
	}
	args := invoke.HostFunction.MustInvokeContract()
	id, hasID := scval.AddressString(xdr.ScVal{
		Type:    xdr.ScValTypeScvAddress,
		Address: &args.ContractAddress,
	})
	if !hasID {
		return "", "", false, nil
	}
	return id, string(args.FunctionName), true, nil
}

// InvocationStringArg returns the i-th argument of the envelope's first
// contract invocation when that argument is a string.
func InvocationStringArg(envelopeB64 string, i int) (string, bool) {
	var envelope xdr.TransactionEnvelope
	if err := xdr.SafeUnmarshalBase64(envelopeB64, &envelope); err != nil {
		return "", false
	}
	ops := envelope.Operations()
	if len(ops) == 0 {
		return "", false
	}
	invoke, ok := ops[0].Body.GetInvokeHostFunctionOp()
	if !ok || invoke.HostFunction.Type != xdr.HostFunctionTypeHostFunctionTypeInvokeContract {
		return "", false
	}
	args := invoke.HostFunction.MustInvokeContract().Args
	if i < 0 || i >= len(args) {
		return "", false
	}
	if args[i].Type != xdr.ScValTypeScvString || args[i].Str == nil {
		return "", false
	}
	return string(*args[i].Str), true
}

// ExtractCreatedContract pulls a freshly minted contract address out of a
// successful transaction's result meta. The boolean is false when the meta
// does not decode or the return value is not address-shaped; that is
// non-fatal for callers, the submission itself still succeeded.
func ExtractCreatedContract(resultMetaB64 string) (string, bool) {
	ret, ok := sorobanReturnValue(resultMetaB64)
	if !ok {
		return "", false
	}
	if id, ok := scval.AddressString(ret); ok {
		return id, true
	}
	// Some contract revisions wrap the address in a result vector.
	if items, ok := scval.VecItems(ret); ok && len(items) > 0 {
		if id, ok := scval.AddressString(items[0]); ok {
			return id, true
		}
	}
	return "", false
}

func sorobanReturnValue(resultMetaB64 string) (xdr.ScVal, bool) {
	if resultMetaB64 == "" {
		return xdr.ScVal{}, false
	}
	var meta xdr.TransactionMeta
	if err := xdr.SafeUnmarshalBase64(resultMetaB64, &meta); err != nil {
		return xdr.ScVal{}, false
	}
	switch {
	case meta.V3 != nil && meta.V3.SorobanMeta != nil:
		return meta.V3.SorobanMeta.ReturnValue, true
	case meta.V4 != nil && meta.V4.SorobanMeta != nil && meta.V4.SorobanMeta.ReturnValue != nil:
		return *meta.V4.SorobanMeta.ReturnValue, true
	}
	return xdr.ScVal{}, false
}
