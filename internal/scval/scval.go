// Package scval builds and inspects Soroban host values (xdr.ScVal) for
// contract invocation arguments and simulated return values.
package scval

import (
	"math"
	"math/big"

	"github.com/stellar/go/strkey"
	"github.com/stellar/go/support/errors"
	"github.com/stellar/go/xdr"
)

// Address converts a G... account or C... contract strkey into an ScVal.
func Address(addr string) (xdr.ScVal, error) {
	sc, err := ScAddress(addr)
	if err != nil {
		return xdr.ScVal{}, err
	}
	return xdr.ScVal{Type: xdr.ScValTypeScvAddress, Address: &sc}, nil
}

// ScAddress converts a strkey into the underlying xdr.ScAddress.
func ScAddress(addr string) (xdr.ScAddress, error) {
	if strkey.IsValidEd25519PublicKey(addr) {
		accountID := xdr.MustAddress(addr)
		return xdr.ScAddress{
			Type:      xdr.ScAddressTypeScAddressTypeAccount,
			AccountId: &accountID,
		}, nil
	}
	raw, err := strkey.Decode(strkey.VersionByteContract, addr)
	if err != nil {
		return xdr.ScAddress{}, errors.Errorf("%q is not an account or contract address", addr)
	}
	var contractID xdr.ContractId
	copy(contractID[:], raw)
	return xdr.ScAddress{
		Type:       xdr.ScAddressTypeScAddressTypeContract,
		ContractId: &contractID,
	}, nil
}

// AddressString renders an address-typed ScVal back into its strkey form.
// The second return is false when v is not an address.
func AddressString(v xdr.ScVal) (string, bool) {
	if v.Type != xdr.ScValTypeScvAddress || v.Address == nil {
		return "", false
	}
	switch v.Address.Type {
	case xdr.ScAddressTypeScAddressTypeAccount:
		if v.Address.AccountId == nil {
			return "", false
		}
		return v.Address.AccountId.Address(), true
	case xdr.ScAddressTypeScAddressTypeContract:
		if v.Address.ContractId == nil {
			return "", false
		}
		s, err := strkey.Encode(strkey.VersionByteContract, (*v.Address.ContractId)[:])
		if err != nil {
			return "", false
		}
		return s, true
	}
	return "", false
}

// I128 builds a signed 128-bit ScVal from an int64.
func I128(n int64) xdr.ScVal {
	var hi int64
	if n < 0 {
		hi = -1
	}
	parts := xdr.Int128Parts{Hi: xdr.Int64(hi), Lo: xdr.Uint64(n)}
	return xdr.ScVal{Type: xdr.ScValTypeScvI128, I128: &parts}
}

// U32 builds an unsigned 32-bit ScVal.
func U32(n uint32) xdr.ScVal {
	v := xdr.Uint32(n)
	return xdr.ScVal{Type: xdr.ScValTypeScvU32, U32: &v}
}

// String builds a string ScVal.
func String(s string) xdr.ScVal {
	v := xdr.ScString(s)
	return xdr.ScVal{Type: xdr.ScValTypeScvString, Str: &v}
}

// Symbol builds a symbol ScVal.
func Symbol(s string) xdr.ScVal {
	v := xdr.ScSymbol(s)
	return xdr.ScVal{Type: xdr.ScValTypeScvSymbol, Sym: &v}
}

// Bool builds a boolean ScVal.
func Bool(b bool) xdr.ScVal {
	return xdr.ScVal{Type: xdr.ScValTypeScvBool, B: &b}
}

// Vec builds a vector ScVal from the given elements, preserving order.
func Vec(items ...xdr.ScVal) xdr.ScVal {
	vec := xdr.ScVec(items)
	p := &vec
	return xdr.ScVal{Type: xdr.ScValTypeScvVec, Vec: &p}
}

// Map builds a map ScVal from alternating key/value pairs, preserving the
// order given. It panics on an odd number of arguments.
func Map(pairs ...xdr.ScVal) xdr.ScVal {
	if len(pairs)%2 != 0 {
		panic("scval: Map requires key/value pairs")
	}
	entries := make(xdr.ScMap, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		entries = append(entries, xdr.ScMapEntry{Key: pairs[i], Val: pairs[i+1]})
	}
	p := &entries
	return xdr.ScVal{Type: xdr.ScValTypeScvMap, Map: &p}
}

// VecItems unpacks a vector ScVal. The second return is false when v is not
// a vector.
func VecItems(v xdr.ScVal) ([]xdr.ScVal, bool) {
	if v.Type != xdr.ScValTypeScvVec || v.Vec == nil || *v.Vec == nil {
		return nil, false
	}
	return []xdr.ScVal(**v.Vec), true
}

// ToInt64 extracts an integer value from any of the numeric ScVal arms,
// returning false when v is not numeric or does not fit in an int64.
func ToInt64(v xdr.ScVal) (int64, bool) {
	switch v.Type {
	case xdr.ScValTypeScvU32:
		if v.U32 == nil {
			return 0, false
		}
		return int64(*v.U32), true
	case xdr.ScValTypeScvI32:
		if v.I32 == nil {
			return 0, false
		}
		return int64(*v.I32), true
	case xdr.ScValTypeScvU64:
		if v.U64 == nil || uint64(*v.U64) > math.MaxInt64 {
			return 0, false
		}
		return int64(*v.U64), true
	case xdr.ScValTypeScvI64:
		if v.I64 == nil {
			return 0, false
		}
		return int64(*v.I64), true
	case xdr.ScValTypeScvI128:
		if v.I128 == nil {
			return 0, false
		}
		return int128ToInt64(*v.I128)
	case xdr.ScValTypeScvU128:
		if v.U128 == nil || v.U128.Hi != 0 || uint64(v.U128.Lo) > math.MaxInt64 {
			return 0, false
		}
		return int64(v.U128.Lo), true
	}
	return 0, false
}

func int128ToInt64(parts xdr.Int128Parts) (int64, bool) {
	b := Int128ToBig(parts)
	if !b.IsInt64() {
		return 0, false
	}
	return b.Int64(), true
}

// Int128ToBig returns the exact big-integer value of a signed 128-bit part pair.
func Int128ToBig(parts xdr.Int128Parts) *big.Int {
	b := new(big.Int).SetInt64(int64(parts.Hi))
	b.Lsh(b, 64)
	return b.Add(b, new(big.Int).SetUint64(uint64(parts.Lo)))
}
