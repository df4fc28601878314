// Package contract builds typed vault-contract invocations. Builders are
// pure: all argument validation happens here, before any encoding and before
// any network call.
package contract

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/stellar/go/xdr"

	"github.com/dotandev/vaultrelay/internal/scval"
)

// Names of the vault and factory contract functions this relay invokes.
const (
	FnDeposit      = "deposit"
	FnWithdraw     = "withdraw"
	FnCreateVault  = "create_vault"
	FnGetUserYield = "get_user_yield"
)

// StroopsPerUnit is the fixed scale between the display unit and the
// contract's base integer unit (1 unit = 10^7 stroops).
const StroopsPerUnit = 10_000_000

// ValidationError reports malformed caller input. It is detected before any
// network I/O and its message is safe to echo back to the caller.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

func validationErrorf(format string, args ...interface{}) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// MissingFieldError reports a required caller field that is absent or empty.
func MissingFieldError(name string) error {
	return validationErrorf("%s is required", name)
}

// Invocation is one typed contract call: target contract, function name and
// the encoded argument list, in execution order. Immutable once built.
type Invocation struct {
	ContractID string
	Function   string
	Args       []xdr.ScVal
}

// Deposit builds a deposit(user, amount) invocation against the vault
// contract. amount is a decimal string in the display unit.
func Deposit(vaultID, userAddress, amount string) (Invocation, error) {
	return transfer(FnDeposit, vaultID, userAddress, amount)
}

// Withdraw builds a withdraw(user, amount) invocation; same shape and
// validation as Deposit.
func Withdraw(vaultID, userAddress, amount string) (Invocation, error) {
	return transfer(FnWithdraw, vaultID, userAddress, amount)
}

func transfer(fn, vaultID, userAddress, amount string) (Invocation, error) {
	if strings.TrimSpace(userAddress) == "" {
		return Invocation{}, MissingFieldError("user_address")
	}
	if strings.TrimSpace(amount) == "" {
		return Invocation{}, MissingFieldError("amount")
	}
	stroops, err := ParseAmount(amount)
	if err != nil {
		return Invocation{}, err
	}
	user, err := scval.Address(userAddress)
	if err != nil {
		return Invocation{}, validationErrorf("invalid user_address: %v", err)
	}
	return Invocation{
		ContractID: vaultID,
		Function:   fn,
		Args:       []xdr.ScVal{user, scval.I128(stroops)},
	}, nil
}

// GetUserYield builds the read-only get_user_yield(user) invocation. It is
// only ever simulated, never submitted.
func GetUserYield(vaultID, userAddress string) (Invocation, error) {
	if strings.TrimSpace(userAddress) == "" {
		return Invocation{}, MissingFieldError("user_address")
	}
	user, err := scval.Address(userAddress)
	if err != nil {
		return Invocation{}, validationErrorf("invalid user_address: %v", err)
	}
	return Invocation{
		ContractID: vaultID,
		Function:   FnGetUserYield,
		Args:       []xdr.ScVal{user},
	}, nil
}

// VaultParams are the caller-supplied fields of a create_vault call.
type VaultParams struct {
	Name             string
	Symbol           string
	Manager          string
	EmergencyManager string
	FeeReceiver      string
	FeePercentage    float64
	AssetID          string
}

// CreateVault builds a create_vault invocation against the factory contract.
// The fee percentage is converted to integer basis points.
func CreateVault(factoryID string, p VaultParams) (Invocation, error) {
	required := []struct {
		name, value string
	}{
		{"vault_name", p.Name},
		{"vault_symbol", p.Symbol},
		{"manager_address", p.Manager},
		{"emergency_manager_address", p.EmergencyManager},
		{"fee_receiver_address", p.FeeReceiver},
		{"asset_id", p.AssetID},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return Invocation{}, MissingFieldError(f.name)
		}
	}
	bps, err := FeeBasisPoints(p.FeePercentage)
	if err != nil {
		return Invocation{}, err
	}

	args := make([]xdr.ScVal, 0, 7)
	args = append(args, scval.String(p.Name), scval.String(p.Symbol))
	for _, addr := range []struct {
		name, value string
	}{
		{"manager_address", p.Manager},
		{"emergency_manager_address", p.EmergencyManager},
		{"fee_receiver_address", p.FeeReceiver},
	} {
		v, err := scval.Address(addr.value)
		if err != nil {
			return Invocation{}, validationErrorf("invalid %s: %v", addr.name, err)
		}
		args = append(args, v)
	}
	args = append(args, scval.U32(bps))
	asset, err := scval.Address(p.AssetID)
	if err != nil {
		return Invocation{}, validationErrorf("invalid asset_id: %v", err)
	}
	args = append(args, asset)

	return Invocation{ContractID: factoryID, Function: FnCreateVault, Args: args}, nil
}

// ParseAmount converts a decimal display-unit string into stroops, rounding
// toward zero after the 10^7 scaling. Results that round to zero or below
// are rejected.
func ParseAmount(s string) (int64, error) {
	r, ok := new(big.Rat).SetString(strings.TrimSpace(s))
	if !ok {
		return 0, validationErrorf("invalid amount %q", s)
	}
	r.Mul(r, new(big.Rat).SetInt64(StroopsPerUnit))
	stroops := new(big.Int).Quo(r.Num(), r.Denom())
	if !stroops.IsInt64() {
		return 0, validationErrorf("amount %q is out of range", s)
	}
	n := stroops.Int64()
	if n <= 0 {
		return 0, validationErrorf("amount must be positive")
	}
	return n, nil
}

// FeeBasisPoints converts a decimal percentage (0.5 means 0.5%) to integer
// basis points, rounding toward zero. Negative results are rejected.
func FeeBasisPoints(pct float64) (uint32, error) {
	bps := math.Trunc(pct * 100)
	if bps < 0 {
		return 0, validationErrorf("fee_percentage must not be negative")
	}
	if bps > math.MaxUint32 {
		return 0, validationErrorf("fee_percentage is out of range")
	}
	return uint32(bps), nil
}
