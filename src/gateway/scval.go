package gateway

import (
	"encoding"
	"fmt"
	"math/big"
	"sort"

	"github.com/onemorebsmith/soroban-vault/src/model"
	"github.com/pkg/errors"
	"github.com/stellar/go/strkey"
	"github.com/stellar/go/xdr"
)

// Explicit argument types. Anything passed as one of these skips inference.
type (
	Symbol  string
	Address string
	U32     uint32
	U64     uint64
)

var (
	twoTo128 = new(big.Int).Lsh(big.NewInt(1), 128)
	maxI128  = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 127), big.NewInt(1))
	minI128  = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 127))
	mask64   = new(big.Int).SetUint64(^uint64(0))
)

func MarshalArgs(args []any) ([]xdr.ScVal, error) {
	out := make([]xdr.ScVal, 0, len(args))
	for i, a := range args {
		v, err := ToScVal(a)
		if err != nil {
			return nil, errors.Wrapf(err, "argument %d", i)
		}
		out = append(out, v)
	}
	return out, nil
}

// ToScVal encodes a go value as a contract argument. Plain strings that parse as an account
// or contract strkey become addresses, every go integer becomes an i128.
func ToScVal(arg any) (xdr.ScVal, error) {
	switch v := arg.(type) {
	case xdr.ScVal:
		return v, nil
	case Symbol:
		sym := xdr.ScSymbol(v)
		return xdr.ScVal{Type: xdr.ScValTypeScvSymbol, Sym: &sym}, nil
	case Address:
		return addressVal(string(v))
	case U32:
		u := xdr.Uint32(v)
		return xdr.ScVal{Type: xdr.ScValTypeScvU32, U32: &u}, nil
	case U64:
		u := xdr.Uint64(v)
		return xdr.ScVal{Type: xdr.ScValTypeScvU64, U64: &u}, nil
	case nil:
		return xdr.ScVal{Type: xdr.ScValTypeScvVoid}, nil
	case bool:
		return xdr.ScVal{Type: xdr.ScValTypeScvBool, B: &v}, nil
	case string:
		if isAddress(v) {
			return addressVal(v)
		}
		return stringVal(v), nil
	case model.StellarAddr:
		return addressVal(string(v))
	case int:
		return i128Val(big.NewInt(int64(v)))
	case int8:
		return i128Val(big.NewInt(int64(v)))
	case int16:
		return i128Val(big.NewInt(int64(v)))
	case int32:
		return i128Val(big.NewInt(int64(v)))
	case int64:
		return i128Val(big.NewInt(v))
	case uint:
		return i128Val(new(big.Int).SetUint64(uint64(v)))
	case uint8:
		return i128Val(new(big.Int).SetUint64(uint64(v)))
	case uint16:
		return i128Val(new(big.Int).SetUint64(uint64(v)))
	case uint32:
		return i128Val(new(big.Int).SetUint64(uint64(v)))
	case uint64:
		return i128Val(new(big.Int).SetUint64(v))
	case *big.Int:
		if v == nil {
			return xdr.ScVal{}, errors.Wrap(model.ErrInvalidArgument, "nil *big.Int")
		}
		return i128Val(v)
	case []any:
		vals, err := MarshalArgs(v)
		if err != nil {
			return xdr.ScVal{}, err
		}
		vec := xdr.ScVec(vals)
		vp := &vec
		return xdr.ScVal{Type: xdr.ScValTypeScvVec, Vec: &vp}, nil
	case map[string]any:
		return mapVal(v)
	case fmt.Stringer:
		return stringVal(v.String()), nil
	case encoding.TextMarshaler:
		text, err := v.MarshalText()
		if err != nil {
			return xdr.ScVal{}, model.Classify(model.ErrInvalidArgument, err)
		}
		return stringVal(string(text)), nil
	}
	return xdr.ScVal{}, errors.Wrapf(model.ErrInvalidArgument, "unsupported type %T", arg)
}

func stringVal(s string) xdr.ScVal {
	str := xdr.ScString(s)
	return xdr.ScVal{Type: xdr.ScValTypeScvString, Str: &str}
}

// map keys are symbols in ascending order, which is what the host expects for contracttype structs
func mapVal(m map[string]any) (xdr.ScVal, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make(xdr.ScMap, 0, len(keys))
	for _, k := range keys {
		val, err := ToScVal(m[k])
		if err != nil {
			return xdr.ScVal{}, errors.Wrapf(err, "map key %q", k)
		}
		key, _ := ToScVal(Symbol(k))
		entries = append(entries, xdr.ScMapEntry{Key: key, Val: val})
	}
	mp := &entries
	return xdr.ScVal{Type: xdr.ScValTypeScvMap, Map: &mp}, nil
}

func isAddress(s string) bool {
	if strkey.IsValidEd25519PublicKey(s) {
		return true
	}
	_, err := strkey.Decode(strkey.VersionByteContract, s)
	return err == nil
}

func scAddress(s string) (xdr.ScAddress, error) {
	if strkey.IsValidEd25519PublicKey(s) {
		accountID, err := xdr.AddressToAccountId(s)
		if err != nil {
			return xdr.ScAddress{}, model.Classify(model.ErrInvalidArgument, err)
		}
		return xdr.ScAddress{Type: xdr.ScAddressTypeScAddressTypeAccount, AccountId: &accountID}, nil
	}
	raw, err := strkey.Decode(strkey.VersionByteContract, s)
	if err != nil {
		return xdr.ScAddress{}, errors.Wrapf(model.ErrInvalidArgument, "%q is not an account or contract address", s)
	}
	var contractID xdr.Hash
	copy(contractID[:], raw)
	return xdr.ScAddress{Type: xdr.ScAddressTypeScAddressTypeContract, ContractId: &contractID}, nil
}

func addressVal(s string) (xdr.ScVal, error) {
	addr, err := scAddress(s)
	if err != nil {
		return xdr.ScVal{}, err
	}
	return xdr.ScVal{Type: xdr.ScValTypeScvAddress, Address: &addr}, nil
}

func i128Val(v *big.Int) (xdr.ScVal, error) {
	parts, err := BigToI128(v)
	if err != nil {
		return xdr.ScVal{}, err
	}
	return xdr.ScVal{Type: xdr.ScValTypeScvI128, I128: &parts}, nil
}

// BigToI128 splits v into the two's complement hi/lo halves of an i128
func BigToI128(v *big.Int) (xdr.Int128Parts, error) {
	if v.Cmp(minI128) < 0 || v.Cmp(maxI128) > 0 {
		return xdr.Int128Parts{}, errors.Wrapf(model.ErrInvalidArgument, "%s overflows i128", v)
	}
	u := new(big.Int).Set(v)
	if u.Sign() < 0 {
		u.Add(u, twoTo128)
	}
	lo := new(big.Int).And(u, mask64).Uint64()
	hi := new(big.Int).Rsh(u, 64).Uint64()
	return xdr.Int128Parts{Hi: xdr.Int64(int64(hi)), Lo: xdr.Uint64(lo)}, nil
}

func I128ToBig(p xdr.Int128Parts) *big.Int {
	v := big.NewInt(int64(p.Hi))
	v.Lsh(v, 64)
	return v.Add(v, new(big.Int).SetUint64(uint64(p.Lo)))
}

func addressString(addr xdr.ScAddress) (string, error) {
	switch addr.Type {
	case xdr.ScAddressTypeScAddressTypeAccount:
		return addr.AccountId.Address(), nil
	case xdr.ScAddressTypeScAddressTypeContract:
		return strkey.Encode(strkey.VersionByteContract, addr.ContractId[:])
	}
	return "", errors.Errorf("unknown address type %d", addr.Type)
}

// ToNative decodes a contract return value. Void becomes nil, 128 bit integers become *big.Int,
// addresses their strkey string. Types with no natural go form are returned as the raw ScVal.
func ToNative(v xdr.ScVal) (any, error) {
	switch v.Type {
	case xdr.ScValTypeScvVoid:
		return nil, nil
	case xdr.ScValTypeScvBool:
		return *v.B, nil
	case xdr.ScValTypeScvU32:
		return uint32(*v.U32), nil
	case xdr.ScValTypeScvI32:
		return int32(*v.I32), nil
	case xdr.ScValTypeScvU64:
		return uint64(*v.U64), nil
	case xdr.ScValTypeScvI64:
		return int64(*v.I64), nil
	case xdr.ScValTypeScvTimepoint:
		return uint64(*v.Timepoint), nil
	case xdr.ScValTypeScvDuration:
		return uint64(*v.Duration), nil
	case xdr.ScValTypeScvU128:
		hi := new(big.Int).SetUint64(uint64(v.U128.Hi))
		hi.Lsh(hi, 64)
		return hi.Add(hi, new(big.Int).SetUint64(uint64(v.U128.Lo))), nil
	case xdr.ScValTypeScvI128:
		return I128ToBig(*v.I128), nil
	case xdr.ScValTypeScvString:
		return string(*v.Str), nil
	case xdr.ScValTypeScvSymbol:
		return string(*v.Sym), nil
	case xdr.ScValTypeScvBytes:
		return []byte(*v.Bytes), nil
	case xdr.ScValTypeScvAddress:
		return addressString(*v.Address)
	case xdr.ScValTypeScvVec:
		out := []any{}
		if v.Vec == nil || *v.Vec == nil {
			return out, nil
		}
		for _, item := range **v.Vec {
			decoded, err := ToNative(item)
			if err != nil {
				return nil, err
			}
			out = append(out, decoded)
		}
		return out, nil
	case xdr.ScValTypeScvMap:
		out := map[string]any{}
		if v.Map == nil || *v.Map == nil {
			return out, nil
		}
		for _, entry := range **v.Map {
			key, err := ToNative(entry.Key)
			if err != nil {
				return nil, err
			}
			val, err := ToNative(entry.Val)
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(key)] = val
		}
		return out, nil
	}
	return v, nil
}
