package u128

import (
	"errors"
	"fmt"
	"math/big"

	binary "github.com/gagliardetto/binary"
)

type Uint128 binary.Uint128

func (u *Uint128) Scan(s fmt.ScanState, ch rune) error {
	i := new(big.Int)
	if err := i.Scan(s, ch); err != nil {
		return err
	} else if i.Sign() < 0 {
		return errors.New("value cannot be negative")
	} else if i.BitLen() > 128 {
		return errors.New("value overflows Uint128")
	}
	u.Lo = i.Uint64()
	u.Hi = i.Rsh(i, 64).Uint64()
	return nil
}

// FromString parses a decimal string into a little-endian Uint128.
// Panics on malformed input; intended for constants and test fixtures.
func FromString(num string) binary.Uint128 {
	u128 := binary.NewUint128LittleEndian()
	if _, err := fmt.Sscan(num, (*Uint128)(u128)); err != nil {
		panic(err)
	}
	return *u128
}

// FromBig converts a non-negative big.Int to a little-endian Uint128.
func FromBig(i *big.Int) binary.Uint128 {
	if i.Sign() < 0 || i.BitLen() > 128 {
		panic("value out of Uint128 range")
	}
	u := binary.NewUint128LittleEndian()
	u.Lo = i.Uint64()
	u.Hi = new(big.Int).Rsh(i, 64).Uint64()
	return *u
}

// Int128FromBig converts a signed big.Int to its two's complement
// little-endian Int128. Panics when the value does not fit.
func Int128FromBig(i *big.Int) binary.Int128 {
	v := new(big.Int).Set(i)
	if v.Sign() < 0 {
		v.Add(v, new(big.Int).Lsh(big.NewInt(1), 128))
	}
	if v.Sign() < 0 || v.BitLen() > 128 {
		panic("value out of Int128 range")
	}
	return binary.Int128(FromBig(v))
}
