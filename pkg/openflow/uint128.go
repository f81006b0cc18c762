// Copyright 2026 Richard Sanger, Wand Network Research Group
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package openflow

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/wandsdn/ttp-tools/pkg/private/serrors"
)

// Uint128 is an unsigned 128-bit integer, wide enough to hold any OXM
// payload including IPv6 addresses. The zero value is the number zero.
// Uint128 is comparable with ==.
type Uint128 struct {
	Hi uint64
	Lo uint64
}

// U64 returns v as a Uint128.
func U64(v uint64) Uint128 {
	return Uint128{Lo: v}
}

// Mask returns the all-ones value of the given width in bits. Widths
// outside [0, 128] are clamped.
func Mask(bits int) Uint128 {
	switch {
	case bits <= 0:
		return Uint128{}
	case bits < 64:
		return Uint128{Lo: 1<<uint(bits) - 1}
	case bits == 64:
		return Uint128{Lo: ^uint64(0)}
	case bits < 128:
		return Uint128{Hi: 1<<uint(bits-64) - 1, Lo: ^uint64(0)}
	default:
		return Uint128{Hi: ^uint64(0), Lo: ^uint64(0)}
	}
}

// ParseUint128 parses s as an unsigned 128-bit integer. The base is
// detected from the prefix as in strconv with base 0.
func ParseUint128(s string) (Uint128, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 0)
	if !ok {
		return Uint128{}, serrors.New("invalid number", "value", s)
	}
	if v.Sign() < 0 || v.BitLen() > 128 {
		return Uint128{}, serrors.New("number out of 128 bit range", "value", s)
	}
	return Uint128{
		Hi: new(big.Int).Rsh(v, 64).Uint64(),
		Lo: new(big.Int).And(v, new(big.Int).SetUint64(^uint64(0))).Uint64(),
	}, nil
}

func (u Uint128) And(v Uint128) Uint128 {
	return Uint128{Hi: u.Hi & v.Hi, Lo: u.Lo & v.Lo}
}

func (u Uint128) Or(v Uint128) Uint128 {
	return Uint128{Hi: u.Hi | v.Hi, Lo: u.Lo | v.Lo}
}

func (u Uint128) Xor(v Uint128) Uint128 {
	return Uint128{Hi: u.Hi ^ v.Hi, Lo: u.Lo ^ v.Lo}
}

// AndNot returns u &^ v.
func (u Uint128) AndNot(v Uint128) Uint128 {
	return Uint128{Hi: u.Hi &^ v.Hi, Lo: u.Lo &^ v.Lo}
}

// Not returns the complement over the full 128 bits. Combine with And
// and a width mask to complement within a field width.
func (u Uint128) Not() Uint128 {
	return Uint128{Hi: ^u.Hi, Lo: ^u.Lo}
}

// Shl returns u shifted left by n bits.
func (u Uint128) Shl(n uint) Uint128 {
	switch {
	case n == 0:
		return u
	case n < 64:
		return Uint128{Hi: u.Hi<<n | u.Lo>>(64-n), Lo: u.Lo << n}
	case n < 128:
		return Uint128{Hi: u.Lo << (n - 64)}
	default:
		return Uint128{}
	}
}

// Shr returns u shifted right by n bits.
func (u Uint128) Shr(n uint) Uint128 {
	switch {
	case n == 0:
		return u
	case n < 64:
		return Uint128{Hi: u.Hi >> n, Lo: u.Lo>>n | u.Hi<<(64-n)}
	case n < 128:
		return Uint128{Lo: u.Hi >> (n - 64)}
	default:
		return Uint128{}
	}
}

func (u Uint128) IsZero() bool {
	return u.Hi == 0 && u.Lo == 0
}

// Uint64 returns the low 64 bits of u.
func (u Uint128) Uint64() uint64 {
	return u.Lo
}

func (u Uint128) bigInt() *big.Int {
	v := new(big.Int).SetUint64(u.Hi)
	v.Lsh(v, 64)
	return v.Or(v, new(big.Int).SetUint64(u.Lo))
}

// String renders u in decimal.
func (u Uint128) String() string {
	if u.Hi == 0 {
		return strconv.FormatUint(u.Lo, 10)
	}
	return u.bigInt().String()
}

// Hex renders u as a 0x prefixed hexadecimal literal without leading zeros.
func (u Uint128) Hex() string {
	if u.Hi == 0 {
		return "0x" + strconv.FormatUint(u.Lo, 16)
	}
	return fmt.Sprintf("0x%x%016x", u.Hi, u.Lo)
}

// MarshalJSON encodes u as a hexadecimal string.
func (u Uint128) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.Hex())
}

// UnmarshalJSON accepts either a JSON number or a string holding a
// decimal or 0x prefixed literal.
func (u *Uint128) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if len(s) > 0 && s[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
	}
	v, err := ParseUint128(s)
	if err != nil {
		return err
	}
	*u = v
	return nil
}
