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

package openflow_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wandsdn/ttp-tools/pkg/openflow"
)

func TestMask(t *testing.T) {
	testCases := map[string]struct {
		Bits     int
		Expected openflow.Uint128
	}{
		"zero":         {0, openflow.Uint128{}},
		"vlan":         {13, openflow.U64(0x1fff)},
		"port":         {32, openflow.U64(0xffffffff)},
		"metadata":     {64, openflow.U64(^uint64(0))},
		"above 64":     {80, openflow.Uint128{Hi: 0xffff, Lo: ^uint64(0)}},
		"ipv6":         {128, openflow.Uint128{Hi: ^uint64(0), Lo: ^uint64(0)}},
		"out of range": {200, openflow.Uint128{Hi: ^uint64(0), Lo: ^uint64(0)}},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.Expected, openflow.Mask(tc.Bits))
		})
	}
}

func TestShifts(t *testing.T) {
	one := openflow.U64(1)
	assert.Equal(t, openflow.U64(0x10), one.Shl(4))
	assert.Equal(t, openflow.Uint128{Hi: 1}, one.Shl(64))
	assert.Equal(t, openflow.Uint128{Hi: 1 << 3}, one.Shl(67))
	assert.Equal(t, openflow.Uint128{}, one.Shl(128))

	high := openflow.Uint128{Hi: 1}
	assert.Equal(t, openflow.U64(1), high.Shr(64))
	assert.Equal(t, openflow.U64(1<<60), high.Shr(4))
	assert.Equal(t, openflow.Uint128{}, high.Shr(128))
}

func TestBitwise(t *testing.T) {
	a := openflow.Uint128{Hi: 0xf0f0, Lo: 0xff00ff00ff00ff00}
	b := openflow.Uint128{Hi: 0xff00, Lo: 0xffff0000ffff0000}
	assert.Equal(t, openflow.Uint128{Hi: 0xf000, Lo: 0xff000000ff000000}, a.And(b))
	assert.Equal(t, openflow.Uint128{Hi: 0xfff0, Lo: 0xffffff00ffffff00}, a.Or(b))
	assert.Equal(t, openflow.Uint128{Hi: 0x00f0, Lo: 0x0000ff000000ff00}, a.AndNot(b))
	assert.True(t, a.Xor(a).IsZero())
	assert.Equal(t, openflow.Mask(128), a.Or(a.Not()))
}

func TestParseUint128(t *testing.T) {
	testCases := map[string]struct {
		Input     string
		Expected  openflow.Uint128
		AssertErr assert.ErrorAssertionFunc
	}{
		"decimal":   {"143", openflow.U64(143), assert.NoError},
		"hex":       {"0x143", openflow.U64(0x143), assert.NoError},
		"octal":     {"0o17", openflow.U64(15), assert.NoError},
		"wide": {
			"0xbade0000ca5400050004ffff00040009",
			openflow.Uint128{Hi: 0xbade0000ca540005, Lo: 0x0004ffff00040009},
			assert.NoError,
		},
		"max": {
			"340282366920938463463374607431768211455",
			openflow.Mask(128),
			assert.NoError,
		},
		"negative": {"-1", openflow.Uint128{}, assert.Error},
		"too wide": {"0x1" + "00000000000000000000000000000000", openflow.Uint128{}, assert.Error},
		"garbage":  {"fourteen", openflow.Uint128{}, assert.Error},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			v, err := openflow.ParseUint128(tc.Input)
			tc.AssertErr(t, err)
			assert.Equal(t, tc.Expected, v)
		})
	}
}

func TestUint128Strings(t *testing.T) {
	wide := openflow.Uint128{Hi: 0xbade0000ca540005, Lo: 0x0004ffff00040009}
	assert.Equal(t, "248389097181206605938636343869448650761", wide.String())
	assert.Equal(t, "0xbade0000ca5400050004ffff00040009", wide.Hex())
	assert.Equal(t, "143", openflow.U64(143).String())
	assert.Equal(t, "0x8f", openflow.U64(143).Hex())
	assert.Equal(t, "0x0", openflow.Uint128{}.Hex())
}

func TestUint128JSON(t *testing.T) {
	wide := openflow.Uint128{Hi: 0xbade0000ca540005, Lo: 0x0004ffff00040009}
	raw, err := json.Marshal(wide)
	require.NoError(t, err)
	assert.Equal(t, `"0xbade0000ca5400050004ffff00040009"`, string(raw))

	var v openflow.Uint128
	require.NoError(t, json.Unmarshal(raw, &v))
	assert.Equal(t, wide, v)

	require.NoError(t, json.Unmarshal([]byte(`143`), &v))
	assert.Equal(t, openflow.U64(143), v)
	require.NoError(t, json.Unmarshal([]byte(`"0x1000"`), &v))
	assert.Equal(t, openflow.U64(0x1000), v)
	assert.Error(t, json.Unmarshal([]byte(`-4`), &v))
}
