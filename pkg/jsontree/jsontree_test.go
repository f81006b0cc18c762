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

package jsontree_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wandsdn/ttp-tools/pkg/jsontree"
)

func TestDecodeOffsets(t *testing.T) {
	src := `{"a": {"b": 1}, "c": [{"d": true}]}`
	root, err := jsontree.Decode([]byte(src))
	require.NoError(t, err)

	obj, ok := root.Object()
	require.True(t, ok)
	assert.Equal(t, 0, root.Start)
	assert.Equal(t, len(src), root.End)

	a, ok := obj.Get("a")
	require.True(t, ok)
	assert.Equal(t, byte('{'), src[a.Start])
	assert.Equal(t, byte('}'), src[a.End-1])
	assert.Equal(t, 6, a.Start)
	assert.Equal(t, 14, a.End)

	c, ok := obj.Get("c")
	require.True(t, ok)
	start, end := c.Span()
	assert.Equal(t, -1, start)
	assert.Equal(t, -1, end)
	arr, ok := c.Array()
	require.True(t, ok)
	require.Len(t, arr, 1)
	assert.Equal(t, 22, arr[0].Start)
	assert.Equal(t, 33, arr[0].End)
}

func TestDecodeValues(t *testing.T) {
	src := `{"num": 42, "neg": -1.5, "str": "hi", "yes": true, "nothing": null}`
	root, err := jsontree.Decode([]byte(src))
	require.NoError(t, err)
	obj, ok := root.Object()
	require.True(t, ok)

	num, _ := obj.Get("num")
	n, ok := num.Number()
	assert.True(t, ok)
	assert.Equal(t, json.Number("42"), n)

	neg, _ := obj.Get("neg")
	n, ok = neg.Number()
	assert.True(t, ok)
	assert.Equal(t, json.Number("-1.5"), n)

	str, _ := obj.Get("str")
	s, ok := str.Str()
	assert.True(t, ok)
	assert.Equal(t, "hi", s)

	yes, _ := obj.Get("yes")
	b, ok := yes.Bool()
	assert.True(t, ok)
	assert.True(t, b)

	nothing, _ := obj.Get("nothing")
	assert.True(t, nothing.IsNull())
	assert.False(t, str.IsNull())

	assert.Equal(t, []string{"num", "neg", "str", "yes", "nothing"}, obj.Keys())
	assert.Equal(t, 5, obj.Len())
	assert.False(t, obj.Has("missing"))
}

func TestDecodeDuplicateKeys(t *testing.T) {
	src := `{"a": 1, "b": 2, "a": 3}`
	root, err := jsontree.Decode([]byte(src))
	require.NoError(t, err)
	obj, ok := root.Object()
	require.True(t, ok)

	// Last value wins, at the first position.
	assert.Equal(t, []string{"a", "b"}, obj.Keys())
	a, _ := obj.Get("a")
	n, _ := a.Number()
	assert.Equal(t, json.Number("3"), n)
}

func TestDecodeErrors(t *testing.T) {
	testCases := map[string]string{
		"empty":         ``,
		"missing value": `{"a": }`,
		"trailing":      `{} {}`,
		"bare key":      `{a: 1}`,
		"unclosed":      `{"a": [1, 2`,
	}
	for name, src := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := jsontree.Decode([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestSyntaxOffset(t *testing.T) {
	_, err := jsontree.Decode([]byte(`{"a": }`))
	require.Error(t, err)
	offset, ok := jsontree.SyntaxOffset(err)
	assert.True(t, ok)
	assert.Greater(t, offset, 0)

	_, ok = jsontree.SyntaxOffset(nil)
	assert.False(t, ok)
}
