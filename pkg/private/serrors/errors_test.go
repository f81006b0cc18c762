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

package serrors_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wandsdn/ttp-tools/pkg/private/serrors"
)

type testErrType struct {
	msg string
}

func (e *testErrType) Error() string {
	return e.msg
}

type testToTempErr struct {
	msg       string
	timeout   bool
	temporary bool
	cause     error
}

func (e *testToTempErr) Error() string {
	return e.msg
}

func (e *testToTempErr) Timeout() bool {
	return e.timeout
}

func (e *testToTempErr) Temporary() bool {
	return e.temporary
}

func (e *testToTempErr) Unwrap() error {
	return e.cause
}

func TestIsTimeout(t *testing.T) {
	err := serrors.New("no timeout")
	assert.False(t, serrors.IsTimeout(err))
	wrappedErr := serrors.Wrap("timeout",
		&testToTempErr{msg: "to", timeout: true})
	assert.True(t, serrors.IsTimeout(wrappedErr))
	noTimeoutWrappingTimeout := serrors.Wrap("notimeout", &testToTempErr{
		msg:     "non timeout wraps timeout",
		timeout: false,
		cause:   &testToTempErr{msg: "timeout", timeout: true},
	})
	assert.False(t, serrors.IsTimeout(noTimeoutWrappingTimeout))
}

func TestIsTemporary(t *testing.T) {
	err := serrors.New("not temp")
	assert.False(t, serrors.IsTemporary(err))
	wrappedErr := serrors.Wrap("temp",
		&testToTempErr{msg: "to", temporary: true})
	assert.True(t, serrors.IsTemporary(wrappedErr))
	noTempWrappingTemp := serrors.Wrap("notemp", &testToTempErr{
		msg:       "non temp wraps temp",
		temporary: false,
		cause:     &testToTempErr{msg: "temp", temporary: true},
	})
	assert.False(t, serrors.IsTemporary(noTempWrappingTemp))
}

func TestWrap(t *testing.T) {
	t.Run("Is", func(t *testing.T) {
		err := serrors.New("simple err")
		errWithCtx := serrors.Wrap("error", err, "someCtx", "someValue")
		assert.ErrorIs(t, errWithCtx, err)
		assert.ErrorIs(t, errWithCtx, errWithCtx)
	})
	t.Run("As", func(t *testing.T) {
		err := &testErrType{msg: "test err"}
		errWithCtx := serrors.Wrap("error", err, "someCtx", "someVal")
		var errAs *testErrType
		require.True(t, errors.As(errWithCtx, &errAs))
		assert.Equal(t, err, errAs)
	})
}

func TestJoin(t *testing.T) {
	t.Run("Is", func(t *testing.T) {
		err := serrors.New("simple err")
		msg := serrors.New("msg err")
		wrappedErr := serrors.Join(msg, err, "someCtx", "someValue")
		assert.ErrorIs(t, wrappedErr, err)
		assert.ErrorIs(t, wrappedErr, msg)
		assert.ErrorIs(t, wrappedErr, wrappedErr)
	})
	t.Run("As", func(t *testing.T) {
		err := &testErrType{msg: "test err"}
		wrappedErr := serrors.Join(serrors.New("msg err"), err)
		var errAs *testErrType
		require.True(t, errors.As(wrappedErr, &errAs))
		assert.Equal(t, err, errAs)
	})
	t.Run("nil nil is nil", func(t *testing.T) {
		assert.NoError(t, serrors.Join(nil, nil, "someCtx", "someValue"))
	})
}

func TestMessages(t *testing.T) {
	testCases := map[string]struct {
		err      error
		expected string
	}{
		"new with context": {
			err:      serrors.New("err msg", "k0", "v0", "k1", 1),
			expected: "err msg {k0=v0; k1=1}",
		},
		"new sorts context": {
			err:      serrors.New("err msg", "z", 1, "a", 2),
			expected: "err msg {a=2; z=1}",
		},
		"wrap with cause": {
			err:      serrors.Wrap("outer", errors.New("inner"), "f", "v"),
			expected: "outer {f=v}: inner",
		},
		"wrap without context": {
			err:      serrors.Wrap("outer", errors.New("inner")),
			expected: "outer: inner",
		},
		"join base and cause": {
			err: serrors.Join(errors.New("base"), errors.New("cause"),
				"k", "v"),
			expected: "base {k=v}: cause",
		},
		"list": {
			err:      serrors.List{errors.New("a"), errors.New("b")},
			expected: "[ a; b ]",
		},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.err.Error())
		})
	}
}

func TestList(t *testing.T) {
	var l serrors.List
	assert.NoError(t, l.ToError())
	l = append(l, fmt.Errorf("boom"))
	assert.Error(t, l.ToError())
}
