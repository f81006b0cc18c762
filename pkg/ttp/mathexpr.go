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

package ttp

import (
	"math/big"
	"strings"

	"github.com/wandsdn/ttp-tools/pkg/private/serrors"
)

// evalMath evaluates an arithmetic expression over integer literals, such
// as "2**32-1" or "(400|0x1000)". Only literals, parentheses, unary + - ~
// and the binary operators + - * / % ** | & ^ << >> are accepted; names and
// calls are not. Division is floor division. Guarded behind AllowMath since
// ** can still produce arbitrarily large numbers.
func evalMath(expr string) (*big.Int, error) {
	p := &exprParser{src: expr}
	v, err := p.parseBinary(0)
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, serrors.New("trailing input in expression",
			"expr", expr, "pos", p.pos)
	}
	return v, nil
}

type exprParser struct {
	src string
	pos int
}

// Binary operator precedence, loosest first. ** is handled in parseUnary
// since it binds tighter than unary minus on its left.
var binaryLevels = [][]string{
	{"|"},
	{"^"},
	{"&"},
	{"<<", ">>"},
	{"+", "-"},
	{"*", "/", "%"},
}

func (p *exprParser) parseBinary(level int) (*big.Int, error) {
	if level == len(binaryLevels) {
		return p.parseUnary()
	}
	left, err := p.parseBinary(level + 1)
	if err != nil {
		return nil, err
	}
	for {
		op, ok := p.peekOp(binaryLevels[level])
		if !ok {
			return left, nil
		}
		p.pos += len(op)
		right, err := p.parseBinary(level + 1)
		if err != nil {
			return nil, err
		}
		left, err = applyBinary(op, left, right)
		if err != nil {
			return nil, err
		}
	}
}

func (p *exprParser) parseUnary() (*big.Int, error) {
	p.skipSpace()
	if p.pos < len(p.src) {
		switch p.src[p.pos] {
		case '-':
			p.pos++
			v, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return new(big.Int).Neg(v), nil
		case '+':
			p.pos++
			return p.parseUnary()
		case '~':
			p.pos++
			v, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			return new(big.Int).Not(v), nil
		}
	}
	return p.parsePower()
}

// parsePower parses a primary optionally raised to a power. ** is right
// associative and its exponent may carry a unary sign.
func (p *exprParser) parsePower() (*big.Int, error) {
	base, err := p.parsePrimary()
	if err != nil {
		return nil, err
	}
	if op, ok := p.peekOp([]string{"**"}); ok {
		p.pos += len(op)
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		if exp.Sign() < 0 {
			return nil, serrors.New("negative exponent", "exponent", exp)
		}
		if !exp.IsUint64() || exp.Uint64() > 4096 {
			return nil, serrors.New("exponent too large", "exponent", exp)
		}
		return new(big.Int).Exp(base, exp, nil), nil
	}
	return base, nil
}

func (p *exprParser) parsePrimary() (*big.Int, error) {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, serrors.New("unexpected end of expression", "expr", p.src)
	}
	if p.src[p.pos] == '(' {
		p.pos++
		v, err := p.parseBinary(0)
		if err != nil {
			return nil, err
		}
		p.skipSpace()
		if p.pos >= len(p.src) || p.src[p.pos] != ')' {
			return nil, serrors.New("missing closing parenthesis", "expr", p.src)
		}
		p.pos++
		return v, nil
	}
	start := p.pos
	for p.pos < len(p.src) && isLiteralByte(p.src[p.pos]) {
		p.pos++
	}
	if start == p.pos {
		return nil, serrors.New("unexpected character in expression",
			"expr", p.src, "pos", p.pos, "char", string(p.src[p.pos]))
	}
	lit := p.src[start:p.pos]
	v, ok := new(big.Int).SetString(lit, 0)
	if !ok {
		return nil, serrors.New("invalid integer literal", "literal", lit)
	}
	return v, nil
}

func isLiteralByte(c byte) bool {
	switch {
	case c >= '0' && c <= '9':
		return true
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case c == '_':
		return true
	}
	return false
}

// peekOp reports the longest matching operator at the cursor without
// consuming it. A single * is not matched while the input holds ** so that
// the power level sees it first.
func (p *exprParser) peekOp(ops []string) (string, bool) {
	p.skipSpace()
	rest := p.src[p.pos:]
	for _, op := range ops {
		if strings.HasPrefix(rest, op) {
			if op == "*" && strings.HasPrefix(rest, "**") {
				continue
			}
			return op, true
		}
	}
	return "", false
}

func (p *exprParser) skipSpace() {
	for p.pos < len(p.src) && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func applyBinary(op string, a, b *big.Int) (*big.Int, error) {
	switch op {
	case "|":
		return new(big.Int).Or(a, b), nil
	case "^":
		return new(big.Int).Xor(a, b), nil
	case "&":
		return new(big.Int).And(a, b), nil
	case "<<", ">>":
		if b.Sign() < 0 || !b.IsUint64() || b.Uint64() > 4096 {
			return nil, serrors.New("invalid shift amount", "shift", b)
		}
		if op == "<<" {
			return new(big.Int).Lsh(a, uint(b.Uint64())), nil
		}
		return new(big.Int).Rsh(a, uint(b.Uint64())), nil
	case "+":
		return new(big.Int).Add(a, b), nil
	case "-":
		return new(big.Int).Sub(a, b), nil
	case "*":
		return new(big.Int).Mul(a, b), nil
	case "/", "%":
		if b.Sign() == 0 {
			return nil, serrors.New("division by zero")
		}
		q, m := new(big.Int), new(big.Int)
		q.DivMod(a, b, m)
		if op == "/" {
			return q, nil
		}
		return m, nil
	}
	return nil, serrors.New("unknown operator", "op", op)
}
