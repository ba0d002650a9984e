package math

import (
	"errors"

	"github.com/holiman/uint256"
)

var (
	ErrOverflow       = errors.New("SafeMath: multiplication or addition overflow")
	ErrUnderflow      = errors.New("SafeMath: subtraction overflow")
	ErrDivisionByZero = errors.New("SafeMath: division by zero")
)

func Add(a, b *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(a, b)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

func Sub(a, b *uint256.Int) (*uint256.Int, error) {
	if b.Gt(a) {
		return nil, ErrUnderflow
	}
	return new(uint256.Int).Sub(a, b), nil
}

func Mul(a, b *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(a, b)
	if overflow {
		return nil, ErrOverflow
	}
	return z, nil
}

func Div(a, b *uint256.Int) (*uint256.Int, error) {
	if b.IsZero() {
		return nil, ErrDivisionByZero
	}
	return new(uint256.Int).Div(a, b), nil
}

// Min returns a copy of the smaller operand.
func Min(a, b *uint256.Int) *uint256.Int {
	if a.Lt(b) {
		return a.Clone()
	}
	return b.Clone()
}

// Max returns a copy of the larger operand.
func Max(a, b *uint256.Int) *uint256.Int {
	if a.Gt(b) {
		return a.Clone()
	}
	return b.Clone()
}
