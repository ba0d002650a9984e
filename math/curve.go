package math

import (
	"errors"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/krazyTry/igain-go/shared"
)

var (
	ErrZeroReserve    = errors.New("reserves must be greater than 0")
	ErrNoConvergence  = errors.New("curve solution did not converge")
	ErrExceedsSupply  = errors.New("amount exceeds total supply")
	ErrInvariantShape = errors.New("discriminant is negative")
)

// maxCorrection bounds the unit steps taken after a closed-form estimate.
const maxCorrection = 256

// GetAmountOut prices a constant-product swap net of fee:
//
//	out = amountIn*fee*reserveOut / (reserveIn*1e18 + amountIn*fee)
func GetAmountOut(amountIn, reserveIn, reserveOut, fee *uint256.Int) (*uint256.Int, error) {
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return nil, ErrZeroReserve
	}
	inWithFee, err := Mul(amountIn, fee)
	if err != nil {
		return nil, err
	}
	scaledReserve, err := Mul(reserveIn, shared.One)
	if err != nil {
		return nil, err
	}
	denominator, err := Add(scaledReserve, inWithFee)
	if err != nil {
		return nil, err
	}
	return MulDiv(inWithFee, reserveOut, denominator, shared.RoundingDown)
}

// GetMintOut is the single-sided mint: amountIn pairs are minted and the
// reserveSold leg is sold into the curve for more of the reserveBought leg.
func GetMintOut(amountIn, reserveSold, reserveBought, fee *uint256.Int) (*uint256.Int, error) {
	bought, err := GetAmountOut(amountIn, reserveSold, reserveBought, fee)
	if err != nil {
		return nil, err
	}
	return Add(amountIn, bought)
}

// GetMintAmountIn inverts GetMintOut: it returns the smallest deposit whose
// GetMintOut is at least amountOut.
func GetMintAmountIn(amountOut, reserveSold, reserveBought, fee *uint256.Int) (*uint256.Int, error) {
	if reserveSold.IsZero() || reserveBought.IsZero() {
		return nil, ErrZeroReserve
	}
	if amountOut.IsZero() {
		return new(uint256.Int), nil
	}
	if fee.IsZero() {
		// nothing is bought back, every unit out costs one unit in
		return amountOut.Clone(), nil
	}

	// f*x^2 + (Rs*1e18 + f*Rb - f*y)*x - y*Rs*1e18 = 0
	f := toBig(fee)
	y := toBig(amountOut)
	rs := new(big.Int).Mul(toBig(reserveSold), toBig(shared.One))
	b := new(big.Int).Add(rs, new(big.Int).Mul(f, toBig(reserveBought)))
	b.Sub(b, new(big.Int).Mul(f, y))
	c := new(big.Int).Mul(y, rs)

	disc := new(big.Int).Mul(b, b)
	disc.Add(disc, new(big.Int).Mul(big.NewInt(4), new(big.Int).Mul(f, c)))
	estimate := bigSqrt(disc)
	estimate.Sub(estimate, b)
	estimate.Div(estimate, new(big.Int).Mul(big.NewInt(2), f))

	x, err := fromBig(estimate)
	if err != nil {
		return nil, err
	}
	if x.Gt(amountOut) {
		x = amountOut.Clone()
	}

	reaches := func(in *uint256.Int) (bool, error) {
		out, err := GetMintOut(in, reserveSold, reserveBought, fee)
		if err != nil {
			return false, err
		}
		return !out.Lt(amountOut), nil
	}

	for i := 0; ; i++ {
		if i > maxCorrection {
			return nil, ErrNoConvergence
		}
		ok, err := reaches(x)
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		x.AddUint64(x, 1)
	}
	for i := 0; !x.IsZero(); i++ {
		if i > maxCorrection {
			return nil, ErrNoConvergence
		}
		prev := new(uint256.Int).SubUint64(x, 1)
		ok, err := reaches(prev)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		x = prev
	}
	return x, nil
}

// GetBurnOut returns the base payout for burning amountIn of one side: the
// largest x such that selling (amountIn - x) of that side buys at least x of
// the other, after which x pairs are redeemed.
func GetBurnOut(amountIn, reserveBurned, reserveOther, fee *uint256.Int) (*uint256.Int, error) {
	if reserveBurned.IsZero() || reserveOther.IsZero() {
		return nil, ErrZeroReserve
	}
	if amountIn.IsZero() || fee.IsZero() {
		return new(uint256.Int), nil
	}

	// f*x^2 - S*x + f*a*f*Ro = 0, S = Rs*1e18 + f*(a + Ro); smaller root
	f := toBig(fee)
	a := toBig(amountIn)
	ro := toBig(reserveOther)
	s := new(big.Int).Mul(toBig(reserveBurned), toBig(shared.One))
	s.Add(s, new(big.Int).Mul(f, new(big.Int).Add(a, ro)))
	c := new(big.Int).Mul(new(big.Int).Mul(f, a), new(big.Int).Mul(f, ro))

	disc := new(big.Int).Mul(s, s)
	disc.Sub(disc, new(big.Int).Mul(big.NewInt(4), c))
	if disc.Sign() < 0 {
		return nil, ErrInvariantShape
	}
	estimate := new(big.Int).Sub(s, bigSqrt(disc))
	estimate.Div(estimate, new(big.Int).Mul(big.NewInt(2), f))

	x, err := fromBig(estimate)
	if err != nil {
		return nil, err
	}
	if x.Gt(amountIn) {
		x = amountIn.Clone()
	}

	covers := func(out *uint256.Int) (bool, error) {
		sold := new(uint256.Int).Sub(amountIn, out)
		bought, err := GetAmountOut(sold, reserveBurned, reserveOther, fee)
		if err != nil {
			return false, err
		}
		return !bought.Lt(out), nil
	}

	for i := 0; !x.IsZero(); i++ {
		if i > maxCorrection {
			return nil, ErrNoConvergence
		}
		ok, err := covers(x)
		if err != nil {
			return nil, err
		}
		if ok {
			break
		}
		x.SubUint64(x, 1)
	}
	for i := 0; x.Lt(amountIn); i++ {
		if i > maxCorrection {
			return nil, ErrNoConvergence
		}
		next := new(uint256.Int).AddUint64(x, 1)
		ok, err := covers(next)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		x = next
	}
	return x, nil
}

// GetLPMintOut prices a symmetric deposit into both reserves in LP shares:
//
//	growth = sqrt((A+x)(B+x)) * 1e18 / sqrt(A*B)
//	out    = (growth - 1e18) * totalSupply / 1e18 * fee / 1e18
func GetLPMintOut(amountIn, poolA, poolB, totalSupply, fee *uint256.Int) (*uint256.Int, error) {
	k, err := Mul(poolA, poolB)
	if err != nil {
		return nil, err
	}
	k = Sqrt(k)
	if k.IsZero() {
		return nil, ErrZeroReserve
	}

	nextA, err := Add(poolA, amountIn)
	if err != nil {
		return nil, err
	}
	nextB, err := Add(poolB, amountIn)
	if err != nil {
		return nil, err
	}
	nextK, err := Mul(nextA, nextB)
	if err != nil {
		return nil, err
	}
	nextK = Sqrt(nextK)

	scaled, err := Mul(nextK, shared.One)
	if err != nil {
		return nil, err
	}
	growth, err := Div(scaled, k)
	if err != nil {
		return nil, err
	}
	excess, err := Sub(growth, shared.One)
	if err != nil {
		return nil, err
	}

	out, err := Mul(excess, totalSupply)
	if err != nil {
		return nil, err
	}
	out.Div(out, shared.One)
	if out, err = Mul(out, fee); err != nil {
		return nil, err
	}
	return out.Div(out, shared.One), nil
}

// GetLPBurnOut redeems lp shares for base, removing the same amount from both
// reserves so that sqrt(A*B) shrinks by fee*lp/totalSupply:
//
//	(A - x)(B - x) = A*B*(1 - g)^2,  g = fee*lp/totalSupply
func GetLPBurnOut(lp, poolA, poolB, totalSupply, fee *uint256.Int) (*uint256.Int, error) {
	if totalSupply.IsZero() {
		return nil, ErrDivisionByZero
	}
	if lp.Gt(totalSupply) {
		return nil, ErrExceedsSupply
	}

	g, err := MulDiv(fee, lp, totalSupply, shared.RoundingDown)
	if err != nil {
		return nil, err
	}
	s, err := Add(poolA, poolB)
	if err != nil {
		return nil, err
	}

	// t = A*B*4*g/1e18*(2e18 - g)/1e18
	t, err := Mul(poolA, poolB)
	if err != nil {
		return nil, err
	}
	if t, err = Mul(t, uint256.NewInt(4)); err != nil {
		return nil, err
	}
	if t, err = MulDiv(t, g, shared.One, shared.RoundingDown); err != nil {
		return nil, err
	}
	if t, err = MulDiv(t, new(uint256.Int).Sub(shared.TwoOne, g), shared.One, shared.RoundingDown); err != nil {
		return nil, err
	}

	s2, err := Mul(s, s)
	if err != nil {
		return nil, err
	}
	disc, err := Sub(s2, t)
	if err != nil {
		return nil, ErrInvariantShape
	}
	out := new(uint256.Int).Sub(s, SqrtCeil(disc))
	return out.Rsh(out, 1), nil
}

// GetDepositLPOut mints LP strictly proportionally to the smaller relative
// reserve increase.
func GetDepositLPOut(amountA, amountB, poolA, poolB, totalSupply *uint256.Int) (*uint256.Int, error) {
	lpA, err := MulDiv(amountA, totalSupply, poolA, shared.RoundingDown)
	if err != nil {
		return nil, err
	}
	lpB, err := MulDiv(amountB, totalSupply, poolB, shared.RoundingDown)
	if err != nil {
		return nil, err
	}
	return Min(lpA, lpB), nil
}

// GetLPLegs returns the A and B reserve legs backing lp shares.
func GetLPLegs(lp, poolA, poolB, totalSupply *uint256.Int, rounding shared.Rounding) (*uint256.Int, *uint256.Int, error) {
	legA, err := MulDiv(lp, poolA, totalSupply, rounding)
	if err != nil {
		return nil, nil, err
	}
	legB, err := MulDiv(lp, poolB, totalSupply, rounding)
	if err != nil {
		return nil, nil, err
	}
	return legA, legB, nil
}

// GetWithdrawLPIn returns the LP shares burned to take amountA and amountB
// out of the reserves, rounded up.
func GetWithdrawLPIn(amountA, amountB, poolA, poolB, totalSupply *uint256.Int) (*uint256.Int, error) {
	lpA, err := MulDiv(amountA, totalSupply, poolA, shared.RoundingUp)
	if err != nil {
		return nil, err
	}
	lpB, err := MulDiv(amountB, totalSupply, poolB, shared.RoundingUp)
	if err != nil {
		return nil, err
	}
	return Max(lpA, lpB), nil
}

// GetInitialLiquidity is the LP supply minted against the seed reserves.
func GetInitialLiquidity(seedA, seedB *uint256.Int) (*uint256.Int, error) {
	k, err := Mul(seedA, seedB)
	if err != nil {
		return nil, err
	}
	return Sqrt(k), nil
}
