package math

import (
	"math/big"

	"github.com/shopspring/decimal"
	"github.com/solpods/whirlpool-go/whirlpool/shared"
)

// Tick index <-> Q64.64 sqrt price conversion using the same
// bit-decomposition product tables as the on-chain program: an X64
// table of sqrt(1/1.0001)^(2^k) for negative ticks and an X96 table of
// sqrt(1.0001)^(2^k) for positive ticks, narrowed to X64 at the end.

const logBitPrecision = 14

var (
	sqrtPriceNegOddBase = mustBig("18445821805675395072")

	sqrtPriceNegBitFactors = []*big.Int{
		mustBig("18444899583751176192"), // 2^1
		mustBig("18443055278223355904"), // 2^2
		mustBig("18439367220385607680"), // 2^3
		mustBig("18431993317065453568"), // 2^4
		mustBig("18417254355718170624"), // 2^5
		mustBig("18387811781193609216"), // 2^6
		mustBig("18329067761203558400"), // 2^7
		mustBig("18212142134806163456"), // 2^8
		mustBig("17980523815641700352"), // 2^9
		mustBig("17526086738831433728"), // 2^10
		mustBig("16651378430235570176"), // 2^11
		mustBig("15030750278694412288"), // 2^12
		mustBig("12247334978884435968"), // 2^13
		mustBig("8131365268886854656"),  // 2^14
		mustBig("3584323654725218816"),  // 2^15
		mustBig("696457651848324352"),   // 2^16
		mustBig("26294789957507116"),    // 2^17
		mustBig("37481735321082"),       // 2^18
	}

	sqrtPricePosOddBase  = mustBig("79232123823359799118286999567")
	sqrtPricePosEvenBase = mustBig("79228162514264337593543950336") // 2^96

	sqrtPricePosBitFactors = []*big.Int{
		mustBig("79236085330515764027303304731"),       // 2^1
		mustBig("79244008939048815603706035061"),       // 2^2
		mustBig("79259858533276714757314932305"),       // 2^3
		mustBig("79291567232598584799939703904"),       // 2^4
		mustBig("79355022692464371645785046466"),       // 2^5
		mustBig("79482085999252804386437311141"),       // 2^6
		mustBig("79736823300114093921829183326"),       // 2^7
		mustBig("80248749790819932309965073892"),       // 2^8
		mustBig("81282483887344747381513967011"),       // 2^9
		mustBig("83390072131320151908154831281"),       // 2^10
		mustBig("87770609709833776024991924138"),       // 2^11
		mustBig("97234110755111693312479820773"),       // 2^12
		mustBig("119332217159966728226237229890"),      // 2^13
		mustBig("179736315981702064433883588727"),      // 2^14
		mustBig("407748233172238350107850275304"),      // 2^15
		mustBig("2098478828474011932436660412517"),     // 2^16
		mustBig("55581415166113811149459800483533"),    // 2^17
		mustBig("38992368544603139932233054999993551"), // 2^18
	}

	logB2X32               = mustBig("59543866431248")
	logBPErrMarginLowerX64 = mustBig("184467440737095516")
	logBPErrMarginUpperX64 = mustBig("15793534762490258745")
)

// SqrtPriceFromTickIndex returns the Q64.64 sqrt price of a tick index.
func SqrtPriceFromTickIndex(tickIndex int32) (*big.Int, error) {
	if tickIndex < shared.MinTickIndex || tickIndex > shared.MaxTickIndex {
		return nil, shared.ErrTickIndexOutOfBounds
	}
	if tickIndex >= 0 {
		return sqrtPricePositiveTick(int64(tickIndex)), nil
	}
	return sqrtPriceNegativeTick(-int64(tickIndex)), nil
}

func sqrtPriceNegativeTick(tickAbs int64) *big.Int {
	var ratio *big.Int
	if tickAbs&1 != 0 {
		ratio = new(big.Int).Set(sqrtPriceNegOddBase)
	} else {
		ratio = new(big.Int).Set(shared.OneQ64)
	}
	for i, factor := range sqrtPriceNegBitFactors {
		if tickAbs&(1<<(i+1)) != 0 {
			ratio.Mul(ratio, factor)
			ratio.Rsh(ratio, shared.ScaleOffset)
		}
	}
	return ratio
}

func sqrtPricePositiveTick(tick int64) *big.Int {
	var ratio *big.Int
	if tick&1 != 0 {
		ratio = new(big.Int).Set(sqrtPricePosOddBase)
	} else {
		ratio = new(big.Int).Set(sqrtPricePosEvenBase)
	}
	for i, factor := range sqrtPricePosBitFactors {
		if tick&(1<<(i+1)) != 0 {
			ratio.Mul(ratio, factor)
			ratio.Rsh(ratio, 96)
		}
	}
	// Narrow X96 to X64.
	return ratio.Rsh(ratio, 32)
}

// TickIndexFromSqrtPrice returns the tick index t such that
// sqrtPrice(t) <= sqrtPrice < sqrtPrice(t+1).
func TickIndexFromSqrtPrice(sqrtPrice *big.Int) (int32, error) {
	if sqrtPrice.Cmp(shared.MinSqrtPrice) < 0 || sqrtPrice.Cmp(shared.MaxSqrtPrice) > 0 {
		return 0, shared.ErrSqrtPriceOutOfBounds
	}

	msb := sqrtPrice.BitLen() - 1
	log2pIntegerX32 := new(big.Int).Lsh(big.NewInt(int64(msb-64)), 32)

	// Fractional part of log2 by repeated squaring.
	var r *big.Int
	if msb >= 64 {
		r = new(big.Int).Rsh(sqrtPrice, uint(msb-63))
	} else {
		r = new(big.Int).Lsh(sqrtPrice, uint(63-msb))
	}
	bit := new(big.Int).Lsh(big.NewInt(1), 63)
	log2pFractionX64 := new(big.Int)
	for precision := 0; bit.Sign() > 0 && precision < logBitPrecision; precision++ {
		r.Mul(r, r)
		rMoreThanTwo := new(big.Int).Rsh(r, 127)
		r.Rsh(r, uint(63+rMoreThanTwo.Int64()))
		log2pFractionX64.Add(log2pFractionX64, new(big.Int).Mul(bit, rMoreThanTwo))
		bit.Rsh(bit, 1)
	}

	log2pX32 := new(big.Int).Add(log2pIntegerX32, new(big.Int).Rsh(log2pFractionX64, 32))
	logbpX64 := new(big.Int).Mul(log2pX32, logB2X32)

	// big.Int right shift is arithmetic, so this is a floor division by
	// 2^64 for negative values as well.
	tickLow := new(big.Int).Sub(logbpX64, logBPErrMarginLowerX64)
	tickLow.Rsh(tickLow, 64)
	tickHigh := new(big.Int).Add(logbpX64, logBPErrMarginUpperX64)
	tickHigh.Rsh(tickHigh, 64)

	low := int32(tickLow.Int64())
	high := int32(tickHigh.Int64())
	if low == high {
		return low, nil
	}

	highSqrtPrice, err := SqrtPriceFromTickIndex(high)
	if err != nil {
		return 0, err
	}
	if highSqrtPrice.Cmp(sqrtPrice) <= 0 {
		return high, nil
	}
	return low, nil
}

// InvertTickIndex mirrors a tick index for the price of token B
// denominated in token A.
func InvertTickIndex(tickIndex int32) int32 {
	return -tickIndex
}

// InvertSqrtPrice returns the Q64.64 sqrt price of the inverted pair,
// 2^128 / sqrtPrice, truncating toward zero.
func InvertSqrtPrice(sqrtPrice *big.Int) *big.Int {
	numerator := new(big.Int).Lsh(big.NewInt(1), 2*shared.ScaleOffset)
	return numerator.Div(numerator, sqrtPrice)
}

// SqrtPriceToPrice converts a Q64.64 sqrt price to a decimal-adjusted
// price of token A denominated in token B.
func SqrtPriceToPrice(sqrtPrice *big.Int, decimalsA, decimalsB uint8) decimal.Decimal {
	p := decimal.NewFromBigInt(sqrtPrice, 0).Div(decimal.NewFromBigInt(shared.OneQ64, 0))
	price := p.Mul(p)
	return price.Shift(int32(decimalsA) - int32(decimalsB))
}

// PriceToSqrtPrice converts a decimal-adjusted price back to a Q64.64
// sqrt price, truncating toward zero.
func PriceToSqrtPrice(price decimal.Decimal, decimalsA, decimalsB uint8) *big.Int {
	raw := price.Shift(int32(decimalsB) - int32(decimalsA))
	f, _ := new(big.Float).SetPrec(256).SetString(raw.String())
	sqrt := new(big.Float).SetPrec(256).Sqrt(f)
	sqrt.Mul(sqrt, new(big.Float).SetInt(shared.OneQ64))
	out, _ := sqrt.Int(nil)
	return out
}

func mustBig(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("invalid big int literal: " + s)
	}
	return v
}
