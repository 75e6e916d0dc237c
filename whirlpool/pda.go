package whirlpool

import (
	"strconv"

	solanago "github.com/gagliardetto/solana-go"

	"github.com/solpods/whirlpool-go/whirlpool/shared"
)

// ProgramID is the whirlpool program address.
var ProgramID = solanago.MustPublicKeyFromBase58("whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc")

func DeriveWhirlpoolAddress(whirlpoolsConfig, tokenMintA, tokenMintB solanago.PublicKey, tickSpacing uint16) solanago.PublicKey {
	spacingBytes := []byte{byte(tickSpacing), byte(tickSpacing >> 8)}
	pub, _, _ := solanago.FindProgramAddress([][]byte{
		[]byte("whirlpool"),
		whirlpoolsConfig.Bytes(),
		tokenMintA.Bytes(),
		tokenMintB.Bytes(),
		spacingBytes,
	}, ProgramID)
	return pub
}

// DeriveTickArrayAddress derives the tick array PDA. The start index seed
// is its ASCII decimal representation, sign included.
func DeriveTickArrayAddress(pool solanago.PublicKey, startTickIndex int32) solanago.PublicKey {
	pub, _, _ := solanago.FindProgramAddress([][]byte{
		[]byte("tick_array"),
		pool.Bytes(),
		[]byte(strconv.FormatInt(int64(startTickIndex), 10)),
	}, ProgramID)
	return pub
}

func DeriveOracleAddress(pool solanago.PublicKey) solanago.PublicKey {
	pub, _, _ := solanago.FindProgramAddress([][]byte{
		[]byte("oracle"),
		pool.Bytes(),
	}, ProgramID)
	return pub
}

func DeriveFeeTierAddress(whirlpoolsConfig solanago.PublicKey, tickSpacing uint16) solanago.PublicKey {
	spacingBytes := []byte{byte(tickSpacing), byte(tickSpacing >> 8)}
	pub, _, _ := solanago.FindProgramAddress([][]byte{
		[]byte("fee_tier"),
		whirlpoolsConfig.Bytes(),
		spacingBytes,
	}, ProgramID)
	return pub
}

func DerivePositionAddress(positionMint solanago.PublicKey) solanago.PublicKey {
	pub, _, _ := solanago.FindProgramAddress([][]byte{
		[]byte("position"),
		positionMint.Bytes(),
	}, ProgramID)
	return pub
}

// TickArrayStartIndex returns the start index of the tick array covering
// tickIndex for the given spacing.
func TickArrayStartIndex(tickIndex int32, tickSpacing uint16) int32 {
	span := int32(tickSpacing) * shared.TickArraySize
	q := tickIndex / span
	if tickIndex%span != 0 && tickIndex < 0 {
		q--
	}
	return q * span
}
