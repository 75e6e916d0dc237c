package token2022

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"math/big"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/solpods/whirlpool-go/whirlpool/shared"
)

// TransferFee is one epoch's transfer fee schedule.
type TransferFee struct {
	Epoch       uint64 // Epoch when this fee configuration takes effect
	MaximumFee  uint64 // Fee cap in token units
	BasisPoints uint16 // Fee rate in basis points (1/10000)
}

// TransferFeeConfig is the Token-2022 TransferFeeConfig extension of a
// mint. Quotes use it to strip the transfer fee from the traded amounts
// before and after simulation.
type TransferFeeConfig struct {
	TransferFeeConfigAuthority *solana.PublicKey
	WithdrawWithheldAuthority  *solana.PublicKey
	WithheldAmount             uint64
	OlderTransferFee           TransferFee
	NewerTransferFee           TransferFee
}

func parseCOptionPubkey(data []byte) (*solana.PublicKey, int, error) {
	if len(data) < 1 {
		return nil, 0, errors.New("data too short for COption tag")
	}

	switch data[0] {
	case 0: // None
		return nil, 1, nil
	case 1: // Some(pubkey)
		if len(data) < 33 {
			return nil, 0, errors.New("data too short for Pubkey")
		}
		key := solana.PublicKeyFromBytes(data[1:33])
		return &key, 33, nil
	default:
		return nil, 0, errors.New("invalid COption tag")
	}
}

// GetTransferFeeConfig fetches a mint account and extracts its transfer
// fee extension. It returns (nil, nil) when the mint carries no such
// extension, which covers classic SPL mints as well.
func GetTransferFeeConfig(ctx context.Context, rpcClient *rpc.Client, mint solana.PublicKey) (*TransferFeeConfig, error) {
	ctx, cancel := context.WithTimeout(ctx, time.Second*5)
	defer cancel()
	out, err := rpcClient.GetAccountInfoWithOpts(ctx, mint, &rpc.GetAccountInfoOpts{Commitment: rpc.CommitmentFinalized})
	if err != nil {
		return nil, err
	}
	return parseTransferFeeConfig(out.GetBinary())
}

func parseTransferFeeConfig(data []byte) (*TransferFeeConfig, error) {
	// Token-2022 TransferFeeConfig extension discriminator
	idx := bytes.Index(data, []byte{0xad, 0x65, 0x2b, 0x54, 0x0e, 0x4d, 0x0d, 0x27})
	if idx < 0 {
		return nil, nil
	}

	buf := data[idx+8:]

	cfg := &TransferFeeConfig{}

	auth, n, err := parseCOptionPubkey(buf)
	if err != nil {
		return nil, err
	}
	cfg.TransferFeeConfigAuthority = auth
	buf = buf[n:]

	withdrawAuth, n, err := parseCOptionPubkey(buf)
	if err != nil {
		return nil, err
	}
	cfg.WithdrawWithheldAuthority = withdrawAuth
	buf = buf[n:]

	if len(buf) < 8 {
		return nil, errors.New("data too short for WithheldAmount")
	}
	cfg.WithheldAmount = binary.LittleEndian.Uint64(buf[:8])
	buf = buf[8:]

	if len(buf) < 18 {
		return nil, errors.New("data too short for OlderTransferFee")
	}
	cfg.OlderTransferFee = TransferFee{
		Epoch:       binary.LittleEndian.Uint64(buf[:8]),
		MaximumFee:  binary.LittleEndian.Uint64(buf[8:16]),
		BasisPoints: binary.LittleEndian.Uint16(buf[16:18]),
	}
	buf = buf[18:]

	if len(buf) < 18 {
		return nil, errors.New("data too short for NewerTransferFee")
	}
	cfg.NewerTransferFee = TransferFee{
		Epoch:       binary.LittleEndian.Uint64(buf[:8]),
		MaximumFee:  binary.LittleEndian.Uint64(buf[8:16]),
		BasisPoints: binary.LittleEndian.Uint16(buf[16:18]),
	}

	return cfg, nil
}

// GetEpochFee picks the fee schedule active at currentEpoch.
func GetEpochFee(cfg *TransferFeeConfig, currentEpoch uint64) TransferFee {
	if cfg == nil {
		return TransferFee{}
	}
	if currentEpoch >= cfg.NewerTransferFee.Epoch {
		return cfg.NewerTransferFee
	}
	return cfg.OlderTransferFee
}

// CalculateFee returns the transfer fee withheld from amount. SPL rounds
// the fee up and caps it at MaximumFee.
func CalculateFee(tf TransferFee, amount *big.Int) *big.Int {
	if tf.BasisPoints == 0 {
		return new(big.Int)
	}
	fee := new(big.Int).Mul(amount, big.NewInt(int64(tf.BasisPoints)))
	fee.Add(fee, big.NewInt(shared.BasisPointMax-1))
	fee.Div(fee, big.NewInt(shared.BasisPointMax))
	maxFee := new(big.Int).SetUint64(tf.MaximumFee)
	if fee.Cmp(maxFee) > 0 {
		return maxFee
	}
	return fee
}

// CalculateTransferFeeExcludedAmount splits a transfer amount into what
// the recipient receives and the fee withheld.
func CalculateTransferFeeExcludedAmount(tf TransferFee, amount *big.Int) (received *big.Int, fee *big.Int) {
	fee = CalculateFee(tf, amount)
	return new(big.Int).Sub(amount, fee), fee
}

// CalculateTransferFeeIncludedAmount inverts CalculateTransferFeeExcludedAmount:
// given the amount the recipient must receive, it returns the amount to
// send and the fee that will be withheld from it.
func CalculateTransferFeeIncludedAmount(tf TransferFee, amount *big.Int) (sent *big.Int, fee *big.Int) {
	if tf.BasisPoints == 0 || amount.Sign() == 0 {
		return new(big.Int).Set(amount), new(big.Int)
	}
	maxFee := new(big.Int).SetUint64(tf.MaximumFee)
	if int(tf.BasisPoints) >= shared.BasisPointMax {
		return new(big.Int).Add(amount, maxFee), maxFee
	}

	numerator := new(big.Int).Mul(amount, big.NewInt(shared.BasisPointMax))
	denominator := big.NewInt(shared.BasisPointMax - int64(tf.BasisPoints))
	sent = numerator.Add(numerator, new(big.Int).Sub(denominator, big.NewInt(1)))
	sent.Div(sent, denominator)

	fee = new(big.Int).Sub(sent, amount)
	if fee.Cmp(maxFee) > 0 {
		fee = maxFee
		sent = new(big.Int).Add(amount, maxFee)
	}
	return sent, fee
}
