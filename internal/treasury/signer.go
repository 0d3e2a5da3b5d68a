// Package treasury issues signed payout vouchers. The engine computes what
// each participant is owed; the treasury turns those amounts into
// authorizations the external settlement primitive can verify and execute.
package treasury

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"

	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
)

// --------------------------------------------------------------------------
// EIP-712 type hashes (pre-computed keccak256 of the canonical type strings).
// --------------------------------------------------------------------------

var (
	// EIP712Domain(string name,string version,uint256 chainId)
	eip712DomainTypeHash = ethcrypto.Keccak256(
		[]byte("EIP712Domain(string name,string version,uint256 chainId)"),
	)

	// PayoutVoucher(uint256 marketId,address to,uint256 amount,string reason,uint256 issuedAt)
	voucherTypeHash = ethcrypto.Keccak256(
		[]byte("PayoutVoucher(uint256 marketId,address to,uint256 amount,string reason,uint256 issuedAt)"),
	)
)

// Signer implements domain.PayoutAuthorizer with EIP-712 signatures over a
// secp256k1 treasury key.
type Signer struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	domainSep  []byte
	now        func() int64
}

// NewSigner creates a Signer from a hex-encoded secp256k1 private key and
// the target chain ID.
func NewSigner(privateKeyHex string, chainID int) (*Signer, error) {
	keyHex := strings.TrimPrefix(privateKeyHex, "0x")
	pk, err := ethcrypto.HexToECDSA(keyHex)
	if err != nil {
		return nil, fmt.Errorf("treasury: invalid private key: %w", err)
	}

	s := &Signer{
		privateKey: pk,
		address:    ethcrypto.PubkeyToAddress(pk.PublicKey),
		now:        func() int64 { return time.Now().Unix() },
	}
	s.domainSep = buildDomainSeparator("SkyFallTreasury", "1", chainID)
	return s, nil
}

// Address returns the treasury address derived from the signing key.
func (s *Signer) Address() common.Address {
	return s.address
}

// Authorize issues a signed voucher for the given payout.
func (s *Signer) Authorize(ctx context.Context, marketID uint64, to common.Address, amount int64, reason string) (domain.PayoutVoucher, error) {
	if amount <= 0 {
		return domain.PayoutVoucher{}, fmt.Errorf("treasury: authorize market %d: %w", marketID, domain.ErrInvalidAmount)
	}

	v := domain.PayoutVoucher{
		ID:       uuid.New().String(),
		MarketID: marketID,
		To:       to,
		Amount:   amount,
		Reason:   reason,
		IssuedAt: s.now(),
		Signer:   s.address,
	}

	digest := voucherDigest(s.domainSep, v)
	sig, err := ethcrypto.Sign(digest, s.privateKey)
	if err != nil {
		return domain.PayoutVoucher{}, fmt.Errorf("treasury: sign voucher %s: %w", v.ID, err)
	}
	// go-ethereum returns v in {0,1}; on-chain verifiers expect {27,28}.
	if sig[64] < 27 {
		sig[64] += 27
	}
	v.Signature = sig
	return v, nil
}

// Verify recomputes the voucher digest and checks the signature against the
// voucher's declared signer. It is used in tests and by off-engine
// consumers that want to validate vouchers before submitting them.
func Verify(v domain.PayoutVoucher, chainID int) (bool, error) {
	if len(v.Signature) != 65 {
		return false, fmt.Errorf("treasury: voucher %s: signature must be 65 bytes", v.ID)
	}

	sig := make([]byte, 65)
	copy(sig, v.Signature)
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	digest := voucherDigest(buildDomainSeparator("SkyFallTreasury", "1", chainID), v)
	pub, err := ethcrypto.SigToPub(digest, sig)
	if err != nil {
		return false, fmt.Errorf("treasury: recover voucher %s: %w", v.ID, err)
	}
	return ethcrypto.PubkeyToAddress(*pub) == v.Signer, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// buildDomainSeparator returns keccak256(abi.encode(typeHash, nameHash, versionHash, chainId)).
func buildDomainSeparator(name, version string, chainID int) []byte {
	return ethcrypto.Keccak256(
		concatBytes(
			eip712DomainTypeHash,
			ethcrypto.Keccak256([]byte(name)),
			ethcrypto.Keccak256([]byte(version)),
			bigIntTo32Bytes(big.NewInt(int64(chainID))),
		),
	)
}

// voucherDigest computes the final EIP-712 digest:
//
//	keccak256("\x19\x01" || domainSeparator || structHash)
func voucherDigest(domainSep []byte, v domain.PayoutVoucher) []byte {
	structHash := ethcrypto.Keccak256(
		concatBytes(
			voucherTypeHash,
			bigIntTo32Bytes(new(big.Int).SetUint64(v.MarketID)),
			common.LeftPadBytes(v.To.Bytes(), 32),
			bigIntTo32Bytes(big.NewInt(v.Amount)),
			ethcrypto.Keccak256([]byte(v.Reason)),
			bigIntTo32Bytes(big.NewInt(v.IssuedAt)),
		),
	)

	return ethcrypto.Keccak256(
		concatBytes(
			[]byte{0x19, 0x01},
			domainSep,
			structHash,
		),
	)
}

// bigIntTo32Bytes returns a 32-byte big-endian representation of n.
func bigIntTo32Bytes(n *big.Int) []byte {
	b := n.Bytes()
	if len(b) >= 32 {
		return b[:32]
	}
	padded := make([]byte, 32)
	copy(padded[32-len(b):], b)
	return padded
}

// concatBytes concatenates multiple byte slices into one.
func concatBytes(slices ...[]byte) []byte {
	total := 0
	for _, s := range slices {
		total += len(s)
	}
	buf := make([]byte, 0, total)
	for _, s := range slices {
		buf = append(buf, s...)
	}
	return buf
}

// Compile-time interface check.
var _ domain.PayoutAuthorizer = (*Signer)(nil)
