package treasury

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"github.com/aniruddha1295/SkyFall-Monad/internal/domain"
)

const testChainID = 10143

func newTestSigner(t *testing.T) *Signer {
	t.Helper()
	key, err := ethcrypto.GenerateKey()
	if err != nil {
		t.Fatal(err)
	}
	s, err := NewSigner(common.Bytes2Hex(ethcrypto.FromECDSA(key)), testChainID)
	if err != nil {
		t.Fatalf("NewSigner() error = %v", err)
	}
	return s
}

func TestAuthorizeProducesVerifiableVoucher(t *testing.T) {
	s := newTestSigner(t)
	to := common.HexToAddress("0x00000000000000000000000000000000000000aa")

	v, err := s.Authorize(context.Background(), 7, to, 2_50, "claim")
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}

	if v.ID == "" {
		t.Error("voucher ID is empty")
	}
	if v.MarketID != 7 || v.To != to || v.Amount != 2_50 || v.Reason != "claim" {
		t.Errorf("voucher fields = %+v", v)
	}
	if v.Signer != s.Address() {
		t.Errorf("Signer = %s, want %s", v.Signer.Hex(), s.Address().Hex())
	}
	if len(v.Signature) != 65 {
		t.Fatalf("signature length = %d, want 65", len(v.Signature))
	}

	ok, err := Verify(v, testChainID)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if !ok {
		t.Error("Verify() = false, want true")
	}
}

func TestVerifyRejectsTamperedVoucher(t *testing.T) {
	s := newTestSigner(t)
	to := common.HexToAddress("0x00000000000000000000000000000000000000bb")

	v, err := s.Authorize(context.Background(), 3, to, 100, "exit")
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}

	tampered := v
	tampered.Amount = 1_000_000
	ok, err := Verify(tampered, testChainID)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if ok {
		t.Error("Verify() accepted a tampered amount")
	}

	wrongChain, err := Verify(v, testChainID+1)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if wrongChain {
		t.Error("Verify() accepted a voucher from another chain domain")
	}
}

func TestAuthorizeRejectsNonPositiveAmount(t *testing.T) {
	s := newTestSigner(t)
	_, err := s.Authorize(context.Background(), 1, common.Address{}, 0, "claim")
	if !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("Authorize() error = %v, want ErrInvalidAmount", err)
	}
}

func TestNoopAuthorizer(t *testing.T) {
	a := NewNoopAuthorizer()
	v, err := a.Authorize(context.Background(), 9, common.HexToAddress("0xcc"), 42, "refund")
	if err != nil {
		t.Fatalf("Authorize() error = %v", err)
	}
	if v.Signature != nil {
		t.Error("noop voucher carries a signature")
	}
	if v.ID == "" || v.MarketID != 9 || v.Amount != 42 {
		t.Errorf("voucher fields = %+v", v)
	}
}
