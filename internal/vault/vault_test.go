package vault_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ShakaTry/DiceBot/internal/models"
	"github.com/ShakaTry/DiceBot/internal/vault"
)

func newVault(t *testing.T, total string) *vault.Vault {
	t.Helper()
	v, err := vault.New(models.VaultConfig{
		TotalCapital:         decimal.RequireFromString(total),
		VaultRatio:           models.DefaultVaultRatio,
		SessionBankrollRatio: models.DefaultSessionBankrollRatio,
	})
	if err != nil {
		t.Fatalf("failed to create vault: %v", err)
	}
	return v
}

func TestInitialSplit(t *testing.T) {
	v := newVault(t, "100")

	if !v.Vault().Equal(decimal.RequireFromString("85")) {
		t.Errorf("vault = %s, want 85", v.Vault())
	}
	if !v.Bankroll().Equal(decimal.RequireFromString("15")) {
		t.Errorf("bankroll = %s, want 15", v.Bankroll())
	}
	if !v.Total().Equal(decimal.RequireFromString("100")) {
		t.Errorf("total = %s, want 100", v.Total())
	}
}

func TestAllocateSessionBankroll(t *testing.T) {
	v := newVault(t, "100")

	alloc, err := v.AllocateSessionBankroll()
	if err != nil {
		t.Fatalf("allocation failed: %v", err)
	}
	// 15% of the 15 bankroll.
	if !alloc.Equal(decimal.RequireFromString("2.25")) {
		t.Errorf("allocation = %s, want 2.25", alloc)
	}
	if !v.Bankroll().Equal(decimal.RequireFromString("12.75")) {
		t.Errorf("bankroll after allocation = %s, want 12.75", v.Bankroll())
	}
	if v.SessionsFunded() != 1 {
		t.Errorf("sessions funded = %d, want 1", v.SessionsFunded())
	}
}

func TestReturnSessionProfit(t *testing.T) {
	v := newVault(t, "100")
	alloc, _ := v.AllocateSessionBankroll()

	// Session ends up 1.00, so 85% of the gain goes to the vault.
	final := alloc.Add(decimal.RequireFromString("1"))
	if err := v.ReturnSessionResult(alloc, final); err != nil {
		t.Fatalf("settlement failed: %v", err)
	}

	if !v.Vault().Equal(decimal.RequireFromString("85.85")) {
		t.Errorf("vault = %s, want 85.85", v.Vault())
	}
	if !v.Bankroll().Equal(decimal.RequireFromString("15.15")) {
		t.Errorf("bankroll = %s, want 15.15", v.Bankroll())
	}
	if !v.Total().Equal(decimal.RequireFromString("101")) {
		t.Errorf("total = %s, want 101", v.Total())
	}
}

func TestReturnSessionLoss(t *testing.T) {
	v := newVault(t, "100")
	alloc, _ := v.AllocateSessionBankroll()

	// Session loses half its allocation; the vault is untouched.
	final := alloc.Div(decimal.RequireFromString("2"))
	if err := v.ReturnSessionResult(alloc, final); err != nil {
		t.Fatalf("settlement failed: %v", err)
	}

	if !v.Vault().Equal(decimal.RequireFromString("85")) {
		t.Errorf("vault = %s, want 85", v.Vault())
	}
	want := decimal.RequireFromString("100").Sub(alloc.Sub(final))
	if !v.Total().Equal(want) {
		t.Errorf("total = %s, want %s", v.Total(), want)
	}
}

func TestDepositSplits(t *testing.T) {
	v := newVault(t, "100")

	if err := v.Deposit(decimal.RequireFromString("10")); err != nil {
		t.Fatalf("deposit failed: %v", err)
	}
	if !v.Vault().Equal(decimal.RequireFromString("93.5")) {
		t.Errorf("vault = %s, want 93.5", v.Vault())
	}
	if !v.Bankroll().Equal(decimal.RequireFromString("16.5")) {
		t.Errorf("bankroll = %s, want 16.5", v.Bankroll())
	}

	if err := v.Deposit(decimal.Zero); !errors.Is(err, models.ErrInvalidParameter) {
		t.Errorf("zero deposit: err = %v, want ErrInvalidParameter", err)
	}
}

func TestTransfersConserveTotal(t *testing.T) {
	v := newVault(t, "100")
	before := v.Total()

	if err := v.TransferToBankroll(decimal.RequireFromString("20")); err != nil {
		t.Fatalf("transfer to bankroll failed: %v", err)
	}
	if err := v.TransferToVault(decimal.RequireFromString("5")); err != nil {
		t.Fatalf("transfer to vault failed: %v", err)
	}

	if !v.Total().Equal(before) {
		t.Errorf("total changed by internal transfers: %s -> %s", before, v.Total())
	}

	if err := v.TransferToVault(decimal.RequireFromString("1000")); !errors.Is(err, models.ErrInsufficientFunds) {
		t.Errorf("overdrawn transfer: err = %v, want ErrInsufficientFunds", err)
	}
}

func TestWithdrawFromVault(t *testing.T) {
	v := newVault(t, "100")

	if err := v.WithdrawFromVault(decimal.RequireFromString("50")); err != nil {
		t.Fatalf("withdrawal failed: %v", err)
	}
	if !v.Vault().Equal(decimal.RequireFromString("35")) {
		t.Errorf("vault = %s, want 35", v.Vault())
	}

	if err := v.WithdrawFromVault(decimal.RequireFromString("36")); !errors.Is(err, models.ErrInsufficientFunds) {
		t.Errorf("overdrawn withdrawal: err = %v, want ErrInsufficientFunds", err)
	}
}

func TestRebalance(t *testing.T) {
	v := newVault(t, "100")

	if err := v.TransferToBankroll(decimal.RequireFromString("40")); err != nil {
		t.Fatalf("transfer failed: %v", err)
	}
	before := v.Total()

	v.Rebalance()

	if !v.Vault().Equal(decimal.RequireFromString("85")) {
		t.Errorf("vault after rebalance = %s, want 85", v.Vault())
	}
	if !v.Total().Equal(before) {
		t.Errorf("rebalance changed total: %s -> %s", before, v.Total())
	}
}

func TestCanStartSession(t *testing.T) {
	v := newVault(t, "100")
	if !v.CanStartSession() {
		t.Error("funded vault should be able to start a session")
	}

	tiny := newVault(t, "0.01")
	// 15% bankroll of 0.01 rounds to zero allocation.
	if tiny.CanStartSession() {
		t.Error("vault too small to fund a session reported as able")
	}
}
