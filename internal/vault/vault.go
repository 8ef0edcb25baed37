// Package vault implements the two-bucket capital model: a protected
// vault and an active bankroll, with session allocation and
// profit/loss settlement.
package vault

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ShakaTry/DiceBot/internal/models"
)

// Vault splits capital between a protected reserve and an active
// bankroll. All mutating operations preserve the sum of the two
// buckets except Deposit, WithdrawFromVault and the session settlement
// methods, which change it by exactly the deposited, withdrawn or
// realized amount.
type Vault struct {
	cfg      models.VaultConfig
	vault    decimal.Decimal
	bankroll decimal.Decimal

	sessionsFunded int
	totalReturned  decimal.Decimal
}

// New splits the configured total capital into vault and bankroll
// according to the vault ratio.
func New(cfg models.VaultConfig) (*Vault, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Vault{
		cfg:      cfg,
		vault:    cfg.VaultAmount(),
		bankroll: cfg.TotalCapital.Sub(cfg.VaultAmount()),
	}, nil
}

func (v *Vault) Vault() decimal.Decimal    { return v.vault }
func (v *Vault) Bankroll() decimal.Decimal { return v.bankroll }

// Total is the sum of both buckets.
func (v *Vault) Total() decimal.Decimal { return v.vault.Add(v.bankroll) }

// SessionsFunded counts how many session bankrolls were allocated.
func (v *Vault) SessionsFunded() int { return v.sessionsFunded }

// Deposit adds external capital, split between the buckets by the
// vault ratio.
func (v *Vault) Deposit(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: deposit must be positive, got %s", models.ErrInvalidParameter, amount)
	}
	toVault := amount.Mul(decimal.NewFromFloat(v.cfg.VaultRatio)).Round(2)
	v.vault = v.vault.Add(toVault)
	v.bankroll = v.bankroll.Add(amount.Sub(toVault))
	return nil
}

// WithdrawFromVault removes capital from the protected bucket only.
func (v *Vault) WithdrawFromVault(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: withdrawal must be positive, got %s", models.ErrInvalidParameter, amount)
	}
	if amount.GreaterThan(v.vault) {
		return fmt.Errorf("%w: vault holds %s, requested %s", models.ErrInsufficientFunds, v.vault, amount)
	}
	v.vault = v.vault.Sub(amount)
	return nil
}

// TransferToVault moves funds from the bankroll into the vault.
func (v *Vault) TransferToVault(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: transfer must be positive, got %s", models.ErrInvalidParameter, amount)
	}
	if amount.GreaterThan(v.bankroll) {
		return fmt.Errorf("%w: bankroll holds %s, requested %s", models.ErrInsufficientFunds, v.bankroll, amount)
	}
	v.bankroll = v.bankroll.Sub(amount)
	v.vault = v.vault.Add(amount)
	return nil
}

// TransferToBankroll moves funds from the vault into the bankroll.
func (v *Vault) TransferToBankroll(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: transfer must be positive, got %s", models.ErrInvalidParameter, amount)
	}
	if amount.GreaterThan(v.vault) {
		return fmt.Errorf("%w: vault holds %s, requested %s", models.ErrInsufficientFunds, v.vault, amount)
	}
	v.vault = v.vault.Sub(amount)
	v.bankroll = v.bankroll.Add(amount)
	return nil
}

// AllocateSessionBankroll carves a session stake out of the bankroll:
// the configured fraction of the current bankroll, never more than the
// bankroll itself. The allocation is debited from the bankroll and must
// be settled back via ReturnSessionResult.
func (v *Vault) AllocateSessionBankroll() (decimal.Decimal, error) {
	if !v.bankroll.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: bankroll is empty", models.ErrInsufficientFunds)
	}

	alloc := v.bankroll.Mul(decimal.NewFromFloat(v.cfg.SessionBankrollRatio)).Round(2)
	if alloc.GreaterThan(v.bankroll) {
		alloc = v.bankroll
	}
	if !alloc.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: bankroll %s too small to fund a session", models.ErrInsufficientFunds, v.bankroll)
	}

	v.bankroll = v.bankroll.Sub(alloc)
	v.sessionsFunded++
	return alloc, nil
}

// FundSession debits an exact, externally computed session allocation
// from the bankroll. Parallel runs size allocations up front and fold
// them through here after the workers join.
func (v *Vault) FundSession(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: allocation must be positive, got %s", models.ErrInvalidParameter, amount)
	}
	if amount.GreaterThan(v.bankroll) {
		return fmt.Errorf("%w: bankroll holds %s, requested %s", models.ErrInsufficientFunds, v.bankroll, amount)
	}
	v.bankroll = v.bankroll.Sub(amount)
	v.sessionsFunded++
	return nil
}

// SessionAllocationSize is the stake the next session would receive,
// without debiting anything.
func (v *Vault) SessionAllocationSize() decimal.Decimal {
	if !v.bankroll.IsPositive() {
		return decimal.Zero
	}
	alloc := v.bankroll.Mul(decimal.NewFromFloat(v.cfg.SessionBankrollRatio)).Round(2)
	if alloc.GreaterThan(v.bankroll) {
		return v.bankroll
	}
	return alloc
}

// CanStartSession reports whether the bankroll can fund another session.
func (v *Vault) CanStartSession() bool {
	return v.SessionAllocationSize().IsPositive()
}

// ReturnSessionResult settles a finished session. The original
// allocation goes back to the bankroll. A gain is split between the
// buckets by the vault ratio. A loss is debited from the bankroll
// first, then from the vault; if both buckets together cannot cover it
// the settlement is rejected and nothing changes.
func (v *Vault) ReturnSessionResult(allocated, final decimal.Decimal) error {
	if allocated.IsNegative() || final.IsNegative() {
		return fmt.Errorf("%w: negative settlement amounts", models.ErrInvalidParameter)
	}

	profit := final.Sub(allocated)

	if profit.Sign() >= 0 {
		toVault := profit.Mul(decimal.NewFromFloat(v.cfg.VaultRatio)).Round(2)
		v.vault = v.vault.Add(toVault)
		v.bankroll = v.bankroll.Add(allocated).Add(profit.Sub(toVault))
		v.totalReturned = v.totalReturned.Add(final)
		return nil
	}

	loss := profit.Neg()
	// The allocation itself absorbs the loss first; anything beyond it
	// hits the remaining bankroll, then the vault.
	remaining := loss.Sub(allocated)
	if remaining.Sign() <= 0 {
		v.bankroll = v.bankroll.Add(final)
		v.totalReturned = v.totalReturned.Add(final)
		return nil
	}

	if remaining.GreaterThan(v.bankroll.Add(v.vault)) {
		return fmt.Errorf("%w: loss %s exceeds remaining capital %s",
			models.ErrInsufficientFunds, loss, v.bankroll.Add(v.vault))
	}

	fromBankroll := decimal.Min(remaining, v.bankroll)
	v.bankroll = v.bankroll.Sub(fromBankroll)
	v.vault = v.vault.Sub(remaining.Sub(fromBankroll))
	v.totalReturned = v.totalReturned.Add(final)
	return nil
}

// Rebalance restores the configured vault/bankroll split over the
// current total using internal transfers only.
func (v *Vault) Rebalance() {
	total := v.Total()
	targetVault := total.Mul(decimal.NewFromFloat(v.cfg.VaultRatio)).Round(2)

	diff := targetVault.Sub(v.vault)
	v.vault = targetVault
	v.bankroll = v.bankroll.Sub(diff)
}
