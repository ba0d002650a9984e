package ledger

import (
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"
)

var _ Ledger = (*Memory)(nil)

type account struct {
	token    Token
	supply   *uint256.Int
	balances map[solana.PublicKey]*uint256.Int
}

// Memory is an in-process Ledger.
type Memory struct {
	mu     sync.RWMutex
	tokens map[solana.PublicKey]*account
}

func NewMemory() *Memory {
	return &Memory{tokens: make(map[solana.PublicKey]*account)}
}

func (m *Memory) CreateToken(token Token) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.tokens[token.Mint]; ok {
		return fmt.Errorf("%w: %s", ErrTokenExists, token.Mint)
	}
	m.tokens[token.Mint] = &account{
		token:    token,
		supply:   new(uint256.Int),
		balances: make(map[solana.PublicKey]*uint256.Int),
	}
	return nil
}

// Token returns the metadata registered for mint.
func (m *Memory) Token(mint solana.PublicKey) (Token, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acc, ok := m.tokens[mint]
	if !ok {
		return Token{}, false
	}
	return acc.token, true
}

func (m *Memory) BalanceOf(mint, owner solana.PublicKey) *uint256.Int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acc, ok := m.tokens[mint]
	if !ok {
		return new(uint256.Int)
	}
	if bal, ok := acc.balances[owner]; ok {
		return bal.Clone()
	}
	return new(uint256.Int)
}

func (m *Memory) TotalSupply(mint solana.PublicKey) *uint256.Int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	acc, ok := m.tokens[mint]
	if !ok {
		return new(uint256.Int)
	}
	return acc.supply.Clone()
}

func (m *Memory) Mint(mint, to solana.PublicKey, amount *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc, err := m.account(mint)
	if err != nil {
		return err
	}
	acc.credit(to, amount)
	acc.supply.Add(acc.supply, amount)
	return nil
}

func (m *Memory) Burn(mint, from solana.PublicKey, amount *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc, err := m.account(mint)
	if err != nil {
		return err
	}
	if err := acc.debit(from, amount); err != nil {
		return err
	}
	acc.supply.Sub(acc.supply, amount)
	return nil
}

func (m *Memory) Transfer(mint, from, to solana.PublicKey, amount *uint256.Int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	acc, err := m.account(mint)
	if err != nil {
		return err
	}
	if err := acc.debit(from, amount); err != nil {
		return err
	}
	acc.credit(to, amount)
	return nil
}

func (m *Memory) account(mint solana.PublicKey) (*account, error) {
	acc, ok := m.tokens[mint]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownToken, mint)
	}
	return acc, nil
}

func (a *account) credit(owner solana.PublicKey, amount *uint256.Int) {
	bal, ok := a.balances[owner]
	if !ok {
		bal = new(uint256.Int)
		a.balances[owner] = bal
	}
	bal.Add(bal, amount)
}

func (a *account) debit(owner solana.PublicKey, amount *uint256.Int) error {
	bal, ok := a.balances[owner]
	if !ok {
		bal = new(uint256.Int)
	}
	if bal.Lt(amount) {
		return fmt.Errorf("%w: %s holds %s of %s, needs %s", ErrInsufficientBalance, owner, bal.Dec(), a.token.Symbol, amount.Dec())
	}
	if ok {
		bal.Sub(bal, amount)
	}
	return nil
}
