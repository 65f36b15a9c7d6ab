package testutil

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/josh-kwaku/eventledger/internal/domain"
)

// Epoch is the start of every FakeClock.
var Epoch = time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)

// FakeClock starts at Epoch and moves forward one second per reading.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFakeClock() *FakeClock {
	return &FakeClock{now: Epoch}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(time.Second)
	return t
}

// Peek returns the time the next reading will report.
func (c *FakeClock) Peek() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// SeqIDs hands out ACC0000000N account ids and evt-N event ids.
type SeqIDs struct {
	mu       sync.Mutex
	accounts int
	events   int
}

func (s *SeqIDs) NewAccountID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts++
	return fmt.Sprintf("ACC%08X", s.accounts)
}

func (s *SeqIDs) NewEventID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events++
	return fmt.Sprintf("evt-%d", s.events)
}

func USD(amount string) domain.Money {
	return domain.MustMoney(amount, domain.CurrencyUSD)
}

// OpenAccount opens an account for customerID with initial USD balance and
// fails the test on error.
func OpenAccount(t testing.TB, customerID, initial string, opts ...domain.Option) *domain.Account {
	t.Helper()
	a, err := domain.OpenAccount(customerID, USD(initial), opts...)
	if err != nil {
		t.Fatalf("open account: %v", err)
	}
	return a
}
