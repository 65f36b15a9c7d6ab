package domain

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Clock interface {
	Now() time.Time
}

type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reports UTC time truncated to microseconds, the finest
// precision every supported store keeps.
var SystemClock Clock = ClockFunc(func() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
})

type IDGenerator interface {
	NewAccountID() string
	NewEventID() string
}

type RandomIDs struct{}

func (RandomIDs) NewAccountID() string { return "ACC" + shortHex() }
func (RandomIDs) NewEventID() string   { return uuid.NewString() }

func NewCustomerID() string { return "CUST" + shortHex() }

func shortHex() string {
	u := uuid.New()
	return strings.ToUpper(hex.EncodeToString(u[:4]))
}
