package domain

import (
	"fmt"
	"time"
)

// Kind names an event type. The string form is what gets persisted.
type Kind string

const (
	KindAccountOpened       Kind = "AccountOpened"
	KindMoneyDeposited      Kind = "MoneyDeposited"
	KindMoneyWithdrawn      Kind = "MoneyWithdrawn"
	KindMoneyTransferred    Kind = "MoneyTransferred"
	KindTransferReversed    Kind = "TransferReversed"
	KindAccountFrozen       Kind = "AccountFrozen"
	KindAccountUnfrozen     Kind = "AccountUnfrozen"
	KindAccountClosed       Kind = "AccountClosed"
	KindOverdraftFeeCharged Kind = "OverdraftFeeCharged"
	KindInterestAccrued     Kind = "InterestAccrued"
)

// Kinds lists every event kind the account aggregate can produce.
func Kinds() []Kind {
	return []Kind{
		KindAccountOpened,
		KindMoneyDeposited,
		KindMoneyWithdrawn,
		KindMoneyTransferred,
		KindTransferReversed,
		KindAccountFrozen,
		KindAccountUnfrozen,
		KindAccountClosed,
		KindOverdraftFeeCharged,
		KindInterestAccrued,
	}
}

// EventData is the kind-specific payload of an event. The set of
// implementations is closed to this package.
type EventData interface {
	Kind() Kind
	accept(e Event, v Visitor) error
}

// Visitor has one method per event kind. Folds and projections implement it,
// so a new kind does not compile until every consumer handles it.
type Visitor interface {
	VisitAccountOpened(Event, AccountOpened) error
	VisitMoneyDeposited(Event, MoneyDeposited) error
	VisitMoneyWithdrawn(Event, MoneyWithdrawn) error
	VisitMoneyTransferred(Event, MoneyTransferred) error
	VisitTransferReversed(Event, TransferReversed) error
	VisitAccountFrozen(Event, AccountFrozen) error
	VisitAccountUnfrozen(Event, AccountUnfrozen) error
	VisitAccountClosed(Event, AccountClosed) error
	VisitOverdraftFeeCharged(Event, OverdraftFeeCharged) error
	VisitInterestAccrued(Event, InterestAccrued) error
}

// Event is an immutable fact about one aggregate. Position (aggregate id and
// version) is fixed at construction; Stamp returns a new value.
type Event struct {
	id          string
	aggregateID string
	version     int64
	timestamp   time.Time
	data        EventData
}

func NewEvent(id, aggregateID string, version int64, timestamp time.Time, data EventData) Event {
	return Event{
		id:          id,
		aggregateID: aggregateID,
		version:     version,
		timestamp:   timestamp,
		data:        data,
	}
}

func (e Event) ID() string           { return e.id }
func (e Event) AggregateID() string  { return e.aggregateID }
func (e Event) Version() int64       { return e.version }
func (e Event) Timestamp() time.Time { return e.timestamp }
func (e Event) Data() EventData      { return e.data }

func (e Event) Kind() Kind {
	if e.data == nil {
		return ""
	}
	return e.data.Kind()
}

// Stamp returns a copy of e positioned at version within aggregateID's stream.
func (e Event) Stamp(aggregateID string, version int64) Event {
	return NewEvent(e.id, aggregateID, version, e.timestamp, e.data)
}

// Accept routes e to the Visitor method for its kind.
func (e Event) Accept(v Visitor) error {
	if e.data == nil {
		return fmt.Errorf("Accept: event %s: %w", e.id, ErrUnknownEventKind)
	}
	return e.data.accept(e, v)
}
