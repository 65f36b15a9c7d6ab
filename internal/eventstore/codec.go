package eventstore

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/josh-kwaku/eventledger/internal/domain"
)

// Record is the persisted form of an event.
type Record struct {
	StreamID  string
	Version   int64
	EventID   string
	EventKind domain.Kind
	Payload   []byte
	Timestamp time.Time
}

type decoder func(payload []byte) (domain.EventData, error)

// decoders is the schema registry: every kind that may appear in a stream and
// the payload type it decodes into.
var decoders = map[domain.Kind]decoder{
	domain.KindAccountOpened:       decodeAs[domain.AccountOpened],
	domain.KindMoneyDeposited:      decodeAs[domain.MoneyDeposited],
	domain.KindMoneyWithdrawn:      decodeAs[domain.MoneyWithdrawn],
	domain.KindMoneyTransferred:    decodeAs[domain.MoneyTransferred],
	domain.KindTransferReversed:    decodeAs[domain.TransferReversed],
	domain.KindAccountFrozen:       decodeAs[domain.AccountFrozen],
	domain.KindAccountUnfrozen:     decodeAs[domain.AccountUnfrozen],
	domain.KindAccountClosed:       decodeAs[domain.AccountClosed],
	domain.KindOverdraftFeeCharged: decodeAs[domain.OverdraftFeeCharged],
	domain.KindInterestAccrued:     decodeAs[domain.InterestAccrued],
}

func decodeAs[T domain.EventData](payload []byte) (domain.EventData, error) {
	var data T
	if err := json.Unmarshal(payload, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// Registered reports whether kind has a decoder.
func Registered(kind domain.Kind) bool {
	_, ok := decoders[kind]
	return ok
}

func Encode(e domain.Event) (Record, error) {
	kind := e.Kind()
	if !Registered(kind) {
		return Record{}, fmt.Errorf("Encode: %q: %w", kind, domain.ErrUnknownEventKind)
	}
	payload, err := json.Marshal(e.Data())
	if err != nil {
		return Record{}, fmt.Errorf("Encode: %s: %w", kind, err)
	}
	return Record{
		StreamID:  e.AggregateID(),
		Version:   e.Version(),
		EventID:   e.ID(),
		EventKind: kind,
		Payload:   payload,
		Timestamp: e.Timestamp().UTC(),
	}, nil
}

func Decode(r Record) (domain.Event, error) {
	decode, ok := decoders[r.EventKind]
	if !ok {
		return domain.Event{}, fmt.Errorf("Decode: %s v%d kind %q: %w", r.StreamID, r.Version, r.EventKind, domain.ErrUnknownEventKind)
	}
	data, err := decode(r.Payload)
	if err != nil {
		return domain.Event{}, fmt.Errorf("Decode: %s v%d: %w", r.StreamID, r.Version, err)
	}
	return domain.NewEvent(r.EventID, r.StreamID, r.Version, r.Timestamp, data), nil
}

// stampAll positions events after expectedVersion in aggregateID's stream
// and encodes them.
func stampAll(aggregateID string, expectedVersion int64, events []domain.Event) ([]Record, error) {
	records := make([]Record, len(events))
	for i, e := range events {
		r, err := Encode(e.Stamp(aggregateID, expectedVersion+int64(i)+1))
		if err != nil {
			return nil, err
		}
		records[i] = r
	}
	return records, nil
}
