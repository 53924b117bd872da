package event

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	platformerrors "github.com/louisbranch/credit-castor/internal/platform/errors"
)

// Envelope is the serialised form of an event.
type Envelope struct {
	ID      string          `json:"id"`
	Kind    Kind            `json:"kind"`
	Date    time.Time       `json:"date"`
	Payload json.RawMessage `json:"payload"`
}

// Wrap builds the envelope for an event.
func Wrap(evt Event) (Envelope, error) {
	if evt == nil {
		return Envelope{}, platformerrors.New(platformerrors.CodeInvalidEvent, "event is required")
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal %s payload: %w", evt.Kind(), err)
	}
	return Envelope{
		ID:      evt.EventID(),
		Kind:    evt.Kind(),
		Date:    evt.EventDate().UTC(),
		Payload: payload,
	}, nil
}

// Open decodes the payload of an envelope into its event.
func (e Envelope) Open() (Event, error) {
	header := Header{ID: e.ID, Date: e.Date}
	switch e.Kind {
	case KindInitialPurchase:
		var evt InitialPurchase
		if err := decode(e, &evt); err != nil {
			return nil, err
		}
		evt.Header = header
		return evt, nil
	case KindNewcomerJoins:
		var evt NewcomerJoins
		if err := decode(e, &evt); err != nil {
			return nil, err
		}
		evt.Header = header
		return evt, nil
	case KindHiddenLotRevealed:
		var evt HiddenLotRevealed
		if err := decode(e, &evt); err != nil {
			return nil, err
		}
		evt.Header = header
		return evt, nil
	case KindPortageSettlement:
		var evt PortageSettlement
		if err := decode(e, &evt); err != nil {
			return nil, err
		}
		evt.Header = header
		return evt, nil
	case KindCoproTakesLoan:
		var evt CoproTakesLoan
		if err := decode(e, &evt); err != nil {
			return nil, err
		}
		evt.Header = header
		return evt, nil
	case KindParticipantExits:
		var evt ParticipantExits
		if err := decode(e, &evt); err != nil {
			return nil, err
		}
		evt.Header = header
		return evt, nil
	default:
		return nil, platformerrors.WithMetadata(
			platformerrors.CodeUnknownEventKind,
			fmt.Sprintf("unknown event kind %q", e.Kind),
			map[string]string{"kind": string(e.Kind), "event_id": e.ID},
		)
	}
}

func decode(e Envelope, target any) error {
	if len(e.Payload) == 0 {
		return platformerrors.WithMetadata(
			platformerrors.CodeInvalidEvent,
			fmt.Sprintf("%s event has no payload", e.Kind),
			map[string]string{"kind": string(e.Kind), "event_id": e.ID},
		)
	}
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return platformerrors.Wrap(platformerrors.CodeInvalidEvent, fmt.Sprintf("decode %s payload", e.Kind), err)
	}
	return nil
}

// Marshal encodes an event as its JSON envelope.
func Marshal(evt Event) ([]byte, error) {
	env, err := Wrap(evt)
	if err != nil {
		return nil, err
	}
	return json.Marshal(env)
}

// Unmarshal decodes a JSON envelope.
func Unmarshal(data []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, platformerrors.Wrap(platformerrors.CodeInvalidEvent, "decode event envelope", err)
	}
	return env.Open()
}

// MarshalList encodes events as a JSON array of envelopes.
func MarshalList(events []Event) ([]byte, error) {
	envs := make([]Envelope, 0, len(events))
	for _, evt := range events {
		env, err := Wrap(evt)
		if err != nil {
			return nil, err
		}
		envs = append(envs, env)
	}
	return json.MarshalIndent(envs, "", "  ")
}

// UnmarshalList decodes a JSON array of envelopes, keeping their order.
func UnmarshalList(data []byte) ([]Event, error) {
	var envs []Envelope
	if err := json.Unmarshal(data, &envs); err != nil {
		return nil, platformerrors.Wrap(platformerrors.CodeInvalidEvent, "decode event list", err)
	}
	events := make([]Event, 0, len(envs))
	for i, env := range envs {
		evt, err := env.Open()
		if err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
		events = append(events, evt)
	}
	return events, nil
}

// Hash returns the hex SHA-256 of the event's envelope.
func Hash(evt Event) (string, error) {
	data, err := Marshal(evt)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
