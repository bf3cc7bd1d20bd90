package models

import (
	"encoding/json"
	"fmt"
	"time"
)

type ChangeType string

const (
	ChangeInsert ChangeType = "INSERT"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"

	// FrameSubscribed is sent once by the realtime endpoint after the
	// subscription is registered. It carries no row.
	FrameSubscribed ChangeType = "SUBSCRIBED"
)

// RawChange is a row-level change as it travels: from the Postgres trigger to
// the hub, and from the hub to websocket subscribers.
type RawChange struct {
	Type            ChangeType      `json:"type"`
	Table           string          `json:"table,omitempty"`
	UserID          string          `json:"user_id,omitempty"`
	New             json.RawMessage `json:"new,omitempty"`
	Old             json.RawMessage `json:"old,omitempty"`
	CommitTimestamp time.Time       `json:"commit_timestamp,omitempty"`
}

// Change is a decoded RawChange. New is set for INSERT and UPDATE, Old for
// UPDATE and DELETE.
type Change[E any] struct {
	Type            ChangeType
	Table           string
	New             *E
	Old             *E
	CommitTimestamp time.Time
}

// DecodeChange unmarshals the row images of raw into E.
func DecodeChange[E any](raw RawChange) (Change[E], error) {
	ch := Change[E]{Type: raw.Type, Table: raw.Table, CommitTimestamp: raw.CommitTimestamp}

	decode := func(data json.RawMessage) (*E, error) {
		if len(data) == 0 || string(data) == "null" {
			return nil, nil
		}
		var e E
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return &e, nil
	}

	var err error
	if ch.New, err = decode(raw.New); err != nil {
		return ch, fmt.Errorf("decode new row of %s %s: %w", raw.Table, raw.Type, err)
	}
	if ch.Old, err = decode(raw.Old); err != nil {
		return ch, fmt.Errorf("decode old row of %s %s: %w", raw.Table, raw.Type, err)
	}

	switch raw.Type {
	case ChangeInsert, ChangeUpdate:
		if ch.New == nil {
			return ch, fmt.Errorf("%s %s without new row", raw.Table, raw.Type)
		}
	case ChangeDelete:
		if ch.Old == nil {
			return ch, fmt.Errorf("%s DELETE without old row", raw.Table)
		}
	default:
		return ch, fmt.Errorf("unknown change type %q", raw.Type)
	}
	return ch, nil
}
