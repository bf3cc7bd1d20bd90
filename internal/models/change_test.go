package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeChange(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		raw     RawChange
		wantErr bool
		check   func(t *testing.T, ch Change[Task])
	}{
		{
			name: "insert decodes new row",
			raw: RawChange{
				Type:            ChangeInsert,
				Table:           TableTasks,
				New:             json.RawMessage(`{"id":"t1","title":"Buy milk","priority":"low","status":"pending","due_date":null,"created_at":"2024-05-01T10:00:00.123456+00:00"}`),
				CommitTimestamp: ts,
			},
			check: func(t *testing.T, ch Change[Task]) {
				require.NotNil(t, ch.New)
				assert.Nil(t, ch.Old)
				assert.Equal(t, "t1", ch.New.ID)
				assert.Equal(t, PriorityLow, ch.New.Priority)
				assert.Nil(t, ch.New.DueDate)
				assert.Equal(t, ts, ch.CommitTimestamp)
			},
		},
		{
			name: "delete decodes old row",
			raw:  RawChange{Type: ChangeDelete, Table: TableTasks, Old: json.RawMessage(`{"id":"t1"}`), New: json.RawMessage(`null`)},
			check: func(t *testing.T, ch Change[Task]) {
				require.NotNil(t, ch.Old)
				assert.Nil(t, ch.New)
				assert.Equal(t, "t1", ch.Old.ID)
			},
		},
		{
			name:    "update without new row",
			raw:     RawChange{Type: ChangeUpdate, Table: TableTasks, Old: json.RawMessage(`{"id":"t1"}`)},
			wantErr: true,
		},
		{
			name:    "delete without old row",
			raw:     RawChange{Type: ChangeDelete, Table: TableTasks},
			wantErr: true,
		},
		{
			name:    "broken row",
			raw:     RawChange{Type: ChangeInsert, Table: TableTasks, New: json.RawMessage(`{"id":`)},
			wantErr: true,
		},
		{
			name:    "unknown type",
			raw:     RawChange{Type: "TRUNCATE", Table: TableTasks},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch, err := DecodeChange[Task](tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, ch)
		})
	}
}

func TestSession_Expired(t *testing.T) {
	now := time.Now()
	assert.False(t, (&Session{}).Expired(now), "zero expiry never expires")
	assert.True(t, (&Session{TokenPair: TokenPair{ExpiresAt: now.Add(-time.Second)}}).Expired(now))
	assert.False(t, (&Session{TokenPair: TokenPair{ExpiresAt: now.Add(time.Minute)}}).Expired(now))
}

func TestUser_Name(t *testing.T) {
	assert.Equal(t, "Ann", User{Email: "ann@example.com", DisplayName: "Ann"}.Name())
	assert.Equal(t, "ann@example.com", User{Email: "ann@example.com"}.Name())
}
