package webhook

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		want      *Event
		wantField string
	}{
		{
			name: "slash form normalized to dotted",
			body: `{"event":"item/updated","itemId":"item-1"}`,
			want: &Event{Name: EventItemUpdated, ItemID: "item-1"},
		},
		{
			name: "top level itemId wins over nested item id",
			body: `{"event":"item.updated","itemId":"item-top","item":{"id":"item-nested","status":"UPDATED"}}`,
			want: &Event{Name: EventItemUpdated, ItemID: "item-top", ItemStatus: "UPDATED"},
		},
		{
			name: "nested item id used when top level absent",
			body: `{"event":"item.created","item":{"id":"item-nested"}}`,
			want: &Event{Name: EventItemCreated, ItemID: "item-nested"},
		},
		{
			name: "transaction event carries account and ids",
			body: `{"event":"transactions.deleted","itemId":"item-1","transactionIds":["tx-1","tx-2"]}`,
			want: &Event{Name: EventTransactionsDeleted, ItemID: "item-1", TransactionIDs: []string{"tx-1", "tx-2"}},
		},
		{
			name:      "missing event name",
			body:      `{"itemId":"item-1"}`,
			wantField: "event",
		},
		{
			name:      "missing item id",
			body:      `{"event":"item.updated"}`,
			wantField: "itemId",
		},
		{
			name:      "transaction event missing account id",
			body:      `{"event":"transactions.created","itemId":"item-1"}`,
			wantField: "accountId",
		},
		{
			name:      "deletion event missing transaction ids",
			body:      `{"event":"transactions.deleted","itemId":"item-1"}`,
			wantField: "transactionIds",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, err := ParseEvent([]byte(tt.body))
			if tt.wantField != "" {
				var malformed *MalformedEventError
				require.True(t, errors.As(err, &malformed), "expected MalformedEventError, got %v", err)
				assert.Equal(t, tt.wantField, malformed.Field)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ev)
		})
	}
}

func TestParseEventRejectsInvalidJSON(t *testing.T) {
	_, err := ParseEvent([]byte(`not json`))
	assert.Error(t, err)
}
