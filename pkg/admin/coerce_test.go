package admin

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sukryu/pAdmin/pkg/errors"
)

func TestCoerceID(t *testing.T) {
	tests := []struct {
		name    string
		raw     interface{}
		pkType  PKType
		want    interface{}
		wantErr bool
	}{
		{name: "integer from string", raw: "42", pkType: PKInteger, want: int64(42)},
		{name: "integer from json number", raw: float64(7), pkType: PKInteger, want: int64(7)},
		{name: "integer from json.Number", raw: json.Number("8"), pkType: PKInteger, want: int64(8)},
		{name: "integer rejects fraction", raw: 7.5, pkType: PKInteger, wantErr: true},
		{name: "integer rejects float beyond 2^53", raw: float64(9007199254740993), pkType: PKInteger, wantErr: true},
		{name: "integer rejects float overflow", raw: 1e20, pkType: PKInteger, wantErr: true},
		{name: "integer accepts 2^53", raw: float64(1 << 53), pkType: PKInteger, want: int64(1 << 53)},
		{name: "integer from large json.Number", raw: json.Number("9007199254740993"), pkType: PKInteger, want: int64(9007199254740993)},
		{name: "integer rejects json.Number overflow", raw: json.Number("100000000000000000000"), pkType: PKInteger, wantErr: true},
		{name: "integer rejects text", raw: "abc", pkType: PKInteger, wantErr: true},
		{name: "integer rejects bool", raw: true, pkType: PKInteger, wantErr: true},
		{name: "text identity", raw: "abc", pkType: PKText, want: "abc"},
		{name: "text from number", raw: float64(12), pkType: PKText, want: "12"},
		{name: "float from string", raw: "1.25", pkType: PKFloat, want: 1.25},
		{name: "float rejects text", raw: "x1", pkType: PKFloat, wantErr: true},
		{name: "opaque stringified", raw: "6f1c2a6e-0000-4000-8000-000000000000", pkType: PKOpaque, want: "6f1c2a6e-0000-4000-8000-000000000000"},
		{name: "opaque not validated", raw: "anything", pkType: PKOpaque, want: "anything"},
		{name: "nil", raw: nil, pkType: PKText, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CoerceID(tt.raw, tt.pkType)
			if tt.wantErr {
				assert.ErrorIs(t, err, errors.ErrInvalidIdentifier)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCoerceIDRoundTrip(t *testing.T) {
	for _, digits := range []string{"0", "1", "42", "9007199254740993", "-17"} {
		id, err := CoerceID(digits, PKInteger)
		require.NoError(t, err)
		assert.Equal(t, digits, FormatID(id))
	}
}

func TestCoerceIDs(t *testing.T) {
	ids, err := CoerceIDs([]interface{}{"1", float64(2)}, PKInteger)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{int64(1), int64(2)}, ids)

	_, err = CoerceIDs([]interface{}{float64(1), float64(2), "bad"}, PKInteger)
	assert.ErrorIs(t, err, errors.ErrInvalidIdentifier)
	assert.Contains(t, errors.AsStatus(err).Reason, "bad")
}
