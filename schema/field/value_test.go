package field_test

import (
	"testing"
	"time"

	"github.com/syssam/relic/schema/field"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	id := uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2")
	ts := time.Date(2024, 2, 29, 12, 30, 0, 0, time.UTC)
	tests := []struct {
		name string
		typ  field.Type
		raw  any
		want any
	}{
		{"nil", field.TypeString, nil, nil},
		{"string_bytes", field.TypeString, []byte("go"), "go"},
		{"enum", field.TypeEnum, "draft", "draft"},
		{"int_from_int64", field.TypeInt, int64(42), 42},
		{"int_from_int8", field.TypeInt, int8(7), 7},
		{"int_from_uint16", field.TypeInt, uint16(300), 300},
		{"int_from_bytes", field.TypeInt, []byte("12"), 12},
		{"int64_from_float", field.TypeInt64, float64(3), int64(3)},
		{"float_from_int", field.TypeFloat64, int32(2), float64(2)},
		{"float_from_bytes", field.TypeFloat64, []byte("1.5"), 1.5},
		{"bool", field.TypeBool, true, true},
		{"bool_from_int", field.TypeBool, int64(1), true},
		{"bool_from_int8", field.TypeBool, int8(0), false},
		{"bool_from_string", field.TypeBool, "true", true},
		{"time", field.TypeTime, ts, ts},
		{"time_rfc3339", field.TypeTime, "2024-02-29T12:30:00Z", ts},
		{"time_sqlite", field.TypeTime, []byte("2024-02-29 12:30:00+00:00"), ts.In(time.FixedZone("", 0))},
		{"uuid_string", field.TypeUUID, id.String(), id},
		{"uuid_bytes16", field.TypeUUID, id[:], id},
		{"uuid_text_bytes", field.TypeUUID, []byte(id.String()), id},
		{"bytes", field.TypeBytes, "raw", []byte("raw")},
		{"json", field.TypeJSON, []byte(`{"a":[1,2]}`), map[string]any{"a": []any{float64(1), float64(2)}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.typ.Parse(tt.raw)
			require.NoError(t, err)
			if want, ok := tt.want.(time.Time); ok {
				assert.True(t, want.Equal(got.(time.Time)), "got %v", got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		typ  field.Type
		raw  any
	}{
		{"int_from_fraction", field.TypeInt, 1.5},
		{"int_from_text", field.TypeInt64, "abc"},
		{"uuid", field.TypeUUID, "not-a-uuid"},
		{"time", field.TypeTime, "yesterday"},
		{"json", field.TypeJSON, "{"},
		{"string_from_int", field.TypeString, 1},
		{"uint64_overflow", field.TypeInt64, uint64(1 << 63)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.typ.Parse(tt.raw)
			assert.Error(t, err)
		})
	}
}

func TestSerialize(t *testing.T) {
	id := uuid.New()
	v, err := field.TypeUUID.Serialize(id)
	require.NoError(t, err)
	assert.Equal(t, id.String(), v)

	v, err = field.TypeInt.Serialize(int8(3))
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	v, err = field.TypeJSON.Serialize(map[string]any{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, v)

	v, err = field.TypeBytes.Serialize("x")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), v)

	v, err = field.TypeString.Serialize(nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	_, err = field.TypeBool.Serialize("yes")
	assert.Error(t, err)
	_, err = field.TypeUUID.Serialize("nope")
	assert.Error(t, err)
}
