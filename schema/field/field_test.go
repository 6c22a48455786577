package field_test

import (
	"testing"
	"time"

	"github.com/syssam/relic/schema/field"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInt(t *testing.T) {
	fd := field.Int("age").
		Optional().
		Comment("comment").
		Descriptor()
	assert.Equal(t, "age", fd.Name)
	assert.Equal(t, field.TypeInt, fd.Type)
	assert.True(t, fd.Optional)
	assert.True(t, fd.Nillable)
	assert.Equal(t, "comment", fd.Comment)
	assert.NoError(t, fd.Err)

	fd = field.Int("age").Default(10).Descriptor()
	v, ok := fd.DefaultValue()
	assert.True(t, ok)
	assert.Equal(t, 10, v)

	assert.Equal(t, field.TypeInt64, field.Int64("age").Descriptor().Type)
	assert.Equal(t, field.TypeFloat64, field.Float("rate").Descriptor().Type)
	assert.Equal(t, field.TypeFloat64, field.Float64("rate").Descriptor().Type)
}

func TestString(t *testing.T) {
	fd := field.String("name").
		StorageKey("user_name").
		Immutable().
		Descriptor()
	assert.Equal(t, "name", fd.Name)
	assert.Equal(t, "user_name", fd.Column())
	assert.True(t, fd.Immutable)
	assert.False(t, fd.Nillable)

	assert.Equal(t, "bio", field.Text("bio").Descriptor().Column())
}

func TestFuncDefaults(t *testing.T) {
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	fd := field.Time("updated_at").
		Default(func() time.Time { return now }).
		UpdateDefault(func() time.Time { return now.Add(time.Hour) }).
		Descriptor()
	v, ok := fd.DefaultValue()
	require.True(t, ok)
	assert.Equal(t, now, v)
	v, ok = fd.UpdateDefaultValue()
	require.True(t, ok)
	assert.Equal(t, now.Add(time.Hour), v)

	fd = field.UUID("token").Default(uuid.New).Descriptor()
	v, ok = fd.DefaultValue()
	require.True(t, ok)
	assert.IsType(t, uuid.UUID{}, v)

	_, ok = field.String("x").Descriptor().DefaultValue()
	assert.False(t, ok)
}

func TestEnum(t *testing.T) {
	fd := field.Enum("state").Values("draft", "published").Descriptor()
	assert.NoError(t, fd.Err)
	assert.Equal(t, []string{"draft", "published"}, fd.Enums)

	assert.Error(t, field.Enum("state").Descriptor().Err)
	assert.Error(t, field.String("state").Values("a").Descriptor().Err)
}

func TestInvalidNames(t *testing.T) {
	assert.Error(t, field.String("").Descriptor().Err)
	assert.Error(t, field.String("a__b").Descriptor().Err)
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "int64", field.TypeInt64.String())
	assert.Equal(t, "uuid.UUID", field.TypeUUID.String())
	assert.Equal(t, "invalid", field.Type(200).String())
	assert.True(t, field.TypeInt.Numeric())
	assert.False(t, field.TypeString.Numeric())
	assert.False(t, field.TypeInvalid.Valid())
	assert.True(t, field.TypeJSON.Valid())
}
