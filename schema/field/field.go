package field

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// A Type represents a field type.
type Type uint8

// List of field types.
const (
	TypeInvalid Type = iota
	TypeBool
	TypeTime
	TypeJSON
	TypeUUID
	TypeBytes
	TypeEnum
	TypeString
	TypeInt
	TypeInt64
	TypeFloat64
)

var typeNames = [...]string{
	TypeInvalid: "invalid",
	TypeBool:    "bool",
	TypeTime:    "time.Time",
	TypeJSON:    "json.RawMessage",
	TypeUUID:    "uuid.UUID",
	TypeBytes:   "[]byte",
	TypeEnum:    "string",
	TypeString:  "string",
	TypeInt:     "int",
	TypeInt64:   "int64",
	TypeFloat64: "float64",
}

// String returns the Go type name of the field type.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return typeNames[TypeInvalid]
}

// Valid reports if the given type is a known type.
func (t Type) Valid() bool {
	return t > TypeInvalid && int(t) < len(typeNames)
}

// Numeric reports if the given type is a numeric type.
func (t Type) Numeric() bool {
	return t >= TypeInt
}

// A Descriptor for field configuration.
type Descriptor struct {
	Name          string   // field name.
	StorageKey    string   // sql column name.
	Type          Type     // field type.
	Enums         []string // enum values.
	Optional      bool     // not required on create.
	Nillable      bool     // nullable column.
	Immutable     bool     // create-only field.
	Default       any      // default value or func() T.
	UpdateDefault any      // default value on update, func() T.
	Comment       string   // field comment.
	Err           error
}

// Column returns the SQL column name of the field.
func (d *Descriptor) Column() string {
	if d.StorageKey != "" {
		return d.StorageKey
	}
	return d.Name
}

// DefaultValue returns the default value of the field. Function defaults
// are called. The second value reports whether a default is declared.
func (d *Descriptor) DefaultValue() (any, bool) {
	return call(d.Default)
}

// UpdateDefaultValue returns the value applied on every update, if any.
func (d *Descriptor) UpdateDefaultValue() (any, bool) {
	return call(d.UpdateDefault)
}

func call(v any) (any, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Func && rv.Type().NumIn() == 0 && rv.Type().NumOut() == 1 {
		return rv.Call(nil)[0].Interface(), true
	}
	return v, true
}

// Builder is the builder of all field types.
type Builder struct {
	desc *Descriptor
}

func newBuilder(name string, t Type) *Builder {
	b := &Builder{desc: &Descriptor{Name: name, Type: t}}
	switch {
	case name == "":
		b.desc.Err = errors.New("field: empty field name")
	case strings.Contains(name, "__") || strings.Contains(name, "."):
		b.desc.Err = fmt.Errorf("field: name %q must not contain %q or %q", name, "__", ".")
	}
	return b
}

// String returns a new Field with type string.
func String(name string) *Builder { return newBuilder(name, TypeString) }

// Text returns a new string field without length limit. Text and String
// share the same storage class at this level.
func Text(name string) *Builder { return newBuilder(name, TypeString) }

// Int returns a new Field with type int.
func Int(name string) *Builder { return newBuilder(name, TypeInt) }

// Int64 returns a new Field with type int64.
func Int64(name string) *Builder { return newBuilder(name, TypeInt64) }

// Float returns a new Field with type float64.
func Float(name string) *Builder { return newBuilder(name, TypeFloat64) }

// Float64 is an alias of Float.
func Float64(name string) *Builder { return newBuilder(name, TypeFloat64) }

// Bool returns a new Field with type bool.
func Bool(name string) *Builder { return newBuilder(name, TypeBool) }

// Time returns a new Field with type time.Time.
func Time(name string) *Builder { return newBuilder(name, TypeTime) }

// UUID returns a new Field with type uuid.UUID.
func UUID(name string) *Builder { return newBuilder(name, TypeUUID) }

// JSON returns a new Field holding any JSON document.
func JSON(name string) *Builder { return newBuilder(name, TypeJSON) }

// Bytes returns a new Field with type []byte.
func Bytes(name string) *Builder { return newBuilder(name, TypeBytes) }

// Enum returns a new string Field restricted to the values given to Values.
//
//	field.Enum("state").Values("draft", "published")
func Enum(name string) *Builder { return newBuilder(name, TypeEnum) }

// Values sets the allowed values of an enum field.
func (b *Builder) Values(values ...string) *Builder {
	if b.desc.Type != TypeEnum {
		b.desc.Err = errors.Join(b.desc.Err, fmt.Errorf("field: Values on non-enum field %q", b.desc.Name))
		return b
	}
	b.desc.Enums = append(b.desc.Enums, values...)
	return b
}

// Optional indicates that this field is not required on create, and that
// its column accepts NULL.
func (b *Builder) Optional() *Builder {
	b.desc.Optional = true
	b.desc.Nillable = true
	return b
}

// Nillable indicates that the column accepts NULL.
func (b *Builder) Nillable() *Builder {
	b.desc.Nillable = true
	return b
}

// Immutable indicates that this field cannot be updated.
func (b *Builder) Immutable() *Builder {
	b.desc.Immutable = true
	return b
}

// Default sets the default value of the field, either a value or a
// function without arguments returning one (e.g. time.Now or uuid.New).
func (b *Builder) Default(v any) *Builder {
	b.desc.Default = v
	return b
}

// UpdateDefault sets the function called on every update (e.g. time.Now).
func (b *Builder) UpdateDefault(fn any) *Builder {
	b.desc.UpdateDefault = fn
	return b
}

// StorageKey sets the storage key (column name) of the field.
//
//	field.String("title").StorageKey("book_title")
func (b *Builder) StorageKey(key string) *Builder {
	b.desc.StorageKey = key
	return b
}

// Comment sets the comment of the field.
func (b *Builder) Comment(c string) *Builder {
	b.desc.Comment = c
	return b
}

// Descriptor implements the schema.Field interface by returning its descriptor.
func (b *Builder) Descriptor() *Descriptor {
	if b.desc.Type == TypeEnum && len(b.desc.Enums) == 0 && b.desc.Err == nil {
		b.desc.Err = fmt.Errorf("field: enum %q has no values", b.desc.Name)
	}
	return b.desc
}
