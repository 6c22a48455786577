package sql

import "time"

// StringField is a string column reference that provides type-safe
// predicate methods. The underlying string is a dotted reference as
// accepted by C.
//
//	var Title = sql.StringField("title")
//	query.Where(Title.ContainsFold("go"))
//	query.Where(sql.StringField("author.name").EQ("Rob"))
type StringField string

// Column returns the column expression of the field.
func (f StringField) Column() *ColumnExpr { return C(string(f)) }

// EQ returns a predicate that checks if the field equals the given value.
func (f StringField) EQ(v string) Expr { return EQ(f.Column(), v) }

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f StringField) NEQ(v string) Expr { return NEQ(f.Column(), v) }

// In returns a predicate that checks if the field value is in the given list.
func (f StringField) In(vs ...string) Expr { return In(f.Column(), anys(vs)...) }

// NotIn returns a predicate that checks if the field value is not in the given list.
func (f StringField) NotIn(vs ...string) Expr { return NotIn(f.Column(), anys(vs)...) }

// GT returns a predicate that checks if the field is greater than the given value.
func (f StringField) GT(v string) Expr { return GT(f.Column(), v) }

// LT returns a predicate that checks if the field is less than the given value.
func (f StringField) LT(v string) Expr { return LT(f.Column(), v) }

// Contains returns a predicate that checks if the field contains the given substring.
func (f StringField) Contains(v string) Expr { return Contains(f.Column(), v) }

// ContainsFold returns a predicate that checks if the field contains the given substring (case-insensitive).
func (f StringField) ContainsFold(v string) Expr { return ContainsFold(f.Column(), v) }

// HasPrefix returns a predicate that checks if the field has the given prefix.
func (f StringField) HasPrefix(v string) Expr { return HasPrefix(f.Column(), v) }

// HasSuffix returns a predicate that checks if the field has the given suffix.
func (f StringField) HasSuffix(v string) Expr { return HasSuffix(f.Column(), v) }

// EqualFold returns a predicate that checks if the field equals the given value (case-insensitive).
func (f StringField) EqualFold(v string) Expr { return EqualFold(f.Column(), v) }

// IsNull returns a predicate that checks if the field is NULL.
func (f StringField) IsNull() Expr { return IsNull(f.Column()) }

// NotNull returns a predicate that checks if the field is not NULL.
func (f StringField) NotNull() Expr { return NotNull(f.Column()) }

// Asc orders by the field ascending.
func (f StringField) Asc() *OrderExpr { return Asc(f.Column()) }

// Desc orders by the field descending.
func (f StringField) Desc() *OrderExpr { return Desc(f.Column()) }

// IntField is an integer column reference.
type IntField string

// Column returns the column expression of the field.
func (f IntField) Column() *ColumnExpr { return C(string(f)) }

// EQ returns a predicate that checks if the field equals the given value.
func (f IntField) EQ(v int) Expr { return EQ(f.Column(), v) }

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f IntField) NEQ(v int) Expr { return NEQ(f.Column(), v) }

// In returns a predicate that checks if the field value is in the given list.
func (f IntField) In(vs ...int) Expr { return In(f.Column(), anys(vs)...) }

// NotIn returns a predicate that checks if the field value is not in the given list.
func (f IntField) NotIn(vs ...int) Expr { return NotIn(f.Column(), anys(vs)...) }

// GT returns a predicate that checks if the field is greater than the given value.
func (f IntField) GT(v int) Expr { return GT(f.Column(), v) }

// GTE returns a predicate that checks if the field is greater than or equal to the given value.
func (f IntField) GTE(v int) Expr { return GTE(f.Column(), v) }

// LT returns a predicate that checks if the field is less than the given value.
func (f IntField) LT(v int) Expr { return LT(f.Column(), v) }

// LTE returns a predicate that checks if the field is less than or equal to the given value.
func (f IntField) LTE(v int) Expr { return LTE(f.Column(), v) }

// IsNull returns a predicate that checks if the field is NULL.
func (f IntField) IsNull() Expr { return IsNull(f.Column()) }

// NotNull returns a predicate that checks if the field is not NULL.
func (f IntField) NotNull() Expr { return NotNull(f.Column()) }

// Asc orders by the field ascending.
func (f IntField) Asc() *OrderExpr { return Asc(f.Column()) }

// Desc orders by the field descending.
func (f IntField) Desc() *OrderExpr { return Desc(f.Column()) }

// Int64Field is an int64 column reference.
type Int64Field string

// Column returns the column expression of the field.
func (f Int64Field) Column() *ColumnExpr { return C(string(f)) }

// EQ returns a predicate that checks if the field equals the given value.
func (f Int64Field) EQ(v int64) Expr { return EQ(f.Column(), v) }

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f Int64Field) NEQ(v int64) Expr { return NEQ(f.Column(), v) }

// In returns a predicate that checks if the field value is in the given list.
func (f Int64Field) In(vs ...int64) Expr { return In(f.Column(), anys(vs)...) }

// GT returns a predicate that checks if the field is greater than the given value.
func (f Int64Field) GT(v int64) Expr { return GT(f.Column(), v) }

// LT returns a predicate that checks if the field is less than the given value.
func (f Int64Field) LT(v int64) Expr { return LT(f.Column(), v) }

// IsNull returns a predicate that checks if the field is NULL.
func (f Int64Field) IsNull() Expr { return IsNull(f.Column()) }

// NotNull returns a predicate that checks if the field is not NULL.
func (f Int64Field) NotNull() Expr { return NotNull(f.Column()) }

// Float64Field is a float64 column reference.
type Float64Field string

// Column returns the column expression of the field.
func (f Float64Field) Column() *ColumnExpr { return C(string(f)) }

// EQ returns a predicate that checks if the field equals the given value.
func (f Float64Field) EQ(v float64) Expr { return EQ(f.Column(), v) }

// GT returns a predicate that checks if the field is greater than the given value.
func (f Float64Field) GT(v float64) Expr { return GT(f.Column(), v) }

// GTE returns a predicate that checks if the field is greater than or equal to the given value.
func (f Float64Field) GTE(v float64) Expr { return GTE(f.Column(), v) }

// LT returns a predicate that checks if the field is less than the given value.
func (f Float64Field) LT(v float64) Expr { return LT(f.Column(), v) }

// LTE returns a predicate that checks if the field is less than or equal to the given value.
func (f Float64Field) LTE(v float64) Expr { return LTE(f.Column(), v) }

// Between returns an inclusive range predicate.
func (f Float64Field) Between(lo, hi float64) Expr { return Between(f.Column(), lo, hi) }

// BoolField is a boolean column reference.
type BoolField string

// Column returns the column expression of the field.
func (f BoolField) Column() *ColumnExpr { return C(string(f)) }

// EQ returns a predicate that checks if the field equals the given value.
func (f BoolField) EQ(v bool) Expr { return EQ(f.Column(), v) }

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f BoolField) NEQ(v bool) Expr { return NEQ(f.Column(), v) }

// TimeField is a time column reference.
type TimeField string

// Column returns the column expression of the field.
func (f TimeField) Column() *ColumnExpr { return C(string(f)) }

// EQ returns a predicate that checks if the field equals the given value.
func (f TimeField) EQ(v time.Time) Expr { return EQ(f.Column(), v) }

// GT returns a predicate that checks if the field is after the given value.
func (f TimeField) GT(v time.Time) Expr { return GT(f.Column(), v) }

// GTE returns a predicate that checks if the field is not before the given value.
func (f TimeField) GTE(v time.Time) Expr { return GTE(f.Column(), v) }

// LT returns a predicate that checks if the field is before the given value.
func (f TimeField) LT(v time.Time) Expr { return LT(f.Column(), v) }

// LTE returns a predicate that checks if the field is not after the given value.
func (f TimeField) LTE(v time.Time) Expr { return LTE(f.Column(), v) }

// Between returns an inclusive range predicate.
func (f TimeField) Between(lo, hi time.Time) Expr { return Between(f.Column(), lo, hi) }

// IsNull returns a predicate that checks if the field is NULL.
func (f TimeField) IsNull() Expr { return IsNull(f.Column()) }

// NotNull returns a predicate that checks if the field is not NULL.
func (f TimeField) NotNull() Expr { return NotNull(f.Column()) }

// Asc orders by the field ascending.
func (f TimeField) Asc() *OrderExpr { return Asc(f.Column()) }

// Desc orders by the field descending.
func (f TimeField) Desc() *OrderExpr { return Desc(f.Column()) }

// EnumField is a column reference of a string-based enum type.
type EnumField[T ~string] string

// Column returns the column expression of the field.
func (f EnumField[T]) Column() *ColumnExpr { return C(string(f)) }

// EQ returns a predicate that checks if the field equals the given value.
func (f EnumField[T]) EQ(v T) Expr { return EQ(f.Column(), string(v)) }

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f EnumField[T]) NEQ(v T) Expr { return NEQ(f.Column(), string(v)) }

// In returns a predicate that checks if the field value is in the given list.
func (f EnumField[T]) In(vs ...T) Expr {
	args := make([]any, len(vs))
	for i := range vs {
		args[i] = string(vs[i])
	}
	return In(f.Column(), args...)
}

// UUIDField is a UUID column reference, generic over the UUID type so that
// any type implementing driver.Valuer can be used.
type UUIDField[T any] string

// Column returns the column expression of the field.
func (f UUIDField[T]) Column() *ColumnExpr { return C(string(f)) }

// EQ returns a predicate that checks if the field equals the given value.
func (f UUIDField[T]) EQ(v T) Expr { return EQ(f.Column(), v) }

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f UUIDField[T]) NEQ(v T) Expr { return NEQ(f.Column(), v) }

// In returns a predicate that checks if the field value is in the given list.
func (f UUIDField[T]) In(vs ...T) Expr { return In(f.Column(), anys(vs)...) }

// IsNull returns a predicate that checks if the field is NULL.
func (f UUIDField[T]) IsNull() Expr { return IsNull(f.Column()) }

// OtherField is a column reference of any other type.
type OtherField[T any] string

// Column returns the column expression of the field.
func (f OtherField[T]) Column() *ColumnExpr { return C(string(f)) }

// EQ returns a predicate that checks if the field equals the given value.
func (f OtherField[T]) EQ(v T) Expr { return EQ(f.Column(), v) }

// NEQ returns a predicate that checks if the field does not equal the given value.
func (f OtherField[T]) NEQ(v T) Expr { return NEQ(f.Column(), v) }

// In returns a predicate that checks if the field value is in the given list.
func (f OtherField[T]) In(vs ...T) Expr { return In(f.Column(), anys(vs)...) }

// IsNull returns a predicate that checks if the field is NULL.
func (f OtherField[T]) IsNull() Expr { return IsNull(f.Column()) }

// NotNull returns a predicate that checks if the field is not NULL.
func (f OtherField[T]) NotNull() Expr { return NotNull(f.Column()) }

func anys[T any](vs []T) []any {
	args := make([]any, len(vs))
	for i := range vs {
		args[i] = vs[i]
	}
	return args
}
