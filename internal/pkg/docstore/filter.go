package docstore

import (
	"fmt"
	"regexp"
)

// Op is a predicate kind supported by every store.
type Op int

const (
	// OpEq matches documents whose field equals the value.
	OpEq Op = iota
	// OpIn matches documents whose field equals one of the string values.
	OpIn
	// OpContainsFold matches a case-insensitive literal substring.
	OpContainsFold
)

func (o Op) String() string {
	switch o {
	case OpEq:
		return "eq"
	case OpIn:
		return "in"
	case OpContainsFold:
		return "containsFold"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// Condition is one predicate on one field.
type Condition struct {
	Field string
	Op    Op
	Value any
}

// Filter is a conjunction of conditions. The empty filter matches everything.
type Filter []Condition

var fieldPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Where builds a filter from conditions.
func Where(conds ...Condition) Filter {
	return Filter(conds)
}

// All matches every document in a collection.
func All() Filter {
	return nil
}

// ByID matches the single document with the given id.
func ByID(id string) Filter {
	return Where(Eq(IDField, id))
}

func Eq(field string, value any) Condition {
	return Condition{Field: field, Op: OpEq, Value: value}
}

func In(field string, values []string) Condition {
	return Condition{Field: field, Op: OpIn, Value: values}
}

// ContainsFold never interprets substr as a pattern.
func ContainsFold(field, substr string) Condition {
	return Condition{Field: field, Op: OpContainsFold, Value: substr}
}

// ValidateField rejects names that could not be used safely as a document key
// inside a query expression.
func ValidateField(name string) error {
	if !fieldPattern.MatchString(name) {
		return fmt.Errorf("%w: field %q", ErrInvalidFilter, name)
	}
	return nil
}

// ValidateCollection applies the field naming rule to collection names.
func ValidateCollection(name string) error {
	if !fieldPattern.MatchString(name) {
		return fmt.Errorf("%w: collection %q", ErrInvalidFilter, name)
	}
	return nil
}

// Validate checks field names and value types for every condition.
func (f Filter) Validate() error {
	for _, c := range f {
		if err := ValidateField(c.Field); err != nil {
			return err
		}
		switch c.Op {
		case OpEq:
		case OpIn:
			if _, ok := c.Value.([]string); !ok {
				return fmt.Errorf("%w: %s on %q needs []string", ErrInvalidFilter, c.Op, c.Field)
			}
		case OpContainsFold:
			if _, ok := c.Value.(string); !ok {
				return fmt.Errorf("%w: %s on %q needs a string", ErrInvalidFilter, c.Op, c.Field)
			}
			if c.Field == IDField {
				return fmt.Errorf("%w: %s is not supported on %q", ErrInvalidFilter, c.Op, IDField)
			}
		default:
			return fmt.Errorf("%w: unknown operator %s", ErrInvalidFilter, c.Op)
		}
	}
	return nil
}
