package repo

import (
	"codemailer/entity"
	"codemailer/pkg/goutil"
	"fmt"
)

type LogicalOp string

const (
	And LogicalOp = "AND"
	Or  LogicalOp = "OR"
)

type Op string

const (
	OpEq    Op = "="
	OpNotEq Op = "!="
	OpGt    Op = ">"
	OpGte   Op = ">="
	OpLt    Op = "<"
	OpLte   Op = "<="
	OpLike  Op = "LIKE"
	OpIn    Op = "IN"
)

type Condition struct {
	Field         string
	Op            Op
	Value         interface{}
	NextLogicalOp LogicalOp
}

type Filter struct {
	Conditions []*Condition
	Pagination *entity.Pagination
	// Order defaults to "id DESC".
	Order string
}

func (f *Filter) GetOrder() string {
	if f != nil && f.Order != "" {
		return f.Order
	}
	return "id DESC"
}

// ToSqlWithArgs renders the filter conditions into a where clause. Conditions
// with a nil value are skipped.
func ToSqlWithArgs(f *Filter) (sql string, args []interface{}) {
	if f == nil {
		return
	}

	conditions := make([]*Condition, 0, len(f.Conditions))
	for _, condition := range f.Conditions {
		if condition == nil || goutil.IsNil(condition.Value) {
			continue
		}
		conditions = append(conditions, condition)
	}

	for i, condition := range conditions {
		switch condition.Op {
		case OpEq, OpNotEq, OpGt, OpGte, OpLt, OpLte, OpLike, OpIn:
			sql += fmt.Sprintf("%s %s ?", condition.Field, condition.Op)
			args = append(args, condition.Value)
		default:
			continue
		}

		if i != len(conditions)-1 {
			op := condition.NextLogicalOp
			if op == "" {
				op = And
			}
			sql += fmt.Sprintf(" %s ", op)
		}
	}

	return
}
