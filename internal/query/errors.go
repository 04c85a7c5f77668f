package query

import "fmt"

// InvalidQueryError reports illegal stage ordering, like a join appended
// before any base table or an aggregation appended after a projection.
type InvalidQueryError struct {
	Reason string
}

func (e *InvalidQueryError) Error() string {
	return "invalid query: " + e.Reason
}

// InvalidComparisonOperatorError reports a predicate operator outside the
// comparison allow-list, or an operator that cannot be combined with a NULL
// right-hand side.
type InvalidComparisonOperatorError struct {
	Op string
}

func (e *InvalidComparisonOperatorError) Error() string {
	return fmt.Sprintf("invalid comparison operator: %q", e.Op)
}

// InvalidPredicateOperatorError reports a boolean combinator other than AND
// or OR.
type InvalidPredicateOperatorError struct {
	Op string
}

func (e *InvalidPredicateOperatorError) Error() string {
	return fmt.Sprintf("invalid predicate operator: %q", e.Op)
}

// InvalidJoinOperatorError reports a join comparison operator outside the
// allow-list.
type InvalidJoinOperatorError struct {
	Op string
}

func (e *InvalidJoinOperatorError) Error() string {
	return fmt.Sprintf("invalid join operator: %q", e.Op)
}

// InvalidAggregateFunctionError reports an aggregate function outside the
// allow-list.
type InvalidAggregateFunctionError struct {
	Func string
}

func (e *InvalidAggregateFunctionError) Error() string {
	return fmt.Sprintf("invalid aggregate function: %q", e.Func)
}
