package querybuilder

import (
	"fmt"
	"strings"
)

type QueryBuilder interface {
	Select(cols ...string) QueryBuilder
	From(table string) QueryBuilder
	Into(table string) QueryBuilder
	Where(clause string, args ...interface{}) QueryBuilder

	Or(clause string, args ...interface{}) QueryBuilder
	And(clause string, args ...interface{}) QueryBuilder

	OrderBy(col string, asc bool) QueryBuilder

	Insert(cols ...string) QueryBuilder
	Values(values ...interface{}) QueryBuilder
	OnConflict(cols ...string) QueryBuilder
	DoNothing() QueryBuilder

	Update(table string, data UpdateData) QueryBuilder
	Build() (string, []interface{})
}

// UpdateData keeps SET clause ordering stable so prepared statements are
// cache friendly.
type UpdateData struct {
	cols []string
	vals []interface{}
}

func (d *UpdateData) Set(col string, val interface{}) *UpdateData {
	d.cols = append(d.cols, col)
	d.vals = append(d.vals, val)
	return d
}

func (d *UpdateData) Len() int { return len(d.cols) }

type queryBuilder struct {
	table      string
	cols       []string
	conditions []Condition
	values     [][]interface{}
	updateData *UpdateData
	orderBy    []string
	onConflict []string
	doNothing  bool
	schema     string
}

func NewQueryBuilder(schema string) QueryBuilder {
	return &queryBuilder{schema: schema}
}

func (q *queryBuilder) Select(cols ...string) QueryBuilder {
	q.cols = append(q.cols, cols...)
	return q
}

func (q *queryBuilder) Insert(cols ...string) QueryBuilder {
	q.cols = cols
	return q
}

func (q *queryBuilder) Values(values ...interface{}) QueryBuilder {
	q.values = append(q.values, values)
	return q
}

func (q *queryBuilder) OnConflict(cols ...string) QueryBuilder {
	q.onConflict = cols
	return q
}

func (q *queryBuilder) DoNothing() QueryBuilder {
	q.doNothing = true
	return q
}

func (q *queryBuilder) Update(table string, data UpdateData) QueryBuilder {
	q.table = table
	q.updateData = &data
	return q
}

func (q *queryBuilder) Where(clause string, args ...interface{}) QueryBuilder {
	q.conditions = append(q.conditions, Condition{condType: CondTypeAnd, clause: clause, args: args})
	return q
}

func (q *queryBuilder) And(clause string, args ...interface{}) QueryBuilder {
	return q.Where(clause, args...)
}

func (q *queryBuilder) Or(clause string, args ...interface{}) QueryBuilder {
	q.conditions = append(q.conditions, Condition{condType: CondTypeOr, clause: clause, args: args})
	return q
}

func (q *queryBuilder) OrderBy(col string, asc bool) QueryBuilder {
	orderVector := "ASC"
	if !asc {
		orderVector = "DESC"
	}
	q.orderBy = append(q.orderBy, fmt.Sprintf("%s %s", col, orderVector))
	return q
}

func (q *queryBuilder) From(table string) QueryBuilder {
	q.table = table
	return q
}

func (q *queryBuilder) Into(table string) QueryBuilder {
	q.table = table
	return q
}

func (q *queryBuilder) tableRef() string {
	if q.schema == "" {
		return q.table
	}
	return fmt.Sprintf("%s.%s", q.schema, q.table)
}

func buildCondition(conditions []Condition) (string, []interface{}) {
	parts := make([]string, 0, len(conditions))
	args := make([]interface{}, 0)

	for i, cond := range conditions {
		if i > 0 {
			parts = append(parts, cond.condType.ToString())
		}
		parts = append(parts, cond.clause)
		args = append(args, cond.args...)
	}

	return strings.Join(parts, " "), args
}

func (q *queryBuilder) Build() (string, []interface{}) {
	switch {
	case len(q.values) > 0:
		return q.buildInsert()
	case q.updateData != nil:
		return q.buildUpdate()
	default:
		return q.buildSelect()
	}
}

func (q *queryBuilder) buildSelect() (string, []interface{}) {
	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(q.cols, ", "), q.tableRef())

	var args []interface{}
	if len(q.conditions) > 0 {
		condition, condArgs := buildCondition(q.conditions)
		query += fmt.Sprintf(" WHERE %s", condition)
		args = append(args, condArgs...)
	}

	if len(q.orderBy) > 0 {
		query += fmt.Sprintf(" ORDER BY %s", strings.Join(q.orderBy, ", "))
	}

	return query, args
}

func (q *queryBuilder) buildInsert() (string, []interface{}) {
	numOfParam := len(q.cols)
	args := make([]interface{}, 0, numOfParam*len(q.values))
	valueTuples := make([]string, 0, len(q.values))

	placeholders := make([]string, numOfParam)
	for i := range placeholders {
		placeholders[i] = "?"
	}
	tuple := fmt.Sprintf("(%s)", strings.Join(placeholders, ", "))

	for _, row := range q.values {
		if len(row) != numOfParam {
			return "", nil
		}
		args = append(args, row...)
		valueTuples = append(valueTuples, tuple)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		q.tableRef(), strings.Join(q.cols, ", "), strings.Join(valueTuples, ", "))

	if len(q.onConflict) > 0 && q.doNothing {
		query += fmt.Sprintf(" ON CONFLICT (%s) DO NOTHING", strings.Join(q.onConflict, ", "))
	}

	return query, args
}

func (q *queryBuilder) buildUpdate() (string, []interface{}) {
	setClause := make([]string, 0, q.updateData.Len())
	args := make([]interface{}, 0, q.updateData.Len())
	for i, col := range q.updateData.cols {
		setClause = append(setClause, fmt.Sprintf("%s = ?", col))
		args = append(args, q.updateData.vals[i])
	}
	query := fmt.Sprintf("UPDATE %s SET %s", q.tableRef(), strings.Join(setClause, ", "))

	if len(q.conditions) > 0 {
		condition, condArgs := buildCondition(q.conditions)
		query += fmt.Sprintf(" WHERE %s", condition)
		args = append(args, condArgs...)
	}

	return query, args
}
