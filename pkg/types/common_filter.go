package types

import (
	"go.mongodb.org/mongo-driver/bson"
	"gorm.io/gorm/clause"
)

type CommonFilterOperator string

const (
	CommonFilterOperatorEq    CommonFilterOperator = "eq"
	CommonFilterOperatorNotEq CommonFilterOperator = "not_eq"
	CommonFilterOperatorLt    CommonFilterOperator = "lt"
	CommonFilterOperatorLte   CommonFilterOperator = "lte"
	CommonFilterOperatorGt    CommonFilterOperator = "gt"
	CommonFilterOperatorGte   CommonFilterOperator = "gte"
	CommonFilterOperatorRange CommonFilterOperator = "range"
	CommonFilterOperatorIn    CommonFilterOperator = "in"
)

type CommonFilter struct {
	Field    string               `json:"field"`
	Operator CommonFilterOperator `json:"operator"`
	Values   []any                `json:"values"`
}

// Build constructs a GORM expression. Field must already be validated
// against the caller's column allow list.
func (f *CommonFilter) Build(builder clause.Builder) {
	if len(f.Values) == 0 {
		return
	}

	value := f.Values[0]

	switch f.Operator {
	case CommonFilterOperatorEq:
		clause.Eq{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorNotEq:
		clause.Neq{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorLt:
		clause.Lt{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorLte:
		clause.Lte{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorGt:
		clause.Gt{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorGte:
		clause.Gte{Column: f.Field, Value: value}.Build(builder)
	case CommonFilterOperatorRange:
		if len(f.Values) < 2 {
			return
		}
		clause.And(clause.Gte{Column: f.Field, Value: f.Values[0]}, clause.Lte{Column: f.Field, Value: f.Values[1]}).Build(builder)
	case CommonFilterOperatorIn:
		clause.IN{Column: f.Field, Values: f.Values}.Build(builder)
	}
}

// BSON renders the filter as a MongoDB query fragment. It returns nil when
// the filter has nothing to match on.
func (f *CommonFilter) BSON() bson.M {
	if len(f.Values) == 0 {
		return nil
	}

	value := f.Values[0]

	switch f.Operator {
	case CommonFilterOperatorEq:
		return bson.M{f.Field: value}
	case CommonFilterOperatorNotEq:
		return bson.M{f.Field: bson.M{"$ne": value}}
	case CommonFilterOperatorLt:
		return bson.M{f.Field: bson.M{"$lt": value}}
	case CommonFilterOperatorLte:
		return bson.M{f.Field: bson.M{"$lte": value}}
	case CommonFilterOperatorGt:
		return bson.M{f.Field: bson.M{"$gt": value}}
	case CommonFilterOperatorGte:
		return bson.M{f.Field: bson.M{"$gte": value}}
	case CommonFilterOperatorRange:
		if len(f.Values) < 2 {
			return nil
		}
		return bson.M{f.Field: bson.M{"$gte": f.Values[0], "$lte": f.Values[1]}}
	case CommonFilterOperatorIn:
		return bson.M{f.Field: bson.M{"$in": f.Values}}
	}
	return nil
}
