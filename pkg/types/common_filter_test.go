package types

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestCommonFilter_BSON(t *testing.T) {
	tests := []struct {
		name   string
		filter CommonFilter
		want   bson.M
	}{
		{"eq", CommonFilter{Field: "status", Operator: CommonFilterOperatorEq, Values: []any{"active"}}, bson.M{"status": "active"}},
		{"not eq", CommonFilter{Field: "status", Operator: CommonFilterOperatorNotEq, Values: []any{"active"}}, bson.M{"status": bson.M{"$ne": "active"}}},
		{"range", CommonFilter{Field: "payment_amount", Operator: CommonFilterOperatorRange, Values: []any{1, 5}}, bson.M{"payment_amount": bson.M{"$gte": 1, "$lte": 5}}},
		{"range missing upper", CommonFilter{Field: "payment_amount", Operator: CommonFilterOperatorRange, Values: []any{1}}, nil},
		{"in", CommonFilter{Field: "membership_type", Operator: CommonFilterOperatorIn, Values: []any{"term", "year"}}, bson.M{"membership_type": bson.M{"$in": []any{"term", "year"}}}},
		{"no values", CommonFilter{Field: "status", Operator: CommonFilterOperatorEq}, nil},
		{"unknown operator", CommonFilter{Field: "status", Operator: "like", Values: []any{"x"}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.filter.BSON())
		})
	}
}
