package utils

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
)

func TestPaginateComputesWindow(t *testing.T) {
	params := url.Values{"page": {"2"}, "limit": {"5"}}
	f := NewAPIFeatures(nil, params).Paginate(12)

	require.NotNil(t, f.Pagination)
	assert.Equal(t, 2, f.Pagination.CurrentPage)
	assert.Equal(t, 5, f.Pagination.PageSize)
	assert.Equal(t, 3, f.Pagination.NumberOfPages)
	assert.Equal(t, 3, f.Pagination.NextPage)
	assert.Equal(t, 1, f.Pagination.PrevPage)
}

func TestPaginateDefaults(t *testing.T) {
	f := NewAPIFeatures(nil, url.Values{}).Paginate(25)

	assert.Equal(t, 1, f.Pagination.CurrentPage)
	assert.Equal(t, 10, f.Pagination.PageSize)
	assert.Equal(t, 3, f.Pagination.NumberOfPages)
	assert.Equal(t, 2, f.Pagination.NextPage)
	assert.Zero(t, f.Pagination.PrevPage)
}

func TestPaginateLastPageHasNoNext(t *testing.T) {
	params := url.Values{"page": {"3"}, "limit": {"5"}}
	f := NewAPIFeatures(nil, params).Paginate(12)

	assert.Zero(t, f.Pagination.NextPage)
	assert.Equal(t, 2, f.Pagination.PrevPage)
}

func TestPaginateCoercesBadParams(t *testing.T) {
	cases := []struct {
		name   string
		params url.Values
	}{
		{"non numeric", url.Values{"page": {"abc"}, "limit": {"xyz"}}},
		{"zero", url.Values{"page": {"0"}, "limit": {"0"}}},
		{"negative", url.Values{"page": {"-3"}, "limit": {"-1"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := NewAPIFeatures(nil, tc.params).Paginate(5)
			assert.Equal(t, 1, f.Pagination.CurrentPage)
			assert.Equal(t, 10, f.Pagination.PageSize)
		})
	}
}

func TestQueryFilterSkipsReservedKeys(t *testing.T) {
	params := url.Values{
		"page":    {"2"},
		"sort":    {"-price"},
		"limit":   {"5"},
		"fields":  {"title"},
		"keyword": {"phone"},
		"brand":   {"acme"},
	}
	filter := QueryFilter(params, nil)

	assert.Equal(t, bson.M{"brand": "acme"}, filter)
}

func TestQueryFilterSkipsBracketedReservedKeys(t *testing.T) {
	params := url.Values{
		"page[gte]":  {"2"},
		"limit[lt]":  {"50"},
		"price[gte]": {"10"},
	}
	filter := QueryFilter(params, nil)

	assert.Equal(t, bson.M{"price": bson.M{"$gte": int64(10)}}, filter)
}

func TestQueryFilterRewritesBracketedOperators(t *testing.T) {
	params := url.Values{"price[gte]": {"100"}}
	filter := QueryFilter(params, nil)

	assert.Equal(t, bson.M{"price": bson.M{"$gte": int64(100)}}, filter)
}

func TestQueryFilterMergesOperatorsOnSameField(t *testing.T) {
	params := url.Values{"price[gte]": {"100"}, "price[lt]": {"500"}}
	filter := QueryFilter(params, nil)

	assert.Equal(t, bson.M{"price": bson.M{"$gte": int64(100), "$lt": int64(500)}}, filter)
}

func TestQueryFilterLeavesLiteralOperatorFieldAlone(t *testing.T) {
	// a top-level field that happens to be named gte is a plain equality
	params := url.Values{"gte": {"100"}}
	filter := QueryFilter(params, nil)

	assert.Equal(t, bson.M{"gte": int64(100)}, filter)
}

func TestQueryFilterCoercesValueTypes(t *testing.T) {
	params := url.Values{
		"quantity": {"3"},
		"price":    {"19.99"},
		"active":   {"true"},
		"name":     {"mouse"},
	}
	filter := QueryFilter(params, nil)

	assert.Equal(t, int64(3), filter["quantity"])
	assert.Equal(t, 19.99, filter["price"])
	assert.Equal(t, true, filter["active"])
	assert.Equal(t, "mouse", filter["name"])
}

func TestQueryFilterExtraWinsOverQueryString(t *testing.T) {
	id := bson.NewObjectID()
	params := url.Values{"category": {"from-query"}}
	filter := QueryFilter(params, bson.M{"category": id})

	assert.Equal(t, id, filter["category"])
}

func TestSearchProductsMatchesTitleOrDescription(t *testing.T) {
	params := url.Values{"keyword": {"laptop"}}
	f := NewAPIFeatures(nil, params).Search("products")

	or, ok := f.Filtered()["$or"].(bson.A)
	require.True(t, ok)
	require.Len(t, or, 2)
	assert.Equal(t, bson.M{"title": bson.M{"$regex": "laptop", "$options": "i"}}, or[0])
	assert.Equal(t, bson.M{"description": bson.M{"$regex": "laptop", "$options": "i"}}, or[1])
}

func TestSearchOtherResourcesMatchName(t *testing.T) {
	params := url.Values{"keyword": {"electronics"}}
	f := NewAPIFeatures(nil, params).Search("categories")

	assert.Equal(t, bson.M{"name": bson.M{"$regex": "electronics", "$options": "i"}}, f.Filtered())
}

func TestSearchEscapesRegexMetaCharacters(t *testing.T) {
	params := url.Values{"keyword": {"c++"}}
	f := NewAPIFeatures(nil, params).Search("brands")

	assert.Equal(t, bson.M{"name": bson.M{"$regex": `c\+\+`, "$options": "i"}}, f.Filtered())
}

func TestSearchWithoutKeywordIsNoop(t *testing.T) {
	f := NewAPIFeatures(nil, url.Values{}).Search("products")
	assert.Empty(t, f.Filtered())
}

func TestSortDefaultsToNewestFirst(t *testing.T) {
	f := NewAPIFeatures(nil, url.Values{}).Sort()
	assert.Equal(t, bson.D{{Key: "createdAt", Value: -1}}, f.SortSpec())
}

func TestSortParsesMultipleFields(t *testing.T) {
	params := url.Values{"sort": {"-price,title"}}
	f := NewAPIFeatures(nil, params).Sort()

	assert.Equal(t, bson.D{
		{Key: "price", Value: -1},
		{Key: "title", Value: 1},
	}, f.SortSpec())
}

func TestSortIgnoresEmptySegments(t *testing.T) {
	params := url.Values{"sort": {" , -sold , "}}
	f := NewAPIFeatures(nil, params).Sort()

	assert.Equal(t, bson.D{{Key: "sold", Value: -1}}, f.SortSpec())
}

func TestLimitFieldsDefaultExcludesVersionField(t *testing.T) {
	f := NewAPIFeatures(nil, url.Values{}).LimitFields()
	assert.Equal(t, bson.M{"__v": 0}, f.Projection())
}

func TestLimitFieldsProjectsRequestedFields(t *testing.T) {
	params := url.Values{"fields": {"title, price"}}
	f := NewAPIFeatures(nil, params).LimitFields()

	assert.Equal(t, bson.M{"title": 1, "price": 1}, f.Projection())
}

func TestSplitBracketPath(t *testing.T) {
	root, path := splitBracketPath("price[gte]")
	assert.Equal(t, "price", root)
	assert.Equal(t, []string{"gte"}, path)

	root, path = splitBracketPath("price")
	assert.Equal(t, "price", root)
	assert.Nil(t, path)
}
