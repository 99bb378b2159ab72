package utils

import (
	"context"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// PaginationResult summarises the window a list query returned.
// NextPage/PrevPage are omitted when there is no such page.
type PaginationResult struct {
	CurrentPage   int `json:"currentPage"`
	PageSize      int `json:"pageSize"`
	NumberOfPages int `json:"numberOfPages"`
	NextPage      int `json:"nextPage,omitempty"`
	PrevPage      int `json:"prevPage,omitempty"`
}

// reserved query keys that shape the query instead of filtering fields
var reservedQueryKeys = map[string]bool{
	"page":    true,
	"sort":    true,
	"limit":   true,
	"fields":  true,
	"keyword": true,
}

var comparisonOps = map[string]bool{
	"gte": true,
	"gt":  true,
	"lte": true,
	"lt":  true,
}

var bracketRe = regexp.MustCompile(`\[([^\[\]]*)\]`)

// APIFeatures turns raw query-string parameters into a composed read
// query: pagination window, field filters with comparison operators,
// keyword search, sort order and field projection. Stages return the
// receiver so handlers can chain them; Execute runs the single Find.
type APIFeatures struct {
	col        *mongo.Collection
	params     url.Values
	filter     bson.M
	sort       bson.D
	projection bson.M
	skip       int64
	limit      int64
	paged      bool

	Pagination *PaginationResult
}

func NewAPIFeatures(col *mongo.Collection, params url.Values) *APIFeatures {
	return &APIFeatures{col: col, params: params, filter: bson.M{}}
}

// Paginate windows the read to [(page-1)*limit, page*limit). The caller
// supplies the total from its own count query on the same base filter;
// no stage issues a count of its own. A page past the end just yields
// an empty window.
func (f *APIFeatures) Paginate(total int64) *APIFeatures {
	page := positiveIntParam(f.params.Get("page"), 1)
	limit := positiveIntParam(f.params.Get("limit"), 10)
	skip := int64(page-1) * int64(limit)

	pagination := &PaginationResult{
		CurrentPage:   page,
		PageSize:      limit,
		NumberOfPages: int((total + int64(limit) - 1) / int64(limit)),
	}
	if int64(page)*int64(limit) < total {
		pagination.NextPage = page + 1
	}
	if skip > 0 {
		pagination.PrevPage = page - 1
	}

	f.skip = skip
	f.limit = int64(limit)
	f.paged = true
	f.Pagination = pagination
	return f
}

// Filter applies every non-reserved query key as a field predicate and
// merges extra on top, so a path-derived filter always wins over the
// same key from the query string.
func (f *APIFeatures) Filter(extra bson.M) *APIFeatures {
	for k, v := range QueryFilter(f.params, extra) {
		f.filter[k] = v
	}
	return f
}

// QueryFilter builds the base filter from query-string parameters.
// Handlers use it for the count query so that the count and the find
// agree on what they match.
//
// Bracketed keys carry comparison operators: price[gte]=100 becomes
// {price: {$gte: 100}}. Only a whole bracket segment equal to
// gte/gt/lte/lt is rewritten; a top-level field literally named "gte"
// stays a literal equality filter.
func QueryFilter(params url.Values, extra bson.M) bson.M {
	filter := bson.M{}
	for key, vals := range params {
		if len(vals) == 0 {
			continue
		}
		// reserved keys are excluded bare and bracketed alike, so
		// page[gte]=2 never leaks into the filter
		root, path := splitBracketPath(key)
		if root == "" || reservedQueryKeys[root] {
			continue
		}
		value := coerceQueryValue(vals[0])
		if len(path) == 0 {
			filter[root] = value
			continue
		}
		// build the nested document from the innermost segment out
		nested := value
		for i := len(path) - 1; i >= 0; i-- {
			seg := path[i]
			if comparisonOps[seg] {
				seg = "$" + seg
			}
			nested = bson.M{seg: nested}
		}
		if existing, ok := filter[root].(bson.M); ok {
			if add, ok := nested.(bson.M); ok {
				for k, v := range add {
					existing[k] = v
				}
				continue
			}
		}
		filter[root] = nested
	}
	for k, v := range extra {
		filter[k] = v
	}
	return filter
}

// Search adds a case-insensitive substring match on the keyword
// parameter. Products match on title or description, every other
// resource matches on name. No keyword, no-op.
func (f *APIFeatures) Search(kind string) *APIFeatures {
	keyword := strings.TrimSpace(f.params.Get("keyword"))
	if keyword == "" {
		return f
	}
	pattern := regexp.QuoteMeta(keyword)
	if kind == "products" {
		f.filter["$or"] = bson.A{
			bson.M{"title": bson.M{"$regex": pattern, "$options": "i"}},
			bson.M{"description": bson.M{"$regex": pattern, "$options": "i"}},
		}
		return f
	}
	f.filter["name"] = bson.M{"$regex": pattern, "$options": "i"}
	return f
}

// Sort translates a comma-separated sort parameter ("-price,title")
// into a multi-key sort. Default is newest first.
func (f *APIFeatures) Sort() *APIFeatures {
	param := strings.TrimSpace(f.params.Get("sort"))
	if param == "" {
		f.sort = bson.D{{Key: "createdAt", Value: -1}}
		return f
	}
	sort := bson.D{}
	for _, field := range strings.Split(param, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		order := 1
		if strings.HasPrefix(field, "-") {
			order = -1
			field = field[1:]
		}
		if field != "" {
			sort = append(sort, bson.E{Key: field, Value: order})
		}
	}
	if len(sort) == 0 {
		sort = bson.D{{Key: "createdAt", Value: -1}}
	}
	f.sort = sort
	return f
}

// LimitFields projects only the requested fields; without a fields
// parameter everything but the internal version field is returned.
func (f *APIFeatures) LimitFields() *APIFeatures {
	param := strings.TrimSpace(f.params.Get("fields"))
	if param == "" {
		f.projection = bson.M{"__v": 0}
		return f
	}
	projection := bson.M{}
	for _, field := range strings.Split(param, ",") {
		if field = strings.TrimSpace(field); field != "" {
			projection[field] = 1
		}
	}
	f.projection = projection
	return f
}

// Filtered exposes the accumulated filter. Tests and handlers that
// need the predicate (never to mutate it mid-flight) read it here.
func (f *APIFeatures) Filtered() bson.M { return f.filter }

// SortSpec exposes the accumulated sort order.
func (f *APIFeatures) SortSpec() bson.D { return f.sort }

// Projection exposes the accumulated field projection.
func (f *APIFeatures) Projection() bson.M { return f.projection }

// Execute finalises the composed query, runs the single Find and
// decodes every matched document into results (a pointer to a slice).
func (f *APIFeatures) Execute(ctx context.Context, results any) (*PaginationResult, error) {
	opts := options.Find()
	if f.paged {
		opts.SetSkip(f.skip).SetLimit(f.limit)
	}
	if f.sort != nil {
		opts.SetSort(f.sort)
	}
	if f.projection != nil {
		opts.SetProjection(f.projection)
	}

	cursor, err := f.col.Find(ctx, f.filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, results); err != nil {
		return nil, err
	}
	return f.Pagination, nil
}

// splitBracketPath takes "price[gte]" apart into root "price" and
// path ["gte"]. Arbitrary nesting depth is allowed.
func splitBracketPath(key string) (string, []string) {
	idx := strings.Index(key, "[")
	if idx < 0 {
		return key, nil
	}
	root := key[:idx]
	var path []string
	for _, m := range bracketRe.FindAllStringSubmatch(key[idx:], -1) {
		if m[1] != "" {
			path = append(path, m[1])
		}
	}
	return root, path
}

// coerceQueryValue turns a raw query value into the type the datastore
// should compare with: int, float, bool, else string.
func coerceQueryValue(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if fl, err := strconv.ParseFloat(s, 64); err == nil {
		return fl
	}
	if b, err := strconv.ParseBool(s); err == nil && (s == "true" || s == "false") {
		return b
	}
	return s
}

// positiveIntParam coerces permissively: anything that does not parse
// to a positive integer falls back to the default, never to zero.
func positiveIntParam(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 1 {
		return def
	}
	return n
}
