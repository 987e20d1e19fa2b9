package utils

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// APIFeatures translates list query parameters into a Mongo filter and find
// options: filtering with gt/gte/lt/lte operators, comma-separated OR values,
// sorting, field selection, pagination and full-text search.
type APIFeatures struct {
	Filter bson.M
	Sort   bson.D
	Fields bson.M
	Page   int64
	Limit  int64
	Search string
}

var operatorKeyRe = regexp.MustCompile(`^(.+)\[(gt|gte|lt|lte)\]$`)

// Parameters that shape the query rather than filter it.
var reservedParams = map[string]bool{
	"page":   true,
	"limit":  true,
	"sort":   true,
	"fields": true,
	"search": true,
}

// ParseQuery builds APIFeatures from raw query parameters. defaultLimit
// applies when the client does not send one; a limit of 0 disables
// pagination.
func ParseQuery(query url.Values, defaultLimit int64) *APIFeatures {
	f := &APIFeatures{
		Filter: bson.M{},
		Page:   1,
		Limit:  defaultLimit,
		Search: query.Get("search"),
	}

	var conditions []bson.M
	for key, values := range query {
		if reservedParams[key] || len(values) == 0 {
			continue
		}
		field, operator := key, ""
		if m := operatorKeyRe.FindStringSubmatch(key); m != nil {
			field, operator = m[1], "$"+m[2]
		}

		value := values[0]
		switch {
		case operator != "":
			conditions = append(conditions, bson.M{field: bson.M{operator: coerce(value)}})
		case strings.Contains(value, ","):
			var or []bson.M
			for _, v := range strings.Split(value, ",") {
				or = append(or, bson.M{field: coerce(v)})
			}
			conditions = append(conditions, bson.M{"$or": or})
		default:
			conditions = append(conditions, bson.M{field: coerce(value)})
		}
	}
	if len(conditions) > 0 {
		f.Filter["$and"] = conditions
	}

	if sort := query.Get("sort"); sort != "" {
		for _, field := range strings.Split(sort, ",") {
			if strings.HasPrefix(field, "-") {
				f.Sort = append(f.Sort, bson.E{Key: field[1:], Value: -1})
			} else {
				f.Sort = append(f.Sort, bson.E{Key: field, Value: 1})
			}
		}
	} else {
		f.Sort = bson.D{{Key: "created_at", Value: -1}}
	}

	if fields := query.Get("fields"); fields != "" {
		f.Fields = bson.M{}
		for _, field := range strings.Split(fields, ",") {
			f.Fields[field] = 1
		}
	}

	if page, err := strconv.ParseInt(query.Get("page"), 10, 64); err == nil && page > 0 {
		f.Page = page
	}
	if limit, err := strconv.ParseInt(query.Get("limit"), 10, 64); err == nil && limit >= 0 {
		f.Limit = limit
	}

	return f
}

// CountFilter is the filter used for the independent total count: filtering
// and search only, ignoring pagination.
func (f *APIFeatures) CountFilter(scope bson.M) bson.M {
	filter := bson.M{}
	for k, v := range f.Filter {
		filter[k] = v
	}
	for k, v := range scope {
		filter[k] = v
	}
	if f.Search != "" {
		filter["$text"] = bson.M{"$search": f.Search}
	}
	return filter
}

// FindOptions builds the driver options for the page being served.
func (f *APIFeatures) FindOptions() *options.FindOptions {
	opts := options.Find().SetSort(f.Sort)
	if f.Fields != nil {
		opts.SetProjection(f.Fields)
	}
	if f.Limit > 0 {
		opts.SetSkip((f.Page - 1) * f.Limit).SetLimit(f.Limit)
	}
	return opts
}

// coerce converts a query value to the type it most likely has in storage.
func coerce(value string) interface{} {
	if n, err := strconv.ParseFloat(value, 64); err == nil {
		return n
	}
	if b, err := strconv.ParseBool(value); err == nil {
		return b
	}
	return value
}
