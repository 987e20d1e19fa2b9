package utils

import (
	"net/url"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func parse(t *testing.T, rawQuery string, defaultLimit int64) *APIFeatures {
	t.Helper()
	query, err := url.ParseQuery(rawQuery)
	if err != nil {
		t.Fatal(err)
	}
	return ParseQuery(query, defaultLimit)
}

func TestParseQueryOperators(t *testing.T) {
	f := parse(t, "price[gte]=10&price[lt]=100", 10)

	conditions, ok := f.Filter["$and"].([]bson.M)
	if !ok {
		t.Fatalf("expected $and conditions, got %v", f.Filter)
	}
	if len(conditions) != 2 {
		t.Fatalf("expected 2 conditions, got %d", len(conditions))
	}
	found := map[string]bool{}
	for _, c := range conditions {
		clause, ok := c["price"].(bson.M)
		if !ok {
			t.Fatalf("expected price clause, got %v", c)
		}
		for op, v := range clause {
			found[op] = true
			if _, isFloat := v.(float64); !isFloat {
				t.Errorf("numeric value should be coerced to float64, got %T", v)
			}
		}
	}
	if !found["$gte"] || !found["$lt"] {
		t.Errorf("expected $gte and $lt, got %v", found)
	}
}

func TestParseQueryCommaMeansOr(t *testing.T) {
	f := parse(t, "brand=apple,samsung", 10)

	conditions := f.Filter["$and"].([]bson.M)
	or, ok := conditions[0]["$or"].([]bson.M)
	if !ok {
		t.Fatalf("expected $or for comma values, got %v", conditions[0])
	}
	if len(or) != 2 {
		t.Fatalf("expected 2 alternatives, got %d", len(or))
	}
	if or[0]["brand"] != "apple" || or[1]["brand"] != "samsung" {
		t.Errorf("unexpected alternatives: %v", or)
	}
}

func TestParseQueryReservedParams(t *testing.T) {
	f := parse(t, "page=3&limit=25&sort=-price,name&fields=name,price&search=phone", 10)

	if len(f.Filter) != 0 {
		t.Errorf("reserved params leaked into the filter: %v", f.Filter)
	}
	if f.Page != 3 || f.Limit != 25 {
		t.Errorf("page/limit = %d/%d, want 3/25", f.Page, f.Limit)
	}
	if f.Search != "phone" {
		t.Errorf("search = %q", f.Search)
	}
	if len(f.Sort) != 2 || f.Sort[0].Key != "price" || f.Sort[0].Value != -1 || f.Sort[1].Key != "name" || f.Sort[1].Value != 1 {
		t.Errorf("unexpected sort: %v", f.Sort)
	}
	if len(f.Fields) != 2 || f.Fields["name"] != 1 || f.Fields["price"] != 1 {
		t.Errorf("unexpected fields: %v", f.Fields)
	}
}

func TestParseQueryDefaults(t *testing.T) {
	f := parse(t, "", 10)
	if f.Page != 1 || f.Limit != 10 {
		t.Errorf("page/limit = %d/%d, want 1/10", f.Page, f.Limit)
	}
	if len(f.Sort) != 1 || f.Sort[0].Key != "created_at" || f.Sort[0].Value != -1 {
		t.Errorf("default sort should be created_at descending, got %v", f.Sort)
	}
}

func TestParseQueryZeroLimitDisablesPagination(t *testing.T) {
	f := parse(t, "", 0)
	opts := f.FindOptions()
	if opts.Skip != nil || opts.Limit != nil {
		t.Error("limit 0 should not set skip/limit")
	}

	f = parse(t, "page=2&limit=5", 0)
	opts = f.FindOptions()
	if opts.Skip == nil || *opts.Skip != 5 {
		t.Errorf("expected skip 5, got %v", opts.Skip)
	}
	if opts.Limit == nil || *opts.Limit != 5 {
		t.Errorf("expected limit 5, got %v", opts.Limit)
	}
}

func TestCountFilter(t *testing.T) {
	f := parse(t, "brand=apple&search=phone", 10)
	filter := f.CountFilter(bson.M{"is_archived": false})

	if filter["is_archived"] != false {
		t.Error("scope should be merged into the count filter")
	}
	if _, ok := filter["$and"]; !ok {
		t.Error("filter conditions should be part of the count filter")
	}
	text, ok := filter["$text"].(bson.M)
	if !ok || text["$search"] != "phone" {
		t.Errorf("search should add a $text stage, got %v", filter["$text"])
	}
}
