// Package dataloader provides generic helpers for batch loading related
// records: collect the keys of a batch, fetch the related rows with one
// query, and hand every owner its share of the result.
//
//	owners := make([]any, len(books))
//	for i, b := range books {
//	    owners[i] = b.Value("author")
//	}
//	ids := dataloader.Keys(owners, func(k any) any { return k })
//	authors, err := client.Query("Author").Where(sql.C("id").In(ids...)).All(ctx)
//	if err != nil {
//	    return err
//	}
//	byBook := dataloader.OrderByKeysNoError(owners, authors, func(a *relic.Record) any { return a.ID() })
//
// The orm package loads relationships of record batches this way, see
// orm.Client.LoadEdges.
package dataloader

import (
	"errors"
)

// ErrNotFound is returned when no value of a batch result has a requested key.
var ErrNotFound = errors.New("dataloader: record not found")

// KeyFunc extracts a key from a value.
type KeyFunc[K comparable, V any] func(V) K

// Keys returns the distinct keys of values in the order they first appear.
// Zero keys are skipped.
func Keys[K comparable, V any](values []V, keyFn KeyFunc[K, V]) []K {
	var (
		zero K
		keys []K
		seen = make(map[K]struct{}, len(values))
	)
	for _, v := range values {
		k := keyFn(v)
		if k == zero {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	return keys
}

// OrderByKeys returns the value of every requested key, in the order of
// keys. The result has the length of keys; missing values are zero and
// their error is ErrNotFound.
func OrderByKeys[K comparable, V any](keys []K, values []V, keyFn KeyFunc[K, V]) ([]V, []error) {
	lookup := make(map[K]V, len(values))
	for _, v := range values {
		lookup[keyFn(v)] = v
	}
	result := make([]V, len(keys))
	errs := make([]error, len(keys))
	for i, key := range keys {
		if v, ok := lookup[key]; ok {
			result[i] = v
		} else {
			errs[i] = ErrNotFound
		}
	}
	return result, errs
}

// OrderByKeysNoError is like OrderByKeys for batches where missing values
// are expected, e.g. optional relationships.
func OrderByKeysNoError[K comparable, V any](keys []K, values []V, keyFn KeyFunc[K, V]) []V {
	result, _ := OrderByKeys(keys, values, keyFn)
	return result
}

// GroupByKey groups values by key, keeping their order within a group.
// Used for to-many relationships where many rows share a foreign key.
func GroupByKey[K comparable, V any](values []V, keyFn KeyFunc[K, V]) map[K][]V {
	result := make(map[K][]V)
	for _, v := range values {
		key := keyFn(v)
		result[key] = append(result[key], v)
	}
	return result
}

// OrderGroupsByKeys returns the group of every requested key, in the order
// of keys. Keys without a group get an empty, non-nil slice.
func OrderGroupsByKeys[K comparable, V any](keys []K, groups map[K][]V) [][]V {
	result := make([][]V, len(keys))
	for i, key := range keys {
		if g, ok := groups[key]; ok {
			result[i] = g
		} else {
			result[i] = []V{}
		}
	}
	return result
}
