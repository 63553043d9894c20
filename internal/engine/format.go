package engine

import "math/big"

// simplify collapses single-valued method results to bare values, in place.
// Methods whose only result has a falsy or missing value, and methods with
// multiple variants, keep their list form. Already-bare entries are left
// alone, so the pass is idempotent.
func simplify(entries []*AddressResult) {
	for _, entry := range entries {
		for _, method := range entry.Methods() {
			v, _ := entry.Get(method)
			list, ok := v.([]CallResult)
			if !ok || len(list) != 1 {
				continue
			}
			if !truthy(list[0].Value) {
				continue
			}
			entry.set(method, list[0].Value)
		}
	}
}

// groupByNamespace partitions entries into a namespace-keyed mapping,
// removing the namespace field from each entry in the process.
func groupByNamespace(entries []*AddressResult) map[string][]*AddressResult {
	grouped := make(map[string][]*AddressResult)
	for _, entry := range entries {
		entry.omitNamespace = true
		grouped[entry.Namespace] = append(grouped[entry.Namespace], entry)
	}
	return grouped
}

// truthy mirrors the loose notion of a "present" value: nil, false, zero
// and empty values do not count.
func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case uint64:
		return t != 0
	case float64:
		return t != 0
	case *big.Int:
		return t != nil && t.Sign() != 0
	case []byte:
		return len(t) > 0
	}
	return true
}
