package services

// IndexBy builds a key -> row lookup. Later rows win on duplicate keys.
func IndexBy[K comparable, T any](rows []T, key func(T) K) map[K]T {
	out := make(map[K]T, len(rows))
	for _, r := range rows {
		out[key(r)] = r
	}
	return out
}

// GroupBy builds a key -> rows lookup preserving row order within each group.
func GroupBy[K comparable, T any](rows []T, key func(T) K) map[K][]T {
	out := make(map[K][]T)
	for _, r := range rows {
		k := key(r)
		out[k] = append(out[k], r)
	}
	return out
}

// Pluck collects one field of every row.
func Pluck[T any, V any](rows []T, field func(T) V) []V {
	out := make([]V, 0, len(rows))
	for _, r := range rows {
		out = append(out, field(r))
	}
	return out
}

// Unique drops repeated values keeping first occurrence order.
func Unique[V comparable](values []V) []V {
	seen := make(map[V]struct{}, len(values))
	out := make([]V, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
