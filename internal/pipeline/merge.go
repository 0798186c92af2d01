package pipeline

import (
	"mandi/internal/types"
)

// Merge folds freshly fetched records into the existing dataset. Conflicts on
// the identity key resolve latest-wins by fetch order: a fresh record
// supersedes anything already persisted for its key, and within the fresh
// batch a later record supersedes an earlier one. Exactly one record per key
// survives. The result is sorted, so merging the same batch twice is a
// no-op.
func Merge(existing *types.Dataset, fresh []types.Record) *types.Dataset {
	merged := &types.Dataset{}
	if existing != nil {
		merged.Records = append(merged.Records, existing.Records...)
	}
	idx := merged.Index()
	for _, rec := range fresh {
		key := rec.Key()
		if pos, ok := idx[key]; ok {
			merged.Records[pos] = rec
			continue
		}
		merged.Records = append(merged.Records, rec)
		idx[key] = len(merged.Records) - 1
	}
	merged.Sort()
	return merged
}
