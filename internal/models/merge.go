package models

// maxMergeDepth bounds the recursion on pathological inputs.
const maxMergeDepth = 32

// Merge structurally merges source into target and returns target.
// Nested objects combine key-wise; scalar and array values from the
// source overwrite the target's. Keys only the target knows survive,
// which is what lets a flush keep on-disk fields the in-memory
// snapshot never touched.
func Merge(target, source map[string]any) map[string]any {
	return mergeDepth(target, source, 0)
}

func mergeDepth(target, source map[string]any, depth int) map[string]any {
	if target == nil {
		target = make(map[string]any, len(source))
	}
	for key, srcVal := range source {
		srcMap, srcIsMap := srcVal.(map[string]any)
		if !srcIsMap || depth >= maxMergeDepth {
			target[key] = srcVal
			continue
		}
		tgtMap, tgtIsMap := target[key].(map[string]any)
		if !tgtIsMap {
			tgtMap = make(map[string]any, len(srcMap))
		}
		target[key] = mergeDepth(tgtMap, srcMap, depth+1)
	}
	return target
}
