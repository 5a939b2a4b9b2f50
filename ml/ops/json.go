// Package ops implements per-field operations that turn tar records into
// training values and labels
/*
 * Copyright (c) 2026, NVIDIA CORPORATION. All rights reserved.
 */
package ops

import (
	"fmt"
	"strconv"

	"github.com/NVIDIA/aisdataset/cmn/cos"
)

func walkJSON(b []byte, path []string) (any, error) {
	var v any
	if err := cos.JSON.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	for i, key := range path {
		switch node := v.(type) {
		case map[string]any:
			next, ok := node[key]
			if !ok {
				return nil, fmt.Errorf("key %q not found (path %v)", key, path[:i+1])
			}
			v = next
		case []any:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, fmt.Errorf("invalid index %q into array of %d (path %v)", key, len(node), path[:i+1])
			}
			v = node[idx]
		default:
			return nil, fmt.Errorf("can't select %q from %T (path %v)", key, v, path[:i+1])
		}
	}
	return v, nil
}
