package graph

import (
	"fmt"
	"strings"
)

// UnknownNodeError reports every id in a request (or edge list) that does
// not resolve to a known node. All offending ids are collected before the
// error is returned; callers never see only the first one.
type UnknownNodeError struct {
	IDs []string
}

func (e *UnknownNodeError) Error() string {
	if len(e.IDs) == 1 {
		return fmt.Sprintf("unknown node id: %s", e.IDs[0])
	}
	return fmt.Sprintf("unknown node ids: %s", strings.Join(e.IDs, ", "))
}
