// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package convert provides fault-tolerant conversions for query-string values.

Use it only after the value has been validated, or where a malformed value
should silently fall back to a default.
*/
package convert

import (
	"strconv"
	"strings"
)

// ToIntD parses str as a base-10 integer, returning def when str is empty or
// not a number. Surrounding whitespace is ignored.
func ToIntD(str string, def int) int {
	str = strings.TrimSpace(str)
	if str == "" {
		return def
	}

	if v, err := strconv.Atoi(str); err == nil {
		return v
	}
	return def
}
