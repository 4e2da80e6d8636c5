package service

import (
	"fmt"
	"strconv"
	"strings"
)

// nextSequence returns the number after the trailing -NNNN of last, or 1 when
// last is empty.
func nextSequence(last string) (int, error) {
	if last == "" {
		return 1, nil
	}
	n, err := strconv.Atoi(last[strings.LastIndex(last, "-")+1:])
	if err != nil {
		return 0, fmt.Errorf("malformed document number %q: %w", last, err)
	}
	return n + 1, nil
}
