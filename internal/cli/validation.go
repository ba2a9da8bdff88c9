package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// parseID parses a positive numeric entity ID argument.
func parseID(arg, entityType string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s ID '%s'. Expected a positive number", entityType, arg)
	}
	return id, nil
}

// parseVersionNumber parses a version number argument (0 is the first version).
func parseVersionNumber(arg string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid version number '%s'. Expected 0 or greater", arg)
	}
	return n, nil
}
