package db

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

var (
	selectPattern = regexp.MustCompile(`^SELECT.*(FROM\s*\w+\s*)+(WHERE (\w*\s*=\s*\$\d+(\s*,\s*)?(\s+AND\s+)?(\s+OR\s+)?)*)?(\w*\s+ORDER BY\s+[^;]+)?$`)
	insertPattern = regexp.MustCompile(`^INSERT.*VALUES \((\$\d+)(\s*,\s*\$\d+)*\)[^;]*$`)
	upsertPattern = regexp.MustCompile(`ON CONFLICT \([\w\s,]+\) DO UPDATE SET (\w+\s*=\s*\$\d+(\s*,\s*)?)+$`)
	deletePattern = regexp.MustCompile(`^DELETE FROM.*WHERE (\w*\s*=\s*\$\d+(\s*,\s*)?(\s+AND\s+)?(\s+OR\s+)?)*$`)
)

// Validator detects queries which do not use placeholders for their values.
type Validator struct {
	blockQueries bool
	logger       *zap.SugaredLogger
}

func NewValidator(blockQueries bool, logger *zap.SugaredLogger) *Validator {
	return &Validator{blockQueries, logger}
}

func (v *Validator) Validate(query string) error {
	query = strings.TrimSpace(query)

	valid := selectPattern.MatchString(query) || deletePattern.MatchString(query)
	if insertPattern.MatchString(query) {
		valid = !strings.Contains(query, "ON CONFLICT") || upsertPattern.MatchString(query)
	}

	if !valid {
		msg := fmt.Sprintf("Found potential SQL injection for query: %s", query)
		if v.blockQueries {
			return errors.New(msg)
		}
		v.logger.Warn(msg)
	}
	return nil
}
