package connector

import (
	"strings"

	"github.com/iancoleman/strcase"
	e "github.com/kyma-incubator/trino-reconciler/pkg/error"
)

// Kind is the closed set of connector kinds the reconciler can materialize as Trino catalogs.
type Kind string

const (
	Kinesis    Kind = "kinesis"
	Redshift   Kind = "redshift"
	Cassandra  Kind = "cassandra"
	ClickHouse Kind = "clickhouse"
	PostgreSQL Kind = "postgresql"
	MySQL      Kind = "mysql"
)

// Kinds lists all supported connector kinds.
var Kinds = []Kind{Kinesis, Redshift, Cassandra, ClickHouse, PostgreSQL, MySQL}

// display names used by the dashboard which don't normalize to the kind itself
var aliases = map[string]Kind{
	"amazingkinesis": Kinesis,
}

// ParseKind maps a raw connector type string to a Kind. It accepts the kind identifier
// as well as the display names shown in the dashboard ("Clickhouse", "Amazing Kinesis").
func ParseKind(raw string) (Kind, error) {
	key := normalize(raw)
	if key == "" {
		return "", e.NewValidationError("connector kind is undefined")
	}
	for _, kind := range Kinds {
		if normalize(string(kind)) == key {
			return kind, nil
		}
	}
	if kind, ok := aliases[key]; ok {
		return kind, nil
	}
	return "", e.NewValidationError("connector kind '%s' is not supported", raw)
}

func (k Kind) String() string {
	return string(k)
}

func normalize(raw string) string {
	return strings.ReplaceAll(strcase.ToKebab(strings.TrimSpace(raw)), "-", "")
}
