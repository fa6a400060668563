package query

import (
	"fmt"

	"bridge-metrics/internal/domain"
)

// Dialect renders the engine-specific fragments of an aggregation query.
// Every dialect must implement the same coercion and truncation semantics.
type Dialect interface {
	// Name identifies the dialect in logs and metrics.
	Name() string
	// Placeholder returns the bind marker of the n-th argument (1-based).
	Placeholder(n int) string
	// Date casts a bound YYYY-MM-DD string argument to a date.
	Date(placeholder string) string
	// Numeric coerces a raw JSON-text column to a nullable float: NULL for
	// composite, non-numeric or non-finite values.
	Numeric(column string) string
	// TxHashFromID extracts the part of an id before the first underscore.
	TxHashFromID(column string) string
	// Truncate truncates a date column to the granularity bucket (weeks start Monday).
	Truncate(g domain.Granularity, column string) string
	// CountDistinct, Count and SumOrZero render aggregates with int64/float64 result types.
	CountDistinct(column string) string
	Count(column string) string
	SumOrZero(column string) string
	// NotNull marks a column already filtered for NULLs as non-nullable.
	NotNull(column string) string
	// Settings is appended to every query.
	Settings() string
}

// ClickHouse renders ClickHouse SQL.
type ClickHouse struct{}

var _ Dialect = ClickHouse{}

func (ClickHouse) Name() string { return "clickhouse" }

func (ClickHouse) Placeholder(int) string { return "?" }

func (ClickHouse) Date(placeholder string) string { return fmt.Sprintf("toDate(%s)", placeholder) }

func (ClickHouse) Numeric(column string) string {
	// One pair of enclosing quotes is a JSON string; unbalanced quotes stay and fail the cast.
	trimmed := fmt.Sprintf("trimBoth(%s)", column)
	unquoted := fmt.Sprintf(`toFloat64OrNull(trimBoth(if(match(%[1]s, '(?s)^".*"$'), substring(%[1]s, 2, length(%[1]s) - 2), %[1]s)))`, trimmed)
	return fmt.Sprintf(`multiIf(
            %[1]s IS NULL, NULL,
            startsWith(trimLeft(%[1]s), '[') OR startsWith(trimLeft(%[1]s), '{'), NULL,
            NOT isFinite(ifNull(%[2]s, nan)), NULL,
            %[2]s
        )`, column, unquoted)
}

func (ClickHouse) TxHashFromID(column string) string {
	return fmt.Sprintf("splitByChar('_', %s)[1]", column)
}

func (ClickHouse) Truncate(g domain.Granularity, column string) string {
	switch g {
	case domain.GranularityWeek:
		return fmt.Sprintf("toStartOfWeek(%s, 1)", column)
	case domain.GranularityMonth:
		return fmt.Sprintf("toStartOfMonth(%s)", column)
	default:
		return fmt.Sprintf("toDate(%s)", column)
	}
}

func (ClickHouse) CountDistinct(column string) string {
	return fmt.Sprintf("toInt64(count(DISTINCT %s))", column)
}

func (ClickHouse) Count(column string) string { return fmt.Sprintf("toInt64(count(%s))", column) }

func (ClickHouse) SumOrZero(column string) string {
	return fmt.Sprintf("toFloat64(ifNull(sum(%s), 0))", column)
}

func (ClickHouse) NotNull(column string) string { return fmt.Sprintf("assumeNotNull(%s)", column) }

// Settings makes unmatched LEFT JOIN columns NULL instead of type defaults.
func (ClickHouse) Settings() string { return "SETTINGS join_use_nulls = 1" }

// Postgres renders PostgreSQL SQL. Raw amount columns are jsonb.
type Postgres struct{}

var _ Dialect = Postgres{}

func (Postgres) Name() string { return "postgres" }

func (Postgres) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (Postgres) Date(placeholder string) string { return placeholder + "::date" }

const pgDecimalPattern = `^[-+]?([0-9]+(\.[0-9]*)?|\.[0-9]+)([eE][-+]?[0-9]+)?$`

func (Postgres) Numeric(column string) string {
	return fmt.Sprintf(`CASE
            WHEN jsonb_typeof(%[1]s) = 'number' THEN (%[1]s #>> '{}')::float8
            WHEN jsonb_typeof(%[1]s) = 'string' AND btrim(%[1]s #>> '{}') ~ '%[2]s' THEN btrim(%[1]s #>> '{}')::float8
            ELSE NULL
        END`, column, pgDecimalPattern)
}

func (Postgres) TxHashFromID(column string) string {
	return fmt.Sprintf("split_part(%s, '_', 1)", column)
}

func (Postgres) Truncate(g domain.Granularity, column string) string {
	switch g {
	case domain.GranularityWeek:
		return fmt.Sprintf("date_trunc('week', %s::timestamp)::date", column)
	case domain.GranularityMonth:
		return fmt.Sprintf("date_trunc('month', %s::timestamp)::date", column)
	default:
		return column + "::date"
	}
}

func (Postgres) CountDistinct(column string) string {
	return fmt.Sprintf("COUNT(DISTINCT %s)::bigint", column)
}

func (Postgres) Count(column string) string { return fmt.Sprintf("COUNT(%s)::bigint", column) }

func (Postgres) SumOrZero(column string) string {
	return fmt.Sprintf("COALESCE(SUM(%s), 0)::float8", column)
}

func (Postgres) NotNull(column string) string { return column }

func (Postgres) Settings() string { return "" }

// DialectFor returns the dialect of a source driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "clickhouse":
		return ClickHouse{}, nil
	case "postgres":
		return Postgres{}, nil
	case "memory":
		// The memory executor ignores SQL; ClickHouse text is kept for logging.
		return ClickHouse{}, nil
	default:
		return nil, fmt.Errorf("unknown source driver %q", driver)
	}
}
