// Package query builds parameterized aggregation queries over the bridge
// transfer tables.
//
// Every query starts from the same reconciliation: transfers collapsed one
// row per tx_hash, amount legs of executed and received transfers coerced,
// priced and summed per tx_hash, then LEFT JOINed to the transfers and
// restricted to the inclusive date range.
package query

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"bridge-metrics/internal/domain"
)

// Query is a fully bound aggregation query.
// Kind and Params describe it structurally; SQL and Args are its rendering.
type Query struct {
	Kind    Kind
	Params  domain.QueryParams
	SQL     string
	Args    []any
	Columns []string
}

// Tables names the source tables.
type Tables struct {
	Transfers string
	Amounts   string
}

// DefaultTables are the table names created by the migrations.
var DefaultTables = Tables{Transfers: "bridge_transfers", Amounts: "transfer_amounts"}

// cteNames are the relations the queries define; unqualified tables cannot reuse them.
var cteNames = []string{"amounts", "transfers", "events"}

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Builder renders aggregation queries in one dialect.
type Builder struct {
	dialect Dialect
	tables  Tables
}

// NewBuilder creates a builder. Table names must be plain (optionally
// schema-qualified) identifiers, and unqualified names must not reuse a
// relation name of the queries.
func NewBuilder(dialect Dialect, tables Tables) (*Builder, error) {
	if dialect == nil {
		return nil, fmt.Errorf("query dialect cannot be nil")
	}
	if tables.Transfers == "" {
		tables.Transfers = DefaultTables.Transfers
	}
	if tables.Amounts == "" {
		tables.Amounts = DefaultTables.Amounts
	}
	for _, t := range []string{tables.Transfers, tables.Amounts} {
		if !identifierRe.MatchString(t) {
			return nil, fmt.Errorf("invalid table name %q", t)
		}
		if slices.Contains(cteNames, strings.ToLower(t)) {
			return nil, fmt.Errorf("table name %q collides with a query relation; qualify it with a schema", t)
		}
	}
	return &Builder{dialect: dialect, tables: tables}, nil
}

// Dialect returns the builder's dialect.
func (b *Builder) Dialect() Dialect { return b.dialect }

// Build renders the query of kind for params.
// Returns InvalidParameterError for invalid params or an unknown kind.
func (b *Builder) Build(kind Kind, params domain.QueryParams) (*Query, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, &domain.InvalidParameterError{Field: "kind", Value: string(kind), Reason: "unsupported aggregation kind"}
	}

	var sb strings.Builder
	sb.WriteString(b.events())

	switch kind {
	case KindOverview:
		sb.WriteString(b.overview())
	case KindTimeSeries:
		sb.WriteString(b.timeSeries(params.Granularity))
	default:
		dim, _ := kind.Dimension()
		sb.WriteString(b.groupBy(dim))
	}

	if s := b.dialect.Settings(); s != "" {
		sb.WriteString(s)
		sb.WriteString("\n")
	}

	return &Query{
		Kind:    kind,
		Params:  params,
		SQL:     sb.String(),
		Args:    []any{params.Start(), params.End()},
		Columns: kind.Columns(),
	}, nil
}

// events renders the reconciliation CTEs ending in the "events" relation.
func (b *Builder) events() string {
	d := b.dialect
	txHash := d.TxHashFromID("id")

	return fmt.Sprintf(`WITH
    amounts AS (
        SELECT
            %[1]s AS tx_hash,
            SUM(%[2]s * %[3]s) AS amount_usd
        FROM %[4]s
        WHERE status = '%[5]s' AND simplified_status = '%[6]s'
        GROUP BY %[1]s
    ),
    transfers AS (
        SELECT
            tx_hash,
            MIN(block_date) AS first_date,
            MIN(source_chain) AS first_source_chain,
            MIN(destination_chain) AS first_destination_chain,
            MIN(sender) AS first_sender,
            MIN(token_symbol) AS first_token_symbol
        FROM %[7]s
        GROUP BY tx_hash
    ),
    events AS (
        SELECT
            t.first_date AS event_date,
            t.tx_hash AS tx_hash,
            t.first_source_chain AS source_chain,
            t.first_destination_chain AS destination_chain,
            t.first_sender AS sender,
            t.first_token_symbol AS token_symbol,
            a.amount_usd AS amount_usd
        FROM transfers AS t
        LEFT JOIN amounts AS a ON t.tx_hash = a.tx_hash
        WHERE t.first_date BETWEEN %[8]s AND %[9]s
    )
`,
		txHash,
		d.Numeric("amount_raw"),
		d.Numeric("price_raw"),
		b.tables.Amounts,
		domain.StatusExecuted,
		domain.SimplifiedStatusReceived,
		b.tables.Transfers,
		d.Date(d.Placeholder(1)),
		d.Date(d.Placeholder(2)),
	)
}

func (b *Builder) totals() string {
	d := b.dialect
	return fmt.Sprintf(`    %s AS transfer_count,
    %s AS user_count,
    %s AS volume_usd,
    %s AS priced_transfer_count
`,
		d.CountDistinct("tx_hash"),
		d.CountDistinct("sender"),
		d.SumOrZero("amount_usd"),
		d.Count("amount_usd"),
	)
}

func (b *Builder) overview() string {
	return "SELECT\n" + b.totals() + "FROM events\n"
}

func (b *Builder) timeSeries(g domain.Granularity) string {
	return fmt.Sprintf(`SELECT
    %s AS bucket,
%sFROM events
GROUP BY bucket
ORDER BY bucket ASC
`, b.dialect.Truncate(g, "event_date"), b.totals())
}

func (b *Builder) groupBy(dim domain.Dimension) string {
	d := b.dialect
	col := string(dim)
	return fmt.Sprintf(`SELECT
    %s AS dimension_value,
    %s AS transfer_count,
    %s AS user_count,
    %s AS volume_usd
FROM events
WHERE %s IS NOT NULL AND %s != ''
GROUP BY dimension_value
ORDER BY transfer_count DESC, dimension_value ASC
`,
		d.NotNull(col),
		d.CountDistinct("tx_hash"),
		d.CountDistinct("sender"),
		d.SumOrZero("amount_usd"),
		col, col,
	)
}
