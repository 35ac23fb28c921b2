package orders

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/malbeclabs/orders-dashboard/dashboard/pkg/query"
	"github.com/malbeclabs/orders-dashboard/warehouse/pkg/clickhouse"
	"github.com/malbeclabs/orders-dashboard/warehouse/pkg/metrics"
)

const MaxCommentBytes = 1024

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,127}$`)

// ValidateViewName accepts "name" or "database.name", each part a plain identifier.
func ValidateViewName(name string) error {
	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		return fmt.Errorf("%w: %q", ErrInvalidViewName, name)
	}
	for _, part := range parts {
		if !identifierRe.MatchString(part) {
			return fmt.Errorf("%w: %q", ErrInvalidViewName, name)
		}
	}
	return nil
}

// ValidateComment bounds the view comment.
func ValidateComment(comment string) error {
	if len(comment) > MaxCommentBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrCommentTooLong, len(comment), MaxCommentBytes)
	}
	if strings.ContainsRune(comment, 0) {
		return fmt.Errorf("%w: contains NUL", ErrInvalidComment)
	}
	return nil
}

// saveViewSQL compiles the CREATE OR REPLACE VIEW statement for ds.
// The name is validated and quoted; the comment is a bound parameter.
func saveViewSQL(ds *Dataset, name, comment string) (string, []any, error) {
	if err := ValidateViewName(name); err != nil {
		return "", nil, err
	}
	if err := ValidateComment(comment); err != nil {
		return "", nil, err
	}

	definition, args := ds.SQL()
	stmt := "CREATE OR REPLACE VIEW " + query.QuoteName(name) + " AS " + definition
	if comment != "" {
		stmt += " COMMENT ?"
		args = append(args, comment)
	}
	return stmt, args, nil
}

// SaveView persists the dataset definition as a view named name and attaches comment
// to it, in one statement. Replaces an existing view of that name.
func SaveView(ctx context.Context, conn clickhouse.Connection, ds *Dataset, name, comment string) error {
	stmt, args, err := saveViewSQL(ds, name, comment)
	if err != nil {
		metrics.ViewsMaterializedTotal.WithLabelValues("invalid").Inc()
		return err
	}

	start := time.Now()
	err = conn.Exec(ctx, stmt, args...)
	metrics.RecordQuery("save_view", time.Since(start), err)
	if err != nil {
		metrics.ViewsMaterializedTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to create view %s: %w", name, err)
	}
	metrics.ViewsMaterializedTotal.WithLabelValues("success").Inc()
	return nil
}
