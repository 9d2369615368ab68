// Package schema introspects the target database and exposes a cached,
// policy-filtered snapshot of its structure.
package schema

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/askdb-io/askdb-engine/pkg/logging"
	"github.com/askdb-io/askdb-engine/pkg/models"
)

// RawTable is one table as reported by the database, before any policy
// filtering.
type RawTable struct {
	Name    string
	Columns []models.ColumnInfo
}

// Introspector reads raw structure from the target database.
type Introspector interface {
	// Tables returns all user tables and views with their columns.
	Tables(ctx context.Context) ([]RawTable, error)
	// Dialect names the SQL dialect, e.g. "postgresql".
	Dialect() string
}

// Catalog builds and caches the filtered schema snapshot. The snapshot is
// built at most once per process (first caller builds, concurrent callers
// wait) and treated as immutable afterwards. A failed introspection is not
// cached, so the next turn retries; Invalidate forces a rebuild.
type Catalog struct {
	introspector Introspector
	policy       *models.Policy
	logger       *zap.Logger

	mu     sync.Mutex
	cached *models.SchemaSnapshot
}

// NewCatalog creates a catalog over the given introspector and policy.
func NewCatalog(introspector Introspector, policy *models.Policy, logger *zap.Logger) *Catalog {
	return &Catalog{
		introspector: introspector,
		policy:       policy,
		logger:       logger.Named("schema-catalog"),
	}
}

// Snapshot returns the cached filtered snapshot, introspecting on first
// call. On introspection failure it returns an empty snapshot flagged
// ConnectionError rather than an error: callers degrade to an out-of-scope
// response.
func (c *Catalog) Snapshot(ctx context.Context) *models.SchemaSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != nil {
		return c.cached
	}

	raw, err := c.introspector.Tables(ctx)
	if err != nil {
		c.logger.Error("schema introspection failed",
			zap.String("error", logging.SanitizeError(err)))
		return &models.SchemaSnapshot{
			Dialect:         c.introspector.Dialect(),
			ConnectionError: true,
		}
	}

	snapshot := c.filter(raw)
	c.cached = snapshot
	c.logger.Info("schema snapshot built",
		zap.Int("tables", len(snapshot.Tables)),
		zap.String("dialect", snapshot.Dialect))
	return snapshot
}

// Invalidate drops the cached snapshot so the next Snapshot call
// re-introspects, e.g. after a detected connection failure.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cached = nil
}

// filter applies the policy once at build time: restricted tables dropped,
// allow-list applied, excluded columns removed, soft-delete marked.
func (c *Catalog) filter(raw []RawTable) *models.SchemaSnapshot {
	snapshot := &models.SchemaSnapshot{Dialect: c.introspector.Dialect()}

	for _, table := range raw {
		if c.policy.TableRestricted(table.Name) {
			c.logger.Debug("table filtered: restricted", zap.String("table", table.Name))
			continue
		}
		if !c.policy.TableAllowed(table.Name) {
			c.logger.Debug("table filtered: not in allow-list", zap.String("table", table.Name))
			continue
		}

		info := models.TableInfo{Name: table.Name}
		for _, col := range table.Columns {
			if c.policy.ColumnExcluded(col.Name) {
				info.HasExcludedColumns = true
				continue
			}
			info.Columns = append(info.Columns, col)
		}
		if c.policy.SoftDeleteColumn != "" {
			for _, col := range table.Columns {
				if strings.EqualFold(col.Name, c.policy.SoftDeleteColumn) {
					info.HasSoftDelete = true
					break
				}
			}
		}
		snapshot.Tables = append(snapshot.Tables, info)
	}

	return snapshot
}
