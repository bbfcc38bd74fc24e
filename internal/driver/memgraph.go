package driver

import (
	"context"
	"fmt"
	"log"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// MemgraphDriver talks Bolt to a Memgraph (or Neo4j) instance. It is a thin
// wrapper: every statement goes through the eager-result path so callers get
// fully materialized records and never hold a session open.
type MemgraphDriver struct {
	driver neo4j.DriverWithContext
}

// NewMemgraphDriver connects and verifies connectivity up front, so a bad
// URI or credentials fail at startup rather than on the first request.
func NewMemgraphDriver(uri, username, password string) (*MemgraphDriver, error) {
	d, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("failed to create driver for '%s': %w", uri, err)
	}
	if err := d.VerifyConnectivity(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to reach graph store at '%s': %w", uri, err)
	}

	log.Printf("Connected to graph store at %s", uri)
	return &MemgraphDriver{driver: d}, nil
}

func (d *MemgraphDriver) Close(ctx context.Context) error {
	return d.driver.Close(ctx)
}

func (d *MemgraphDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, d.driver, query, params, neo4j.EagerResultTransformer)
	if err != nil {
		return neo4j.EagerResult{}, fmt.Errorf("failed to execute query: %w", err)
	}
	return *result, nil
}

// BuildIndices creates the lookup indices the engine's queries rely on.
// Failures are logged, not fatal: the index usually already exists.
func (d *MemgraphDriver) BuildIndices(ctx context.Context) error {
	for _, q := range []string{
		"CREATE INDEX ON :Actor(name_normalized);",
		"CREATE INDEX ON :Actor(kind);",
	} {
		if _, err := d.ExecuteQuery(ctx, q, nil); err != nil {
			log.Printf("Warning: failed to create index '%s': %v", q, err)
		}
	}
	return nil
}
