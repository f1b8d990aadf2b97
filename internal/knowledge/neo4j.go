package knowledge

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/knograph/knograph-backend/internal/platform/envutil"
	"github.com/knograph/knograph-backend/internal/platform/logger"
)

// Neo4jLoader reads the graph artifact from a Neo4j database instead of
// the JSON file. Concept nodes carry id/name/kind/parent_topic/keywords
// properties; relationship types map onto Relation values.
type Neo4jLoader struct {
	Driver   neo4j.DriverWithContext
	Database string

	log *logger.Logger
}

// NewNeo4jLoaderFromEnv returns nil when NEO4J_URI is not set.
func NewNeo4jLoaderFromEnv(log *logger.Logger) (*Neo4jLoader, error) {
	uri := envutil.String("NEO4J_URI", "")
	if uri == "" {
		return nil, nil
	}
	user := envutil.String("NEO4J_USER", "neo4j")
	password := envutil.String("NEO4J_PASSWORD", "")
	database := envutil.String("NEO4J_DATABASE", "")
	timeout := envutil.Duration("NEO4J_TIMEOUT_SECONDS", 10*time.Second)

	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""), func(cfg *neo4j.Config) {
		cfg.SocketConnectTimeout = timeout
	})
	if err != nil {
		return nil, fmt.Errorf("neo4j loader: init driver: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j loader: verify connectivity: %w", err)
	}

	loaderLog := log
	if loaderLog != nil {
		loaderLog = loaderLog.With("loader", "Neo4jLoader")
	}
	return &Neo4jLoader{Driver: driver, Database: database, log: loaderLog}, nil
}

func (l *Neo4jLoader) Load(ctx context.Context) (*Graph, error) {
	if l == nil || l.Driver == nil {
		return Empty(), fmt.Errorf("neo4j loader not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	session := l.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: l.Database,
	})
	defer session.Close(ctx)

	nodes, err := l.loadNodes(ctx, session)
	if err != nil {
		return Empty(), err
	}
	edges, err := l.loadEdges(ctx, session)
	if err != nil {
		return Empty(), err
	}
	return NewGraph(nodes, edges), nil
}

func (l *Neo4jLoader) loadNodes(ctx context.Context, session neo4j.SessionWithContext) ([]Node, error) {
	res, err := session.Run(ctx, `
		MATCH (c:Concept)
		RETURN c.id AS id, c.name AS name, c.kind AS kind,
		       c.parent_topic AS parent_topic, c.keywords AS keywords,
		       c.description AS description
		ORDER BY c.id`, nil)
	if err != nil {
		return nil, fmt.Errorf("neo4j loader: fetch nodes: %w", err)
	}
	var nodes []Node
	for res.Next(ctx) {
		rec := res.Record()
		n := Node{
			ID:            recordString(rec, "id"),
			Name:          recordString(rec, "name"),
			Kind:          NodeKind(recordString(rec, "kind")),
			ParentTopicID: recordString(rec, "parent_topic"),
			Description:   recordString(rec, "description"),
		}
		if raw, ok := rec.Get("keywords"); ok {
			if list, ok := raw.([]any); ok {
				for _, item := range list {
					if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
						n.Keywords = append(n.Keywords, s)
					}
				}
			}
		}
		if n.Kind == "" {
			n.Kind = KindTopic
		}
		nodes = append(nodes, n)
	}
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("neo4j loader: iterate nodes: %w", err)
	}
	return nodes, nil
}

func (l *Neo4jLoader) loadEdges(ctx context.Context, session neo4j.SessionWithContext) ([]Edge, error) {
	res, err := session.Run(ctx, `
		MATCH (a:Concept)-[r]->(b:Concept)
		RETURN a.id AS source, b.id AS target, type(r) AS relation`, nil)
	if err != nil {
		return nil, fmt.Errorf("neo4j loader: fetch edges: %w", err)
	}
	var edges []Edge
	for res.Next(ctx) {
		rec := res.Record()
		edges = append(edges, Edge{
			Source:   recordString(rec, "source"),
			Target:   recordString(rec, "target"),
			Relation: Relation(strings.ToLower(recordString(rec, "relation"))),
		})
	}
	if err := res.Err(); err != nil {
		return nil, fmt.Errorf("neo4j loader: iterate edges: %w", err)
	}
	return edges, nil
}

func (l *Neo4jLoader) Close(ctx context.Context) error {
	if l == nil || l.Driver == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return l.Driver.Close(ctx)
}

func recordString(rec *neo4j.Record, key string) string {
	raw, ok := rec.Get(key)
	if !ok || raw == nil {
		return ""
	}
	if s, ok := raw.(string); ok {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(fmt.Sprint(raw))
}
