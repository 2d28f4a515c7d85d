package services

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/sony/gobreaker"

	"taskflow/backend/logging"
)

// DependencyNode is a task as seen by the dependency graph.
type DependencyNode struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Blocked bool   `json:"blocked"`
}

// WorkflowService mirrors task dependencies into a Neo4j graph so that
// duplicate edges and cycles can be rejected cheaply.
type WorkflowService struct {
	Driver  neo4j.DriverWithContext
	Breaker *gobreaker.CircuitBreaker
}

func NewWorkflowService(driver neo4j.DriverWithContext, breaker *gobreaker.CircuitBreaker) *WorkflowService {
	return &WorkflowService{Driver: driver, Breaker: breaker}
}

// RegisterTask ensures a node exists for the task. Best effort: graph
// failures are logged, task creation does not depend on them.
func (s *WorkflowService) RegisterTask(ctx context.Context, taskID, title string) {
	if s == nil || s.Driver == nil {
		return
	}
	_, err := s.Breaker.Execute(func() (interface{}, error) {
		return nil, s.registerNode(ctx, taskID, title)
	})
	if err != nil {
		logging.Logger.Warnf("Event ID: GRAPH_REGISTER_FAILED, Description: Failed to register task %s in dependency graph: %v", taskID, err)
	}
}

func (s *WorkflowService) registerNode(ctx context.Context, taskID, title string) error {
	session := s.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MERGE (t:Task {id: $id})
			ON CREATE SET t.title = $title, t.blocked = false
		`
		_, err := tx.Run(ctx, query, map[string]any{"id": taskID, "title": title})
		return nil, err
	})
	return err
}

// UnregisterTask removes the task node and all its edges. Best effort.
func (s *WorkflowService) UnregisterTask(ctx context.Context, taskID string) {
	if s == nil || s.Driver == nil {
		return
	}
	_, err := s.Breaker.Execute(func() (interface{}, error) {
		session := s.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
		defer session.Close(ctx)

		return session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			_, err := tx.Run(ctx, `MATCH (t:Task {id: $id}) DETACH DELETE t`, map[string]any{"id": taskID})
			return nil, err
		})
	})
	if err != nil {
		logging.Logger.Warnf("Event ID: GRAPH_UNREGISTER_FAILED, Description: Failed to remove task %s from dependency graph: %v", taskID, err)
	}
}

// AddDependency records that taskID depends on dependsOnID. Duplicate
// edges and edges that would close a cycle are rejected.
func (s *WorkflowService) AddDependency(ctx context.Context, taskID, dependsOnID string) error {
	if s == nil || s.Driver == nil {
		return nil
	}
	_, err := s.Breaker.Execute(func() (interface{}, error) {
		if err := s.registerNode(ctx, taskID, ""); err != nil {
			return nil, err
		}
		if err := s.registerNode(ctx, dependsOnID, ""); err != nil {
			return nil, err
		}

		exists, err := s.dependencyExists(ctx, taskID, dependsOnID)
		if err != nil {
			return nil, fmt.Errorf("failed to check if dependency exists: %v", err)
		}
		if exists {
			return nil, fmt.Errorf("%w: dependency already exists", ErrConflict)
		}

		hasCycle, err := s.createsCycle(ctx, taskID, dependsOnID)
		if err != nil {
			return nil, fmt.Errorf("cycle detection failed: %v", err)
		}
		if hasCycle {
			return nil, fmt.Errorf("%w: cannot add dependency, cycle detected", ErrInvalidOperation)
		}

		session := s.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
		defer session.Close(ctx)

		return session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			query := `
				MATCH (to:Task {id: $taskId}), (from:Task {id: $dependsOnId})
				MERGE (to)-[:DEPENDS_ON]->(from)
				SET to.blocked = true
			`
			_, err := tx.Run(ctx, query, map[string]any{
				"taskId":      taskID,
				"dependsOnId": dependsOnID,
			})
			return nil, err
		})
	})
	return err
}

// RemoveDependency deletes the edge and clears the blocked flag when it
// was the last one.
func (s *WorkflowService) RemoveDependency(ctx context.Context, taskID, dependsOnID string) error {
	if s == nil || s.Driver == nil {
		return nil
	}
	_, err := s.Breaker.Execute(func() (interface{}, error) {
		session := s.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
		defer session.Close(ctx)

		return session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			query := `
				MATCH (to:Task {id: $taskId})-[r:DEPENDS_ON]->(from:Task {id: $dependsOnId})
				DELETE r
				WITH to
				OPTIONAL MATCH (to)-[remaining:DEPENDS_ON]->(:Task)
				WITH to, COUNT(remaining) AS remainingCount
				SET to.blocked = remainingCount > 0
			`
			_, err := tx.Run(ctx, query, map[string]any{
				"taskId":      taskID,
				"dependsOnId": dependsOnID,
			})
			return nil, err
		})
	})
	return err
}

// GetDependencies lists the tasks the given task depends on.
func (s *WorkflowService) GetDependencies(ctx context.Context, taskID string) ([]DependencyNode, error) {
	result, err := s.Breaker.Execute(func() (interface{}, error) {
		session := s.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
		defer session.Close(ctx)

		return session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
			query := `
				MATCH (to:Task {id: $taskId})-[:DEPENDS_ON]->(from:Task)
				RETURN from.id AS id, from.title AS title, from.blocked AS blocked
			`
			res, err := tx.Run(ctx, query, map[string]any{"taskId": taskID})
			if err != nil {
				return nil, err
			}

			dependencies := []DependencyNode{}
			for res.Next(ctx) {
				record := res.Record()
				node := DependencyNode{}
				if id, ok := record.Get("id"); ok && id != nil {
					node.ID, _ = id.(string)
				}
				if title, ok := record.Get("title"); ok && title != nil {
					node.Title, _ = title.(string)
				}
				if blocked, ok := record.Get("blocked"); ok && blocked != nil {
					node.Blocked, _ = blocked.(bool)
				}
				dependencies = append(dependencies, node)
			}
			return dependencies, res.Err()
		})
	})
	if err != nil {
		return nil, err
	}
	return result.([]DependencyNode), nil
}

func (s *WorkflowService) dependencyExists(ctx context.Context, taskID, dependsOnID string) (bool, error) {
	session := s.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (to:Task {id: $taskId})-[r:DEPENDS_ON]->(from:Task {id: $dependsOnId})
			RETURN COUNT(r) > 0 AS exists
		`
		res, err := tx.Run(ctx, query, map[string]any{
			"taskId":      taskID,
			"dependsOnId": dependsOnID,
		})
		if err != nil {
			return false, err
		}
		if res.Next(ctx) {
			return res.Record().Values[0].(bool), nil
		}
		return false, nil
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}

// createsCycle reports whether dependsOnID already (transitively) depends
// on taskID.
func (s *WorkflowService) createsCycle(ctx context.Context, taskID, dependsOnID string) (bool, error) {
	if taskID == dependsOnID {
		return true, nil
	}

	session := s.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		query := `
			MATCH (from:Task {id: $dependsOnId}), (to:Task {id: $taskId})
			RETURN EXISTS((from)-[:DEPENDS_ON*1..]->(to)) AS hasCycle
		`
		res, err := tx.Run(ctx, query, map[string]any{
			"taskId":      taskID,
			"dependsOnId": dependsOnID,
		})
		if err != nil {
			return false, err
		}
		if res.Next(ctx) {
			return res.Record().Values[0].(bool), nil
		}
		return false, nil
	})
	if err != nil {
		return false, err
	}
	return result.(bool), nil
}
