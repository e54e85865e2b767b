package weaviate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/tagus/trailhound/pkg/graph"
)

var nodeFields = []graphql.Field{
	{Name: "nodeId"},
	{Name: "value"},
	{Name: "label"},
	{Name: "nodeType"},
	{Name: "status"},
	{Name: "projectId"},
	{Name: "edges"},
	{Name: "createdAt"},
	{Name: "updatedAt"},
}

// PutNode inserts or replaces a whole node document.
func (s *Store) PutNode(ctx context.Context, node graph.Node) error {
	if err := graph.ValidateNode(&node); err != nil {
		return err
	}

	// Replace an existing document for the same node id.
	if uuid := s.findUUID(ctx, node.ID, node.ProjectID); uuid != "" {
		props, err := nodeProperties(&node)
		if err != nil {
			return err
		}
		if err := s.client.Data().Updater().
			WithClassName(s.getNodeClassName()).
			WithID(uuid).
			WithProperties(props).
			Do(ctx); err != nil {
			return fmt.Errorf("failed to update node %s: %w", node.ID, err)
		}
		return nil
	}

	props, err := nodeProperties(&node)
	if err != nil {
		return err
	}

	_, err = s.client.Data().Creator().
		WithClassName(s.getNodeClassName()).
		WithProperties(props).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to store node %s: %w", node.ID, err)
	}
	return nil
}

// QueryNodesWithEdges returns every project node holding at least one edge.
func (s *Store) QueryNodesWithEdges(ctx context.Context, projectID string) ([]graph.Node, error) {
	filter := filters.Where().
		WithOperator(filters.And).
		WithOperands([]*filters.WhereBuilder{
			filters.Where().
				WithPath([]string{"projectId"}).
				WithOperator(filters.Equal).
				WithValueString(projectID),
			filters.Where().
				WithPath([]string{"hasEdges"}).
				WithOperator(filters.Equal).
				WithValueBoolean(true),
		})

	result, err := s.client.GraphQL().Get().
		WithClassName(s.getNodeClassName()).
		WithFields(nodeFields...).
		WithWhere(filter).
		WithLimit(10000).
		Do(ctx)
	if err != nil {
		s.logger.Error(ctx, "QueryNodesWithEdges failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("failed to query nodes: %w", err)
	}

	return parseNodeResults(result, s.getNodeClassName()), nil
}

// QueryEvidenceNodesReferencing returns the evidence (source-result)
// nodes whose edges reference the given target node id. Weaviate cannot
// filter inside the serialized edge list, so the edge match happens
// client-side over the project's evidence class.
func (s *Store) QueryEvidenceNodesReferencing(ctx context.Context, projectID string, targetID string) ([]graph.Node, error) {
	filter := filters.Where().
		WithOperator(filters.And).
		WithOperands([]*filters.WhereBuilder{
			filters.Where().
				WithPath([]string{"projectId"}).
				WithOperator(filters.Equal).
				WithValueString(projectID),
			filters.Where().
				WithPath([]string{"nodeType"}).
				WithOperator(filters.Equal).
				WithValueString(graph.NodeTypeSourceResult),
		})

	result, err := s.client.GraphQL().Get().
		WithClassName(s.getNodeClassName()).
		WithFields(nodeFields...).
		WithWhere(filter).
		WithLimit(10000).
		Do(ctx)
	if err != nil {
		s.logger.Error(ctx, "QueryEvidenceNodesReferencing failed", map[string]interface{}{
			"targetId": targetID,
			"error":    err.Error(),
		})
		return nil, fmt.Errorf("failed to query evidence nodes: %w", err)
	}

	evidence := []graph.Node{}
	for _, node := range parseNodeResults(result, s.getNodeClassName()) {
		if graph.FindEdge(&node, targetID) != nil {
			evidence = append(evidence, node)
		}
	}
	return evidence, nil
}

// GetNodeByValue resolves a node by its canonical value.
func (s *Store) GetNodeByValue(ctx context.Context, projectID string, value string) (*graph.Node, error) {
	filter := filters.Where().
		WithOperator(filters.And).
		WithOperands([]*filters.WhereBuilder{
			filters.Where().
				WithPath([]string{"projectId"}).
				WithOperator(filters.Equal).
				WithValueString(projectID),
			filters.Where().
				WithPath([]string{"value"}).
				WithOperator(filters.Equal).
				WithValueString(value),
		})

	result, err := s.client.GraphQL().Get().
		WithClassName(s.getNodeClassName()).
		WithFields(nodeFields...).
		WithWhere(filter).
		WithLimit(1).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get node by value: %w", err)
	}

	nodes := parseNodeResults(result, s.getNodeClassName())
	if len(nodes) == 0 {
		return nil, graph.ErrNodeNotFound
	}
	return &nodes[0], nil
}

// UpdateNode applies a partial update to one node document.
func (s *Store) UpdateNode(ctx context.Context, nodeID string, patch graph.NodePatch) error {
	if nodeID == "" {
		return graph.ErrInvalidNodeID
	}

	uuid := s.findUUID(ctx, nodeID, "")
	if uuid == "" {
		return graph.ErrNodeNotFound
	}

	props := map[string]interface{}{
		"updatedAt": time.Now().Format(time.RFC3339),
	}
	if patch.Edges != nil {
		data, err := json.Marshal(*patch.Edges)
		if err != nil {
			return fmt.Errorf("failed to serialize edges for node %s: %w", nodeID, err)
		}
		props["edges"] = string(data)
		props["hasEdges"] = len(*patch.Edges) > 0
	}
	if patch.Label != nil {
		props["label"] = *patch.Label
	}
	if patch.Status != nil {
		props["status"] = string(*patch.Status)
	}

	if err := s.client.Data().Updater().
		WithClassName(s.getNodeClassName()).
		WithID(uuid).
		WithProperties(props).
		WithMerge().
		Do(ctx); err != nil {
		return fmt.Errorf("failed to update node %s: %w", nodeID, err)
	}
	return nil
}

// findUUID resolves the Weaviate object id for a node id.
func (s *Store) findUUID(ctx context.Context, nodeID, projectID string) string {
	operands := []*filters.WhereBuilder{
		filters.Where().
			WithPath([]string{"nodeId"}).
			WithOperator(filters.Equal).
			WithValueString(nodeID),
	}
	if projectID != "" {
		operands = append(operands, filters.Where().
			WithPath([]string{"projectId"}).
			WithOperator(filters.Equal).
			WithValueString(projectID))
	}

	filter := operands[0]
	if len(operands) > 1 {
		filter = filters.Where().WithOperator(filters.And).WithOperands(operands)
	}

	result, err := s.client.GraphQL().Get().
		WithClassName(s.getNodeClassName()).
		WithFields(graphql.Field{Name: "_additional", Fields: []graphql.Field{{Name: "id"}}}).
		WithWhere(filter).
		WithLimit(1).
		Do(ctx)
	if err != nil {
		s.logger.Debug(ctx, "UUID lookup failed", map[string]interface{}{
			"nodeId": nodeID,
			"error":  err.Error(),
		})
		return ""
	}

	if result.Data == nil {
		return ""
	}
	getData, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return ""
	}
	classData, ok := getData[s.getNodeClassName()].([]interface{})
	if !ok || len(classData) == 0 {
		return ""
	}
	itemMap, ok := classData[0].(map[string]interface{})
	if !ok {
		return ""
	}
	additional, ok := itemMap["_additional"].(map[string]interface{})
	if !ok {
		return ""
	}
	id, _ := additional["id"].(string)
	return id
}

// nodeProperties serializes a node into Weaviate object properties.
func nodeProperties(node *graph.Node) (map[string]interface{}, error) {
	now := time.Now()
	if node.CreatedAt.IsZero() {
		node.CreatedAt = now
	}
	node.UpdatedAt = now

	edgesJSON := "[]"
	if len(node.Edges) > 0 {
		data, err := json.Marshal(node.Edges)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize edges for node %s: %w", node.ID, err)
		}
		edgesJSON = string(data)
	}

	return map[string]interface{}{
		"nodeId":    node.ID,
		"value":     node.Value,
		"label":     node.Label,
		"nodeType":  node.Type,
		"status":    string(node.Status),
		"projectId": node.ProjectID,
		"edges":     edgesJSON,
		"hasEdges":  len(node.Edges) > 0,
		"createdAt": node.CreatedAt.Format(time.RFC3339),
		"updatedAt": node.UpdatedAt.Format(time.RFC3339),
	}, nil
}

// parseNodeResults parses a GraphQL response into a Node slice.
func parseNodeResults(result *models.GraphQLResponse, className string) []graph.Node {
	nodes := []graph.Node{}

	if result == nil || result.Data == nil {
		return nodes
	}
	getData, ok := result.Data["Get"].(map[string]interface{})
	if !ok {
		return nodes
	}
	classData, ok := getData[className].([]interface{})
	if !ok {
		return nodes
	}

	for _, item := range classData {
		itemMap, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		nodes = append(nodes, parseNodeFromMap(itemMap))
	}
	return nodes
}

func parseNodeFromMap(itemMap map[string]interface{}) graph.Node {
	node := graph.Node{}

	if v, ok := itemMap["nodeId"].(string); ok {
		node.ID = v
	}
	if v, ok := itemMap["value"].(string); ok {
		node.Value = v
	}
	if v, ok := itemMap["label"].(string); ok {
		node.Label = v
	}
	if v, ok := itemMap["nodeType"].(string); ok {
		node.Type = v
	}
	if v, ok := itemMap["status"].(string); ok {
		node.Status = graph.VerificationStatus(v)
	}
	if v, ok := itemMap["projectId"].(string); ok {
		node.ProjectID = v
	}
	if v, ok := itemMap["edges"].(string); ok && v != "" {
		if err := json.Unmarshal([]byte(v), &node.Edges); err != nil {
			node.Edges = nil
		}
	}
	if v, ok := itemMap["createdAt"].(string); ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			node.CreatedAt = t
		}
	}
	if v, ok := itemMap["updatedAt"].(string); ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			node.UpdatedAt = t
		}
	}
	return node
}
