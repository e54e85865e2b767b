// Package multitenancy carries the investigation project id on the
// request context so stores and executors stay scoped to one case.
package multitenancy

import (
	"context"
	"errors"
)

type contextKey string

const projectIDKey contextKey = "project_id"

// ErrNoProjectID is returned when the context carries no project id.
var ErrNoProjectID = errors.New("no project ID found in context")

// WithProjectID returns a context scoped to the given project.
func WithProjectID(ctx context.Context, projectID string) context.Context {
	return context.WithValue(ctx, projectIDKey, projectID)
}

// GetProjectID extracts the project id from the context.
func GetProjectID(ctx context.Context) (string, error) {
	projectID, ok := ctx.Value(projectIDKey).(string)
	if !ok || projectID == "" {
		return "", ErrNoProjectID
	}
	return projectID, nil
}
