package cache

import (
	"context"

	"recipebox/internal/models"
)

// Noop satisfies the user cache contract without storing anything.
// It is used when REDIS_URL is not configured.
type Noop struct{}

func (Noop) GetUser(context.Context, string) (*models.User, error) { return nil, nil }
func (Noop) SetUser(context.Context, *models.User) error           { return nil }
func (Noop) DeleteUser(context.Context, string) error              { return nil }
func (Noop) Ping(context.Context) error                            { return nil }
