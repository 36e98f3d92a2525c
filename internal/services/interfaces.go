package services

import (
	"context"

	"github.com/nexconsult/detran-api/internal/models"
)

// VehicleServiceInterface defines the vehicle consultation contract
type VehicleServiceInterface interface {
	// Consultar runs one plate query end to end: validation, session,
	// submission, content wait, extraction and assembly. The returned
	// diagnostics are operator-facing trace messages for the run.
	Consultar(ctx context.Context, plate string) (*models.VehicleResponse, Diagnostics, error)

	// Health returns service health status
	Health() map[string]interface{}

	// Close releases service resources
	Close() error
}

// CacheServiceInterface defines caching operations
type CacheServiceInterface interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	Clear(ctx context.Context) error
	GetStats(ctx context.Context) (map[string]interface{}, error)
	Health() map[string]interface{}
	StartCleanupRoutine()
}
