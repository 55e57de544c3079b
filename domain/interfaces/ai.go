package interfaces

import (
	"context"

	"page_capture/domain/entities"
)

// Generator turns an ordered multi-page element context into test code
type Generator interface {
	// Generate produces the requested artifacts for the pages in request order
	Generate(ctx context.Context, req entities.GenerationRequest) (entities.GeneratedCode, error)
}
