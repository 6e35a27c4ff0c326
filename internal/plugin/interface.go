package plugin

import (
	"context"

	"github.com/alexisbeaulieu97/devstrap/internal/config"
	"github.com/alexisbeaulieu97/devstrap/internal/model"
)

// Plugin implements one step type.
//
// Evaluate is the step's probe. It MUST NOT mutate the host and must be safe
// to call any number of times; results are never cached between calls.
//
// Apply is the step's mutator. The engine only calls it when Evaluate
// reported RequiresAction, passing that result so InternalData computed by
// the probe can be reused.
type Plugin interface {
	PluginMetadata() PluginMetadata
	Evaluate(ctx context.Context, step *config.Step) (*model.EvaluationResult, error)
	Apply(ctx context.Context, eval *model.EvaluationResult, step *config.Step) error
}
