// Package workspace wires a backing store from config to a staged
// [filesystem.FileSystem] and applies plans to it
package workspace

import (
	"context"
	"fmt"
	"time"

	"github.com/brettbedarf/stagefs"
	"github.com/brettbedarf/stagefs/adapters"
	"github.com/brettbedarf/stagefs/config"
	"github.com/brettbedarf/stagefs/filesystem"
	"github.com/brettbedarf/stagefs/internal/util"
)

// Workspace contains the staged file system and the store it commits to
type Workspace struct {
	*filesystem.FileSystem
	cfg   *config.Config
	store stagefs.BackingStore
}

// ApplyOptions tunes [Workspace.Apply]
type ApplyOptions struct {
	NoSave bool // Leave queued operations pending after the last step
}

// Summary reports what [Workspace.Apply] did
type Summary struct {
	Steps   int           // steps applied successfully
	Saved   bool          // whether the final save of "/" ran
	Elapsed time.Duration // wall time of the whole plan
}

// New creates a Workspace given your config, building the store through
// registry
func New(cfg *config.Config, registry *adapters.Registry) (*Workspace, error) {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	store, err := registry.NewStore(&cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("create %s store: %w", cfg.Store.Type, err)
	}
	return NewWithStore(cfg, store), nil
}

// NewWithStore creates a Workspace over an existing store
func NewWithStore(cfg *config.Config, store stagefs.BackingStore) *Workspace {
	if cfg == nil {
		cfg = config.NewDefaultConfig()
	}
	return &Workspace{
		FileSystem: filesystem.New(cfg, store),
		cfg:        cfg,
		store:      store,
	}
}

// Store returns the backing store the workspace commits to
func (w *Workspace) Store() stagefs.BackingStore {
	return w.store
}

// Apply runs steps in order and then saves "/" unless opts.NoSave is set.
// It stops at the first failing step; steps already applied stay applied and
// anything they queued stays queued.
func (w *Workspace) Apply(ctx context.Context, steps []*stagefs.StepRequest, opts ApplyOptions) (Summary, error) {
	logger := util.GetLogger("Workspace.Apply")
	start := time.Now()

	var summary Summary
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := w.ApplyStep(ctx, step); err != nil {
			logger.Error().Err(err).Str("id", step.ID).Str("kind", string(step.Kind)).Msg("Step failed")
			return summary, fmt.Errorf("step %s (%s %s): %w", step.ID, step.Kind, step.Path, err)
		}
		summary.Steps++
	}

	if !opts.NoSave {
		if err := w.SaveForDirectory(ctx, "/"); err != nil {
			return summary, fmt.Errorf("final save: %w", err)
		}
		summary.Saved = true
	}
	summary.Elapsed = time.Since(start)
	logger.Info().
		Int("steps", summary.Steps).
		Bool("saved", summary.Saved).
		Dur("took", summary.Elapsed).
		Msg("Applied plan")
	return summary, nil
}

// ApplyStep maps a single step onto the file system
func (w *Workspace) ApplyStep(ctx context.Context, step *stagefs.StepRequest) error {
	logger := util.GetLogger("Workspace.ApplyStep")
	logger.Debug().
		Str("id", step.ID).
		Str("kind", string(step.Kind)).
		Str("path", step.Path).
		Str("dest", step.Dest).
		Bool("immediate", step.Immediate).
		Msg("Applying step")

	switch step.Kind {
	case stagefs.MkdirStep:
		w.QueueMkdir(step.Path)
		return nil
	case stagefs.DeleteFileStep:
		if step.Immediate {
			return w.DeleteFileImmediately(ctx, step.Path)
		}
		return w.QueueFileDelete(step.Path)
	case stagefs.DeleteDirStep:
		if step.Immediate {
			return w.DeleteDirectoryImmediately(ctx, step.Path)
		}
		return w.QueueDirectoryDelete(step.Path)
	case stagefs.CopyDirStep:
		if step.Immediate {
			return w.CopyDirectoryImmediately(ctx, step.Path, step.Dest)
		}
		return w.QueueCopyDirectory(step.Path, step.Dest)
	case stagefs.MoveDirStep:
		if step.Immediate {
			return w.MoveDirectoryImmediately(ctx, step.Path, step.Dest)
		}
		return w.QueueMoveDirectory(step.Path, step.Dest)
	case stagefs.WriteFileStep:
		return w.WriteFile(ctx, step.Path, step.Text)
	case stagefs.MoveFileStep:
		text := step.Text
		if text == "" {
			// carry the current contents over
			var err error
			if text, err = w.ReadFile(ctx, step.Path); err != nil {
				return err
			}
		}
		return w.MoveFileImmediately(ctx, step.Path, step.Dest, text)
	case stagefs.SaveStep:
		return w.SaveForDirectory(ctx, step.Path)
	default:
		return fmt.Errorf("unknown step kind %q", step.Kind)
	}
}
