// Package emit writes customized templates back to disk: validated file
// operations, dry-run support, a line diff for reviewing overwrites, and
// conflict resolution strategies for files that already exist.
package emit

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Operation is a file-system write that can be validated before execution.
//
// Validate checks whether the operation would succeed; force=true skips
// conflict checks. Execute performs it and should only run after Validate.
// Description is a human-readable summary for CLI output.
type Operation interface {
	Validate(ctx context.Context, force bool) error
	Execute(ctx context.Context) error
	Description() string
}

// WriteTemplateOp writes one customized template.
type WriteTemplateOp struct {
	Path    string
	Content []byte
	Mode    fs.FileMode // defaults to 0644
}

func (op *WriteTemplateOp) Validate(ctx context.Context, force bool) error {
	if op.Path == "" {
		return fmt.Errorf("template write has no target path")
	}
	if op.Content == nil {
		return fmt.Errorf("template %s has no content", filepath.Base(op.Path))
	}

	if info, err := os.Stat(op.Path); err == nil {
		if info.IsDir() {
			return fmt.Errorf("output path %s is a directory", op.Path)
		}
		if !force {
			return fmt.Errorf("file already exists: %s", op.Path)
		}
	}

	dir := filepath.Dir(op.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("cannot create output directory %s: %w", dir, err)
	}
	return nil
}

func (op *WriteTemplateOp) Execute(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(op.Path), 0755); err != nil {
		return err
	}
	mode := op.Mode
	if mode == 0 {
		mode = 0644
	}
	return os.WriteFile(op.Path, op.Content, mode)
}

func (op *WriteTemplateOp) Description() string {
	return fmt.Sprintf("Write template %s (%d bytes)", op.Path, len(op.Content))
}

// ExecuteOptions configures Execute behavior.
type ExecuteOptions struct {
	DryRun   bool
	Force    bool
	Resolver *Resolver // consulted for existing files when set
	Writer   io.Writer // defaults to os.Stdout
}

// Execute validates every operation first, then executes (or reports, in
// dry-run mode) each one in order. When a Resolver is set, write operations
// targeting existing files are resolved per file instead of failing
// validation outright.
func Execute(ctx context.Context, ops []Operation, opts ExecuteOptions) error {
	if opts.Writer == nil {
		opts.Writer = os.Stdout
	}

	force := opts.Force || opts.Resolver != nil
	for _, op := range ops {
		if err := op.Validate(ctx, force); err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
	}

	for _, op := range ops {
		if opts.DryRun {
			fmt.Fprintf(opts.Writer, "· [dry run] %s\n", op.Description())
			continue
		}

		if write, ok := op.(*WriteTemplateOp); ok && opts.Resolver != nil {
			skip, err := resolveWrite(write, opts.Resolver, opts.Writer)
			if err != nil {
				return err
			}
			if skip {
				continue
			}
		}

		if err := op.Execute(ctx); err != nil {
			return fmt.Errorf("execution failed: %w", err)
		}
		fmt.Fprintf(opts.Writer, "✓ %s\n", op.Description())
	}
	return nil
}

// resolveWrite asks the resolver what to do when the target file already
// exists. It reports whether the operation should be skipped.
func resolveWrite(op *WriteTemplateOp, r *Resolver, w io.Writer) (bool, error) {
	existing, err := os.ReadFile(op.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("cannot read %s: %w", op.Path, err)
	}

	resolution, err := r.ResolveConflict(op.Path, existing, op.Content)
	if err != nil {
		return false, err
	}
	switch resolution {
	case Overwrite:
		return false, nil
	case Skip:
		fmt.Fprintf(w, "- skipped %s (file exists)\n", op.Path)
		return true, nil
	default:
		return false, fmt.Errorf("canceled at %s", op.Path)
	}
}
