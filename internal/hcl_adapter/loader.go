package hcl_adapter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/burstplan/internal/config"
	"github.com/specialistvlad/burstplan/internal/ctxlog"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

var _ config.Loader = (*Loader)(nil)

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads every .hcl file under the given paths, in order, on top of
// config.Default. Later files override engine and backend attributes they
// set; tool blocks accumulate.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	model := config.Default()

	hclFiles, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(hclFiles))

	parser := hclparse.NewParser()
	evalCtx := newEvalContext()

	for _, file := range hclFiles {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &root)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}
		if err := checkRemain(root.Remain); err != nil {
			return nil, fmt.Errorf("in %s: %w", file, err)
		}

		if root.Engine != nil {
			applyEngine(&model.Engine, root.Engine)
		}
		if root.Planner != nil {
			if err := applyBackend(&model.Planner, root.Planner); err != nil {
				return nil, fmt.Errorf("planner block: %w", err)
			}
		}
		if root.Joiner != nil {
			if err := applyBackend(&model.Joiner, root.Joiner); err != nil {
				return nil, fmt.Errorf("joiner block: %w", err)
			}
		}
		for _, tb := range root.Tools {
			tool, err := translateTool(ctx, evalCtx, tb)
			if err != nil {
				return nil, err
			}
			model.Tools = append(model.Tools, tool)
		}
	}

	logger.Debug("HCL loading complete.",
		"files", len(hclFiles),
		"max_rounds", model.Engine.MaxRounds,
		"workers", model.Engine.Workers,
		"tools", len(model.Tools),
	)
	return model, nil
}

// checkRemain rejects anything left over after decoding: unknown blocks and
// top-level attributes both land in the remain body.
func checkRemain(body hcl.Body) error {
	if body == nil {
		return nil
	}
	attrs, diags := body.JustAttributes()
	if diags.HasErrors() {
		return diags
	}
	for name, attr := range attrs {
		return fmt.Errorf("%s: unexpected top-level attribute %q", attr.NameRange, name)
	}
	return nil
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl files found.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})

	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue // It's not an error if a configured path doesn't exist.
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			if filepath.Ext(path) == ".hcl" {
				add(path)
			}
			continue
		}
		err = filepath.Walk(path, func(p string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && filepath.Ext(p) == ".hcl" {
				add(p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return allFiles, nil
}
