package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Engine  *EngineBlock  `hcl:"engine,block"`
	Planner *BackendBlock `hcl:"planner,block"`
	Joiner  *BackendBlock `hcl:"joiner,block"`
	Tools   []*ToolBlock  `hcl:"tool,block"`
	Remain  hcl.Body      `hcl:",remain"`
}

// EngineBlock is the `engine { ... }` block. Unset attributes keep the
// value from earlier files or the defaults.
type EngineBlock struct {
	MaxRounds *int  `hcl:"max_rounds,optional"`
	Workers   *int  `hcl:"workers,optional"`
	TextOnly  *bool `hcl:"text_only,optional"`
}

// BackendBlock is a `planner { ... }` or `joiner { ... }` block.
type BackendBlock struct {
	Backend     *string   `hcl:"backend,optional"`
	Model       *string   `hcl:"model,optional"`
	BaseURL     *string   `hcl:"base_url,optional"`
	Temperature *float64  `hcl:"temperature,optional"`
	MaxTokens   *int      `hcl:"max_tokens,optional"`
	Timeout     *string   `hcl:"timeout,optional"`
	DefRange    hcl.Range `hcl:",def_range"`
}

// ToolBlock is a `tool "<name>" { ... }` block. Its attributes are free-form
// and interpreted by the tool's factory.
type ToolBlock struct {
	Name     string    `hcl:"name,label"`
	Body     hcl.Body  `hcl:",remain"`
	DefRange hcl.Range `hcl:",def_range"`
}
