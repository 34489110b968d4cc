// Package hcl_adapter implements config.Loader for HCL files.
//
// A configuration is any number of .hcl files; directories are walked
// recursively. Four block types are understood:
//
//	engine  { max_rounds = 3  workers = 8  text_only = false }
//	planner { backend = "openai"  model = "gpt-4o"  temperature = 0 }
//	joiner  { backend = "anthropic"  model = "claude-sonnet-4-5"  timeout = "60s" }
//	tool "search" { max_results = 2 }
//
// Tool block attributes are free-form. They are evaluated to cty values with
// a small function library (env, upper, lower, format, join, jsonencode, ...)
// and handed to the tool's factory unchanged.
package hcl_adapter
