// Package registry holds the tools compiled into the binary and turns tool
// configuration into live tool instances.
//
// # Modules and Tools
//
// A Module is a compiled-in package that contributes one or more tools. Each
// module registers a named RegisteredTool: a description shown to the
// planner and a Factory that builds the tool from its configured settings.
//
// Registration happens once at startup. Instantiate then builds a Toolbox,
// the set of tools a session may call, from the `tool "<name>" {}` blocks of
// the configuration. A Toolbox is read-only after it is built and is safe
// for concurrent use by every worker of a round.
//
// # Arguments
//
// Tools receive their plan arguments as Args, a map of cty values keyed by
// argument name. Positional arguments arrive as arg0, arg1, and so on, so
// the typed accessors accept a list of names and use the first one present:
//
//	query, err := args.String("query", "arg0")
//
// The same accessors read factory settings.
package registry
