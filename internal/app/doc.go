// Package app contains the core application logic. It wires configuration,
// logging, the tool registry and the language-model collaborators into a
// session factory, and runs one query to completion, decoupled from any
// specific entrypoint like a CLI or server.
package app
