// Package tools provides built-in tool implementations for MCP servers
// built on this module.
//
// Use [RegisterAll] to register the core tools:
//
//	tools.RegisterAll(registry)
package tools
