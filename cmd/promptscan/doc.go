// Package promptscan provides the command-line interface for the promptscan
// engine. It wires configuration layers, logging and the optional entity
// recognizer into the engine, then renders scan results.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/redactyl/promptscan/cmd/promptscan"
//	func main() { promptscan.Execute() }
package promptscan
