// Package firmfuzz provides the command-line interface for the firmfuzz
// tool. It configures subcommands (fuzz, analyze, refine, etc.), parses
// flags, and executes the selected command.
//
// Typical usage from a main package:
//
//	package main
//	import "github.com/firmfuzz/firmfuzz/cmd/firmfuzz"
//	func main() { firmfuzz.Execute() }
package firmfuzz
