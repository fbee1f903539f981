// Package buildsys implements the release pipeline for extension projects: a fixed list of
// timed stages that lint, fetch, minify, copy and package the sources below src/.
// File matching and command execution go through mvdan.cc/sh so patterns and linter
// invocations behave the same on every platform.
package buildsys
