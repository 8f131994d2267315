// Package service implements the tool provider registry: discovery,
// lookup, and dispatch of tool calls onto registered providers.
package service
