// Package logger is a standardized event logging framework for the expansion
// engine and the tools driving it. Events are protobuf Structs written as
// newline delimited JSON.
package logger
