// Package runner drives the tool-calling conversation loop.
//
// A turn loads the conversation from memory, appends the incoming user
// message, and alternates between model decisions and tool execution until
// the model answers without requesting tools. Tool results for one decision
// go back as a single user message holding tool_result blocks in request
// order. History is trimmed after each tool round and once more before the
// final write-back, so stored conversations never exceed the cap.
package runner
