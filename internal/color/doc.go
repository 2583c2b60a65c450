// Package color holds the semantic palette shared by the terminal dashboard.
//
// Colors are adaptive: each carries a light and a dark variant and lipgloss
// picks one from the detected terminal background. Initialize or Apply
// override the detection when the operator knows better.
//
// Semantic categories:
//   - Text and Surface: foreground and background of headers
//   - Success: running stack, passing checks
//   - Warning: degraded states and non-fatal problems
//   - Error: failures
//   - Info: status messages
//   - Muted: de-emphasized text such as command output
package color
