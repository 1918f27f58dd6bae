// Package chat turns one user message into one completed exchange.
//
// Flow per turn:
//
//	settings.Save(toggle) -> [system, (user, assistant)*, user] -> Completer -> append -> contexts.Save
//
// Invariants:
//   - Blank messages are a no-op: no provider call and no file writes.
//   - Provider failures become an assistant reply prefixed "Error: ", marked
//     Failed, and kept in memory only. Later saves skip them.
//   - Turns are synchronous. There are no retries.
package chat
