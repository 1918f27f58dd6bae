// Package windowing decides which part of a conversation is sent to the
// completion API when an input token budget is configured.
//
// Invariants:
//   - Leading system messages are always sent.
//   - A user message and the assistant reply that follows it form one group
//     and are kept or dropped together.
//   - The newest group (the message being answered) is always sent.
//
// A budget of zero or less disables windowing and the full list is sent.
package windowing
