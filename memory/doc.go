// Package memory holds the conversation data model and the two JSON-backed
// stores that survive a restart.
//
// Persistence model:
//   - SettingsStore owns a single preference: whether context persistence is on.
//   - ContextStore owns the recent History, capped to a fixed window of exchanges.
//   - Every ContextStore read and write consults SettingsStore first, so the
//     persisted toggle is authoritative over any flag a caller has cached.
//   - Exchanges marked Failed live in memory only and are never written.
//   - Files are replaced wholesale on every write; there are no partial updates.
//
// Store methods never log. Failures come back as errors alongside a value that
// is always safe to use (the default setting, or an empty History).
package memory
