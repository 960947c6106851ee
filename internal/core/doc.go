// Package core provides the business logic for translation management.
//
// This package is the heart of polyglot, containing all domain logic
// independent of any transport layer. It can be used by web handlers,
// CLI tools, or tests without modification.
//
// # Architecture
//
// The package is organized around several key concepts:
//
//   - Projects and Languages: the namespaces translations live in.
//   - Key Registry: typed translation slots per project. A key is either
//     a string key or a list key, and that type stays stable.
//   - Translations: the current value of a key in one language.
//   - Suggestions: community proposals that a moderator approves or
//     rejects exactly once.
//   - Audit: an append-only trail written in the same transaction as the
//     change it describes.
//
// All operations hang off [Service], which owns a [store.DB] injected by
// the caller.
//
// # Values
//
// A translation value is a [Value]: either a single string or an ordered
// list of strings. Values are stored as canonical JSON text (a JSON string
// or a JSON array of strings) by one codec shared by translations,
// suggestions and audit rows.
//
// # Bulk Import
//
// [Service.BulkImport] merges a flat dotted-path document into a project:
//
//  1. Entries are processed in sorted key order; null values are skipped
//  2. The value shape (string or list) is inferred per entry
//  3. Missing keys are created with the inferred type
//  4. A shape that contradicts an existing key type aborts the whole batch
//     with KEY_TYPE_MISMATCH
//  5. Every written translation gets an IMPORT_BULK audit row
//
// [Service.ImportYAML] parses and flattens a nested YAML document first.
//
// # Error Handling
//
// Domain failures are returned as [*Error] values carrying a [Kind] and a
// stable code, and match the sentinels ([ErrNotFound], [ErrNotPending],
// [ErrKeyTypeMismatch], [ErrDuplicateSlug], [ErrInvalid], [ErrBusy]) with
// errors.Is.
// [MapError] maps any error to a user-facing message with a support code.
package core
