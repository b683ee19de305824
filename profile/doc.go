// Package profile stores one profile document per user.
//
// [SQLiteStore] is the document engine; [FileStore] is the JSON-file fallback.
// Upsert is a shallow merge: supplied fields overwrite, everything else keeps
// its stored value, and a first write creates the document with created_at
// equal to updated_at.
//
// Delete is an optional capability ([Deleter]) that only the file fallback
// provides. Callers must type-assert for it rather than assume it.
package profile
