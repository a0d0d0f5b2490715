// Package record defines the typed rows the engine operates on.
//
// Every row read from the store is mapped into one of these structs at the
// store boundary; the engine never inspects rows by column name. Nullable
// columns use database/sql null types so "absent" is an explicit state
// rather than a zero value.
package record
