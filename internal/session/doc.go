// Package session keeps chat histories in memory.
//
// A Store maps session IDs to the messages exchanged so far. Sessions
// expire after a period without use, the least recently used session is
// evicted when the store is full, and each history is capped to its most
// recent messages. Run removes expired sessions in the background.
package session
