// Package assistant answers questions about ingested sites.
//
// A Retriever embeds the question, looks up the most similar chunks and
// joins their text into a context block. The Assistant hands that context
// to the language model in one of two shapes:
//
//   - Query is single-shot. The question and the context are sent as
//     separate messages and the whole answer is returned.
//   - Chat is conversational. The context is embedded in a system prompt,
//     the user's earlier messages from the session are replayed, and the
//     answer is streamed. Both turns are then appended to the session.
package assistant
