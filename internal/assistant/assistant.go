package assistant

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/nao1215/sitechat/internal/llm"
	"github.com/nao1215/sitechat/internal/model"
	"github.com/nao1215/sitechat/internal/session"
)

// Kinds of answered requests reported to an Observer.
const (
	KindQuery = "query"
	KindChat  = "chat"
)

// querySystemPrompt opens every single-shot query.
const querySystemPrompt = "You are a helpful assistant."

// chatPromptTemplate is the system prompt of a chat turn. %s is replaced by
// the retrieved context.
const chatPromptTemplate = `You are a support assistant for the website the context below was taken from.
You are knowledgeable, friendly and concise, and you answer in the language of the question.
START CONTEXT BLOCK
%s
END OF CONTEXT BLOCK
Take into account any CONTEXT BLOCK provided in the conversation.
If the context does not provide the answer to the question, say "I'm sorry, but I don't know the answer to that question".
Do not apologize for previous responses; say that new information was gained instead.
Do not invent anything that is not drawn directly from the context.`

// ChatPrompt returns the system prompt for a chat turn with the given
// context.
func ChatPrompt(contextText string) string {
	return fmt.Sprintf(chatPromptTemplate, contextText)
}

// Observer is notified after every answered request.
type Observer interface {
	Answered(kind string, sources int)
}

// Answer is the reply to a question.
type Answer struct {
	Response string        `json:"response"`
	Sources  []model.Match `json:"sources"`
}

// ChatReply is the result of one chat turn. The reply text itself has
// been streamed to the caller's writer.
type ChatReply struct {
	SessionID string
	Response  string
	Sources   []model.Match
}

// Assistant answers questions with retrieved context.
type Assistant struct {
	retriever *Retriever
	completer llm.Completer
	sessions  *session.Store
	observer  Observer
	logger    *slog.Logger
}

// Option configures an Assistant.
type Option func(*Assistant)

// WithSessionStore sets the store that holds chat histories.
func WithSessionStore(store *session.Store) Option {
	return func(a *Assistant) {
		a.sessions = store
	}
}

// WithObserver registers an observer for answered requests.
func WithObserver(o Observer) Option {
	return func(a *Assistant) {
		a.observer = o
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Assistant) {
		a.logger = logger
	}
}

// New creates an Assistant. Without WithSessionStore a default store is used.
func New(retriever *Retriever, completer llm.Completer, opts ...Option) *Assistant {
	a := &Assistant{
		retriever: retriever,
		completer: completer,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.sessions == nil {
		a.sessions = session.NewStore()
	}

	return a
}

// Sessions returns the session store used for chats.
func (a *Assistant) Sessions() *session.Store {
	return a.sessions
}

// Query answers a single question. The model receives the system prompt,
// the question and the retrieved context, in that order.
func (a *Assistant) Query(ctx context.Context, question string) (*Answer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	retrieved, err := a.retriever.Retrieve(ctx, question)
	if err != nil {
		return nil, err
	}

	msgs := []model.Message{
		{Role: model.RoleSystem, Content: querySystemPrompt},
		{Role: model.RoleUser, Content: question},
		{Role: model.RoleSystem, Content: retrieved.Text},
	}

	response, err := a.completer.Complete(ctx, msgs)
	if err != nil {
		return nil, fmt.Errorf("failed to answer question: %w", err)
	}

	a.logger.Debug("query answered", "sources", len(retrieved.Sources))
	a.notify(KindQuery, len(retrieved.Sources))

	return &Answer{Response: response, Sources: retrieved.Sources}, nil
}

// Chat answers message within session sessionID and streams the reply to
// w. An empty or unknown sessionID starts a new session; the ID in use is
// returned in the reply. Only the user's earlier messages are replayed to
// the model. The session is updated only when the reply completed.
func (a *Assistant) Chat(ctx context.Context, sessionID, message string, w io.Writer) (*ChatReply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyQuestion
	}

	sessionID, history := a.sessions.Resume(sessionID)

	retrieved, err := a.retriever.Retrieve(ctx, message)
	if err != nil {
		return nil, err
	}

	userMsg := model.Message{Role: model.RoleUser, Content: message}
	earlier := model.UserMessages(history)

	msgs := make([]model.Message, 0, len(earlier)+2)
	msgs = append(msgs, model.Message{Role: model.RoleSystem, Content: ChatPrompt(retrieved.Text)})
	msgs = append(msgs, earlier...)
	msgs = append(msgs, userMsg)

	response, err := a.completer.Stream(ctx, msgs, w)
	if err != nil {
		return nil, fmt.Errorf("failed to answer chat message: %w", err)
	}

	if err := a.sessions.Append(sessionID, userMsg, model.Message{Role: model.RoleAssistant, Content: response}); err != nil {
		// The session expired or was evicted while the model was answering.
		a.logger.Warn("failed to record chat turn", "session_id", sessionID, "error", err)
	}

	a.logger.Debug("chat answered", "session_id", sessionID, "sources", len(retrieved.Sources))
	a.notify(KindChat, len(retrieved.Sources))

	return &ChatReply{SessionID: sessionID, Response: response, Sources: retrieved.Sources}, nil
}

func (a *Assistant) notify(kind string, sources int) {
	if a.observer != nil {
		a.observer.Answered(kind, sources)
	}
}
