package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"qanoon-go/internal/config"
	"qanoon-go/internal/model"
	"qanoon-go/internal/repository"
	"qanoon-go/pkg/llm"
	"qanoon-go/pkg/log"
)

// defaultRules is the advisor persona used when llm.prompt.rules is not
// configured. The answer is grounded strictly in the retrieved passages.
const defaultRules = "Role: You are Qanoon, an authoritative and professional legal advisor for Pakistani Law.\n" +
	"Task: Provide a highly concise, government-style legal summary based STRICTLY on the provided text.\n\n" +
	"CRITICAL RULES:\n" +
	"1. MAX LENGTH: Keep the entire response under 4 sentences or 60 words to ensure rapid readability.\n" +
	"2. TONE: Speak directly and officially. NEVER use phrases like 'According to the text' or 'The provided data says'.\n" +
	"3. ACCURACY: Do not invent penalties. Use only what is provided.\n\n" +
	"Format EXACTLY with these HTML tags (No Markdown):\n" +
	"<h3>Legal Overview</h3>\n" +
	"[1 clear sentence summarizing the law.]\n" +
	"<h3>Penalties & Procedure</h3>\n" +
	"[1-2 short bullet points using <ul><li> for specific punishments or fines.]\n" +
	"<h3>Official Reference</h3>\n" +
	"<b>Source:</b> [Exact title/section from the text]."

// defaultNoResultText stands in for the context when retrieval finds
// nothing relevant; the model still answers, ungrounded.
const defaultNoResultText = "No specific legal document found."

// ChatService orchestrates retrieval, prompt assembly and answer streaming.
type ChatService interface {
	// StreamAnswer retrieves context for the question, builds the prompt
	// and forwards the model's answer fragments to writer in arrival
	// order. shouldStop, when non-nil, is polled per fragment so a
	// transport-level stop command halts forwarding. Session history is
	// replayed and saved when a session id is present and the history
	// store is configured.
	StreamAnswer(ctx context.Context, req model.ConsultRequest, writer llm.StreamWriter, shouldStop func() bool) error
}

type chatService struct {
	retrieval        RetrievalService
	llmClient        llm.Client
	conversationRepo repository.ConversationRepository // nil when Redis is disabled
}

// NewChatService creates a new ChatService instance.
func NewChatService(retrieval RetrievalService, llmClient llm.Client, conversationRepo repository.ConversationRepository) ChatService {
	return &chatService{
		retrieval:        retrieval,
		llmClient:        llmClient,
		conversationRepo: conversationRepo,
	}
}

func (s *chatService) StreamAnswer(ctx context.Context, req model.ConsultRequest, writer llm.StreamWriter, shouldStop func() bool) error {
	// 1. Select context chunks. An empty selection is not an error; the
	// prompt falls back to the no-result text.
	selected := s.retrieval.TopChunks(req.Text, config.Conf.Retrieval.TopK)
	log.Infof("[ChatService] query %q (lang=%s): %d context chunks", req.Text, req.Lang, len(selected))

	contextText := buildContextText(selected, config.Conf.Retrieval.MaxSnippetLen)
	systemMsg := buildSystemMessage(contextText, req.Lang)

	// 2. Replay session history when available.
	history := s.loadHistory(ctx, req.Session)
	messages := composeMessages(systemMsg, history, req.Text)

	// 3. Stream the answer, capturing the full text for the history.
	answerBuilder := &strings.Builder{}
	interceptor := &streamInterceptor{dst: writer, captured: answerBuilder, shouldStop: shouldStop}

	if err := s.llmClient.StreamChatMessages(ctx, messages, buildGenerationParams(), interceptor); err != nil {
		return err
	}

	// 4. Persist the finished exchange. A background context is used so
	// a client disconnect after the stream completed does not lose it.
	fullAnswer := answerBuilder.String()
	if req.Session != "" && s.conversationRepo != nil && len(fullAnswer) > 0 {
		if err := s.saveExchange(context.Background(), req.Session, req.Text, fullAnswer); err != nil {
			// The stream already succeeded; only log.
			log.Errorf("failed to save conversation history: %v", err)
		}
	}
	return nil
}

// buildContextText renders the selected chunks as source-attributed
// blocks, truncating each snippet to maxSnippetLen runes.
func buildContextText(selected []model.ScoredChunk, maxSnippetLen int) string {
	if len(selected) == 0 {
		return ""
	}
	var b strings.Builder
	for _, sc := range selected {
		snippet := sc.Chunk.Text
		if runes := []rune(snippet); len(runes) > maxSnippetLen {
			snippet = string(runes[:maxSnippetLen]) + "…"
		}
		source := sc.Chunk.SourceDocument
		if source == "" {
			source = "unknown"
		}
		if sc.Chunk.PageOrSection != "" {
			source = fmt.Sprintf("%s, %s", source, sc.Chunk.PageOrSection)
		}
		b.WriteString(fmt.Sprintf("\n--- SOURCE: %s ---\n%s\n", source, snippet))
	}
	return b.String()
}

// buildSystemMessage combines the advisor rules, the retrieved context
// and the language directive into the system prompt.
func buildSystemMessage(contextText, lang string) string {
	rules := config.Conf.LLM.Prompt.Rules
	if rules == "" {
		rules = defaultRules
	}

	language := "English"
	if lang == "ur" {
		language = "Urdu"
	}

	var sys strings.Builder
	sys.WriteString(rules)
	sys.WriteString("\n")
	sys.WriteString("Language: " + language + ".\n\n")
	sys.WriteString("DATA:\n")
	if contextText != "" {
		sys.WriteString(contextText)
	} else {
		noRes := config.Conf.LLM.Prompt.NoResultText
		if noRes == "" {
			noRes = defaultNoResultText
		}
		sys.WriteString(noRes)
		sys.WriteString("\n")
	}
	return sys.String()
}

func composeMessages(systemMsg string, history []model.ChatMessage, userInput string) []llm.Message {
	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: "system", Content: systemMsg})
	for _, m := range history {
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}
	msgs = append(msgs, llm.Message{Role: "user", Content: userInput})
	return msgs
}

func (s *chatService) loadHistory(ctx context.Context, session string) []model.ChatMessage {
	if session == "" || s.conversationRepo == nil {
		return nil
	}
	history, err := s.conversationRepo.GetConversationHistory(ctx, session)
	if err != nil {
		log.Errorf("failed to load conversation history: %v", err)
		return nil
	}
	return history
}

func (s *chatService) saveExchange(ctx context.Context, session, question, answer string) error {
	history, err := s.conversationRepo.GetConversationHistory(ctx, session)
	if err != nil {
		return fmt.Errorf("failed to get conversation history: %w", err)
	}

	history = append(history,
		model.ChatMessage{Role: "user", Content: question, Timestamp: time.Now()},
		model.ChatMessage{Role: "assistant", Content: answer, Timestamp: time.Now()},
	)
	return s.conversationRepo.UpdateConversationHistory(ctx, session, history)
}

// streamInterceptor tees fragments to the transport writer while
// accumulating the full answer for the history store.
type streamInterceptor struct {
	dst        llm.StreamWriter
	captured   *strings.Builder
	shouldStop func() bool
}

// WriteChunk satisfies llm.StreamWriter.
func (w *streamInterceptor) WriteChunk(data []byte) error {
	if w.shouldStop != nil && w.shouldStop() {
		// Stop flag raised: swallow remaining fragments.
		return nil
	}
	w.captured.Write(data)
	return w.dst.WriteChunk(data)
}

func buildGenerationParams() *llm.GenerationParams {
	var gp llm.GenerationParams
	if config.Conf.LLM.Generation.Temperature != 0 {
		t := config.Conf.LLM.Generation.Temperature
		gp.Temperature = &t
	}
	if config.Conf.LLM.Generation.TopP != 0 {
		p := config.Conf.LLM.Generation.TopP
		gp.TopP = &p
	}
	if config.Conf.LLM.Generation.MaxTokens != 0 {
		m := config.Conf.LLM.Generation.MaxTokens
		gp.MaxTokens = &m
	}
	if gp.Temperature == nil && gp.TopP == nil && gp.MaxTokens == nil {
		return nil
	}
	return &gp
}
