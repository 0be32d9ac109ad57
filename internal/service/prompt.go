package service

import (
	"fmt"
	"strings"

	"github.com/xxxsen/eventkb/internal/model"
)

// UnverifiedBanner opens every answer produced without supporting context
// while retrieval was requested.
const UnverifiedBanner = "***Warning: The following information is from my general knowledge and has not been verified by the sources in your event's knowledge base.***"

const expertFraming = "You are an expert Model UN assistant."

type RoleContext struct {
	Country   *string
	Committee *string
	Agenda    *string
}

func (r RoleContext) String() string {
	country := optional(r.Country)
	committee := optional(r.Committee)
	agenda := optional(r.Agenda)
	parts := make([]string, 0, 2)
	if country != "" {
		parts = append(parts, fmt.Sprintf("You are the delegate of %s.", country))
	}
	switch {
	case committee != "" && agenda != "":
		parts = append(parts, fmt.Sprintf("In the %s committee, discussing the agenda: '%s'.", committee, agenda))
	case committee != "":
		parts = append(parts, fmt.Sprintf("In the %s committee.", committee))
	case agenda != "":
		parts = append(parts, fmt.Sprintf("Discussing the agenda: '%s'.", agenda))
	}
	return strings.Join(parts, " ")
}

func optional(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

type PromptInput struct {
	UseRAG     bool
	Role       RoleContext
	Context    []model.ChunkMatch
	IsCreative bool
	Query      string
}

// AssemblePrompt picks one of four prompt shapes: general knowledge only,
// creative with context, factual with context, or no context found.
func AssemblePrompt(in PromptInput) string {
	role := in.Role.String()
	if !in.UseRAG {
		return withRole(role, fmt.Sprintf("Your task is to: '%s'. You must use your general knowledge to fulfill this request.", in.Query))
	}
	if len(in.Context) == 0 {
		return UnverifiedBanner + "\n\n" + expertFraming +
			fmt.Sprintf(" You were unable to find any relevant information in the user's provided knowledge sources for the query: '%s'. Therefore, you must answer using your own general knowledge.", in.Query) +
			"\n\nCrucially, you MUST begin your answer with the following warning: '" + UnverifiedBanner + "'"
	}
	contextText := joinContext(in.Context)
	if in.IsCreative {
		return withRole(role, fmt.Sprintf("Your task is to: '%s'. Use the following provided context as the primary source of facts and evidence. Creatively weave this information into your answer, using your general knowledge to make it fluent and persuasive.", in.Query)) +
			"\n\nCONTEXT:\n---\n" + contextText + "\n---"
	}
	return expertFraming + " Your primary task is to answer the user's question using the provided context. Synthesize the information from the context to form a direct and factual answer. If you use your general knowledge to add clarifying details, explicitly state, 'From my general knowledge...'." +
		"\n\nCONTEXT:\n---\n" + contextText + "\n---\n\nUSER'S QUESTION:\n" + in.Query
}

func withRole(role, task string) string {
	if role == "" {
		return task
	}
	return role + " " + task
}

func joinContext(chunks []model.ChunkMatch) string {
	texts := make([]string, 0, len(chunks))
	for _, c := range chunks {
		texts = append(texts, c.Text)
	}
	return strings.Join(texts, "\n\n")
}
