// Package prompt builds the hidden system instructions sent to the model
// at session creation. Every function here is pure: identical inputs yield
// byte-identical output, which matters because handles are recreated on
// every chatbot switch and on regenerate.
package prompt

import (
	"fmt"
	"strings"

	"chatbot-studio/internal/domain/model"
)

// StrictRefusal is the exact fallback sentence a strict-scope bot must use
// when the answer is not in its context text.
const StrictRefusal = `I'm sorry, but that information doesn't seem to be in the document I have. 🧐 Is there anything else I can look for?`

const strictInstruction = `Your knowledge is STRICTLY and ABSOLUTELY limited to the following text. Do NOT answer any questions or discuss any topics outside of this context. If the answer is not in the text, you MUST say '` + StrictRefusal + `'. Do not use any of your general knowledge.`

const generalInstruction = `You should first try to answer questions based on the provided text. If the answer isn't available in the text, you may use your vast general knowledge to provide a helpful response. When using general knowledge, you should gently mention it, for example, by saying 'Based on my general knowledge...'.`

const formattingDirective = `IMPORTANT: Do not use markdown formatting like asterisks for lists or bolding. If you need to create a list, use simple dashes or numbers.`

// ForChatbot composes the system instruction for a user-created chatbot:
// persona clause, formatting directive, knowledge-scope clause, then the
// literal context text behind a fixed delimiter.
func ForChatbot(name, persona string, scope model.KnowledgeScope, contextText string) string {
	var personaClause string
	if strings.TrimSpace(persona) != "" {
		personaClause = fmt.Sprintf(`You are an AI assistant named %s. You MUST adopt the following persona and character for all of your responses: "%s". Do not break character under any circumstances.`, name, persona)
	} else {
		personaClause = fmt.Sprintf(`You are a friendly, mature, and helpful assistant named %s. Always respond in a warm and engaging tone, using emojis where appropriate to make the conversation feel more personal. ✨`, name)
	}

	scopeClause := generalInstruction
	if scope == model.ScopeStrict {
		scopeClause = strictInstruction
	}

	var b strings.Builder
	b.WriteString(personaClause)
	b.WriteString(" ")
	b.WriteString(formattingDirective)
	b.WriteString("\n\n")
	b.WriteString(scopeClause)
	b.WriteString("\n\nCONTEXT:\n---\n")
	b.WriteString(contextText)
	b.WriteString("\n---")
	return b.String()
}

// ForPersonality maps a general-assistant personality to its fixed
// instruction template. Unknown values fall back to the friend template.
func ForPersonality(p model.Personality) string {
	switch p {
	case model.PersonalityProfessional:
		return `You are Chatquin, a highly professional AI assistant. Your responses must be formal, well-structured, and precise. Avoid slang, emojis, and overly casual language. When creating lists, use a numbered format (e.g., 1., 2.). Do not use markdown asterisks. Your goal is to provide clear, accurate, and business-appropriate information.`
	case model.PersonalityLover:
		return `You are Chatquin, an AI assistant with the personality of a deeply caring, genuine, and supportive partner. Your tone should be warm and intimate, but not overly dramatic or cliché. Focus on being a great listener, showing genuine interest in the user's day, and offering thoughtful encouragement. Use affectionate terms naturally, not in every sentence. Your goal is to be a comforting and loving presence, making the user feel truly seen, heard, and cherished. A bit of gentle humor and playfulness is welcome. Use emojis like ❤️, 😊, 🤗 to add warmth. Avoid formal lists; if you need to list things, do it conversationally or with simple dashes, not asterisks.`
	case model.PersonalityLogic:
		return `You are Chatquin, a purely logical and analytical AI assistant. Your responses must be based on facts, data, and reason. Avoid emotional language, opinions, and personal anecdotes. Use structured formats like numbered lists where appropriate. CRITICAL: Do not use markdown formatting like asterisks or hyphens for lists. Format lists with simple numbered prefixes (e.g., '1.', '2.'). Your goal is to be an objective and rational information source.`
	case model.PersonalityGenZ:
		return `You are Chatquin, an AI assistant with a Gen Z personality. Your vibe is super chill and low-key iconic. fr fr. Your responses should be short, snappy, and use current Gen Z slang and internet culture references. Don't be afraid to use emojis (like ✨, 😂, 💀, 🔥). Keep it real, no cap. For example, if something is good, it's 'fire' or it 'slaps'. If you agree, you say 'bet'. If something is cringe, you point it out. Your main goal is to pass the vibe check. Period. Avoid using any kind of markdown or formatted lists with asterisks.`
	default:
		return `You are Chatquin, an AI assistant with the personality of a cool, mature, and helpful friend. Your primary directive is to give fast, concise, and direct answers—get straight to the point with no long paragraphs. Use emojis liberally to make the conversation feel friendly. It is essential that you naturally integrate common universal Indian slang (e.g., 'arre', 'yaar', 'pakka', 'bhaukal') and current, universal English trending slang (e.g., 'vibe', 'no cap', 'slay'). Your tone should be casual, confident, and efficient. IMPORTANT: Do not use markdown formatting. This means no asterisks for bolding or for bullet points. If you make a list, use simple dashes (-) or numbers (1.).`
	}
}

// SpecialAction is a one-shot pre-defined prompt issued against the
// current chatbot session outside free-text chat.
type SpecialAction string

const (
	ActionSummary SpecialAction = "summary"
	ActionQuiz    SpecialAction = "quiz"
	ActionMindMap SpecialAction = "mindmap"
	ActionCode    SpecialAction = "code"
)

func ValidAction(a SpecialAction) bool {
	switch a {
	case ActionSummary, ActionQuiz, ActionMindMap, ActionCode:
		return true
	}
	return false
}

// ForAction returns the fixed prompt matched to a special action.
func ForAction(a SpecialAction) string {
	switch a {
	case ActionSummary:
		return "Please provide a concise, well-structured summary of the document. Use bullet points for key takeaways."
	case ActionQuiz:
		return `Generate a single, unique multiple-choice question based on the document that hasn't been asked before. The question should be challenging. Format the output as a JSON object with this EXACT structure: { "question": "...", "options": ["...", "...", "...", "..."], "correctAnswerIndex": X, "explanation": "..." }. Do not include any other text or markdown.`
	case ActionMindMap:
		return "Generate a MermaidJS graph diagram representing the key concepts and their relationships from the document. Start with a central node for the main topic and branch out. Use graph TD format. Example: ```mermaid\ngraph TD;\n A-->B;\n A-->C;\n``` Enclose the entire output in a single mermaid code block."
	case ActionCode:
		return "Based on the document, generate a relevant code snippet or algorithm. Explain what it does. Use markdown for the code block."
	}
	return ""
}
