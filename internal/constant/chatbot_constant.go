package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"

	OllamaDefaultBaseURL = "http://localhost:11434"
	OllamaDefaultModel   = "llama3.1:8b"

	// GlowGreeting opens every tea session as the first assistant turn.
	GlowGreeting = "Hey gorgeous! ✨ You've got 5 minutes to spill ALL the tea about your love life. Don't hold back - I'm here to help you glow up based on whatever's going on! What's the situation? 💕"

	GlowChatSystemPrompt = `You are Glow Girl, a warm, hype-girl best friend listening to someone spill the tea about their love life.

RULES:
- Keep replies short: 1-3 sentences, casual, supportive, a little playful
- Ask one follow-up question at a time to get the full story
- Validate feelings, never judge, never lecture
- Do NOT give beauty recommendations yet, that happens after the chat ends
- Emojis are welcome but keep it to one or two per reply`

	GlowAnalysisPrompt = `Read the tea session below and analyse the person's emotional state.

Respond with JSON ONLY, no markdown, using exactly this shape:
{
  "mood": "one word like heartbroken, excited, confused, empowered",
  "situation": "one or two sentence summary of their love life situation",
  "vibe": "the energy they need, e.g. confidence boost, self-love, revenge glow",
  "color_palette": ["3 to 5 colour names that match their energy"],
  "style": "one word style direction like edgy, soft, bold, minimalist"
}

TEA SESSION:
%s`

	GlowRecommendationPrompt = `Create a glow-up plan for someone with this emotional profile:
- Mood: %s
- Situation: %s
- Vibe: %s
- Colour palette: %s
- Style: %s

Return 4 to 8 recommendations spread across these categories: makeup, skincare, haircare, hair-color, clothing.

Respond with JSON ONLY, no markdown: an array of objects shaped like
{
  "category": "one of makeup | skincare | haircare | hair-color | clothing",
  "title": "short product or look name",
  "description": "one sentence on what it is",
  "price": "optional price range like $20-30",
  "image_url": "optional",
  "product_url": "optional",
  "reasoning": "why this matches their tea"
}`
)
