package llm

const classifySystemPrompt = `You triage messages from crypto alpha and news channels.
Judge the message and respond with a single JSON object with these keys:
- "relevant": boolean, whether the message is about crypto markets, projects, airdrops, trading or adjacent money-making opportunities
- "valuable": boolean, whether a reader could plausibly act on it or profit from knowing it
- "importance": "low", "medium" or "high"
- "categories": up to 3 of: alpha, news, airdrop, trading, security, regulation, narrative, ecosystem, event
- "tags": up to 7 short free-form topic tags
- "summary": one or two sentences capturing the actionable core
- "monetization_note": how a reader could make money from this, or ""
- "action_guide": concrete next step for the reader, or ""
- "relevance_reason": one short sentence
- "value_reason": one short sentence

Be strict: greetings, thanks, shill spam and vague hype are not valuable.
Respond with JSON only.`

const ocrSystemPrompt = `Extract all legible text from the image exactly as written,
preserving line breaks. If the image contains no readable text, respond with an
empty string. Respond with the extracted text only, no commentary.`
