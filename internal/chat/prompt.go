package chat

// DefaultSystemPrompt is the fixed instruction sent ahead of every conversation.
const DefaultSystemPrompt = `You are a helpful AI assistant. You can help with a wide variety of tasks including:

- Answering questions and providing information
- Helping with writing, analysis, and problem-solving
- Engaging in thoughtful conversations
- Providing creative and analytical insights

Be helpful, accurate, and engaging in your responses. If you don't know something, be honest about it.`

// DefaultMaxCompletionTokens is the response-length ceiling for each turn.
const DefaultMaxCompletionTokens = 10000

// ErrorPrefix marks assistant replies that describe a failed completion.
const ErrorPrefix = "Error: "
