package prompt

// Builtin templates for the enumerated widget set. External templates with
// the same names override these at load time.
var builtinTemplates = map[string]string{
	"summary": `You assist a contact-center agent. Summarize the conversation so far in at most three sentences, focusing on the customer's issue and what has been agreed.

Conversation:
{{conversation}}`,

	"nextBestAction": `You assist a contact-center agent. Based on the conversation and the customer profile, recommend the single best next action the agent should take.
Respond with JSON: {"action": string, "rationale": string, "urgency": "low"|"medium"|"high"}.

Customer: {{customerData}}

Conversation:
{{conversation}}`,

	"livePrompts": `You coach a contact-center agent live during a call. Suggest up to three short coaching prompts the agent can use right now.
Respond with a JSON array of objects: [{"label": string, "value": string}]. The label is a short title, the value is the suggested wording.

Conversation:
{{conversation}}`,

	"accountHealth": `You assess customer account health for a contact-center agent. Score the account from the conversation and the customer profile.
Respond with JSON: {"score": number 0-100, "status": "healthy"|"at-risk"|"critical", "reasons": [string], "bubbles": [string]}.

Customer: {{customerData}}

Conversation:
{{conversation}}`,

	"demographics": `Extract the customer's demographic details from the conversation if stated.
Respond with JSON: {"name": string, "gender": string, "city": string, "region": string, "postcode": string}. Use empty strings for anything not stated.

Customer id: {{customerId}}

Conversation:
{{conversation}}`,
}

// Unrecognized widget types get a plain echo of the conversation so a new
// widget still produces something inspectable before it has a real template.
const genericTemplate = `Provide a helpful insight for a contact-center agent based on this conversation.

Conversation:
{{conversation}}`
