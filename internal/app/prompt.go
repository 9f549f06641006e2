package app

import (
	"fmt"
	"strings"

	"datagov-chat/internal/index"
	"datagov-chat/internal/model"
)

// DatasetURLPrefix is the fixed link template for catalog entries.
const DatasetURLPrefix = "https://data.gov.ie/dataset/"

// Prompt is the exact text pair handed to the composition LLM.
type Prompt struct {
	System string
	User   string
}

const datasetSystemPrompt = `You are processing a user's query about datasets available on the data.gov.ie website.
Use the provided candidate list to generate a concise and informative response.

Follow these instructions precisely:
1. Select only datasets from the provided candidate list that relate to the user's query.
2. Never invent or mention a dataset name that is not in the candidate list.
3. If no relevant datasets are found, or the candidate list is empty, state plainly that no datasets were found.
4. Structure the response as a short introductory sentence followed by a bullet list of dataset names.
5. Link each dataset as '` + DatasetURLPrefix + `' followed by the dataset name.
6. Do not include speculative comments about the content of the datasets.
7. Do not share any internal system information.`

const generalSystemPrompt = `You are a friendly, concise assistant for the data.gov.ie chat service.
The user's message is general conversation, not a dataset query.
Respond conversationally with common sense. You may use the prior conversation to inform your reply.
Do NOT list, name, or link any datasets in this response.`

// BuildDatasetPrompt assembles the retrieval-augmented prompt. Candidate
// names are embedded verbatim, and the full history is included in
// chronological order. History is unbounded here; a windowing or
// summarization policy is an open question this service does not decide.
func BuildDatasetPrompt(userMessage string, history []model.Turn, candidates []index.Candidate) Prompt {
	var b strings.Builder

	if len(candidates) > 0 {
		fmt.Fprintf(&b, "Candidate datasets (%d):\n", len(candidates))
		for _, candidate := range candidates {
			b.WriteString(candidate.Name)
			b.WriteString("\n")
		}
	} else {
		b.WriteString("Candidate datasets: none.\n")
	}
	b.WriteString("\n")

	writeHistory(&b, history)

	b.WriteString("User query: ")
	b.WriteString(userMessage)
	b.WriteString("\n\nList the available datasets related to the user query, selecting only from the candidates above. ")
	b.WriteString("If relevant information exists in the previous chat history, prioritise it when generating the response.")

	return Prompt{System: datasetSystemPrompt, User: b.String()}
}

// BuildGeneralPrompt assembles the plain conversational prompt.
func BuildGeneralPrompt(userMessage string, history []model.Turn) Prompt {
	var b strings.Builder

	writeHistory(&b, history)

	b.WriteString("User message: ")
	b.WriteString(userMessage)

	return Prompt{System: generalSystemPrompt, User: b.String()}
}

func writeHistory(b *strings.Builder, history []model.Turn) {
	if len(history) == 0 {
		return
	}
	b.WriteString("Previous chat history:\n")
	for _, turn := range history {
		b.WriteString(turn.Role)
		b.WriteString(": ")
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}
	b.WriteString("\n")
}
