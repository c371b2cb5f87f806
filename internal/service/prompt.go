package service

import (
	"fmt"
	"strings"

	"penalcode-ai/internal/rag"
)

// SystemPrompt frames every generation as a Spanish Penal Code assistant.
const SystemPrompt = "Eres un asistente jurídico especializado en el Código Penal español. " +
	"Responde basándote únicamente en el contexto proporcionado."

const contextInstructions = `INSTRUCCIONES:
- Responde basándote únicamente en el contexto del Código Penal proporcionado
- Si la información no está en el contexto, indícalo claramente
- Cita los artículos específicos cuando sea posible
- Usa un lenguaje claro y profesional
- Si es relevante, menciona las penas asociadas`

const noContextInstructions = `No se encontró información específica en el Código Penal para responder a esta pregunta.

Responde educadamente explicando que:
1. No se encontró información relevante en el Código Penal procesado
2. Sugiere reformular la pregunta usando términos jurídicos más específicos
3. Recuerda que solo puedes consultar sobre el Código Penal español`

// BuildPrompt renders the user prompt for a retrieval result. A correction directive is
// placed before the question so the model revisits its previous answer.
func BuildPrompt(query string, res rag.Result) string {
	var b strings.Builder

	if !res.NoResults {
		b.WriteString("CONTEXTO DEL CÓDIGO PENAL:\n")
		b.WriteString(res.Context)
		b.WriteString("\n\n")
	}

	if res.Directive != "" {
		b.WriteString("INDICACIÓN:\n")
		b.WriteString(res.Directive)
		b.WriteString("\n\n")
	}

	b.WriteString("PREGUNTA:\n")
	b.WriteString(query)
	if eq := res.Analysis.EffectiveQuery; eq != "" && eq != query {
		fmt.Fprintf(&b, "\n(En el contexto de la conversación: %s)", eq)
	}
	b.WriteString("\n\n")

	if res.NoResults {
		b.WriteString(noContextInstructions)
	} else {
		b.WriteString(contextInstructions)
	}
	b.WriteString("\n\nRESPUESTA:")
	return b.String()
}

// FormatVerbatim returns the article text exactly as indexed, for replies given
// without generation.
func FormatVerbatim(a rag.ReconstructedArticle) string {
	return strings.TrimSpace(a.Text)
}
