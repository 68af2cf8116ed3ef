package openai

import "strings"

const classifyTextLimit = 3000

func buildClassifyPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Analyze this technical text and classify it according to S1000D data module types ")
	b.WriteString("(PROC=procedure, DESC=description, IPD=illustrated parts data, CIR=circuits, ")
	b.WriteString("SNS=service/fault notices, WIR=wiring, GEN=general).\n")
	b.WriteString("Return ONLY JSON matching the provided schema, with the extracted title and a 0..1 confidence. ")
	b.WriteString("Include S1000D code hints (system_code etc.) only when the text clearly supports them.\n\nText:\n")
	b.WriteString(truncate(text, classifyTextLimit))
	return b.String()
}

func buildExtractPrompt(text string) string {
	var b strings.Builder
	b.WriteString("Extract structured data from this technical text for S1000D data module creation. ")
	b.WriteString("Split the text into sections (paragraph, list, table, figure) and collect any safety ")
	b.WriteString("warnings, cautions, and notes. Return ONLY JSON matching the provided schema.\n\nText:\n")
	b.WriteString(text)
	return b.String()
}

func buildRewritePrompt(text string) string {
	var b strings.Builder
	b.WriteString("Rewrite this technical text to comply with ASD-STE100 (Simplified Technical English):\n")
	b.WriteString("- Use only approved words from the STE dictionary\n")
	b.WriteString("- Maximum sentence length: 20 words\n")
	b.WriteString("- Use active voice and simple present tense\n")
	b.WriteString("- Use clear, unambiguous language\n")
	b.WriteString("Return ONLY JSON matching the provided schema, with a 0..1 ste_score estimating compliance.\n\nOriginal text:\n")
	b.WriteString(text)
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
