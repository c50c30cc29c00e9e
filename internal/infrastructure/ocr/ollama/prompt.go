package ollama

import "strings"

func buildOCRPrompt(mimeType string) string {
	kind := "scanned document"
	if strings.HasSuffix(mimeType, "png") {
		kind = "document screenshot"
	}
	return `You are an OCR engine. Transcribe every line of text in this ` + kind + ` exactly as printed.
Keep the original line breaks and punctuation.
Do not translate, summarize, or add commentary. If there is no text, return an empty response.`
}
