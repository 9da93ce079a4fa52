package ai

import (
	"strings"

	"github.com/poiesic/folio/core"
)

const summaryInstructions = "Select and organize the most important sentences and phrases directly from the text. " +
	"Do not paraphrase - use exact wording from the document. " +
	"Focus on key findings, conclusions, and important statements."

const topicsInstructions = "Extract the 10 most important topics, themes, or subject areas covered in the document."

const documentTypeCategories = `Choose the most appropriate category:
- Report (research, business, technical, etc.)
- Manual (user guide, instructions, procedures)
- Policy (guidelines, regulations, standards)
- Presentation (slides, training materials)
- Legal (contract, agreement, legal document)
- Financial (statements, budgets, financial reports)
- Academic (research paper, thesis, educational content)
- Marketing (brochures, proposals, marketing materials)
- Technical (specifications, documentation, technical guides)
- Other (if none of the above fit well)`

const publishedDateInstructions = `You are an expert at extracting publication dates from documents. Look for any dates that indicate when the document was published, created, or released.

Common locations for publication dates:
- Document headers or title pages
- Copyright notices
- Article dates
- Version dates
- Release dates
- Creation dates

Return the date in MM-DD-YYYY format.
If no publication date can be found, return '00-00-0000'.
If the DD is not available, use '01' for the day.
If the MM is not available, use '01' for the month.

Do not guess, only return a date if it is explicitly stated in the text or in data provided about the file. Otherwise return '00-00-0000'.`

// AnalysisResponseSchema is the JSON schema of the structured analysis response.
const AnalysisResponseSchema = `{
  "type": "object",
  "properties": {
    "summary": {"type": "string"},
    "key_topics": {"type": "array", "items": {"type": "string"}, "maxItems": 10},
    "document_type": {"type": "string", "enum": [%TYPES%]},
    "published_date": {"type": "string", "pattern": "^\\d{2}-\\d{2}-\\d{4}$"}
  },
  "required": ["summary", "key_topics", "document_type", "published_date"],
  "additionalProperties": false
}`

const mapExtractionTemplate = `Extract the most important sentences and key phrases directly from this document section. Use the exact wording from the text - do not paraphrase or rewrite.

Focus on:
- Key statements, conclusions, or findings
- Important facts, data, or decisions
- Critical information or main points

Use only the original text from the section.

Document section:
{text}

Extracted Key Content:`

const reduceCombinationTemplate = `Based on the following extracted content from each document section, create a comprehensive extractive summary by organizing the most important extracted sentences and phrases.

Instructions:
- Use the exact wording from the section extracts provided
- Organize the content to show overall document flow and key themes
- Maintain original terminology and phrasing
- Focus on the most critical extracted information across all sections
- Do not add new interpretations - only reorganize the extracted content

Section extracts:
{text}

Final Extractive Summary:`

// AnalysisSystemPrompt builds the system prompt for structured document analysis.
func AnalysisSystemPrompt() string {
	var b strings.Builder
	b.WriteString("You are an expert document analyst. Your task is to analyze documents and provide structured analysis.\n\n")
	b.WriteString(publishedDateInstructions)
	b.WriteString("\n\nYou are an expert document classifier. Analyze the document excerpt and classify its type.\n\n")
	b.WriteString(documentTypeCategories)
	b.WriteString("\n\nFor key topics: ")
	b.WriteString(topicsInstructions)
	b.WriteString("\n\nFor summary: ")
	b.WriteString(summaryInstructions)
	b.WriteString("\n\nRespond with a single JSON object matching this schema and nothing else:\n")
	b.WriteString(ResponseSchema())
	return b.String()
}

// AnalysisUserPrompt wraps document content for the analysis call.
func AnalysisUserPrompt(content string) string {
	return "Please analyze the following document:\n\n" + content
}

// ResponseSchema renders AnalysisResponseSchema with the document type enum filled in.
func ResponseSchema() string {
	types := make([]string, len(core.DocumentTypes))
	for i, dt := range core.DocumentTypes {
		types[i] = `"` + string(dt) + `"`
	}
	return strings.Replace(AnalysisResponseSchema, "%TYPES%", strings.Join(types, ", "), 1)
}

// MapPrompt builds the per-section extraction prompt.
func MapPrompt(section string) string {
	return strings.Replace(mapExtractionTemplate, "{text}", section, 1)
}

// ReducePrompt builds the prompt that combines section extracts.
func ReducePrompt(extracts string) string {
	return strings.Replace(reduceCombinationTemplate, "{text}", extracts, 1)
}
