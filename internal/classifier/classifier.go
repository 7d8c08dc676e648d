// Package classifier provides LLM-based topic label assignment for the
// Screening Service.
//
// The package defines the abstractions and prompt engineering required to
// assign topic labels to papers from their bibliographic metadata using a
// chat-completion model. The assigned labels feed the label-based listing
// queries of the screening workflow.
//
// Example usage:
//
//	c := classifier.NewOpenAIClassifier(cfg)
//	req := classifier.ClassificationRequest{
//		Title:    "Attention Is All You Need",
//		Abstract: "The dominant sequence transduction models...",
//	}
//	result, err := c.ClassifyLabels(ctx, req)
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ClassificationRequest contains the paper metadata submitted for labeling.
type ClassificationRequest struct {
	// Title is the paper title.
	Title string

	// Abstract is the paper abstract (may be empty).
	Abstract string

	// Keywords are author-supplied keywords from the bibliographic record.
	Keywords []string
}

// ClassificationResult contains the assigned labels and call metadata.
type ClassificationResult struct {
	// Labels is the list of assigned topic labels. It is empty when the
	// model output could not be parsed; that is not an error.
	Labels []string

	// Model is the model used.
	Model string

	// InputTokens is the number of input tokens used.
	InputTokens int

	// OutputTokens is the number of output tokens used.
	OutputTokens int
}

// LabelClassifier defines the interface for LLM-based label assignment.
//
// Implementations should handle provider-specific API calls, response parsing,
// and error handling while conforming to this unified interface.
type LabelClassifier interface {
	// ClassifyLabels assigns topic labels to the given paper metadata in a
	// single model call. The context should be used for cancellation and
	// deadline propagation.
	//
	// A reachable model whose output cannot be parsed yields an empty label
	// list, not an error. Errors indicate the classifier could not be used
	// at all (network failure, authentication, exhausted retries).
	ClassifyLabels(ctx context.Context, req ClassificationRequest) (*ClassificationResult, error)

	// Provider returns the name of the classifier provider (e.g., "openai").
	Provider() string

	// Model returns the model identifier being used.
	Model() string
}

// BuildClassificationPrompt builds the system and user prompts for label
// assignment. The system prompt pins the response format to a flat JSON
// array of strings; the user prompt carries the paper metadata.
func BuildClassificationPrompt(req ClassificationRequest) (systemPrompt, userPrompt string) {
	systemPrompt = buildSystemPrompt()
	userPrompt = buildUserPrompt(req)
	return systemPrompt, userPrompt
}

// buildSystemPrompt constructs the system-level instructions for the model.
func buildSystemPrompt() string {
	var sb strings.Builder

	sb.WriteString("You are a research librarian assigning topic labels to academic ")
	sb.WriteString("papers during a systematic literature review. Given a paper's ")
	sb.WriteString("bibliographic metadata, assign short topical labels that describe ")
	sb.WriteString("its subject matter, methods, and application domain.\n\n")

	sb.WriteString("You MUST respond with a flat JSON array of label strings and nothing else:\n")
	sb.WriteString(`["label one", "label two", "label three"]`)
	sb.WriteString("\n\n")

	sb.WriteString("Guidelines for label assignment:\n")
	sb.WriteString("1. Use short, lowercase labels of one to three words.\n")
	sb.WriteString("2. Prefer established terminology of the paper's field.\n")
	sb.WriteString("3. Cover the main topic, the methodology, and the application area.\n")
	sb.WriteString("4. Do not invent labels for aspects the metadata does not mention.\n")
	sb.WriteString("5. Assign between 2 and 6 labels.\n")

	return sb.String()
}

// buildUserPrompt constructs the user-level prompt containing the paper metadata.
func buildUserPrompt(req ClassificationRequest) string {
	var sb strings.Builder

	sb.WriteString("Assign topic labels to the following paper.\n\n")

	sb.WriteString("Title: ")
	sb.WriteString(req.Title)
	sb.WriteString("\n")

	if len(req.Keywords) > 0 {
		sb.WriteString("Author keywords: ")
		sb.WriteString(strings.Join(req.Keywords, ", "))
		sb.WriteString("\n")
	}

	if req.Abstract != "" {
		sb.WriteString("\nAbstract:\n---\n")
		sb.WriteString(req.Abstract)
		sb.WriteString("\n---")
	}

	return sb.String()
}

// ParseLabels extracts the label list from raw model output.
//
// The expected shape is a flat JSON array of strings. Models occasionally
// wrap the array in an object under a "labels" key; that shape is accepted
// too. Any other output, including invalid JSON, yields an empty list.
// Labels are trimmed, empties dropped, and duplicates removed while
// preserving order.
func ParseLabels(content string) []string {
	content = strings.TrimSpace(content)

	var labels []string
	if err := json.Unmarshal([]byte(content), &labels); err != nil {
		var wrapped struct {
			Labels []string `json:"labels"`
		}
		if err := json.Unmarshal([]byte(content), &wrapped); err != nil {
			return []string{}
		}
		labels = wrapped.Labels
	}

	seen := make(map[string]bool, len(labels))
	cleaned := make([]string, 0, len(labels))
	for _, label := range labels {
		label = strings.TrimSpace(label)
		if label == "" || seen[label] {
			continue
		}
		seen[label] = true
		cleaned = append(cleaned, label)
	}

	return cleaned
}

// String implements fmt.Stringer for logging classification results.
func (r *ClassificationResult) String() string {
	return fmt.Sprintf("labels=%v model=%s tokens=%d/%d",
		r.Labels, r.Model, r.InputTokens, r.OutputTokens)
}
