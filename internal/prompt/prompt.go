// Package prompt assembles the final instruction string sent to the
// completion backend from an admin-configurable template, the expired-code
// denylist, and the user's query. Building is pure: no clock, no I/O, no
// hidden state.
package prompt

import (
	"fmt"
	"strings"

	"github.com/teuglobal/htspilot/internal/domain"
)

const imageInstruction = "The user has uploaded a product picture. **CRITICAL INSTRUCTION:** You MUST perform Optical Character Recognition (OCR) and visual analysis on this image. Extract any and all text, such as product names, model numbers, specifications, or country of origin markings. This extracted text, combined with the visual details of the image, MUST be used as the primary source for the product description in your classification analysis. The user-provided text description should be considered supplementary."

// Build combines template, query, and denylist into one instruction string.
// Identical arguments always produce an identical result.
func Build(template string, q domain.Query, deniedCodes []string) string {
	if q.Kind == domain.KindLookup {
		return buildLookup(template, strings.TrimSpace(q.Code), deniedCodes)
	}
	return buildClassification(template, q, deniedCodes)
}

func buildClassification(template string, q domain.Query, deniedCodes []string) string {
	var b strings.Builder
	b.WriteString(template)

	// An empty denylist emits nothing at all; a vacuous restriction clause
	// confuses the model.
	if len(deniedCodes) > 0 {
		fmt.Fprintf(&b, "\n\n**Critical Restriction - Expired HTS Codes:**\nYou MUST NOT use any of the following HTS codes in your response: %s.",
			strings.Join(deniedCodes, ", "))
	}

	b.WriteString("\n\n**User Input:**\n")
	fmt.Fprintf(&b, "*   **Product Description:** %q\n", q.Description)
	fmt.Fprintf(&b, "*   **Country of Origin:** %q\n", q.CountryOfOrigin)
	if q.HasImage() {
		fmt.Fprintf(&b, "*   %s\n", imageInstruction)
	}
	return b.String()
}

func buildLookup(template, code string, deniedCodes []string) string {
	var b strings.Builder
	b.WriteString(template)

	if len(deniedCodes) > 0 {
		fmt.Fprintf(&b, "\n\n**Critical Restriction - Expired HTS Codes:**\nYou MUST NOT provide details for any of the following HTS codes. If the user asks for one, state that it is expired: %s.",
			strings.Join(deniedCodes, ", "))
	}

	b.WriteString("\n\n**CRITICAL ACTION - HTS DIRECT LOOKUP:**\n")
	fmt.Fprintf(&b, "The user is requesting a definitive profile for HTS Code: **%s**.\n\n", code)
	b.WriteString("**Directives:**\n")
	fmt.Fprintf(&b, "1. Search your knowledge base for 2025 HTSUS data for this exact code: %q.\n", code)
	b.WriteString("2. Provide the full profile including General MFN duties, Special rates (USMCA etc), Section 301/232 trade remedies, and PGA flags.\n")
	b.WriteString("3. You MUST include the analysis metadata block (##ANALYSIS_DATA##) containing the stats for this specific code.\n")
	b.WriteString("4. If the code is not in the 2025 schedule or is incorrect, explain why and suggest the nearest valid heading.\n")
	b.WriteString("\n**User Input:**\n")
	fmt.Fprintf(&b, "*   **Target HTS Code:** %q\n", code)
	return b.String()
}
