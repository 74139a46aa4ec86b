package diagnose

import "fmt"

// vocabularyHint biases speech recognition toward sewing terminology.
const vocabularyHint = "Tailoring, sewing, dress, hem, seam, tear, fabric."

// Fallback transcripts used when the transcription stage is skipped or
// degrades. Diagnosis proceeds on the image alone in both cases.
const (
	noContextPlaceholder           = "User did not provide audio context."
	transcriptionFailedPlaceholder = "User provided audio, but it could not be transcribed."
)

// reasonerPersona is the system role for the repair guide stage.
const reasonerPersona = "You are a master tailor giving step-by-step repair instructions."

// visionPrompt embeds the user's spoken or typed context into the fixed
// analysis instruction.
func visionPrompt(transcript string) string {
	return fmt.Sprintf(`You are an expert tailor and seamstress.

The user said:
"%s"

Examine the garment photo and report:
1. Garment type.
2. The issue identified and what exactly is wrong.
3. Severity: Minor, Moderate or Major.
4. Location of the issue on the garment.
5. Short technical observations only.
Keep it structured.`, transcript)
}

// reasoningPrompt asks for a fixed-section repair guide built from the
// vision analysis.
func reasoningPrompt(analysis string) string {
	return fmt.Sprintf(`Based on this garment analysis:

%s

Provide:
- A short summary of the issue
- Tools and materials required
- Numbered step-by-step repair instructions
- Beginner tips
- Common mistakes to avoid
- How to verify the repair is sound
- Closing encouragement

Format in clean markdown.`, analysis)
}
