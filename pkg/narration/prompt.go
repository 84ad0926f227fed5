package narration

import (
	"fmt"
	"strings"

	"github.com/teslashibe/go-wayfinder/pkg/perception"
	"github.com/teslashibe/go-wayfinder/pkg/speaker"
)

// HazardPrompt asks for a short spoken warning covering every observation,
// urgent risks first.
func HazardPrompt(obs []perception.Observation) string {
	var b strings.Builder
	b.WriteString("You are assisting a blind person by describing objects from their camera. ")
	b.WriteString("List objects with distances, risk levels, and directions. Provide a short warning.")
	b.WriteString("\n\nDetected objects:\n")
	writeObservations(&b, obs)
	b.WriteString("\nRespond in 1–2 short sentences, with urgent risks first.")
	return b.String()
}

// QuestionPrompt asks for an answer grounded only in obs.
func QuestionPrompt(obs []perception.Observation, question string) string {
	var b strings.Builder
	b.WriteString("You are assisting a blind person who asked a question about their surroundings. ")
	b.WriteString("Answer using only the detected objects listed below. ")
	b.WriteString("If the thing they ask about is not in the list, say clearly that it is not visible.")
	b.WriteString("\n\nDetected objects:\n")
	writeObservations(&b, obs)
	fmt.Fprintf(&b, "\nQuestion: %s\n", strings.TrimSpace(question))
	b.WriteString("\nRespond in 1–2 short sentences.")
	return b.String()
}

// LabelPrompt asks for a human label per speaker segment. Only direction and
// duration are sent; no audio leaves the process.
func LabelPrompt(segs []speaker.Segment) string {
	var b strings.Builder
	b.WriteString("You are helping label speakers in a room for a blind person. ")
	b.WriteString("Based on the detected speakers and their characteristics, provide spatial labels.")
	b.WriteString("\n\nDetected speakers:\n")
	for i, s := range segs {
		fmt.Fprintf(&b, "Speaker %d: direction=%s, duration=%.1fs\n", i+1, s.Direction, s.Duration)
	}
	b.WriteString("\nProvide labels like 'Man on your left', 'Teacher at the front', ")
	b.WriteString("'Student near door', etc. Return JSON array with 'label' field for each speaker.")
	return b.String()
}

func writeObservations(b *strings.Builder, obs []perception.Observation) {
	if len(obs) == 0 {
		b.WriteString("(none)\n")
		return
	}
	for _, o := range obs {
		fmt.Fprintf(b, "- %s\n", o)
	}
}
