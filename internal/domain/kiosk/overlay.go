package kiosk

import (
	"fmt"

	"github.com/okian/bainoculars/internal/domain/model"
)

// NoBirdText is shown when a capture resolves to no accepted label.
const NoBirdText = "No bird identified"

// IdentifiedText formats an accepted identification.
func IdentifiedText(label string, confidence float64) string {
	return fmt.Sprintf("Identified: %s (%.0f%%)", label, confidence)
}

// CountdownText formats the arcade status line.
func CountdownText(seconds, score int) string {
	return fmt.Sprintf("Time Left: %ds   Score: %d", seconds, score)
}

// FinalText formats the end-of-round banner.
func FinalText(score int) string {
	return fmt.Sprintf("Time's Up! Final Score: %d", score)
}

func resultText(res model.Result) string {
	if res.Identified() {
		return IdentifiedText(res.Label, res.Confidence)
	}
	return NoBirdText
}
