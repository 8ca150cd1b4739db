package param

import (
	"fmt"
	"strconv"
	"strings"
)

// PercentFormatter formats percentage values
func PercentFormatter(value float64) string {
	return fmt.Sprintf("%.0f%%", value)
}

// PercentParser parses percentage strings
func PercentParser(str string) (float64, error) {
	str = strings.TrimSuffix(strings.TrimSpace(str), "%")
	return strconv.ParseFloat(str, 64)
}

// NoteFormatter formats MIDI note numbers
func NoteFormatter(noteNumber float64) string {
	notes := []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}
	note := int(noteNumber) % 12
	octave := int(noteNumber)/12 - 1
	return fmt.Sprintf("%s%d", notes[note], octave)
}

// NoteParser parses note names to MIDI numbers
func NoteParser(str string) (float64, error) {
	str = strings.ToUpper(strings.TrimSpace(str))

	noteMap := map[string]int{
		"C":  0,
		"B#": 0,
		"C#": 1,
		"DB": 1,
		"D":  2,
		"D#": 3,
		"EB": 3,
		"E":  4,
		"FB": 4,
		"F":  5,
		"E#": 5,
		"F#": 6,
		"GB": 6,
		"G":  7,
		"G#": 8,
		"AB": 8,
		"A":  9,
		"A#": 10,
		"BB": 10,
		"B":  11,
		"CB": 11,
	}

	// Find where the octave number starts
	octaveStart := -1
	for i, ch := range str {
		if ch >= '0' && ch <= '9' || ch == '-' {
			octaveStart = i
			break
		}
	}

	if octaveStart == -1 {
		return 0, fmt.Errorf("no octave number found in note: %s", str)
	}

	noteName := str[:octaveStart]
	octaveStr := str[octaveStart:]

	noteOffset, ok := noteMap[noteName]
	if !ok {
		return 0, fmt.Errorf("unknown note name: %s", noteName)
	}

	octave, err := strconv.Atoi(octaveStr)
	if err != nil {
		return 0, fmt.Errorf("invalid octave number: %s", octaveStr)
	}

	return float64((octave+1)*12 + noteOffset), nil
}
