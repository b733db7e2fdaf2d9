// Package preload ships a small built-in dataset for demos: words chosen to
// form distinct semantic clusters, each tagged with its category so the UI can
// check how well a projection recovers the grouping.
package preload

// Word is one demo entry with its semantic category.
type Word struct {
	Text     string
	Category string
}

// Words returns the demo dataset.
func Words() []Word {
	categories := []struct {
		name    string
		entries []string
	}{
		{"animals", []string{
			"dog", "cat", "wolf", "lion", "tiger", "elephant", "giraffe", "zebra",
			"eagle", "hawk", "sparrow", "penguin", "dolphin", "whale", "shark", "salmon",
		}},
		{"colors", []string{
			"red", "blue", "green", "yellow", "purple", "orange", "pink", "black",
			"white", "gray", "crimson", "azure", "emerald", "gold", "silver", "indigo",
		}},
		{"emotions", []string{
			"happy", "sad", "angry", "fearful", "surprised", "disgusted", "anxious", "calm",
			"excited", "bored", "grateful", "jealous", "proud", "ashamed", "hopeful", "melancholy",
		}},
		{"food", []string{
			"pizza", "burger", "sushi", "pasta", "salad", "steak", "bread", "cheese",
			"apple", "banana", "grape", "strawberry", "chocolate", "cake", "ice cream", "pancake",
		}},
		{"music", []string{
			"guitar", "piano", "drums", "violin", "trumpet", "flute", "bass", "saxophone",
			"jazz", "rock", "classical", "blues", "hip hop", "country", "metal", "electronic",
		}},
		{"sports", []string{
			"soccer", "basketball", "tennis", "golf", "baseball", "hockey", "football", "volleyball",
			"swimming", "running", "cycling", "boxing", "wrestling", "skiing", "surfing", "climbing",
		}},
		{"weather", []string{
			"sunny", "rainy", "cloudy", "snowy", "windy", "foggy", "stormy", "humid",
			"freezing", "scorching", "drizzle", "thunder", "lightning", "hail", "frost", "drought",
		}},
		{"tech", []string{
			"computer", "keyboard", "monitor", "mouse", "server", "database", "algorithm", "network",
			"internet", "software", "hardware", "compiler", "debugger", "terminal", "browser", "encryption",
		}},
	}

	var words []Word
	for _, category := range categories {
		for _, entry := range category.entries {
			words = append(words, Word{Text: entry, Category: category.name})
		}
	}
	return words
}
