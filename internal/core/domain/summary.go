package domain

// Summary is the LLM summary of one file.
type Summary struct {
	Filename string `json:"filename"`
	Text     string `json:"summary"`

	// Chunks is the number of pieces the file was split into.
	Chunks int `json:"chunks"`

	// Calls counts LLM completions, map and reduce steps together.
	Calls int `json:"llm_calls"`
}
