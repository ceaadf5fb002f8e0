package models

// QuizQuestion is a single multiple-choice question
type QuizQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// Quiz is the structured output of quiz generation
type Quiz struct {
	Questions []QuizQuestion `json:"questions"`
}

// Flashcard is a single front/back study card
type Flashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// FlashcardSet is the structured output of flashcard generation
type FlashcardSet struct {
	Flashcards []Flashcard `json:"flashcards"`
}
