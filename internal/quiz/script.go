package quiz

// Question is one step of the quiz script. The answer is matched against the
// inbound text verbatim after trimming.
type Question struct {
	Prompt   string   `yaml:"prompt"`
	ImageURL string   `yaml:"image_url"`
	Options  []string `yaml:"options"`
	Answer   string   `yaml:"answer"`
	Hint     string   `yaml:"hint"`
}

// Script is the static configuration surface of the quiz: the question
// sequence plus the fixed phrases that gate completion and redemption.
type Script struct {
	Questions        []Question `yaml:"questions"`
	CompletionPhrase string     `yaml:"completion_phrase"`
	RedeemCode       string     `yaml:"redeem_code"`
	PhotoStage       bool       `yaml:"photo_stage"`
}

// DefaultScript is the built-in four-question game used when no script is
// configured.
func DefaultScript() Script {
	return Script{
		Questions: []Question{
			{
				Prompt:   "Question 1: Which of these is a Powerpuff Girls character?",
				ImageURL: "https://static.quiz-bot.example/cards/q1.png",
				Options:  []string{"A", "B", "C"},
				Answer:   "A",
				Hint:     "Wrong answer, try again!",
			},
			{
				Prompt:   "Question 2: Pick the right one!",
				ImageURL: "https://static.quiz-bot.example/cards/q2.png",
				Options:  []string{"A", "B", "C"},
				Answer:   "C",
				Hint:     "Incorrect, have another look~",
			},
			{
				Prompt:   "Question 3: One more to think about.",
				ImageURL: "https://static.quiz-bot.example/cards/q3.png",
				Options:  []string{"A", "B", "C"},
				Answer:   "B",
				Hint:     "That is not it, try once more!",
			},
			{
				Prompt:   "Final question: Almost there!",
				ImageURL: "https://static.quiz-bot.example/cards/q4.png",
				Options:  []string{"A", "B", "C"},
				Answer:   "B",
				Hint:     "The last one is wrong, think again~",
			},
		},
		CompletionPhrase: "done",
		RedeemCode:       "redeem-now",
		PhotoStage:       true,
	}
}
