package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// DefaultQuestionCount is the number of questions asked per concept.
const DefaultQuestionCount = 7

// ErrEmptyGeneration is returned when the model produced nothing usable.
var ErrEmptyGeneration = errors.New("model returned no usable content")

// GeneratedFlashcard is one card proposed by the model.
type GeneratedFlashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// GeneratedQuestion is one multiple-choice question proposed by the model.
// CorrectAnswer indexes PossibleAnswers.
type GeneratedQuestion struct {
	Question        string
	PossibleAnswers []string
	CorrectAnswer   int
	Explanation     string
}

type rawQuestion struct {
	Question        string   `json:"question"`
	PossibleAnswers []string `json:"possible_answers"`
	CorrectAnswer   string   `json:"correct_answer"`
	Why             string   `json:"why"`
}

// Generator produces study content from text with an LLM.
type Generator struct {
	llm           LLMService
	questionCount int
}

// NewGenerator creates a Generator.
func NewGenerator(llm LLMService) *Generator {
	return &Generator{
		llm:           llm,
		questionCount: DefaultQuestionCount,
	}
}

// GenerateNotes rewrites extracted document text as Markdown notes.
func (g *Generator) GenerateNotes(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.New("no text to generate notes from")
	}
	notes, err := g.llm.Chat(ctx, FormatMessages(notesPrompt, text))
	if err != nil {
		return "", errors.Wrap(err, "failed to generate notes")
	}
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return "", ErrEmptyGeneration
	}
	return notes, nil
}

// GenerateFlashcards proposes flashcards for notes. Cards with an empty side are dropped.
func (g *Generator) GenerateFlashcards(ctx context.Context, notes string) ([]GeneratedFlashcard, error) {
	reply, err := g.llm.Chat(ctx, FormatMessages(flashcardsPrompt, notes))
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate flashcards")
	}

	var raw []GeneratedFlashcard
	if err := decodeJSON(reply, &raw); err != nil {
		return nil, errors.Wrap(err, "failed to parse flashcards")
	}

	cards := make([]GeneratedFlashcard, 0, len(raw))
	for _, card := range raw {
		card.Front, card.Back = strings.TrimSpace(card.Front), strings.TrimSpace(card.Back)
		if card.Front == "" || card.Back == "" {
			continue
		}
		cards = append(cards, card)
	}
	if len(cards) == 0 {
		return nil, ErrEmptyGeneration
	}
	return cards, nil
}

// GenerateQuestions proposes multiple-choice questions for notes. Questions
// whose correct answer is not one of the options are dropped.
func (g *Generator) GenerateQuestions(ctx context.Context, notes string) ([]GeneratedQuestion, error) {
	reply, err := g.llm.Chat(ctx, FormatMessages(fmt.Sprintf(questionsPrompt, g.questionCount), notes))
	if err != nil {
		return nil, errors.Wrap(err, "failed to generate questions")
	}

	var raw []rawQuestion
	if err := decodeJSON(reply, &raw); err != nil {
		return nil, errors.Wrap(err, "failed to parse questions")
	}

	questions := make([]GeneratedQuestion, 0, len(raw))
	for _, q := range raw {
		correct := slices.IndexFunc(q.PossibleAnswers, func(answer string) bool {
			return strings.TrimSpace(answer) == strings.TrimSpace(q.CorrectAnswer)
		})
		if strings.TrimSpace(q.Question) == "" || correct < 0 {
			continue
		}
		questions = append(questions, GeneratedQuestion{
			Question:        strings.TrimSpace(q.Question),
			PossibleAnswers: q.PossibleAnswers,
			CorrectAnswer:   correct,
			Explanation:     strings.TrimSpace(q.Why),
		})
	}
	if len(questions) == 0 {
		return nil, ErrEmptyGeneration
	}
	return questions, nil
}

// decodeJSON reads the JSON payload of a model reply. Models often wrap it in
// a fenced code block or add a sentence around it.
func decodeJSON(reply string, v any) error {
	payload := extractJSON(reply)
	if payload == "" {
		return errors.New("no JSON found in reply")
	}
	return json.Unmarshal([]byte(payload), v)
}

func extractJSON(reply string) string {
	s := strings.TrimSpace(reply)
	if start := strings.Index(s, "```"); start >= 0 {
		body := s[start+3:]
		if nl := strings.IndexByte(body, '\n'); nl >= 0 {
			body = body[nl+1:]
		}
		if end := strings.Index(body, "```"); end >= 0 {
			body = body[:end]
		}
		s = strings.TrimSpace(body)
	}

	start := strings.IndexAny(s, "[{")
	if start < 0 {
		return ""
	}
	closing := byte(']')
	if s[start] == '{' {
		closing = '}'
	}
	end := strings.LastIndexByte(s, closing)
	if end < start {
		return ""
	}
	return s[start : end+1]
}
