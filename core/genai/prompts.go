package genai

import (
	"bytes"
	"text/template"
)

type QuestionKind int

const (
	DescriptiveQuestions QuestionKind = iota
	MCQQuestions
	ProblemQuestions
)

var (
	questionsTmpl = template.Must(template.New("questions").Parse(
		`Imagine you are a school teacher and generate {{.Count}} {{.Noun}} for class {{.Grade}} on the topic '{{.Topic}}'.
{{- if .Description}}
Consider that {{.Description}}.
{{- end}}
Only output a valid JSON array, no explanations, no titles, no introductions.
Example format (do not include any extra text):
{{.Format}}
`))

	scoringTmpl = template.Must(template.New("scoring").Parse(
		`Imagine you are a school teacher and evaluate the following descriptive answer for the given question.
Only output a valid JSON object, no explanations, no titles, no introductions.

Question: {{.Question}}
Student Answer: {{.Answer}}
Maximum Marks: {{.Marks}}

Award an integer score between 0 and {{.Marks}} and explain the reasoning.
Format:
{"score": {{.Marks}}, "feedback": "The student covered ..."}
`))

	mcqFormat = `[
  {"question": "What is ...?", "options": ["A", "B", "C", "D"], "answer": "A"}
]`
	openFormat = `[
  {"question": "What is ...?"}
]`
)

// QuestionsPrompt builds the prompt asking for count questions of the given kind.
func QuestionsPrompt(kind QuestionKind, count int, topic, grade, description string) string {
	data := struct {
		Count               int
		Noun, Grade, Topic  string
		Description, Format string
	}{Count: count, Grade: grade, Topic: topic, Description: description}

	switch kind {
	case MCQQuestions:
		data.Noun, data.Format = "multiple choice questions", mcqFormat
	case ProblemQuestions:
		data.Noun, data.Format = "math problems", openFormat
	default:
		data.Noun, data.Format = "descriptive questions", openFormat
	}
	return render(questionsTmpl, data)
}

// ScoringPrompt builds the prompt asking to score a descriptive answer out of marks.
func ScoringPrompt(question, answer string, marks int) string {
	return render(scoringTmpl, struct {
		Question, Answer string
		Marks            int
	}{question, answer, marks})
}

func render(tmpl *template.Template, data interface{}) string {
	var buff bytes.Buffer
	// templates are static and data is always complete
	_ = tmpl.Execute(&buff, data)
	return buff.String()
}
