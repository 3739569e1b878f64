package questions

import "candidate-evaluator/internal/models"

var fallbackQuestions = []Question{
	{"Tell me about yourself and your professional background.", models.QuestionGeneral, models.DifficultyEasy, []string{"experience", "skills", "background"}, ""},
	{"What are your greatest strengths relevant to this position?", models.QuestionBehavioral, models.DifficultyEasy, []string{"strength", "skill", "ability"}, ""},
	{"Describe a challenging project you've worked on.", models.QuestionBehavioral, models.DifficultyMedium, []string{"challenge", "solution", "outcome"}, ""},
	{"How do you stay updated with the latest industry trends?", models.QuestionGeneral, models.DifficultyEasy, []string{"learning", "trends", "development"}, ""},
	{"Describe a time when you had to work under pressure.", models.QuestionSituational, models.DifficultyMedium, []string{"pressure", "deadline", "manage"}, ""},
	{"What technical skills make you suitable for this role?", models.QuestionTechnical, models.DifficultyMedium, []string{"skills", "experience", "proficiency"}, ""},
	{"How do you approach problem-solving in your work?", models.QuestionSituational, models.DifficultyMedium, []string{"analyze", "solution", "approach"}, ""},
	{"Describe your experience with team collaboration.", models.QuestionBehavioral, models.DifficultyEasy, []string{"team", "collaboration", "communication"}, ""},
	{"What are your career goals for the next 5 years?", models.QuestionGeneral, models.DifficultyEasy, []string{"goals", "growth", "career"}, ""},
	{"Do you have any questions about the role or company?", models.QuestionGeneral, models.DifficultyEasy, []string{"questions", "curiosity", "interest"}, ""},
}

// Fallback returns the first n generic questions, at most ten.
func Fallback(n int) []Question {
	if n > len(fallbackQuestions) || n <= 0 {
		n = len(fallbackQuestions)
	}
	out := make([]Question, n)
	copy(out, fallbackQuestions[:n])
	for i := range out {
		out[i].ExpectedKeywords = append([]string(nil), out[i].ExpectedKeywords...)
	}
	return out
}
