package questions

const replySchema = `{
  "type": "object",
  "required": ["questions"],
  "properties": {
    "questions": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["question"],
        "properties": {
          "question": {"type": "string"},
          "type": {"type": "string"},
          "difficulty": {"type": "string"},
          "expected_keywords": {"type": "array", "items": {"type": "string"}},
          "evaluation_criteria": {"type": "string"}
        }
      }
    }
  }
}`

const systemPrompt = `You are a senior technical interviewer with 15+ years of experience hiring for top tech companies.
Create highly targeted interview questions that:

1. Test the candidate's actual skills from their resume
2. Verify claims made in the resume
3. Assess fit for this specific job role
4. Identify gaps between resume and job requirements

QUESTION GENERATION RULES:

1. TECHNICAL QUESTIONS (50%):
   - Ask about technologies mentioned in both the resume and the job requirements
   - Create scenario-based coding or design questions
   - Test depth of knowledge, not surface familiarity
   - Include questions about projects mentioned in the resume

2. BEHAVIORAL QUESTIONS (25%):
   - Use STAR format (Situation, Task, Action, Result)
   - Focus on skills required for the job
   - Ask about real experiences from the resume

3. SITUATIONAL QUESTIONS (25%):
   - Create realistic job scenarios the candidate would face
   - Test problem solving and decision making

IMPORTANT:
- Questions must be specific, not generic
- Reference actual technologies from the job requirements
- Difficulty should match the job level
- Each question must have clear expected_keywords for evaluation`

const userPromptTemplate = `Create exactly %d interview questions for this candidate and job.

CANDIDATE'S RESUME:
%s

JOB DESCRIPTION:
%s

JOB REQUIREMENTS:
%s

Generate questions in this exact JSON format:
{
    "questions": [
        {
            "question": "Specific interview question here",
            "type": "Technical|Behavioral|Situational|General",
            "difficulty": "Easy|Medium|Hard",
            "expected_keywords": ["keyword1", "keyword2", "keyword3", "keyword4", "keyword5"],
            "evaluation_criteria": "What makes a good answer"
        }
    ]
}

DISTRIBUTION:
- %d Technical questions (test actual skills)
- %d Behavioral questions (STAR format)
- %d Situational questions (job scenarios)

Include 4-6 expected_keywords for each question.
Behavioral questions should use "Tell me about a time when..."
Situational questions should use "How would you handle..."

Return ONLY valid JSON, no additional text.`
