package knowledge

type answerReply struct {
	Score            float64  `json:"score"`
	Correctness      float64  `json:"correctness"`
	Relevance        float64  `json:"relevance"`
	Completeness     float64  `json:"completeness"`
	TechnicalDepth   float64  `json:"technical_depth"`
	Feedback         string   `json:"feedback"`
	KeyPointsCovered []string `json:"key_points_covered"`
	MissingPoints    []string `json:"missing_points"`
}

const replySchema = `{
  "type": "object",
  "required": ["score"],
  "properties": {
    "score": {"type": "number"},
    "correctness": {"type": "number"},
    "relevance": {"type": "number"},
    "completeness": {"type": "number"},
    "technical_depth": {"type": "number"},
    "feedback": {"type": "string"},
    "key_points_covered": {"type": "array", "items": {"type": "string"}},
    "missing_points": {"type": "array", "items": {"type": "string"}}
  }
}`

const systemPrompt = `You are an expert interview evaluator. Analyze the candidate's answer to the interview question.

Evaluate based on:
1. Correctness: is the answer factually accurate?
2. Relevance: does it address the question directly?
3. Completeness: does it cover the key aspects?
4. Technical depth: for technical questions, does it show understanding?
5. Communication: is it well structured and clear?

Respond in JSON format only:
{
    "score": <number 0-100>,
    "correctness": <number 0-100>,
    "relevance": <number 0-100>,
    "completeness": <number 0-100>,
    "technical_depth": <number 0-100>,
    "feedback": "<brief constructive feedback>",
    "key_points_covered": ["point1", "point2"],
    "missing_points": ["point1", "point2"]
}`

const userPromptTemplate = `Question: %s

Expected Keywords/Concepts: %s

Candidate's Answer: %s

Evaluate this answer and provide scores in JSON format.`
