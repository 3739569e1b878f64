package resume

type rubricItem struct {
	Score   float64 `json:"score"`
	Details string  `json:"details"`
}

type rubricReply struct {
	OverallScore   float64               `json:"overall_score"`
	Breakdown      map[string]rubricItem `json:"breakdown"`
	MatchedSkills  []string              `json:"matched_skills"`
	MissingSkills  []string              `json:"missing_skills"`
	Strengths      []string              `json:"strengths"`
	Concerns       []string              `json:"concerns"`
	Recommendation string                `json:"recommendation"`
}

const replySchema = `{
  "type": "object",
  "required": ["overall_score"],
  "properties": {
    "overall_score": {"type": "number"},
    "breakdown": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "properties": {
          "score": {"type": "number"},
          "details": {"type": "string"}
        }
      }
    },
    "matched_skills": {"type": "array", "items": {"type": "string"}},
    "missing_skills": {"type": "array", "items": {"type": "string"}},
    "strengths": {"type": "array", "items": {"type": "string"}},
    "concerns": {"type": "array", "items": {"type": "string"}},
    "recommendation": {"type": "string"}
  }
}`

const systemPrompt = `You are an expert HR recruiter evaluating resumes for job fit.

You will receive a job posting with up to four sections: JOB DESCRIPTION, REQUIREMENTS,
RESPONSIBILITIES and SKILLS REQUIRED. Evaluate the resume against them and give a match
percentage.

SCORING CRITERIA (100 points):

1. SKILLS MATCH (40 points)
   - Match resume skills with SKILLS REQUIRED
   - Give partial credit for similar or related technologies
   - Required skills = 30 pts, bonus skills = 10 pts

2. REQUIREMENTS FIT (30 points)
   - Education, years of experience, certifications
   - Core qualifications named in REQUIREMENTS

3. RESPONSIBILITIES ALIGNMENT (20 points)
   - Past experience matches the duties in RESPONSIBILITIES
   - Similar projects or roles

4. OVERALL FIT (10 points)
   - Resume quality and professionalism
   - Career trajectory alignment

SCORE INTERPRETATION:
- 80-100: excellent match, highly recommended
- 65-79: good match, recommended for interview
- 50-64: partial match, consider with reservations
- 35-49: weak match, not recommended
- below 35: poor match, reject

Be honest. Do not inflate scores. Deduct for missing skills.

RETURN ONLY THIS JSON:
{
    "overall_score": <number 0-100>,
    "breakdown": {
        "skills_match": {"score": <0-40>, "details": "<what matched or is missing>"},
        "requirements_fit": {"score": <0-30>, "details": "<how well requirements are met>"},
        "responsibilities_alignment": {"score": <0-20>, "details": "<can the candidate handle the duties>"},
        "overall_fit": {"score": <0-10>, "details": "<overall impression>"}
    },
    "matched_skills": ["skill1", "skill2"],
    "missing_skills": ["skill1", "skill2"],
    "strengths": ["strength1", "strength2"],
    "concerns": ["concern1", "concern2"],
    "recommendation": "<1-2 sentence HR recommendation>"
}`

const userPromptTemplate = `Evaluate this resume against the job posting.

=== JOB POSTING ===
%s

=== CANDIDATE RESUME ===
%s

Analyze and return JSON with the match percentage.`
