package ai

import (
	"sort"
	"strings"

	"tailorkit/internal/types"
)

// DefaultPromptTemplate is the built-in generation prompt. Placeholders are
// {resume}, {jobDescription}, {tone}, {roleLevel} and {customInstructions}.
const DefaultPromptTemplate = `
You are an expert career assistant and professional resume writer. Your task is to help a user tailor their resume, write a cover letter, and analyze their fit for a specific job application.

Analyze the provided resume/profile and the target job description. Based on your analysis, generate a JSON object with four parts: a tailored resume, a personalized cover letter, a keyword analysis, and an alignment analysis.

**USER's RESUME/PROFILE:**
---
{resume}
---

**TARGET JOB DESCRIPTION:**
---
{jobDescription}
---

**TONE & STYLE PREFERENCES:**
- Cover Letter Tone: {tone}
- Target Role Level: {roleLevel}

**ADDITIONAL CUSTOMIZATION INSTRUCTIONS FROM USER:**
---
{customInstructions}
---

**RULES:**
0.  **PRIORITY:** Strictly follow all instructions provided in the "ADDITIONAL CUSTOMIZATION INSTRUCTIONS FROM USER" section when generating the resume and cover letter.
1.  **TAILORED RESUME:**
    *   Extract the most relevant skills, experiences, and achievements from the original resume that align with the job description.
    *   Rewrite bullet points to use action verbs and quantify achievements where possible, reflecting the language and priorities of the job description.
    *   Incorporate keywords from the job description naturally.
    *   Maintain the user's authentic experience; do not invent skills or experiences.
    *   Structure the output clearly, using standard resume sections (e.g., Summary, Experience, Skills, Education).
    *   The output must be a single block of text, formatted with markdown for readability.

2.  **PERSONALIZED COVER LETTER:**
    *   Create a professional and compelling cover letter, adhering to the specified **Tone** and **Role Level**.
    *   Start with a strong opening that grabs the reader's attention.
    *   Highlight 2-3 key strengths that directly address the core requirements of the job.
    *   Express genuine enthusiasm for the role and the company.
    *   End with a professional closing and a clear call to action.
    *   The output must be a single block of text.

3.  **KEYWORD ANALYSIS:**
    *   Identify and list the most important keywords and skills from the job description (e.g., "Project Management", "React", "Data Analysis", "SaaS").
    *   Return this as an array of strings.

4.  **ALIGNMENT ANALYSIS:**
    *   Briefly analyze the user's resume against the job description.
    *   Identify key **strengths** (areas of strong alignment).
    *   Identify potential **gaps** (areas where experience may be lacking or not explicitly mentioned).
    *   Return this as an object with two arrays of strings: 'strengths' and 'gaps'.

Generate the response in the specified JSON format.
`

// jsonOnlyInstruction is sent to providers without native schema support
const jsonOnlyInstruction = "Respond with a single JSON object and nothing else. The object must conform to this JSON Schema:\n"

const (
	placeholderResume             = "{resume}"
	placeholderJobDescription     = "{jobDescription}"
	placeholderTone               = "{tone}"
	placeholderRoleLevel          = "{roleLevel}"
	placeholderCustomInstructions = "{customInstructions}"
)

// BuildPrompt fills template with the request values. Each placeholder is
// replaced once, at its first occurrence in the template; substituted user
// text is never scanned for further placeholders.
func BuildPrompt(template string, req *types.GenerationRequest) string {
	tone := string(req.Tone)
	if req.Tone == "" || req.Tone == types.ToneDefault {
		tone = "professional"
	}

	roleLevel := string(req.RoleLevel)
	if req.RoleLevel == "" || req.RoleLevel == types.RoleLevelDefault {
		roleLevel = "unspecified"
	}

	instructions := req.CustomInstructions
	if strings.TrimSpace(instructions) == "" {
		instructions = "None provided."
	}

	return substituteOnce(template, map[string]string{
		placeholderResume:             req.ResumeText,
		placeholderJobDescription:     req.JobDescriptionText,
		placeholderTone:               tone,
		placeholderRoleLevel:          roleLevel,
		placeholderCustomInstructions: instructions,
	})
}

type substitution struct {
	at          int
	placeholder string
	value       string
}

func substituteOnce(template string, values map[string]string) string {
	subs := make([]substitution, 0, len(values))
	for placeholder, value := range values {
		if at := strings.Index(template, placeholder); at >= 0 {
			subs = append(subs, substitution{at: at, placeholder: placeholder, value: value})
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].at < subs[j].at })

	var sb strings.Builder
	last := 0
	for _, s := range subs {
		sb.WriteString(template[last:s.at])
		sb.WriteString(s.value)
		last = s.at + len(s.placeholder)
	}
	sb.WriteString(template[last:])
	return sb.String()
}

// resolvePrompt selects a prompt by priority: file, then config, then default
func resolvePrompt(loadedFromFile, fromConfig, fromDefault string) string {
	if loadedFromFile != "" {
		return loadedFromFile
	}
	if fromConfig != "" {
		return fromConfig
	}
	return fromDefault
}
