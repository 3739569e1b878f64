// internal/workers/evaluation/send-notification/templates.go
package sendnotification

import (
	"fmt"
	"strconv"
	"strings"

	"candidate-evaluator/internal/models"

	"github.com/spf13/viper"
)

// DefaultTemplates are used for any template id the template file does not define.
func DefaultTemplates() map[string]models.NotificationTemplate {
	return map[string]models.NotificationTemplate{
		models.TemplateInterviewInvite: {
			ID:      models.TemplateInterviewInvite,
			Subject: "Interview Invitation: {{jobTitle}}",
			Body: "Congratulations {{candidateName}}! You have been shortlisted for an interview for the " +
				"{{jobTitle}} position. Your Interview ID is: {{interviewCode}}. This invitation is valid until {{expiresAt}}.",
			SMS: "Interview invitation for {{jobTitle}}. Interview ID: {{interviewCode}}",
		},
		models.TemplateEvaluationComplete: {
			ID:      models.TemplateEvaluationComplete,
			Subject: "Your interview has been received",
			Body:    "Hello {{candidateName}}, thank you for completing your interview. Our team will review it and get back to you.",
		},
		models.TemplateDecisionSelected: {
			ID:      models.TemplateDecisionSelected,
			Subject: "Application update: {{jobTitle}}",
			Body:    "Hello {{candidateName}}, we are happy to let you know that you have been selected. Our HR team will contact you with next steps.",
			SMS:     "Good news! You have been selected for {{jobTitle}}.",
		},
		models.TemplateDecisionRejected: {
			ID:      models.TemplateDecisionRejected,
			Subject: "Application update: {{jobTitle}}",
			Body:    "Hello {{candidateName}}, thank you for your time. After careful review we will not be moving forward with your application.",
		},
	}
}

// LoadTemplates reads a YAML file with a top-level "templates" list and
// merges it over DefaultTemplates. An empty path returns the defaults.
func LoadTemplates(path string) (map[string]models.NotificationTemplate, error) {
	templates := DefaultTemplates()
	if path == "" {
		return templates, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read templates %s: %w", path, err)
	}

	var list []models.NotificationTemplate
	if err := v.UnmarshalKey("templates", &list); err != nil {
		return nil, fmt.Errorf("parse templates %s: %w", path, err)
	}
	for _, t := range list {
		if t.ID == "" {
			return nil, fmt.Errorf("template without id in %s", path)
		}
		templates[t.ID] = t
	}
	return templates, nil
}

// renderTemplate substitutes {{key}} placeholders; unknown placeholders are removed.
func renderTemplate(tmpl string, data map[string]interface{}) string {
	result := tmpl
	for k, v := range data {
		value := ""
		switch val := v.(type) {
		case string:
			value = val
		case float64:
			// JSON numbers arrive as float64; ids must not render as 2.1e+01
			value = strconv.FormatFloat(val, 'f', -1, 64)
		case nil:
		default:
			value = fmt.Sprintf("%v", val)
		}
		result = strings.ReplaceAll(result, "{{"+k+"}}", value)
	}

	for {
		start := strings.Index(result, "{{")
		if start == -1 {
			break
		}
		end := strings.Index(result[start:], "}}")
		if end == -1 {
			break
		}
		result = result[:start] + result[start+end+2:]
	}
	return result
}
