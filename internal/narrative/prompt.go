package narrative

import (
	"fmt"
	"strings"

	"gait-backend/internal/gait"
	"gait-backend/internal/models"
)

const systemInstructions = `You are a medical expert specialized in gait analysis and prosthetics. Based on the provided patient profile, gait metrics, medical conditions, injuries, and prosthetics (if any), provide a structured response in JSON format. Do not invent or assume data beyond what is provided. If a field cannot be populated due to missing data, use empty arrays.

Answer these questions:
1. What does the gait data reveal about the patient's walking pattern, considering any prosthetics, medical conditions, or injuries?
2. What abnormalities or issues are present in the gait pattern, and how might they relate to prosthetics, medical conditions, or injuries?
3. What specific exercises can improve the patient's gait, particularly for symmetry and prosthetic adaptation (if applicable)?
4. How does the patient's weight influence their gait and prosthetic function (if applicable)?
5. What are the potential long-term risks or complications associated with the current gait pattern?

The detailed_analysis field must be a single Markdown string addressing each question systematically with subheadings. The summary must be a concise plain string of 100-200 words. Recommendations should include actionable steps like prosthetic adjustments, medical consultations, or lifestyle changes. Recommended exercises should be specific, including frequency and duration where applicable. Long-term risks should be concise and specific to the patient's gait, prosthetics, medical conditions, or injuries. If no prosthetics, medical conditions, or injuries are provided, analyze gait assuming a non-prosthetic patient. Do not invent data; note limitations where information is missing. Ensure medical accuracy and clarity.`

func buildPrompt(req Request) string {
	return fmt.Sprintf(`**Input Data**:
- **Patient Profile**:
- Age: %s
- Weight: %s kg
- **Prosthetics**: %s
- **Medical Conditions**: %s
- **Injuries**: %s
- **Gait Data**: %s`,
		req.Age, req.Weight, req.Prosthetics, req.MedicalConditions, req.Injuries, req.GaitData)
}

// BuildRequest formats the patient context and duration sequences into the
// textual fields the generation capability expects.
func BuildRequest(patient *models.Patient, d gait.Durations) Request {
	return Request{
		Age:               intOrNA(patient.Age),
		Weight:            floatOrNA(patient.Weight),
		Prosthetics:       FormatProsthetics(patient.Prosthetics),
		MedicalConditions: FormatMedicalConditions(patient.MedicalConditions),
		Injuries:          FormatInjuries(patient.Injuries),
		GaitData:          FormatDurations(d),
	}
}

// FormatProsthetics renders prosthetic rows for the prompt.
func FormatProsthetics(prosthetics []models.Prosthetic) string {
	if len(prosthetics) == 0 {
		return "No prosthetics for this patient."
	}
	lines := make([]string, 0, len(prosthetics))
	for _, p := range prosthetics {
		lines = append(lines, fmt.Sprintf(
			"- Type: %s, Side: %s, Material: %s, Weight: %s kg, Usage Duration: %s months, Socket Fit: %s, Foot Type: %s, Knee Type: %s, Activity Level: %s, User Adaptation: %s",
			p.Type, strOrNA(p.Side), strOrNA(p.Material), floatOrNA(p.Weight), intOrNA(p.UsageDuration),
			strOrNA(p.SocketFit), strOrNA(p.FootType), strOrNA(p.KneeType), strOrNA(p.ActivityLevel), strOrNA(p.Adaptation)))
	}
	return strings.Join(lines, "\n")
}

// FormatMedicalConditions renders condition rows for the prompt.
func FormatMedicalConditions(conditions []models.MedicalCondition) string {
	if len(conditions) == 0 {
		return "No medical conditions for this patient."
	}
	lines := make([]string, 0, len(conditions))
	for _, c := range conditions {
		lines = append(lines, fmt.Sprintf(
			"- Condition: %s, Severity: %s, Treatment Status: %s, Details: %s",
			c.Name, strOrNA(c.Severity), strOrNA(c.TreatmentStatus), strOrNA(c.Details)))
	}
	return strings.Join(lines, "\n")
}

// FormatInjuries renders injury rows for the prompt.
func FormatInjuries(injuries []models.Injury) string {
	if len(injuries) == 0 {
		return "No injuries for this patient."
	}
	lines := make([]string, 0, len(injuries))
	for _, i := range injuries {
		lines = append(lines, fmt.Sprintf(
			"- Type: %s, Side: %s, Current Impact: %s, Details: %s",
			i.InjuryType, strOrNA(i.Side), strOrNA(i.CurrentImpact), strOrNA(i.Details)))
	}
	return strings.Join(lines, "\n")
}

// FormatDurations flattens the eight duration sequences into the textual
// rendering used as prompt input.
func FormatDurations(d gait.Durations) string {
	return fmt.Sprintf(
		"Stance Time Left: %v, Stance Time Right: %v, Swing Time Left: %v, Swing Time Right: %v, Step Time Left: %v, Step Time Right: %v, Double Support Times Left: %v, Double Support Times Right: %v",
		d.StanceLeft, d.StanceRight, d.SwingLeft, d.SwingRight,
		d.StepLeft, d.StepRight, d.DoubleSupportLeft, d.DoubleSupportRight)
}

func strOrNA(s *string) string {
	if s == nil || *s == "" {
		return "N/A"
	}
	return *s
}

func intOrNA(i *int) string {
	if i == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d", *i)
}

func floatOrNA(f *float64) string {
	if f == nil {
		return "N/A"
	}
	return fmt.Sprintf("%g", *f)
}
