package advisor

import (
	"fmt"
	"strings"

	"freshlogic/internal/crops"
	"freshlogic/internal/models"
)

// SystemInstruction frames every explanation request.
const SystemInstruction = `You are FreshLogic, a post-harvest agronomist advising on perishable produce in transit.
You receive a route risk report computed by a deterministic engine. Treat its numbers as ground truth and do not recompute them.
Explain in plain language why the shipment received its status, point to the checkpoints that drove the risk, and give two or three concrete recommendations for the crop.
Keep the answer under 250 words.`

const defaultQuestion = "Provide a comprehensive analysis of this trip."

// maxDangerLines bounds how many in-danger checkpoints are listed.
const maxDangerLines = 8

// BuildPrompt renders the report and the user's question.
func BuildPrompt(profile crops.CropProfile, rec *models.AnalysisRecord, question string) string {
	var b strings.Builder
	s := rec.Summary

	fmt.Fprintf(&b, "CROP: %s", profile.Name)
	if profile.Category != "" {
		fmt.Fprintf(&b, " (%s)", profile.Category)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "OPTIMAL STORAGE: %.1f-%.1f°C, %.0f-%.0f%% RH, baseline shelf life %.0f days\n",
		profile.TempLowC, profile.TempHighC, profile.HumidityLowPct, profile.HumidityHighPct, profile.ShelfLifeDays)
	if profile.HasChillingThreshold() {
		fmt.Fprintf(&b, "CHILLING INJURY BELOW: %.1f°C\n", *profile.ChillingInjuryC)
	}

	b.WriteString("\nTRIP REPORT:\n")
	if rec.Origin != "" || rec.Destination != "" {
		fmt.Fprintf(&b, "- Route: %s -> %s\n", orUnknown(rec.Origin), orUnknown(rec.Destination))
	}
	fmt.Fprintf(&b, "- Spoilage risk: %.1f%% (%s)\n", rec.OverallRisk*100, rec.Status)
	fmt.Fprintf(&b, "- Estimated shelf life remaining: %.1f days\n", rec.DaysRemaining)
	fmt.Fprintf(&b, "- Danger zones: %d covering %.1f hours\n", rec.DangerZoneCount, rec.DangerHours)
	fmt.Fprintf(&b, "- Temperature swing: %.1f°C\n", rec.TemperatureVariance)

	if s != nil {
		fmt.Fprintf(&b, "- Distance: %.0f km over %.1f hours\n", s.DistanceKm, s.DurationHours)
		fmt.Fprintf(&b, "- Average conditions: %.1f°C, %.0f%% RH\n", s.AvgTemperatureC, s.AvgHumidityPct)

		listed := 0
		for _, w := range s.Waypoints {
			if !w.InDanger {
				continue
			}
			if listed == 0 {
				b.WriteString("\nCHECKPOINTS OUTSIDE THE SAFE ENVELOPE:\n")
			}
			if listed == maxDangerLines {
				b.WriteString("- ...\n")
				break
			}
			fmt.Fprintf(&b, "- #%d at %.1fh: %.1f°C, %.0f%% RH, instant risk %.2f (%s)\n",
				w.Waypoint.Index, w.Waypoint.ElapsedHours, w.Waypoint.TemperatureC, w.Waypoint.HumidityPct,
				w.Instant.EnsembleRisk, strings.Join(w.DangerReasons, ", "))
			listed++
		}
	}

	q := strings.TrimSpace(question)
	if q == "" {
		q = defaultQuestion
	}
	fmt.Fprintf(&b, "\nUSER QUESTION: %s\n", q)
	return b.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
