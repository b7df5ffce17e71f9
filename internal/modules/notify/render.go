// README: Update-message rendering with highlights on changed fields.
package notify

import (
	"fmt"
	"strings"
)

// RenderSubject is the single subject line shared by every recipient.
func RenderSubject(v *JobView) string {
	return fmt.Sprintf("Job %s updated", v.RefCode)
}

// RenderBody renders every display field, marking the ones present in the
// change set. One body is built per event and sent to all recipients.
// travelNote is an optional origin→destination estimate appended at the end.
func RenderBody(v *JobView, changedFields []string, travelNote string) string {
	changed := make(map[string]bool, len(changedFields))
	for _, f := range changedFields {
		changed[f] = true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Job %s (%s)\n\n", v.RefCode, v.Status)
	line(&b, changed["service_date"], "Service date", v.ServiceDate.Format("2006-01-02 15:04"))
	line(&b, changed["service_type"], "Service type", v.ServiceType)
	line(&b, changed["job_status"], "Status", v.Status)
	line(&b, changed["pax_adults"] || changed["pax_children"], "Passengers",
		fmt.Sprintf("%d adults, %d children", v.PaxAdults, v.PaxChildren))
	line(&b, changed["origin"], "From", v.OriginName)
	line(&b, changed["destination"], "To", v.DestinationName)
	line(&b, changed["customer_name"], "Customer", v.CustomerName)
	line(&b, changed["flight_number"], "Flight", v.FlightNumber)
	if travelNote != "" {
		fmt.Fprintf(&b, "\nEstimated transfer: %s\n", travelNote)
	}
	return b.String()
}

func line(b *strings.Builder, highlight bool, label, value string) {
	if highlight {
		fmt.Fprintf(b, "* %s: %s (updated)\n", label, value)
		return
	}
	fmt.Fprintf(b, "  %s: %s\n", label, value)
}

// DedupeAddresses folds case and drops blanks, keeping first-seen order, so a
// user who is also a department mailbox gets one message.
func DedupeAddresses(addrs []string) []string {
	seen := make(map[string]bool, len(addrs))
	out := make([]string, 0, len(addrs))
	for _, a := range addrs {
		key := strings.ToLower(strings.TrimSpace(a))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, key)
	}
	return out
}
