// README: Pure rendering tests for update messages.
package notify

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"trafficdesk/internal/types"
)

func sampleView() *JobView {
	return &JobView{
		JobID:           types.ID("j1"),
		RefCode:         "TD-5001",
		ServiceDate:     time.Date(2026, 9, 14, 10, 30, 0, 0, time.UTC),
		ServiceType:     "arrival",
		Status:          "assigned",
		PaxAdults:       2,
		PaxChildren:     1,
		OriginName:      "Cairo International Airport",
		DestinationName: "Nile View Hotel",
		CustomerName:    "J. Smith",
		FlightNumber:    "MS912",
	}
}

func TestRenderSubject(t *testing.T) {
	assert.Equal(t, "Job TD-5001 updated", RenderSubject(sampleView()))
}

func TestRenderBodyHighlightsChangedFields(t *testing.T) {
	body := RenderBody(sampleView(), []string{"flight_number", "service_date"}, "")

	assert.Contains(t, body, "* Flight: MS912 (updated)")
	assert.Contains(t, body, "* Service date: 2026-09-14 10:30 (updated)")
	// Unchanged fields render without the highlight marker.
	assert.Contains(t, body, "  Customer: J. Smith\n")
	assert.NotContains(t, body, "* Customer")
	assert.NotContains(t, body, "Estimated transfer")
}

func TestRenderBodyPassengerFieldsShareOneLine(t *testing.T) {
	body := RenderBody(sampleView(), []string{"pax_children"}, "")
	assert.Contains(t, body, "* Passengers: 2 adults, 1 children (updated)")
	assert.Equal(t, 1, strings.Count(body, "Passengers:"))
}

func TestRenderBodyTravelNote(t *testing.T) {
	body := RenderBody(sampleView(), []string{"origin"}, "24 km, about 35m0s")
	assert.Contains(t, body, "Estimated transfer: 24 km, about 35m0s")
}

func TestDedupeAddresses(t *testing.T) {
	got := DedupeAddresses([]string{
		"Ops@Example.com",
		"ops@example.com",
		"  ",
		"dispatch@example.com",
		"DISPATCH@example.com ",
		"driver@example.com",
	})
	assert.Equal(t, []string{"ops@example.com", "dispatch@example.com", "driver@example.com"}, got)
}
