// Package gcal is a thin adapter around calendar event creation and update.
package gcal

import (
	"context"
	"net/http"
	"time"

	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/oyamada/tradeperipheral/googleauth"
)

// Scope is the calendar access this adapter needs.
const Scope = calendar.CalendarEventsScope

// keyProperty is the private extended property that makes upserts
// idempotent across runs.
const keyProperty = "tpKey"

// Event is the payload this tool puts on a calendar.
type Event struct {
	// Key identifies the event across runs; re-running updates the
	// existing calendar entry instead of duplicating it.
	Key         string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	TimeZone    string
}

// NewService builds the calendar API client on an authorized HTTP client.
func NewService(ctx context.Context, client *http.Client) (*calendar.Service, error) {
	svc, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, googleauth.WrapAPIError(err)
	}
	return svc, nil
}

// UpsertEvent creates the event, or updates the existing one carrying the
// same key. It reports whether a new event was created.
func UpsertEvent(ctx context.Context, svc *calendar.Service, calendarID string, ev Event) (bool, error) {
	existing, err := svc.Events.List(calendarID).
		PrivateExtendedProperty(keyProperty + "=" + ev.Key).
		ShowDeleted(false).
		MaxResults(1).
		Context(ctx).Do()
	if err != nil {
		return false, googleauth.WrapAPIError(err)
	}

	payload := toCalendarEvent(ev)
	if len(existing.Items) > 0 {
		_, err := svc.Events.Update(calendarID, existing.Items[0].Id, payload).Context(ctx).Do()
		return false, googleauth.WrapAPIError(err)
	}
	_, err = svc.Events.Insert(calendarID, payload).Context(ctx).Do()
	return true, googleauth.WrapAPIError(err)
}

func toCalendarEvent(ev Event) *calendar.Event {
	return &calendar.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start: &calendar.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: ev.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: ev.End.Format(time.RFC3339),
			TimeZone: ev.TimeZone,
		},
		ExtendedProperties: &calendar.EventExtendedProperties{
			Private: map[string]string{keyProperty: ev.Key},
		},
	}
}
