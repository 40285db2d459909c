package google

import (
	"context"
	"fmt"

	"github.com/harrisonrobin/taskboard/pkg/auth"
	"github.com/harrisonrobin/taskboard/pkg/colors"
	"github.com/harrisonrobin/taskboard/pkg/index"
)

// NewClient signs in with the saved token and resolves calendarName to its id.
func NewClient(ctx context.Context, calendarName string, idx *index.EventIndex, cache *colors.ColorCache) (*CalendarClient, error) {
	srv, err := auth.GetCalendarService(ctx)
	if err != nil {
		return nil, err
	}

	calendarList, err := srv.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve calendar list: %w", err)
	}

	var calendarID string
	for _, item := range calendarList.Items {
		if item.Summary == calendarName {
			calendarID = item.Id
			break
		}
	}
	if calendarID == "" {
		return nil, fmt.Errorf("calendar '%s' not found", calendarName)
	}

	return NewCalendarClient(srv, calendarID, idx, cache), nil
}
