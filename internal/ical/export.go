// Package ical renders meeting views as iCalendar documents so the winning
// slot can be imported into external calendars.
package ical

import (
	"errors"
	"fmt"
	"io"
	"time"

	goical "github.com/emersion/go-ical"

	"github.com/example/slotpoll/internal/application"
)

// ErrNoWinner is returned when the meeting has no voted slot to export.
var ErrNoWinner = errors.New("ical: meeting has no voted slot")

const productID = "-//slotpoll//EN"

// WriteWinner encodes a VCALENDAR with a single VEVENT for the meeting's most
// voted slot.
func WriteWinner(w io.Writer, view application.MeetingView, now time.Time) error {
	if view.MostVotedSlotID == "" {
		return ErrNoWinner
	}

	var winner application.SlotView
	found := false
	for _, slot := range view.Slots {
		if slot.ID == view.MostVotedSlotID {
			winner = slot
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("ical: winning slot %q not in slot set", view.MostVotedSlotID)
	}

	cal := goical.NewCalendar()
	cal.Props.SetText(goical.PropVersion, "2.0")
	cal.Props.SetText(goical.PropProductID, productID)

	event := goical.NewComponent(goical.CompEvent)
	event.Props.SetText(goical.PropUID, view.Meeting.UniqueID+"-"+winner.ID)
	event.Props.SetText(goical.PropSummary, view.Meeting.Title)
	event.Props.SetDateTime(goical.PropDateTimeStamp, now.UTC())
	event.Props.SetDateTime(goical.PropDateTimeStart, winner.Start)
	event.Props.SetDateTime(goical.PropDateTimeEnd, winner.Start.Add(time.Duration(winner.DurationMinutes)*time.Minute))
	event.Props.SetText(goical.PropDescription, fmt.Sprintf("%d of %d voters available", winner.Available, winner.Total))
	if view.Meeting.OrganizerName != "" {
		prop := goical.NewProp(goical.PropOrganizer)
		prop.Params.Set(goical.ParamCommonName, view.Meeting.OrganizerName)
		prop.Value = "mailto:unknown@invalid"
		event.Props.Set(prop)
	}
	cal.Children = append(cal.Children, event)

	return goical.NewEncoder(w).Encode(cal)
}
