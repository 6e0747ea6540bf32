package core

import (
	"fmt"
	"strings"
)

// ShowroomLocation is one physical showroom the bot can describe.
type ShowroomLocation struct {
	Name    string
	Address string
	Phone   string
	Hours   string
}

// ChannelPolicy captures everything about a channel's behavior that differs
// from the shared state machine: copy, showroom data, how bookings complete,
// and how the support flow collects details.
type ChannelPolicy struct {
	Channel Channel

	// Showrooms maps a lowercase city key to its location. ShowroomOrder
	// fixes the numbering shown in the city menu.
	Showrooms     map[string]ShowroomLocation
	ShowroomOrder []string

	// SupportForm switches the support flow from a yes/no confirmation to
	// collecting contact details through a form before handoff.
	SupportForm bool

	// BookingRedirect builds the message sent when a booking is confirmed.
	// kind is "test_ride" or "t30".
	BookingRedirect func(kind string) string
}

var defaultShowrooms = map[string]ShowroomLocation{
	"chennai": {
		Name:    "Chennai Showroom",
		Address: "123 Anna Salai, Nungambakkam, Chennai - 600034",
		Phone:   "+91 44 1234 5678",
		Hours:   "Mon-Sat: 10:00 AM - 7:00 PM, Sun: 10:00 AM - 5:00 PM",
	},
	"bangalore": {
		Name:    "Bangalore Showroom",
		Address: "456 MG Road, Indiranagar, Bangalore - 560038",
		Phone:   "+91 80 9876 5432",
		Hours:   "Mon-Sat: 10:00 AM - 7:00 PM, Sun: 10:00 AM - 5:00 PM",
	},
}

var defaultShowroomOrder = []string{"chennai", "bangalore"}

// showroomAliases maps extra spellings onto a showroom key.
var showroomAliases = map[string]string{
	"bengaluru": "bangalore",
}

// WhatsAppRedirect builds the cross-channel booking handover copy that
// points Instagram and website users at WhatsApp.
func WhatsAppRedirect(number string) func(kind string) string {
	link := "https://wa.me/" + number
	return func(kind string) string {
		if kind == "t30" {
			return fmt.Sprintf(`To complete your T30 booking, please continue on WhatsApp where our team can assist you with the purchase process.

Click here to continue: %s?text=Book%%20T30

Once on WhatsApp, send the message "Book T30" to begin.`, link)
		}
		return fmt.Sprintf(`To complete your test ride booking, please continue on WhatsApp where we can collect your details and schedule your appointment.

Click here to continue: %s?text=Book%%20Test%%20Ride

Once on WhatsApp, send the message "Book Test Ride" to begin the booking process.`, link)
	}
}

// InstagramPolicy is the DM channel: plain text everywhere, yes/no support
// confirmation, bookings redirected to WhatsApp.
func InstagramPolicy(whatsappNumber string) ChannelPolicy {
	return ChannelPolicy{
		Channel:         ChannelInstagram,
		Showrooms:       defaultShowrooms,
		ShowroomOrder:   defaultShowroomOrder,
		BookingRedirect: WhatsAppRedirect(whatsappNumber),
	}
}

// WebsitePolicy is the widget channel: support runs through a contact form
// instead of a yes/no confirmation.
func WebsitePolicy(whatsappNumber string) ChannelPolicy {
	return ChannelPolicy{
		Channel:         ChannelWebsite,
		Showrooms:       defaultShowrooms,
		ShowroomOrder:   defaultShowroomOrder,
		SupportForm:     true,
		BookingRedirect: WhatsAppRedirect(whatsappNumber),
	}
}

// WhatsAppPolicy is the native booking channel: confirmation sends the
// booking flow rather than a redirect link. The actual flow send happens in
// the channel sender; the redirect copy here is the chat transcript record.
func WhatsAppPolicy() ChannelPolicy {
	return ChannelPolicy{
		Channel:       ChannelWhatsApp,
		Showrooms:     defaultShowrooms,
		ShowroomOrder: defaultShowroomOrder,
		BookingRedirect: func(kind string) string {
			return "[Bot sent Booking Flow]"
		},
	}
}

// MainMenu is the numbered menu shown on hi/hello/menu/start.
func MainMenu() string {
	return `Welcome to RapteeHV!

Ask me anything about Raptee.HV T30 - I'm here to help with your questions!

You can also explore the menu options below:

1. Book a Test Ride
2. Locate Showroom
3. Book T30

Reply with the number of your choice, or simply type your question.`
}

// ShowroomCityMenu numbers the cities in the policy's fixed order.
func (p ChannelPolicy) ShowroomCityMenu() string {
	menu := "Please select your preferred city:\n\n"
	for i, key := range p.ShowroomOrder {
		menu += fmt.Sprintf("%d. %s\n", i+1, titleCase(key))
	}
	return menu + "\nReply with the number of your choice."
}

// ShowroomDetails renders one location, or the not-found copy for an unknown
// city.
func (p ChannelPolicy) ShowroomDetails(city string) string {
	loc, ok := p.Showrooms[city]
	if !ok {
		return "Sorry, we don't have a showroom in that location yet. Our current locations are Chennai and Bangalore.\n\nType 'menu' to return to the main menu."
	}
	return fmt.Sprintf(`%s

Address: %s
Phone: %s
Hours: %s

Type 'menu' to return to the main menu.`, loc.Name, loc.Address, loc.Phone, loc.Hours)
}

// MatchShowroom resolves a user reply in the city-selection state to a
// showroom key: the menu number, the city name anywhere in the text, or a
// known alias.
func (p ChannelPolicy) MatchShowroom(normalized string) (string, bool) {
	for i, key := range p.ShowroomOrder {
		if normalized == fmt.Sprintf("%d", i+1) {
			return key, true
		}
	}
	// substring match covers city names typed mid-sentence
	for key := range p.Showrooms {
		if strings.Contains(normalized, key) {
			return key, true
		}
	}
	for alias, key := range showroomAliases {
		if strings.Contains(normalized, alias) {
			return key, true
		}
	}
	return "", false
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
