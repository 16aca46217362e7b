package internalhttp

// Envelope messages mirror the public API contract.
const (
	msgEventsFetched         = "Upcoming events fetched successfully."
	msgNoUpcomingEvents      = "No upcoming events found."
	msgEventCreated          = "Event created successfully."
	msgEventCreateFailed     = "Failed to create event. Please correct the input data and try again."
	msgEventCreateUnexpected = "An unexpected error occurred while creating the event."
	msgEventFetched          = "Event fetched successfully."
	msgEventNotFound         = "Sorry, event not found. Please check the event ID and try again."
	msgEventUpdated          = "Event updated successfully."
	msgUpdateValidation      = "Validation failed during update."
	msgUnexpectedError       = "An unexpected error occurred."
	msgAttendeesFetched      = "Event attendees fetched successfully."
	msgNoAttendees           = "No event attendees found."
	msgEventFull             = "Sorry, event is full. New attendees can not be registered."
	msgIncorrectData         = "Incorrect data. Please check all the data fields and try again."
	msgDuplicateAttendee     = "Attendee already registered for this event. Please try with the different email."
	msgAttendeeRegistered    = "Attendee registered successfully!"
	msgEventDoesNotExist     = "Event does not exist. Please check the input data and try again."
)

// Field-level validation messages.
const (
	errFieldRequired   = "This field is required."
	errFieldBlank      = "This field may not be blank."
	errFieldTooLong    = "Ensure this field has no more than 255 characters."
	errInvalidEmail    = "Enter a valid email address."
	errCapacityMin     = "Ensure this value is greater than or equal to 1."
	errInvalidInteger  = "A valid integer is required."
	errStartTimeFuture = "Start time must be in the future."
	errEndAfterStart   = "End time must be after start time."
	errDuplicateName   = "event with this name already exists."
	errBadDatetime     = "Datetime has wrong format. Use one of these formats instead: " +
		"YYYY-MM-DDThh:mm[:ss[.uuuuuu]][+HH:MM|-HH:MM|Z]."
	errBadTimezone = "Invalid timezone. Use a valid IANA zone name (e.g. 'Asia/Kolkata')."
	errJSONParse   = "JSON parse error."
)

const (
	timezoneHeader = "X-Timezone"
	maxFieldLength = 255
)

// Response is the envelope every endpoint renders. Keys a given response does
// not set are omitted.
type Response struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Pagination *Pagination `json:"pagination,omitempty"`
	Data       any         `json:"data,omitempty"`
	Errors     any         `json:"errors,omitempty"`
}

// Pagination carries the total row count plus absolute links to the neighbor
// pages (null at either end).
type Pagination struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
}

// fieldErrors collects per-field validation messages.
type fieldErrors map[string][]string

func (f fieldErrors) add(field, message string) {
	f[field] = append(f[field], message)
}
