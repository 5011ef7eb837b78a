package models

// Action selects the behavior of a command posted to the sheet endpoint.
type Action string

const (
	ActionAuthenticate  Action = "authenticate"
	ActionRegister      Action = "register"
	ActionResetPassword Action = "resetPassword"
	ActionAdd           Action = "add"
	ActionEdit          Action = "edit"
	ActionDelete        Action = "delete"
	ActionArchive       Action = "archive"
)

// StatusSuccess is the only status value treated as success.
const StatusSuccess = "success"

// Command is the JSON body posted to the endpoint. Only the fields relevant to the action are set.
type Command struct {
	Action      Action         `json:"action"`
	ID          string         `json:"id,omitempty"`
	IDs         []string       `json:"ids,omitempty"`
	Username    string         `json:"username,omitempty"`
	Password    string         `json:"password,omitempty"`
	Date        string         `json:"date,omitempty"`
	Location    string         `json:"location,omitempty"`
	PhoneNumber string         `json:"phoneNumber,omitempty"`
	BrideZaffa  string         `json:"brideZaffa,omitempty"`
	GroomZaffa  string         `json:"groomZaffa,omitempty"`
	Songs       []string       `json:"songs,omitempty"`
	Notes       string         `json:"notes,omitempty"`
	Changes     map[string]any `json:"changes,omitempty"`
}

// CommandResult is the status object returned for every command.
type CommandResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	ID      string `json:"id,omitempty"`
}

// OK reports whether the command succeeded.
func (r CommandResult) OK() bool {
	return r.Status == StatusSuccess
}

func credentialCommand(action Action, username, password string) Command {
	return Command{Action: action, Username: username, Password: password}
}

// AuthenticateCommand builds the login check command.
func AuthenticateCommand(username, password string) Command {
	return credentialCommand(ActionAuthenticate, username, password)
}

// RegisterCommand builds the account creation command.
func RegisterCommand(username, password string) Command {
	return credentialCommand(ActionRegister, username, password)
}

// ResetPasswordCommand builds the password reset command.
func ResetPasswordCommand(username, password string) Command {
	return credentialCommand(ActionResetPassword, username, password)
}

// AddCommand carries the full booking. With asText set the notes are prefixed with [TextMarker].
func AddCommand(b Booking, asText bool) Command {
	return bookingCommand(ActionAdd, b, asText)
}

// EditCommand carries the changed fields alongside the full updated booking.
func EditCommand(b Booking, changes Changes, asText bool) Command {
	cmd := bookingCommand(ActionEdit, b, asText)
	cmd.Changes = changes.Map()
	return cmd
}

// DeleteCommand removes a booking by id.
func DeleteCommand(id string) Command {
	return Command{Action: ActionDelete, ID: id}
}

// ArchiveCommand reports bookings that moved to the archive.
func ArchiveCommand(ids []string) Command {
	return Command{Action: ActionArchive, IDs: ids}
}

func bookingCommand(action Action, b Booking, asText bool) Command {
	notes := b.Notes
	if asText && notes != "" {
		notes = TextMarker + notes
	}
	songs := b.Songs
	if songs == nil {
		songs = []string{}
	}
	return Command{
		Action:      action,
		ID:          b.ID,
		Username:    b.Username,
		Date:        b.Date,
		Location:    b.Location,
		PhoneNumber: b.PhoneNumber,
		BrideZaffa:  b.BrideZaffa,
		GroomZaffa:  b.GroomZaffa,
		Songs:       songs,
		Notes:       notes,
	}
}
