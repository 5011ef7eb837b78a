package server

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/repositories"
	"github.com/desertthunder/setlist/internal/shared"
)

const maxBodyBytes = 1 << 20

// Row is one booking as the sheet endpoint serves it. Songs are a JSON-encoded string and notes are returned as stored.
type Row struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Location    string `json:"location"`
	PhoneNumber string `json:"phoneNumber"`
	BrideZaffa  string `json:"brideZaffa"`
	GroomZaffa  string `json:"groomZaffa"`
	Songs       string `json:"songs"`
	Notes       string `json:"notes"`
	Username    string `json:"username"`
}

// SheetHandler serves the spreadsheet endpoint: GET lists every row and POST runs one command.
//
// Commands always answer 200 with a status object. Only an unreadable body is a client error.
type SheetHandler struct {
	rows     *repositories.SheetRepository
	accounts *repositories.AccountRepository
	logger   *log.Logger
	cost     int
}

// SheetOptions configures [NewSheetHandler].
type SheetOptions struct {
	Logger *log.Logger
	// BcryptCost defaults to [bcrypt.DefaultCost].
	BcryptCost int
}

// NewSheetHandler creates a handler over a database with the server schema applied.
func NewSheetHandler(db *sql.DB, opts SheetOptions) *SheetHandler {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	cost := opts.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &SheetHandler{
		rows:     repositories.NewSheetRepository(db),
		accounts: repositories.NewAccountRepository(db),
		logger:   shared.WithLogger(logger, "component", "sheet"),
		cost:     cost,
	}
}

// Register mounts the endpoint at "/".
func (h *SheetHandler) Register(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.command)
}

func (h *SheetHandler) list(w http.ResponseWriter, r *http.Request) {
	stored, err := h.rows.All()
	if err != nil {
		h.logger.Error("failed to list rows", "error", err)
		http.Error(w, "failed to list rows", http.StatusInternalServerError)
		return
	}

	rows := make([]Row, len(stored))
	for i, s := range stored {
		rows[i] = Row{
			ID:          s.ID,
			Date:        s.Date,
			Location:    s.Location,
			PhoneNumber: s.PhoneNumber,
			BrideZaffa:  s.BrideZaffa,
			GroomZaffa:  s.GroomZaffa,
			Songs:       models.EncodeSongs(s.Songs),
			Notes:       s.Notes,
			Username:    s.Username,
		}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (h *SheetHandler) command(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	var cmd models.Command
	if err := json.Unmarshal(body, &cmd); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	result := h.dispatch(cmd)
	if !result.OK() {
		h.logger.Warn("command rejected", "action", cmd.Action, "message", result.Message)
	} else {
		h.logger.Debug("command applied", "action", cmd.Action, "id", result.ID)
	}
	writeJSON(w, http.StatusOK, result)
}

// dispatch runs cmd and reports the outcome.
func (h *SheetHandler) dispatch(cmd models.Command) models.CommandResult {
	switch cmd.Action {
	case models.ActionAuthenticate:
		return h.authenticate(cmd)
	case models.ActionRegister:
		return h.register(cmd)
	case models.ActionResetPassword:
		return h.resetPassword(cmd)
	case models.ActionAdd:
		return h.add(cmd)
	case models.ActionEdit:
		return h.edit(cmd)
	case models.ActionDelete:
		return h.delete(cmd)
	case models.ActionArchive:
		return h.archive(cmd)
	default:
		return failure("unknown action %q", cmd.Action)
	}
}

func (h *SheetHandler) authenticate(cmd models.Command) models.CommandResult {
	hash, err := h.accounts.PasswordHash(cmd.Username)
	if errors.Is(err, shared.ErrAccountNotFound) {
		return failure("invalid username or password")
	}
	if err != nil {
		return h.internal(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(cmd.Password)); err != nil {
		return failure("invalid username or password")
	}
	return success("")
}

func (h *SheetHandler) register(cmd models.Command) models.CommandResult {
	if strings.TrimSpace(cmd.Username) == "" || cmd.Password == "" {
		return failure("username and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), h.cost)
	if err != nil {
		return h.internal(err)
	}
	if err := h.accounts.Create(cmd.Username, string(hash)); err != nil {
		if errors.Is(err, shared.ErrAccountExists) {
			return failure("username already exists")
		}
		return h.internal(err)
	}
	return success("")
}

func (h *SheetHandler) resetPassword(cmd models.Command) models.CommandResult {
	if cmd.Password == "" {
		return failure("password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cmd.Password), h.cost)
	if err != nil {
		return h.internal(err)
	}
	if err := h.accounts.SetPasswordHash(cmd.Username, string(hash)); err != nil {
		if errors.Is(err, shared.ErrAccountNotFound) {
			return failure("user not found")
		}
		return h.internal(err)
	}
	return success("")
}

func (h *SheetHandler) add(cmd models.Command) models.CommandResult {
	id, err := h.rows.Insert(bookingOf(cmd))
	if err != nil {
		if errors.Is(err, shared.ErrDuplicateID) {
			return failure("booking %s already exists", cmd.ID)
		}
		return h.internal(err)
	}
	return success(id)
}

func (h *SheetHandler) edit(cmd models.Command) models.CommandResult {
	existing, err := h.rows.Get(cmd.ID)
	if errors.Is(err, shared.ErrBookingNotFound) {
		return failure("booking %s not found", cmd.ID)
	}
	if err != nil {
		return h.internal(err)
	}

	b := bookingOf(cmd)
	if b.Username == "" {
		b.Username = existing.Username
	}
	if err := h.rows.Update(b); err != nil {
		return h.internal(err)
	}
	return success(cmd.ID)
}

func (h *SheetHandler) delete(cmd models.Command) models.CommandResult {
	if err := h.rows.Delete(cmd.ID); err != nil {
		if errors.Is(err, shared.ErrBookingNotFound) {
			return failure("booking %s not found", cmd.ID)
		}
		return h.internal(err)
	}
	return success(cmd.ID)
}

func (h *SheetHandler) archive(cmd models.Command) models.CommandResult {
	n, err := h.rows.MarkArchived(cmd.IDs)
	if err != nil {
		return h.internal(err)
	}
	result := success("")
	result.Message = fmt.Sprintf("archived %d", n)
	return result
}

func (h *SheetHandler) internal(err error) models.CommandResult {
	h.logger.Error("command failed", "error", err)
	return failure("internal error")
}

// bookingOf stores the command fields as given. Notes keep their text marker.
func bookingOf(cmd models.Command) models.Booking {
	return models.Booking{
		ID:          cmd.ID,
		Date:        cmd.Date,
		Location:    cmd.Location,
		PhoneNumber: cmd.PhoneNumber,
		BrideZaffa:  cmd.BrideZaffa,
		GroomZaffa:  cmd.GroomZaffa,
		Songs:       cmd.Songs,
		Notes:       cmd.Notes,
		Username:    cmd.Username,
	}
}

func success(id string) models.CommandResult {
	return models.CommandResult{Status: models.StatusSuccess, ID: id}
}

func failure(format string, args ...any) models.CommandResult {
	return models.CommandResult{Status: "error", Message: fmt.Sprintf(format, args...)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "failed to encode response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}
