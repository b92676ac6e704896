// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/chatspaces/internal/auth"
	"github.com/jeranaias/chatspaces/internal/directory"
	"github.com/jeranaias/chatspaces/internal/model"
	"github.com/jeranaias/chatspaces/internal/ui/styles"
)

// Login notices.
const (
	CountriesFailedNotice = "Failed to load countries."
	SendFailedNotice      = "Failed to send OTP."
	InvalidOTPNotice      = "Invalid OTP."
	LoginFailedNotice     = "Login failed."
	LoggedInNotice        = "Logged in successfully!"
)

type loginPhase int

const (
	phasePhone loginPhase = iota
	phaseOTP
)

type loginField int

const (
	fieldCountry loginField = iota
	fieldPhone
	fieldOTP
)

// loginModel is the phone/OTP login screen.
type loginModel struct {
	svc   *Services
	theme *styles.Theme

	countries []directory.Country
	country   int
	loaded    bool

	phone textinput.Model
	otp   textinput.Model
	focus loginField
	phase loginPhase
	busy  bool

	// errs holds the field error shown under each input.
	errs map[string]string

	width  int
	height int
}

func newLogin(svc *Services, theme *styles.Theme) loginModel {
	phone := textinput.New()
	phone.Placeholder = "9876543210"
	phone.CharLimit = 20
	phone.Prompt = ""

	otp := textinput.New()
	otp.Placeholder = "123456"
	otp.CharLimit = 8
	otp.Prompt = ""

	l := loginModel{
		svc:       svc,
		theme:     theme,
		countries: directory.Fallback(),
		phone:     phone,
		otp:       otp,
		focus:     fieldPhone,
		errs:      map[string]string{},
	}
	l.country = directory.DefaultIndex(l.countries)
	l.phone.Focus()
	return l
}

func (l loginModel) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, l.fetchCountries())
}

func (l loginModel) fetchCountries() tea.Cmd {
	src := l.svc.Countries
	if src == nil {
		return nil
	}
	ctx := l.svc.context()
	return func() tea.Msg {
		countries, err := src.Countries(ctx)
		return countriesLoadedMsg{Countries: countries, Err: err}
	}
}

func (l *loginModel) setSize(w, h int) {
	l.width, l.height = w, h
}

// form returns the current input as a LoginForm.
func (l loginModel) form() auth.LoginForm {
	f := auth.LoginForm{
		Phone:   strings.TrimSpace(l.phone.Value()),
		OTP:     strings.TrimSpace(l.otp.Value()),
		OTPSent: l.phase == phaseOTP,
	}
	if l.country >= 0 && l.country < len(l.countries) {
		f.CountryCode = l.countries[l.country].CallingCode
	}
	return f
}

// =============================================================================
// UPDATE
// =============================================================================

func (l loginModel) Update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case countriesLoadedMsg:
		l.loaded = true
		if msg.Err != nil {
			l.svc.Notifier.Error(CountriesFailedNotice)
		}
		if len(msg.Countries) > 0 {
			l.countries = msg.Countries
			l.country = directory.DefaultIndex(l.countries)
		}
		return l, nil

	case otpSentMsg:
		l.busy = false
		if msg.Err != nil {
			var ve *model.ValidationError
			if errors.As(msg.Err, &ve) {
				l.errs[ve.Field] = ve.Message
				return l, nil
			}
			l.svc.Notifier.Error(SendFailedNotice)
			return l, nil
		}
		f := l.form()
		l.phase = phaseOTP
		l.setFocus(fieldOTP)
		l.svc.Notifier.Success("OTP sent to " + f.FullNumber())
		code := msg.Code
		return l, tea.Tick(l.svc.Config.Auth.AutofillDelay.Duration, func(time.Time) tea.Msg {
			return otpAutofillMsg{Code: code}
		})

	case otpAutofillMsg:
		if l.phase != phaseOTP {
			return l, nil
		}
		l.svc.Notifier.Info("OTP: " + msg.Code + " (demo)")
		l.otp.SetValue(msg.Code)
		delete(l.errs, "otp")
		return l, nil

	case otpVerifiedMsg:
		l.busy = false
		switch {
		case errors.Is(msg.Err, model.ErrInvalidOTP):
			l.errs["otp"] = model.ErrInvalidOTP.Message
			l.svc.Notifier.Error(InvalidOTPNotice)
			return l, nil
		case msg.Err != nil:
			l.svc.Notifier.Error(LoginFailedNotice)
			return l, nil
		}
		return l, l.completeLogin()

	case tea.KeyMsg:
		return l.handleKey(msg)
	}

	return l.updateInputs(msg)
}

func (l loginModel) handleKey(msg tea.KeyMsg) (loginModel, tea.Cmd) {
	if l.busy {
		return l, nil
	}

	switch msg.String() {
	case "enter":
		return l.submit()
	case "tab":
		l.setFocus(l.nextField(1))
		return l, nil
	case "shift+tab":
		l.setFocus(l.nextField(-1))
		return l, nil
	case "esc":
		if l.phase == phaseOTP {
			l.phase = phasePhone
			l.otp.Reset()
			delete(l.errs, "otp")
			l.setFocus(fieldPhone)
		}
		return l, nil
	}

	if l.focus == fieldCountry {
		l.moveCountry(msg)
		return l, nil
	}
	return l.updateInputs(msg)
}

// moveCountry steps the selection with arrows or jumps to the first country
// starting with a typed letter.
func (l *loginModel) moveCountry(msg tea.KeyMsg) {
	n := len(l.countries)
	if n == 0 || l.phase == phaseOTP {
		return
	}
	switch msg.String() {
	case "up", "left":
		l.country = (l.country - 1 + n) % n
	case "down", "right":
		l.country = (l.country + 1) % n
	default:
		if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
			return
		}
		prefix := strings.ToLower(string(msg.Runes))
		for i := 1; i <= n; i++ {
			j := (l.country + i) % n
			if strings.HasPrefix(strings.ToLower(l.countries[j].Name), prefix) {
				l.country = j
				return
			}
		}
	}
	delete(l.errs, "countryCode")
}

func (l loginModel) nextField(step int) loginField {
	fields := []loginField{fieldCountry, fieldPhone}
	if l.phase == phaseOTP {
		fields = []loginField{fieldOTP}
	}
	for i, f := range fields {
		if f == l.focus {
			return fields[(i+step+len(fields))%len(fields)]
		}
	}
	return fields[0]
}

func (l *loginModel) setFocus(f loginField) {
	l.focus = f
	l.phone.Blur()
	l.otp.Blur()
	switch f {
	case fieldPhone:
		l.phone.Focus()
	case fieldOTP:
		l.otp.Focus()
	}
}

func (l loginModel) updateInputs(msg tea.Msg) (loginModel, tea.Cmd) {
	var cmd tea.Cmd
	switch l.focus {
	case fieldPhone:
		before := l.phone.Value()
		l.phone, cmd = l.phone.Update(msg)
		if l.phone.Value() != before {
			delete(l.errs, "phone")
		}
	case fieldOTP:
		before := l.otp.Value()
		l.otp, cmd = l.otp.Update(msg)
		if l.otp.Value() != before {
			delete(l.errs, "otp")
		}
	}
	return l, cmd
}

// submit sends the OTP in the phone phase and verifies it in the OTP phase.
// Field errors block the request.
func (l loginModel) submit() (loginModel, tea.Cmd) {
	f := l.form()
	l.errs = map[string]string{}
	if errs := f.Errors(); len(errs) > 0 {
		for _, e := range errs {
			if _, seen := l.errs[e.Field]; !seen {
				l.errs[e.Field] = e.Message
			}
		}
		return l, nil
	}

	otp := l.svc.OTP
	if otp == nil {
		l.svc.Notifier.Error(SendFailedNotice)
		return l, nil
	}
	ctx := l.svc.context()
	l.busy = true

	if l.phase == phasePhone {
		return l, func() tea.Msg {
			code, err := otp.Send(ctx, f)
			return otpSentMsg{Code: code, Err: err}
		}
	}
	code := f.OTP
	return l, func() tea.Msg {
		return otpVerifiedMsg{Err: otp.Verify(ctx, code)}
	}
}

func (l loginModel) completeLogin() tea.Cmd {
	f := l.form()
	if l.svc.Auth != nil {
		if err := l.svc.Auth.Login(l.svc.context(), f.Phone, f.CountryCode, l.svc.Scheduler.Now()); err != nil {
			l.svc.Logger.Warn().Err(err).Msg("login state not persisted")
		}
	}
	l.svc.Notifier.Success(LoggedInNotice)
	return func() tea.Msg { return loggedInMsg{} }
}

// =============================================================================
// VIEW
// =============================================================================

func (l loginModel) View() string {
	t := l.theme

	var rows []string
	rows = append(rows,
		t.HeaderTitle.Render("Welcome to Gemini Chat"),
		t.Hint.Render("Enter your phone number to get started."),
		"",
	)

	rows = append(rows, t.Label.Render("Country Code"))
	country := "Select Code"
	if l.country >= 0 && l.country < len(l.countries) {
		country = "< " + l.countries[l.country].Label() + " >"
	}
	if !l.loaded && l.svc.Countries != nil {
		country += t.Hint.Render("  loading...")
	}
	rows = append(rows, l.box(country, l.focus == fieldCountry))
	rows = append(rows, l.fieldError("countryCode"))

	rows = append(rows, t.Label.Render("Phone Number"))
	rows = append(rows, l.box(l.phone.View(), l.focus == fieldPhone))
	rows = append(rows, l.fieldError("phone"))

	if l.phase == phaseOTP {
		rows = append(rows, t.Label.Render("OTP"))
		rows = append(rows, l.box(l.otp.View(), l.focus == fieldOTP))
		rows = append(rows, l.fieldError("otp"))
	}

	rows = append(rows, "", t.ButtonActive.Render(l.buttonLabel()))

	form := lipgloss.JoinVertical(lipgloss.Left, rows...)
	if l.width > 0 && l.height > 0 {
		return lipgloss.Place(l.width, l.height, lipgloss.Center, lipgloss.Center, form)
	}
	return form
}

func (l loginModel) buttonLabel() string {
	switch {
	case l.busy && l.phase == phasePhone:
		return "Sending OTP..."
	case l.busy:
		return "Verifying..."
	case l.phase == phaseOTP:
		return "Verify OTP"
	default:
		return "Send OTP"
	}
}

func (l loginModel) box(content string, focused bool) string {
	style := l.theme.Input
	if focused {
		style = l.theme.InputFocused
	}
	return style.Width(36).Render(content)
}

func (l loginModel) fieldError(field string) string {
	if msg, ok := l.errs[field]; ok {
		return l.theme.FieldError.Render(msg)
	}
	return ""
}
