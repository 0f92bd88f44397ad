// Package widget implements the client side of the callback widget: it
// decides whether the call-to-action is shown, validates the phone number
// while it is typed and submits it to the callback endpoint.
package widget

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prefeitura-rio/app-callback/internal/logging"
	"github.com/prefeitura-rio/app-callback/internal/models"
	"github.com/prefeitura-rio/app-callback/internal/services"
	"github.com/prefeitura-rio/app-callback/internal/utils"
	"github.com/prefeitura-rio/app-callback/internal/utils/httpclient"
	"go.uber.org/zap"
)

const (
	// AutoCloseTimeout dismisses the modal after a successful submission
	AutoCloseTimeout = 20 * time.Second
	// MaxInputLength bounds the phone input, in characters
	MaxInputLength = 18
	// DefaultRequestTimeout bounds every request when Config.HTTPClient is nil
	DefaultRequestTimeout = 15 * time.Second

	sessionTokenPath = "/session/token"
	widgetPath       = "/api/kp_zadarma/widget/"
	csrfHeader       = "X-CSRF-Token"
)

// Messages shown inside the modal
const (
	MessageCheckNumber = "Check that the phone number you are calling is correct."
	MessageSuccess     = "Our best manager will call you back in 60 seconds. It will be quick and for free!"
)

// Config configures a Controller
type Config struct {
	// BaseURL is the origin of the callback service
	BaseURL string
	// HTTPClient defaults to a client with DefaultRequestTimeout
	HTTPClient *http.Client
	Document   Document
	// Modal is the modal dialog element; clicks outside it close the modal
	Modal Element
	Clock Clock
	// DefaultRegion lets numbers be typed without a country code
	DefaultRegion string
	Logger        *logging.SafeLogger
}

// View is a snapshot of what the widget renders
type View struct {
	Mounted       bool
	Active        bool
	ModalOpen     bool
	FormVisible   bool
	SubmitEnabled bool
	Submitting    bool
	Success       bool
	ErrorMessage  string
	Phone         string
}

// Controller is one widget instance. Events are serialized by a mutex; the
// network calls of a submission run outside it so the modal can still be
// closed while a request is in flight.
type Controller struct {
	mu sync.Mutex

	baseURL string
	client  *http.Client
	doc     Document
	modal   Element
	clock   Clock
	region  string
	logger  *logging.SafeLogger

	mount          *models.WidgetMount
	mounted        bool
	active         bool
	open           bool
	phone          string
	submitEnabled  bool
	submitting     bool
	success        bool
	errorMessage   string
	removeListener func()
	closeTimer     Timer
	// openGeneration counts modal openings; an auto-close only applies to
	// the opening that scheduled it
	openGeneration uint64
}

// NewController creates a dormant widget
func NewController(cfg Config) *Controller {
	client := cfg.HTTPClient
	if client == nil {
		client = httpclient.New(DefaultRequestTimeout)
	}
	clock := cfg.Clock
	if clock == nil {
		clock = systemClock{}
	}

	return &Controller{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  client,
		doc:     cfg.Document,
		modal:   cfg.Modal,
		clock:   clock,
		region:  cfg.DefaultRegion,
		logger:  cfg.Logger,
	}
}

// FetchMount loads the mount data of a widget block. It returns nil without
// error when the server hides the widget.
func (c *Controller) FetchMount(ctx context.Context, blockID string) (*models.WidgetMount, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+widgetPath+blockID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mount request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrTransport, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent:
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: unexpected mount status %d", models.ErrTransport, resp.StatusCode)
	}

	var mount models.WidgetMount
	if err := json.NewDecoder(resp.Body).Decode(&mount); err != nil {
		return nil, fmt.Errorf("failed to decode mount data: %w", err)
	}
	return &mount, nil
}

// Mount evaluates the visibility schedule. A nil mount leaves the widget
// dormant.
func (c *Controller) Mount(mount *models.WidgetMount) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.mount = mount
	c.mounted = true
	c.evaluate()
}

// Refresh re-evaluates the schedule against the current clock
func (c *Controller) Refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.evaluate()
}

func (c *Controller) evaluate() {
	if c.mount == nil {
		c.active = false
		return
	}
	c.active = services.IsActiveNow(c.mount.Windows(), c.clock.Now())
}

// Active reports whether the call-to-action is shown
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Activate opens the modal from the call-to-action
func (c *Controller) Activate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.active || c.open {
		return
	}
	c.open = true
	c.openGeneration++
	if c.doc != nil {
		c.removeListener = c.doc.AddClickListener(c.onDocumentClick)
	}
}

func (c *Controller) onDocumentClick(target Element) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open || c.modal == nil {
		return
	}
	if c.modal.Contains(target) {
		return
	}
	c.closeLocked()
}

// Close closes the modal and cancels a pending auto-close
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closeLocked()
}

func (c *Controller) closeLocked() {
	if !c.open {
		return
	}
	c.open = false
	if c.removeListener != nil {
		c.removeListener()
		c.removeListener = nil
	}
	if c.closeTimer != nil {
		c.closeTimer.Stop()
		c.closeTimer = nil
	}
}

// autoClose closes the modal only if it is still the opening the timer was
// scheduled for. Timer.Stop cannot cancel a callback that already started.
func (c *Controller) autoClose(generation uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.openGeneration != generation {
		return
	}
	c.closeLocked()
}

// InputChanged validates the phone as it is typed. Submission is enabled
// only for a valid number; a non-empty invalid number shows the inline
// error.
func (c *Controller) InputChanged(phone string) {
	if runes := []rune(phone); len(runes) > MaxInputLength {
		phone = string(runes[:MaxInputLength])
	}
	valid := c.validPhone(phone)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.phone = phone
	c.errorMessage = ""
	c.submitEnabled = false
	if valid {
		c.submitEnabled = !c.submitting
	} else if phone != "" {
		c.errorMessage = MessageCheckNumber
	}
}

func (c *Controller) validPhone(phone string) bool {
	components, err := utils.ParsePhoneNumber(phone, c.region)
	return err == nil && components.Valid
}

// Submit sends the current phone number. It returns ErrSubmitDisabled while
// submission is not allowed, ErrInvalidPhone when the server rejects the
// number and ErrTransport for any other failure. Submission is re-enabled
// after every failure.
func (c *Controller) Submit(ctx context.Context) error {
	c.mu.Lock()
	if !c.open || !c.submitEnabled || c.submitting || c.mount == nil {
		c.mu.Unlock()
		return models.ErrSubmitDisabled
	}
	c.submitEnabled = false
	c.submitting = true
	phone := c.phone
	mount := *c.mount
	c.mu.Unlock()

	err := c.send(ctx, mount, phone)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitting = false

	switch {
	case err == nil:
		c.success = true
		c.errorMessage = ""
		if c.open {
			generation := c.openGeneration
			c.closeTimer = c.clock.AfterFunc(AutoCloseTimeout, func() { c.autoClose(generation) })
		}
	case errors.Is(err, models.ErrInvalidPhone):
		c.errorMessage = MessageCheckNumber
		c.submitEnabled = c.phone != ""
	default:
		c.logger.Error("callback submission failed", zap.Error(err))
		c.submitEnabled = c.validPhone(c.phone)
	}

	return err
}

// send fetches a session token and posts the phone number
func (c *Controller) send(ctx context.Context, mount models.WidgetMount, phone string) error {
	token, err := c.fetchToken(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]string{mount.PhoneKey: phone})
	if err != nil {
		return fmt.Errorf("failed to encode submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+mount.URL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrTransport, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(csrfHeader, token)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", models.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %w", models.ErrTransport, err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusBadRequest:
		return models.ErrInvalidPhone
	default:
		return fmt.Errorf("%w: unexpected status %d: %s", models.ErrTransport, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if !successPayload(body) {
		return fmt.Errorf("%w: provider did not confirm the callback: %s", models.ErrTransport, strings.TrimSpace(string(body)))
	}
	return nil
}

func (c *Controller) fetchToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+sessionTokenPath, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", models.ErrTransport, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: session token: %w", models.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil || resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: session token status %d", models.ErrTransport, resp.StatusCode)
	}
	return strings.TrimSpace(string(body)), nil
}

// successPayload reports whether data.status is "success". data may itself
// be a JSON encoded string.
func successPayload(body []byte) bool {
	var resp struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Data) == 0 {
		return false
	}

	data := []byte(resp.Data)
	var encoded string
	if err := json.Unmarshal(data, &encoded); err == nil {
		data = []byte(encoded)
	}

	var status struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &status); err != nil {
		return false
	}
	return status.Status == models.StatusSuccess
}

// View returns what the widget currently renders
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	return View{
		Mounted:       c.mounted,
		Active:        c.active,
		ModalOpen:     c.open,
		FormVisible:   c.open && !c.success,
		SubmitEnabled: c.submitEnabled,
		Submitting:    c.submitting,
		Success:       c.success,
		ErrorMessage:  c.errorMessage,
		Phone:         c.phone,
	}
}
