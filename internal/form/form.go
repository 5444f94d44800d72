// Package form drives the edit/view lifecycle of a user's single birth plan
// and coordinates its persistence through the backend gateway.
package form

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/humanizapp/humanizapp/backend/go-services/internal/birthplan"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/models"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/render"
	"github.com/humanizapp/humanizapp/backend/go-services/pkg/logger"
)

var (
	ErrValidation       = errors.New("birth plan is invalid")
	ErrNotAuthenticated = errors.New("no signed-in user")
	ErrReadOnly         = errors.New("birth plan is not being edited")
	ErrBusy             = errors.New("another operation is in progress")
	ErrInvalidState     = errors.New("operation not allowed in the current state")
	ErrDeclined         = errors.New("deletion not confirmed")
	ErrClosed           = errors.New("form closed")
	// ErrIncomplete is returned when the backend answers without the plan
	// identity the form needs to address it later.
	ErrIncomplete = errors.New("birth plan returned without id")
)

// Gateway is the persistence the controller needs. GetBirthPlanByOwner
// returns (nil, nil) when the owner has no plan.
type Gateway interface {
	CreateBirthPlan(ctx context.Context, ownerID string, f birthplan.Fields) (*birthplan.Document, error)
	GetBirthPlanByOwner(ctx context.Context, ownerID string) (*birthplan.Document, error)
	UpdateBirthPlan(ctx context.Context, id string, f birthplan.Fields) (*birthplan.Document, error)
	DeleteBirthPlan(ctx context.Context, id string) error
}

// Session resolves the signed-in owner.
type Session interface {
	CurrentUser() *models.User
}

// Confirmer is the yes/no gate in front of deletion.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

type Notification struct {
	Level   Level
	Title   string
	Message string
}

// Notifier receives the user-facing outcome of every operation.
type Notifier interface {
	Notify(Notification)
}

type NotifyFunc func(Notification)

func (f NotifyFunc) Notify(n Notification) { f(n) }

type logNotifier struct{}

func (logNotifier) Notify(n Notification) {
	if n.Level == LevelError {
		logger.WithField("title", n.Title).Warn(n.Message)
		return
	}
	logger.Infof("%s: %s", n.Title, n.Message)
}

const deletePrompt = "Tem certeza que deseja excluir seu plano de parto? Esta ação não pode ser desfeita."

type State int

const (
	Loading State = iota
	Draft         // no persisted plan, fields editable
	Viewing
	Editing
	Saving
	Deleting
	Closed
)

func (s State) String() string {
	switch s {
	case Loading:
		return "loading"
	case Draft:
		return "draft"
	case Viewing:
		return "viewing"
	case Editing:
		return "editing"
	case Saving:
		return "saving"
	case Deleting:
		return "deleting"
	case Closed:
		return "closed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

type Option func(*Controller)

func WithConfirmer(c Confirmer) Option {
	return func(ctl *Controller) { ctl.confirm = c }
}

func WithNotifier(n Notifier) Option {
	return func(ctl *Controller) { ctl.notify = n }
}

// Controller owns the in-memory field set of one owner's birth plan.
// Methods are safe for concurrent use; at most one gateway call is in
// flight at a time and calls made meanwhile fail with ErrBusy.
type Controller struct {
	gw      Gateway
	session Session
	confirm Confirmer
	notify  Notifier

	life context.Context
	stop context.CancelFunc

	mu     sync.Mutex
	state  State
	doc    birthplan.Document // identity and timestamps of the persisted plan
	fields birthplan.Fields
	outbox []Notification
	// fetching is set while Load or Cancel waits for the backend.
	fetching bool
}

// New returns a controller in the Loading state. Without WithConfirmer
// every deletion is declined.
func New(gw Gateway, session Session, opts ...Option) *Controller {
	c := &Controller{
		gw:      gw,
		session: session,
		confirm: ConfirmFunc(func(context.Context, string) bool { return false }),
		notify:  logNotifier{},
		state:   Loading,
	}
	for _, o := range opts {
		o(c)
	}
	c.life, c.stop = context.WithCancel(context.Background())
	return c
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Fields returns a copy of the current field set.
func (c *Controller) Fields() birthplan.Fields {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fields.Clone()
}

// Document returns the persisted identity with the current field set.
// ID is empty while no plan is stored.
func (c *Controller) Document() birthplan.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	d := c.doc
	d.Fields = c.fields.Clone()
	return d
}

// Close abandons in-flight calls. Their results are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = Closed
	c.stop()
}

// Load fetches the owner's plan: Viewing if one exists, Draft otherwise.
func (c *Controller) Load(ctx context.Context) error {
	defer c.flush()
	c.mu.Lock()
	switch c.state {
	case Closed:
		c.mu.Unlock()
		return ErrClosed
	case Saving, Deleting:
		c.mu.Unlock()
		return ErrBusy
	case Editing:
		// reloading would drop the edits; Cancel is the explicit way
		c.mu.Unlock()
		return ErrInvalidState
	}
	if c.fetching {
		c.mu.Unlock()
		return ErrBusy
	}
	owner := c.session.CurrentUser()
	if owner == nil {
		c.resetLocked()
		c.post(Notification{Level: LevelError, Title: "Erro", Message: "Faça login primeiro para acessar o plano de parto."})
		c.mu.Unlock()
		return ErrNotAuthenticated
	}
	c.setState(Loading)
	c.fetching = true
	c.mu.Unlock()

	opCtx, done := c.bind(ctx)
	d, err := identified(c.gw.GetBirthPlanByOwner(opCtx, owner.ID))
	done()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetching = false
	if c.state == Closed {
		return ErrClosed
	}
	if err != nil {
		c.resetLocked()
		c.fail("Erro ao carregar", err)
		return err
	}
	if d == nil {
		c.resetLocked()
		return nil
	}
	c.adoptLocked(d)
	c.post(Notification{Level: LevelSuccess, Title: "Plano carregado", Message: "Seu plano de parto foi carregado com sucesso."})
	return nil
}

// Edit unlocks the fields of a persisted plan.
func (c *Controller) Edit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Viewing {
		return c.stateErr()
	}
	c.setState(Editing)
	return nil
}

// Cancel discards edits by fetching the stored plan again. On failure the
// form stays in Editing with the edits intact.
func (c *Controller) Cancel(ctx context.Context) error {
	defer c.flush()
	c.mu.Lock()
	if c.state != Editing {
		err := c.stateErr()
		c.mu.Unlock()
		return err
	}
	owner := c.doc.OwnerID
	if u := c.session.CurrentUser(); u != nil {
		owner = u.ID
	}
	c.setState(Loading)
	c.fetching = true
	c.mu.Unlock()

	opCtx, done := c.bind(ctx)
	d, err := identified(c.gw.GetBirthPlanByOwner(opCtx, owner))
	done()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.fetching = false
	if c.state == Closed {
		return ErrClosed
	}
	if err != nil {
		c.setState(Editing)
		c.fail("Erro ao carregar", err)
		return err
	}
	if d == nil {
		c.resetLocked()
		return nil
	}
	c.adoptLocked(d)
	return nil
}

// Save creates the plan when none is stored and replaces it otherwise.
// A failed save leaves state and fields exactly as they were.
func (c *Controller) Save(ctx context.Context) error {
	defer c.flush()
	c.mu.Lock()
	if c.state != Draft && c.state != Editing {
		err := c.stateErr()
		c.mu.Unlock()
		return err
	}
	if err := c.fields.Validate(); err != nil {
		c.post(Notification{Level: LevelError, Title: "Erro ao salvar", Message: err.Error()})
		c.mu.Unlock()
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	owner := c.session.CurrentUser()
	if owner == nil {
		c.post(Notification{Level: LevelError, Title: "Erro", Message: "Usuário não autenticado. Faça login novamente."})
		c.mu.Unlock()
		return ErrNotAuthenticated
	}
	prior := c.state
	id := c.doc.ID
	fields := c.fields.Clone()
	c.setState(Saving)
	c.mu.Unlock()

	opCtx, done := c.bind(ctx)
	var (
		d   *birthplan.Document
		err error
	)
	if id == "" {
		d, err = c.gw.CreateBirthPlan(opCtx, owner.ID, fields)
	} else {
		d, err = c.gw.UpdateBirthPlan(opCtx, id, fields)
	}
	done()
	if err == nil && d == nil {
		err = ErrIncomplete
	}
	d, err = identified(d, err)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Closed {
		return ErrClosed
	}
	if err != nil {
		c.setState(prior)
		c.fail("Erro ao salvar", err)
		return err
	}
	c.adoptLocked(d)
	if id == "" {
		c.post(Notification{Level: LevelSuccess, Title: "Plano Criado!", Message: "Seu plano de parto foi criado com sucesso."})
	} else {
		c.post(Notification{Level: LevelSuccess, Title: "Plano Atualizado!", Message: "Suas preferências foram atualizadas com sucesso."})
	}
	return nil
}

// Delete removes the stored plan after confirmation and resets the form
// to an empty draft. A declined confirmation returns ErrDeclined and
// changes nothing.
func (c *Controller) Delete(ctx context.Context) error {
	defer c.flush()
	c.mu.Lock()
	if (c.state != Viewing && c.state != Editing) || c.doc.ID == "" {
		err := c.stateErr()
		c.mu.Unlock()
		return err
	}
	prior, id := c.state, c.doc.ID
	c.mu.Unlock()

	if !c.confirm.Confirm(ctx, deletePrompt) {
		return ErrDeclined
	}

	c.mu.Lock()
	if c.state != prior || c.doc.ID != id {
		err := c.stateErr()
		c.mu.Unlock()
		return err
	}
	c.setState(Deleting)
	c.mu.Unlock()

	opCtx, done := c.bind(ctx)
	err := c.gw.DeleteBirthPlan(opCtx, id)
	done()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Closed {
		return ErrClosed
	}
	if err != nil {
		c.setState(prior)
		c.fail("Erro ao excluir", err)
		return err
	}
	c.resetLocked()
	c.post(Notification{Level: LevelSuccess, Title: "Plano Excluído", Message: "Seu plano de parto foi excluído com sucesso."})
	return nil
}

// ExportPDF renders the current fields, persisted or not, to w and
// returns the suggested file name.
func (c *Controller) ExportPDF(w io.Writer, now time.Time) (string, error) {
	defer c.flush()
	c.mu.Lock()
	if c.state == Closed {
		c.mu.Unlock()
		return "", ErrClosed
	}
	fields := c.fields.Clone()
	author := c.doc.OwnerName
	c.mu.Unlock()
	if author == "" {
		if u := c.session.CurrentUser(); u != nil {
			author = u.Name
		}
	}
	opts := render.Options{Author: author, Date: now}
	err := render.Render(w, fields, opts)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.fail("Erro ao exportar", err)
		return "", err
	}
	msg := "Seu plano de parto foi exportado com sucesso."
	if replaced := render.Plan(fields, opts).Replaced; len(replaced) > 0 {
		msg += fmt.Sprintf(" Caracteres não suportados no PDF foram trocados por %q: %s", render.Replacement, string(replaced))
	}
	c.post(Notification{Level: LevelSuccess, Title: "PDF Gerado!", Message: msg})
	return render.FileName(author), nil
}

func (c *Controller) SetCompanionName(v string) error {
	return c.mutate(func(f *birthplan.Fields) { f.CompanionName = v })
}

func (c *Controller) SetCompanionRelationship(v string) error {
	return c.mutate(func(f *birthplan.Fields) { f.CompanionRelationship = v })
}

func (c *Controller) SetBirthPosition(v birthplan.BirthPosition) error {
	return c.mutate(func(f *birthplan.Fields) { f.BirthPosition = v })
}

func (c *Controller) SetCordClamping(v birthplan.CordClamping) error {
	return c.mutate(func(f *birthplan.Fields) { f.CordClamping = v })
}

func (c *Controller) SetSkinToSkin(v birthplan.SkinToSkin) error {
	return c.mutate(func(f *birthplan.Fields) { f.SkinToSkin = v })
}

func (c *Controller) SetBreastfeeding(v birthplan.Breastfeeding) error {
	return c.mutate(func(f *birthplan.Fields) { f.Breastfeeding = v })
}

func (c *Controller) SetAdditionalNotes(v string) error {
	return c.mutate(func(f *birthplan.Fields) { f.AdditionalNotes = v })
}

// TogglePainRelief adds m when checked and removes it otherwise. Both
// directions are idempotent.
func (c *Controller) TogglePainRelief(m birthplan.PainReliefMethod, checked bool) error {
	return c.mutate(func(f *birthplan.Fields) {
		if checked {
			f.PainReliefMethods = f.PainReliefMethods.With(m)
		} else {
			f.PainReliefMethods = f.PainReliefMethods.Without(m)
		}
	})
}

func (c *Controller) mutate(fn func(*birthplan.Fields)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Draft && c.state != Editing {
		return c.stateErr()
	}
	fn(&c.fields)
	return nil
}

// bind derives a call context that also ends when the controller closes.
func (c *Controller) bind(ctx context.Context) (context.Context, func()) {
	opCtx, cancel := context.WithCancel(ctx)
	unregister := context.AfterFunc(c.life, cancel)
	return opCtx, func() {
		unregister()
		cancel()
	}
}

func (c *Controller) stateErr() error {
	switch c.state {
	case Closed:
		return ErrClosed
	case Loading, Saving, Deleting:
		return ErrBusy
	case Viewing:
		return ErrReadOnly
	}
	return ErrInvalidState
}

func (c *Controller) setState(s State) {
	if c.state != s {
		logger.Debugf("birth plan form: %s -> %s", c.state, s)
	}
	c.state = s
}

func (c *Controller) resetLocked() {
	c.doc = birthplan.Document{}
	c.fields = birthplan.Fields{}
	c.setState(Draft)
}

func (c *Controller) adoptLocked(d *birthplan.Document) {
	c.doc = *d
	c.doc.Fields = birthplan.Fields{}
	c.fields = d.Fields.Clone()
	c.setState(Viewing)
}

// identified rejects a plan without an id. A nil plan passes through.
func identified(d *birthplan.Document, err error) (*birthplan.Document, error) {
	if err == nil && d != nil && d.ID == "" {
		return nil, ErrIncomplete
	}
	return d, err
}

func (c *Controller) fail(title string, err error) {
	msg := err.Error()
	if errors.Is(err, ErrIncomplete) {
		msg = "Resposta inválida do servidor."
	}
	c.post(Notification{Level: LevelError, Title: title, Message: msg})
}

// post queues n; c.mu must be held. Queued notifications are delivered by
// flush once the lock is released, so a Notifier may call back into c.
func (c *Controller) post(n Notification) {
	c.outbox = append(c.outbox, n)
}

func (c *Controller) flush() {
	c.mu.Lock()
	out := c.outbox
	c.outbox = nil
	c.mu.Unlock()
	for _, n := range out {
		c.notify.Notify(n)
	}
}
