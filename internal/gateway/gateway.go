// Package gateway is the HTTP client of the humanizapp backend. Every call
// returns either the decoded payload or an *Error carrying a message that
// can be shown to the user as is.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/humanizapp/humanizapp/backend/go-services/internal/birthplan"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/content"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/models"
	"github.com/humanizapp/humanizapp/backend/go-services/pkg/logger"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrConflict     = errors.New("conflict")
	// ErrIncomplete marks a success status whose body lacks the expected record.
	ErrIncomplete = errors.New("incomplete response")
)

const connectionMessage = "Não foi possível conectar ao servidor"

// Error is a failed gateway call.
type Error struct {
	Op      string
	Status  int // 0 when no usable response arrived
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// Is maps HTTP statuses onto the package sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	case ErrConflict:
		return e.Status == http.StatusConflict
	}
	return false
}

// TokenSource supplies the bearer token for authenticated calls.
type TokenSource interface {
	Token() string
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(g *Client) { g.http = c }
}

// WithTokenSource attaches "Authorization: Bearer" to every request while
// the source returns a non-empty token.
func WithTokenSource(ts TokenSource) Option {
	return func(g *Client) { g.tokens = ts }
}

// Client talks to the backend REST API.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
}

func New(baseURL string, opts ...Option) *Client {
	g := &Client{baseURL: strings.TrimRight(baseURL, "/"), http: http.DefaultClient}
	for _, o := range opts {
		o(g)
	}
	return g
}

// LoginResult is the body of a successful login.
type LoginResult struct {
	Authenticated bool         `json:"authenticated"`
	Token         string       `json:"token"`
	User          *models.User `json:"user"`
}

// Registration is the body of POST /users/register.
type Registration struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Password string `json:"password"`
	CPF      string `json:"cpf"`
}

func (g *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var out LoginResult
	body := map[string]string{"username": username, "password": password}
	if err := g.do(ctx, "login", http.MethodPost, "/users/login", body, &out, "Username ou senha incorretos"); err != nil {
		return nil, err
	}
	if !out.Authenticated || out.Token == "" || out.User == nil {
		return nil, &Error{Op: "login", Status: http.StatusUnauthorized, Message: "Username ou senha incorretos"}
	}
	return &out, nil
}

func (g *Client) Register(ctx context.Context, r Registration) (*models.User, error) {
	var out models.User
	if err := g.do(ctx, "register", http.MethodPost, "/users/register", r, &out, "Erro ao cadastrar usuário"); err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout revokes the current token on the backend.
func (g *Client) Logout(ctx context.Context) error {
	return g.do(ctx, "logout", http.MethodPost, "/users/logout", nil, nil, "Erro ao sair")
}

func (g *Client) GetUser(ctx context.Context, username string) (*models.User, error) {
	var out models.User
	if err := g.do(ctx, "get user", http.MethodGet, "/users/"+url.PathEscape(username), nil, &out, "Erro ao buscar dados do usuário"); err != nil {
		return nil, err
	}
	return &out, nil
}

type createPlanRequest struct {
	UserID string `json:"userId"`
	birthplan.Fields
}

func (g *Client) CreateBirthPlan(ctx context.Context, ownerID string, f birthplan.Fields) (*birthplan.Document, error) {
	var out birthplan.Document
	body := createPlanRequest{UserID: ownerID, Fields: f}
	if err := g.do(ctx, "create birth plan", http.MethodPost, "/birth-plans", body, &out, "Erro ao criar plano de parto"); err != nil {
		return nil, err
	}
	return document("create birth plan", &out, "Erro ao criar plano de parto")
}

// GetBirthPlanByOwner returns (nil, nil) when the owner has no plan yet.
func (g *Client) GetBirthPlanByOwner(ctx context.Context, ownerID string) (*birthplan.Document, error) {
	var out birthplan.Document
	err := g.do(ctx, "get birth plan", http.MethodGet, "/birth-plans/user/"+url.PathEscape(ownerID), nil, &out, "Erro ao buscar plano de parto")
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return document("get birth plan", &out, "Erro ao buscar plano de parto")
}

func (g *Client) GetBirthPlan(ctx context.Context, id string) (*birthplan.Document, error) {
	var out birthplan.Document
	if err := g.do(ctx, "get birth plan", http.MethodGet, "/birth-plans/"+url.PathEscape(id), nil, &out, "Erro ao buscar plano de parto"); err != nil {
		return nil, err
	}
	return document("get birth plan", &out, "Erro ao buscar plano de parto")
}

// UpdateBirthPlan sends the full field set; the backend replaces every field.
func (g *Client) UpdateBirthPlan(ctx context.Context, id string, f birthplan.Fields) (*birthplan.Document, error) {
	var out birthplan.Document
	if err := g.do(ctx, "update birth plan", http.MethodPut, "/birth-plans/"+url.PathEscape(id), f, &out, "Erro ao atualizar plano de parto"); err != nil {
		return nil, err
	}
	return document("update birth plan", &out, "Erro ao atualizar plano de parto")
}

// document rejects a decoded plan without the identity and owner the
// backend always assigns.
func document(op string, d *birthplan.Document, fallback string) (*birthplan.Document, error) {
	if d.ID == "" || d.OwnerID == "" {
		return nil, &Error{Op: op, Message: fallback, Err: fmt.Errorf("birth plan without id or owner: %w", ErrIncomplete)}
	}
	return d, nil
}

func (g *Client) DeleteBirthPlan(ctx context.Context, id string) error {
	return g.do(ctx, "delete birth plan", http.MethodDelete, "/birth-plans/"+url.PathEscape(id), nil, nil, "Erro ao deletar plano de parto")
}

// ContentFilter narrows ListContents. Zero values are not sent.
type ContentFilter struct {
	Role      string
	Category  string
	Trimester int
	Week      int
}

func (f ContentFilter) query() string {
	q := url.Values{}
	if f.Role != "" {
		q.Set("role", f.Role)
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if f.Trimester != 0 {
		q.Set("trimester", strconv.Itoa(f.Trimester))
	}
	if f.Week != 0 {
		q.Set("week", strconv.Itoa(f.Week))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

func (g *Client) ListContents(ctx context.Context, f ContentFilter) ([]content.Content, error) {
	out := []content.Content{}
	if err := g.do(ctx, "list contents", http.MethodGet, "/contents"+f.query(), nil, &out, "Erro ao buscar conteúdos"); err != nil {
		return nil, err
	}
	return out, nil
}

func (g *Client) GetContent(ctx context.Context, id string) (*content.Content, error) {
	var out content.Content
	if err := g.do(ctx, "get content", http.MethodGet, "/contents/"+url.PathEscape(id), nil, &out, "Conteúdo não encontrado"); err != nil {
		return nil, err
	}
	return &out, nil
}

func (g *Client) do(ctx context.Context, op, method, path string, in, out interface{}, fallback string) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &Error{Op: op, Message: fallback, Err: err}
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return &Error{Op: op, Message: fallback, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.tokens != nil {
		if tok := g.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}

	resp, err := g.http.Do(req)
	if err != nil {
		logger.Debugf("gateway %s %s: %v", method, path, err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return &Error{Op: op, Message: fallback, Err: ctxErr}
		}
		return &Error{Op: op, Message: connectionMessage, Err: err}
	}
	defer resp.Body.Close()
	logger.Debugf("gateway %s %s -> %d", method, path, resp.StatusCode)

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return &Error{Op: op, Status: resp.StatusCode, Message: fallback, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{
			Op:      op,
			Status:  resp.StatusCode,
			Message: serverMessage(raw, fallback),
			Err:     fmt.Errorf("%s %s: status %d", method, path, resp.StatusCode),
		}
	}
	if out == nil {
		return nil
	}
	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(raw)) == 0 {
		return &Error{Op: op, Status: resp.StatusCode, Message: fallback, Err: fmt.Errorf("%s %s: empty body: %w", method, path, ErrIncomplete)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &Error{Op: op, Status: resp.StatusCode, Message: fallback, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// serverMessage picks the backend's own message, which may come as
// {"error": "..."} or {"message": "..."}.
func serverMessage(raw []byte, fallback string) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return fallback
}
