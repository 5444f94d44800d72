// Command birthplan is the command line client of the humanizapp API. It
// keeps the signed-in session on disk and edits, deletes and exports the
// user's birth plan.
package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/humanizapp/humanizapp/backend/go-services/internal/birthplan"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/config"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/database"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/form"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/gateway"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/sessions"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/storage"
	"github.com/humanizapp/humanizapp/backend/go-services/pkg/logger"
	"github.com/spf13/pflag"
)

const usage = `usage: birthplan [global flags] <command> [flags]

commands:
  register   create an account
  login      sign in and remember the session
  logout     sign out and forget the session
  whoami     print the signed-in user
  show       print the birth plan
  save       create or update the birth plan
  delete     delete the birth plan
  export     write the birth plan as PDF
  contents   list informational contents
  content    print one content by id
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "erro:", err)
		}
		os.Exit(1)
	}
}

// app is one invocation of the client.
type app struct {
	cfg     *config.Config
	gw      *gateway.Client
	session *sessions.Session
	in      *bufio.Reader
	out     io.Writer
	errOut  io.Writer
}

func run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	global := pflag.NewFlagSet("birthplan", pflag.ContinueOnError)
	global.SetOutput(errOut)
	global.SetInterspersed(false)
	global.Usage = func() { fmt.Fprint(errOut, usage+"\nglobal flags:\n"+global.FlagUsages()) }
	global.String("api-base-url", "", "backend URL (API_BASE_URL)")
	global.String("session-store", "", "memory, sqlite or redis (SESSION_STORE)")
	global.String("session-path", "", "SQLite session file (SESSION_PATH)")
	global.String("export-dir", "", "directory for exported PDFs (EXPORT_DIR)")
	global.Int("client-timeout", 0, "request timeout in seconds (CLIENT_TIMEOUT)")
	verbose := global.BoolP("verbose", "v", false, "log requests to stderr")
	if err := global.Parse(args); err != nil {
		return err
	}

	logger.SetOutput(errOut)
	if *verbose {
		logger.Init("debug")
	} else {
		logger.Init(os.Getenv("LOG_LEVEL"))
	}

	if global.NArg() == 0 {
		global.Usage()
		return pflag.ErrHelp
	}
	cfg, err := config.Load(global)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	session, err := sessions.Open(ctx, store)
	if err != nil {
		return err
	}
	defer session.Close()

	a := &app{
		cfg:     cfg,
		session: session,
		in:      bufio.NewReader(in),
		out:     out,
		errOut:  errOut,
	}
	a.gw = gateway.New(cfg.Client.APIBaseURL,
		gateway.WithHTTPClient(&http.Client{Timeout: cfg.Client.Timeout}),
		gateway.WithTokenSource(session))

	cmd, rest := global.Arg(0), global.Args()[1:]
	switch cmd {
	case "register":
		return a.register(ctx, rest)
	case "login":
		return a.login(ctx, rest)
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami()
	case "show":
		return a.show(ctx)
	case "save":
		return a.save(ctx, rest)
	case "delete":
		return a.delete(ctx, rest)
	case "export":
		return a.export(ctx, rest)
	case "contents":
		return a.contents(ctx, rest)
	case "content":
		return a.content(ctx, rest)
	}
	global.Usage()
	return fmt.Errorf("unknown command %q", cmd)
}

func openStore(ctx context.Context, cfg *config.Config) (sessions.Store, error) {
	switch cfg.Client.SessionStore {
	case "memory":
		return sessions.NewMemoryStore(), nil
	case "redis":
		client, err := database.ConnectRedis(ctx, cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, fmt.Errorf("session store: %w", err)
		}
		return sessions.NewRedisStore(client, "humanizapp:session:", 0), nil
	case "sqlite", "":
		return sessions.OpenSQLite(cfg.Client.SessionPath)
	}
	return nil, fmt.Errorf("unknown session store %q", cfg.Client.SessionStore)
}

func (a *app) flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

func (a *app) controller(opts ...form.Option) *form.Controller {
	opts = append([]form.Option{form.WithNotifier(form.NotifyFunc(func(n form.Notification) {
		fmt.Fprintf(a.errOut, "%s: %s\n", n.Title, n.Message)
	}))}, opts...)
	return form.New(a.gw, a.session, opts...)
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := a.flags("register")
	var r gateway.Registration
	fs.StringVar(&r.Name, "name", "", "full name")
	fs.StringVar(&r.Username, "username", "", "login name")
	fs.StringVar(&r.Password, "password", "", "password")
	fs.StringVar(&r.CPF, "cpf", "", "CPF, digits only")
	if err := fs.Parse(args); err != nil {
		return err
	}
	u, err := a.gw.Register(ctx, r)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Conta criada para %s (%s)\n", u.Name, u.Username)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := a.flags("login")
	username := fs.String("username", "", "login name")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	res, err := a.gw.Login(ctx, *username, *password)
	if err != nil {
		return err
	}
	if err := a.session.SignIn(ctx, res.User, res.Token); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Bem-vinda, %s\n", res.User.Name)
	return nil
}

// logout always clears the local session, even when the backend is down.
func (a *app) logout(ctx context.Context) error {
	if !a.session.IsAuthenticated() {
		fmt.Fprintln(a.out, "Nenhuma sessão ativa")
		return nil
	}
	if err := a.gw.Logout(ctx); err != nil {
		logger.Warnf("backend logout failed: %v", err)
	}
	if err := a.session.SignOut(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Sessão encerrada")
	return nil
}

func (a *app) whoami() error {
	u := a.session.CurrentUser()
	if u == nil {
		return form.ErrNotAuthenticated
	}
	fmt.Fprintf(a.out, "%s (%s)\n", u.Name, u.Username)
	return nil
}

func (a *app) show(ctx context.Context) error {
	c := a.controller()
	defer c.Close()
	if err := c.Load(ctx); err != nil {
		return err
	}
	if c.State() == form.Draft {
		fmt.Fprintln(a.out, "Nenhum plano de parto salvo")
		return nil
	}
	printFields(a.out, c.Fields())
	return nil
}

func (a *app) save(ctx context.Context, args []string) error {
	fs := a.flags("save")
	companion := fs.String("companion-name", "", "companion name")
	relationship := fs.String("companion-relationship", "", "companion relationship")
	pain := fs.StringArray("pain-relief", nil, "pain relief method, repeatable; replaces the selection (empty value clears it)")
	position := fs.String("birth-position", "", "birth position")
	cord := fs.String("cord-clamping", "", "cord clamping")
	skin := fs.String("skin-to-skin", "", "skin-to-skin contact")
	breast := fs.String("breastfeeding", "", "breastfeeding in the first hour")
	notes := fs.String("notes", "", "additional notes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c := a.controller()
	defer c.Close()
	if err := c.Load(ctx); err != nil {
		return err
	}
	if c.State() == form.Viewing {
		if err := c.Edit(); err != nil {
			return err
		}
	}

	var steps []func() error
	if fs.Changed("companion-name") {
		steps = append(steps, func() error { return c.SetCompanionName(*companion) })
	}
	if fs.Changed("companion-relationship") {
		steps = append(steps, func() error { return c.SetCompanionRelationship(*relationship) })
	}
	if fs.Changed("pain-relief") {
		want := birthplan.PainReliefSet{}
		for _, s := range *pain {
			if strings.TrimSpace(s) == "" {
				continue
			}
			m, err := birthplan.ParsePainReliefMethod(s)
			if err != nil {
				return err
			}
			want = want.With(m)
		}
		for _, m := range birthplan.PainReliefMethods {
			steps = append(steps, func() error { return c.TogglePainRelief(m, want.Contains(m)) })
		}
	}
	if fs.Changed("birth-position") {
		v, err := birthplan.ParseBirthPosition(*position)
		if err != nil {
			return err
		}
		steps = append(steps, func() error { return c.SetBirthPosition(v) })
	}
	if fs.Changed("cord-clamping") {
		v, err := birthplan.ParseCordClamping(*cord)
		if err != nil {
			return err
		}
		steps = append(steps, func() error { return c.SetCordClamping(v) })
	}
	if fs.Changed("skin-to-skin") {
		v, err := birthplan.ParseSkinToSkin(*skin)
		if err != nil {
			return err
		}
		steps = append(steps, func() error { return c.SetSkinToSkin(v) })
	}
	if fs.Changed("breastfeeding") {
		v, err := birthplan.ParseBreastfeeding(*breast)
		if err != nil {
			return err
		}
		steps = append(steps, func() error { return c.SetBreastfeeding(v) })
	}
	if fs.Changed("notes") {
		steps = append(steps, func() error { return c.SetAdditionalNotes(*notes) })
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}

	if err := c.Save(ctx); err != nil {
		return err
	}
	printFields(a.out, c.Fields())
	return nil
}

func (a *app) delete(ctx context.Context, args []string) error {
	fs := a.flags("delete")
	yes := fs.BoolP("yes", "y", false, "do not ask for confirmation")
	if err := fs.Parse(args); err != nil {
		return err
	}
	confirm := form.ConfirmFunc(func(_ context.Context, prompt string) bool {
		if *yes {
			return true
		}
		fmt.Fprintf(a.out, "%s [s/N] ", prompt)
		line, _ := a.in.ReadString('\n')
		switch strings.ToLower(strings.TrimSpace(line)) {
		case "s", "sim", "y", "yes":
			return true
		}
		return false
	})

	c := a.controller(form.WithConfirmer(confirm))
	defer c.Close()
	if err := c.Load(ctx); err != nil {
		return err
	}
	if c.State() == form.Draft {
		fmt.Fprintln(a.out, "Nenhum plano de parto salvo")
		return nil
	}
	err := c.Delete(ctx)
	if errors.Is(err, form.ErrDeclined) {
		fmt.Fprintln(a.out, "Exclusão cancelada")
		return nil
	}
	return err
}

func (a *app) export(ctx context.Context, args []string) error {
	fs := a.flags("export")
	dir := fs.String("out", a.cfg.Client.ExportDir, "output directory")
	upload := fs.Bool("upload", false, "also upload to MinIO object storage")
	if err := fs.Parse(args); err != nil {
		return err
	}

	c := a.controller()
	defer c.Close()
	if err := c.Load(ctx); err != nil {
		return err
	}
	var buf bytes.Buffer
	name, err := c.ExportPDF(&buf, time.Now())
	if err != nil {
		return err
	}

	sinks := []storage.Sink{storage.NewFileSink(*dir)}
	if *upload {
		prefix := ""
		if u := a.session.CurrentUser(); u != nil {
			prefix = u.ID
		}
		s3, err := storage.NewMinIOStorage(ctx, a.cfg.MinIO, prefix)
		if err != nil {
			return fmt.Errorf("upload: %w", err)
		}
		sinks = append(sinks, s3)
	}
	for _, s := range sinks {
		where, err := s.Put(ctx, name, buf.Bytes(), "application/pdf")
		if err != nil {
			return err
		}
		fmt.Fprintln(a.out, where)
	}
	return nil
}

func (a *app) contents(ctx context.Context, args []string) error {
	fs := a.flags("contents")
	var f gateway.ContentFilter
	fs.StringVar(&f.Category, "category", "", "gestacao, parto or pos-parto")
	fs.StringVar(&f.Role, "role", "", "public or members")
	fs.IntVar(&f.Trimester, "trimester", 0, "trimester 1-3")
	fs.IntVar(&f.Week, "week", 0, "pregnancy week 1-42")
	if err := fs.Parse(args); err != nil {
		return err
	}
	list, err := a.gw.ListContents(ctx, f)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(a.out, "Nenhum conteúdo encontrado")
		return nil
	}
	for _, item := range list {
		fmt.Fprintf(a.out, "%s\t%s\t%s\tsemanas %d-%d\n", item.ID, item.Title, item.Category, item.WeekRangeStart, item.WeekRangeEnd)
	}
	return nil
}

func (a *app) content(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: birthplan content <id>")
	}
	item, err := a.gw.GetContent(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s\n%s · %s · %dº trimestre\n\n%s\n", item.Title, item.Category, item.Type, item.Trimester, item.Text)
	return nil
}

func printFields(w io.Writer, f birthplan.Fields) {
	show := func(v string) string {
		if v == "" {
			return "Não especificado"
		}
		return v
	}
	methods := make([]string, 0, len(f.PainReliefMethods))
	for _, m := range f.PainReliefMethods {
		methods = append(methods, string(m))
	}
	fmt.Fprintf(w, "Acompanhante:     %s\n", show(f.CompanionName))
	fmt.Fprintf(w, "Relação:          %s\n", show(f.CompanionRelationship))
	fmt.Fprintf(w, "Alívio da dor:    %s\n", show(strings.Join(methods, ", ")))
	fmt.Fprintf(w, "Posição:          %s\n", show(string(f.BirthPosition)))
	fmt.Fprintf(w, "Cordão:           %s\n", show(string(f.CordClamping)))
	fmt.Fprintf(w, "Pele a pele:      %s\n", show(string(f.SkinToSkin)))
	fmt.Fprintf(w, "Amamentação:      %s\n", show(string(f.Breastfeeding)))
	if f.AdditionalNotes != "" {
		fmt.Fprintf(w, "Observações:      %s\n", f.AdditionalNotes)
	}
}
