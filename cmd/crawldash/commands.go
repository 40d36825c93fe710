package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/crawldash/internal/config"
	"github.com/kalambet/crawldash/internal/model"
	"github.com/kalambet/crawldash/internal/render"
	"github.com/kalambet/crawldash/internal/session"
)

// withApp builds the app for one command and closes it afterwards.
func withApp(fn func(cmd *cobra.Command, a *app) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, a)
	}
}

func credentialsFromFlags(cmd *cobra.Command) (model.Credentials, error) {
	email, _ := cmd.Flags().GetString("email")
	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		p, err := readLine(cmd.InOrStdin(), cmd, "Password: ")
		if err != nil {
			return model.Credentials{}, err
		}
		password = p
	}
	return model.Credentials{Email: email, Password: password}, nil
}

func readLine(r io.Reader, cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func credentialFlags(cmd *cobra.Command) {
	cmd.Flags().String("email", "", "account email")
	cmd.Flags().String("password", "", "account password (prompted when omitted)")
}

// --- session ---

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and remember the session",
	RunE: withApp(func(cmd *cobra.Command, a *app) error {
		ctx := cmd.Context()
		creds, err := credentialsFromFlags(cmd)
		if err != nil {
			return err
		}
		if _, err := a.ctrl.Authenticate(ctx, creds); err != nil {
			return err
		}
		// A fresh session loads everything once, like opening the dashboard.
		report, err := a.ctrl.RefreshAll(ctx)
		if err != nil {
			return err
		}
		printCounts(a.ctrl.Counts(), report)
		return nil
	}),
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account (log in afterwards)",
	RunE: withApp(func(cmd *cobra.Command, a *app) error {
		ctx := cmd.Context()
		creds, err := credentialsFromFlags(cmd)
		if err != nil {
			return err
		}
		return a.ctrl.Register(ctx, creds)
	}),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	RunE: withApp(func(cmd *cobra.Command, a *app) error {
		return a.ctrl.Logout(cmd.Context())
	}),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show whether a session is stored",
	RunE: withApp(func(cmd *cobra.Command, a *app) error {
		if a.ctrl.Authenticated() {
			printStatus("Session", "logged in")
		} else {
			printStatus("Session", "not logged in")
		}
		printStatus("Backend", "%s", a.cfg.API.BaseURL)
		printStatus("Token store", "%s", a.cfg.Session.Store)
		return nil
	}),
}

func init() {
	credentialFlags(loginCmd)
	credentialFlags(registerCmd)
}

// --- refresh & dashboard ---

func printCounts(counts map[session.Collection]int, report session.RefreshReport) {
	for _, coll := range session.Collections {
		if report.Errors[coll] != nil {
			printStatus(string(coll), "%s", colorize(colorRed, "failed"))
			continue
		}
		printStatus(string(coll), "%d", counts[coll])
	}
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Fetch every collection from the backend",
	RunE: withApp(func(cmd *cobra.Command, a *app) error {
		ctx := cmd.Context()
		report, err := a.ctrl.RefreshAll(ctx)
		if err != nil {
			return notLoggedIn(err)
		}
		printCounts(a.ctrl.Counts(), report)
		if failed := report.Failed(); len(failed) > 0 {
			return fmt.Errorf("%d of %d collections failed to refresh", len(failed), len(session.Collections))
		}
		return nil
	}),
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show task and result totals with the latest results",
	RunE: withApp(func(cmd *cobra.Command, a *app) error {
		ctx := cmd.Context()
		if _, err := a.ctrl.RefreshAll(ctx); err != nil {
			return notLoggedIn(err)
		}
		now := time.Now()
		d := a.ctrl.Dashboard(now)
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), d)
		}
		return render.Dashboard(cmd.OutOrStdout(), d, now)
	}),
}

func notLoggedIn(err error) error {
	if errors.Is(err, session.ErrNoSession) {
		return fmt.Errorf("%s; run `crawldash login` first", session.MsgNotAuthenticated)
	}
	return err
}

// listCommand fetches one collection and prints it as a table or JSON.
func listCommand[T any](coll session.Collection, snapshot func(*app) []T, table func(io.Writer, []T) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List " + string(coll),
	}
	cmd.RunE = withApp(func(cmd *cobra.Command, a *app) error {
		ctx := cmd.Context()
		if err := a.ctrl.Refresh(ctx, coll); err != nil {
			return notLoggedIn(err)
		}
		items := snapshot(a)
		if limit, err := cmd.Flags().GetInt("limit"); err == nil && limit > 0 && len(items) > limit {
			items = items[:limit]
		}
		if jsonOutput {
			return printJSON(cmd.OutOrStdout(), items)
		}
		if len(items) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No %s found.\n", coll)
			return nil
		}
		return table(cmd.OutOrStdout(), items)
	})
	return cmd
}

// --- sites ---

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "Manage monitored sites",
}

var sitesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a site",
	Long: `Add a site to monitor.

Examples:
  crawldash sites add --name "Site A" --url http://a.com --type news`,
	RunE: withApp(func(cmd *cobra.Command, a *app) error {
		ctx := cmd.Context()
		name, _ := cmd.Flags().GetString("name")
		url, _ := cmd.Flags().GetString("url")
		typ, _ := cmd.Flags().GetString("type")
		return a.ctrl.CreateSite(ctx, model.NewSite{Name: name, URL: url, SiteType: model.SiteType(typ)})
	}),
}

func init() {
	sitesAddCmd.Flags().String("name", "", "display name")
	sitesAddCmd.Flags().String("url", "", "site URL")
	sitesAddCmd.Flags().String("type", string(model.SiteGeneral), "news, forum, blog or general")
	sitesCmd.AddCommand(
		listCommand(session.Sites, func(a *app) []model.Site { return a.ctrl.Sites() }, render.Sites),
		sitesAddCmd,
	)
}

// --- keywords ---

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "Manage monitored keywords",
}

var keywordsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a keyword",
	RunE: withApp(func(cmd *cobra.Command, a *app) error {
		ctx := cmd.Context()
		keyword, _ := cmd.Flags().GetString("keyword")
		category, _ := cmd.Flags().GetString("category")
		priority, _ := cmd.Flags().GetInt("priority")
		return a.ctrl.CreateKeyword(ctx, model.NewKeyword{
			Keyword:  keyword,
			Category: model.Category(category),
			Priority: priority,
		})
	}),
}

func init() {
	keywordsAddCmd.Flags().String("keyword", "", "search term")
	keywordsAddCmd.Flags().String("category", string(model.CategoryGeneral), "general, business, technology or health")
	keywordsAddCmd.Flags().Int("priority", model.MinPriority, "priority from 1 to 5")
	keywordsCmd.AddCommand(
		listCommand(session.Keywords, func(a *app) []model.Keyword { return a.ctrl.Keywords() }, render.Keywords),
		keywordsAddCmd,
	)
}

// --- tasks ---

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage crawl tasks",
}

var tasksAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a crawl task",
	Long: `Create a crawl task over existing sites and keywords.

Frequencies: PT1H (hourly), PT6H (every 6 hours), P1D (daily), P7D (weekly).

Examples:
  crawldash tasks add --name Daily --frequency P1D --sites 1 --keywords 2,3`,
	RunE: withApp(func(cmd *cobra.Command, a *app) error {
		ctx := cmd.Context()
		name, _ := cmd.Flags().GetString("name")
		desc, _ := cmd.Flags().GetString("description")
		freq, _ := cmd.Flags().GetString("frequency")
		sites, _ := cmd.Flags().GetString("sites")
		keywords, _ := cmd.Flags().GetString("keywords")

		siteIDs, err := parseIDs(sites)
		if err != nil {
			return fmt.Errorf("--sites: %w", err)
		}
		keywordIDs, err := parseIDs(keywords)
		if err != nil {
			return fmt.Errorf("--keywords: %w", err)
		}
		return a.ctrl.CreateTask(ctx, model.NewTask{
			Name:        name,
			Description: desc,
			Frequency:   model.Frequency(freq),
			SiteIDs:     siteIDs,
			KeywordIDs:  keywordIDs,
		})
	}),
}

// parseIDs splits a comma-separated id list. Blank entries are skipped.
func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func init() {
	tasksAddCmd.Flags().String("name", "", "task name")
	tasksAddCmd.Flags().String("description", "", "optional description")
	tasksAddCmd.Flags().String("frequency", string(model.Daily), "PT1H, PT6H, P1D or P7D")
	tasksAddCmd.Flags().String("sites", "", "comma-separated site ids")
	tasksAddCmd.Flags().String("keywords", "", "comma-separated keyword ids")
	tasksCmd.AddCommand(
		listCommand(session.Tasks, func(a *app) []model.Task { return a.ctrl.Tasks() }, render.Tasks),
		tasksAddCmd,
	)
}

// --- results ---

var resultsCmd = &cobra.Command{
	Use:   "results",
	Short: "Browse crawl results",
}

func init() {
	list := listCommand(session.Results, func(a *app) []model.Result { return a.ctrl.Results() }, render.Results)
	list.Flags().Int("limit", 0, "show at most this many results (0 for all)")
	resultsCmd.AddCommand(list)
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or update configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(out, "  %s = %s  %s\n", colorize(colorBold, k.Key), k.Value, colorize(colorCyan, "("+k.EnvVar+")"))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value. Valid keys: " + strings.Join(config.ValidKeys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
