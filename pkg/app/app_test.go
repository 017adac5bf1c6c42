package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thoreinstein.com/adopr/pkg/credentials"
	"thoreinstein.com/adopr/pkg/devops"
	adoerrors "thoreinstein.com/adopr/pkg/errors"
	"thoreinstein.com/adopr/pkg/pullrequest"
	"thoreinstein.com/adopr/pkg/tree"
	"thoreinstein.com/adopr/pkg/ui"
)

// Fakes

type answer struct {
	value string
	err   error
}

// scriptedPrompter answers Input calls in order.
type scriptedPrompter struct {
	answers []answer
	asked   []ui.InputOptions
}

func (p *scriptedPrompter) Input(ctx context.Context, opts ui.InputOptions) (string, error) {
	p.asked = append(p.asked, opts)
	if len(p.answers) == 0 {
		return "", ui.ErrCancelled
	}
	a := p.answers[0]
	p.answers = p.answers[1:]
	return a.value, a.err
}

func (p *scriptedPrompter) Confirm(ctx context.Context, title string, def bool) (bool, error) {
	return def, nil
}

func (p *scriptedPrompter) Select(ctx context.Context, title string, options []string) (string, error) {
	return "", ui.ErrCancelled
}

type recordingNotifier struct {
	infos   []string
	actions [][]string
	warns   []string
	errs    []string
	choice  string
}

func (n *recordingNotifier) Info(ctx context.Context, msg string, actions ...string) (string, error) {
	n.infos = append(n.infos, msg)
	n.actions = append(n.actions, actions)
	return n.choice, nil
}

func (n *recordingNotifier) Warn(msg string)  { n.warns = append(n.warns, msg) }
func (n *recordingNotifier) Error(msg string) { n.errs = append(n.errs, msg) }

type fakeOpener struct {
	opened []string
	err    error
}

func (o *fakeOpener) Open(url string) error {
	o.opened = append(o.opened, url)
	return o.err
}

type fakeClient struct {
	identity  *devops.Identity
	prs       []devops.PullRequest
	listErr   error
	repos     []devops.Repository
	created   *devops.PullRequest
	createErr error

	calls       int
	createCalls []devops.CreateOptions
}

func (c *fakeClient) Authenticate(context.Context) (*devops.Identity, error) {
	c.calls++
	return c.identity, nil
}

func (c *fakeClient) ListRepositories(context.Context, string) ([]devops.Repository, error) {
	c.calls++
	return c.repos, nil
}

func (c *fakeClient) ListPullRequests(context.Context, string, devops.Filter) ([]devops.PullRequest, error) {
	return c.prs, c.listErr
}

func (c *fakeClient) CreatePullRequest(_ context.Context, _ string, opts devops.CreateOptions) (*devops.PullRequest, error) {
	c.calls++
	c.createCalls = append(c.createCalls, opts)
	return c.created, c.createErr
}

type fixture struct {
	app      *App
	store    *credentials.MemoryStore
	session  *credentials.Session
	prompter *scriptedPrompter
	notifier *recordingNotifier
	opener   *fakeOpener
	client   *fakeClient
	builds   *int
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	f := &fixture{
		store:    credentials.NewMemoryStore(),
		prompter: &scriptedPrompter{},
		notifier: &recordingNotifier{},
		opener:   &fakeOpener{},
		client: &fakeClient{
			identity: &devops.Identity{ID: uuid.New(), DisplayName: "Ada"},
		},
		builds: new(int),
	}
	f.session = credentials.NewSession(f.store, "adopr")

	factory := func(credentials.Credentials) (devops.Client, error) {
		*f.builds++
		return f.client, nil
	}
	views := tree.NewModel()

	f.app = New(Deps{
		Session:  f.session,
		Sync:     pullrequest.NewSynchronizer(factory, views),
		Views:    views,
		Prompter: f.prompter,
		Notifier: f.notifier,
		Opener:   f.opener,
	}, append([]Option{WithWorkdir(t.TempDir())}, opts...)...)
	return f
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	require.NoError(t, f.session.Set(credentials.FieldOrganization, "https://dev.azure.com/acme"))
	require.NoError(t, f.session.Set(credentials.FieldProject, "Core"))
	require.NoError(t, f.session.Set(credentials.FieldToken, "pat"))
}

func (f *fixture) stored(t *testing.T, field credentials.Field) string {
	t.Helper()
	v, err := f.session.Stored(field)
	require.NoError(t, err)
	return v
}

// Login

func TestLogin_StoresAnswers(t *testing.T) {
	f := newFixture(t)
	f.prompter.answers = []answer{{value: "https://dev.azure.com/acme"}, {value: "Core"}, {value: "pat"}}

	res, err := f.app.Login(context.Background(), LoginOptions{})
	require.NoError(t, err)

	assert.False(t, res.Cancelled)
	assert.Equal(t, credentials.Fields, res.Updated)
	assert.Equal(t, "https://dev.azure.com/acme", f.stored(t, credentials.FieldOrganization))
	assert.Equal(t, "Core", f.stored(t, credentials.FieldProject))
	assert.Equal(t, "pat", f.stored(t, credentials.FieldToken))

	require.Len(t, f.prompter.asked, 3)
	assert.Equal(t, "Azure Organization URI", f.prompter.asked[0].Title)
	assert.Equal(t, "Azure Project Name", f.prompter.asked[1].Title)
	assert.Equal(t, "Azure DevOps Personal Access Token", f.prompter.asked[2].Title)
	assert.True(t, f.prompter.asked[2].Secret)
	assert.Zero(t, *f.builds, "login without verify makes no network calls")
}

func TestLogin_EmptyAnswerKeepsPreviousValue(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.prompter.answers = []answer{{value: ""}, {value: "Platform"}, {value: ""}}

	res, err := f.app.Login(context.Background(), LoginOptions{})
	require.NoError(t, err)

	assert.Equal(t, []credentials.Field{credentials.FieldProject}, res.Updated)
	assert.Equal(t, "https://dev.azure.com/acme", f.stored(t, credentials.FieldOrganization))
	assert.Equal(t, "Platform", f.stored(t, credentials.FieldProject))
	assert.Equal(t, "pat", f.stored(t, credentials.FieldToken))

	assert.Equal(t, "https://dev.azure.com/acme", f.prompter.asked[0].Value, "stored values are pre-filled")
	assert.Empty(t, f.prompter.asked[2].Value, "the token is never pre-filled")
}

func TestLogin_SampleOrganizationIsOnlyAPlaceholder(t *testing.T) {
	f := newFixture(t)
	f.prompter.answers = []answer{{value: ""}, {value: "Core"}, {value: "pat"}}

	res, err := f.app.Login(context.Background(), LoginOptions{})
	require.NoError(t, err)

	assert.Equal(t, "https://dev.azure.com/yourorganization", f.prompter.asked[0].Placeholder)
	assert.Empty(t, f.prompter.asked[0].Value)
	assert.NotContains(t, res.Updated, credentials.FieldOrganization)
	assert.Empty(t, f.stored(t, credentials.FieldOrganization))
}

func TestLogin_CancelStopsRemainingPrompts(t *testing.T) {
	f := newFixture(t)
	f.prompter.answers = []answer{{value: "https://dev.azure.com/acme"}, {err: ui.ErrCancelled}}

	res, err := f.app.Login(context.Background(), LoginOptions{Verify: true})
	require.NoError(t, err)

	assert.True(t, res.Cancelled)
	assert.Len(t, f.prompter.asked, 2, "token prompt is never shown")
	assert.Equal(t, "https://dev.azure.com/acme", f.stored(t, credentials.FieldOrganization), "already saved values are kept")
	assert.Empty(t, f.stored(t, credentials.FieldProject))
	assert.Zero(t, *f.builds, "cancelled login is not verified")
}

func TestLogin_Verify(t *testing.T) {
	f := newFixture(t)
	f.prompter.answers = []answer{{value: "https://dev.azure.com/acme"}, {value: "Core"}, {value: "pat"}}

	res, err := f.app.Login(context.Background(), LoginOptions{Verify: true})
	require.NoError(t, err)

	assert.Equal(t, "Ada", res.User)
	assert.Equal(t, []string{"Logged in to Azure DevOps as Ada."}, f.notifier.infos)
}

func TestLogin_VerifyRejected(t *testing.T) {
	f := newFixture(t)
	f.client.identity = nil
	f.prompter.answers = []answer{{value: "https://dev.azure.com/acme"}, {value: "Core"}, {value: "bad"}}

	_, err := f.app.Login(context.Background(), LoginOptions{Verify: true})
	require.Error(t, err)

	assert.True(t, adoerrors.IsAuthError(err))
	assert.True(t, adoerrors.IsSurfaced(err))
	assert.Len(t, f.notifier.warns, 1)
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	require.NoError(t, f.app.Logout(context.Background()))

	for _, field := range credentials.Fields {
		assert.Empty(t, f.stored(t, field))
	}
	assert.Len(t, f.notifier.infos, 1)
}

// Refresh

func TestRefresh(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.client.prs = []devops.PullRequest{
		{ID: 42, RepositoryName: "svc", SourceRefName: "refs/heads/feature", TargetRefName: "refs/heads/stage", Title: "Add login"},
	}

	require.NoError(t, f.app.Refresh(context.Background()))

	all := f.app.Views().Provider(pullrequest.ViewAll).Records()
	require.Len(t, all, 1)
	assert.Equal(t, "stage", all[0].TargetBranch)
	assert.Equal(t, "https://dev.azure.com/acme/Core/_git/svc/pullrequest/42", all[0].Link)
	assert.Empty(t, f.notifier.warns)
	assert.Empty(t, f.notifier.errs)
}

func TestRefresh_MissingCredentialsWarnOnce(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.session.Set(credentials.FieldOrganization, "https://dev.azure.com/acme"))

	err := f.app.Refresh(context.Background())
	require.Error(t, err)

	assert.True(t, adoerrors.IsPreconditionError(err))
	assert.True(t, adoerrors.IsSurfaced(err))
	require.Len(t, f.notifier.warns, 1)
	assert.Contains(t, f.notifier.warns[0], "You need to login to Azure DevOps first")
	assert.Empty(t, f.notifier.errs)
	assert.Zero(t, *f.builds)
}

func TestRefresh_RemoteErrorShownVerbatim(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.client.listErr = adoerrors.NewDevOpsErrorWithStatus("ListPullRequests", 500, "TF400898: An Internal Error Occurred.")

	err := f.app.Refresh(context.Background())
	require.Error(t, err)

	require.Len(t, f.notifier.errs, 1)
	assert.Contains(t, f.notifier.errs[0], "TF400898: An Internal Error Occurred.")
	assert.Empty(t, f.app.Views().Provider(pullrequest.ViewAll).Records(), "failed refresh changes nothing")
}

func TestSurface_SupersededIsSilent(t *testing.T) {
	f := newFixture(t)

	err := f.app.surface("refresh", adoerrors.ErrSuperseded)
	assert.NoError(t, err)
	assert.Empty(t, f.notifier.warns)
	assert.Empty(t, f.notifier.errs)
}

func TestSurface_OnlyOnce(t *testing.T) {
	f := newFixture(t)

	err := f.app.surface("open", errors.New("boom"))
	err = f.app.surface("open", err)

	assert.True(t, adoerrors.IsSurfaced(err))
	assert.Len(t, f.notifier.errs, 1)
}

// Create

func createFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	f.login(t)

	repoID := uuid.New()
	f.client.repos = []devops.Repository{{ID: repoID, Name: "svc", WebURL: "https://dev.azure.com/acme/Core/_git/svc"}}
	f.client.created = &devops.PullRequest{ID: 7, Title: "feature/login", RepositoryName: "svc"}
	return f
}

func TestCreatePullRequest_Prompts(t *testing.T) {
	f := createFixture(t)
	f.prompter.answers = []answer{{value: "svc"}, {value: "feature/login"}, {value: "stage"}}
	f.notifier.choice = OpenOnBrowserAction

	created, err := f.app.CreatePullRequest(context.Background(), CreateOptions{})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, 7, created.ID)
	assert.Equal(t, "https://dev.azure.com/acme/Core/_git/svc/pullrequest/7", created.Link)

	require.Len(t, f.client.createCalls, 1)
	assert.Equal(t, "refs/heads/feature/login", f.client.createCalls[0].SourceRefName)
	assert.Equal(t, "refs/heads/stage", f.client.createCalls[0].TargetRefName)

	require.Len(t, f.prompter.asked, 3)
	assert.Equal(t, "Repository Name", f.prompter.asked[0].Title)
	assert.Equal(t, "Source Branch", f.prompter.asked[1].Title)
	assert.Equal(t, "Target Branch", f.prompter.asked[2].Title)
	assert.Equal(t, DefaultTargetBranch, f.prompter.asked[2].Value)

	assert.Equal(t, []string{"Pull request successfully created!"}, f.notifier.infos)
	assert.Equal(t, [][]string{{OpenOnBrowserAction}}, f.notifier.actions)
	assert.Equal(t, []string{created.Link}, f.opener.opened)
}

func TestCreatePullRequest_DefaultsFromWorkspace(t *testing.T) {
	root := filepath.Join(t.TempDir(), "svc")
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".git", "HEAD"), []byte("ref: refs/heads/feature/login\n"), 0o644))
	nested := filepath.Join(root, "pkg", "api")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	f := createFixture(t)
	f.app.workdir = nested
	f.app.defaultTarget = "develop"
	f.prompter.answers = []answer{{value: "svc"}, {value: "feature/login"}, {value: "develop"}}

	_, err := f.app.CreatePullRequest(context.Background(), CreateOptions{NoBrowser: true})
	require.NoError(t, err)

	require.Len(t, f.prompter.asked, 3)
	assert.Equal(t, "svc", f.prompter.asked[0].Value)
	assert.Equal(t, "feature/login", f.prompter.asked[1].Value)
	assert.Equal(t, "develop", f.prompter.asked[2].Value)
	assert.Equal(t, [][]string{nil}, f.notifier.actions, "no browser action offered")
	assert.Empty(t, f.opener.opened)
}

func TestCreatePullRequest_FlagsSkipPrompts(t *testing.T) {
	f := createFixture(t)

	_, err := f.app.CreatePullRequest(context.Background(), CreateOptions{
		Repository: "svc", SourceBranch: "feature/login", TargetBranch: "main", NoBrowser: true,
	})
	require.NoError(t, err)

	assert.Empty(t, f.prompter.asked)
	require.Len(t, f.client.createCalls, 1)
	assert.Equal(t, "refs/heads/main", f.client.createCalls[0].TargetRefName)
}

func TestCreatePullRequest_Abandoned(t *testing.T) {
	tests := []struct {
		name    string
		answers []answer
		asked   int
	}{
		{"cancel repository", []answer{{err: ui.ErrCancelled}}, 1},
		{"empty repository", []answer{{value: ""}}, 1},
		{"empty source", []answer{{value: "svc"}, {value: ""}}, 2},
		{"cancel target", []answer{{value: "svc"}, {value: "a"}, {err: ui.ErrCancelled}}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := createFixture(t)
			f.prompter.answers = tt.answers

			created, err := f.app.CreatePullRequest(context.Background(), CreateOptions{})
			require.NoError(t, err)
			assert.Nil(t, created)
			assert.Len(t, f.prompter.asked, tt.asked)
			assert.Zero(t, *f.builds, "no client is built")
			assert.Empty(t, f.notifier.infos)
		})
	}
}

func TestCreatePullRequest_NotLoggedIn(t *testing.T) {
	f := newFixture(t)

	created, err := f.app.CreatePullRequest(context.Background(), CreateOptions{})
	require.Error(t, err)

	assert.Nil(t, created)
	assert.True(t, adoerrors.IsPreconditionError(err))
	assert.Empty(t, f.prompter.asked, "credentials are checked before prompting")
	assert.Len(t, f.notifier.warns, 1)
}

func TestCreatePullRequest_UnknownRepository(t *testing.T) {
	f := createFixture(t)

	_, err := f.app.CreatePullRequest(context.Background(), CreateOptions{
		Repository: "nope", SourceBranch: "a", TargetBranch: "stage",
	})
	require.Error(t, err)

	assert.True(t, adoerrors.IsLookupError(err))
	assert.Empty(t, f.client.createCalls)
	require.Len(t, f.notifier.errs, 1)
	assert.Contains(t, f.notifier.errs[0], "repository not found")
}

func TestCreatePullRequest_RemoteFailure(t *testing.T) {
	f := createFixture(t)
	f.client.createErr = adoerrors.NewDevOpsErrorWithStatus("CreatePullRequest", 409, "TF401179: An active pull request for the source and target branch already exists.")

	_, err := f.app.CreatePullRequest(context.Background(), CreateOptions{
		Repository: "svc", SourceBranch: "a", TargetBranch: "stage",
	})
	require.Error(t, err)

	require.Len(t, f.notifier.errs, 1)
	assert.Contains(t, f.notifier.errs[0], "TF401179: An active pull request for the source and target branch already exists.")
}

func TestCreatePullRequest_PermissionDeniedIsAnError(t *testing.T) {
	f := createFixture(t)
	f.client.createErr = adoerrors.NewDevOpsErrorWithStatus("CreatePullRequest", 403, "TF401027: You need the Git 'PullRequestContribute' permission to perform this action.")

	_, err := f.app.CreatePullRequest(context.Background(), CreateOptions{
		Repository: "svc", SourceBranch: "a", TargetBranch: "stage",
	})
	require.Error(t, err)
	assert.False(t, adoerrors.IsAuthError(err))
	assert.True(t, adoerrors.IsSurfaced(err))

	assert.Empty(t, f.notifier.warns)
	require.Len(t, f.notifier.errs, 1)
	assert.Contains(t, f.notifier.errs[0], "TF401027: You need the Git 'PullRequestContribute' permission to perform this action.")
}

// Open

func TestOpenInBrowser(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.app.OpenInBrowser("https://x/pr/1"))
	assert.Equal(t, []string{"https://x/pr/1"}, f.opener.opened)

	f.opener.err = errors.New("no display")
	err := f.app.OpenInBrowser("https://x/pr/2")
	require.Error(t, err)
	assert.True(t, adoerrors.IsSurfaced(err))
	assert.Len(t, f.notifier.errs, 1)
}

func TestWithTimeout(t *testing.T) {
	f := newFixture(t, WithTimeout(0))
	ctx, cancel := f.app.withTimeout(context.Background())
	defer cancel()
	_, ok := ctx.Deadline()
	assert.False(t, ok)

	f = newFixture(t, WithTimeout(1e9))
	ctx, cancel2 := f.app.withTimeout(context.Background())
	defer cancel2()
	_, ok = ctx.Deadline()
	assert.True(t, ok)
}
