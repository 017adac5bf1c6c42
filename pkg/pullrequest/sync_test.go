package pullrequest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thoreinstein.com/adopr/pkg/credentials"
	"thoreinstein.com/adopr/pkg/devops"
	adoerrors "thoreinstein.com/adopr/pkg/errors"
)

var (
	me    = devops.Identity{ID: uuid.MustParse("11111111-1111-4111-8111-111111111111"), DisplayName: "Ada"}
	other = "Grace"
)

var testCreds = credentials.Credentials{
	OrganizationURL: "https://dev.azure.com/acme",
	ProjectName:     "My Proj",
	AccessToken:     "pat",
}

// fakeClient implements devops.Client, recording calls.
type fakeClient struct {
	mu sync.Mutex

	identity *devops.Identity
	authErr  error

	pullRequests []devops.PullRequest
	reviewers    map[int][]uuid.UUID
	listErr      map[string]error
	listFunc     func(ctx context.Context, filter devops.Filter) ([]devops.PullRequest, error)

	repos       []devops.Repository
	reposErr    error
	created     *devops.PullRequest
	createErr   error
	createCalls []devops.CreateOptions

	authCalls int
	listCalls []string
}

func (f *fakeClient) Authenticate(context.Context) (*devops.Identity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authCalls++
	return f.identity, f.authErr
}

func (f *fakeClient) ListRepositories(context.Context, string) ([]devops.Repository, error) {
	return f.repos, f.reposErr
}

func (f *fakeClient) ListPullRequests(ctx context.Context, _ string, filter devops.Filter) ([]devops.PullRequest, error) {
	f.mu.Lock()
	f.listCalls = append(f.listCalls, filter.String())
	f.mu.Unlock()

	if f.listFunc != nil {
		return f.listFunc(ctx, filter)
	}
	if err := f.listErr[filter.String()]; err != nil {
		return nil, err
	}

	var out []devops.PullRequest
	for _, pr := range f.pullRequests {
		switch {
		case filter.CreatorID != nil:
			if pr.CreatorDisplayName == me.DisplayName {
				out = append(out, pr)
			}
		case filter.ReviewerID != nil:
			for _, r := range f.reviewers[pr.ID] {
				if r == *filter.ReviewerID {
					out = append(out, pr)
				}
			}
		default:
			out = append(out, pr)
		}
	}
	return out, nil
}

func (f *fakeClient) CreatePullRequest(_ context.Context, _ string, opts devops.CreateOptions) (*devops.PullRequest, error) {
	f.createCalls = append(f.createCalls, opts)
	return f.created, f.createErr
}

// recordingSink implements ViewSink.
type recordingSink struct {
	mu    sync.Mutex
	calls []Views
}

func (s *recordingSink) ReplaceAll(views Views) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, views)
}

func (s *recordingSink) last() (Views, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.calls) == 0 {
		return Views{}, 0
	}
	return s.calls[len(s.calls)-1], len(s.calls)
}

func factoryFor(clients ...*fakeClient) (devops.ClientFactory, *int) {
	var mu sync.Mutex
	built := 0
	return func(credentials.Credentials) (devops.Client, error) {
		mu.Lock()
		defer mu.Unlock()
		c := clients[built%len(clients)]
		built++
		return c, nil
	}, &built
}

func samplePullRequests() []devops.PullRequest {
	return []devops.PullRequest{
		{ID: 1, RepositoryName: "svc", CreatorDisplayName: me.DisplayName, SourceRefName: "refs/heads/a", TargetRefName: "refs/heads/stage", Title: "A"},
		{ID: 2, RepositoryName: "web", CreatorDisplayName: other, SourceRefName: "refs/heads/b", TargetRefName: "refs/heads/main", Title: "B"},
		{ID: 3, RepositoryName: "svc", CreatorDisplayName: other, SourceRefName: "refs/heads/c", TargetRefName: "refs/heads/stage", Title: "C"},
	}
}

func ids(records []Record) []int {
	out := make([]int, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestRefreshAll_PopulatesThreeViews(t *testing.T) {
	client := &fakeClient{
		identity:     &me,
		pullRequests: samplePullRequests(),
		reviewers:    map[int][]uuid.UUID{3: {me.ID}},
	}
	factory, _ := factoryFor(client)
	sink := &recordingSink{}

	err := NewSynchronizer(factory, sink).RefreshAll(context.Background(), testCreds)
	require.NoError(t, err)

	views, calls := sink.last()
	require.Equal(t, 1, calls, "all three views arrive in one update")

	assert.Equal(t, []int{1}, ids(views.Mine))
	assert.Equal(t, []int{3}, ids(views.Reviewing))
	assert.Equal(t, []int{1, 2, 3}, ids(views.All))

	all := map[string]bool{}
	for _, r := range views.All {
		all[r.Key()] = true
	}
	for _, r := range append(append([]Record{}, views.Mine...), views.Reviewing...) {
		assert.True(t, all[r.Key()], "%s should appear in the all view", r.Key())
	}

	assert.Equal(t, "stage", views.All[0].TargetBranch)
	assert.Equal(t, "a", views.All[0].SourceBranch)
	assert.Equal(t, "https://dev.azure.com/acme/My%20Proj/_git/svc/pullrequest/1", views.All[0].Link)

	assert.Equal(t, 1, client.authCalls)
	assert.ElementsMatch(t, []string{
		"creator=" + me.ID.String(),
		"reviewer=" + me.ID.String(),
		"all",
	}, client.listCalls)
}

func TestRefreshAll_MissingCredentials(t *testing.T) {
	full := testCreds
	combos := map[string]credentials.Credentials{}
	for mask := 0; mask < 7; mask++ {
		c := full
		if mask&1 == 0 {
			c.OrganizationURL = ""
		}
		if mask&2 == 0 {
			c.ProjectName = ""
		}
		if mask&4 == 0 {
			c.AccessToken = ""
		}
		combos[string(rune('0'+mask))] = c
	}

	for name, creds := range combos {
		t.Run("mask "+name, func(t *testing.T) {
			client := &fakeClient{identity: &me}
			factory, built := factoryFor(client)
			sink := &recordingSink{}
			s := NewSynchronizer(factory, sink)

			err := s.RefreshAll(context.Background(), creds)
			require.Error(t, err)
			assert.True(t, adoerrors.IsPreconditionError(err))
			assert.Equal(t, adoerrors.SeverityWarning, adoerrors.SeverityOf(err))

			_, err = s.CreatePullRequest(context.Background(), creds, "svc", "a", "stage")
			assert.True(t, adoerrors.IsPreconditionError(err))

			assert.Zero(t, *built, "no client may be built")
			assert.Zero(t, client.authCalls)
			assert.Empty(t, client.listCalls)
			assert.Empty(t, client.createCalls)
			_, calls := sink.last()
			assert.Zero(t, calls)
		})
	}
}

func TestRefreshAll_AuthFailures(t *testing.T) {
	tests := []struct {
		name   string
		client *fakeClient
	}{
		{"nil identity", &fakeClient{}},
		{"rejected", &fakeClient{authErr: adoerrors.NewAuthError("bad credentials")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory, _ := factoryFor(tt.client)
			sink := &recordingSink{}

			err := NewSynchronizer(factory, sink).RefreshAll(context.Background(), testCreds)
			require.Error(t, err)
			assert.True(t, adoerrors.IsAuthError(err))
			assert.Empty(t, tt.client.listCalls)
			_, calls := sink.last()
			assert.Zero(t, calls)
		})
	}
}

func TestRefreshAll_AtomicOnPartialFailure(t *testing.T) {
	client := &fakeClient{
		identity:     &me,
		pullRequests: samplePullRequests(),
	}
	factory, _ := factoryFor(client)
	sink := &recordingSink{}
	s := NewSynchronizer(factory, sink)

	require.NoError(t, s.RefreshAll(context.Background(), testCreds))
	before, _ := sink.last()

	client.listErr = map[string]error{
		"reviewer=" + me.ID.String(): adoerrors.NewDevOpsErrorWithStatus("ListPullRequests", 500, "server error"),
	}
	client.pullRequests = nil

	err := s.RefreshAll(context.Background(), testCreds)
	require.Error(t, err)
	assert.True(t, adoerrors.IsDevOpsError(err))
	assert.Equal(t, adoerrors.SeverityError, adoerrors.SeverityOf(err))

	after, calls := sink.last()
	assert.Equal(t, 1, calls, "failed refresh must not publish")
	assert.Equal(t, before, after)
}

func TestRefreshAll_LastStartedWins(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once

	slow := &fakeClient{
		identity: &me,
		listFunc: func(ctx context.Context, _ devops.Filter) ([]devops.PullRequest, error) {
			once.Do(func() { close(started) })
			select {
			case <-release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			return []devops.PullRequest{{ID: 100, RepositoryName: "stale"}}, nil
		},
	}
	fast := &fakeClient{
		identity:     &me,
		pullRequests: []devops.PullRequest{{ID: 200, RepositoryName: "fresh", CreatorDisplayName: me.DisplayName}},
	}

	factory, _ := factoryFor(slow, fast)
	sink := &recordingSink{}
	s := NewSynchronizer(factory, sink)

	firstErr := make(chan error, 1)
	go func() {
		firstErr <- s.RefreshAll(context.Background(), testCreds)
	}()

	<-started
	require.NoError(t, s.RefreshAll(context.Background(), testCreds))
	close(release)

	err := <-firstErr
	assert.True(t, errors.Is(err, adoerrors.ErrSuperseded))
	assert.Equal(t, adoerrors.SeveritySilent, adoerrors.SeverityOf(err))

	views, calls := sink.last()
	assert.Equal(t, 1, calls)
	assert.Equal(t, []int{200}, ids(views.All))
}

func TestRefreshAll_OlderResultKeptWhenNewerFails(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once

	slow := &fakeClient{
		identity: &me,
		listFunc: func(ctx context.Context, _ devops.Filter) ([]devops.PullRequest, error) {
			once.Do(func() { close(started) })
			select {
			case <-release:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			return []devops.PullRequest{{ID: 100, RepositoryName: "svc"}}, nil
		},
	}
	failing := &fakeClient{
		identity: &me,
		listErr: map[string]error{
			devops.AllPullRequests().String(): adoerrors.NewDevOpsErrorWithStatus("ListPullRequests", 500, "TF400898: An Internal Error Occurred."),
		},
	}

	factory, _ := factoryFor(slow, failing)
	sink := &recordingSink{}
	s := NewSynchronizer(factory, sink)

	firstErr := make(chan error, 1)
	go func() {
		firstErr <- s.RefreshAll(context.Background(), testCreds)
	}()

	<-started
	err := s.RefreshAll(context.Background(), testCreds)
	require.Error(t, err)
	assert.True(t, adoerrors.IsDevOpsError(err))
	close(release)

	require.NoError(t, <-firstErr)

	views, calls := sink.last()
	assert.Equal(t, 1, calls)
	assert.Equal(t, []int{100}, ids(views.All))
}

func TestRefreshAll_StaleAfterNewerPublish(t *testing.T) {
	factory, _ := factoryFor(&fakeClient{identity: &me, pullRequests: samplePullRequests()})
	sink := &recordingSink{}
	s := NewSynchronizer(factory, sink)

	first := s.begin()
	second := s.begin()

	require.NoError(t, s.publish(second, Views{}))
	assert.ErrorIs(t, s.publish(first, Views{}), adoerrors.ErrSuperseded)
	assert.ErrorIs(t, s.publish(second, Views{}), adoerrors.ErrSuperseded)

	_, calls := sink.last()
	assert.Equal(t, 1, calls)
}

func TestCreatePullRequest(t *testing.T) {
	repoID := uuid.New()

	tests := []struct {
		name     string
		repos    []devops.Repository
		created  *devops.PullRequest
		wantLink string
	}{
		{
			name:     "link from created repository",
			repos:    []devops.Repository{{ID: repoID, Name: "svc", WebURL: "https://listed/svc"}},
			created:  &devops.PullRequest{ID: 9, Title: "feature", RepositoryWebURL: "https://created/svc"},
			wantLink: "https://created/svc/pullrequest/9",
		},
		{
			name:     "link from listed repository",
			repos:    []devops.Repository{{ID: repoID, Name: "svc", WebURL: "https://listed/svc/"}},
			created:  &devops.PullRequest{ID: 9, Title: "feature"},
			wantLink: "https://listed/svc/pullrequest/9",
		},
		{
			name:     "link built from organization",
			repos:    []devops.Repository{{ID: repoID, Name: "svc"}},
			created:  &devops.PullRequest{ID: 9},
			wantLink: "https://dev.azure.com/acme/My%20Proj/_git/svc/pullrequest/9",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{repos: tt.repos, created: tt.created}
			factory, _ := factoryFor(client)

			created, err := NewSynchronizer(factory, nil).CreatePullRequest(context.Background(), testCreds, "svc", "feature", "stage")
			require.NoError(t, err)

			assert.Equal(t, tt.wantLink, created.Link)
			assert.Equal(t, 9, created.ID)
			assert.Equal(t, "feature", created.Title)
			assert.Equal(t, "svc", created.Repository)

			require.Len(t, client.createCalls, 1)
			assert.Equal(t, devops.CreateOptions{
				RepositoryID:  repoID,
				SourceRefName: "refs/heads/feature",
				TargetRefName: "refs/heads/stage",
				Title:         "feature",
			}, client.createCalls[0])
		})
	}
}

func TestCreatePullRequest_UnknownRepository(t *testing.T) {
	client := &fakeClient{repos: []devops.Repository{{ID: uuid.New(), Name: "Svc"}, {ID: uuid.New(), Name: "svc-api"}}}
	factory, _ := factoryFor(client)

	_, err := NewSynchronizer(factory, nil).CreatePullRequest(context.Background(), testCreds, "svc", "feature", "stage")
	require.Error(t, err)

	var lookupErr *adoerrors.LookupError
	require.ErrorAs(t, err, &lookupErr)
	assert.Equal(t, "repository", lookupErr.Kind)
	assert.Equal(t, "svc", lookupErr.Name)
	assert.Empty(t, client.createCalls, "no pull request may be created")
}

func TestCreatePullRequest_ErrorsPassThrough(t *testing.T) {
	apiErr := adoerrors.NewDevOpsErrorWithStatus("CreatePullRequest", 409, "TF401179: An active pull request already exists.")
	client := &fakeClient{
		repos:     []devops.Repository{{ID: uuid.New(), Name: "svc"}},
		createErr: apiErr,
	}
	factory, _ := factoryFor(client)

	_, err := NewSynchronizer(factory, nil).CreatePullRequest(context.Background(), testCreds, "svc", "feature", "stage")
	require.Error(t, err)
	assert.Same(t, apiErr, err)

	client.reposErr = errors.New("network down")
	_, err = NewSynchronizer(factory, nil).CreatePullRequest(context.Background(), testCreds, "svc", "feature", "stage")
	assert.EqualError(t, err, "network down")
}

func TestCreatePullRequest_EmptyResponse(t *testing.T) {
	client := &fakeClient{
		repos: []devops.Repository{{ID: uuid.New(), Name: "svc"}},
	}
	factory, _ := factoryFor(client)

	created, err := NewSynchronizer(factory, nil).CreatePullRequest(context.Background(), testCreds, "svc", "feature", "stage")
	require.Error(t, err)
	assert.Nil(t, created)

	var devopsErr *adoerrors.DevOpsError
	require.ErrorAs(t, err, &devopsErr)
	assert.Equal(t, "CreatePullRequest", devopsErr.Operation)
	assert.Len(t, client.createCalls, 1)
}

func TestWhoami(t *testing.T) {
	t.Run("returns the identity", func(t *testing.T) {
		factory, builds := factoryFor(&fakeClient{identity: &me})
		s := NewSynchronizer(factory, nil)

		got, err := s.Whoami(context.Background(), testCreds)
		require.NoError(t, err)
		assert.Equal(t, me, *got)
		assert.Equal(t, 1, *builds)
	})

	t.Run("nil identity is an auth error", func(t *testing.T) {
		factory, _ := factoryFor(&fakeClient{})
		s := NewSynchronizer(factory, nil)

		_, err := s.Whoami(context.Background(), testCreds)
		assert.True(t, adoerrors.IsAuthError(err))
	})

	t.Run("missing credentials build no client", func(t *testing.T) {
		factory, builds := factoryFor(&fakeClient{identity: &me})
		s := NewSynchronizer(factory, nil)

		_, err := s.Whoami(context.Background(), credentials.Credentials{OrganizationURL: "https://dev.azure.com/acme"})
		assert.True(t, adoerrors.IsPreconditionError(err))
		assert.Equal(t, 0, *builds)
	})
}
