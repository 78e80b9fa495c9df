package portal_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/codit04/TechMCP/internal/config"
	"github.com/codit04/TechMCP/internal/portal"
)

const (
	testToken = "tok-8c41"

	loginPage = `<html><body>
		<h2>Student Login</h2>
		<form method="post">
			<input name="__RequestVerificationToken" type="hidden" value="` + testToken + `"/>
			<input name="rollno"/><input name="password" type="password"/>
			<input name="chkterms" type="checkbox"/> Terms &amp; Conditions
		</form>
	</body></html>`

	menuPage = `<html><body><nav class="breadcrumb">Main Menu</nav>
		<a href="#">Profile</a> <a href="#">Logout</a> Welcome back</body></html>`

	dataPage = `<html><body><table id="example"><tbody>
		<tr><td>23XT51</td></tr></tbody></table></body></html>`
)

// fixturePortal emulates the portal's login flow: CSRF-token form login,
// cookie session, HTTP 200 login-page bounce on expiry.
type fixturePortal struct {
	mu           sync.Mutex
	logins       int
	sessionValid bool
	rejectLogin  bool
	lastForm     url.Values
}

func (p *fixturePortal) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			p.handleLogin(w, r)
			return
		}
		w.Write([]byte(loginPage))
	})

	mux.HandleFunc("/Home/Menu", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(menuPage))
	})

	mux.HandleFunc("/Attendance/StudentPercentage", func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		valid := p.sessionValid
		p.mu.Unlock()
		if !valid {
			// Expired sessions bounce to the login page with HTTP 200.
			w.Write([]byte(loginPage))
			return
		}
		w.Write([]byte(dataPage))
	})

	return mux
}

func (p *fixturePortal) handleLogin(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()

	p.mu.Lock()
	p.lastForm = r.PostForm
	reject := p.rejectLogin || r.PostFormValue("__RequestVerificationToken") != testToken
	if !reject {
		p.logins++
		p.sessionValid = true
	}
	p.mu.Unlock()

	if reject {
		w.Write([]byte(loginPage))
		return
	}
	http.SetCookie(w, &http.Cookie{Name: ".AspNet.Session", Value: "s1", Path: "/"})
	http.Redirect(w, r, "/Home/Menu", http.StatusFound)
}

func (p *fixturePortal) expireSession() {
	p.mu.Lock()
	p.sessionValid = false
	p.mu.Unlock()
}

func newTestClient(t *testing.T, fixture *fixturePortal) *portal.Client {
	t.Helper()
	ts := httptest.NewServer(fixture.handler())
	t.Cleanup(ts.Close)

	client, err := portal.New(config.PortalConfig{
		BaseURL:    ts.URL,
		RollNumber: "22pt01",
		Password:   "hunter2",
		Timeout:    5 * time.Second,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return client
}

func TestLoginPostsCredentialsWithToken(t *testing.T) {
	t.Parallel()

	fixture := &fixturePortal{}
	client := newTestClient(t, fixture)

	require.NoError(t, client.Login(context.Background()))

	assert.Equal(t, 1, fixture.logins)
	// The portal expects the roll number uppercased and the terms box
	// checked.
	assert.Equal(t, "22PT01", fixture.lastForm.Get("rollno"))
	assert.Equal(t, "hunter2", fixture.lastForm.Get("password"))
	assert.Equal(t, "on", fixture.lastForm.Get("chkterms"))
	assert.Equal(t, testToken, fixture.lastForm.Get("__RequestVerificationToken"))
}

func TestLoginRejectedIsAuthError(t *testing.T) {
	t.Parallel()

	fixture := &fixturePortal{rejectLogin: true}
	client := newTestClient(t, fixture)

	err := client.Login(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, portal.ErrAuth)
}

func TestLoginUnreachablePortal(t *testing.T) {
	t.Parallel()

	client, err := portal.New(config.PortalConfig{
		BaseURL:    "http://127.0.0.1:1", // nothing listens here
		RollNumber: "22pt01",
		Password:   "hunter2",
		Timeout:    time.Second,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	err = client.Login(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, portal.ErrUnreachable)
}

func TestPageLogsInLazily(t *testing.T) {
	t.Parallel()

	fixture := &fixturePortal{}
	client := newTestClient(t, fixture)

	body, err := client.Page(context.Background(), "Attendance/StudentPercentage")
	require.NoError(t, err)
	assert.Contains(t, string(body), "23XT51")
	assert.Equal(t, 1, fixture.logins)
}

func TestPageReauthenticatesOnceOnExpiry(t *testing.T) {
	t.Parallel()

	fixture := &fixturePortal{}
	client := newTestClient(t, fixture)
	ctx := context.Background()

	_, err := client.Page(ctx, "Attendance/StudentPercentage")
	require.NoError(t, err)
	require.Equal(t, 1, fixture.logins)

	// The portal dropped the session; the next fetch sees the login page,
	// re-authenticates exactly once and retries.
	fixture.expireSession()

	body, err := client.Page(ctx, "Attendance/StudentPercentage")
	require.NoError(t, err)
	assert.Contains(t, string(body), "23XT51")
	assert.Equal(t, 2, fixture.logins)
}

func TestPageMissingCSRFToken(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>maintenance</body></html>`))
	}))
	t.Cleanup(ts.Close)

	client, err := portal.New(config.PortalConfig{
		BaseURL:    ts.URL,
		RollNumber: "22pt01",
		Password:   "hunter2",
		Timeout:    time.Second,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	err = client.Login(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, portal.ErrPageStructure)
}
