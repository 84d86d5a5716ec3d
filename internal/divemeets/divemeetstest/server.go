// Package divemeetstest serves a small fixed copy of the DiveMeets site for
// tests.
package divemeetstest

import (
	"embed"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"sync"
	"testing"
)

//go:embed testdata/*.html
var pages embed.FS

// SitePath is the path prefix the fake site is mounted under, mirroring the
// real site layout.
const SitePath = "/divemeets/system/"

// RosterPath is the roster reference relative to the base url.
const RosterPath = "profilet.php?number=2303"

// Request is a request received by the fake site.
type Request struct {
	Path    string
	Query   string
	Referer string
	Cookie  string
}

// Site is a running fake DiveMeets site with divers 101 and 102.
type Site struct {
	Server *httptest.Server

	mutex    sync.Mutex
	requests []Request
	failing  []int
	noSheets bool
	roster   string
	extra    map[string]string
}

// Option changes the behavior of a Site.
type Option func(s *Site)

// WithFailingProfiles makes the profile page of the given divers return 500.
func WithFailingProfiles(ids ...int) Option {
	return func(s *Site) {
		s.failing = append(s.failing, ids...)
	}
}

// WithFailingScoreSheets makes every score sheet request return 503.
func WithFailingScoreSheets() Option {
	return func(s *Site) {
		s.noSheets = true
	}
}

// WithRoster replaces the roster page with the given html.
func WithRoster(html string) Option {
	return func(s *Site) {
		s.roster = html
	}
}

// WithPage serves html under the given testdata file name in place of, or in
// addition to, the embedded pages. Score sheets are looked up as
// `scoresheet_<dvrid>_<eventnum>.html` before `scoresheet_<dvrid>.html`.
func WithPage(name, html string) Option {
	return func(s *Site) {
		if s.extra == nil {
			s.extra = map[string]string{}
		}
		s.extra[name] = html
	}
}

// NewSite starts a fake site that is closed when the test ends.
func NewSite(t testing.TB, opts ...Option) *Site {
	site := &Site{}
	for _, opt := range opts {
		opt(site)
	}

	mux := http.NewServeMux()
	mux.HandleFunc(SitePath+"profilet.php", site.handleRoster)
	mux.HandleFunc(SitePath+"profile.php", site.handleProfile)
	mux.HandleFunc(SitePath+"divesheetfinal.php", site.handleScoreSheet)
	site.Server = httptest.NewServer(site.record(mux))
	t.Cleanup(site.Server.Close)
	return site
}

// BaseURL is the url every relative page reference resolves against.
func (s *Site) BaseURL() string {
	return s.Server.URL + SitePath
}

// Requests returns a copy of every request received so far.
func (s *Site) Requests() []Request {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return slices.Clone(s.requests)
}

func (s *Site) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mutex.Lock()
		s.requests = append(s.requests, Request{
			Path:    r.URL.Path,
			Query:   r.URL.RawQuery,
			Referer: r.Header.Get("Referer"),
			Cookie:  r.Header.Get("Cookie"),
		})
		s.mutex.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Site) hasPage(name string) bool {
	if _, ok := s.extra[name]; ok {
		return true
	}
	_, err := fs.Stat(pages, "testdata/"+name)
	return err == nil
}

func (s *Site) writePage(w http.ResponseWriter, name string) {
	if html, ok := s.extra[name]; ok {
		w.Header().Set("content-type", "text/html; charset=utf-8")
		w.Write([]byte(html))
		return
	}
	contents, err := pages.ReadFile("testdata/" + name)
	if err != nil {
		http.NotFound(w, nil)
		return
	}
	w.Header().Set("content-type", "text/html; charset=utf-8")
	w.Write(contents)
}

func (s *Site) handleRoster(w http.ResponseWriter, r *http.Request) {
	if s.roster != "" {
		w.Header().Set("content-type", "text/html; charset=utf-8")
		w.Write([]byte(s.roster))
		return
	}
	s.writePage(w, "roster.html")
}

func (s *Site) handleProfile(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.URL.Query().Get("number"))
	if err != nil {
		http.Error(w, "bad diver number", http.StatusBadRequest)
		return
	}
	if slices.Contains(s.failing, id) {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	// every diver gets a session cookie, later requests must carry it back
	http.SetCookie(w, &http.Cookie{Name: "PHPSESSID", Value: fmt.Sprintf("diver-%d", id), Path: "/"})
	s.writePage(w, fmt.Sprintf("profile_%d.html", id))
}

func (s *Site) handleScoreSheet(w http.ResponseWriter, r *http.Request) {
	if s.noSheets {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	query := r.URL.Query()
	perEvent := fmt.Sprintf("scoresheet_%s_%s.html", query.Get("dvrid"), query.Get("eventnum"))
	if s.hasPage(perEvent) {
		s.writePage(w, perEvent)
		return
	}
	s.writePage(w, fmt.Sprintf("scoresheet_%s.html", query.Get("dvrid")))
}
