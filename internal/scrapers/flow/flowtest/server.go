// Package flowtest runs an in-process imitation of the Flow login and report
// endpoints for tests.
package flowtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
)

const (
	Token         = "0a1b2c3d-4e5f-6789-abcd-ef0123456789"
	SessionCookie = "FLOWSESSID"
)

// Summary is the body returned for a given report year, a nil Summary answers
// with `{"progressContainer": {}}`.
type Summary struct {
	TotalDistance             float64
	TotalTrainingSessionCount int
}

type Options struct {
	Email    string
	Password string
	// LoginPage overrides the html served on GET /login.
	LoginPage string
	// Reports is keyed by the requested year.
	Reports map[int]*Summary
	// RawReport, if set, is returned verbatim by the report endpoint.
	RawReport string
}

// Query is the decoded body of a report request.
type Query struct {
	From          string   `json:"from"`
	To            string   `json:"to"`
	Sport         []string `json:"sport"`
	BarType       string   `json:"barType"`
	Group         string   `json:"group"`
	Report        string   `json:"report"`
	ReportSubtype string   `json:"reportSubtype"`
	TimeFrame     string   `json:"timeFrame"`
}

type Server struct {
	*httptest.Server
	opts Options

	mutex         sync.Mutex
	loginPageHits int
	loginPosts    int
	reportPosts   int
	queries       []Query
}

func NewServer(opts Options) *Server {
	if opts.LoginPage == "" {
		opts.LoginPage = fmt.Sprintf(
			`<html><body><form><input type="hidden" name="csrfToken" value="%s"/></form></body></html>`,
			Token,
		)
	}
	s := &Server{opts: opts}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /login", s.loginPage)
	mux.HandleFunc("POST /login", s.login)
	mux.HandleFunc("POST /progress/getReportAsJson", s.report)
	s.Server = httptest.NewServer(mux)
	return s
}

func (s *Server) loginPage(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	s.loginPageHits++
	s.mutex.Unlock()

	w.Header().Set("content-type", "text/html")
	w.Write([]byte(s.opts.LoginPage))
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	s.loginPosts++
	s.mutex.Unlock()

	err := r.ParseForm()
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if r.PostForm.Get("csrfToken") != Token {
		w.WriteHeader(http.StatusForbidden)
		return
	}
	if r.PostForm.Get("email") != s.opts.Email ||
		r.PostForm.Get("password") != s.opts.Password ||
		r.PostForm.Get("returnURL") != "/" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	http.SetCookie(w, &http.Cookie{Name: SessionCookie, Value: "authenticated", Path: "/"})
	w.WriteHeader(http.StatusOK)
}

func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	s.mutex.Lock()
	s.reportPosts++
	s.mutex.Unlock()

	cookie, err := r.Cookie(SessionCookie)
	if err != nil || cookie.Value != "authenticated" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if r.Header.Get("x-requested-with") != "XMLHttpRequest" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	var query Query
	err = json.NewDecoder(r.Body).Decode(&query)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	s.mutex.Lock()
	s.queries = append(s.queries, query)
	s.mutex.Unlock()

	w.Header().Set("content-type", "application/json")
	if s.opts.RawReport != "" {
		w.Write([]byte(s.opts.RawReport))
		return
	}

	var year int
	_, err = fmt.Sscanf(query.From, "01-01-%d", &year)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	summary := s.opts.Reports[year]
	if summary == nil {
		w.Write([]byte(`{"progressContainer": {}}`))
		return
	}
	fmt.Fprintf(
		w,
		`{"progressContainer": {"trainingReportSummary": {"totalDistance": %g, "totalTrainingSessionCount": %d}}}`,
		summary.TotalDistance,
		summary.TotalTrainingSessionCount,
	)
}

// LoginPageHits is the number of GET /login requests served.
func (s *Server) LoginPageHits() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.loginPageHits
}

// LoginPosts is the number of credential submissions received.
func (s *Server) LoginPosts() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.loginPosts
}

// Queries returns the report requests received, in order.
func (s *Server) Queries() []Query {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return append([]Query(nil), s.queries...)
}

// Requests is the total number of requests received by any endpoint.
func (s *Server) Requests() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.loginPageHits + s.loginPosts + s.reportPosts
}
