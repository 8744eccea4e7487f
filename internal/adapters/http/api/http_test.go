package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/okian/pscore/internal/adapters/http/api"
	"github.com/okian/pscore/internal/adapters/kvstore"
	service "github.com/okian/pscore/internal/app"
	"github.com/okian/pscore/internal/app/session"
	"github.com/okian/pscore/internal/domain/model"
	"github.com/okian/pscore/internal/domain/scoring"
	"github.com/okian/pscore/internal/domain/username"
	"github.com/okian/pscore/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

const report = `{"utilizationScore": 84, "percentileEstimates": "All users ~98th"}`

// flakyStore fails reads on demand.
type flakyStore struct {
	*kvstore.MemoryStore
	failGets atomic.Bool
}

func (s *flakyStore) Get(ctx context.Context, key string) (string, error) {
	if s.failGets.Load() {
		return "", errors.New("connection refused")
	}
	return s.MemoryStore.Get(ctx, key)
}

type testServer struct {
	*httptest.Server
	store *flakyStore
	svc   *service.Service
}

func newTestServer(gen scoring.Generator) *testServer {
	store := &flakyStore{MemoryStore: kvstore.NewMemoryStore()}
	svc := service.New(
		service.WithStore(store),
		service.WithGenerator(gen),
		service.WithLeaderboardDelay(0),
		service.WithLogger(logger.Nop()),
	)
	if err := svc.Start(context.Background()); err != nil {
		panic(err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(mux)
	return &testServer{Server: httptest.NewServer(mux), store: store, svc: svc}
}

func (s *testServer) close() {
	s.Server.Close()
	s.svc.Stop()
}

func (s *testServer) do(method, path string, body any) (*http.Response, []byte) {
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		r = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, s.URL+path, r)
	if err != nil {
		panic(err)
	}
	resp, err := s.Client().Do(req)
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()
	out, _ := io.ReadAll(resp.Body)
	return resp, out
}

func (s *testServer) createSession() string {
	_, body := s.do(http.MethodPost, "/sessions", nil)
	var created struct {
		SessionID string `json:"session_id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		panic(err)
	}
	return created.SessionID
}

func (s *testServer) state(id string) session.State {
	_, body := s.do(http.MethodGet, "/sessions/"+id, nil)
	var st session.State
	if err := json.Unmarshal(body, &st); err != nil {
		panic(err)
	}
	return st
}

func (s *testServer) waitForPhase(id string, phase session.Phase) session.State {
	deadline := time.Now().Add(2 * time.Second)
	for {
		st := s.state(id)
		if st.Phase == phase || time.Now().After(deadline) {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func decodeError(body []byte) map[string]string {
	var e map[string]string
	_ = json.Unmarshal(body, &e)
	return e
}

func staticGenerator(text string) scoring.Generator {
	return scoring.GeneratorFunc(func(context.Context, scoring.Request) (string, error) {
		return text, nil
	})
}

func TestSessionRoutes(t *testing.T) {
	Convey("Given the API with a responsive model", t, func() {
		srv := newTestServer(staticGenerator(report))
		defer srv.close()

		Convey("When a session is created", func() {
			resp, body := srv.do(http.MethodPost, "/sessions", nil)

			Convey("Then its id and idle state are returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusCreated)
				So(resp.Header.Get("Content-Type"), ShouldStartWith, "application/json")
				var created map[string]string
				So(json.Unmarshal(body, &created), ShouldBeNil)
				So(created["session_id"], ShouldHaveLength, 36)

				st := srv.state(created["session_id"])
				So(st.Phase, ShouldEqual, session.PhaseIdle)
				So(st.History, ShouldBeEmpty)
				So(st.EstimatedSeconds, ShouldEqual, session.DefaultEstimatedSeconds)
			})
		})

		Convey("When the session id is malformed", func() {
			resp, body := srv.do(http.MethodGet, "/sessions/nope", nil)

			Convey("Then it is not found", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
				So(decodeError(body)["code"], ShouldEqual, "session_not_found")
			})
		})

		Convey("When a stored session cannot be read yet", func() {
			const id = "6f1c2a3e-8b7d-4c5e-9a0b-1d2e3f4a5b6c"
			So(srv.store.Set(context.Background(), "session:"+id+":username", "switch"), ShouldBeNil)
			srv.store.failGets.Store(true)
			resp, body := srv.do(http.MethodGet, "/sessions/"+id, nil)
			srv.store.failGets.Store(false)

			Convey("Then it is unavailable and restores on the next request", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusServiceUnavailable)
				So(decodeError(body)["code"], ShouldEqual, "session_unavailable")
				So(srv.state(id).Username, ShouldEqual, "switch")
			})
		})

		Convey("Given a session", func() {
			id := srv.createSession()

			Convey("When an invalid username is typed", func() {
				resp, body := srv.do(http.MethodPut, "/sessions/"+id+"/username", map[string]string{"username": "ab"})

				Convey("Then it is kept with its message", func() {
					So(resp.StatusCode, ShouldEqual, http.StatusOK)
					var st session.State
					So(json.Unmarshal(body, &st), ShouldBeNil)
					So(st.Username, ShouldEqual, "ab")
					So(st.UsernameError, ShouldEqual, username.MsgTooShort)
				})
			})

			Convey("When the username body is missing", func() {
				resp, _ := srv.do(http.MethodPut, "/sessions/"+id+"/username", map[string]int{"name": 1})

				Convey("Then it is a bad request", func() {
					So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				})
			})

			Convey("When generating with an invalid username", func() {
				resp, body := srv.do(http.MethodPost, "/sessions/"+id+"/generate", map[string]string{"username": "bad name!"})

				Convey("Then it is rejected with the validation message", func() {
					So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
					e := decodeError(body)
					So(e["code"], ShouldEqual, "invalid_username")
					So(e["message"], ShouldEqual, username.MsgCharset)
					So(srv.state(id).Phase, ShouldEqual, session.PhaseIdle)
				})
			})

			Convey("When generating without a body or a stored name", func() {
				resp, body := srv.do(http.MethodPost, "/sessions/"+id+"/generate", nil)

				Convey("Then a username is required", func() {
					So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
					So(decodeError(body)["message"], ShouldEqual, username.MsgRequired)
				})
			})

			Convey("When a generation completes", func() {
				resp, _ := srv.do(http.MethodPost, "/sessions/"+id+"/generate", map[string]string{"username": "neo"})
				So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
				st := srv.waitForPhase(id, session.PhaseCompleted)

				Convey("Then the report is in the state", func() {
					So(st.History, ShouldHaveLength, 1)
					So(st.SelectedReport.ScoreData.UtilizationScore, ShouldEqual, 84)
					So(st.UserEntry.Username, ShouldEqual, "neo")
					So(st.UserEntry.RunHash, ShouldHaveLength, 40)
				})

				Convey("Then history selection is bounds checked", func() {
					resp, body := srv.do(http.MethodPut, "/sessions/"+id+"/selection", map[string]int{"index": 3})
					So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
					So(decodeError(body)["code"], ShouldEqual, "history_index")

					resp, _ = srv.do(http.MethodPut, "/sessions/"+id+"/selection", map[string]int{"index": 0})
					So(resp.StatusCode, ShouldEqual, http.StatusOK)

					resp, _ = srv.do(http.MethodPut, "/sessions/"+id+"/selection", map[string]string{})
					So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
				})

				Convey("Then a late cancel changes nothing", func() {
					resp, body := srv.do(http.MethodPost, "/sessions/"+id+"/cancel", nil)
					So(resp.StatusCode, ShouldEqual, http.StatusOK)
					var out struct {
						Cancelled bool          `json:"cancelled"`
						State     session.State `json:"state"`
					}
					So(json.Unmarshal(body, &out), ShouldBeNil)
					So(out.Cancelled, ShouldBeFalse)
					So(out.State.Phase, ShouldEqual, session.PhaseCompleted)
					So(out.State.History, ShouldHaveLength, 1)
				})

				Convey("Then a second generation can reuse the stored name", func() {
					resp, _ := srv.do(http.MethodPost, "/sessions/"+id+"/generate", nil)
					So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
					So(srv.waitForPhase(id, session.PhaseCompleted).History, ShouldHaveLength, 2)
				})
			})
		})
	})

	Convey("Given the API with a model that has not answered", t, func() {
		release := make(chan struct{})
		srv := newTestServer(scoring.GeneratorFunc(func(context.Context, scoring.Request) (string, error) {
			<-release
			return report, nil
		}))
		defer srv.close()
		id := srv.createSession()

		resp, body := srv.do(http.MethodPost, "/sessions/"+id+"/generate", map[string]string{"username": "trinity"})
		So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
		var st session.State
		So(json.Unmarshal(body, &st), ShouldBeNil)
		So(st.Generating, ShouldBeTrue)
		So(st.Countdown, ShouldEqual, session.DefaultEstimatedSeconds)

		Convey("When generating again", func() {
			resp, body := srv.do(http.MethodPost, "/sessions/"+id+"/generate", map[string]string{"username": "trinity"})
			close(release)

			Convey("Then it conflicts", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusConflict)
				So(decodeError(body)["code"], ShouldEqual, "generation_in_progress")
			})
		})

		Convey("When cancelled", func() {
			resp, body := srv.do(http.MethodPost, "/sessions/"+id+"/cancel", nil)
			close(release)

			Convey("Then the banner shows and the late result is dropped", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var out struct {
					Cancelled bool          `json:"cancelled"`
					State     session.State `json:"state"`
				}
				So(json.Unmarshal(body, &out), ShouldBeNil)
				So(out.Cancelled, ShouldBeTrue)
				So(out.State.Error, ShouldEqual, session.MsgCancelled)

				time.Sleep(20 * time.Millisecond)
				after := srv.state(id)
				So(after.Phase, ShouldEqual, session.PhaseCancelled)
				So(after.History, ShouldBeEmpty)
			})

			Convey("Then the banner can be dismissed", func() {
				resp, body := srv.do(http.MethodDelete, "/sessions/"+id+"/error", nil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var st session.State
				So(json.Unmarshal(body, &st), ShouldBeNil)
				So(st.Error, ShouldBeEmpty)
			})
		})
	})
}

func TestLeaderboardRoutes(t *testing.T) {
	Convey("Given a session with a completed report", t, func() {
		srv := newTestServer(staticGenerator(report))
		defer srv.close()
		id := srv.createSession()
		srv.do(http.MethodPost, "/sessions/"+id+"/generate", map[string]string{"username": "neo"})
		st := srv.waitForPhase(id, session.PhaseCompleted)
		So(st.UserEntry, ShouldNotBeNil)

		Convey("When reading the boards before posting", func() {
			get, body := srv.do(http.MethodGet, "/sessions/"+id+"/leaderboards", nil)
			refresh, _ := srv.do(http.MethodPost, "/sessions/"+id+"/leaderboards/refresh", nil)

			Convey("Then they are hidden", func() {
				So(get.StatusCode, ShouldEqual, http.StatusForbidden)
				So(decodeError(body)["code"], ShouldEqual, "not_posted")
				So(refresh.StatusCode, ShouldEqual, http.StatusForbidden)
			})
		})

		Convey("When posting unverified", func() {
			resp, body := srv.do(http.MethodPost, "/sessions/"+id+"/post", nil)
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var out struct {
				Posted bool          `json:"posted"`
				State  session.State `json:"state"`
			}
			So(json.Unmarshal(body, &out), ShouldBeNil)

			Convey("Then the entry is on the unverified board", func() {
				So(out.Posted, ShouldBeTrue)
				So(out.State.HasPosted, ShouldBeTrue)

				resp, body := srv.do(http.MethodGet, "/sessions/"+id+"/leaderboards", nil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var boards model.Leaderboards
				So(json.Unmarshal(body, &boards), ShouldBeNil)
				So(boards.Unverified, ShouldHaveLength, 1)
				So(boards.Unverified[0].Username, ShouldEqual, "neo")
				So(boards.Verified, ShouldBeEmpty)
			})

			Convey("Then posting again reports nothing new", func() {
				_, body := srv.do(http.MethodPost, "/sessions/"+id+"/post", nil)
				var again struct {
					Posted bool `json:"posted"`
				}
				So(json.Unmarshal(body, &again), ShouldBeNil)
				So(again.Posted, ShouldBeFalse)
			})

			Convey("Then verifying moves it to the verified board", func() {
				resp, _ := srv.do(http.MethodPost, "/sessions/"+id+"/verify", nil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)

				resp, body := srv.do(http.MethodPost, "/sessions/"+id+"/leaderboards/refresh", nil)
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var boards model.Leaderboards
				So(json.Unmarshal(body, &boards), ShouldBeNil)
				So(boards.Verified, ShouldHaveLength, 1)
				So(boards.Verified[0].IsVerified, ShouldBeTrue)
				So(boards.Unverified, ShouldBeEmpty)
			})

			Convey("Then a failed refresh keeps the boards and sets the banner", func() {
				srv.store.failGets.Store(true)
				resp, body := srv.do(http.MethodPost, "/sessions/"+id+"/leaderboards/refresh", nil)
				srv.store.failGets.Store(false)

				So(resp.StatusCode, ShouldEqual, http.StatusBadGateway)
				e := decodeError(body)
				So(e["code"], ShouldEqual, "leaderboard_unavailable")
				So(e["message"], ShouldEqual, session.MsgLeaderboardLoad)

				st := srv.state(id)
				So(st.Error, ShouldEqual, session.MsgLeaderboardLoad)
				So(st.Leaderboards.Unverified, ShouldHaveLength, 1)
			})
		})
	})
}

func TestOperationalRoutes(t *testing.T) {
	Convey("Given the API", t, func() {
		srv := newTestServer(staticGenerator(report))
		defer srv.close()
		srv.createSession()

		Convey("When reading stats", func() {
			resp, body := srv.do(http.MethodGet, "/stats", nil)

			Convey("Then service statistics are returned", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				var stats map[string]any
				So(json.Unmarshal(body, &stats), ShouldBeNil)
				So(stats["started"], ShouldEqual, true)
				So(stats["sessions"], ShouldEqual, float64(1))
			})
		})

		Convey("When reading health", func() {
			resp, body := srv.do(http.MethodGet, "/healthz", nil)

			Convey("Then the metrics exposition is served", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusOK)
				So(string(body), ShouldContainSubstring, "pscore_")
			})
		})

		Convey("When using the wrong method", func() {
			resp, _ := srv.do(http.MethodDelete, "/sessions", nil)

			Convey("Then the mux refuses it", func() {
				So(resp.StatusCode, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}
