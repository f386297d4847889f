package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/okian/bainoculars/internal/adapters/http/api"
	"github.com/okian/bainoculars/internal/adapters/mq/queue"
	"github.com/okian/bainoculars/internal/adapters/repository"
	"github.com/okian/bainoculars/internal/domain/kiosk"
	"github.com/okian/bainoculars/internal/domain/model"
	"github.com/okian/bainoculars/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	logger.Init()
}

type mockDependencies struct {
	mu        sync.Mutex
	submitted []model.Command
	submitErr error
	state     kiosk.State
	stateErr  error
	topN      []repository.Entry
	topNErr   error
	stats     map[string]interface{}
}

func (m *mockDependencies) Submit(_ context.Context, c model.Command) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.submitErr != nil {
		return m.submitErr
	}
	m.submitted = append(m.submitted, c)
	return nil
}

func (m *mockDependencies) State(context.Context) (kiosk.State, error) {
	return m.state, m.stateErr
}

func (m *mockDependencies) TopN(_ context.Context, n int) ([]repository.Entry, error) {
	if m.topNErr != nil {
		return nil, m.topNErr
	}
	if n > len(m.topN) {
		return m.topN, nil
	}
	return m.topN[:n], nil
}

func (m *mockDependencies) GetStats() map[string]interface{} {
	return m.stats
}

func (m *mockDependencies) commands() []model.Command {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Command(nil), m.submitted...)
}

func do(h http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestCommandRoutes(t *testing.T) {
	Convey("Given a router over a command sink", t, func() {
		deps := &mockDependencies{}
		router := api.NewServer(deps, 10).Router()

		Convey("When explore is requested", func() {
			w := do(router, http.MethodPost, "/mode/explore")

			Convey("Then an enter command should be queued", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(deps.commands(), ShouldResemble, []model.Command{{Kind: model.CommandEnter, Mode: model.ModeExplore}})

				var ack map[string]string
				So(json.NewDecoder(w.Body).Decode(&ack), ShouldBeNil)
				So(ack["mode"], ShouldEqual, "explore")
			})
		})

		Convey("When arcade is requested in upper case", func() {
			w := do(router, http.MethodPost, "/mode/ARCADE")

			Convey("Then it should be accepted", func() {
				So(w.Code, ShouldEqual, http.StatusAccepted)
				So(deps.commands()[0].Mode, ShouldEqual, model.ModeArcade)
			})
		})

		Convey("When the menu or an unknown mode is requested", func() {
			menu := do(router, http.MethodPost, "/mode/menu")
			bogus := do(router, http.MethodPost, "/mode/ballroom")

			Convey("Then both should be rejected without queueing", func() {
				So(menu.Code, ShouldEqual, http.StatusBadRequest)
				So(bogus.Code, ShouldEqual, http.StatusBadRequest)
				So(deps.commands(), ShouldBeEmpty)
			})
		})

		Convey("When back, capture and quit are posted", func() {
			So(do(router, http.MethodPost, "/back").Code, ShouldEqual, http.StatusAccepted)
			So(do(router, http.MethodPost, "/capture").Code, ShouldEqual, http.StatusAccepted)
			So(do(router, http.MethodPost, "/quit").Code, ShouldEqual, http.StatusAccepted)

			Convey("Then they should be queued in order", func() {
				cmds := deps.commands()
				So(len(cmds), ShouldEqual, 3)
				So(cmds[0].Kind, ShouldEqual, model.CommandBack)
				So(cmds[1].Kind, ShouldEqual, model.CommandCapture)
				So(cmds[2].Kind, ShouldEqual, model.CommandQuit)
			})
		})

		Convey("When a command route is hit with GET", func() {
			w := do(router, http.MethodGet, "/capture")

			Convey("Then it should not be allowed", func() {
				So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})

		Convey("When the queue is full", func() {
			deps.submitErr = fmt.Errorf("enqueue: %w", queue.ErrFull)
			w := do(router, http.MethodPost, "/capture")

			Convey("Then it should answer 429", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(w.Body.String(), ShouldContainSubstring, "backpressure")
			})
		})

		Convey("When the queue is closed", func() {
			deps.submitErr = queue.ErrClosed
			w := do(router, http.MethodPost, "/back")

			Convey("Then it should answer 503", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})
	})
}

func TestStateRoute(t *testing.T) {
	Convey("Given a kiosk in an arcade round", t, func() {
		deps := &mockDependencies{state: kiosk.State{
			Mode:  model.ModeArcade,
			Phase: kiosk.PhaseLive,
			Arcade: &kiosk.ArcadeState{
				SessionID: "round-1",
				Remaining: 42,
				Score:     2,
				Seen:      []string{"Blue Jay", "Robin"},
				Running:   true,
			},
		}}
		router := api.NewServer(deps, 10).Router()

		Convey("When the state is read", func() {
			w := do(router, http.MethodGet, "/state")

			Convey("Then modes and phases should be rendered as names", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				body := w.Body.String()
				So(body, ShouldContainSubstring, `"mode":"arcade"`)
				So(body, ShouldContainSubstring, `"phase":"live"`)
				So(body, ShouldContainSubstring, `"remaining_s":42`)
			})
		})

		Convey("When the loop cannot answer", func() {
			deps.stateErr = context.DeadlineExceeded
			w := do(router, http.MethodGet, "/state")

			Convey("Then it should answer 503", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
			})
		})
	})
}

func TestLeaderboardHandler_HandleGetLeaderboard(t *testing.T) {
	Convey("Given a leaderboard handler", t, func() {
		deps := &mockDependencies{
			topN: []repository.Entry{
				{Rank: 1, SessionID: "s-1", Score: 7},
				{Rank: 2, SessionID: "s-2", Score: 5},
				{Rank: 3, SessionID: "s-3", Score: 1},
			},
		}
		handler := api.NewLeaderboardHandler(deps, 10)

		Convey("When requesting top N entries", func() {
			w := httptest.NewRecorder()
			handler.HandleGetLeaderboard(w, httptest.NewRequest(http.MethodGet, "/leaderboard?limit=2", nil))

			Convey("Then it should return the top N entries", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var response []repository.Entry
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(len(response), ShouldEqual, 2)
				So(response[0].SessionID, ShouldEqual, "s-1")
				So(response[1].SessionID, ShouldEqual, "s-2")
			})
		})

		Convey("When no limit is specified", func() {
			w := httptest.NewRecorder()
			handler.HandleGetLeaderboard(w, httptest.NewRequest(http.MethodGet, "/leaderboard", nil))

			Convey("Then the whole table should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var response []repository.Entry
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(len(response), ShouldEqual, 3)
			})
		})

		Convey("When the limit is invalid or too large", func() {
			bad := httptest.NewRecorder()
			handler.HandleGetLeaderboard(bad, httptest.NewRequest(http.MethodGet, "/leaderboard?limit=zero", nil))
			big := httptest.NewRecorder()
			handler.HandleGetLeaderboard(big, httptest.NewRequest(http.MethodGet, "/leaderboard?limit=11", nil))

			Convey("Then it should return 400 Bad Request", func() {
				So(bad.Code, ShouldEqual, http.StatusBadRequest)
				So(big.Code, ShouldEqual, http.StatusBadRequest)
				So(big.Body.String(), ShouldContainSubstring, "limit_exceeded")
			})
		})

		Convey("When the table returns an error", func() {
			deps.topNErr = fmt.Errorf("table error")
			w := httptest.NewRecorder()
			handler.HandleGetLeaderboard(w, httptest.NewRequest(http.MethodGet, "/leaderboard?limit=2", nil))

			Convey("Then it should return internal server error", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})
	})
}

func TestHealthAndStats(t *testing.T) {
	Convey("Given a router", t, func() {
		deps := &mockDependencies{stats: map[string]interface{}{"frames_acquired": 12}}
		router := api.NewServer(deps, 10).Router()

		Convey("Then /healthz should report ok", func() {
			w := do(router, http.MethodGet, "/healthz")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"ok"`)
		})

		Convey("Then /stats should render the provider map", func() {
			w := do(router, http.MethodGet, "/stats")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"frames_acquired":12`)
		})

		Convey("Then /metrics should expose the kiosk registry", func() {
			_ = do(router, http.MethodGet, "/healthz")
			w := do(router, http.MethodGet, "/metrics")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "bainoculars_")
		})
	})
}

func TestMounts(t *testing.T) {
	Convey("Given a router with a stream and a mounted page", t, func() {
		stream := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, ok := w.(http.Flusher)
			w.Header().Set("X-Flusher", fmt.Sprint(ok))
			_, _ = w.Write([]byte("stream"))
		})
		snapshot := func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("jpeg")) }
		page := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("page")) })

		router := api.NewServer(&mockDependencies{}, 10,
			api.WithStream(stream, snapshot),
			api.WithRoutes(func(r chi.Router) { r.Handle("/", page) }),
		).Router()

		Convey("Then the stream should be reachable and flushable", func() {
			w := do(router, http.MethodGet, "/stream")
			So(w.Body.String(), ShouldEqual, "stream")
			So(w.Header().Get("X-Flusher"), ShouldEqual, "true")
		})

		Convey("Then the snapshot and the page should be served", func() {
			So(do(router, http.MethodGet, "/snapshot.jpg").Body.String(), ShouldEqual, "jpeg")
			So(strings.TrimSpace(do(router, http.MethodGet, "/").Body.String()), ShouldEqual, "page")
		})
	})
}
