package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/motionrisk/internal/adapters/http/api"
	"github.com/okian/motionrisk/internal/adapters/repository"
	service "github.com/okian/motionrisk/internal/app"
	"github.com/okian/motionrisk/internal/domain/encoding"
	"github.com/okian/motionrisk/internal/domain/inference"
	"github.com/okian/motionrisk/internal/domain/model"
	"github.com/okian/motionrisk/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

// mockDependencies returns canned results and records what it was asked.
type mockDependencies struct {
	assessment model.Assessment
	err        error
	got        map[string]string
	stats      model.Stats
}

func (m *mockDependencies) Assess(_ context.Context, fields map[string]string) (model.Assessment, error) {
	m.got = fields
	return m.assessment, m.err
}

func (m *mockDependencies) Schema() model.Schema  { return model.CurrentSchema() }
func (m *mockDependencies) GetStats() model.Stats { return m.stats }

func newMux(deps api.Dependencies, opts ...api.Option) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, opts...).Register(context.Background(), mux)
	return mux
}

func do(mux http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

type errorBody struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

func decodeError(w *httptest.ResponseRecorder) errorBody {
	var body errorBody
	So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
	return body
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		deps := &mockDependencies{stats: model.Stats{Started: true, Assessed: 3}}
		mux := newMux(deps)

		Convey("Then health endpoint should expose metrics", func() {
			w := do(mux, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("Then stats endpoint should return the provider's stats", func() {
			w := do(mux, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var stats model.Stats
			So(json.Unmarshal(w.Body.Bytes(), &stats), ShouldBeNil)
			So(stats.Assessed, ShouldEqual, 3)
		})

		Convey("Then schema endpoint should list every field and feature", func() {
			w := do(mux, http.MethodGet, "/schema", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			var schema model.Schema
			So(json.Unmarshal(w.Body.Bytes(), &schema), ShouldBeNil)
			So(schema.Fields, ShouldHaveLength, 12)
			So(schema.Features, ShouldHaveLength, model.FeatureCount)
			So(schema.Features[13].Name, ShouldEqual, model.SlotFamilyHistoryPresent.Name())
		})

		Convey("Then wrong methods should not be routed", func() {
			So(do(mux, http.MethodGet, "/assess", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodPost, "/schema", "").Code, ShouldEqual, http.StatusNotFound)
			So(do(mux, http.MethodPost, "/stats", "").Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestAssessHandler(t *testing.T) {
	Convey("Given an assess endpoint", t, func() {
		at := time.Date(2024, 6, 1, 1, 30, 0, 0, time.UTC)
		deps := &mockDependencies{assessment: model.NewAssessment("id-1", model.VerdictAtRisk, model.FeatureVector{}, at)}
		mux := newMux(deps, api.WithMaxBodyBytes(512))

		Convey("When fields mix numbers and strings", func() {
			w := do(mux, http.MethodPost, "/assess", `{"fields":{"total_score":18.60,"pif":"1.2","drinking":2,"scl":null}}`)

			Convey("Then the literal text should be passed through", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.got["total_score"], ShouldEqual, "18.60")
				So(deps.got["pif"], ShouldEqual, "1.2")
				So(deps.got["drinking"], ShouldEqual, "2")
				So(deps.got["scl"], ShouldEqual, "")
			})

			Convey("And the assessment should be returned", func() {
				var body map[string]any
				So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
				So(body["id"], ShouldEqual, "id-1")
				So(body["verdict"], ShouldEqual, 1.0)
				So(body["label"], ShouldEqual, "at-risk")
				So(body["assessed_at"], ShouldEqual, "2024-06-01T01:30:00Z")
				So(body["features"], ShouldHaveLength, model.FeatureCount)
			})
		})

		Convey("When the body is not JSON", func() {
			w := do(mux, http.MethodPost, "/assess", `fields=1`)

			Convey("Then it should be a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w).Code, ShouldEqual, "bad_request")
				So(deps.got, ShouldBeNil)
			})
		})

		Convey("When the body has unknown top-level keys", func() {
			w := do(mux, http.MethodPost, "/assess", `{"fields":{},"extra":1}`)

			Convey("Then it should be a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w).Code, ShouldEqual, "bad_request")
			})
		})

		Convey("When the fields object is missing", func() {
			w := do(mux, http.MethodPost, "/assess", `{}`)

			Convey("Then it should be a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w).Message, ShouldContainSubstring, "missing fields")
			})
		})

		Convey("When two objects are sent", func() {
			w := do(mux, http.MethodPost, "/assess", `{"fields":{}} {"fields":{}}`)

			Convey("Then it should be a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the body is larger than allowed", func() {
			w := do(mux, http.MethodPost, "/assess", `{"fields":{"pif":"`+strings.Repeat("1", 1024)+`"}}`)

			Convey("Then it should be a bad request naming the limit", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w).Message, ShouldContainSubstring, "512 bytes")
			})
		})

		Convey("When the service rejects a field", func() {
			deps.err = &encoding.InvalidFieldError{Field: model.FieldMyopiaDegree, Value: "5", Kind: encoding.ErrOutOfDomain}
			w := do(mux, http.MethodPost, "/assess", `{"fields":{"myopia_degree":5}}`)

			Convey("Then the field should be named in a 400", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				body := decodeError(w)
				So(body.Code, ShouldEqual, "invalid_field")
				So(body.Field, ShouldEqual, model.FieldMyopiaDegree)
				So(body.Message, ShouldContainSubstring, "outside declared domain")
			})
		})

		Convey("When inference fails", func() {
			deps.err = &inference.InferenceError{Stage: inference.StageScale, Err: errors.New("dimension mismatch: got 14, want 13")}
			w := do(mux, http.MethodPost, "/assess", `{"fields":{}}`)

			Convey("Then a 500 should hide the cause", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				body := decodeError(w)
				So(body.Code, ShouldEqual, "inference_error")
				So(body.Message, ShouldNotContainSubstring, "dimension")
			})
		})

		Convey("When the service is not started", func() {
			deps.err = service.ErrNotStarted
			w := do(mux, http.MethodPost, "/assess", `{"fields":{}}`)

			Convey("Then it should be unavailable", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)
				So(decodeError(w).Code, ShouldEqual, "unavailable")
			})
		})

		Convey("When the service fails unexpectedly", func() {
			deps.err = errors.New("boom")
			w := do(mux, http.MethodPost, "/assess", `{"fields":{}}`)

			Convey("Then it should be an internal error without details", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				body := decodeError(w)
				So(body.Code, ShouldEqual, "internal_error")
				So(body.Message, ShouldNotContainSubstring, "boom")
			})
		})
	})
}

func TestAssessEndToEnd(t *testing.T) {
	Convey("Given the API over a service with loaded artifacts", t, func() {
		ctx := context.Background()
		store, err := repository.Load(ctx,
			"../../repository/testdata/scaler.yaml",
			"../../repository/testdata/classifier.yaml")
		So(err, ShouldBeNil)
		svc := service.New(service.WithArtifacts(store))
		So(svc.Start(ctx), ShouldBeNil)
		defer svc.Stop()
		mux := newMux(svc)

		Convey("When a complete at-risk form is posted", func() {
			w := do(mux, http.MethodPost, "/assess", `{"fields":{
				"total_score":18.6,"mean_skin_temp":30.5,"delta_a":1.78,"delta_b":0.89,
				"slow_gastric_rate":0,"pif":1.2,"penh":0.5,"scl":3.4,
				"drinking":2,"myopia_degree":4,"daytime_mood":2,"family_history":2}}`)

			Convey("Then the verdict should be at-risk", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				var a model.Assessment
				So(json.Unmarshal(w.Body.Bytes(), &a), ShouldBeNil)
				So(a.Verdict, ShouldEqual, model.VerdictAtRisk)
				So(a.Features, ShouldResemble, []float64{18.6, 30.5, 1.78, 0.89, 0, 1.2, 0.5, 3.4, 1, 0, 0, 1, 1, 1})
			})
		})

		Convey("When a field is missing", func() {
			w := do(mux, http.MethodPost, "/assess", `{"fields":{"total_score":18.6}}`)

			Convey("Then the response should name an invalid field", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				body := decodeError(w)
				So(body.Code, ShouldEqual, "invalid_field")
				So(body.Field, ShouldNotBeEmpty)
			})
		})

		Convey("When a boolean is sent for a number", func() {
			form := model.DefaultForm()
			payload := map[string]any{"fields": map[string]any{}}
			for k, v := range form {
				payload["fields"].(map[string]any)[k] = v
			}
			payload["fields"].(map[string]any)[model.FieldPenh] = true
			raw, _ := json.Marshal(payload)
			w := do(mux, http.MethodPost, "/assess", string(raw))

			Convey("Then the field should be rejected as not numeric", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w).Field, ShouldEqual, model.FieldPenh)
			})
		})
	})
}
