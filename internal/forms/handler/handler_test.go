package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"sapid/internal/forms/handler/mocks"
	"sapid/internal/forms/models"
	"sapid/internal/forms/service"
	"sapid/internal/forms/validation"
	dErrors "sapid/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/forms-mocks.go -package=mocks Service

const formID = "3b0f6f5e-8c2e-4c8e-9d7c-7f1e2a9b4d10"

type FormsHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  chi.Router
}

func TestFormsHandlerSuite(t *testing.T) {
	suite.Run(t, new(FormsHandlerSuite))
}

func (s *FormsHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	s.router = chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)), nil).Register(s.router)
}

func (s *FormsHandlerSuite) do(method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, httptest.NewRequest(method, path, reader))
	var out map[string]any
	if w.Body.Len() > 0 {
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func idleContact() models.Snapshot {
	return models.Snapshot{
		ID:    formID,
		Kind:  models.KindContact,
		Phase: models.PhaseIdle,
		Fields: []models.FieldValue{
			{Name: "name", Value: validation.Text("")},
		},
		Errors: []validation.FieldError{},
	}
}

// =============================================================================
// Instances
// =============================================================================

func (s *FormsHandlerSuite) TestCreate() {
	s.service.EXPECT().Create(gomock.Any(), models.KindContact).Return(idleContact(), nil)

	w, body := s.do(http.MethodPost, "/api/forms/contact", "")

	s.Equal(http.StatusCreated, w.Code)
	s.Equal(formID, body["id"])
	s.Equal("idle", body["phase"])
}

func (s *FormsHandlerSuite) TestUnknownKind() {
	w, body := s.do(http.MethodPost, "/api/forms/newsletter", "")
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("not_found", body["error"])
}

func (s *FormsHandlerSuite) TestSchema() {
	w, body := s.do(http.MethodGet, "/api/forms/data-rights", "")
	s.Equal(http.StatusOK, w.Code)
	fields := body["fields"].([]any)
	s.Len(fields, 9)
	categories := fields[5].(map[string]any)
	s.Equal("dataCategories", categories["name"])
	s.Equal(true, categories["multi"])
	s.Equal([]any{}, categories["default"])
}

func (s *FormsHandlerSuite) TestGetAndDispose() {
	s.Run("get", func() {
		s.service.EXPECT().Get(gomock.Any(), models.KindContact, formID).Return(idleContact(), nil)
		w, body := s.do(http.MethodGet, "/api/forms/contact/"+formID, "")
		s.Equal(http.StatusOK, w.Code)
		s.Equal("contact", body["kind"])
	})

	s.Run("get missing", func() {
		s.service.EXPECT().Get(gomock.Any(), models.KindContact, "nope").
			Return(models.Snapshot{}, dErrors.New(dErrors.CodeNotFound, "form not found"))
		w, body := s.do(http.MethodGet, "/api/forms/contact/nope", "")
		s.Equal(http.StatusNotFound, w.Code)
		s.Equal("form not found", body["error_description"])
	})

	s.Run("dispose", func() {
		s.service.EXPECT().Dispose(gomock.Any(), models.KindContact, formID).Return(nil)
		w, _ := s.do(http.MethodDelete, "/api/forms/contact/"+formID, "")
		s.Equal(http.StatusNoContent, w.Code)
	})
}

// =============================================================================
// Editing
// =============================================================================

func (s *FormsHandlerSuite) TestSetField() {
	s.Run("text value", func() {
		s.service.EXPECT().SetField(gomock.Any(), models.KindContact, formID, "name", validation.Text("Ada")).
			Return(idleContact(), nil)
		w, _ := s.do(http.MethodPut, "/api/forms/contact/"+formID+"/fields/name", `{"value":"Ada"}`)
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("list value", func() {
		s.service.EXPECT().SetField(gomock.Any(), models.KindDataRights, formID, "dataCategories", validation.List("Analytics Data")).
			Return(models.Snapshot{ID: formID, Kind: models.KindDataRights}, nil)
		w, _ := s.do(http.MethodPut, "/api/forms/data-rights/"+formID+"/fields/dataCategories", `{"value":["Analytics Data"]}`)
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("missing value", func() {
		w, body := s.do(http.MethodPut, "/api/forms/contact/"+formID+"/fields/name", `{}`)
		s.Equal(http.StatusBadRequest, w.Code)
		s.Equal("bad_request", body["error"])
	})

	s.Run("unknown body field", func() {
		w, _ := s.do(http.MethodPut, "/api/forms/contact/"+formID+"/fields/name", `{"value":"a","extra":1}`)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("edit while submitting", func() {
		s.service.EXPECT().SetField(gomock.Any(), models.KindContact, formID, "name", gomock.Any()).
			Return(models.Snapshot{}, dErrors.New(dErrors.CodeConflict, "form is being submitted"))
		w, body := s.do(http.MethodPut, "/api/forms/contact/"+formID+"/fields/name", `{"value":"Eve"}`)
		s.Equal(http.StatusConflict, w.Code)
		s.Equal("conflict", body["error"])
	})
}

func (s *FormsHandlerSuite) TestToggleOption() {
	s.Run("trims the option", func() {
		s.service.EXPECT().ToggleOption(gomock.Any(), models.KindDataRights, formID, "dataCategories", "Survey Responses").
			Return(models.Snapshot{ID: formID, Kind: models.KindDataRights}, nil)
		w, _ := s.do(http.MethodPost, "/api/forms/data-rights/"+formID+"/fields/dataCategories/toggle", `{"option":" Survey Responses "}`)
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("empty option", func() {
		w, _ := s.do(http.MethodPost, "/api/forms/data-rights/"+formID+"/fields/dataCategories/toggle", `{"option":"  "}`)
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

// =============================================================================
// Validation and submission
// =============================================================================

func (s *FormsHandlerSuite) TestValidate() {
	s.service.EXPECT().Validate(gomock.Any(), models.KindContact, formID).Return(validation.Result{
		Errors: []validation.FieldError{{Field: "email", Message: "Email is required"}},
	}, nil)

	w, body := s.do(http.MethodPost, "/api/forms/contact/"+formID+"/validate", "")

	s.Equal(http.StatusOK, w.Code)
	s.Equal(false, body["valid"])
	errs := body["errors"].([]any)
	s.Equal("email", errs[0].(map[string]any)["field"])
}

func (s *FormsHandlerSuite) TestSubmit() {
	s.Run("accepted", func() {
		snap := idleContact()
		snap.Phase = models.PhaseSubmitting
		s.service.EXPECT().Submit(gomock.Any(), models.KindContact, formID).
			Return(service.SubmitOutcome{Result: validation.Result{Valid: true, Errors: []validation.FieldError{}}, Snapshot: snap}, nil)
		w, body := s.do(http.MethodPost, "/api/forms/contact/"+formID+"/submit", "")
		s.Equal(http.StatusAccepted, w.Code)
		s.Equal("submitting", body["phase"])
	})

	s.Run("invalid", func() {
		s.service.EXPECT().Submit(gomock.Any(), models.KindContact, formID).
			Return(service.SubmitOutcome{Result: validation.Result{
				Errors: []validation.FieldError{{Field: "email", Message: "Please enter a valid email address"}},
			}}, nil)
		w, body := s.do(http.MethodPost, "/api/forms/contact/"+formID+"/submit", "")
		s.Equal(http.StatusUnprocessableEntity, w.Code)
		s.Equal(false, body["valid"])
		s.Len(body["errors"], 1)
	})

	s.Run("already submitting", func() {
		s.service.EXPECT().Submit(gomock.Any(), models.KindContact, formID).
			Return(service.SubmitOutcome{}, dErrors.New(dErrors.CodeConflict, "a submission is already in progress"))
		w, _ := s.do(http.MethodPost, "/api/forms/contact/"+formID+"/submit", "")
		s.Equal(http.StatusConflict, w.Code)
	})
}
