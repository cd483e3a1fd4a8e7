package admin

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks TokenIssuer,TokenRevoker,AuditReader,AuditPublisher

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"reliefledger/internal/actortoken"
	"reliefledger/internal/admin/mocks"
	"reliefledger/internal/ledger"
	audit "reliefledger/pkg/platform/audit"
	"reliefledger/pkg/testutil"
)

const adminSecret = "admin-secret"

type AdminHandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	issuer  *mocks.MockTokenIssuer
	revoker *mocks.MockTokenRevoker
	auditor *mocks.MockAuditPublisher
	reader  *mocks.MockAuditReader
	router  http.Handler
}

func TestAdminHandlerSuite(t *testing.T) {
	suite.Run(t, new(AdminHandlerSuite))
}

func (s *AdminHandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.issuer = mocks.NewMockTokenIssuer(s.ctrl)
	s.revoker = mocks.NewMockTokenRevoker(s.ctrl)
	s.auditor = mocks.NewMockAuditPublisher(s.ctrl)
	s.reader = mocks.NewMockAuditReader(s.ctrl)

	h := New(s.issuer, s.revoker, adminSecret, time.Hour,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		WithAuditPublisher(s.auditor),
		WithAuditReader(s.reader),
		WithMaxTTL(24*time.Hour),
	)
	r := chi.NewRouter()
	h.Register(r)
	s.router = r
}

func (s *AdminHandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *AdminHandlerSuite) do(path string, body any, secret string) *http.Response {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, path, body)
	if secret != "" {
		req.Header.Set("X-Admin-Token", secret)
	}
	return testutil.DoRequest(s.router, req).Result()
}

func (s *AdminHandlerSuite) TestIssueToken() {
	s.Run("issues with default ttl and audits", func() {
		expires := time.Date(2025, 1, 1, 13, 0, 0, 0, time.UTC)
		s.issuer.EXPECT().
			Issue(ledger.Actor("ST1"), time.Hour).
			Return(actortoken.Issued{Token: "tok", JTI: "jti-1", Actor: "ST1", ExpiresAt: expires}, nil)
		s.auditor.EXPECT().
			Emit(gomock.Any(), gomock.Cond(func(e audit.Event) bool {
				return e.Action == string(audit.EventTokenIssued) && e.Owner == "ST1" && e.Reason == "jti=jti-1"
			})).
			Return(nil)

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/tokens", IssueTokenRequest{Actor: "ST1"})
		req.Header.Set("X-Admin-Token", adminSecret)
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		resp := testutil.UnmarshalResponse[IssueTokenResponse](s.T(), rr)
		s.Equal("tok", resp.Token)
		s.Equal("jti-1", resp.JTI)
		s.True(resp.ExpiresAt.Equal(expires))
	})

	s.Run("custom ttl", func() {
		s.issuer.EXPECT().Issue(ledger.Actor("ST2"), 15*time.Minute).Return(actortoken.Issued{JTI: "jti-2"}, nil)
		s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		resp := s.do("/admin/tokens", IssueTokenRequest{Actor: "ST2", TTL: "15m"}, adminSecret)
		s.Equal(http.StatusCreated, resp.StatusCode)
	})

	s.Run("rejects ttl above maximum", func() {
		resp := s.do("/admin/tokens", IssueTokenRequest{Actor: "ST2", TTL: "48h"}, adminSecret)
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})

	s.Run("rejects malformed ttl", func() {
		resp := s.do("/admin/tokens", IssueTokenRequest{Actor: "ST2", TTL: "soon"}, adminSecret)
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})

	s.Run("requires actor", func() {
		resp := s.do("/admin/tokens", IssueTokenRequest{Actor: "  "}, adminSecret)
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})

	s.Run("requires admin token", func() {
		resp := s.do("/admin/tokens", IssueTokenRequest{Actor: "ST1"}, "wrong")
		s.Equal(http.StatusUnauthorized, resp.StatusCode)
	})
}

func (s *AdminHandlerSuite) TestRevokeToken() {
	s.Run("revokes for the maximum ttl", func() {
		s.revoker.EXPECT().RevokeToken(gomock.Any(), "jti-1", 24*time.Hour).Return(nil)
		s.auditor.EXPECT().
			Emit(gomock.Any(), gomock.Cond(func(e audit.Event) bool {
				return e.Action == string(audit.EventTokenRevoked)
			})).
			Return(nil)

		resp := s.do("/admin/tokens/revoke", RevokeTokenRequest{JTI: "jti-1"}, adminSecret)
		s.Equal(http.StatusNoContent, resp.StatusCode)
	})

	s.Run("store failure is internal", func() {
		s.revoker.EXPECT().RevokeToken(gomock.Any(), "jti-2", gomock.Any()).Return(errors.New("redis down"))

		rr := testutil.DoRequest(s.router, func() *http.Request {
			req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/tokens/revoke", RevokeTokenRequest{JTI: "jti-2"})
			req.Header.Set("X-Admin-Token", adminSecret)
			return req
		}())
		testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, "internal_error")
	})

	s.Run("batch revokes every distinct jti in one call", func() {
		s.revoker.EXPECT().
			RevokeTokens(gomock.Any(), []string{"jti-3", "jti-4", "jti-5"}, 24*time.Hour).
			Return(nil)
		s.auditor.EXPECT().
			Emit(gomock.Any(), gomock.Cond(func(e audit.Event) bool {
				return e.Action == string(audit.EventTokenRevoked)
			})).
			Return(nil).
			Times(3)

		resp := s.do("/admin/tokens/revoke", RevokeTokenRequest{
			JTI:  "jti-3",
			JTIs: []string{"jti-4", " jti-3 ", "", "jti-5"},
		}, adminSecret)
		s.Equal(http.StatusNoContent, resp.StatusCode)
	})

	s.Run("single entry in jtis uses the single revoke", func() {
		s.revoker.EXPECT().RevokeToken(gomock.Any(), "jti-6", 24*time.Hour).Return(nil)
		s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		resp := s.do("/admin/tokens/revoke", RevokeTokenRequest{JTIs: []string{"jti-6"}}, adminSecret)
		s.Equal(http.StatusNoContent, resp.StatusCode)
	})

	s.Run("batch store failure is internal", func() {
		s.revoker.EXPECT().RevokeTokens(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("db down"))

		resp := s.do("/admin/tokens/revoke", RevokeTokenRequest{JTIs: []string{"a", "b"}}, adminSecret)
		s.Equal(http.StatusInternalServerError, resp.StatusCode)
	})

	s.Run("requires jti", func() {
		resp := s.do("/admin/tokens/revoke", RevokeTokenRequest{}, adminSecret)
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})

	s.Run("blank jtis are rejected", func() {
		resp := s.do("/admin/tokens/revoke", RevokeTokenRequest{JTIs: []string{" ", ""}}, adminSecret)
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})
}

func (s *AdminHandlerSuite) get(path, secret string) *httptest.ResponseRecorder {
	req := testutil.NewRequest(s.T(), http.MethodGet, path)
	if secret != "" {
		req.Header.Set("X-Admin-Token", secret)
	}
	return testutil.DoRequest(s.router, req)
}

func (s *AdminHandlerSuite) TestListAudit() {
	s.Run("lists events for every requested actor", func() {
		id := uuid.New()
		at := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
		s.reader.EXPECT().
			ListByActors(gomock.Any(), []string{"ST1", "ST2"}).
			Return([]audit.Event{{
				ID:        id,
				Category:  audit.CategoryCompliance,
				Timestamp: at,
				Registry:  "equipment",
				RecordID:  1,
				Actor:     "ST1",
				Owner:     "ST1",
				Action:    string(audit.EventRecordCreated),
				Status:    "available",
			}}, nil)

		rr := s.get("/admin/audit?actor=ST1&actor=ST2&actor=ST1", adminSecret)

		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[AuditEventsResponse](s.T(), rr)
		s.Require().Len(resp.Events, 1)
		s.Equal(id.String(), resp.Events[0].ID)
		s.Equal("compliance", resp.Events[0].Category)
		s.Equal(uint64(1), resp.Events[0].RecordID)
		s.Equal("record_created", resp.Events[0].Action)
		s.True(resp.Events[0].Timestamp.Equal(at))
	})

	s.Run("empty trail is an empty list", func() {
		s.reader.EXPECT().ListByActors(gomock.Any(), []string{"ST9"}).Return(nil, nil)

		rr := s.get("/admin/audit?actor=ST9", adminSecret)

		testutil.AssertStatusOK(s.T(), rr)
		s.JSONEq(`{"events":[]}`, rr.Body.String())
	})

	s.Run("requires an actor", func() {
		rr := s.get("/admin/audit?actor=%20", adminSecret)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, "validation_error")
	})

	s.Run("reader failure is internal", func() {
		s.reader.EXPECT().ListByActors(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

		rr := s.get("/admin/audit?actor=ST1", adminSecret)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, "internal_error")
	})

	s.Run("requires admin token", func() {
		rr := s.get("/admin/audit?actor=ST1", "")
		s.Equal(http.StatusUnauthorized, rr.Code)
	})
}

func TestAuditRouteRequiresReader(t *testing.T) {
	h := New(nil, nil, adminSecret, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.Register(r)

	req := testutil.NewRequest(t, http.MethodGet, "/admin/audit?actor=ST1")
	req.Header.Set("X-Admin-Token", adminSecret)
	rr := testutil.DoRequest(r, req)

	testutil.AssertStatus(t, rr, http.StatusNotFound)
}
