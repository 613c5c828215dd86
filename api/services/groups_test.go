package services

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cham-tech/SmartSave/api/middleware"
	"github.com/cham-tech/SmartSave/internal/authn"
	"github.com/cham-tech/SmartSave/models"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func newGroupRequest(t *testing.T, req models.GroupRequest) *http.Request {
	body, err := json.Marshal(req)
	assert.NoError(t, err)

	r := httptest.NewRequest(http.MethodPost, "/api/v1/groups", bytes.NewReader(body))
	ctx := context.WithValue(r.Context(), middleware.ClaimsKey, authn.Claims{Username: "alice"})
	return r.WithContext(ctx)
}

func TestCreateGroupService(t *testing.T) {
	mockDB := new(MockCircleDB)
	svc := newTestService(mockDB, new(MockGateway), new(MockNotifier))

	user := &models.User{ID: uuid.New(), Username: "alice"}
	created := &models.Group{ID: uuid.New(), Name: "Boda Traders", AmountPerCycle: 10000,
		CycleFrequency: models.FrequencyWeekly, CreatedBy: user.ID}

	mockDB.On("EnsureUser", mock.Anything).Return(user, nil)
	mockDB.On("CreateGroup", mock.Anything, user.ID).Return(created, nil)

	w := httptest.NewRecorder()
	CreateGroupService(svc, w, newGroupRequest(t, models.GroupRequest{
		Name: "Boda Traders", AmountPerCycle: 10000, CycleFrequency: models.FrequencyWeekly,
	}))

	res := w.Result()
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Contains(t, res.Header.Get("Location"), created.ID.String())

	mockDB.AssertExpectations(t)
}

func TestCreateGroupServiceValidation(t *testing.T) {
	cases := []struct {
		name string
		req  models.GroupRequest
	}{
		{"empty name", models.GroupRequest{AmountPerCycle: 10000, CycleFrequency: models.FrequencyWeekly}},
		{"zero amount", models.GroupRequest{Name: "x", CycleFrequency: models.FrequencyWeekly}},
		{"negative amount", models.GroupRequest{Name: "x", AmountPerCycle: -5, CycleFrequency: models.FrequencyWeekly}},
		{"bad frequency", models.GroupRequest{Name: "x", AmountPerCycle: 10000, CycleFrequency: "yearly"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mockDB := new(MockCircleDB)
			svc := newTestService(mockDB, new(MockGateway), new(MockNotifier))

			w := httptest.NewRecorder()
			CreateGroupService(svc, w, newGroupRequest(t, tc.req))

			res := w.Result()
			assert.Equal(t, http.StatusBadRequest, res.StatusCode)

			body, _ := io.ReadAll(res.Body)
			var response models.Response
			assert.NoError(t, json.Unmarshal(body, &response))
			assert.Equal(t, "validation_failed", response.ErrorCode)

			mockDB.AssertNotCalled(t, "CreateGroup", mock.Anything, mock.Anything)
		})
	}
}

func TestGetGroupsServiceMine(t *testing.T) {
	mockDB := new(MockCircleDB)
	svc := newTestService(mockDB, new(MockGateway), new(MockNotifier))

	user := &models.User{ID: uuid.New(), Username: "alice"}
	mockDB.On("EnsureUser", mock.Anything).Return(user, nil)
	mockDB.On("GetUserGroups", user.ID).Return([]models.Group{{ID: uuid.New(), Name: "Boda Traders"}}, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/groups?mine=true", nil)
	ctx := context.WithValue(r.Context(), middleware.ClaimsKey, authn.Claims{Username: "alice"})
	w := httptest.NewRecorder()

	GetGroupsService(svc, w, r.WithContext(ctx))

	assert.Equal(t, http.StatusOK, w.Result().StatusCode)
	mockDB.AssertCalled(t, "GetUserGroups", user.ID)
	mockDB.AssertNotCalled(t, "GetGroups")
}

func TestGetGroupsServiceAll(t *testing.T) {
	mockDB := new(MockCircleDB)
	svc := newTestService(mockDB, new(MockGateway), new(MockNotifier))

	mockDB.On("GetGroups").Return([]models.Group{}, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/groups", nil)
	ctx := context.WithValue(r.Context(), middleware.ClaimsKey, authn.Claims{Username: "alice"})
	w := httptest.NewRecorder()

	GetGroupsService(svc, w, r.WithContext(ctx))

	assert.Equal(t, http.StatusOK, w.Result().StatusCode)
	mockDB.AssertNotCalled(t, "GetUserGroups", mock.Anything)
}

func TestJoinGroupServiceAlreadyMember(t *testing.T) {
	mockDB := new(MockCircleDB)
	svc := newTestService(mockDB, new(MockGateway), new(MockNotifier))

	group := &models.Group{ID: uuid.New(), Name: "Boda Traders", AmountPerCycle: 10000}
	user := &models.User{ID: uuid.New(), Username: "alice"}

	mockDB.On("GetGroup", group.ID).Return(group, nil)
	mockDB.On("EnsureUser", mock.Anything).Return(user, nil)
	mockDB.On("JoinGroup", group.ID, user.ID).Return(nil, models.ErrAlreadyMember)

	r := httptest.NewRequest(http.MethodPost, "/api/v1/groups/"+group.ID.String()+"/members", nil)
	r = mux.SetURLVars(r, map[string]string{"group-id": group.ID.String()})
	ctx := context.WithValue(r.Context(), middleware.ClaimsKey, authn.Claims{Username: "alice"})
	w := httptest.NewRecorder()

	JoinGroupService(svc, w, r.WithContext(ctx))

	res := w.Result()
	assert.Equal(t, http.StatusConflict, res.StatusCode)

	body, _ := io.ReadAll(res.Body)
	var response models.Response
	assert.NoError(t, json.Unmarshal(body, &response))
	assert.Equal(t, "already_member", response.ErrorCode)
}

func TestJoinGroupServiceSuccess(t *testing.T) {
	mockDB := new(MockCircleDB)
	mockNotifier := new(MockNotifier)
	svc := newTestService(mockDB, new(MockGateway), mockNotifier)

	group := &models.Group{ID: uuid.New(), Name: "Boda Traders", AmountPerCycle: 10000}
	user := &models.User{ID: uuid.New(), Username: "alice"}
	membership := &models.Membership{ID: uuid.New(), GroupID: group.ID, UserID: user.ID, IsActive: true}

	mockDB.On("GetGroup", group.ID).Return(group, nil)
	mockDB.On("EnsureUser", mock.Anything).Return(user, nil)
	mockDB.On("JoinGroup", group.ID, user.ID).Return(membership, nil)
	mockDB.On("CreateNotification", user.ID, "Savings Circle Update", mock.Anything).Return(nil)
	mockNotifier.On("Publish", mock.Anything).Return(nil)

	r := httptest.NewRequest(http.MethodPost, "/api/v1/groups/"+group.ID.String()+"/members", nil)
	r = mux.SetURLVars(r, map[string]string{"group-id": group.ID.String()})
	ctx := context.WithValue(r.Context(), middleware.ClaimsKey, authn.Claims{Username: "alice"})
	w := httptest.NewRecorder()

	JoinGroupService(svc, w, r.WithContext(ctx))

	assert.Equal(t, http.StatusCreated, w.Result().StatusCode)
	mockDB.AssertExpectations(t)
}

func TestGetGroupServiceNotFound(t *testing.T) {
	mockDB := new(MockCircleDB)
	svc := newTestService(mockDB, new(MockGateway), new(MockNotifier))

	groupID := uuid.New()
	mockDB.On("GetGroup", groupID).Return(nil, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/groups/"+groupID.String(), nil)
	r = mux.SetURLVars(r, map[string]string{"group-id": groupID.String()})
	ctx := context.WithValue(r.Context(), middleware.ClaimsKey, authn.Claims{Username: "alice"})
	w := httptest.NewRecorder()

	GetGroupService(svc, w, r.WithContext(ctx))

	assert.Equal(t, http.StatusNotFound, w.Result().StatusCode)
}

func TestGetGroupServiceRequiresMembership(t *testing.T) {
	mockDB := new(MockCircleDB)
	svc := newTestService(mockDB, new(MockGateway), new(MockNotifier))

	group := &models.Group{ID: uuid.New(), Name: "Boda Traders"}
	user := &models.User{ID: uuid.New(), Username: "alice"}

	mockDB.On("GetGroup", group.ID).Return(group, nil)
	mockDB.On("EnsureUser", mock.Anything).Return(user, nil)
	mockDB.On("IsActiveMember", group.ID, user.ID).Return(false, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/groups/"+group.ID.String(), nil)
	r = mux.SetURLVars(r, map[string]string{"group-id": group.ID.String()})
	ctx := context.WithValue(r.Context(), middleware.ClaimsKey, authn.Claims{Username: "alice"})
	w := httptest.NewRecorder()

	GetGroupService(svc, w, r.WithContext(ctx))

	res := w.Result()
	assert.Equal(t, http.StatusForbidden, res.StatusCode)

	body, _ := io.ReadAll(res.Body)
	var response models.Response
	assert.NoError(t, json.Unmarshal(body, &response))
	assert.Equal(t, "not_a_member", response.ErrorCode)

	mockDB.AssertNotCalled(t, "GetCurrentCycleProgress", mock.Anything)
}

func TestGetMembersServiceRequiresMembership(t *testing.T) {
	mockDB := new(MockCircleDB)
	svc := newTestService(mockDB, new(MockGateway), new(MockNotifier))

	groupID := uuid.New()
	user := &models.User{ID: uuid.New(), Username: "alice"}

	mockDB.On("EnsureUser", mock.Anything).Return(user, nil)
	mockDB.On("IsActiveMember", groupID, user.ID).Return(false, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/v1/groups/"+groupID.String()+"/members", nil)
	r = mux.SetURLVars(r, map[string]string{"group-id": groupID.String()})
	ctx := context.WithValue(r.Context(), middleware.ClaimsKey, authn.Claims{Username: "alice"})
	w := httptest.NewRecorder()

	GetMembersService(svc, w, r.WithContext(ctx))

	assert.Equal(t, http.StatusForbidden, w.Result().StatusCode)
	mockDB.AssertNotCalled(t, "GetMembers", mock.Anything)
}
